package synth

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
)

const pdfHeader = "%PDF-1.7\n%\xb5\xb5\xb5\xb5\n"

// XrefPlaceholder returns the trailer written at the end of every document.
//
// It is not a usable cross-reference table: it lists only the free entry
// for object 0 and points startxref at offset 0. Output is expected to pass
// through a repair or compaction step (for example qpdf or mutool clean)
// which rebuilds the table from the object graph. Consumers rely on this
// exact form, so it must not be replaced with a computed table.
func XrefPlaceholder(size int) string {
	return fmt.Sprintf("xref\n0 %d\n0000000000 65535 f \ntrailer\n<</Size %d /Root 1 0 R>>\nstartxref\n0\n%%%%EOF\n", size, size)
}

// num formats v for PDF output, rounded to six decimals without exponent.
func num(v float64) string {
	s := strconv.FormatFloat(math.Round(v*1e6)/1e6, 'f', -1, 64)
	if s == "-0" {
		return "0"
	}
	return s
}

func ref(obj int) string { return strconv.Itoa(obj) + " 0 R" }

func writeObject(buf *bytes.Buffer, obj int, body string) {
	fmt.Fprintf(buf, "%d 0 obj\n%s\nendobj\n\n", obj, body)
}

// writeStream writes a stream object. extra holds additional dictionary
// entries, starting with a space.
func writeStream(buf *bytes.Buffer, obj int, extra string, data []byte) {
	fmt.Fprintf(buf, "%d 0 obj\n<</Length %d%s>>\nstream\n", obj, len(data), extra)
	buf.Write(data)
	buf.WriteString("\nendstream\nendobj\n\n")
}
