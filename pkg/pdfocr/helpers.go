package pdfocr

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding/unicode"

	"github.com/gardar/ocrsynth/internal/logging"
)

// normalizeCoords rescales OCR pixel coordinates to the PDF coords.
func normalizeCoords(x, y, ocrW, ocrH, pdfW, pdfH float64) (float64, float64) {
	return (x / ocrW) * pdfW, (y / ocrH) * pdfH
}

var pdfEscapes = strings.NewReplacer(
	`\(`, "(",
	`\)`, ")",
	`\\`, `\`,
	`\n`, "\n",
	`\r`, "\r",
	`\t`, "\t",
)

func unescapePDFString(s string) string {
	return pdfEscapes.Replace(s)
}

// decodeUTF16BE decodes a PDF text string carrying a UTF-16BE byte order mark.
func decodeUTF16BE(b []byte) (string, error) {
	if len(b) < 2 || b[0] != 0xFE || b[1] != 0xFF {
		return "", fmt.Errorf("no BOM detected, cannot confirm UTF-16BE")
	}
	out, err := unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM).NewDecoder().Bytes(b)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// getLogger returns the logger to use based on the configuration settings.
// Warnings disabled means a nil logger, which discards everything.
func getLogger(config *OCRConfig) *logging.Logger {
	if !config.LogWarnings && !config.Debug {
		return nil
	}
	log := logging.New(config.Logger, "pdfocr")
	log.SetDebug(config.Debug)
	return log
}

// logWriter returns the configured log destination, defaulting to os.Stdout.
func logWriter(config *OCRConfig) io.Writer {
	if config.Logger == nil {
		return os.Stdout
	}
	return config.Logger
}

// dumpPDFStructure is a debug utility that prints out
// the first N bytes of the PDF plus any /OCG layer references.
func dumpPDFStructure(pdfData []byte, byteCount int, w io.Writer) {
	byteCount = min(byteCount, len(pdfData))

	fmt.Fprintln(w, "===== PDF STRUCTURE DUMP (FIRST", byteCount, "BYTES) =====")
	fmt.Fprintln(w, string(pdfData[:byteCount]))
	fmt.Fprintln(w, "===== END PDF STRUCTURE DUMP =====")

	if ocgIndex := bytes.Index(pdfData, []byte("/OCG")); ocgIndex >= 0 {
		start := max(ocgIndex-20, 0)
		end := min(ocgIndex+100, len(pdfData))
		fmt.Fprintln(w, "===== OCG CONTEXT =====")
		fmt.Fprintln(w, string(pdfData[start:end]))
		fmt.Fprintln(w, "===== END OCG CONTEXT =====")
	}
}
