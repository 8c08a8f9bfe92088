package synth

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/gardar/ocrsynth/pkg/fonts"
	"github.com/gardar/ocrsynth/pkg/ocr"
)

// FontObjects is the number of consecutive object numbers EmbedFont uses.
const FontObjects = 6

// Font descriptor flag bits (PDF 32000-1, table 123).
const (
	flagSerif       = 1 << 1
	flagSymbolic    = 1 << 2
	flagNonsymbolic = 1 << 5
	flagItalic      = 1 << 6
	flagSmallCap    = 1 << 17
)

// DeriveFontDescriptorFlags computes the /Flags value of a font descriptor.
// Exactly one of the symbolic and nonsymbolic bits is always set.
func DeriveFontDescriptorFlags(serif, italic, smallcap, symbolic bool) int {
	flags := 0
	if serif {
		flags |= flagSerif
	}
	if symbolic {
		flags |= flagSymbolic
	} else {
		flags |= flagNonsymbolic
	}
	if italic {
		flags |= flagItalic
	}
	if smallcap {
		flags |= flagSmallCap
	}
	return flags
}

// EmbedFont serializes f as a composite (Type0, Identity-H) font occupying
// objects base through base+5:
//
//	base+0  Type0 font dictionary
//	base+1  reserved for a ToUnicode map, written as null
//	base+2  font descriptor
//	base+3  glyph width array
//	base+4  font program, ASCII hex encoded
//	base+5  descendant CIDFont dictionary
//
// Glyph codes are glyph ids. The caller owns object numbering; EmbedFont
// never allocates numbers beyond its six slots.
func EmbedFont(f *fonts.Font, base int, symbolic bool) []byte {
	var buf bytes.Buffer
	name := f.PostScriptName()

	writeObject(&buf, base, fmt.Sprintf(
		"<</Type /Font /Subtype /Type0 /BaseFont /%s /Encoding /Identity-H /DescendantFonts [%s]>>",
		name, ref(base+5)))

	writeObject(&buf, base+1, "null")

	box, _ := f.BBox()
	italicAngle, _ := f.ItalicAngle()
	ascent, descent, capHeight := f.VerticalMetrics()
	flags := DeriveFontDescriptorFlags(f.Serif, f.Style == ocr.StyleItalic, f.Style == ocr.StyleSmallCaps, symbolic)
	writeObject(&buf, base+2, fmt.Sprintf(
		"<</Type /FontDescriptor /FontName /%s /Flags %d /FontBBox [%s %s %s %s] /ItalicAngle %s /Ascent %s /Descent %s /CapHeight %s /StemV 80 /FontFile3 %s>>",
		name, flags, num(box[0]), num(box[1]), num(box[2]), num(box[3]),
		num(italicAngle), num(ascent), num(descent), num(capHeight), ref(base+4)))

	var widths strings.Builder
	widths.WriteString("[0 [")
	for gid := 0; gid < f.NumGlyphs(); gid++ {
		if gid > 0 {
			widths.WriteByte(' ')
		}
		widths.WriteString(num(f.Advance(uint16(gid))))
	}
	widths.WriteString("]]")
	writeObject(&buf, base+3, widths.String())

	program := make([]byte, hex.EncodedLen(len(f.Program()))+1)
	hex.Encode(program, f.Program())
	program[len(program)-1] = '>'
	writeStream(&buf, base+4, " /Subtype /OpenType /Filter /ASCIIHexDecode", program)

	subtype, gidMap := "CIDFontType2", " /CIDToGIDMap /Identity"
	if f.IsCFF() {
		subtype, gidMap = "CIDFontType0", ""
	}
	writeObject(&buf, base+5, fmt.Sprintf(
		"<</Type /Font /Subtype /%s /BaseFont /%s /CIDSystemInfo <</Registry (Adobe) /Ordering (Identity) /Supplement 0>> /FontDescriptor %s /W %s /DW 0%s>>",
		subtype, name, ref(base+2), ref(base+3), gidMap))

	return buf.Bytes()
}
