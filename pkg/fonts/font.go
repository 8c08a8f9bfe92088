// Package fonts supplies parsed substitute fonts and text measurements.
//
// It provides the two collaborators the synthesis engine queries:
//
// - Store: parsed fonts per (family, style), plus one CJK supplemental font,
// with glyph-id preserving subsetting for embedding.
// - Measurer: the text-measurement oracle. It infers font sizes from pixel
// heights and measures words (advances, kerning, side bearings).
//
// Fonts are parsed with golang.org/x/image/font/opentype. All metrics are
// reported in PDF glyph space (1000 units per em) unless stated otherwise.
package fonts

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"

	"github.com/gardar/ocrsynth/pkg/ocr"
)

// Sentinel errors for the fonts package.
var (
	// ErrEmptyFontData is returned when font data is empty.
	ErrEmptyFontData = errors.New("fonts: empty font data")

	// ErrFontNotFound is returned when no font is registered for a family and style.
	ErrFontNotFound = errors.New("fonts: font not found")
)

// Font is a parsed font program together with the metadata needed to embed it.
type Font struct {
	Family string
	Style  ocr.Style
	Serif  bool

	name   string
	data   []byte
	sfnt   *sfnt.Font
	upem   float64
	ppem   fixed.Int26_6
	cff    bool
	subset bool
}

// Parse parses TrueType or OpenType data into a Font.
func Parse(family string, style ocr.Style, data []byte) (*Font, error) {
	if len(data) == 0 {
		return nil, ErrEmptyFontData
	}
	f, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("fonts: failed to parse %s %s: %w", family, style, err)
	}
	upem := int(f.UnitsPerEm())
	if upem <= 0 {
		return nil, fmt.Errorf("fonts: %s %s has invalid units per em %d", family, style, upem)
	}

	var buf sfnt.Buffer
	name, err := f.Name(&buf, sfnt.NameIDPostScript)
	if err != nil || name == "" {
		name = family + "-" + style.String()
	}

	return &Font{
		Family: family,
		Style:  style,
		name:   sanitizeName(name),
		data:   data,
		sfnt:   f,
		upem:   float64(upem),
		// Requesting metrics at ppem == unitsPerEm returns raw font units.
		ppem: fixed.I(upem),
		cff:  len(data) >= 4 && string(data[:4]) == "OTTO",
	}, nil
}

// sanitizeName strips characters that are not allowed in a PDF name.
func sanitizeName(name string) string {
	return strings.Map(func(r rune) rune {
		if r <= ' ' || r > '~' || strings.ContainsRune("()<>[]{}/%#", r) {
			return -1
		}
		return r
	}, name)
}

// PostScriptName returns the font's PostScript name, prefixed with a subset
// tag for subset fonts.
func (f *Font) PostScriptName() string { return f.name }

// Program returns the raw font file.
func (f *Font) Program() []byte { return f.data }

// IsCFF reports whether the font carries CFF outlines rather than TrueType glyphs.
func (f *Font) IsCFF() bool { return f.cff }

// IsSubset reports whether the font was produced by Store.Subset.
func (f *Font) IsSubset() bool { return f.subset }

// NumGlyphs returns the number of glyphs in the font.
func (f *Font) NumGlyphs() int { return f.sfnt.NumGlyphs() }

// UnitsPerEm returns the font's design units per em.
func (f *Font) UnitsPerEm() float64 { return f.upem }

// toPDF converts a 26.6 value measured at ppem == unitsPerEm into 1000-unit glyph space.
func (f *Font) toPDF(v fixed.Int26_6) float64 {
	return float64(v) / 64 * 1000 / f.upem
}

// GlyphIndex returns the glyph id for r, or 0 when the font has no glyph for it.
func (f *Font) GlyphIndex(r rune) uint16 {
	var buf sfnt.Buffer
	idx, err := f.sfnt.GlyphIndex(&buf, r)
	if err != nil {
		return 0
	}
	return uint16(idx)
}

// Advance returns the advance width of a glyph.
func (f *Font) Advance(gid uint16) float64 {
	var buf sfnt.Buffer
	adv, err := f.sfnt.GlyphAdvance(&buf, sfnt.GlyphIndex(gid), f.ppem, font.HintingNone)
	if err != nil {
		return 0
	}
	return f.toPDF(adv)
}

// GlyphBounds returns the ink box of a glyph with Y increasing up.
// Glyphs without outlines return a zero box.
func (f *Font) GlyphBounds(gid uint16) (xMin, yMin, xMax, yMax float64) {
	var buf sfnt.Buffer
	b, _, err := f.sfnt.GlyphBounds(&buf, sfnt.GlyphIndex(gid), f.ppem, font.HintingNone)
	if err != nil {
		return 0, 0, 0, 0
	}
	return f.toPDF(b.Min.X), -f.toPDF(b.Max.Y), f.toPDF(b.Max.X), -f.toPDF(b.Min.Y)
}

// Kern returns the pair kerning adjustment between two glyphs, 0 if none.
func (f *Font) Kern(g0, g1 uint16) float64 {
	var buf sfnt.Buffer
	k, err := f.sfnt.Kern(&buf, sfnt.GlyphIndex(g0), sfnt.GlyphIndex(g1), f.ppem, font.HintingNone)
	if err != nil {
		return 0
	}
	return f.toPDF(k)
}

// BBox returns the font bounding box. ok is false when the font does not
// provide one, in which case the box is all zero.
func (f *Font) BBox() (box [4]float64, ok bool) {
	var buf sfnt.Buffer
	b, err := f.sfnt.Bounds(&buf, f.ppem, font.HintingNone)
	if err != nil {
		return box, false
	}
	box = [4]float64{f.toPDF(b.Min.X), -f.toPDF(b.Max.Y), f.toPDF(b.Max.X), -f.toPDF(b.Min.Y)}
	return box, box != [4]float64{}
}

// ItalicAngle returns the italic angle from the post table. ok is false
// when the table is missing.
func (f *Font) ItalicAngle() (angle float64, ok bool) {
	post := f.sfnt.PostTable()
	if post == nil {
		return 0, false
	}
	return post.ItalicAngle, true
}

// VerticalMetrics returns ascent, descent (negative below baseline) and cap height.
func (f *Font) VerticalMetrics() (ascent, descent, capHeight float64) {
	var buf sfnt.Buffer
	m, err := f.sfnt.Metrics(&buf, f.ppem, font.HintingNone)
	if err != nil {
		return 0, 0, 0
	}
	return f.toPDF(m.Ascent), -f.toPDF(m.Descent), f.toPDF(m.CapHeight)
}
