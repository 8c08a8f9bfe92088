package fonts

import (
	"errors"
	"fmt"

	"github.com/gardar/ocrsynth/pkg/ocr"
)

// ErrNoGlyphHeight is returned by InferFontSize when the reference glyph has no ink.
var ErrNoGlyphHeight = errors.New("fonts: reference glyph has no height")

// Glyph is one measured glyph of a word. Advance and Kern are in 1000-unit
// glyph space; Kern is the pair adjustment between this glyph and the next.
type Glyph struct {
	Rune    rune
	GID     uint16
	Advance float64
	Kern    float64
	Missing bool // the font has no glyph for Rune; metrics are those of .notdef
}

// WordMetrics describes a word set in a given font at a given size.
// Widths and bearings are in pixels at Size.
type WordMetrics struct {
	Glyphs       []Glyph
	Size         float64
	VisualWidth  float64 // ink width from the first glyph's left edge to the last glyph's right edge
	LeftBearing  float64
	RightBearing float64
	CharSpacing  float64 // extra spacing added after each glyph, set by FitWidth
}

// Advance returns the total advance of the word at Size, kerning included
// and character spacing excluded.
func (m *WordMetrics) Advance() float64 {
	var total float64
	for _, g := range m.Glyphs {
		total += g.Advance + g.Kern
	}
	return total * m.Size / 1000
}

// InkWidth returns the rendered ink width including CharSpacing between glyphs.
func (m *WordMetrics) InkWidth() float64 {
	if len(m.Glyphs) < 2 {
		return m.VisualWidth
	}
	return m.VisualWidth + float64(len(m.Glyphs)-1)*m.CharSpacing
}

// FitWidth sets CharSpacing so the ink width equals target and returns the
// part of target that could not be distributed. Words with fewer than two
// glyphs cannot redistribute anything, so their residual is target minus
// their visual width.
func (m *WordMetrics) FitWidth(target float64) (residual float64) {
	if len(m.Glyphs) < 2 {
		m.CharSpacing = 0
		return target - m.VisualWidth
	}
	m.CharSpacing = (target - m.VisualWidth) / float64(len(m.Glyphs)-1)
	return 0
}

// Measurer answers text measurement queries against a Store.
type Measurer struct {
	store *Store
}

// NewMeasurer creates a Measurer backed by store.
func NewMeasurer(store *Store) *Measurer {
	return &Measurer{store: store}
}

// InferFontSize returns the font size at which ref renders targetHeight
// pixels tall in the given font. When the font lacks ref, 'A' is used.
func (m *Measurer) InferFontSize(family string, style ocr.Style, targetHeight float64, ref rune) (float64, error) {
	if targetHeight <= 0 {
		return 0, fmt.Errorf("fonts: invalid target height %v", targetHeight)
	}
	f, err := m.store.Font(family, style)
	if err != nil {
		return 0, err
	}
	gid := f.GlyphIndex(ref)
	if gid == 0 {
		gid = f.GlyphIndex('A')
	}
	_, yMin, _, yMax := f.GlyphBounds(gid)
	h := yMax - yMin
	if h <= 0 {
		return 0, fmt.Errorf("%w: %q in %s", ErrNoGlyphHeight, ref, f.PostScriptName())
	}
	return targetHeight * 1000 / h, nil
}

// MeasureWord measures text set in family/style at size.
func (m *Measurer) MeasureWord(text, family string, size float64, style ocr.Style) (*WordMetrics, error) {
	f, err := m.store.Font(family, style)
	if err != nil {
		return nil, err
	}
	return Measure(f, text, size), nil
}

// Measure measures text set in f at size. Text is NFC-normalized first.
// Characters without a glyph are measured as .notdef and flagged Missing.
func Measure(f *Font, text string, size float64) *WordMetrics {
	runes := []rune(ocr.NormalizeText(text))
	m := &WordMetrics{Size: size, Glyphs: make([]Glyph, len(runes))}
	if len(runes) == 0 {
		return m
	}

	var total float64
	for i, r := range runes {
		gid := f.GlyphIndex(r)
		m.Glyphs[i] = Glyph{Rune: r, GID: gid, Advance: f.Advance(gid), Missing: gid == 0}
		total += m.Glyphs[i].Advance
	}
	for i := 0; i+1 < len(m.Glyphs); i++ {
		g, next := &m.Glyphs[i], m.Glyphs[i+1]
		if g.Missing || next.Missing {
			continue
		}
		g.Kern = f.Kern(g.GID, next.GID)
		total += g.Kern
	}

	first, last := m.Glyphs[0], m.Glyphs[len(m.Glyphs)-1]
	lb, _, _, _ := f.GlyphBounds(first.GID)
	_, _, xMax, _ := f.GlyphBounds(last.GID)
	rb := last.Advance - xMax
	if xMax == 0 {
		// Blank glyphs have no ink; treat their full advance as bearing.
		rb = last.Advance
	}

	scale := size / 1000
	m.LeftBearing = lb * scale
	m.RightBearing = rb * scale
	m.VisualWidth = (total - lb - rb) * scale
	return m
}
