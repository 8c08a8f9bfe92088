package synth

import (
	"math"
	"testing"

	"github.com/gardar/ocrsynth/pkg/fonts"
	"github.com/gardar/ocrsynth/pkg/ocr"
)

const eps = 1e-6

func testEnv(t *testing.T) (*fonts.Store, *fonts.Measurer) {
	t.Helper()

	store, err := fonts.NewDefaultStore()
	if err != nil {
		t.Fatalf("NewDefaultStore() error = %v", err)
	}
	return store, fonts.NewMeasurer(store)
}

func word(text string, left, top, right, bottom float64) ocr.Word {
	return ocr.Word{Text: text, BBox: ocr.NewBBox(left, top, right, bottom), Confidence: 95}
}

func testLine(words ...ocr.Word) ocr.Line {
	line := ocr.Line{LetterHeight: 30, Words: words}
	line.RecalcBBox()
	return line
}

func testPage(lines ...ocr.Line) ocr.Page {
	return ocr.Page{Dims: ocr.Dims{Width: 1000, Height: 1400}, Lines: lines}
}

// newTestLayout prepares a layout for page 0 the way Synthesize does.
func newTestLayout(t *testing.T, store *fonts.Store, page *ocr.Page, opts Options) *pageLayout {
	t.Helper()

	m := fonts.NewMeasurer(store)
	table := buildFontTable([]ocr.Page{*page}, store, m, nil)
	return newPageLayout(0, page, &opts, table, m, nil)
}

type span struct{ left, right float64 }

// inkSpans replays the glyph runs of a line and returns the ink extent of
// each word relative to the line's left edge.
func inkSpans(runs []*wordRun) []span {
	var x float64
	out := make([]span, 0, len(runs))
	for _, r := range runs {
		h := r.h()
		s := r.size * h / 1000
		x -= r.lead * s
		sp := span{left: math.NaN()}
		for _, it := range r.items {
			f := r.font.font
			if !it.space {
				xMin, _, xMax, _ := f.GlyphBounds(it.gid)
				if math.IsNaN(sp.left) {
					sp.left = x + xMin*s
				}
				sp.right = x + xMax*s
			}
			x += (f.Advance(it.gid)*r.size/1000 + r.metrics.CharSpacing) * h
			x -= it.adjust * s
		}
		out = append(out, sp)
	}
	return out
}
