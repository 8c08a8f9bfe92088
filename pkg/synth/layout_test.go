package synth

import (
	"context"
	"math"
	"strings"
	"testing"

	"golang.org/x/image/font/gofont/goregular"

	"github.com/gardar/ocrsynth/pkg/fonts"
	"github.com/gardar/ocrsynth/pkg/ocr"
)

func TestFillColor(t *testing.T) {
	thresholds := []Thresholds{{High: 85, Medium: 75}, {High: 50, Medium: 10}, {High: 99.5, Medium: 0}}
	for _, th := range thresholds {
		for conf := 0.0; conf <= 100; conf += 0.5 {
			w := &ocr.Word{Confidence: conf}
			got := fillColor(ModeProof, th, w)
			want := colorLow
			switch {
			case conf > th.High:
				want = colorHigh
			case conf > th.Medium:
				want = colorMedium
			}
			if got != want {
				t.Fatalf("fillColor(proof, %+v, conf %v) = %q, want %q", th, conf, got, want)
			}
		}
	}

	tests := []struct {
		name  string
		mode  DisplayMode
		word  ocr.Word
		color string
	}{
		{"book ignores confidence", ModeBook, ocr.Word{Confidence: 10}, colorBlack},
		{"evaluation match", ModeEvaluation, ocr.Word{Confidence: 10, MatchTruth: true}, colorHigh},
		{"evaluation mismatch", ModeEvaluation, ocr.Word{Confidence: 99}, colorLow},
		{"invisible", ModeInvisible, ocr.Word{}, colorBlack},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := fillColor(tt.mode, Thresholds{85, 75}, &tt.word); got != tt.color {
				t.Errorf("fillColor() = %q, want %q", got, tt.color)
			}
		})
	}
}

func TestWidthReconciliation(t *testing.T) {
	store, _ := testEnv(t)

	tests := []struct {
		name  string
		words []ocr.Word
	}{
		{"natural widths", []ocr.Word{
			word("Hello", 100, 100, 190, 130),
			word("world", 200, 100, 290, 130),
		}},
		{"wide and narrow", []ocr.Word{
			word("Wide", 100, 100, 260, 130),
			word("narrow", 280, 100, 330, 130),
			word("end.", 345, 100, 400, 130),
		}},
		{"single glyph words", []ocr.Word{
			word("I", 100, 100, 130, 130),
			word("a", 140, 100, 145, 130),
			word("box", 160, 100, 230, 130),
		}},
		{"explicit size and italic", []ocr.Word{
			word("Big", 100, 90, 200, 130),
			{Text: "slanted", BBox: ocr.NewBBox(210, 100, 320, 130), Style: ocr.StyleItalic, Size: 24},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := testPage(testLine(tt.words...))
			p := newTestLayout(t, store, &page, DefaultOptions())
			st := newTextState()
			runs := p.layoutLine(0, &st)
			if len(runs) != len(tt.words) {
				t.Fatalf("layoutLine() returned %d runs, want %d", len(runs), len(tt.words))
			}

			line := &page.Lines[0]
			spans := inkSpans(runs)
			for i, w := range tt.words {
				left := w.BBox.Left - line.BBox.Left
				if math.Abs(spans[i].left-left) > eps {
					t.Errorf("word %q ink starts at %v, want %v", w.Text, spans[i].left, left)
				}
				width := w.BBox.Width()
				if len(runs[i].metrics.Glyphs) == 1 {
					width = runs[i].metrics.VisualWidth
				}
				if got := spans[i].right - spans[i].left; math.Abs(got-width) > eps {
					t.Errorf("word %q ink width = %v, want %v", w.Text, got, width)
				}
			}
		})
	}
}

func TestInterWordGapScenario(t *testing.T) {
	store, m := testEnv(t)
	const size = 20

	m1, _ := m.MeasureWord("Hello", "Go", size, ocr.StyleNormal)
	m2, _ := m.MeasureWord("there", "Go", size, ocr.StyleNormal)
	space, _ := m.MeasureWord(" ", "Go", 1000, ocr.StyleNormal)
	spaceWidth := space.Glyphs[0].Advance * size / 1000

	// Boxes at natural width, so character spacing stays zero.
	naive := m1.RightBearing + spaceWidth + m2.LeftBearing
	gap := naive - 2
	w1 := ocr.Word{Text: "Hello", Size: size, BBox: ocr.NewBBox(50, 100, 50+m1.VisualWidth, 120)}
	left2 := w1.BBox.Right + gap
	w2 := ocr.Word{Text: "there", Size: size, BBox: ocr.NewBBox(left2, 100, left2+m2.VisualWidth, 120)}

	page := testPage(testLine(w1, w2))
	p := newTestLayout(t, store, &page, DefaultOptions())
	st := newTextState()
	runs := p.layoutLine(0, &st)
	if len(runs) != 2 {
		t.Fatalf("layoutLine() returned %d runs, want 2", len(runs))
	}

	last := runs[0].items[len(runs[0].items)-1]
	if !last.space {
		t.Fatal("first word does not end with a synthesized space")
	}
	if got := last.adjust * size / 1000; math.Abs(got-2) > eps {
		t.Errorf("gap correction = %vpx, want 2px", got)
	}

	spans := inkSpans(runs)
	if got := spans[1].left - spans[0].right; math.Abs(got-gap) > eps {
		t.Errorf("rendered gap = %v, want %v", got, gap)
	}
}

func TestCJKGapHasNoSpace(t *testing.T) {
	store, _ := testEnv(t)
	cjk, err := fonts.Parse(fonts.CJKFamily, ocr.StyleNormal, goregular.TTF)
	if err != nil {
		t.Fatal(err)
	}
	store.SetCJK(cjk)

	w1 := word("ab", 100, 100, 140, 130)
	w2 := word("c", 150, 100, 162, 130)
	w3 := word("de", 170, 100, 210, 130)
	page := testPage(testLine(w1, w2, w3))
	page.Lang = "jpn"

	p := newTestLayout(t, store, &page, DefaultOptions())
	if p.fonts.cjk == nil || !p.fonts.cjk.font.IsSubset() {
		t.Fatal("CJK words did not produce a subset CJK font")
	}
	st := newTextState()
	runs := p.layoutLine(0, &st)
	if len(runs) != 3 {
		t.Fatalf("layoutLine() returned %d runs, want 3", len(runs))
	}
	for _, r := range runs {
		if r.font != p.fonts.cjk {
			t.Errorf("word %q not set in the CJK font", r.word.Text)
		}
		for _, it := range r.items {
			if it.space {
				t.Errorf("word %q carries a synthesized space between CJK words", r.word.Text)
			}
		}
	}

	spans := inkSpans(runs)
	for i, w := range []ocr.Word{w1, w2, w3} {
		if want := w.BBox.Left - 100; math.Abs(spans[i].left-want) > eps {
			t.Errorf("word %q ink starts at %v, want %v", w.Text, spans[i].left, want)
		}
	}
}

func TestMissingGlyphSubstitution(t *testing.T) {
	store, m := testEnv(t)
	page := testPage(testLine(word("aሀb", 100, 100, 160, 130)))
	p := newTestLayout(t, store, &page, DefaultOptions())

	run, ok := p.resolve(0, 0)
	if !ok {
		t.Fatal("resolve() dropped a word with a missing glyph")
	}
	notdef, _ := m.MeasureWord("ሀ", "Go", run.size, ocr.StyleNormal)
	item := run.items[1]
	if item.gid != p.fonts.byKey[fonts.Key{Family: "Go"}].spaceGID {
		t.Errorf("missing glyph emitted as gid %d, want the space glyph", item.gid)
	}
	want := p.fonts.byKey[fonts.Key{Family: "Go"}].spaceAdv - notdef.Glyphs[0].Advance
	if math.Abs(item.adjust-want) > eps {
		t.Errorf("missing glyph adjustment = %v, want %v", item.adjust, want)
	}
}

func TestSuperscriptRise(t *testing.T) {
	store, _ := testEnv(t)
	base := word("x", 100, 670, 118, 700)
	sup := word("2", 120, 672, 126, 690)
	sup.Kind = ocr.KindSuperscript
	line := testLine(base, sup)
	if line.BBox.Bottom != 700 || line.Baseline.Intercept != 0 {
		t.Fatalf("unexpected line geometry %+v", line)
	}

	for _, opts := range []Options{DefaultOptions(), {RotateBackground: true}, {RotateText: true}} {
		page := testPage(line)
		p := newTestLayout(t, store, &page, opts)
		run, ok := p.resolve(0, 1)
		if !ok {
			t.Fatal("resolve() dropped the superscript")
		}
		if run.rise != 10 {
			t.Errorf("superscript rise = %v, want 10", run.rise)
		}
		if plain, _ := p.resolve(0, 0); plain.rise != 0 {
			t.Errorf("plain word rise = %v, want 0", plain.rise)
		}
	}
}

func TestDropCapScaling(t *testing.T) {
	store, _ := testEnv(t)
	drop := word("T", 100, 100, 160, 190)
	drop.Kind = ocr.KindDropCap
	page := testPage(testLine(drop, word("he", 170, 100, 200, 130)))
	p := newTestLayout(t, store, &page, DefaultOptions())

	st := newTextState()
	runs := p.layoutLine(0, &st)
	if len(runs) != 2 {
		t.Fatalf("layoutLine() returned %d runs, want 2", len(runs))
	}
	if runs[0].scale == 100 {
		t.Error("drop cap was not horizontally scaled")
	}
	spans := inkSpans(runs)
	if got := spans[0].right - spans[0].left; math.Abs(got-60) > eps {
		t.Errorf("drop cap ink width = %v, want 60", got)
	}
	if math.Abs(spans[1].left-70) > eps {
		t.Errorf("word after drop cap starts at %v, want 70", spans[1].left)
	}
	if runs[0].rise != 0 {
		t.Errorf("drop cap rise = %v, want 0 for a box resting on the line bottom", runs[0].rise)
	}
}

func TestUnavailableFontSkipsWord(t *testing.T) {
	store, _ := testEnv(t)
	missing := word("lost", 200, 100, 260, 130)
	missing.Family = "Garamond"
	page := testPage(testLine(word("kept", 100, 100, 160, 130), missing, word("too", 280, 100, 320, 130)))
	p := newTestLayout(t, store, &page, DefaultOptions())

	st := newTextState()
	runs := p.layoutLine(0, &st)
	if len(runs) != 2 || runs[0].word.Text != "kept" || runs[1].word.Text != "too" {
		t.Fatalf("layoutLine() kept %d runs, want the two words with fonts", len(runs))
	}
}

func TestStateEmittedOnlyOnChange(t *testing.T) {
	store, _ := testEnv(t)
	italic := word("and", 200, 100, 250, 130)
	italic.Style = ocr.StyleItalic
	page := testPage(
		testLine(word("one", 100, 100, 150, 130), word("two", 160, 100, 190, 130), italic),
		testLine(word("three", 100, 200, 180, 230)),
		ocr.Line{},
	)
	p := newTestLayout(t, store, &page, DefaultOptions())

	stream, err := p.content(context.Background(), 1)
	if err != nil {
		t.Fatalf("content() error = %v", err)
	}
	s := string(stream)
	if n := strings.Count(s, " Tf\n"); n != 3 {
		t.Errorf("content has %d Tf operators, want 3 (regular, italic, regular):\n%s", n, s)
	}
	if n := strings.Count(s, colorBlack); n != 1 {
		t.Errorf("content sets the fill color %d times, want 1", n)
	}
	if n := strings.Count(s, " Tm\n"); n != 2 {
		t.Errorf("content has %d Tm operators, want 2 (empty line skipped)", n)
	}
	if !strings.HasPrefix(s, "BT\n") || !strings.HasSuffix(s, "ET\n") {
		t.Errorf("content is not a single text object:\n%s", s)
	}
}

func TestLineSizeMemoized(t *testing.T) {
	store, m := testEnv(t)
	line := testLine(word("abc", 100, 100, 160, 130))
	line.LetterHeight, line.AscHeight, line.DescHeight = 40, 10, 8
	page := testPage(line)
	p := newTestLayout(t, store, &page, DefaultOptions())

	info := p.line(0)
	want, _ := m.InferFontSize("Go", ocr.StyleNormal, 22, 'x')
	if math.Abs(info.size-want) > eps {
		t.Errorf("line size = %v, want %v from the x-height", info.size, want)
	}
	if _, ok := p.lines[lineKey{0, 0}]; !ok {
		t.Error("line size was not cached")
	}

	page.Lines[0].AscHeight = 0
	p = newTestLayout(t, store, &page, DefaultOptions())
	want, _ = m.InferFontSize("Go", ocr.StyleNormal, 32, 'A')
	if got := p.line(0).size; math.Abs(got-want) > eps {
		t.Errorf("line size = %v, want %v from the cap height", got, want)
	}
}

// fontRecorder records the fonts line sizes are inferred against.
type fontRecorder struct {
	Oracle
	keys []fonts.Key
}

func (r *fontRecorder) InferFontSize(family string, style ocr.Style, target float64, ref rune) (float64, error) {
	r.keys = append(r.keys, fonts.Key{Family: family, Style: style})
	return r.Oracle.InferFontSize(family, style, target, ref)
}

func TestLineSizeUsesLineFont(t *testing.T) {
	store, m := testEnv(t)
	mono := word("mono", 100, 100, 160, 130)
	mono.Family = "Go Mono"
	mono.Style = ocr.StyleItalic
	plain := word("text", 100, 200, 160, 230)
	blank := word(" ", 90, 300, 95, 330)
	page := testPage(testLine(blank, mono), testLine(plain))

	rec := &fontRecorder{Oracle: m}
	opts := DefaultOptions()
	table := buildFontTable([]ocr.Page{page}, store, m, nil)
	p := newPageLayout(0, &page, &opts, table, rec, nil)

	want, _ := m.InferFontSize("Go Mono", ocr.StyleItalic, 30, 'A')
	if got := p.line(0).size; math.Abs(got-want) > eps {
		t.Errorf("line size = %v, want %v measured against Go Mono italic", got, want)
	}
	p.line(1)
	wantKeys := []fonts.Key{{Family: "Go Mono", Style: ocr.StyleItalic}, {Family: "Go", Style: ocr.StyleNormal}}
	if len(rec.keys) != len(wantKeys) {
		t.Fatalf("InferFontSize called with %v, want %v", rec.keys, wantKeys)
	}
	for i := range wantKeys {
		if rec.keys[i] != wantKeys[i] {
			t.Errorf("line %d size inferred against %v, want %v", i, rec.keys[i], wantKeys[i])
		}
	}
}
