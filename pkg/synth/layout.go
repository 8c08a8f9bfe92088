package synth

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/gardar/ocrsynth/internal/logging"
	"github.com/gardar/ocrsynth/pkg/fonts"
	"github.com/gardar/ocrsynth/pkg/ocr"
)

// Fill colors.
const (
	colorBlack  = "0 0 0 rg"
	colorHigh   = "0 1 0.5 rg"
	colorMedium = "1 0.8 0 rg"
	colorLow    = "1 0 0 rg"
)

// fillColor selects the fill color of a word for the display mode.
func fillColor(mode DisplayMode, t Thresholds, w *ocr.Word) string {
	switch mode {
	case ModeProof:
		switch {
		case w.Confidence > t.High:
			return colorHigh
		case w.Confidence > t.Medium:
			return colorMedium
		default:
			return colorLow
		}
	case ModeEvaluation:
		if w.MatchTruth {
			return colorHigh
		}
		return colorLow
	default:
		return colorBlack
	}
}

// fontRef is an embedded font as referenced from page content.
type fontRef struct {
	name     string // resource name
	obj      int    // first of the font's object numbers
	font     *fonts.Font
	family   string // family used for measurement queries
	style    ocr.Style
	cjk      bool
	spaceGID uint16
	spaceAdv float64
}

// fontTable holds every font embedded in a document.
type fontTable struct {
	ordered       []*fontRef
	byKey         map[fonts.Key]*fontRef
	cjk           *fontRef
	defaultFamily string
}

// wordFont returns the font key a word is set in and whether it is CJK text.
func wordFont(page *ocr.Page, w *ocr.Word, text, defaultFamily string) (fonts.Key, bool) {
	lang := w.Lang
	if lang == "" {
		lang = page.Lang
	}
	if fonts.IsCJK(text, lang) {
		return fonts.Key{Family: fonts.CJKFamily, Style: ocr.StyleNormal}, true
	}
	family := w.Family
	if family == "" {
		family = defaultFamily
	}
	return fonts.Key{Family: family, Style: w.Style}, false
}

func (t *fontTable) lookup(page *ocr.Page, w *ocr.Word, text string) *fontRef {
	key, cjk := wordFont(page, w, text, t.defaultFamily)
	if cjk {
		return t.cjk
	}
	return t.byKey[key]
}

// tjItem is one glyph of a TJ array followed by an optional position
// adjustment in thousandths of text space.
type tjItem struct {
	gid    uint16
	adjust float64
	space  bool // synthesized inter-word space, carries no ink of the word
}

// wordRun is a word resolved for output.
type wordRun struct {
	word     *ocr.Word
	font     *fontRef
	size     float64
	scale    float64 // horizontal scaling, percent
	rise     float64
	color    string
	metrics  *fonts.WordMetrics
	residual float64 // width the word could not absorb itself, in pixels
	lead     float64 // adjustment before the first glyph
	items    []tjItem
}

func (r *wordRun) h() float64 { return r.scale / 100 }

// textState is the running output state threaded through a page's words.
type textState struct {
	residual    float64
	font        *fontRef
	size        float64
	color       string
	rise        float64
	scale       float64
	charSpacing float64
}

func newTextState() textState {
	return textState{scale: 100}
}

type lineKey struct{ page, line int }

type lineInfo struct {
	size       float64
	sizeErr    error
	offX, offY float64
}

// pageLayout synthesizes the content stream of one page.
type pageLayout struct {
	index  int
	page   *ocr.Page
	opts   *Options
	fonts  *fontTable
	oracle Oracle
	log    *logging.Logger
	rot    reconciler
	lines  map[lineKey]lineInfo
}

func newPageLayout(index int, page *ocr.Page, opts *Options, table *fontTable, oracle Oracle, log *logging.Logger) *pageLayout {
	return &pageLayout{
		index:  index,
		page:   page,
		opts:   opts,
		fonts:  table,
		oracle: oracle,
		log:    log,
		rot:    newReconciler(page, opts),
		lines:  make(map[lineKey]lineInfo),
	}
}

// hasText reports whether any word on the page can be rendered.
func (p *pageLayout) hasText() bool {
	for li := range p.page.Lines {
		line := &p.page.Lines[li]
		for wi := range line.Words {
			w := &line.Words[wi]
			text := ocr.NormalizeText(w.Text)
			if strings.TrimSpace(text) != "" && p.fonts.lookup(p.page, w, text) != nil {
				return true
			}
		}
	}
	return false
}

// line returns the memoized derived values of a line.
func (p *pageLayout) line(li int) lineInfo {
	key := lineKey{p.index, li}
	if info, ok := p.lines[key]; ok {
		return info
	}
	line := &p.page.Lines[li]
	var info lineInfo
	info.size, info.sizeErr = p.inferLineSize(line)
	info.offX, info.offY = p.rot.lineOffset(line.BBox.Left, line.BBox.Bottom+line.Baseline.Intercept)
	p.lines[key] = info
	return info
}

// lineFont returns the family and style of the first word on the line set
// in an embedded non-CJK font, or the default family.
func (p *pageLayout) lineFont(line *ocr.Line) (string, ocr.Style) {
	for wi := range line.Words {
		w := &line.Words[wi]
		text := ocr.NormalizeText(w.Text)
		if strings.TrimSpace(text) == "" {
			continue
		}
		if ref := p.fonts.lookup(p.page, w, text); ref != nil && !ref.cjk {
			return ref.family, ref.style
		}
	}
	return p.fonts.defaultFamily, ocr.StyleNormal
}

// inferLineSize derives a line's font size from its letter metrics. The
// x-height is used when ascender and descender heights are known, the cap
// height when only the descender is known, and the full letter height
// otherwise.
func (p *pageLayout) inferLineSize(line *ocr.Line) (float64, error) {
	family, style := p.lineFont(line)
	letter := line.LetterHeight
	if letter <= 0 {
		letter = line.BBox.Height()
	}
	if line.AscHeight > 0 && line.DescHeight > 0 {
		if xHeight := letter - line.AscHeight - line.DescHeight; xHeight > 0 {
			return p.oracle.InferFontSize(family, style, xHeight, 'x')
		}
	}
	if line.DescHeight > 0 && letter-line.DescHeight > 0 {
		return p.oracle.InferFontSize(family, style, letter-line.DescHeight, 'A')
	}
	return p.oracle.InferFontSize(family, style, letter, 'A')
}

// resolve computes font, size, scaling, rise and color of a word. Words
// that cannot be rendered are logged and reported as not ok.
func (p *pageLayout) resolve(li, wi int) (*wordRun, bool) {
	line := &p.page.Lines[li]
	w := &line.Words[wi]
	text := ocr.NormalizeText(w.Text)
	if strings.TrimSpace(text) == "" {
		return nil, false
	}
	skip := func(reason string, err error) (*wordRun, bool) {
		p.log.Warn("word skipped", "page", p.index, "line", li, "word", wi, "text", w.Text, "reason", reason, "err", err)
		return nil, false
	}

	ref := p.fonts.lookup(p.page, w, text)
	if ref == nil {
		return skip("font unavailable", nil)
	}

	var size float64
	var err error
	switch {
	case w.Size > 0:
		size = w.Size
	case w.Kind == ocr.KindSuperscript:
		size, err = p.oracle.InferFontSize(ref.family, ref.style, w.BBox.Height(), '1')
	case w.Kind == ocr.KindDropCap:
		size, err = p.oracle.InferFontSize(ref.family, ref.style, w.BBox.Height(), []rune(text)[0])
	default:
		info := p.line(li)
		size, err = info.size, info.sizeErr
	}
	if err != nil || size <= 0 {
		return skip("font size unknown", err)
	}

	m, err := p.oracle.MeasureWord(text, ref.family, size, ref.style)
	if err != nil || len(m.Glyphs) == 0 || m.VisualWidth <= 0 {
		return skip("measurement failed", err)
	}

	run := &wordRun{
		word:    w,
		font:    ref,
		size:    size,
		scale:   100,
		color:   fillColor(p.opts.Mode, p.opts.Confidence, w),
		metrics: m,
	}
	target := w.BBox.Width()
	if w.Kind == ocr.KindDropCap {
		run.scale = target / m.VisualWidth * 100
		m.CharSpacing = 0
	} else {
		run.residual = m.FitWidth(target)
	}
	if w.Kind != ocr.KindPlain {
		run.rise = line.BBox.Bottom + line.Baseline.Intercept - (w.BBox.Bottom + p.rot.wordAdjust(line, w))
	}

	run.items = make([]tjItem, 0, len(m.Glyphs)+1)
	for _, g := range m.Glyphs {
		item := tjItem{gid: g.GID, adjust: -g.Kern}
		if g.Missing {
			// Keep the expected advance of the missing glyph.
			item.gid = ref.spaceGID
			item.adjust += ref.spaceAdv - g.Advance
			p.log.Debug("glyph substituted", "page", p.index, "line", li, "word", wi, "rune", string(g.Rune))
		}
		run.items = append(run.items, item)
	}
	return run, true
}

// layoutLine resolves the words of a line and reconciles the gaps between
// them. st.residual carries single-glyph width errors into the next gap.
func (p *pageLayout) layoutLine(li int, st *textState) []*wordRun {
	line := &p.page.Lines[li]
	var runs []*wordRun
	for wi := range line.Words {
		if run, ok := p.resolve(li, wi); ok {
			runs = append(runs, run)
		}
	}
	if len(runs) == 0 {
		return nil
	}

	first := runs[0]
	firstScale := first.size * first.h() / 1000
	first.lead = (first.metrics.LeftBearing*first.h() - (first.word.BBox.Left - line.BBox.Left)) / firstScale

	st.residual = 0
	for i, cur := range runs[:len(runs)-1] {
		next := runs[i+1]
		st.residual += cur.residual
		target := next.word.BBox.Left - cur.word.BBox.Right + st.residual
		st.residual = 0

		h1, h2 := cur.h(), next.h()
		scale := cur.size * h1 / 1000
		tc := cur.metrics.CharSpacing
		rendered := cur.metrics.RightBearing*h1 + tc*h1 + next.metrics.LeftBearing*h2

		if (cur.font.cjk && next.font.cjk) || cur.font.spaceGID == 0 {
			// No literal space; the gap is a pure kerning adjustment.
			cur.items[len(cur.items)-1].adjust += (rendered - target) / scale
			continue
		}
		rendered += cur.font.spaceAdv*scale + tc*h1
		cur.items = append(cur.items, tjItem{
			gid:    cur.font.spaceGID,
			adjust: (rendered - target) / scale,
			space:  true,
		})
	}
	return runs
}

// content builds the page's content stream. It returns nil when no word on
// the page could be rendered.
func (p *pageLayout) content(ctx context.Context, pageScale float64) ([]byte, error) {
	var buf bytes.Buffer
	if pageScale != 1 {
		buf.WriteString("q\n" + num(pageScale) + " 0 0 " + num(pageScale) + " 0 0 cm\n")
	}
	switch p.opts.Mode {
	case ModeInvisible:
		buf.WriteString("/GS0 gs\n")
	case ModeProof, ModeEvaluation:
		buf.WriteString("/GS1 gs\n")
	}
	buf.WriteString("BT\n")

	st := newTextState()
	emitted := false
	for li := range p.page.Lines {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if len(p.page.Lines[li].Words) == 0 {
			continue
		}
		runs := p.layoutLine(li, &st)
		if len(runs) == 0 {
			continue
		}
		emitted = true

		line := &p.page.Lines[li]
		info := p.line(li)
		x := line.BBox.Left + info.offX
		y := line.BBox.Bottom + line.Baseline.Intercept + info.offY
		tm := p.rot.textMatrix(x, y, p.page.Dims.Height)
		for _, v := range tm {
			buf.WriteString(num(v) + " ")
		}
		buf.WriteString("Tm\n")

		for _, run := range runs {
			writeRun(&buf, &st, run)
		}
	}
	if !emitted {
		return nil, nil
	}

	buf.WriteString("ET\n")
	if pageScale != 1 {
		buf.WriteString("Q\n")
	}
	return buf.Bytes(), nil
}

// writeRun writes the state changes a run needs followed by its TJ array.
func writeRun(buf *bytes.Buffer, st *textState, run *wordRun) {
	if run.font != st.font || run.size != st.size {
		buf.WriteString("/" + run.font.name + " " + num(run.size) + " Tf\n")
		st.font, st.size = run.font, run.size
	}
	if tc := run.metrics.CharSpacing; tc != st.charSpacing {
		buf.WriteString(num(tc) + " Tc\n")
		st.charSpacing = tc
	}
	if run.scale != st.scale {
		buf.WriteString(num(run.scale) + " Tz\n")
		st.scale = run.scale
	}
	if run.rise != st.rise {
		buf.WriteString(num(run.rise) + " Ts\n")
		st.rise = run.rise
	}
	if run.color != st.color {
		buf.WriteString(run.color + "\n")
		st.color = run.color
	}

	parts := make([]string, 0, len(run.items)+2)
	if n := num(run.lead); n != "0" {
		parts = append(parts, n)
	}
	var glyphs strings.Builder
	for _, item := range run.items {
		fmt.Fprintf(&glyphs, "%04X", item.gid)
		if n := num(item.adjust); n != "0" {
			parts = append(parts, "<"+glyphs.String()+">", n)
			glyphs.Reset()
		}
	}
	if glyphs.Len() > 0 {
		parts = append(parts, "<"+glyphs.String()+">")
	}
	buf.WriteString("[" + strings.Join(parts, " ") + "] TJ\n")
}
