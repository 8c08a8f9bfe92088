// Package synth renders OCR documents as PDF with text placed so that every
// word covers exactly the pixel box it was recognized in.
//
// A substitute font never matches the scanned typeface, so each word is
// reconciled with its box: multi-glyph words get character spacing,
// drop capitals get horizontal scaling, and the space between two words is
// corrected with an explicit TJ adjustment that also absorbs whatever a
// single-glyph word could not. Fonts are embedded as Identity-H composite
// fonts; text that needs the CJK font is set in a subset of it.
//
// The output object graph is complete, but the cross-reference table is a
// placeholder (see XrefPlaceholder) that a downstream repair step rebuilds.
package synth

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/gardar/ocrsynth/internal/logging"
	"github.com/gardar/ocrsynth/pkg/fonts"
	"github.com/gardar/ocrsynth/pkg/ocr"
)

// Fixed object numbers.
const (
	objCatalog   = 1
	objPages     = 2
	objGSHidden  = 3
	objGSOpacity = 4
	objResources = 5
	objFirstFont = 6
)

// FontSource supplies the fonts to embed.
type FontSource interface {
	Font(family string, style ocr.Style) (*fonts.Font, error)
	Subset(f *fonts.Font, chars []rune) (*fonts.Font, error)
	DefaultFamily() string
}

// Oracle answers text measurement queries. Its answers are taken as exact.
type Oracle interface {
	InferFontSize(family string, style ocr.Style, targetHeight float64, ref rune) (float64, error)
	MeasureWord(text, family string, size float64, style ocr.Style) (*fonts.WordMetrics, error)
}

type pageResult struct {
	layout  *pageLayout
	obj     int // page object
	content int // content stream object, 0 if nothing on the page was rendered
	width   float64
	height  float64
	scale   float64
	stream  []byte
}

// Synthesize renders the selected pages as a PDF document.
//
// Pages are laid out concurrently and numbered afterwards in page order, so
// the output is byte-identical across runs. A page on which no word could
// be rendered gets no content stream.
func Synthesize(ctx context.Context, pages []ocr.Page, src FontSource, oracle Oracle, opts Options) ([]byte, error) {
	if opts.RotateText && opts.RotateBackground {
		return nil, ErrRotationConflict
	}
	if len(pages) == 0 && !opts.AllowEmpty {
		return nil, ErrNoPages
	}
	start, end, err := opts.pageSpan(len(pages))
	if err != nil {
		return nil, err
	}

	var log *logging.Logger
	if opts.LogWarnings || opts.Debug {
		log = logging.New(opts.Logger, "synth")
		log.SetDebug(opts.Debug)
	}

	selected := make([]ocr.Page, end-start)
	copy(selected, pages[start:end])
	for i := range selected {
		prepareLines(&selected[i], start+i, opts.RecalcLineBoxes, log)
	}

	table := buildFontTable(selected, src, oracle, log)

	results := make([]*pageResult, len(selected))
	for i := range selected {
		page := &selected[i]
		if page.Dims.Width <= 0 || page.Dims.Height <= 0 {
			return nil, &PageError{Page: start + i, Err: fmt.Errorf("invalid dimensions %vx%v", page.Dims.Width, page.Dims.Height)}
		}
		r := &pageResult{
			layout: newPageLayout(start+i, page, &opts, table, oracle, log),
			width:  page.Dims.Width,
			height: page.Dims.Height,
			scale:  1,
		}
		if lim := opts.DimsLimit; lim != nil && lim.Width > 0 && lim.Height > 0 {
			if s := min(lim.Width/r.width, lim.Height/r.height); s < 1 {
				r.scale = s
			}
		}
		results[i] = r
	}

	// Streams name fonts by resource and never refer to page objects, so
	// they are laid out before the page objects are numbered.
	g, gctx := errgroup.WithContext(ctx)
	for _, r := range results {
		if !r.layout.hasText() {
			continue
		}
		g.Go(func() error {
			stream, err := r.layout.content(gctx, r.scale)
			if err != nil {
				return &PageError{Page: r.layout.index, Err: err}
			}
			r.stream = stream
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	next := objFirstFont + FontObjects*len(table.ordered)
	for _, r := range results {
		r.obj = next
		next++
		if r.stream != nil {
			r.content = next
			next++
		}
	}

	var buf bytes.Buffer
	buf.WriteString(pdfHeader)
	writeObject(&buf, objCatalog, "<</Type /Catalog /Pages "+ref(objPages)+">>")

	kids := make([]string, len(results))
	for i, r := range results {
		kids[i] = ref(r.obj)
	}
	writeObject(&buf, objPages, fmt.Sprintf("<</Type /Pages /Kids [%s] /Count %d>>", strings.Join(kids, " "), len(results)))
	writeObject(&buf, objGSHidden, "<</Type /ExtGState /ca 0 /CA 0>>")
	writeObject(&buf, objGSOpacity, fmt.Sprintf("<</Type /ExtGState /ca %s /CA %s>>", num(opts.HighlightOpacity), num(opts.HighlightOpacity)))

	fontEntries := make([]string, len(table.ordered))
	for i, f := range table.ordered {
		fontEntries[i] = "/" + f.name + " " + ref(f.obj)
	}
	writeObject(&buf, objResources, fmt.Sprintf("<</Font <<%s>> /ExtGState <</GS0 %s /GS1 %s>>>>",
		strings.Join(fontEntries, " "), ref(objGSHidden), ref(objGSOpacity)))

	for _, f := range table.ordered {
		buf.Write(EmbedFont(f.font, f.obj, f.cjk))
	}

	for _, r := range results {
		page := fmt.Sprintf("<</Type /Page /Parent %s /MediaBox [0 0 %s %s] /Resources %s",
			ref(objPages), num(r.width*r.scale), num(r.height*r.scale), ref(objResources))
		if r.content != 0 {
			page += " /Contents " + ref(r.content)
		}
		writeObject(&buf, r.obj, page+">>")
		if r.content != 0 {
			writeStream(&buf, r.content, "", r.stream)
		}
	}

	buf.WriteString(XrefPlaceholder(next))
	return buf.Bytes(), nil
}

// prepareLines gives the page private line slices, optionally recomputes
// line boxes, and warns about lines whose words are out of order.
func prepareLines(page *ocr.Page, index int, recalc bool, log *logging.Logger) {
	lines := make([]ocr.Line, len(page.Lines))
	copy(lines, page.Lines)
	page.Lines = lines
	for li := range lines {
		if recalc {
			lines[li].RecalcBBox()
		}
		if err := lines[li].CheckOrder(); err != nil {
			log.Warn("unordered line", "page", index, "line", li, "err", err)
		}
	}
}

// buildFontTable resolves every font used by the pages. Regular fonts are
// embedded whole, ordered by family then style; the CJK font is subset to
// the characters used and placed last. Fonts that cannot be loaded are
// left out, which makes the words using them skipped during layout.
func buildFontTable(pages []ocr.Page, src FontSource, oracle Oracle, log *logging.Logger) *fontTable {
	table := &fontTable{
		byKey:         make(map[fonts.Key]*fontRef),
		defaultFamily: src.DefaultFamily(),
	}

	used := make(map[fonts.Key]bool)
	cjkChars := make(map[rune]bool)
	for pi := range pages {
		page := &pages[pi]
		for li := range page.Lines {
			for wi := range page.Lines[li].Words {
				w := &page.Lines[li].Words[wi]
				text := ocr.NormalizeText(w.Text)
				if strings.TrimSpace(text) == "" {
					continue
				}
				key, cjk := wordFont(page, w, text, table.defaultFamily)
				if cjk {
					for _, r := range text {
						cjkChars[r] = true
					}
					continue
				}
				used[key] = true
			}
		}
	}

	keys := make([]fonts.Key, 0, len(used))
	for k := range used {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Family != keys[j].Family {
			return keys[i].Family < keys[j].Family
		}
		return keys[i].Style < keys[j].Style
	})

	add := func(f *fonts.Font, family string, style ocr.Style, cjk bool) *fontRef {
		r := &fontRef{
			name:   fmt.Sprintf("F%d", len(table.ordered)),
			obj:    objFirstFont + FontObjects*len(table.ordered),
			font:   f,
			family: family,
			style:  style,
			cjk:    cjk,
		}
		if sp, err := oracle.MeasureWord(" ", family, 1000, style); err == nil && len(sp.Glyphs) == 1 && !sp.Glyphs[0].Missing {
			r.spaceGID, r.spaceAdv = sp.Glyphs[0].GID, sp.Glyphs[0].Advance
		}
		table.ordered = append(table.ordered, r)
		return r
	}

	for _, k := range keys {
		f, err := src.Font(k.Family, k.Style)
		if err != nil {
			log.Warn("font unavailable", "family", k.Family, "style", k.Style, "err", err)
			continue
		}
		table.byKey[k] = add(f, k.Family, k.Style, false)
	}

	if len(cjkChars) > 0 {
		f, err := src.Font(fonts.CJKFamily, ocr.StyleNormal)
		if err != nil {
			log.Warn("CJK font unavailable", "err", err)
			return table
		}
		chars := make([]rune, 0, len(cjkChars))
		for r := range cjkChars {
			chars = append(chars, r)
		}
		sort.Slice(chars, func(i, j int) bool { return chars[i] < chars[j] })

		sub, err := src.Subset(f, chars)
		switch {
		case err != nil:
			log.Warn("CJK subsetting failed, embedding full font", "err", err)
			sub = f
		case !sub.IsSubset():
			log.Warn("CJK font cannot be subset, embedding full font", "font", f.PostScriptName())
		}
		table.cjk = add(sub, fonts.CJKFamily, ocr.StyleNormal, true)
	}
	return table
}
