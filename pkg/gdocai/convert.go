package gdocai

import (
	"fmt"
	"math"
	"sort"

	"cloud.google.com/go/documentai/apiv1/documentaipb"

	"github.com/gardar/ocrsynth/pkg/ocr"
)

// ToDocument converts a Document AI response into the OCR model. Tokens are
// assigned to the line whose text anchor contains theirs; line boxes are the
// union of their words and the baseline follows the slope of the line
// polygon's top edge, anchored at the lowest end of the line.
func ToDocument(doc *documentaipb.Document) (*ocr.Document, error) {
	runes := []rune(doc.GetText())
	out := &ocr.Document{Pages: make([]ocr.Page, 0, len(doc.GetPages()))}
	for i, p := range doc.GetPages() {
		page, err := convertPage(p, runes)
		if err != nil {
			return nil, fmt.Errorf("gdocai: page %d: %w", i+1, err)
		}
		out.Pages = append(out.Pages, page)
	}
	return out, nil
}

func convertPage(p *documentaipb.Document_Page, runes []rune) (ocr.Page, error) {
	dims, err := pageDims(p)
	if err != nil {
		return ocr.Page{}, err
	}
	page := ocr.Page{Dims: dims, Lang: firstLang(p.GetDetectedLanguages())}

	var slopes []float64
	for _, l := range p.GetLines() {
		pts := polygon(l.GetLayout(), dims)
		lineStart, lineEnd, ok := anchorSpan(l.GetLayout())
		if !ok || len(pts) == 0 {
			continue
		}
		lang := firstLang(l.GetDetectedLanguages())

		var line ocr.Line
		for _, t := range p.GetTokens() {
			start, end, ok := anchorSpan(t.GetLayout())
			if !ok || start < lineStart || end > lineEnd {
				continue
			}
			if w, ok := convertToken(t, runes, dims, lang); ok {
				line.Words = append(line.Words, w)
			}
		}
		if len(line.Words) == 0 {
			continue
		}
		sort.SliceStable(line.Words, func(i, j int) bool {
			return line.Words[i].BBox.Left < line.Words[j].BBox.Left
		})
		line.RecalcBBox()

		slope := topEdgeSlope(pts)
		line.Baseline = ocr.Baseline{Slope: slope, Intercept: -math.Max(slope, 0) * line.BBox.Width()}
		slopes = append(slopes, slope)
		page.Lines = append(page.Lines, line)
	}
	page.Angle = ocr.SkewFromSlopes(slopes)
	return page, nil
}

func convertToken(t *documentaipb.Document_Page_Token, runes []rune, dims ocr.Dims, lineLang string) (ocr.Word, bool) {
	text := ocr.NormalizeText(cleanTokenText(textFromLayout(t.GetLayout(), runes)))
	box, ok := boundingBox(polygon(t.GetLayout(), dims))
	if text == "" || !ok || box.Width() <= 0 || box.Height() <= 0 {
		return ocr.Word{}, false
	}

	w := ocr.Word{
		Text:       text,
		BBox:       box,
		Confidence: float64(t.GetLayout().GetConfidence()) * 100,
		Lang:       firstLang(t.GetDetectedLanguages()),
	}
	if w.Lang == "" {
		w.Lang = lineLang
	}
	if si := t.GetStyleInfo(); si != nil {
		switch {
		case si.GetSmallcaps():
			w.Style = ocr.StyleSmallCaps
		case si.GetItalic():
			w.Style = ocr.StyleItalic
		}
		if si.GetSuperscript() {
			w.Kind = ocr.KindSuperscript
		}
		if size := si.GetPixelFontSize(); size > 0 {
			w.Size = size
		}
	}
	return w, true
}

func pageDims(p *documentaipb.Document_Page) (ocr.Dims, error) {
	if d := p.GetDimension(); d.GetWidth() > 0 && d.GetHeight() > 0 {
		return ocr.Dims{Width: float64(d.GetWidth()), Height: float64(d.GetHeight())}, nil
	}
	if img := p.GetImage(); img.GetWidth() > 0 && img.GetHeight() > 0 {
		return ocr.Dims{Width: float64(img.GetWidth()), Height: float64(img.GetHeight())}, nil
	}
	return ocr.Dims{}, ErrNoDimensions
}

// polygon returns a layout's bounding polygon in pixels, preferring the
// normalized vertices. Document AI orders vertices clockwise from top-left.
func polygon(layout *documentaipb.Document_Page_Layout, dims ocr.Dims) [][2]float64 {
	poly := layout.GetBoundingPoly()
	if nv := poly.GetNormalizedVertices(); len(nv) > 0 {
		pts := make([][2]float64, len(nv))
		for i, v := range nv {
			pts[i] = [2]float64{float64(v.GetX()) * dims.Width, float64(v.GetY()) * dims.Height}
		}
		return pts
	}
	vs := poly.GetVertices()
	pts := make([][2]float64, len(vs))
	for i, v := range vs {
		pts[i] = [2]float64{float64(v.GetX()), float64(v.GetY())}
	}
	return pts
}

func boundingBox(pts [][2]float64) (ocr.BBox, bool) {
	if len(pts) == 0 {
		return ocr.BBox{}, false
	}
	b := ocr.NewBBox(pts[0][0], pts[0][1], pts[0][0], pts[0][1])
	for _, p := range pts[1:] {
		b = b.Union(ocr.NewBBox(p[0], p[1], p[0], p[1]))
	}
	return b, true
}

// topEdgeSlope is the slope of the edge from the first to the second vertex.
func topEdgeSlope(pts [][2]float64) float64 {
	if len(pts) < 2 {
		return 0
	}
	dx := pts[1][0] - pts[0][0]
	if dx <= 0 {
		return 0
	}
	return (pts[1][1] - pts[0][1]) / dx
}

func firstLang(langs []*documentaipb.Document_Page_DetectedLanguage) string {
	if len(langs) == 0 {
		return ""
	}
	return langs[0].GetLanguageCode()
}
