package hocr

import (
	"fmt"
	"math"
	"sort"

	"github.com/gardar/ocrsynth/pkg/ocr"
)

// ConvertOptions controls how hOCR properties map onto the OCR model.
type ConvertOptions struct {
	// FontFamily maps an x_font name onto a font family the synthesizer
	// knows. Nil, or an empty result, leaves the word on the default family.
	FontFamily func(xFont string) string
}

// ToDocument converts a parsed hOCR document into the OCR model. Coordinates
// are shifted so the page box starts at the origin, line boxes are recomputed
// from their words with the baseline re-anchored to the new box, and each
// page's skew is estimated from the median line baseline slope.
func ToDocument(h *HOCR, opts ConvertOptions) (*ocr.Document, error) {
	doc := &ocr.Document{Pages: make([]ocr.Page, 0, len(h.Pages))}
	for i := range h.Pages {
		page, err := convertPage(&h.Pages[i], h.Language, opts)
		if err != nil {
			return nil, fmt.Errorf("hocr: page %d: %w", i+1, err)
		}
		doc.Pages = append(doc.Pages, page)
	}
	return doc, nil
}

func convertPage(hp *Page, docLang string, opts ConvertOptions) (ocr.Page, error) {
	origin := hp.BBox
	if origin.IsZero() {
		// No page box: assume the page ends where the text does.
		for _, l := range hp.Lines {
			origin.X2 = math.Max(origin.X2, l.BBox.X2)
			origin.Y2 = math.Max(origin.Y2, l.BBox.Y2)
			for _, w := range l.Words {
				origin.X2 = math.Max(origin.X2, w.BBox.X2)
				origin.Y2 = math.Max(origin.Y2, w.BBox.Y2)
			}
		}
	}
	if origin.Width() <= 0 || origin.Height() <= 0 {
		return ocr.Page{}, fmt.Errorf("invalid page box %v", origin)
	}

	page := ocr.Page{
		Dims: ocr.Dims{Width: origin.Width(), Height: origin.Height()},
		Lang: hp.Lang,
	}
	if page.Lang == "" {
		page.Lang = docLang
	}

	shift := func(b BoundingBox) ocr.BBox {
		return ocr.NewBBox(b.X1-origin.X1, b.Y1-origin.Y1, b.X2-origin.X1, b.Y2-origin.Y1)
	}

	var slopes []float64
	for _, hl := range hp.Lines {
		line := ocr.Line{
			ID:           hl.ID,
			BBox:         shift(hl.BBox),
			LetterHeight: hl.XSize,
			AscHeight:    hl.XAscenders,
			DescHeight:   hl.XDescenders,
		}
		if hl.Baseline != nil {
			line.Baseline = ocr.Baseline{Slope: hl.Baseline.Slope, Intercept: hl.Baseline.Intercept}
		}

		for _, hw := range hl.Words {
			text := ocr.NormalizeText(hw.Text)
			if text == "" || hw.BBox.Width() <= 0 || hw.BBox.Height() <= 0 {
				continue
			}
			line.Words = append(line.Words, convertWord(&hw, text, shift(hw.BBox), hp.ScanRes, opts))
		}
		if len(line.Words) == 0 {
			continue
		}
		if hl.Baseline != nil {
			slopes = append(slopes, hl.Baseline.Slope)
		}
		sort.SliceStable(line.Words, func(i, j int) bool {
			return line.Words[i].BBox.Left < line.Words[j].BBox.Left
		})

		old := line.BBox
		line.RecalcBBox()
		if !hl.BBox.IsZero() {
			// Keep the baseline where it was in page coordinates.
			line.Baseline.Intercept += old.Bottom - line.BBox.Bottom +
				line.Baseline.Slope*(line.BBox.Left-old.Left)
		}
		page.Lines = append(page.Lines, line)
	}

	page.Angle = ocr.SkewFromSlopes(slopes)
	return page, nil
}

func convertWord(hw *Word, text string, box ocr.BBox, scanRes float64, opts ConvertOptions) ocr.Word {
	w := ocr.Word{
		ID:         hw.ID,
		Text:       text,
		BBox:       box,
		Confidence: hw.Confidence,
		Lang:       hw.Lang,
	}
	switch {
	case hw.SmallCaps:
		w.Style = ocr.StyleSmallCaps
	case hw.Italic:
		w.Style = ocr.StyleItalic
	}
	switch {
	case hw.DropCap:
		w.Kind = ocr.KindDropCap
	case hw.Superscript:
		w.Kind = ocr.KindSuperscript
	}
	if opts.FontFamily != nil && hw.Font != "" {
		w.Family = opts.FontFamily(hw.Font)
	}
	// x_fsize is in points at the scan resolution.
	if hw.FontSize > 0 && scanRes > 0 {
		w.Size = hw.FontSize * scanRes / 72
	}
	return w
}
