package pdfocr

import (
	"fmt"

	"codeberg.org/go-pdf/fpdf"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"

	"github.com/gardar/ocrsynth/internal/logging"
	"github.com/gardar/ocrsynth/pkg/ocr"
)

// transformFunc maps OCR pixel coordinates onto the PDF page.
type transformFunc func(x, y float64) (float64, float64)

// layerTitle is the optional-content group name used for a page.
func layerTitle(layerName string, pageNum int) string {
	if pageNum > 0 {
		return fmt.Sprintf("%s (Page %d)", layerName, pageNum)
	}
	return layerName
}

// drawOCRLayer draws the OCR text onto a layer in a pdf page.
// The pageNum parameter is used to create unique layer names for each page.
func drawOCRLayer(
	pdf *fpdf.Fpdf,
	page *ocr.Page,
	cfg *OCRConfig,
	pageNum int,
	transform transformFunc,
	log *logging.Logger,
) error {
	layer := pdf.AddLayer(layerTitle(cfg.LayerName, pageNum), true)
	pdf.BeginLayer(layer)
	pdf.SetFont(cfg.Font.Name, cfg.Font.Style, cfg.Font.Size)

	if cfg.Debug {
		pdf.SetTextColor(255, 0, 0) // highlight text in red
		pdf.SetDrawColor(255, 0, 0)
	} else {
		pdf.SetAlpha(0.0, "Normal") // hide text from normal view
	}

	encodingErrors := 0
	wordCount := 0
	for li := range page.Lines {
		line := &page.Lines[li]
		for wi := range line.Words {
			if !drawWord(pdf, line, &line.Words[wi], transform, &cfg.Font, cfg.Debug) {
				encodingErrors++
				log.Debug("word not representable in latin-1", "page", pageNum, "line", li, "word", wi)
			}
			wordCount++
		}
	}

	if !cfg.Debug {
		pdf.SetAlpha(1.0, "Normal")
	}
	pdf.EndLayer()

	if err := pdf.Error(); err != nil {
		return err
	}
	// Report encoding errors if more than a threshold
	if wordCount > 0 && encodingErrors > wordCount/10 {
		return fmt.Errorf("character encoding issues in %d of %d words", encodingErrors, wordCount)
	}
	return nil
}

// drawWord renders a single word onto the PDF layer, scaling the font so the
// text spans the word box. It reports false when characters had to be
// replaced to fit the core font encoding.
func drawWord(pdf *fpdf.Fpdf, line *ocr.Line, word *ocr.Word, transform transformFunc,
	font *FontConfig, debug bool) bool {

	x, top := transform(word.BBox.Left, word.BBox.Top)
	x2, bottom := transform(word.BBox.Right, word.BBox.Bottom)
	wordWidth := x2 - x

	// Core fonts are single-byte; unsupported runes become '?'.
	encoded, err := charmap.Windows1252.NewEncoder().String(word.Text)
	ok := err == nil
	if !ok {
		encoded, _ = encoding.ReplaceUnsupported(charmap.Windows1252.NewEncoder()).String(word.Text)
	}

	if strWidth := pdf.GetStringWidth(encoded); strWidth > 0 {
		pdf.SetFontSize(font.Size * wordWidth / strWidth)
	}
	fontSize, _ := pdf.GetFontSize()

	y := top + fontSize*font.AscentRatio
	if line.Baseline != (ocr.Baseline{}) && word.Kind == ocr.KindPlain {
		_, y = transform(word.BBox.Left, line.BaselineY(word.BBox.Left))
	}

	pdf.Text(x, y, encoded)
	pdf.SetFontSize(font.Size)

	if debug {
		pdf.Rect(x, top, wordWidth, bottom-top, "D")
	}
	return ok
}
