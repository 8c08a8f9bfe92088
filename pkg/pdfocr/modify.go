package pdfocr

import (
	"bytes"
	"fmt"
	"io"

	"codeberg.org/go-pdf/fpdf"
	"codeberg.org/go-pdf/fpdf/contrib/gofpdi"

	"github.com/gardar/ocrsynth/internal/logging"
	"github.com/gardar/ocrsynth/pkg/ocr"
)

// modifyExistingPDF imports pages from an existing PDF and overlays OCR text layer.
// OCR page i is drawn over input page i+StartPage.
func modifyExistingPDF(inputPDFData []byte, doc *ocr.Document, cfg *OCRConfig, log *logging.Logger) ([]byte, error) {
	pdf := fpdf.New("P", "pt", "", "")
	pdf.SetAutoPageBreak(false, 0)
	importer := gofpdi.NewImporter()
	rs := io.ReadSeeker(bytes.NewReader(inputPDFData))
	s := cfg.scale()

	for i := range doc.Pages {
		page := &doc.Pages[i]
		targetPage := i + cfg.StartPage
		w, h := page.Dims.Width*s, page.Dims.Height*s

		pdf.AddPageFormat("P", fpdf.SizeType{Wd: w, Ht: h})
		tpl := importer.ImportPageFromStream(pdf, &rs, targetPage, "/MediaBox")
		importer.UseImportedTemplate(pdf, tpl, 0, 0, w, 0)

		scaleOnly := func(x, y float64) (float64, float64) {
			return x * s, y * s
		}
		if err := drawOCRLayer(pdf, page, cfg, i+1, scaleOnly, log); err != nil {
			if pdf.Err() {
				return nil, fmt.Errorf("failed to draw OCR layer for page %d: %w", targetPage, err)
			}
			log.Warn("OCR layer drawn with substitutions", "page", targetPage, "reason", err)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
