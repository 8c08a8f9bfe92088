package pdfocr

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"strings"

	"codeberg.org/go-pdf/fpdf"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/gardar/ocrsynth/internal/logging"
	"github.com/gardar/ocrsynth/pkg/ocr"
)

// createPDFFromImages builds a new PDF from images with their corresponding OCR data.
// This function assumes inputs have been validated by the caller.
func createPDFFromImages(doc *ocr.Document, imagesData [][]byte, cfg *OCRConfig, log *logging.Logger) ([]byte, error) {
	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	s := cfg.scale()

	for i := cfg.StartPage - 1; i < len(doc.Pages) && i < len(imagesData); i++ {
		page := &doc.Pages[i]
		w, h := page.Dims.Width*s, page.Dims.Height*s

		pdf.AddPageFormat("P", fpdf.SizeType{Wd: w, Ht: h})

		imageName := fmt.Sprintf("img%d", i)
		data, imageType, err := embeddableImage(imagesData[i])
		if err != nil {
			return nil, fmt.Errorf("failed to prepare image %d: %w", i+1, err)
		}
		opts := fpdf.ImageOptions{ReadDpi: false, ImageType: imageType}
		pdf.RegisterImageOptionsReader(imageName, opts, bytes.NewReader(data))
		pdf.ImageOptions(imageName, 0, 0, w, h, false, opts, 0, "")

		transform := func(x, y float64) (float64, float64) {
			return normalizeCoords(x, y, page.Dims.Width, page.Dims.Height, w, h)
		}
		if err := drawOCRLayer(pdf, page, cfg, i+1, transform, log); err != nil {
			return nil, fmt.Errorf("failed to draw OCR layer for page %d: %w", i+1, err)
		}
		log.Debug("page assembled", "page", i+1, "words", page.WordCount(), "image", imageType)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}
	return buf.Bytes(), nil
}

// detectImageType tries to figure out whether the data is PNG, JPEG, etc.
func detectImageType(data []byte) (string, error) {
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to decode image config: %w", err)
	}
	return strings.ToUpper(format), nil
}

// embeddableImage returns image data fpdf can embed. PNG, JPEG and GIF pass
// through; other decodable formats (TIFF, BMP, WebP) are re-encoded as PNG.
func embeddableImage(data []byte) ([]byte, string, error) {
	imageType, err := detectImageType(data)
	if err != nil {
		return nil, "", err
	}
	switch imageType {
	case "PNG", "JPEG", "GIF":
		return data, imageType, nil
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode %s image: %w", imageType, err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, "", fmt.Errorf("failed to convert %s image: %w", imageType, err)
	}
	return buf.Bytes(), "PNG", nil
}
