// Package pdfocr adds an invisible OCR text layer to PDF documents with fpdf.
//
// It is the simpler of the two output paths: every word is drawn with a core
// font, scaled so its string width matches the word box, on a per-page
// optional content group named "<LayerName> (Page N)". Readers can toggle the
// layer, and DetectOCR finds it again so OCR is not applied twice.
// Package synth produces a tighter text layer with embedded fonts.
//
// Main Functions:
//
// - ApplyOCR: Adds OCR text layer to an existing PDF
// - AssembleWithOCR: Creates a new PDF from images with OCR text layer
// - DetectOCR: Reports an existing OCR layer
package pdfocr

import (
	"errors"
	"fmt"

	"github.com/gardar/ocrsynth/pkg/ocr"
)

// ErrOCRLayerExists is returned by ApplyOCR when the input already has an
// OCR layer and Force is not set.
var ErrOCRLayerExists = errors.New("pdfocr: file already has an OCR layer")

// AssembleWithOCR creates a PDF from page images and overlays the OCR text.
func AssembleWithOCR(doc *ocr.Document, imagesData [][]byte, config OCRConfig) ([]byte, error) {
	if doc == nil || len(doc.Pages) == 0 {
		return nil, errors.New("OCR document contains no pages")
	}
	if len(imagesData) == 0 {
		return nil, errors.New("no image data provided")
	}
	if config.StartPage < 1 {
		return nil, fmt.Errorf("start page must be at least 1, got %d", config.StartPage)
	}
	if len(imagesData) < len(doc.Pages) {
		return nil, fmt.Errorf("not enough images (%d) for OCR pages (%d)", len(imagesData), len(doc.Pages))
	}

	log := getLogger(&config)
	for i, imgData := range imagesData {
		if len(imgData) == 0 {
			return nil, fmt.Errorf("image %d is empty", i+1)
		}
		imageType, err := detectImageType(imgData)
		if err != nil {
			return nil, fmt.Errorf("image %d has invalid format: %w", i+1, err)
		}
		log.Debug("image detected", "image", i+1, "type", imageType)
	}

	finalPDF, err := createPDFFromImages(doc, imagesData, &config, log)
	if err != nil {
		return nil, fmt.Errorf("error creating PDF from images: %w", err)
	}
	return finalPDF, nil
}

// ApplyOCR takes an existing PDF and overlays the OCR text, refusing to add
// a second OCR layer unless Force is set.
func ApplyOCR(inputPDFData []byte, doc *ocr.Document, config OCRConfig) ([]byte, error) {
	if len(inputPDFData) == 0 {
		return nil, errors.New("input PDF data is empty")
	}
	if doc == nil || len(doc.Pages) == 0 {
		return nil, errors.New("OCR document contains no pages")
	}
	if config.StartPage < 1 {
		return nil, fmt.Errorf("start page must be at least 1, got %d", config.StartPage)
	}

	log := getLogger(&config)
	if config.DumpPDF {
		dumpPDFStructure(inputPDFData, 2000, logWriter(&config))
	}

	layerResult, err := CheckExistingOCRLayers(inputPDFData, config.LayerName)
	if err != nil {
		return nil, fmt.Errorf("layer detection failed: %w", err)
	}
	for i, layer := range layerResult.Layers {
		log.Info("existing layer", "index", i+1, "name", fmt.Sprintf("%q", layer))
	}
	for _, warning := range layerResult.Warnings {
		log.Warn(warning)
	}

	if layerResult.HasOCRLayer {
		if !config.Force {
			return nil, fmt.Errorf("%w (layer %q), use force to reapply", ErrOCRLayerExists, layerResult.OCRLayerName)
		}
		log.Warn("file already has OCR; reapplying will duplicate OCR data", "layer", layerResult.OCRLayerName)
	}

	finalPDF, err := modifyExistingPDF(inputPDFData, doc, &config, log)
	if err != nil {
		return nil, fmt.Errorf("error modifying existing PDF: %w", err)
	}
	return finalPDF, nil
}
