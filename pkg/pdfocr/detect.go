package pdfocr

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// pdfLiteral matches a PDF literal string body, honouring backslash escapes.
const pdfLiteral = `\(((?:\\.|[^\\)])*)\)`

var ocgPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?s)/Type\s*/OCG\s*/Name\s*` + pdfLiteral),
	regexp.MustCompile(`(?s)/OCG\s*<<[^>]*?/Name\s*` + pdfLiteral),
	regexp.MustCompile(`(?s)/Name\s*` + pdfLiteral + `\s*/Type\s*/OCG`),
	regexp.MustCompile(`(?s)/Name\s*` + pdfLiteral + `[^>]{0,50}/Type\s*/OCG`),
}

// detectPDFLayers attempts to find optional-content group names in the raw PDF data.
func detectPDFLayers(pdfData []byte) ([]string, error) {
	if len(pdfData) == 0 {
		return nil, errors.New("empty PDF data")
	}

	content := string(pdfData)
	var layers []string
	seen := make(map[string]bool)
	for _, re := range ocgPatterns {
		for _, match := range re.FindAllStringSubmatch(content, -1) {
			name := unescapePDFString(match[1])
			if strings.HasPrefix(name, "\xfe\xff") {
				if decoded, err := decodeUTF16BE([]byte(name)); err == nil {
					name = decoded
				}
			}
			if !seen[name] {
				seen[name] = true
				layers = append(layers, name)
			}
		}
	}
	return layers, nil
}

// LayerCheckResult contains the results of checking for OCR layers
type LayerCheckResult struct {
	Layers       []string // All detected layers
	HasOCRLayer  bool     // True if the specified OCR layer exists
	OCRLayerName string   // Name of the detected OCR layer (if any)
	Warnings     []string // Any warnings about potential OCR layers
}

// CheckExistingOCRLayers checks for existing OCR layers in a PDF
func CheckExistingOCRLayers(pdfData []byte, ocrLayerName string) (LayerCheckResult, error) {
	result := LayerCheckResult{}

	layers, err := detectPDFLayers(pdfData)
	if err != nil {
		return result, fmt.Errorf("cannot analyze layers: %w", err)
	}
	result.Layers = layers

	pageLayerPattern := regexp.MustCompile(fmt.Sprintf(`^%s\s*\(Page\s*\d+`, regexp.QuoteMeta(ocrLayerName)))
	for _, layer := range layers {
		if layer == ocrLayerName || pageLayerPattern.MatchString(layer) {
			result.HasOCRLayer = true
			result.OCRLayerName = layer
			break
		}
		if strings.Contains(strings.ToLower(layer), "ocr") && !strings.HasPrefix(layer, ocrLayerName) {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("Existing layer detected that might contain OCR: %s", layer))
		}
	}
	return result, nil
}

// OCRDetectionResult contains comprehensive OCR detection information
type OCRDetectionResult struct {
	HasOCR      bool // True if any OCR is detected by any method
	HasLayerOCR bool // True if OCR layers are detected

	LayerInfo LayerCheckResult // Details from layer detection

	Warnings []string // Warnings from any detection method
}

// DetectOCR reports whether a PDF already carries an OCR text layer.
func DetectOCR(pdfData []byte, config OCRConfig) (OCRDetectionResult, error) {
	result := OCRDetectionResult{}

	layerResult, err := CheckExistingOCRLayers(pdfData, config.LayerName)
	if err != nil {
		return result, err
	}
	result.LayerInfo = layerResult
	result.HasLayerOCR = layerResult.HasOCRLayer
	result.Warnings = append(result.Warnings, layerResult.Warnings...)
	if !result.HasLayerOCR && len(layerResult.Warnings) > 0 {
		result.Warnings = append(result.Warnings, "Potential OCR layers were detected")
	}

	// Layer detection is the only method so far.
	result.HasOCR = result.HasLayerOCR
	return result, nil
}
