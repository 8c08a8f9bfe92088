package pdfocr

import (
	"io"
)

// OCRConfig holds user options for applying OCR to PDF
type OCRConfig struct {
	Debug       bool      // Draw the text in red with word boxes instead of hiding it
	Force       bool      // Force reapply OCR even if layer already exists
	LayerName   string    // Base name of OCR layer (page number will be appended)
	StartPage   int       // Start applying OCR from this page number
	DPI         float64   // Resolution of the OCR coordinates; 0 maps one pixel to one point
	DumpPDF     bool      // Dump PDF structure for debugging
	LogWarnings bool      // Whether to print warnings
	Logger      io.Writer // Custom logger for warnings (nil = stdout)
	Font        FontConfig
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() OCRConfig {
	return OCRConfig{
		LayerName:   "OCR Text", // Will be formatted as "OCR Text (Page X)" in the final PDF
		StartPage:   1,
		LogWarnings: true,
		Font:        DefaultFont,
	}
}

// FontConfig contains font settings for OCR text rendering
type FontConfig struct {
	Name        string  // Font name (e.g., "Helvetica")
	Style       string  // Font style ("", "B", "I", "BI")
	Size        float64 // Default font size
	AscentRatio float64 // Baseline offset from the word top, as a fraction of the font size
}

// DefaultFont sets the default font to Helvetica which is tried and tested for the OCR layer
var DefaultFont = FontConfig{
	Name:        "Helvetica",
	Size:        10,
	AscentRatio: 0.718,
}

// scale returns the factor from OCR pixels to PDF points.
func (c *OCRConfig) scale() float64 {
	if c.DPI <= 0 {
		return 1
	}
	return 72 / c.DPI
}
