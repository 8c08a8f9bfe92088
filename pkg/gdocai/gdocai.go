// Package gdocai connects Google Document AI to the OCR model used for PDF
// synthesis.
//
// Documents are either sent to a Document AI OCR processor (ProcessDocument)
// or loaded from a saved JSON response (LoadDocumentJSON). ToDocument then
// converts the response's pages, lines and tokens into package ocr, scaling
// normalized vertices by the page dimensions and deriving each line's
// baseline slope from the top edge of its bounding polygon.
//
// Usage Requirements:
//
// - Google Cloud project with Document AI API enabled
// - Document AI processor configured for OCR
// - Credentials in Config.CredentialsFile or GOOGLE_APPLICATION_CREDENTIALS
package gdocai

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/documentai/apiv1/documentaipb"

	"github.com/gardar/ocrsynth/pkg/hocr"
	"github.com/gardar/ocrsynth/pkg/ocr"
)

// ErrNoDimensions is returned for a page that carries neither a dimension
// nor an image size, so normalized coordinates cannot be scaled.
var ErrNoDimensions = errors.New("gdocai: page has no dimensions")

// Config holds the Document AI processor settings.
type Config struct {
	ProjectID       string `yaml:"project_id"`
	Location        string `yaml:"location"`
	ProcessorID     string `yaml:"processor_id"`
	CredentialsFile string `yaml:"credentials_file"` // Falls back to GOOGLE_APPLICATION_CREDENTIALS
	MimeType        string `yaml:"mime_type"`        // Defaults to application/pdf
}

// Validate reports missing processor settings.
func (c *Config) Validate() error {
	switch {
	case c.ProjectID == "":
		return errors.New("gdocai: project_id is required")
	case c.Location == "":
		return errors.New("gdocai: location is required")
	case c.ProcessorID == "":
		return errors.New("gdocai: processor_id is required")
	}
	return nil
}

// DocumentHOCR processes a document with Document AI and returns both the
// OCR model and its hOCR rendering.
func DocumentHOCR(ctx context.Context, content []byte, cfg *Config) (*documentaipb.Document, *ocr.Document, []byte, error) {
	raw, err := ProcessDocument(ctx, content, cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	doc, err := ToDocument(raw)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to convert document: %w", err)
	}
	html, err := hocr.GenerateHOCRDocument(hocr.FromDocument(doc, "Document AI OCR"))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to generate hOCR: %w", err)
	}
	return raw, doc, html, nil
}

// ProcessPages processes several single-page documents and merges them into
// one response, renumbering pages and shifting text anchors so the result
// reads as a single document.
func ProcessPages(ctx context.Context, pages [][]byte, cfg *Config) (*documentaipb.Document, error) {
	merged := &documentaipb.Document{}
	for i, content := range pages {
		doc, err := ProcessDocument(ctx, content, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to process page %d: %w", i+1, err)
		}
		if len(doc.GetPages()) != 1 {
			return nil, fmt.Errorf("expected 1 page in result for page %d, got %d", i+1, len(doc.GetPages()))
		}
		MergeDocument(merged, doc)
	}
	return merged, nil
}
