// Package input reads OCR documents in the formats the commands accept.
package input

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gardar/ocrsynth/pkg/gdocai"
	"github.com/gardar/ocrsynth/pkg/hocr"
	"github.com/gardar/ocrsynth/pkg/ocr"
)

// Format names an input format.
type Format string

const (
	FormatHOCR   Format = "hocr"
	FormatGDocAI Format = "gdocai-json" // saved Document AI response
	FormatJSON   Format = "json"        // native ocr.Document JSON
)

// ParseFormat validates a format name. The empty string means "detect".
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(name)); f {
	case "", FormatHOCR, FormatGDocAI, FormatJSON:
		return f, nil
	default:
		return "", fmt.Errorf("input: unknown format %q", name)
	}
}

// Detect guesses the format of a file from its extension and, for JSON,
// from its top-level keys: Document AI responses carry "document" (a
// ProcessResponse) or "text", the native form only "pages".
func Detect(path string, data []byte) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".hocr", ".html", ".htm", ".xhtml":
		return FormatHOCR
	}
	if bytes.HasPrefix(bytes.TrimSpace(data), []byte("<")) {
		return FormatHOCR
	}
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err == nil {
		for _, key := range []string{"document", "text", "mimeType", "uri"} {
			if _, ok := top[key]; ok {
				return FormatGDocAI
			}
		}
	}
	return FormatJSON
}

// Options control the conversion of external formats.
type Options struct {
	FontFamily func(xFont string) string // hOCR x_font mapping
}

// Load reads path and converts it into an ocr.Document. An empty format is
// detected with Detect.
func Load(path string, format Format, opts Options) (*ocr.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("input: %w", err)
	}
	if format == "" {
		format = Detect(path, data)
	}
	return Decode(data, format, opts)
}

// Decode converts data in the given format into an ocr.Document.
func Decode(data []byte, format Format, opts Options) (*ocr.Document, error) {
	switch format {
	case FormatHOCR:
		h, err := hocr.ParseHOCR(data)
		if err != nil {
			return nil, err
		}
		return hocr.ToDocument(&h, hocr.ConvertOptions{FontFamily: opts.FontFamily})
	case FormatGDocAI:
		doc, err := gdocai.LoadDocumentJSON(data)
		if err != nil {
			return nil, err
		}
		return gdocai.ToDocument(doc)
	case FormatJSON:
		return ocr.ReadJSON(bytes.NewReader(data))
	default:
		return nil, fmt.Errorf("input: unknown format %q", format)
	}
}
