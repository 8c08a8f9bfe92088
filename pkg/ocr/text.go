package ocr

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// NormalizeText returns s in Unicode normalization form C, so that
// precomposed glyphs are looked up instead of combining sequences.
func NormalizeText(s string) string {
	return norm.NFC.String(s)
}

// Text extracts all text from the document. Words are separated by spaces,
// lines by newlines and pages by a blank line.
func (d *Document) Text() string {
	var builder strings.Builder
	for _, page := range d.Pages {
		for _, line := range page.Lines {
			if len(line.Words) == 0 {
				continue
			}
			for i, word := range line.Words {
				if i > 0 {
					builder.WriteString(" ")
				}
				builder.WriteString(word.Text)
			}
			builder.WriteString("\n")
		}
		builder.WriteString("\n")
	}
	return builder.String()
}

// WordCount returns the number of words on the page.
func (p *Page) WordCount() int {
	n := 0
	for _, line := range p.Lines {
		n += len(line.Words)
	}
	return n
}

// ReadJSON decodes a document from its JSON form.
func ReadJSON(r io.Reader) (*Document, error) {
	var doc Document
	dec := json.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("ocr: failed to decode document: %w", err)
	}
	return &doc, nil
}

// WriteJSON encodes a document as indented JSON.
func WriteJSON(w io.Writer, doc *Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("ocr: failed to encode document: %w", err)
	}
	return nil
}
