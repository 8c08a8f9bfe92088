package input

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/gardar/ocrsynth/pkg/ocr"
)

const hocrPage = `<html><body>
<div class='ocr_page' title='bbox 0 0 200 100'>
 <span class='ocr_line' title='bbox 10 10 90 30; baseline 0 -4; x_size 20'>
  <span class='ocrx_word' title='bbox 10 10 50 30; x_wconf 90; x_font Times'>Hello</span>
 </span>
</div></body></html>`

const gdocaiResponse = `{"document": {"text": "Hi\n", "pages": [{
  "dimension": {"width": 100, "height": 100},
  "lines": [{"layout": {"textAnchor": {"textSegments": [{"endIndex": "3"}]},
    "boundingPoly": {"normalizedVertices": [{"x": 0.1, "y": 0.1}, {"x": 0.3, "y": 0.1}, {"x": 0.3, "y": 0.2}, {"x": 0.1, "y": 0.2}]}}}],
  "tokens": [{"layout": {"textAnchor": {"textSegments": [{"endIndex": "3"}]}, "confidence": 0.9,
    "boundingPoly": {"normalizedVertices": [{"x": 0.1, "y": 0.1}, {"x": 0.3, "y": 0.1}, {"x": 0.3, "y": 0.2}, {"x": 0.1, "y": 0.2}]}}}]
}]}}`

func nativeJSON(t *testing.T) []byte {
	t.Helper()
	line := ocr.Line{Words: []ocr.Word{{Text: "Native", BBox: ocr.NewBBox(1, 1, 20, 10)}}}
	line.RecalcBBox()
	var buf bytes.Buffer
	doc := &ocr.Document{Pages: []ocr.Page{{Dims: ocr.Dims{Width: 50, Height: 50}, Lines: []ocr.Line{line}}}}
	if err := ocr.WriteJSON(&buf, doc); err != nil {
		t.Fatalf("WriteJSON() error = %v", err)
	}
	return buf.Bytes()
}

func TestDetect(t *testing.T) {
	tests := []struct {
		path string
		data string
		want Format
	}{
		{"page.hocr", "", FormatHOCR},
		{"page.HTML", "", FormatHOCR},
		{"scan.json", gdocaiResponse, FormatGDocAI},
		{"scan.json", `{"pages": []}`, FormatJSON},
		{"scan.out", "  <html>", FormatHOCR},
	}
	for _, tt := range tests {
		if got := Detect(tt.path, []byte(tt.data)); got != tt.want {
			t.Errorf("Detect(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestParseFormat(t *testing.T) {
	if f, err := ParseFormat("HOCR"); err != nil || f != FormatHOCR {
		t.Errorf("ParseFormat(HOCR) = %q, %v", f, err)
	}
	if _, err := ParseFormat("alto"); err == nil {
		t.Error("ParseFormat(alto) succeeded")
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name   string
		file   string
		data   []byte
		format Format
		want   string
	}{
		{"hocr", "page.hocr", []byte(hocrPage), "", "Hello"},
		{"gdocai", "resp.json", []byte(gdocaiResponse), FormatGDocAI, "Hi"},
		{"native", "doc.json", nativeJSON(t), "", "Native"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.file)
			if err := os.WriteFile(path, tt.data, 0o644); err != nil {
				t.Fatal(err)
			}
			doc, err := Load(path, tt.format, Options{})
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if len(doc.Pages) != 1 || len(doc.Pages[0].Lines) != 1 {
				t.Fatalf("Load() = %+v, want one page with one line", doc)
			}
			if got := doc.Pages[0].Lines[0].Words[0].Text; got != tt.want {
				t.Errorf("first word = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLoadFontFamily(t *testing.T) {
	path := filepath.Join(t.TempDir(), "page.hocr")
	if err := os.WriteFile(path, []byte(hocrPage), 0o644); err != nil {
		t.Fatal(err)
	}
	doc, err := Load(path, FormatHOCR, Options{FontFamily: func(string) string { return "Serif" }})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got := doc.Pages[0].Lines[0].Words[0].Family; got != "Serif" {
		t.Errorf("Family = %q, want Serif", got)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.json"), "", Options{}); err == nil {
		t.Error("Load() of a missing file succeeded")
	}
	if _, err := Decode([]byte("x"), "alto", Options{}); err == nil {
		t.Error("Decode() with unknown format succeeded")
	}
}
