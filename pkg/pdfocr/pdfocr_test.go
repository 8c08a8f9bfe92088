package pdfocr

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"codeberg.org/go-pdf/fpdf"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"github.com/gardar/ocrsynth/pkg/ocr"
)

func testDocument(words ...string) *ocr.Document {
	line := ocr.Line{Baseline: ocr.Baseline{Intercept: -3}}
	x := 10.0
	for _, w := range words {
		line.Words = append(line.Words, ocr.Word{Text: w, BBox: ocr.NewBBox(x, 10, x+30, 30), Confidence: 90})
		x += 35
	}
	line.RecalcBBox()
	return &ocr.Document{Pages: []ocr.Page{{
		Dims:  ocr.Dims{Width: 200, Height: 100},
		Lines: []ocr.Line{line},
	}}}
}

func testImage(t *testing.T) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 200, 100))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	img.SetGray(20, 20, color.Gray{})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode() error = %v", err)
	}
	return buf.Bytes()
}

func blankPDF(t *testing.T) []byte {
	t.Helper()
	pdf := fpdf.New("P", "pt", "", "")
	pdf.AddPageFormat("P", fpdf.SizeType{Wd: 200, Ht: 100})
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		t.Fatalf("Output() error = %v", err)
	}
	return buf.Bytes()
}

func testConfig(log *bytes.Buffer) OCRConfig {
	cfg := DefaultConfig()
	cfg.Logger = log
	return cfg
}

func TestAssembleWithOCR(t *testing.T) {
	var log bytes.Buffer
	cfg := testConfig(&log)

	out, err := AssembleWithOCR(testDocument("Hello", "world"), [][]byte{testImage(t)}, cfg)
	if err != nil {
		t.Fatalf("AssembleWithOCR() error = %v", err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF-")) {
		t.Fatalf("output is not a PDF: %q", out[:min(len(out), 16)])
	}

	res, err := DetectOCR(out, cfg)
	if err != nil {
		t.Fatalf("DetectOCR() error = %v", err)
	}
	if !res.HasOCR || res.LayerInfo.OCRLayerName != "OCR Text (Page 1)" {
		t.Errorf("DetectOCR() = %+v, want layer %q", res, "OCR Text (Page 1)")
	}
}

func TestEmbeddableImage(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 20, 10))
	var tif, bm bytes.Buffer
	if err := tiff.Encode(&tif, img, nil); err != nil {
		t.Fatal(err)
	}
	if err := bmp.Encode(&bm, img); err != nil {
		t.Fatal(err)
	}
	pngData := testImage(t)

	tests := []struct {
		name     string
		data     []byte
		wantType string
		same     bool
	}{
		{"png passes through", pngData, "PNG", true},
		{"tiff converted", tif.Bytes(), "PNG", false},
		{"bmp converted", bm.Bytes(), "PNG", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, typ, err := embeddableImage(tt.data)
			if err != nil {
				t.Fatalf("embeddableImage() error = %v", err)
			}
			if typ != tt.wantType || bytes.Equal(data, tt.data) != tt.same {
				t.Errorf("embeddableImage() type = %s, unchanged = %v", typ, bytes.Equal(data, tt.data))
			}
			if _, err := png.DecodeConfig(bytes.NewReader(data)); err != nil {
				t.Errorf("result is not a PNG: %v", err)
			}
		})
	}
}

func TestAssembleWithOCRErrors(t *testing.T) {
	img := testImage(t)
	doc := testDocument("a")

	tests := []struct {
		name   string
		doc    *ocr.Document
		images [][]byte
		start  int
		want   string
	}{
		{"no document", nil, [][]byte{img}, 1, "no pages"},
		{"no images", doc, nil, 1, "no image data"},
		{"bad start page", doc, [][]byte{img}, 0, "start page"},
		{"too few images", &ocr.Document{Pages: make([]ocr.Page, 2)}, [][]byte{img}, 1, "not enough images"},
		{"empty image", doc, [][]byte{{}}, 1, "is empty"},
		{"invalid image", doc, [][]byte{[]byte("not an image")}, 1, "invalid format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(&bytes.Buffer{})
			cfg.StartPage = tt.start
			_, err := AssembleWithOCR(tt.doc, tt.images, cfg)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("AssembleWithOCR() error = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestAssembleWithOCREncoding(t *testing.T) {
	_, err := AssembleWithOCR(testDocument("日本語"), [][]byte{testImage(t)}, testConfig(&bytes.Buffer{}))
	if err == nil || !strings.Contains(err.Error(), "character encoding") {
		t.Errorf("AssembleWithOCR() error = %v, want encoding failure", err)
	}
}

func TestApplyOCR(t *testing.T) {
	var log bytes.Buffer
	cfg := testConfig(&log)
	doc := testDocument("Searchable", "text")

	out, err := ApplyOCR(blankPDF(t), doc, cfg)
	if err != nil {
		t.Fatalf("ApplyOCR() error = %v", err)
	}
	res, err := DetectOCR(out, cfg)
	if err != nil || !res.HasLayerOCR {
		t.Fatalf("DetectOCR() = %+v, %v, want an OCR layer", res, err)
	}

	if _, err := ApplyOCR(out, doc, cfg); !errors.Is(err, ErrOCRLayerExists) {
		t.Errorf("second ApplyOCR() error = %v, want ErrOCRLayerExists", err)
	}

	cfg.Force = true
	if _, err := ApplyOCR(out, doc, cfg); err != nil {
		t.Fatalf("forced ApplyOCR() error = %v", err)
	}
	if !strings.Contains(log.String(), "reapplying") {
		t.Errorf("log lacks the reapply warning:\n%s", log.String())
	}
}

func TestApplyOCRErrors(t *testing.T) {
	cfg := testConfig(&bytes.Buffer{})
	if _, err := ApplyOCR(nil, testDocument("a"), cfg); err == nil {
		t.Error("ApplyOCR() with empty input succeeded")
	}
	if _, err := ApplyOCR(blankPDF(t), &ocr.Document{}, cfg); err == nil {
		t.Error("ApplyOCR() without pages succeeded")
	}
}

func TestCheckExistingOCRLayers(t *testing.T) {
	utf16Name := "\xfe\xff\x00O\x00C\x00R\x00 \x00T\x00e\x00x\x00t\x00 \x00\\(\x00P\x00a\x00g\x00e\x00 \x003\x00\\)"
	tests := []struct {
		name     string
		pdf      string
		hasOCR   bool
		layer    string
		warnings int
	}{
		{"plain name", "1 0 obj <</Type /OCG /Name (OCR Text \\(Page 2\\))>> endobj", true, "OCR Text (Page 2)", 0},
		{"utf-16 name", "1 0 obj <</Type /OCG /Name (" + utf16Name + ")>> endobj", true, "OCR Text (Page 3)", 0},
		{"exact name", "<</Name (OCR Text) /Type /OCG>>", true, "OCR Text", 0},
		{"other ocr layer", "<</Type /OCG /Name (Vendor OCR)>>", false, "", 1},
		{"unrelated layer", "<</Type /OCG /Name (Annotations)>>", false, "", 0},
		{"no layers", "%PDF-1.4 nothing here", false, "", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := CheckExistingOCRLayers([]byte(tt.pdf), "OCR Text")
			if err != nil {
				t.Fatalf("CheckExistingOCRLayers() error = %v", err)
			}
			if res.HasOCRLayer != tt.hasOCR || res.OCRLayerName != tt.layer || len(res.Warnings) != tt.warnings {
				t.Errorf("CheckExistingOCRLayers() = %+v", res)
			}
		})
	}

	if _, err := CheckExistingOCRLayers(nil, "OCR Text"); err == nil {
		t.Error("CheckExistingOCRLayers() on empty data succeeded")
	}
}

func TestDetectOCRWarnings(t *testing.T) {
	res, err := DetectOCR([]byte("<</Type /OCG /Name (old ocr)>>"), DefaultConfig())
	if err != nil {
		t.Fatalf("DetectOCR() error = %v", err)
	}
	if res.HasOCR || len(res.Warnings) != 2 {
		t.Errorf("DetectOCR() = %+v, want a potential-OCR warning only", res)
	}
}

func TestDecodeUTF16BE(t *testing.T) {
	got, err := decodeUTF16BE([]byte("\xfe\xff\x00h\x00\xe9"))
	if err != nil || got != "hé" {
		t.Errorf("decodeUTF16BE() = %q, %v", got, err)
	}
	if _, err := decodeUTF16BE([]byte("\x00h")); err == nil {
		t.Error("decodeUTF16BE() without BOM succeeded")
	}
}

func TestUnescapePDFString(t *testing.T) {
	if got := unescapePDFString(`a\(b\)c\\d`); got != `a(b)c\d` {
		t.Errorf("unescapePDFString() = %q", got)
	}
}

func TestScale(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.scale() != 1 {
		t.Errorf("scale() without DPI = %v, want 1", cfg.scale())
	}
	cfg.DPI = 300
	if got := cfg.scale(); got != 0.24 {
		t.Errorf("scale() at 300 dpi = %v, want 0.24", got)
	}
}
