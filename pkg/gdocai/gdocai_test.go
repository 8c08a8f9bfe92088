package gdocai

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"google.golang.org/protobuf/proto"

	"github.com/gardar/ocrsynth/pkg/ocr"
)

const tol = 1e-3

func layout(start, end int64, conf float32, pts ...float32) *documentaipb.Document_Page_Layout {
	l := &documentaipb.Document_Page_Layout{
		Confidence:   conf,
		BoundingPoly: &documentaipb.BoundingPoly{},
	}
	if end > start {
		l.TextAnchor = &documentaipb.Document_TextAnchor{
			TextSegments: []*documentaipb.Document_TextAnchor_TextSegment{{StartIndex: start, EndIndex: end}},
		}
	}
	for i := 0; i+1 < len(pts); i += 2 {
		l.BoundingPoly.NormalizedVertices = append(l.BoundingPoly.NormalizedVertices,
			&documentaipb.NormalizedVertex{X: pts[i], Y: pts[i+1]})
	}
	return l
}

func absLayout(start, end int64, pts ...int32) *documentaipb.Document_Page_Layout {
	l := layout(start, end, 0.9)
	for i := 0; i+1 < len(pts); i += 2 {
		l.BoundingPoly.Vertices = append(l.BoundingPoly.Vertices, &documentaipb.Vertex{X: pts[i], Y: pts[i+1]})
	}
	return l
}

func lang(code string) []*documentaipb.Document_Page_DetectedLanguage {
	return []*documentaipb.Document_Page_DetectedLanguage{{LanguageCode: code, Confidence: 0.9}}
}

// sampleDocument has two lines: a tilted one with normalized vertices and a
// level one with absolute vertices.
func sampleDocument() *documentaipb.Document {
	return &documentaipb.Document{
		Text: "Hello wörld\nNext\n",
		Pages: []*documentaipb.Document_Page{{
			PageNumber:        1,
			Dimension:         &documentaipb.Document_Page_Dimension{Width: 1000, Height: 1000, Unit: "pixels"},
			DetectedLanguages: lang("en"),
			Lines: []*documentaipb.Document_Page_Line{
				{Layout: layout(0, 12, 0.9, 0.1, 0.1, 0.4, 0.11, 0.4, 0.15, 0.1, 0.14)},
				{Layout: absLayout(12, 17, 100, 300, 200, 300, 200, 330, 100, 330)},
			},
			Tokens: []*documentaipb.Document_Page_Token{
				{
					Layout: layout(6, 12, 0.5, 0.22, 0.105, 0.4, 0.105, 0.4, 0.15, 0.22, 0.15),
					StyleInfo: &documentaipb.Document_Page_Token_StyleInfo{
						Italic:        true,
						PixelFontSize: 30,
					},
					DetectedLanguages: lang("de"),
				},
				{Layout: layout(0, 6, 0.95, 0.1, 0.1, 0.2, 0.1, 0.2, 0.14, 0.1, 0.14)},
				{
					Layout: absLayout(12, 17, 100, 300, 200, 300, 200, 330, 100, 330),
					StyleInfo: &documentaipb.Document_Page_Token_StyleInfo{
						Smallcaps:   true,
						Italic:      true,
						Superscript: true,
					},
				},
				// No anchor: belongs to no line.
				{Layout: layout(0, 0, 0.9, 0.5, 0.5, 0.6, 0.5, 0.6, 0.6, 0.5, 0.6)},
			},
		}},
	}
}

func near(a, b float64) bool { return math.Abs(a-b) < tol }

func nearBox(a, b ocr.BBox) bool {
	return near(a.Left, b.Left) && near(a.Top, b.Top) && near(a.Right, b.Right) && near(a.Bottom, b.Bottom)
}

func TestToDocument(t *testing.T) {
	doc, err := ToDocument(sampleDocument())
	if err != nil {
		t.Fatalf("ToDocument() error = %v", err)
	}
	if len(doc.Pages) != 1 {
		t.Fatalf("got %d pages, want 1", len(doc.Pages))
	}
	page := doc.Pages[0]
	if page.Dims != (ocr.Dims{Width: 1000, Height: 1000}) || page.Lang != "en" {
		t.Errorf("page dims/lang = %+v/%q", page.Dims, page.Lang)
	}
	if want := math.Atan(1.0/60) * 180 / math.Pi; !near(page.Angle, want) {
		t.Errorf("angle = %v, want %v", page.Angle, want)
	}
	if len(page.Lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(page.Lines))
	}

	line := page.Lines[0]
	if len(line.Words) != 2 || line.Words[0].Text != "Hello" || line.Words[1].Text != "wörld" {
		t.Fatalf("first line words = %+v", line.Words)
	}
	if !nearBox(line.BBox, ocr.NewBBox(100, 100, 400, 150)) {
		t.Errorf("line bbox = %+v", line.BBox)
	}
	if !near(line.Baseline.Slope, 1.0/30) || !near(line.Baseline.Intercept, -10) {
		t.Errorf("baseline = %+v, want slope 1/30 intercept -10", line.Baseline)
	}
	if !near(line.BaselineY(line.BBox.Right), line.BBox.Bottom) {
		t.Error("descending baseline does not end at the line bottom")
	}

	hello, world := line.Words[0], line.Words[1]
	if !near(hello.Confidence, 95) || hello.Lang != "" || hello.Style != ocr.StyleNormal {
		t.Errorf("first word = %+v", hello)
	}
	if world.Style != ocr.StyleItalic || world.Size != 30 || world.Lang != "de" || !near(world.Confidence, 50) {
		t.Errorf("second word = %+v", world)
	}

	next := page.Lines[1]
	if next.Baseline != (ocr.Baseline{}) {
		t.Errorf("level line baseline = %+v", next.Baseline)
	}
	w := next.Words[0]
	if w.Text != "Next" || w.BBox != ocr.NewBBox(100, 300, 200, 330) {
		t.Errorf("absolute-vertex word = %+v", w)
	}
	if w.Style != ocr.StyleSmallCaps || w.Kind != ocr.KindSuperscript {
		t.Errorf("styled word style/kind = %v/%v, want small-caps/sup", w.Style, w.Kind)
	}
}

func TestPageDimensions(t *testing.T) {
	doc := sampleDocument()
	doc.Pages[0].Dimension = nil
	if _, err := ToDocument(doc); !errors.Is(err, ErrNoDimensions) {
		t.Errorf("ToDocument() without dimensions error = %v, want ErrNoDimensions", err)
	}

	doc.Pages[0].Image = &documentaipb.Document_Page_Image{Width: 500, Height: 600}
	got, err := ToDocument(doc)
	if err != nil {
		t.Fatalf("ToDocument() error = %v", err)
	}
	if got.Pages[0].Dims != (ocr.Dims{Width: 500, Height: 600}) {
		t.Errorf("dims = %+v, want image size", got.Pages[0].Dims)
	}
}

func TestLoadDocumentJSON(t *testing.T) {
	in := sampleDocument()

	data, err := ToJSON(in)
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}
	out, err := LoadDocumentJSON([]byte(data))
	if err != nil {
		t.Fatalf("LoadDocumentJSON() error = %v", err)
	}
	if !proto.Equal(in, out) {
		t.Error("document changed through JSON")
	}

	wrapped, err := ToJSON(&documentaipb.ProcessResponse{Document: in})
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}
	out, err = LoadDocumentJSON([]byte(wrapped))
	if err != nil {
		t.Fatalf("LoadDocumentJSON(response) error = %v", err)
	}
	if !proto.Equal(in, out) {
		t.Error("document changed through a wrapped response")
	}

	if _, err := LoadDocumentJSON([]byte("{not json")); err == nil {
		t.Error("LoadDocumentJSON() accepted invalid input")
	}

	plain, err := ToJSON(map[string]int{"pages": 1})
	if err != nil || !strings.Contains(plain, `"pages": 1`) {
		t.Errorf("ToJSON(map) = %q, %v", plain, err)
	}
}

func TestMergeDocument(t *testing.T) {
	merged := &documentaipb.Document{}
	MergeDocument(merged, sampleDocument())
	MergeDocument(merged, sampleDocument())

	if len(merged.Pages) != 2 || merged.Pages[1].PageNumber != 2 {
		t.Fatalf("merged %d pages", len(merged.Pages))
	}
	if want := "Hello wörld\nNext\n\n\nHello wörld\nNext\n"; merged.Text != want {
		t.Errorf("merged text = %q", merged.Text)
	}

	doc, err := ToDocument(merged)
	if err != nil {
		t.Fatalf("ToDocument() error = %v", err)
	}
	if got := doc.Text(); got != "Hello wörld\nNext\n\nHello wörld\nNext\n\n" {
		t.Errorf("merged document text = %q", got)
	}
}

func TestProcessDocumentConfig(t *testing.T) {
	_, err := ProcessDocument(context.Background(), []byte("%PDF"), &Config{Location: "eu"})
	if err == nil || !strings.Contains(err.Error(), "project_id") {
		t.Errorf("ProcessDocument() with incomplete config error = %v", err)
	}
}

func TestExtractImageFromPage(t *testing.T) {
	if _, _, err := ExtractImageFromPage(&documentaipb.Document_Page{}); err == nil {
		t.Error("ExtractImageFromPage() without image succeeded")
	}
	page := &documentaipb.Document_Page{Image: &documentaipb.Document_Page_Image{Content: []byte{1, 2}, MimeType: "image/png"}}
	content, mime, err := ExtractImageFromPage(page)
	if err != nil || len(content) != 2 || mime != "image/png" {
		t.Errorf("ExtractImageFromPage() = %v, %q, %v", content, mime, err)
	}
}
