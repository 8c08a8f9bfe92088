package ocr

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"
)

func testLine() Line {
	return Line{
		BBox:     NewBBox(0, 0, 1, 1),
		Baseline: Baseline{Slope: 0.01, Intercept: -4},
		Words: []Word{
			{Text: "Hello", BBox: NewBBox(100, 50, 180, 80), Confidence: 96},
			{Text: "world", BBox: NewBBox(190, 48, 260, 81), Confidence: 70, Style: StyleItalic},
			{Text: "2", BBox: NewBBox(262, 40, 268, 55), Kind: KindSuperscript},
		},
	}
}

func TestRecalcBBox(t *testing.T) {
	line := testLine()
	line.RecalcBBox()

	want := NewBBox(100, 40, 268, 81)
	if line.BBox != want {
		t.Errorf("RecalcBBox() = %+v, want %+v", line.BBox, want)
	}

	empty := Line{BBox: NewBBox(1, 2, 3, 4)}
	empty.RecalcBBox()
	if empty.BBox != NewBBox(1, 2, 3, 4) {
		t.Errorf("RecalcBBox() on empty line changed box to %+v", empty.BBox)
	}
}

func TestCheckOrder(t *testing.T) {
	line := testLine()
	if err := line.CheckOrder(); err != nil {
		t.Fatalf("CheckOrder() = %v, want nil", err)
	}

	line.Words[0], line.Words[1] = line.Words[1], line.Words[0]
	err := line.CheckOrder()
	if !errors.Is(err, ErrWordOrder) {
		t.Fatalf("CheckOrder() = %v, want ErrWordOrder", err)
	}
}

func TestBaselineY(t *testing.T) {
	line := testLine()
	line.RecalcBBox()

	tests := []struct {
		x    float64
		want float64
	}{
		{100, 77},
		{200, 78},
	}
	for _, tt := range tests {
		if got := line.BaselineY(tt.x); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("BaselineY(%v) = %v, want %v", tt.x, got, tt.want)
		}
	}
}

func TestSkewShift(t *testing.T) {
	dims := Dims{Width: 1000, Height: 2000}

	x, y := SkewShift(0, dims)
	if x != 0 || y != 0 {
		t.Errorf("SkewShift(0) = (%v, %v), want (0, 0)", x, y)
	}

	x, y = SkewShift(30, dims)
	wantX := -0.5 * 500
	wantY := 0.5 * ((2000 - wantX) / 2)
	if math.Abs(x-wantX) > 1e-9 || math.Abs(y-wantY) > 1e-9 {
		t.Errorf("SkewShift(30) = (%v, %v), want (%v, %v)", x, y, wantX, wantY)
	}
}

func TestSkewFromSlopes(t *testing.T) {
	tests := []struct {
		slopes []float64
		want   float64
	}{
		{nil, 0},
		{[]float64{0.02}, math.Atan(0.02) * 180 / math.Pi},
		{[]float64{0.5, -0.01, 0.01}, math.Atan(0.01) * 180 / math.Pi},
		{[]float64{0.03, 0.01}, math.Atan(0.02) * 180 / math.Pi},
	}
	for _, tt := range tests {
		if got := SkewFromSlopes(tt.slopes); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("SkewFromSlopes(%v) = %v, want %v", tt.slopes, got, tt.want)
		}
	}
}

func TestStyleAndKindText(t *testing.T) {
	for _, s := range []Style{StyleNormal, StyleItalic, StyleSmallCaps} {
		b, _ := s.MarshalText()
		var back Style
		if err := back.UnmarshalText(b); err != nil || back != s {
			t.Errorf("Style %v round trip = %v, %v", s, back, err)
		}
	}
	if _, err := ParseStyle("bold"); err == nil {
		t.Error("ParseStyle(\"bold\") succeeded, want error")
	}

	var k WordKind
	if err := k.UnmarshalText([]byte("dropcap")); err != nil || k != KindDropCap {
		t.Errorf("UnmarshalText(dropcap) = %v, %v", k, err)
	}
	if err := k.UnmarshalText([]byte("sidenote")); err == nil {
		t.Error("UnmarshalText(sidenote) succeeded, want error")
	}
}

func TestJSON(t *testing.T) {
	line := testLine()
	line.RecalcBBox()
	doc := &Document{Pages: []Page{{Dims: Dims{Width: 800, Height: 1000}, Angle: 0.3, Lines: []Line{line}}}}

	var buf bytes.Buffer
	if err := WriteJSON(&buf, doc); err != nil {
		t.Fatalf("WriteJSON() error = %v", err)
	}
	if !strings.Contains(buf.String(), `"kind": "sup"`) || !strings.Contains(buf.String(), `"style": "italic"`) {
		t.Errorf("WriteJSON() output lacks textual style/kind:\n%s", buf.String())
	}

	back, err := ReadJSON(&buf)
	if err != nil {
		t.Fatalf("ReadJSON() error = %v", err)
	}
	if got := back.Pages[0].Lines[0].Words[2].Kind; got != KindSuperscript {
		t.Errorf("decoded kind = %v, want %v", got, KindSuperscript)
	}
	if back.Pages[0].Angle != 0.3 {
		t.Errorf("decoded angle = %v, want 0.3", back.Pages[0].Angle)
	}
}

func TestText(t *testing.T) {
	doc := &Document{Pages: []Page{
		{Lines: []Line{testLine(), {}}},
		{Lines: []Line{{Words: []Word{{Text: "end"}}}}},
	}}
	want := "Hello world 2\n\nend\n\n"
	if got := doc.Text(); got != want {
		t.Errorf("Text() = %q, want %q", got, want)
	}
	if n := doc.Pages[0].WordCount(); n != 3 {
		t.Errorf("WordCount() = %d, want 3", n)
	}
}

func TestNormalizeText(t *testing.T) {
	decomposed := "e\u0301"
	if got := NormalizeText(decomposed); got != "\u00e9" {
		t.Errorf("NormalizeText(%q) = %q, want %q", decomposed, got, "\u00e9")
	}
}
