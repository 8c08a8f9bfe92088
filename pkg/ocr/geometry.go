package ocr

import (
	"fmt"
	"math"
	"sort"
)

// BBox is an axis-aligned rectangle in page pixel space.
// Left/Top is the upper-left corner; Y increases down.
type BBox struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
}

// NewBBox creates a bounding box from its four edges.
func NewBBox(left, top, right, bottom float64) BBox {
	return BBox{Left: left, Top: top, Right: right, Bottom: bottom}
}

// Width returns Right - Left.
func (b BBox) Width() float64 { return b.Right - b.Left }

// Height returns Bottom - Top.
func (b BBox) Height() float64 { return b.Bottom - b.Top }

// Union returns the smallest box containing both b and o.
func (b BBox) Union(o BBox) BBox {
	return BBox{
		Left:   math.Min(b.Left, o.Left),
		Top:    math.Min(b.Top, o.Top),
		Right:  math.Max(b.Right, o.Right),
		Bottom: math.Max(b.Bottom, o.Bottom),
	}
}

// RecalcBBox sets the line box to the union of its word boxes.
// A line without words keeps its current box.
func (l *Line) RecalcBBox() {
	if len(l.Words) == 0 {
		return
	}
	box := l.Words[0].BBox
	for _, w := range l.Words[1:] {
		box = box.Union(w.BBox)
	}
	l.BBox = box
}

// CheckOrder reports whether the words are ordered left-to-right by their
// left edge. Gap reconciliation during synthesis relies on this order.
func (l *Line) CheckOrder() error {
	for i := 1; i < len(l.Words); i++ {
		if l.Words[i].BBox.Left < l.Words[i-1].BBox.Left {
			return fmt.Errorf("%w: word %d (%q) starts before word %d (%q)",
				ErrWordOrder, i, l.Words[i].Text, i-1, l.Words[i-1].Text)
		}
	}
	return nil
}

// BaselineY returns the baseline y coordinate at horizontal position x.
func (l *Line) BaselineY(x float64) float64 {
	return l.BBox.Bottom + l.Baseline.Intercept + l.Baseline.Slope*(x-l.BBox.Left)
}

// Radians converts degrees to radians.
func Radians(deg float64) float64 {
	return deg * (math.Pi / 180)
}

// Degrees converts radians to degrees.
func Degrees(rad float64) float64 {
	return rad * (180 / math.Pi)
}

// SkewFromSlopes estimates a page's skew angle in degrees from the baseline
// slopes of its lines, using the median so that a few odd lines do not
// dominate. Positive angles descend to the right in image coordinates.
func SkewFromSlopes(slopes []float64) float64 {
	if len(slopes) == 0 {
		return 0
	}
	s := append([]float64(nil), slopes...)
	sort.Float64s(s)
	m := s[len(s)/2]
	if len(s)%2 == 0 {
		m = (s[len(s)/2-1] + m) / 2
	}
	return Degrees(math.Atan(m))
}

// SkewShift returns the pivot-centered shift used to approximate a rotation
// by angle degrees around the page's horizontal center:
//
//	shiftX = -sin(angle) * width/2
//	shiftY =  sin(angle) * (height - shiftX)/2
//
// The approximation is exact only at angle 0. Existing documents depend on
// this exact output, so it must not be replaced with a true center rotation.
func SkewShift(angle float64, dims Dims) (shiftX, shiftY float64) {
	sin := math.Sin(Radians(angle))
	shiftX = -sin * (dims.Width / 2)
	shiftY = sin * ((dims.Height - shiftX) / 2)
	return shiftX, shiftY
}
