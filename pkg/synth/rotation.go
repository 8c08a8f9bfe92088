package synth

import (
	"math"

	"github.com/gardar/ocrsynth/pkg/ocr"
)

// minRotation is the smallest page angle, in degrees, that is corrected for.
const minRotation = 0.05

// reconciler computes the placement offsets caused by page skew. Stored
// coordinates are deskewed; text placed over an unrotated (or separately
// rotated) background must be shifted to stay coincident with it.
type reconciler struct {
	angle            float64
	sin, cos         float64
	shiftX, shiftY   float64
	rotateText       bool
	rotateBackground bool
	active           bool
}

func newReconciler(page *ocr.Page, opts *Options) reconciler {
	rad := ocr.Radians(page.Angle)
	r := reconciler{
		angle:            page.Angle,
		sin:              math.Sin(rad),
		cos:              math.Cos(rad),
		rotateText:       opts.RotateText,
		rotateBackground: opts.RotateBackground,
	}
	r.active = (r.rotateText || r.rotateBackground) && math.Abs(page.Angle) > minRotation
	if r.active {
		r.shiftX, r.shiftY = ocr.SkewShift(page.Angle, page.Dims)
	}
	return r
}

// anchorAdjust returns the displacement of point (x, y) under the
// approximate rotation:
//
//	x'   = x*cos - y*sin
//	adjX = x - x'
//	adjY = -sin * (x + adjX/2)
func (r reconciler) anchorAdjust(x, y float64) (adjX, adjY float64) {
	xr := x*r.cos - y*r.sin
	adjX = x - xr
	adjY = -r.sin * (x + adjX/2)
	return adjX, adjY
}

// lineOffset returns the offset applied to a line anchored at (x, y).
func (r reconciler) lineOffset(x, y float64) (dx, dy float64) {
	if !r.active {
		return 0, 0
	}
	adjX, adjY := r.anchorAdjust(x, y)
	return adjX + r.shiftX, adjY + r.shiftY
}

// wordAdjust returns the extra vertical correction for a superscript or
// drop capital, measured relative to the line's baseline anchor. It only
// applies when the background is rotated.
func (r reconciler) wordAdjust(line *ocr.Line, word *ocr.Word) float64 {
	if !r.active || !r.rotateBackground {
		return 0
	}
	x := word.BBox.Left - line.BBox.Left
	y := word.BBox.Bottom - (line.BBox.Bottom + line.Baseline.Intercept)
	_, adjY := r.anchorAdjust(x, y)
	return adjY
}

// textMatrix returns the Tm operands placing the text origin at pixel
// position (x, y) on a page of the given height.
func (r reconciler) textMatrix(x, y, height float64) [6]float64 {
	if r.rotateText && r.active {
		return [6]float64{r.cos, -r.sin, r.sin, r.cos, x, height - y}
	}
	return [6]float64{1, 0, 0, 1, x, height - y}
}
