package facematch

import (
	"image"
	"math"
)

// BBox is a face bounding box in pixel coordinates, [x1, y1, x2, y2].
type BBox [4]float64

// BBoxFromSlice converts a detector bbox slice; ok is false unless it has exactly four values.
func BBoxFromSlice(v []float64) (BBox, bool) {
	if len(v) != 4 {
		return BBox{}, false
	}
	return BBox{v[0], v[1], v[2], v[3]}, true
}

// Width returns x2 - x1, never negative.
func (b BBox) Width() float64 { return max(0, b[2]-b[0]) }

// Height returns y2 - y1, never negative.
func (b BBox) Height() float64 { return max(0, b[3]-b[1]) }

// Area returns the box area in square pixels.
func (b BBox) Area() float64 { return b.Width() * b.Height() }

// Valid reports whether the box has positive width and height and no NaN coordinates.
func (b BBox) Valid() bool {
	for _, v := range b {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return b.Width() > 0 && b.Height() > 0
}

// Expand grows the box by margin times its width and height on every side.
func (b BBox) Expand(margin float64) BBox {
	dx := b.Width() * margin
	dy := b.Height() * margin
	return BBox{b[0] - dx, b[1] - dy, b[2] + dx, b[3] + dy}
}

// Rect clamps the box to bounds and rounds it outward to whole pixels.
// The result is empty when the box lies outside bounds.
func (b BBox) Rect(bounds image.Rectangle) image.Rectangle {
	r := image.Rect(
		int(math.Floor(b[0])),
		int(math.Floor(b[1])),
		int(math.Ceil(b[2])),
		int(math.Ceil(b[3])),
	)
	return r.Intersect(bounds)
}

// Largest returns the index of the box with the greatest area, or -1 for none.
// Ties keep the earlier box.
func Largest(boxes []BBox) int {
	best := -1
	bestArea := 0.0
	for i, b := range boxes {
		if a := b.Area(); best < 0 || a > bestArea {
			best, bestArea = i, a
		}
	}
	return best
}

// Detection is one face found by a detector.
type Detection struct {
	BBox     BBox    `json:"bbox"`
	DetScore float64 `json:"det_score"`
}
