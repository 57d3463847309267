// Package geometry converts the bounding-box shapes returned by form
// analysis backends into canonical rectangles and provides the rectangle
// math used by field detection and overlay placement.
package geometry

import "math"

// Rect is a rectangle expressed as origin plus extent. The coordinate
// space (fraction, page points, pixels) is tracked by the caller.
type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Right returns the right edge X coordinate.
func (r Rect) Right() float64 { return r.X + r.W }

// Bottom returns the bottom edge Y coordinate (top-left origin).
func (r Rect) Bottom() float64 { return r.Y + r.H }

// Area returns the rectangle's area.
func (r Rect) Area() float64 { return r.W * r.H }

// Empty reports whether the rectangle has no extent.
func (r Rect) Empty() bool { return r.W <= 0 || r.H <= 0 }

// Union returns the smallest rectangle covering both r and other.
func (r Rect) Union(other Rect) Rect {
	x := math.Min(r.X, other.X)
	y := math.Min(r.Y, other.Y)
	right := math.Max(r.Right(), other.Right())
	bottom := math.Max(r.Bottom(), other.Bottom())
	return Rect{X: x, Y: y, W: right - x, H: bottom - y}
}

// Intersection returns the overlapping region of r and other.
// The zero Rect is returned when they do not overlap.
func (r Rect) Intersection(other Rect) Rect {
	x := math.Max(r.X, other.X)
	y := math.Max(r.Y, other.Y)
	right := math.Min(r.Right(), other.Right())
	bottom := math.Min(r.Bottom(), other.Bottom())
	if right <= x || bottom <= y {
		return Rect{}
	}
	return Rect{X: x, Y: y, W: right - x, H: bottom - y}
}

// IoU returns the intersection-over-union ratio of two rectangles.
// Used to decide whether two detected boxes describe the same field.
func (r Rect) IoU(other Rect) float64 {
	inter := r.Intersection(other).Area()
	union := r.Area() + other.Area() - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}

// Scale multiplies all components by the given factors.
func (r Rect) Scale(sx, sy float64) Rect {
	return Rect{X: r.X * sx, Y: r.Y * sy, W: r.W * sx, H: r.H * sy}
}

// ClampToPage clamps r into [0,pageW] x [0,pageH] and rounds to integer
// pixels. Width and height never drop below 1 so an overlay always has
// something to render.
func (r Rect) ClampToPage(pageW, pageH float64) Rect {
	w := math.Max(1, math.Round(r.W))
	h := math.Max(1, math.Round(r.H))
	if w > pageW && pageW >= 1 {
		w = math.Round(pageW)
	}
	if h > pageH && pageH >= 1 {
		h = math.Round(pageH)
	}
	x := math.Round(r.X)
	y := math.Round(r.Y)
	x = math.Max(0, math.Min(x, pageW-w))
	y = math.Max(0, math.Min(y, pageH-h))
	return Rect{X: x, Y: y, W: w, H: h}
}

// LooksNormalizedFraction reports whether all four components lie in
// [0,1], i.e. the box is expressed as fractions of the page size and
// must be scaled to pixels before use.
func LooksNormalizedFraction(r Rect) bool {
	for _, v := range [4]float64{r.X, r.Y, r.W, r.H} {
		if math.IsNaN(v) || v < 0 || v > 1 {
			return false
		}
	}
	return true
}
