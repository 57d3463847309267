// Package orientation decides whether a bounding box declared in a
// bottom-left-origin coordinate system needs its vertical axis flipped
// to land correctly on a top-left-origin raster.
//
// The decision is a luminance heuristic: form fields sit next to or on
// top of printed label text, so of the two candidate positions the one
// overlapping darker pixels is more likely correct. This is best-effort
// by construction; sparse or decorative text near a field can fool it.
// Keeping it behind Resolver lets an explicit coordinate-system signal
// from the analysis service replace sampling without touching callers.
package orientation

import (
	"image"

	"github.com/formfieldlabs/formfield/internal/geometry"
)

// sampleWindow is the half-extent of the square luminance window taken
// around each candidate's center (5x5 pixels).
const sampleWindow = 2

// Resolver resolves the vertical origin of page-space boxes against a
// rendered page raster.
type Resolver struct {
	// Raster is the rendered page. When nil (render surface not
	// available) ResolveY always flips, the safer default for
	// PDF-point input.
	Raster image.Image
}

// ResolveY returns the top-left-origin Y position for a box whose
// vertical origin is ambiguous. pageH is the rendered page height in
// the same units as r.
func (res *Resolver) ResolveY(r geometry.Rect, pageH float64) float64 {
	flipped := pageH - (r.Y + r.H)
	if res == nil || res.Raster == nil {
		return flipped
	}

	cx := r.X + r.W/2
	lumFlipped := res.meanLuminance(cx, flipped+r.H/2)
	lumAsGiven := res.meanLuminance(cx, r.Y+r.H/2)

	// Darker wins: more likely to overlap printed ink.
	if lumAsGiven < lumFlipped {
		return r.Y
	}
	return flipped
}

// Resolve applies ResolveY and clamps the result onto the page surface.
func (res *Resolver) Resolve(r geometry.Rect, pageW, pageH float64) geometry.Rect {
	r.Y = res.ResolveY(r, pageH)
	return r.ClampToPage(pageW, pageH)
}

// meanLuminance samples a (2*sampleWindow+1)^2 window centered on
// (cx, cy) and returns the mean Rec. 601 luminance. Out-of-bounds
// samples are skipped; an empty window reads as fully bright so the
// opposing candidate wins.
func (res *Resolver) meanLuminance(cx, cy float64) float64 {
	bounds := res.Raster.Bounds()
	x0 := bounds.Min.X + int(cx)
	y0 := bounds.Min.Y + int(cy)

	var sum float64
	var n int
	for dy := -sampleWindow; dy <= sampleWindow; dy++ {
		for dx := -sampleWindow; dx <= sampleWindow; dx++ {
			x, y := x0+dx, y0+dy
			if x < bounds.Min.X || x >= bounds.Max.X || y < bounds.Min.Y || y >= bounds.Max.Y {
				continue
			}
			sum += Luminance(res.Raster.At(x, y).RGBA())
			n++
		}
	}
	if n == 0 {
		return 255
	}
	return sum / float64(n)
}

// Luminance converts 16-bit premultiplied RGBA channels to an 8-bit
// Rec. 601 luma value.
func Luminance(r, g, b, _ uint32) float64 {
	return 0.299*float64(r>>8) + 0.587*float64(g>>8) + 0.114*float64(b>>8)
}
