package orientation

import (
	"image"
	"image/color"
	"image/draw"
	"testing"

	"github.com/formfieldlabs/formfield/internal/geometry"
)

// testPage builds a white page with a dark band covering the given
// vertical range.
func testPage(w, h, bandTop, bandBottom int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	band := image.Rect(0, bandTop, w, bandBottom)
	draw.Draw(img, band, image.NewUniform(color.Black), image.Point{}, draw.Src)
	return img
}

func TestResolveY(t *testing.T) {
	const pageW, pageH = 200, 400

	t.Run("chooses as-given when its window is darker", func(t *testing.T) {
		// Box at y=100 (top-left origin); dark band there, flipped
		// position (400-120=280) is white.
		res := &Resolver{Raster: testPage(pageW, pageH, 90, 130)}
		r := geometry.Rect{X: 50, Y: 100, W: 80, H: 20}
		if got := res.ResolveY(r, pageH); got != 100 {
			t.Errorf("ResolveY = %v, want 100", got)
		}
	})

	t.Run("chooses flipped when its window is darker", func(t *testing.T) {
		// Same box, but the ink sits at the flipped position.
		res := &Resolver{Raster: testPage(pageW, pageH, 270, 310)}
		r := geometry.Rect{X: 50, Y: 100, W: 80, H: 20}
		if got := res.ResolveY(r, pageH); got != 280 {
			t.Errorf("ResolveY = %v, want 280", got)
		}
	})

	t.Run("flips when raster unavailable", func(t *testing.T) {
		res := &Resolver{}
		r := geometry.Rect{X: 50, Y: 100, W: 80, H: 20}
		if got := res.ResolveY(r, pageH); got != 280 {
			t.Errorf("ResolveY = %v, want 280", got)
		}
	})

	t.Run("nil resolver flips", func(t *testing.T) {
		var res *Resolver
		r := geometry.Rect{X: 0, Y: 30, W: 10, H: 10}
		if got := res.ResolveY(r, 100); got != 60 {
			t.Errorf("ResolveY = %v, want 60", got)
		}
	})
}

func TestResolveClamps(t *testing.T) {
	res := &Resolver{}
	r := geometry.Rect{X: -10, Y: 5, W: 50, H: 20}
	got := res.Resolve(r, 200, 400)
	if got.X != 0 {
		t.Errorf("X = %v, want clamped to 0", got.X)
	}
	if got.Y != 375 {
		t.Errorf("Y = %v, want 375", got.Y)
	}
	if got.W < 1 || got.H < 1 {
		t.Errorf("extent %vx%v, want >= 1x1", got.W, got.H)
	}
}

func TestLuminance(t *testing.T) {
	r, g, b, a := color.White.RGBA()
	if lum := Luminance(r, g, b, a); lum < 254 || lum > 256 {
		t.Errorf("white luminance = %v, want ~255", lum)
	}
	r, g, b, a = color.Black.RGBA()
	if lum := Luminance(r, g, b, a); lum != 0 {
		t.Errorf("black luminance = %v, want 0", lum)
	}
}
