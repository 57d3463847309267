package detect

import (
	"image"
	"image/color"
	"image/draw"
	"testing"

	"github.com/formfieldlabs/formfield/internal/geometry"
)

// formPage builds a mid-gray page; callers paint field patches onto it.
func formPage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	gray := color.RGBA{R: 120, G: 120, B: 120, A: 255}
	draw.Draw(img, img.Bounds(), image.NewUniform(gray), image.Point{}, draw.Src)
	return img
}

func paint(img *image.RGBA, r image.Rectangle, c color.Color) {
	draw.Draw(img, r, image.NewUniform(c), image.Point{}, draw.Src)
}

func TestBoxes(t *testing.T) {
	t.Run("single pale rectangle with pixel noise", func(t *testing.T) {
		img := formPage(800, 1000)
		// One pale-yellow field and scattered single bright pixels.
		field := image.Rect(100, 200, 300, 250)
		paint(img, field, color.RGBA{R: 250, G: 240, B: 150, A: 255})
		// Noise sits on grid sample points (multiples of the 4px step).
		for _, p := range []image.Point{{12, 12}, {700, 48}, {400, 900}} {
			img.Set(p.X, p.Y, color.White)
		}

		boxes := Boxes(img)
		if len(boxes) != 1 {
			t.Fatalf("got %d boxes, want 1", len(boxes))
		}
		b := boxes[0]
		if b.X > 110 || b.Y > 210 || b.Right() < 290 || b.Bottom() < 240 {
			t.Errorf("box %+v does not cover the painted field", b.Rect)
		}
	})

	t.Run("bright white field detected by luminance", func(t *testing.T) {
		img := formPage(800, 1000)
		paint(img, image.Rect(50, 100, 350, 140), color.White)

		boxes := Boxes(img)
		if len(boxes) != 1 {
			t.Fatalf("got %d boxes, want 1", len(boxes))
		}
	})

	t.Run("small patches filtered", func(t *testing.T) {
		img := formPage(800, 1000)
		// Under the 40x10 native-resolution minimum.
		paint(img, image.Rect(100, 100, 130, 106), color.White)

		if boxes := Boxes(img); len(boxes) != 0 {
			t.Errorf("got %d boxes, want 0", len(boxes))
		}
	})

	t.Run("reading order", func(t *testing.T) {
		img := formPage(800, 1000)
		paint(img, image.Rect(400, 600, 700, 650), color.White)
		paint(img, image.Rect(50, 100, 350, 150), color.White)
		paint(img, image.Rect(400, 100, 700, 150), color.White)

		boxes := Boxes(img)
		if len(boxes) != 3 {
			t.Fatalf("got %d boxes, want 3", len(boxes))
		}
		if !(boxes[0].Y <= boxes[1].Y && boxes[1].Y <= boxes[2].Y) {
			t.Errorf("boxes not sorted top to bottom: %+v", boxes)
		}
		if boxes[0].Y == boxes[1].Y && boxes[0].X > boxes[1].X {
			t.Errorf("boxes on same row not sorted left to right: %+v", boxes)
		}
		if boxes[2].Y < 500 {
			t.Errorf("bottom box out of order: %+v", boxes[2].Rect)
		}
	})

	t.Run("empty page", func(t *testing.T) {
		if boxes := Boxes(formPage(800, 1000)); len(boxes) != 0 {
			t.Errorf("got %d boxes on blank page, want 0", len(boxes))
		}
	})

	t.Run("nil image", func(t *testing.T) {
		if boxes := Boxes(nil); boxes != nil {
			t.Errorf("got %v for nil image, want nil", boxes)
		}
	})
}

func TestMergeOverlapping(t *testing.T) {
	t.Run("below threshold kept separate", func(t *testing.T) {
		// IoU ~= 0.143, under the 0.15 threshold.
		boxes := []Box{
			{geometry.Rect{X: 0, Y: 0, W: 100, H: 100}},
			{geometry.Rect{X: 50, Y: 50, W: 100, H: 100}},
		}
		if got := mergeOverlapping(boxes); len(got) != 2 {
			t.Errorf("got %d boxes, want 2", len(got))
		}
	})

	t.Run("above threshold merged to union", func(t *testing.T) {
		// IoU = 0.5.
		boxes := []Box{
			{geometry.Rect{X: 0, Y: 0, W: 100, H: 100}},
			{geometry.Rect{X: 0, Y: 0, W: 100, H: 150}},
		}
		got := mergeOverlapping(boxes)
		if len(got) != 1 {
			t.Fatalf("got %d boxes, want 1", len(got))
		}
		want := geometry.Rect{X: 0, Y: 0, W: 100, H: 150}
		if got[0].Rect != want {
			t.Errorf("merged box = %+v, want %+v", got[0].Rect, want)
		}
	})
}
