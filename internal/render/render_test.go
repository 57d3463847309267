package render

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.White)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestImageDocument(t *testing.T) {
	t.Run("renders at native scale", func(t *testing.T) {
		doc, err := NewImageDocument(pngBytes(t, 640, 480))
		if err != nil {
			t.Fatalf("NewImageDocument() error = %v", err)
		}
		if doc.PageCount() != 1 {
			t.Errorf("PageCount = %d, want 1", doc.PageCount())
		}
		p, err := doc.Render(context.Background(), 1, 1.0)
		if err != nil {
			t.Fatalf("Render() error = %v", err)
		}
		if p.Width != 640 || p.Height != 480 {
			t.Errorf("rendered %dx%d, want 640x480", p.Width, p.Height)
		}
	})

	t.Run("renders scaled", func(t *testing.T) {
		doc, _ := NewImageDocument(pngBytes(t, 640, 480))
		p, err := doc.Render(context.Background(), 1, 0.5)
		if err != nil {
			t.Fatalf("Render() error = %v", err)
		}
		if p.Width != 320 || p.Height != 240 {
			t.Errorf("rendered %dx%d, want 320x240", p.Width, p.Height)
		}
	})

	t.Run("rejects out of range page", func(t *testing.T) {
		doc, _ := NewImageDocument(pngBytes(t, 64, 48))
		if _, err := doc.Render(context.Background(), 2, 1.0); err == nil {
			t.Error("expected error for page 2")
		}
	})

	t.Run("rejects junk bytes", func(t *testing.T) {
		if _, err := NewImageDocument([]byte("not an image")); err == nil {
			t.Error("expected decode error")
		}
	})
}

// failingRenderer renders nothing; surfaces must degrade, not fail.
type failingRenderer struct{}

func (failingRenderer) PageCount() int { return 3 }
func (failingRenderer) Render(ctx context.Context, page int, scale float64) (*Page, error) {
	return nil, errors.New("render backend offline")
}

func TestSurface(t *testing.T) {
	t.Run("exposes page size and raster", func(t *testing.T) {
		doc, _ := NewImageDocument(pngBytes(t, 640, 480))
		s := NewSurface(doc, 1.0)
		w, h, ok := s.PageSize(1)
		if !ok || w != 640 || h != 480 {
			t.Errorf("PageSize = %v,%v,%v", w, h, ok)
		}
		if s.Raster(1) == nil {
			t.Error("Raster(1) = nil, want pixel data")
		}
	})

	t.Run("renders at configured scale", func(t *testing.T) {
		doc, _ := NewImageDocument(pngBytes(t, 640, 480))
		s := NewSurface(doc, 0.5)
		w, h, ok := s.PageSize(1)
		if !ok || w != 320 || h != 240 {
			t.Errorf("PageSize = %v,%v,%v, want 320,240,true", w, h, ok)
		}
	})

	t.Run("zero scale means native", func(t *testing.T) {
		doc, _ := NewImageDocument(pngBytes(t, 640, 480))
		s := NewSurface(doc, 0)
		w, h, ok := s.PageSize(1)
		if !ok || w != 640 || h != 480 {
			t.Errorf("PageSize = %v,%v,%v, want 640,480,true", w, h, ok)
		}
	})

	t.Run("out of range page", func(t *testing.T) {
		doc, _ := NewImageDocument(pngBytes(t, 64, 48))
		s := NewSurface(doc, 1.0)
		if _, _, ok := s.PageSize(2); ok {
			t.Error("PageSize(2) should not resolve on a one-page document")
		}
		if s.Raster(0) != nil {
			t.Error("Raster(0) should be nil")
		}
	})

	t.Run("render failure degrades to no raster", func(t *testing.T) {
		s := NewSurface(failingRenderer{}, 1.0)
		if _, _, ok := s.PageSize(1); ok {
			t.Error("PageSize should report unavailable when rendering fails")
		}
		if s.Raster(1) != nil {
			t.Error("Raster should be nil when rendering fails")
		}
	})

	t.Run("concurrent access", func(t *testing.T) {
		doc, _ := NewImageDocument(pngBytes(t, 640, 480))
		s := NewSurface(doc, 1.0)

		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 50; j++ {
					s.Raster(1)
					s.PageSize(1)
				}
			}()
		}
		wg.Wait()

		if s.Raster(1) == nil {
			t.Error("Raster(1) = nil after concurrent access")
		}
	})
}

func TestIsPDF(t *testing.T) {
	if !IsPDF([]byte("%PDF-1.7\n...")) {
		t.Error("PDF magic not recognized")
	}
	if IsPDF([]byte("PNG")) {
		t.Error("non-PDF recognized as PDF")
	}
}
