// Package render abstracts the rendered-page surface the geometry
// pipeline maps fields onto. Rasterization itself is pluggable: image
// documents render natively here, PDF documents report their page
// geometry via pdfcpu and leave rasterization to an external surface.
package render

import (
	"context"
	"image"
	"sync"
)

// Page is one rendered document page with readable pixel data.
type Page struct {
	Number int
	Image  *image.RGBA
	Width  int
	Height int
}

// Renderer renders document pages to pixel buffers. Render is
// asynchronous in spirit: implementations may rasterize lazily and
// must respect ctx.
type Renderer interface {
	PageCount() int
	// Render rasterizes a 1-based page at the given scale (1.0 =
	// native resolution).
	Render(ctx context.Context, page int, scale float64) (*Page, error)
}

// Surface adapts a Renderer to the field registry's view of a
// document: page extents for normalization and an optional raster for
// luminance sampling. Rendered pages are memoized; a render failure
// degrades to "no raster" rather than failing field resolution.
// Safe for concurrent use.
type Surface struct {
	renderer Renderer
	scale    float64

	mu    sync.Mutex
	pages map[int]*Page
}

// NewSurface wraps a renderer. Pages render at the given scale; zero or
// negative means native resolution.
func NewSurface(r Renderer, scale float64) *Surface {
	if scale <= 0 {
		scale = 1.0
	}
	return &Surface{renderer: r, scale: scale, pages: make(map[int]*Page)}
}

// PageSize reports a page's native pixel extent.
func (s *Surface) PageSize(page int) (float64, float64, bool) {
	p := s.page(page)
	if p == nil {
		return 0, 0, false
	}
	return float64(p.Width), float64(p.Height), true
}

// Raster returns a page's pixel data, or nil when unavailable.
func (s *Surface) Raster(page int) image.Image {
	p := s.page(page)
	if p == nil || p.Image == nil {
		return nil
	}
	return p.Image
}

func (s *Surface) page(page int) *Page {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p, ok := s.pages[page]; ok {
		return p
	}
	if s.renderer == nil || page < 1 || page > s.renderer.PageCount() {
		return nil
	}
	p, err := s.renderer.Render(context.Background(), page, s.scale)
	if err != nil {
		// Cache the miss; orientation falls back to always-flip.
		s.pages[page] = nil
		return nil
	}
	s.pages[page] = p
	return p
}
