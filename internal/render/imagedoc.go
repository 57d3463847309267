package render

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"
)

// ImageDocument treats a single raster image (scanned form, photo of a
// form) as a one-page document.
type ImageDocument struct {
	src image.Image
}

// NewImageDocument decodes PNG or JPEG bytes into a renderable
// document.
func NewImageDocument(data []byte) (*ImageDocument, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image document: %w", err)
	}
	return &ImageDocument{src: src}, nil
}

// PageCount is always 1 for an image document.
func (d *ImageDocument) PageCount() int { return 1 }

// Render rasterizes the image at the requested scale.
func (d *ImageDocument) Render(ctx context.Context, page int, scale float64) (*Page, error) {
	if page != 1 {
		return nil, fmt.Errorf("image document has no page %d", page)
	}
	if scale <= 0 {
		scale = 1.0
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	srcBounds := d.src.Bounds()
	w := int(float64(srcBounds.Dx()) * scale)
	h := int(float64(srcBounds.Dy()) * scale)
	if w < 1 || h < 1 {
		return nil, fmt.Errorf("scale %v renders page to zero size", scale)
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	if scale == 1.0 {
		draw.Draw(dst, dst.Bounds(), d.src, srcBounds.Min, draw.Src)
	} else {
		draw.BiLinear.Scale(dst, dst.Bounds(), d.src, srcBounds, draw.Src, nil)
	}
	return &Page{Number: 1, Image: dst, Width: w, Height: h}, nil
}
