package render

import (
	"bytes"
	"fmt"
	"image"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// PDFInfo describes the page geometry of a PDF document: page count
// and per-page media box extents in PDF points. Used for fingerprint
// metadata and as the page extents when no raster surface exists.
type PDFInfo struct {
	PageCount int
	// Dims holds per-page width/height in points, 0-indexed.
	Dims []PageDim
}

// PageDim is one page's extent in PDF points.
type PageDim struct {
	Width  float64
	Height float64
}

// ReadPDFInfo inspects PDF bytes without rasterizing them. Validation
// is relaxed: scanned legal forms are frequently produced by sloppy
// generators.
func ReadPDFInfo(data []byte) (*PDFInfo, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	rs := bytes.NewReader(data)
	count, err := api.PageCount(rs, conf)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF page count: %w", err)
	}

	if _, err := rs.Seek(0, 0); err != nil {
		return nil, err
	}
	dims, err := api.PageDims(rs, conf)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF page dimensions: %w", err)
	}

	info := &PDFInfo{PageCount: count, Dims: make([]PageDim, 0, len(dims))}
	for _, d := range dims {
		info.Dims = append(info.Dims, PageDim{Width: d.Width, Height: d.Height})
	}
	return info, nil
}

// PageSize returns the extent of a 1-based page.
func (i *PDFInfo) PageSize(page int) (float64, float64, bool) {
	if page < 1 || page > len(i.Dims) {
		return 0, 0, false
	}
	d := i.Dims[page-1]
	return d.Width, d.Height, true
}

// IsPDF sniffs the %PDF- magic.
func IsPDF(data []byte) bool {
	return len(data) >= 5 && bytes.Equal(data[:5], []byte("%PDF-"))
}

// PDFSurface adapts PDFInfo to a page surface with no readable raster;
// geometry mapping uses point extents and orientation falls back to
// always flipping.
type PDFSurface struct {
	Info *PDFInfo
}

func (s PDFSurface) PageSize(page int) (float64, float64, bool) {
	return s.Info.PageSize(page)
}

func (s PDFSurface) Raster(page int) image.Image { return nil }
