// Package fields owns the per-document list of resolved form fields
// and maps raw analysis output onto rendered page surfaces.
package fields

import (
	"fmt"
	"image"
	"log/slog"
	"math"
	"sync"

	"github.com/google/uuid"

	"github.com/formfieldlabs/formfield/internal/detect"
	"github.com/formfieldlabs/formfield/internal/geometry"
	"github.com/formfieldlabs/formfield/internal/orientation"
	"github.com/formfieldlabs/formfield/internal/types"
)

// Space identifies the coordinate space a field's bbox was declared in.
// Retained so the field can be re-normalized if the page is re-rendered
// at a different scale.
type Space string

const (
	SpaceFraction Space = "fraction"
	SpacePoints   Space = "pdf-points"
	SpacePixels   Space = "pixels"
)

// Provenance records where a field's geometry came from. The only
// transitions are service→user-edited and detected→user-edited.
type Provenance string

const (
	ProvenanceService  Provenance = "service"
	ProvenanceDetected Provenance = "detected"
	ProvenanceUser     Provenance = "user-edited"
)

// ResolvedField is a field ready for overlay rendering: canonical pixel
// geometry on a specific page of the rendered document.
type ResolvedField struct {
	ID          string        `json:"id"`
	Label       string        `json:"label,omitempty"`
	Page        int           `json:"page"`
	Box         geometry.Rect `json:"bbox"`
	SourceSpace Space         `json:"source_space"`
	Provenance  Provenance    `json:"provenance"`
	Suggestions []string      `json:"suggestions,omitempty"`
}

// PageSurface describes the rendered document the registry maps fields
// onto. Raster may return nil when pixel readback is unavailable; the
// orientation heuristic then falls back to always flipping.
type PageSurface interface {
	PageSize(page int) (w, h float64, ok bool)
	Raster(page int) image.Image
}

// Default page extents when the surface cannot report a size, matching
// the fallback geometry used for placeholder rows.
const (
	defaultPageW = 1000
	defaultPageH = 1400
	minPageW     = 800
	minPageH     = 1000
)

// Config configures a Registry.
type Config struct {
	Surface PageSurface
	Logger  *slog.Logger

	// PointSpace declares that non-fraction boxes from the analysis
	// service are PDF points (bottom-left origin) and need orientation
	// resolution. Leave false for backends that emit raster pixels.
	PointSpace bool
}

// Registry holds the resolved fields of one open document. All fields
// share a single list; page scoping happens at query time.
type Registry struct {
	mu      sync.RWMutex
	surface PageSurface
	logger  *slog.Logger
	points  bool
	fields  []ResolvedField
	index   map[string]int
}

// NewRegistry creates an empty registry for one document.
func NewRegistry(cfg Config) *Registry {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		surface: cfg.Surface,
		logger:  logger.With("component", "fields"),
		points:  cfg.PointSpace,
		index:   make(map[string]int),
	}
}

// UpsertFromAnalysis resolves raw service fields into overlay geometry.
// Fields with unparseable or all-zero geometry get evenly spaced
// placeholder rows instead of being dropped, so the UI always has an
// anchor for every value. A malformed field never fails the batch.
// User-edited boxes are never overwritten; only label and suggestions
// refresh for those ids.
func (reg *Registry) UpsertFromAnalysis(raws []types.RawField) []ResolvedField {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	total := len(raws)
	out := make([]ResolvedField, 0, total)
	for i, raw := range raws {
		f := reg.resolveOne(raw, i, total)

		if idx, ok := reg.index[f.ID]; ok {
			existing := &reg.fields[idx]
			existing.Label = f.Label
			existing.Suggestions = f.Suggestions
			if existing.Provenance != ProvenanceUser {
				existing.Page = f.Page
				existing.Box = f.Box
				existing.SourceSpace = f.SourceSpace
			}
			out = append(out, *existing)
			continue
		}
		reg.index[f.ID] = len(reg.fields)
		reg.fields = append(reg.fields, f)
		out = append(out, f)
	}
	return out
}

func (reg *Registry) resolveOne(raw types.RawField, idx, total int) ResolvedField {
	page := raw.Page
	if page < 1 {
		page = 1
	}
	pageW, pageH := reg.pageExtents(page)

	f := ResolvedField{
		ID:          raw.ID,
		Label:       raw.Label,
		Page:        page,
		SourceSpace: SpacePixels,
		Provenance:  ProvenanceService,
		Suggestions: raw.Suggestions,
	}
	if f.ID == "" {
		f.ID = fmt.Sprintf("field-%s", uuid.NewString()[:8])
	}

	r, ok := geometry.Parse(raw.Bbox, pageW, pageH)
	switch {
	case !ok, r == (geometry.Rect{}):
		// Unrecognized shape or an all-zero box: synthesize a
		// placeholder row rather than dropping the field.
		f.Box = fallbackRect(idx, total, pageW, pageH).ClampToPage(pageW, pageH)
		reg.logger.Debug("synthesized placeholder box", "field", f.ID, "page", page)
	case geometry.LooksNormalizedFraction(r):
		f.SourceSpace = SpaceFraction
		f.Box = r.Scale(pageW, pageH).ClampToPage(pageW, pageH)
	case reg.points:
		f.SourceSpace = SpacePoints
		res := &orientation.Resolver{Raster: reg.raster(page)}
		f.Box = res.Resolve(r, pageW, pageH)
	default:
		f.Box = r.ClampToPage(pageW, pageH)
	}
	return f
}

// UpsertFromDetector registers heuristically detected boxes as
// unlabeled custom fields on the given page.
func (reg *Registry) UpsertFromDetector(boxes []detect.Box, page int) []ResolvedField {
	if page < 1 {
		page = 1
	}
	reg.mu.Lock()
	defer reg.mu.Unlock()

	pageW, pageH := reg.pageExtents(page)
	out := make([]ResolvedField, 0, len(boxes))
	for _, b := range boxes {
		f := ResolvedField{
			ID:          fmt.Sprintf("custom-%s", uuid.NewString()[:8]),
			Label:       "Custom field",
			Page:        page,
			Box:         b.Rect.ClampToPage(pageW, pageH),
			SourceSpace: SpacePixels,
			Provenance:  ProvenanceDetected,
		}
		reg.index[f.ID] = len(reg.fields)
		reg.fields = append(reg.fields, f)
		out = append(out, f)
	}
	return out
}

// UpdateBox applies a user-authored override to a field's geometry.
// The field is promoted to user-edited provenance, shielding it from
// later re-analysis. An unknown id becomes a new custom field, which
// is how manual box drawing creates fields. Concurrent edits are
// last-write-wins per id.
func (reg *Registry) UpdateBox(fieldID string, box geometry.Rect, page int) ResolvedField {
	if page < 1 {
		page = 1
	}
	reg.mu.Lock()
	defer reg.mu.Unlock()

	pageW, pageH := reg.pageExtents(page)
	clamped := box.ClampToPage(pageW, pageH)

	if idx, ok := reg.index[fieldID]; ok {
		f := &reg.fields[idx]
		f.Box = clamped
		f.Page = page
		f.SourceSpace = SpacePixels
		f.Provenance = ProvenanceUser
		return *f
	}

	f := ResolvedField{
		ID:          fieldID,
		Label:       "Custom field",
		Page:        page,
		Box:         clamped,
		SourceSpace: SpacePixels,
		Provenance:  ProvenanceUser,
	}
	reg.index[f.ID] = len(reg.fields)
	reg.fields = append(reg.fields, f)
	return f
}

// FieldsForPage returns the fields belonging to one page. A field is
// never reported for a page other than its own, even though all pages
// share the underlying list.
func (reg *Registry) FieldsForPage(page int) []ResolvedField {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	var out []ResolvedField
	for _, f := range reg.fields {
		if f.Page == page {
			out = append(out, f)
		}
	}
	return out
}

// Fields returns a copy of all resolved fields in insertion order.
func (reg *Registry) Fields() []ResolvedField {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	out := make([]ResolvedField, len(reg.fields))
	copy(out, reg.fields)
	return out
}

// Get returns a field by id.
func (reg *Registry) Get(fieldID string) (ResolvedField, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	idx, ok := reg.index[fieldID]
	if !ok {
		return ResolvedField{}, false
	}
	return reg.fields[idx], true
}

func (reg *Registry) pageExtents(page int) (float64, float64) {
	if reg.surface != nil {
		if w, h, ok := reg.surface.PageSize(page); ok && w > 0 && h > 0 {
			return w, h
		}
	}
	return defaultPageW, defaultPageH
}

func (reg *Registry) raster(page int) image.Image {
	if reg.surface == nil {
		return nil
	}
	return reg.surface.Raster(page)
}

// fallbackRect lays placeholder rows down the page with a fixed margin
// so unparseable fields still render somewhere sensible.
func fallbackRect(idx, total int, pageW, pageH float64) geometry.Rect {
	pageW = math.Max(minPageW, pageW)
	pageH = math.Max(minPageH, pageH)
	const margin = 40
	availH := pageH - margin*2
	if total < 1 {
		total = 1
	}
	itemH := math.Max(24, math.Floor(availH/float64(total))-8)
	return geometry.Rect{
		X: margin,
		Y: margin + float64(idx)*(itemH+8),
		W: pageW - margin*2,
		H: itemH,
	}
}
