// Package documents tracks the documents currently open for field
// overlay work. Each document pairs a rendered page surface with its
// own field registry, keyed by fingerprint so analysis settlements can
// find the right registry later.
package documents

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/formfieldlabs/formfield/internal/detect"
	"github.com/formfieldlabs/formfield/internal/fields"
	"github.com/formfieldlabs/formfield/internal/render"
	"github.com/formfieldlabs/formfield/internal/types"
)

// Document is one open document: its identity, page surface, and the
// registry of resolved fields laid over it.
type Document struct {
	Fingerprint string
	FileName    string
	FileSize    int64
	PageCount   int
	Surface     fields.PageSurface
	Fields      *fields.Registry
}

// Manager owns the set of open documents.
type Manager struct {
	mu          sync.RWMutex
	docs        map[string]*Document
	logger      *slog.Logger
	pointSpace  bool
	renderScale float64
}

// ManagerConfig configures a Manager.
type ManagerConfig struct {
	Logger *slog.Logger

	// PointSpace declares that the analysis backend emits PDF-point
	// boxes needing orientation resolution.
	PointSpace bool

	// RenderScale applied when rasterizing pages for sampling and
	// detection. Zero means native resolution.
	RenderScale float64
}

// NewManager creates an empty document manager.
func NewManager(cfg ManagerConfig) *Manager {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		docs:        make(map[string]*Document),
		logger:      logger.With("component", "documents"),
		pointSpace:  cfg.PointSpace,
		renderScale: cfg.RenderScale,
	}
}

// Open registers a document from its raw bytes, building the page
// surface appropriate to the format: PDFs expose point extents with no
// raster, images render natively as a single page. Opening the same
// fingerprint again returns the existing document.
func (m *Manager) Open(fingerprint, fileName string, data []byte) (*Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if doc, ok := m.docs[fingerprint]; ok {
		return doc, nil
	}

	doc := &Document{
		Fingerprint: fingerprint,
		FileName:    fileName,
		FileSize:    int64(len(data)),
	}

	switch {
	case render.IsPDF(data):
		info, err := render.ReadPDFInfo(data)
		if err != nil {
			return nil, fmt.Errorf("failed to open PDF document: %w", err)
		}
		doc.PageCount = info.PageCount
		doc.Surface = render.PDFSurface{Info: info}
	default:
		img, err := render.NewImageDocument(data)
		if err != nil {
			return nil, fmt.Errorf("unsupported document format: %w", err)
		}
		doc.PageCount = img.PageCount()
		doc.Surface = render.NewSurface(img, m.renderScale)
	}

	doc.Fields = fields.NewRegistry(fields.Config{
		Surface:    doc.Surface,
		Logger:     m.logger,
		PointSpace: m.pointSpace,
	})

	m.docs[fingerprint] = doc
	m.logger.Info("document opened",
		"fingerprint", fingerprint, "file", fileName, "pages", doc.PageCount)
	return doc, nil
}

// Get returns an open document by fingerprint.
func (m *Manager) Get(fingerprint string) (*Document, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.docs[fingerprint]
	return doc, ok
}

// ApplyResult maps raw analysis fields onto the document's registry.
// A settlement for a document that is no longer open is dropped.
func (m *Manager) ApplyResult(fingerprint string, raws []types.RawField) []fields.ResolvedField {
	doc, ok := m.Get(fingerprint)
	if !ok {
		m.logger.Debug("settlement for closed document", "fingerprint", fingerprint)
		return nil
	}
	return doc.Fields.UpsertFromAnalysis(raws)
}

// DetectFields runs the heuristic detector over one page's raster and
// registers the hits as custom fields. Pages without a readable raster
// detect nothing.
func (m *Manager) DetectFields(fingerprint string, page int) ([]fields.ResolvedField, error) {
	doc, ok := m.Get(fingerprint)
	if !ok {
		return nil, fmt.Errorf("document %s is not open", fingerprint)
	}
	raster := doc.Surface.Raster(page)
	boxes := detect.Boxes(raster)
	return doc.Fields.UpsertFromDetector(boxes, page), nil
}

// Close removes a document from the manager.
func (m *Manager) Close(fingerprint string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.docs, fingerprint)
}

// Clear drops every open document.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs = make(map[string]*Document)
}

// List returns the open documents in unspecified order.
func (m *Manager) List() []*Document {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Document, 0, len(m.docs))
	for _, doc := range m.docs {
		out = append(out, doc)
	}
	return out
}
