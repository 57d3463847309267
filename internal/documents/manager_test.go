package documents

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"

	"github.com/formfieldlabs/formfield/internal/types"
)

func formImage(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 1000, 1400))
	gray := color.RGBA{R: 120, G: 120, B: 120, A: 255}
	for y := 0; y < 1400; y++ {
		for x := 0; x < 1000; x++ {
			img.Set(x, y, gray)
		}
	}
	// One pale input-looking rectangle.
	for y := 200; y < 240; y++ {
		for x := 100; x < 400; x++ {
			img.Set(x, y, color.RGBA{R: 250, G: 240, B: 150, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestOpen(t *testing.T) {
	m := NewManager(ManagerConfig{})

	doc, err := m.Open("fp-1", "form.png", formImage(t))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if doc.PageCount != 1 {
		t.Errorf("PageCount = %d, want 1", doc.PageCount)
	}
	if w, h, ok := doc.Surface.PageSize(1); !ok || w != 1000 || h != 1400 {
		t.Errorf("PageSize = %v,%v,%v", w, h, ok)
	}

	t.Run("idempotent", func(t *testing.T) {
		again, err := m.Open("fp-1", "form.png", formImage(t))
		if err != nil {
			t.Fatal(err)
		}
		if again != doc {
			t.Error("reopening a fingerprint should return the same document")
		}
	})

	t.Run("rejects junk", func(t *testing.T) {
		if _, err := m.Open("fp-2", "junk.bin", []byte("not a document")); err == nil {
			t.Error("expected error for unsupported bytes")
		}
	})
}

func TestApplyResult(t *testing.T) {
	m := NewManager(ManagerConfig{})
	if _, err := m.Open("fp-1", "form.png", formImage(t)); err != nil {
		t.Fatal(err)
	}

	resolved := m.ApplyResult("fp-1", []types.RawField{
		{ID: "tenant_name", Label: "Tenant name", Bbox: json.RawMessage(`[0.1,0.1,0.3,0.05]`), Page: 1},
	})
	if len(resolved) != 1 {
		t.Fatalf("resolved %d fields, want 1", len(resolved))
	}
	if resolved[0].Box.X != 100 || resolved[0].Box.Y != 140 {
		t.Errorf("box = %+v", resolved[0].Box)
	}

	t.Run("closed document drops settlement", func(t *testing.T) {
		if got := m.ApplyResult("unknown", nil); got != nil {
			t.Errorf("expected nil for unknown fingerprint, got %v", got)
		}
	})
}

func TestDetectFields(t *testing.T) {
	m := NewManager(ManagerConfig{})
	if _, err := m.Open("fp-1", "form.png", formImage(t)); err != nil {
		t.Fatal(err)
	}

	found, err := m.DetectFields("fp-1", 1)
	if err != nil {
		t.Fatalf("DetectFields() error = %v", err)
	}
	if len(found) != 1 {
		t.Fatalf("detected %d fields, want 1", len(found))
	}
	if found[0].Provenance != "detected" {
		t.Errorf("provenance = %s", found[0].Provenance)
	}

	t.Run("unknown document", func(t *testing.T) {
		if _, err := m.DetectFields("unknown", 1); err == nil {
			t.Error("expected error for unknown fingerprint")
		}
	})
}

// Detection and settlement can hit the same document's surface from
// different goroutines; the first render must not race.
func TestDetectFields_Concurrent(t *testing.T) {
	m := NewManager(ManagerConfig{})
	if _, err := m.Open("fp-1", "form.png", formImage(t)); err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := m.DetectFields("fp-1", 1); err != nil {
				t.Errorf("DetectFields() error = %v", err)
			}
			m.ApplyResult("fp-1", []types.RawField{
				{ID: "tenant_name", Bbox: json.RawMessage(`[0.1,0.1,0.3,0.05]`), Page: 1},
			})
		}()
	}
	wg.Wait()
}

func TestOpen_RenderScale(t *testing.T) {
	m := NewManager(ManagerConfig{RenderScale: 0.5})
	doc, err := m.Open("fp-1", "form.png", formImage(t))
	if err != nil {
		t.Fatal(err)
	}
	if w, h, ok := doc.Surface.PageSize(1); !ok || w != 500 || h != 700 {
		t.Errorf("PageSize = %v,%v,%v, want 500,700,true", w, h, ok)
	}
}

func TestCloseAndClear(t *testing.T) {
	m := NewManager(ManagerConfig{})
	m.Open("fp-1", "a.png", formImage(t))
	m.Open("fp-2", "b.png", formImage(t))

	m.Close("fp-1")
	if _, ok := m.Get("fp-1"); ok {
		t.Error("fp-1 still open after Close")
	}
	if len(m.List()) != 1 {
		t.Errorf("List() = %d docs, want 1", len(m.List()))
	}

	m.Clear()
	if len(m.List()) != 0 {
		t.Error("documents remain after Clear")
	}
}
