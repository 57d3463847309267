package analysis

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHTTPAnalyzerAnalyze(t *testing.T) {
	t.Run("posts multipart and decodes fields", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost || r.URL.Path != "/api/forms/analyze" {
				t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			}
			if err := r.ParseMultipartForm(1 << 20); err != nil {
				t.Fatalf("ParseMultipartForm() error = %v", err)
			}
			if got := r.FormValue("output_language"); got != "en" {
				t.Errorf("output_language = %q, want en", got)
			}
			file, header, err := r.FormFile("file")
			if err != nil {
				t.Fatalf("FormFile() error = %v", err)
			}
			file.Close()
			if header.Filename != "lease.pdf" {
				t.Errorf("filename = %q, want lease.pdf", header.Filename)
			}
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"fields": [{"id": "f1", "bbox": [0.1, 0.1, 0.2, 0.05], "page": 1}]}`))
		}))
		defer srv.Close()

		a, err := NewHTTPAnalyzer(srv.URL, nil)
		if err != nil {
			t.Fatalf("NewHTTPAnalyzer() error = %v", err)
		}
		fields, err := a.Analyze(context.Background(), Request{
			FileName: "lease.pdf",
			Language: "en",
			Content:  []byte("%PDF-1.4"),
		})
		if err != nil {
			t.Fatalf("Analyze() error = %v", err)
		}
		if len(fields) != 1 || fields[0].ID != "f1" || fields[0].Page != 1 {
			t.Errorf("fields = %+v", fields)
		}
	})

	t.Run("surfaces service error message", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			w.Write([]byte(`{"message": "model overloaded"}`))
		}))
		defer srv.Close()

		a, _ := NewHTTPAnalyzer(srv.URL, nil)
		_, err := a.Analyze(context.Background(), Request{FileName: "x.pdf"})
		if err == nil || !strings.Contains(err.Error(), "model overloaded") {
			t.Errorf("Analyze() error = %v, want service message", err)
		}
	})

	t.Run("rejects response without fields", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"results": []}`))
		}))
		defer srv.Close()

		a, _ := NewHTTPAnalyzer(srv.URL, nil)
		if _, err := a.Analyze(context.Background(), Request{FileName: "x.pdf"}); err == nil {
			t.Error("expected validation error for missing fields key")
		}
	})
}

func TestHTTPAnalyzerHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	a, _ := NewHTTPAnalyzer(srv.URL, nil)
	if err := a.Health(context.Background()); err != nil {
		t.Errorf("Health() error = %v", err)
	}
}
