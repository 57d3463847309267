package endpoints

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/formfieldlabs/formfield/internal/analysis"
	"github.com/formfieldlabs/formfield/internal/api"
	"github.com/formfieldlabs/formfield/internal/svcctx"
)

// AnalyzeResponse acknowledges an analysis submission. The job settles
// asynchronously; poll the status endpoint or fetch the result once
// completed.
type AnalyzeResponse struct {
	Fingerprint string `json:"fingerprint"`
	Status      string `json:"status"`
	PageCount   int    `json:"page_count,omitempty"`
}

// AnalyzeEndpoint handles POST /api/forms/analyze with a multipart
// document upload.
type AnalyzeEndpoint struct{}

var _ api.Endpoint = (*AnalyzeEndpoint)(nil)

func (e *AnalyzeEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/forms/analyze", e.handler
}

func (e *AnalyzeEndpoint) RequiresInit() bool { return true }

func (e *AnalyzeEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	const maxMemory = 100 << 20 // 100MB
	if err := r.ParseMultipartForm(maxMemory); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("failed to parse form: %v", err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "no file uploaded")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to read upload: %v", err))
		return
	}

	registry := svcctx.RegistryFrom(r.Context())
	docs := svcctx.DocumentsFrom(r.Context())
	logger := svcctx.LoggerFrom(r.Context())

	language := r.FormValue("language")
	if language == "" {
		if cfgMgr := svcctx.ConfigFrom(r.Context()); cfgMgr != nil {
			language = cfgMgr.Get().Analyzer.DefaultLanguage
		}
	}

	fingerprint := r.FormValue("fingerprint")
	if fingerprint == "" {
		fingerprint = analysis.Fingerprint(header.Filename, header.Size)
	}

	doc, err := docs.Open(fingerprint, header.Filename, data)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unsupported document: %v", err))
		return
	}

	// Keep the original bytes for later re-analysis or audit. A write
	// failure is not fatal to the job.
	if homeDir := svcctx.HomeFrom(r.Context()); homeDir != nil {
		if err := homeDir.EnsureDocumentDir(fingerprint); err == nil {
			path := homeDir.DocumentPath(fingerprint, header.Filename)
			if err := os.WriteFile(path, data, 0o644); err != nil && logger != nil {
				logger.Warn("failed to save uploaded document", "path", path, "error", err)
			}
		}
	}

	_, isNew := registry.StartAnalysis(analysis.Request{
		Fingerprint: fingerprint,
		FileName:    header.Filename,
		FileSize:    header.Size,
		Language:    language,
		Content:     data,
	})

	status := "started"
	if !isNew {
		if registry.IsAnalyzing(fingerprint) {
			status = "in_flight"
		} else {
			status = "cached"
		}
	}

	writeJSON(w, http.StatusAccepted, AnalyzeResponse{
		Fingerprint: fingerprint,
		Status:      status,
		PageCount:   doc.PageCount,
	})
}

func (e *AnalyzeEndpoint) Command(getServerURL func() string) *cobra.Command {
	var language, fingerprint string
	cmd := &cobra.Command{
		Use:   "analyze <file>",
		Short: "Upload a form document for field analysis",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open %s: %w", args[0], err)
			}
			defer f.Close()

			fields := map[string]string{}
			if language != "" {
				fields["language"] = language
			}
			if fingerprint != "" {
				fields["fingerprint"] = fingerprint
			}

			client := api.NewClient(getServerURL())
			var resp AnalyzeResponse
			if err := client.PostFile(cmd.Context(), "/api/forms/analyze",
				filepath.Base(args[0]), f, fields, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().StringVar(&language, "language", "", "Output language for field labels and suggestions")
	cmd.Flags().StringVar(&fingerprint, "fingerprint", "", "Explicit job fingerprint (defaults to one derived from the file)")
	return cmd
}
