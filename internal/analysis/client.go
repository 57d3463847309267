package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/formfieldlabs/formfield/internal/types"
)

// responseSchema is the minimal contract the upstream analysis service
// must satisfy. Everything beyond the field list (bbox shape, page
// keys) is deliberately loose; the geometry layer sorts that out.
const responseSchema = `{
	"type": "object",
	"required": ["fields"],
	"properties": {
		"fields": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["id"]
			}
		}
	}
}`

// HTTPAnalyzer dispatches analysis requests to the upstream form
// analysis service. The client has no timeout: analysis latency is
// unbounded and the job engine, not the transport, owns lifetime.
type HTTPAnalyzer struct {
	baseURL    string
	httpClient *http.Client
	schema     *jsonschema.Schema
	logger     *slog.Logger
}

// NewHTTPAnalyzer creates an analyzer client for the given base URL.
func NewHTTPAnalyzer(baseURL string, logger *slog.Logger) (*HTTPAnalyzer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("analysis-response.json", strings.NewReader(responseSchema)); err != nil {
		return nil, fmt.Errorf("failed to add response schema: %w", err)
	}
	schema, err := compiler.Compile("analysis-response.json")
	if err != nil {
		return nil, fmt.Errorf("failed to compile response schema: %w", err)
	}
	return &HTTPAnalyzer{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{}, // no Timeout by design
		schema:     schema,
		logger:     logger.With("component", "analyzer-client"),
	}, nil
}

// Analyze posts the document and requested output language to the
// analysis service and returns the raw field list.
func (a *HTTPAnalyzer) Analyze(ctx context.Context, req Request) ([]types.RawField, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", req.FileName)
	if err != nil {
		return nil, fmt.Errorf("failed to create multipart file: %w", err)
	}
	if _, err := fw.Write(req.Content); err != nil {
		return nil, fmt.Errorf("failed to write multipart file: %w", err)
	}
	if err := mw.WriteField("output_language", req.Language); err != nil {
		return nil, fmt.Errorf("failed to write language field: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/api/forms/analyze", &body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := a.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("analysis request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read analysis response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("analysis service returned %d: %s", resp.StatusCode, serviceError(data))
	}

	var generic any
	if err := json.Unmarshal(data, &generic); err != nil {
		return nil, fmt.Errorf("analysis response is not valid JSON: %w", err)
	}
	if err := a.schema.Validate(generic); err != nil {
		return nil, fmt.Errorf("analysis response failed validation: %w", err)
	}

	var parsed types.AnalysisResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode analysis response: %w", err)
	}
	return parsed.Fields, nil
}

// Health probes the analysis service. Used at server start to fail
// fast on misconfiguration.
func (a *HTTPAnalyzer) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("failed to create health request: %w", err)
	}
	resp, err := a.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("analyzer health check failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("analyzer health check returned %d", resp.StatusCode)
	}
	return nil
}

// serviceError extracts the structured error message the service puts
// in message or error, falling back to a generic string.
func serviceError(data []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(data, &payload); err == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error != "" {
			return payload.Error
		}
	}
	return "failed to analyze form"
}
