// Package endpoints defines the HTTP surface of the formfield server.
// Each endpoint pairs its route with a CLI command that calls it, so
// the API and the command line never drift apart.
package endpoints

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/formfieldlabs/formfield/internal/api"
)

// Config holds dependencies needed by some endpoints.
type Config struct {
	// Analyzer is probed by the readiness endpoint. It is the same
	// client the job engine dispatches through.
	Analyzer AnalyzerHealth
}

// AnalyzerHealth is the slice of the analyzer client that readiness
// checks need.
type AnalyzerHealth interface {
	Health(ctx context.Context) error
}

// All returns all endpoint instances.
func All(cfg Config) []api.Endpoint {
	return []api.Endpoint{
		// Health endpoints
		&HealthEndpoint{},
		&ReadyEndpoint{Analyzer: cfg.Analyzer},

		// Analysis job endpoints
		&AnalyzeEndpoint{},
		&JobStatusEndpoint{},
		&GetResultEndpoint{},
		&ClearResultEndpoint{},
		&ClearAllEndpoint{},

		// Field overlay endpoints
		&ListFieldsEndpoint{},
		&UpdateFieldEndpoint{},
		&DetectFieldsEndpoint{},
	}
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// ErrorResponse is a standard error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}
