package endpoints

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/formfieldlabs/formfield/internal/analysis"
	"github.com/formfieldlabs/formfield/internal/api"
	"github.com/formfieldlabs/formfield/internal/svcctx"
)

// ClearResponse acknowledges a cache clear.
type ClearResponse struct {
	Fingerprint string `json:"fingerprint,omitempty"`
	Cleared     bool   `json:"cleared"`
}

// ClearResultEndpoint handles DELETE /api/forms/{fingerprint}. An
// in-flight job cannot be cleared; it returns 409 and the caller waits
// for settlement.
type ClearResultEndpoint struct{}

var _ api.Endpoint = (*ClearResultEndpoint)(nil)

func (e *ClearResultEndpoint) Route() (string, string, http.HandlerFunc) {
	return "DELETE", "/api/forms/{fingerprint}", e.handler
}

func (e *ClearResultEndpoint) RequiresInit() bool { return true }

func (e *ClearResultEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	fingerprint := r.PathValue("fingerprint")
	registry := svcctx.RegistryFrom(r.Context())

	if err := registry.Clear(r.Context(), fingerprint); err != nil {
		if errors.Is(err, analysis.ErrJobInFlight) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to clear result: %v", err))
		return
	}

	if docs := svcctx.DocumentsFrom(r.Context()); docs != nil {
		docs.Close(fingerprint)
	}

	writeJSON(w, http.StatusOK, ClearResponse{Fingerprint: fingerprint, Cleared: true})
}

func (e *ClearResultEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "clear <fingerprint>",
		Short: "Clear a settled analysis result from every cache tier",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			if err := client.Delete(cmd.Context(), "/api/forms/"+args[0]); err != nil {
				return err
			}
			fmt.Printf("Cleared %s\n", args[0])
			return nil
		},
	}
}

// ClearAllEndpoint handles DELETE /api/forms. In-flight jobs still
// settle afterwards and re-populate the cache.
type ClearAllEndpoint struct{}

var _ api.Endpoint = (*ClearAllEndpoint)(nil)

func (e *ClearAllEndpoint) Route() (string, string, http.HandlerFunc) {
	return "DELETE", "/api/forms", e.handler
}

func (e *ClearAllEndpoint) RequiresInit() bool { return true }

func (e *ClearAllEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	registry := svcctx.RegistryFrom(r.Context())
	if err := registry.ClearAll(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to clear results: %v", err))
		return
	}
	if docs := svcctx.DocumentsFrom(r.Context()); docs != nil {
		docs.Clear()
	}
	writeJSON(w, http.StatusOK, ClearResponse{Cleared: true})
}

func (e *ClearAllEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "clear-all",
		Short: "Clear all settled analysis results",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			if err := client.Delete(cmd.Context(), "/api/forms"); err != nil {
				return err
			}
			fmt.Println("Cleared all results")
			return nil
		},
	}
}
