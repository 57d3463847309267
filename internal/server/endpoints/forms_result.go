package endpoints

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/formfieldlabs/formfield/internal/analysis"
	"github.com/formfieldlabs/formfield/internal/api"
	"github.com/formfieldlabs/formfield/internal/svcctx"
)

// GetResultEndpoint handles GET /api/forms/{fingerprint}/result. The
// in-memory cache is consulted before the durable store, so a result
// survives a server restart but fresh settlements are served without a
// database read.
type GetResultEndpoint struct{}

var _ api.Endpoint = (*GetResultEndpoint)(nil)

func (e *GetResultEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/forms/{fingerprint}/result", e.handler
}

func (e *GetResultEndpoint) RequiresInit() bool { return true }

func (e *GetResultEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	fingerprint := r.PathValue("fingerprint")
	registry := svcctx.RegistryFrom(r.Context())

	if res, ok := registry.GetCompleted(fingerprint); ok {
		writeJSON(w, http.StatusOK, analysis.StoredResult{Fingerprint: fingerprint, Result: res})
		return
	}
	if rec, ok := registry.GetFromStore(r.Context(), fingerprint); ok {
		writeJSON(w, http.StatusOK, rec)
		return
	}
	writeError(w, http.StatusNotFound, fmt.Sprintf("no analysis result for %s", fingerprint))
}

func (e *GetResultEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "result <fingerprint>",
		Short: "Fetch a settled analysis result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp analysis.StoredResult
			path := fmt.Sprintf("/api/forms/%s/result", args[0])
			if err := client.Get(cmd.Context(), path, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}
