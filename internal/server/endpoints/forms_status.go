package endpoints

import (
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/formfieldlabs/formfield/internal/api"
	"github.com/formfieldlabs/formfield/internal/svcctx"
)

// JobStatusResponse reports the lifecycle state of an analysis job.
type JobStatusResponse struct {
	Fingerprint string     `json:"fingerprint"`
	Analyzing   bool       `json:"analyzing"`
	State       string     `json:"state"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
}

// JobStatusEndpoint handles GET /api/forms/{fingerprint}/status.
type JobStatusEndpoint struct{}

var _ api.Endpoint = (*JobStatusEndpoint)(nil)

func (e *JobStatusEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/forms/{fingerprint}/status", e.handler
}

func (e *JobStatusEndpoint) RequiresInit() bool { return true }

func (e *JobStatusEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	fingerprint := r.PathValue("fingerprint")
	registry := svcctx.RegistryFrom(r.Context())

	resp := JobStatusResponse{Fingerprint: fingerprint, State: "none"}
	if job, ok := registry.ActiveJob(fingerprint); ok {
		resp.Analyzing = true
		resp.State = string(job.State)
		resp.StartedAt = &job.StartedAt
	} else if _, ok := registry.GetCompleted(fingerprint); ok {
		resp.State = "completed"
	} else if _, ok := registry.GetFromStore(r.Context(), fingerprint); ok {
		resp.State = "completed"
	}

	writeJSON(w, http.StatusOK, resp)
}

func (e *JobStatusEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "status <fingerprint>",
		Short: "Check the state of an analysis job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp JobStatusResponse
			path := fmt.Sprintf("/api/forms/%s/status", args[0])
			if err := client.Get(cmd.Context(), path, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}
