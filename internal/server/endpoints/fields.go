package endpoints

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/formfieldlabs/formfield/internal/api"
	"github.com/formfieldlabs/formfield/internal/fields"
	"github.com/formfieldlabs/formfield/internal/geometry"
	"github.com/formfieldlabs/formfield/internal/svcctx"
)

// FieldsResponse lists resolved fields for one page of a document.
type FieldsResponse struct {
	Fingerprint string                 `json:"fingerprint"`
	Page        int                    `json:"page"`
	Fields      []fields.ResolvedField `json:"fields"`
}

// ListFieldsEndpoint handles GET /api/forms/{fingerprint}/pages/{page}/fields.
type ListFieldsEndpoint struct{}

var _ api.Endpoint = (*ListFieldsEndpoint)(nil)

func (e *ListFieldsEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/forms/{fingerprint}/pages/{page}/fields", e.handler
}

func (e *ListFieldsEndpoint) RequiresInit() bool { return true }

func (e *ListFieldsEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	fingerprint := r.PathValue("fingerprint")
	page, err := strconv.Atoi(r.PathValue("page"))
	if err != nil || page < 1 {
		writeError(w, http.StatusBadRequest, "page must be a positive integer")
		return
	}

	docs := svcctx.DocumentsFrom(r.Context())
	doc, ok := docs.Get(fingerprint)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("document %s is not open", fingerprint))
		return
	}

	resp := FieldsResponse{
		Fingerprint: fingerprint,
		Page:        page,
		Fields:      doc.Fields.FieldsForPage(page),
	}
	if resp.Fields == nil {
		resp.Fields = []fields.ResolvedField{}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (e *ListFieldsEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "fields <fingerprint> <page>",
		Short: "List resolved fields on one page of a document",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp FieldsResponse
			path := fmt.Sprintf("/api/forms/%s/pages/%s/fields", args[0], args[1])
			if err := client.Get(cmd.Context(), path, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// UpdateFieldRequest carries a user-authored box override.
type UpdateFieldRequest struct {
	Page int           `json:"page"`
	Bbox geometry.Rect `json:"bbox"`
}

// UpdateFieldEndpoint handles PATCH /api/forms/{fingerprint}/fields/{id}.
// Unknown ids create new custom fields, which is how manual box drawing
// works.
type UpdateFieldEndpoint struct{}

var _ api.Endpoint = (*UpdateFieldEndpoint)(nil)

func (e *UpdateFieldEndpoint) Route() (string, string, http.HandlerFunc) {
	return "PATCH", "/api/forms/{fingerprint}/fields/{id}", e.handler
}

func (e *UpdateFieldEndpoint) RequiresInit() bool { return true }

func (e *UpdateFieldEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	fingerprint := r.PathValue("fingerprint")
	fieldID := r.PathValue("id")

	var req UpdateFieldRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	docs := svcctx.DocumentsFrom(r.Context())
	doc, ok := docs.Get(fingerprint)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("document %s is not open", fingerprint))
		return
	}

	updated := doc.Fields.UpdateBox(fieldID, req.Bbox, req.Page)
	writeJSON(w, http.StatusOK, updated)
}

func (e *UpdateFieldEndpoint) Command(_ func() string) *cobra.Command {
	// Box edits come from the overlay UI, not the command line.
	return nil
}

// DetectFieldsEndpoint handles POST /api/forms/{fingerprint}/pages/{page}/detect,
// running the heuristic detector over the page raster.
type DetectFieldsEndpoint struct{}

var _ api.Endpoint = (*DetectFieldsEndpoint)(nil)

func (e *DetectFieldsEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/forms/{fingerprint}/pages/{page}/detect", e.handler
}

func (e *DetectFieldsEndpoint) RequiresInit() bool { return true }

func (e *DetectFieldsEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	fingerprint := r.PathValue("fingerprint")
	page, err := strconv.Atoi(r.PathValue("page"))
	if err != nil || page < 1 {
		writeError(w, http.StatusBadRequest, "page must be a positive integer")
		return
	}

	docs := svcctx.DocumentsFrom(r.Context())
	found, err := docs.DetectFields(fingerprint, page)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if found == nil {
		found = []fields.ResolvedField{}
	}

	writeJSON(w, http.StatusOK, FieldsResponse{
		Fingerprint: fingerprint,
		Page:        page,
		Fields:      found,
	})
}

func (e *DetectFieldsEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "detect <fingerprint> <page>",
		Short: "Run heuristic field detection on one page",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp FieldsResponse
			path := fmt.Sprintf("/api/forms/%s/pages/%s/detect", args[0], args[1])
			if err := client.Post(cmd.Context(), path, nil, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}
