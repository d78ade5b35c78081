package server

import (
	"net/http"

	"github.com/wizbi/wizbi/internal/api"
)

// handleCreateOrganization handles POST /api/v1/organizations.
func (r *Router) handleCreateOrganization(w http.ResponseWriter, req *http.Request) {
	var createReq api.CreateOrganizationRequest
	if err := decodeRequestBody(w, req, &createReq); err != nil {
		return
	}

	org, err := r.svc.CreateOrganization(req.Context(), createReq)
	if err != nil {
		r.handleAndLogError(w, req, err, "create organization")
		return
	}

	writeJSONResponse(w, http.StatusCreated, org)
}

// handleListOrganizations handles GET /api/v1/organizations.
func (r *Router) handleListOrganizations(w http.ResponseWriter, req *http.Request) {
	orgs, err := r.svc.ListOrganizations(req.Context())
	if err != nil {
		r.handleAndLogError(w, req, err, "list organizations")
		return
	}

	writeJSONResponse(w, http.StatusOK, api.ListOrganizationsResponse{Organizations: orgs})
}

// handleGetOrganization handles GET /api/v1/organizations/{id}.
func (r *Router) handleGetOrganization(w http.ResponseWriter, req *http.Request) {
	orgID, ok := getRequiredURLParam(w, req, "id")
	if !ok {
		return
	}

	org, err := r.svc.GetOrganization(req.Context(), orgID)
	if err != nil {
		r.handleAndLogError(w, req, err, "get organization")
		return
	}

	writeJSONResponse(w, http.StatusOK, org)
}

// handleDeleteOrganization handles DELETE /api/v1/organizations/{id}.
// Teardown runs asynchronously; the response only acknowledges the request.
func (r *Router) handleDeleteOrganization(w http.ResponseWriter, req *http.Request) {
	orgID, ok := getRequiredURLParam(w, req, "id")
	if !ok {
		return
	}

	if err := r.svc.DeleteOrganization(req.Context(), orgID); err != nil {
		r.handleAndLogError(w, req, err, "delete organization")
		return
	}

	writeJSONResponse(w, http.StatusAccepted, api.AcceptedResponse{
		ID:      orgID,
		Message: "organization deletion scheduled",
	})
}
