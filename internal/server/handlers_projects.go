package server

import (
	"net/http"

	"github.com/wizbi/wizbi/internal/api"
)

// handleCreateProject handles POST /api/v1/projects. Creating a project only
// writes its document; provisioning is a separate explicit call.
func (r *Router) handleCreateProject(w http.ResponseWriter, req *http.Request) {
	var createReq api.CreateProjectRequest
	if err := decodeRequestBody(w, req, &createReq); err != nil {
		return
	}

	project, err := r.svc.CreateProject(req.Context(), createReq)
	if err != nil {
		r.handleAndLogError(w, req, err, "create project")
		return
	}

	writeJSONResponse(w, http.StatusCreated, project)
}

// handleListProjects handles GET /api/v1/projects.
func (r *Router) handleListProjects(w http.ResponseWriter, req *http.Request) {
	projects, err := r.svc.ListProjects(req.Context())
	if err != nil {
		r.handleAndLogError(w, req, err, "list projects")
		return
	}

	writeJSONResponse(w, http.StatusOK, api.ListProjectsResponse{Projects: projects})
}

// handleGetProject handles GET /api/v1/projects/{id}.
func (r *Router) handleGetProject(w http.ResponseWriter, req *http.Request) {
	projectID, ok := getRequiredURLParam(w, req, "id")
	if !ok {
		return
	}

	project, err := r.svc.GetProject(req.Context(), projectID)
	if err != nil {
		r.handleAndLogError(w, req, err, "get project")
		return
	}

	writeJSONResponse(w, http.StatusOK, project)
}

// handleProvisionProject handles POST /api/v1/projects/{id}/provision.
// Returns 202 once the job is queued, or 409 while a saga is in flight.
func (r *Router) handleProvisionProject(w http.ResponseWriter, req *http.Request) {
	projectID, ok := getRequiredURLParam(w, req, "id")
	if !ok {
		return
	}

	if err := r.svc.TriggerProvisioning(req.Context(), projectID); err != nil {
		r.handleAndLogError(w, req, err, "provision project")
		return
	}

	writeJSONResponse(w, http.StatusAccepted, api.AcceptedResponse{
		ID:      projectID,
		Message: "provisioning scheduled",
	})
}

// handleDeleteProject handles DELETE /api/v1/projects/{id}.
func (r *Router) handleDeleteProject(w http.ResponseWriter, req *http.Request) {
	projectID, ok := getRequiredURLParam(w, req, "id")
	if !ok {
		return
	}

	if err := r.svc.DeleteProject(req.Context(), projectID); err != nil {
		r.handleAndLogError(w, req, err, "delete project")
		return
	}

	writeJSONResponse(w, http.StatusAccepted, api.AcceptedResponse{
		ID:      projectID,
		Message: "project deletion scheduled",
	})
}

// handleListProjectEvents handles GET /api/v1/projects/{id}/events.
func (r *Router) handleListProjectEvents(w http.ResponseWriter, req *http.Request) {
	projectID, ok := getRequiredURLParam(w, req, "id")
	if !ok {
		return
	}

	events, err := r.svc.ListProjectEvents(req.Context(), projectID)
	if err != nil {
		r.handleAndLogError(w, req, err, "list project events")
		return
	}

	writeJSONResponse(w, http.StatusOK, api.ListEventsResponse{
		ProjectID: projectID,
		Events:    events,
	})
}

// handleCreateTemplate handles POST /api/v1/templates.
func (r *Router) handleCreateTemplate(w http.ResponseWriter, req *http.Request) {
	var createReq api.CreateTemplateRequest
	if err := decodeRequestBody(w, req, &createReq); err != nil {
		return
	}

	url, err := r.svc.CreateTemplate(req.Context(), createReq.Name, createReq.Description)
	if err != nil {
		r.handleAndLogError(w, req, err, "create template")
		return
	}

	writeJSONResponse(w, http.StatusCreated, api.TemplateResponse{
		Name: createReq.Name,
		URL:  url,
	})
}
