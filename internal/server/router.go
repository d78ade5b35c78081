// Package server exposes the provisioning API over HTTP. It wires the chi
// router, request middleware and JSON handlers around app.Service.
package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/wizbi/wizbi/internal/app"
)

// Router wraps the chi mux and the service it dispatches to.
type Router struct {
	router *chi.Mux
	svc    *app.Service
}

// NewRouter creates a new chi router with all routes configured.
func NewRouter(svc *app.Service) *Router {
	r := chi.NewRouter()
	router := &Router{
		router: r,
		svc:    svc,
	}

	r.Use(router.requestIDMiddleware)
	r.Use(router.requestLoggingMiddleware)
	r.Use(setContentTypeJSONMiddleware)

	r.Get("/health", router.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", router.handleHealth)

		r.Route("/organizations", func(r chi.Router) {
			r.Post("/", router.handleCreateOrganization)
			r.Get("/", router.handleListOrganizations)
			r.Get("/{id}", router.handleGetOrganization)
			r.Delete("/{id}", router.handleDeleteOrganization)
		})

		r.Route("/projects", func(r chi.Router) {
			r.Post("/", router.handleCreateProject)
			r.Get("/", router.handleListProjects)
			r.Get("/{id}", router.handleGetProject)
			r.Delete("/{id}", router.handleDeleteProject)
			r.Post("/{id}/provision", router.handleProvisionProject)
			r.Get("/{id}/events", router.handleListProjectEvents)
		})

		r.Post("/templates", router.handleCreateTemplate)
	})

	return router
}

// ServeHTTP implements http.Handler.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.router.ServeHTTP(w, req)
}

// Handler returns an http.Handler for the router.
func (r *Router) Handler() http.Handler {
	return r.router
}
