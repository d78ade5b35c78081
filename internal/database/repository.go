// Package database defines repository interfaces for data persistence.
// It provides abstractions for project, organization, event log and job
// storage.
package database

import (
	"context"

	"github.com/wizbi/wizbi/internal/api"
	"github.com/wizbi/wizbi/internal/constants"
)

// ProjectRepository defines the interface for project document operations.
// This abstraction allows for different implementations without changing the
// saga controller.
type ProjectRepository interface {
	// CreateProject stores a new project document. Returns a conflict error
	// if a document with the same ID already exists; the existing document is
	// never mutated.
	CreateProject(ctx context.Context, project *api.Project) error

	// GetProject retrieves a project by ID. Returns nil if it doesn't exist.
	GetProject(ctx context.Context, projectID string) (*api.Project, error)

	// ListProjects returns all project documents, newest first.
	ListProjects(ctx context.Context) ([]*api.Project, error)

	// SetState updates the lifecycle state and the error message. An empty
	// message clears any previously persisted error.
	SetState(ctx context.Context, projectID string, state constants.ProjectState, errMsg string) error

	// BeginProvisioning atomically checks that the project is not already in
	// flight and moves it to the given initial state. Returns a conflict
	// error when another attempt is running. This is the compare-and-swap
	// guard for re-triggers.
	BeginProvisioning(ctx context.Context, projectID string, initial constants.ProjectState) error

	// SetProvisioningResult persists the identifiers returned by a completed
	// provisioning stage (merged into the document, never replacing it).
	SetProvisioningResult(ctx context.Context, projectID string, fields map[string]any) error

	// AddLink appends an external link to the project via array-union, so
	// repeated saga runs do not duplicate entries.
	AddLink(ctx context.Context, projectID string, link api.Link) error

	// DeleteProject removes the project document.
	DeleteProject(ctx context.Context, projectID string) error

	// AnyProjectInOrganization reports whether at least one project still
	// references the organization.
	AnyProjectInOrganization(ctx context.Context, orgID string) (bool, error)
}

// OrganizationRepository defines the interface for organization documents.
type OrganizationRepository interface {
	// CreateOrganization stores a new organization document. Returns a
	// conflict error if the ID is taken.
	CreateOrganization(ctx context.Context, org *api.Organization) error

	// GetOrganization retrieves an organization by ID. Returns nil if it
	// doesn't exist.
	GetOrganization(ctx context.Context, orgID string) (*api.Organization, error)

	// ListOrganizations returns all organizations, newest first.
	ListOrganizations(ctx context.Context) ([]*api.Organization, error)

	// SetState updates the lifecycle state and the error message.
	SetState(ctx context.Context, orgID string, state constants.OrganizationState, errMsg string) error

	// DeleteOrganization removes the organization document.
	DeleteOrganization(ctx context.Context, orgID string) error
}

// EventRepository defines the append-only per-project event log.
type EventRepository interface {
	// Append adds one event to the project's log. Events are never mutated.
	Append(ctx context.Context, projectID string, event *api.Event) error

	// ListEvents returns the project's events in insertion order.
	ListEvents(ctx context.Context, projectID string) ([]*api.Event, error)

	// DeleteAll removes every event for the project. Only used while the
	// parent project itself is being deleted.
	DeleteAll(ctx context.Context, projectID string) error
}

// JobRepository defines durable saga jobs claimed by workers.
type JobRepository interface {
	// Enqueue stores a new pending job.
	Enqueue(ctx context.Context, job *api.Job) error

	// ClaimNext atomically claims the oldest claimable job (pending, or
	// claimed with an expired lease) for the given worker. Returns nil when
	// nothing is claimable.
	ClaimNext(ctx context.Context, workerID string) (*api.Job, error)

	// Complete marks a claimed job done or failed. An empty errMsg marks it
	// done.
	Complete(ctx context.Context, jobID string, errMsg string) error
}
