// Package api defines the API types and structures used across wizbi.
// It contains the persisted document shapes and the request and response
// structures for the provisioning API.
package api

import (
	"time"

	"github.com/wizbi/wizbi/internal/constants"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// HealthResponse represents the response to a health check request
type HealthResponse struct {
	Status string `json:"status"`
}

// Project is a tenant project document. The ID is derived deterministically
// from the organization slug and the project's short name and is immutable
// after the first write.
type Project struct {
	ID             string                 `json:"id" firestore:"id"`
	DisplayName    string                 `json:"displayName" firestore:"displayName"`
	OrganizationID string                 `json:"organizationId" firestore:"organizationId"`
	Template       string                 `json:"template" firestore:"template"`
	State          constants.ProjectState `json:"state" firestore:"state"`
	Error          string                 `json:"error,omitempty" firestore:"error"`

	GCPProjectID     string `json:"gcpProjectId,omitempty" firestore:"gcpProjectId"`
	GCPProjectNumber string `json:"gcpProjectNumber,omitempty" firestore:"gcpProjectNumber"`
	DeployerEmail    string `json:"deployerServiceAccount,omitempty" firestore:"deployerServiceAccount"`
	WIFProviderName  string `json:"wifProviderName,omitempty" firestore:"wifProviderName"`
	RepoURL          string `json:"githubRepoUrl,omitempty" firestore:"githubRepoUrl"`

	Links     []Link    `json:"links,omitempty" firestore:"links"`
	CreatedAt time.Time `json:"createdAt" firestore:"createdAt"`
}

// Link is an external console or dashboard link attached to a project.
type Link struct {
	Name string `json:"name" firestore:"name"`
	URL  string `json:"url" firestore:"url"`
}

// Organization groups projects under one GCP folder and one GitHub team.
type Organization struct {
	ID             string                      `json:"id" firestore:"id"`
	Name           string                      `json:"name" firestore:"name"`
	Phone          string                      `json:"phone,omitempty" firestore:"phone"`
	GCPFolderID    string                      `json:"gcpFolderId,omitempty" firestore:"gcpFolderId"`
	GitHubTeamID   int64                       `json:"githubTeamId,omitempty" firestore:"githubTeamId"`
	GitHubTeamSlug string                      `json:"githubTeamSlug,omitempty" firestore:"githubTeamSlug"`
	State          constants.OrganizationState `json:"state" firestore:"state"`
	Error          string                      `json:"error,omitempty" firestore:"error"`
	CreatedAt      time.Time                   `json:"createdAt" firestore:"createdAt"`
}

// Event is one append-only audit log entry for a project. Events are the only
// externally visible progress signal while a saga is in flight.
type Event struct {
	Timestamp time.Time      `json:"timestamp" firestore:"timestamp"`
	Severity  string         `json:"severity" firestore:"severity"`
	Name      string         `json:"name" firestore:"name"`
	Metadata  map[string]any `json:"metadata,omitempty" firestore:"metadata"`
}

// Event severities.
const (
	SeverityInfo    = "INFO"
	SeverityWarning = "WARNING"
	SeverityError   = "ERROR"
)

// Job is a durable saga job claimed and executed by a worker. Persisting jobs
// instead of spawning detached goroutines makes sagas recoverable after a
// process crash: orphaned claims are re-claimable once their lease expires.
type Job struct {
	ID             string    `json:"id" firestore:"id"`
	Kind           JobKind   `json:"kind" firestore:"kind"`
	TargetID       string    `json:"targetId" firestore:"targetId"`
	Status         JobStatus `json:"status" firestore:"status"`
	ClaimedBy      string    `json:"claimedBy,omitempty" firestore:"claimedBy"`
	LeaseExpiresAt time.Time `json:"leaseExpiresAt,omitempty" firestore:"leaseExpiresAt"`
	CreatedAt      time.Time `json:"createdAt" firestore:"createdAt"`
	Error          string    `json:"error,omitempty" firestore:"error"`
}

// JobKind identifies the saga a job runs.
type JobKind string

const (
	JobProvisionProject   JobKind = "provision_project"
	JobDeleteProject      JobKind = "delete_project"
	JobDeleteOrganization JobKind = "delete_organization"
)

// JobStatus is the lifecycle state of a job.
type JobStatus string

const (
	JobPending JobStatus = "pending"
	JobClaimed JobStatus = "claimed"
	JobDone    JobStatus = "done"
	JobFailed  JobStatus = "failed"
)

// CreateProjectRequest creates a new project document.
type CreateProjectRequest struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
	OrgSlug     string `json:"orgSlug"`
	Template    string `json:"template"`
}

// CreateOrganizationRequest creates a new organization with its GCP folder
// and GitHub team.
type CreateOrganizationRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Slug  string `json:"slug"`
}

// CreateTemplateRequest authors a new project template repository.
type CreateTemplateRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// TemplateResponse describes a created template repository.
type TemplateResponse struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// AcceptedResponse acknowledges an asynchronously executed operation.
type AcceptedResponse struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

// ListProjectsResponse wraps a project listing.
type ListProjectsResponse struct {
	Projects []*Project `json:"projects"`
}

// ListOrganizationsResponse wraps an organization listing.
type ListOrganizationsResponse struct {
	Organizations []*Organization `json:"organizations"`
}

// ListEventsResponse wraps a project's event log.
type ListEventsResponse struct {
	ProjectID string   `json:"projectId"`
	Events    []*Event `json:"events"`
}
