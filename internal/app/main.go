// Package app implements the provisioning sagas: the business logic that
// turns a project document into a fully provisioned cloud environment and
// source repository, and tears both down again.
package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/wizbi/wizbi/internal/api"
	"github.com/wizbi/wizbi/internal/config"
	"github.com/wizbi/wizbi/internal/database"
	"github.com/wizbi/wizbi/internal/gcp"
	"github.com/wizbi/wizbi/internal/github"
	"github.com/wizbi/wizbi/internal/logger"
	"github.com/wizbi/wizbi/internal/secrets"
)

// CloudProvisioner abstracts the cloud side of the saga.
type CloudProvisioner interface {
	// ProvisionInfrastructure creates every cloud resource for one tenant
	// project. Idempotent; safe to re-run after partial failure.
	ProvisionInfrastructure(ctx context.Context, projectID, displayName, parentFolderID string) (*gcp.ProvisionResult, error)
	// CreateFolder creates an organization folder and returns its resource name.
	CreateFolder(ctx context.Context, displayName, parent string) (string, error)
	// DeleteFolder removes an organization folder; missing folders are fine.
	DeleteFolder(ctx context.Context, name string) error
	// DeleteProject removes a tenant cloud project; missing projects are fine.
	DeleteProject(ctx context.Context, projectID string) error
}

// RepoProvisioner abstracts the source-hosting side of the saga.
type RepoProvisioner interface {
	// CreateRepoFromTemplate instantiates and configures the tenant
	// repository and returns its browse URL.
	CreateRepoFromTemplate(ctx context.Context, repoName, teamSlug, templateName string, data github.TemplateData) (string, error)
	// CreateTemplate authors a new project template from the base template.
	CreateTemplate(ctx context.Context, name, description, baseTemplateRepo string) (string, error)
	// CreateRepoSecrets uploads encrypted CI secrets to the repository.
	CreateRepoSecrets(ctx context.Context, repoName string, values map[string][]byte) error
	// TriggerDeployment dispatches the deploy workflow, best-effort.
	TriggerDeployment(ctx context.Context, repoName string)
	// CreateTeam creates or reuses the organization team.
	CreateTeam(ctx context.Context, name, slug string) (int64, string, error)
	// DeleteTeam removes a team; missing teams are fine.
	DeleteTeam(ctx context.Context, slug string) error
	// DeleteRepo removes a repository; missing repositories are fine.
	DeleteRepo(ctx context.Context, repoName string) error
}

// SecretSource resolves named deployment secrets.
type SecretSource interface {
	Get(ctx context.Context, name string) ([]byte, error)
}

// Service provides the core business logic for organizations, projects and
// their provisioning sagas.
type Service struct {
	projectRepo database.ProjectRepository
	orgRepo     database.OrganizationRepository
	eventRepo   database.EventRepository
	jobRepo     database.JobRepository
	cloud       CloudProvisioner
	repos       RepoProvisioner
	secrets     SecretSource
	config      *config.Config
	Logger      *slog.Logger
}

// NewService creates a new service instance with all dependencies injected.
func NewService(
	projectRepo database.ProjectRepository,
	orgRepo database.OrganizationRepository,
	eventRepo database.EventRepository,
	jobRepo database.JobRepository,
	cloud CloudProvisioner,
	repos RepoProvisioner,
	secrets SecretSource,
	cfg *config.Config,
	log *slog.Logger,
) *Service {
	return &Service{
		projectRepo: projectRepo,
		orgRepo:     orgRepo,
		eventRepo:   eventRepo,
		jobRepo:     jobRepo,
		cloud:       cloud,
		repos:       repos,
		secrets:     secrets,
		config:      cfg,
		Logger:      log,
	}
}

// appendEvent writes one event to the project's log. Event persistence is
// itself best-effort: a log write failure must never fail a saga stage.
// Metadata values under sensitive keys are redacted before the write.
func (s *Service) appendEvent(ctx context.Context, projectID, severity, name string, metadata map[string]any) {
	event := &api.Event{
		Timestamp: time.Now().UTC(),
		Severity:  severity,
		Name:      name,
		Metadata:  secrets.RedactMetadata(metadata),
	}
	if err := s.eventRepo.Append(ctx, projectID, event); err != nil {
		reqLogger := logger.DeriveRequestLogger(ctx, s.Logger)
		reqLogger.Warn("failed to append project event", "projectID", projectID, "event", name, "error", err)
	}
}
