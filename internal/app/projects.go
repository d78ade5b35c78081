package app

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/wizbi/wizbi/internal/api"
	"github.com/wizbi/wizbi/internal/constants"
	apperrors "github.com/wizbi/wizbi/internal/errors"
	"github.com/wizbi/wizbi/internal/logger"
)

// CreateProject stores a new project document in its initial state. The ID is
// derived from the organization slug and the project name; creating the same
// project twice is a conflict and never overwrites the original.
func (s *Service) CreateProject(ctx context.Context, req api.CreateProjectRequest) (*api.Project, error) {
	reqLogger := logger.DeriveRequestLogger(ctx, s.Logger)

	if req.Name == "" {
		return nil, apperrors.ErrBadRequest("name is required", nil)
	}
	if req.OrgSlug == "" {
		return nil, apperrors.ErrBadRequest("orgSlug is required", nil)
	}
	if req.Template == "" {
		return nil, apperrors.ErrBadRequest("template is required", nil)
	}

	org, err := s.orgRepo.GetOrganization(ctx, req.OrgSlug)
	if err != nil {
		return nil, err
	}
	if org == nil {
		return nil, apperrors.ErrBadRequest("organization does not exist", nil)
	}

	displayName := req.DisplayName
	if displayName == "" {
		displayName = req.Name
	}

	project := &api.Project{
		ID:             api.ProjectID(org.ID, req.Name),
		DisplayName:    displayName,
		OrganizationID: org.ID,
		Template:       req.Template,
		State:          constants.StatePendingGCP,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.projectRepo.CreateProject(ctx, project); err != nil {
		return nil, err
	}

	reqLogger.Info("project created", "projectID", project.ID, "organization", org.ID)
	s.appendEvent(ctx, project.ID, api.SeverityInfo, "project_created", map[string]any{
		"template": project.Template,
	})

	return project, nil
}

// GetProject returns one project or a not-found error.
func (s *Service) GetProject(ctx context.Context, projectID string) (*api.Project, error) {
	project, err := s.projectRepo.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, apperrors.ErrNotFound("project not found", nil)
	}
	return project, nil
}

// ListProjects returns all projects.
func (s *Service) ListProjects(ctx context.Context) ([]*api.Project, error) {
	return s.projectRepo.ListProjects(ctx)
}

// ListProjectEvents returns the project's event log in insertion order.
func (s *Service) ListProjectEvents(ctx context.Context, projectID string) ([]*api.Event, error) {
	if _, err := s.GetProject(ctx, projectID); err != nil {
		return nil, err
	}
	return s.eventRepo.ListEvents(ctx, projectID)
}

// DeleteProject enqueues the teardown job for a project. The request is
// acknowledged before any teardown runs.
func (s *Service) DeleteProject(ctx context.Context, projectID string) error {
	if _, err := s.GetProject(ctx, projectID); err != nil {
		return err
	}

	return s.jobRepo.Enqueue(ctx, &api.Job{
		ID:        uuid.NewString(),
		Kind:      api.JobDeleteProject,
		TargetID:  projectID,
		Status:    api.JobPending,
		CreatedAt: time.Now().UTC(),
	})
}

// CreateTemplate authors a new project template repository from the
// configured base template.
func (s *Service) CreateTemplate(ctx context.Context, name, description string) (string, error) {
	if name == "" {
		return "", apperrors.ErrBadRequest("name is required", nil)
	}
	if s.config.BaseTemplateRepo == "" {
		return "", apperrors.ErrBadRequest("no base template repository configured", nil)
	}

	url, err := s.repos.CreateTemplate(ctx, name, description, s.config.BaseTemplateRepo)
	if err != nil {
		return "", apperrors.ErrInternalError("failed to create template", err)
	}
	return url, nil
}
