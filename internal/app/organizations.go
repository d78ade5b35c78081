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

// CreateOrganization provisions the organization's GCP folder and GitHub team
// and stores the organization document. The document ID is the organization
// slug, so project IDs can be derived from it.
func (s *Service) CreateOrganization(ctx context.Context, req api.CreateOrganizationRequest) (*api.Organization, error) {
	reqLogger := logger.DeriveRequestLogger(ctx, s.Logger)

	if req.Name == "" {
		return nil, apperrors.ErrBadRequest("name is required", nil)
	}
	slug := req.Slug
	if slug == "" {
		slug = api.Slugify(req.Name)
	}
	if slug == "" {
		return nil, apperrors.ErrBadRequest("name must contain at least one alphanumeric character", nil)
	}

	existing, err := s.orgRepo.GetOrganization(ctx, slug)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperrors.ErrConflict("organization already exists", nil)
	}

	reqLogger.Info("creating organization", "slug", slug)

	folderName, err := s.cloud.CreateFolder(ctx, req.Name, s.config.RootFolderID)
	if err != nil {
		return nil, apperrors.ErrInternalError("failed to create organization folder", err)
	}

	teamID, teamSlug, err := s.repos.CreateTeam(ctx, req.Name, slug)
	if err != nil {
		return nil, apperrors.ErrInternalError("failed to create organization team", err)
	}

	org := &api.Organization{
		ID:             slug,
		Name:           req.Name,
		Phone:          req.Phone,
		GCPFolderID:    folderName,
		GitHubTeamID:   teamID,
		GitHubTeamSlug: teamSlug,
		State:          constants.OrgActive,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.orgRepo.CreateOrganization(ctx, org); err != nil {
		return nil, err
	}

	reqLogger.Info("organization created", "slug", slug, "folder", folderName, "team", teamSlug)

	return org, nil
}

// ListOrganizations returns all organizations.
func (s *Service) ListOrganizations(ctx context.Context) ([]*api.Organization, error) {
	return s.orgRepo.ListOrganizations(ctx)
}

// GetOrganization returns one organization or a not-found error.
func (s *Service) GetOrganization(ctx context.Context, orgID string) (*api.Organization, error) {
	org, err := s.orgRepo.GetOrganization(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if org == nil {
		return nil, apperrors.ErrNotFound("organization not found", nil)
	}
	return org, nil
}

// DeleteOrganization refuses deletion while any project still references the
// organization; otherwise it marks the organization deleting and enqueues the
// teardown job.
func (s *Service) DeleteOrganization(ctx context.Context, orgID string) error {
	org, err := s.GetOrganization(ctx, orgID)
	if err != nil {
		return err
	}

	inUse, err := s.projectRepo.AnyProjectInOrganization(ctx, org.ID)
	if err != nil {
		return err
	}
	if inUse {
		return apperrors.ErrConflict("organization still has projects", nil)
	}

	if err := s.orgRepo.SetState(ctx, org.ID, constants.OrgDeleting, ""); err != nil {
		return err
	}

	return s.jobRepo.Enqueue(ctx, &api.Job{
		ID:        uuid.NewString(),
		Kind:      api.JobDeleteOrganization,
		TargetID:  org.ID,
		Status:    api.JobPending,
		CreatedAt: time.Now().UTC(),
	})
}
