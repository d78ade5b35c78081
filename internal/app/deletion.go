package app

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/wizbi/wizbi/internal/api"
	"github.com/wizbi/wizbi/internal/constants"
)

// RunProjectDeletion tears down one project: cloud project, repository, event
// log, then the document itself. Every remote delete treats "not found" as
// success, so a re-triggered deletion picks up where the last one failed. Any
// error stops the remaining steps and parks the project in delete_failed.
func (s *Service) RunProjectDeletion(ctx context.Context, projectID string) error {
	project, err := s.GetProject(ctx, projectID)
	if err != nil {
		return err
	}

	if err := s.projectRepo.SetState(ctx, projectID, constants.StateDeleting, ""); err != nil {
		return err
	}
	s.appendEvent(ctx, projectID, api.SeverityInfo, "deletion_started", nil)

	gcpProjectID := project.GCPProjectID
	if gcpProjectID == "" {
		gcpProjectID = project.ID
	}

	if err := s.cloud.DeleteProject(ctx, gcpProjectID); err != nil {
		return s.failDeletion(ctx, projectID, err)
	}
	if err := s.repos.DeleteRepo(ctx, project.ID); err != nil {
		return s.failDeletion(ctx, projectID, err)
	}
	if err := s.eventRepo.DeleteAll(ctx, projectID); err != nil {
		return s.failDeletion(ctx, projectID, err)
	}
	if err := s.projectRepo.DeleteProject(ctx, projectID); err != nil {
		return s.failDeletion(ctx, projectID, err)
	}

	s.Logger.Info("project deleted", "projectID", projectID)
	return nil
}

func (s *Service) failDeletion(ctx context.Context, projectID string, cause error) error {
	if err := s.projectRepo.SetState(ctx, projectID, constants.StateDeleteFailed, cause.Error()); err != nil {
		s.Logger.Error("failed to persist delete failure", "projectID", projectID, "error", err)
	}
	s.appendEvent(ctx, projectID, api.SeverityError, "deletion_failed", map[string]any{
		"error": cause.Error(),
	})
	return cause
}

// RunOrganizationDeletion tears down an organization's folder and team in
// parallel, then removes the document. Failures park the organization in
// delete_failed for manual re-trigger.
func (s *Service) RunOrganizationDeletion(ctx context.Context, orgID string) error {
	org, err := s.GetOrganization(ctx, orgID)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if org.GCPFolderID == "" {
			return nil
		}
		return s.cloud.DeleteFolder(gctx, org.GCPFolderID)
	})
	g.Go(func() error {
		if org.GitHubTeamSlug == "" {
			return nil
		}
		return s.repos.DeleteTeam(gctx, org.GitHubTeamSlug)
	})
	if err := g.Wait(); err != nil {
		if setErr := s.orgRepo.SetState(ctx, orgID, constants.OrgDeleteFailed, err.Error()); setErr != nil {
			s.Logger.Error("failed to persist org delete failure", "organizationID", orgID, "error", setErr)
		}
		return err
	}

	if err := s.orgRepo.DeleteOrganization(ctx, orgID); err != nil {
		return err
	}

	s.Logger.Info("organization deleted", "organizationID", orgID)
	return nil
}
