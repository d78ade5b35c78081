package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/wizbi/wizbi/internal/api"
	"github.com/wizbi/wizbi/internal/constants"
	apperrors "github.com/wizbi/wizbi/internal/errors"
	"github.com/wizbi/wizbi/internal/github"
	"github.com/wizbi/wizbi/internal/logger"
)

// TriggerProvisioning claims the project for a new saga run and enqueues the
// provisioning job. The claim is a transactional compare-and-swap: a project
// whose state is already in flight is rejected with a conflict, every other
// state (fresh, pending_billing, any failed_*) restarts the saga from the
// first stage. There is no checkpoint-resume; the underlying creates are
// idempotent, so a restart converges.
func (s *Service) TriggerProvisioning(ctx context.Context, projectID string) error {
	if _, err := s.GetProject(ctx, projectID); err != nil {
		return err
	}

	if err := s.projectRepo.BeginProvisioning(ctx, projectID, constants.StateProvisioningGCP); err != nil {
		return err
	}

	s.appendEvent(ctx, projectID, api.SeverityInfo, "provisioning_requested", nil)

	return s.jobRepo.Enqueue(ctx, &api.Job{
		ID:        uuid.NewString(),
		Kind:      api.JobProvisionProject,
		TargetID:  projectID,
		Status:    api.JobPending,
		CreatedAt: time.Now().UTC(),
	})
}

// RunFullProvisioning executes the whole saga for one project: cloud
// infrastructure, source repository, secret injection, deployment trigger.
// Failures are classified and persisted on the project document; the event
// log is the externally visible progress signal throughout.
func (s *Service) RunFullProvisioning(ctx context.Context, projectID string) error {
	project, err := s.GetProject(ctx, projectID)
	if err != nil {
		return err
	}

	org, err := s.GetOrganization(ctx, project.OrganizationID)
	if err != nil {
		return s.failProvisioning(ctx, projectID, err)
	}
	if org.GCPFolderID == "" || org.GitHubTeamSlug == "" {
		err := apperrors.ErrBadRequest(
			fmt.Sprintf("organization %s is missing its cloud folder or team", org.ID), nil)
		return s.failProvisioning(ctx, projectID, err)
	}

	if err := s.runStages(ctx, project, org); err != nil {
		return s.failProvisioning(ctx, projectID, err)
	}
	return nil
}

func (s *Service) runStages(ctx context.Context, project *api.Project, org *api.Organization) error {
	log := s.Logger.With("projectID", project.ID)

	// Cloud stage.
	if err := s.projectRepo.SetState(ctx, project.ID, constants.StateProvisioningGCP, ""); err != nil {
		return err
	}
	s.appendEvent(ctx, project.ID, api.SeverityInfo, "gcp_provisioning_started", nil)

	result, err := s.cloud.ProvisionInfrastructure(ctx, project.ID, project.DisplayName, org.GCPFolderID)
	if err != nil {
		return err
	}

	if err := s.projectRepo.SetProvisioningResult(ctx, project.ID, map[string]any{
		"gcpProjectId":           result.ProjectID,
		"gcpProjectNumber":       result.ProjectNumber,
		"deployerServiceAccount": result.DeployerEmail,
		"wifProviderName":        result.WIFProviderName,
	}); err != nil {
		return err
	}
	if err := s.projectRepo.AddLink(ctx, project.ID, api.Link{
		Name: "GCP Console",
		URL:  "https://console.cloud.google.com/home/dashboard?project=" + result.ProjectID,
	}); err != nil {
		return err
	}
	if err := s.projectRepo.SetState(ctx, project.ID, constants.StatePendingGitHub, ""); err != nil {
		return err
	}
	s.appendEvent(ctx, project.ID, api.SeverityInfo, "gcp_provisioning_completed", map[string]any{
		"projectNumber": result.ProjectNumber,
	})
	log.Info("cloud stage complete", "gcpProject", result.ProjectID)

	// Repository stage.
	if err := s.projectRepo.SetState(ctx, project.ID, constants.StateProvisioningGitHub, ""); err != nil {
		return err
	}
	s.appendEvent(ctx, project.ID, api.SeverityInfo, "github_provisioning_started", nil)

	repoURL, err := s.repos.CreateRepoFromTemplate(ctx, project.ID, org.GitHubTeamSlug, project.Template, github.TemplateData{
		ProjectID:   project.ID,
		DisplayName: project.DisplayName,
		Region:      s.config.GCPRegion,
		RepoURL:     "https://github.com/" + s.config.GitHubOwner + "/" + project.ID,
	})
	if err != nil {
		return err
	}

	if err := s.projectRepo.SetProvisioningResult(ctx, project.ID, map[string]any{
		"githubRepoUrl": repoURL,
	}); err != nil {
		return err
	}
	if err := s.projectRepo.AddLink(ctx, project.ID, api.Link{Name: "Repository", URL: repoURL}); err != nil {
		return err
	}
	if err := s.projectRepo.SetState(ctx, project.ID, constants.StatePendingSecrets, ""); err != nil {
		return err
	}
	s.appendEvent(ctx, project.ID, api.SeverityInfo, "github_provisioning_completed", map[string]any{
		"repoUrl": repoURL,
	})
	log.Info("repository stage complete", "repoURL", repoURL)

	// Secret injection and first deployment.
	if err := s.projectRepo.SetState(ctx, project.ID, constants.StateInjectingSecrets, ""); err != nil {
		return err
	}
	s.appendEvent(ctx, project.ID, api.SeverityInfo, "secrets_injection_started", nil)

	values := make(map[string][]byte, len(s.config.DeploySecretNames))
	for _, name := range s.config.DeploySecretNames {
		value, err := s.secrets.Get(ctx, name)
		if err != nil {
			return err
		}
		values[name] = value
	}
	if len(values) > 0 {
		if err := s.repos.CreateRepoSecrets(ctx, project.ID, values); err != nil {
			return err
		}
	}

	s.repos.TriggerDeployment(ctx, project.ID)
	s.appendEvent(ctx, project.ID, api.SeverityInfo, "deployment_triggered", nil)

	if err := s.projectRepo.SetState(ctx, project.ID, constants.StateReady, ""); err != nil {
		return err
	}
	s.appendEvent(ctx, project.ID, api.SeverityInfo, "provisioning_completed", nil)
	log.Info("provisioning complete")

	return nil
}

// failProvisioning classifies a saga failure and persists the outcome. A
// billing-required failure parks the project in pending_billing with a
// remediation URL and is not treated as fatal; anything else lands in the
// failure state matched to the stage that was running.
func (s *Service) failProvisioning(ctx context.Context, projectID string, cause error) error {
	reqLogger := logger.DeriveRequestLogger(ctx, s.Logger)

	if billingErr, ok := apperrors.AsBillingRequired(cause); ok {
		consoleURL := fmt.Sprintf(constants.BillingConsoleURLFormat, billingErr.ProjectID)
		message := "billing account linkage requires manual action: " + consoleURL

		if err := s.projectRepo.SetState(ctx, projectID, constants.StatePendingBilling, message); err != nil {
			reqLogger.Error("failed to park project for billing", "projectID", projectID, "error", err)
			return err
		}
		s.appendEvent(ctx, projectID, api.SeverityWarning, "billing_required", map[string]any{
			"consoleUrl": consoleURL,
		})
		reqLogger.Warn("provisioning paused on billing", "projectID", projectID, "consoleUrl", consoleURL)
		return nil
	}

	// Attribute the failure to the stage recorded in the document; if the
	// document is unreadable the earliest stage is assumed.
	current := constants.StateProvisioningGCP
	if project, err := s.projectRepo.GetProject(ctx, projectID); err == nil && project != nil {
		current = project.State
	}
	failureState := constants.FailureStateFor(current)

	if err := s.projectRepo.SetState(ctx, projectID, failureState, cause.Error()); err != nil {
		reqLogger.Error("failed to persist failure state", "projectID", projectID, "error", err)
	}
	s.appendEvent(ctx, projectID, api.SeverityError, "provisioning_failed", map[string]any{
		"stage": string(current),
		"error": cause.Error(),
	})
	reqLogger.Error("provisioning failed", "projectID", projectID, "stage", string(current), "error", cause)

	return cause
}
