package gcp

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/wizbi/wizbi/internal/constants"
)

// ProvisionerConfig carries the deployment-wide settings the provisioner
// needs beyond per-project inputs.
type ProvisionerConfig struct {
	// Region for regional resources (Artifact Registry, Cloud Run).
	Region string
	// BillingAccount is the billing account resource name linked to every
	// tenant project.
	BillingAccount string
	// ProvisionerMember is the IAM member string of the identity running the
	// provisioning itself.
	ProvisionerMember string
	// GitHubOwner is the GitHub organization whose repositories may assume
	// the deployer identity through workload identity federation.
	GitHubOwner string
}

// ProvisionResult holds the identifiers produced by a completed cloud
// provisioning run.
type ProvisionResult struct {
	ProjectID       string
	ProjectNumber   string
	DeployerEmail   string
	WIFProviderName string
}

// Provisioner creates all cloud resources for one tenant project. Every step
// is idempotent, so a re-run after a partial failure converges on the same
// end state.
type Provisioner struct {
	clients *ServiceClients
	config  ProvisionerConfig
	logger  *slog.Logger

	// settle pauses for IAM and service account propagation. Tests replace it
	// to avoid real sleeps.
	settle func(ctx context.Context, d time.Duration) error
}

// NewProvisioner creates a provisioner using the given service clients.
func NewProvisioner(clients *ServiceClients, config ProvisionerConfig, logger *slog.Logger) *Provisioner {
	return &Provisioner{
		clients: clients,
		config:  config,
		logger:  logger,
		settle:  sleepContext,
	}
}

// ProvisionInfrastructure executes the cloud provisioning steps strictly in
// order and returns the identifiers the rest of the saga needs.
func (p *Provisioner) ProvisionInfrastructure(ctx context.Context, projectID, displayName, parentFolderID string) (*ProvisionResult, error) {
	log := p.logger.With("gcpProjectID", projectID)

	log.Info("creating project", "parentFolder", parentFolderID)
	if err := p.clients.Projects.CreateProject(ctx, projectID, displayName, parentFolderID); err != nil {
		return nil, err
	}
	if err := p.clients.Billing.LinkBillingAccount(ctx, projectID, p.config.BillingAccount); err != nil {
		return nil, err
	}

	log.Info("granting provisioner roles")
	if err := p.clients.ProjectIAM.GrantRoles(ctx, projectID, p.config.ProvisionerMember, constants.ProvisionerRoles); err != nil {
		return nil, err
	}
	if err := p.settle(ctx, constants.IAMSettleDelay); err != nil {
		return nil, err
	}

	projectNumber, err := p.clients.Projects.GetProjectNumber(ctx, projectID)
	if err != nil {
		return nil, err
	}

	log.Info("enabling service APIs", "count", len(constants.RequiredServices))
	if err := p.clients.ServiceUsage.EnableServices(ctx, projectID, constants.RequiredServices); err != nil {
		return nil, err
	}

	log.Info("creating artifact registry repository")
	if err := p.clients.ArtifactRegistry.CreateDockerRepository(ctx, projectID, p.config.Region, constants.ArtifactRepoID); err != nil {
		return nil, err
	}

	log.Info("enabling firebase")
	if err := p.clients.Firebase.EnableFirebase(ctx, projectID); err != nil {
		return nil, err
	}

	log.Info("creating service accounts")
	invokerEmail, err := p.clients.ServiceAccounts.CreateServiceAccount(ctx, projectID, constants.InvokerAccountID, "Service invoker")
	if err != nil {
		return nil, err
	}
	deployerEmail, err := p.clients.ServiceAccounts.CreateServiceAccount(ctx, projectID, constants.DeployerAccountID, "CI deployer")
	if err != nil {
		return nil, err
	}
	if err := p.settle(ctx, constants.AccountSettleDelay); err != nil {
		return nil, err
	}

	log.Info("deploying placeholder services")
	invokerMembers := []string{"allUsers", "serviceAccount:" + invokerEmail}
	for _, serviceName := range []string{constants.PrimaryServiceName, constants.QAServiceName} {
		if err := p.clients.CloudRun.CreateService(ctx, projectID, p.config.Region, serviceName, constants.PlaceholderImage, deployerEmail); err != nil {
			return nil, err
		}
		if err := p.clients.CloudRun.AllowInvocation(ctx, projectID, p.config.Region, serviceName, invokerMembers); err != nil {
			return nil, err
		}
	}

	log.Info("creating hosting sites")
	for _, siteID := range []string{projectID, projectID + "-qa"} {
		if err := p.clients.Hosting.CreateSite(ctx, projectID, siteID); err != nil {
			return nil, err
		}
	}

	log.Info("granting deployer roles")
	if err := p.clients.ProjectIAM.GrantRoles(ctx, projectID, "serviceAccount:"+deployerEmail, constants.DeployerRoles); err != nil {
		return nil, err
	}

	log.Info("configuring workload identity federation")
	wifProviderName, err := p.configureWorkloadIdentity(ctx, projectID, projectNumber, deployerEmail)
	if err != nil {
		return nil, err
	}

	log.Info("cloud provisioning complete", "projectNumber", projectNumber)

	return &ProvisionResult{
		ProjectID:       projectID,
		ProjectNumber:   projectNumber,
		DeployerEmail:   deployerEmail,
		WIFProviderName: wifProviderName,
	}, nil
}

// configureWorkloadIdentity creates the federation pool and provider and
// allows CI runs from exactly one repository to impersonate the deployer. The
// attribute condition pins the provider to <owner>/<projectID>; tokens from
// any other repository are rejected before IAM is even consulted.
func (p *Provisioner) configureWorkloadIdentity(ctx context.Context, projectID, projectNumber, deployerEmail string) (string, error) {
	if err := p.clients.WorkloadIdentity.CreatePool(ctx, projectID, constants.WIFPoolID); err != nil {
		return "", err
	}

	repository := p.config.GitHubOwner + "/" + projectID
	condition := fmt.Sprintf("assertion.repository == %q", repository)
	if err := p.clients.WorkloadIdentity.CreateProvider(ctx, projectID, constants.WIFPoolID, constants.WIFProviderID, condition); err != nil {
		return "", err
	}

	principalSet := fmt.Sprintf(
		"principalSet://iam.googleapis.com/projects/%s/locations/global/workloadIdentityPools/%s/attribute.repository/%s",
		projectNumber, constants.WIFPoolID, repository,
	)
	if err := p.clients.ServiceAccounts.GrantAccountRole(ctx, projectID, deployerEmail, principalSet, "roles/iam.workloadIdentityUser"); err != nil {
		return "", err
	}

	return fmt.Sprintf(
		"projects/%s/locations/global/workloadIdentityPools/%s/providers/%s",
		projectNumber, constants.WIFPoolID, constants.WIFProviderID,
	), nil
}

// CreateFolder creates an organization folder under the given parent and
// returns its resource name.
func (p *Provisioner) CreateFolder(ctx context.Context, displayName, parent string) (string, error) {
	return p.clients.Folders.CreateFolder(ctx, displayName, parent)
}

// DeleteFolder removes an organization folder. Missing folders are fine.
func (p *Provisioner) DeleteFolder(ctx context.Context, name string) error {
	return p.clients.Folders.DeleteFolder(ctx, name)
}

// DeleteProject removes a tenant project. Missing and already-invisible
// projects count as deleted (GCP answers 403 for a project that no longer
// exists), which makes deletion retry-safe.
func (p *Provisioner) DeleteProject(ctx context.Context, projectID string) error {
	err := p.clients.Projects.DeleteProject(ctx, projectID)
	if isNotFound(err) || isPermissionDenied(err) {
		return nil
	}
	return err
}

func sleepContext(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
