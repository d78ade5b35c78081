package gcp

import (
	"context"
	"fmt"

	resourcemanager "cloud.google.com/go/resourcemanager/apiv3"
	"google.golang.org/api/artifactregistry/v1"
	"google.golang.org/api/cloudbilling/v1"
	"google.golang.org/api/cloudresourcemanager/v3"
	"google.golang.org/api/firebase/v1beta1"
	"google.golang.org/api/firebasehosting/v1beta1"
	"google.golang.org/api/iam/v1"
	"google.golang.org/api/run/v2"
	"google.golang.org/api/serviceusage/v1"
)

// ServiceClients holds the GCP API clients needed to provision one tenant
// project. Callers inject them so tests can substitute fakes.
type ServiceClients struct {
	Projects         ProjectsClient
	Folders          FoldersClient
	Billing          BillingClient
	ProjectIAM       ProjectIAMClient
	ServiceUsage     ServiceUsageClient
	ArtifactRegistry ArtifactRegistryClient
	Firebase         FirebaseClient
	ServiceAccounts  ServiceAccountsClient
	WorkloadIdentity WorkloadIdentityClient
	CloudRun         CloudRunClient
	Hosting          HostingClient
}

// ProjectsClient abstracts GCP Resource Manager Projects API operations.
type ProjectsClient interface {
	// CreateProject creates the project under the parent folder. An existing
	// project with the same ID is treated as success.
	CreateProject(ctx context.Context, projectID, displayName, parentFolder string) error
	// GetProjectNumber reads back the numeric project identifier.
	GetProjectNumber(ctx context.Context, projectID string) (string, error)
	// DeleteProject deletes the project. A missing project is treated as
	// success.
	DeleteProject(ctx context.Context, projectID string) error
}

// FoldersClient abstracts GCP Resource Manager Folders API operations.
type FoldersClient interface {
	// CreateFolder creates a folder under the parent and returns its resource
	// name ("folders/123").
	CreateFolder(ctx context.Context, displayName, parent string) (string, error)
	// DeleteFolder deletes the folder. A missing folder is treated as success.
	DeleteFolder(ctx context.Context, name string) error
}

// BillingClient abstracts the Cloud Billing API.
type BillingClient interface {
	// LinkBillingAccount links the project to the billing account. A
	// permission-denied response surfaces as a BillingRequiredError carrying
	// the project ID.
	LinkBillingAccount(ctx context.Context, projectID, billingAccount string) error
}

// ProjectIAMClient abstracts project-level IAM policy operations.
type ProjectIAMClient interface {
	// GrantRoles ensures the member holds every role on the project, merging
	// into the existing policy without duplicating bindings.
	GrantRoles(ctx context.Context, projectID, member string, roles []string) error
}

// ServiceUsageClient abstracts the Service Usage API.
type ServiceUsageClient interface {
	// EnableServices batch-enables the service APIs and waits for the
	// resulting operation.
	EnableServices(ctx context.Context, projectID string, services []string) error
}

// ArtifactRegistryClient abstracts the Artifact Registry API.
type ArtifactRegistryClient interface {
	// CreateDockerRepository creates a Docker repository, treating an
	// existing one as success.
	CreateDockerRepository(ctx context.Context, projectID, location, repoID string) error
}

// FirebaseClient abstracts the Firebase management API.
type FirebaseClient interface {
	// EnableFirebase adds Firebase to the project, treating "already added"
	// as success.
	EnableFirebase(ctx context.Context, projectID string) error
}

// ServiceAccountsClient abstracts IAM service account operations.
type ServiceAccountsClient interface {
	// CreateServiceAccount creates a service account and returns its email.
	// An existing account is treated as success and its derived email is
	// returned.
	CreateServiceAccount(ctx context.Context, projectID, accountID, displayName string) (string, error)
	// GrantAccountRole ensures the member holds the role on the service
	// account's own IAM policy, merging into existing bindings.
	GrantAccountRole(ctx context.Context, projectID, accountEmail, member, role string) error
}

// WorkloadIdentityClient abstracts workload identity federation setup.
type WorkloadIdentityClient interface {
	// CreatePool creates a workload identity pool, treating an existing one
	// as success.
	CreatePool(ctx context.Context, projectID, poolID string) error
	// CreateProvider creates an OIDC provider in the pool restricted by the
	// attribute condition, treating an existing one as success.
	CreateProvider(ctx context.Context, projectID, poolID, providerID, attributeCondition string) error
}

// CloudRunClient abstracts Cloud Run Admin API operations.
type CloudRunClient interface {
	// CreateService deploys a service running the image under the given
	// runtime service account and waits for it. An existing service is
	// treated as success.
	CreateService(ctx context.Context, projectID, region, serviceName, image, serviceAccount string) error
	// AllowInvocation grants roles/run.invoker on the service to each member,
	// merging into the existing policy.
	AllowInvocation(ctx context.Context, projectID, region, serviceName string, members []string) error
}

// HostingClient abstracts the Firebase Hosting API.
type HostingClient interface {
	// CreateSite creates a hosting site, treating an existing one as success.
	CreateSite(ctx context.Context, projectID, siteID string) error
}

// NewDefaultServiceClients builds concrete service clients backed by Google
// Cloud APIs.
func NewDefaultServiceClients(ctx context.Context) (*ServiceClients, error) {
	projectsClient, err := resourcemanager.NewProjectsClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create projects client: %w", err)
	}

	foldersClient, err := resourcemanager.NewFoldersClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create folders client: %w", err)
	}

	billingSvc, err := cloudbilling.NewService(ctx)
	if err != nil {
		return nil, fmt.Errorf("create cloud billing service: %w", err)
	}

	rmSvc, err := cloudresourcemanager.NewService(ctx)
	if err != nil {
		return nil, fmt.Errorf("create cloud resource manager service: %w", err)
	}

	serviceUsageSvc, err := serviceusage.NewService(ctx)
	if err != nil {
		return nil, fmt.Errorf("create service usage service: %w", err)
	}

	artifactSvc, err := artifactregistry.NewService(ctx)
	if err != nil {
		return nil, fmt.Errorf("create artifact registry service: %w", err)
	}

	firebaseSvc, err := firebase.NewService(ctx)
	if err != nil {
		return nil, fmt.Errorf("create firebase service: %w", err)
	}

	iamSvc, err := iam.NewService(ctx)
	if err != nil {
		return nil, fmt.Errorf("create iam service: %w", err)
	}

	runSvc, err := run.NewService(ctx)
	if err != nil {
		return nil, fmt.Errorf("create run service: %w", err)
	}

	hostingSvc, err := firebasehosting.NewService(ctx)
	if err != nil {
		return nil, fmt.Errorf("create firebase hosting service: %w", err)
	}

	return &ServiceClients{
		Projects:         &defaultProjectsClient{client: projectsClient},
		Folders:          &defaultFoldersClient{client: foldersClient},
		Billing:          &defaultBillingClient{service: billingSvc},
		ProjectIAM:       &defaultProjectIAMClient{service: rmSvc},
		ServiceUsage:     &defaultServiceUsageClient{service: serviceUsageSvc},
		ArtifactRegistry: &defaultArtifactRegistryClient{service: artifactSvc},
		Firebase:         &defaultFirebaseClient{service: firebaseSvc},
		ServiceAccounts:  &defaultServiceAccountsClient{service: iamSvc},
		WorkloadIdentity: &defaultWorkloadIdentityClient{service: iamSvc},
		CloudRun:         &defaultCloudRunClient{service: runSvc},
		Hosting:          &defaultHostingClient{service: hostingSvc},
	}, nil
}
