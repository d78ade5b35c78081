// Package gcp provisions tenant Google Cloud projects. It wraps the Cloud
// APIs behind narrow client interfaces and drives them from a single ordered
// provisioning routine. Every create call treats a conflict response as
// success so a restarted run converges instead of failing.
package gcp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"

	resourcemanager "cloud.google.com/go/resourcemanager/apiv3"
	"cloud.google.com/go/resourcemanager/apiv3/resourcemanagerpb"
	"google.golang.org/api/artifactregistry/v1"
	"google.golang.org/api/cloudbilling/v1"
	"google.golang.org/api/cloudresourcemanager/v3"
	"google.golang.org/api/firebase/v1beta1"
	"google.golang.org/api/firebasehosting/v1beta1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iam/v1"
	"google.golang.org/api/run/v2"
	"google.golang.org/api/serviceusage/v1"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/wizbi/wizbi/internal/constants"
	apperrors "github.com/wizbi/wizbi/internal/errors"
)

const githubOIDCIssuer = "https://token.actions.githubusercontent.com"

type defaultProjectsClient struct {
	client *resourcemanager.ProjectsClient
}

func (c *defaultProjectsClient) CreateProject(ctx context.Context, projectID, displayName, parentFolder string) error {
	req := &resourcemanagerpb.CreateProjectRequest{
		Project: &resourcemanagerpb.Project{
			ProjectId:   projectID,
			DisplayName: displayName,
			Parent:      parentFolder,
		},
	}

	op, err := c.client.CreateProject(ctx, req)
	if isAlreadyExists(err) {
		return nil
	}
	if err != nil {
		return wrapError("create project", err)
	}

	if _, err := op.Wait(ctx); err != nil {
		if isAlreadyExists(err) {
			return nil
		}
		return wrapError("wait for project creation", err)
	}
	return nil
}

func (c *defaultProjectsClient) GetProjectNumber(ctx context.Context, projectID string) (string, error) {
	project, err := c.client.GetProject(ctx, &resourcemanagerpb.GetProjectRequest{
		Name: "projects/" + projectID,
	})
	if err != nil {
		return "", wrapError("get project", err)
	}
	// The resource name of a fetched project is "projects/<number>".
	return strings.TrimPrefix(project.Name, "projects/"), nil
}

func (c *defaultProjectsClient) DeleteProject(ctx context.Context, projectID string) error {
	op, err := c.client.DeleteProject(ctx, &resourcemanagerpb.DeleteProjectRequest{
		Name: "projects/" + projectID,
	})
	// A deleted project answers 403, not 404, once it is gone from view.
	if isNotFound(err) || isPermissionDenied(err) {
		return nil
	}
	if err != nil {
		return wrapError("delete project", err)
	}

	if _, err := op.Wait(ctx); err != nil {
		return wrapError("wait for project deletion", err)
	}
	return nil
}

type defaultFoldersClient struct {
	client *resourcemanager.FoldersClient
}

func (c *defaultFoldersClient) CreateFolder(ctx context.Context, displayName, parent string) (string, error) {
	op, err := c.client.CreateFolder(ctx, &resourcemanagerpb.CreateFolderRequest{
		Folder: &resourcemanagerpb.Folder{
			DisplayName: displayName,
			Parent:      parent,
		},
	})
	if err != nil {
		return "", wrapError("create folder", err)
	}

	folder, err := op.Wait(ctx)
	if err != nil {
		return "", wrapError("wait for folder creation", err)
	}
	return folder.Name, nil
}

func (c *defaultFoldersClient) DeleteFolder(ctx context.Context, name string) error {
	op, err := c.client.DeleteFolder(ctx, &resourcemanagerpb.DeleteFolderRequest{Name: name})
	if isNotFound(err) {
		return nil
	}
	if err != nil {
		return wrapError("delete folder", err)
	}

	if _, err := op.Wait(ctx); err != nil {
		return wrapError("wait for folder deletion", err)
	}
	return nil
}

type defaultBillingClient struct {
	service *cloudbilling.APIService
}

func (c *defaultBillingClient) LinkBillingAccount(ctx context.Context, projectID, billingAccount string) error {
	info := &cloudbilling.ProjectBillingInfo{
		BillingAccountName: billingAccount,
	}

	_, err := c.service.Projects.UpdateBillingInfo("projects/"+projectID, info).
		Context(ctx).
		Do()
	if isPermissionDenied(err) {
		return &apperrors.BillingRequiredError{ProjectID: projectID, Cause: err}
	}
	return wrapError("link billing account", err)
}

type defaultProjectIAMClient struct {
	service *cloudresourcemanager.Service
}

func (c *defaultProjectIAMClient) GrantRoles(ctx context.Context, projectID, member string, roles []string) error {
	resource := "projects/" + projectID
	policy, err := c.service.Projects.GetIamPolicy(resource, &cloudresourcemanager.GetIamPolicyRequest{}).
		Context(ctx).
		Do()
	if err != nil {
		return wrapError("get project iam policy", err)
	}

	changed := false
	for _, role := range roles {
		if crmBindingExists(policy.Bindings, role, member) {
			continue
		}
		policy.Bindings = append(policy.Bindings, &cloudresourcemanager.Binding{
			Role:    role,
			Members: []string{member},
		})
		changed = true
	}
	if !changed {
		return nil
	}

	_, err = c.service.Projects.SetIamPolicy(
		resource,
		&cloudresourcemanager.SetIamPolicyRequest{Policy: policy},
	).Context(ctx).Do()
	return wrapError("set project iam policy", err)
}

type defaultServiceUsageClient struct {
	service *serviceusage.Service
}

func (c *defaultServiceUsageClient) EnableServices(ctx context.Context, projectID string, services []string) error {
	parent := "projects/" + projectID
	req := &serviceusage.BatchEnableServicesRequest{
		ServiceIds: services,
	}

	op, err := c.service.Services.BatchEnable(parent, req).Context(ctx).Do()
	if err != nil {
		return wrapError("batch enable services", err)
	}
	if op.Done {
		if op.Error != nil {
			return errors.New(op.Error.Message)
		}
		return nil
	}

	fetch := func(ctx context.Context) (OperationStatus, error) {
		polled, err := c.service.Operations.Get(op.Name).Context(ctx).Do()
		if err != nil {
			return OperationStatus{}, wrapError("poll service usage operation", err)
		}
		result := OperationStatus{Done: polled.Done}
		if polled.Error != nil {
			result.Err = errors.New(polled.Error.Message)
		}
		return result, nil
	}
	return PollOperation(ctx, op.Name, fetch, constants.OperationMaxRetries, constants.OperationPollInterval)
}

type defaultArtifactRegistryClient struct {
	service *artifactregistry.Service
}

func (c *defaultArtifactRegistryClient) CreateDockerRepository(ctx context.Context, projectID, location, repoID string) error {
	parent := fmt.Sprintf("projects/%s/locations/%s", projectID, location)
	repo := &artifactregistry.Repository{
		Format: "DOCKER",
	}

	op, err := c.service.Projects.Locations.Repositories.Create(parent, repo).
		RepositoryId(repoID).
		Context(ctx).
		Do()
	if isAlreadyExists(err) {
		return nil
	}
	if err != nil {
		return wrapError("create artifact registry repository", err)
	}

	fetch := func(ctx context.Context) (OperationStatus, error) {
		polled, err := c.service.Projects.Locations.Operations.Get(op.Name).Context(ctx).Do()
		if err != nil {
			return OperationStatus{}, wrapError("poll artifact registry operation", err)
		}
		result := OperationStatus{Done: polled.Done}
		if polled.Error != nil {
			result.Err = errors.New(polled.Error.Message)
		}
		return result, nil
	}
	return PollOperation(ctx, op.Name, fetch, constants.OperationMaxRetries, constants.OperationPollInterval)
}

type defaultFirebaseClient struct {
	service *firebase.Service
}

func (c *defaultFirebaseClient) EnableFirebase(ctx context.Context, projectID string) error {
	op, err := c.service.Projects.AddFirebase("projects/"+projectID, &firebase.AddFirebaseRequest{}).
		Context(ctx).
		Do()
	if isAlreadyExists(err) {
		return nil
	}
	if err != nil {
		return wrapError("add firebase", err)
	}
	if op.Done {
		if op.Error != nil {
			return errors.New(op.Error.Message)
		}
		return nil
	}

	fetch := func(ctx context.Context) (OperationStatus, error) {
		polled, err := c.service.Operations.Get(op.Name).Context(ctx).Do()
		if err != nil {
			return OperationStatus{}, wrapError("poll firebase operation", err)
		}
		var opErr error
		if polled.Error != nil {
			opErr = errors.New(polled.Error.Message)
		}
		return OperationStatus{Done: polled.Done, Err: opErr}, nil
	}
	return PollOperation(ctx, op.Name, fetch, constants.OperationMaxRetries, constants.OperationPollInterval)
}

type defaultServiceAccountsClient struct {
	service *iam.Service
}

func (c *defaultServiceAccountsClient) CreateServiceAccount(ctx context.Context, projectID, accountID, displayName string) (string, error) {
	email := fmt.Sprintf("%s@%s.iam.gserviceaccount.com", accountID, projectID)

	req := &iam.CreateServiceAccountRequest{
		AccountId: accountID,
		ServiceAccount: &iam.ServiceAccount{
			DisplayName: displayName,
		},
	}

	sa, err := c.service.Projects.ServiceAccounts.Create("projects/"+projectID, req).
		Context(ctx).
		Do()
	if isAlreadyExists(err) {
		return email, nil
	}
	if err != nil {
		return "", wrapError("create service account", err)
	}
	return sa.Email, nil
}

func (c *defaultServiceAccountsClient) GrantAccountRole(ctx context.Context, projectID, accountEmail, member, role string) error {
	resource := fmt.Sprintf("projects/%s/serviceAccounts/%s", projectID, accountEmail)
	policy, err := c.service.Projects.ServiceAccounts.GetIamPolicy(resource).
		Context(ctx).
		Do()
	if err != nil {
		return wrapError("get service account iam policy", err)
	}

	if saBindingExists(policy.Bindings, role, member) {
		return nil
	}
	policy.Bindings = append(policy.Bindings, &iam.Binding{
		Role:    role,
		Members: []string{member},
	})

	_, err = c.service.Projects.ServiceAccounts.SetIamPolicy(
		resource,
		&iam.SetIamPolicyRequest{Policy: policy},
	).Context(ctx).Do()
	return wrapError("set service account iam policy", err)
}

type defaultWorkloadIdentityClient struct {
	service *iam.Service
}

func (c *defaultWorkloadIdentityClient) CreatePool(ctx context.Context, projectID, poolID string) error {
	parent := fmt.Sprintf("projects/%s/locations/global", projectID)
	pool := &iam.WorkloadIdentityPool{
		DisplayName: "GitHub Actions",
	}

	op, err := c.service.Projects.Locations.WorkloadIdentityPools.Create(parent, pool).
		WorkloadIdentityPoolId(poolID).
		Context(ctx).
		Do()
	if isAlreadyExists(err) {
		return nil
	}
	if err != nil {
		return wrapError("create workload identity pool", err)
	}
	return c.waitForOperation(ctx, op.Name)
}

func (c *defaultWorkloadIdentityClient) CreateProvider(ctx context.Context, projectID, poolID, providerID, attributeCondition string) error {
	parent := fmt.Sprintf("projects/%s/locations/global/workloadIdentityPools/%s", projectID, poolID)
	provider := &iam.WorkloadIdentityPoolProvider{
		DisplayName: "GitHub",
		Oidc: &iam.Oidc{
			IssuerUri: githubOIDCIssuer,
		},
		AttributeMapping: map[string]string{
			"google.subject":       "assertion.sub",
			"attribute.repository": "assertion.repository",
		},
		AttributeCondition: attributeCondition,
	}

	op, err := c.service.Projects.Locations.WorkloadIdentityPools.Providers.Create(parent, provider).
		WorkloadIdentityPoolProviderId(providerID).
		Context(ctx).
		Do()
	if isAlreadyExists(err) {
		return nil
	}
	if err != nil {
		return wrapError("create workload identity provider", err)
	}
	return c.waitForOperation(ctx, op.Name)
}

func (c *defaultWorkloadIdentityClient) waitForOperation(ctx context.Context, name string) error {
	fetch := func(ctx context.Context) (OperationStatus, error) {
		polled, err := c.service.Projects.Locations.WorkloadIdentityPools.Operations.Get(name).
			Context(ctx).
			Do()
		if err != nil {
			return OperationStatus{}, wrapError("poll workload identity operation", err)
		}
		// Workload identity pool operations carry no error payload; a failed
		// create surfaces on the poll call itself.
		return OperationStatus{Done: polled.Done}, nil
	}
	return PollOperation(ctx, name, fetch, constants.OperationMaxRetries, constants.OperationPollInterval)
}

type defaultCloudRunClient struct {
	service *run.Service
}

func (c *defaultCloudRunClient) parent(projectID, region string) string {
	return fmt.Sprintf("projects/%s/locations/%s", projectID, region)
}

func (c *defaultCloudRunClient) serviceName(projectID, region, serviceName string) string {
	return fmt.Sprintf("%s/services/%s", c.parent(projectID, region), serviceName)
}

func (c *defaultCloudRunClient) CreateService(ctx context.Context, projectID, region, serviceName, image, serviceAccount string) error {
	runService := &run.GoogleCloudRunV2Service{
		Template: &run.GoogleCloudRunV2RevisionTemplate{
			Containers: []*run.GoogleCloudRunV2Container{
				{Image: image},
			},
			ServiceAccount: serviceAccount,
		},
	}

	op, err := c.service.Projects.Locations.Services.Create(c.parent(projectID, region), runService).
		ServiceId(serviceName).
		Context(ctx).
		Do()
	if isAlreadyExists(err) {
		return nil
	}
	if err != nil {
		return wrapError("create cloud run service", err)
	}

	fetch := func(ctx context.Context) (OperationStatus, error) {
		polled, err := c.service.Projects.Locations.Operations.Get(op.Name).Context(ctx).Do()
		if err != nil {
			return OperationStatus{}, wrapError("poll cloud run operation", err)
		}
		result := OperationStatus{Done: polled.Done}
		if polled.Error != nil {
			result.Err = errors.New(polled.Error.Message)
		}
		return result, nil
	}
	return PollOperation(ctx, op.Name, fetch, constants.OperationMaxRetries, constants.OperationPollInterval)
}

func (c *defaultCloudRunClient) AllowInvocation(ctx context.Context, projectID, region, serviceName string, members []string) error {
	resource := c.serviceName(projectID, region, serviceName)
	policy, err := c.service.Projects.Locations.Services.GetIamPolicy(resource).
		Context(ctx).
		Do()
	if err != nil {
		return wrapError("get cloud run iam policy", err)
	}

	const invokerRole = "roles/run.invoker"
	changed := false
	for _, member := range members {
		if runBindingExists(policy.Bindings, invokerRole, member) {
			continue
		}
		policy.Bindings = append(policy.Bindings, &run.GoogleIamV1Binding{
			Role:    invokerRole,
			Members: []string{member},
		})
		changed = true
	}
	if !changed {
		return nil
	}

	_, err = c.service.Projects.Locations.Services.SetIamPolicy(
		resource,
		&run.GoogleIamV1SetIamPolicyRequest{Policy: policy},
	).Context(ctx).Do()
	return wrapError("set cloud run iam policy", err)
}

type defaultHostingClient struct {
	service *firebasehosting.Service
}

func (c *defaultHostingClient) CreateSite(ctx context.Context, projectID, siteID string) error {
	_, err := c.service.Projects.Sites.Create("projects/"+projectID, &firebasehosting.Site{}).
		SiteId(siteID).
		Context(ctx).
		Do()
	if isAlreadyExists(err) {
		return nil
	}
	return wrapError("create hosting site", err)
}

func wrapError(action string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", action, err)
}

func crmBindingExists(bindings []*cloudresourcemanager.Binding, role, member string) bool {
	for _, b := range bindings {
		if b.Role == role && slices.Contains(b.Members, member) {
			return true
		}
	}
	return false
}

func saBindingExists(bindings []*iam.Binding, role, member string) bool {
	for _, b := range bindings {
		if b.Role == role && slices.Contains(b.Members, member) {
			return true
		}
	}
	return false
}

func runBindingExists(bindings []*run.GoogleIamV1Binding, role, member string) bool {
	for _, b := range bindings {
		if b.Role == role && slices.Contains(b.Members, member) {
			return true
		}
	}
	return false
}

func isNotFound(err error) bool {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusNotFound
	}
	return status.Code(err) == codes.NotFound
}

func isAlreadyExists(err error) bool {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusConflict
	}
	return status.Code(err) == codes.AlreadyExists
}

func isPermissionDenied(err error) bool {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusForbidden
	}
	return status.Code(err) == codes.PermissionDenied
}
