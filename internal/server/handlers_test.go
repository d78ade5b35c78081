package server

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/wizbi/wizbi/internal/api"
	"github.com/wizbi/wizbi/internal/app"
	"github.com/wizbi/wizbi/internal/config"
	"github.com/wizbi/wizbi/internal/constants"
	"github.com/wizbi/wizbi/internal/gcp"
	"github.com/wizbi/wizbi/internal/github"
)

// Test fakes for the repositories and provisioners behind app.Service.
// Each method delegates to an optional func field so individual tests can
// program just the calls they care about.

type testProjectRepo struct {
	createFunc func(project *api.Project) error
	getFunc    func(projectID string) (*api.Project, error)
	listFunc   func() ([]*api.Project, error)
	beginFunc  func(projectID string) error
	deleteFunc func(projectID string) error
	anyFunc    func(orgID string) (bool, error)
}

func (t *testProjectRepo) CreateProject(_ context.Context, project *api.Project) error {
	if t.createFunc != nil {
		return t.createFunc(project)
	}
	return nil
}

func (t *testProjectRepo) GetProject(_ context.Context, projectID string) (*api.Project, error) {
	if t.getFunc != nil {
		return t.getFunc(projectID)
	}
	return nil, nil
}

func (t *testProjectRepo) ListProjects(_ context.Context) ([]*api.Project, error) {
	if t.listFunc != nil {
		return t.listFunc()
	}
	return nil, nil
}

func (t *testProjectRepo) SetState(_ context.Context, _ string, _ constants.ProjectState, _ string) error {
	return nil
}

func (t *testProjectRepo) BeginProvisioning(_ context.Context, projectID string, _ constants.ProjectState) error {
	if t.beginFunc != nil {
		return t.beginFunc(projectID)
	}
	return nil
}

func (t *testProjectRepo) SetProvisioningResult(_ context.Context, _ string, _ map[string]any) error {
	return nil
}

func (t *testProjectRepo) AddLink(_ context.Context, _ string, _ api.Link) error {
	return nil
}

func (t *testProjectRepo) DeleteProject(_ context.Context, projectID string) error {
	if t.deleteFunc != nil {
		return t.deleteFunc(projectID)
	}
	return nil
}

func (t *testProjectRepo) AnyProjectInOrganization(_ context.Context, orgID string) (bool, error) {
	if t.anyFunc != nil {
		return t.anyFunc(orgID)
	}
	return false, nil
}

type testOrgRepo struct {
	createFunc func(org *api.Organization) error
	getFunc    func(orgID string) (*api.Organization, error)
	listFunc   func() ([]*api.Organization, error)
}

func (t *testOrgRepo) CreateOrganization(_ context.Context, org *api.Organization) error {
	if t.createFunc != nil {
		return t.createFunc(org)
	}
	return nil
}

func (t *testOrgRepo) GetOrganization(_ context.Context, orgID string) (*api.Organization, error) {
	if t.getFunc != nil {
		return t.getFunc(orgID)
	}
	return nil, nil
}

func (t *testOrgRepo) ListOrganizations(_ context.Context) ([]*api.Organization, error) {
	if t.listFunc != nil {
		return t.listFunc()
	}
	return nil, nil
}

func (t *testOrgRepo) SetState(_ context.Context, _ string, _ constants.OrganizationState, _ string) error {
	return nil
}

func (t *testOrgRepo) DeleteOrganization(_ context.Context, _ string) error {
	return nil
}

type testEventRepo struct {
	listFunc func(projectID string) ([]*api.Event, error)
}

func (t *testEventRepo) Append(_ context.Context, _ string, _ *api.Event) error {
	return nil
}

func (t *testEventRepo) ListEvents(_ context.Context, projectID string) ([]*api.Event, error) {
	if t.listFunc != nil {
		return t.listFunc(projectID)
	}
	return nil, nil
}

func (t *testEventRepo) DeleteAll(_ context.Context, _ string) error {
	return nil
}

type testJobRepo struct {
	enqueued []*api.Job
}

func (t *testJobRepo) Enqueue(_ context.Context, job *api.Job) error {
	t.enqueued = append(t.enqueued, job)
	return nil
}

func (t *testJobRepo) ClaimNext(_ context.Context, _ string) (*api.Job, error) {
	return nil, nil
}

func (t *testJobRepo) Complete(_ context.Context, _ string, _ string) error {
	return nil
}

type testCloudProvisioner struct{}

func (t *testCloudProvisioner) ProvisionInfrastructure(_ context.Context, projectID, _, _ string) (*gcp.ProvisionResult, error) {
	return &gcp.ProvisionResult{ProjectID: projectID}, nil
}

func (t *testCloudProvisioner) CreateFolder(_ context.Context, _, _ string) (string, error) {
	return "folders/42", nil
}

func (t *testCloudProvisioner) DeleteFolder(_ context.Context, _ string) error {
	return nil
}

func (t *testCloudProvisioner) DeleteProject(_ context.Context, _ string) error {
	return nil
}

type testRepoProvisioner struct {
	createTemplateFunc func(name, description string) (string, error)
}

func (t *testRepoProvisioner) CreateRepoFromTemplate(_ context.Context, repoName, _, _ string, _ github.TemplateData) (string, error) {
	return "https://github.com/wizbi/" + repoName, nil
}

func (t *testRepoProvisioner) CreateTemplate(_ context.Context, name, description, _ string) (string, error) {
	if t.createTemplateFunc != nil {
		return t.createTemplateFunc(name, description)
	}
	return "https://github.com/wizbi/" + name, nil
}

func (t *testRepoProvisioner) CreateRepoSecrets(_ context.Context, _ string, _ map[string][]byte) error {
	return nil
}

func (t *testRepoProvisioner) TriggerDeployment(_ context.Context, _ string) {}

func (t *testRepoProvisioner) CreateTeam(_ context.Context, _, slug string) (int64, string, error) {
	return 7, slug, nil
}

func (t *testRepoProvisioner) DeleteTeam(_ context.Context, _ string) error {
	return nil
}

func (t *testRepoProvisioner) DeleteRepo(_ context.Context, _ string) error {
	return nil
}

type testSecretSource struct{}

func (t *testSecretSource) Get(_ context.Context, _ string) ([]byte, error) {
	return []byte("secret"), nil
}

type testDeps struct {
	projects *testProjectRepo
	orgs     *testOrgRepo
	events   *testEventRepo
	jobs     *testJobRepo
	repos    *testRepoProvisioner
}

func newTestDeps() *testDeps {
	return &testDeps{
		projects: &testProjectRepo{},
		orgs:     &testOrgRepo{},
		events:   &testEventRepo{},
		jobs:     &testJobRepo{},
		repos:    &testRepoProvisioner{},
	}
}

func newTestRouter(t testing.TB, deps *testDeps) *Router {
	t.Helper()

	cfg := &config.Config{
		GCPRegion:        "europe-west1",
		RootFolderID:     "folders/1",
		GitHubOwner:      "wizbi",
		BaseTemplateRepo: "tpl-base",
	}
	svc := app.NewService(
		deps.projects,
		deps.orgs,
		deps.events,
		deps.jobs,
		&testCloudProvisioner{},
		deps.repos,
		&testSecretSource{},
		cfg,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
	return NewRouter(svc)
}

func readyProject(projectID string) *api.Project {
	return &api.Project{
		ID:             projectID,
		DisplayName:    "web",
		OrganizationID: "acme",
		Template:       "tpl-webapp",
		State:          constants.StateReady,
		CreatedAt:      time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}
