package app

import (
	"context"
	"log/slog"
	"sync"

	"github.com/wizbi/wizbi/internal/api"
	"github.com/wizbi/wizbi/internal/config"
	"github.com/wizbi/wizbi/internal/constants"
	apperrors "github.com/wizbi/wizbi/internal/errors"
	"github.com/wizbi/wizbi/internal/gcp"
	"github.com/wizbi/wizbi/internal/github"
)

type fakeProjectRepo struct {
	mu       sync.Mutex
	projects map[string]*api.Project
}

func newFakeProjectRepo() *fakeProjectRepo {
	return &fakeProjectRepo{projects: make(map[string]*api.Project)}
}

func (r *fakeProjectRepo) CreateProject(_ context.Context, project *api.Project) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.projects[project.ID]; ok {
		return apperrors.ErrConflict("project already exists", nil)
	}
	clone := *project
	r.projects[project.ID] = &clone
	return nil
}

func (r *fakeProjectRepo) GetProject(_ context.Context, projectID string) (*api.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	project, ok := r.projects[projectID]
	if !ok {
		return nil, nil
	}
	clone := *project
	return &clone, nil
}

func (r *fakeProjectRepo) ListProjects(_ context.Context) ([]*api.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*api.Project{}
	for _, p := range r.projects {
		clone := *p
		out = append(out, &clone)
	}
	return out, nil
}

func (r *fakeProjectRepo) SetState(_ context.Context, projectID string, state constants.ProjectState, errMsg string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	project, ok := r.projects[projectID]
	if !ok {
		return apperrors.ErrNotFound("project not found", nil)
	}
	project.State = state
	project.Error = errMsg
	return nil
}

func (r *fakeProjectRepo) BeginProvisioning(_ context.Context, projectID string, initial constants.ProjectState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	project, ok := r.projects[projectID]
	if !ok {
		return apperrors.ErrNotFound("project not found", nil)
	}
	if constants.IsInFlight(project.State) {
		return apperrors.ErrConflict("provisioning already in progress", nil)
	}
	project.State = initial
	project.Error = ""
	return nil
}

func (r *fakeProjectRepo) SetProvisioningResult(_ context.Context, projectID string, fields map[string]any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	project, ok := r.projects[projectID]
	if !ok {
		return apperrors.ErrNotFound("project not found", nil)
	}
	for path, value := range fields {
		s, _ := value.(string)
		switch path {
		case "gcpProjectId":
			project.GCPProjectID = s
		case "gcpProjectNumber":
			project.GCPProjectNumber = s
		case "deployerServiceAccount":
			project.DeployerEmail = s
		case "wifProviderName":
			project.WIFProviderName = s
		case "githubRepoUrl":
			project.RepoURL = s
		}
	}
	return nil
}

func (r *fakeProjectRepo) AddLink(_ context.Context, projectID string, link api.Link) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	project, ok := r.projects[projectID]
	if !ok {
		return apperrors.ErrNotFound("project not found", nil)
	}
	for _, existing := range project.Links {
		if existing == link {
			return nil
		}
	}
	project.Links = append(project.Links, link)
	return nil
}

func (r *fakeProjectRepo) DeleteProject(_ context.Context, projectID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.projects, projectID)
	return nil
}

func (r *fakeProjectRepo) AnyProjectInOrganization(_ context.Context, orgID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.projects {
		if p.OrganizationID == orgID {
			return true, nil
		}
	}
	return false, nil
}

type fakeOrgRepo struct {
	mu   sync.Mutex
	orgs map[string]*api.Organization
}

func newFakeOrgRepo() *fakeOrgRepo {
	return &fakeOrgRepo{orgs: make(map[string]*api.Organization)}
}

func (r *fakeOrgRepo) CreateOrganization(_ context.Context, org *api.Organization) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orgs[org.ID]; ok {
		return apperrors.ErrConflict("organization already exists", nil)
	}
	clone := *org
	r.orgs[org.ID] = &clone
	return nil
}

func (r *fakeOrgRepo) GetOrganization(_ context.Context, orgID string) (*api.Organization, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	org, ok := r.orgs[orgID]
	if !ok {
		return nil, nil
	}
	clone := *org
	return &clone, nil
}

func (r *fakeOrgRepo) ListOrganizations(_ context.Context) ([]*api.Organization, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*api.Organization{}
	for _, o := range r.orgs {
		clone := *o
		out = append(out, &clone)
	}
	return out, nil
}

func (r *fakeOrgRepo) SetState(_ context.Context, orgID string, state constants.OrganizationState, errMsg string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	org, ok := r.orgs[orgID]
	if !ok {
		return apperrors.ErrNotFound("organization not found", nil)
	}
	org.State = state
	org.Error = errMsg
	return nil
}

func (r *fakeOrgRepo) DeleteOrganization(_ context.Context, orgID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.orgs, orgID)
	return nil
}

type fakeEventRepo struct {
	mu     sync.Mutex
	events map[string][]*api.Event
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{events: make(map[string][]*api.Event)}
}

func (r *fakeEventRepo) Append(_ context.Context, projectID string, event *api.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *event
	r.events[projectID] = append(r.events[projectID], &clone)
	return nil
}

func (r *fakeEventRepo) ListEvents(_ context.Context, projectID string) ([]*api.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*api.Event{}, r.events[projectID]...), nil
}

func (r *fakeEventRepo) DeleteAll(_ context.Context, projectID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.events, projectID)
	return nil
}

func (r *fakeEventRepo) names(projectID string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []string{}
	for _, e := range r.events[projectID] {
		out = append(out, e.Name)
	}
	return out
}

type fakeJobRepo struct {
	mu   sync.Mutex
	jobs []*api.Job
}

func (r *fakeJobRepo) Enqueue(_ context.Context, job *api.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *job
	r.jobs = append(r.jobs, &clone)
	return nil
}

func (r *fakeJobRepo) ClaimNext(_ context.Context, workerID string) (*api.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, job := range r.jobs {
		if job.Status == api.JobPending {
			job.Status = api.JobClaimed
			job.ClaimedBy = workerID
			clone := *job
			return &clone, nil
		}
	}
	return nil, nil
}

func (r *fakeJobRepo) Complete(_ context.Context, jobID string, errMsg string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, job := range r.jobs {
		if job.ID == jobID {
			if errMsg == "" {
				job.Status = api.JobDone
			} else {
				job.Status = api.JobFailed
				job.Error = errMsg
			}
			return nil
		}
	}
	return apperrors.ErrNotFound("job not found", nil)
}

type fakeCloud struct {
	mu              sync.Mutex
	provisionErr    error
	deleteErr       error
	folderErr       error
	provisioned     []string
	deletedProjects []string
	deletedFolders  []string
	createdFolders  []string
}

func (c *fakeCloud) ProvisionInfrastructure(_ context.Context, projectID, _, _ string) (*gcp.ProvisionResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.provisionErr != nil {
		return nil, c.provisionErr
	}
	c.provisioned = append(c.provisioned, projectID)
	return &gcp.ProvisionResult{
		ProjectID:       projectID,
		ProjectNumber:   "123456789",
		DeployerEmail:   "deployer@" + projectID + ".iam.gserviceaccount.com",
		WIFProviderName: "projects/123456789/locations/global/workloadIdentityPools/github-actions/providers/github",
	}, nil
}

func (c *fakeCloud) CreateFolder(_ context.Context, displayName, _ string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.folderErr != nil {
		return "", c.folderErr
	}
	c.createdFolders = append(c.createdFolders, displayName)
	return "folders/42", nil
}

func (c *fakeCloud) DeleteFolder(_ context.Context, name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deletedFolders = append(c.deletedFolders, name)
	return nil
}

func (c *fakeCloud) DeleteProject(_ context.Context, projectID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.deleteErr != nil {
		return c.deleteErr
	}
	c.deletedProjects = append(c.deletedProjects, projectID)
	return nil
}

type fakeRepoProvisioner struct {
	mu            sync.Mutex
	createRepoErr error
	secretsErr    error
	createdRepos  []string
	secrets       map[string][]byte
	triggered     []string
	deletedRepos  []string
	deletedTeams  []string
	createdTeams  []string
	templateData  []github.TemplateData
}

func (r *fakeRepoProvisioner) CreateRepoFromTemplate(_ context.Context, repoName, _, _ string, data github.TemplateData) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createRepoErr != nil {
		return "", r.createRepoErr
	}
	r.createdRepos = append(r.createdRepos, repoName)
	r.templateData = append(r.templateData, data)
	return "https://github.com/wizbi/" + repoName, nil
}

func (r *fakeRepoProvisioner) CreateTemplate(_ context.Context, name, _, _ string) (string, error) {
	return "https://github.com/wizbi/" + name, nil
}

func (r *fakeRepoProvisioner) CreateRepoSecrets(_ context.Context, _ string, values map[string][]byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.secretsErr != nil {
		return r.secretsErr
	}
	r.secrets = values
	return nil
}

func (r *fakeRepoProvisioner) TriggerDeployment(_ context.Context, repoName string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.triggered = append(r.triggered, repoName)
}

func (r *fakeRepoProvisioner) CreateTeam(_ context.Context, name, slug string) (int64, string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.createdTeams = append(r.createdTeams, name)
	return 7, slug, nil
}

func (r *fakeRepoProvisioner) DeleteTeam(_ context.Context, slug string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deletedTeams = append(r.deletedTeams, slug)
	return nil
}

func (r *fakeRepoProvisioner) DeleteRepo(_ context.Context, repoName string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deletedRepos = append(r.deletedRepos, repoName)
	return nil
}

type fakeSecretSource struct {
	values map[string][]byte
	err    error
}

func (s *fakeSecretSource) Get(_ context.Context, name string) ([]byte, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.values[name], nil
}

type testHarness struct {
	service  *Service
	projects *fakeProjectRepo
	orgs     *fakeOrgRepo
	events   *fakeEventRepo
	jobs     *fakeJobRepo
	cloud    *fakeCloud
	repos    *fakeRepoProvisioner
}

func newTestHarness() *testHarness {
	projects := newFakeProjectRepo()
	orgs := newFakeOrgRepo()
	events := newFakeEventRepo()
	jobs := &fakeJobRepo{}
	cloud := &fakeCloud{}
	repos := &fakeRepoProvisioner{}
	secrets := &fakeSecretSource{values: map[string][]byte{
		"DEPLOY_KEY": []byte("deploy-key-material"),
	}}

	cfg := &config.Config{
		GCPRegion:         "europe-west1",
		RootFolderID:      "folders/1",
		GitHubOwner:       "wizbi",
		BaseTemplateRepo:  "tpl-base",
		DeploySecretNames: []string{"DEPLOY_KEY"},
	}

	service := NewService(projects, orgs, events, jobs, cloud, repos, secrets, cfg, slog.Default())

	return &testHarness{
		service:  service,
		projects: projects,
		orgs:     orgs,
		events:   events,
		jobs:     jobs,
		cloud:    cloud,
		repos:    repos,
	}
}

func (h *testHarness) seedOrg() *api.Organization {
	org := &api.Organization{
		ID:             "acme",
		Name:           "Acme",
		GCPFolderID:    "folders/42",
		GitHubTeamID:   7,
		GitHubTeamSlug: "acme",
		State:          constants.OrgActive,
	}
	_ = h.orgRepoCreate(org)
	return org
}

func (h *testHarness) orgRepoCreate(org *api.Organization) error {
	return h.orgs.CreateOrganization(context.Background(), org)
}

func (h *testHarness) seedProject(state constants.ProjectState) *api.Project {
	project := &api.Project{
		ID:             "wizbi-acme-web",
		DisplayName:    "Web",
		OrganizationID: "acme",
		Template:       "tpl-webapp",
		State:          state,
	}
	_ = h.projects.CreateProject(context.Background(), project)
	return project
}
