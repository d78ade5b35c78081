package constants

import "time"

// Branches configured on every tenant repository.
const (
	MainBranch = "main"
	DevBranch  = "dev"
)

// Placeholder tokens rewritten inside template repositories.
const (
	PlaceholderProjectID   = "{{PROJECT_ID}}"
	PlaceholderDisplayName = "{{PROJECT_DISPLAY_NAME}}"
	PlaceholderRegion      = "{{GCP_REGION}}"
	PlaceholderRepoURL     = "{{GITHUB_REPO_URL}}"
)

// TemplatedFiles are the files rewritten on both branches after a repository
// is instantiated from a template. Missing files are tolerated.
var TemplatedFiles = []string{
	".github/workflows/deploy.yml",
	"README.md",
	"infra/config.yaml",
	"package.json",
}

// DeployWorkflowFile is the workflow dispatched for the first deployment.
const DeployWorkflowFile = "deploy.yml"

// Repository readiness polling. A repository created from a template is not
// immediately readable; the main ref is polled until it resolves.
const (
	RepoReadyMaxAttempts = 20
	RepoReadyDelay       = 3 * time.Second
)

// TeamAdminPermission is granted to the organization team on new repos.
const TeamAdminPermission = "admin"
