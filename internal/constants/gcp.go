package constants

import "time"

// DefaultRegion is the region used for regional GCP resources.
const DefaultRegion = "europe-west1"

// RequiredServices are batch-enabled on every tenant project.
var RequiredServices = []string{
	"cloudbilling.googleapis.com",
	"cloudresourcemanager.googleapis.com",
	"iam.googleapis.com",
	"iamcredentials.googleapis.com",
	"sts.googleapis.com",
	"artifactregistry.googleapis.com",
	"run.googleapis.com",
	"firebase.googleapis.com",
	"firebasehosting.googleapis.com",
	"secretmanager.googleapis.com",
}

// ProvisionerRoles are granted to the provisioning identity on each new
// project so the remaining steps can run.
var ProvisionerRoles = []string{
	"roles/owner",
	"roles/serviceusage.serviceUsageAdmin",
	"roles/iam.serviceAccountAdmin",
	"roles/run.admin",
}

// DeployerRoles are granted to the deployer service account after creation.
var DeployerRoles = []string{
	"roles/run.admin",
	"roles/artifactregistry.writer",
	"roles/firebasehosting.admin",
	"roles/iam.serviceAccountUser",
	"roles/secretmanager.secretAccessor",
}

// Service-account IDs created on every tenant project.
const (
	InvokerAccountID  = "invoker"
	DeployerAccountID = "deployer"
)

// Cloud Run placeholder services deployed during provisioning.
const (
	PrimaryServiceName = "app"
	QAServiceName      = "app-qa"
)

// PlaceholderImage is the image the placeholder Cloud Run services run until
// the first real deployment replaces them.
const PlaceholderImage = "us-docker.pkg.dev/cloudrun/container/hello"

// ArtifactRepoID is the Docker repository created in Artifact Registry.
const ArtifactRepoID = "containers"

// Workload identity federation identifiers.
const (
	WIFPoolID     = "github-actions"
	WIFProviderID = "github"
)

// Operation polling and propagation settling.
const (
	OperationPollInterval = 5 * time.Second
	OperationMaxRetries   = 60
	IAMSettleDelay        = 20 * time.Second
	AccountSettleDelay    = 10 * time.Second
)

// BillingConsoleURLFormat builds the remediation URL surfaced to operators
// when billing could not be linked. The verb takes the project ID.
const BillingConsoleURLFormat = "https://console.cloud.google.com/billing/linkedaccount?project=%s"
