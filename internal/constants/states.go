package constants

// ProjectState is the persisted lifecycle state of a project saga.
type ProjectState string

const (
	// Forward path.
	StatePendingGCP         ProjectState = "pending_gcp"
	StateProvisioningGCP    ProjectState = "provisioning_gcp"
	StatePendingGitHub      ProjectState = "pending_github"
	StateProvisioningGitHub ProjectState = "provisioning_github"
	StatePendingSecrets     ProjectState = "pending_secrets"
	StateInjectingSecrets   ProjectState = "injecting_secrets"
	StateReady              ProjectState = "ready"

	// Side branches.
	StatePendingBilling ProjectState = "pending_billing"
	StateFailedGCP      ProjectState = "failed_gcp"
	StateFailedGitHub   ProjectState = "failed_github"
	StateFailedSecrets  ProjectState = "failed_secrets"

	// Teardown.
	StateDeleting     ProjectState = "deleting"
	StateDeleteFailed ProjectState = "delete_failed"
)

// OrganizationState is the persisted lifecycle state of an organization.
type OrganizationState string

const (
	OrgActive       OrganizationState = "active"
	OrgDeleting     OrganizationState = "deleting"
	OrgDeleteFailed OrganizationState = "delete_failed"
)

// failureStates maps each saga stage to the failure state recorded when an
// unclassified error occurs in that stage. An explicit table is used instead
// of deriving the suffix from the state string.
var failureStates = map[ProjectState]ProjectState{
	StatePendingGCP:         StateFailedGCP,
	StateProvisioningGCP:    StateFailedGCP,
	StatePendingGitHub:      StateFailedGitHub,
	StateProvisioningGitHub: StateFailedGitHub,
	StatePendingSecrets:     StateFailedSecrets,
	StateInjectingSecrets:   StateFailedSecrets,
}

// FailureStateFor returns the failure state for the stage the saga was in
// when the error occurred. Unknown stages fall back to failed_gcp, the
// earliest stage, so the error is never silently reclassified as a later one.
func FailureStateFor(current ProjectState) ProjectState {
	if failed, ok := failureStates[current]; ok {
		return failed
	}
	return StateFailedGCP
}

// inFlightStates are the states in which a provisioning attempt is running.
// A re-trigger while in one of these states is rejected with a conflict.
var inFlightStates = map[ProjectState]bool{
	StateProvisioningGCP:    true,
	StateProvisioningGitHub: true,
	StateInjectingSecrets:   true,
	StateDeleting:           true,
}

// IsInFlight reports whether state indicates a saga attempt in progress.
func IsInFlight(state ProjectState) bool {
	return inFlightStates[state]
}

// ValidProjectStates returns every state a project document may carry.
func ValidProjectStates() []ProjectState {
	return []ProjectState{
		StatePendingGCP, StateProvisioningGCP,
		StatePendingGitHub, StateProvisioningGitHub,
		StatePendingSecrets, StateInjectingSecrets,
		StateReady,
		StatePendingBilling,
		StateFailedGCP, StateFailedGitHub, StateFailedSecrets,
		StateDeleting, StateDeleteFailed,
	}
}
