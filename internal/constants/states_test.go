package constants

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFailureStateFor(t *testing.T) {
	tests := []struct {
		stage    ProjectState
		expected ProjectState
	}{
		{StatePendingGCP, StateFailedGCP},
		{StateProvisioningGCP, StateFailedGCP},
		{StatePendingGitHub, StateFailedGitHub},
		{StateProvisioningGitHub, StateFailedGitHub},
		{StatePendingSecrets, StateFailedSecrets},
		{StateInjectingSecrets, StateFailedSecrets},
		// Unknown stages never reclassify the error as a later stage's.
		{StateReady, StateFailedGCP},
		{ProjectState("bogus"), StateFailedGCP},
	}

	for _, tt := range tests {
		t.Run(string(tt.stage), func(t *testing.T) {
			assert.Equal(t, tt.expected, FailureStateFor(tt.stage))
		})
	}
}

func TestValidProjectStatesIsClosedUnderTransitions(t *testing.T) {
	valid := make(map[ProjectState]bool)
	for _, state := range ValidProjectStates() {
		assert.False(t, valid[state], "duplicate state %q", state)
		valid[state] = true
	}

	// Every stage the failure table knows, and every failure state it can
	// produce, is a member of the defined set.
	for stage, failed := range failureStates {
		assert.True(t, valid[stage], "stage %q not in the defined set", stage)
		assert.True(t, valid[failed], "failure state %q not in the defined set", failed)
	}

	// In-flight states are a subset of the defined set.
	for state := range inFlightStates {
		assert.True(t, valid[state], "in-flight state %q not in the defined set", state)
	}
}

func TestIsInFlight(t *testing.T) {
	inFlight := []ProjectState{
		StateProvisioningGCP, StateProvisioningGitHub, StateInjectingSecrets, StateDeleting,
	}
	for _, state := range inFlight {
		assert.True(t, IsInFlight(state), "%q should be in flight", state)
	}

	atRest := []ProjectState{
		StatePendingGCP, StatePendingGitHub, StatePendingSecrets,
		StateReady, StatePendingBilling,
		StateFailedGCP, StateFailedGitHub, StateFailedSecrets,
		StateDeleteFailed,
	}
	for _, state := range atRest {
		assert.False(t, IsInFlight(state), "%q should be at rest", state)
	}
}
