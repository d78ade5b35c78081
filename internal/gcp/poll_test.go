package gcp

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/wizbi/wizbi/internal/errors"
)

func TestPollOperationSucceeds(t *testing.T) {
	calls := 0
	fetch := func(context.Context) (OperationStatus, error) {
		calls++
		return OperationStatus{Done: calls == 3}, nil
	}

	err := PollOperation(context.Background(), "op-1", fetch, 10, time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestPollOperationExactRetryBudget(t *testing.T) {
	calls := 0
	fetch := func(context.Context) (OperationStatus, error) {
		calls++
		return OperationStatus{}, nil
	}

	err := PollOperation(context.Background(), "op-stuck", fetch, 5, time.Millisecond)
	require.Error(t, err)
	assert.Equal(t, 5, calls)

	assert.True(t, apperrors.IsOperationTimeout(err))
	assert.Contains(t, err.Error(), "op-stuck")
}

func TestPollOperationEmbeddedErrorVerbatim(t *testing.T) {
	embedded := errors.New("quota exceeded for resource")
	fetch := func(context.Context) (OperationStatus, error) {
		return OperationStatus{Done: true, Err: embedded}, nil
	}

	err := PollOperation(context.Background(), "op-2", fetch, 10, time.Millisecond)
	assert.Same(t, embedded, err)
}

func TestPollOperationFetchError(t *testing.T) {
	calls := 0
	fetchErr := errors.New("transport failure")
	fetch := func(context.Context) (OperationStatus, error) {
		calls++
		return OperationStatus{}, fetchErr
	}

	err := PollOperation(context.Background(), "op-3", fetch, 10, time.Millisecond)
	assert.Same(t, fetchErr, err)
	assert.Equal(t, 1, calls)
}

func TestPollOperationContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fetch := func(context.Context) (OperationStatus, error) {
		t.Fatal("fetch should not run after cancellation")
		return OperationStatus{}, nil
	}

	err := PollOperation(ctx, "op-4", fetch, 10, time.Minute)
	assert.ErrorIs(t, err, context.Canceled)
}
