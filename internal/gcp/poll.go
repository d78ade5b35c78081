package gcp

import (
	"context"
	"time"

	apperrors "github.com/wizbi/wizbi/internal/errors"
)

// OperationStatus is one observation of a long-running operation.
type OperationStatus struct {
	// Done reports whether the operation reached a terminal state.
	Done bool
	// Err is the operation's embedded error, set only when Done is true and
	// the operation failed.
	Err error
}

// FetchFunc fetches the current status of a long-running operation.
type FetchFunc func(ctx context.Context) (OperationStatus, error)

// PollOperation waits for a long-running operation: sleep the fixed interval,
// fetch, repeat. The fetch runs exactly maxRetries times before giving up
// with an OperationTimeoutError naming the operation. A failed operation's
// embedded error is returned as-is. There is no backoff.
func PollOperation(ctx context.Context, name string, fetch FetchFunc, maxRetries int, interval time.Duration) error {
	for range maxRetries {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}

		status, err := fetch(ctx)
		if err != nil {
			return err
		}
		if status.Done {
			return status.Err
		}
	}

	return &apperrors.OperationTimeoutError{Operation: name, Attempts: maxRetries}
}
