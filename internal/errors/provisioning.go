package errors

import (
	"errors"
	"fmt"
)

// BillingRequiredError is raised when linking the billing account to a new
// cloud project is denied. It is not a fatal saga failure: the operator links
// billing manually and re-triggers provisioning. It carries the cloud project
// ID so the controller can build the remediation URL.
type BillingRequiredError struct {
	ProjectID string
	Cause     error
}

func (e *BillingRequiredError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("billing account link denied for project %s: %v", e.ProjectID, e.Cause)
	}
	return fmt.Sprintf("billing account link denied for project %s", e.ProjectID)
}

func (e *BillingRequiredError) Unwrap() error {
	return e.Cause
}

// AsBillingRequired returns the BillingRequiredError in err's chain, if any.
func AsBillingRequired(err error) (*BillingRequiredError, bool) {
	var billingErr *BillingRequiredError
	if errors.As(err, &billingErr) {
		return billingErr, true
	}
	return nil, false
}

// OperationTimeoutError is raised when a polled remote operation does not
// reach a terminal state within its retry budget.
type OperationTimeoutError struct {
	Operation string
	Attempts  int
}

func (e *OperationTimeoutError) Error() string {
	return fmt.Sprintf("operation %s did not complete after %d polls", e.Operation, e.Attempts)
}

// IsOperationTimeout reports whether err's chain contains an operation timeout.
func IsOperationTimeout(err error) bool {
	var timeoutErr *OperationTimeoutError
	return errors.As(err, &timeoutErr)
}
