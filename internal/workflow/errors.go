// internal/workflow/errors.go
package workflow

import (
	"errors"
	"fmt"
)

type Status string

const (
	StatusInProgress      Status = "in_progress"
	StatusAwaitingPayment Status = "awaiting_payment"
	StatusSubmitted       Status = "submitted"
)

// Retryable navigation errors. Validation failures are not errors at all;
// they are reported as Result values.
var (
	ErrNotStarted       = errors.New("workflow: application not started")
	ErrCannotRetreat    = errors.New("workflow: already at the first stage")
	ErrCannotSkipAhead  = errors.New("workflow: cannot jump past the current stage")
	ErrAlreadySubmitted = errors.New("workflow: application already submitted")
	ErrUnknownStage     = errors.New("workflow: stage not in application sequence")
)

// ConsistencyError marks an internal invariant violation: a defect, not a
// user-correctable condition. Callers surface these as generic failures.
type ConsistencyError struct {
	Op     string
	Detail string
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("workflow consistency error in %s: %s", e.Op, e.Detail)
}

func consistencyErr(op, format string, args ...interface{}) error {
	return &ConsistencyError{Op: op, Detail: fmt.Sprintf(format, args...)}
}

// IsConsistencyError reports whether err is fatal rather than retryable.
func IsConsistencyError(err error) bool {
	var ce *ConsistencyError
	return errors.As(err, &ce)
}
