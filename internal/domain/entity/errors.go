package entity

import (
	"errors"
	"fmt"
)

// Domain error taxonomy. Handlers and callers match these with errors.Is /
// errors.As; state-machine invariant violations are never silently swallowed.
var (
	// ErrSlotUnavailable is returned when a create or reschedule collides
	// with an existing booking. Never retried automatically.
	ErrSlotUnavailable = errors.New("requested slot is no longer available")

	// ErrPaymentRequired is returned when a transition needs at least a paid
	// deposit and the payment status does not carry one.
	ErrPaymentRequired = errors.New("deposit payment required")
)

// InvalidTransitionError reports a state change not present in the
// transition table — a programming or race error, not a business rejection.
type InvalidTransitionError struct {
	Entity string
	From   string
	To     string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid %s transition: %s -> %s", e.Entity, e.From, e.To)
}

// PolicyViolationError reports a request outside the provider's booking
// policy (advance windows, reschedule cap). The reason is user-actionable.
type PolicyViolationError struct {
	Reason string
}

func (e *PolicyViolationError) Error() string {
	return "booking policy violation: " + e.Reason
}

// ExternalDependencyError wraps a failure of a synchronous collaborator
// (payment gateway). Advisory collaborators (notifier, realtime) never
// produce this; their failures are logged and the transition proceeds.
type ExternalDependencyError struct {
	Dependency string
	Err        error
}

func (e *ExternalDependencyError) Error() string {
	return fmt.Sprintf("%s unavailable: %v", e.Dependency, e.Err)
}

func (e *ExternalDependencyError) Unwrap() error {
	return e.Err
}
