package subscription

import "fmt"

// NotFoundError reports a missing subscription or booking. Propagated, never retried.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// InvariantViolationError reports a state the engine refuses to enter, e.g. a
// refund with no resolvable payment reference.
type InvariantViolationError struct {
	Message string
}

func (e *InvariantViolationError) Error() string {
	return fmt.Sprintf("invariant violation: %s", e.Message)
}
