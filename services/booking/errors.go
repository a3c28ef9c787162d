package booking

import "fmt"

// ConflictError reports a slot-lock or availability conflict. Inside the
// generator's per-slot loop it is a normal skip-and-continue outcome; from an
// interactive lock acquire it is a rejection surfaced to the caller.
type ConflictError struct {
	Reason string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("slot conflict: %s", e.Reason)
}

// NotFoundError reports that a referenced entity does not exist. Propagated to
// the caller, never retried.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}
