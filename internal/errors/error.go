package errors

import (
	"errors"
	"fmt"
)

// Kind is a stable, machine-readable error classification. Callers branch
// on kinds, never on message text.
type Kind string

const (
	KindValidation         Kind = "validation"
	KindNotFound           Kind = "not_found"
	KindNoEligibleBackend  Kind = "no_eligible_backend"
	KindDuplicateTask      Kind = "duplicate_task"
	KindBackendUnavailable Kind = "backend_unavailable"
	KindInvalidState       Kind = "invalid_state"
)

// Error carries a kind plus a human message. All engine failures are
// returned as values of this type; none of them crash the process.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of err, or "" for errors outside this taxonomy.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// Validation rejects malformed input before any mutation.
func Validation(format string, args ...interface{}) error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// NotFound reports an unknown resource by type and id.
func NotFound(resource, id string) error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf("%s %q not found", resource, id)}
}

// NoEligibleBackend reports an empty candidate set after rule filtering.
func NoEligibleBackend(reason string) error {
	return &Error{Kind: KindNoEligibleBackend, Message: reason}
}

// DuplicateTask reports an existing non-terminal task for the same
// (source, destination, content) triple.
func DuplicateTask(source, destination, contentID, existingID string) error {
	return &Error{
		Kind:    KindDuplicateTask,
		Message: fmt.Sprintf("task %s already migrating %s from %s to %s", existingID, contentID, source, destination),
	}
}

// BackendUnavailable wraps a store or fetch failure from a collaborator.
func BackendUnavailable(backend string, err error) error {
	return &Error{Kind: KindBackendUnavailable, Message: fmt.Sprintf("backend %q unavailable", backend), Err: err}
}

// InvalidState rejects a transition the state machine does not allow.
func InvalidState(format string, args ...interface{}) error {
	return &Error{Kind: KindInvalidState, Message: fmt.Sprintf(format, args...)}
}
