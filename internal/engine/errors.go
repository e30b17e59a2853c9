package engine

import (
	"errors"
	"fmt"
	"sort"

	"github.com/dyluth/pinboard/pkg/board"
)

// ErrPendingIdentity is returned when an operation targets an entity that
// still carries a temporary identity. The caller must wait for the create
// to be confirmed and retry.
var ErrPendingIdentity = errors.New("entity is awaiting store confirmation")

// ValidationError rejects an intent before any local change is made.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NotFoundError reports that the target of an intent is not in the local
// snapshot. The operation was a no-op.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

// RemoteRequestError reports that the store rejected or failed a request.
// The local change has been rolled back by the time it is returned.
type RemoteRequestError struct {
	Op  Op
	Err error
}

func (e *RemoteRequestError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *RemoteRequestError) Unwrap() error {
	return e.Err
}

// validationFrom turns store field errors into a ValidationError naming the
// first offending field.
func validationFrom(err error) error {
	var fields board.FieldErrors
	if !errors.As(err, &fields) || len(fields) == 0 {
		return &ValidationError{Field: "input", Reason: err.Error()}
	}

	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return &ValidationError{Field: names[0], Reason: fields[names[0]]}
}
