package board

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrNotFound is returned when a board, list, card, label or user does not exist.
	ErrNotFound = errors.New("not found")

	// ErrUnauthenticated is returned when the client has no actor.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrAccessDenied is returned when the actor may not read the board.
	ErrAccessDenied = errors.New("access denied")

	// ErrForbidden is returned when the actor may read but not perform the write.
	ErrForbidden = errors.New("forbidden")

	// ErrInvalid is the sentinel behind every FieldErrors value.
	ErrInvalid = errors.New("invalid input")
)

// FieldErrors maps field names to human readable validation failures.
type FieldErrors map[string]string

func (e FieldErrors) Error() string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, fmt.Sprintf("%s %s", f, e[f]))
	}
	return "invalid input: " + strings.Join(parts, ", ")
}

// Is lets errors.Is(err, ErrInvalid) match any FieldErrors.
func (e FieldErrors) Is(target error) bool {
	return target == ErrInvalid
}

// IsNotFound checks if an error represents a missing entity, either the
// package sentinel or a bare redis.Nil from a lower layer.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, redis.Nil)
}
