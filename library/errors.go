package library

import (
	"errors"
	"fmt"
)

// Error kinds. Every failure the manager returns wraps exactly one of these
// sentinels, so callers can branch with errors.Is while still getting a
// human-readable message from Error().
var (
	ErrNotFound          = errors.New("not found")
	ErrDuplicateKey      = errors.New("duplicate key")
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrConflictState     = errors.New("conflict")
	ErrResourceExhausted = errors.New("resource exhausted")
	ErrLimitExceeded     = errors.New("limit exceeded")
)

// opError carries the user-facing message plus its kind sentinel.
type opError struct {
	kind error
	msg  string
}

func (e *opError) Error() string { return e.msg }
func (e *opError) Unwrap() error { return e.kind }

func failf(kind error, format string, args ...any) error {
	return &opError{kind: kind, msg: fmt.Sprintf(format, args...)}
}
