package datasets

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a dataset, record or vector settings lookup misses
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when a name is already taken in its scope
	ErrAlreadyExists = errors.New("already exists")
	// ErrInvalid is returned for input that is well formed but not acceptable
	// in the current state of the dataset
	ErrInvalid = errors.New("invalid")
)

// Error carries a client-facing message and one of the sentinel kinds above
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Kind }

func newError(kind error, format string, args ...any) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}
