package auth

import (
	"errors"
	"fmt"
)

// ErrUnauthenticated is the only authentication failure callers should show to
// clients. Every diagnostic error below wraps it.
var ErrUnauthenticated = errors.New("unauthenticated")

var (
	ErrInvalidCredentials = fmt.Errorf("%w: invalid credentials", ErrUnauthenticated)
	ErrInvalidSignature   = fmt.Errorf("%w: invalid token signature", ErrUnauthenticated)
	ErrExpired            = fmt.Errorf("%w: token expired", ErrUnauthenticated)
	ErrSubjectNotFound    = fmt.Errorf("%w: token subject not found", ErrUnauthenticated)
	ErrAPIKeyNotFound     = fmt.Errorf("%w: api key not found", ErrUnauthenticated)
	ErrMissingCredentials = fmt.Errorf("%w: no credentials supplied", ErrUnauthenticated)
)

// ErrUnavailable reports that credentials could not be checked at all, for
// example because the credential store is down. It never wraps ErrUnauthenticated.
var ErrUnavailable = errors.New("credential store unavailable")

func unavailable(err error) error {
	return fmt.Errorf("%w: %w", ErrUnavailable, err)
}
