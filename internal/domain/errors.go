package domain

import "errors"

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists indicates a unique constraint was violated.
	ErrAlreadyExists = errors.New("already exists")
	// ErrInvalidInput marks malformed or missing request parameters.
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnavailable wraps collaborator failures: transport errors, timeouts and unexpected statuses.
	ErrUnavailable = errors.New("collaborator unavailable")
)
