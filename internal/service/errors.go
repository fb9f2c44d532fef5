package service

import "errors"

var (
	// ErrNotFound indicates the requested entry does not exist.
	ErrNotFound = errors.New("entry not found")
	// ErrForbidden indicates the caller does not own the entry.
	ErrForbidden = errors.New("not the author of this entry")
	// ErrUnauthenticated indicates the operation needs a signed-in caller.
	ErrUnauthenticated = errors.New("authentication required")
	// ErrInvalidEntry indicates the submitted entry fields are unusable.
	ErrInvalidEntry = errors.New("invalid entry")
	// ErrInvalidCredentials indicates that provided login credentials are incorrect.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserAlreadyExists is returned when attempting to register an existing email.
	ErrUserAlreadyExists = errors.New("user already exists")
)
