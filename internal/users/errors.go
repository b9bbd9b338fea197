package users

import "errors"

// Every failure here is recoverable by the caller; handlers map them onto
// status codes and the service never retries or translates collaborator errors.
var (
	ErrInvalidUsername = errors.New("invalid username")
	ErrInvalidEmail    = errors.New("invalid email")
	ErrWeakPassword    = errors.New("weak password")

	// ErrAlreadyExists covers both the pre-insert lookup and the unique
	// constraint the repository enforces for concurrent duplicate saves.
	ErrAlreadyExists = errors.New("user already exists")

	// ErrInvalidCredentials is deliberately generic: callers must not be able
	// to tell "no such email" apart from "wrong password".
	ErrInvalidCredentials = errors.New("invalid email or password")

	ErrNotFound = errors.New("user not found")
)
