package service

import "errors"

// Domain errors surfaced to the HTTP layer. Credential failures are a single
// error on purpose: callers must not learn whether the username, password,
// signature or expiry was the problem.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrEmptyCredentials   = errors.New("username and password must not be empty")
	ErrNoteNotFound       = errors.New("note not found")
	ErrTagNotFound        = errors.New("tag not found")
)
