package services

import "errors"

// Sentinel errors handlers translate to HTTP statuses.
var (
	ErrNotFound       = errors.New("not found")
	ErrDuplicateEmail = errors.New("email already registered")
	ErrDuplicateVote  = errors.New("already voted")
	ErrWeakPassword   = errors.New("password must be at least 8 characters and include upper case, lower case, a digit and a special character")
)
