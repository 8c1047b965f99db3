package profile

import "errors"

// Module errors.
var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrProfileExists   = errors.New("profile already exists")
	ErrMissingIdentity = errors.New("user email and username are required")
)
