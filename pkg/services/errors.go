package service

import "errors"

// Sentinel errors mapped to HTTP status codes at the handler layer
var (
	// ErrNotFound marks an unknown target, policy, job or finding id
	ErrNotFound = errors.New("not found")
	// ErrValidation marks an invalid request payload
	ErrValidation = errors.New("validation failed")
)
