// Package common defines shared constants and sentinel errors used across
// the key service, its repositories and its client. Callers should use
// errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors.
	ErrorInternal     = errors.New("internal error")
	ErrorValidation   = errors.New("validation error")
	ErrorUnauthorized = errors.New("wrong credentials")

	// Auth errors. Expired, malformed and forged tokens are all reported as
	// ErrInvalidToken.
	ErrInvalidToken = errors.New("invalid token")

	// Throttling errors.
	ErrRateLimitExceeded = errors.New("rate limit exceeded")

	// Key allocation errors.
	ErrNoAvailableKeys = errors.New("no available keys")
)
