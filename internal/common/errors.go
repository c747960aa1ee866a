// Package common defines shared constants and sentinel errors used across
// the sitekeeper server and the sitectl tool. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorUsernameTaken = errors.New("username already taken")

	// Service-level errors.
	ErrorInternal  = errors.New("internal error")
	ErrorStoreBusy = errors.New("store is busy, retry later")

	// Auth errors.
	ErrorInvalidCredentials = errors.New("invalid username or password")
	ErrorUnauthorized       = errors.New("unauthorized")
	ErrorForbidden          = errors.New("forbidden")
	ErrInvalidToken         = errors.New("invalid token")

	// Validation errors. ErrorValidation is matched by every ValidationError.
	ErrorValidation       = errors.New("validation error")
	ErrorMissingField     = errors.New("this field is required")
	ErrorPasswordMismatch = errors.New("passwords must match")
	ErrorInvalidURL       = errors.New("invalid URL")
)
