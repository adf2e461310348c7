package auth

import "errors"

// Domain errors for the auth package.
var (
	// ErrTokenInvalid is returned for malformed, expired, or badly signed
	// tokens.
	ErrTokenInvalid = errors.New("auth: invalid token")

	// ErrGrantNotFound is returned when revoking access that was never
	// granted.
	ErrGrantNotFound = errors.New("auth: grant not found")
)
