// Package auth provides JWT access tokens and per-room authorization.
//
// Tokens are HS256-signed and carry the user ID and role; they are
// validated by signature alone so request handling never hits the
// database for identity. Room access is a separate grant table checked by
// every domain service, so revoking a room takes effect immediately
// regardless of outstanding tokens.
package auth
