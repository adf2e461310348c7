package device

import "errors"

// Sentinel errors for the device package. Callers match them with
// errors.Is, so wrapping with additional context is always safe.
var (
	// ErrDeviceNotFound reports a lookup for an unknown device ID.
	ErrDeviceNotFound = errors.New("device: not found")

	// ErrDeviceExists reports a create with an ID already registered.
	ErrDeviceExists = errors.New("device: already exists")

	// ErrInvalidDevice reports a device that failed validation.
	ErrInvalidDevice = errors.New("device: invalid")
)
