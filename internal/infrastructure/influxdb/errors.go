package influxdb

import "errors"

// Sentinel errors for the telemetry archive, matched with errors.Is.
var (
	// ErrNotConnected means the client was closed or never connected.
	ErrNotConnected = errors.New("influxdb: not connected")

	// ErrConnectionFailed means the server could not be reached or
	// reported itself unhealthy during connect.
	ErrConnectionFailed = errors.New("influxdb: connection failed")

	// ErrDisabled is returned by Connect when the archive is switched
	// off in configuration. Callers treat it as "no archive", not a
	// failure.
	ErrDisabled = errors.New("influxdb: disabled in configuration")
)
