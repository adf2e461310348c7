// Package logging provides structured logging built on log/slog.
//
// Every logger carries service and version attributes so log aggregation
// can distinguish Farm Core instances. Use New with the loaded configuration
// for normal operation and Default for early startup before config exists.
package logging
