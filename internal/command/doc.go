// Package command issues control instructions to farm devices and tracks
// their lifecycle.
//
// A command moves through a small state machine:
//
//	PENDING ──publish──▶ SENT ──device ack──▶ ACKNOWLEDGED
//	   │                   │
//	   └──publish error────┴──nack / timeout / cancel──▶ FAILED
//
// FAILED is re-enterable: Retry resets a failed command and attempts
// delivery again. Every state change is a compare-and-set against the
// database, so concurrent acknowledge, cancel, and retry calls on the same
// command resolve deterministically.
//
// The catalog is the allow-list of commands devices understand, with the
// parameters each one requires. Rule actions reference the same catalog,
// either as a bare command name or as a JSON document carrying params.
//
// The package persists through Repository and delivers through Publisher,
// both small interfaces implemented elsewhere (SQLite and MQTT in
// production, mocks in tests).
package command
