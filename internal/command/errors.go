package command

import "errors"

// Domain errors for the command package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, command.ErrInvalidTransition) {
//	    // reject the state change
//	}
var (
	// ErrCommandNotFound is returned when a command ID does not exist.
	ErrCommandNotFound = errors.New("command: not found")

	// ErrCommandExists is returned when creating a command with an ID that
	// already exists.
	ErrCommandExists = errors.New("command: already exists")

	// ErrUnknownCommand is returned when the command name is not in the
	// catalog of supported device commands.
	ErrUnknownCommand = errors.New("command: unknown command")

	// ErrMissingParam is returned when a command lacks a parameter its
	// catalog entry requires.
	ErrMissingParam = errors.New("command: missing required parameter")

	// ErrInvalidAction is returned when a rule action document cannot be
	// parsed.
	ErrInvalidAction = errors.New("command: invalid action")

	// ErrInvalidTransition is returned when a status change is not legal
	// from the command's current state.
	ErrInvalidTransition = errors.New("command: invalid status transition")

	// ErrUnauthorized is returned when the caller lacks access to the
	// device's room.
	ErrUnauthorized = errors.New("command: room access denied")

	// ErrPublishFailed is returned when delivery to the broker failed.
	// The command record exists with status FAILED when this is returned.
	ErrPublishFailed = errors.New("command: publish failed")
)
