package rule

import "errors"

// Domain errors for the rule package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, rule.ErrRuleNotFound) {
//	    // handle not found case
//	}
var (
	// ErrRuleNotFound is returned when a rule ID does not exist.
	ErrRuleNotFound = errors.New("rule: not found")

	// ErrRuleExists is returned when creating a rule with an ID that already exists.
	ErrRuleExists = errors.New("rule: already exists")

	// ErrInvalidRule is returned when rule validation fails.
	ErrInvalidRule = errors.New("rule: invalid")

	// ErrInvalidParameter is returned when the parameter is not one of the
	// recognised sensor kinds.
	ErrInvalidParameter = errors.New("rule: invalid parameter")

	// ErrInvalidComparator is returned when the comparator is not recognised.
	ErrInvalidComparator = errors.New("rule: invalid comparator")

	// ErrThresholdOutOfRange is returned when the threshold lies outside the
	// parameter's sanity range.
	ErrThresholdOutOfRange = errors.New("rule: threshold out of range")

	// ErrDeviceRoomMismatch is returned when the action device does not belong
	// to the rule's room.
	ErrDeviceRoomMismatch = errors.New("rule: action device not in rule's room")

	// ErrUnauthorized is returned when the caller lacks access to the rule's room.
	ErrUnauthorized = errors.New("rule: room access denied")

	// ErrExecutionNotFound is returned when an execution ID does not exist.
	ErrExecutionNotFound = errors.New("rule: execution not found")
)
