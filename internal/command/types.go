package command

import "time"

// Status is the lifecycle state of a command.
//
// Commands move PENDING → SENT → ACKNOWLEDGED on the happy path. FAILED is
// the single terminal failure state, reached from PENDING or SENT on
// delivery failure, device-reported failure, timeout, or cancellation.
// Retry re-enters the machine from FAILED only.
type Status string

const (
	StatusPending      Status = "PENDING"
	StatusSent         Status = "SENT"
	StatusAcknowledged Status = "ACKNOWLEDGED"
	StatusFailed       Status = "FAILED"
)

// IsTerminal reports whether no further device response is expected.
// FAILED commands can still be retried, which resets the lifecycle.
func (s Status) IsTerminal() bool {
	return s == StatusAcknowledged || s == StatusFailed
}

// IssuerKind distinguishes who originated a command.
type IssuerKind string

const (
	// IssuerUser marks a command issued directly by a user.
	IssuerUser IssuerKind = "user"

	// IssuerRule marks a command issued by a triggered automation rule.
	// IssuedBy then holds the rule creator's user ID.
	IssuerRule IssuerKind = "rule"
)

// ResponseParamKey is the reserved params key under which a device's
// acknowledgement payload is stored. Caller-supplied params are never
// overwritten by the response.
const ResponseParamKey = "device_response"

// Command is a single control instruction issued to a device.
type Command struct {
	ID       string         `json:"id"`
	DeviceID string         `json:"device_id"`
	Command  string         `json:"command"`
	Params   map[string]any `json:"params,omitempty"`

	Status Status `json:"status"`

	// Provenance. RuleID is set only for rule-issued commands.
	IssuedBy   string     `json:"issued_by"`
	IssuerKind IssuerKind `json:"issuer_kind"`
	RuleID     *string    `json:"rule_id,omitempty"`

	// IssuedAt is reset when a failed command is retried.
	IssuedAt  time.Time `json:"issued_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DeepCopy creates an independent copy of the command, cloning the
// params map so callers can mutate the copy freely.
func (c *Command) DeepCopy() *Command {
	if c == nil {
		return nil
	}
	clone := *c
	if c.Params != nil {
		clone.Params = make(map[string]any, len(c.Params))
		for k, v := range c.Params {
			clone.Params[k] = v
		}
	}
	if c.RuleID != nil {
		id := *c.RuleID
		clone.RuleID = &id
	}
	return &clone
}

// Statistics summarises command outcomes for a room over a time window.
type Statistics struct {
	Total        int `json:"total"`
	Acknowledged int `json:"acknowledged"`
	Failed       int `json:"failed"`
	Pending      int `json:"pending"`
	Sent         int `json:"sent"`

	// SuccessRate is acknowledged / total, 0 when no commands were issued.
	SuccessRate float64 `json:"success_rate"`
}

// wirePayload is the JSON document published to the device command topic.
type wirePayload struct {
	CommandID string         `json:"command_id"`
	Command   string         `json:"command"`
	Params    map[string]any `json:"params,omitempty"`
	Timestamp string         `json:"timestamp"`
}
