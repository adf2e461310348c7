package command

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Logger is the logging interface consumed by this package.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Publisher delivers a serialized command payload to a device's command
// topic. Implemented by the MQTT client.
type Publisher interface {
	PublishCommand(farmID, roomID, deviceID string, payload []byte) error
}

// DeviceDirectory resolves a device to its location for topic construction
// and room-scoped authorization.
type DeviceDirectory interface {
	GetDeviceLocation(ctx context.Context, deviceID string) (farmID, roomID string, err error)
}

// RoomAccess is the authorization interface consumed by the dispatcher.
type RoomAccess interface {
	HasAccessToRoom(ctx context.Context, roomID, userID string) (bool, error)
}

// Dispatcher issues commands to devices and drives their lifecycle.
//
// Every command is persisted before delivery is attempted, so the record
// survives broker outages. Delivery moves the record PENDING → SENT, or
// PENDING → FAILED when the broker rejects the publish. Device responses
// arriving on the status topic complete the cycle via Acknowledge.
//
// Thread Safety: all methods are safe for concurrent use. Lifecycle
// transitions are compare-and-set at the database, so concurrent
// ack/cancel/retry on the same command resolve to exactly one winner.
type Dispatcher struct {
	repo      Repository
	publisher Publisher
	devices   DeviceDirectory
	access    RoomAccess
	logger    Logger
}

// NewDispatcher creates a new command dispatcher.
func NewDispatcher(repo Repository, publisher Publisher, devices DeviceDirectory, access RoomAccess, logger Logger) *Dispatcher {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Dispatcher{
		repo:      repo,
		publisher: publisher,
		devices:   devices,
		access:    access,
		logger:    logger,
	}
}

// Send issues a user command to a device.
//
// The command is validated against the catalog, persisted, and delivered.
// On delivery failure the returned command has status FAILED and the error
// wraps ErrPublishFailed; the record is kept so the user can retry.
func (d *Dispatcher) Send(ctx context.Context, userID, deviceID, name string, params map[string]any) (*Command, error) {
	if err := ValidateCommand(name, params); err != nil {
		return nil, err
	}

	farmID, roomID, err := d.devices.GetDeviceLocation(ctx, deviceID)
	if err != nil {
		return nil, fmt.Errorf("resolving device %q: %w", deviceID, err)
	}
	if err := d.checkAccess(ctx, roomID, userID); err != nil {
		return nil, err
	}

	cmd := &Command{
		ID:         uuid.New().String(),
		DeviceID:   deviceID,
		Command:    name,
		Params:     params,
		Status:     StatusPending,
		IssuedBy:   userID,
		IssuerKind: IssuerUser,
		IssuedAt:   time.Now().UTC(),
	}
	if err := d.repo.Create(ctx, cmd); err != nil {
		return nil, err
	}

	if err := d.deliver(ctx, cmd, farmID, roomID); err != nil {
		return cmd, err
	}

	d.logger.Info("command sent",
		"command_id", cmd.ID,
		"device_id", deviceID,
		"command", name,
		"issued_by", userID,
	)
	return cmd, nil
}

// DispatchRuleAction issues a command on behalf of a triggered rule.
//
// issuedBy is the rule creator's user ID, recorded as the issuer. No room
// access check runs here: the rule was authorized at creation time.
//
// Returns the command ID even on delivery failure, so the caller can link
// its execution record to the FAILED command.
func (d *Dispatcher) DispatchRuleAction(ctx context.Context, ruleID, deviceID, rawAction, issuedBy string) (string, error) {
	action, err := ParseAction(rawAction)
	if err != nil {
		return "", err
	}

	farmID, roomID, err := d.devices.GetDeviceLocation(ctx, deviceID)
	if err != nil {
		return "", fmt.Errorf("resolving device %q: %w", deviceID, err)
	}

	cmd := &Command{
		ID:         uuid.New().String(),
		DeviceID:   deviceID,
		Command:    action.Command,
		Params:     action.Params,
		Status:     StatusPending,
		IssuedBy:   issuedBy,
		IssuerKind: IssuerRule,
		RuleID:     &ruleID,
		IssuedAt:   time.Now().UTC(),
	}
	if err := d.repo.Create(ctx, cmd); err != nil {
		return "", err
	}

	if err := d.deliver(ctx, cmd, farmID, roomID); err != nil {
		return cmd.ID, err
	}

	d.logger.Debug("rule command sent",
		"command_id", cmd.ID,
		"rule_id", ruleID,
		"device_id", deviceID,
		"command", action.Command,
	)
	return cmd.ID, nil
}

// Acknowledge records a device's response to a SENT command.
//
// success selects the terminal state: ACKNOWLEDGED or FAILED. The response
// document is merged into the command's params under ResponseParamKey;
// caller-supplied params are never overwritten.
func (d *Dispatcher) Acknowledge(ctx context.Context, commandID string, success bool, response map[string]any) error {
	to := StatusAcknowledged
	if !success {
		to = StatusFailed
	}

	if err := d.repo.Transition(ctx, commandID, to, StatusSent); err != nil {
		return err
	}

	if len(response) > 0 {
		if err := d.mergeResponse(ctx, commandID, response); err != nil {
			// The status transition stands; the response payload is advisory
			d.logger.Warn("failed to store device response",
				"command_id", commandID,
				"error", err,
			)
		}
	}

	d.logger.Info("command acknowledged",
		"command_id", commandID,
		"success", success,
	)
	return nil
}

// Retry re-delivers a FAILED command.
//
// The command's issue time is reset and delivery is attempted again, so the
// command ends SENT or FAILED, never PENDING. Retrying a command in any
// other state returns ErrInvalidTransition.
func (d *Dispatcher) Retry(ctx context.Context, userID, commandID string) (*Command, error) {
	cmd, err := d.repo.GetByID(ctx, commandID)
	if err != nil {
		return nil, err
	}

	farmID, roomID, err := d.devices.GetDeviceLocation(ctx, cmd.DeviceID)
	if err != nil {
		return nil, fmt.Errorf("resolving device %q: %w", cmd.DeviceID, err)
	}
	if err := d.checkAccess(ctx, roomID, userID); err != nil {
		return nil, err
	}

	issuedAt := time.Now().UTC()
	if err := d.repo.Reissue(ctx, commandID, issuedAt); err != nil {
		return nil, err
	}
	cmd.Status = StatusPending
	cmd.IssuedAt = issuedAt

	if err := d.deliver(ctx, cmd, farmID, roomID); err != nil {
		return cmd, err
	}

	d.logger.Info("command retried",
		"command_id", commandID,
		"device_id", cmd.DeviceID,
		"retried_by", userID,
	)
	return cmd, nil
}

// Cancel marks an in-flight command FAILED before the device responds.
// Only PENDING and SENT commands can be cancelled; a late device response
// for a cancelled command is rejected by the SENT-only acknowledge gate.
func (d *Dispatcher) Cancel(ctx context.Context, userID, commandID string) (*Command, error) {
	cmd, err := d.repo.GetByID(ctx, commandID)
	if err != nil {
		return nil, err
	}

	_, roomID, err := d.devices.GetDeviceLocation(ctx, cmd.DeviceID)
	if err != nil {
		return nil, fmt.Errorf("resolving device %q: %w", cmd.DeviceID, err)
	}
	if err := d.checkAccess(ctx, roomID, userID); err != nil {
		return nil, err
	}

	if err := d.repo.Transition(ctx, commandID, StatusFailed, StatusPending, StatusSent); err != nil {
		return nil, err
	}
	cmd.Status = StatusFailed

	d.logger.Info("command cancelled",
		"command_id", commandID,
		"cancelled_by", userID,
	)
	return cmd, nil
}

// Get retrieves a command the user has access to.
func (d *Dispatcher) Get(ctx context.Context, userID, commandID string) (*Command, error) {
	cmd, err := d.repo.GetByID(ctx, commandID)
	if err != nil {
		return nil, err
	}
	_, roomID, err := d.devices.GetDeviceLocation(ctx, cmd.DeviceID)
	if err != nil {
		return nil, fmt.Errorf("resolving device %q: %w", cmd.DeviceID, err)
	}
	if err := d.checkAccess(ctx, roomID, userID); err != nil {
		return nil, err
	}
	return cmd, nil
}

// ListByDevice retrieves a device's command history, newest first.
func (d *Dispatcher) ListByDevice(ctx context.Context, userID, deviceID string, limit int) ([]Command, error) {
	_, roomID, err := d.devices.GetDeviceLocation(ctx, deviceID)
	if err != nil {
		return nil, fmt.Errorf("resolving device %q: %w", deviceID, err)
	}
	if err := d.checkAccess(ctx, roomID, userID); err != nil {
		return nil, err
	}
	return d.repo.ListByDevice(ctx, deviceID, limit)
}

// ListByRoom retrieves a room's command history, newest first.
func (d *Dispatcher) ListByRoom(ctx context.Context, userID, roomID string, limit int) ([]Command, error) {
	if err := d.checkAccess(ctx, roomID, userID); err != nil {
		return nil, err
	}
	return d.repo.ListByRoom(ctx, roomID, limit)
}

// ListByRoomStatus retrieves a room's commands in one lifecycle state.
func (d *Dispatcher) ListByRoomStatus(ctx context.Context, userID, roomID string, status Status, limit int) ([]Command, error) {
	switch status {
	case StatusPending, StatusSent, StatusAcknowledged, StatusFailed:
	default:
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidAction, status)
	}
	if err := d.checkAccess(ctx, roomID, userID); err != nil {
		return nil, err
	}
	return d.repo.ListByRoomStatus(ctx, roomID, status, limit)
}

// RoomStatistics aggregates a room's command outcomes since a point in time.
func (d *Dispatcher) RoomStatistics(ctx context.Context, userID, roomID string, since time.Time) (*Statistics, error) {
	if err := d.checkAccess(ctx, roomID, userID); err != nil {
		return nil, err
	}
	return d.repo.Statistics(ctx, roomID, since)
}

// deliver publishes the command and settles the PENDING record into SENT
// or FAILED. The record never stays PENDING past this call.
func (d *Dispatcher) deliver(ctx context.Context, cmd *Command, farmID, roomID string) error {
	payload, err := json.Marshal(wirePayload{
		CommandID: cmd.ID,
		Command:   cmd.Command,
		Params:    cmd.Params,
		Timestamp: cmd.IssuedAt.Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("encoding command payload: %w", err)
	}

	if pubErr := d.publisher.PublishCommand(farmID, roomID, cmd.DeviceID, payload); pubErr != nil {
		if trErr := d.repo.Transition(ctx, cmd.ID, StatusFailed, StatusPending); trErr != nil {
			d.logger.Error("failed to mark command FAILED",
				"command_id", cmd.ID,
				"error", trErr,
			)
		}
		cmd.Status = StatusFailed
		d.logger.Warn("command delivery failed",
			"command_id", cmd.ID,
			"device_id", cmd.DeviceID,
			"error", pubErr,
		)
		return fmt.Errorf("%w: %w", ErrPublishFailed, pubErr)
	}

	if err := d.repo.Transition(ctx, cmd.ID, StatusSent, StatusPending); err != nil {
		// Published but not marked: surface it, the ack path needs SENT
		return fmt.Errorf("marking command sent: %w", err)
	}
	cmd.Status = StatusSent
	return nil
}

// mergeResponse stores the device's response document under the reserved
// params key, preserving the original params.
func (d *Dispatcher) mergeResponse(ctx context.Context, commandID string, response map[string]any) error {
	cmd, err := d.repo.GetByID(ctx, commandID)
	if err != nil {
		return err
	}

	params := cmd.Params
	if params == nil {
		params = make(map[string]any, 1)
	}
	if _, taken := params[ResponseParamKey]; !taken {
		params[ResponseParamKey] = response
	}

	return d.repo.UpdateParams(ctx, commandID, params)
}

func (d *Dispatcher) checkAccess(ctx context.Context, roomID, userID string) error {
	ok, err := d.access.HasAccessToRoom(ctx, roomID, userID)
	if err != nil {
		return fmt.Errorf("checking room access: %w", err)
	}
	if !ok {
		return ErrUnauthorized
	}
	return nil
}
