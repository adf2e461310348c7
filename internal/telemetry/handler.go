package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/smartfarm/farmcore/internal/device"
	"github.com/smartfarm/farmcore/internal/infrastructure/mqtt"
	"github.com/smartfarm/farmcore/internal/rule"
)

// Logger is the logging interface consumed by this package.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Evaluator runs automation rules against a reading. Implemented by the
// rule engine.
type Evaluator interface {
	Evaluate(ctx context.Context, reading *rule.Reading) ([]string, error)
}

// Acknowledger completes a command's lifecycle from a device response.
// Implemented by the command dispatcher.
type Acknowledger interface {
	Acknowledge(ctx context.Context, commandID string, success bool, response map[string]any) error
}

// StatusSink records device reachability changes. Implemented by the
// device registry.
type StatusSink interface {
	SetStatus(ctx context.Context, deviceID string, status device.ConnectionStatus) error
}

// Recorder archives readings to the time-series store. Writes are
// asynchronous and never block ingest. Implemented by the InfluxDB client.
type Recorder interface {
	WriteReading(farmID, roomID, deviceID string, fields map[string]interface{}, timestamp time.Time)
}

// handlerTimeout bounds the work done for one inbound message.
const handlerTimeout = 30 * time.Second

// Handler routes inbound MQTT messages from field devices.
//
// Telemetry messages become readings: archived to the time-series store
// (best effort) and evaluated against the room's automation rules. Status
// messages carry either a command acknowledgement or a device
// online/offline transition.
type Handler struct {
	evaluator Evaluator
	acks      Acknowledger
	status    StatusSink
	recorder  Recorder // nil when time-series archiving is disabled
	logger    Logger
}

// NewHandler creates a new telemetry handler. recorder may be nil.
func NewHandler(evaluator Evaluator, acks Acknowledger, status StatusSink, recorder Recorder, logger Logger) *Handler {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Handler{
		evaluator: evaluator,
		acks:      acks,
		status:    status,
		recorder:  recorder,
		logger:    logger,
	}
}

// statusPayload is the JSON document devices publish on their status
// channel. Command acknowledgements carry command_id; connection
// transitions carry status.
type statusPayload struct {
	CommandID string         `json:"command_id"`
	Success   *bool          `json:"success"`
	Response  map[string]any `json:"response"`
	Status    string         `json:"status"`
}

// HandleTelemetry processes one message from a device telemetry topic.
// Satisfies mqtt.MessageHandler.
func (h *Handler) HandleTelemetry(topic string, payload []byte) error {
	dt, err := mqtt.ParseDeviceTopic(topic)
	if err != nil {
		return err
	}

	var reading rule.Reading
	if err := json.Unmarshal(payload, &reading); err != nil {
		return fmt.Errorf("parsing telemetry payload: %w", err)
	}
	reading.FarmID = dt.FarmID
	reading.RoomID = dt.RoomID
	reading.DeviceID = dt.DeviceID
	if reading.RecordedAt.IsZero() {
		reading.RecordedAt = time.Now().UTC()
	}

	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	h.archive(&reading)

	triggered, err := h.evaluator.Evaluate(ctx, &reading)
	if err != nil {
		return fmt.Errorf("evaluating reading from %s: %w", dt.DeviceID, err)
	}

	h.logger.Debug("telemetry processed",
		"device_id", dt.DeviceID,
		"room_id", dt.RoomID,
		"rules_triggered", len(triggered),
	)
	return nil
}

// HandleStatus processes one message from a device status topic.
// Satisfies mqtt.MessageHandler.
func (h *Handler) HandleStatus(topic string, payload []byte) error {
	dt, err := mqtt.ParseDeviceTopic(topic)
	if err != nil {
		return err
	}

	var msg statusPayload
	if err := json.Unmarshal(payload, &msg); err != nil {
		return fmt.Errorf("parsing status payload: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	if msg.CommandID != "" {
		// Absent success field means the device completed the command
		success := msg.Success == nil || *msg.Success
		if err := h.acks.Acknowledge(ctx, msg.CommandID, success, msg.Response); err != nil {
			return fmt.Errorf("acknowledging command %s: %w", msg.CommandID, err)
		}
		return nil
	}

	switch msg.Status {
	case string(device.StatusOnline), string(device.StatusOffline):
		if err := h.status.SetStatus(ctx, dt.DeviceID, device.ConnectionStatus(msg.Status)); err != nil {
			return fmt.Errorf("recording status for %s: %w", dt.DeviceID, err)
		}
		return nil
	case "":
		return fmt.Errorf("status message from %s carries neither command_id nor status", dt.DeviceID)
	default:
		return fmt.Errorf("unknown device status %q from %s", msg.Status, dt.DeviceID)
	}
}

// archive forwards the reading's present values to the time-series store.
func (h *Handler) archive(reading *rule.Reading) {
	if h.recorder == nil {
		return
	}

	fields := make(map[string]interface{}, 6)
	put := func(name string, v *float64) {
		if v != nil {
			fields[name] = *v
		}
	}
	put("temperature_c", reading.Temperature)
	put("humidity_pct", reading.Humidity)
	put("co2_ppm", reading.CO2)
	put("light_lux", reading.Light)
	put("substrate_moisture", reading.SubstrateMoisture)
	put("battery_v", reading.Battery)

	if len(fields) == 0 {
		return
	}
	h.recorder.WriteReading(reading.FarmID, reading.RoomID, reading.DeviceID, fields, reading.RecordedAt)
}
