package telemetry

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/smartfarm/farmcore/internal/device"
	"github.com/smartfarm/farmcore/internal/rule"
)

// ─── Mocks ──────────────────────────────────────────────────────────────────

type mockEvaluator struct {
	mu       sync.Mutex
	readings []rule.Reading
	result   []string
	err      error
}

func (m *mockEvaluator) Evaluate(_ context.Context, reading *rule.Reading) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readings = append(m.readings, *reading)
	return m.result, m.err
}

type ackCall struct {
	commandID string
	success   bool
	response  map[string]any
}

type mockAcknowledger struct {
	mu    sync.Mutex
	calls []ackCall
	err   error
}

func (m *mockAcknowledger) Acknowledge(_ context.Context, commandID string, success bool, response map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, ackCall{commandID, success, response})
	return m.err
}

type mockStatusSink struct {
	mu       sync.Mutex
	statuses map[string]device.ConnectionStatus
}

func (m *mockStatusSink) SetStatus(_ context.Context, deviceID string, status device.ConnectionStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.statuses == nil {
		m.statuses = make(map[string]device.ConnectionStatus)
	}
	m.statuses[deviceID] = status
	return nil
}

type recordedWrite struct {
	farmID   string
	roomID   string
	deviceID string
	fields   map[string]interface{}
}

type mockRecorder struct {
	mu     sync.Mutex
	writes []recordedWrite
}

func (m *mockRecorder) WriteReading(farmID, roomID, deviceID string, fields map[string]interface{}, _ time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes = append(m.writes, recordedWrite{farmID, roomID, deviceID, fields})
}

const (
	telemetryTopic = "farm/farm-1/room/room-1/device/sensor-1/telemetry"
	statusTopic    = "farm/farm-1/room/room-1/device/fan-1/status"
)

// ─── Tests ──────────────────────────────────────────────────────────────────

func TestHandleTelemetry(t *testing.T) {
	t.Run("reading reaches engine with topic identity", func(t *testing.T) {
		eval := &mockEvaluator{result: []string{"rule-1"}}
		h := NewHandler(eval, &mockAcknowledger{}, &mockStatusSink{}, nil, nil)

		payload := `{"temperature_c": 29.4, "humidity_pct": 61.0, "recorded_at": "2026-08-20T12:00:00Z"}`
		if err := h.HandleTelemetry(telemetryTopic, []byte(payload)); err != nil {
			t.Fatalf("HandleTelemetry() error: %v", err)
		}

		if len(eval.readings) != 1 {
			t.Fatalf("engine saw %d readings, want 1", len(eval.readings))
		}
		r := eval.readings[0]
		if r.FarmID != "farm-1" || r.RoomID != "room-1" || r.DeviceID != "sensor-1" {
			t.Errorf("identity = %s/%s/%s", r.FarmID, r.RoomID, r.DeviceID)
		}
		if r.Temperature == nil || *r.Temperature != 29.4 {
			t.Errorf("Temperature = %v", r.Temperature)
		}
		if r.CO2 != nil {
			t.Errorf("CO2 = %v, want nil for absent field", r.CO2)
		}
	})

	t.Run("payload identity cannot spoof the topic", func(t *testing.T) {
		eval := &mockEvaluator{}
		h := NewHandler(eval, &mockAcknowledger{}, &mockStatusSink{}, nil, nil)

		payload := `{"device_id": "spoofed", "room_id": "room-99", "temperature_c": 20}`
		if err := h.HandleTelemetry(telemetryTopic, []byte(payload)); err != nil {
			t.Fatalf("HandleTelemetry() error: %v", err)
		}
		r := eval.readings[0]
		if r.DeviceID != "sensor-1" || r.RoomID != "room-1" {
			t.Errorf("identity = %s/%s, want topic values", r.DeviceID, r.RoomID)
		}
	})

	t.Run("archives present fields only", func(t *testing.T) {
		rec := &mockRecorder{}
		h := NewHandler(&mockEvaluator{}, &mockAcknowledger{}, &mockStatusSink{}, rec, nil)

		payload := `{"temperature_c": 29.4, "battery_v": 3.7}`
		if err := h.HandleTelemetry(telemetryTopic, []byte(payload)); err != nil {
			t.Fatalf("HandleTelemetry() error: %v", err)
		}

		if len(rec.writes) != 1 {
			t.Fatalf("recorded %d writes, want 1", len(rec.writes))
		}
		w := rec.writes[0]
		if len(w.fields) != 2 {
			t.Errorf("fields = %v, want 2 entries", w.fields)
		}
		if w.fields["temperature_c"] != 29.4 || w.fields["battery_v"] != 3.7 {
			t.Errorf("fields = %v", w.fields)
		}
	})

	t.Run("empty reading is not archived", func(t *testing.T) {
		rec := &mockRecorder{}
		h := NewHandler(&mockEvaluator{}, &mockAcknowledger{}, &mockStatusSink{}, rec, nil)

		if err := h.HandleTelemetry(telemetryTopic, []byte(`{}`)); err != nil {
			t.Fatalf("HandleTelemetry() error: %v", err)
		}
		if len(rec.writes) != 0 {
			t.Errorf("recorded %d writes for empty reading", len(rec.writes))
		}
	})

	t.Run("errors surface", func(t *testing.T) {
		h := NewHandler(&mockEvaluator{}, &mockAcknowledger{}, &mockStatusSink{}, nil, nil)
		if err := h.HandleTelemetry("bad/topic", []byte(`{}`)); err == nil {
			t.Error("no error for malformed topic")
		}
		if err := h.HandleTelemetry(telemetryTopic, []byte(`not json`)); err == nil {
			t.Error("no error for malformed payload")
		}

		h = NewHandler(&mockEvaluator{err: errors.New("db locked")}, &mockAcknowledger{}, &mockStatusSink{}, nil, nil)
		if err := h.HandleTelemetry(telemetryTopic, []byte(`{"temperature_c": 20}`)); err == nil {
			t.Error("no error when evaluation fails")
		}
	})
}

func TestHandleStatus(t *testing.T) {
	t.Run("command acknowledgement", func(t *testing.T) {
		acks := &mockAcknowledger{}
		h := NewHandler(&mockEvaluator{}, acks, &mockStatusSink{}, nil, nil)

		payload := `{"command_id": "cmd-1", "success": true, "response": {"rpm": 1450}}`
		if err := h.HandleStatus(statusTopic, []byte(payload)); err != nil {
			t.Fatalf("HandleStatus() error: %v", err)
		}

		if len(acks.calls) != 1 {
			t.Fatalf("acknowledged %d commands, want 1", len(acks.calls))
		}
		call := acks.calls[0]
		if call.commandID != "cmd-1" || !call.success {
			t.Errorf("ack = %+v", call)
		}
		if call.response["rpm"] != 1450.0 {
			t.Errorf("response = %v", call.response)
		}
	})

	t.Run("device-reported failure", func(t *testing.T) {
		acks := &mockAcknowledger{}
		h := NewHandler(&mockEvaluator{}, acks, &mockStatusSink{}, nil, nil)

		payload := `{"command_id": "cmd-1", "success": false, "response": {"error": "valve stuck"}}`
		if err := h.HandleStatus(statusTopic, []byte(payload)); err != nil {
			t.Fatalf("HandleStatus() error: %v", err)
		}
		if acks.calls[0].success {
			t.Error("failure reported as success")
		}
	})

	t.Run("absent success field defaults to success", func(t *testing.T) {
		acks := &mockAcknowledger{}
		h := NewHandler(&mockEvaluator{}, acks, &mockStatusSink{}, nil, nil)

		if err := h.HandleStatus(statusTopic, []byte(`{"command_id": "cmd-1"}`)); err != nil {
			t.Fatalf("HandleStatus() error: %v", err)
		}
		if !acks.calls[0].success {
			t.Error("absent success treated as failure")
		}
	})

	t.Run("online and offline transitions", func(t *testing.T) {
		sink := &mockStatusSink{}
		h := NewHandler(&mockEvaluator{}, &mockAcknowledger{}, sink, nil, nil)

		if err := h.HandleStatus(statusTopic, []byte(`{"status": "online"}`)); err != nil {
			t.Fatalf("HandleStatus() error: %v", err)
		}
		if sink.statuses["fan-1"] != device.StatusOnline {
			t.Errorf("status = %s, want online", sink.statuses["fan-1"])
		}

		if err := h.HandleStatus(statusTopic, []byte(`{"status": "offline"}`)); err != nil {
			t.Fatalf("HandleStatus() error: %v", err)
		}
		if sink.statuses["fan-1"] != device.StatusOffline {
			t.Errorf("status = %s, want offline", sink.statuses["fan-1"])
		}
	})

	t.Run("errors surface", func(t *testing.T) {
		h := NewHandler(&mockEvaluator{}, &mockAcknowledger{}, &mockStatusSink{}, nil, nil)
		if err := h.HandleStatus(statusTopic, []byte(`{}`)); err == nil {
			t.Error("no error for empty status message")
		}
		if err := h.HandleStatus(statusTopic, []byte(`{"status": "sleeping"}`)); err == nil {
			t.Error("no error for unknown status value")
		}

		h = NewHandler(&mockEvaluator{}, &mockAcknowledger{err: errors.New("command: not found")}, &mockStatusSink{}, nil, nil)
		if err := h.HandleStatus(statusTopic, []byte(`{"command_id": "nope"}`)); err == nil {
			t.Error("no error when acknowledge fails")
		}
	})
}
