package rule

import "time"

// Parameter identifies which sensor measurement a rule watches.
type Parameter string

const (
	ParamTemperature       Parameter = "temperature"
	ParamHumidity          Parameter = "humidity"
	ParamCO2               Parameter = "co2"
	ParamLight             Parameter = "light"
	ParamSubstrateMoisture Parameter = "substrate_moisture"
)

// AllParameters returns all recognised sensor parameters.
func AllParameters() []Parameter {
	return []Parameter{
		ParamTemperature,
		ParamHumidity,
		ParamCO2,
		ParamLight,
		ParamSubstrateMoisture,
	}
}

// Comparator defines how a reading value is compared against a threshold.
type Comparator string

const (
	CompareLT  Comparator = "LT"
	CompareLTE Comparator = "LTE"
	CompareGT  Comparator = "GT"
	CompareGTE Comparator = "GTE"
	CompareEQ  Comparator = "EQ"
)

// AllComparators returns all recognised comparators.
func AllComparators() []Comparator {
	return []Comparator{CompareLT, CompareLTE, CompareGT, CompareGTE, CompareEQ}
}

// Rule is a per-room threshold condition bound to an action device and
// command. When a reading for the room satisfies the condition, the rule's
// action command is dispatched to the target device.
type Rule struct {
	// Identity
	ID     string `json:"id"`
	RoomID string `json:"room_id"`
	Name   string `json:"name"`

	// Condition
	Parameter  Parameter  `json:"parameter"`
	Comparator Comparator `json:"comparison"`
	Threshold  float64    `json:"threshold"`

	// Action. ActionCommand is either a bare command name ("turn_on") or a
	// JSON document {"command": "...", "params": {...}}; the command package
	// owns parsing and validation.
	ActionDeviceID string `json:"target_device_id"`
	ActionCommand  string `json:"action"`

	Enabled bool `json:"enabled"`

	// CreatedBy is recorded as the issuer for rule-triggered commands.
	CreatedBy string `json:"created_by"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Reading is one timestamped sensor measurement for a device. Any subset of
// the value fields may be absent; absent values never trigger rules.
// Field names match the telemetry payload keys.
type Reading struct {
	DeviceID string `json:"device_id"`
	RoomID   string `json:"room_id"`
	FarmID   string `json:"farm_id"`

	Temperature       *float64 `json:"temperature_c,omitempty"`
	Humidity          *float64 `json:"humidity_pct,omitempty"`
	CO2               *float64 `json:"co2_ppm,omitempty"`
	Light             *float64 `json:"light_lux,omitempty"`
	SubstrateMoisture *float64 `json:"substrate_moisture,omitempty"`
	Battery           *float64 `json:"battery_v,omitempty"`

	RecordedAt time.Time `json:"recorded_at"`
}

// Execution records one firing of a rule: which reading value triggered it
// and whether the dispatched command was accepted by the publish channel.
type Execution struct {
	ID          string    `json:"id"`
	RuleID      string    `json:"rule_id"`
	CommandID   *string   `json:"command_id,omitempty"`
	TriggeredAt time.Time `json:"triggered_at"`
	SensorValue *float64  `json:"sensor_value,omitempty"`
	Success     bool      `json:"success"`
	Detail      *string   `json:"detail,omitempty"`
}

// DeepCopy creates an independent copy of the Rule.
func (r *Rule) DeepCopy() *Rule {
	if r == nil {
		return nil
	}
	cpy := *r
	return &cpy
}
