package rule

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Validation constants.
const (
	maxNameLength = 100
)

// paramSpec binds a parameter to its reading extractor and threshold
// sanity range.
type paramSpec struct {
	extract func(*Reading) *float64
	min     float64
	max     float64
	unit    string
}

// paramSpecs is the single source of truth for parameter handling. Adding a
// sensor kind means adding one entry here.
var paramSpecs = map[Parameter]paramSpec{
	ParamTemperature: {
		extract: func(r *Reading) *float64 { return r.Temperature },
		min:     -50, max: 100, unit: "°C",
	},
	ParamHumidity: {
		extract: func(r *Reading) *float64 { return r.Humidity },
		min:     0, max: 100, unit: "%",
	},
	ParamCO2: {
		extract: func(r *Reading) *float64 { return r.CO2 },
		min:     0, max: 10000, unit: "ppm",
	},
	ParamLight: {
		extract: func(r *Reading) *float64 { return r.Light },
		min:     0, max: 100000, unit: "lux",
	},
	ParamSubstrateMoisture: {
		extract: func(r *Reading) *float64 { return r.SubstrateMoisture },
		min:     0, max: 100, unit: "%",
	},
}

// Pre-computed set for O(1) comparator lookups.
var validComparators map[Comparator]struct{}

func init() {
	validComparators = make(map[Comparator]struct{}, len(AllComparators()))
	for _, c := range AllComparators() {
		validComparators[c] = struct{}{}
	}
}

// ValidateRule performs comprehensive validation on a rule.
// Returns an error describing the first validation failure found.
//
// Validation happens at write time only; evaluation assumes rules in the
// store are valid.
func ValidateRule(r *Rule) error {
	if r == nil {
		return ErrInvalidRule
	}

	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidRule)
	}
	if len(r.Name) > maxNameLength {
		return fmt.Errorf("%w: name exceeds %d characters", ErrInvalidRule, maxNameLength)
	}

	if r.RoomID == "" {
		return fmt.Errorf("%w: room_id is required", ErrInvalidRule)
	}
	if r.ActionDeviceID == "" {
		return fmt.Errorf("%w: target_device_id is required", ErrInvalidRule)
	}
	if strings.TrimSpace(r.ActionCommand) == "" {
		return fmt.Errorf("%w: action is required", ErrInvalidRule)
	}

	spec, ok := paramSpecs[r.Parameter]
	if !ok {
		return fmt.Errorf("%w: %q", ErrInvalidParameter, r.Parameter)
	}

	if _, ok := validComparators[r.Comparator]; !ok {
		return fmt.Errorf("%w: %q", ErrInvalidComparator, r.Comparator)
	}

	if r.Threshold < spec.min || r.Threshold > spec.max {
		return fmt.Errorf("%w: %s must be %g-%g %s, got %g",
			ErrThresholdOutOfRange, r.Parameter, spec.min, spec.max, spec.unit, r.Threshold)
	}

	return nil
}

// ThresholdRange returns the sanity range for a parameter.
// ok is false for unrecognised parameters.
func ThresholdRange(param Parameter) (min, max float64, ok bool) {
	spec, found := paramSpecs[param]
	if !found {
		return 0, 0, false
	}
	return spec.min, spec.max, true
}

// GenerateID creates a new UUID for a rule or execution.
func GenerateID() string {
	return uuid.New().String()
}
