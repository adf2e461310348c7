package rule

import (
	"errors"
	"strings"
	"testing"
)

func validRule() *Rule {
	return &Rule{
		ID:             "rule-1",
		RoomID:         "room-1",
		Name:           "High temperature exhaust",
		Parameter:      ParamTemperature,
		Comparator:     CompareGT,
		Threshold:      28.0,
		ActionDeviceID: "device-1",
		ActionCommand:  "turn_on",
	}
}

func TestValidateRule(t *testing.T) {
	t.Run("valid rule passes", func(t *testing.T) {
		if err := ValidateRule(validRule()); err != nil {
			t.Errorf("ValidateRule() = %v, want nil", err)
		}
	})

	t.Run("nil rule", func(t *testing.T) {
		if err := ValidateRule(nil); !errors.Is(err, ErrInvalidRule) {
			t.Errorf("ValidateRule(nil) = %v, want ErrInvalidRule", err)
		}
	})

	tests := []struct {
		name    string
		mutate  func(*Rule)
		wantErr error
	}{
		{"empty name", func(r *Rule) { r.Name = "" }, ErrInvalidRule},
		{"whitespace name", func(r *Rule) { r.Name = "   " }, ErrInvalidRule},
		{"name too long", func(r *Rule) { r.Name = strings.Repeat("x", maxNameLength+1) }, ErrInvalidRule},
		{"missing room", func(r *Rule) { r.RoomID = "" }, ErrInvalidRule},
		{"missing device", func(r *Rule) { r.ActionDeviceID = "" }, ErrInvalidRule},
		{"missing action", func(r *Rule) { r.ActionCommand = "" }, ErrInvalidRule},
		{"unknown parameter", func(r *Rule) { r.Parameter = "ph" }, ErrInvalidParameter},
		{"unknown comparator", func(r *Rule) { r.Comparator = "NEQ" }, ErrInvalidComparator},
		{"lowercase comparator", func(r *Rule) { r.Comparator = "gt" }, ErrInvalidComparator},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := validRule()
			tt.mutate(r)
			if err := ValidateRule(r); !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateRule() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateRuleThresholdRanges(t *testing.T) {
	tests := []struct {
		name      string
		param     Parameter
		threshold float64
		wantErr   bool
	}{
		{"temperature min", ParamTemperature, -50, false},
		{"temperature max", ParamTemperature, 100, false},
		{"temperature below min", ParamTemperature, -50.1, true},
		{"temperature above max", ParamTemperature, 100.1, true},
		{"humidity in range", ParamHumidity, 85, false},
		{"humidity above max", ParamHumidity, 100.5, true},
		{"humidity negative", ParamHumidity, -1, true},
		{"co2 max", ParamCO2, 10000, false},
		{"co2 above max", ParamCO2, 10001, true},
		{"light max", ParamLight, 100000, false},
		{"light above max", ParamLight, 100001, true},
		{"substrate moisture in range", ParamSubstrateMoisture, 40, false},
		{"substrate moisture above max", ParamSubstrateMoisture, 101, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := validRule()
			r.Parameter = tt.param
			r.Threshold = tt.threshold
			err := ValidateRule(r)
			if tt.wantErr {
				if !errors.Is(err, ErrThresholdOutOfRange) {
					t.Errorf("ValidateRule() = %v, want ErrThresholdOutOfRange", err)
				}
			} else if err != nil {
				t.Errorf("ValidateRule() = %v, want nil", err)
			}
		})
	}
}

func TestThresholdRange(t *testing.T) {
	min, max, ok := ThresholdRange(ParamHumidity)
	if !ok {
		t.Fatal("ThresholdRange(humidity) ok = false")
	}
	if min != 0 || max != 100 {
		t.Errorf("ThresholdRange(humidity) = %g-%g, want 0-100", min, max)
	}

	if _, _, ok := ThresholdRange("ph"); ok {
		t.Error("ThresholdRange(unknown) ok = true, want false")
	}
}

func TestGenerateID(t *testing.T) {
	a := GenerateID()
	b := GenerateID()
	if a == "" || b == "" {
		t.Fatal("GenerateID() returned empty string")
	}
	if a == b {
		t.Error("GenerateID() returned duplicate IDs")
	}
}
