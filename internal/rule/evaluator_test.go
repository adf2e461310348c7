package rule

import "testing"

func f(v float64) *float64 { return &v }

func TestCompare(t *testing.T) {
	tests := []struct {
		name      string
		cmp       Comparator
		value     float64
		threshold float64
		want      bool
	}{
		// LT
		{"LT below", CompareLT, 10, 20, true},
		{"LT equal", CompareLT, 20, 20, false},
		{"LT above", CompareLT, 30, 20, false},

		// LTE
		{"LTE below", CompareLTE, 10, 20, true},
		{"LTE equal triggers", CompareLTE, 20, 20, true},
		{"LTE above", CompareLTE, 30, 20, false},

		// GT
		{"GT above", CompareGT, 30, 20, true},
		{"GT equal", CompareGT, 20, 20, false},
		{"GT below", CompareGT, 10, 20, false},

		// GTE
		{"GTE above", CompareGTE, 30, 20, true},
		{"GTE equal triggers", CompareGTE, 20, 20, true},
		{"GTE below", CompareGTE, 10, 20, false},

		// EQ with 0.01 tolerance
		{"EQ exact", CompareEQ, 20, 20, true},
		{"EQ within tolerance", CompareEQ, 20.005, 20, true},
		{"EQ within tolerance below", CompareEQ, 19.995, 20, true},
		{"EQ at tolerance boundary above", CompareEQ, 20.01, 20, false},
		{"EQ at tolerance boundary below", CompareEQ, 19.99, 20, false},
		{"EQ outside tolerance", CompareEQ, 20.5, 20, false},

		// Unknown comparator never triggers
		{"unknown comparator", Comparator("NEQ"), 20, 20, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Compare(tt.cmp, tt.value, tt.threshold)
			if got != tt.want {
				t.Errorf("Compare(%s, %g, %g) = %v, want %v",
					tt.cmp, tt.value, tt.threshold, got, tt.want)
			}
		})
	}
}

func TestEvaluate(t *testing.T) {
	rule := &Rule{
		ID:         "rule-1",
		RoomID:     "room-1",
		Parameter:  ParamTemperature,
		Comparator: CompareGT,
		Threshold:  28.0,
	}

	t.Run("triggers above threshold", func(t *testing.T) {
		reading := &Reading{RoomID: "room-1", Temperature: f(30.0)}
		if !Evaluate(rule, reading) {
			t.Error("Evaluate() = false, want true")
		}
	})

	t.Run("does not trigger below threshold", func(t *testing.T) {
		reading := &Reading{RoomID: "room-1", Temperature: f(25.0)}
		if Evaluate(rule, reading) {
			t.Error("Evaluate() = true, want false")
		}
	})

	t.Run("missing value never triggers", func(t *testing.T) {
		// Reading carries other parameters but not temperature
		reading := &Reading{RoomID: "room-1", Humidity: f(90.0), CO2: f(5000)}
		if Evaluate(rule, reading) {
			t.Error("Evaluate() = true for missing value, want false")
		}
	})

	t.Run("empty reading never triggers", func(t *testing.T) {
		if Evaluate(rule, &Reading{RoomID: "room-1"}) {
			t.Error("Evaluate() = true for empty reading, want false")
		}
	})

	t.Run("nil inputs never trigger", func(t *testing.T) {
		if Evaluate(nil, &Reading{}) {
			t.Error("Evaluate(nil rule) = true, want false")
		}
		if Evaluate(rule, nil) {
			t.Error("Evaluate(nil reading) = true, want false")
		}
	})
}

func TestEvaluateMissingValueAllParameters(t *testing.T) {
	// A rule on each parameter must never trigger against a reading that
	// carries every value except its own.
	for _, param := range AllParameters() {
		t.Run(string(param), func(t *testing.T) {
			reading := &Reading{
				RoomID:            "room-1",
				Temperature:       f(25),
				Humidity:          f(50),
				CO2:               f(800),
				Light:             f(10000),
				SubstrateMoisture: f(40),
			}
			switch param {
			case ParamTemperature:
				reading.Temperature = nil
			case ParamHumidity:
				reading.Humidity = nil
			case ParamCO2:
				reading.CO2 = nil
			case ParamLight:
				reading.Light = nil
			case ParamSubstrateMoisture:
				reading.SubstrateMoisture = nil
			}

			r := &Rule{
				Parameter:  param,
				Comparator: CompareGTE,
				Threshold:  -1000, // Would trigger against any present value
			}
			if Evaluate(r, reading) {
				t.Errorf("rule on %s triggered despite missing value", param)
			}
		})
	}
}

func TestExtractValue(t *testing.T) {
	reading := &Reading{
		Temperature:       f(21.5),
		Humidity:          f(63),
		CO2:               f(850),
		Light:             f(12000),
		SubstrateMoisture: f(45),
	}

	tests := []struct {
		param Parameter
		want  float64
	}{
		{ParamTemperature, 21.5},
		{ParamHumidity, 63},
		{ParamCO2, 850},
		{ParamLight, 12000},
		{ParamSubstrateMoisture, 45},
	}

	for _, tt := range tests {
		t.Run(string(tt.param), func(t *testing.T) {
			got := ExtractValue(reading, tt.param)
			if got == nil {
				t.Fatalf("ExtractValue(%s) = nil", tt.param)
			}
			if *got != tt.want {
				t.Errorf("ExtractValue(%s) = %g, want %g", tt.param, *got, tt.want)
			}
		})
	}

	t.Run("unknown parameter", func(t *testing.T) {
		if got := ExtractValue(reading, Parameter("ph")); got != nil {
			t.Errorf("ExtractValue(unknown) = %v, want nil", got)
		}
	})
}
