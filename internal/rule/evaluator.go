package rule

import "math"

// equalityEpsilon is the tolerance for EQ comparisons. Exact floating-point
// equality is never assumed for sensor data.
const equalityEpsilon = 0.01

// Evaluate reports whether the reading satisfies the rule's condition.
//
// The reading's value for the rule's parameter is extracted; if it is absent
// the rule is not triggered. Missing data must never cause spurious action.
//
// Pure function: no side effects, safe for concurrent use.
func Evaluate(r *Rule, reading *Reading) bool {
	if r == nil || reading == nil {
		return false
	}

	value := ExtractValue(reading, r.Parameter)
	if value == nil {
		return false
	}

	return Compare(r.Comparator, *value, r.Threshold)
}

// Compare applies a comparator to a value and threshold.
func Compare(cmp Comparator, value, threshold float64) bool {
	switch cmp {
	case CompareLT:
		return value < threshold
	case CompareLTE:
		return value <= threshold
	case CompareGT:
		return value > threshold
	case CompareGTE:
		return value >= threshold
	case CompareEQ:
		return math.Abs(value-threshold) < equalityEpsilon
	default:
		return false
	}
}

// ExtractValue returns the reading's value for a parameter, or nil when the
// reading does not carry that measurement.
func ExtractValue(reading *Reading, param Parameter) *float64 {
	spec, ok := paramSpecs[param]
	if !ok {
		return nil
	}
	return spec.extract(reading)
}
