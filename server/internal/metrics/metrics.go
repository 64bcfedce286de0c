package metrics

import (
	"fmt"
	"math"
)

// MetricResult is a single derived value. Calculated is false when there was
// not enough data to compute it; Value is then meaningless.
type MetricResult struct {
	Value      float64 `json:"value"`
	Calculated bool    `json:"calculated"`
	SampleSize int     `json:"sampleSize,omitempty"`
}

// Ptr returns a pointer to the value, or nil when it was not calculated.
func (r MetricResult) Ptr() *float64 {
	if !r.Calculated {
		return nil
	}
	v := r.Value
	return &v
}

func notCalculated(sampleSize int) MetricResult {
	return MetricResult{Value: 0.0, Calculated: false, SampleSize: sampleSize}
}

// ValidationError reports an input that violates the analyzer contract.
// Index is -1 for fields that do not belong to a sample.
type ValidationError struct {
	Field  string  `json:"field"`
	Index  int     `json:"index"`
	Value  float64 `json:"value"`
	Reason string  `json:"reason"`
}

func (e *ValidationError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("invalid %s at sample %d: %s", e.Field, e.Index, e.Reason)
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// sampleSD uses Bessel's correction.
func sampleSD(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	avg := mean(values)
	var variance float64
	for _, v := range values {
		variance += math.Pow(v-avg, 2)
	}
	variance /= float64(len(values) - 1)
	return math.Sqrt(variance)
}
