package metrics

import "math"

// IAT block compatibility labels as recorded by the experiment.
const (
	IATCompatible   = "compatible"
	IATIncompatible = "incompatible"
)

// IATTrial is one test block response of the implicit association task.
type IATTrial struct {
	RT            float64 `json:"rt"`
	Compatibility string  `json:"iat_compatibility"`
}

// CalculateDScore computes the IAT D-score: the difference between the mean
// incompatible and compatible latencies divided by the pooled standard
// deviation of the two blocks.
func CalculateDScore(trials []IATTrial) MetricResult {
	var compatible, incompatible []float64
	for _, trial := range trials {
		if !isFinite(trial.RT) {
			continue
		}
		switch trial.Compatibility {
		case IATCompatible:
			compatible = append(compatible, trial.RT)
		case IATIncompatible:
			incompatible = append(incompatible, trial.RT)
		}
	}

	sampleSize := len(compatible) + len(incompatible)
	// A standard deviation needs at least two latencies per block.
	if len(compatible) < 2 || len(incompatible) < 2 {
		return notCalculated(sampleSize)
	}

	sdC := sampleSD(compatible)
	sdI := sampleSD(incompatible)
	pooled := math.Sqrt((sdC*sdC + sdI*sdI) / 2)
	if pooled == 0 {
		return notCalculated(sampleSize)
	}

	return MetricResult{
		Value:      (mean(incompatible) - mean(compatible)) / pooled,
		Calculated: true,
		SampleSize: sampleSize,
	}
}
