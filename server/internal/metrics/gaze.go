package metrics

import (
	"math"

	"experiment-go/server/internal/models"
)

const (
	// MinFixationDuration is the shortest run, in ms, kept as a fixation.
	MinFixationDuration = 100.0
	// MaxFixationRadius is the distance, in px, from a run's first sample
	// within which later samples join the run.
	MaxFixationRadius = 35.0
)

// AnalyzeGaze derives the reading metrics of one eye tracking trial.
//
// samples must be in capture order. responseTime is the trial rt and is passed
// through as total_reading_time. wordCount is the number of whitespace
// delimited tokens in the stimulus text; when it is 0 the reading time per
// word is left nil. Invalid input is rejected with a *ValidationError before
// anything is computed.
func AnalyzeGaze(samples []models.GazeSample, viewportWidth, responseTime float64, wordCount int) (*models.TrialMetrics, error) {
	if err := validateGazeInput(samples, viewportWidth, responseTime, wordCount); err != nil {
		return nil, err
	}

	fixations := DetectFixations(samples)

	return &models.TrialMetrics{
		TotalSamples:         len(samples),
		TotalReadingTime:     responseTime,
		ReadingTimePerWord:   ReadingTimePerWord(responseTime, wordCount),
		NumberOfRegressions:  CountRegressions(samples),
		FixationTimeByRegion: RegionDwellTimes(samples, viewportWidth),
		NumberOfFixations:    len(fixations),
		Fixations:            fixations,
	}, nil
}

func validateGazeInput(samples []models.GazeSample, viewportWidth, responseTime float64, wordCount int) error {
	if !isFinite(viewportWidth) || viewportWidth <= 0 {
		return &ValidationError{Field: "viewport_width", Index: -1, Value: viewportWidth, Reason: "must be a finite number greater than zero"}
	}
	if !isFinite(responseTime) {
		return &ValidationError{Field: "response_time", Index: -1, Value: responseTime, Reason: "must be finite"}
	}
	if wordCount < 0 {
		return &ValidationError{Field: "word_count", Index: -1, Value: float64(wordCount), Reason: "must not be negative"}
	}

	for i, s := range samples {
		switch {
		case !isFinite(s.X):
			return &ValidationError{Field: "x", Index: i, Value: s.X, Reason: "must be finite"}
		case !isFinite(s.Y):
			return &ValidationError{Field: "y", Index: i, Value: s.Y, Reason: "must be finite"}
		case !isFinite(s.T):
			return &ValidationError{Field: "t", Index: i, Value: s.T, Reason: "must be finite"}
		}
	}
	return nil
}

// CountRegressions counts consecutive sample pairs where the gaze moved left.
// Every leftward step counts, including jitter; there is no smoothing.
func CountRegressions(samples []models.GazeSample) int {
	regressions := 0
	for i := 1; i < len(samples); i++ {
		if samples[i].X < samples[i-1].X {
			regressions++
		}
	}
	return regressions
}

// RegionDwellTimes splits the viewport into four equal columns and adds the
// time between consecutive samples to the column of the later sample.
func RegionDwellTimes(samples []models.GazeSample, viewportWidth float64) models.RegionDwellTimes {
	var dwell models.RegionDwellTimes
	regionWidth := viewportWidth / models.RegionCount

	for i := 1; i < len(samples); i++ {
		deltaT := samples[i].T - samples[i-1].T
		dwell[regionIndex(samples[i].X, regionWidth)] += deltaT
	}
	return dwell
}

// regionIndex clamps in float space; converting an out-of-range float to int
// is implementation-defined.
func regionIndex(x, regionWidth float64) int {
	f := math.Floor(x / regionWidth)
	if f <= 0 {
		return 0
	}
	if f >= models.RegionCount-1 {
		return models.RegionCount - 1
	}
	return int(f)
}

// DetectFixations groups samples into runs anchored on each run's first
// sample. The anchor does not move while the run is open, so slow drift stays
// in one run until it crosses MaxFixationRadius from the anchor.
func DetectFixations(samples []models.GazeSample) []models.Fixation {
	fixations := make([]models.Fixation, 0)
	var run []models.GazeSample

	for _, s := range samples {
		if len(run) == 0 {
			run = append(run, s)
			continue
		}

		if distance(run[0], s) < MaxFixationRadius {
			run = append(run, s)
			continue
		}

		if f, ok := closeRun(run); ok {
			fixations = append(fixations, f)
		}
		run = []models.GazeSample{s}
	}

	if f, ok := closeRun(run); ok {
		fixations = append(fixations, f)
	}
	return fixations
}

// closeRun reports the fixation for a run if it lasted long enough.
// A single sample run lasts 0 ms and is always dropped.
func closeRun(run []models.GazeSample) (models.Fixation, bool) {
	if len(run) == 0 {
		return models.Fixation{}, false
	}
	first, last := run[0], run[len(run)-1]
	duration := last.T - first.T
	if duration < MinFixationDuration {
		return models.Fixation{}, false
	}
	return models.Fixation{
		X:        first.X,
		Y:        first.Y,
		Start:    first.T,
		End:      last.T,
		Duration: duration,
	}, true
}

func distance(a, b models.GazeSample) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}
