// server/internal/models/gaze.go
package models

// RegionCount is the number of horizontal screen regions used for dwell time.
const RegionCount = 4

// GazeSample is one raw webgazer observation. T is in milliseconds.
type GazeSample struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	T float64 `json:"t"`
}

// Fixation is a run of consecutive samples close to the run's first sample.
type Fixation struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Start    float64 `json:"start"`
	End      float64 `json:"end"`
	Duration float64 `json:"duration"`
}

// RegionDwellTimes holds elapsed time per horizontal quarter of the viewport.
type RegionDwellTimes [RegionCount]float64

// TrialMetrics is merged into the stored eye tracking trial. The JSON keys are
// read by the downstream analysis scripts, so they must not change.
type TrialMetrics struct {
	TotalSamples         int              `json:"total_samples"`
	TotalReadingTime     float64          `json:"total_reading_time"`
	ReadingTimePerWord   *float64         `json:"reading_time_per_word"`
	NumberOfRegressions  int              `json:"number_of_regressions"`
	FixationTimeByRegion RegionDwellTimes `json:"fixation_time_by_region"`
	NumberOfFixations    int              `json:"number_of_fixations"`

	Fixations []Fixation `json:"-"`
}

// Trial metric keys, in the order they are written to a trial record.
const (
	KeyTotalSamples         = "total_samples"
	KeyTotalReadingTime     = "total_reading_time"
	KeyReadingTimePerWord   = "reading_time_per_word"
	KeyNumberOfRegressions  = "number_of_regressions"
	KeyFixationTimeByRegion = "fixation_time_by_region"
	KeyNumberOfFixations    = "number_of_fixations"
)

// TrialMetricKeys lists every key Fields produces.
var TrialMetricKeys = []string{
	KeyTotalSamples,
	KeyTotalReadingTime,
	KeyReadingTimePerWord,
	KeyNumberOfRegressions,
	KeyFixationTimeByRegion,
	KeyNumberOfFixations,
}

// Fields flattens the metrics into the keys merged into a trial record.
// An undefined reading time per word is stored as nil.
func (m *TrialMetrics) Fields() map[string]any {
	var perWord any
	if m.ReadingTimePerWord != nil {
		perWord = *m.ReadingTimePerWord
	}
	regions := make([]float64, RegionCount)
	copy(regions, m.FixationTimeByRegion[:])

	return map[string]any{
		KeyTotalSamples:         m.TotalSamples,
		KeyTotalReadingTime:     m.TotalReadingTime,
		KeyReadingTimePerWord:   perWord,
		KeyNumberOfRegressions:  m.NumberOfRegressions,
		KeyFixationTimeByRegion: regions,
		KeyNumberOfFixations:    m.NumberOfFixations,
	}
}
