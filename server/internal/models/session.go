package models

import (
	"time"

	"github.com/lib/pq"
)

// ReadingSession is the per-participant summary of one submitted session.
// A resubmission for the same participant replaces the previous row.
type ReadingSession struct {
	ID                     string `gorm:"primaryKey;type:uuid"`
	ParticipantID          string `gorm:"uniqueIndex;not null"`
	Filename               string
	TrialCount             int
	EyeTrackingTrials      int
	AnalysisFailures       int
	IATDScore              *float64
	MeanReadingTimePerWord *float64
	CalibrationErrorDeg    *float64
	Accepted               bool
	RejectionReasons       pq.StringArray `gorm:"type:text[]"`
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

// GazeTrialMetric is the stored TrialMetrics of one eye tracking trial.
type GazeTrialMetric struct {
	ID                   uint   `gorm:"primaryKey"`
	SessionID            string `gorm:"index;type:uuid"`
	ParticipantID        string `gorm:"index"`
	TrialIndex           int
	TextID               string
	TextAuthorship       string
	TotalSamples         int
	TotalReadingTime     float64
	ReadingTimePerWord   *float64
	NumberOfRegressions  int
	NumberOfFixations    int
	FixationTimeByRegion pq.Float64Array `gorm:"type:double precision[]"`
	CreatedAt            time.Time
}

// NewGazeTrialMetric copies analyzer output into a storable row.
func NewGazeTrialMetric(trialIndex int, textID, authorship string, m *TrialMetrics) GazeTrialMetric {
	regions := make(pq.Float64Array, RegionCount)
	copy(regions, m.FixationTimeByRegion[:])
	return GazeTrialMetric{
		TrialIndex:           trialIndex,
		TextID:               textID,
		TextAuthorship:       authorship,
		TotalSamples:         m.TotalSamples,
		TotalReadingTime:     m.TotalReadingTime,
		ReadingTimePerWord:   m.ReadingTimePerWord,
		NumberOfRegressions:  m.NumberOfRegressions,
		NumberOfFixations:    m.NumberOfFixations,
		FixationTimeByRegion: regions,
	}
}
