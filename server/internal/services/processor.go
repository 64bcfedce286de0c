package services

import (
	"encoding/json"
	"fmt"
	"maps"
	"math"
	"strings"
	"sync"

	"experiment-go/server/internal/metrics"
	"experiment-go/server/internal/models"

	"go.uber.org/zap"
)

// Trial task names written by the experiment page.
const (
	TaskEyeTracking           = "eye_tracking"
	TaskEyeTrackingValidation = "eye_tracking_validation"
	TaskSelfPacedReading      = "self_paced_reading"
)

// KeyGazeAnalysisError holds the analyzer error of a trial whose gaze data
// could not be analyzed.
const KeyGazeAnalysisError = "gaze_analysis_error"

// SessionSummary is what one submitted session reduces to.
type SessionSummary struct {
	ParticipantID     string                  `json:"participant_id"`
	TrialCount        int                     `json:"trial_count"`
	EyeTrackingTrials int                     `json:"eye_tracking_trials"`
	AnalysisFailures  int                     `json:"analysis_failures"`
	IATDScore         metrics.MetricResult    `json:"iat_d_score"`
	Screening         metrics.ScreeningResult `json:"screening"`
}

// ReadingSession converts the summary into its database row.
func (s SessionSummary) ReadingSession(filename string) *models.ReadingSession {
	return &models.ReadingSession{
		ParticipantID:          s.ParticipantID,
		Filename:               filename,
		TrialCount:             s.TrialCount,
		EyeTrackingTrials:      s.EyeTrackingTrials,
		AnalysisFailures:       s.AnalysisFailures,
		IATDScore:              s.IATDScore.Ptr(),
		MeanReadingTimePerWord: s.Screening.MeanReadingTimePerWord.Ptr(),
		CalibrationErrorDeg:    s.Screening.CalibrationError.Ptr(),
		Accepted:               s.Screening.Accepted,
		RejectionReasons:       s.Screening.Reasons,
	}
}

// ProcessedSession is a session with derived metrics merged into its trials.
type ProcessedSession struct {
	Trials  []map[string]any
	Rows    []models.GazeTrialMetric
	Summary SessionSummary
}

// Processor derives trial and session metrics from raw jsPsych data.
type Processor struct {
	corpus *models.Corpus
	log    *zap.Logger

	mu                   sync.RWMutex
	defaultViewportWidth float64
}

func NewProcessor(corpus *models.Corpus, defaultViewportWidth float64, log *zap.Logger) *Processor {
	return &Processor{
		corpus:               corpus,
		defaultViewportWidth: defaultViewportWidth,
		log:                  log,
	}
}

// DefaultViewportWidth is used for trials that recorded no viewport width.
func (p *Processor) DefaultViewportWidth() float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.defaultViewportWidth
}

// SetDefaultViewportWidth applies a reloaded configuration value.
func (p *Processor) SetDefaultViewportWidth(w float64) {
	p.mu.Lock()
	p.defaultViewportWidth = w
	p.mu.Unlock()
}

// Process enriches a copy of every trial. Keys the processor does not know
// are left as they were. A trial whose gaze data is invalid gets null metrics
// and an error message; it never fails the session.
func (p *Processor) Process(participantID string, trials []map[string]any) *ProcessedSession {
	out := &ProcessedSession{
		Trials:  make([]map[string]any, len(trials)),
		Rows:    make([]models.GazeTrialMetric, 0),
		Summary: SessionSummary{ParticipantID: participantID, TrialCount: len(trials)},
	}

	defaultViewport := p.DefaultViewportWidth()
	sessionViewport, hasSessionViewport := firstNumber(trials, "viewport_width")

	var (
		iatTrials   []metrics.IATTrial
		iatRTs      []float64
		readingRTPW []float64
		validation  []metrics.ValidationPoint
	)

	for i, raw := range trials {
		trial := maps.Clone(raw)
		if trial == nil {
			trial = make(map[string]any)
		}
		out.Trials[i] = trial

		task, _ := trial["task"].(string)
		switch task {
		case TaskEyeTracking:
			if _, ok := trial["webgazer_data"]; !ok {
				break
			}
			out.Summary.EyeTrackingTrials++

			viewport := defaultViewport
			if hasSessionViewport {
				viewport = sessionViewport
			}
			if v, ok := trial["viewport_width"]; ok && v != nil {
				viewport = numberOrNaN(v)
			}

			m, err := p.analyzeTrial(trial, viewport)
			if err != nil {
				out.Summary.AnalysisFailures++
				p.log.Warn("Gaze analysis failed",
					zap.String("participant_id", participantID),
					zap.Int("trial_index", i),
					zap.Error(err))
				for _, key := range models.TrialMetricKeys {
					trial[key] = nil
				}
				trial[KeyGazeAnalysisError] = err.Error()
				continue
			}
			maps.Copy(trial, m.Fields())
			authorship, _ := trial["text_authorship"].(string)
			out.Rows = append(out.Rows, models.NewGazeTrialMetric(i, textID(trial), authorship, m))

		case TaskSelfPacedReading:
			rt, ok := number(trial["rt"])
			if !ok {
				break
			}
			segment, _ := trial["segment_content"].(string)
			sm := metrics.SegmentReadingMetrics(rt, segment)
			trial["reading_time"] = sm.ReadingTime
			if sm.ReadingTimePerWord != nil {
				trial["reading_time_per_word"] = *sm.ReadingTimePerWord
				readingRTPW = append(readingRTPW, *sm.ReadingTimePerWord)
			} else {
				trial["reading_time_per_word"] = nil
			}

		case TaskEyeTrackingValidation:
			validation = append(validation, validationPoints(trial["raw_gaze"])...)
		}

		if isIATTrial(trial) {
			rt, ok := number(trial["rt"])
			if !ok {
				continue
			}
			iatRTs = append(iatRTs, rt)
			if kind, _ := trial["iat_type"].(string); kind == "test" {
				compat, _ := trial["iat_compatibility"].(string)
				iatTrials = append(iatTrials, metrics.IATTrial{RT: rt, Compatibility: compat})
			}
		}
	}

	out.Summary.IATDScore = metrics.CalculateDScore(iatTrials)
	out.Summary.Screening = metrics.Screen(metrics.ScreeningInput{
		IATRTs:              iatRTs,
		ReadingTimesPerWord: readingRTPW,
		ValidationPoints:    validation,
	})
	return out
}

func (p *Processor) analyzeTrial(trial map[string]any, viewport float64) (*models.TrialMetrics, error) {
	samples, err := decodeSamples(trial["webgazer_data"])
	if err != nil {
		return nil, err
	}
	return metrics.AnalyzeGaze(samples, viewport, numberOrNaN(trial["rt"]), p.wordCount(trial))
}

// wordCount prefers the text shown in the trial and falls back to the corpus.
func (p *Processor) wordCount(trial map[string]any) int {
	if content, ok := trial["text_content"].(string); ok {
		return metrics.WordCount(content)
	}
	if id := textID(trial); id != "" {
		if text, ok := p.corpus.Lookup(id); ok {
			return metrics.WordCount(text.Content)
		}
	}
	return 0
}

// decodeSamples reads webgazer samples. A null list is an empty trial; a
// sample with a missing or non-numeric coordinate is rejected.
func decodeSamples(v any) ([]models.GazeSample, error) {
	if v == nil {
		return []models.GazeSample{}, nil
	}
	list, ok := v.([]any)
	if !ok {
		return nil, &metrics.ValidationError{Field: "webgazer_data", Index: -1, Reason: "must be a list of samples"}
	}

	samples := make([]models.GazeSample, len(list))
	for i, item := range list {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, &metrics.ValidationError{Field: "webgazer_data", Index: i, Reason: "sample must be an object"}
		}
		coords := [3]*float64{&samples[i].X, &samples[i].Y, &samples[i].T}
		for j, field := range []string{"x", "y", "t"} {
			n, ok := number(obj[field])
			if !ok {
				return nil, &metrics.ValidationError{Field: field, Index: i, Reason: "missing or not a number"}
			}
			*coords[j] = n
		}
	}
	return samples, nil
}

// validationPoints flattens raw_gaze, which is either a list of points or a
// list of per-dot point lists. Points missing a coordinate are skipped.
func validationPoints(v any) []metrics.ValidationPoint {
	list, ok := v.([]any)
	if !ok {
		return nil
	}

	points := make([]metrics.ValidationPoint, 0, len(list))
	for _, item := range list {
		if nested, ok := item.([]any); ok {
			points = append(points, validationPoints(nested)...)
			continue
		}
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		x, okX := number(obj["x"])
		y, okY := number(obj["y"])
		dx, okDX := number(obj["dx"])
		dy, okDY := number(obj["dy"])
		if okX && okY && okDX && okDY {
			points = append(points, metrics.ValidationPoint{X: x, Y: y, DX: dx, DY: dy})
		}
	}
	return points
}

// isIATTrial matches both the jsPsych iat plugins and trials tagged by the
// experiment with an iat_type.
func isIATTrial(trial map[string]any) bool {
	if kind, ok := trial["trial_type"].(string); ok && strings.Contains(kind, "iat") {
		return true
	}
	_, ok := trial["iat_type"].(string)
	return ok
}

// textID renders numeric and string ids the same way.
func textID(trial map[string]any) string {
	switch id := trial["text_id"].(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(id)
	case float64:
		if id == math.Trunc(id) {
			return fmt.Sprintf("%.0f", id)
		}
		return fmt.Sprint(id)
	default:
		return fmt.Sprint(id)
	}
}

func firstNumber(trials []map[string]any, key string) (float64, bool) {
	for _, trial := range trials {
		if n, ok := number(trial[key]); ok {
			return n, true
		}
	}
	return 0, false
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// numberOrNaN lets the analyzer report missing values as non-finite input.
func numberOrNaN(v any) float64 {
	if n, ok := number(v); ok {
		return n
	}
	return math.NaN()
}
