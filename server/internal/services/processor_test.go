package services

import (
	"testing"

	"experiment-go/server/internal/metrics"
	"experiment-go/server/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestProcessor(t *testing.T, texts ...models.Text) *Processor {
	return NewProcessor(models.NewCorpus(texts...), 1280, zaptest.NewLogger(t))
}

func sample(x, y, t float64) map[string]any {
	return map[string]any{"x": x, "y": y, "t": t}
}

func TestProcess_EyeTrackingTrial(t *testing.T) {
	p := newTestProcessor(t)
	trials := []map[string]any{
		{"task": "welcome", "rt": 1500.0},
		{
			"task":            "eye_tracking",
			"text_id":         "t1",
			"text_authorship": "human",
			"text_content":    "one two three four",
			"viewport_width":  800.0,
			"rt":              2000.0,
			"stimulus":        "<div>...</div>",
			"webgazer_data": []any{
				sample(100, 100, 0),
				sample(105, 100, 60),
				sample(110, 100, 120),
				sample(50, 100, 180),
			},
		},
	}

	out := p.Process("p1", trials)

	trial := out.Trials[1]
	assert.Equal(t, 4, trial[models.KeyTotalSamples])
	assert.Equal(t, 2000.0, trial[models.KeyTotalReadingTime])
	assert.Equal(t, 500.0, trial[models.KeyReadingTimePerWord])
	assert.Equal(t, 1, trial[models.KeyNumberOfRegressions])
	assert.Equal(t, []float64{180, 0, 0, 0}, trial[models.KeyFixationTimeByRegion])
	assert.Equal(t, 1, trial[models.KeyNumberOfFixations])
	assert.Equal(t, "<div>...</div>", trial["stimulus"], "unknown keys are kept")
	assert.NotContains(t, trial, KeyGazeAnalysisError)

	assert.NotContains(t, trials[1], models.KeyTotalSamples, "input trials are not modified")
	assert.Equal(t, map[string]any{"task": "welcome", "rt": 1500.0}, out.Trials[0])

	require.Len(t, out.Rows, 1)
	row := out.Rows[0]
	assert.Equal(t, 1, row.TrialIndex)
	assert.Equal(t, "t1", row.TextID)
	assert.Equal(t, "human", row.TextAuthorship)
	assert.Equal(t, 1, row.NumberOfFixations)
	assert.Equal(t, []float64{180, 0, 0, 0}, []float64(row.FixationTimeByRegion))

	assert.Equal(t, 2, out.Summary.TrialCount)
	assert.Equal(t, 1, out.Summary.EyeTrackingTrials)
	assert.Equal(t, 0, out.Summary.AnalysisFailures)
}

func TestProcess_InvalidGazeDataNullsMetrics(t *testing.T) {
	p := newTestProcessor(t)
	trials := []map[string]any{
		{
			"task":          "eye_tracking",
			"rt":            1000.0,
			"webgazer_data": []any{sample(1, 1, 0), map[string]any{"x": 2.0, "t": 10.0}},
		},
		{
			"task":          "eye_tracking",
			"rt":            1000.0,
			"webgazer_data": []any{sample(1, 1, 0)},
		},
	}

	out := p.Process("p1", trials)

	failed := out.Trials[0]
	for _, key := range models.TrialMetricKeys {
		v, ok := failed[key]
		assert.True(t, ok, key)
		assert.Nil(t, v, key)
	}
	assert.Equal(t, "invalid y at sample 1: missing or not a number", failed[KeyGazeAnalysisError])

	assert.Equal(t, 1, out.Trials[1][models.KeyTotalSamples], "the session continues after a fault")
	assert.Equal(t, 1, out.Summary.AnalysisFailures)
	assert.Equal(t, 2, out.Summary.EyeTrackingTrials)
	require.Len(t, out.Rows, 1)
	assert.Equal(t, 1, out.Rows[0].TrialIndex)
}

func TestProcess_MissingResponseTimeIsAFault(t *testing.T) {
	p := newTestProcessor(t)
	out := p.Process("p1", []map[string]any{
		{"task": "eye_tracking", "webgazer_data": []any{}},
	})
	assert.Contains(t, out.Trials[0][KeyGazeAnalysisError], "response_time")
	assert.Empty(t, out.Rows)
}

func TestProcess_NullGazeDataIsEmpty(t *testing.T) {
	p := newTestProcessor(t)
	out := p.Process("p1", []map[string]any{
		{"task": "eye_tracking", "rt": 900.0, "webgazer_data": nil},
		{"task": "eye_tracking", "rt": 900.0},
	})

	assert.Equal(t, 0, out.Trials[0][models.KeyTotalSamples])
	assert.Equal(t, 900.0, out.Trials[0][models.KeyTotalReadingTime])
	assert.NotContains(t, out.Trials[1], models.KeyTotalSamples, "trials without gaze data are not analyzed")
	assert.Equal(t, 1, out.Summary.EyeTrackingTrials)
}

func TestProcess_ViewportFallback(t *testing.T) {
	gaze := []any{sample(0, 0, 0), sample(250, 0, 10)}

	t.Run("session viewport", func(t *testing.T) {
		p := newTestProcessor(t)
		out := p.Process("p1", []map[string]any{
			{"task": "browser-check", "viewport_width": 400.0},
			{"task": "eye_tracking", "rt": 100.0, "webgazer_data": gaze},
		})
		assert.Equal(t, []float64{0, 0, 10, 0}, out.Trials[1][models.KeyFixationTimeByRegion])
	})

	t.Run("default viewport", func(t *testing.T) {
		p := newTestProcessor(t)
		out := p.Process("p1", []map[string]any{
			{"task": "eye_tracking", "rt": 100.0, "webgazer_data": gaze},
		})
		assert.Equal(t, []float64{10, 0, 0, 0}, out.Trials[0][models.KeyFixationTimeByRegion])
	})

	t.Run("reloaded default viewport", func(t *testing.T) {
		p := newTestProcessor(t)
		p.SetDefaultViewportWidth(400)
		assert.Equal(t, 400.0, p.DefaultViewportWidth())
		out := p.Process("p1", []map[string]any{
			{"task": "eye_tracking", "rt": 100.0, "webgazer_data": gaze},
		})
		assert.Equal(t, []float64{0, 0, 10, 0}, out.Trials[0][models.KeyFixationTimeByRegion])
	})

	t.Run("invalid trial viewport", func(t *testing.T) {
		p := newTestProcessor(t)
		out := p.Process("p1", []map[string]any{
			{"task": "eye_tracking", "rt": 100.0, "viewport_width": 0.0, "webgazer_data": gaze},
		})
		assert.Contains(t, out.Trials[0][KeyGazeAnalysisError], "viewport_width")
	})
}

func TestProcess_WordCountFromCorpus(t *testing.T) {
	p := newTestProcessor(t, models.Text{ID: "3", Authorship: "ai", Content: "a b c d e"})
	out := p.Process("p1", []map[string]any{
		{"task": "eye_tracking", "text_id": 3.0, "rt": 1000.0, "webgazer_data": []any{}},
		{"task": "eye_tracking", "text_id": "unknown", "rt": 1000.0, "webgazer_data": []any{}},
	})

	assert.Equal(t, 200.0, out.Trials[0][models.KeyReadingTimePerWord])
	assert.Equal(t, "3", out.Rows[0].TextID)

	v, ok := out.Trials[1][models.KeyReadingTimePerWord]
	assert.True(t, ok)
	assert.Nil(t, v, "no words means no per-word time")
}

func fullSession() []map[string]any {
	iat := func(kind, compat string, rt float64) map[string]any {
		return map[string]any{
			"trial_type":        "iat-html",
			"iat_type":          kind,
			"iat_compatibility": compat,
			"rt":                rt,
		}
	}
	return []map[string]any{
		iat("test", "compatible", 500),
		iat("test", "compatible", 600),
		iat("test", "incompatible", 700),
		iat("test", "incompatible", 900),
		{"task": "self_paced_reading", "rt": 2500.0, "segment_content": "five words in this sentence."},
		{"task": "self_paced_reading", "rt": 300.0, "segment_content": "   "},
		{
			"task": "eye_tracking_validation",
			"raw_gaze": []any{
				[]any{
					map[string]any{"x": 100.0, "y": 100.0, "dx": 100.0, "dy": 100.0},
					map[string]any{"x": 110.0, "y": 100.0, "dx": 100.0, "dy": 100.0},
				},
				[]any{map[string]any{"x": 200.0, "y": 200.0, "dx": 200.0, "dy": 200.0}},
				"junk",
				map[string]any{"x": 1.0, "y": 1.0},
			},
		},
	}
}

func TestProcess_SessionSummary(t *testing.T) {
	p := newTestProcessor(t)
	out := p.Process("p1", fullSession())

	assert.Equal(t, 500.0, out.Trials[4]["reading_time_per_word"])
	assert.Equal(t, 2500.0, out.Trials[4]["reading_time"])
	v, ok := out.Trials[5]["reading_time_per_word"]
	assert.True(t, ok)
	assert.Nil(t, v)

	s := out.Summary
	require.True(t, s.IATDScore.Calculated)
	assert.InDelta(t, 2.236, s.IATDScore.Value, 0.001)

	assert.InDelta(t, 675.0, s.Screening.IATMeanRT.Value, 1e-9)
	assert.InDelta(t, 500.0, s.Screening.MeanReadingTimePerWord.Value, 1e-9)
	assert.Equal(t, 3, s.Screening.CalibrationError.SampleSize)
	assert.True(t, s.Screening.Accepted, s.Screening.Reasons)
	assert.Empty(t, s.Screening.Reasons)
}

func TestProcess_EmptySessionIsRejected(t *testing.T) {
	p := newTestProcessor(t)
	out := p.Process("p1", nil)

	assert.Empty(t, out.Trials)
	assert.False(t, out.Summary.IATDScore.Calculated)
	assert.False(t, out.Summary.Screening.Accepted)
	assert.Equal(t, []string{
		"no IAT trials found",
		"no self_paced_reading trials found",
		"no valid eye_tracking_validation gaze points found",
	}, out.Summary.Screening.Reasons)
}

func TestSessionSummary_ReadingSession(t *testing.T) {
	p := newTestProcessor(t)
	out := p.Process("p1", fullSession())

	row := out.Summary.ReadingSession("dados_participante_p1.json")
	assert.Equal(t, "p1", row.ParticipantID)
	assert.Equal(t, "dados_participante_p1.json", row.Filename)
	assert.Equal(t, 7, row.TrialCount)
	assert.True(t, row.Accepted)
	require.NotNil(t, row.IATDScore)
	assert.InDelta(t, 2.236, *row.IATDScore, 0.001)
	require.NotNil(t, row.MeanReadingTimePerWord)
	require.NotNil(t, row.CalibrationErrorDeg)

	rejected := p.Process("p2", nil).Summary.ReadingSession("f.json")
	assert.Nil(t, rejected.IATDScore)
	assert.Nil(t, rejected.CalibrationErrorDeg)
	assert.Len(t, rejected.RejectionReasons, 3)
}

func TestValidationPoints(t *testing.T) {
	assert.Nil(t, validationPoints("not a list"))
	assert.Equal(t,
		[]metrics.ValidationPoint{{X: 1, Y: 2, DX: 3, DY: 4}},
		validationPoints([]any{map[string]any{"x": 1.0, "y": 2.0, "dx": 3.0, "dy": 4.0}}),
	)
}
