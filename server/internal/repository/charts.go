// server/internal/repository/charts.go
package repository

import (
	"context"
)

// TextSummary aggregates eye tracking metrics of one text across participants.
type TextSummary struct {
	TextID                 string   `json:"textId"`
	TextAuthorship         string   `json:"textAuthorship"`
	Trials                 int      `json:"trials"`
	MeanFixations          float64  `json:"meanFixations"`
	MeanRegressions        float64  `json:"meanRegressions"`
	MeanReadingTimePerWord *float64 `json:"meanReadingTimePerWord"`
}

// GetTextSummaries averages the metrics of accepted sessions per text.
// AVG ignores NULL reading times, so texts read with no words stay NULL.
func (r *SessionRepository) GetTextSummaries(ctx context.Context) ([]TextSummary, error) {
	var data []TextSummary

	query := `
		SELECT
			m.text_id AS text_id,
			m.text_authorship AS text_authorship,
			COUNT(*) AS trials,
			AVG(m.number_of_fixations)::float AS mean_fixations,
			AVG(m.number_of_regressions)::float AS mean_regressions,
			AVG(m.reading_time_per_word)::float AS mean_reading_time_per_word
		FROM gaze_trial_metrics m
		JOIN reading_sessions s ON m.session_id = s.id
		WHERE s.accepted = true
		GROUP BY m.text_id, m.text_authorship
		ORDER BY m.text_authorship, m.text_id;
	`

	err := r.db.WithContext(ctx).Raw(query).Scan(&data).Error
	return data, err
}
