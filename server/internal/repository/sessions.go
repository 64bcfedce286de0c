// server/internal/repository/sessions.go
package repository

import (
	"context"
	"errors"
	"fmt"

	"experiment-go/server/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrNotFound is returned when a participant has no stored session.
var ErrNotFound = errors.New("session not found")

// SessionRepository stores session summaries and gaze trial metrics.
type SessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// SaveSession upserts the participant's session and replaces its trial rows.
// session.ID is filled in on return.
func (r *SessionRepository) SaveSession(ctx context.Context, session *models.ReadingSession, rows []models.GazeTrialMetric) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.ReadingSession
		err := tx.Where("participant_id = ?", session.ParticipantID).Take(&existing).Error
		switch {
		case err == nil:
			session.ID = existing.ID
			session.CreatedAt = existing.CreatedAt
			if err := tx.Save(session).Error; err != nil {
				return fmt.Errorf("updating session: %w", err)
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			session.ID = uuid.NewString()
			if err := tx.Create(session).Error; err != nil {
				return fmt.Errorf("creating session: %w", err)
			}
		default:
			return fmt.Errorf("looking up session: %w", err)
		}

		if err := tx.Where("session_id = ?", session.ID).Delete(&models.GazeTrialMetric{}).Error; err != nil {
			return fmt.Errorf("clearing trial metrics: %w", err)
		}
		if len(rows) == 0 {
			return nil
		}
		for i := range rows {
			rows[i].ID = 0
			rows[i].SessionID = session.ID
			rows[i].ParticipantID = session.ParticipantID
		}
		if err := tx.Create(&rows).Error; err != nil {
			return fmt.Errorf("inserting trial metrics: %w", err)
		}
		return nil
	})
}

// GetSession returns the stored summary of a participant.
func (r *SessionRepository) GetSession(ctx context.Context, participantID string) (*models.ReadingSession, error) {
	var session models.ReadingSession
	err := r.db.WithContext(ctx).Where("participant_id = ?", participantID).Take(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// GetTrialMetrics returns a participant's eye tracking trials in trial order.
func (r *SessionRepository) GetTrialMetrics(ctx context.Context, participantID string) ([]models.GazeTrialMetric, error) {
	var rows []models.GazeTrialMetric
	err := r.db.WithContext(ctx).
		Where("participant_id = ?", participantID).
		Order("trial_index").
		Find(&rows).Error
	return rows, err
}
