package database

import (
	"fmt"

	"experiment-go/server/internal/config"
	logging "experiment-go/server/internal/logging"
	"experiment-go/server/internal/models"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Open connects to postgres and runs the migrations.
func Open(cfg config.DatabaseConfig, log *zap.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: logging.NewGormZapLogger(log),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Info("Database connection established successfully.")

	if err := runMigrations(db, log); err != nil {
		return nil, err
	}
	return db, nil
}

func runMigrations(db *gorm.DB, log *zap.Logger) error {
	// AutoMigrate creates tables, columns and the indexes declared in tags.
	if err := db.AutoMigrate(
		&models.ReadingSession{},
		&models.GazeTrialMetric{},
	); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}
	log.Info("Database migrations completed successfully.")

	metricsIndex := `CREATE INDEX IF NOT EXISTS idx_gaze_metrics_participant_trial ON gaze_trial_metrics (participant_id, trial_index);`
	if err := db.Exec(metricsIndex).Error; err != nil {
		return fmt.Errorf("failed to create custom index on gaze metrics table: %w", err)
	}
	log.Info("Custom indexes ensured successfully.")
	return nil
}
