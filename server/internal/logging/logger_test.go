package logger

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"experiment-go/server/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestInit_WritesOneFilePerLevel(t *testing.T) {
	root := t.TempDir()
	log, err := Init(root, config.LoggingConfig{Directory: "logs", MaxSize: 1, MaxBackups: 1, MaxAge: 1})
	require.NoError(t, err)

	log.Info("session saved", zap.String("participant_id", "abc12345"))
	log.Error("upload failed")
	_ = log.Sync()

	logDir := filepath.Join(root, "logs")
	info, err := os.ReadFile(levelFileName(logDir, zapcore.InfoLevel, time.Now()))
	require.NoError(t, err)
	assert.Contains(t, string(info), "session saved")
	assert.NotContains(t, string(info), "upload failed")

	errLog, err := os.ReadFile(levelFileName(logDir, zapcore.ErrorLevel, time.Now()))
	require.NoError(t, err)
	assert.Contains(t, string(errLog), "upload failed")
}

func observedGormLogger(level logger.LogLevel) (*GormZapLogger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewGormZapLogger(zap.New(core))
	return l.LogMode(level).(*GormZapLogger), logs
}

func TestGormZapLogger_Trace(t *testing.T) {
	sql := func() (string, int64) { return "SELECT 1", 1 }

	t.Run("errors are logged except record not found", func(t *testing.T) {
		l, logs := observedGormLogger(logger.Warn)
		l.Trace(context.Background(), time.Now(), sql, errors.New("connection reset"))
		l.Trace(context.Background(), time.Now(), sql, gorm.ErrRecordNotFound)

		require.Equal(t, 1, logs.Len())
		assert.Equal(t, zapcore.ErrorLevel, logs.All()[0].Level)
	})

	t.Run("slow queries warn", func(t *testing.T) {
		l, logs := observedGormLogger(logger.Warn)
		l.Trace(context.Background(), time.Now().Add(-time.Second), sql, nil)

		require.Equal(t, 1, logs.Len())
		assert.Equal(t, "GORM Trace [SLOW]", logs.All()[0].Message)
	})

	t.Run("fast queries only at info", func(t *testing.T) {
		l, logs := observedGormLogger(logger.Warn)
		l.Trace(context.Background(), time.Now(), sql, nil)
		assert.Equal(t, 0, logs.Len())

		l, logs = observedGormLogger(logger.Info)
		l.Trace(context.Background(), time.Now(), sql, nil)
		assert.Equal(t, 1, logs.Len())
	})

	t.Run("silent", func(t *testing.T) {
		l, logs := observedGormLogger(logger.Silent)
		l.Trace(context.Background(), time.Now(), sql, errors.New("boom"))
		assert.Equal(t, 0, logs.Len())
	})
}
