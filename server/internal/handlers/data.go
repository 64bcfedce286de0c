// server/internal/handlers/data.go
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"experiment-go/server/internal/models"
	"experiment-go/server/internal/services"
	"experiment-go/server/internal/storage"
	"experiment-go/server/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Cloud sync states reported to the experiment page.
const (
	CloudSynced   = "synced"
	CloudPending  = "pending"
	CloudDisabled = "disabled"
)

const uploadTimeout = 15 * time.Second

// FileStore keeps the submitted session files.
type FileStore interface {
	Save(name string, content []byte) error
}

// RetryQueue takes files whose upload failed.
type RetryQueue interface {
	Enqueue(name string)
}

// SessionSaver persists session summaries.
type SessionSaver interface {
	SaveSession(ctx context.Context, session *models.ReadingSession, rows []models.GazeTrialMetric) error
}

type DataHandler struct {
	log       *zap.Logger
	processor *services.Processor
	files     FileStore
	uploader  storage.Uploader
	retries   RetryQueue
	sessions  SessionSaver
}

// NewDataHandler wires the submission endpoint. uploader and sessions may be
// nil when cloud storage or the database are disabled.
func NewDataHandler(log *zap.Logger, processor *services.Processor, files FileStore, uploader storage.Uploader, retries RetryQueue, sessions SessionSaver) *DataHandler {
	return &DataHandler{
		log:       log,
		processor: processor,
		files:     files,
		uploader:  uploader,
		retries:   retries,
		sessions:  sessions,
	}
}

type saveDataRequest struct {
	ParticipantID string           `json:"participant_id"`
	Data          []map[string]any `json:"data"`
}

// SaveData receives the jsPsych data of a finished session.
func (h *DataHandler) SaveData(c *gin.Context) {
	var req saveDataRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warn("Failed to bind session data", zap.Error(err))
		c.JSON(bindErrorStatus(err), gin.H{"error": "participant_id e data são obrigatórios"})
		return
	}
	if req.ParticipantID == "" || req.Data == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "participant_id e data são obrigatórios"})
		return
	}
	if !utils.IsValidParticipantID(req.ParticipantID) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "participant_id inválido"})
		return
	}

	log := h.log.With(zap.String("participant_id", req.ParticipantID))
	log.Info("Receiving session data", zap.Int("trials", len(req.Data)))

	processed := h.processor.Process(req.ParticipantID, req.Data)

	filename := storage.SessionFilename(req.ParticipantID)
	content, err := json.MarshalIndent(processed.Trials, "", "  ")
	if err != nil {
		log.Error("Failed to encode session data", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erro interno no servidor."})
		return
	}
	if err := h.files.Save(filename, content); err != nil {
		log.Error("Failed to save session file", zap.String("file", filename), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erro ao salvar o arquivo."})
		return
	}
	log.Info("Session file saved", zap.String("file", filename))

	cloud := h.upload(c.Request.Context(), log, filename, content)

	if h.sessions != nil {
		session := processed.Summary.ReadingSession(filename)
		if err := h.sessions.SaveSession(c.Request.Context(), session, processed.Rows); err != nil {
			log.Error("Failed to save session summary", zap.Error(err))
		}
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "filename": filename, "cloud": cloud})
}

func (h *DataHandler) upload(ctx context.Context, log *zap.Logger, filename string, content []byte) string {
	if h.uploader == nil {
		return CloudDisabled
	}

	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	if err := h.uploader.Upload(ctx, filename, content); err != nil {
		log.Error("Failed to upload session file, will retry", zap.String("file", filename), zap.Error(err))
		if h.retries != nil {
			h.retries.Enqueue(filename)
		}
		return CloudPending
	}
	log.Info("Session file uploaded", zap.String("file", filename))
	return CloudSynced
}

// bindErrorStatus maps a body decoding error to its response status.
func bindErrorStatus(err error) int {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}
