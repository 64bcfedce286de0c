// server/internal/handlers/gaze.go
package handlers

import (
	"errors"
	"net/http"

	"experiment-go/server/internal/metrics"
	"experiment-go/server/internal/models"
	"experiment-go/server/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type GazeHandler struct {
	log       *zap.Logger
	processor *services.Processor
}

// NewGazeHandler shares the processor's default viewport width.
func NewGazeHandler(log *zap.Logger, processor *services.Processor) *GazeHandler {
	return &GazeHandler{log: log, processor: processor}
}

type gazeSampleInput struct {
	X *float64 `json:"x"`
	Y *float64 `json:"y"`
	T *float64 `json:"t"`
}

type analyzeRequest struct {
	Samples       []gazeSampleInput `json:"samples"`
	ViewportWidth *float64          `json:"viewport_width"`
	ResponseTime  *float64          `json:"response_time"`
	WordCount     *int              `json:"word_count"`
	Text          string            `json:"text"`
}

type analyzeResponse struct {
	Metrics   *models.TrialMetrics `json:"metrics"`
	Fixations []models.Fixation    `json:"fixations"`
}

// Analyze runs the gaze analyzer on a single trial without storing anything.
func (h *GazeHandler) Analyze(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warn("Failed to bind gaze analysis request", zap.Error(err))
		c.JSON(bindErrorStatus(err), gin.H{"error": "Invalid data"})
		return
	}

	m, err := h.analyze(req)
	if err != nil {
		var ve *metrics.ValidationError
		if errors.As(err, &ve) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error": ve.Error(),
				"field": ve.Field,
				"index": ve.Index,
			})
			return
		}
		h.log.Error("Gaze analysis failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Analysis failed"})
		return
	}

	c.JSON(http.StatusOK, analyzeResponse{Metrics: m, Fixations: m.Fixations})
}

func (h *GazeHandler) analyze(req analyzeRequest) (*models.TrialMetrics, error) {
	samples := make([]models.GazeSample, len(req.Samples))
	for i, s := range req.Samples {
		switch {
		case s.X == nil:
			return nil, &metrics.ValidationError{Field: "x", Index: i, Reason: "missing"}
		case s.Y == nil:
			return nil, &metrics.ValidationError{Field: "y", Index: i, Reason: "missing"}
		case s.T == nil:
			return nil, &metrics.ValidationError{Field: "t", Index: i, Reason: "missing"}
		}
		samples[i] = models.GazeSample{X: *s.X, Y: *s.Y, T: *s.T}
	}

	if req.ResponseTime == nil {
		return nil, &metrics.ValidationError{Field: "response_time", Index: -1, Reason: "missing"}
	}

	viewport := h.processor.DefaultViewportWidth()
	if req.ViewportWidth != nil {
		viewport = *req.ViewportWidth
	}

	words := metrics.WordCount(req.Text)
	if req.WordCount != nil {
		words = *req.WordCount
	}

	return metrics.AnalyzeGaze(samples, viewport, *req.ResponseTime, words)
}
