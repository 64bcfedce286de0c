// server/internal/handlers/results.go
package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"experiment-go/server/internal/models"
	"experiment-go/server/internal/repository"
	"experiment-go/server/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// ResultsRepository reads what the results pages plot.
type ResultsRepository interface {
	GetSession(ctx context.Context, participantID string) (*models.ReadingSession, error)
	GetTrialMetrics(ctx context.Context, participantID string) ([]models.GazeTrialMetric, error)
	GetTextSummaries(ctx context.Context) ([]repository.TextSummary, error)
}

type ResultsHandler struct {
	log  *zap.Logger
	repo ResultsRepository
}

// NewResultsHandler creates the results pages. repo is nil when the database
// is disabled.
func NewResultsHandler(log *zap.Logger, repo ResultsRepository) *ResultsHandler {
	return &ResultsHandler{log: log, repo: repo}
}

// ShowParticipant renders the eye tracking charts of one participant.
func (h *ResultsHandler) ShowParticipant(c *gin.Context) {
	if h.repo == nil {
		c.String(http.StatusServiceUnavailable, "Results are unavailable: database disabled")
		return
	}

	participantID := c.Param("participant_id")
	if !utils.IsValidParticipantID(participantID) {
		c.String(http.StatusBadRequest, "Invalid participant id")
		return
	}

	session, err := h.repo.GetSession(c, participantID)
	if errors.Is(err, repository.ErrNotFound) {
		c.String(http.StatusNotFound, "No data for participant %s", participantID)
		return
	}
	if err != nil {
		h.log.Error("Failed to get session", zap.Error(err), zap.String("participant_id", participantID))
		c.String(http.StatusInternalServerError, "Failed to load session")
		return
	}

	rows, err := h.repo.GetTrialMetrics(c, participantID)
	if err != nil {
		h.log.Error("Failed to get trial metrics", zap.Error(err), zap.String("participant_id", participantID))
		c.String(http.StatusInternalServerError, "Failed to load trial metrics")
		return
	}
	if len(rows) == 0 {
		c.String(http.StatusNotFound, "No eye tracking data for participant %s", participantID)
		return
	}

	page := components.NewPage()
	page.SetPageTitle("Resultados " + participantID)
	page.AddCharts(
		generateRegionChart(rows, sessionSubtitle(session)),
		generateTrialChart(rows),
	)
	h.render(c, page)
}

// ShowSummary renders per-text averages over every accepted participant.
func (h *ResultsHandler) ShowSummary(c *gin.Context) {
	if h.repo == nil {
		c.String(http.StatusServiceUnavailable, "Results are unavailable: database disabled")
		return
	}

	summaries, err := h.repo.GetTextSummaries(c)
	if err != nil {
		h.log.Error("Failed to get text summaries", zap.Error(err))
		c.String(http.StatusInternalServerError, "Failed to load summaries")
		return
	}

	page := components.NewPage()
	page.SetPageTitle("Resultados")
	page.AddCharts(generateSummaryChart(summaries))
	h.render(c, page)
}

func (h *ResultsHandler) render(c *gin.Context, page *components.Page) {
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)
	if err := page.Render(c.Writer); err != nil {
		h.log.Error("Failed to render charts", zap.Error(err))
	}
}

func sessionSubtitle(s *models.ReadingSession) string {
	if s.Accepted {
		return fmt.Sprintf("Participant %s: accepted", s.ParticipantID)
	}
	return fmt.Sprintf("Participant %s: rejected (%s)", s.ParticipantID, strings.Join(s.RejectionReasons, "; "))
}

func trialLabel(row models.GazeTrialMetric) string {
	if row.TextID == "" {
		return fmt.Sprintf("trial %d", row.TrialIndex)
	}
	if row.TextAuthorship == "" {
		return "text " + row.TextID
	}
	return fmt.Sprintf("text %s (%s)", row.TextID, row.TextAuthorship)
}

func generateRegionChart(rows []models.GazeTrialMetric, subtitle string) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Fixation Time by Region",
			Subtitle: subtitle,
		}),
		charts.WithYAxisOpts(opts.YAxis{Type: "value", Name: "ms"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "bottom"}),
	)

	regions := make([]string, models.RegionCount)
	for i := range regions {
		regions[i] = fmt.Sprintf("Region %d", i+1)
	}
	bar.SetXAxis(regions)

	for _, row := range rows {
		items := make([]opts.BarData, 0, models.RegionCount)
		for _, v := range row.FixationTimeByRegion {
			items = append(items, opts.BarData{Value: v})
		}
		bar.AddSeries(trialLabel(row), items)
	}
	return bar
}

func generateTrialChart(rows []models.GazeTrialMetric) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Fixations and Regressions per Text"}),
		charts.WithYAxisOpts(opts.YAxis{Type: "value"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "bottom"}),
	)

	labels := make([]string, 0, len(rows))
	fixations := make([]opts.BarData, 0, len(rows))
	regressions := make([]opts.BarData, 0, len(rows))
	for _, row := range rows {
		labels = append(labels, trialLabel(row))
		fixations = append(fixations, opts.BarData{Value: row.NumberOfFixations})
		regressions = append(regressions, opts.BarData{Value: row.NumberOfRegressions})
	}

	bar.SetXAxis(labels).
		AddSeries("Fixations", fixations).
		AddSeries("Regressions", regressions)
	return bar
}

func generateSummaryChart(summaries []repository.TextSummary) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Mean Eye Tracking Metrics per Text",
			Subtitle: "Accepted participants only",
		}),
		charts.WithYAxisOpts(opts.YAxis{Type: "value"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "bottom"}),
	)

	labels := make([]string, 0, len(summaries))
	fixations := make([]opts.BarData, 0, len(summaries))
	regressions := make([]opts.BarData, 0, len(summaries))
	perWord := make([]opts.BarData, 0, len(summaries))
	for _, s := range summaries {
		labels = append(labels, fmt.Sprintf("text %s (%s, n=%d)", s.TextID, s.TextAuthorship, s.Trials))
		fixations = append(fixations, opts.BarData{Value: s.MeanFixations})
		regressions = append(regressions, opts.BarData{Value: s.MeanRegressions})
		// "-" is an empty bar in echarts
		var v any = "-"
		if s.MeanReadingTimePerWord != nil {
			v = *s.MeanReadingTimePerWord
		}
		perWord = append(perWord, opts.BarData{Value: v})
	}

	bar.SetXAxis(labels).
		AddSeries("Fixations", fixations).
		AddSeries("Regressions", regressions).
		AddSeries("Reading time per word (ms)", perWord)
	return bar
}
