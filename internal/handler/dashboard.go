package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"carepulse/internal/notify"
	"carepulse/internal/service"
	"carepulse/pkg/model"
)

// DashboardHandler composes the dashboard from the stores
type DashboardHandler struct {
	medications *service.MedicationService
	sources     *service.HealthSourceService
	metrics     *service.MetricsService
	checkIns    *service.CheckInService
	gate        *notify.Gate
	logger      *zap.Logger
}

// NewDashboardHandler creates a new DashboardHandler
func NewDashboardHandler(
	medications *service.MedicationService,
	sources *service.HealthSourceService,
	metrics *service.MetricsService,
	checkIns *service.CheckInService,
	gate *notify.Gate,
	logger *zap.Logger,
) *DashboardHandler {
	return &DashboardHandler{
		medications: medications,
		sources:     sources,
		metrics:     metrics,
		checkIns:    checkIns,
		gate:        gate,
		logger:      logger,
	}
}

// SummaryResponse is the dashboard payload
type SummaryResponse struct {
	Greeting         string                     `json:"greeting"`
	Subtitle         string                     `json:"subtitle"`
	Source           model.HealthDataConnection `json:"source"`
	Snapshot         model.MetricSnapshot       `json:"snapshot"`
	Medications      []model.Medication         `json:"medications"`
	MoodDistribution map[string]int             `json:"mood_distribution"`
	PromptPermission bool                       `json:"prompt_permission"`
}

// Summary handles GET /api/v1/dashboard/summary
func (h *DashboardHandler) Summary(c *gin.Context) {
	userName := c.GetString("user_name")
	if userName == "" {
		userName = "there"
	}

	active := h.sources.Active()

	distribution, err := h.checkIns.MoodDistribution(c.Request.Context(), c.GetString("user_id"), 7)
	if err != nil {
		h.logger.Warn("failed to load mood distribution", zap.Error(err))
		distribution = map[string]int{}
	}

	c.JSON(http.StatusOK, SummaryResponse{
		Greeting:         "Welcome back, " + userName,
		Subtitle:         "Here's your health overview",
		Source:           active,
		Snapshot:         h.metrics.Snapshot(active.Type),
		Medications:      h.medications.List(),
		MoodDistribution: distribution,
		PromptPermission: h.gate.ShouldPrompt(h.medications.AlarmCount()),
	})
}

// Series handles GET /api/v1/health/series?metric=&source=
func (h *DashboardHandler) Series(c *gin.Context) {
	metric := c.Query("metric")
	if metric == "" {
		c.JSON(http.StatusBadRequest, errorResponse("VALIDATION_ERROR", "metric query parameter is required", nil))
		return
	}

	source := model.SourceType(c.DefaultQuery("source", string(h.sources.ActiveSource())))

	end := time.Now()
	if raw := c.Query("end"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, errorResponse("VALIDATION_ERROR", "end must be a YYYY-MM-DD date", err))
			return
		}
		end = parsed
	}

	points, err := h.metrics.Series(c.Request.Context(), source, metric, end)
	if err != nil {
		if errors.Is(err, service.ErrUnknownMetric) {
			c.JSON(http.StatusBadRequest, errorResponse("VALIDATION_ERROR", err.Error(), nil))
			return
		}

		h.logger.Error("failed to build series", zap.Error(err), zap.String("metric", metric))
		c.JSON(http.StatusInternalServerError, errorResponse("INTERNAL_ERROR", "Failed to build series", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"source": source,
		"metric": metric,
		"points": points,
	})
}

// WeeklySummary handles GET /api/v1/health/weekly-summary
func (h *DashboardHandler) WeeklySummary(c *gin.Context) {
	source := model.SourceType(c.DefaultQuery("source", string(h.sources.ActiveSource())))

	bundle, err := h.metrics.SeriesBundle(c.Request.Context(), source, nil, time.Now())
	if err != nil {
		h.logger.Error("failed to build weekly summary", zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse("INTERNAL_ERROR", "Failed to build weekly summary", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"source":  source,
		"metrics": bundle,
	})
}
