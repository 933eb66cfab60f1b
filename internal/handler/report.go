package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"carepulse/internal/service"
)

// ReportHandler implements report generation and download endpoints
type ReportHandler struct {
	service *service.ReportService
	logger  *zap.Logger
}

// NewReportHandler creates a new ReportHandler
func NewReportHandler(service *service.ReportService, logger *zap.Logger) *ReportHandler {
	return &ReportHandler{
		service: service,
		logger:  logger,
	}
}

// Generate handles POST /api/v1/reports/generate
func (h *ReportHandler) Generate(c *gin.Context) {
	userName := c.GetString("user_name")
	if userName == "" {
		userName = "Unknown"
	}

	report, err := h.service.Generate(c.Request.Context(), c.GetString("user_id"), userName)
	if err != nil {
		h.logger.Error("report generation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse("INTERNAL_ERROR", "Failed to generate report", err))
		return
	}

	c.JSON(http.StatusCreated, report)
}

// Download handles GET /api/v1/reports/:id
func (h *ReportHandler) Download(c *gin.Context) {
	reportID := c.Param("id")

	report, content, err := h.service.Open(c.Request.Context(), reportID)
	if err != nil {
		h.logger.Warn("report lookup failed", zap.Error(err), zap.String("report_id", reportID))
		c.JSON(http.StatusNotFound, errorResponse("NOT_FOUND", "Report not found", nil))
		return
	}

	c.Header("Content-Disposition", `attachment; filename="report-`+report.ID+`.pdf"`)
	c.Data(http.StatusOK, "application/pdf", content)
}
