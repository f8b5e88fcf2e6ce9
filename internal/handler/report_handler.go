package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-records-api/internal/dto"
	"github.com/noah-isme/sma-records-api/internal/models"
	appErrors "github.com/noah-isme/sma-records-api/pkg/errors"
	"github.com/noah-isme/sma-records-api/pkg/response"
)

type reportBuilder interface {
	BuildReport(ctx context.Context, caller models.Caller, rawLevel string, studentNumber int64, query dto.ReportQuery) (*models.Report, error)
}

// ReportHandler exposes report card endpoints.
type ReportHandler struct {
	reports reportBuilder
}

// NewReportHandler constructs handler.
func NewReportHandler(reports reportBuilder) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// StudentReport godoc
// @Summary Student report card
// @Tags Reports
// @Produce json
// @Param level path string true "Class level (S1-S6)"
// @Param studentNo path int true "Student number"
// @Param stream query string true "Stream"
// @Param year query int true "Year"
// @Param term query string true "Term"
// @Param variant query string false "1, 2, 3, 4, BOT, MOT or EOT (default EOT)"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /classes/{level}/records/{studentNo}/report [get]
func (h *ReportHandler) StudentReport(c *gin.Context) {
	studentNumber, err := studentNumberParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var query dto.ReportQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid query parameters"))
		return
	}
	report, err := h.reports.BuildReport(c.Request.Context(), callerFromContext(c), c.Param("level"), studentNumber, query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}
