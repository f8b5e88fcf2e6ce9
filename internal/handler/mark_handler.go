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

type markService interface {
	Load(ctx context.Context, caller models.Caller, rawLevel string, query dto.LoadRecordsQuery) ([]models.MarkRecord, error)
	Save(ctx context.Context, caller models.Caller, rawLevel string, req dto.SaveRecordsRequest) (*dto.MergeResult, error)
	Archive(ctx context.Context, caller models.Caller, rawLevel string, studentNumber int64, req dto.ArchiveRequest) (*models.ArchivedRecord, error)
}

// MarkHandler exposes the class mark sheet endpoints.
type MarkHandler struct {
	marks markService
}

// NewMarkHandler constructs a mark handler.
func NewMarkHandler(marks markService) *MarkHandler {
	return &MarkHandler{marks: marks}
}

// Load godoc
// @Summary List class marks
// @Description Records of one stream, year and term ordered by student number
// @Tags Marks
// @Produce json
// @Param level path string true "Class level (S1-S6)"
// @Param stream query string true "Stream"
// @Param year query int true "Year"
// @Param term query string true "Term"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /classes/{level}/records [get]
func (h *MarkHandler) Load(c *gin.Context) {
	var query dto.LoadRecordsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid query parameters"))
		return
	}
	records, err := h.marks.Load(c.Request.Context(), callerFromContext(c), c.Param("level"), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, map[string]interface{}{"count": len(records)})
}

// Save godoc
// @Summary Save class marks
// @Description Upserts a batch of mark records in one transaction
// @Tags Marks
// @Accept json
// @Produce json
// @Param level path string true "Class level (S1-S6)"
// @Param payload body dto.SaveRecordsRequest true "Marks batch"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /classes/{level}/records [post]
func (h *MarkHandler) Save(c *gin.Context) {
	var req dto.SaveRecordsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid marks payload"))
		return
	}
	result, err := h.marks.Save(c.Request.Context(), callerFromContext(c), c.Param("level"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Archive godoc
// @Summary Archive a student record
// @Description Moves one term record into the archive table
// @Tags Marks
// @Accept json
// @Produce json
// @Param level path string true "Class level (S1-S6)"
// @Param studentNo path int true "Student number"
// @Param payload body dto.ArchiveRequest true "Archive payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /classes/{level}/records/{studentNo}/archive [post]
func (h *MarkHandler) Archive(c *gin.Context) {
	studentNumber, err := studentNumberParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.ArchiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid archive payload"))
		return
	}
	archived, err := h.marks.Archive(c.Request.Context(), callerFromContext(c), c.Param("level"), studentNumber, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, archived, nil)
}
