package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-records-api/internal/dto"
	"github.com/noah-isme/sma-records-api/internal/models"
	appErrors "github.com/noah-isme/sma-records-api/pkg/errors"
	"github.com/noah-isme/sma-records-api/pkg/response"
)

type deadlineService interface {
	Today() time.Time
	Status(ctx context.Context, today time.Time) (*models.DeadlineStatus, error)
	Set(ctx context.Context, caller models.Caller, req dto.SetDeadlineRequest) (*models.Deadline, error)
}

// DeadlineHandler exposes the marks entry deadline.
type DeadlineHandler struct {
	deadlines deadlineService
}

// NewDeadlineHandler constructs the handler.
func NewDeadlineHandler(deadlines deadlineService) *DeadlineHandler {
	return &DeadlineHandler{deadlines: deadlines}
}

// Status godoc
// @Summary Marks entry window
// @Tags Deadline
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /deadline [get]
func (h *DeadlineHandler) Status(c *gin.Context) {
	status, err := h.deadlines.Status(c.Request.Context(), h.deadlines.Today())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, status, nil)
}

// Set godoc
// @Summary Set the marks entry deadline
// @Tags Deadline
// @Accept json
// @Produce json
// @Param payload body dto.SetDeadlineRequest true "Deadline"
// @Success 201 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /deadline [post]
func (h *DeadlineHandler) Set(c *gin.Context) {
	var req dto.SetDeadlineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid deadline payload"))
		return
	}
	deadline, err := h.deadlines.Set(c.Request.Context(), callerFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, deadline, nil)
}
