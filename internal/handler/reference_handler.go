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

type referenceService interface {
	Subjects(ctx context.Context) ([]models.Subject, error)
	Bands(ctx context.Context) ([]models.GradingBand, error)
	SchoolProfile(ctx context.Context) (*models.SchoolProfile, error)
	ReplaceBands(ctx context.Context, caller models.Caller, req dto.ReplaceBandsRequest) ([]models.GradingBand, error)
	CreateSubject(ctx context.Context, caller models.Caller, req dto.CreateSubjectRequest) (*models.Subject, error)
}

type streamService interface {
	List(ctx context.Context, rawLevel string) ([]string, error)
	Add(ctx context.Context, caller models.Caller, rawLevel string, req dto.AddStreamRequest) ([]string, error)
}

// ReferenceHandler serves subjects, grading bands, streams and the school profile.
type ReferenceHandler struct {
	refs    referenceService
	streams streamService
}

// NewReferenceHandler constructs the handler.
func NewReferenceHandler(refs referenceService, streams streamService) *ReferenceHandler {
	return &ReferenceHandler{refs: refs, streams: streams}
}

// Subjects godoc
// @Summary List subjects
// @Tags Reference
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /subjects [get]
func (h *ReferenceHandler) Subjects(c *gin.Context) {
	subjects, err := h.refs.Subjects(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, subjects, nil)
}

// CreateSubject godoc
// @Summary Add a subject to the catalog
// @Tags Reference
// @Accept json
// @Produce json
// @Param payload body dto.CreateSubjectRequest true "Subject"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /subjects [post]
func (h *ReferenceHandler) CreateSubject(c *gin.Context) {
	var req dto.CreateSubjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid subject payload"))
		return
	}
	subject, err := h.refs.CreateSubject(c.Request.Context(), callerFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, subject, nil)
}

// Bands godoc
// @Summary List grading bands
// @Tags Reference
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /grading-bands [get]
func (h *ReferenceHandler) Bands(c *gin.Context) {
	bands, err := h.refs.Bands(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, bands, nil)
}

// ReplaceBands godoc
// @Summary Replace the grading scale
// @Tags Reference
// @Accept json
// @Produce json
// @Param payload body dto.ReplaceBandsRequest true "Bands"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /grading-bands [put]
func (h *ReferenceHandler) ReplaceBands(c *gin.Context) {
	var req dto.ReplaceBandsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid grading bands payload"))
		return
	}
	bands, err := h.refs.ReplaceBands(c.Request.Context(), callerFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, bands, nil)
}

// SchoolProfile godoc
// @Summary School profile
// @Tags Reference
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /school-profile [get]
func (h *ReferenceHandler) SchoolProfile(c *gin.Context) {
	profile, err := h.refs.SchoolProfile(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	if profile == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "school profile not configured"))
		return
	}
	response.JSON(c, http.StatusOK, profile, nil)
}

// Streams godoc
// @Summary List streams of a class level
// @Tags Reference
// @Produce json
// @Param level path string true "Class level (S1-S6)"
// @Success 200 {object} response.Envelope
// @Router /classes/{level}/streams [get]
func (h *ReferenceHandler) Streams(c *gin.Context) {
	streams, err := h.streams.List(c.Request.Context(), c.Param("level"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, streams, nil)
}

// AddStream godoc
// @Summary Add a stream to a class level
// @Tags Reference
// @Accept json
// @Produce json
// @Param level path string true "Class level (S1-S6)"
// @Param payload body dto.AddStreamRequest true "Stream"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /classes/{level}/streams [post]
func (h *ReferenceHandler) AddStream(c *gin.Context) {
	var req dto.AddStreamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid stream payload"))
		return
	}
	streams, err := h.streams.Add(c.Request.Context(), callerFromContext(c), c.Param("level"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, streams, nil)
}
