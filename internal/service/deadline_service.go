package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-records-api/internal/dto"
	"github.com/noah-isme/sma-records-api/internal/models"
	appErrors "github.com/noah-isme/sma-records-api/pkg/errors"
)

const dateLayout = "2006-01-02"

type deadlineStore interface {
	LatestActive(ctx context.Context) (*models.Deadline, error)
	Create(ctx context.Context, d *models.Deadline) error
}

// DeadlineService implements the marks entry write gate.
type DeadlineService struct {
	repo      deadlineStore
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewDeadlineService constructs the gate.
func NewDeadlineService(repo deadlineStore, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *DeadlineService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DeadlineService{repo: repo, metrics: metrics, validator: validate, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

// Today returns the current UTC calendar date.
func (s *DeadlineService) Today() time.Time {
	return dateOnly(s.now().UTC())
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// current returns the governing deadline, or nil when none is active.
func (s *DeadlineService) current(ctx context.Context) (*models.Deadline, error) {
	deadline, err := s.repo.LatestActive(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, appErrors.Storage(err, "failed to load marks deadline")
	}
	return deadline, nil
}

func closedOn(deadline *models.Deadline, today time.Time) bool {
	return deadline != nil && dateOnly(today).After(dateOnly(deadline.DeadlineDate))
}

// IsOpen reports whether writes are permitted on today. With no active deadline the gate is open;
// it closes the day after the deadline date.
func (s *DeadlineService) IsOpen(ctx context.Context, today time.Time) (bool, error) {
	deadline, err := s.current(ctx)
	if err != nil {
		return false, err
	}
	return !closedOn(deadline, today), nil
}

// Authorize fails with DEADLINE_PASSED when a non-admin caller writes after the deadline.
func (s *DeadlineService) Authorize(ctx context.Context, caller models.Caller, today time.Time) error {
	if caller.IsAdmin() {
		return nil
	}
	deadline, err := s.current(ctx)
	if err != nil {
		return err
	}
	if closedOn(deadline, today) {
		s.metrics.IncDeadlineRejection()
		s.logger.Info("marks entry refused after deadline",
			zap.String("user_id", caller.UserID),
			zap.String("role", string(caller.Role)),
			zap.String("deadline", deadline.DeadlineDate.Format(dateLayout)))
		return appErrors.Clone(appErrors.ErrDeadlinePassed,
			fmt.Sprintf("marks entry closed on %s", deadline.DeadlineDate.Format(dateLayout)))
	}
	return nil
}

// Status describes the gate on today.
func (s *DeadlineService) Status(ctx context.Context, today time.Time) (*models.DeadlineStatus, error) {
	deadline, err := s.current(ctx)
	if err != nil {
		return nil, err
	}
	return &models.DeadlineStatus{
		Open:     !closedOn(deadline, today),
		Today:    dateOnly(today).Format(dateLayout),
		Deadline: deadline,
	}, nil
}

// Set stores a new active deadline, deactivating the previous ones. Admin only.
func (s *DeadlineService) Set(ctx context.Context, caller models.Caller, req dto.SetDeadlineRequest) (*models.Deadline, error) {
	if !caller.IsAdmin() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only administrators can set the marks deadline")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid deadline payload")
	}
	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "deadline_date must be YYYY-MM-DD")
	}
	deadline := &models.Deadline{
		Term:         req.Term,
		Year:         req.Year,
		DeadlineDate: date,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.repo.Create(ctx, deadline); err != nil {
		return nil, appErrors.Storage(err, "failed to store marks deadline")
	}
	s.logger.Info("marks deadline set", zap.String("user_id", caller.UserID), zap.String("deadline", req.Date))
	return deadline, nil
}
