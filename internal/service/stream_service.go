package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-records-api/internal/dto"
	"github.com/noah-isme/sma-records-api/internal/models"
	"github.com/noah-isme/sma-records-api/pkg/database"
	appErrors "github.com/noah-isme/sma-records-api/pkg/errors"
)

type streamStore interface {
	ListByClass(ctx context.Context, level models.ClassLevel) ([]string, error)
	Create(ctx context.Context, level models.ClassLevel, name string) error
}

// catalogRoles may extend the subject catalog and the stream list.
var catalogRoles = []models.UserRole{models.RoleAdmin, models.RoleHeadteacher}

// StreamService lists and extends the streams of a class level.
type StreamService struct {
	repo      streamStore
	defaults  []string
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStreamService constructs the service. defaults are returned for levels without configured
// streams.
func NewStreamService(repo streamStore, defaults []string, validate *validator.Validate, logger *zap.Logger) *StreamService {
	if len(defaults) == 0 {
		defaults = []string{"A", "B", "C", "D"}
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StreamService{repo: repo, defaults: defaults, validator: validate, logger: logger}
}

// List returns the configured streams, or the defaults when none are configured or the streams
// table cannot be read.
func (s *StreamService) List(ctx context.Context, rawLevel string) ([]string, error) {
	level, err := ResolveClassLevel(rawLevel)
	if err != nil {
		return nil, err
	}
	streams, err := s.repo.ListByClass(ctx, level)
	if err != nil {
		s.logger.Warn("falling back to default streams", zap.String("class_level", string(level)), zap.Error(err))
		return append([]string(nil), s.defaults...), nil
	}
	if len(streams) == 0 {
		return append([]string(nil), s.defaults...), nil
	}
	return streams, nil
}

// Add configures a new stream for a class level. Once a level has any configured stream the
// defaults no longer apply to it.
func (s *StreamService) Add(ctx context.Context, caller models.Caller, rawLevel string, req dto.AddStreamRequest) ([]string, error) {
	if err := requireRole(caller, catalogRoles, "add streams"); err != nil {
		return nil, err
	}
	level, err := ResolveClassLevel(rawLevel)
	if err != nil {
		return nil, err
	}
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid stream payload")
	}
	if err := s.repo.Create(ctx, level, req.Name); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("stream %s already exists for %s", req.Name, level))
		}
		return nil, appErrors.Storage(err, "failed to add stream")
	}
	s.logger.Info("stream added", zap.String("user_id", caller.UserID), zap.String("class_level", string(level)), zap.String("stream", req.Name))
	return s.List(ctx, string(level))
}
