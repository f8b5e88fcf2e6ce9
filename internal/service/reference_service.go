package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-records-api/internal/dto"
	"github.com/noah-isme/sma-records-api/internal/models"
	"github.com/noah-isme/sma-records-api/pkg/database"
	appErrors "github.com/noah-isme/sma-records-api/pkg/errors"
)

type subjectStore interface {
	List(ctx context.Context) ([]models.Subject, error)
	Create(ctx context.Context, subject *models.Subject) error
}

type gradingBandStore interface {
	List(ctx context.Context) ([]models.GradingBand, error)
	Replace(ctx context.Context, bands []models.GradingBand) error
}

type schoolProfileReader interface {
	Latest(ctx context.Context) (*models.SchoolProfile, error)
}

// ReferenceService serves the subject catalog, grading scale and school profile. Snapshots
// are cached when the cache is enabled.
type ReferenceService struct {
	subjects  subjectStore
	bands     gradingBandStore
	profiles  schoolProfileReader
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewReferenceService constructs the service.
func NewReferenceService(subjects subjectStore, bands gradingBandStore, profiles schoolProfileReader, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *ReferenceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReferenceService{subjects: subjects, bands: bands, profiles: profiles, cache: cache, validator: validate, logger: logger}
}

// Subjects returns the catalog ordered by code.
func (s *ReferenceService) Subjects(ctx context.Context) ([]models.Subject, error) {
	subjects, err := remember(ctx, s.cache, cacheKeySubjects, s.subjects.List)
	if err != nil {
		return nil, appErrors.Storage(err, "failed to load subjects")
	}
	return subjects, nil
}

// Bands returns the grading scale ordered by descending minimum score.
func (s *ReferenceService) Bands(ctx context.Context) ([]models.GradingBand, error) {
	bands, err := remember(ctx, s.cache, cacheKeyGradingBands, s.bands.List)
	if err != nil {
		return nil, appErrors.Storage(err, "failed to load grading bands")
	}
	return bands, nil
}

// SchoolProfile returns the latest profile, or nil when none has been configured.
func (s *ReferenceService) SchoolProfile(ctx context.Context) (*models.SchoolProfile, error) {
	profile, err := remember(ctx, s.cache, cacheKeySchoolProfile, func(ctx context.Context) (*models.SchoolProfile, error) {
		p, err := s.profiles.Latest(ctx)
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return p, err
	})
	if err != nil {
		return nil, appErrors.Storage(err, "failed to load school profile")
	}
	return profile, nil
}

// ReplaceBands swaps the grading scale. Admin only; the scale must partition 0..100.
func (s *ReferenceService) ReplaceBands(ctx context.Context, caller models.Caller, req dto.ReplaceBandsRequest) ([]models.GradingBand, error) {
	if !caller.IsAdmin() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only administrators can change the grading scale")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid grading bands payload")
	}
	bands := req.ToModels()
	if err := ValidateBands(bands); err != nil {
		return nil, err
	}
	sorted := sortBandsDesc(bands)
	if err := s.bands.Replace(ctx, sorted); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "grades must be unique")
		}
		return nil, appErrors.Storage(err, "failed to replace grading bands")
	}
	if err := s.cache.Invalidate(ctx, cacheKeyPrefix+"*"); err != nil {
		s.logger.Warn("grading scale replaced but cache not cleared", zap.Error(err))
	}
	s.logger.Info("grading scale replaced", zap.String("user_id", caller.UserID), zap.Int("bands", len(sorted)))
	return sorted, nil
}

// CreateSubject adds a catalog subject. Admins and head teachers only. Scores for the new code
// are graded once its columns are provisioned.
func (s *ReferenceService) CreateSubject(ctx context.Context, caller models.Caller, req dto.CreateSubjectRequest) (*models.Subject, error) {
	if err := requireRole(caller, catalogRoles, "add subjects"); err != nil {
		return nil, err
	}
	req.Code = strings.ToUpper(strings.TrimSpace(req.Code))
	req.DisplayName = strings.TrimSpace(req.DisplayName)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid subject payload")
	}
	subject := &models.Subject{Code: req.Code, DisplayName: req.DisplayName}
	if err := s.subjects.Create(ctx, subject); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("subject %s already exists", subject.Code))
		}
		return nil, appErrors.Storage(err, "failed to create subject")
	}
	if err := s.cache.Invalidate(ctx, cacheKeyPrefix+"*"); err != nil {
		s.logger.Warn("subject added but cache not cleared", zap.Error(err))
	}
	s.logger.Info("subject added", zap.String("user_id", caller.UserID), zap.String("code", subject.Code))
	return subject, nil
}

// DefaultSubjects is the catalog seeded on a fresh database.
func DefaultSubjects() []models.Subject {
	return []models.Subject{
		{Code: "AGR", DisplayName: "Agriculture"},
		{Code: "ART", DisplayName: "Art & Design"},
		{Code: "BIO", DisplayName: "Biology"},
		{Code: "CHE", DisplayName: "Chemistry"},
		{Code: "CRE", DisplayName: "Christian Religious Education"},
		{Code: "ENG", DisplayName: "English Language"},
		{Code: "ENT", DisplayName: "Entrepreneurship"},
		{Code: "GEO", DisplayName: "Geography"},
		{Code: "HIS", DisplayName: "History & Political Education"},
		{Code: "ICT", DisplayName: "Information Communication Technology"},
		{Code: "KIS", DisplayName: "Kiswahili"},
		{Code: "LIT", DisplayName: "Literature"},
		{Code: "MTC", DisplayName: "Mathematics"},
		{Code: "PHE", DisplayName: "Physical Education"},
		{Code: "PHY", DisplayName: "Physics"},
	}
}
