package service

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-records-api/internal/dto"
	"github.com/noah-isme/sma-records-api/internal/models"
	"github.com/noah-isme/sma-records-api/internal/schema"
	appErrors "github.com/noah-isme/sma-records-api/pkg/errors"
)

type recordFinder interface {
	FindRecord(ctx context.Context, key models.NaturalKey, stream string) (*models.MarkRecord, error)
}

type reportReferences interface {
	Subjects(ctx context.Context) ([]models.Subject, error)
	Bands(ctx context.Context) ([]models.GradingBand, error)
	SchoolProfile(ctx context.Context) (*models.SchoolProfile, error)
}

// ReportService assembles report cards from a mark record and the reference tables.
type ReportService struct {
	records   recordFinder
	refs      reportReferences
	layout    *schema.Layout
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewReportService constructs the report assembler.
func NewReportService(records recordFinder, refs reportReferences, layout *schema.Layout, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *ReportService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{records: records, refs: refs, layout: layout, metrics: metrics, validator: validate, logger: logger, now: time.Now}
}

// BuildReport returns the report card for one student's term. Missing reference data yields
// empty sections; a missing record is NOT_FOUND.
func (s *ReportService) BuildReport(ctx context.Context, caller models.Caller, rawLevel string, studentNumber int64, query dto.ReportQuery) (*models.Report, error) {
	if err := requireRole(caller, markRoles, "view reports"); err != nil {
		return nil, err
	}
	level, err := ResolveClassLevel(rawLevel)
	if err != nil {
		return nil, err
	}
	if studentNumber <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "student number must be positive")
	}
	query.Stream = strings.TrimSpace(query.Stream)
	query.Term = strings.TrimSpace(query.Term)
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "stream, year and term are required")
	}
	variant := models.VariantEOT
	if strings.TrimSpace(query.Variant) != "" {
		v, ok := models.ParseReportVariant(query.Variant)
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrValidation, "variant must be one of 1, 2, 3, 4, BOT, MOT, EOT")
		}
		variant = v
	}

	key := models.NaturalKey{ClassLevel: level, StudentNumber: studentNumber, Year: query.Year, Term: query.Term}
	record, err := s.records.FindRecord(ctx, key, query.Stream)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "mark record not found")
		}
		return nil, storageError(err, "failed to load mark record")
	}

	subjects, err := s.refs.Subjects(ctx)
	if err != nil {
		s.logger.Warn("report built without subject catalog", zap.Error(err))
		subjects = []models.Subject{}
	}
	bands, err := s.refs.Bands(ctx)
	if err != nil {
		s.logger.Warn("report built without grading bands", zap.Error(err))
		bands = []models.GradingBand{}
	}
	school, err := s.refs.SchoolProfile(ctx)
	if err != nil {
		s.logger.Warn("report built without school profile", zap.Error(err))
		school = nil
	}

	report := &models.Report{
		Variant:      variant,
		Record:       *record,
		School:       school,
		GradingBands: sortBandsDesc(bands),
		GeneratedAt:  s.now().UTC(),
	}
	report.Subjects, report.Summary = s.gradeSubjects(record.Scores, subjects, bands, variant.Slot())

	s.metrics.IncReportsBuilt(string(variant))
	return report, nil
}

func (s *ReportService) gradeSubjects(scores models.Scores, subjects []models.Subject, bands []models.GradingBand, slot models.Slot) ([]models.ReportSubject, models.ReportSummary) {
	lines := make([]models.ReportSubject, 0, len(subjects))
	var summary models.ReportSummary
	for _, subject := range subjects {
		line := models.ReportSubject{Code: subject.Code, Name: subject.DisplayName, Ungraded: true}
		if _, provisioned := s.layout.Column(subject.Code, slot); provisioned {
			if score, ok := scores.Get(subject.Code, slot); ok {
				line.Score = &score
				if band, ok := ResolveGrade(score, bands); ok {
					line.Grade = &models.SubjectGrade{Grade: band.Grade, Descriptor: band.Descriptor, Comment: band.Comment}
					line.Ungraded = false
					summary.SubjectsGraded++
					summary.Total += score
				}
			}
		}
		lines = append(lines, line)
	}
	if summary.SubjectsGraded > 0 {
		avg := math.Round(summary.Total/float64(summary.SubjectsGraded)*100) / 100
		summary.Average = &avg
	}
	return lines, summary
}
