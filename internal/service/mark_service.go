package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-records-api/internal/dto"
	"github.com/noah-isme/sma-records-api/internal/models"
	"github.com/noah-isme/sma-records-api/internal/repository"
	"github.com/noah-isme/sma-records-api/internal/schema"
	"github.com/noah-isme/sma-records-api/pkg/database"
	appErrors "github.com/noah-isme/sma-records-api/pkg/errors"
)

type markStore interface {
	ListRecords(ctx context.Context, level models.ClassLevel, stream string, year int, term string) ([]models.MarkRecord, error)
	FindRecord(ctx context.Context, key models.NaturalKey, stream string) (*models.MarkRecord, error)
	MergeBatch(ctx context.Context, level models.ClassLevel, records []models.MarkRecord, mode models.MergeMode) (int, error)
	Archive(ctx context.Context, key models.NaturalKey, reason string) (*models.ArchivedRecord, error)
}

type writeGate interface {
	Authorize(ctx context.Context, caller models.Caller, today time.Time) error
	Today() time.Time
}

// Roles allowed to read and enter marks.
var markRoles = []models.UserRole{models.RoleAdmin, models.RoleHeadteacher, models.RoleTeacher}

// MarkServiceConfig selects the merge behaviour for saved batches.
type MarkServiceConfig struct {
	MergeMode models.MergeMode
}

// MarkService loads, saves and archives class mark records.
type MarkService struct {
	repo      markStore
	gate      writeGate
	layout    *schema.Layout
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       MarkServiceConfig
}

// NewMarkService constructs the service.
func NewMarkService(repo markStore, gate writeGate, layout *schema.Layout, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, cfg MarkServiceConfig) *MarkService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MergeMode != models.MergeReplace {
		cfg.MergeMode = models.MergePreserve
	}
	return &MarkService{repo: repo, gate: gate, layout: layout, metrics: metrics, validator: validate, logger: logger, cfg: cfg}
}

// ResolveClassLevel validates a raw class level before it is used to address a table.
func ResolveClassLevel(raw string) (models.ClassLevel, error) {
	if strings.TrimSpace(raw) == "" {
		return "", appErrors.Clone(appErrors.ErrValidation, "class level is required")
	}
	level, ok := models.ParseClassLevel(raw)
	if !ok {
		return "", appErrors.Clone(appErrors.ErrStoreUnavailable, fmt.Sprintf("class level %q is not provisioned", raw))
	}
	return level, nil
}

// storageError maps repository failures onto the typed error taxonomy.
func storageError(err error, message string) error {
	switch {
	case errors.Is(err, schema.ErrUnknownClassLevel):
		return appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, appErrors.ErrStoreUnavailable.Message)
	case database.IsUndefinedRelation(err):
		return appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, http.StatusServiceUnavailable, "class table is not provisioned")
	default:
		return appErrors.Storage(err, message)
	}
}

func requireRole(caller models.Caller, roles []models.UserRole, action string) error {
	if caller.Role == "" {
		return appErrors.ErrUnauthorized
	}
	if !caller.HasRole(roles...) {
		return appErrors.Clone(appErrors.ErrForbidden, fmt.Sprintf("role %s cannot %s", caller.Role, action))
	}
	return nil
}

// Load returns the records of one stream/year/term ordered by student number.
func (s *MarkService) Load(ctx context.Context, caller models.Caller, rawLevel string, query dto.LoadRecordsQuery) ([]models.MarkRecord, error) {
	if err := requireRole(caller, markRoles, "view marks"); err != nil {
		return nil, err
	}
	level, err := ResolveClassLevel(rawLevel)
	if err != nil {
		return nil, err
	}
	query.Stream = strings.TrimSpace(query.Stream)
	query.Term = strings.TrimSpace(query.Term)
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "stream, year and term are required")
	}
	records, err := s.repo.ListRecords(ctx, level, query.Stream, query.Year, query.Term)
	if err != nil {
		return nil, storageError(err, "failed to load marks")
	}
	return records, nil
}

// Save merges a batch of records into the class table. Non-admin callers are subject to the
// deadline gate. The batch is applied in one transaction; rows repeating a natural key are
// collapsed so the last one submitted wins.
func (s *MarkService) Save(ctx context.Context, caller models.Caller, rawLevel string, req dto.SaveRecordsRequest) (*dto.MergeResult, error) {
	if err := requireRole(caller, markRoles, "enter marks"); err != nil {
		return nil, err
	}
	level, err := ResolveClassLevel(rawLevel)
	if err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid marks payload")
	}
	if err := s.gate.Authorize(ctx, caller, s.gate.Today()); err != nil {
		return nil, err
	}

	records := make([]models.MarkRecord, 0, len(req.Records))
	for i, in := range req.Records {
		record, err := s.toRecord(level, in)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("record %d: %v", i+1, err))
		}
		records = append(records, record)
	}
	records = lastWins(records)

	start := time.Now()
	applied, err := s.repo.MergeBatch(ctx, level, records, s.cfg.MergeMode)
	s.metrics.ObserveMerge(string(level), applied, err, time.Since(start))
	if err != nil {
		s.logger.Error("marks batch rolled back",
			zap.String("class_level", string(level)),
			zap.String("user_id", caller.UserID),
			zap.Int("submitted", len(req.Records)),
			zap.Error(err))
		message := "failed to save marks batch; no records were changed"
		var batchErr *repository.BatchError
		if errors.As(err, &batchErr) {
			message = fmt.Sprintf("failed to save student %d (row %d); no records were changed", batchErr.StudentNumber, batchErr.Row)
		}
		return nil, storageError(err, message)
	}

	s.logger.Info("marks batch saved",
		zap.String("class_level", string(level)),
		zap.String("user_id", caller.UserID),
		zap.Int("applied", applied),
		zap.Int("submitted", len(req.Records)),
		zap.String("merge_mode", string(s.cfg.MergeMode)))
	return &dto.MergeResult{Success: true, Applied: applied, Submitted: len(req.Records)}, nil
}

func (s *MarkService) toRecord(level models.ClassLevel, in dto.MarkRecordInput) (models.MarkRecord, error) {
	scores, err := s.layout.Normalize(in.Scores)
	if err != nil {
		return models.MarkRecord{}, err
	}
	for key, v := range scores {
		if v != nil && (*v < 0 || *v > 100) {
			return models.MarkRecord{}, fmt.Errorf("score %s must be between 0 and 100", key)
		}
	}
	return models.MarkRecord{
		ClassLevel:    level,
		StudentNumber: in.StudentNumber,
		StudentName:   strings.TrimSpace(in.StudentName),
		Stream:        strings.TrimSpace(in.Stream),
		Year:          in.Year,
		Term:          strings.TrimSpace(in.Term),
		Gender:        strings.TrimSpace(in.Gender),
		Section:       strings.TrimSpace(in.Section),
		Scores:        scores,
	}, nil
}

// lastWins drops every record whose natural key reappears later in the batch. Survivors keep
// their relative submission order.
func lastWins(records []models.MarkRecord) []models.MarkRecord {
	seen := make(map[models.NaturalKey]struct{}, len(records))
	kept := make([]models.MarkRecord, 0, len(records))
	for i := len(records) - 1; i >= 0; i-- {
		key := records[i].Key()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		kept = append(kept, records[i])
	}
	for i, j := 0, len(kept)-1; i < j; i, j = i+1, j-1 {
		kept[i], kept[j] = kept[j], kept[i]
	}
	return kept
}

// Archive moves one student's term record to the archive table.
func (s *MarkService) Archive(ctx context.Context, caller models.Caller, rawLevel string, studentNumber int64, req dto.ArchiveRequest) (*models.ArchivedRecord, error) {
	if err := requireRole(caller, []models.UserRole{models.RoleAdmin, models.RoleHeadteacher}, "archive records"); err != nil {
		return nil, err
	}
	level, err := ResolveClassLevel(rawLevel)
	if err != nil {
		return nil, err
	}
	if studentNumber <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "student number must be positive")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "year, term and reason are required")
	}
	if err := s.gate.Authorize(ctx, caller, s.gate.Today()); err != nil {
		return nil, err
	}
	key := models.NaturalKey{ClassLevel: level, StudentNumber: studentNumber, Year: req.Year, Term: strings.TrimSpace(req.Term)}
	archived, err := s.repo.Archive(ctx, key, strings.TrimSpace(req.Reason))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "mark record not found")
		}
		return nil, storageError(err, "failed to archive record")
	}
	s.logger.Info("mark record archived",
		zap.String("class_level", string(level)),
		zap.Int64("student_number", studentNumber),
		zap.String("user_id", caller.UserID))
	return archived, nil
}
