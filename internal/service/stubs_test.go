package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/noah-isme/sma-records-api/internal/models"
	appErrors "github.com/noah-isme/sma-records-api/pkg/errors"
)

func floatPtr(v float64) *float64 { return &v }

var (
	adminCaller   = models.Caller{UserID: "admin-1", Role: models.RoleAdmin}
	teacherCaller = models.Caller{UserID: "teacher-1", Role: models.RoleTeacher}
	bursarCaller  = models.Caller{UserID: "bursar-1", Role: models.RoleBursar}
)

type markStoreStub struct {
	records     map[models.NaturalKey]models.MarkRecord
	merged      [][]models.MarkRecord
	mergeModes  []models.MergeMode
	mergeErr    error
	listErr     error
	archiveErr  error
	archivedKey *models.NaturalKey
}

func newMarkStoreStub() *markStoreStub {
	return &markStoreStub{records: make(map[models.NaturalKey]models.MarkRecord)}
}

func (s *markStoreStub) ListRecords(ctx context.Context, level models.ClassLevel, stream string, year int, term string) ([]models.MarkRecord, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := []models.MarkRecord{}
	for _, r := range s.records {
		if r.ClassLevel == level && r.Stream == stream && r.Year == year && r.Term == term {
			out = append(out, r)
		}
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].StudentNumber < out[j-1].StudentNumber; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out, nil
}

func (s *markStoreStub) FindRecord(ctx context.Context, key models.NaturalKey, stream string) (*models.MarkRecord, error) {
	r, ok := s.records[key]
	if !ok || r.Stream != stream {
		return nil, sql.ErrNoRows
	}
	return &r, nil
}

// MergeBatch mimics the upsert: preserve keeps unmentioned scores, replace drops them.
func (s *markStoreStub) MergeBatch(ctx context.Context, level models.ClassLevel, records []models.MarkRecord, mode models.MergeMode) (int, error) {
	s.merged = append(s.merged, records)
	s.mergeModes = append(s.mergeModes, mode)
	if s.mergeErr != nil {
		return 0, s.mergeErr
	}
	for _, r := range records {
		key := r.Key()
		existing, ok := s.records[key]
		if ok && mode == models.MergePreserve {
			scores := models.Scores{}
			for k, v := range existing.Scores {
				scores[k] = v
			}
			for k, v := range r.Scores {
				scores[k] = v
			}
			r.Scores = scores
		}
		s.records[key] = r
	}
	return len(records), nil
}

func (s *markStoreStub) Archive(ctx context.Context, key models.NaturalKey, reason string) (*models.ArchivedRecord, error) {
	if s.archiveErr != nil {
		return nil, s.archiveErr
	}
	r, ok := s.records[key]
	if !ok {
		return nil, sql.ErrNoRows
	}
	delete(s.records, key)
	s.archivedKey = &key
	return &models.ArchivedRecord{MarkRecord: r, Reason: reason, MovedAt: time.Now()}, nil
}

type deadlineStoreStub struct {
	active  *models.Deadline
	err     error
	created []*models.Deadline
}

func (s *deadlineStoreStub) LatestActive(ctx context.Context) (*models.Deadline, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.active == nil {
		return nil, sql.ErrNoRows
	}
	return s.active, nil
}

func (s *deadlineStoreStub) Create(ctx context.Context, d *models.Deadline) error {
	if s.err != nil {
		return s.err
	}
	d.ID = "deadline-new"
	d.IsActive = true
	s.created = append(s.created, d)
	s.active = d
	return nil
}

type subjectStoreStub struct {
	subjects  []models.Subject
	err       error
	createErr error
	calls     int
}

func (s *subjectStoreStub) List(ctx context.Context) ([]models.Subject, error) {
	s.calls++
	return s.subjects, s.err
}

func (s *subjectStoreStub) Create(ctx context.Context, subject *models.Subject) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.subjects = append(s.subjects, *subject)
	return nil
}

type bandStoreStub struct {
	bands    []models.GradingBand
	err      error
	replaced []models.GradingBand
}

func (s *bandStoreStub) List(ctx context.Context) ([]models.GradingBand, error) {
	return s.bands, s.err
}

func (s *bandStoreStub) Replace(ctx context.Context, bands []models.GradingBand) error {
	if s.err != nil {
		return s.err
	}
	s.replaced = bands
	s.bands = bands
	return nil
}

type profileReaderStub struct {
	profile *models.SchoolProfile
	err     error
}

func (s *profileReaderStub) Latest(ctx context.Context) (*models.SchoolProfile, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.profile == nil {
		return nil, sql.ErrNoRows
	}
	return s.profile, nil
}

// memoryCache stores values as-is; Get copies through a type switch on the destinations the
// reference service uses.
type memoryCache struct {
	values      map[string]interface{}
	invalidated []string
}

func newMemoryCache() *memoryCache {
	return &memoryCache{values: make(map[string]interface{})}
}

func (m *memoryCache) Get(ctx context.Context, key string, dest interface{}) error {
	v, ok := m.values[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	switch d := dest.(type) {
	case *[]models.Subject:
		*d = v.([]models.Subject)
	case *[]models.GradingBand:
		*d = v.([]models.GradingBand)
	case **models.SchoolProfile:
		*d = v.(*models.SchoolProfile)
	}
	return nil
}

func (m *memoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	m.values[key] = value
	return nil
}

func (m *memoryCache) DeleteByPattern(ctx context.Context, pattern string) error {
	m.invalidated = append(m.invalidated, pattern)
	m.values = make(map[string]interface{})
	return nil
}

type streamStoreStub struct {
	streams   []string
	err       error
	createErr error
	levels    []models.ClassLevel
}

func (s *streamStoreStub) ListByClass(ctx context.Context, level models.ClassLevel) ([]string, error) {
	return s.streams, s.err
}

func (s *streamStoreStub) Create(ctx context.Context, level models.ClassLevel, name string) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.levels = append(s.levels, level)
	s.streams = append(s.streams, name)
	return nil
}
