package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-records-api/internal/dto"
	"github.com/noah-isme/sma-records-api/internal/models"
	appErrors "github.com/noah-isme/sma-records-api/pkg/errors"
)

type reportFixture struct {
	store    *markStoreStub
	subjects *subjectStoreStub
	bands    *bandStoreStub
	profiles *profileReaderStub
	svc      *ReportService
}

func newReportFixture(t *testing.T) *reportFixture {
	t.Helper()
	f := &reportFixture{
		store: newMarkStoreStub(),
		subjects: &subjectStoreStub{subjects: []models.Subject{
			{Code: "ENG", DisplayName: "English Language"},
			{Code: "MTC", DisplayName: "Mathematics"},
			{Code: "BIO", DisplayName: "Biology"},
		}},
		bands:    &bandStoreStub{bands: twoBandScale()},
		profiles: &profileReaderStub{profile: &models.SchoolProfile{Name: "Hillside High", Motto: "Strive"}},
	}
	refs := NewReferenceService(f.subjects, f.bands, f.profiles, nil, nil, nil)
	f.svc = NewReportService(f.store, refs, testLayout(t), nil, nil, nil)
	f.svc.now = func() time.Time { return time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC) }
	f.store.records[models.NaturalKey{ClassLevel: models.ClassS1, StudentNumber: 1001, Year: 2024, Term: "1"}] = models.MarkRecord{
		ClassLevel: models.ClassS1, StudentNumber: 1001, StudentName: "Jane", Stream: "A", Year: 2024, Term: "1",
		Scores: models.Scores{"eng1": floatPtr(85), "engEOT": floatPtr(64.5), "mtcEOT": floatPtr(0), "mtc1": nil},
	}
	return f
}

func TestReportServiceGradesRequestedSlot(t *testing.T) {
	f := newReportFixture(t)

	report, err := f.svc.BuildReport(context.Background(), teacherCaller, "S1", 1001, dto.ReportQuery{Stream: "A", Year: 2024, Term: "1", Variant: "1"})
	require.NoError(t, err)
	require.Len(t, report.Subjects, 3)

	eng := report.Subjects[0]
	assert.Equal(t, "ENG", eng.Code)
	assert.Equal(t, "English Language", eng.Name)
	require.NotNil(t, eng.Grade)
	assert.Equal(t, "A", eng.Grade.Grade)
	assert.False(t, eng.Ungraded)

	mtc := report.Subjects[1]
	assert.True(t, mtc.Ungraded)
	assert.Nil(t, mtc.Grade)
	assert.Nil(t, mtc.Score)

	bio := report.Subjects[2]
	assert.True(t, bio.Ungraded, "subjects without provisioned columns are ungraded")

	assert.Equal(t, 1, report.Summary.SubjectsGraded)
	require.NotNil(t, report.Summary.Average)
	assert.Equal(t, 85.0, *report.Summary.Average)
	assert.Equal(t, "Hillside High", report.School.Name)
	assert.Equal(t, "A", report.GradingBands[0].Grade, "bands are listed highest first")
}

func TestReportServiceTrimsFilters(t *testing.T) {
	f := newReportFixture(t)

	report, err := f.svc.BuildReport(context.Background(), teacherCaller, "S1", 1001, dto.ReportQuery{Stream: " A", Year: 2024, Term: "1 ", Variant: "1"})
	require.NoError(t, err)
	assert.Equal(t, int64(1001), report.Record.StudentNumber)
}

func TestReportServiceDefaultsToEndOfTerm(t *testing.T) {
	f := newReportFixture(t)

	report, err := f.svc.BuildReport(context.Background(), adminCaller, "S1", 1001, dto.ReportQuery{Stream: "A", Year: 2024, Term: "1"})
	require.NoError(t, err)
	assert.Equal(t, models.VariantEOT, report.Variant)

	eng := report.Subjects[0]
	require.NotNil(t, eng.Grade)
	assert.Equal(t, "B", eng.Grade.Grade)

	mtc := report.Subjects[1]
	require.NotNil(t, mtc.Score)
	assert.Equal(t, 0.0, *mtc.Score)
	require.NotNil(t, mtc.Grade, "a zero score is graded, not treated as missing")
	assert.Equal(t, "B", mtc.Grade.Grade)
	assert.Equal(t, 2, report.Summary.SubjectsGraded)
}

func TestReportServiceNotFound(t *testing.T) {
	f := newReportFixture(t)

	_, err := f.svc.BuildReport(context.Background(), teacherCaller, "S1", 9999, dto.ReportQuery{Stream: "A", Year: 2024, Term: "1"})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	_, err = f.svc.BuildReport(context.Background(), teacherCaller, "S1", 1001, dto.ReportQuery{Stream: "B", Year: 2024, Term: "1"})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestReportServiceDegradesWithoutReferenceData(t *testing.T) {
	f := newReportFixture(t)
	f.bands.err = errors.New("relation grading_bands does not exist")
	f.profiles.err = errors.New("timeout")

	report, err := f.svc.BuildReport(context.Background(), teacherCaller, "S1", 1001, dto.ReportQuery{Stream: "A", Year: 2024, Term: "1", Variant: "eot"})
	require.NoError(t, err)
	assert.Nil(t, report.School)
	assert.Empty(t, report.GradingBands)
	for _, line := range report.Subjects {
		assert.True(t, line.Ungraded)
	}
	assert.Nil(t, report.Summary.Average)

	f.subjects.err = errors.New("timeout")
	report, err = f.svc.BuildReport(context.Background(), teacherCaller, "S1", 1001, dto.ReportQuery{Stream: "A", Year: 2024, Term: "1"})
	require.NoError(t, err)
	assert.Empty(t, report.Subjects)
}

func TestReportServiceValidation(t *testing.T) {
	f := newReportFixture(t)
	ctx := context.Background()

	_, err := f.svc.BuildReport(ctx, bursarCaller, "S1", 1001, dto.ReportQuery{Stream: "A", Year: 2024, Term: "1"})
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	_, err = f.svc.BuildReport(ctx, teacherCaller, "S1", 1001, dto.ReportQuery{Stream: "A", Year: 2024, Term: "1", Variant: "FINAL"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = f.svc.BuildReport(ctx, teacherCaller, "S7", 1001, dto.ReportQuery{Stream: "A", Year: 2024, Term: "1"})
	assert.ErrorIs(t, err, appErrors.ErrStoreUnavailable)

	_, err = f.svc.BuildReport(ctx, teacherCaller, "S1", 0, dto.ReportQuery{Stream: "A", Year: 2024, Term: "1"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}
