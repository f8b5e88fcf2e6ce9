package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-records-api/internal/models"
	"github.com/noah-isme/sma-records-api/pkg/database"
	appErrors "github.com/noah-isme/sma-records-api/pkg/errors"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "postgres")
	return sqlxDB, mock, func() {
		sqlxDB.Close()
	}
}

func TestSubjectRepositoryList(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	rows := sqlmock.NewRows([]string{"code", "display_name"}).
		AddRow("BIO", "Biology").
		AddRow("ENG", "English Language")
	mock.ExpectQuery("SELECT code, display_name FROM subjects ORDER BY code").WillReturnRows(rows)

	subjects, err := NewSubjectRepository(db).List(context.Background())
	require.NoError(t, err)
	require.Len(t, subjects, 2)
	assert.Equal(t, "ENG", subjects[1].Code)
	assert.Equal(t, "English Language", subjects[1].DisplayName)
}

func TestSubjectRepositorySeed(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	mock.ExpectExec("INSERT INTO subjects").WithArgs("ENG", "English Language").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO subjects").WithArgs("MTC", "Mathematics").WillReturnResult(sqlmock.NewResult(0, 0))

	err := NewSubjectRepository(db).Seed(context.Background(), []models.Subject{
		{Code: "ENG", DisplayName: "English Language"},
		{Code: "MTC", DisplayName: "Mathematics"},
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSubjectRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO subjects (code, display_name) VALUES ($1, $2)")).
		WithArgs("FRE", "French").
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := NewSubjectRepository(db).Create(context.Background(), &models.Subject{Code: "FRE", DisplayName: "French"})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSubjectRepositoryCreateError(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	mock.ExpectExec("INSERT INTO subjects").
		WithArgs("FRE", "French").
		WillReturnError(errors.New("connection reset"))

	err := NewSubjectRepository(db).Create(context.Background(), &models.Subject{Code: "FRE", DisplayName: "French"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create subject")
}

func TestGradingBandRepositoryList(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	rows := sqlmock.NewRows([]string{"id", "min_score", "max_score", "grade", "descriptor", "comment"}).
		AddRow("b1", 80.0, 100.0, "A", "Exceptional", "").
		AddRow("b2", 0.0, 79.0, "B", "Outstanding", "")
	mock.ExpectQuery("FROM grading_bands ORDER BY min_score DESC").WillReturnRows(rows)

	bands, err := NewGradingBandRepository(db).List(context.Background())
	require.NoError(t, err)
	require.Len(t, bands, 2)
	assert.Equal(t, "A", bands[0].Grade)
	assert.Equal(t, 79.0, bands[1].MaxScore)
}

func TestGradingBandRepositoryReplace(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM grading_bands").WillReturnResult(sqlmock.NewResult(0, 5))
	mock.ExpectExec("INSERT INTO grading_bands").
		WithArgs(sqlmock.AnyArg(), 50.0, 100.0, "P", "Pass", "").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO grading_bands").
		WithArgs("keep-id", 0.0, 49.0, "F", "Fail", "").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	bands := []models.GradingBand{
		{MinScore: 50, MaxScore: 100, Grade: "P", Descriptor: "Pass"},
		{ID: "keep-id", MinScore: 0, MaxScore: 49, Grade: "F", Descriptor: "Fail"},
	}
	require.NoError(t, NewGradingBandRepository(db).Replace(context.Background(), bands))
	assert.NotEmpty(t, bands[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGradingBandRepositoryReplaceRollsBack(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM grading_bands").WillReturnResult(sqlmock.NewResult(0, 5))
	mock.ExpectExec("INSERT INTO grading_bands").WillReturnError(errors.New("check violation"))
	mock.ExpectRollback()

	err := NewGradingBandRepository(db).Replace(context.Background(), []models.GradingBand{{MinScore: 0, MaxScore: 100, Grade: "A"}})
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeadlineRepositoryLatestActive(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	date := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "term", "year", "deadline_date", "is_active", "created_at"}).
		AddRow("d1", "1", int64(2024), date, true, date)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE is_active = TRUE ORDER BY deadline_date DESC LIMIT 1")).WillReturnRows(rows)

	deadline, err := NewDeadlineRepository(db).LatestActive(context.Background())
	require.NoError(t, err)
	assert.Equal(t, date, deadline.DeadlineDate)
	require.NotNil(t, deadline.Year)
	assert.Equal(t, 2024, *deadline.Year)
}

func TestDeadlineRepositoryLatestActiveNone(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	mock.ExpectQuery("FROM deadlines").WillReturnRows(sqlmock.NewRows([]string{"id", "term", "year", "deadline_date", "is_active", "created_at"}))

	_, err := NewDeadlineRepository(db).LatestActive(context.Background())
	assert.Equal(t, sql.ErrNoRows, err)
}

func TestDeadlineRepositoryCreateDeactivatesOthers(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	date := time.Date(2024, 4, 30, 0, 0, 0, 0, time.UTC)
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE deadlines SET is_active = FALSE").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO deadlines").
		WithArgs(sqlmock.AnyArg(), nil, nil, date, true, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	d := &models.Deadline{DeadlineDate: date, CreatedAt: date}
	require.NoError(t, NewDeadlineRepository(db).Create(context.Background(), d))
	assert.NotEmpty(t, d.ID)
	assert.True(t, d.IsActive)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSchoolProfileRepositoryLatest(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	rows := sqlmock.NewRows([]string{"school_name", "school_email", "school_motto", "school_address", "school_box", "school_contacts", "school_logo"}).
		AddRow("Hillside High", "info@hillside.ac", "Strive", "Kampala", "P.O. Box 1", "0700", "")
	mock.ExpectQuery("FROM school_profiles ORDER BY id DESC LIMIT 1").WillReturnRows(rows)

	profile, err := NewSchoolProfileRepository(db).Latest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Hillside High", profile.Name)
	assert.Equal(t, "Strive", profile.Motto)
}

func TestSchoolProfileRepositoryLatestMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	mock.ExpectQuery("FROM school_profiles").WillReturnError(sql.ErrNoRows)

	_, err := NewSchoolProfileRepository(db).Latest(context.Background())
	assert.Equal(t, sql.ErrNoRows, err)
}

func TestStreamRepositoryListByClass(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	rows := sqlmock.NewRows([]string{"stream_name"}).AddRow("East").AddRow("West")
	mock.ExpectQuery("SELECT stream_name FROM streams").WithArgs("S2").WillReturnRows(rows)

	streams, err := NewStreamRepository(db).ListByClass(context.Background(), models.ClassS2)
	require.NoError(t, err)
	assert.Equal(t, []string{"East", "West"}, streams)
}

func TestStreamRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO streams (class_level, stream_name) VALUES ($1, $2)")).
		WithArgs("S3", "East").
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, NewStreamRepository(db).Create(context.Background(), models.ClassS3, "East"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStreamRepositoryCreateDuplicate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	mock.ExpectExec("INSERT INTO streams").
		WithArgs("S3", "East").
		WillReturnError(&pq.Error{Code: "23505"})

	err := NewStreamRepository(db).Create(context.Background(), models.ClassS3, "East")
	require.Error(t, err)
	assert.True(t, database.IsUniqueViolation(err))
	assert.Contains(t, err.Error(), "create stream S3/East")
}

func TestCacheRepositoryWithoutClientMisses(t *testing.T) {
	repo := NewCacheRepository(nil, nil)
	var dest []models.Subject

	err := repo.Get(context.Background(), "records:subjects", &dest)
	assert.ErrorIs(t, err, appErrors.ErrCacheMiss)
	assert.NoError(t, repo.Set(context.Background(), "records:subjects", dest, time.Minute))
	assert.NoError(t, repo.DeleteByPattern(context.Background(), "records:*"))
	assert.NoError(t, repo.PingContext(context.Background()))
	assert.NoError(t, repo.Close())
}
