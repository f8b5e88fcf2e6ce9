package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-records-api/internal/dto"
	"github.com/noah-isme/sma-records-api/internal/middleware"
	"github.com/noah-isme/sma-records-api/internal/models"
	"github.com/noah-isme/sma-records-api/internal/service"
	appErrors "github.com/noah-isme/sma-records-api/pkg/errors"
)

func newGinContext(method, path string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	return c, w
}

func withTeacher(c *gin.Context) {
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "t-1", Role: models.RoleTeacher})
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) *appErrors.Error {
	t.Helper()
	var body struct {
		Error *appErrors.Error `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.NotNil(t, body.Error)
	return body.Error
}

type markServiceMock struct {
	caller    models.Caller
	level     string
	query     dto.LoadRecordsQuery
	saved     dto.SaveRecordsRequest
	archivedN int64
	records   []models.MarkRecord
	result    *dto.MergeResult
	err       error
}

func (m *markServiceMock) Load(ctx context.Context, caller models.Caller, rawLevel string, query dto.LoadRecordsQuery) ([]models.MarkRecord, error) {
	m.caller, m.level, m.query = caller, rawLevel, query
	return m.records, m.err
}

func (m *markServiceMock) Save(ctx context.Context, caller models.Caller, rawLevel string, req dto.SaveRecordsRequest) (*dto.MergeResult, error) {
	m.caller, m.level, m.saved = caller, rawLevel, req
	return m.result, m.err
}

func (m *markServiceMock) Archive(ctx context.Context, caller models.Caller, rawLevel string, studentNumber int64, req dto.ArchiveRequest) (*models.ArchivedRecord, error) {
	m.caller, m.level, m.archivedN = caller, rawLevel, studentNumber
	if m.err != nil {
		return nil, m.err
	}
	return &models.ArchivedRecord{Reason: req.Reason}, nil
}

func TestMarkHandlerLoad(t *testing.T) {
	svc := &markServiceMock{records: []models.MarkRecord{{StudentNumber: 1001}, {StudentNumber: 1002}}}
	h := NewMarkHandler(svc)

	c, w := newGinContext(http.MethodGet, "/classes/s1/records?stream=A&year=2024&term=1", nil)
	c.Params = gin.Params{{Key: "level", Value: "s1"}}
	withTeacher(c)

	h.Load(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "s1", svc.level)
	assert.Equal(t, dto.LoadRecordsQuery{Stream: "A", Year: 2024, Term: "1"}, svc.query)
	assert.Equal(t, models.Caller{UserID: "t-1", Role: models.RoleTeacher}, svc.caller)
	assert.Contains(t, w.Body.String(), `"count":2`)
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
}

func TestMarkHandlerLoadBadYear(t *testing.T) {
	h := NewMarkHandler(&markServiceMock{})
	c, w := newGinContext(http.MethodGet, "/classes/s1/records?stream=A&year=abc&term=1", nil)
	withTeacher(c)

	h.Load(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", decodeError(t, w).Code)
}

func TestMarkHandlerSave(t *testing.T) {
	svc := &markServiceMock{result: &dto.MergeResult{Success: true, Applied: 1, Submitted: 1}}
	h := NewMarkHandler(svc)

	body := []byte(`{"records":[{"student_number":1001,"stream":"A","year":2024,"term":"1","scores":{"eng1":85,"engBOT":null}}]}`)
	c, w := newGinContext(http.MethodPost, "/classes/S2/records", body)
	c.Params = gin.Params{{Key: "level", Value: "S2"}}
	withTeacher(c)

	h.Save(c)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, svc.saved.Records, 1)
	scores := svc.saved.Records[0].Scores
	require.NotNil(t, scores["eng1"])
	assert.Equal(t, 85.0, *scores["eng1"])
	v, present := scores["engBOT"]
	assert.True(t, present)
	assert.Nil(t, v)
	assert.Contains(t, w.Body.String(), `"applied":1`)
}

func TestMarkHandlerSaveDeadlinePassed(t *testing.T) {
	svc := &markServiceMock{err: appErrors.Clone(appErrors.ErrDeadlinePassed, "marks entry closed on 2024-03-31")}
	h := NewMarkHandler(svc)

	c, w := newGinContext(http.MethodPost, "/classes/S1/records", []byte(`{"records":[{"student_number":1,"stream":"A","year":2024,"term":"1"}]}`))
	c.Params = gin.Params{{Key: "level", Value: "S1"}}
	withTeacher(c)

	h.Save(c)
	require.Equal(t, http.StatusForbidden, w.Code)
	appErr := decodeError(t, w)
	assert.Equal(t, "DEADLINE_PASSED", appErr.Code)
	assert.Equal(t, "marks entry closed on 2024-03-31", appErr.Message)
}

func TestMarkHandlerSaveMalformedJSON(t *testing.T) {
	svc := &markServiceMock{}
	h := NewMarkHandler(svc)
	c, w := newGinContext(http.MethodPost, "/classes/S1/records", []byte(`{"records":`))
	withTeacher(c)

	h.Save(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, svc.level)
}

func TestMarkHandlerSaveStorageFaultHidesCause(t *testing.T) {
	svc := &markServiceMock{err: appErrors.Storage(errors.New("pq: relation secret"), "failed to save marks batch; no records were changed")}
	h := NewMarkHandler(svc)
	c, w := newGinContext(http.MethodPost, "/classes/S1/records", []byte(`{"records":[{"student_number":1,"stream":"A","year":2024,"term":"1"}]}`))
	withTeacher(c)

	h.Save(c)
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "secret")
	assert.Equal(t, "STORAGE_FAULT", decodeError(t, w).Code)
}

func TestMarkHandlerArchive(t *testing.T) {
	svc := &markServiceMock{}
	h := NewMarkHandler(svc)

	c, w := newGinContext(http.MethodPost, "/classes/S4/records/1001/archive", []byte(`{"year":2024,"term":"3","reason":"graduated"}`))
	c.Params = gin.Params{{Key: "level", Value: "S4"}, {Key: "studentNo", Value: "1001"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "h-1", Role: models.RoleHeadteacher})

	h.Archive(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(1001), svc.archivedN)
	assert.Contains(t, w.Body.String(), "graduated")

	c, w = newGinContext(http.MethodPost, "/classes/S4/records/x/archive", []byte(`{}`))
	c.Params = gin.Params{{Key: "level", Value: "S4"}, {Key: "studentNo", Value: "x"}}
	h.Archive(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

type reportBuilderMock struct {
	query  dto.ReportQuery
	number int64
	report *models.Report
	err    error
}

func (m *reportBuilderMock) BuildReport(ctx context.Context, caller models.Caller, rawLevel string, studentNumber int64, query dto.ReportQuery) (*models.Report, error) {
	m.number, m.query = studentNumber, query
	return m.report, m.err
}

func TestReportHandlerStudentReport(t *testing.T) {
	svc := &reportBuilderMock{report: &models.Report{Variant: models.VariantEOT, Subjects: []models.ReportSubject{}}}
	h := NewReportHandler(svc)

	c, w := newGinContext(http.MethodGet, "/classes/S1/records/1001/report?stream=A&year=2024&term=1&variant=1", nil)
	c.Params = gin.Params{{Key: "level", Value: "S1"}, {Key: "studentNo", Value: "1001"}}
	withTeacher(c)

	h.StudentReport(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(1001), svc.number)
	assert.Equal(t, "1", svc.query.Variant)
}

func TestReportHandlerNotFound(t *testing.T) {
	h := NewReportHandler(&reportBuilderMock{err: appErrors.Clone(appErrors.ErrNotFound, "mark record not found")})

	c, w := newGinContext(http.MethodGet, "/classes/S1/records/7/report?stream=A&year=2024&term=1", nil)
	c.Params = gin.Params{{Key: "level", Value: "S1"}, {Key: "studentNo", Value: "7"}}
	withTeacher(c)

	h.StudentReport(c)
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", decodeError(t, w).Code)
}

type referenceServiceMock struct {
	subjects []models.Subject
	bands    []models.GradingBand
	profile  *models.SchoolProfile
	replaced dto.ReplaceBandsRequest
	created  dto.CreateSubjectRequest
	err      error
}

func (m *referenceServiceMock) Subjects(ctx context.Context) ([]models.Subject, error) {
	return m.subjects, m.err
}

func (m *referenceServiceMock) Bands(ctx context.Context) ([]models.GradingBand, error) {
	return m.bands, m.err
}

func (m *referenceServiceMock) SchoolProfile(ctx context.Context) (*models.SchoolProfile, error) {
	return m.profile, m.err
}

func (m *referenceServiceMock) ReplaceBands(ctx context.Context, caller models.Caller, req dto.ReplaceBandsRequest) ([]models.GradingBand, error) {
	if !caller.IsAdmin() {
		return nil, appErrors.ErrForbidden
	}
	m.replaced = req
	return req.ToModels(), nil
}

func (m *referenceServiceMock) CreateSubject(ctx context.Context, caller models.Caller, req dto.CreateSubjectRequest) (*models.Subject, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.created = req
	return &models.Subject{Code: req.Code, DisplayName: req.DisplayName}, nil
}

type streamServiceMock struct {
	level  string
	caller models.Caller
	added  dto.AddStreamRequest
	err    error
}

func (m *streamServiceMock) List(ctx context.Context, rawLevel string) ([]string, error) {
	m.level = rawLevel
	return []string{"A", "B"}, nil
}

func (m *streamServiceMock) Add(ctx context.Context, caller models.Caller, rawLevel string, req dto.AddStreamRequest) ([]string, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.level, m.caller, m.added = rawLevel, caller, req
	return []string{"A", "B", req.Name}, nil
}

func TestReferenceHandlerReads(t *testing.T) {
	refs := &referenceServiceMock{
		subjects: []models.Subject{{Code: "ENG", DisplayName: "English Language"}},
		bands:    []models.GradingBand{{MinScore: 80, MaxScore: 100, Grade: "A"}},
	}
	streams := &streamServiceMock{}
	h := NewReferenceHandler(refs, streams)

	c, w := newGinContext(http.MethodGet, "/subjects", nil)
	h.Subjects(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "English Language")

	c, w = newGinContext(http.MethodGet, "/grading-bands", nil)
	h.Bands(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"grade":"A"`)

	c, w = newGinContext(http.MethodGet, "/classes/S3/streams", nil)
	c.Params = gin.Params{{Key: "level", Value: "S3"}}
	h.Streams(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "S3", streams.level)

	c, w = newGinContext(http.MethodGet, "/school-profile", nil)
	h.SchoolProfile(c)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestReferenceHandlerReplaceBands(t *testing.T) {
	refs := &referenceServiceMock{}
	h := NewReferenceHandler(refs, &streamServiceMock{})
	body := []byte(`{"bands":[{"min_score":0,"max_score":100,"grade":"P"}]}`)

	c, w := newGinContext(http.MethodPut, "/grading-bands", body)
	withTeacher(c)
	h.ReplaceBands(c)
	require.Equal(t, http.StatusForbidden, w.Code)

	c, w = newGinContext(http.MethodPut, "/grading-bands", body)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "a-1", Role: models.RoleAdmin})
	h.ReplaceBands(c)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, refs.replaced.Bands, 1)
	assert.Equal(t, "P", refs.replaced.Bands[0].Grade)
}

func TestReferenceHandlerCreateSubject(t *testing.T) {
	refs := &referenceServiceMock{}
	h := NewReferenceHandler(refs, &streamServiceMock{})

	c, w := newGinContext(http.MethodPost, "/subjects", []byte(`{"code":"FRE","display_name":"French"}`))
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "h-1", Role: models.RoleHeadteacher})
	h.CreateSubject(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "FRE", refs.created.Code)
	assert.Contains(t, w.Body.String(), `"display_name":"French"`)

	c, w = newGinContext(http.MethodPost, "/subjects", []byte(`{"code":`))
	h.CreateSubject(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, appErrors.ErrValidation.Code, decodeError(t, w).Code)

	refs.err = appErrors.Clone(appErrors.ErrConflict, "subject FRE already exists")
	c, w = newGinContext(http.MethodPost, "/subjects", []byte(`{"code":"FRE","display_name":"French"}`))
	h.CreateSubject(c)
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "CONFLICT", decodeError(t, w).Code)
}

func TestReferenceHandlerAddStream(t *testing.T) {
	streams := &streamServiceMock{}
	h := NewReferenceHandler(&referenceServiceMock{}, streams)

	c, w := newGinContext(http.MethodPost, "/classes/S2/streams", []byte(`{"stream_name":"East"}`))
	c.Params = gin.Params{{Key: "level", Value: "S2"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "a-1", Role: models.RoleAdmin})
	h.AddStream(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "S2", streams.level)
	assert.Equal(t, "East", streams.added.Name)
	assert.Equal(t, models.RoleAdmin, streams.caller.Role)
	assert.Contains(t, w.Body.String(), `"East"`)

	streams.err = appErrors.Clone(appErrors.ErrForbidden, "role teacher cannot add streams")
	c, w = newGinContext(http.MethodPost, "/classes/S2/streams", []byte(`{"stream_name":"West"}`))
	c.Params = gin.Params{{Key: "level", Value: "S2"}}
	withTeacher(c)
	h.AddStream(c)
	require.Equal(t, http.StatusForbidden, w.Code)
}

type deadlineServiceMock struct {
	today time.Time
	asked time.Time
	set   dto.SetDeadlineRequest
}

func (m *deadlineServiceMock) Today() time.Time { return m.today }

func (m *deadlineServiceMock) Status(ctx context.Context, today time.Time) (*models.DeadlineStatus, error) {
	m.asked = today
	return &models.DeadlineStatus{Open: true, Today: today.Format("2006-01-02")}, nil
}

func (m *deadlineServiceMock) Set(ctx context.Context, caller models.Caller, req dto.SetDeadlineRequest) (*models.Deadline, error) {
	m.set = req
	return &models.Deadline{ID: "d-1", IsActive: true}, nil
}

func TestDeadlineHandler(t *testing.T) {
	svc := &deadlineServiceMock{today: time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)}
	h := NewDeadlineHandler(svc)

	c, w := newGinContext(http.MethodGet, "/deadline", nil)
	h.Status(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, svc.today, svc.asked)
	assert.Contains(t, w.Body.String(), `"today":"2024-03-10"`)

	c, w = newGinContext(http.MethodPost, "/deadline", []byte(`{"deadline_date":"2024-03-31","term":"1"}`))
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "a-1", Role: models.RoleAdmin})
	h.Set(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "2024-03-31", svc.set.Date)
	require.NotNil(t, svc.set.Term)
	assert.Equal(t, "1", *svc.set.Term)
}

type pingStub struct{ err error }

func (p pingStub) PingContext(ctx context.Context) error { return p.err }

func TestMetricsHandler(t *testing.T) {
	metrics := service.NewMetricsService()
	metrics.IncReportsBuilt("EOT")
	h := NewMetricsHandler(metrics, map[string]Pinger{"postgres": pingStub{}}, nil)

	c, w := newGinContext(http.MethodGet, "/metrics", nil)
	h.Prometheus(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "records_reports_built_total")

	c, w = newGinContext(http.MethodGet, "/health", nil)
	h.Health(c)
	require.Equal(t, http.StatusOK, w.Code)

	c, w = newGinContext(http.MethodGet, "/ready", nil)
	h.Ready(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"postgres":"up"`)

	down := NewMetricsHandler(nil, map[string]Pinger{"postgres": pingStub{}, "redis": pingStub{err: errors.New("refused")}}, zap.NewNop())
	c, w = newGinContext(http.MethodGet, "/ready", nil)
	down.Ready(c)
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"redis":"down"`)

	c, w = newGinContext(http.MethodGet, "/metrics", nil)
	down.Prometheus(c)
	c.Writer.WriteHeaderNow()
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
}
