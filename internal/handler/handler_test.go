package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cursada/planner-api/internal/middleware"
	"github.com/cursada/planner-api/internal/models"
	"github.com/cursada/planner-api/internal/service"
	appErrors "github.com/cursada/planner-api/pkg/errors"
	"github.com/cursada/planner-api/pkg/response"
)

var testPrincipal = &models.Principal{UserID: "11111111-1111-1111-1111-111111111111", Email: "alice@example.com", DisplayName: "Alice"}

func newTestContext(method, path string, body interface{}) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	var reader *bytes.Reader
	if body != nil {
		payload, _ := json.Marshal(body)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, _ := http.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	return c, w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) map[string]json.RawMessage {
	t.Helper()
	var envelope map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	return envelope
}

type catalogServiceMock struct {
	subjects []models.Subject
	created  bool
	err      error
}

func (m *catalogServiceMock) ListUniversities(context.Context) ([]models.University, error) {
	return []models.University{{ID: 1, Name: "UTN", Careers: []models.Career{}}}, m.err
}

func (m *catalogServiceMock) ListCareers(context.Context, int64) ([]models.Career, error) {
	return []models.Career{}, m.err
}

func (m *catalogServiceMock) ListSubjects(context.Context, int64) ([]models.Subject, error) {
	return m.subjects, m.err
}

func (m *catalogServiceMock) GetSubject(_ context.Context, id int64) (*models.SubjectDetail, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &models.SubjectDetail{Subject: models.Subject{ID: id}, Prerequisites: []models.PrerequisiteDetail{}}, nil
}

func (m *catalogServiceMock) ListPrerequisites(context.Context, int64) ([]models.PrerequisiteDetail, error) {
	return []models.PrerequisiteDetail{}, m.err
}

func (m *catalogServiceMock) FindOrCreateSubjectByName(_ context.Context, req service.ResolveSubjectRequest) (*models.Subject, bool, error) {
	return &models.Subject{ID: 9, Name: req.Name}, m.created, m.err
}

func TestCatalogHandlerListSubjectsEmptyIsArray(t *testing.T) {
	h := NewCatalogHandler(&catalogServiceMock{subjects: []models.Subject{}})
	c, w := newTestContext(http.MethodGet, "/careers/99/subjects", nil)
	c.Params = gin.Params{{Key: "id", Value: "99"}}

	h.ListSubjects(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, string(decodeEnvelope(t, w)["data"]))
}

func TestCatalogHandlerRejectsBadID(t *testing.T) {
	h := NewCatalogHandler(&catalogServiceMock{})
	c, w := newTestContext(http.MethodGet, "/subjects/abc", nil)
	c.Params = gin.Params{{Key: "id", Value: "abc"}}

	h.GetSubject(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCatalogHandlerGetSubjectNotFound(t *testing.T) {
	h := NewCatalogHandler(&catalogServiceMock{err: appErrors.Clone(appErrors.ErrNotFound, "subject not found")})
	c, w := newTestContext(http.MethodGet, "/subjects/5", nil)
	c.Params = gin.Params{{Key: "id", Value: "5"}}

	h.GetSubject(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCatalogHandlerTransientSetsRetryAfter(t *testing.T) {
	h := NewCatalogHandler(&catalogServiceMock{err: appErrors.Clone(appErrors.ErrTransient, "store temporarily unavailable")})
	c, w := newTestContext(http.MethodGet, "/universities", nil)

	h.ListUniversities(c)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "5", w.Header().Get("Retry-After"))
}

func TestCatalogHandlerResolveSubject(t *testing.T) {
	h := NewCatalogHandler(&catalogServiceMock{created: true})

	c, w := newTestContext(http.MethodPost, "/subjects/resolve", service.ResolveSubjectRequest{Name: "Física I"})
	h.ResolveSubject(c)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	c, w = newTestContext(http.MethodPost, "/subjects/resolve", service.ResolveSubjectRequest{Name: "Física I"})
	c.Set(middleware.ContextPrincipalKey, testPrincipal)
	h.ResolveSubject(c)
	assert.Equal(t, http.StatusCreated, w.Code)
}

type planServiceMock struct {
	addErr  error
	removed []int64
}

func (m *planServiceMock) AddSubject(_ context.Context, p models.Principal, req service.AddUserSubjectRequest) (*models.UserSubject, error) {
	if m.addErr != nil {
		return nil, m.addErr
	}
	return &models.UserSubject{ID: 1, UserID: p.UserID, SubjectID: req.SubjectID, Status: models.StatusNotStarted}, nil
}

func (m *planServiceMock) UpdateStatus(_ context.Context, p models.Principal, subjectID int64, req service.UpdateUserSubjectRequest) (*models.UserSubject, error) {
	return &models.UserSubject{UserID: p.UserID, SubjectID: subjectID, Status: *req.Status}, nil
}

func (m *planServiceMock) RemoveSubject(_ context.Context, _ models.Principal, subjectID int64) error {
	m.removed = append(m.removed, subjectID)
	return nil
}

func (m *planServiceMock) ListUserSubjects(context.Context, models.Principal) ([]models.UserSubjectDetail, error) {
	return []models.UserSubjectDetail{}, nil
}

func (m *planServiceMock) ListAvailableSubjects(context.Context, models.Principal) ([]models.Subject, error) {
	return []models.Subject{}, nil
}

func (m *planServiceMock) Progress(context.Context, models.Principal) (*models.StudyProgress, error) {
	return &models.StudyProgress{ByStatus: map[models.SubjectStatus]int{}}, nil
}

type exporterMock struct {
	format string
}

func (m *exporterMock) Plan(_ context.Context, _ models.Principal, format string) (*service.ExportFile, error) {
	m.format = format
	return &service.ExportFile{Filename: "plan-20260309.csv", ContentType: "text/csv; charset=utf-8", Body: []byte("Nro,Materia\n")}, nil
}

func TestMeHandlerAddSubjectConflict(t *testing.T) {
	h := NewMeHandler(nil, &planServiceMock{addErr: appErrors.Clone(appErrors.ErrConflict, "subject already tracked")}, nil)
	c, w := newTestContext(http.MethodPost, "/me/subjects", service.AddUserSubjectRequest{SubjectID: 1})
	c.Set(middleware.ContextPrincipalKey, testPrincipal)

	h.AddSubject(c)

	require.Equal(t, http.StatusConflict, w.Code)
	var apiErr response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &apiErr))
	assert.Equal(t, appErrors.ErrConflict.Code, apiErr.Error.Code)
}

func TestMeHandlerUpdateAndRemoveSubject(t *testing.T) {
	plan := &planServiceMock{}
	h := NewMeHandler(nil, plan, nil)

	c, w := newTestContext(http.MethodPatch, "/me/subjects/2", map[string]string{"status": "aprobada"})
	c.Params = gin.Params{{Key: "subjectId", Value: "2"}}
	c.Set(middleware.ContextPrincipalKey, testPrincipal)
	h.UpdateSubject(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"aprobada"`)

	c, w = newTestContext(http.MethodDelete, "/me/subjects/2", nil)
	c.Params = gin.Params{{Key: "subjectId", Value: "2"}}
	c.Set(middleware.ContextPrincipalKey, testPrincipal)
	h.RemoveSubject(c)
	c.Writer.WriteHeaderNow()
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, []int64{2}, plan.removed)
}

func TestMeHandlerExportPlan(t *testing.T) {
	exporter := &exporterMock{}
	h := NewMeHandler(nil, &planServiceMock{}, exporter)
	c, w := newTestContext(http.MethodGet, "/me/plan/export?format=csv", nil)
	c.Set(middleware.ContextPrincipalKey, testPrincipal)

	h.ExportPlan(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "csv", exporter.format)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "plan-20260309.csv")
	assert.Equal(t, "Nro,Materia\n", w.Body.String())
}

const ratingID = "3f1c2b7e-9a4d-4c1e-8f2a-5b6d7e8f9a0b"

type ratingServiceMock struct {
	voteErr error
	report  service.ReportRequest
	deleted []string
}

func (m *ratingServiceMock) Create(_ context.Context, p models.Principal, subjectID int64, req service.CreateRatingRequest) (*models.Rating, error) {
	return &models.Rating{ID: "r1", SubjectID: subjectID, UserID: p.UserID, Score: req.Score}, nil
}

func (m *ratingServiceMock) Update(context.Context, models.Principal, string, service.UpdateRatingRequest) (*models.Rating, error) {
	return &models.Rating{ID: "r1"}, nil
}

func (m *ratingServiceMock) Delete(_ context.Context, _ models.Principal, id string) error {
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *ratingServiceMock) ListBySubject(_ context.Context, _ int64, page, size int) ([]models.Rating, *models.Pagination, error) {
	return []models.Rating{}, &models.Pagination{Page: page, PageSize: size, TotalCount: 0}, nil
}

func (m *ratingServiceMock) Summary(_ context.Context, subjectID int64) (*models.RatingSummary, error) {
	return &models.RatingSummary{SubjectID: subjectID}, nil
}

func (m *ratingServiceMock) Vote(_ context.Context, _ models.Principal, id string, req service.VoteRequest) (*models.VoteResult, error) {
	if m.voteErr != nil {
		return nil, m.voteErr
	}
	kind := req.Kind
	return &models.VoteResult{PostID: id, UsefulCount: 1, UserVote: &kind}, nil
}

func (m *ratingServiceMock) Report(_ context.Context, _ models.Principal, _ string, req service.ReportRequest) (*models.PostCounters, error) {
	m.report = req
	return &models.PostCounters{ReportsCount: 1}, nil
}

func TestRatingHandlerVote(t *testing.T) {
	h := NewRatingHandler(&ratingServiceMock{})
	c, w := newTestContext(http.MethodPost, "/ratings/"+ratingID+"/votes", service.VoteRequest{Kind: models.VoteUseful})
	c.Params = gin.Params{{Key: "id", Value: ratingID}}
	c.Set(middleware.ContextPrincipalKey, testPrincipal)

	h.Vote(c)

	require.Equal(t, http.StatusOK, w.Code)
	var result models.VoteResult
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w)["data"], &result))
	assert.Equal(t, 1, result.UsefulCount)
	require.NotNil(t, result.UserVote)
}

func TestRatingHandlerSelfVoteForbidden(t *testing.T) {
	h := NewRatingHandler(&ratingServiceMock{voteErr: appErrors.Clone(appErrors.ErrForbidden, "cannot vote on your own post")})
	c, w := newTestContext(http.MethodPost, "/ratings/"+ratingID+"/votes", service.VoteRequest{Kind: models.VoteUseful})
	c.Params = gin.Params{{Key: "id", Value: ratingID}}
	c.Set(middleware.ContextPrincipalKey, testPrincipal)

	h.Vote(c)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRatingHandlerReportWithoutBody(t *testing.T) {
	svc := &ratingServiceMock{}
	h := NewRatingHandler(svc)
	c, w := newTestContext(http.MethodPost, "/ratings/"+ratingID+"/reports", nil)
	c.Params = gin.Params{{Key: "id", Value: ratingID}}
	c.Set(middleware.ContextPrincipalKey, testPrincipal)

	h.Report(c)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, svc.report.Reason)
}

func TestRatingHandlerDeleteRejectsMalformedID(t *testing.T) {
	svc := &ratingServiceMock{}
	h := NewRatingHandler(svc)
	c, w := newTestContext(http.MethodDelete, "/ratings/abc", nil)
	c.Params = gin.Params{{Key: "id", Value: "abc"}}
	c.Set(middleware.ContextPrincipalKey, testPrincipal)

	h.Delete(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, string(decodeEnvelope(t, w)["error"]), appErrors.ErrValidation.Code)
	assert.Empty(t, svc.deleted)
}

func TestRatingHandlerDeleteCanonicalisesID(t *testing.T) {
	svc := &ratingServiceMock{}
	h := NewRatingHandler(svc)
	upper := "3F1C2B7E-9A4D-4C1E-8F2A-5B6D7E8F9A0B"
	c, w := newTestContext(http.MethodDelete, "/ratings/"+upper, nil)
	c.Params = gin.Params{{Key: "id", Value: upper}}
	c.Set(middleware.ContextPrincipalKey, testPrincipal)

	h.Delete(c)
	c.Writer.WriteHeaderNow()

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, []string{ratingID}, svc.deleted)
}

func TestRatingHandlerListPagination(t *testing.T) {
	h := NewRatingHandler(&ratingServiceMock{})
	c, w := newTestContext(http.MethodGet, "/subjects/3/ratings?page=2&limit=5", nil)
	c.Params = gin.Params{{Key: "id", Value: "3"}}

	h.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	var page models.Pagination
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w)["pagination"], &page))
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 5, page.PageSize)
}

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) PingContext(ctx context.Context) error { return f(ctx) }

func TestMetricsHandlerReady(t *testing.T) {
	h := NewMetricsHandler(nil, pingerFunc(func(context.Context) error { return nil }))
	c, w := newTestContext(http.MethodGet, "/ready", nil)
	h.Ready(c)
	assert.Equal(t, http.StatusOK, w.Code)

	h = NewMetricsHandler(nil, pingerFunc(func(context.Context) error { return errors.New("connection refused") }))
	c, w = newTestContext(http.MethodGet, "/ready", nil)
	h.Ready(c)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
