package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/timetable-api/internal/dto"
	"github.com/noah-isme/timetable-api/internal/middleware"
	"github.com/noah-isme/timetable-api/internal/models"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
)

type timetableManagerMock struct {
	generated   dto.GenerateTimetableRequest
	generateErr error
	publicHit   bool
	exportFmt   dto.ExportFormat
	actor       *models.JWTClaims
}

func (m *timetableManagerMock) Generate(ctx context.Context, actor *models.JWTClaims, req dto.GenerateTimetableRequest) (*dto.GenerateTimetableResponse, error) {
	m.generated = req
	m.actor = actor
	if m.generateErr != nil {
		return nil, m.generateErr
	}
	return &dto.GenerateTimetableResponse{
		Timetables: []models.Timetable{{ID: "tt-1", Level: "100", Status: models.TimetableStatusDraft}},
		Summary:    dto.GenerationSummary{ScheduledCourses: 2, Unscheduled: []string{"CSC105"}},
		NextStep:   "share",
	}, nil
}

func (m *timetableManagerMock) Regenerate(ctx context.Context, actor *models.JWTClaims, id string) (*dto.GenerateTimetableResponse, error) {
	return &dto.GenerateTimetableResponse{}, nil
}

func (m *timetableManagerMock) List(ctx context.Context, actor *models.JWTClaims, dept string, query dto.TimetableQuery) ([]models.Timetable, error) {
	return []models.Timetable{}, nil
}

func (m *timetableManagerMock) Get(ctx context.Context, actor *models.JWTClaims, id string) (*models.Timetable, error) {
	if id == "missing" {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "timetable not found")
	}
	return &models.Timetable{ID: id}, nil
}

func (m *timetableManagerMock) Delete(ctx context.Context, actor *models.JWTClaims, id string) error {
	return nil
}

func (m *timetableManagerMock) Share(ctx context.Context, actor *models.JWTClaims, req dto.ShareTimetableRequest) (*models.Timetable, error) {
	return &models.Timetable{ID: req.TimetableID, Status: models.TimetableStatusShared}, nil
}

func (m *timetableManagerMock) Publish(ctx context.Context, actor *models.JWTClaims, req dto.PublishTimetableRequest) (*models.Timetable, error) {
	return &models.Timetable{ID: req.TimetableID, Status: models.TimetableStatusPublished}, nil
}

func (m *timetableManagerMock) ListShared(ctx context.Context, actor *models.JWTClaims) ([]models.Timetable, error) {
	return []models.Timetable{}, nil
}

func (m *timetableManagerMock) ListPublic(ctx context.Context, query dto.PublicTimetableQuery) ([]models.Timetable, bool, error) {
	return []models.Timetable{{ID: "tt-9", Status: models.TimetableStatusPublished}}, m.publicHit, nil
}

func (m *timetableManagerMock) Export(ctx context.Context, actor *models.JWTClaims, id string, format dto.ExportFormat) (*dto.ExportResult, error) {
	m.exportFmt = format
	return &dto.ExportResult{Filename: "timetable.csv", ContentType: "text/csv", Body: []byte("day,time\n")}, nil
}

func newTimetableContext(method, target string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "hod-1", Role: models.RoleHOD, Department: "computer science"})
	return c, w
}

func TestTimetableHandlerGenerate(t *testing.T) {
	mockSvc := &timetableManagerMock{}
	handler := NewTimetableHandler(mockSvc)
	c, w := newTimetableContext(http.MethodPost, "/timetables/generate", []byte(`{"department":"cs","semester":"first","level":"100"}`))

	handler.Generate(c)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "cs", mockSvc.generated.Department)
	assert.Equal(t, "100", mockSvc.generated.Level)
	require.NotNil(t, mockSvc.actor)
	assert.Equal(t, "hod-1", mockSvc.actor.UserID)

	var body struct {
		Data dto.GenerateTimetableResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, []string{"CSC105"}, body.Data.Summary.Unscheduled)
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
}

func TestTimetableHandlerGenerateErrors(t *testing.T) {
	handler := NewTimetableHandler(&timetableManagerMock{})
	c, w := newTimetableContext(http.MethodPost, "/timetables/generate", []byte(`{"department":`))
	handler.Generate(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	handler = NewTimetableHandler(&timetableManagerMock{generateErr: appErrors.Clone(appErrors.ErrConflict, "exists")})
	c, w = newTimetableContext(http.MethodPost, "/timetables/generate", []byte(`{"department":"cs","semester":"first"}`))
	handler.Generate(c)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"CONFLICT"`)
}

func TestTimetableHandlerPublicReportsCacheState(t *testing.T) {
	handler := NewTimetableHandler(&timetableManagerMock{publicHit: true})
	c, w := newTimetableContext(http.MethodGet, "/timetables/public?department=cs", nil)

	handler.Public(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "HIT", w.Header().Get(middleware.CacheHeader))
	assert.Contains(t, w.Header().Get("Cache-Control"), "max-age=60")
	assert.Contains(t, w.Body.String(), `"cache_hit":true`)
	assert.Contains(t, w.Body.String(), `"total":1`)
}

func TestTimetableHandlerExport(t *testing.T) {
	mockSvc := &timetableManagerMock{}
	handler := NewTimetableHandler(mockSvc)
	c, w := newTimetableContext(http.MethodGet, "/timetables/tt-1/export?format=CSV", nil)
	c.Params = gin.Params{{Key: "id", Value: "tt-1"}}

	handler.Export(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, dto.ExportFormatCSV, mockSvc.exportFmt)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), `filename="timetable.csv"`)
	assert.Equal(t, "day,time\n", w.Body.String())
}

func TestTimetableHandlerGetNotFound(t *testing.T) {
	handler := NewTimetableHandler(&timetableManagerMock{})
	c, w := newTimetableContext(http.MethodGet, "/timetables/missing", nil)
	c.Params = gin.Params{{Key: "id", Value: "missing"}}

	handler.Get(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
