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

	"github.com/prestamax/loan-review-api/internal/middleware"
	"github.com/prestamax/loan-review-api/internal/models"
	appErrors "github.com/prestamax/loan-review-api/pkg/errors"
)

type applicationServiceMock struct {
	app        *models.Application
	detail     *models.ApplicationDetail
	err        error
	lastFilter models.ApplicationFilter
	lastTarget models.ApplicationStatus
}

func (m *applicationServiceMock) List(ctx context.Context, filter models.ApplicationFilter) ([]models.Application, models.Pagination, error) {
	m.lastFilter = filter
	if m.err != nil {
		return nil, models.Pagination{}, m.err
	}
	return []models.Application{*m.app}, models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: 1}, nil
}

func (m *applicationServiceMock) Detail(ctx context.Context, applicationID string) (*models.ApplicationDetail, error) {
	return m.detail, m.err
}

func (m *applicationServiceMock) ChangeStatus(ctx context.Context, actor models.Actor, applicationID string, target models.ApplicationStatus, note string) (*models.Application, error) {
	m.lastTarget = target
	return m.app, m.err
}

func (m *applicationServiceMock) Assign(ctx context.Context, actor models.Actor, applicationID, staffUserID string) (*models.Application, error) {
	return m.app, m.err
}

func (m *applicationServiceMock) CreateCounterOffer(ctx context.Context, actor models.Actor, applicationID string, req models.CounterOfferRequest) (*models.CounterOffer, error) {
	return nil, m.err
}

func (m *applicationServiceMock) AddNote(ctx context.Context, actor models.Actor, applicationID, body string) (*models.Note, error) {
	return nil, m.err
}

func (m *applicationServiceMock) ListNotes(ctx context.Context, applicationID string) ([]models.Note, error) {
	return nil, m.err
}

func (m *applicationServiceMock) ListTimeline(ctx context.Context, applicationID string, page, pageSize int) ([]models.TimelineEvent, models.Pagination, error) {
	return nil, models.Pagination{}, m.err
}

func TestApplicationHandlerListParsesFilter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mock := &applicationServiceMock{app: &models.Application{ID: "app1", Status: models.StatusInReview}}
	handler := NewApplicationHandler(mock)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/applications?status=IN_REVIEW&search=PR-2026&page=2&page_size=10", nil)
	c.Request = req

	handler.List(c)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, mock.lastFilter.Status)
	assert.Equal(t, models.StatusInReview, *mock.lastFilter.Status)
	assert.Equal(t, "PR-2026", mock.lastFilter.Search)
	assert.Equal(t, 2, mock.lastFilter.Page)
	assert.Equal(t, 10, mock.lastFilter.PageSize)

	var envelope struct {
		Pagination *models.Pagination `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Pagination)
	assert.Equal(t, 1, envelope.Pagination.TotalCount)
}

func TestApplicationHandlerChangeStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mock := &applicationServiceMock{app: &models.Application{ID: "app1", Status: models.StatusApproved}}
	handler := NewApplicationHandler(mock)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	body, _ := json.Marshal(models.ChangeStatusRequest{Status: models.StatusApproved, Note: "all checks passed"})
	req, _ := http.NewRequest(http.MethodPost, "/applications/app1/status", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "app1"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "u-super", Role: models.RoleSupervisor, FullName: "Sofía Vega"})

	handler.ChangeStatus(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.StatusApproved, mock.lastTarget)
}

func TestApplicationHandlerChangeStatusInvalidBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewApplicationHandler(&applicationServiceMock{})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/applications/app1/status", bytes.NewReader([]byte(`invalid`)))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "app1"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "u-super", Role: models.RoleSupervisor})

	handler.ChangeStatus(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestApplicationHandlerDetailNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mock := &applicationServiceMock{err: appErrors.Clone(appErrors.ErrNotFound, "application not found")}
	handler := NewApplicationHandler(mock)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/applications/app-ghost", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "app-ghost"}}

	handler.Detail(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
