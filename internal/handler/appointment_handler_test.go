package handler

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/career-services-api/internal/models"
	appErrors "github.com/noah-isme/career-services-api/pkg/errors"
)

type appointmentServiceMock struct {
	createReq   models.CreateAppointmentRequest
	actor       string
	mockUser    string
	postponeID  string
	doneReq     models.MarkDoneRequest
	filter      models.AppointmentFilter
	err         error
	compliedIDs []string
}

func (m *appointmentServiceMock) Create(ctx context.Context, req models.CreateAppointmentRequest, actorID string) (*models.Appointment, error) {
	m.createReq, m.actor = req, actorID
	return &models.Appointment{ID: "appt-1", Type: req.Type}, m.err
}

func (m *appointmentServiceMock) ScheduleMock(ctx context.Context, userID string, req models.ScheduleMockRequest) (*models.Appointment, error) {
	m.mockUser = userID
	if m.err != nil {
		return nil, m.err
	}
	return &models.Appointment{ID: "mock-1", IsMockInterview: true}, nil
}

func (m *appointmentServiceMock) Postpone(ctx context.Context, id string, req models.PostponeAppointmentRequest, actorID string) (*models.Appointment, error) {
	m.postponeID, m.actor = id, actorID
	if m.err != nil {
		return nil, m.err
	}
	return &models.Appointment{ID: id, Status: models.AppointmentPostponed, ScheduledAt: req.ScheduledAt}, nil
}

func (m *appointmentServiceMock) MarkDone(ctx context.Context, id string, req models.MarkDoneRequest, actorID string) (*models.Appointment, error) {
	m.doneReq = req
	if m.err != nil {
		return nil, m.err
	}
	return &models.Appointment{ID: id, Status: models.AppointmentDone}, nil
}

func (m *appointmentServiceMock) MarkSLAComplied(ctx context.Context, id string) error {
	m.compliedIDs = append(m.compliedIDs, id)
	return m.err
}

func (m *appointmentServiceMock) List(ctx context.Context, filter models.AppointmentFilter) ([]models.AppointmentDetail, *models.Pagination, error) {
	m.filter = filter
	return []models.AppointmentDetail{{Appointment: models.Appointment{ID: "appt-1"}}}, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: 1}, nil
}

func TestAppointmentHandlerCreateSetsType(t *testing.T) {
	mock := &appointmentServiceMock{}
	body := `{"candidate_id":"cand-1","scheduled_at":"2025-03-12T10:00:00Z","notes":"intro"}`

	c, w := newContext(http.MethodPost, "/appointments/one-on-one", body, consultant())
	NewAppointmentHandler(mock).CreateOneOnOne(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, models.AppointmentOneOnOne, mock.createReq.Type)
	assert.Equal(t, "staff-1", mock.actor)
	assert.Equal(t, time.Date(2025, 3, 12, 10, 0, 0, 0, time.UTC), mock.createReq.ScheduledAt.UTC())

	c, w = newContext(http.MethodPost, "/appointments/interview", body, consultant())
	NewAppointmentHandler(mock).CreateInterview(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, models.AppointmentInterview, mock.createReq.Type)
}

func TestAppointmentHandlerCreateRejectsBadBody(t *testing.T) {
	c, w := newContext(http.MethodPost, "/appointments/interview", `{"candidate_id":`, consultant())

	NewAppointmentHandler(&appointmentServiceMock{}).CreateInterview(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAppointmentHandlerCreateSlotUnavailable(t *testing.T) {
	mock := &appointmentServiceMock{err: appErrors.ErrSlotUnavailable}
	c, w := newContext(http.MethodPost, "/appointments/interview", `{"candidate_id":"c","scheduled_at":"2025-03-12T10:00:00Z"}`, consultant())

	NewAppointmentHandler(mock).CreateInterview(c)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "SLOT_UNAVAILABLE", decode(t, w).Error.Code)
}

func TestAppointmentHandlerScheduleMockUsesCaller(t *testing.T) {
	mock := &appointmentServiceMock{}
	c, w := newContext(http.MethodPost, "/appointments/mock", `{"scheduled_at":"2025-03-20T09:00:00Z"}`, candidate())

	NewAppointmentHandler(mock).ScheduleMock(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "cand-1", mock.mockUser)

	mock.err = appErrors.Clone(appErrors.ErrForbidden, "mock interviews require Pro Plus")
	c, w = newContext(http.MethodPost, "/appointments/mock", `{"scheduled_at":"2025-03-20T09:00:00Z"}`, candidate())
	NewAppointmentHandler(mock).ScheduleMock(c)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAppointmentHandlerPostponeAndDone(t *testing.T) {
	mock := &appointmentServiceMock{}
	handler := NewAppointmentHandler(mock)

	c, w := newContext(http.MethodPost, "/appointments/appt-9/postpone", `{"scheduled_at":"2025-03-21T09:00:00Z"}`, consultant())
	c.Params = gin.Params{{Key: "id", Value: "appt-9"}}
	handler.Postpone(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "appt-9", mock.postponeID)

	c, w = newContext(http.MethodPost, "/appointments/appt-9/done", "", consultant())
	c.Params = gin.Params{{Key: "id", Value: "appt-9"}}
	handler.Done(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, mock.doneReq.Feedback)

	c, w = newContext(http.MethodPost, "/appointments/appt-9/done", `{"feedback":"strong"}`, consultant())
	c.Params = gin.Params{{Key: "id", Value: "appt-9"}}
	handler.Done(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "strong", mock.doneReq.Feedback)

	mock.err = appErrors.Clone(appErrors.ErrConflict, "appointment is already completed")
	c, w = newContext(http.MethodPost, "/appointments/appt-9/postpone", `{"scheduled_at":"2025-03-21T09:00:00Z"}`, consultant())
	c.Params = gin.Params{{Key: "id", Value: "appt-9"}}
	handler.Postpone(c)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestAppointmentHandlerSLAComplied(t *testing.T) {
	mock := &appointmentServiceMock{}
	c, _ := newContext(http.MethodPost, "/appointments/appt-3/sla-complied", "", consultant())
	c.Params = gin.Params{{Key: "id", Value: "appt-3"}}

	NewAppointmentHandler(mock).SLAComplied(c)
	assert.Equal(t, http.StatusNoContent, c.Writer.Status())
	assert.Equal(t, []string{"appt-3"}, mock.compliedIDs)
}

func TestAppointmentHandlerListParsesFilter(t *testing.T) {
	mock := &appointmentServiceMock{}
	c, w := newContext(http.MethodGet, "/appointments?type=interview&status=scheduled&from=2025-03-01&to=2025-03-31T00:00:00Z&q=+ana+&page=2&page_size=5", "", consultant())

	NewAppointmentHandler(mock).List(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.AppointmentInterview, mock.filter.Type)
	assert.Equal(t, models.AppointmentScheduled, mock.filter.Status)
	require.NotNil(t, mock.filter.From)
	assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), *mock.filter.From)
	assert.Equal(t, "ana", mock.filter.Search)
	assert.Equal(t, 2, mock.filter.Page)
	env := decode(t, w)
	require.NotNil(t, env.Pagination)
	assert.Equal(t, 5, env.Pagination.PageSize)

	c, w = newContext(http.MethodGet, "/appointments?from=yesterday", "", consultant())
	NewAppointmentHandler(mock).List(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
