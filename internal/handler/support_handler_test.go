package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/career-services-api/internal/models"
	appErrors "github.com/noah-isme/career-services-api/pkg/errors"
)

type supportServiceMock struct {
	err        error
	lastReq    models.CreateSupportQueryRequest
	lastFilter models.SupportQueryFilter
	reply      string
}

func (m *supportServiceMock) Submit(ctx context.Context, userID string, req models.CreateSupportQueryRequest) (*models.SupportQuery, error) {
	m.lastReq = req
	if m.err != nil {
		return nil, m.err
	}
	return &models.SupportQuery{ID: "q-1", UserID: userID, Subject: req.Subject, Priority: models.SupportPriorityLow}, nil
}

func (m *supportServiceMock) Mine(ctx context.Context, userID string, page, size int) ([]models.SupportQuery, *models.Pagination, error) {
	return m.List(ctx, models.SupportQueryFilter{UserID: userID, Page: page, PageSize: size})
}

func (m *supportServiceMock) List(ctx context.Context, filter models.SupportQueryFilter) ([]models.SupportQuery, *models.Pagination, error) {
	m.lastFilter = filter
	if m.err != nil {
		return nil, nil, m.err
	}
	return []models.SupportQuery{{ID: "q-1"}}, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: 1}, nil
}

func (m *supportServiceMock) Reply(ctx context.Context, id string, req models.ReplySupportQueryRequest, actorID string) (*models.SupportQuery, error) {
	m.reply = req.Reply
	if m.err != nil {
		return nil, m.err
	}
	return &models.SupportQuery{ID: id, Resolved: true, Reply: &req.Reply}, nil
}

func (m *supportServiceMock) Escalate(ctx context.Context, id string) (*models.SupportQuery, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &models.SupportQuery{ID: id, Priority: models.SupportPriorityEscalated}, nil
}

func TestSupportHandlerSubmit(t *testing.T) {
	mock := &supportServiceMock{}
	c, w := newContext(http.MethodPost, "/support/queries", `{"subject":"Refund","message":"Charged twice","priority":"HIGH"}`, candidate())

	NewSupportHandler(mock).Submit(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, models.SupportPriorityHigh, mock.lastReq.Priority)

	c, w = newContext(http.MethodPost, "/support/queries", `[]`, candidate())
	NewSupportHandler(mock).Submit(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSupportHandlerListFilters(t *testing.T) {
	mock := &supportServiceMock{}
	c, w := newContext(http.MethodGet, "/support/queries?priority=escalated&resolved=false", "", consultant())

	NewSupportHandler(mock).List(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.SupportPriorityEscalated, mock.lastFilter.Priority)
	require.NotNil(t, mock.lastFilter.Resolved)
	assert.False(t, *mock.lastFilter.Resolved)

	c, w = newContext(http.MethodGet, "/support/queries?resolved=maybe", "", consultant())
	NewSupportHandler(mock).List(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	c, w = newContext(http.MethodGet, "/me/support/queries", "", candidate())
	NewSupportHandler(mock).Mine(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "cand-1", mock.lastFilter.UserID)
	assert.Nil(t, mock.lastFilter.Resolved)
}

func TestSupportHandlerReplyAndEscalate(t *testing.T) {
	mock := &supportServiceMock{}
	c, w := newContext(http.MethodPost, "/support/queries/q-1/reply", `{"reply":"Refund issued."}`, consultant())
	c.Params = gin.Params{{Key: "id", Value: "q-1"}}
	NewSupportHandler(mock).Reply(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Refund issued.", mock.reply)
	assert.Contains(t, string(decode(t, w).Data), `"resolved":true`)

	c, w = newContext(http.MethodPost, "/support/queries/q-1/escalate", "", consultant())
	c.Params = gin.Params{{Key: "id", Value: "q-1"}}
	NewSupportHandler(mock).Escalate(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(decode(t, w).Data), `"priority":"ESCALATED"`)

	mock.err = appErrors.ErrPreconditionFailed
	c, w = newContext(http.MethodPost, "/support/queries/q-2/escalate", "", consultant())
	NewSupportHandler(mock).Escalate(c)
	assert.Equal(t, http.StatusPreconditionFailed, w.Code)
}
