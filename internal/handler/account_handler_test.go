package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/career-services-api/internal/models"
	"github.com/noah-isme/career-services-api/internal/service"
	appErrors "github.com/noah-isme/career-services-api/pkg/errors"
)

type authServiceMock struct {
	err error
}

func (m *authServiceMock) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &models.LoginResponse{AccessToken: "token", User: models.UserInfo{Username: req.Username}}, nil
}

func TestAuthHandlerLogin(t *testing.T) {
	c, w := newContext(http.MethodPost, "/auth/login", `{"username":"staff","password":"secret"}`, nil)
	NewAuthHandler(&authServiceMock{}).Login(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(decode(t, w).Data), `"access_token":"token"`)
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))

	c, w = newContext(http.MethodPost, "/auth/login", `{"username":"staff","password":"bad"}`, nil)
	NewAuthHandler(&authServiceMock{err: appErrors.ErrUnauthorized}).Login(c)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

type subscriptionServiceMock struct {
	checkoutReq models.CheckoutRequest
	err         error
}

func (m *subscriptionServiceMock) Checkout(ctx context.Context, userID string, req models.CheckoutRequest) (*models.CheckoutResponse, error) {
	m.checkoutReq = req
	return &models.CheckoutResponse{OrderID: "order_1", Plan: req.Plan}, m.err
}

func (m *subscriptionServiceMock) ConfirmPayment(ctx context.Context, userID string, req models.ConfirmPaymentRequest) (*models.ConfirmPaymentResponse, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &models.ConfirmPaymentResponse{Subscription: models.Subscription{UserID: userID, Tier: models.TierPro}}, nil
}

func TestSubscriptionHandlerCheckoutAndConfirm(t *testing.T) {
	mock := &subscriptionServiceMock{}
	handler := NewSubscriptionHandler(mock)

	c, w := newContext(http.MethodPost, "/subscriptions/checkout", `{"plan":"pro_monthly"}`, candidate())
	handler.Checkout(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, models.PlanProMonthly, mock.checkoutReq.Plan)

	c, w = newContext(http.MethodPost, "/subscriptions/confirm", `{"order_id":"order_1","payment_id":"pay_1","signature":"abc"}`, candidate())
	handler.Confirm(c)
	require.Equal(t, http.StatusOK, w.Code)

	mock.err = appErrors.Clone(appErrors.ErrPreconditionFailed, "no pending checkout for this account")
	c, w = newContext(http.MethodPost, "/subscriptions/confirm", `{"order_id":"order_1","payment_id":"pay_1","signature":"abc"}`, candidate())
	handler.Confirm(c)
	assert.Equal(t, http.StatusPreconditionFailed, w.Code)
}

type notificationServiceMock struct {
	items  []models.Notification
	read   []string
	unread int
}

func (m *notificationServiceMock) List(ctx context.Context, userID string, limit int) ([]models.Notification, error) {
	return m.items, nil
}

func (m *notificationServiceMock) MarkRead(ctx context.Context, userID, id string) error {
	if id == "missing" {
		return appErrors.ErrNotFound
	}
	m.read = append(m.read, userID+"/"+id)
	return nil
}

func (m *notificationServiceMock) UnreadCount(ctx context.Context, userID string) (int, error) {
	return m.unread, nil
}

func TestNotificationHandler(t *testing.T) {
	mock := &notificationServiceMock{items: []models.Notification{{ID: "n1", Message: "hi"}}, unread: 1}
	handler := NewNotificationHandler(mock)

	c, w := newContext(http.MethodGet, "/notifications", "", candidate())
	handler.List(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decode(t, w).Meta["unread"])

	c, _ = newContext(http.MethodPost, "/notifications/n1/read", "", candidate())
	c.Params = gin.Params{{Key: "id", Value: "n1"}}
	handler.MarkRead(c)
	assert.Equal(t, http.StatusNoContent, c.Writer.Status())
	assert.Equal(t, []string{"cand-1/n1"}, mock.read)

	c, w = newContext(http.MethodPost, "/notifications/missing/read", "", candidate())
	c.Params = gin.Params{{Key: "id", Value: "missing"}}
	handler.MarkRead(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

type traineeServiceMock struct {
	created []models.CreateTraineeRequest
	planErr error
}

func (m *traineeServiceMock) Create(ctx context.Context, req models.CreateTraineeRequest) (*models.Trainee, error) {
	m.created = append(m.created, req)
	return &models.Trainee{UserID: "t1", Username: req.Username, Plan: req.Plan}, nil
}

func (m *traineeServiceMock) UpdatePlan(ctx context.Context, userID string, req models.UpdateTraineePlanRequest) error {
	return m.planErr
}

func (m *traineeServiceMock) List(ctx context.Context) ([]models.Trainee, error) {
	return []models.Trainee{{UserID: "t1"}}, nil
}

type badgeServiceMock struct{}

func (badgeServiceMock) Award(ctx context.Context, userID string) (*models.AwardResult, error) {
	return &models.AwardResult{UserID: userID, Awarded: []string{"Go Getter"}}, nil
}

func TestAdminHandler(t *testing.T) {
	trainees := &traineeServiceMock{}
	handler := NewAdminHandler(trainees, badgeServiceMock{})
	admin := &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin}

	c, w := newContext(http.MethodPost, "/admin/trainees", `{"username":"cohort01","email":"c@example.com","full_name":"C","password":"supersecret","plan":"pro"}`, admin)
	handler.CreateTrainee(c)
	require.Equal(t, http.StatusCreated, w.Code)
	require.Len(t, trainees.created, 1)
	assert.Equal(t, models.TraineePlanPro, trainees.created[0].Plan)

	c, w = newContext(http.MethodGet, "/admin/trainees", "", admin)
	handler.ListTrainees(c)
	require.Equal(t, http.StatusOK, w.Code)

	trainees.planErr = appErrors.Clone(appErrors.ErrNotFound, "trainee not found")
	c, w = newContext(http.MethodPut, "/admin/trainees/x/plan", `{"plan":"proplus"}`, admin)
	c.Params = gin.Params{{Key: "id", Value: "x"}}
	handler.UpdateTraineePlan(c)
	assert.Equal(t, http.StatusNotFound, w.Code)

	c, w = newContext(http.MethodPost, "/admin/badges/award/u1", "", admin)
	c.Params = gin.Params{{Key: "userId", Value: "u1"}}
	handler.AwardBadges(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(decode(t, w).Data), "Go Getter")
}

func TestMetricsHandlerReady(t *testing.T) {
	healthy := NewMetricsHandler(service.NewMetricsService(), ReadinessCheck{Name: "postgres", Check: func(context.Context) error { return nil }})
	c, w := newContext(http.MethodGet, "/ready", "", nil)
	healthy.Ready(c)
	assert.Equal(t, http.StatusOK, w.Code)

	failing := NewMetricsHandler(nil,
		ReadinessCheck{Name: "postgres", Check: func(context.Context) error { return nil }},
		ReadinessCheck{Name: "redis", Check: func(context.Context) error { return errors.New("connection refused") }},
	)
	c, w = newContext(http.MethodGet, "/ready", "", nil)
	failing.Ready(c)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "connection refused")

	c, w = newContext(http.MethodGet, "/metrics", "", nil)
	failing.Prometheus(c)
	assert.Equal(t, http.StatusServiceUnavailable, c.Writer.Status())

	c, w = newContext(http.MethodGet, "/metrics", "", nil)
	healthy.Prometheus(c)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "goroutines_total")
}
