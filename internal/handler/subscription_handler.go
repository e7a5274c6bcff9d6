package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/career-services-api/internal/models"
	"github.com/noah-isme/career-services-api/pkg/response"
)

type subscriptionService interface {
	Checkout(ctx context.Context, userID string, req models.CheckoutRequest) (*models.CheckoutResponse, error)
	ConfirmPayment(ctx context.Context, userID string, req models.ConfirmPaymentRequest) (*models.ConfirmPaymentResponse, error)
}

// SubscriptionHandler sells plans.
type SubscriptionHandler struct {
	service subscriptionService
}

// NewSubscriptionHandler constructs the handler.
func NewSubscriptionHandler(svc subscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{service: svc}
}

// Checkout godoc
// @Summary Start a plan purchase
// @Tags Subscriptions
// @Accept json
// @Produce json
// @Param payload body models.CheckoutRequest true "Plan"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /subscriptions/checkout [post]
func (h *SubscriptionHandler) Checkout(c *gin.Context) {
	claims, ok := currentClaims(c)
	if !ok {
		return
	}
	var req models.CheckoutRequest
	if !bindJSON(c, &req, "invalid checkout payload") {
		return
	}
	res, err := h.service.Checkout(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, res)
}

// Confirm godoc
// @Summary Confirm a payment
// @Description Verifies the gateway signature and activates the purchased plan.
// @Tags Subscriptions
// @Accept json
// @Produce json
// @Param payload body models.ConfirmPaymentRequest true "Gateway callback"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /subscriptions/confirm [post]
func (h *SubscriptionHandler) Confirm(c *gin.Context) {
	claims, ok := currentClaims(c)
	if !ok {
		return
	}
	var req models.ConfirmPaymentRequest
	if !bindJSON(c, &req, "invalid payment confirmation") {
		return
	}
	res, err := h.service.ConfirmPayment(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, res)
}
