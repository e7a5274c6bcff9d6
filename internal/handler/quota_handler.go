package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/career-services-api/internal/models"
	appErrors "github.com/noah-isme/career-services-api/pkg/errors"
	"github.com/noah-isme/career-services-api/pkg/response"
)

type quotaService interface {
	Usage(ctx context.Context, userID string) (*models.QuotaSummary, error)
	Consume(ctx context.Context, userID string, feature models.Feature, amount float64) error
}

// QuotaHandler exposes feature usage.
type QuotaHandler struct {
	service quotaService
}

// NewQuotaHandler constructs the handler.
func NewQuotaHandler(svc quotaService) *QuotaHandler {
	return &QuotaHandler{service: svc}
}

// Mine godoc
// @Summary Current usage
// @Description Usage and limits of every metered feature for the caller
// @Tags Quota
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /me/quota [get]
func (h *QuotaHandler) Mine(c *gin.Context) {
	claims, ok := currentClaims(c)
	if !ok {
		return
	}
	h.respondUsage(c, claims.UserID)
}

// ForUser godoc
// @Summary Usage of a user
// @Tags Quota
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /users/{id}/quota [get]
func (h *QuotaHandler) ForUser(c *gin.Context) {
	h.respondUsage(c, c.Param("id"))
}

// Consume godoc
// @Summary Meter feature usage
// @Description Consumes units of a metered feature. Amount defaults to 1; fractional amounts are only valid for consultant_hours.
// @Tags Quota
// @Accept json
// @Produce json
// @Param feature path string true "Feature"
// @Param payload body models.ConsumeRequest false "Amount"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 429 {object} response.Envelope
// @Router /me/usage/{feature} [post]
func (h *QuotaHandler) Consume(c *gin.Context) {
	claims, ok := currentClaims(c)
	if !ok {
		return
	}
	feature := models.Feature(c.Param("feature"))
	if !feature.Valid() {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unknown feature"))
		return
	}
	var req models.ConsumeRequest
	if !bindOptionalJSON(c, &req, "invalid usage payload") {
		return
	}
	if err := h.service.Consume(c.Request.Context(), claims.UserID, feature, req.Amount); err != nil {
		response.Error(c, err)
		return
	}
	h.respondUsage(c, claims.UserID)
}

func (h *QuotaHandler) respondUsage(c *gin.Context, userID string) {
	summary, err := h.service.Usage(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, summary)
}
