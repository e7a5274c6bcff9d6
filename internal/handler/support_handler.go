package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/career-services-api/internal/models"
	appErrors "github.com/noah-isme/career-services-api/pkg/errors"
	"github.com/noah-isme/career-services-api/pkg/response"
)

type supportService interface {
	Submit(ctx context.Context, userID string, req models.CreateSupportQueryRequest) (*models.SupportQuery, error)
	Mine(ctx context.Context, userID string, page, size int) ([]models.SupportQuery, *models.Pagination, error)
	List(ctx context.Context, filter models.SupportQueryFilter) ([]models.SupportQuery, *models.Pagination, error)
	Reply(ctx context.Context, id string, req models.ReplySupportQueryRequest, actorID string) (*models.SupportQuery, error)
	Escalate(ctx context.Context, id string) (*models.SupportQuery, error)
}

// SupportHandler exposes support queries.
type SupportHandler struct {
	service supportService
}

// NewSupportHandler constructs the handler.
func NewSupportHandler(svc supportService) *SupportHandler {
	return &SupportHandler{service: svc}
}

// Submit godoc
// @Summary Send a question to staff
// @Tags Support
// @Accept json
// @Produce json
// @Param payload body models.CreateSupportQueryRequest true "Query"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /support/queries [post]
func (h *SupportHandler) Submit(c *gin.Context) {
	claims, ok := currentClaims(c)
	if !ok {
		return
	}
	var req models.CreateSupportQueryRequest
	if !bindJSON(c, &req, "invalid support query") {
		return
	}
	query, err := h.service.Submit(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, query)
}

// Mine godoc
// @Summary List my support queries
// @Tags Support
// @Produce json
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /me/support/queries [get]
func (h *SupportHandler) Mine(c *gin.Context) {
	claims, ok := currentClaims(c)
	if !ok {
		return
	}
	items, pagination, err := h.service.Mine(c.Request.Context(), claims.UserID, intQuery(c, "page", 1), intQuery(c, "page_size", 20))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// List godoc
// @Summary List the support queue
// @Tags Support
// @Produce json
// @Param priority query string false "LOW, MEDIUM, HIGH or ESCALATED"
// @Param resolved query bool false "Resolved state"
// @Param user_id query string false "Author"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /support/queries [get]
func (h *SupportHandler) List(c *gin.Context) {
	filter := models.SupportQueryFilter{
		UserID:   c.Query("user_id"),
		Priority: models.SupportPriority(strings.ToUpper(strings.TrimSpace(c.Query("priority")))),
		Page:     intQuery(c, "page", 1),
		PageSize: intQuery(c, "page_size", 20),
	}
	if raw := c.Query("resolved"); raw != "" {
		resolved, err := strconv.ParseBool(raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "resolved must be true or false"))
			return
		}
		filter.Resolved = &resolved
	}
	items, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Reply godoc
// @Summary Answer and resolve a support query
// @Tags Support
// @Accept json
// @Produce json
// @Param id path string true "Query ID"
// @Param payload body models.ReplySupportQueryRequest true "Reply"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /support/queries/{id}/reply [post]
func (h *SupportHandler) Reply(c *gin.Context) {
	claims, ok := currentClaims(c)
	if !ok {
		return
	}
	var req models.ReplySupportQueryRequest
	if !bindJSON(c, &req, "invalid reply") {
		return
	}
	query, err := h.service.Reply(c.Request.Context(), c.Param("id"), req, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, query)
}

// Escalate godoc
// @Summary Escalate an open support query
// @Tags Support
// @Produce json
// @Param id path string true "Query ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /support/queries/{id}/escalate [post]
func (h *SupportHandler) Escalate(c *gin.Context) {
	query, err := h.service.Escalate(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, query)
}
