package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/career-services-api/internal/models"
	"github.com/noah-isme/career-services-api/pkg/response"
)

type applicationService interface {
	Apply(ctx context.Context, userID, jobID string) (*models.JobApplication, error)
	Mine(ctx context.Context, userID string, page, size int) ([]models.ApplicationView, *models.Pagination, error)
	List(ctx context.Context, filter models.ApplicationFilter) ([]models.ApplicationView, *models.Pagination, error)
	UpdateStatus(ctx context.Context, id string, req models.UpdateApplicationStatusRequest, actorID string) (*models.ApplicationView, error)
}

// ApplicationHandler handles job applications and their recruiter status.
type ApplicationHandler struct {
	service applicationService
}

// NewApplicationHandler constructs the handler.
func NewApplicationHandler(svc applicationService) *ApplicationHandler {
	return &ApplicationHandler{service: svc}
}

// Apply godoc
// @Summary Apply to a job
// @Tags Jobs
// @Produce json
// @Param id path string true "Job ID"
// @Success 201 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 429 {object} response.Envelope
// @Router /jobs/{id}/apply [post]
func (h *ApplicationHandler) Apply(c *gin.Context) {
	claims, ok := currentClaims(c)
	if !ok {
		return
	}
	app, err := h.service.Apply(c.Request.Context(), claims.UserID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, app)
}

// Mine godoc
// @Summary List my applications
// @Tags Jobs
// @Produce json
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /me/applications [get]
func (h *ApplicationHandler) Mine(c *gin.Context) {
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
// @Summary List applications across candidates
// @Tags Jobs
// @Produce json
// @Param status query string false "APPLIED, VIEWED, WAITING, REJECTED or HIRED"
// @Param user_id query string false "Candidate"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /applications [get]
func (h *ApplicationHandler) List(c *gin.Context) {
	filter := models.ApplicationFilter{
		UserID:   c.Query("user_id"),
		Status:   strings.ToUpper(strings.TrimSpace(c.Query("status"))),
		Page:     intQuery(c, "page", 1),
		PageSize: intQuery(c, "page_size", 20),
	}
	items, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// UpdateStatus godoc
// @Summary Move an application to a new status
// @Tags Jobs
// @Accept json
// @Produce json
// @Param id path string true "Application ID"
// @Param payload body models.UpdateApplicationStatusRequest true "Status"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /applications/{id}/status [put]
func (h *ApplicationHandler) UpdateStatus(c *gin.Context) {
	claims, ok := currentClaims(c)
	if !ok {
		return
	}
	var req models.UpdateApplicationStatusRequest
	if !bindJSON(c, &req, "invalid status payload") {
		return
	}
	app, err := h.service.UpdateStatus(c.Request.Context(), c.Param("id"), req, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, app)
}
