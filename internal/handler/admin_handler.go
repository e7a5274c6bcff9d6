package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/career-services-api/internal/models"
	"github.com/noah-isme/career-services-api/pkg/response"
)

type traineeService interface {
	Create(ctx context.Context, req models.CreateTraineeRequest) (*models.Trainee, error)
	UpdatePlan(ctx context.Context, userID string, req models.UpdateTraineePlanRequest) error
	List(ctx context.Context) ([]models.Trainee, error)
}

type badgeService interface {
	Award(ctx context.Context, userID string) (*models.AwardResult, error)
}

// AdminHandler groups back-office operations on trainees and badges.
type AdminHandler struct {
	trainees traineeService
	badges   badgeService
}

// NewAdminHandler constructs the handler.
func NewAdminHandler(trainees traineeService, badges badgeService) *AdminHandler {
	return &AdminHandler{trainees: trainees, badges: badges}
}

// CreateTrainee godoc
// @Summary Register a trainee
// @Tags Admin
// @Accept json
// @Produce json
// @Param payload body models.CreateTraineeRequest true "Trainee"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /admin/trainees [post]
func (h *AdminHandler) CreateTrainee(c *gin.Context) {
	var req models.CreateTraineeRequest
	if !bindJSON(c, &req, "invalid trainee payload") {
		return
	}
	trainee, err := h.trainees.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, trainee)
}

// ListTrainees godoc
// @Summary List trainees
// @Tags Admin
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/trainees [get]
func (h *AdminHandler) ListTrainees(c *gin.Context) {
	trainees, err := h.trainees.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, trainees)
}

// UpdateTraineePlan godoc
// @Summary Change the plan of a trainee
// @Tags Admin
// @Accept json
// @Param id path string true "User ID"
// @Param payload body models.UpdateTraineePlanRequest true "Plan"
// @Success 204
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/trainees/{id}/plan [put]
func (h *AdminHandler) UpdateTraineePlan(c *gin.Context) {
	var req models.UpdateTraineePlanRequest
	if !bindJSON(c, &req, "invalid trainee plan") {
		return
	}
	if err := h.trainees.UpdatePlan(c.Request.Context(), c.Param("id"), req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// AwardBadges godoc
// @Summary Evaluate badges for a user
// @Tags Admin
// @Produce json
// @Param userId path string true "User ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/badges/award/{userId} [post]
func (h *AdminHandler) AwardBadges(c *gin.Context) {
	result, err := h.badges.Award(c.Request.Context(), c.Param("userId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, result)
}
