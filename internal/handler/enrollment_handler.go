package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/career-services-api/internal/models"
	appErrors "github.com/noah-isme/career-services-api/pkg/errors"
	"github.com/noah-isme/career-services-api/pkg/response"
)

type progressService interface {
	Enroll(ctx context.Context, userID, courseID string) (*models.EnrollmentView, error)
	Get(ctx context.Context, enrollmentID string) (*models.EnrollmentView, error)
	UpdateProgress(ctx context.Context, enrollmentID string, req models.UpdateProgressRequest) (*models.EnrollmentView, error)
}

// EnrollmentHandler exposes course enrollment and progress.
type EnrollmentHandler struct {
	service progressService
}

// NewEnrollmentHandler constructs the handler.
func NewEnrollmentHandler(svc progressService) *EnrollmentHandler {
	return &EnrollmentHandler{service: svc}
}

// Enroll godoc
// @Summary Enroll in a course
// @Tags Courses
// @Produce json
// @Param id path string true "Course ID"
// @Success 201 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 429 {object} response.Envelope
// @Router /courses/{id}/enroll [post]
func (h *EnrollmentHandler) Enroll(c *gin.Context) {
	claims, ok := currentClaims(c)
	if !ok {
		return
	}
	view, err := h.service.Enroll(c.Request.Context(), claims.UserID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, view)
}

// Get godoc
// @Summary Enrollment progress
// @Description Candidates can only read their own enrollments.
// @Tags Courses
// @Produce json
// @Param id path string true "Enrollment ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /enrollments/{id} [get]
func (h *EnrollmentHandler) Get(c *gin.Context) {
	claims, ok := currentClaims(c)
	if !ok {
		return
	}
	view, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if !claims.Role.IsStaff() && view.UserID != claims.UserID {
		response.Error(c, appErrors.ErrForbidden)
		return
	}
	response.OK(c, view)
}

// UpdateProgress godoc
// @Summary Update step progress
// @Description Applies step status changes and advances the stage once every step is completed.
// @Tags Courses
// @Accept json
// @Produce json
// @Param id path string true "Enrollment ID"
// @Param payload body models.UpdateProgressRequest true "Step updates"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /enrollments/{id}/progress [put]
func (h *EnrollmentHandler) UpdateProgress(c *gin.Context) {
	var req models.UpdateProgressRequest
	if !bindJSON(c, &req, "invalid progress payload") {
		return
	}
	view, err := h.service.UpdateProgress(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, view)
}
