package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/career-services-api/internal/models"
	"github.com/noah-isme/career-services-api/pkg/response"
)

type catalogService interface {
	ListJobs(ctx context.Context, filter models.JobFilter) ([]models.JobListing, *models.Pagination, error)
	SavedJobs(ctx context.Context, viewerID string, page, size int) ([]models.JobListing, *models.Pagination, error)
	GetJob(ctx context.Context, viewerID string, staff bool, jobID string) (*models.JobListing, error)
	SaveJob(ctx context.Context, viewerID, jobID string) error
	UnsaveJob(ctx context.Context, viewerID, jobID string) error
	ListCourses(ctx context.Context) ([]models.Course, error)
	GetCourse(ctx context.Context, id string) (*models.CourseDetail, error)
}

// CatalogHandler serves the job board and course catalogue.
type CatalogHandler struct {
	service catalogService
}

// NewCatalogHandler constructs the handler.
func NewCatalogHandler(svc catalogService) *CatalogHandler {
	return &CatalogHandler{service: svc}
}

// ListJobs godoc
// @Summary Search active jobs
// @Tags Jobs
// @Produce json
// @Param q query string false "Title, company or location"
// @Param location query string false "Location"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /jobs [get]
func (h *CatalogHandler) ListJobs(c *gin.Context) {
	claims, ok := currentClaims(c)
	if !ok {
		return
	}
	filter := models.JobFilter{
		ViewerID: claims.UserID,
		Staff:    claims.Role.IsStaff(),
		Search:   strings.TrimSpace(c.Query("q")),
		Location: strings.TrimSpace(c.Query("location")),
		Page:     intQuery(c, "page", 1),
		PageSize: intQuery(c, "page_size", 20),
	}
	items, pagination, err := h.service.ListJobs(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// GetJob godoc
// @Summary Get a job
// @Tags Jobs
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /jobs/{id} [get]
func (h *CatalogHandler) GetJob(c *gin.Context) {
	claims, ok := currentClaims(c)
	if !ok {
		return
	}
	job, err := h.service.GetJob(c.Request.Context(), claims.UserID, claims.Role.IsStaff(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, job)
}

// SaveJob godoc
// @Summary Bookmark a job
// @Tags Jobs
// @Param id path string true "Job ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /jobs/{id}/save [put]
func (h *CatalogHandler) SaveJob(c *gin.Context) {
	claims, ok := currentClaims(c)
	if !ok {
		return
	}
	if err := h.service.SaveJob(c.Request.Context(), claims.UserID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// UnsaveJob godoc
// @Summary Remove a bookmark
// @Tags Jobs
// @Param id path string true "Job ID"
// @Success 204
// @Router /jobs/{id}/save [delete]
func (h *CatalogHandler) UnsaveJob(c *gin.Context) {
	claims, ok := currentClaims(c)
	if !ok {
		return
	}
	if err := h.service.UnsaveJob(c.Request.Context(), claims.UserID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// SavedJobs godoc
// @Summary List my saved jobs
// @Tags Jobs
// @Produce json
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /me/saved-jobs [get]
func (h *CatalogHandler) SavedJobs(c *gin.Context) {
	claims, ok := currentClaims(c)
	if !ok {
		return
	}
	items, pagination, err := h.service.SavedJobs(c.Request.Context(), claims.UserID, intQuery(c, "page", 1), intQuery(c, "page_size", 20))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// ListCourses godoc
// @Summary List open courses
// @Tags Courses
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /courses [get]
func (h *CatalogHandler) ListCourses(c *gin.Context) {
	courses, err := h.service.ListCourses(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, courses)
}

// GetCourse godoc
// @Summary Get a course with its steps
// @Tags Courses
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /courses/{id} [get]
func (h *CatalogHandler) GetCourse(c *gin.Context) {
	course, err := h.service.GetCourse(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, course)
}
