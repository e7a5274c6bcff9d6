package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/career-services-api/internal/models"
	"github.com/noah-isme/career-services-api/pkg/response"
)

type appointmentService interface {
	Create(ctx context.Context, req models.CreateAppointmentRequest, actorID string) (*models.Appointment, error)
	ScheduleMock(ctx context.Context, userID string, req models.ScheduleMockRequest) (*models.Appointment, error)
	Postpone(ctx context.Context, id string, req models.PostponeAppointmentRequest, actorID string) (*models.Appointment, error)
	MarkDone(ctx context.Context, id string, req models.MarkDoneRequest, actorID string) (*models.Appointment, error)
	MarkSLAComplied(ctx context.Context, id string) error
	List(ctx context.Context, filter models.AppointmentFilter) ([]models.AppointmentDetail, *models.Pagination, error)
}

// AppointmentHandler exposes the appointment lifecycle.
type AppointmentHandler struct {
	service appointmentService
}

// NewAppointmentHandler constructs the handler.
func NewAppointmentHandler(svc appointmentService) *AppointmentHandler {
	return &AppointmentHandler{service: svc}
}

// List godoc
// @Summary List appointments
// @Tags Appointments
// @Produce json
// @Param type query string false "INTERVIEW or ONE_ON_ONE"
// @Param status query string false "SCHEDULED, POSTPONED or DONE"
// @Param consultant_id query string false "Consultant"
// @Param from query string false "Scheduled at or after"
// @Param to query string false "Scheduled before"
// @Param q query string false "Candidate name or email"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /appointments [get]
func (h *AppointmentHandler) List(c *gin.Context) {
	from, ok := timeQuery(c, "from")
	if !ok {
		return
	}
	to, ok := timeQuery(c, "to")
	if !ok {
		return
	}
	filter := models.AppointmentFilter{
		Type:         models.AppointmentType(strings.ToUpper(c.Query("type"))),
		Status:       models.AppointmentStatus(strings.ToUpper(c.Query("status"))),
		ConsultantID: c.Query("consultant_id"),
		From:         from,
		To:           to,
		Search:       strings.TrimSpace(c.Query("q")),
		Page:         intQuery(c, "page", 1),
		PageSize:     intQuery(c, "page_size", 20),
	}
	items, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// CreateInterview godoc
// @Summary Book an interview for a candidate
// @Tags Appointments
// @Accept json
// @Produce json
// @Param payload body models.CreateAppointmentRequest true "Appointment"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /appointments/interview [post]
func (h *AppointmentHandler) CreateInterview(c *gin.Context) {
	h.create(c, models.AppointmentInterview)
}

// CreateOneOnOne godoc
// @Summary Book a one-on-one session for a candidate
// @Tags Appointments
// @Accept json
// @Produce json
// @Param payload body models.CreateAppointmentRequest true "Appointment"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /appointments/one-on-one [post]
func (h *AppointmentHandler) CreateOneOnOne(c *gin.Context) {
	h.create(c, models.AppointmentOneOnOne)
}

func (h *AppointmentHandler) create(c *gin.Context, kind models.AppointmentType) {
	claims, ok := currentClaims(c)
	if !ok {
		return
	}
	var req models.CreateAppointmentRequest
	if !bindJSON(c, &req, "invalid appointment payload") {
		return
	}
	req.Type = kind
	appt, err := h.service.Create(c.Request.Context(), req, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, appt)
}

// ScheduleMock godoc
// @Summary Book a mock interview
// @Description Pro Plus members book their own mock interviews against the monthly allowance.
// @Tags Appointments
// @Accept json
// @Produce json
// @Param payload body models.ScheduleMockRequest true "Mock interview"
// @Success 201 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 429 {object} response.Envelope
// @Router /appointments/mock [post]
func (h *AppointmentHandler) ScheduleMock(c *gin.Context) {
	claims, ok := currentClaims(c)
	if !ok {
		return
	}
	var req models.ScheduleMockRequest
	if !bindJSON(c, &req, "invalid mock interview payload") {
		return
	}
	appt, err := h.service.ScheduleMock(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, appt)
}

// Postpone godoc
// @Summary Move an appointment
// @Tags Appointments
// @Accept json
// @Produce json
// @Param id path string true "Appointment ID"
// @Param payload body models.PostponeAppointmentRequest true "New time"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /appointments/{id}/postpone [post]
func (h *AppointmentHandler) Postpone(c *gin.Context) {
	claims, ok := currentClaims(c)
	if !ok {
		return
	}
	var req models.PostponeAppointmentRequest
	if !bindJSON(c, &req, "invalid postpone payload") {
		return
	}
	appt, err := h.service.Postpone(c.Request.Context(), c.Param("id"), req, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, appt)
}

// Done godoc
// @Summary Complete an appointment
// @Tags Appointments
// @Accept json
// @Produce json
// @Param id path string true "Appointment ID"
// @Param payload body models.MarkDoneRequest false "Feedback"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /appointments/{id}/done [post]
func (h *AppointmentHandler) Done(c *gin.Context) {
	claims, ok := currentClaims(c)
	if !ok {
		return
	}
	var req models.MarkDoneRequest
	if !bindOptionalJSON(c, &req, "invalid feedback payload") {
		return
	}
	appt, err := h.service.MarkDone(c.Request.Context(), c.Param("id"), req, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, appt)
}

// SLAComplied godoc
// @Summary Mark the SLA of an appointment as met
// @Tags Appointments
// @Param id path string true "Appointment ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /appointments/{id}/sla-complied [post]
func (h *AppointmentHandler) SLAComplied(c *gin.Context) {
	if err := h.service.MarkSLAComplied(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
