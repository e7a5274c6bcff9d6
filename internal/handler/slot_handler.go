package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/career-services-api/internal/models"
	"github.com/noah-isme/career-services-api/pkg/response"
)

type slotService interface {
	GetOrCreate(ctx context.Context, date time.Time) (*models.InterviewSlot, error)
	SetCapacity(ctx context.Context, date time.Time, req models.SetSlotCapacityRequest) (*models.InterviewSlot, error)
}

// SlotHandler manages daily interview capacity.
type SlotHandler struct {
	service slotService
}

// NewSlotHandler constructs the handler.
func NewSlotHandler(svc slotService) *SlotHandler {
	return &SlotHandler{service: svc}
}

type slotView struct {
	*models.InterviewSlot
	Available   int  `json:"available"`
	CanSchedule bool `json:"can_schedule"`
}

func newSlotView(slot *models.InterviewSlot) slotView {
	return slotView{InterviewSlot: slot, Available: slot.Available(), CanSchedule: slot.CanSchedule()}
}

// Get godoc
// @Summary Slot capacity of a date
// @Tags Slots
// @Produce json
// @Param date path string true "Date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /slots/{date} [get]
func (h *SlotHandler) Get(c *gin.Context) {
	date, ok := dateParam(c, "date")
	if !ok {
		return
	}
	slot, err := h.service.GetOrCreate(c.Request.Context(), date)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, newSlotView(slot))
}

// SetCapacity godoc
// @Summary Change slot capacity of a date
// @Tags Slots
// @Accept json
// @Produce json
// @Param date path string true "Date (YYYY-MM-DD)"
// @Param payload body models.SetSlotCapacityRequest true "Capacity"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /slots/{date} [put]
func (h *SlotHandler) SetCapacity(c *gin.Context) {
	date, ok := dateParam(c, "date")
	if !ok {
		return
	}
	var req models.SetSlotCapacityRequest
	if !bindJSON(c, &req, "invalid capacity payload") {
		return
	}
	slot, err := h.service.SetCapacity(c.Request.Context(), date, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, newSlotView(slot))
}
