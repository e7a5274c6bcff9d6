package models

import "time"

// InterviewSlot is the per-date booking capacity.
type InterviewSlot struct {
	SlotDate  time.Time `db:"slot_date" json:"slot_date"`
	MaxSlots  int       `db:"max_slots" json:"max_slots"`
	UsedSlots int       `db:"used_slots" json:"used_slots"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// CanSchedule reports whether another booking fits.
func (s InterviewSlot) CanSchedule() bool {
	return s.UsedSlots < s.MaxSlots
}

// Available returns the remaining capacity.
func (s InterviewSlot) Available() int {
	if s.UsedSlots >= s.MaxSlots {
		return 0
	}
	return s.MaxSlots - s.UsedSlots
}

// SetSlotCapacityRequest changes the capacity of a date.
type SetSlotCapacityRequest struct {
	MaxSlots int `json:"max_slots" validate:"gte=0,lte=500"`
}
