package models

import "time"

// AppointmentType distinguishes interviews from consulting sessions.
type AppointmentType string

const (
	AppointmentInterview AppointmentType = "INTERVIEW"
	AppointmentOneOnOne  AppointmentType = "ONE_ON_ONE"
)

// AppointmentStatus is the lifecycle state of an appointment.
type AppointmentStatus string

const (
	AppointmentScheduled AppointmentStatus = "SCHEDULED"
	AppointmentDone      AppointmentStatus = "DONE"
	AppointmentPostponed AppointmentStatus = "POSTPONED"
)

// CanTransitionTo reports whether moving from s to next is allowed.
// DONE is terminal; POSTPONED may be postponed again.
func (s AppointmentStatus) CanTransitionTo(next AppointmentStatus) bool {
	switch s {
	case AppointmentScheduled, AppointmentPostponed:
		return next == AppointmentDone || next == AppointmentPostponed
	default:
		return false
	}
}

// Appointment links a candidate application to a scheduled session.
type Appointment struct {
	ID              string            `db:"id" json:"id"`
	ApplicationID   string            `db:"application_id" json:"application_id"`
	CandidateID     string            `db:"candidate_id" json:"candidate_id"`
	ConsultantID    *string           `db:"consultant_id" json:"consultant_id,omitempty"`
	Type            AppointmentType   `db:"appointment_type" json:"type"`
	Status          AppointmentStatus `db:"status" json:"status"`
	ScheduledAt     time.Time         `db:"scheduled_at" json:"scheduled_at"`
	SLADue          *time.Time        `db:"sla_due" json:"sla_due,omitempty"`
	SLAComplied     bool              `db:"sla_complied" json:"sla_complied"`
	IsMockInterview bool              `db:"is_mock_interview" json:"is_mock_interview"`
	VideoLink       *string           `db:"video_link" json:"video_link,omitempty"`
	Notes           string            `db:"notes" json:"notes"`
	// SlotDate is the day whose capacity this appointment holds, nil when it holds none.
	SlotDate *time.Time `db:"slot_date" json:"-"`
	// MockUnitHeld is set while a mock interview still counts against the monthly allowance.
	MockUnitHeld bool      `db:"mock_unit_held" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// Reschedule is the new state written by a postponement.
type Reschedule struct {
	ScheduledAt  time.Time
	SLADue       *time.Time
	SlotDate     *time.Time
	MockUnitHeld bool
	Notes        string
}

// AppointmentDetail adds display names for listings and alerts.
type AppointmentDetail struct {
	Appointment
	CandidateName   string  `db:"candidate_name" json:"candidate_name"`
	CandidateEmail  string  `db:"candidate_email" json:"candidate_email"`
	ConsultantName  *string `db:"consultant_name" json:"consultant_name,omitempty"`
	ConsultantEmail *string `db:"consultant_email" json:"consultant_email,omitempty"`
}

// AppointmentFilter narrows appointment listings.
type AppointmentFilter struct {
	Type         AppointmentType
	Status       AppointmentStatus
	ConsultantID string
	From         *time.Time
	To           *time.Time
	Search       string
	Page         int
	PageSize     int
}

// CreateAppointmentRequest is submitted by staff to book a session for a candidate.
type CreateAppointmentRequest struct {
	CandidateID  string          `json:"candidate_id" validate:"required"`
	ConsultantID *string         `json:"consultant_id"`
	ScheduledAt  time.Time       `json:"scheduled_at" validate:"required"`
	Notes        string          `json:"notes" validate:"max=2000"`
	Type         AppointmentType `json:"-"`
}

// ScheduleMockRequest is submitted by a candidate booking a mock interview.
type ScheduleMockRequest struct {
	ScheduledAt time.Time `json:"scheduled_at" validate:"required"`
	Notes       string    `json:"notes" validate:"max=2000"`
}

// PostponeAppointmentRequest moves an appointment to a new time.
type PostponeAppointmentRequest struct {
	ScheduledAt time.Time `json:"scheduled_at" validate:"required"`
	Notes       *string   `json:"notes" validate:"omitempty,max=2000"`
}

// MarkDoneRequest closes an appointment with optional feedback.
type MarkDoneRequest struct {
	Feedback string `json:"feedback" validate:"max=4000"`
}
