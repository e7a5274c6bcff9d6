package models

import "time"

// CalendarEvent mirrors an appointment on the candidate's calendar.
type CalendarEvent struct {
	ID            string    `db:"id" json:"id"`
	UserID        string    `db:"user_id" json:"user_id"`
	AppointmentID string    `db:"appointment_id" json:"appointment_id"`
	Title         string    `db:"title" json:"title"`
	StartsAt      time.Time `db:"starts_at" json:"starts_at"`
	EndsAt        time.Time `db:"ends_at" json:"ends_at"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}
