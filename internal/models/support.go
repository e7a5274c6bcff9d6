package models

import "time"

// SupportPriority ranks a support query.
type SupportPriority string

const (
	SupportPriorityLow       SupportPriority = "LOW"
	SupportPriorityMedium    SupportPriority = "MEDIUM"
	SupportPriorityHigh      SupportPriority = "HIGH"
	SupportPriorityEscalated SupportPriority = "ESCALATED"
)

// SupportQuery is a question a user sent to staff.
type SupportQuery struct {
	ID        string          `db:"id" json:"id"`
	UserID    string          `db:"user_id" json:"user_id"`
	Subject   string          `db:"subject" json:"subject"`
	Message   string          `db:"message" json:"message"`
	Priority  SupportPriority `db:"priority" json:"priority"`
	Resolved  bool            `db:"resolved" json:"resolved"`
	Reply     *string         `db:"reply" json:"reply,omitempty"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt time.Time       `db:"updated_at" json:"updated_at"`
}

// SupportQueryFilter narrows the staff queue.
type SupportQueryFilter struct {
	UserID   string
	Priority SupportPriority
	Resolved *bool
	Page     int
	PageSize int
}

// CreateSupportQueryRequest is the payload of a new support query.
type CreateSupportQueryRequest struct {
	Subject  string          `json:"subject" validate:"required,max=200"`
	Message  string          `json:"message" validate:"required"`
	Priority SupportPriority `json:"priority" validate:"omitempty,oneof=LOW MEDIUM HIGH"`
}

// ReplySupportQueryRequest carries the staff answer.
type ReplySupportQueryRequest struct {
	Reply string `json:"reply" validate:"required"`
}
