package models

import "time"

// Job is a listing candidates can apply to.
type Job struct {
	ID             string    `db:"id" json:"id"`
	Title          string    `db:"title" json:"title"`
	Company        string    `db:"company" json:"company"`
	Location       string    `db:"location" json:"location"`
	IsExclusive    bool      `db:"is_exclusive" json:"is_exclusive"`
	RecruiterEmail *string   `db:"recruiter_email" json:"recruiter_email,omitempty"`
	Active         bool      `db:"active" json:"active"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// JobListing is a job as seen by one candidate.
type JobListing struct {
	Job
	Saved   bool `db:"saved" json:"saved"`
	Applied bool `db:"applied" json:"applied"`
}

// JobFilter narrows job searches. Search matches title, company and location.
// Staff viewers see exclusive jobs regardless of tier.
type JobFilter struct {
	ViewerID         string
	Staff            bool
	Search           string
	Location         string
	IncludeExclusive bool
	SavedOnly        bool
	Page             int
	PageSize         int
}

// JobApplication records a candidate applying to a job.
type JobApplication struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	JobID     *string   `db:"job_id" json:"job_id,omitempty"`
	Status    string    `db:"status" json:"status"`
	AppliedAt time.Time `db:"applied_at" json:"applied_at"`
}

// Application statuses, in the order a recruiter usually moves through them.
const (
	ApplicationStatusApplied  = "APPLIED"
	ApplicationStatusViewed   = "VIEWED"
	ApplicationStatusWaiting  = "WAITING"
	ApplicationStatusRejected = "REJECTED"
	ApplicationStatusHired    = "HIRED"
)

// ValidApplicationStatus reports whether status is a known application status.
func ValidApplicationStatus(status string) bool {
	switch status {
	case ApplicationStatusApplied, ApplicationStatusViewed, ApplicationStatusWaiting,
		ApplicationStatusRejected, ApplicationStatusHired:
		return true
	}
	return false
}

// ApplicationView joins an application with its job and candidate.
type ApplicationView struct {
	JobApplication
	JobTitle       *string `db:"job_title" json:"job_title,omitempty"`
	Company        *string `db:"company" json:"company,omitempty"`
	CandidateName  string  `db:"candidate_name" json:"candidate_name"`
	CandidateEmail string  `db:"candidate_email" json:"candidate_email"`
}

// ApplicationFilter narrows application listings.
type ApplicationFilter struct {
	UserID   string
	Status   string
	Page     int
	PageSize int
}

// UpdateApplicationStatusRequest moves an application along the recruiter pipeline.
type UpdateApplicationStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=APPLIED VIEWED WAITING REJECTED HIRED"`
}
