package models

import "time"

// EnrollmentStage is a position in the course completion pipeline.
type EnrollmentStage string

const (
	StageEnrolled  EnrollmentStage = "ENROLLED"
	StageStarted   EnrollmentStage = "STARTED"
	StageExams     EnrollmentStage = "EXAMS"
	StageInterview EnrollmentStage = "INTERVIEW"
	StageCertified EnrollmentStage = "CERTIFIED"
)

// StageSequence is the fixed forward order of stages.
var StageSequence = []EnrollmentStage{StageEnrolled, StageStarted, StageExams, StageInterview, StageCertified}

// Number returns the 1-based position of s, or 0 when unknown.
func (s EnrollmentStage) Number() int {
	for i, stage := range StageSequence {
		if stage == s {
			return i + 1
		}
	}
	return 0
}

// Next returns the following stage. ok is false at CERTIFIED or for unknown stages.
func (s EnrollmentStage) Next() (EnrollmentStage, bool) {
	n := s.Number()
	if n == 0 || n == len(StageSequence) {
		return s, false
	}
	return StageSequence[n], true
}

// Percent is the progress shown for s.
func (s EnrollmentStage) Percent() int {
	return s.Number() * 20
}

// ProgressStatus is the completion state of one course step.
type ProgressStatus string

const (
	ProgressNotStarted ProgressStatus = "NOT_STARTED"
	ProgressInProgress ProgressStatus = "IN_PROGRESS"
	ProgressCompleted  ProgressStatus = "COMPLETED"
)

// Valid reports whether p is a known status.
func (p ProgressStatus) Valid() bool {
	return p == ProgressNotStarted || p == ProgressInProgress || p == ProgressCompleted
}

// Course is a training programme candidates enrol in.
type Course struct {
	ID             string    `db:"id" json:"id"`
	Title          string    `db:"title" json:"title"`
	Description    string    `db:"description" json:"description"`
	TierRequired   Tier      `db:"tier_required" json:"tier_required"`
	HasCertificate bool      `db:"has_certificate" json:"has_certificate"`
	Active         bool      `db:"active" json:"active"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// CourseStep is one ordered unit of a course.
type CourseStep struct {
	ID       string `db:"id" json:"id"`
	CourseID string `db:"course_id" json:"course_id"`
	Title    string `db:"title" json:"title"`
	Position int    `db:"position" json:"position"`
}

// Enrollment binds a profile to a course.
type Enrollment struct {
	ID           string          `db:"id" json:"id"`
	ProfileID    string          `db:"profile_id" json:"profile_id"`
	UserID       string          `db:"user_id" json:"user_id"`
	CourseID     string          `db:"course_id" json:"course_id"`
	CurrentStage EnrollmentStage `db:"current_stage" json:"current_stage"`
	EnrolledAt   time.Time       `db:"enrolled_at" json:"enrolled_at"`
	CompletedAt  *time.Time      `db:"completed_at" json:"completed_at,omitempty"`
}

// UserProgress tracks one course step of an enrollment.
type UserProgress struct {
	ID           string         `db:"id" json:"id"`
	EnrollmentID string         `db:"enrollment_id" json:"enrollment_id"`
	StepID       string         `db:"step_id" json:"step_id"`
	StepTitle    string         `db:"step_title" json:"step_title"`
	Position     int            `db:"position" json:"position"`
	Status       ProgressStatus `db:"status" json:"status"`
	UpdatedAt    time.Time      `db:"updated_at" json:"updated_at"`
}

// Certificate is issued once per certified enrollment.
type Certificate struct {
	ID           string    `db:"id" json:"id"`
	EnrollmentID string    `db:"enrollment_id" json:"enrollment_id"`
	Code         string    `db:"code" json:"code"`
	IssuedAt     time.Time `db:"issued_at" json:"issued_at"`
}

// StepStatusUpdate sets the status of a single step.
type StepStatusUpdate struct {
	StepID string         `json:"step_id" validate:"required"`
	Status ProgressStatus `json:"status" validate:"required,oneof=NOT_STARTED IN_PROGRESS COMPLETED"`
}

// UpdateProgressRequest applies a batch of step updates.
type UpdateProgressRequest struct {
	Steps []StepStatusUpdate `json:"steps" validate:"required,min=1,dive"`
}

// EnrollmentView is an enrollment with its steps and derived progress.
type EnrollmentView struct {
	Enrollment
	CourseTitle string         `json:"course_title"`
	Percent     int            `json:"percent"`
	Steps       []UserProgress `json:"steps"`
	Certificate *Certificate   `json:"certificate,omitempty"`
}

// CourseDetail is a catalogue entry with its ordered steps.
type CourseDetail struct {
	Course
	Steps []CourseStep `json:"steps"`
}
