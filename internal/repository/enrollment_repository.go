package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/career-services-api/internal/models"
)

const enrollmentColumns = `id, profile_id, user_id, course_id, current_stage, enrolled_at, completed_at`

// EnrollmentRepository persists course enrollments, step progress and certificates.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// Exists reports whether the profile is already enrolled in the course.
func (r *EnrollmentRepository) Exists(ctx context.Context, profileID, courseID string) (bool, error) {
	const query = `SELECT 1 FROM enrollments WHERE profile_id = $1 AND course_id = $2 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, profileID, courseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check enrollment: %w", err)
	}
	return true, nil
}

// Create inserts the enrollment and one NOT_STARTED progress row per step in a
// single transaction. A concurrent duplicate surfaces as ErrDuplicate.
func (r *EnrollmentRepository) Create(ctx context.Context, enrollment *models.Enrollment, steps []models.CourseStep) (err error) {
	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	if enrollment.EnrolledAt.IsZero() {
		enrollment.EnrolledAt = time.Now().UTC()
	}
	if enrollment.CurrentStage == "" {
		enrollment.CurrentStage = models.StageEnrolled
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin enrollment tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const insertEnrollment = `INSERT INTO enrollments (id, profile_id, user_id, course_id, current_stage, enrolled_at, completed_at)
        VALUES (:id, :profile_id, :user_id, :course_id, :current_stage, :enrolled_at, :completed_at)`
	if _, err = tx.NamedExecContext(ctx, insertEnrollment, enrollment); err != nil {
		return mapUnique(fmt.Errorf("create enrollment: %w", err))
	}

	const insertProgress = `INSERT INTO user_progress (id, enrollment_id, step_id, status, updated_at) VALUES ($1, $2, $3, $4, $5)`
	for _, step := range steps {
		if _, err = tx.ExecContext(ctx, insertProgress, uuid.NewString(), enrollment.ID, step.ID, models.ProgressNotStarted, enrollment.EnrolledAt); err != nil {
			return fmt.Errorf("create step progress: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit enrollment tx: %w", err)
	}
	return nil
}

// FindByID returns an enrollment.
func (r *EnrollmentRepository) FindByID(ctx context.Context, id string) (*models.Enrollment, error) {
	query := `SELECT ` + enrollmentColumns + ` FROM enrollments WHERE id = $1`
	var enrollment models.Enrollment
	if err := r.db.GetContext(ctx, &enrollment, query, id); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// ListProgress returns the step progress rows of an enrollment in step order.
func (r *EnrollmentRepository) ListProgress(ctx context.Context, enrollmentID string) ([]models.UserProgress, error) {
	const query = `SELECT up.id, up.enrollment_id, up.step_id, cs.title AS step_title, cs.position, up.status, up.updated_at
        FROM user_progress up
        JOIN course_steps cs ON cs.id = up.step_id
        WHERE up.enrollment_id = $1
        ORDER BY cs.position`
	var rows []models.UserProgress
	if err := r.db.SelectContext(ctx, &rows, query, enrollmentID); err != nil {
		return nil, fmt.Errorf("list step progress: %w", err)
	}
	return rows, nil
}

// UpdateStepStatus sets the status of one step of an enrollment.
func (r *EnrollmentRepository) UpdateStepStatus(ctx context.Context, enrollmentID, stepID string, status models.ProgressStatus) error {
	const query = `UPDATE user_progress SET status = $3, updated_at = NOW() WHERE enrollment_id = $1 AND step_id = $2`
	res, err := r.db.ExecContext(ctx, query, enrollmentID, stepID, status)
	if err != nil {
		return fmt.Errorf("update step progress: %w", err)
	}
	return expectAffected(res)
}

// AdvanceStage moves the enrollment from one stage to the next only if it is
// still at from. completedAt is written when provided.
func (r *EnrollmentRepository) AdvanceStage(ctx context.Context, id string, from, to models.EnrollmentStage, completedAt *time.Time) (bool, error) {
	const query = `UPDATE enrollments SET current_stage = $3, completed_at = COALESCE($4, completed_at)
        WHERE id = $1 AND current_stage = $2`
	res, err := r.db.ExecContext(ctx, query, id, from, to, completedAt)
	if err != nil {
		return false, fmt.Errorf("advance enrollment stage: %w", err)
	}
	return affectedOne(res, "advance enrollment stage")
}

// EnsureCertificate issues the certificate for an enrollment once. It reports
// whether a new row was written.
func (r *EnrollmentRepository) EnsureCertificate(ctx context.Context, enrollmentID, code string, issuedAt time.Time) (bool, error) {
	const query = `INSERT INTO certificates (id, enrollment_id, code, issued_at) VALUES ($1, $2, $3, $4)
        ON CONFLICT (enrollment_id) DO NOTHING`
	res, err := r.db.ExecContext(ctx, query, uuid.NewString(), enrollmentID, code, issuedAt)
	if err != nil {
		return false, fmt.Errorf("ensure certificate: %w", err)
	}
	return affectedOne(res, "ensure certificate")
}

// FindCertificate returns the certificate of an enrollment.
func (r *EnrollmentRepository) FindCertificate(ctx context.Context, enrollmentID string) (*models.Certificate, error) {
	const query = `SELECT id, enrollment_id, code, issued_at FROM certificates WHERE enrollment_id = $1`
	var cert models.Certificate
	if err := r.db.GetContext(ctx, &cert, query, enrollmentID); err != nil {
		return nil, err
	}
	return &cert, nil
}

// CountCertified counts the certified enrollments of a user.
func (r *EnrollmentRepository) CountCertified(ctx context.Context, userID string) (int, error) {
	const query = `SELECT COUNT(*) FROM enrollments WHERE user_id = $1 AND current_stage = $2`
	var total int
	if err := r.db.GetContext(ctx, &total, query, userID, models.StageCertified); err != nil {
		return 0, fmt.Errorf("count certified enrollments: %w", err)
	}
	return total, nil
}
