package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/career-services-api/internal/models"
)

const jobListingColumns = `j.id, j.title, j.company, j.location, j.is_exclusive, j.recruiter_email, j.active, j.created_at`

const applicationViewSelect = `SELECT a.id, a.user_id, a.job_id, a.status, a.applied_at,
        j.title AS job_title, j.company AS company, u.full_name AS candidate_name, u.email AS candidate_email
        FROM job_applications a
        JOIN users u ON u.id = a.user_id
        LEFT JOIN jobs j ON j.id = a.job_id`

// JobRepository persists job listings and applications.
type JobRepository struct {
	db *sqlx.DB
}

// NewJobRepository constructs the repository.
func NewJobRepository(db *sqlx.DB) *JobRepository {
	return &JobRepository{db: db}
}

// FindByID returns a job listing.
func (r *JobRepository) FindByID(ctx context.Context, id string) (*models.Job, error) {
	const query = `SELECT id, title, company, location, is_exclusive, recruiter_email, active, created_at FROM jobs WHERE id = $1`
	var job models.Job
	if err := r.db.GetContext(ctx, &job, query, id); err != nil {
		return nil, err
	}
	return &job, nil
}

// HasApplied reports whether the user already applied to the job.
func (r *JobRepository) HasApplied(ctx context.Context, userID, jobID string) (bool, error) {
	const query = `SELECT 1 FROM job_applications WHERE user_id = $1 AND job_id = $2 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, userID, jobID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check application: %w", err)
	}
	return true, nil
}

// CreateApplication inserts an application. A duplicate surfaces as ErrDuplicate.
func (r *JobRepository) CreateApplication(ctx context.Context, app *models.JobApplication) error {
	if app.ID == "" {
		app.ID = uuid.NewString()
	}
	if app.AppliedAt.IsZero() {
		app.AppliedAt = time.Now().UTC()
	}
	if app.Status == "" {
		app.Status = models.ApplicationStatusApplied
	}
	const query = `INSERT INTO job_applications (id, user_id, job_id, status, applied_at)
        VALUES (:id, :user_id, :job_id, :status, :applied_at)`
	if _, err := r.db.NamedExecContext(ctx, query, app); err != nil {
		return mapUnique(fmt.Errorf("create application: %w", err))
	}
	return nil
}

// FirstApplication returns the earliest application of a user.
func (r *JobRepository) FirstApplication(ctx context.Context, userID string) (*models.JobApplication, error) {
	const query = `SELECT id, user_id, job_id, status, applied_at FROM job_applications WHERE user_id = $1 ORDER BY applied_at LIMIT 1`
	var app models.JobApplication
	if err := r.db.GetContext(ctx, &app, query, userID); err != nil {
		return nil, err
	}
	return &app, nil
}

// CountApplications counts every application a user has made.
func (r *JobRepository) CountApplications(ctx context.Context, userID string) (int, error) {
	const query = `SELECT COUNT(*) FROM job_applications WHERE user_id = $1`
	var total int
	if err := r.db.GetContext(ctx, &total, query, userID); err != nil {
		return 0, fmt.Errorf("count applications: %w", err)
	}
	return total, nil
}

// List returns active jobs matching filter, flagged with the viewer's saved and
// applied state, with the total count.
func (r *JobRepository) List(ctx context.Context, filter models.JobFilter) ([]models.JobListing, int, error) {
	conditions := []string{"j.active = TRUE"}
	var args []interface{}

	if !filter.IncludeExclusive {
		conditions = append(conditions, "j.is_exclusive = FALSE")
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		conditions = append(conditions, fmt.Sprintf("(j.title ILIKE $%[1]d OR j.company ILIKE $%[1]d OR j.location ILIKE $%[1]d)", len(args)+1))
		args = append(args, "%"+search+"%")
	}
	if location := strings.TrimSpace(filter.Location); location != "" {
		conditions = append(conditions, fmt.Sprintf("j.location ILIKE $%d", len(args)+1))
		args = append(args, location)
	}
	if filter.SavedOnly {
		conditions = append(conditions, fmt.Sprintf("EXISTS (SELECT 1 FROM saved_jobs s WHERE s.job_id = j.id AND s.user_id = $%d)", len(args)+1))
		args = append(args, filter.ViewerID)
	}

	clause := " WHERE " + strings.Join(conditions, " AND ")
	page, size := models.NormalisePage(filter.Page, filter.PageSize)
	offset := (page - 1) * size

	viewer := len(args) + 1
	query := fmt.Sprintf(`SELECT %s,
        EXISTS (SELECT 1 FROM saved_jobs s WHERE s.job_id = j.id AND s.user_id = $%[2]d) AS saved,
        EXISTS (SELECT 1 FROM job_applications a WHERE a.job_id = j.id AND a.user_id = $%[2]d) AS applied
        FROM jobs j%s ORDER BY j.created_at DESC LIMIT %d OFFSET %d`, jobListingColumns, viewer, clause, size, offset)
	var items []models.JobListing
	if err := r.db.SelectContext(ctx, &items, query, append(args, filter.ViewerID)...); err != nil {
		return nil, 0, fmt.Errorf("list jobs: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM jobs j"+clause, args...); err != nil {
		return nil, 0, fmt.Errorf("count jobs: %w", err)
	}
	return items, total, nil
}

// FindListing returns one job as seen by the viewer.
func (r *JobRepository) FindListing(ctx context.Context, viewerID, jobID string) (*models.JobListing, error) {
	query := `SELECT ` + jobListingColumns + `,
        EXISTS (SELECT 1 FROM saved_jobs s WHERE s.job_id = j.id AND s.user_id = $2) AS saved,
        EXISTS (SELECT 1 FROM job_applications a WHERE a.job_id = j.id AND a.user_id = $2) AS applied
        FROM jobs j WHERE j.id = $1`
	var listing models.JobListing
	if err := r.db.GetContext(ctx, &listing, query, jobID, viewerID); err != nil {
		return nil, err
	}
	return &listing, nil
}

// SaveJob bookmarks a job. Saving twice is a no-op.
func (r *JobRepository) SaveJob(ctx context.Context, userID, jobID string) error {
	const query = `INSERT INTO saved_jobs (user_id, job_id, saved_at) VALUES ($1, $2, NOW())
        ON CONFLICT (user_id, job_id) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, userID, jobID); err != nil {
		return fmt.Errorf("save job: %w", err)
	}
	return nil
}

// UnsaveJob removes a bookmark if present.
func (r *JobRepository) UnsaveJob(ctx context.Context, userID, jobID string) error {
	const query = `DELETE FROM saved_jobs WHERE user_id = $1 AND job_id = $2`
	if _, err := r.db.ExecContext(ctx, query, userID, jobID); err != nil {
		return fmt.Errorf("unsave job: %w", err)
	}
	return nil
}

// FindApplication returns an application with its job and candidate.
func (r *JobRepository) FindApplication(ctx context.Context, id string) (*models.ApplicationView, error) {
	var view models.ApplicationView
	if err := r.db.GetContext(ctx, &view, applicationViewSelect+` WHERE a.id = $1`, id); err != nil {
		return nil, err
	}
	return &view, nil
}

// ListApplications returns applications matching filter, newest first, with the total count.
func (r *JobRepository) ListApplications(ctx context.Context, filter models.ApplicationFilter) ([]models.ApplicationView, int, error) {
	var conditions []string
	var args []interface{}
	if filter.UserID != "" {
		conditions = append(conditions, fmt.Sprintf("a.user_id = $%d", len(args)+1))
		args = append(args, filter.UserID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("a.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}
	page, size := models.NormalisePage(filter.Page, filter.PageSize)
	offset := (page - 1) * size

	query := fmt.Sprintf("%s%s ORDER BY a.applied_at DESC LIMIT %d OFFSET %d", applicationViewSelect, clause, size, offset)
	var items []models.ApplicationView
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list applications: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM job_applications a"+clause, args...); err != nil {
		return nil, 0, fmt.Errorf("count applications: %w", err)
	}
	return items, total, nil
}

// UpdateApplicationStatus changes the status only when it is still fromStatus.
func (r *JobRepository) UpdateApplicationStatus(ctx context.Context, id, fromStatus, status string) (bool, error) {
	const query = `UPDATE job_applications SET status = $3, updated_at = NOW() WHERE id = $1 AND status = $2`
	res, err := r.db.ExecContext(ctx, query, id, fromStatus, status)
	if err != nil {
		return false, fmt.Errorf("update application status: %w", err)
	}
	return affectedOne(res, "update application status")
}
