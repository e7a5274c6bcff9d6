package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/career-services-api/internal/models"
)

// CourseRepository reads the course catalogue.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs the repository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// FindByID returns a course.
func (r *CourseRepository) FindByID(ctx context.Context, id string) (*models.Course, error) {
	const query = `SELECT id, title, description, tier_required, has_certificate, active, created_at FROM courses WHERE id = $1`
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, id); err != nil {
		return nil, err
	}
	return &course, nil
}

// ListActive returns the courses open for enrollment, by title.
func (r *CourseRepository) ListActive(ctx context.Context) ([]models.Course, error) {
	const query = `SELECT id, title, description, tier_required, has_certificate, active, created_at
        FROM courses WHERE active = TRUE ORDER BY title`
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query); err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return courses, nil
}

// ListSteps returns the ordered steps of a course.
func (r *CourseRepository) ListSteps(ctx context.Context, courseID string) ([]models.CourseStep, error) {
	const query = `SELECT id, course_id, title, position FROM course_steps WHERE course_id = $1 ORDER BY position`
	var steps []models.CourseStep
	if err := r.db.SelectContext(ctx, &steps, query, courseID); err != nil {
		return nil, fmt.Errorf("list course steps: %w", err)
	}
	return steps, nil
}
