package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/career-services-api/internal/models"
)

// AnnualReviewRepository books yearly outcome reviews.
type AnnualReviewRepository struct {
	db *sqlx.DB
}

// NewAnnualReviewRepository constructs the repository.
func NewAnnualReviewRepository(db *sqlx.DB) *AnnualReviewRepository {
	return &AnnualReviewRepository{db: db}
}

// Schedule records the review for (user, year) and its appointment together.
// It reports false when the year was already booked.
func (r *AnnualReviewRepository) Schedule(ctx context.Context, userID string, year int, appt *models.Appointment) (created bool, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin annual review tx: %w", err)
	}
	defer func() {
		if err != nil || !created {
			_ = tx.Rollback()
		}
	}()

	if err = insertAppointment(ctx, tx, appt); err != nil {
		return false, err
	}
	const query = `INSERT INTO annual_reviews (id, user_id, year, appointment_id, created_at) VALUES ($1, $2, $3, $4, NOW())
        ON CONFLICT (user_id, year) DO NOTHING`
	res, err := tx.ExecContext(ctx, query, uuid.NewString(), userID, year, appt.ID)
	if err != nil {
		return false, fmt.Errorf("record annual review: %w", err)
	}
	if created, err = affectedOne(res, "record annual review"); err != nil || !created {
		return false, err
	}
	if err = tx.Commit(); err != nil {
		return false, fmt.Errorf("commit annual review tx: %w", err)
	}
	return true, nil
}
