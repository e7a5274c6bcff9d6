package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/career-services-api/internal/models"
)

// InterviewSlotRepository persists per-date booking capacity.
type InterviewSlotRepository struct {
	db *sqlx.DB
}

// NewInterviewSlotRepository constructs the repository.
func NewInterviewSlotRepository(db *sqlx.DB) *InterviewSlotRepository {
	return &InterviewSlotRepository{db: db}
}

// GetOrCreate returns the slot for date, creating it with defaultMax when absent.
func (r *InterviewSlotRepository) GetOrCreate(ctx context.Context, date time.Time, defaultMax int) (*models.InterviewSlot, error) {
	const insert = `INSERT INTO interview_slots (slot_date, max_slots, used_slots, updated_at)
        VALUES ($1, $2, 0, NOW()) ON CONFLICT (slot_date) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, insert, date, defaultMax); err != nil {
		return nil, fmt.Errorf("ensure interview slot: %w", err)
	}
	const query = `SELECT slot_date, max_slots, used_slots, updated_at FROM interview_slots WHERE slot_date = $1`
	var slot models.InterviewSlot
	if err := r.db.GetContext(ctx, &slot, query, date); err != nil {
		return nil, fmt.Errorf("load interview slot: %w", err)
	}
	return &slot, nil
}

// Reserve takes one unit of capacity for date if any is left.
func (r *InterviewSlotRepository) Reserve(ctx context.Context, date time.Time) (bool, error) {
	const query = `UPDATE interview_slots SET used_slots = used_slots + 1, updated_at = NOW()
        WHERE slot_date = $1 AND used_slots < max_slots`
	res, err := r.db.ExecContext(ctx, query, date)
	if err != nil {
		return false, fmt.Errorf("reserve interview slot: %w", err)
	}
	return affectedOne(res, "reserve interview slot")
}

// Release gives back one unit of capacity for date, flooring at zero.
func (r *InterviewSlotRepository) Release(ctx context.Context, date time.Time) error {
	const query = `UPDATE interview_slots SET used_slots = GREATEST(used_slots - 1, 0), updated_at = NOW() WHERE slot_date = $1`
	if _, err := r.db.ExecContext(ctx, query, date); err != nil {
		return fmt.Errorf("release interview slot: %w", err)
	}
	return nil
}

// SetCapacity changes max_slots unless it would fall below the booked count.
func (r *InterviewSlotRepository) SetCapacity(ctx context.Context, date time.Time, max int) (bool, error) {
	const query = `UPDATE interview_slots SET max_slots = $2, updated_at = NOW() WHERE slot_date = $1 AND used_slots <= $2`
	res, err := r.db.ExecContext(ctx, query, date, max)
	if err != nil {
		return false, fmt.Errorf("set interview slot capacity: %w", err)
	}
	return affectedOne(res, "set interview slot capacity")
}
