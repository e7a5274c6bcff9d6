package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/career-services-api/internal/models"
)

// BadgeRepository persists badges and awards.
type BadgeRepository struct {
	db *sqlx.DB
}

// NewBadgeRepository constructs the repository.
func NewBadgeRepository(db *sqlx.DB) *BadgeRepository {
	return &BadgeRepository{db: db}
}

// List returns every badge definition.
func (r *BadgeRepository) List(ctx context.Context) ([]models.Badge, error) {
	const query = `SELECT id, name, description, criteria, created_at FROM badges ORDER BY name`
	var badges []models.Badge
	if err := r.db.SelectContext(ctx, &badges, query); err != nil {
		return nil, fmt.Errorf("list badges: %w", err)
	}
	return badges, nil
}

// Award grants a badge once. It reports whether the award is new.
func (r *BadgeRepository) Award(ctx context.Context, userID, badgeID string, at time.Time) (bool, error) {
	const query = `INSERT INTO user_badges (id, user_id, badge_id, awarded_at) VALUES ($1, $2, $3, $4)
        ON CONFLICT (user_id, badge_id) DO NOTHING`
	res, err := r.db.ExecContext(ctx, query, uuid.NewString(), userID, badgeID, at)
	if err != nil {
		return false, fmt.Errorf("award badge: %w", err)
	}
	return affectedOne(res, "award badge")
}
