package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/career-services-api/internal/models"
)

// ActivityRepository records calendar events and staff interactions that
// accompany appointment changes.
type ActivityRepository struct {
	db *sqlx.DB
}

// NewActivityRepository constructs the repository.
func NewActivityRepository(db *sqlx.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// CreateCalendarEvent inserts a calendar entry.
func (r *ActivityRepository) CreateCalendarEvent(ctx context.Context, event *models.CalendarEvent) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	event.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO calendar_events (id, user_id, appointment_id, title, starts_at, ends_at, created_at)
        VALUES (:id, :user_id, :appointment_id, :title, :starts_at, :ends_at, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, event); err != nil {
		return fmt.Errorf("create calendar event: %w", err)
	}
	return nil
}

// CreateInteraction appends to the application activity log.
func (r *ActivityRepository) CreateInteraction(ctx context.Context, interaction *models.Interaction) error {
	if interaction.ID == "" {
		interaction.ID = uuid.NewString()
	}
	interaction.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO interactions (id, application_id, actor_id, message, created_at)
        VALUES (:id, :application_id, :actor_id, :message, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, interaction); err != nil {
		return fmt.Errorf("create interaction: %w", err)
	}
	return nil
}
