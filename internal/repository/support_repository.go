package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/career-services-api/internal/models"
)

const supportColumns = `id, user_id, subject, message, priority, resolved, reply, created_at, updated_at`

// SupportRepository persists support queries.
type SupportRepository struct {
	db *sqlx.DB
}

// NewSupportRepository constructs the repository.
func NewSupportRepository(db *sqlx.DB) *SupportRepository {
	return &SupportRepository{db: db}
}

// Create inserts a new query.
func (r *SupportRepository) Create(ctx context.Context, q *models.SupportQuery) error {
	now := time.Now().UTC()
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	if q.Priority == "" {
		q.Priority = models.SupportPriorityLow
	}
	q.CreatedAt = now
	q.UpdatedAt = now
	const query = `INSERT INTO support_queries (` + supportColumns + `)
        VALUES (:id, :user_id, :subject, :message, :priority, :resolved, :reply, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, q); err != nil {
		return fmt.Errorf("create support query: %w", err)
	}
	return nil
}

// FindByID returns a query.
func (r *SupportRepository) FindByID(ctx context.Context, id string) (*models.SupportQuery, error) {
	var q models.SupportQuery
	if err := r.db.GetContext(ctx, &q, `SELECT `+supportColumns+` FROM support_queries WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &q, nil
}

// List returns queries matching filter with the total count. Escalated and
// unresolved queries come first.
func (r *SupportRepository) List(ctx context.Context, filter models.SupportQueryFilter) ([]models.SupportQuery, int, error) {
	var conditions []string
	var args []interface{}
	if filter.UserID != "" {
		conditions = append(conditions, fmt.Sprintf("user_id = $%d", len(args)+1))
		args = append(args, filter.UserID)
	}
	if filter.Priority != "" {
		conditions = append(conditions, fmt.Sprintf("priority = $%d", len(args)+1))
		args = append(args, filter.Priority)
	}
	if filter.Resolved != nil {
		conditions = append(conditions, fmt.Sprintf("resolved = $%d", len(args)+1))
		args = append(args, *filter.Resolved)
	}
	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}
	page, size := models.NormalisePage(filter.Page, filter.PageSize)
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT %s FROM support_queries%s
        ORDER BY resolved, (priority = 'ESCALATED') DESC, created_at DESC LIMIT %d OFFSET %d`, supportColumns, clause, size, offset)
	var items []models.SupportQuery
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list support queries: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM support_queries"+clause, args...); err != nil {
		return nil, 0, fmt.Errorf("count support queries: %w", err)
	}
	return items, total, nil
}

// Reply stores the staff answer and resolves the query.
func (r *SupportRepository) Reply(ctx context.Context, id, reply string) error {
	const query = `UPDATE support_queries SET reply = $2, resolved = TRUE, updated_at = NOW() WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, reply)
	if err != nil {
		return fmt.Errorf("reply support query: %w", err)
	}
	return expectAffected(res)
}

// Escalate raises an unresolved query to ESCALATED. It reports false when the
// query is already resolved.
func (r *SupportRepository) Escalate(ctx context.Context, id string) (bool, error) {
	const query = `UPDATE support_queries SET priority = $2, updated_at = NOW() WHERE id = $1 AND resolved = FALSE`
	res, err := r.db.ExecContext(ctx, query, id, models.SupportPriorityEscalated)
	if err != nil {
		return false, fmt.Errorf("escalate support query: %w", err)
	}
	return affectedOne(res, "escalate support query")
}
