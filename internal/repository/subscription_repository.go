package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/career-services-api/internal/models"
)

// SubscriptionRepository persists subscriptions and invoices.
type SubscriptionRepository struct {
	db *sqlx.DB
}

// NewSubscriptionRepository constructs the repository.
func NewSubscriptionRepository(db *sqlx.DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

// Activate upserts the single subscription row of a user, records the paid
// invoice and raises the profile tier flags in the same transaction. A missing
// profile rolls everything back with sql.ErrNoRows.
func (r *SubscriptionRepository) Activate(ctx context.Context, sub *models.Subscription, invoice *models.Invoice) (err error) {
	now := time.Now().UTC()
	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}
	sub.Active = true
	sub.UpdatedAt = now
	if invoice.ID == "" {
		invoice.ID = uuid.NewString()
	}
	if invoice.IssuedAt.IsZero() {
		invoice.IssuedAt = now
	}
	invoice.Paid = true

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin activate subscription tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const upsert = `INSERT INTO subscriptions (id, user_id, plan, tier, start_date, end_date, active, updated_at)
        VALUES (:id, :user_id, :plan, :tier, :start_date, :end_date, :active, :updated_at)
        ON CONFLICT (user_id) DO UPDATE SET plan = EXCLUDED.plan, tier = EXCLUDED.tier, start_date = EXCLUDED.start_date,
        end_date = EXCLUDED.end_date, active = EXCLUDED.active, updated_at = EXCLUDED.updated_at
        RETURNING id`
	rows, err := sqlx.NamedQueryContext(ctx, tx, upsert, sub)
	if err != nil {
		return fmt.Errorf("upsert subscription: %w", err)
	}
	if rows.Next() {
		if err = rows.Scan(&sub.ID); err != nil {
			_ = rows.Close()
			return fmt.Errorf("scan subscription id: %w", err)
		}
	}
	if err = rows.Close(); err != nil {
		return fmt.Errorf("close subscription rows: %w", err)
	}

	const insertInvoice = `INSERT INTO invoices (id, number, user_id, plan, amount_minor, currency, order_id, payment_id, paid, pdf_path, issued_at)
        VALUES (:id, :number, :user_id, :plan, :amount_minor, :currency, :order_id, :payment_id, :paid, :pdf_path, :issued_at)`
	if _, err = tx.NamedExecContext(ctx, insertInvoice, invoice); err != nil {
		return mapUnique(fmt.Errorf("create invoice: %w", err))
	}

	const flags = `UPDATE profiles SET is_pro = TRUE, is_proplus = $2, updated_at = NOW() WHERE user_id = $1`
	res, err := tx.ExecContext(ctx, flags, sub.UserID, sub.Tier == models.TierProPlus)
	if err != nil {
		return fmt.Errorf("update tier flags: %w", err)
	}
	if err = expectAffected(res); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit activate subscription tx: %w", err)
	}
	return nil
}

// SetInvoicePDF stores the rendered invoice location.
func (r *SubscriptionRepository) SetInvoicePDF(ctx context.Context, invoiceID, path string) error {
	const query = `UPDATE invoices SET pdf_path = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, invoiceID, path); err != nil {
		return fmt.Errorf("set invoice pdf: %w", err)
	}
	return nil
}

// FindByUser returns the subscription of a user.
func (r *SubscriptionRepository) FindByUser(ctx context.Context, userID string) (*models.Subscription, error) {
	const query = `SELECT id, user_id, plan, tier, start_date, end_date, active, updated_at FROM subscriptions WHERE user_id = $1`
	var sub models.Subscription
	if err := r.db.GetContext(ctx, &sub, query, userID); err != nil {
		return nil, err
	}
	return &sub, nil
}
