package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/career-services-api/internal/models"
)

const userColumns = `id, username, email, password_hash, full_name, role, active, created_at, updated_at`

// UserRepository persists users and trainee accounts.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository constructs the repository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByID returns a user.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByUsername returns a user by login name.
func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1 LIMIT 1`
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, username); err != nil {
		return nil, err
	}
	return &user, nil
}

// FirstStaff returns the longest-standing active consultant or admin.
func (r *UserRepository) FirstStaff(ctx context.Context) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE active = TRUE AND role IN ($1, $2)
        ORDER BY CASE WHEN role = $1 THEN 0 ELSE 1 END, created_at LIMIT 1`
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, models.RoleConsultant, models.RoleAdmin); err != nil {
		return nil, err
	}
	return &user, nil
}

// CreateWithProfile inserts a user and its profile atomically. A taken
// username or email surfaces as ErrDuplicate.
func (r *UserRepository) CreateWithProfile(ctx context.Context, user *models.User, profile *models.Profile) (err error) {
	now := time.Now().UTC()
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	user.CreatedAt = now
	user.UpdatedAt = now
	profile.UserID = user.ID

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create user tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const query = `INSERT INTO users (id, username, email, password_hash, full_name, role, active, created_at, updated_at)
        VALUES (:id, :username, :email, :password_hash, :full_name, :role, :active, :created_at, :updated_at)`
	if _, err = tx.NamedExecContext(ctx, query, user); err != nil {
		return mapUnique(fmt.Errorf("create user: %w", err))
	}
	if err = insertProfile(ctx, tx, profile); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit create user tx: %w", err)
	}
	return nil
}

// ListTrainees returns every trainee account.
func (r *UserRepository) ListTrainees(ctx context.Context) ([]models.Trainee, error) {
	const query = `SELECT u.id AS user_id, u.username, u.email, u.full_name, p.id AS profile_id, p.trainee_plan, p.trainee_course
        FROM users u JOIN profiles p ON p.user_id = u.id
        WHERE p.is_trainee = TRUE
        ORDER BY u.created_at DESC`
	var trainees []models.Trainee
	if err := r.db.SelectContext(ctx, &trainees, query); err != nil {
		return nil, fmt.Errorf("list trainees: %w", err)
	}
	return trainees, nil
}
