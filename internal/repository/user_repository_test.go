package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/career-services-api/internal/models"
)

func TestUserFindByUsername(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "username", "email", "password_hash", "full_name", "role", "active", "created_at", "updated_at"}).
		AddRow("1", "asha", "asha@example.com", "hash", "Asha", string(models.RoleCandidate), true, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, username, email, password_hash, full_name, role, active, created_at, updated_at FROM users WHERE username = $1 LIMIT 1")).
		WithArgs("asha").
		WillReturnRows(rows)

	user, err := repo.FindByUsername(context.Background(), "asha")
	require.NoError(t, err)
	assert.Equal(t, models.RoleCandidate, user.Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserCreateWithProfile(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO users").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO profiles").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	user := &models.User{Username: "trainee1", Email: "t1@example.com", Role: models.RoleCandidate, Active: true}
	profile := &models.Profile{IsTrainee: true, TraineePlan: models.TraineePlanPro}
	require.NoError(t, repo.CreateWithProfile(context.Background(), user, profile))
	assert.Equal(t, user.ID, profile.UserID)
	assert.False(t, profile.PeriodStart.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserCreateWithProfileDuplicateUsername(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO users").WillReturnError(&pq.Error{Code: "23505"})
	mock.ExpectRollback()

	err := repo.CreateWithProfile(context.Background(), &models.User{Username: "taken"}, &models.Profile{})
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}
