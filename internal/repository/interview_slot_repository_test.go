package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInterviewSlotGetOrCreate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewInterviewSlotRepository(db)
	date := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	mock.ExpectExec("INSERT INTO interview_slots .* ON CONFLICT \\(slot_date\\) DO NOTHING").
		WithArgs(date, 5).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT slot_date, max_slots, used_slots, updated_at FROM interview_slots WHERE slot_date = $1")).
		WithArgs(date).
		WillReturnRows(sqlmock.NewRows([]string{"slot_date", "max_slots", "used_slots", "updated_at"}).AddRow(date, 5, 5, date))

	slot, err := repo.GetOrCreate(context.Background(), date, 5)
	require.NoError(t, err)
	assert.False(t, slot.CanSchedule())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInterviewSlotReserveIsConditional(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewInterviewSlotRepository(db)
	date := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta("WHERE slot_date = $1 AND used_slots < max_slots")).
		WithArgs(date).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("WHERE slot_date = $1 AND used_slots < max_slots")).
		WithArgs(date).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := repo.Reserve(context.Background(), date)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = repo.Reserve(context.Background(), date)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInterviewSlotReleaseAndCapacity(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewInterviewSlotRepository(db)
	date := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta("SET used_slots = GREATEST(used_slots - 1, 0)")).
		WithArgs(date).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("SET max_slots = $2, updated_at = NOW() WHERE slot_date = $1 AND used_slots <= $2")).
		WithArgs(date, 2).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.Release(context.Background(), date))
	ok, err := repo.SetCapacity(context.Background(), date, 2)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}
