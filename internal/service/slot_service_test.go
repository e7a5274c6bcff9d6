package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/career-services-api/internal/models"
	appErrors "github.com/noah-isme/career-services-api/pkg/errors"
)

func TestSlotGetOrCreateUsesDefaultCapacity(t *testing.T) {
	svc := NewSlotService(newFakeSlots(), 5, nil, nil, nil)

	slot, err := svc.GetOrCreate(context.Background(), testNow)
	require.NoError(t, err)
	assert.Equal(t, 5, slot.MaxSlots)
	assert.Equal(t, 0, slot.UsedSlots)
	assert.True(t, slot.CanSchedule())
}

func TestSlotReserveFullDate(t *testing.T) {
	slots := newFakeSlots()
	slots.put(testNow, 5, 5)
	svc := NewSlotService(slots, 5, nil, nil, nil)

	ok, err := svc.CanSchedule(context.Background(), testNow)
	require.NoError(t, err)
	assert.False(t, ok)

	err = svc.Reserve(context.Background(), testNow.Add(3*time.Hour))
	assert.ErrorIs(t, err, appErrors.ErrSlotUnavailable)
	assert.Equal(t, 5, slots.used(testNow))
}

func TestSlotConcurrentReservationsRespectCapacity(t *testing.T) {
	slots := newFakeSlots()
	svc := NewSlotService(slots, 3, nil, nil, nil)

	var wg sync.WaitGroup
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = svc.Reserve(context.Background(), testNow)
		}()
	}
	wg.Wait()

	assert.Equal(t, 3, slots.used(testNow))
}

func TestSlotReleaseFloorsAtZero(t *testing.T) {
	slots := newFakeSlots()
	slots.put(testNow, 5, 1)
	svc := NewSlotService(slots, 5, nil, nil, nil)

	require.NoError(t, svc.Release(context.Background(), testNow))
	require.NoError(t, svc.Release(context.Background(), testNow))
	assert.Equal(t, 0, slots.used(testNow))
}

func TestSlotSetCapacity(t *testing.T) {
	slots := newFakeSlots()
	slots.put(testNow, 5, 3)
	svc := NewSlotService(slots, 5, nil, nil, nil)
	ctx := context.Background()

	slot, err := svc.SetCapacity(ctx, testNow, models.SetSlotCapacityRequest{MaxSlots: 8})
	require.NoError(t, err)
	assert.Equal(t, 8, slot.MaxSlots)

	_, err = svc.SetCapacity(ctx, testNow, models.SetSlotCapacityRequest{MaxSlots: 2})
	assert.ErrorIs(t, err, appErrors.ErrConflict)

	_, err = svc.SetCapacity(ctx, testNow, models.SetSlotCapacityRequest{MaxSlots: -1})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}
