package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingCache struct{}

func (failingCache) Get(ctx context.Context, key string, dest interface{}) error {
	return errors.New("connection refused")
}

func (failingCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return errors.New("connection refused")
}

func (failingCache) Delete(ctx context.Context, keys ...string) error {
	return errors.New("connection refused")
}

func (failingCache) DeleteByPattern(ctx context.Context, pattern string) error {
	return errors.New("connection refused")
}

func TestCacheServiceRoundTripRecordsMetrics(t *testing.T) {
	repo := newFakeCache()
	metrics := NewMetricsService()
	svc := NewCacheService(repo, metrics, 0, nil, true)
	ctx := context.Background()

	var out map[string]int
	assert.False(t, svc.Get(ctx, "k", &out))

	svc.Set(ctx, "k", map[string]int{"a": 1}, 0)
	require.True(t, svc.Get(ctx, "k", &out))
	assert.Equal(t, 1, out["a"])

	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.cacheLookups.WithLabelValues("hit")))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.cacheLookups.WithLabelValues("miss")))

	svc.Invalidate(ctx, "k")
	assert.False(t, svc.Get(ctx, "k", &out))
}

func TestCacheServiceDisabled(t *testing.T) {
	repo := newFakeCache()
	svc := NewCacheService(repo, nil, time.Minute, nil, false)

	svc.Set(context.Background(), "k", 1, 0)
	var out int
	assert.False(t, svc.Get(context.Background(), "k", &out))
	assert.Empty(t, repo.items)
	assert.Zero(t, repo.gets)

	var nilSvc *CacheService
	assert.False(t, nilSvc.Enabled())
	assert.False(t, nilSvc.Get(context.Background(), "k", &out))
}

func TestCacheServiceFailuresAreMisses(t *testing.T) {
	svc := NewCacheService(failingCache{}, nil, time.Minute, nil, true)
	var out int

	assert.False(t, svc.Get(context.Background(), "k", &out))
	assert.NotPanics(t, func() {
		svc.Set(context.Background(), "k", 1, 0)
		svc.Invalidate(context.Background(), "k")
	})
}

func TestMetricsServiceNilSafe(t *testing.T) {
	var m *MetricsService
	assert.NotPanics(t, func() {
		m.ObserveHTTPRequest("GET", "/", 200, time.Millisecond)
		m.SLAViolation()
		m.EmailDropped()
		m.SlotReservation(true)
	})
	assert.Nil(t, m.Registry())
}

func TestMetricsServiceCountsDomainEvents(t *testing.T) {
	m := NewMetricsService()
	m.SlotReservation(true)
	m.SlotReservation(false)
	m.SLAViolation()

	assert.Equal(t, float64(1), testutil.ToFloat64(m.slotReservation.WithLabelValues("full")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.slaViolations))
}
