package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueProcessesJobs(t *testing.T) {
	var handled atomic.Int32
	q := NewQueue("email", func(_ context.Context, job Job) error {
		handled.Add(1)
		return nil
	}, QueueConfig{Workers: 2})
	q.Start(context.Background())
	defer q.Stop()

	for i := 0; i < 5; i++ {
		require.NoError(t, q.Enqueue(Job{Type: "welcome"}))
	}
	assert.Eventually(t, func() bool { return q.Processed() == 5 }, time.Second, 5*time.Millisecond)
	assert.EqualValues(t, 5, handled.Load())
}

func TestQueueRetriesThenDrops(t *testing.T) {
	var attempts atomic.Int32
	q := NewQueue("email", func(_ context.Context, job Job) error {
		attempts.Add(1)
		return errors.New("smtp down")
	}, QueueConfig{MaxRetries: 2, RetryDelay: time.Millisecond})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{Type: "sla_alert"}))
	assert.Eventually(t, func() bool { return q.Failed() == 1 }, time.Second, 5*time.Millisecond)
	assert.EqualValues(t, 3, attempts.Load())
}

func TestEnqueueBeforeStart(t *testing.T) {
	q := NewQueue("email", func(context.Context, Job) error { return nil }, QueueConfig{})
	assert.Error(t, q.Enqueue(Job{}))
}

func TestEveryRunsUntilCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var runs atomic.Int32
	done := make(chan struct{})
	go func() {
		Every(ctx, "sla_scan", time.Millisecond, func(context.Context) error {
			if runs.Add(1) == 2 {
				return errors.New("transient")
			}
			return nil
		}, nil)
		close(done)
	}()

	assert.Eventually(t, func() bool { return runs.Load() >= 3 }, time.Second, time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Every did not return after cancel")
	}
}
