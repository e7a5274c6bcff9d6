package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Task is a periodic unit of work.
type Task func(ctx context.Context) error

// Every runs task immediately and then on each tick until ctx is cancelled.
// Errors are logged and never stop the loop.
func Every(ctx context.Context, name string, interval time.Duration, task Task, logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval <= 0 {
		logger.Warn("periodic task disabled", zap.String("task", name))
		return
	}

	run := func() {
		start := time.Now()
		if err := task(ctx); err != nil {
			logger.Error("periodic task failed", zap.String("task", name), zap.Error(err))
			return
		}
		logger.Debug("periodic task finished", zap.String("task", name), zap.Duration("took", time.Since(start)))
	}

	run()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			run()
		}
	}
}
