package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/career-services-api/pkg/errors"
	"github.com/noah-isme/career-services-api/pkg/response"
)

// Rule limits a route to Limit hits per Window for a single client.
type Rule struct {
	Name   string
	Limit  int64
	Window time.Duration
}

// Limiter counts hits in fixed windows stored in Redis.
type Limiter struct {
	client  *redis.Client
	logger  *zap.Logger
	enabled bool
	now     func() time.Time
}

// New builds a limiter. A nil client disables limiting.
func New(client *redis.Client, enabled bool, logger *zap.Logger) *Limiter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Limiter{client: client, logger: logger, enabled: enabled && client != nil, now: time.Now}
}

// Allow records a hit for key and reports whether it is within the rule.
// Redis failures admit the request.
func (l *Limiter) Allow(ctx context.Context, rule Rule, key string) (bool, int64) {
	if l == nil || !l.enabled {
		return true, rule.Limit
	}
	window := rule.Window
	if window <= 0 {
		window = time.Minute
	}
	bucket := l.now().UTC().UnixNano() / int64(window)
	redisKey := fmt.Sprintf("ratelimit:%s:%s:%d", rule.Name, key, bucket)

	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.Expire(ctx, redisKey, window)
	if _, err := pipe.Exec(ctx); err != nil {
		l.logger.Warn("rate limit check failed, allowing request", zap.String("rule", rule.Name), zap.Error(err))
		return true, rule.Limit
	}

	count := incr.Val()
	remaining := rule.Limit - count
	if remaining < 0 {
		remaining = 0
	}
	return count <= rule.Limit, remaining
}

// Middleware enforces rule per client IP.
func (l *Limiter) Middleware(rule Rule) gin.HandlerFunc {
	return func(c *gin.Context) {
		allowed, remaining := l.Allow(c.Request.Context(), rule, c.ClientIP())
		c.Header("X-RateLimit-Limit", strconv.FormatInt(rule.Limit, 10))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
		if !allowed {
			response.Error(c, appErrors.ErrRateLimited)
			c.Abort()
			return
		}
		c.Next()
	}
}
