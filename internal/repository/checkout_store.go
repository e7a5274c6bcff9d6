package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/noah-isme/career-services-api/internal/models"
)

// CheckoutStore keeps pending orders between checkout and payment confirmation.
type CheckoutStore struct {
	cache *CacheRepository
	ttl   time.Duration
}

// NewCheckoutStore constructs the store on top of the Redis cache.
func NewCheckoutStore(cache *CacheRepository, ttl time.Duration) *CheckoutStore {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &CheckoutStore{cache: cache, ttl: ttl}
}

func checkoutKey(userID string) string {
	return "checkout:" + userID
}

// Save replaces the pending order of a user.
func (s *CheckoutStore) Save(ctx context.Context, userID string, order models.PendingOrder) error {
	if err := s.cache.Set(ctx, checkoutKey(userID), order, s.ttl); err != nil {
		return fmt.Errorf("save pending order: %w", err)
	}
	return nil
}

// Load returns the pending order or ErrCacheMiss when it expired or never existed.
func (s *CheckoutStore) Load(ctx context.Context, userID string) (*models.PendingOrder, error) {
	var order models.PendingOrder
	if err := s.cache.Get(ctx, checkoutKey(userID), &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// Clear drops the pending order.
func (s *CheckoutStore) Clear(ctx context.Context, userID string) error {
	return s.cache.Delete(ctx, checkoutKey(userID))
}
