package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/career-services-api/internal/models"
	"github.com/noah-isme/career-services-api/pkg/clock"
	appErrors "github.com/noah-isme/career-services-api/pkg/errors"
)

type quotaProfileRepository interface {
	FindByUserID(ctx context.Context, userID string) (*models.Profile, error)
	Increment(ctx context.Context, userID string, feature models.Feature, amount float64) error
	Consume(ctx context.Context, userID string, feature models.Feature, amount float64, limit *int) (bool, error)
	Decrement(ctx context.Context, userID string, feature models.Feature, amount float64) error
	ResetAll(ctx context.Context, periodStart time.Time) (int64, error)
}

// QuotaService meters feature usage against tier limits. The persisted
// counters are the only record of usage in the current period.
type QuotaService struct {
	profiles quotaProfileRepository
	cache    *CacheService
	metrics  *MetricsService
	clock    clock.Clock
	logger   *zap.Logger
}

// NewQuotaService constructs the service.
func NewQuotaService(profiles quotaProfileRepository, cache *CacheService, metrics *MetricsService, clk clock.Clock, logger *zap.Logger) *QuotaService {
	if clk == nil {
		clk = clock.System{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QuotaService{profiles: profiles, cache: cache, metrics: metrics, clock: clk, logger: logger}
}

const summaryKeyPrefix = "quota:summary:"

func summaryKey(userID string) string {
	return summaryKeyPrefix + userID
}

// Profile loads the profile of a user.
func (s *QuotaService) Profile(ctx context.Context, userID string) (*models.Profile, error) {
	profile, err := s.profiles.FindByUserID(ctx, userID)
	if err != nil {
		return nil, lookupError(err, "profile not found", "failed to load profile")
	}
	return profile, nil
}

// CanUse reports whether the user has at least one unit of feature left.
func (s *QuotaService) CanUse(ctx context.Context, userID string, feature models.Feature) (bool, error) {
	if !feature.Valid() {
		return false, appErrors.Clone(appErrors.ErrValidation, "unknown feature")
	}
	profile, err := s.Profile(ctx, userID)
	if err != nil {
		return false, err
	}
	return canUse(profile, feature), nil
}

func canUse(profile *models.Profile, feature models.Feature) bool {
	allowed := featureLimit(profile, feature)
	if allowed == nil {
		return true
	}
	return profile.Used(feature) < float64(*allowed)
}

// Increment adds amount to the counter without checking the limit. It is used
// to record usage that already happened.
func (s *QuotaService) Increment(ctx context.Context, userID string, feature models.Feature, amount float64) error {
	amount, err := normaliseAmount(feature, amount)
	if err != nil {
		return err
	}
	if err := s.profiles.Increment(ctx, userID, feature, amount); err != nil {
		return lookupError(err, "profile not found", "failed to record usage")
	}
	s.metrics.QuotaConsumed(feature, amount)
	s.cache.Invalidate(ctx, summaryKey(userID))
	return nil
}

// Consume admits and records amount units of feature in one atomic step, or
// fails with QUOTA_EXCEEDED leaving the counter untouched.
func (s *QuotaService) Consume(ctx context.Context, userID string, feature models.Feature, amount float64) error {
	amount, err := normaliseAmount(feature, amount)
	if err != nil {
		return err
	}
	profile, err := s.Profile(ctx, userID)
	if err != nil {
		return err
	}
	allowed := featureLimit(profile, feature)
	ok, err := s.profiles.Consume(ctx, userID, feature, amount, allowed)
	if err != nil {
		return appErrors.Internal(err, "failed to record usage")
	}
	if !ok {
		s.metrics.QuotaRejected(feature)
		return appErrors.Clone(appErrors.ErrQuotaExceeded, exceededMessage(feature, allowed))
	}
	s.metrics.QuotaConsumed(feature, amount)
	s.cache.Invalidate(ctx, summaryKey(userID))
	return nil
}

// Decrement gives back one unit of feature, flooring at zero.
func (s *QuotaService) Decrement(ctx context.Context, userID string, feature models.Feature) error {
	if !feature.Valid() {
		return appErrors.Clone(appErrors.ErrValidation, "unknown feature")
	}
	if err := s.profiles.Decrement(ctx, userID, feature, 1); err != nil {
		return lookupError(err, "profile not found", "failed to release usage")
	}
	s.cache.Invalidate(ctx, summaryKey(userID))
	return nil
}

// ResetMonthly starts the current calendar month for every profile still in an
// earlier one. Running it again within the month changes nothing.
func (s *QuotaService) ResetMonthly(ctx context.Context) (int64, error) {
	period := clock.StartOfMonth(s.clock.Now())
	affected, err := s.profiles.ResetAll(ctx, period)
	if err != nil {
		return 0, appErrors.Internal(err, "failed to reset usage counters")
	}
	if affected > 0 {
		s.cache.InvalidatePattern(ctx, summaryKeyPrefix+"*")
		s.logger.Info("usage counters reset", zap.Time("period_start", period), zap.Int64("profiles", affected))
	}
	return affected, nil
}

// Usage summarises every feature for a user.
func (s *QuotaService) Usage(ctx context.Context, userID string) (*models.QuotaSummary, error) {
	var cached models.QuotaSummary
	if s.cache.Get(ctx, summaryKey(userID), &cached) && !cached.PeriodStart.Before(clock.StartOfMonth(s.clock.Now())) {
		return &cached, nil
	}
	profile, err := s.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}
	summary := Summarise(profile)
	s.cache.Set(ctx, summaryKey(userID), summary, 0)
	return summary, nil
}

// Summarise computes the quota summary of a profile.
func Summarise(profile *models.Profile) *models.QuotaSummary {
	summary := &models.QuotaSummary{
		UserID:      profile.UserID,
		Tier:        ResolveTier(profile),
		PeriodStart: profile.PeriodStart,
		Features:    make([]models.FeatureUsage, 0, len(models.Features)),
	}
	limits := LimitsFor(profile)
	for _, feature := range models.Features {
		used := profile.Used(feature)
		usage := models.FeatureUsage{Feature: feature, Used: used, Limit: limits[feature]}
		switch allowed := limits[feature]; {
		case allowed == nil:
			usage.Unlimited = true
			usage.Percent = 100
		case *allowed == 0:
			usage.Remaining = floatPtr(0)
		default:
			usage.Remaining = floatPtr(math.Max(float64(*allowed)-used, 0))
			usage.Percent = math.Min(used/float64(*allowed)*100, 100)
		}
		summary.Features = append(summary.Features, usage)
	}
	return summary
}

func normaliseAmount(feature models.Feature, amount float64) (float64, error) {
	if !feature.Valid() {
		return 0, appErrors.Clone(appErrors.ErrValidation, "unknown feature")
	}
	if amount == 0 {
		amount = 1
	}
	if amount < 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return 0, appErrors.Clone(appErrors.ErrValidation, "amount must be positive")
	}
	if feature != models.FeatureConsultantHours && amount != math.Trunc(amount) {
		return 0, appErrors.Clone(appErrors.ErrValidation, "amount must be a whole number for "+string(feature))
	}
	return amount, nil
}

func exceededMessage(feature models.Feature, allowed *int) string {
	switch {
	case allowed == nil:
		return fmt.Sprintf("%s limit reached for this month", feature)
	case *allowed == 0:
		return fmt.Sprintf("%s is not included in your plan", feature)
	default:
		return fmt.Sprintf("%s limit of %d reached for this month", feature, *allowed)
	}
}

func floatPtr(v float64) *float64 { return &v }

// InvalidateSummary drops the cached summary after a tier change.
func (s *QuotaService) InvalidateSummary(ctx context.Context, userID string) {
	s.cache.Invalidate(ctx, summaryKey(userID))
}
