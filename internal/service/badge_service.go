package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/career-services-api/internal/models"
	"github.com/noah-isme/career-services-api/pkg/clock"
	appErrors "github.com/noah-isme/career-services-api/pkg/errors"
)

type badgeRepository interface {
	List(ctx context.Context) ([]models.Badge, error)
	Award(ctx context.Context, userID, badgeID string, at time.Time) (bool, error)
}

// BadgeStats exposes the counters badge criteria are evaluated against.
type BadgeStats interface {
	CountApplications(ctx context.Context, userID string) (int, error)
	CountCertified(ctx context.Context, userID string) (int, error)
	CountMockInterviewsDone(ctx context.Context, userID string) (int, error)
}

// BadgeService evaluates stored badge criteria and awards the ones a user meets.
type BadgeService struct {
	badges        badgeRepository
	stats         BadgeStats
	quota         *QuotaService
	notifications *NotificationService
	clock         clock.Clock
	logger        *zap.Logger
}

// NewBadgeService constructs the service.
func NewBadgeService(badges badgeRepository, stats BadgeStats, quota *QuotaService, notifications *NotificationService, clk clock.Clock, logger *zap.Logger) *BadgeService {
	if clk == nil {
		clk = clock.System{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BadgeService{badges: badges, stats: stats, quota: quota, notifications: notifications, clock: clk, logger: logger}
}

// Award evaluates every badge for a user and grants those whose criteria pass.
// Badges already held are not granted twice.
func (s *BadgeService) Award(ctx context.Context, userID string) (*models.AwardResult, error) {
	snapshot, err := s.Metrics(ctx, userID)
	if err != nil {
		return nil, err
	}
	badges, err := s.badges.List(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list badges")
	}

	result := &models.AwardResult{UserID: userID, Awarded: []string{}}
	now := s.clock.Now().UTC()
	for _, badge := range badges {
		criteria, err := ParseCriteria(badge.Criteria)
		if err != nil {
			s.logger.Warn("invalid badge criteria", zap.String("badge", badge.Name), zap.Error(err))
			continue
		}
		if !s.matches(badge.Name, criteria, snapshot) {
			continue
		}
		awarded, err := s.badges.Award(ctx, userID, badge.ID, now)
		if err != nil {
			return nil, appErrors.Internal(err, "failed to award badge")
		}
		if awarded {
			result.Awarded = append(result.Awarded, badge.Name)
			s.notifications.Notify(ctx, userID, "You earned the "+badge.Name+" badge.")
		}
	}
	return result, nil
}

// Metrics gathers the current metric snapshot of a user.
func (s *BadgeService) Metrics(ctx context.Context, userID string) (models.BadgeMetrics, error) {
	profile, err := s.quota.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}
	applications, err := s.stats.CountApplications(ctx, userID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to count applications")
	}
	certified, err := s.stats.CountCertified(ctx, userID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to count certified courses")
	}
	mocks, err := s.stats.CountMockInterviewsDone(ctx, userID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to count mock interviews")
	}
	return models.BadgeMetrics{
		models.MetricApplicationsCount:  float64(applications),
		models.MetricCertifiedCourses:   float64(certified),
		models.MetricMockInterviewsDone: float64(mocks),
		models.MetricReferrals:          float64(profile.Referrals),
	}, nil
}

func (s *BadgeService) matches(badge string, criteria []models.BadgeCriterion, snapshot models.BadgeMetrics) bool {
	for _, criterion := range criteria {
		ok, err := EvaluateCriterion(criterion, snapshot)
		if err != nil {
			s.logger.Warn("badge criterion skipped", zap.String("badge", badge), zap.Error(err))
			return false
		}
		if !ok {
			return false
		}
	}
	return true
}

// ParseCriteria decodes a single criterion object or a list of criteria that
// must all hold. An empty list never matches.
func ParseCriteria(raw []byte) ([]models.BadgeCriterion, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty criteria")
	}
	var criteria []models.BadgeCriterion
	if trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &criteria); err != nil {
			return nil, fmt.Errorf("decode criteria: %w", err)
		}
	} else {
		var single models.BadgeCriterion
		if err := json.Unmarshal(trimmed, &single); err != nil {
			return nil, fmt.Errorf("decode criteria: %w", err)
		}
		criteria = append(criteria, single)
	}
	if len(criteria) == 0 {
		return nil, fmt.Errorf("empty criteria")
	}
	return criteria, nil
}

// EvaluateCriterion compares one metric of the snapshot against the criterion.
func EvaluateCriterion(c models.BadgeCriterion, snapshot models.BadgeMetrics) (bool, error) {
	value, ok := snapshot[c.Metric]
	if !ok {
		return false, fmt.Errorf("unknown metric %q", c.Metric)
	}
	switch c.Op {
	case ">=":
		return value >= c.Value, nil
	case ">":
		return value > c.Value, nil
	case "==":
		return value == c.Value, nil
	case "<=":
		return value <= c.Value, nil
	case "<":
		return value < c.Value, nil
	default:
		return false, fmt.Errorf("unknown operator %q", c.Op)
	}
}

// StatsSources adapts the repositories owning each counter to BadgeStats.
type StatsSources struct {
	Applications interface {
		CountApplications(ctx context.Context, userID string) (int, error)
	}
	Enrollments interface {
		CountCertified(ctx context.Context, userID string) (int, error)
	}
	Appointments interface {
		CountMockInterviewsDone(ctx context.Context, userID string) (int, error)
	}
}

func (s StatsSources) CountApplications(ctx context.Context, userID string) (int, error) {
	return s.Applications.CountApplications(ctx, userID)
}

func (s StatsSources) CountCertified(ctx context.Context, userID string) (int, error) {
	return s.Enrollments.CountCertified(ctx, userID)
}

func (s StatsSources) CountMockInterviewsDone(ctx context.Context, userID string) (int, error) {
	return s.Appointments.CountMockInterviewsDone(ctx, userID)
}
