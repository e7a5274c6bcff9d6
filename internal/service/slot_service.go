package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/career-services-api/internal/models"
	"github.com/noah-isme/career-services-api/pkg/clock"
	appErrors "github.com/noah-isme/career-services-api/pkg/errors"
)

type slotRepository interface {
	GetOrCreate(ctx context.Context, date time.Time, defaultMax int) (*models.InterviewSlot, error)
	Reserve(ctx context.Context, date time.Time) (bool, error)
	Release(ctx context.Context, date time.Time) error
	SetCapacity(ctx context.Context, date time.Time, max int) (bool, error)
}

// SlotService manages the per-date interview capacity.
type SlotService struct {
	repo       slotRepository
	defaultMax int
	metrics    *MetricsService
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewSlotService constructs the service. defaultMax applies to dates seen for the first time.
func NewSlotService(repo slotRepository, defaultMax int, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *SlotService {
	if defaultMax <= 0 {
		defaultMax = 5
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SlotService{repo: repo, defaultMax: defaultMax, metrics: metrics, validator: validate, logger: logger}
}

// GetOrCreate returns the slot of a date, creating it at default capacity.
func (s *SlotService) GetOrCreate(ctx context.Context, date time.Time) (*models.InterviewSlot, error) {
	slot, err := s.repo.GetOrCreate(ctx, clock.StartOfDay(date), s.defaultMax)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load interview slot")
	}
	return slot, nil
}

// CanSchedule reports whether the date still has free capacity. The answer is
// advisory; only Reserve guarantees a booking.
func (s *SlotService) CanSchedule(ctx context.Context, date time.Time) (bool, error) {
	slot, err := s.GetOrCreate(ctx, date)
	if err != nil {
		return false, err
	}
	return slot.CanSchedule(), nil
}

// Reserve takes one unit of capacity for the date or fails with SLOT_UNAVAILABLE.
func (s *SlotService) Reserve(ctx context.Context, date time.Time) error {
	day := clock.StartOfDay(date)
	if _, err := s.repo.GetOrCreate(ctx, day, s.defaultMax); err != nil {
		return appErrors.Internal(err, "failed to load interview slot")
	}
	ok, err := s.repo.Reserve(ctx, day)
	if err != nil {
		return appErrors.Internal(err, "failed to reserve interview slot")
	}
	s.metrics.SlotReservation(ok)
	if !ok {
		return appErrors.Clone(appErrors.ErrSlotUnavailable, "no available slots on "+day.Format("2006-01-02"))
	}
	return nil
}

// Release gives one unit of capacity back, never going below zero.
func (s *SlotService) Release(ctx context.Context, date time.Time) error {
	if err := s.repo.Release(ctx, clock.StartOfDay(date)); err != nil {
		return appErrors.Internal(err, "failed to release interview slot")
	}
	return nil
}

// SetCapacity changes the capacity of a date. Capacity below the current
// bookings is rejected.
func (s *SlotService) SetCapacity(ctx context.Context, date time.Time, req models.SetSlotCapacityRequest) (*models.InterviewSlot, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid slot capacity")
	}
	day := clock.StartOfDay(date)
	if _, err := s.repo.GetOrCreate(ctx, day, s.defaultMax); err != nil {
		return nil, appErrors.Internal(err, "failed to load interview slot")
	}
	ok, err := s.repo.SetCapacity(ctx, day, req.MaxSlots)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to update slot capacity")
	}
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrConflict, "capacity is below the number of booked slots")
	}
	s.logger.Info("slot capacity updated", zap.Time("date", day), zap.Int("max_slots", req.MaxSlots))
	return s.GetOrCreate(ctx, day)
}
