package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/career-services-api/internal/models"
	"github.com/noah-isme/career-services-api/pkg/clock"
	appErrors "github.com/noah-isme/career-services-api/pkg/errors"
)

const annualReviewNotes = "Annual Outcome Review"

type slaRepository interface {
	ListSLAViolations(ctx context.Context, now time.Time) ([]models.AppointmentDetail, error)
}

type reviewCandidateRepository interface {
	ListAnnualReviewCandidates(ctx context.Context, year int, yearStart, yearEnd time.Time) ([]models.Profile, error)
}

type annualReviewRepository interface {
	Schedule(ctx context.Context, userID string, year int, appt *models.Appointment) (bool, error)
}

// MaintenanceService runs the periodic sweeps: monthly usage reset, SLA
// violation alerts and annual review booking. Running more than one instance
// concurrently is not coordinated here.
type MaintenanceService struct {
	quota         *QuotaService
	appointments  *AppointmentService
	violations    slaRepository
	candidates    reviewCandidateRepository
	reviews       annualReviewRepository
	notifications *NotificationService
	metrics       *MetricsService
	clock         clock.Clock
	logger        *zap.Logger
}

// NewMaintenanceService constructs the service.
func NewMaintenanceService(quota *QuotaService, appointments *AppointmentService, violations slaRepository, candidates reviewCandidateRepository, reviews annualReviewRepository, notifications *NotificationService, metrics *MetricsService, clk clock.Clock, logger *zap.Logger) *MaintenanceService {
	if clk == nil {
		clk = clock.System{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MaintenanceService{
		quota:         quota,
		appointments:  appointments,
		violations:    violations,
		candidates:    candidates,
		reviews:       reviews,
		notifications: notifications,
		metrics:       metrics,
		clock:         clk,
		logger:        logger,
	}
}

// ResetMonthlyQuotas rolls every profile over to the current month.
func (s *MaintenanceService) ResetMonthlyQuotas(ctx context.Context) error {
	_, err := s.quota.ResetMonthly(ctx)
	return err
}

// ScanSLAViolations alerts the consultant of every appointment whose SLA
// lapsed before now without being met. A failing alert does not stop the scan.
// Alerts repeat on every run until the SLA is marked complied.
func (s *MaintenanceService) ScanSLAViolations(ctx context.Context, now time.Time) (int, error) {
	overdue, err := s.violations.ListSLAViolations(ctx, now)
	if err != nil {
		return 0, appErrors.Internal(err, "failed to list sla violations")
	}
	alerted := 0
	for _, appt := range overdue {
		if ctx.Err() != nil {
			return alerted, ctx.Err()
		}
		s.metrics.SLAViolation()
		if appt.ConsultantID == nil {
			s.logger.Warn("sla violation without consultant", zap.String("appointment_id", appt.ID))
			continue
		}
		message := fmt.Sprintf("Appointment %s with %s is overdue.", appt.ID, appt.CandidateName)
		s.notifications.Notify(ctx, *appt.ConsultantID, message)
		if appt.ConsultantEmail != nil {
			s.notifications.Email("SLA Violation", message, *appt.ConsultantEmail)
		}
		alerted++
	}
	if len(overdue) > 0 {
		s.logger.Info("sla scan finished", zap.Int("overdue", len(overdue)), zap.Int("alerted", alerted))
	}
	return alerted, nil
}

// TriggerAnnualReviews books a one-on-one outcome review for every Pro Plus
// member whose subscription ends this year and who has none booked yet.
func (s *MaintenanceService) TriggerAnnualReviews(ctx context.Context, now time.Time) (int, error) {
	now = now.UTC()
	year := now.Year()
	yearStart := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	profiles, err := s.candidates.ListAnnualReviewCandidates(ctx, year, yearStart, yearStart.AddDate(1, 0, 0))
	if err != nil {
		return 0, appErrors.Internal(err, "failed to list annual review candidates")
	}

	scheduledAt := clock.StartOfDay(now).AddDate(0, 0, 7).Add(10 * time.Hour)
	created := 0
	for i := range profiles {
		if ctx.Err() != nil {
			return created, ctx.Err()
		}
		profile := &profiles[i]
		ok, err := s.scheduleReview(ctx, profile, year, scheduledAt)
		if err != nil {
			s.logger.Error("annual review not scheduled", zap.String("user_id", profile.UserID), zap.Error(err))
			continue
		}
		if ok {
			created++
			s.notifications.Notify(ctx, profile.UserID, fmt.Sprintf("Your annual outcome review is scheduled for %s.", formatWhen(scheduledAt)))
		}
	}
	if created > 0 {
		s.logger.Info("annual reviews scheduled", zap.Int("year", year), zap.Int("count", created))
	}
	return created, nil
}

func (s *MaintenanceService) scheduleReview(ctx context.Context, profile *models.Profile, year int, scheduledAt time.Time) (bool, error) {
	applicationID, err := s.appointments.applicationFor(ctx, profile.UserID)
	if err != nil {
		return false, err
	}
	appt := &models.Appointment{
		ApplicationID: applicationID,
		CandidateID:   profile.UserID,
		ConsultantID:  s.appointments.pickConsultant(ctx, profile),
		Type:          models.AppointmentOneOnOne,
		Status:        models.AppointmentScheduled,
		ScheduledAt:   scheduledAt,
		Notes:         annualReviewNotes,
	}
	return s.reviews.Schedule(ctx, profile.UserID, year, appt)
}
