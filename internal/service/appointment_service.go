package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/career-services-api/internal/models"
	"github.com/noah-isme/career-services-api/pkg/clock"
	appErrors "github.com/noah-isme/career-services-api/pkg/errors"
)

const (
	// postponeReleaseWindow is how far out a postponement must land before the
	// resources held by the booking move with it.
	postponeReleaseWindow = 24 * time.Hour
	sessionLength         = time.Hour
)

type appointmentRepository interface {
	Create(ctx context.Context, appt *models.Appointment) error
	FindByID(ctx context.Context, id string) (*models.Appointment, error)
	Postpone(ctx context.Context, id string, fromStatus models.AppointmentStatus, next models.Reschedule) (bool, error)
	MarkDone(ctx context.Context, id string, fromStatus models.AppointmentStatus, notes string) (bool, error)
	MarkSLAComplied(ctx context.Context, id string) error
	List(ctx context.Context, filter models.AppointmentFilter) ([]models.AppointmentDetail, int, error)
}

type staffDirectory interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	FirstStaff(ctx context.Context) (*models.User, error)
}

type applicationStore interface {
	FirstApplication(ctx context.Context, userID string) (*models.JobApplication, error)
	CreateApplication(ctx context.Context, app *models.JobApplication) error
}

type activityRepository interface {
	CreateCalendarEvent(ctx context.Context, event *models.CalendarEvent) error
	CreateInteraction(ctx context.Context, interaction *models.Interaction) error
}

// AppointmentService owns the appointment lifecycle and its side effects on
// slot capacity and mock interview quota.
type AppointmentService struct {
	repo          appointmentRepository
	users         staffDirectory
	applications  applicationStore
	activity      activityRepository
	quota         *QuotaService
	slots         *SlotService
	notifications *NotificationService
	metrics       *MetricsService
	mockVideoLink string
	clock         clock.Clock
	validator     *validator.Validate
	logger        *zap.Logger
}

// AppointmentDependencies groups the collaborators of AppointmentService.
type AppointmentDependencies struct {
	Appointments  appointmentRepository
	Users         staffDirectory
	Applications  applicationStore
	Activity      activityRepository
	Quota         *QuotaService
	Slots         *SlotService
	Notifications *NotificationService
	Metrics       *MetricsService
	MockVideoLink string
	Clock         clock.Clock
	Validator     *validator.Validate
	Logger        *zap.Logger
}

// NewAppointmentService constructs the service.
func NewAppointmentService(deps AppointmentDependencies) *AppointmentService {
	if deps.Clock == nil {
		deps.Clock = clock.System{}
	}
	if deps.Validator == nil {
		deps.Validator = validator.New()
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &AppointmentService{
		repo:          deps.Appointments,
		users:         deps.Users,
		applications:  deps.Applications,
		activity:      deps.Activity,
		quota:         deps.Quota,
		slots:         deps.Slots,
		notifications: deps.Notifications,
		metrics:       deps.Metrics,
		mockVideoLink: deps.MockVideoLink,
		clock:         deps.Clock,
		validator:     deps.Validator,
		logger:        deps.Logger,
	}
}

// SLADue returns the service deadline of a session, or nil for types without one.
func SLADue(tier models.Tier, apptType models.AppointmentType, scheduledAt time.Time) *time.Time {
	if apptType != models.AppointmentOneOnOne {
		return nil
	}
	window := 4 * time.Hour
	if tier == models.TierProPlus {
		window = 2 * time.Hour
	}
	due := scheduledAt.Add(window)
	return &due
}

// Create books a staff-scheduled interview or one-on-one session. The slot of
// the date is reserved first and given back if the appointment cannot be stored.
func (s *AppointmentService) Create(ctx context.Context, req models.CreateAppointmentRequest, actorID string) (*models.Appointment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid appointment payload")
	}
	if req.Type != models.AppointmentInterview && req.Type != models.AppointmentOneOnOne {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown appointment type")
	}
	if !req.ScheduledAt.After(s.clock.Now()) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "scheduled_at must be in the future")
	}

	profile, err := s.quota.Profile(ctx, req.CandidateID)
	if err != nil {
		return nil, err
	}
	candidate, err := s.users.FindByID(ctx, req.CandidateID)
	if err != nil {
		return nil, lookupError(err, "candidate not found", "failed to load candidate")
	}

	if err := s.slots.Reserve(ctx, req.ScheduledAt); err != nil {
		return nil, err
	}

	slotDate := clock.StartOfDay(req.ScheduledAt)
	appt, err := s.persist(ctx, candidate.ID, func(applicationID string) *models.Appointment {
		consultant := req.ConsultantID
		if consultant == nil && actorID != "" {
			consultant = &actorID
		}
		return &models.Appointment{
			ApplicationID: applicationID,
			CandidateID:   candidate.ID,
			ConsultantID:  consultant,
			Type:          req.Type,
			Status:        models.AppointmentScheduled,
			ScheduledAt:   req.ScheduledAt.UTC(),
			SLADue:        SLADue(ResolveTier(profile), req.Type, req.ScheduledAt.UTC()),
			Notes:         strings.TrimSpace(req.Notes),
			SlotDate:      &slotDate,
		}
	})
	if err != nil {
		if releaseErr := s.slots.Release(ctx, req.ScheduledAt); releaseErr != nil {
			s.logger.Error("failed to release slot after booking failure", zap.Time("date", req.ScheduledAt), zap.Error(releaseErr))
		}
		return nil, err
	}
	s.metrics.AppointmentTransition(models.AppointmentScheduled)

	label := typeLabel(appt.Type)
	s.recordCalendar(ctx, appt, label+" - "+candidate.Username)
	s.notifications.Notify(ctx, candidate.ID, fmt.Sprintf("%s scheduled for %s.", label, formatWhen(appt.ScheduledAt)))
	s.recordInteraction(ctx, appt.ApplicationID, actorID, fmt.Sprintf("%s scheduled on %s", label, formatWhen(appt.ScheduledAt)))
	s.notifications.Email(label+" scheduled",
		fmt.Sprintf("Hello %s,\n\nYour %s is scheduled for %s.", displayName(candidate), strings.ToLower(label), formatWhen(appt.ScheduledAt)),
		candidate.Email)
	return appt, nil
}

// ScheduleMock books a mock interview for a Pro Plus candidate, consuming one
// unit of the monthly mock interview allowance.
func (s *AppointmentService) ScheduleMock(ctx context.Context, userID string, req models.ScheduleMockRequest) (*models.Appointment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid mock interview payload")
	}
	if !req.ScheduledAt.After(s.clock.Now()) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "scheduled_at must be in the future")
	}
	profile, err := s.quota.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if ResolveTier(profile) != models.TierProPlus {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "mock interviews are only available on Pro Plus")
	}
	if err := s.quota.Consume(ctx, userID, models.FeatureMockInterviews, 1); err != nil {
		return nil, err
	}

	consultant := s.pickConsultant(ctx, profile)
	link := s.mockVideoLink
	appt, err := s.persist(ctx, userID, func(applicationID string) *models.Appointment {
		return &models.Appointment{
			ApplicationID:   applicationID,
			CandidateID:     userID,
			ConsultantID:    consultant,
			Type:            models.AppointmentInterview,
			Status:          models.AppointmentScheduled,
			ScheduledAt:     req.ScheduledAt.UTC(),
			IsMockInterview: true,
			VideoLink:       &link,
			Notes:           strings.TrimSpace(req.Notes),
			MockUnitHeld:    true,
		}
	})
	if err != nil {
		if undoErr := s.quota.Decrement(ctx, userID, models.FeatureMockInterviews); undoErr != nil {
			s.logger.Error("failed to return mock interview quota", zap.String("user_id", userID), zap.Error(undoErr))
		}
		return nil, err
	}
	s.metrics.AppointmentTransition(models.AppointmentScheduled)

	s.recordCalendar(ctx, appt, "Mock Interview")
	s.notifications.Notify(ctx, userID, fmt.Sprintf("Mock interview scheduled for %s. Video Link: %s", formatWhen(appt.ScheduledAt), link))
	if candidate, err := s.users.FindByID(ctx, userID); err != nil {
		s.logger.Warn("mock interview confirmation not emailed", zap.String("user_id", userID), zap.Error(err))
	} else {
		s.notifications.Email("Mock interview scheduled",
			fmt.Sprintf("Hello %s,\n\nYour mock interview is scheduled for %s.\nVideo Link: %s", displayName(candidate), formatWhen(appt.ScheduledAt), link),
			candidate.Email)
	}
	return appt, nil
}

// Postpone moves an appointment to a new time. When the new time is more than
// a day away the resources held by the booking follow it: a held slot is
// re-reserved on the new date when that date has room and the old date is
// given back, and a held mock interview unit is returned. A full new date
// never blocks the postponement; the appointment just stops holding a slot.
func (s *AppointmentService) Postpone(ctx context.Context, id string, req models.PostponeAppointmentRequest, actorID string) (*models.Appointment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid postpone payload")
	}
	appt, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !appt.Status.CanTransitionTo(models.AppointmentPostponed) {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "completed appointments cannot be postponed")
	}
	now := s.clock.Now()
	if !req.ScheduledAt.After(now) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "scheduled_at must be in the future")
	}

	original := appt.ScheduledAt
	newTime := req.ScheduledAt.UTC()
	next := models.Reschedule{
		ScheduledAt:  newTime,
		SlotDate:     appt.SlotDate,
		MockUnitHeld: appt.MockUnitHeld,
		Notes:        appt.Notes,
	}
	if appt.SLADue != nil {
		due := newTime.Add(appt.SLADue.Sub(original))
		next.SLADue = &due
	}
	if req.Notes != nil {
		next.Notes = strings.TrimSpace(*req.Notes)
	}

	moving := newTime.Sub(now) > postponeReleaseWindow
	var reserved *time.Time
	if moving {
		next.MockUnitHeld = false
		if appt.SlotDate != nil && !sameDay(*appt.SlotDate, newTime) {
			reserved = s.reserveMoved(ctx, appt.ID, newTime)
			next.SlotDate = reserved
		}
	}

	ok, err := s.repo.Postpone(ctx, appt.ID, appt.Status, next)
	if err != nil || !ok {
		if reserved != nil {
			s.releaseSlot(ctx, appt.ID, *reserved)
		}
		if err != nil {
			return nil, appErrors.Internal(err, "failed to postpone appointment")
		}
		return nil, appErrors.Clone(appErrors.ErrConflict, "appointment was changed by another request")
	}
	s.metrics.AppointmentTransition(models.AppointmentPostponed)

	if moving {
		if appt.MockUnitHeld {
			if err := s.quota.Decrement(ctx, appt.CandidateID, models.FeatureMockInterviews); err != nil {
				s.logger.Error("failed to return mock interview quota", zap.String("appointment_id", appt.ID), zap.Error(err))
			}
		}
		if appt.SlotDate != nil && !sameDay(*appt.SlotDate, newTime) {
			s.releaseSlot(ctx, appt.ID, *appt.SlotDate)
		}
	}

	appt.Status = models.AppointmentPostponed
	appt.ScheduledAt = newTime
	appt.SLADue = next.SLADue
	appt.Notes = next.Notes
	appt.SlotDate = next.SlotDate
	appt.MockUnitHeld = next.MockUnitHeld

	s.recordInteraction(ctx, appt.ApplicationID, actorID, fmt.Sprintf("%s postponed to %s", typeLabel(appt.Type), formatWhen(newTime)))
	s.notifications.Notify(ctx, appt.CandidateID, fmt.Sprintf("Your %s has been moved to %s.", strings.ToLower(typeLabel(appt.Type)), formatWhen(newTime)))
	return appt, nil
}

// reserveMoved takes a slot on the day of newTime and returns that day, or nil
// when the day has no room.
func (s *AppointmentService) reserveMoved(ctx context.Context, appointmentID string, newTime time.Time) *time.Time {
	if err := s.slots.Reserve(ctx, newTime); err != nil {
		s.logger.Warn("postponed appointment holds no slot on its new date",
			zap.String("appointment_id", appointmentID), zap.Time("date", newTime), zap.Error(err))
		return nil
	}
	day := clock.StartOfDay(newTime)
	return &day
}

func (s *AppointmentService) releaseSlot(ctx context.Context, appointmentID string, day time.Time) {
	if err := s.slots.Release(ctx, day); err != nil {
		s.logger.Error("failed to release slot", zap.String("appointment_id", appointmentID), zap.Time("date", day), zap.Error(err))
	}
}

func sameDay(a, b time.Time) bool {
	return clock.StartOfDay(a).Equal(clock.StartOfDay(b))
}

// MarkDone closes an appointment, appending feedback to its notes.
func (s *AppointmentService) MarkDone(ctx context.Context, id string, req models.MarkDoneRequest, actorID string) (*models.Appointment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid feedback payload")
	}
	appt, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !appt.Status.CanTransitionTo(models.AppointmentDone) {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "appointment is already completed")
	}
	notes := appt.Notes
	if feedback := strings.TrimSpace(req.Feedback); feedback != "" {
		notes += "\n\nFeedback: " + feedback
	}
	ok, err := s.repo.MarkDone(ctx, appt.ID, appt.Status, notes)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to complete appointment")
	}
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrConflict, "appointment was changed by another request")
	}
	s.metrics.AppointmentTransition(models.AppointmentDone)

	appt.Status = models.AppointmentDone
	appt.Notes = notes
	s.recordInteraction(ctx, appt.ApplicationID, actorID, typeLabel(appt.Type)+" marked as done")
	s.notifications.Notify(ctx, appt.CandidateID, "Your interview has been marked as completed. Check for feedback.")
	return appt, nil
}

// MarkSLAComplied records that the SLA of an appointment was met.
func (s *AppointmentService) MarkSLAComplied(ctx context.Context, id string) error {
	if err := s.repo.MarkSLAComplied(ctx, id); err != nil {
		return lookupError(err, "appointment not found", "failed to update appointment")
	}
	return nil
}

// List returns appointments with pagination metadata.
func (s *AppointmentService) List(ctx context.Context, filter models.AppointmentFilter) ([]models.AppointmentDetail, *models.Pagination, error) {
	filter.Page, filter.PageSize = models.NormalisePage(filter.Page, filter.PageSize)
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list appointments")
	}
	return items, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

func (s *AppointmentService) load(ctx context.Context, id string) (*models.Appointment, error) {
	appt, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "appointment not found", "failed to load appointment")
	}
	return appt, nil
}

// persist resolves the application reference of the candidate and stores the
// appointment built from it.
func (s *AppointmentService) persist(ctx context.Context, candidateID string, build func(applicationID string) *models.Appointment) (*models.Appointment, error) {
	applicationID, err := s.applicationFor(ctx, candidateID)
	if err != nil {
		return nil, err
	}
	appt := build(applicationID)
	if err := s.repo.Create(ctx, appt); err != nil {
		return nil, appErrors.Internal(err, "failed to create appointment")
	}
	return appt, nil
}

// applicationFor returns the first application of the candidate, creating a
// general one when the candidate never applied.
func (s *AppointmentService) applicationFor(ctx context.Context, candidateID string) (string, error) {
	app, err := s.applications.FirstApplication(ctx, candidateID)
	if err == nil {
		return app.ID, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", appErrors.Internal(err, "failed to load application")
	}
	created := &models.JobApplication{UserID: candidateID, Status: models.ApplicationStatusApplied, AppliedAt: s.clock.Now().UTC()}
	if err := s.applications.CreateApplication(ctx, created); err != nil {
		return "", appErrors.Internal(err, "failed to create application")
	}
	return created.ID, nil
}

func (s *AppointmentService) pickConsultant(ctx context.Context, profile *models.Profile) *string {
	if profile.DedicatedConsultantID != nil && *profile.DedicatedConsultantID != "" {
		id := *profile.DedicatedConsultantID
		return &id
	}
	staff, err := s.users.FirstStaff(ctx)
	if err != nil {
		s.logger.Warn("no consultant available", zap.String("user_id", profile.UserID), zap.Error(err))
		return nil
	}
	return &staff.ID
}

func (s *AppointmentService) recordCalendar(ctx context.Context, appt *models.Appointment, title string) {
	event := &models.CalendarEvent{
		UserID:        appt.CandidateID,
		AppointmentID: appt.ID,
		Title:         title,
		StartsAt:      appt.ScheduledAt,
		EndsAt:        appt.ScheduledAt.Add(sessionLength),
	}
	if err := s.activity.CreateCalendarEvent(ctx, event); err != nil {
		s.logger.Warn("failed to create calendar event", zap.String("appointment_id", appt.ID), zap.Error(err))
	}
}

func (s *AppointmentService) recordInteraction(ctx context.Context, applicationID, actorID, message string) {
	if actorID == "" {
		return
	}
	interaction := &models.Interaction{ApplicationID: applicationID, ActorID: actorID, Message: message}
	if err := s.activity.CreateInteraction(ctx, interaction); err != nil {
		s.logger.Warn("failed to log interaction", zap.String("application_id", applicationID), zap.Error(err))
	}
}

func typeLabel(t models.AppointmentType) string {
	if t == models.AppointmentOneOnOne {
		return "One on one session"
	}
	return "Interview"
}

func formatWhen(t time.Time) string {
	return t.UTC().Format("02 Jan 2006 15:04 UTC")
}

func displayName(u *models.User) string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Username
}
