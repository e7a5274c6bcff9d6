package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/career-services-api/internal/models"
	"github.com/noah-isme/career-services-api/internal/repository"
	"github.com/noah-isme/career-services-api/pkg/clock"
	appErrors "github.com/noah-isme/career-services-api/pkg/errors"
)

type courseRepository interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
	ListSteps(ctx context.Context, courseID string) ([]models.CourseStep, error)
}

type enrollmentRepository interface {
	Exists(ctx context.Context, profileID, courseID string) (bool, error)
	Create(ctx context.Context, enrollment *models.Enrollment, steps []models.CourseStep) error
	FindByID(ctx context.Context, id string) (*models.Enrollment, error)
	ListProgress(ctx context.Context, enrollmentID string) ([]models.UserProgress, error)
	UpdateStepStatus(ctx context.Context, enrollmentID, stepID string, status models.ProgressStatus) error
	AdvanceStage(ctx context.Context, id string, from, to models.EnrollmentStage, completedAt *time.Time) (bool, error)
	EnsureCertificate(ctx context.Context, enrollmentID, code string, issuedAt time.Time) (bool, error)
	FindCertificate(ctx context.Context, enrollmentID string) (*models.Certificate, error)
}

// ProgressService tracks course enrollments through their stages.
type ProgressService struct {
	courses       courseRepository
	enrollments   enrollmentRepository
	quota         *QuotaService
	notifications *NotificationService
	clock         clock.Clock
	validator     *validator.Validate
	logger        *zap.Logger
}

// NewProgressService constructs the service.
func NewProgressService(courses courseRepository, enrollments enrollmentRepository, quota *QuotaService, notifications *NotificationService, clk clock.Clock, validate *validator.Validate, logger *zap.Logger) *ProgressService {
	if clk == nil {
		clk = clock.System{}
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProgressService{
		courses:       courses,
		enrollments:   enrollments,
		quota:         quota,
		notifications: notifications,
		clock:         clk,
		validator:     validate,
		logger:        logger,
	}
}

// Enroll registers a user on a course, consuming one course unit of the
// monthly allowance.
func (s *ProgressService) Enroll(ctx context.Context, userID, courseID string) (*models.EnrollmentView, error) {
	profile, err := s.quota.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}
	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		return nil, lookupError(err, "course not found", "failed to load course")
	}
	if !course.Active {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "course is not open for enrollment")
	}
	if !ResolveTier(profile).AtLeast(course.TierRequired) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "course requires the "+string(course.TierRequired)+" plan")
	}
	exists, err := s.enrollments.Exists(ctx, profile.ID, course.ID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to check enrollment")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "already enrolled in this course")
	}
	steps, err := s.courses.ListSteps(ctx, course.ID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load course steps")
	}

	if err := s.quota.Consume(ctx, userID, models.FeatureCourses, 1); err != nil {
		return nil, err
	}
	enrollment := &models.Enrollment{
		ProfileID:    profile.ID,
		UserID:       userID,
		CourseID:     course.ID,
		CurrentStage: models.StageEnrolled,
		EnrolledAt:   s.clock.Now().UTC(),
	}
	if err := s.enrollments.Create(ctx, enrollment, steps); err != nil {
		if undoErr := s.quota.Decrement(ctx, userID, models.FeatureCourses); undoErr != nil {
			s.logger.Error("failed to return course quota", zap.String("user_id", userID), zap.Error(undoErr))
		}
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "already enrolled in this course")
		}
		return nil, appErrors.Internal(err, "failed to create enrollment")
	}

	s.notifications.Notify(ctx, userID, "You are enrolled in "+course.Title+".")
	return s.view(ctx, enrollment, course)
}

// UpdateProgress applies step status changes and advances the enrollment
// when every step is complete.
func (s *ProgressService) UpdateProgress(ctx context.Context, enrollmentID string, req models.UpdateProgressRequest) (*models.EnrollmentView, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid progress payload")
	}
	if _, err := s.load(ctx, enrollmentID); err != nil {
		return nil, err
	}
	for _, update := range req.Steps {
		if !update.Status.Valid() {
			return nil, appErrors.Clone(appErrors.ErrValidation, "unknown step status")
		}
		if err := s.enrollments.UpdateStepStatus(ctx, enrollmentID, update.StepID, update.Status); err != nil {
			return nil, lookupError(err, "step "+update.StepID+" is not part of this enrollment", "failed to update step progress")
		}
	}
	if _, _, err := s.AdvanceIfReady(ctx, enrollmentID); err != nil {
		return nil, err
	}
	return s.Get(ctx, enrollmentID)
}

// AdvanceIfReady moves the enrollment exactly one stage forward when every
// step is COMPLETED. At CERTIFIED it only makes sure the certificate exists.
// The stage change is conditional on the stage read, so concurrent callers
// cannot skip a stage.
func (s *ProgressService) AdvanceIfReady(ctx context.Context, enrollmentID string) (*models.Enrollment, bool, error) {
	enrollment, err := s.load(ctx, enrollmentID)
	if err != nil {
		return nil, false, err
	}
	if enrollment.CurrentStage == models.StageCertified {
		if err := s.ensureCertificate(ctx, enrollment); err != nil {
			return nil, false, err
		}
		return enrollment, false, nil
	}

	progress, err := s.enrollments.ListProgress(ctx, enrollmentID)
	if err != nil {
		return nil, false, appErrors.Internal(err, "failed to load step progress")
	}
	for _, row := range progress {
		if row.Status != models.ProgressCompleted {
			return enrollment, false, nil
		}
	}

	next, ok := enrollment.CurrentStage.Next()
	if !ok {
		return nil, false, appErrors.Internal(errors.New("unknown stage "+string(enrollment.CurrentStage)), "failed to advance enrollment")
	}
	var completedAt *time.Time
	if next == models.StageCertified {
		now := s.clock.Now().UTC()
		completedAt = &now
	}
	advanced, err := s.enrollments.AdvanceStage(ctx, enrollment.ID, enrollment.CurrentStage, next, completedAt)
	if err != nil {
		return nil, false, appErrors.Internal(err, "failed to advance enrollment")
	}
	if !advanced {
		current, err := s.load(ctx, enrollmentID)
		return current, false, err
	}

	enrollment.CurrentStage = next
	if completedAt != nil {
		enrollment.CompletedAt = completedAt
	}
	s.logger.Info("enrollment advanced", zap.String("enrollment_id", enrollment.ID), zap.String("stage", string(next)))
	if next == models.StageCertified {
		if err := s.ensureCertificate(ctx, enrollment); err != nil {
			return nil, false, err
		}
		s.notifications.Notify(ctx, enrollment.UserID, "Congratulations, you completed your course.")
	}
	return enrollment, true, nil
}

// Get returns the enrollment with its steps and certificate.
func (s *ProgressService) Get(ctx context.Context, enrollmentID string) (*models.EnrollmentView, error) {
	enrollment, err := s.load(ctx, enrollmentID)
	if err != nil {
		return nil, err
	}
	course, err := s.courses.FindByID(ctx, enrollment.CourseID)
	if err != nil {
		return nil, lookupError(err, "course not found", "failed to load course")
	}
	return s.view(ctx, enrollment, course)
}

func (s *ProgressService) view(ctx context.Context, enrollment *models.Enrollment, course *models.Course) (*models.EnrollmentView, error) {
	steps, err := s.enrollments.ListProgress(ctx, enrollment.ID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load step progress")
	}
	view := &models.EnrollmentView{
		Enrollment:  *enrollment,
		CourseTitle: course.Title,
		Percent:     enrollment.CurrentStage.Percent(),
		Steps:       steps,
	}
	if enrollment.CurrentStage == models.StageCertified && course.HasCertificate {
		cert, err := s.enrollments.FindCertificate(ctx, enrollment.ID)
		switch {
		case err == nil:
			view.Certificate = cert
		case !errors.Is(err, sql.ErrNoRows):
			return nil, appErrors.Internal(err, "failed to load certificate")
		}
	}
	return view, nil
}

func (s *ProgressService) ensureCertificate(ctx context.Context, enrollment *models.Enrollment) error {
	course, err := s.courses.FindByID(ctx, enrollment.CourseID)
	if err != nil {
		return lookupError(err, "course not found", "failed to load course")
	}
	if !course.HasCertificate {
		return nil
	}
	issued, err := s.enrollments.EnsureCertificate(ctx, enrollment.ID, certificateCode(), s.clock.Now().UTC())
	if err != nil {
		return appErrors.Internal(err, "failed to issue certificate")
	}
	if issued {
		s.logger.Info("certificate issued", zap.String("enrollment_id", enrollment.ID))
	}
	return nil
}

func (s *ProgressService) load(ctx context.Context, id string) (*models.Enrollment, error) {
	enrollment, err := s.enrollments.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "enrollment not found", "failed to load enrollment")
	}
	return enrollment, nil
}

func certificateCode() string {
	return "CERT-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:12])
}
