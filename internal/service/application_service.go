package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/career-services-api/internal/models"
	"github.com/noah-isme/career-services-api/internal/repository"
	"github.com/noah-isme/career-services-api/pkg/clock"
	appErrors "github.com/noah-isme/career-services-api/pkg/errors"
)

type jobRepository interface {
	FindByID(ctx context.Context, id string) (*models.Job, error)
	HasApplied(ctx context.Context, userID, jobID string) (bool, error)
	CreateApplication(ctx context.Context, app *models.JobApplication) error
	FindApplication(ctx context.Context, id string) (*models.ApplicationView, error)
	ListApplications(ctx context.Context, filter models.ApplicationFilter) ([]models.ApplicationView, int, error)
	UpdateApplicationStatus(ctx context.Context, id, fromStatus, status string) (bool, error)
}

type userLookup interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// ApplicationService handles candidates applying to jobs.
type ApplicationService struct {
	jobs          jobRepository
	users         userLookup
	quota         *QuotaService
	notifications *NotificationService
	clock         clock.Clock
	logger        *zap.Logger
}

// NewApplicationService constructs the service.
func NewApplicationService(jobs jobRepository, users userLookup, quota *QuotaService, notifications *NotificationService, clk clock.Clock, logger *zap.Logger) *ApplicationService {
	if clk == nil {
		clk = clock.System{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ApplicationService{jobs: jobs, users: users, quota: quota, notifications: notifications, clock: clk, logger: logger}
}

// Apply submits an application, consuming one unit of the monthly allowance.
// The unit is returned when the application cannot be stored.
func (s *ApplicationService) Apply(ctx context.Context, userID, jobID string) (*models.JobApplication, error) {
	job, err := s.jobs.FindByID(ctx, jobID)
	if err != nil {
		return nil, lookupError(err, "job not found", "failed to load job")
	}
	if !job.Active {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "job is no longer accepting applications")
	}
	profile, err := s.quota.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}
	tier := ResolveTier(profile)
	if job.IsExclusive && !tier.AtLeast(models.TierPro) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "exclusive jobs require a Pro plan")
	}
	applied, err := s.jobs.HasApplied(ctx, userID, job.ID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to check application")
	}
	if applied {
		return nil, appErrors.Clone(appErrors.ErrConflict, "you have already applied to this job")
	}

	if err := s.quota.Consume(ctx, userID, models.FeatureApplications, 1); err != nil {
		return nil, err
	}
	jobRef := job.ID
	app := &models.JobApplication{UserID: userID, JobID: &jobRef, Status: models.ApplicationStatusApplied, AppliedAt: s.clock.Now().UTC()}
	if err := s.jobs.CreateApplication(ctx, app); err != nil {
		if undoErr := s.quota.Decrement(ctx, userID, models.FeatureApplications); undoErr != nil {
			s.logger.Error("failed to return application quota", zap.String("user_id", userID), zap.Error(undoErr))
		}
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "you have already applied to this job")
		}
		return nil, appErrors.Internal(err, "failed to create application")
	}

	s.notifications.Notify(ctx, userID, fmt.Sprintf("Application submitted for %s at %s.", job.Title, job.Company))
	if tier == models.TierProPlus && job.RecruiterEmail != nil {
		s.introduce(ctx, userID, job)
	}
	return app, nil
}

// introduce emails the recruiter of the job about a Pro Plus applicant.
func (s *ApplicationService) introduce(ctx context.Context, userID string, job *models.Job) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		s.logger.Warn("skipping recruiter introduction", zap.String("user_id", userID), zap.Error(err))
		return
	}
	body := fmt.Sprintf("Hello,\n\n%s (%s) has applied for %s and is a Pro Plus member of our career services programme.\n",
		displayName(user), user.Email, job.Title)
	s.notifications.Email("Candidate introduction: "+job.Title, body, *job.RecruiterEmail)
}

// Mine lists the candidate's own applications, newest first.
func (s *ApplicationService) Mine(ctx context.Context, userID string, page, size int) ([]models.ApplicationView, *models.Pagination, error) {
	return s.List(ctx, models.ApplicationFilter{UserID: userID, Page: page, PageSize: size})
}

// List returns applications matching filter for the recruiter pipeline.
func (s *ApplicationService) List(ctx context.Context, filter models.ApplicationFilter) ([]models.ApplicationView, *models.Pagination, error) {
	if filter.Status != "" && !models.ValidApplicationStatus(filter.Status) {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "unknown application status")
	}
	filter.Page, filter.PageSize = models.NormalisePage(filter.Page, filter.PageSize)
	items, total, err := s.jobs.ListApplications(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list applications")
	}
	return items, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// UpdateStatus moves an application to a new recruiter status and tells the
// candidate. Setting the current status again changes nothing.
func (s *ApplicationService) UpdateStatus(ctx context.Context, id string, req models.UpdateApplicationStatusRequest, actorID string) (*models.ApplicationView, error) {
	status := strings.ToUpper(strings.TrimSpace(req.Status))
	if !models.ValidApplicationStatus(status) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown application status")
	}
	app, err := s.jobs.FindApplication(ctx, id)
	if err != nil {
		return nil, lookupError(err, "application not found", "failed to load application")
	}
	if app.Status == status {
		return app, nil
	}
	previous := app.Status
	updated, err := s.jobs.UpdateApplicationStatus(ctx, id, previous, status)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to update application status")
	}
	if !updated {
		return nil, appErrors.Clone(appErrors.ErrConflict, "application status changed concurrently")
	}
	app.Status = status
	s.logger.Info("application status updated",
		zap.String("application_id", id),
		zap.String("from", previous),
		zap.String("to", status),
		zap.String("actor_id", actorID),
	)

	title := "your application"
	if app.JobTitle != nil {
		title = *app.JobTitle
	}
	s.notifications.Notify(ctx, app.UserID, fmt.Sprintf("Your application for %s is now %s.", title, status))
	if app.CandidateEmail != "" {
		body := fmt.Sprintf("Hello %s,\n\nThe status of your application for %s changed from %s to %s.\n",
			app.CandidateName, title, previous, status)
		s.notifications.Email("Job Application Status Update", body, app.CandidateEmail)
	}
	return app, nil
}
