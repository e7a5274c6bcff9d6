package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/career-services-api/internal/models"
	appErrors "github.com/noah-isme/career-services-api/pkg/errors"
)

type jobCatalog interface {
	FindByID(ctx context.Context, id string) (*models.Job, error)
	List(ctx context.Context, filter models.JobFilter) ([]models.JobListing, int, error)
	FindListing(ctx context.Context, viewerID, jobID string) (*models.JobListing, error)
	SaveJob(ctx context.Context, userID, jobID string) error
	UnsaveJob(ctx context.Context, userID, jobID string) error
}

type courseCatalog interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
	ListActive(ctx context.Context) ([]models.Course, error)
	ListSteps(ctx context.Context, courseID string) ([]models.CourseStep, error)
}

// CatalogService serves the job board and the course catalogue. Exclusive
// jobs are only visible from the Pro tier up.
type CatalogService struct {
	jobs    jobCatalog
	courses courseCatalog
	quota   *QuotaService
	logger  *zap.Logger
}

// NewCatalogService constructs the service.
func NewCatalogService(jobs jobCatalog, courses courseCatalog, quota *QuotaService, logger *zap.Logger) *CatalogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{jobs: jobs, courses: courses, quota: quota, logger: logger}
}

// ListJobs searches active jobs for the viewer.
func (s *CatalogService) ListJobs(ctx context.Context, filter models.JobFilter) ([]models.JobListing, *models.Pagination, error) {
	exclusive, err := s.seesExclusive(ctx, filter.ViewerID, filter.Staff)
	if err != nil {
		return nil, nil, err
	}
	filter.IncludeExclusive = exclusive
	filter.Page, filter.PageSize = models.NormalisePage(filter.Page, filter.PageSize)
	items, total, err := s.jobs.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list jobs")
	}
	return items, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// SavedJobs lists the jobs the viewer bookmarked.
func (s *CatalogService) SavedJobs(ctx context.Context, viewerID string, page, size int) ([]models.JobListing, *models.Pagination, error) {
	return s.ListJobs(ctx, models.JobFilter{ViewerID: viewerID, SavedOnly: true, Page: page, PageSize: size})
}

// GetJob returns one job. Inactive jobs and exclusive jobs the viewer cannot
// see are reported as missing.
func (s *CatalogService) GetJob(ctx context.Context, viewerID string, staff bool, jobID string) (*models.JobListing, error) {
	listing, err := s.jobs.FindListing(ctx, viewerID, jobID)
	if err != nil {
		return nil, lookupError(err, "job not found", "failed to load job")
	}
	if !listing.Active {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "job not found")
	}
	if listing.IsExclusive {
		exclusive, err := s.seesExclusive(ctx, viewerID, staff)
		if err != nil {
			return nil, err
		}
		if !exclusive {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "job not found")
		}
	}
	return listing, nil
}

// SaveJob bookmarks a job the viewer can see.
func (s *CatalogService) SaveJob(ctx context.Context, viewerID, jobID string) error {
	if _, err := s.GetJob(ctx, viewerID, false, jobID); err != nil {
		return err
	}
	if err := s.jobs.SaveJob(ctx, viewerID, jobID); err != nil {
		return appErrors.Internal(err, "failed to save job")
	}
	return nil
}

// UnsaveJob removes a bookmark. Removing a missing bookmark succeeds.
func (s *CatalogService) UnsaveJob(ctx context.Context, viewerID, jobID string) error {
	if err := s.jobs.UnsaveJob(ctx, viewerID, jobID); err != nil {
		return appErrors.Internal(err, "failed to remove saved job")
	}
	return nil
}

// ListCourses returns the courses open for enrollment.
func (s *CatalogService) ListCourses(ctx context.Context) ([]models.Course, error) {
	courses, err := s.courses.ListActive(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list courses")
	}
	return courses, nil
}

// GetCourse returns a course with its ordered steps.
func (s *CatalogService) GetCourse(ctx context.Context, id string) (*models.CourseDetail, error) {
	course, err := s.courses.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "course not found", "failed to load course")
	}
	if !course.Active {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
	}
	steps, err := s.courses.ListSteps(ctx, course.ID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load course steps")
	}
	if steps == nil {
		steps = []models.CourseStep{}
	}
	return &models.CourseDetail{Course: *course, Steps: steps}, nil
}

func (s *CatalogService) seesExclusive(ctx context.Context, userID string, staff bool) (bool, error) {
	if staff {
		return true, nil
	}
	profile, err := s.quota.Profile(ctx, userID)
	if err != nil {
		return false, err
	}
	return ResolveTier(profile).AtLeast(models.TierPro), nil
}
