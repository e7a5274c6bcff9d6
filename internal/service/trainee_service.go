package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/career-services-api/internal/models"
	"github.com/noah-isme/career-services-api/internal/repository"
	appErrors "github.com/noah-isme/career-services-api/pkg/errors"
)

type traineeUserRepository interface {
	CreateWithProfile(ctx context.Context, user *models.User, profile *models.Profile) error
	ListTrainees(ctx context.Context) ([]models.Trainee, error)
}

type traineePlanRepository interface {
	UpdateTraineePlan(ctx context.Context, userID string, plan models.TraineePlan) error
}

// TraineeService manages cohort accounts whose tier comes from an assigned plan.
type TraineeService struct {
	users     traineeUserRepository
	profiles  traineePlanRepository
	quota     *QuotaService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTraineeService constructs the service.
func NewTraineeService(users traineeUserRepository, profiles traineePlanRepository, quota *QuotaService, validate *validator.Validate, logger *zap.Logger) *TraineeService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TraineeService{users: users, profiles: profiles, quota: quota, validator: validate, logger: logger}
}

// Create registers a trainee candidate together with its profile.
func (s *TraineeService) Create(ctx context.Context, req models.CreateTraineeRequest) (*models.Trainee, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid trainee payload")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to hash password")
	}
	user := &models.User{
		Username:     strings.TrimSpace(req.Username),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: string(hash),
		FullName:     strings.TrimSpace(req.FullName),
		Role:         models.RoleCandidate,
		Active:       true,
	}
	profile := &models.Profile{
		IsTrainee:     true,
		TraineePlan:   req.Plan,
		TraineeCourse: strings.TrimSpace(req.Course),
	}
	if err := s.users.CreateWithProfile(ctx, user, profile); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "username or email already in use")
		}
		return nil, appErrors.Internal(err, "failed to create trainee")
	}
	s.logger.Info("trainee created", zap.String("user_id", user.ID), zap.String("plan", string(req.Plan)))
	return &models.Trainee{
		UserID:    user.ID,
		Username:  user.Username,
		Email:     user.Email,
		FullName:  user.FullName,
		ProfileID: profile.ID,
		Plan:      profile.TraineePlan,
		Course:    profile.TraineeCourse,
	}, nil
}

// UpdatePlan switches a trainee to another plan.
func (s *TraineeService) UpdatePlan(ctx context.Context, userID string, req models.UpdateTraineePlanRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return validationError(err, "invalid trainee plan")
	}
	if err := s.profiles.UpdateTraineePlan(ctx, userID, req.Plan); err != nil {
		return lookupError(err, "trainee not found", "failed to update trainee plan")
	}
	s.quota.InvalidateSummary(ctx, userID)
	return nil
}

// List returns every trainee.
func (s *TraineeService) List(ctx context.Context) ([]models.Trainee, error) {
	trainees, err := s.users.ListTrainees(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list trainees")
	}
	return trainees, nil
}
