package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/career-services-api/internal/models"
	appErrors "github.com/noah-isme/career-services-api/pkg/errors"
)

type supportRepository interface {
	Create(ctx context.Context, q *models.SupportQuery) error
	FindByID(ctx context.Context, id string) (*models.SupportQuery, error)
	List(ctx context.Context, filter models.SupportQueryFilter) ([]models.SupportQuery, int, error)
	Reply(ctx context.Context, id, reply string) error
	Escalate(ctx context.Context, id string) (bool, error)
}

// SupportService routes user questions to staff and their answers back.
type SupportService struct {
	queries       supportRepository
	users         userLookup
	notifications *NotificationService
	validator     *validator.Validate
	logger        *zap.Logger
}

// NewSupportService constructs the service.
func NewSupportService(queries supportRepository, users userLookup, notifications *NotificationService, validate *validator.Validate, logger *zap.Logger) *SupportService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SupportService{queries: queries, users: users, notifications: notifications, validator: validate, logger: logger}
}

// Submit records a new query from userID.
func (s *SupportService) Submit(ctx context.Context, userID string, req models.CreateSupportQueryRequest) (*models.SupportQuery, error) {
	req.Subject = strings.TrimSpace(req.Subject)
	req.Message = strings.TrimSpace(req.Message)
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid support query")
	}
	query := &models.SupportQuery{UserID: userID, Subject: req.Subject, Message: req.Message, Priority: req.Priority}
	if err := s.queries.Create(ctx, query); err != nil {
		return nil, appErrors.Internal(err, "failed to submit support query")
	}
	s.logger.Info("support query submitted", zap.String("query_id", query.ID), zap.String("priority", string(query.Priority)))
	return query, nil
}

// Mine lists the user's own queries.
func (s *SupportService) Mine(ctx context.Context, userID string, page, size int) ([]models.SupportQuery, *models.Pagination, error) {
	return s.List(ctx, models.SupportQueryFilter{UserID: userID, Page: page, PageSize: size})
}

// List returns the staff queue, escalated and open queries first.
func (s *SupportService) List(ctx context.Context, filter models.SupportQueryFilter) ([]models.SupportQuery, *models.Pagination, error) {
	switch filter.Priority {
	case "", models.SupportPriorityLow, models.SupportPriorityMedium, models.SupportPriorityHigh, models.SupportPriorityEscalated:
	default:
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "unknown priority")
	}
	filter.Page, filter.PageSize = models.NormalisePage(filter.Page, filter.PageSize)
	items, total, err := s.queries.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list support queries")
	}
	return items, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// Reply answers a query, resolves it and tells the user in-app and by email.
func (s *SupportService) Reply(ctx context.Context, id string, req models.ReplySupportQueryRequest, actorID string) (*models.SupportQuery, error) {
	req.Reply = strings.TrimSpace(req.Reply)
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid reply")
	}
	query, err := s.queries.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "support query not found", "failed to load support query")
	}
	if err := s.queries.Reply(ctx, id, req.Reply); err != nil {
		return nil, lookupError(err, "support query not found", "failed to reply to support query")
	}
	query.Reply = &req.Reply
	query.Resolved = true
	s.logger.Info("support query answered", zap.String("query_id", id), zap.String("actor_id", actorID))

	s.notifications.Notify(ctx, query.UserID, fmt.Sprintf("Staff replied to your query %q.", query.Subject))
	user, err := s.users.FindByID(ctx, query.UserID)
	if err != nil {
		s.logger.Warn("skipping support reply email", zap.String("user_id", query.UserID), zap.Error(err))
		return query, nil
	}
	body := fmt.Sprintf("Hello %s,\n\nRe: %s\n\n%s\n", displayName(user), query.Subject, req.Reply)
	s.notifications.Email("Reply to your support query", body, user.Email)
	return query, nil
}

// Escalate raises an open query to the top of the staff queue.
func (s *SupportService) Escalate(ctx context.Context, id string) (*models.SupportQuery, error) {
	query, err := s.queries.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "support query not found", "failed to load support query")
	}
	if query.Resolved {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "support query is already resolved")
	}
	if query.Priority == models.SupportPriorityEscalated {
		return query, nil
	}
	escalated, err := s.queries.Escalate(ctx, id)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to escalate support query")
	}
	if !escalated {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "support query is already resolved")
	}
	query.Priority = models.SupportPriorityEscalated
	s.logger.Warn("support query escalated", zap.String("query_id", id))
	return query, nil
}
