package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/career-services-api/internal/models"
	"github.com/noah-isme/career-services-api/pkg/jobs"
	"github.com/noah-isme/career-services-api/pkg/mailer"
)

// EmailJobType tags queued email jobs.
const EmailJobType = "email"

type notificationRepository interface {
	Create(ctx context.Context, n *models.Notification) error
	ListByUser(ctx context.Context, userID string, limit int) ([]models.Notification, error)
	MarkRead(ctx context.Context, userID, id string) error
	CountUnread(ctx context.Context, userID string) (int, error)
}

type emailQueue interface {
	Enqueue(job jobs.Job) error
}

// NotificationService records in-app notifications and hands email to the
// background queue. Delivery problems are logged and never surface to callers.
type NotificationService struct {
	repo    notificationRepository
	emails  emailQueue
	metrics *MetricsService
	logger  *zap.Logger
}

// NewNotificationService constructs the service. A nil queue drops email.
func NewNotificationService(repo notificationRepository, emails emailQueue, metrics *MetricsService, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{repo: repo, emails: emails, metrics: metrics, logger: logger}
}

// Notify stores an in-app message for a user.
func (s *NotificationService) Notify(ctx context.Context, userID, message string) {
	n := &models.Notification{UserID: userID, Message: message}
	if err := s.repo.Create(ctx, n); err != nil {
		s.logger.Warn("failed to store notification", zap.String("user_id", userID), zap.Error(err))
	}
}

// Email queues a plain text message. Empty recipients are ignored.
func (s *NotificationService) Email(subject, body string, to ...string) {
	recipients := make([]string, 0, len(to))
	for _, addr := range to {
		if addr = strings.TrimSpace(addr); addr != "" {
			recipients = append(recipients, addr)
		}
	}
	if len(recipients) == 0 {
		return
	}
	if s.emails == nil {
		s.metrics.EmailDropped()
		s.logger.Warn("email queue not configured", zap.String("subject", subject))
		return
	}
	msg := mailer.Message{To: recipients, Subject: subject, Body: body}
	if err := s.emails.Enqueue(jobs.Job{Type: EmailJobType, Payload: msg}); err != nil {
		s.metrics.EmailDropped()
		s.logger.Warn("failed to queue email", zap.String("subject", subject), zap.Error(err))
	}
}

// List returns the most recent notifications of a user.
func (s *NotificationService) List(ctx context.Context, userID string, limit int) ([]models.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	items, err := s.repo.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, lookupError(err, "notifications not found", "failed to list notifications")
	}
	return items, nil
}

// MarkRead flags a notification owned by userID as read.
func (s *NotificationService) MarkRead(ctx context.Context, userID, id string) error {
	if err := s.repo.MarkRead(ctx, userID, id); err != nil {
		return lookupError(err, "notification not found", "failed to update notification")
	}
	return nil
}

// UnreadCount returns how many notifications are still unread.
func (s *NotificationService) UnreadCount(ctx context.Context, userID string) (int, error) {
	count, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return 0, lookupError(err, "notifications not found", "failed to count notifications")
	}
	return count, nil
}

// EmailHandler delivers queued email jobs through sender.
func EmailHandler(sender mailer.Sender) jobs.Handler {
	return func(ctx context.Context, job jobs.Job) error {
		msg, ok := job.Payload.(mailer.Message)
		if !ok {
			return fmt.Errorf("unexpected email payload %T", job.Payload)
		}
		return sender.Send(ctx, msg)
	}
}
