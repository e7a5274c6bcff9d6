package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/career-services-api/internal/models"
	"github.com/noah-isme/career-services-api/pkg/clock"
	appErrors "github.com/noah-isme/career-services-api/pkg/errors"
	"github.com/noah-isme/career-services-api/pkg/export"
	"github.com/noah-isme/career-services-api/pkg/payment"
)

type checkoutStore interface {
	Save(ctx context.Context, userID string, order models.PendingOrder) error
	Load(ctx context.Context, userID string) (*models.PendingOrder, error)
	Clear(ctx context.Context, userID string) error
}

// subscriptionRepository.Activate writes the subscription, the invoice and the
// profile tier flags in one transaction.
type subscriptionRepository interface {
	Activate(ctx context.Context, sub *models.Subscription, invoice *models.Invoice) error
	SetInvoicePDF(ctx context.Context, invoiceID, path string) error
}

type invoiceRenderer interface {
	Render(doc export.InvoiceDocument) ([]byte, error)
}

type fileStorage interface {
	Save(name string, data []byte) (string, error)
}

type signatureVerifier interface {
	KeyID() string
	Verify(orderID, paymentID, signature string) error
}

// SubscriptionService sells plans: it opens a checkout, verifies the gateway
// callback and activates the subscription with a paid invoice.
type SubscriptionService struct {
	checkouts     checkoutStore
	subscriptions subscriptionRepository
	users         userLookup
	verifier      signatureVerifier
	renderer      invoiceRenderer
	storage       fileStorage
	quota         *QuotaService
	notifications *NotificationService
	clock         clock.Clock
	validator     *validator.Validate
	logger        *zap.Logger
}

// SubscriptionDependencies groups the collaborators of SubscriptionService.
type SubscriptionDependencies struct {
	Checkouts     checkoutStore
	Subscriptions subscriptionRepository
	Users         userLookup
	Verifier      signatureVerifier
	Renderer      invoiceRenderer
	Storage       fileStorage
	Quota         *QuotaService
	Notifications *NotificationService
	Clock         clock.Clock
	Validator     *validator.Validate
	Logger        *zap.Logger
}

// NewSubscriptionService constructs the service.
func NewSubscriptionService(deps SubscriptionDependencies) *SubscriptionService {
	if deps.Clock == nil {
		deps.Clock = clock.System{}
	}
	if deps.Validator == nil {
		deps.Validator = validator.New()
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &SubscriptionService{
		checkouts:     deps.Checkouts,
		subscriptions: deps.Subscriptions,
		users:         deps.Users,
		verifier:      deps.Verifier,
		renderer:      deps.Renderer,
		storage:       deps.Storage,
		quota:         deps.Quota,
		notifications: deps.Notifications,
		clock:         deps.Clock,
		validator:     deps.Validator,
		logger:        deps.Logger,
	}
}

// Checkout opens a pending order for a plan. A later checkout replaces it.
func (s *SubscriptionService) Checkout(ctx context.Context, userID string, req models.CheckoutRequest) (*models.CheckoutResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid checkout payload")
	}
	plan, ok := models.Plans[req.Plan]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown plan")
	}
	order := models.PendingOrder{
		OrderID:     payment.NewOrderID(),
		Plan:        plan.Code,
		Cycle:       plan.Cycle,
		AmountMinor: plan.AmountMinor,
		Currency:    plan.Currency,
		CreatedAt:   s.clock.Now().UTC(),
	}
	if err := s.checkouts.Save(ctx, userID, order); err != nil {
		return nil, appErrors.Internal(err, "failed to start checkout")
	}
	return &models.CheckoutResponse{
		OrderID:     order.OrderID,
		KeyID:       s.verifier.KeyID(),
		Plan:        plan.Code,
		AmountMinor: plan.AmountMinor,
		Currency:    plan.Currency,
	}, nil
}

// ConfirmPayment activates the plan of the pending order once the gateway
// signature checks out.
func (s *SubscriptionService) ConfirmPayment(ctx context.Context, userID string, req models.ConfirmPaymentRequest) (*models.ConfirmPaymentResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid payment confirmation")
	}
	if err := s.verifier.Verify(req.OrderID, req.PaymentID, req.Signature); err != nil {
		s.logger.Warn("payment verification failed", zap.String("user_id", userID), zap.String("order_id", req.OrderID), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "payment verification failed")
	}
	order, err := s.checkouts.Load(ctx, userID)
	if err != nil {
		if errors.Is(err, appErrors.ErrCacheMiss) {
			return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "no pending checkout for this account")
		}
		return nil, appErrors.Internal(err, "failed to load checkout")
	}
	if order.OrderID != req.OrderID {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "order does not match the pending checkout")
	}
	plan, ok := models.Plans[order.Plan]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "pending checkout refers to an unknown plan")
	}

	now := s.clock.Now().UTC()
	today := clock.StartOfDay(now)
	sub := &models.Subscription{
		UserID:    userID,
		Plan:      plan.Code,
		Tier:      plan.Tier,
		StartDate: today,
		EndDate:   today.AddDate(0, 0, plan.DurationDays),
	}
	invoice := &models.Invoice{
		Number:      invoiceNumber(now),
		UserID:      userID,
		Plan:        plan.Code,
		AmountMinor: order.AmountMinor,
		Currency:    order.Currency,
		OrderID:     order.OrderID,
		PaymentID:   req.PaymentID,
		IssuedAt:    now,
	}
	if err := s.subscriptions.Activate(ctx, sub, invoice); err != nil {
		return nil, lookupError(err, "profile not found", "failed to activate subscription")
	}
	s.quota.InvalidateSummary(ctx, userID)

	if path, err := s.storeInvoicePDF(ctx, plan, sub, invoice); err != nil {
		s.logger.Warn("invoice pdf not stored", zap.String("invoice", invoice.Number), zap.Error(err))
	} else {
		invoice.PDFPath = &path
	}
	if err := s.checkouts.Clear(ctx, userID); err != nil {
		s.logger.Warn("failed to clear checkout", zap.String("user_id", userID), zap.Error(err))
	}
	s.notifications.Notify(ctx, userID, fmt.Sprintf("Your %s plan is active until %s.", plan.Name, sub.EndDate.Format("02 Jan 2006")))

	return &models.ConfirmPaymentResponse{Subscription: *sub, Invoice: *invoice}, nil
}

func (s *SubscriptionService) storeInvoicePDF(ctx context.Context, plan models.Plan, sub *models.Subscription, invoice *models.Invoice) (string, error) {
	if s.renderer == nil || s.storage == nil {
		return "", errors.New("invoice rendering not configured")
	}
	customer, email := sub.UserID, ""
	if user, err := s.users.FindByID(ctx, sub.UserID); err == nil {
		customer, email = displayName(user), user.Email
	}
	doc := export.InvoiceDocument{
		Number:      invoice.Number,
		IssuedAt:    invoice.IssuedAt,
		Customer:    customer,
		Email:       email,
		Currency:    invoice.Currency,
		PaymentRef:  invoice.PaymentID,
		Lines:       []export.InvoiceLine{{Description: fmt.Sprintf("%s plan (%s)", plan.Name, plan.Cycle), AmountMinor: invoice.AmountMinor}},
		PeriodStart: sub.StartDate,
		PeriodEnd:   sub.EndDate,
	}
	data, err := s.renderer.Render(doc)
	if err != nil {
		return "", err
	}
	path, err := s.storage.Save(invoice.Number+".pdf", data)
	if err != nil {
		return "", err
	}
	if err := s.subscriptions.SetInvoicePDF(ctx, invoice.ID, path); err != nil {
		return "", err
	}
	return path, nil
}

func invoiceNumber(at time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return "INV-" + at.Format("20060102") + "-" + suffix
}
