package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/career-services-api/internal/repository"
	"github.com/noah-isme/career-services-api/internal/service"
	"github.com/noah-isme/career-services-api/pkg/cache"
	"github.com/noah-isme/career-services-api/pkg/clock"
	"github.com/noah-isme/career-services-api/pkg/config"
	"github.com/noah-isme/career-services-api/pkg/database"
	"github.com/noah-isme/career-services-api/pkg/export"
	"github.com/noah-isme/career-services-api/pkg/jobs"
	"github.com/noah-isme/career-services-api/pkg/logger"
	"github.com/noah-isme/career-services-api/pkg/mailer"
	"github.com/noah-isme/career-services-api/pkg/middleware/ratelimit"
	"github.com/noah-isme/career-services-api/pkg/payment"
	"github.com/noah-isme/career-services-api/pkg/storage"
)

// @title Career Services API
// @version 1.0.0
// @description Tiered quota, interview scheduling and course progress backend.
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if err := run(cfg, logr); err != nil {
		logr.Fatal("server failed", zap.Error(err))
	}
}

func run(cfg *config.Config, logr *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	defer redisClient.Close()

	invoices, err := storage.NewLocalStorage(cfg.Payment.InvoiceDir)
	if err != nil {
		return fmt.Errorf("prepare invoice storage: %w", err)
	}

	app := buildApp(cfg, logr, db, redisClient, invoices)

	app.emailQueue.Start(ctx)
	defer app.emailQueue.Stop()

	app.startPeriodicJobs(ctx)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           app.router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logr.Info("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logr.Info("server stopped")
	return nil
}

type application struct {
	cfg    *config.Config
	logger *zap.Logger
	clock  clock.Clock
	db     *sqlx.DB
	redis  *redis.Client

	emailQueue *jobs.Queue
	limiter    *ratelimit.Limiter

	metrics       *service.MetricsService
	quota         *service.QuotaService
	slots         *service.SlotService
	notifications *service.NotificationService
	appointments  *service.AppointmentService
	progress      *service.ProgressService
	applications  *service.ApplicationService
	catalog       *service.CatalogService
	support       *service.SupportService
	subscriptions *service.SubscriptionService
	trainees      *service.TraineeService
	badges        *service.BadgeService
	maintenance   *service.MaintenanceService
	auth          *service.AuthService
}

func buildApp(cfg *config.Config, logr *zap.Logger, db *sqlx.DB, redisClient *redis.Client, invoices *storage.LocalStorage) *application {
	clk := clock.System{}
	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	slotRepo := repository.NewInterviewSlotRepository(db)
	apptRepo := repository.NewAppointmentRepository(db)
	activityRepo := repository.NewActivityRepository(db)
	jobRepo := repository.NewJobRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	enrollRepo := repository.NewEnrollmentRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	subscriptionRepo := repository.NewSubscriptionRepository(db)
	badgeRepo := repository.NewBadgeRepository(db)
	reviewRepo := repository.NewAnnualReviewRepository(db)
	supportRepo := repository.NewSupportRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient)

	metrics := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.QuotaSummary.CacheTTL, logr, cfg.QuotaSummary.CacheEnabled)

	emailQueue := jobs.NewQueue("email", service.EmailHandler(mailer.New(cfg.Mail, logr)), jobs.QueueConfig{
		Workers:    cfg.Jobs.EmailWorkers,
		MaxRetries: cfg.Jobs.EmailRetries,
		RetryDelay: 5 * time.Second,
		Logger:     logr,
	})

	quota := service.NewQuotaService(profileRepo, cacheSvc, metrics, clk, logr)
	slots := service.NewSlotService(slotRepo, cfg.Scheduling.SlotDefaultCapacity, metrics, validate, logr)
	notifications := service.NewNotificationService(notificationRepo, emailQueue, metrics, logr)

	appointments := service.NewAppointmentService(service.AppointmentDependencies{
		Appointments:  apptRepo,
		Users:         userRepo,
		Applications:  jobRepo,
		Activity:      activityRepo,
		Quota:         quota,
		Slots:         slots,
		Notifications: notifications,
		Metrics:       metrics,
		MockVideoLink: cfg.Scheduling.MockVideoLink,
		Clock:         clk,
		Validator:     validate,
		Logger:        logr,
	})

	subscriptions := service.NewSubscriptionService(service.SubscriptionDependencies{
		Checkouts:     repository.NewCheckoutStore(cacheRepo, cfg.Payment.CheckoutTTL),
		Subscriptions: subscriptionRepo,
		Users:         userRepo,
		Verifier:      payment.NewVerifier(cfg.Payment.KeyID, cfg.Payment.KeySecret),
		Renderer:      export.NewInvoiceRenderer("Career Services"),
		Storage:       invoices,
		Quota:         quota,
		Notifications: notifications,
		Clock:         clk,
		Validator:     validate,
		Logger:        logr,
	})

	stats := service.StatsSources{Applications: jobRepo, Enrollments: enrollRepo, Appointments: apptRepo}

	return &application{
		cfg:           cfg,
		logger:        logr,
		clock:         clk,
		db:            db,
		redis:         redisClient,
		emailQueue:    emailQueue,
		limiter:       ratelimit.New(redisClient, cfg.RateLimit.Enabled, logr),
		metrics:       metrics,
		quota:         quota,
		slots:         slots,
		notifications: notifications,
		appointments:  appointments,
		progress:      service.NewProgressService(courseRepo, enrollRepo, quota, notifications, clk, validate, logr),
		applications:  service.NewApplicationService(jobRepo, userRepo, quota, notifications, clk, logr),
		catalog:       service.NewCatalogService(jobRepo, courseRepo, quota, logr),
		support:       service.NewSupportService(supportRepo, userRepo, notifications, validate, logr),
		subscriptions: subscriptions,
		trainees:      service.NewTraineeService(userRepo, profileRepo, quota, validate, logr),
		badges:        service.NewBadgeService(badgeRepo, stats, quota, notifications, clk, logr),
		maintenance:   service.NewMaintenanceService(quota, appointments, apptRepo, profileRepo, reviewRepo, notifications, metrics, clk, logr),
		auth: service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
			AccessTokenSecret: cfg.JWT.Secret,
			AccessTokenExpiry: cfg.JWT.Expiration,
			Issuer:            cfg.JWT.Issuer,
		}),
	}
}

// startPeriodicJobs launches the sweeps that keep quotas, SLAs and annual
// reviews current. Each returns when ctx is cancelled.
func (a *application) startPeriodicJobs(ctx context.Context) {
	go jobs.Every(ctx, "quota-reset", a.cfg.Jobs.QuotaResetCheckInterval, a.maintenance.ResetMonthlyQuotas, a.logger)
	go jobs.Every(ctx, "sla-scan", a.cfg.Jobs.SLAScanInterval, func(ctx context.Context) error {
		_, err := a.maintenance.ScanSLAViolations(ctx, a.clock.Now())
		return err
	}, a.logger)
	go jobs.Every(ctx, "annual-reviews", a.cfg.Jobs.AnnualReviewInterval, func(ctx context.Context) error {
		_, err := a.maintenance.TriggerAnnualReviews(ctx, a.clock.Now())
		return err
	}, a.logger)
}
