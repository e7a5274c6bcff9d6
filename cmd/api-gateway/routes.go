package main

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/career-services-api/api/swagger"
	"github.com/noah-isme/career-services-api/internal/handler"
	"github.com/noah-isme/career-services-api/internal/middleware"
	"github.com/noah-isme/career-services-api/internal/models"
	"github.com/noah-isme/career-services-api/pkg/config"
	"github.com/noah-isme/career-services-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/career-services-api/pkg/middleware/cors"
	"github.com/noah-isme/career-services-api/pkg/middleware/ratelimit"
	reqidmiddleware "github.com/noah-isme/career-services-api/pkg/middleware/requestid"
)

var (
	applyLimit = ratelimit.Rule{Name: "apply", Limit: 10, Window: time.Hour}
	usageLimit = ratelimit.Rule{Name: "usage", Limit: 20, Window: time.Minute}
)

func (a *application) router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(a.logger))
	r.Use(corsmiddleware.New(a.cfg.CORS.AllowedOrigins))
	if a.cfg.Metrics.Enabled {
		r.Use(middleware.Metrics(a.metrics))
	}

	metricsHandler := handler.NewMetricsHandler(a.metrics,
		handler.ReadinessCheck{Name: "postgres", Check: a.db.PingContext},
		handler.ReadinessCheck{Name: "redis", Check: func(ctx context.Context) error {
			return a.redis.Ping(ctx).Err()
		}},
	)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	if a.cfg.Metrics.Enabled {
		r.GET("/metrics", metricsHandler.Prometheus)
	}
	if a.cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	authHandler := handler.NewAuthHandler(a.auth)
	quotaHandler := handler.NewQuotaHandler(a.quota)
	applicationHandler := handler.NewApplicationHandler(a.applications)
	slotHandler := handler.NewSlotHandler(a.slots)
	appointmentHandler := handler.NewAppointmentHandler(a.appointments)
	enrollmentHandler := handler.NewEnrollmentHandler(a.progress)
	subscriptionHandler := handler.NewSubscriptionHandler(a.subscriptions)
	notificationHandler := handler.NewNotificationHandler(a.notifications)
	adminHandler := handler.NewAdminHandler(a.trainees, a.badges)
	catalogHandler := handler.NewCatalogHandler(a.catalog)
	supportHandler := handler.NewSupportHandler(a.support)

	api := r.Group(a.cfg.APIPrefix)
	api.POST("/auth/login", authHandler.Login)

	secured := api.Group("")
	secured.Use(middleware.JWT(a.auth))

	admin := middleware.RequireRoles(models.RoleAdmin)
	staff := middleware.RequireStaff()

	secured.GET("/me/quota", quotaHandler.Mine)
	secured.POST("/me/usage/:feature", a.limiter.Middleware(usageLimit), quotaHandler.Consume)
	secured.GET("/users/:id/quota",
		middleware.RBAC(string(models.RoleAdmin), string(models.RoleConsultant), middleware.Self),
		quotaHandler.ForUser)

	secured.GET("/jobs", catalogHandler.ListJobs)
	secured.GET("/jobs/:id", catalogHandler.GetJob)
	secured.PUT("/jobs/:id/save", catalogHandler.SaveJob)
	secured.DELETE("/jobs/:id/save", catalogHandler.UnsaveJob)
	secured.GET("/me/saved-jobs", catalogHandler.SavedJobs)
	secured.POST("/jobs/:id/apply", a.limiter.Middleware(applyLimit), applicationHandler.Apply)
	secured.GET("/me/applications", applicationHandler.Mine)
	secured.GET("/applications", staff, applicationHandler.List)
	secured.PUT("/applications/:id/status", staff, applicationHandler.UpdateStatus)

	secured.GET("/slots/:date", staff, slotHandler.Get)
	secured.PUT("/slots/:date", admin, slotHandler.SetCapacity)

	appointments := secured.Group("/appointments")
	appointments.GET("", staff, appointmentHandler.List)
	appointments.POST("/interview", staff, appointmentHandler.CreateInterview)
	appointments.POST("/one-on-one", staff, appointmentHandler.CreateOneOnOne)
	appointments.POST("/mock", appointmentHandler.ScheduleMock)
	appointments.POST("/:id/postpone", staff, appointmentHandler.Postpone)
	appointments.POST("/:id/done", staff, appointmentHandler.Done)
	appointments.POST("/:id/sla-complied", staff, appointmentHandler.SLAComplied)

	secured.GET("/courses", catalogHandler.ListCourses)
	secured.GET("/courses/:id", catalogHandler.GetCourse)
	secured.POST("/courses/:id/enroll", enrollmentHandler.Enroll)
	secured.GET("/enrollments/:id", enrollmentHandler.Get)
	secured.PUT("/enrollments/:id/progress", admin, enrollmentHandler.UpdateProgress)

	secured.POST("/subscriptions/checkout", subscriptionHandler.Checkout)
	secured.POST("/subscriptions/confirm", subscriptionHandler.Confirm)

	secured.POST("/support/queries", supportHandler.Submit)
	secured.GET("/me/support/queries", supportHandler.Mine)
	secured.GET("/support/queries", staff, supportHandler.List)
	secured.POST("/support/queries/:id/reply", staff, supportHandler.Reply)
	secured.POST("/support/queries/:id/escalate", staff, supportHandler.Escalate)

	secured.GET("/notifications", notificationHandler.List)
	secured.POST("/notifications/:id/read", notificationHandler.MarkRead)

	adminGroup := secured.Group("/admin", admin)
	adminGroup.POST("/trainees", adminHandler.CreateTrainee)
	adminGroup.GET("/trainees", adminHandler.ListTrainees)
	adminGroup.PUT("/trainees/:id/plan", adminHandler.UpdateTraineePlan)
	adminGroup.POST("/badges/award/:userId", adminHandler.AwardBadges)

	return r
}
