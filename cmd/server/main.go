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
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/campuskit/eventdesk/api/swagger"
	"github.com/campuskit/eventdesk/internal/handler"
	"github.com/campuskit/eventdesk/internal/middleware"
	"github.com/campuskit/eventdesk/internal/models"
	"github.com/campuskit/eventdesk/internal/repository"
	"github.com/campuskit/eventdesk/internal/service"
	"github.com/campuskit/eventdesk/pkg/cache"
	"github.com/campuskit/eventdesk/pkg/config"
	"github.com/campuskit/eventdesk/pkg/database"
	"github.com/campuskit/eventdesk/pkg/logger"
	"github.com/campuskit/eventdesk/pkg/mailer"
	corsmiddleware "github.com/campuskit/eventdesk/pkg/middleware/cors"
	reqidmiddleware "github.com/campuskit/eventdesk/pkg/middleware/requestid"
	"github.com/campuskit/eventdesk/pkg/storage"
)

// @title EventDesk API
// @version 1.0.0
// @description Event request approval workflow for campus committees
// @BasePath /api/v1
// @schemes http

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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, dashboard caching disabled", "error", err)
		redisClient = nil
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Repositories.
	userRepo := repository.NewUserRepository(db)
	eventRepo := repository.NewEventRepository(db)
	committeeRepo := repository.NewCommitteeRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	// Services.
	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Dashboard.CacheTTL, logr, redisClient != nil)

	authSvc := service.NewAuthService(userRepo, nil, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "eventdesk",
		SingleSession:      true,
	})

	var notifier service.DecisionNotifier
	var notificationSvc *service.NotificationService
	if cfg.Notifications.Enabled {
		smtp := mailer.NewSMTP(mailer.SMTPConfig{
			Host:     cfg.Notifications.SMTPHost,
			Port:     cfg.Notifications.SMTPPort,
			Username: cfg.Notifications.SMTPUser,
			Password: cfg.Notifications.SMTPPassword,
			From:     cfg.Notifications.FromAddress,
		})
		notificationSvc = service.NewNotificationService(smtp, service.NotificationConfig{
			Workers:    cfg.Notifications.WorkerConcurrency,
			MaxRetries: cfg.Notifications.WorkerRetries,
			RetryDelay: cfg.Notifications.RetryDelay,
		}, logr)
		notificationSvc.Start(ctx)
		defer notificationSvc.Stop()
		notifier = notificationSvc
	}

	eventSvc := service.NewEventService(eventRepo, userRepo, notifier, cacheSvc, logr)
	venueSvc := service.NewVenueService(eventRepo, cfg.Venues.Constrained, logr)
	dashboardSvc := service.NewDashboardService(committeeRepo, eventRepo, cacheSvc, metricsSvc, cfg.Dashboard.CacheTTL, logr)
	var archive *storage.LocalStorage
	if cfg.Exports.ArchiveDir != "" {
		archive, err = storage.NewLocalStorage(cfg.Exports.ArchiveDir)
		if err != nil {
			logr.Sugar().Warnw("export archive unavailable", "dir", cfg.Exports.ArchiveDir, "error", err)
		}
	}
	if archive != nil && cfg.Exports.ArchiveRetention > 0 {
		go func() {
			ticker := time.NewTicker(time.Hour)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					deleted, err := archive.CleanupOlderThan(cfg.Exports.ArchiveRetention)
					if err != nil {
						logr.Sugar().Warnw("export archive cleanup failed", "error", err)
						continue
					}
					if len(deleted) > 0 {
						logr.Sugar().Infow("export archive cleaned", "removed", len(deleted))
					}
				}
			}
		}()
	}
	var exportSvc *service.ExportService
	if archive != nil {
		exportSvc = service.NewExportService(eventRepo, archive, logr)
	} else {
		exportSvc = service.NewExportService(eventRepo, nil, logr)
	}

	// Handlers.
	authHandler := handler.NewAuthHandler(authSvc)
	eventHandler := handler.NewEventHandler(eventSvc)
	venueHandler := handler.NewVenueHandler(venueSvc)
	dashboardHandler := handler.NewDashboardHandler(dashboardSvc)
	exportHandler := handler.NewExportHandler(exportSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		auth.POST("/logout", middleware.JWT(authSvc), authHandler.Logout)
		auth.GET("/me", middleware.JWT(authSvc), authHandler.Me)
	}

	protected := api.Group("")
	protected.Use(middleware.JWT(authSvc))
	{
		events := protected.Group("/events")
		{
			events.POST("", middleware.RequireRoles(models.RoleStudent), eventHandler.Create)
			events.GET("", eventHandler.List)
			events.GET("/:id", eventHandler.Get)
			events.DELETE("/:id", middleware.RequireRoles(models.RoleAdmin), eventHandler.Delete)
			events.POST("/:id/mentor-decision", middleware.RequireRoles(models.RoleMentor), eventHandler.MentorDecision)
			events.POST("/:id/handler-decision", middleware.RequireRoles(models.RoleEventHandler), eventHandler.HandlerDecision)
			events.POST("/:id/admin-decision", middleware.RequireRoles(models.RoleAdmin), eventHandler.AdminDecision)
		}

		protected.POST("/venues/check-availability", venueHandler.CheckAvailability)
		protected.GET("/committees", dashboardHandler.ListCommittees)

		if cfg.Dashboard.Enabled {
			dashboard := protected.Group("/dashboard", middleware.RequireRoles(models.RoleAdmin, models.RoleEventHandler))
			{
				dashboard.GET("/committee-stats", dashboardHandler.CommitteeStats)
				dashboard.GET("/demanding-events", dashboardHandler.DemandingEvents)
				dashboard.GET("/system-metrics", middleware.RequireRoles(models.RoleAdmin), dashboardHandler.SystemMetrics)
			}
		}

		if cfg.Exports.Enabled {
			protected.GET("/exports/events",
				middleware.RequireRoles(models.RoleAdmin),
				middleware.Audit(userRepo, models.AuditActionEventExport, "export"),
				exportHandler.Events)
		}
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("server shutdown failed", "error", err)
	}
}
