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

	"github.com/kaizendev/post-registration-api/internal/eventapi"
	"github.com/kaizendev/post-registration-api/internal/handler"
	"github.com/kaizendev/post-registration-api/internal/middleware"
	"github.com/kaizendev/post-registration-api/internal/repository"
	"github.com/kaizendev/post-registration-api/internal/service"
	"github.com/kaizendev/post-registration-api/pkg/cache"
	"github.com/kaizendev/post-registration-api/pkg/config"
	"github.com/kaizendev/post-registration-api/pkg/database"
	"github.com/kaizendev/post-registration-api/pkg/jobs"
	"github.com/kaizendev/post-registration-api/pkg/logger"
	"github.com/kaizendev/post-registration-api/pkg/mailer"
	corsmiddleware "github.com/kaizendev/post-registration-api/pkg/middleware/cors"
	reqidmiddleware "github.com/kaizendev/post-registration-api/pkg/middleware/requestid"
	"github.com/kaizendev/post-registration-api/pkg/storage"
)

// @title Post Registration API
// @version 1.0.0
// @description Document collection and peer review for externally-listed events
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	rdb, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to redis", "error", err)
	}
	defer rdb.Close()

	store, err := storage.NewLocalStorage(cfg.Uploads.Dir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init upload storage", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	smtp := mailer.NewSMTPMailer(cfg.SMTP, logr)
	mailQueue := mailer.NewQueue(smtp, jobs.QueueConfig{
		Workers:    cfg.Notifications.Workers,
		MaxRetries: cfg.Notifications.MaxRetries,
		RetryDelay: cfg.Notifications.RetryDelay,
		Logger:     logr,
	})
	mailQueue.Start(ctx)
	defer mailQueue.Stop()
	notifier := mailer.NewQueueNotifier(mailQueue, logr)

	providerClient := eventapi.NewClient(cfg.EventAPI)
	cachedMetadata := eventapi.NewCachedClient(providerClient, rdb, cfg.EventAPI.MetadataTTL, logr)

	userRepo := repository.NewUserRepository(db)
	eventRepo := repository.NewEventRepository(db)
	documentRepo := repository.NewDocumentRepository(db)
	attendeeRepo := repository.NewAttendeeRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	evaluatorRepo := repository.NewEvaluatorRepository(db)
	reviewRepo := repository.NewReviewRepository(db)
	webhookRepo := repository.NewWebhookRepository(db)

	validate := validator.New()

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "post-registration-api",
	})
	eventSvc := service.NewEventService(
		eventRepo, userRepo, webhookRepo, cachedMetadata, providerClient,
		service.EventWebhookConfig{
			EndpointURL: cfg.BaseURL + cfg.APIPrefix + "/webhooks/orders",
			Actions:     cfg.EventAPI.WebhookActions,
		},
		validate, logr,
	)
	documentSvc := service.NewDocumentService(documentRepo, validate, logr)
	attendeeSvc := service.NewAttendeeService(attendeeRepo, eventSvc, documentSvc, logr)
	evaluatorSvc := service.NewEvaluatorService(
		evaluatorRepo, userRepo, eventRepo, eventSvc, notifier, cfg.BaseURL, validate, logr)
	submissionSvc := service.NewSubmissionService(
		submissionRepo, attendeeRepo, documentRepo, eventSvc, evaluatorSvc, store, notifier, logr)
	reviewSvc := service.NewReviewService(
		reviewRepo, submissionRepo, evaluatorRepo, eventRepo, userRepo, eventSvc, notifier, validate, logr)
	webhookSvc := service.NewWebhookService(
		userRepo, eventRepo, attendeeRepo, providerClient, eventSvc, notifier,
		cfg.BaseURL, cfg.EventAPI.WebhookActions, logr)
	metricsSvc := service.NewMetricsService()

	eventHandler := handler.NewEventHandler(eventSvc)
	handlers := handler.Handlers{
		Auth:       handler.NewAuthHandler(authSvc),
		Event:      eventHandler,
		Document:   handler.NewDocumentHandler(documentSvc, eventHandler),
		Evaluator:  handler.NewEvaluatorHandler(evaluatorSvc, eventHandler),
		Submission: handler.NewSubmissionHandler(submissionSvc, evaluatorSvc, eventHandler),
		Review:     handler.NewReviewHandler(reviewSvc),
		Public:     handler.NewPublicHandler(attendeeSvc, submissionSvc, evaluatorSvc, cfg.Uploads.MaxFileBytes),
		Webhook:    handler.NewWebhookHandler(webhookSvc),
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	handler.RegisterRoutes(r, cfg.APIPrefix, handlers, authSvc)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Warnw("forced shutdown", "error", err)
	}
}
