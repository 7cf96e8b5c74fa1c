package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/prestamax/loan-review-api/api/swagger"
	"github.com/prestamax/loan-review-api/internal/handler"
	"github.com/prestamax/loan-review-api/internal/middleware"
	"github.com/prestamax/loan-review-api/internal/models"
	"github.com/prestamax/loan-review-api/internal/repository"
	"github.com/prestamax/loan-review-api/internal/service"
	"github.com/prestamax/loan-review-api/pkg/cache"
	"github.com/prestamax/loan-review-api/pkg/config"
	"github.com/prestamax/loan-review-api/pkg/database"
	"github.com/prestamax/loan-review-api/pkg/jobs"
	"github.com/prestamax/loan-review-api/pkg/logger"
	corsmiddleware "github.com/prestamax/loan-review-api/pkg/middleware/cors"
	reqidmiddleware "github.com/prestamax/loan-review-api/pkg/middleware/requestid"
	"github.com/prestamax/loan-review-api/pkg/realtime"
	"github.com/prestamax/loan-review-api/pkg/storage"
)

// @title PrestaMax Loan Review API
// @version 1.0.0
// @description Back-office review workflow for loan applications
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to redis", "error", err)
	}
	defer redisClient.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	applicationRepo := repository.NewApplicationRepository(db)
	documentRepo := repository.NewDocumentRepository(db)
	referenceRepo := repository.NewReferenceRepository(db)
	bankAccountRepo := repository.NewBankAccountRepository(db)
	verificationRepo := repository.NewVerificationRepository(db)
	noteRepo := repository.NewNoteRepository(db)
	timelineRepo := repository.NewTimelineRepository(db)
	userRepo := repository.NewUserRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	metrics := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Review.DetailCacheTTL, logr, true)
	permissions := service.NewPermissionService()
	validate := validator.New()
	signer := storage.NewSignedURLSigner(cfg.Documents.SignedURLSecret, cfg.Documents.SignedURLTTL)

	publisher := realtime.NewPublisher(redisClient, cfg.Realtime.ChannelPrefix, cfg.Realtime.TenantID, logr)
	notifier := service.NewNotifier(publisher, jobs.QueueConfig{
		Workers:    cfg.Notify.Workers,
		BufferSize: cfg.Notify.BufferSize,
		MaxRetries: cfg.Notify.MaxRetries,
		RetryDelay: cfg.Notify.RetryDelay,
		Logger:     logr,
	}, logr)
	notifier.Start(ctx)
	defer notifier.Stop()

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "prestamax-loan-review",
		Audience:           []string{"prestamax-backoffice"},
		SingleSession:      cfg.JWT.SingleSession,
	})
	verificationSvc := service.NewVerificationService(verificationRepo, documentRepo, applicationRepo, permissions, timelineRepo, notifier, metrics, logr)
	documentSvc := service.NewDocumentService(documentRepo, verificationSvc, applicationRepo, permissions, timelineRepo, notifier, signer, metrics, logr)
	referenceSvc := service.NewReferenceService(referenceRepo, bankAccountRepo, applicationRepo, permissions, timelineRepo, notifier, logr)
	applicationSvc := service.NewApplicationService(
		applicationRepo, documentRepo, referenceRepo, bankAccountRepo,
		verificationRepo, noteRepo, timelineRepo, userRepo,
		cacheSvc, permissions, notifier, metrics,
		validate, cfg.Review.DetailCacheTTL, cfg.Review.TimelinePage, logr,
	)
	catalogSvc := service.NewCatalogService()

	if cfg.Realtime.Enabled {
		subscriber := realtime.NewSubscriber(redisClient, cfg.Realtime.ChannelPrefix, cfg.Realtime.TenantID, applicationSvc.InvalidateDetail, logr)
		go func() {
			if err := subscriber.Run(ctx); err != nil && err != context.Canceled {
				logr.Sugar().Errorw("realtime subscriber stopped", "error", err)
			}
		}()
	}

	authHandler := handler.NewAuthHandler(authSvc)
	applicationHandler := handler.NewApplicationHandler(applicationSvc)
	verificationHandler := handler.NewVerificationHandler(verificationSvc)
	documentHandler := handler.NewDocumentHandler(documentSvc)
	referenceHandler := handler.NewReferenceHandler(referenceSvc)
	catalogHandler := handler.NewCatalogHandler(catalogSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

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

	r.GET("/metrics", gin.WrapH(metrics.Handler()))

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

	protected.GET("/catalogs", catalogHandler.Catalog)

	apps := protected.Group("/applications")
	{
		apps.GET("", applicationHandler.List)
		apps.GET("/:id", applicationHandler.Detail)
		apps.GET("/:id/timeline", applicationHandler.Timeline)
		apps.POST("/:id/status",
			middleware.Audit(userRepo, "application.status_change", "applications"),
			applicationHandler.ChangeStatus)
		apps.POST("/:id/assign",
			middleware.RequireRoles(models.RoleAdmin, models.RoleSupervisor),
			middleware.Audit(userRepo, "application.assign", "applications"),
			applicationHandler.Assign)
		apps.POST("/:id/counter-offer",
			middleware.RequireRoles(models.RoleAdmin, models.RoleSupervisor),
			middleware.Audit(userRepo, "application.counter_offer", "applications"),
			applicationHandler.CreateCounterOffer)
		apps.GET("/:id/notes", applicationHandler.ListNotes)
		apps.POST("/:id/notes", applicationHandler.AddNote)

		apps.GET("/:id/verification", verificationHandler.Snapshot)
		apps.POST("/:id/verification/verify", verificationHandler.Verify)
		apps.POST("/:id/verification/reject", verificationHandler.Reject)
		apps.POST("/:id/verification/unverify", verificationHandler.Unverify)

		apps.GET("/:id/documents", documentHandler.List)
		apps.GET("/:id/documents/:documentId/download-url", documentHandler.DownloadURL)
		apps.POST("/:id/documents/:documentId/approve", documentHandler.Approve)
		apps.POST("/:id/documents/:documentId/reject", documentHandler.Reject)
		apps.POST("/:id/documents/:documentId/unapprove", documentHandler.Unapprove)
		apps.POST("/:id/documents/:documentId/unreject", documentHandler.Unreject)

		apps.GET("/:id/references", referenceHandler.ListReferences)
		apps.POST("/:id/references/:referenceId/outcome", referenceHandler.RecordOutcome)
		apps.GET("/:id/bank-accounts", referenceHandler.ListBankAccounts)
		apps.POST("/:id/bank-accounts/:accountId/verify", referenceHandler.VerifyBankAccount)
		apps.POST("/:id/bank-accounts/:accountId/unverify", referenceHandler.UnverifyBankAccount)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("server shutdown", "error", err)
	}
}
