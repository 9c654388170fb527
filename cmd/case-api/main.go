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
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "github.com/noah-isme/compliance-case-api/api/swagger"
	"github.com/noah-isme/compliance-case-api/internal/handler"
	"github.com/noah-isme/compliance-case-api/internal/repository"
	"github.com/noah-isme/compliance-case-api/internal/service"
	"github.com/noah-isme/compliance-case-api/pkg/cache"
	"github.com/noah-isme/compliance-case-api/pkg/config"
	"github.com/noah-isme/compliance-case-api/pkg/database"
	"github.com/noah-isme/compliance-case-api/pkg/export"
	"github.com/noah-isme/compliance-case-api/pkg/logger"
	"github.com/noah-isme/compliance-case-api/pkg/signing"
)

// @title Compliance Case API
// @version 1.0.0
// @description Data principal request and grievance case lifecycle.
// @BasePath /
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logr); err != nil {
		logr.Fatal("server failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logr *zap.Logger) error {
	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	validate := validator.New()
	metrics := service.NewMetricsService()

	caseRepo := repository.NewCaseRepository(db)
	statusRepo := repository.NewStatusRepository(db)
	userRepo := repository.NewUserRepository(db)
	orgRepo := repository.NewOrganizationRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Catalog.CacheTTL, logr, cfg.Catalog.CacheEnabled && redisClient != nil)
	statusSvc := service.NewStatusService(statusRepo, cacheSvc, cfg.Catalog.CacheTTL, cfg.Cases.InitialStatus, cfg.Cases.TerminalStatus, validate, logr)

	dispatcher, stopDispatcher, err := newDispatcher(ctx, cfg, redisClient, metrics, logr)
	if err != nil {
		return err
	}
	defer stopDispatcher()

	caseSvc := service.NewCaseService(caseRepo, statusSvc, userRepo, orgRepo, dispatcher, validate, logr,
		service.WithCaseMetrics(metrics),
		service.WithCaseTxTimeout(cfg.Cases.TxTimeout),
		service.WithHistoryExporter("csv", export.NewCSVExporter()),
		service.WithHistoryExporter("pdf", export.NewPDFExporter()),
	)
	linkSvc := service.NewRequestLinkService(signing.NewRequestLinkSigner(cfg.RequestLinks.Secret, cfg.RequestLinks.TTL), orgRepo, cfg.RequestLinks.BaseURL, logr)
	tokenSvc := service.NewTokenService(service.TokenConfig{Secret: cfg.JWT.Secret, Issuer: cfg.JWT.Issuer, Audience: cfg.JWT.Audience})

	checks := map[string]handler.Pinger{"postgres": handler.PingFunc(db.PingContext)}
	if redisClient != nil {
		checks["redis"] = cacheRepo
	}

	router := newRouter(cfg, logr, metrics, tokenSvc, handlers{
		cases:         handler.NewCaseHandler(caseSvc),
		statuses:      handler.NewStatusHandler(statusSvc),
		public:        handler.NewPublicHandler(caseSvc, linkSvc),
		organizations: handler.NewOrganizationHandler(linkSvc),
		metrics:       handler.NewMetricsHandler(metrics, checks, logr),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "notification_driver", cfg.Notifications.Driver)
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

	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newDispatcher(ctx context.Context, cfg *config.Config, redisClient *redis.Client, metrics *service.MetricsService, logr *zap.Logger) (service.NotificationDispatcher, func(), error) {
	if cfg.Notifications.Driver == config.NotificationDriverRedis {
		if redisClient == nil {
			return nil, nil, errors.New("NOTIFICATION_DRIVER=redis requires ENABLE_REDIS=true")
		}
		dispatcher, err := service.NewRedisDispatcher(redisClient, cfg.Notifications.RedisList)
		if err != nil {
			return nil, nil, err
		}
		return dispatcher, func() {}, nil
	}

	dispatcher := service.NewQueueDispatcher(service.NewLogMailer(logr), cfg.Notifications.Workers, cfg.Notifications.BufferSize, metrics, logr)
	dispatcher.Start(context.WithoutCancel(ctx))
	return dispatcher, dispatcher.Stop, nil
}
