package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "github.com/noah-isme/sma-records-api/api/swagger"
	"github.com/noah-isme/sma-records-api/internal/handler"
	"github.com/noah-isme/sma-records-api/internal/models"
	"github.com/noah-isme/sma-records-api/internal/repository"
	"github.com/noah-isme/sma-records-api/internal/schema"
	"github.com/noah-isme/sma-records-api/internal/service"
	"github.com/noah-isme/sma-records-api/pkg/cache"
	"github.com/noah-isme/sma-records-api/pkg/config"
	"github.com/noah-isme/sma-records-api/pkg/database"
	"github.com/noah-isme/sma-records-api/pkg/logger"
)

// @title School Records API
// @version 1.0.0
// @description Class mark sheets, report cards and the marks entry deadline
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
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	var redisClient *redis.Client
	if cfg.Cache.Enabled {
		redisClient, err = cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, caching disabled", zap.Error(err))
			redisClient = nil
		}
	}

	layout, err := schema.NewLayout(cfg.Records.SubjectCodes)
	if err != nil {
		logr.Fatal("invalid subject layout", zap.Error(err))
	}

	var metricsSvc *service.MetricsService
	if cfg.Metrics.Enabled {
		metricsSvc = service.NewMetricsService()
	}
	validate := validator.New()

	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close() //nolint:errcheck
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Cache.TTL, logr, cfg.Cache.Enabled && redisClient != nil)

	markRepo := repository.NewMarkRepository(db, layout)
	deadlineSvc := service.NewDeadlineService(repository.NewDeadlineRepository(db), metricsSvc, validate, logr)
	refSvc := service.NewReferenceService(
		repository.NewSubjectRepository(db),
		repository.NewGradingBandRepository(db),
		repository.NewSchoolProfileRepository(db),
		cacheSvc, validate, logr,
	)
	markSvc := service.NewMarkService(markRepo, deadlineSvc, layout, metricsSvc, validate, logr,
		service.MarkServiceConfig{MergeMode: models.MergeMode(cfg.Records.MergeMode)})
	reportSvc := service.NewReportService(markRepo, refSvc, layout, metricsSvc, validate, logr)
	streamSvc := service.NewStreamService(repository.NewStreamRepository(db), cfg.Records.DefaultStreams, validate, logr)
	tokenSvc := service.NewTokenService(service.TokenConfig{Secret: cfg.JWT.Secret, Issuer: cfg.JWT.Issuer})

	checks := map[string]handler.Pinger{"postgres": db}
	if redisClient != nil {
		checks["redis"] = cacheRepo
	}

	r := newRouter(cfg, logr, routeDeps{
		tokens:    tokenSvc,
		metrics:   metricsSvc,
		marks:     handler.NewMarkHandler(markSvc),
		reports:   handler.NewReportHandler(reportSvc),
		refs:      handler.NewReferenceHandler(refSvc, streamSvc),
		deadlines: handler.NewDeadlineHandler(deadlineSvc),
		ops:       handler.NewMetricsHandler(metricsSvc, checks, logr),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "merge_mode", cfg.Records.MergeMode)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
	logr.Info("server stopped")
}
