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
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/cursada/planner-api/api/swagger"
	"github.com/cursada/planner-api/internal/handler"
	"github.com/cursada/planner-api/internal/middleware"
	"github.com/cursada/planner-api/internal/models"
	"github.com/cursada/planner-api/internal/repository"
	"github.com/cursada/planner-api/internal/service"
	"github.com/cursada/planner-api/pkg/cache"
	"github.com/cursada/planner-api/pkg/config"
	"github.com/cursada/planner-api/pkg/database"
	"github.com/cursada/planner-api/pkg/logger"
	corsmiddleware "github.com/cursada/planner-api/pkg/middleware/cors"
	reqidmiddleware "github.com/cursada/planner-api/pkg/middleware/requestid"
	"github.com/cursada/planner-api/pkg/moderation"
	"github.com/cursada/planner-api/pkg/profanity"
)

// @title Cursada Planner API
// @version 1.0.0
// @description University catalog, study plan tracking, ratings and exam topics.
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg.Env, cfg.Log)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	var metrics *service.MetricsService
	if cfg.Metrics.Enabled {
		metrics = service.NewMetricsService()
	}

	var cacheRepo service.CacheRepository
	if cfg.Catalog.CacheEnabled {
		client, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, catalog cache disabled", zap.Error(err))
		} else {
			repo := repository.NewCacheRepository(client, logr)
			defer repo.Close() //nolint:errcheck
			cacheRepo = repo
		}
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Catalog.CacheTTL, logr, cacheRepo != nil)

	moderator := moderation.Moderator(moderation.Noop{})
	if cfg.Moderation.Enabled {
		gemini, err := moderation.NewGemini(ctx, cfg.Moderation)
		if err != nil {
			logr.Warn("content moderation disabled", zap.Error(err))
		} else {
			defer gemini.Close() //nolint:errcheck
			moderator = gemini
		}
	}

	validate := validator.New()

	catalogSvc := service.NewCatalogService(repository.NewCatalogRepository(db), cacheSvc, metrics, logr)
	userSvc := service.NewUserService(repository.NewUserRepository(db), catalogSvc, logr)
	planSvc := service.NewUserSubjectService(repository.NewUserSubjectRepository(db), catalogSvc, userSvc, validate, logr)
	gate := service.NewContentGate(profanity.New(), moderator, metrics, logr)
	ratingSvc := service.NewRatingService(
		repository.NewRatingRepository(db),
		repository.NewPostEngagementRepository(db, models.PostKindRating),
		catalogSvc, userSvc, gate, metrics, validate, logr,
	)
	examTopicSvc := service.NewExamTopicService(
		repository.NewExamTopicRepository(db),
		repository.NewPostEngagementRepository(db, models.PostKindExamTopic),
		catalogSvc, userSvc, gate, metrics, validate, logr,
	)
	exportSvc := service.NewExportService(userSvc, planSvc, nil, nil, logr)
	authSvc := service.NewAuthService(service.AuthConfig{
		TokenSecret: cfg.Auth.TokenSecret,
		Issuer:      cfg.Auth.Issuer,
		Audience:    cfg.Auth.Audience,
		TokenTTL:    cfg.Auth.TokenTTL,
	}, logr)

	for _, s := range []interface{ SetQueryTimeout(time.Duration) }{catalogSvc, userSvc, planSvc, ratingSvc, examTopicSvc} {
		s.SetQueryTimeout(cfg.Database.QueryTimeout)
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics, "/metrics"))

	metricsHandler := handler.NewMetricsHandler(metrics, db)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	if metrics != nil {
		r.GET("/metrics", metricsHandler.Prometheus)
	}
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	registerRoutes(r.Group(cfg.APIPrefix), middleware.Auth(authSvc), routeHandlers{
		catalog:    handler.NewCatalogHandler(catalogSvc),
		me:         handler.NewMeHandler(userSvc, planSvc, exportSvc),
		ratings:    handler.NewRatingHandler(ratingSvc),
		examTopics: handler.NewExamTopicHandler(examTopicSvc),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}
