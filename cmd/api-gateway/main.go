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
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/timetable-api/api/swagger"
	"github.com/noah-isme/timetable-api/internal/handler"
	"github.com/noah-isme/timetable-api/internal/middleware"
	"github.com/noah-isme/timetable-api/internal/repository"
	"github.com/noah-isme/timetable-api/internal/service"
	"github.com/noah-isme/timetable-api/migrations"
	"github.com/noah-isme/timetable-api/pkg/cache"
	"github.com/noah-isme/timetable-api/pkg/config"
	"github.com/noah-isme/timetable-api/pkg/database"
	"github.com/noah-isme/timetable-api/pkg/jobs"
	"github.com/noah-isme/timetable-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/timetable-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/timetable-api/pkg/middleware/requestid"
)

// @title Timetable API
// @version 1.0.0
// @description Course timetable generation, review and publication for academic departments.
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	if err := database.Migrate(ctx, db, migrations.Files, logr); err != nil {
		logr.Fatal("failed to apply migrations", zap.Error(err))
	}

	var redisClient *redis.Client
	if cfg.Scheduler.PublicCache {
		redisClient, err = cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, public cache disabled", zap.Error(err))
			redisClient = nil
		}
	}

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close() //nolint:errcheck
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Scheduler.PublicCacheTTL, logr, redisClient != nil)

	invalidations := jobs.NewQueue("cache-invalidation", cacheSvc.HandleInvalidationJob, jobs.QueueConfig{
		Workers:    1,
		MaxRetries: 5,
		RetryDelay: 2 * time.Second,
		Logger:     logr,
	})
	invalidations.Start(ctx)
	defer invalidations.Stop()
	cacheSvc.UseRetryQueue(invalidations)

	userRepo := repository.NewUserRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	venueRepo := repository.NewVenueRepository(db)
	timetableRepo := repository.NewTimetableRepository(db)

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})
	userSvc := service.NewUserService(userRepo, validate, logr)
	if created, err := userSvc.EnsureAdmin(ctx, cfg.Bootstrap.AdminEmail, cfg.Bootstrap.AdminPassword, cfg.Bootstrap.AdminName); err != nil {
		logr.Fatal("failed to bootstrap administrator", zap.Error(err))
	} else if created {
		logr.Info("bootstrap administrator created", zap.String("email", cfg.Bootstrap.AdminEmail))
	}
	courseSvc := service.NewCourseService(courseRepo, timetableRepo, validate, logr)
	venueSvc := service.NewVenueService(venueRepo, validate, logr)
	timetableSvc := service.NewTimetableService(
		timetableRepo, courseRepo, venueRepo, userRepo, db,
		cacheSvc, metricsSvc, validate, logr,
		service.TimetableConfig{
			DailyCap:   cfg.Scheduler.DailyCap,
			Seed:       cfg.Scheduler.Seed,
			MaxCourses: cfg.Scheduler.MaxCourses,
			MaxVenues:  cfg.Scheduler.MaxVenues,
		},
	)

	metricsHandler := handler.NewMetricsHandler(metricsSvc, map[string]handler.ReadinessCheck{
		"postgres": db.PingContext,
		"redis": func(ctx context.Context) error {
			if redisClient == nil {
				return nil
			}
			return cacheRepo.Ping(ctx)
		},
	})

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS))
	r.Use(middleware.Metrics(metricsSvc))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handler.Register(r.Group(cfg.APIPrefix), handler.Handlers{
		Auth:        handler.NewAuthHandler(authSvc),
		Users:       handler.NewUserHandler(userSvc),
		Departments: handler.NewDepartmentHandler(),
		Courses:     handler.NewCourseHandler(courseSvc),
		Venues:      handler.NewVenueHandler(venueSvc),
		Timetables:  handler.NewTimetableHandler(timetableSvc),
		Metrics:     metricsHandler,
	}, middleware.JWT(authSvc))

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logr.Error("graceful shutdown failed", zap.Error(err))
		}
	}()

	logr.Sugar().Infow("server starting", "addr", server.Addr, "env", cfg.Env)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logr.Error("server failed", zap.Error(err))
		os.Exit(1)
	}
	logr.Info("server stopped")
}
