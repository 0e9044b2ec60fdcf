package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echoMw "github.com/labstack/echo/v4/middleware"
	"github.com/mackey55555/ceo-club-app-sub000/config"
	"github.com/mackey55555/ceo-club-app-sub000/internal/auth"
	"github.com/mackey55555/ceo-club-app-sub000/internal/consumer"
	"github.com/mackey55555/ceo-club-app-sub000/internal/export"
	"github.com/mackey55555/ceo-club-app-sub000/internal/handler"
	"github.com/mackey55555/ceo-club-app-sub000/internal/metrics"
	"github.com/mackey55555/ceo-club-app-sub000/internal/middleware"
	"github.com/mackey55555/ceo-club-app-sub000/internal/repository"
	"github.com/mackey55555/ceo-club-app-sub000/internal/service"
	"github.com/mackey55555/ceo-club-app-sub000/pkg/database"
	"github.com/mackey55555/ceo-club-app-sub000/pkg/logger"
	"github.com/mackey55555/ceo-club-app-sub000/pkg/rabbitmq"
	"github.com/mackey55555/ceo-club-app-sub000/pkg/redis"
	"go.uber.org/zap"
)

const serviceName = "application-service"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	appLog := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		ServiceName: serviceName,
		Development: cfg.LogDevelopment,
	})
	defer func() { _ = appLog.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgresDB(cfg.DSN())
	if err != nil {
		appLog.Fatal("database", zap.Error(err))
	}
	repos := repository.NewRepositories(db)

	opts := service.Options{
		Timeout: cfg.DataStoreTimeout,
		Logger:  appLog.Named("service"),
	}

	// RabbitMQ is optional: without it applications are not announced and
	// the local event/member tables are maintained out of band.
	if cfg.RabbitURL != "" {
		publisher, err := rabbitmq.NewPublisher(cfg.RabbitURL, rabbitmq.ApplicationsExchange, appLog.Named("publisher"))
		if err != nil {
			appLog.Fatal("rabbitmq publisher", zap.Error(err))
		}
		defer publisher.Close()
		opts.Publisher = publisher

		mqConsumer, err := rabbitmq.NewConsumer(rabbitmq.DefaultSyncConsumerConfig(cfg.RabbitURL), appLog.Named("rabbitmq"))
		if err != nil {
			appLog.Fatal("rabbitmq consumer", zap.Error(err))
		}
		defer mqConsumer.Close()

		msgs, err := mqConsumer.Consume()
		if err != nil {
			appLog.Fatal("rabbitmq consume", zap.Error(err))
		}
		consumer.NewSyncConsumer(repos, appLog).Start(msgs)
	} else {
		appLog.Warn("RABBITMQ_URL not set, running without messaging")
	}

	var limiterStore echoMw.RateLimiterStore
	if cfg.RedisAddr != "" {
		rdb, err := redis.NewClient(ctx, redis.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			appLog.Fatal("redis", zap.Error(err))
		}
		defer rdb.Close()
		limiterStore = middleware.NewRedisRateLimitStore(rdb.Client, cfg.GuestRateLimit, cfg.GuestRateWindow, appLog.Named("ratelimit"))
	} else {
		limiterStore = middleware.NewMemoryRateLimitStore(cfg.GuestRateLimit, cfg.GuestRateWindow)
	}

	capacity := service.NewCapacityEvaluator(repos.MemberApplications, repos.GuestApplications)
	memberSvc := service.NewMemberApplicationService(repos, capacity, opts)
	guestSvc := service.NewGuestApplicationService(repos, capacity, opts)
	querySvc := service.NewQueryService(repos, capacity, export.NewEncoder(cfg.ExportLocation()), opts)

	tokens := auth.NewTokenManager(cfg.JWTSecret, "")

	renderer, err := handler.NewTemplateRenderer()
	if err != nil {
		appLog.Fatal("templates", zap.Error(err))
	}

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = middleware.ErrorHandler(appLog)
	e.Renderer = renderer
	e.Use(echoMw.RequestID())
	e.Use(middleware.RequestContext())
	e.Use(middleware.RequestLogger(appLog.Named("http")))
	e.Use(echoMw.Recover())

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok", "service": serviceName})
	})
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))

	handler.NewGuestHandler(guestSvc).
		RegisterRoutes(e.Group("/guest"), e.Group("/api/v1"), middleware.GuestRateLimit(limiterStore))

	handler.NewAdminHandler(memberSvc, guestSvc, querySvc).
		RegisterRoutes(e.Group("/api/v1/admin", middleware.RequireAdmin(tokens)))

	handler.NewMemberApplicationHandler(memberSvc, querySvc).
		RegisterRoutes(e.Group("/api/v1", middleware.RequireMember(tokens)))

	go func() {
		appLog.Info("starting", zap.String("port", cfg.ServerPort))
		if err := e.Start(":" + cfg.ServerPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLog.Fatal("server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	appLog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		appLog.Error("shutdown", zap.Error(err))
	}
}
