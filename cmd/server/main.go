package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"bookreview/docs"
	"bookreview/internal/auth"
	"bookreview/internal/cache"
	"bookreview/internal/config"
	"bookreview/internal/db"
	"bookreview/internal/logger"
	"bookreview/internal/notify"
	"bookreview/internal/ratelimit"
	"bookreview/internal/repository"
	"bookreview/internal/router"
	"bookreview/internal/service"
)

// @title Book Review API
// @version 1.0
// @description Book catalog with user reviews and JWT authentication.
// @host localhost:10000
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	cfg := config.Load()
	log := logger.New(cfg.LogLevel)
	slog.SetDefault(log)

	if cfg.JWTSecret == "" {
		log.Warn("JWT_SECRET is not set; signup and login will fail until it is configured")
	}

	gormDB, err := db.Open(cfg.DBDriver, cfg.DatabaseDSN)
	if err != nil {
		log.Error("database init", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if err := db.Migrate(gormDB); err != nil {
		log.Error("database migrate", slog.String("error", err.Error()))
		os.Exit(1)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPass,
		DB:       cfg.RedisDB,
	})
	cacheClient := cache.NewWithClient(rdb)
	pingCtx, cancelPing := context.WithTimeout(context.Background(), 2*time.Second)
	if err := cacheClient.Ping(pingCtx); err != nil {
		log.Warn("redis unavailable; caching, logout and throttling degrade", slog.String("error", err.Error()))
	}
	cancelPing()

	// Initialize repositories
	userRepo := repository.NewUserRepository(gormDB)
	bookRepo := repository.NewBookRepository(gormDB)
	reviewRepo := repository.NewReviewRepository(gormDB)

	// Initialize auth components
	jwtService := auth.NewJWTService(cfg.JWTSecret)
	tokenStore := auth.NewTokenStore(cacheClient)
	mailer := notify.NewEmailNotifier(cfg.SMTP, log)

	// Initialize services
	authService := service.NewAuthService(userRepo, jwtService, tokenStore, mailer, log)
	userService := service.NewUserService(bookRepo, reviewRepo)
	bookService := service.NewBookService(bookRepo, reviewRepo, cacheClient, log)
	reviewService := service.NewReviewService(bookRepo, reviewRepo, cacheClient)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if cfg.SwaggerHost != "" {
		docs.SwaggerInfo.Host = cfg.SwaggerHost
	}

	e := echo.New()
	router.Register(e, router.Deps{
		Config:        cfg,
		Logger:        log,
		AuthService:   authService,
		UserService:   userService,
		BookService:   bookService,
		ReviewService: reviewService,
		AuthLimiter:   ratelimit.New(rdb, "bookreview:ratelimit:auth", cfg.AuthRateLimit, cfg.AuthRateBurst),
		Registry:      registry,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		addr := ":" + cfg.ServerPort
		log.Info("api server listening", slog.String("addr", addr), slog.String("swagger", "/swagger/index.html"))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server run failed", slog.String("error", err.Error()))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down api server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", slog.String("error", err.Error()))
	}
	if err := cacheClient.Close(); err != nil {
		log.Error("close redis", slog.String("error", err.Error()))
	}
	if sqlDB, err := gormDB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
