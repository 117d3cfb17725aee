package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"travel-expense/internal/config"
	"travel-expense/internal/handler"
	"travel-expense/internal/middleware"
	"travel-expense/internal/pkg/i18n"
	"travel-expense/internal/repository"
	"travel-expense/internal/service"
	"travel-expense/internal/service/auth"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()

	logger, err := config.NewLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	if cfg.LocalePath != "" {
		if err := i18n.LoadTranslations(cfg.LocalePath); err != nil {
			logger.Fatal("failed to load translation overrides", zap.String("path", cfg.LocalePath), zap.Error(err))
		}
	}

	db, err := config.NewPostgresDB(cfg, logger)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	redis, err := config.NewRedisClient(cfg, logger)
	if err != nil {
		logger.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer redis.Close()

	minioClient, err := config.NewMinIOClient(cfg, logger)
	if err != nil {
		logger.Warn("failed to connect to minio, receipt upload disabled", zap.Error(err))
		minioClient = nil
	}

	repos := repository.NewRepositories(db)
	services, err := service.NewServices(repos, redis, minioClient, cfg, logger)
	if err != nil {
		logger.Fatal("failed to build services", zap.Error(err))
	}
	handlers := handler.NewHandlers(services, logger)

	app := fiber.New(fiber.Config{
		ErrorHandler: middleware.ErrorHandler,
		BodyLimit:    int(cfg.ReceiptMaxSize) + 1024*1024,
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.RequestLogger(logger))
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, PATCH, DELETE, OPTIONS",
	}))

	handler.SetupRoutes(app, handlers, services.Auth)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go purgeSessions(ctx, services.Auth, cfg.SessionPurgeInterval, logger)

	go func() {
		logger.Info("server starting", zap.String("port", cfg.Port), zap.String("environment", cfg.Environment))
		if err := app.Listen(":" + cfg.Port); err != nil {
			logger.Error("server stopped", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Error("shutdown failed", zap.Error(err))
	}
}

func purgeSessions(ctx context.Context, authService auth.Service, interval time.Duration, logger *zap.Logger) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := authService.PurgeExpiredSessions(ctx)
			if err != nil {
				logger.Warn("session purge failed", zap.Error(err))
				continue
			}
			if n > 0 {
				logger.Info("expired sessions purged", zap.Int64("count", n))
			}
		}
	}
}
