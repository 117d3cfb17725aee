package service

import (
	"github.com/minio/minio-go/v7"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"travel-expense/internal/config"
	"travel-expense/internal/repository"
	"travel-expense/internal/service/audit"
	"travel-expense/internal/service/auth"
	"travel-expense/internal/service/dashboard"
	"travel-expense/internal/service/email"
	"travel-expense/internal/service/lifecycle"
	"travel-expense/internal/service/notification"
	"travel-expense/internal/service/project"
	"travel-expense/internal/service/receipt"
	"travel-expense/internal/service/request"
	"travel-expense/internal/service/user"
)

type Services struct {
	Auth         auth.Service
	User         user.Service
	Request      request.Service
	Lifecycle    lifecycle.Service
	Receipt      receipt.Service
	Project      project.Service
	Notification notification.Service
	Dashboard    dashboard.Service
	Audit        audit.Service
}

func NewServices(repos *repository.Repositories, redis *redis.Client, minioClient *minio.Client, cfg *config.Config, logger *zap.Logger) (*Services, error) {
	var emailService email.Service
	if cfg.ResendAPIKey != "" {
		svc, err := email.NewService(cfg)
		if err != nil {
			return nil, err
		}
		emailService = svc
	} else {
		logger.Warn("RESEND_API_KEY not set, email copies disabled")
	}

	var receiptStore receipt.ObjectStore
	if minioClient != nil {
		receiptStore = minioClient
	}

	notificationService := notification.NewService(repos.Notification, repos.User, emailService, redis, logger)

	return &Services{
		Auth:         auth.NewService(repos.User, repos.Session, cfg),
		User:         user.NewService(repos.User, repos.Session, emailService, logger),
		Request:      request.NewService(repos.Request, repos.Expense, repos.User, repos.Project, repos.AuditLog, logger),
		Lifecycle:    lifecycle.NewService(repos.Request, repos.Expense, repos.User, repos.AuditLog, notificationService, logger, cfg.Locale),
		Receipt:      receipt.NewService(repos.Receipt, repos.Expense, repos.Request, receiptStore, cfg, logger),
		Project:      project.NewService(repos.Project, repos.Budget, redis, logger),
		Notification: notificationService,
		Dashboard:    dashboard.NewService(repos.Request, repos.Budget, redis),
		Audit:        audit.NewService(repos.AuditLog),
	}, nil
}
