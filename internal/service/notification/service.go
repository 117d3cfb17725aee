package notification

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"travel-expense/internal/domain"
	"travel-expense/internal/repository"
	"travel-expense/internal/service/email"
)

const (
	unreadCacheTTL = 5 * time.Minute
	defaultSubject = "Travel request update"
)

type Service interface {
	Notify(ctx context.Context, userID, requestID uuid.UUID, typ domain.NotificationType, message string) (uuid.UUID, error)
	// Dispatch persists every delivery in order. It never stops early; the
	// report lists what failed.
	Dispatch(ctx context.Context, deliveries []Delivery) DispatchReport

	List(ctx context.Context, userID uuid.UUID, unreadOnly bool, params domain.PaginationParams) (domain.PaginatedResponse[domain.Notification], error)
	MarkAsRead(ctx context.Context, id, userID uuid.UUID) error
	MarkAllAsRead(ctx context.Context, userID uuid.UUID) error
	GetUnreadCount(ctx context.Context, userID uuid.UUID) (int64, error)
}

type service struct {
	notifRepo repository.NotificationRepository
	userRepo  repository.UserRepository
	emailSvc  email.Service
	redis     *redis.Client
	logger    *zap.Logger
}

func NewService(
	notifRepo repository.NotificationRepository,
	userRepo repository.UserRepository,
	emailSvc email.Service,
	redisClient *redis.Client,
	logger *zap.Logger,
) Service {
	return &service{
		notifRepo: notifRepo,
		userRepo:  userRepo,
		emailSvc:  emailSvc,
		redis:     redisClient,
		logger:    logger.Named("notification"),
	}
}

func (s *service) Notify(ctx context.Context, userID, requestID uuid.UUID, typ domain.NotificationType, message string) (uuid.UUID, error) {
	return s.deliver(ctx, Delivery{UserID: userID, RequestID: requestID, Type: typ, Message: message})
}

func (s *service) Dispatch(ctx context.Context, deliveries []Delivery) DispatchReport {
	report := DispatchReport{Attempted: len(deliveries)}

	for _, d := range deliveries {
		id, err := s.deliver(ctx, d)
		if err != nil {
			report.Failed = append(report.Failed, DeliveryError{UserID: d.UserID, Err: err})
			continue
		}
		report.Delivered = append(report.Delivered, id)
	}

	return report
}

func (s *service) deliver(ctx context.Context, d Delivery) (uuid.UUID, error) {
	requestID := d.RequestID
	notif := &domain.Notification{
		ID:        uuid.New(),
		UserID:    d.UserID,
		RequestID: &requestID,
		Type:      d.Type,
		Message:   d.Message,
	}

	if err := s.notifRepo.Create(ctx, notif); err != nil {
		return uuid.Nil, fmt.Errorf("failed to create notification: %w", err)
	}

	s.invalidateUnread(ctx, d.UserID)
	s.sendEmailCopy(ctx, d)

	return notif.ID, nil
}

// sendEmailCopy mails the notification on a detached goroutine. Failures are
// only logged.
func (s *service) sendEmailCopy(ctx context.Context, d Delivery) {
	if s.emailSvc == nil {
		return
	}

	user, err := s.userRepo.GetByID(ctx, d.UserID)
	if err != nil || user == nil || user.Email == "" {
		return
	}

	subject := d.Subject
	if subject == "" {
		subject = defaultSubject
	}

	go func(toEmail, name string) {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := s.emailSvc.SendNotificationEmail(ctx, toEmail, name, subject, d.Message); err != nil {
			s.logger.Warn("failed to send notification email",
				zap.String("user_id", d.UserID.String()),
				zap.Error(err),
			)
		}
	}(user.Email, user.FullName)
}

func (s *service) List(ctx context.Context, userID uuid.UUID, unreadOnly bool, params domain.PaginationParams) (domain.PaginatedResponse[domain.Notification], error) {
	params.Validate()

	notifications, total, err := s.notifRepo.ListByUser(ctx, userID, unreadOnly, params)
	if err != nil {
		return domain.PaginatedResponse[domain.Notification]{}, domain.StoreError("list notifications", err)
	}

	return domain.NewPaginatedResponse(notifications, params.Page, params.PageSize, total), nil
}

func (s *service) MarkAsRead(ctx context.Context, id, userID uuid.UUID) error {
	if err := s.notifRepo.MarkAsRead(ctx, id, userID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return err
		}
		return domain.StoreError("mark notification read", err)
	}
	s.invalidateUnread(ctx, userID)
	return nil
}

func (s *service) MarkAllAsRead(ctx context.Context, userID uuid.UUID) error {
	if err := s.notifRepo.MarkAllAsRead(ctx, userID); err != nil {
		return domain.StoreError("mark all notifications read", err)
	}
	s.invalidateUnread(ctx, userID)
	return nil
}

func (s *service) GetUnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	key := unreadKey(userID)

	if s.redis != nil {
		if cached, err := s.redis.Get(ctx, key).Result(); err == nil {
			if count, err := strconv.ParseInt(cached, 10, 64); err == nil {
				return count, nil
			}
		}
	}

	count, err := s.notifRepo.CountUnread(ctx, userID)
	if err != nil {
		return 0, domain.StoreError("count unread notifications", err)
	}

	if s.redis != nil {
		_ = s.redis.Set(ctx, key, count, unreadCacheTTL).Err()
	}
	return count, nil
}

func (s *service) invalidateUnread(ctx context.Context, userID uuid.UUID) {
	if s.redis == nil {
		return
	}
	if err := s.redis.Del(ctx, unreadKey(userID)).Err(); err != nil {
		s.logger.Debug("failed to invalidate unread count", zap.String("user_id", userID.String()), zap.Error(err))
	}
}

func unreadKey(userID uuid.UUID) string {
	return "notifications:unread:" + userID.String()
}
