package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"travel-expense/internal/domain"
	"travel-expense/internal/service/notification"
)

type NotificationService struct {
	mock.Mock
}

func (m *NotificationService) Notify(ctx context.Context, userID, requestID uuid.UUID, typ domain.NotificationType, message string) (uuid.UUID, error) {
	args := m.Called(ctx, userID, requestID, typ, message)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *NotificationService) Dispatch(ctx context.Context, deliveries []notification.Delivery) notification.DispatchReport {
	args := m.Called(ctx, deliveries)
	return args.Get(0).(notification.DispatchReport)
}

func (m *NotificationService) List(ctx context.Context, userID uuid.UUID, unreadOnly bool, params domain.PaginationParams) (domain.PaginatedResponse[domain.Notification], error) {
	args := m.Called(ctx, userID, unreadOnly, params)
	return args.Get(0).(domain.PaginatedResponse[domain.Notification]), args.Error(1)
}

func (m *NotificationService) MarkAsRead(ctx context.Context, id, userID uuid.UUID) error {
	args := m.Called(ctx, id, userID)
	return args.Error(0)
}

func (m *NotificationService) MarkAllAsRead(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *NotificationService) GetUnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}
