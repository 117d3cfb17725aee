package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"travel-expense/internal/domain"
)

type ReceiptRepository struct {
	mock.Mock
}

func (m *ReceiptRepository) Create(ctx context.Context, receipt *domain.Receipt) error {
	args := m.Called(ctx, receipt)
	return args.Error(0)
}

func (m *ReceiptRepository) ListByExpense(ctx context.Context, expenseItemID uuid.UUID) ([]domain.Receipt, error) {
	args := m.Called(ctx, expenseItemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Receipt), args.Error(1)
}

func (m *ReceiptRepository) ListByRequest(ctx context.Context, requestID uuid.UUID) ([]domain.Receipt, error) {
	args := m.Called(ctx, requestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Receipt), args.Error(1)
}
