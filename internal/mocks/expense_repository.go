package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"travel-expense/internal/domain"
)

type ExpenseRepository struct {
	mock.Mock
}

func (m *ExpenseRepository) Create(ctx context.Context, item *domain.ExpenseItem) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *ExpenseRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.ExpenseItem, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ExpenseItem), args.Error(1)
}

func (m *ExpenseRepository) ListByRequest(ctx context.Context, requestID uuid.UUID) ([]domain.ExpenseItem, error) {
	args := m.Called(ctx, requestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ExpenseItem), args.Error(1)
}

func (m *ExpenseRepository) SumByRequest(ctx context.Context, requestID uuid.UUID) (float64, error) {
	args := m.Called(ctx, requestID)
	return args.Get(0).(float64), args.Error(1)
}

func (m *ExpenseRepository) DeleteByIDs(ctx context.Context, ids []uuid.UUID) error {
	args := m.Called(ctx, ids)
	return args.Error(0)
}
