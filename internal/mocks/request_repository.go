package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"travel-expense/internal/domain"
)

type RequestRepository struct {
	mock.Mock
}

func (m *RequestRepository) Create(ctx context.Context, req *domain.Request) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func (m *RequestRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *RequestRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Request, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Request), args.Error(1)
}

func (m *RequestRepository) List(ctx context.Context, filter domain.RequestFilter, params domain.PaginationParams) ([]domain.Request, int64, error) {
	args := m.Called(ctx, filter, params)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]domain.Request), args.Get(1).(int64), args.Error(2)
}

func (m *RequestRepository) UpdateStatus(ctx context.Context, id uuid.UUID, expected domain.RequestStatus, update domain.StatusUpdate) (time.Time, error) {
	args := m.Called(ctx, id, expected, update)
	return args.Get(0).(time.Time), args.Error(1)
}

func (m *RequestRepository) UpdateFinanceComments(ctx context.Context, id uuid.UUID, comments string) (time.Time, error) {
	args := m.Called(ctx, id, comments)
	return args.Get(0).(time.Time), args.Error(1)
}

func (m *RequestRepository) CountByStatus(ctx context.Context) (map[domain.RequestStatus]int64, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[domain.RequestStatus]int64), args.Error(1)
}

func (m *RequestRepository) SumByStatus(ctx context.Context, status domain.RequestStatus) (float64, error) {
	args := m.Called(ctx, status)
	return args.Get(0).(float64), args.Error(1)
}
