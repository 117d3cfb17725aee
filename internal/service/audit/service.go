package audit

import (
	"context"

	"github.com/google/uuid"

	"travel-expense/internal/domain"
	"travel-expense/internal/repository"
)

type Service interface {
	GetRecentActivities(ctx context.Context, limit int) ([]domain.AuditLog, error)
	// ListByRequest returns the trail of one request, newest first.
	ListByRequest(ctx context.Context, requestID uuid.UUID, params domain.PaginationParams) (domain.PaginatedResponse[domain.AuditLog], error)
}

type service struct {
	auditRepo repository.AuditLogRepository
}

func NewService(auditRepo repository.AuditLogRepository) Service {
	return &service{
		auditRepo: auditRepo,
	}
}

func (s *service) GetRecentActivities(ctx context.Context, limit int) ([]domain.AuditLog, error) {
	params := domain.PaginationParams{
		Page:     1,
		PageSize: limit,
	}
	params.Validate()

	logs, _, err := s.auditRepo.List(ctx, params)
	if err != nil {
		return nil, domain.StoreError("list audit logs", err)
	}
	return logs, nil
}

func (s *service) ListByRequest(ctx context.Context, requestID uuid.UUID, params domain.PaginationParams) (domain.PaginatedResponse[domain.AuditLog], error) {
	params.Validate()

	logs, total, err := s.auditRepo.ListByEntity(ctx, domain.AuditEntityRequest, requestID, params)
	if err != nil {
		return domain.PaginatedResponse[domain.AuditLog]{}, domain.StoreError("list audit logs", err)
	}
	return domain.NewPaginatedResponse(logs, params.Page, params.PageSize, total), nil
}
