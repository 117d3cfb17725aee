package request

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"travel-expense/internal/domain"
	"travel-expense/internal/repository"
)

type Service interface {
	Create(ctx context.Context, actor domain.Actor, input domain.CreateRequestInput, meta *domain.RequestMeta) (*domain.Request, error)
	// GetByID returns the request with its expense items if the actor may read it.
	GetByID(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.Request, error)
	List(ctx context.Context, actor domain.Actor, filter domain.RequestFilter, params domain.PaginationParams) (domain.PaginatedResponse[domain.Request], error)
	UpdateFinanceComments(ctx context.Context, actor domain.Actor, id uuid.UUID, input domain.FinanceCommentsInput, meta *domain.RequestMeta) (*domain.Request, error)
}

type service struct {
	requestRepo repository.RequestRepository
	expenseRepo repository.ExpenseRepository
	userRepo    repository.UserRepository
	projectRepo repository.ProjectRepository
	auditRepo   repository.AuditLogRepository
	logger      *zap.Logger
}

func NewService(
	requestRepo repository.RequestRepository,
	expenseRepo repository.ExpenseRepository,
	userRepo repository.UserRepository,
	projectRepo repository.ProjectRepository,
	auditRepo repository.AuditLogRepository,
	logger *zap.Logger,
) Service {
	return &service{
		requestRepo: requestRepo,
		expenseRepo: expenseRepo,
		userRepo:    userRepo,
		projectRepo: projectRepo,
		auditRepo:   auditRepo,
		logger:      logger.Named("request"),
	}
}

func (s *service) Create(ctx context.Context, actor domain.Actor, input domain.CreateRequestInput, meta *domain.RequestMeta) (*domain.Request, error) {
	if actor.Role != domain.RoleEmployee {
		return nil, fmt.Errorf("%w: only employees submit requests", domain.ErrUnauthorized)
	}
	if !input.RequestType.IsValid() {
		return nil, domain.Validationf("unknown request type %q", input.RequestType)
	}

	details, err := s.buildDetails(input)
	if err != nil {
		return nil, err
	}

	project, err := s.resolveProject(ctx, input.Project)
	if err != nil {
		return nil, err
	}

	approverID, err := s.resolveApprover(ctx, actor.UserID, input.ApproverID)
	if err != nil {
		return nil, err
	}

	for i, item := range input.Expenses {
		if !domain.IsValidExpenseCategory(item.Category) {
			return nil, domain.Validationf("expense %d: unknown category %q", i, item.Category)
		}
		if item.Amount <= 0 {
			return nil, domain.Validationf("expense %d: amount must be greater than zero", i)
		}
	}

	req := &domain.Request{
		ID:          uuid.New(),
		EmployeeID:  actor.UserID,
		ApproverID:  approverID,
		RequestType: input.RequestType,
		Project:     project,
		Details:     details,
		Status:      domain.StatusPending,
	}

	if err := s.requestRepo.Create(ctx, req); err != nil {
		return nil, domain.StoreError("create request", err)
	}

	items := make([]domain.ExpenseItem, 0, len(input.Expenses))
	for _, in := range input.Expenses {
		item := domain.ExpenseItem{
			ID:          uuid.New(),
			RequestID:   req.ID,
			Category:    in.Category,
			Amount:      in.Amount,
			Description: in.Description,
		}
		if err := s.expenseRepo.Create(ctx, &item); err != nil {
			if delErr := s.requestRepo.Delete(ctx, req.ID); delErr != nil {
				s.logger.Error("failed to remove incomplete request",
					zap.String("request_id", req.ID.String()),
					zap.Error(delErr),
				)
			}
			return nil, domain.StoreError("create expense item", err)
		}
		items = append(items, item)
		req.TotalAmount += item.Amount
	}
	req.ExpenseItems = items

	s.logger.Info("request created",
		zap.String("request_id", req.ID.String()),
		zap.String("employee_id", actor.UserID.String()),
		zap.String("type", string(req.RequestType)),
	)
	s.logAudit(ctx, actor, req.ID, domain.AuditActionCreateRequest, nil, map[string]interface{}{
		"status":       req.Status,
		"request_type": req.RequestType,
		"total_amount": req.TotalAmount,
	}, meta)

	return req, nil
}

// buildDetails serialises the variant payload matching the request type.
// Expense items of in-valley trips arrive in the second phase instead.
func (s *service) buildDetails(input domain.CreateRequestInput) (json.RawMessage, error) {
	if input.RequestType.Flow() == domain.FlowTwoPhase {
		if input.InValley == nil {
			return nil, domain.Validationf("in_valley details are required for %s requests", input.RequestType)
		}
		if len(input.Expenses) > 0 {
			return nil, domain.Validationf("expenses of %s requests are submitted after travel approval", input.RequestType)
		}
		return json.Marshal(input.InValley)
	}

	if input.Travel == nil {
		return nil, domain.Validationf("travel details are required for %s requests", input.RequestType)
	}
	if input.RequestType == domain.RequestGroup && len(input.Travel.Travellers) == 0 {
		return nil, domain.Validationf("group requests need at least one traveller")
	}
	return json.Marshal(input.Travel)
}

func (s *service) resolveProject(ctx context.Context, name *string) (*string, error) {
	if name == nil || strings.TrimSpace(*name) == "" {
		return nil, nil
	}

	project, err := s.projectRepo.GetByName(ctx, strings.TrimSpace(*name))
	if err != nil {
		return nil, domain.StoreError("get project", err)
	}
	if project == nil || !project.IsActive {
		return nil, domain.Validationf("project %q does not exist or is inactive", *name)
	}
	return &project.Name, nil
}

// resolveApprover picks the explicit approver, then the employee's default.
// A nil result leaves the request open to any approver.
func (s *service) resolveApprover(ctx context.Context, employeeID uuid.UUID, requested *uuid.UUID) (*uuid.UUID, error) {
	approverID := requested
	if approverID == nil {
		employee, err := s.userRepo.GetByID(ctx, employeeID)
		if err != nil {
			return nil, domain.StoreError("get employee", err)
		}
		if employee == nil {
			return nil, domain.NotFoundf("user %s", employeeID)
		}
		approverID = employee.DefaultApproverID
	}
	if approverID == nil {
		return nil, nil
	}

	approver, err := s.userRepo.GetByID(ctx, *approverID)
	if err != nil {
		return nil, domain.StoreError("get approver", err)
	}
	if approver == nil || approver.Role != domain.RoleApprover || !approver.IsActive {
		return nil, domain.Validationf("user %s is not an active approver", *approverID)
	}
	return approverID, nil
}

func (s *service) GetByID(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.Request, error) {
	req, err := s.requestRepo.GetByID(ctx, id)
	if err != nil {
		return nil, domain.StoreError("get request", err)
	}
	if req == nil {
		return nil, domain.NotFoundf("request %s", id)
	}
	if !CanRead(actor, req) {
		return nil, fmt.Errorf("%w: request %s is not visible to %s", domain.ErrUnauthorized, id, actor.Role)
	}

	items, err := s.expenseRepo.ListByRequest(ctx, id)
	if err != nil {
		return nil, domain.StoreError("list expense items", err)
	}
	req.ExpenseItems = items

	var total float64
	for _, item := range items {
		total += item.Amount
	}
	req.TotalAmount = total

	if employee, err := s.userRepo.GetByID(ctx, req.EmployeeID); err == nil && employee != nil {
		req.Employee = employee
	}

	return req, nil
}

func (s *service) List(ctx context.Context, actor domain.Actor, filter domain.RequestFilter, params domain.PaginationParams) (domain.PaginatedResponse[domain.Request], error) {
	params.Validate()

	switch actor.Role {
	case domain.RoleEmployee:
		filter.EmployeeID = &actor.UserID
		filter.ApproverID = nil
	case domain.RoleApprover:
		filter.ApproverID = &actor.UserID
	case domain.RoleChecker, domain.RoleAdmin:
	default:
		return domain.PaginatedResponse[domain.Request]{}, domain.ErrUnauthorized
	}

	if filter.Status != nil && !filter.Status.IsValid() {
		return domain.PaginatedResponse[domain.Request]{}, domain.Validationf("unknown status %q", *filter.Status)
	}
	if filter.RequestType != nil && !filter.RequestType.IsValid() {
		return domain.PaginatedResponse[domain.Request]{}, domain.Validationf("unknown request type %q", *filter.RequestType)
	}

	requests, total, err := s.requestRepo.List(ctx, filter, params)
	if err != nil {
		return domain.PaginatedResponse[domain.Request]{}, domain.StoreError("list requests", err)
	}

	return domain.NewPaginatedResponse(requests, params.Page, params.PageSize, total), nil
}

func (s *service) UpdateFinanceComments(ctx context.Context, actor domain.Actor, id uuid.UUID, input domain.FinanceCommentsInput, meta *domain.RequestMeta) (*domain.Request, error) {
	if actor.Role != domain.RoleAdmin && actor.Role != domain.RoleChecker {
		return nil, fmt.Errorf("%w: finance comments are restricted to finance staff", domain.ErrUnauthorized)
	}

	comments := strings.TrimSpace(input.Comments)
	if comments == "" {
		return nil, domain.Validationf("comments must not be empty")
	}

	req, err := s.requestRepo.GetByID(ctx, id)
	if err != nil {
		return nil, domain.StoreError("get request", err)
	}
	if req == nil {
		return nil, domain.NotFoundf("request %s", id)
	}

	updatedAt, err := s.requestRepo.UpdateFinanceComments(ctx, id, comments)
	if err != nil {
		return nil, err
	}

	previous := req.FinanceComments
	req.FinanceComments = &comments
	req.UpdatedAt = updatedAt

	s.logAudit(ctx, actor, id, domain.AuditActionFinanceComment,
		map[string]interface{}{"finance_comments": previous},
		map[string]interface{}{"finance_comments": comments},
		meta,
	)
	return req, nil
}

// CanRead reports whether the actor may see the request. Approvers see
// requests assigned to them and unassigned ones.
func CanRead(actor domain.Actor, req *domain.Request) bool {
	switch actor.Role {
	case domain.RoleChecker, domain.RoleAdmin:
		return true
	case domain.RoleApprover:
		return req.ApproverID == nil || *req.ApproverID == actor.UserID
	case domain.RoleEmployee:
		return req.EmployeeID == actor.UserID
	}
	return false
}

func (s *service) logAudit(ctx context.Context, actor domain.Actor, requestID uuid.UUID, action string, oldValue, newValue interface{}, meta *domain.RequestMeta) {
	input := domain.CreateAuditLogInput{
		UserID:     actor.UserID,
		Action:     action,
		EntityType: domain.AuditEntityRequest,
		EntityID:   requestID,
		OldValue:   oldValue,
		NewValue:   newValue,
	}
	if meta != nil {
		if meta.IPAddress != "" {
			input.IPAddress = &meta.IPAddress
		}
		if meta.UserAgent != "" {
			input.UserAgent = &meta.UserAgent
		}
	}

	if err := repository.CreateAuditLog(ctx, s.auditRepo, input); err != nil {
		s.logger.Warn("failed to write audit log", zap.String("request_id", requestID.String()), zap.Error(err))
	}
}
