package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"travel-expense/internal/domain"
	"travel-expense/internal/pkg/i18n"
	"travel-expense/internal/repository"
	"travel-expense/internal/service/notification"
)

type Service interface {
	// TransitionRequest applies an approver or checker decision to a request.
	TransitionRequest(ctx context.Context, actor domain.Actor, requestID uuid.UUID, input domain.TransitionInput, meta *domain.RequestMeta) (*domain.Request, error)
	// SubmitExpenses records the expense items of an approved in-valley trip
	// and moves the request to financial verification.
	SubmitExpenses(ctx context.Context, actor domain.Actor, requestID uuid.UUID, items []domain.ExpenseItemInput, meta *domain.RequestMeta) (*domain.Request, error)
	TotalAmount(ctx context.Context, requestID uuid.UUID) (float64, error)
}

type service struct {
	requestRepo repository.RequestRepository
	expenseRepo repository.ExpenseRepository
	userRepo    repository.UserRepository
	auditRepo   repository.AuditLogRepository
	notifSvc    notification.Service
	logger      *zap.Logger
	locale      string
}

func NewService(
	requestRepo repository.RequestRepository,
	expenseRepo repository.ExpenseRepository,
	userRepo repository.UserRepository,
	auditRepo repository.AuditLogRepository,
	notifSvc notification.Service,
	logger *zap.Logger,
	locale string,
) Service {
	if locale == "" {
		locale = i18n.DefaultLocale
	}
	return &service{
		requestRepo: requestRepo,
		expenseRepo: expenseRepo,
		userRepo:    userRepo,
		auditRepo:   auditRepo,
		notifSvc:    notifSvc,
		logger:      logger.Named("lifecycle"),
		locale:      locale,
	}
}

func (s *service) TransitionRequest(ctx context.Context, actor domain.Actor, requestID uuid.UUID, input domain.TransitionInput, meta *domain.RequestMeta) (*domain.Request, error) {
	if input.Decision != domain.DecisionApproved && input.Decision != domain.DecisionRejected {
		return nil, fmt.Errorf("%w: unknown decision %q", domain.ErrInvalidTransition, input.Decision)
	}
	if input.Role != "" && input.Role != actor.Role {
		return nil, fmt.Errorf("%w: claimed role %s does not match session role %s", domain.ErrUnauthorized, input.Role, actor.Role)
	}
	if !actor.Role.IsReviewer() {
		return nil, fmt.Errorf("%w: role %s cannot review requests", domain.ErrUnauthorized, actor.Role)
	}

	req, err := s.loadRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}

	t, err := Next(req.Status, actor.Role, input.Decision, req.RequestType.Flow())
	if err != nil {
		return nil, err
	}

	if t.Role == domain.RoleApprover && req.ApproverID != nil && *req.ApproverID != actor.UserID {
		return nil, fmt.Errorf("%w: request %s is assigned to another approver", domain.ErrUnauthorized, req.ID)
	}

	return s.apply(ctx, actor, req, t, normalizeComments(input.Comments), domain.AuditActionTransition, meta)
}

func (s *service) SubmitExpenses(ctx context.Context, actor domain.Actor, requestID uuid.UUID, items []domain.ExpenseItemInput, meta *domain.RequestMeta) (*domain.Request, error) {
	req, err := s.loadRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}

	if req.EmployeeID != actor.UserID {
		return nil, fmt.Errorf("%w: only the requesting employee may submit expenses", domain.ErrUnauthorized)
	}

	t, err := Next(req.Status, domain.RoleEmployee, domain.DecisionSubmitExpenses, req.RequestType.Flow())
	if err != nil {
		return nil, err
	}

	for i, item := range items {
		if !domain.IsValidExpenseCategory(item.Category) {
			return nil, domain.Validationf("item %d: unknown category %q", i, item.Category)
		}
		if item.Amount <= 0 {
			return nil, domain.Validationf("item %d: amount must be greater than zero", i)
		}
	}

	inserted := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		expense := &domain.ExpenseItem{
			ID:          uuid.New(),
			RequestID:   req.ID,
			Category:    item.Category,
			Amount:      item.Amount,
			Description: item.Description,
		}
		if err := s.expenseRepo.Create(ctx, expense); err != nil {
			s.discardExpenses(ctx, req.ID, inserted)
			return nil, domain.StoreError("create expense item", err)
		}
		inserted = append(inserted, expense.ID)
	}

	stored, err := s.expenseRepo.ListByRequest(ctx, req.ID)
	if err != nil {
		s.discardExpenses(ctx, req.ID, inserted)
		return nil, domain.StoreError("list expense items", err)
	}
	if len(stored) == 0 {
		return nil, domain.ErrNoExpenses
	}

	req.ExpenseItems = stored
	req.TotalAmount = sumAmounts(stored)

	updated, err := s.apply(ctx, actor, req, t, nil, domain.AuditActionSubmitExpenses, meta)
	if err != nil {
		s.discardExpenses(ctx, req.ID, inserted)
		return nil, err
	}
	return updated, nil
}

// discardExpenses removes items inserted by a submission whose status write
// did not go through, so they never count toward the request total.
func (s *service) discardExpenses(ctx context.Context, requestID uuid.UUID, ids []uuid.UUID) {
	if len(ids) == 0 {
		return
	}
	if err := s.expenseRepo.DeleteByIDs(ctx, ids); err != nil {
		s.logger.Error("failed to discard expense items of failed submission",
			zap.String("request_id", requestID.String()),
			zap.Int("count", len(ids)),
			zap.Error(err),
		)
	}
}

func (s *service) TotalAmount(ctx context.Context, requestID uuid.UUID) (float64, error) {
	total, err := s.expenseRepo.SumByRequest(ctx, requestID)
	if err != nil {
		return 0, domain.StoreError("sum expense items", err)
	}
	return total, nil
}

func (s *service) loadRequest(ctx context.Context, id uuid.UUID) (*domain.Request, error) {
	req, err := s.requestRepo.GetByID(ctx, id)
	if err != nil {
		return nil, domain.StoreError("get request", err)
	}
	if req == nil {
		return nil, domain.NotFoundf("request %s", id)
	}
	if !req.Status.IsValid() {
		return nil, fmt.Errorf("%w: request %s has unknown status %q", domain.ErrInvalidTransition, id, req.Status)
	}
	return req, nil
}

// apply performs the status write with the loaded status as precondition.
// Notifications and the audit row follow the committed write and never undo it.
func (s *service) apply(ctx context.Context, actor domain.Actor, req *domain.Request, t Transition, comments *string, action string, meta *domain.RequestMeta) (*domain.Request, error) {
	update := domain.StatusUpdate{Status: t.To}
	switch t.Role {
	case domain.RoleApprover:
		update.ApproverComments = comments
	case domain.RoleChecker:
		update.CheckerComments = comments
	}

	updatedAt, err := s.requestRepo.UpdateStatus(ctx, req.ID, req.Status, update)
	if errors.Is(err, domain.ErrConflict) {
		return nil, fmt.Errorf("request %s: %w", req.ID, err)
	}
	if err != nil {
		return nil, domain.StoreError("update request status", err)
	}

	previous := req.Status
	req.Status = t.To
	req.UpdatedAt = updatedAt
	if update.ApproverComments != nil {
		req.ApproverComments = update.ApproverComments
	}
	if update.CheckerComments != nil {
		req.CheckerComments = update.CheckerComments
	}

	s.logger.Info("request transitioned",
		zap.String("request_id", req.ID.String()),
		zap.String("actor_id", actor.UserID.String()),
		zap.String("role", string(actor.Role)),
		zap.String("from", string(previous)),
		zap.String("to", string(t.To)),
	)

	s.notify(ctx, req, t, comments)
	s.logAudit(ctx, actor, req, previous, t, comments, action, meta)

	return req, nil
}

// notify fans out the transition's notifications. A partial failure is logged
// and swallowed: the status write has already been committed.
func (s *service) notify(ctx context.Context, req *domain.Request, t Transition, comments *string) {
	var deliveries []notification.Delivery

	statusLabel := i18n.Status(s.locale, string(t.To))
	subject := i18n.Render(s.locale, "email_subject", map[string]string{"status": statusLabel})

	if t.Notify.Has(NotifyEmployee) {
		vars := map[string]string{
			"type":   string(req.RequestType),
			"status": statusLabel,
		}
		key := "status_changed"
		if comments != nil {
			key = "status_changed_comment"
			vars["comments"] = *comments
		}
		deliveries = append(deliveries, notification.Delivery{
			UserID:    req.EmployeeID,
			RequestID: req.ID,
			Type:      domain.NotifStatusChanged,
			Message:   i18n.Render(s.locale, key, vars),
			Subject:   subject,
		})
	}

	if t.Notify.Has(NotifyCheckers) {
		checkers, err := s.userRepo.ListByRole(ctx, domain.RoleChecker)
		if err != nil {
			s.logger.Warn("failed to load checkers for fan-out",
				zap.String("request_id", req.ID.String()),
				zap.Error(err),
			)
		}
		message := i18n.Render(s.locale, "verification_queued", map[string]string{
			"type":    string(req.RequestType),
			"request": shortID(req.ID),
		})
		for _, checker := range checkers {
			deliveries = append(deliveries, notification.Delivery{
				UserID:    checker.ID,
				RequestID: req.ID,
				Type:      domain.NotifVerificationQueued,
				Message:   message,
				Subject:   subject,
			})
		}
	}

	if len(deliveries) == 0 {
		return
	}

	report := s.notifSvc.Dispatch(ctx, deliveries)
	if err := report.Err(); err != nil {
		s.logger.Warn("notification fan-out incomplete",
			zap.String("request_id", req.ID.String()),
			zap.String("status", string(t.To)),
			zap.Int("delivered", len(report.Delivered)),
			zap.Int("failed", len(report.Failed)),
			zap.Error(err),
		)
	}
}

func (s *service) logAudit(ctx context.Context, actor domain.Actor, req *domain.Request, previous domain.RequestStatus, t Transition, comments *string, action string, meta *domain.RequestMeta) {
	input := domain.CreateAuditLogInput{
		UserID:     actor.UserID,
		Action:     action,
		EntityType: domain.AuditEntityRequest,
		EntityID:   req.ID,
		OldValue:   map[string]string{"status": string(previous)},
		NewValue: map[string]interface{}{
			"status":   t.To,
			"decision": t.Decision,
			"comments": comments,
		},
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
		s.logger.Warn("failed to write audit log",
			zap.String("request_id", req.ID.String()),
			zap.Error(err),
		)
	}
}

func normalizeComments(comments *string) *string {
	if comments == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*comments)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func sumAmounts(items []domain.ExpenseItem) float64 {
	var total float64
	for _, item := range items {
		total += item.Amount
	}
	return total
}

func shortID(id uuid.UUID) string {
	return id.String()[:8]
}
