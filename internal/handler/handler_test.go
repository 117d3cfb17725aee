package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"travel-expense/internal/domain"
	"travel-expense/internal/handler"
	"travel-expense/internal/middleware"
	"travel-expense/internal/mocks"
	"travel-expense/internal/service"
	"travel-expense/internal/service/audit"
	"travel-expense/internal/service/auth"
	"travel-expense/internal/service/dashboard"
	"travel-expense/internal/service/lifecycle"
	"travel-expense/internal/service/notification"
	"travel-expense/internal/service/request"
)

// tokenAuth treats the bearer token as the user id.
type tokenAuth struct {
	auth.Service
	users map[uuid.UUID]*domain.User
}

func (a *tokenAuth) ValidateAccessToken(token string) (*auth.Claims, error) {
	id, err := uuid.Parse(token)
	if err != nil {
		return nil, auth.ErrInvalidToken
	}
	return &auth.Claims{UserID: id}, nil
}

func (a *tokenAuth) GetUserByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	return a.users[id], nil
}

type apiFixture struct {
	app      *fiber.App
	requests *mocks.RequestRepository
	expenses *mocks.ExpenseRepository
	users    *mocks.UserRepository
	notifSvc *mocks.NotificationService
	audit    *mocks.AuditLogRepository
	budgets  *mocks.BudgetRepository

	employee *domain.User
	approver *domain.User
	checker  *domain.User
	admin    *domain.User
}

func newAPIFixture() *apiFixture {
	f := &apiFixture{
		requests: new(mocks.RequestRepository),
		expenses: new(mocks.ExpenseRepository),
		users:    new(mocks.UserRepository),
		notifSvc: new(mocks.NotificationService),
		audit:    new(mocks.AuditLogRepository),
		budgets:  new(mocks.BudgetRepository),
		employee: &domain.User{ID: uuid.New(), Role: domain.RoleEmployee, IsActive: true},
		approver: &domain.User{ID: uuid.New(), Role: domain.RoleApprover, IsActive: true},
		checker:  &domain.User{ID: uuid.New(), Role: domain.RoleChecker, IsActive: true},
		admin:    &domain.User{ID: uuid.New(), Role: domain.RoleAdmin, IsActive: true},
	}

	f.audit.On("Create", mock.Anything, mock.Anything).Return(nil).Maybe()
	projects := new(mocks.ProjectRepository)

	authSvc := &tokenAuth{users: map[uuid.UUID]*domain.User{
		f.employee.ID: f.employee,
		f.approver.ID: f.approver,
		f.checker.ID:  f.checker,
		f.admin.ID:    f.admin,
	}}

	services := &service.Services{
		Auth:         authSvc,
		Request:      request.NewService(f.requests, f.expenses, f.users, projects, f.audit, zap.NewNop()),
		Lifecycle:    lifecycle.NewService(f.requests, f.expenses, f.users, f.audit, f.notifSvc, zap.NewNop(), "en"),
		Notification: f.notifSvc,
		Dashboard:    dashboard.NewService(f.requests, f.budgets, nil),
		Audit:        audit.NewService(f.audit),
	}

	f.app = fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler})
	handler.SetupRoutes(f.app, handler.NewHandlers(services, zap.NewNop()), authSvc)
	return f
}

func (f *apiFixture) do(t *testing.T, method, path string, as *domain.User, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if as != nil {
		req.Header.Set("Authorization", "Bearer "+as.ID.String())
	}

	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)

	var decoded map[string]interface{}
	_ = json.NewDecoder(resp.Body).Decode(&decoded)
	resp.Body.Close()
	return resp, decoded
}

func TestHealth(t *testing.T) {
	f := newAPIFixture()
	resp, body := f.do(t, "GET", "/health", nil, nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
}

func TestTransitionRoute_ApproverApproves(t *testing.T) {
	f := newAPIFixture()
	stored := &domain.Request{
		ID:          uuid.New(),
		EmployeeID:  f.employee.ID,
		ApproverID:  &f.approver.ID,
		RequestType: domain.RequestNormal,
		Status:      domain.StatusPending,
	}
	f.requests.On("GetByID", mock.Anything, stored.ID).Return(stored, nil).Once()
	f.requests.On("UpdateStatus", mock.Anything, stored.ID, domain.StatusPending, mock.MatchedBy(func(u domain.StatusUpdate) bool {
		return u.Status == domain.StatusPendingVerification && u.ApproverComments != nil && *u.ApproverComments == "fine"
	})).Return(time.Now(), nil).Once()
	f.users.On("ListByRole", mock.Anything, domain.RoleChecker).Return([]domain.User{*f.checker}, nil).Once()
	f.notifSvc.On("Dispatch", mock.Anything, mock.MatchedBy(func(d []notification.Delivery) bool { return len(d) == 2 })).
		Return(notification.DispatchReport{Attempted: 2, Delivered: []uuid.UUID{uuid.New(), uuid.New()}}).Once()

	resp, body := f.do(t, "PATCH", "/api/v1/requests/"+stored.ID.String()+"/status", f.approver,
		map[string]interface{}{"decision": "approved", "comments": "fine"})

	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, string(domain.StatusPendingVerification), body["status"])
	assert.Equal(t, "fine", body["approver_comments"])
	f.requests.AssertExpectations(t)
	f.notifSvc.AssertExpectations(t)
}

func TestTransitionRoute_Errors(t *testing.T) {
	t.Run("employee cannot review", func(t *testing.T) {
		f := newAPIFixture()
		resp, body := f.do(t, "PATCH", "/api/v1/requests/"+uuid.NewString()+"/status", f.employee,
			map[string]interface{}{"decision": "approved"})
		assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
		assert.Equal(t, "FORBIDDEN", body["code"])
	})

	t.Run("unknown decision fails validation", func(t *testing.T) {
		f := newAPIFixture()
		resp, body := f.do(t, "PATCH", "/api/v1/requests/"+uuid.NewString()+"/status", f.checker,
			map[string]interface{}{"decision": "maybe"})
		assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
		assert.Equal(t, "VALIDATION_ERROR", body["code"])
	})

	t.Run("claimed role must match session", func(t *testing.T) {
		f := newAPIFixture()
		resp, _ := f.do(t, "PATCH", "/api/v1/requests/"+uuid.NewString()+"/status", f.approver,
			map[string]interface{}{"decision": "approved", "role": "checker"})
		assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	})

	t.Run("terminal request", func(t *testing.T) {
		f := newAPIFixture()
		stored := &domain.Request{ID: uuid.New(), RequestType: domain.RequestNormal, Status: domain.StatusApproved}
		f.requests.On("GetByID", mock.Anything, stored.ID).Return(stored, nil).Once()

		resp, body := f.do(t, "PATCH", "/api/v1/requests/"+stored.ID.String()+"/status", f.checker,
			map[string]interface{}{"decision": "rejected"})
		assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
		assert.Equal(t, "INVALID_TRANSITION", body["code"])
	})

	t.Run("concurrent write", func(t *testing.T) {
		f := newAPIFixture()
		stored := &domain.Request{ID: uuid.New(), RequestType: domain.RequestNormal, Status: domain.StatusPendingVerification}
		f.requests.On("GetByID", mock.Anything, stored.ID).Return(stored, nil).Once()
		f.requests.On("UpdateStatus", mock.Anything, stored.ID, domain.StatusPendingVerification, mock.Anything).
			Return(time.Time{}, domain.ErrConflict).Once()

		resp, body := f.do(t, "PATCH", "/api/v1/requests/"+stored.ID.String()+"/status", f.checker,
			map[string]interface{}{"decision": "approved"})
		assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
		assert.Equal(t, "CONFLICT", body["code"])
	})

	t.Run("malformed id", func(t *testing.T) {
		f := newAPIFixture()
		resp, _ := f.do(t, "PATCH", "/api/v1/requests/not-a-uuid/status", f.checker,
			map[string]interface{}{"decision": "approved"})
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	})

	t.Run("no token", func(t *testing.T) {
		f := newAPIFixture()
		resp, _ := f.do(t, "PATCH", "/api/v1/requests/"+uuid.NewString()+"/status", nil,
			map[string]interface{}{"decision": "approved"})
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})
}

func TestSubmitExpensesRoute_ZeroItems(t *testing.T) {
	f := newAPIFixture()
	stored := &domain.Request{
		ID:          uuid.New(),
		EmployeeID:  f.employee.ID,
		RequestType: domain.RequestInValley,
		Status:      domain.StatusTravelApproved,
	}
	f.requests.On("GetByID", mock.Anything, stored.ID).Return(stored, nil).Once()
	f.expenses.On("ListByRequest", mock.Anything, stored.ID).Return([]domain.ExpenseItem{}, nil).Once()

	resp, body := f.do(t, "POST", "/api/v1/requests/"+stored.ID.String()+"/expenses", f.employee,
		map[string]interface{}{"items": []interface{}{}})

	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "INVALID_TRANSITION", body["code"])
	f.requests.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestListRoute_EmployeeScope(t *testing.T) {
	f := newAPIFixture()
	f.requests.On("List", mock.Anything, mock.MatchedBy(func(filter domain.RequestFilter) bool {
		return filter.EmployeeID != nil && *filter.EmployeeID == f.employee.ID &&
			filter.Status != nil && *filter.Status == domain.StatusPending
	}), domain.PaginationParams{Page: 2, PageSize: 5}).
		Return([]domain.Request{{ID: uuid.New()}}, int64(6), nil).Once()

	resp, body := f.do(t, "GET", "/api/v1/requests?status=pending&page=2&page_size=5", f.employee, nil)

	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 6, body["total_items"])
	assert.Equal(t, false, body["has_next"])
	f.requests.AssertExpectations(t)
}

func TestNotificationRoutes(t *testing.T) {
	f := newAPIFixture()
	f.notifSvc.On("GetUnreadCount", mock.Anything, f.checker.ID).Return(int64(3), nil).Once()

	resp, body := f.do(t, "GET", "/api/v1/notifications/unread-count", f.checker, nil)

	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 3, body["count"])

	id := uuid.New()
	f.notifSvc.On("MarkAsRead", mock.Anything, id, f.checker.ID).Return(nil).Once()
	resp, _ = f.do(t, "PATCH", "/api/v1/notifications/"+id.String()+"/read", f.checker, nil)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
}

func TestRecentActivityRoute(t *testing.T) {
	t.Run("limit is clamped to the page-size bounds", func(t *testing.T) {
		f := newAPIFixture()
		logs := []domain.AuditLog{{ID: uuid.New(), Action: domain.AuditActionTransition}}
		f.audit.On("List", mock.Anything, domain.PaginationParams{Page: 1, PageSize: 100}).Return(logs, int64(1), nil).Once()

		resp, body := f.do(t, "GET", "/api/v1/audit/recent?limit=500", f.admin, nil)

		require.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.EqualValues(t, 1, body["count"])
		assert.Len(t, body["data"], 1)
		f.audit.AssertExpectations(t)
	})

	t.Run("missing limit uses the default page size", func(t *testing.T) {
		f := newAPIFixture()
		f.audit.On("List", mock.Anything, domain.PaginationParams{Page: 1, PageSize: 20}).Return([]domain.AuditLog{}, int64(0), nil).Once()

		resp, body := f.do(t, "GET", "/api/v1/audit/recent", f.admin, nil)

		require.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.EqualValues(t, 0, body["count"])
		f.audit.AssertExpectations(t)
	})

	t.Run("store failure", func(t *testing.T) {
		f := newAPIFixture()
		f.audit.On("List", mock.Anything, mock.Anything).Return(nil, int64(0), errors.New("connection refused")).Once()

		resp, _ := f.do(t, "GET", "/api/v1/audit/recent", f.admin, nil)
		assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
	})

	t.Run("checker is forbidden", func(t *testing.T) {
		f := newAPIFixture()
		resp, _ := f.do(t, "GET", "/api/v1/audit/recent", f.checker, nil)
		assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
		f.audit.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
	})
}

func TestDashboardRoute(t *testing.T) {
	for _, path := range []string{"/api/v1/dashboard/stats", "/api/v1/dashboard/stats?refresh=true"} {
		t.Run(path, func(t *testing.T) {
			f := newAPIFixture()
			f.requests.On("CountByStatus", mock.Anything).Return(map[domain.RequestStatus]int64{
				domain.StatusPending:  2,
				domain.StatusApproved: 1,
			}, nil).Once()
			f.requests.On("SumByStatus", mock.Anything, domain.StatusApproved).Return(300.0, nil).Once()
			f.requests.On("SumByStatus", mock.Anything, domain.StatusPendingVerification).Return(0.0, nil).Once()
			f.budgets.On("Total", mock.Anything).Return(1000.0, nil).Once()

			resp, body := f.do(t, "GET", path, f.checker, nil)

			require.Equal(t, fiber.StatusOK, resp.StatusCode)
			assert.Equal(t, "private, max-age=300", resp.Header.Get(fiber.HeaderCacheControl))
			assert.EqualValues(t, 3, body["total_requests"])
			assert.EqualValues(t, 2, body["awaiting_decision"])
			assert.InDelta(t, 30.0, body["budget_utilization"], 0.001)
			f.requests.AssertExpectations(t)
		})
	}

	t.Run("store failure", func(t *testing.T) {
		f := newAPIFixture()
		f.requests.On("CountByStatus", mock.Anything).Return(nil, errors.New("timeout")).Once()

		resp, _ := f.do(t, "GET", "/api/v1/dashboard/stats", f.admin, nil)
		assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
	})
}
