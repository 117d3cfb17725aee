package middleware_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"travel-expense/internal/domain"
	"travel-expense/internal/middleware"
	"travel-expense/internal/service/auth"
	"travel-expense/internal/service/notification"
)

type stubAuth struct {
	auth.Service
	user *domain.User
}

func (s *stubAuth) ValidateAccessToken(token string) (*auth.Claims, error) {
	if token != "good" {
		return nil, auth.ErrInvalidToken
	}
	return &auth.Claims{UserID: s.user.ID, Role: s.user.Role}, nil
}

func (s *stubAuth) GetUserByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	if id != s.user.ID {
		return nil, nil
	}
	return s.user, nil
}

func TestErrorHandler_MapsDomainErrors(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{domain.NotFoundf("request %s", uuid.Nil), fiber.StatusNotFound, "NOT_FOUND"},
		{fmt.Errorf("%w: approved -> approved", domain.ErrInvalidTransition), fiber.StatusUnprocessableEntity, "INVALID_TRANSITION"},
		{domain.ErrNoExpenses, fiber.StatusUnprocessableEntity, "INVALID_TRANSITION"},
		{domain.Validationf("bad amount"), fiber.StatusUnprocessableEntity, "VALIDATION_ERROR"},
		{domain.ErrUnauthorized, fiber.StatusForbidden, "FORBIDDEN"},
		{fmt.Errorf("request x: %w", domain.ErrConflict), fiber.StatusConflict, "CONFLICT"},
		{domain.StoreError("get request", errors.New("dial tcp")), fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE"},
		{auth.ErrInvalidCredentials, fiber.StatusUnauthorized, "UNAUTHORIZED"},
		{fiber.NewError(fiber.StatusBadRequest, "bad body"), fiber.StatusBadRequest, "BAD_REQUEST"},
		{notification.ErrDeliveryFailure, fiber.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tc := range cases {
		t.Run(tc.code+"/"+tc.err.Error(), func(t *testing.T) {
			app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler})
			app.Get("/", func(*fiber.Ctx) error { return tc.err })

			resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
			require.NoError(t, err)
			defer resp.Body.Close()

			var got middleware.ErrorResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))

			assert.Equal(t, tc.status, resp.StatusCode)
			assert.Equal(t, tc.code, got.Code)
			assert.NotEmpty(t, got.TraceID)
		})
	}
}

func TestErrorHandler_HidesStoreDetail(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler})
	app.Get("/", func(*fiber.Ctx) error {
		return domain.StoreError("get request", errors.New("password authentication failed for user app"))
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	var got middleware.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.NotContains(t, got.Message, "password")
}

func newProtectedApp(user *domain.User, roles ...domain.UserRole) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler})
	app.Get("/",
		middleware.AuthRequired(&stubAuth{user: user}),
		middleware.RequireRole(roles...),
		func(c *fiber.Ctx) error {
			actor := middleware.GetActor(c)
			return c.JSON(fiber.Map{"user_id": actor.UserID, "role": actor.Role})
		},
	)
	return app
}

func TestAuthRequired(t *testing.T) {
	user := &domain.User{ID: uuid.New(), Role: domain.RoleChecker, IsActive: true}

	cases := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", fiber.StatusUnauthorized},
		{"wrong scheme", "Basic good", fiber.StatusUnauthorized},
		{"bad token", "Bearer bad", fiber.StatusUnauthorized},
		{"valid token", "Bearer good", fiber.StatusOK},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := newProtectedApp(user, domain.RoleChecker)
			req := httptest.NewRequest("GET", "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}

			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tc.status, resp.StatusCode)
		})
	}
}

func TestAuthRequired_InactiveUser(t *testing.T) {
	user := &domain.User{ID: uuid.New(), Role: domain.RoleChecker, IsActive: false}
	app := newProtectedApp(user, domain.RoleChecker)

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer good")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestRequireRole_RolesAreFlat(t *testing.T) {
	admin := &domain.User{ID: uuid.New(), Role: domain.RoleAdmin, IsActive: true}
	app := newProtectedApp(admin, domain.RoleApprover, domain.RoleChecker)

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer good")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestRequestLogger_LevelsByStatus(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler})
	app.Use(middleware.RequestLogger(zap.New(core)))
	app.Get("/ok", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })
	app.Get("/missing", func(*fiber.Ctx) error { return domain.NotFoundf("request") })
	app.Get("/down", func(*fiber.Ctx) error { return domain.StoreError("ping", errors.New("refused")) })

	for _, path := range []string{"/ok", "/missing", "/down"} {
		resp, err := app.Test(httptest.NewRequest("GET", path, nil))
		require.NoError(t, err)
		resp.Body.Close()
	}

	entries := logs.All()
	require.Len(t, entries, 3)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.EqualValues(t, fiber.StatusNotFound, entries[1].ContextMap()["status"])
	assert.Equal(t, zapcore.ErrorLevel, entries[2].Level)
	assert.EqualValues(t, fiber.StatusServiceUnavailable, entries[2].ContextMap()["status"])
}
