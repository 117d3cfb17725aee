package user_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"travel-expense/internal/domain"
	"travel-expense/internal/mocks"
	"travel-expense/internal/repository"
	"travel-expense/internal/service/user"
)

func newService() (user.Service, *mocks.UserRepository, *mocks.SessionRepository) {
	users := new(mocks.UserRepository)
	sessions := new(mocks.SessionRepository)
	return user.NewService(users, sessions, nil, zap.NewNop()), users, sessions
}

func TestCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("hashes password and normalises email", func(t *testing.T) {
		svc, users, _ := newService()
		var stored *domain.User
		users.On("ExistsByEmail", ctx, "emp@example.com").Return(false, nil).Once()
		users.On("Create", ctx, mock.AnythingOfType("*domain.User")).
			Run(func(args mock.Arguments) { stored = args.Get(1).(*domain.User) }).
			Return(nil).Once()

		created, err := svc.Create(ctx, domain.CreateUserInput{
			Email:    "  Emp@Example.com ",
			Password: "long-enough",
			FullName: "Emp One",
			Role:     domain.RoleEmployee,
		})

		require.NoError(t, err)
		require.NotNil(t, stored)
		assert.Equal(t, "emp@example.com", created.Email)
		assert.True(t, created.IsActive)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("long-enough")))
	})

	t.Run("duplicate email", func(t *testing.T) {
		svc, users, _ := newService()
		users.On("ExistsByEmail", ctx, "emp@example.com").Return(true, nil).Once()

		_, err := svc.Create(ctx, domain.CreateUserInput{Email: "emp@example.com", Password: "long-enough", Role: domain.RoleEmployee})
		assert.ErrorIs(t, err, user.ErrEmailExists)
	})

	t.Run("lost race on unique index", func(t *testing.T) {
		svc, users, _ := newService()
		users.On("ExistsByEmail", ctx, "emp@example.com").Return(false, nil).Once()
		users.On("Create", ctx, mock.AnythingOfType("*domain.User")).Return(repository.ErrDuplicate).Once()

		_, err := svc.Create(ctx, domain.CreateUserInput{Email: "emp@example.com", Password: "long-enough", Role: domain.RoleEmployee})
		assert.ErrorIs(t, err, user.ErrEmailExists)
	})

	t.Run("default approver must be an approver", func(t *testing.T) {
		svc, users, _ := newService()
		checker := &domain.User{ID: uuid.New(), Role: domain.RoleChecker, IsActive: true}
		users.On("ExistsByEmail", ctx, "emp@example.com").Return(false, nil).Once()
		users.On("GetByID", ctx, checker.ID).Return(checker, nil).Once()

		_, err := svc.Create(ctx, domain.CreateUserInput{
			Email:             "emp@example.com",
			Password:          "long-enough",
			Role:              domain.RoleEmployee,
			DefaultApproverID: &checker.ID,
		})
		assert.ErrorIs(t, err, user.ErrInvalidApprover)
		users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

func TestAssignRole(t *testing.T) {
	ctx := context.Background()
	admin := &domain.User{ID: uuid.New(), Role: domain.RoleAdmin}

	t.Run("revokes sessions of the target", func(t *testing.T) {
		svc, users, sessions := newService()
		target := uuid.New()
		users.On("AssignRole", ctx, target, domain.RoleChecker).Return(nil).Once()
		sessions.On("RevokeAllForUser", ctx, target).Return(nil).Once()

		err := svc.AssignRole(ctx, admin, domain.AssignRoleInput{UserID: target, Role: domain.RoleChecker})

		require.NoError(t, err)
		sessions.AssertExpectations(t)
	})

	t.Run("revocation failure is soft", func(t *testing.T) {
		svc, users, sessions := newService()
		target := uuid.New()
		users.On("AssignRole", ctx, target, domain.RoleApprover).Return(nil).Once()
		sessions.On("RevokeAllForUser", ctx, target).Return(errors.New("timeout")).Once()

		assert.NoError(t, svc.AssignRole(ctx, admin, domain.AssignRoleInput{UserID: target, Role: domain.RoleApprover}))
	})

	t.Run("non-admin", func(t *testing.T) {
		svc, _, _ := newService()
		err := svc.AssignRole(ctx, &domain.User{ID: uuid.New(), Role: domain.RoleChecker}, domain.AssignRoleInput{UserID: uuid.New(), Role: domain.RoleAdmin})
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})

	t.Run("self", func(t *testing.T) {
		svc, _, _ := newService()
		err := svc.AssignRole(ctx, admin, domain.AssignRoleInput{UserID: admin.ID, Role: domain.RoleEmployee})
		assert.ErrorIs(t, err, user.ErrCannotModifySelf)
	})
}

func TestListByRole(t *testing.T) {
	ctx := context.Background()

	t.Run("approvers", func(t *testing.T) {
		svc, users, _ := newService()
		users.On("ListByRole", ctx, domain.RoleApprover).Return([]domain.User{{ID: uuid.New()}}, nil).Once()

		got, err := svc.ListByRole(ctx, domain.RoleApprover)
		require.NoError(t, err)
		assert.Len(t, got, 1)
	})

	t.Run("employees are not listable", func(t *testing.T) {
		svc, _, _ := newService()
		_, err := svc.ListByRole(ctx, domain.RoleEmployee)
		assert.ErrorIs(t, err, user.ErrRoleNotListable)
		assert.ErrorIs(t, err, domain.ErrValidation)
	})
}

func TestDeleteUser(t *testing.T) {
	ctx := context.Background()
	admin := &domain.User{ID: uuid.New(), Role: domain.RoleAdmin}

	svc, users, sessions := newService()
	target := uuid.New()
	users.On("Delete", ctx, target).Return(nil).Once()
	sessions.On("RevokeAllForUser", ctx, target).Return(nil).Once()

	require.NoError(t, svc.DeleteUser(ctx, admin, target))
	assert.ErrorIs(t, svc.DeleteUser(ctx, admin, admin.ID), user.ErrCannotModifySelf)
	users.AssertExpectations(t)
}
