package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"travel-expense/internal/domain"
	"travel-expense/internal/repository"
	"travel-expense/internal/service/email"
)

var (
	ErrEmailExists      = errors.New("email already registered")
	ErrCannotModifySelf = errors.New("cannot modify your own account")
	ErrInvalidApprover  = errors.New("default approver must be an active approver")
	ErrRoleNotListable  = errors.New("role cannot be listed")
)

type Service interface {
	Create(ctx context.Context, input domain.CreateUserInput) (*domain.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	AssignRole(ctx context.Context, currentUser *domain.User, input domain.AssignRoleInput) error
	ListByRole(ctx context.Context, role domain.UserRole) ([]domain.User, error)
	GetAllUsers(ctx context.Context) ([]domain.User, error)
	DeleteUser(ctx context.Context, currentUser *domain.User, userID uuid.UUID) error
}

type service struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	emailSvc    email.Service
	logger      *zap.Logger
}

func NewService(userRepo repository.UserRepository, sessionRepo repository.SessionRepository, emailSvc email.Service, logger *zap.Logger) Service {
	return &service{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		emailSvc:    emailSvc,
		logger:      logger.Named("user"),
	}
}

func (s *service) Create(ctx context.Context, input domain.CreateUserInput) (*domain.User, error) {
	emailAddr := strings.ToLower(strings.TrimSpace(input.Email))

	exists, err := s.userRepo.ExistsByEmail(ctx, emailAddr)
	if err != nil {
		return nil, domain.StoreError("check email", err)
	}
	if exists {
		return nil, ErrEmailExists
	}

	if input.DefaultApproverID != nil {
		approver, err := s.userRepo.GetByID(ctx, *input.DefaultApproverID)
		if err != nil {
			return nil, domain.StoreError("get approver", err)
		}
		if approver == nil || approver.Role != domain.RoleApprover || !approver.IsActive {
			return nil, ErrInvalidApprover
		}
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		ID:                uuid.New(),
		Email:             emailAddr,
		PasswordHash:      string(hashedPassword),
		FullName:          input.FullName,
		Role:              input.Role,
		DefaultApproverID: input.DefaultApproverID,
		IsActive:          true,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailExists
		}
		return nil, domain.StoreError("create user", err)
	}

	if s.emailSvc != nil {
		go func(toEmail, fullName, role string) {
			if err := s.emailSvc.SendWelcomeEmail(context.Background(), toEmail, fullName, role); err != nil {
				s.logger.Warn("failed to send welcome email", zap.String("user_id", user.ID.String()), zap.Error(err))
			}
		}(user.Email, user.FullName, string(user.Role))
	}

	return user, nil
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, domain.StoreError("get user", err)
	}
	if user == nil {
		return nil, domain.NotFoundf("user %s", id)
	}
	return user, nil
}

func (s *service) AssignRole(ctx context.Context, currentUser *domain.User, input domain.AssignRoleInput) error {
	if !currentUser.HasAnyRole(domain.RoleAdmin) {
		return domain.ErrUnauthorized
	}
	if currentUser.ID == input.UserID {
		return ErrCannotModifySelf
	}
	if !input.Role.IsValid() {
		return domain.Validationf("unknown role %q", input.Role)
	}

	if err := s.userRepo.AssignRole(ctx, input.UserID, input.Role); err != nil {
		return err
	}
	s.revokeSessions(ctx, input.UserID)
	return nil
}

// ListByRole backs the reviewer pickers; employees are not listable.
func (s *service) ListByRole(ctx context.Context, role domain.UserRole) ([]domain.User, error) {
	if !role.IsValid() || role == domain.RoleEmployee {
		return nil, fmt.Errorf("%w: %w", domain.ErrValidation, ErrRoleNotListable)
	}

	users, err := s.userRepo.ListByRole(ctx, role)
	if err != nil {
		return nil, domain.StoreError("list users by role", err)
	}
	return users, nil
}

func (s *service) GetAllUsers(ctx context.Context) ([]domain.User, error) {
	users, err := s.userRepo.GetAllUsers(ctx)
	if err != nil {
		return nil, domain.StoreError("list users", err)
	}
	return users, nil
}

func (s *service) DeleteUser(ctx context.Context, currentUser *domain.User, userID uuid.UUID) error {
	if !currentUser.HasAnyRole(domain.RoleAdmin) {
		return domain.ErrUnauthorized
	}
	if currentUser.ID == userID {
		return ErrCannotModifySelf
	}

	if err := s.userRepo.Delete(ctx, userID); err != nil {
		return err
	}
	s.revokeSessions(ctx, userID)
	return nil
}

// revokeSessions forces a fresh login so new tokens carry the current role.
// Access tokens already issued stay valid until they expire.
func (s *service) revokeSessions(ctx context.Context, userID uuid.UUID) {
	if err := s.sessionRepo.RevokeAllForUser(ctx, userID); err != nil {
		s.logger.Warn("failed to revoke sessions", zap.String("user_id", userID.String()), zap.Error(err))
	}
}
