package domain

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID                uuid.UUID  `json:"id" db:"id"`
	Email             string     `json:"email" db:"email"`
	PasswordHash      string     `json:"-" db:"password_hash"`
	FullName          string     `json:"full_name" db:"full_name"`
	Role              UserRole   `json:"role" db:"role"`
	DefaultApproverID *uuid.UUID `json:"default_approver_id,omitempty" db:"default_approver_id"`
	IsActive          bool       `json:"is_active" db:"is_active"`
	CreatedAt         time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt         *time.Time `json:"-" db:"deleted_at"`
}

type CreateUserInput struct {
	Email             string     `json:"email" validate:"required,email"`
	Password          string     `json:"password" validate:"required,min=8"`
	FullName          string     `json:"full_name" validate:"required,min=2"`
	Role              UserRole   `json:"role" validate:"required,oneof=employee approver checker admin"`
	DefaultApproverID *uuid.UUID `json:"default_approver_id,omitempty"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AssignRoleInput struct {
	UserID uuid.UUID `json:"user_id" validate:"required"`
	Role   UserRole  `json:"role" validate:"required,oneof=employee approver checker admin"`
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

type UserRole string

const (
	RoleEmployee UserRole = "employee"
	RoleApprover UserRole = "approver"
	RoleChecker  UserRole = "checker"
	RoleAdmin    UserRole = "admin"
)

func (r UserRole) IsValid() bool {
	switch r {
	case RoleEmployee, RoleApprover, RoleChecker, RoleAdmin:
		return true
	default:
		return false
	}
}

// IsReviewer reports whether the role takes decisions on requests.
func (r UserRole) IsReviewer() bool {
	return r == RoleApprover || r == RoleChecker
}

// HasAnyRole matches the user's role exactly; roles are not hierarchical.
func (u *User) HasAnyRole(roles ...UserRole) bool {
	for _, role := range roles {
		if u.Role == role {
			return true
		}
	}
	return false
}

// Actor is the authenticated caller as resolved by the auth middleware.
type Actor struct {
	UserID uuid.UUID
	Role   UserRole
}

func (u *User) Actor() Actor {
	return Actor{UserID: u.ID, Role: u.Role}
}
