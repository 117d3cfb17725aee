package domain

import (
	"time"

	"github.com/google/uuid"
)

type Project struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description *string   `json:"description,omitempty" db:"description"`
	IsActive    bool      `json:"is_active" db:"is_active"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

type CreateProjectInput struct {
	Name        string  `json:"name" validate:"required,min=2,max=200"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=1000"`
}

type UpdateProjectInput struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,min=2,max=200"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=1000"`
	IsActive    *bool   `json:"is_active,omitempty"`
}

type Budget struct {
	ID         uuid.UUID `json:"id" db:"id"`
	ProjectID  uuid.UUID `json:"project_id" db:"project_id"`
	FiscalYear string    `json:"fiscal_year" db:"fiscal_year"`
	Amount     float64   `json:"amount" db:"amount"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`

	ProjectName string `json:"project_name,omitempty" db:"project_name"`
}

type CreateBudgetInput struct {
	ProjectID  uuid.UUID `json:"project_id" validate:"required"`
	FiscalYear string    `json:"fiscal_year" validate:"required,max=20"`
	Amount     float64   `json:"amount" validate:"required,gt=0"`
}
