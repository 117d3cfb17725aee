package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"travel-expense/internal/domain"
)

type BudgetRepository interface {
	Create(ctx context.Context, budget *domain.Budget) error
	List(ctx context.Context, projectID *uuid.UUID) ([]domain.Budget, error)
	Total(ctx context.Context) (float64, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type budgetRepository struct {
	db *sqlx.DB
}

func NewBudgetRepository(db *sqlx.DB) BudgetRepository {
	return &budgetRepository{db: db}
}

func (r *budgetRepository) Create(ctx context.Context, budget *domain.Budget) error {
	query := `
		INSERT INTO budgets (id, project_id, fiscal_year, amount)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at`

	return r.db.QueryRowxContext(ctx, query,
		budget.ID, budget.ProjectID, budget.FiscalYear, budget.Amount,
	).Scan(&budget.CreatedAt, &budget.UpdatedAt)
}

func (r *budgetRepository) List(ctx context.Context, projectID *uuid.UUID) ([]domain.Budget, error) {
	query := `
		SELECT b.id, b.project_id, b.fiscal_year, b.amount, b.created_at, b.updated_at, p.name AS project_name
		FROM budgets b
		JOIN projects p ON p.id = b.project_id`

	budgets := []domain.Budget{}
	if projectID != nil {
		err := r.db.SelectContext(ctx, &budgets, query+` WHERE b.project_id = $1 ORDER BY b.fiscal_year DESC`, *projectID)
		return budgets, err
	}
	err := r.db.SelectContext(ctx, &budgets, query+` ORDER BY p.name, b.fiscal_year DESC`)
	return budgets, err
}

func (r *budgetRepository) Total(ctx context.Context) (float64, error) {
	var total float64
	err := r.db.GetContext(ctx, &total, `SELECT COALESCE(SUM(amount), 0) FROM budgets`)
	return total, err
}

func (r *budgetRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM budgets WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.NotFoundf("budget %s", id)
	}
	return nil
}
