package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"travel-expense/internal/domain"
)

type ExpenseRepository interface {
	Create(ctx context.Context, item *domain.ExpenseItem) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.ExpenseItem, error)
	ListByRequest(ctx context.Context, requestID uuid.UUID) ([]domain.ExpenseItem, error)
	SumByRequest(ctx context.Context, requestID uuid.UUID) (float64, error)
	DeleteByIDs(ctx context.Context, ids []uuid.UUID) error
}

type expenseRepository struct {
	db *sqlx.DB
}

func NewExpenseRepository(db *sqlx.DB) ExpenseRepository {
	return &expenseRepository{db: db}
}

func (r *expenseRepository) Create(ctx context.Context, item *domain.ExpenseItem) error {
	query := `
		INSERT INTO expense_items (id, request_id, category, amount, description)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`

	return r.db.QueryRowxContext(ctx, query,
		item.ID, item.RequestID, item.Category, item.Amount, item.Description,
	).Scan(&item.CreatedAt)
}

func (r *expenseRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.ExpenseItem, error) {
	var item domain.ExpenseItem
	query := `SELECT id, request_id, category, amount, description, created_at FROM expense_items WHERE id = $1`

	err := r.db.GetContext(ctx, &item, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *expenseRepository) ListByRequest(ctx context.Context, requestID uuid.UUID) ([]domain.ExpenseItem, error) {
	items := []domain.ExpenseItem{}
	query := `
		SELECT id, request_id, category, amount, description, created_at
		FROM expense_items
		WHERE request_id = $1
		ORDER BY created_at`
	err := r.db.SelectContext(ctx, &items, query, requestID)
	return items, err
}

func (r *expenseRepository) SumByRequest(ctx context.Context, requestID uuid.UUID) (float64, error) {
	var sum float64
	query := `SELECT COALESCE(SUM(amount), 0) FROM expense_items WHERE request_id = $1`
	err := r.db.GetContext(ctx, &sum, query, requestID)
	return sum, err
}

func (r *expenseRepository) DeleteByIDs(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = id.String()
	}
	_, err := r.db.ExecContext(ctx, `DELETE FROM expense_items WHERE id = ANY($1::uuid[])`, pq.StringArray(keys))
	return err
}
