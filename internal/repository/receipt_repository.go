package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"travel-expense/internal/domain"
)

type ReceiptRepository interface {
	Create(ctx context.Context, receipt *domain.Receipt) error
	ListByExpense(ctx context.Context, expenseItemID uuid.UUID) ([]domain.Receipt, error)
	ListByRequest(ctx context.Context, requestID uuid.UUID) ([]domain.Receipt, error)
}

type receiptRepository struct {
	db *sqlx.DB
}

func NewReceiptRepository(db *sqlx.DB) ReceiptRepository {
	return &receiptRepository{db: db}
}

func (r *receiptRepository) Create(ctx context.Context, receipt *domain.Receipt) error {
	query := `
		INSERT INTO receipts (id, expense_item_id, uploaded_by, file_name, file_size, mime_type, storage_path)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`

	return r.db.QueryRowxContext(ctx, query,
		receipt.ID, receipt.ExpenseItemID, receipt.UploadedBy,
		receipt.FileName, receipt.FileSize, receipt.MimeType, receipt.StoragePath,
	).Scan(&receipt.CreatedAt)
}

func (r *receiptRepository) ListByExpense(ctx context.Context, expenseItemID uuid.UUID) ([]domain.Receipt, error) {
	receipts := []domain.Receipt{}
	query := `SELECT * FROM receipts WHERE expense_item_id = $1 ORDER BY created_at`
	err := r.db.SelectContext(ctx, &receipts, query, expenseItemID)
	return receipts, err
}

func (r *receiptRepository) ListByRequest(ctx context.Context, requestID uuid.UUID) ([]domain.Receipt, error) {
	receipts := []domain.Receipt{}
	query := `
		SELECT rc.*
		FROM receipts rc
		JOIN expense_items e ON e.id = rc.expense_item_id
		WHERE e.request_id = $1
		ORDER BY rc.created_at`
	err := r.db.SelectContext(ctx, &receipts, query, requestID)
	return receipts, err
}
