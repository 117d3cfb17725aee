package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"travel-expense/internal/domain"
)

type RequestRepository interface {
	Create(ctx context.Context, req *domain.Request) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Request, error)
	List(ctx context.Context, filter domain.RequestFilter, params domain.PaginationParams) ([]domain.Request, int64, error)
	// UpdateStatus writes a transition only while the stored status still
	// equals expected; otherwise it returns domain.ErrConflict.
	UpdateStatus(ctx context.Context, id uuid.UUID, expected domain.RequestStatus, update domain.StatusUpdate) (time.Time, error)
	UpdateFinanceComments(ctx context.Context, id uuid.UUID, comments string) (time.Time, error)
	// Delete removes a request and, by cascade, its expense items.
	Delete(ctx context.Context, id uuid.UUID) error
	CountByStatus(ctx context.Context) (map[domain.RequestStatus]int64, error)
	SumByStatus(ctx context.Context, status domain.RequestStatus) (float64, error)
}

type requestRepository struct {
	db *sqlx.DB
}

func NewRequestRepository(db *sqlx.DB) RequestRepository {
	return &requestRepository{db: db}
}

const requestSelect = `
	SELECT r.id, r.employee_id, r.approver_id, r.request_type, r.project, r.details, r.status,
		r.approver_comments, r.checker_comments, r.finance_comments, r.created_at, r.updated_at,
		COALESCE((SELECT SUM(e.amount) FROM expense_items e WHERE e.request_id = r.id), 0) AS total_amount
	FROM requests r`

func (r *requestRepository) Create(ctx context.Context, req *domain.Request) error {
	query := `
		INSERT INTO requests (id, employee_id, approver_id, request_type, project, details, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at`

	return r.db.QueryRowxContext(ctx, query,
		req.ID, req.EmployeeID, req.ApproverID, req.RequestType,
		req.Project, req.Details, req.Status,
	).Scan(&req.CreatedAt, &req.UpdatedAt)
}

func (r *requestRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Request, error) {
	var req domain.Request
	query := requestSelect + ` WHERE r.id = $1`

	err := r.db.GetContext(ctx, &req, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *requestRepository) List(ctx context.Context, filter domain.RequestFilter, params domain.PaginationParams) ([]domain.Request, int64, error) {
	params.Validate()

	var conds []string
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Status != nil {
		conds = append(conds, "r.status = "+arg(*filter.Status))
	}
	if filter.RequestType != nil {
		conds = append(conds, "r.request_type = "+arg(*filter.RequestType))
	}
	if filter.EmployeeID != nil {
		conds = append(conds, "r.employee_id = "+arg(*filter.EmployeeID))
	}
	if filter.ApproverID != nil {
		conds = append(conds, "(r.approver_id = "+arg(*filter.ApproverID)+" OR r.approver_id IS NULL)")
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int64
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM requests r`+where, args...); err != nil {
		return nil, 0, err
	}

	query := requestSelect + where + ` ORDER BY r.created_at DESC LIMIT ` + arg(params.PageSize) + ` OFFSET ` + arg(params.Offset())

	requests := []domain.Request{}
	err := r.db.SelectContext(ctx, &requests, query, args...)
	return requests, total, err
}

func (r *requestRepository) UpdateStatus(ctx context.Context, id uuid.UUID, expected domain.RequestStatus, update domain.StatusUpdate) (time.Time, error) {
	query := `
		UPDATE requests
		SET status = $3,
			approver_comments = COALESCE($4, approver_comments),
			checker_comments = COALESCE($5, checker_comments),
			updated_at = NOW()
		WHERE id = $1 AND status = $2
		RETURNING updated_at`

	var updatedAt time.Time
	err := r.db.QueryRowxContext(ctx, query,
		id, expected, update.Status, update.ApproverComments, update.CheckerComments,
	).Scan(&updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, domain.ErrConflict
	}
	return updatedAt, err
}

func (r *requestRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM requests WHERE id = $1`, id)
	return err
}

func (r *requestRepository) UpdateFinanceComments(ctx context.Context, id uuid.UUID, comments string) (time.Time, error) {
	query := `
		UPDATE requests
		SET finance_comments = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	var updatedAt time.Time
	err := r.db.QueryRowxContext(ctx, query, id, comments).Scan(&updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, domain.NotFoundf("request %s", id)
	}
	return updatedAt, err
}

func (r *requestRepository) CountByStatus(ctx context.Context) (map[domain.RequestStatus]int64, error) {
	var rows []struct {
		Status domain.RequestStatus `db:"status"`
		Count  int64                `db:"count"`
	}
	query := `SELECT status, COUNT(*) AS count FROM requests GROUP BY status`
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, err
	}

	counts := make(map[domain.RequestStatus]int64, len(domain.AllStatuses))
	for _, st := range domain.AllStatuses {
		counts[st] = 0
	}
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

func (r *requestRepository) SumByStatus(ctx context.Context, status domain.RequestStatus) (float64, error) {
	var sum float64
	query := `
		SELECT COALESCE(SUM(e.amount), 0)
		FROM expense_items e
		JOIN requests r ON r.id = e.request_id
		WHERE r.status = $1`
	err := r.db.GetContext(ctx, &sum, query, status)
	return sum, err
}
