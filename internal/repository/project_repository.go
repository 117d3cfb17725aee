package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"travel-expense/internal/domain"
)

type ProjectRepository interface {
	Create(ctx context.Context, project *domain.Project) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Project, error)
	GetByName(ctx context.Context, name string) (*domain.Project, error)
	List(ctx context.Context, activeOnly bool) ([]domain.Project, error)
	Update(ctx context.Context, project *domain.Project) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type projectRepository struct {
	db *sqlx.DB
}

func NewProjectRepository(db *sqlx.DB) ProjectRepository {
	return &projectRepository{db: db}
}

func (r *projectRepository) Create(ctx context.Context, project *domain.Project) error {
	query := `
		INSERT INTO projects (id, name, description, is_active)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		project.ID, project.Name, project.Description, project.IsActive,
	).Scan(&project.CreatedAt, &project.UpdatedAt)
	return translateUnique(err)
}

func (r *projectRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Project, error) {
	var project domain.Project
	query := `SELECT * FROM projects WHERE id = $1`

	err := r.db.GetContext(ctx, &project, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &project, nil
}

func (r *projectRepository) GetByName(ctx context.Context, name string) (*domain.Project, error) {
	var project domain.Project
	query := `SELECT * FROM projects WHERE LOWER(name) = LOWER($1)`

	err := r.db.GetContext(ctx, &project, query, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &project, nil
}

func (r *projectRepository) List(ctx context.Context, activeOnly bool) ([]domain.Project, error) {
	query := `SELECT * FROM projects`
	if activeOnly {
		query += ` WHERE is_active`
	}
	query += ` ORDER BY name`

	projects := []domain.Project{}
	err := r.db.SelectContext(ctx, &projects, query)
	return projects, err
}

func (r *projectRepository) Update(ctx context.Context, project *domain.Project) error {
	query := `
		UPDATE projects
		SET name = $2, description = $3, is_active = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		project.ID, project.Name, project.Description, project.IsActive,
	).Scan(&project.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.NotFoundf("project %s", project.ID)
	}
	return translateUnique(err)
}

func (r *projectRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.NotFoundf("project %s", id)
	}
	return nil
}
