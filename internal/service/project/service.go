package project

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"travel-expense/internal/domain"
	"travel-expense/internal/repository"
)

var ErrProjectExists = fmt.Errorf("%w: project name already in use", domain.ErrValidation)

// dashboardStatsKey mirrors the dashboard cache entry that embeds budget totals.
const dashboardStatsKey = "dashboard:stats"

type Service interface {
	List(ctx context.Context, activeOnly bool) ([]domain.Project, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Project, error)
	Create(ctx context.Context, input domain.CreateProjectInput) (*domain.Project, error)
	Update(ctx context.Context, id uuid.UUID, input domain.UpdateProjectInput) (*domain.Project, error)
	Delete(ctx context.Context, id uuid.UUID) error

	ListBudgets(ctx context.Context, projectID *uuid.UUID) ([]domain.Budget, error)
	CreateBudget(ctx context.Context, input domain.CreateBudgetInput) (*domain.Budget, error)
	DeleteBudget(ctx context.Context, id uuid.UUID) error
}

type service struct {
	projectRepo repository.ProjectRepository
	budgetRepo  repository.BudgetRepository
	redis       *redis.Client
	logger      *zap.Logger
}

func NewService(projectRepo repository.ProjectRepository, budgetRepo repository.BudgetRepository, redis *redis.Client, logger *zap.Logger) Service {
	return &service{
		projectRepo: projectRepo,
		budgetRepo:  budgetRepo,
		redis:       redis,
		logger:      logger.Named("project"),
	}
}

func (s *service) List(ctx context.Context, activeOnly bool) ([]domain.Project, error) {
	projects, err := s.projectRepo.List(ctx, activeOnly)
	if err != nil {
		return nil, domain.StoreError("list projects", err)
	}
	return projects, nil
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*domain.Project, error) {
	project, err := s.projectRepo.GetByID(ctx, id)
	if err != nil {
		return nil, domain.StoreError("get project", err)
	}
	if project == nil {
		return nil, domain.NotFoundf("project %s", id)
	}
	return project, nil
}

func (s *service) Create(ctx context.Context, input domain.CreateProjectInput) (*domain.Project, error) {
	name := strings.TrimSpace(input.Name)
	if err := s.ensureNameFree(ctx, name, uuid.Nil); err != nil {
		return nil, err
	}

	project := &domain.Project{
		ID:          uuid.New(),
		Name:        name,
		Description: input.Description,
		IsActive:    true,
	}
	if err := s.projectRepo.Create(ctx, project); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrProjectExists
		}
		return nil, domain.StoreError("create project", err)
	}

	s.logger.Info("project created", zap.String("project_id", project.ID.String()), zap.String("name", name))
	return project, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input domain.UpdateProjectInput) (*domain.Project, error) {
	project, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if !strings.EqualFold(name, project.Name) {
			if err := s.ensureNameFree(ctx, name, id); err != nil {
				return nil, err
			}
		}
		project.Name = name
	}
	if input.Description != nil {
		project.Description = input.Description
	}
	if input.IsActive != nil {
		project.IsActive = *input.IsActive
	}

	if err := s.projectRepo.Update(ctx, project); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			return nil, ErrProjectExists
		case errors.Is(err, domain.ErrNotFound):
			return nil, err
		}
		return nil, domain.StoreError("update project", err)
	}
	return project, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.projectRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidateStats(ctx)
	return nil
}

func (s *service) ListBudgets(ctx context.Context, projectID *uuid.UUID) ([]domain.Budget, error) {
	budgets, err := s.budgetRepo.List(ctx, projectID)
	if err != nil {
		return nil, domain.StoreError("list budgets", err)
	}
	return budgets, nil
}

func (s *service) CreateBudget(ctx context.Context, input domain.CreateBudgetInput) (*domain.Budget, error) {
	project, err := s.GetByID(ctx, input.ProjectID)
	if err != nil {
		return nil, err
	}

	budget := &domain.Budget{
		ID:          uuid.New(),
		ProjectID:   project.ID,
		FiscalYear:  strings.TrimSpace(input.FiscalYear),
		Amount:      input.Amount,
		ProjectName: project.Name,
	}
	if err := s.budgetRepo.Create(ctx, budget); err != nil {
		return nil, domain.StoreError("create budget", err)
	}

	s.invalidateStats(ctx)
	return budget, nil
}

func (s *service) DeleteBudget(ctx context.Context, id uuid.UUID) error {
	if err := s.budgetRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidateStats(ctx)
	return nil
}

func (s *service) ensureNameFree(ctx context.Context, name string, self uuid.UUID) error {
	existing, err := s.projectRepo.GetByName(ctx, name)
	if err != nil {
		return domain.StoreError("get project", err)
	}
	if existing != nil && existing.ID != self {
		return ErrProjectExists
	}
	return nil
}

func (s *service) invalidateStats(ctx context.Context) {
	if s.redis == nil {
		return
	}
	if err := s.redis.Del(ctx, dashboardStatsKey).Err(); err != nil {
		s.logger.Warn("failed to invalidate dashboard stats", zap.Error(err))
	}
}
