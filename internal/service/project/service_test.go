package project_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"travel-expense/internal/domain"
	"travel-expense/internal/mocks"
	"travel-expense/internal/repository"
	"travel-expense/internal/service/project"
)

func newService() (project.Service, *mocks.ProjectRepository, *mocks.BudgetRepository) {
	projects := new(mocks.ProjectRepository)
	budgets := new(mocks.BudgetRepository)
	return project.NewService(projects, budgets, nil, zap.NewNop()), projects, budgets
}

func TestCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("trims and activates", func(t *testing.T) {
		svc, projects, _ := newService()
		projects.On("GetByName", ctx, "Hydro Survey").Return(nil, nil).Once()
		projects.On("Create", ctx, mock.AnythingOfType("*domain.Project")).Return(nil).Once()

		p, err := svc.Create(ctx, domain.CreateProjectInput{Name: "  Hydro Survey "})

		require.NoError(t, err)
		assert.Equal(t, "Hydro Survey", p.Name)
		assert.True(t, p.IsActive)
	})

	t.Run("duplicate name", func(t *testing.T) {
		svc, projects, _ := newService()
		projects.On("GetByName", ctx, "Hydro Survey").Return(&domain.Project{ID: uuid.New(), Name: "hydro survey"}, nil).Once()

		_, err := svc.Create(ctx, domain.CreateProjectInput{Name: "Hydro Survey"})

		assert.ErrorIs(t, err, project.ErrProjectExists)
		assert.ErrorIs(t, err, domain.ErrValidation)
		projects.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("lost race on unique index", func(t *testing.T) {
		svc, projects, _ := newService()
		projects.On("GetByName", ctx, "Hydro Survey").Return(nil, nil).Once()
		projects.On("Create", ctx, mock.AnythingOfType("*domain.Project")).Return(repository.ErrDuplicate).Once()

		_, err := svc.Create(ctx, domain.CreateProjectInput{Name: "Hydro Survey"})

		assert.ErrorIs(t, err, project.ErrProjectExists)
	})
}

func TestUpdate_Deactivate(t *testing.T) {
	ctx := context.Background()
	svc, projects, _ := newService()

	stored := &domain.Project{ID: uuid.New(), Name: "Hydro Survey", IsActive: true}
	projects.On("GetByID", ctx, stored.ID).Return(stored, nil).Once()
	projects.On("Update", ctx, mock.MatchedBy(func(p *domain.Project) bool { return !p.IsActive })).Return(nil).Once()

	inactive := false
	p, err := svc.Update(ctx, stored.ID, domain.UpdateProjectInput{IsActive: &inactive})

	require.NoError(t, err)
	assert.False(t, p.IsActive)
	projects.AssertNotCalled(t, "GetByName", mock.Anything, mock.Anything)
}

func TestCreateBudget(t *testing.T) {
	ctx := context.Background()

	t.Run("attaches project name", func(t *testing.T) {
		svc, projects, budgets := newService()
		p := &domain.Project{ID: uuid.New(), Name: "Hydro Survey"}
		projects.On("GetByID", ctx, p.ID).Return(p, nil).Once()
		budgets.On("Create", ctx, mock.AnythingOfType("*domain.Budget")).Return(nil).Once()

		b, err := svc.CreateBudget(ctx, domain.CreateBudgetInput{ProjectID: p.ID, FiscalYear: "2082/83", Amount: 50000})

		require.NoError(t, err)
		assert.Equal(t, "Hydro Survey", b.ProjectName)
		assert.Equal(t, "2082/83", b.FiscalYear)
	})

	t.Run("unknown project", func(t *testing.T) {
		svc, projects, budgets := newService()
		id := uuid.New()
		projects.On("GetByID", ctx, id).Return(nil, nil).Once()

		_, err := svc.CreateBudget(ctx, domain.CreateBudgetInput{ProjectID: id, FiscalYear: "2082/83", Amount: 1})

		assert.ErrorIs(t, err, domain.ErrNotFound)
		budgets.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}
