package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"travel-expense/internal/domain"
	"travel-expense/internal/middleware"
	"travel-expense/internal/service/project"
)

type ProjectHandler struct {
	projectService project.Service
}

func NewProjectHandler(projectService project.Service) *ProjectHandler {
	return &ProjectHandler{projectService: projectService}
}

func (h *ProjectHandler) List(c *fiber.Ctx) error {
	// Everyone but admins only picks from active projects.
	activeOnly := c.QueryBool("active_only", true)
	if middleware.GetActor(c).Role != domain.RoleAdmin {
		activeOnly = true
	}

	projects, err := h.projectService.List(c.Context(), activeOnly)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(projects)
}

func (h *ProjectHandler) Get(c *fiber.Ctx) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	p, err := h.projectService.GetByID(c.Context(), id)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(p)
}

func (h *ProjectHandler) Create(c *fiber.Ctx) error {
	var input domain.CreateProjectInput
	if err := parseBody(c, &input); err != nil {
		return err
	}

	p, err := h.projectService.Create(c.Context(), input)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(p)
}

func (h *ProjectHandler) Update(c *fiber.Ctx) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	var input domain.UpdateProjectInput
	if err := parseBody(c, &input); err != nil {
		return err
	}

	p, err := h.projectService.Update(c.Context(), id, input)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(p)
}

func (h *ProjectHandler) Delete(c *fiber.Ctx) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	if err := h.projectService.Delete(c.Context(), id); err != nil {
		return err
	}
	return c.Status(fiber.StatusNoContent).SendString("")
}

func (h *ProjectHandler) ListBudgets(c *fiber.Ctx) error {
	var projectID *uuid.UUID
	if raw := c.Query("project_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return middleware.BadRequest("Invalid project_id")
		}
		projectID = &id
	}

	budgets, err := h.projectService.ListBudgets(c.Context(), projectID)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(budgets)
}

func (h *ProjectHandler) CreateBudget(c *fiber.Ctx) error {
	var input domain.CreateBudgetInput
	if err := parseBody(c, &input); err != nil {
		return err
	}

	b, err := h.projectService.CreateBudget(c.Context(), input)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(b)
}

func (h *ProjectHandler) DeleteBudget(c *fiber.Ctx) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	if err := h.projectService.DeleteBudget(c.Context(), id); err != nil {
		return err
	}
	return c.Status(fiber.StatusNoContent).SendString("")
}
