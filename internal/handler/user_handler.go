package handler

import (
	"github.com/gofiber/fiber/v2"

	"travel-expense/internal/domain"
	"travel-expense/internal/middleware"
	"travel-expense/internal/service/user"
)

type UserHandler struct {
	userService user.Service
}

func NewUserHandler(userService user.Service) *UserHandler {
	return &UserHandler{userService: userService}
}

func (h *UserHandler) GetProfile(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return middleware.Unauthorized("User not authenticated")
	}
	return c.Status(fiber.StatusOK).JSON(currentUser)
}

func (h *UserHandler) Create(c *fiber.Ctx) error {
	var input domain.CreateUserInput
	if err := parseBody(c, &input); err != nil {
		return err
	}

	created, err := h.userService.Create(c.Context(), input)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *UserHandler) AssignRole(c *fiber.Ctx) error {
	var input domain.AssignRoleInput
	if err := parseBody(c, &input); err != nil {
		return err
	}

	if err := h.userService.AssignRole(c.Context(), middleware.GetCurrentUser(c), input); err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Role assigned successfully",
	})
}

func (h *UserHandler) ListByRole(c *fiber.Ctx) error {
	users, err := h.userService.ListByRole(c.Context(), domain.UserRole(c.Params("role")))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(users)
}

func (h *UserHandler) GetAllUsers(c *fiber.Ctx) error {
	users, err := h.userService.GetAllUsers(c.Context())
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(users)
}

func (h *UserHandler) DeleteUser(c *fiber.Ctx) error {
	userID, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	if err := h.userService.DeleteUser(c.Context(), middleware.GetCurrentUser(c), userID); err != nil {
		return err
	}

	return c.Status(fiber.StatusNoContent).SendString("")
}
