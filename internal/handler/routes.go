package handler

import (
	"github.com/gofiber/fiber/v2"

	"travel-expense/internal/domain"
	"travel-expense/internal/middleware"
	"travel-expense/internal/service/auth"
)

func SetupRoutes(app *fiber.App, h *Handlers, authService auth.Service) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	v1 := app.Group("/api/v1")

	authGroup := v1.Group("/auth")
	authGroup.Post("/login", h.Auth.Login)
	authGroup.Post("/refresh", h.Auth.RefreshToken)
	authGroup.Post("/logout", h.Auth.Logout)

	protected := v1.Group("", middleware.AuthRequired(authService))

	admin := middleware.RequireRole(domain.RoleAdmin)
	finance := middleware.RequireRole(domain.RoleAdmin, domain.RoleChecker)
	reviewer := middleware.RequireRole(domain.RoleApprover, domain.RoleChecker)
	employee := middleware.RequireRole(domain.RoleEmployee)

	users := protected.Group("/users")
	users.Get("/me", h.User.GetProfile)
	users.Post("/", admin, h.User.Create)
	users.Post("/assign-role", admin, h.User.AssignRole)
	users.Get("/by-role/:role", h.User.ListByRole)
	users.Get("/", admin, h.User.GetAllUsers)
	users.Delete("/:id", admin, h.User.DeleteUser)

	requests := protected.Group("/requests")
	requests.Post("/", employee, h.Request.Create)
	requests.Get("/", h.Request.List)
	requests.Get("/:requestId", h.Request.Get)
	requests.Patch("/:requestId/status", reviewer, h.Request.Transition)
	requests.Post("/:requestId/expenses", employee, h.Request.SubmitExpenses)
	requests.Get("/:requestId/expenses", h.Request.ListExpenses)
	requests.Patch("/:requestId/finance-comments", finance, h.Request.UpdateFinanceComments)
	requests.Get("/:requestId/audit", finance, h.Request.AuditTrail)

	expenses := protected.Group("/expenses")
	expenses.Post("/:expenseId/receipts", employee, h.Receipt.Upload)
	expenses.Get("/:expenseId/receipts", h.Receipt.ListByExpense)

	notifications := protected.Group("/notifications")
	notifications.Get("/", h.Notification.List)
	notifications.Get("/unread-count", h.Notification.GetUnreadCount)
	notifications.Patch("/:id/read", h.Notification.MarkAsRead)
	notifications.Post("/mark-all-read", h.Notification.MarkAllAsRead)

	projects := protected.Group("/projects")
	projects.Get("/", h.Project.List)
	projects.Get("/:id", h.Project.Get)
	projects.Post("/", admin, h.Project.Create)
	projects.Put("/:id", admin, h.Project.Update)
	projects.Delete("/:id", admin, h.Project.Delete)

	budgets := protected.Group("/budgets", admin)
	budgets.Get("/", h.Project.ListBudgets)
	budgets.Post("/", h.Project.CreateBudget)
	budgets.Delete("/:id", h.Project.DeleteBudget)

	protected.Get("/dashboard/stats", finance, h.Dashboard.GetStats)
	protected.Get("/audit/recent", admin, h.Audit.GetRecentActivities)
}
