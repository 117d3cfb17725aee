package middleware

import (
	"github.com/gofiber/fiber/v2"

	"travel-expense/internal/domain"
)

// RequireRole admits users holding any of the listed roles. Roles are flat:
// admin does not imply approver or checker.
func RequireRole(roles ...domain.UserRole) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := GetCurrentUser(c)
		if user == nil {
			return Unauthorized("User not found")
		}

		if !user.HasAnyRole(roles...) {
			return Forbidden("Insufficient permissions for this operation")
		}

		return c.Next()
	}
}
