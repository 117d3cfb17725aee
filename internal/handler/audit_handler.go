package handler

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"travel-expense/internal/domain"
	"travel-expense/internal/service/audit"
)

type AuditHandler struct {
	auditService audit.Service
	logger       *zap.Logger
}

func NewAuditHandler(auditService audit.Service, logger *zap.Logger) *AuditHandler {
	return &AuditHandler{auditService: auditService, logger: logger}
}

type recentActivityResponse struct {
	Data  []domain.AuditLog `json:"data"`
	Count int               `json:"count"`
}

// GetRecentActivities lists the newest audit rows across all requests.
// The service clamps limit to the shared page-size bounds.
func (h *AuditHandler) GetRecentActivities(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", domain.DefaultPagination().PageSize)

	logs, err := h.auditService.GetRecentActivities(c.Context(), limit)
	if err != nil {
		h.logger.Error("failed to list recent activity",
			zap.Int("limit", limit),
			zap.String("request_id", requestID(c)),
			zap.Error(err),
		)
		return err
	}

	return c.JSON(recentActivityResponse{Data: logs, Count: len(logs)})
}
