package handler

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"travel-expense/internal/service/dashboard"
)

type DashboardHandler struct {
	dashboardService dashboard.Service
	logger           *zap.Logger
}

func NewDashboardHandler(dashboardService dashboard.Service, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService, logger: logger}
}

// GetStats serves the oversight snapshot. ?refresh=true skips the cached copy,
// which finance staff use right after recording a decision.
func (h *DashboardHandler) GetStats(c *fiber.Ctx) error {
	load := h.dashboardService.GetStats
	refresh := c.QueryBool("refresh", false)
	if refresh {
		load = h.dashboardService.Refresh
	}

	stats, err := load(c.Context())
	if err != nil {
		h.logger.Error("failed to build dashboard stats",
			zap.Bool("refresh", refresh),
			zap.String("request_id", requestID(c)),
			zap.Error(err),
		)
		return err
	}

	c.Set(fiber.HeaderCacheControl, fmt.Sprintf("private, max-age=%d", int(dashboard.StatsCacheTTL.Seconds())))
	return c.JSON(stats)
}
