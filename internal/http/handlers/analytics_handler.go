package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"shopledger/internal/services"
)

type AnalyticsHandler struct {
	Analytics *services.AnalyticsService
}

// GET /api/v1/analytics/summary
func (h *AnalyticsHandler) Summary(c *fiber.Ctx) error {
	s, err := h.Analytics.Summary()
	if err != nil {
		return writeErr(c, "analytics.summary.fail", err)
	}
	return c.JSON(s)
}

// GET /api/v1/analytics/revenue?days=7
func (h *AnalyticsHandler) Revenue(c *fiber.Ctx) error {
	days, _ := strconv.Atoi(c.Query("days", "7"))
	rows, err := h.Analytics.RevenueByDay(days)
	if err != nil {
		return writeErr(c, "analytics.revenue.fail", err)
	}
	return c.JSON(fiber.Map{"days": rows})
}

// GET /api/v1/analytics/top-products?limit=10
func (h *AnalyticsHandler) TopProducts(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit", "10"))
	rows, err := h.Analytics.TopProducts(limit)
	if err != nil {
		return writeErr(c, "analytics.top.fail", err)
	}
	return c.JSON(fiber.Map{"products": rows})
}
