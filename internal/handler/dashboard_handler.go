package handler

import (
	"go-pos-api/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type DashboardHandler struct {
	service service.DashboardService
	log     *zap.Logger
}

func NewDashboardHandler(s service.DashboardService, log *zap.Logger) *DashboardHandler {
	return &DashboardHandler{service: s, log: log}
}

// GetDashboardStats returns overview statistics for [fromDate, toDate).
// Sub-aggregates that fail come back as zero; this endpoint does not fail
// on store errors.
func (h *DashboardHandler) GetDashboardStats(c *fiber.Ctx) error {
	from, to, err := dateRange(c)
	if err != nil {
		return badRequest(c, err)
	}
	return ok(c, h.service.Stats(c.UserContext(), from, to))
}

func (h *DashboardHandler) GetTodayStats(c *fiber.Ctx) error {
	return ok(c, h.service.TodayStats(c.UserContext()))
}

// GetSalesTrends returns daily sales for charts
// Query params: days (default 30)
func (h *DashboardHandler) GetSalesTrends(c *fiber.Ctx) error {
	days := queryInt(c, "days", 30)
	data, err := h.service.SalesTrends(c.UserContext(), days)
	if err != nil {
		return failErr(c, h.log, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"period":  days,
		"data":    data,
	})
}

// GetTopProducts
// Query params: limit (default 10), fromDate, toDate (default last 30 days)
func (h *DashboardHandler) GetTopProducts(c *fiber.Ctx) error {
	from, to, err := dateRange(c)
	if err != nil {
		return badRequest(c, err)
	}
	data, err := h.service.TopProducts(c.UserContext(), queryInt(c, "limit", 10), from, to)
	if err != nil {
		return failErr(c, h.log, err)
	}
	return ok(c, data)
}

func (h *DashboardHandler) GetLowStockAlerts(c *fiber.Ctx) error {
	alerts, err := h.service.LowStockAlerts(c.UserContext())
	if err != nil {
		return failErr(c, h.log, err)
	}
	return ok(c, alerts)
}
