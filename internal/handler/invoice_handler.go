package handler

import (
	"go-pos-api/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type InvoiceHandler struct {
	service service.InvoiceService
	log     *zap.Logger
}

func NewInvoiceHandler(s service.InvoiceService, log *zap.Logger) *InvoiceHandler {
	return &InvoiceHandler{service: s, log: log}
}

// List returns invoices in [fromDate, toDate), today by default.
func (h *InvoiceHandler) List(c *fiber.Ctx) error {
	from, to, err := dateRange(c)
	if err != nil {
		return badRequest(c, err)
	}
	invoices, err := h.service.List(c.UserContext(), from, to)
	if err != nil {
		return failErr(c, h.log, err)
	}
	return ok(c, invoices)
}

func (h *InvoiceHandler) Today(c *fiber.Ctx) error {
	invoices, err := h.service.Today(c.UserContext())
	if err != nil {
		return failErr(c, h.log, err)
	}
	return ok(c, invoices)
}

func (h *InvoiceHandler) Unpaid(c *fiber.Ctx) error {
	invoices, err := h.service.Unpaid(c.UserContext())
	if err != nil {
		return failErr(c, h.log, err)
	}
	return ok(c, invoices)
}

// Recent
// Query params: count (default 10)
func (h *InvoiceHandler) Recent(c *fiber.Ctx) error {
	invoices, err := h.service.Recent(c.UserContext(), queryInt(c, "count", 10))
	if err != nil {
		return failErr(c, h.log, err)
	}
	return ok(c, invoices)
}

// Search
// Query params: q
func (h *InvoiceHandler) Search(c *fiber.Ctx) error {
	invoices, err := h.service.Search(c.UserContext(), c.Query("q"))
	if err != nil {
		return failErr(c, h.log, err)
	}
	return ok(c, invoices)
}

// DailyStats
// Query params: date (default today)
func (h *InvoiceHandler) DailyStats(c *fiber.Ctx) error {
	day, err := queryDate(c, "date")
	if err != nil {
		return badRequest(c, err)
	}
	stats, err := h.service.DailyStats(c.UserContext(), day)
	if err != nil {
		return failErr(c, h.log, err)
	}
	return ok(c, stats)
}

func (h *InvoiceHandler) Get(c *fiber.Ctx) error {
	id, err := pathInt(c, "id")
	if err != nil {
		return badRequest(c, err)
	}
	invoice, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return failErr(c, h.log, err)
	}
	return ok(c, invoice)
}
