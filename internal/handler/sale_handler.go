package handler

import (
	"strings"

	"go-pos-api/internal/middleware"
	"go-pos-api/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type SaleHandler struct {
	service service.SaleService
	log     *zap.Logger
}

func NewSaleHandler(s service.SaleService, log *zap.Logger) *SaleHandler {
	return &SaleHandler{service: s, log: log}
}

// SaveSale records a complete sale atomically.
// POST /api/sale/save
func (h *SaleHandler) SaveSale(c *fiber.Ctx) error {
	var req service.SaveSaleRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid JSON")
	}

	// cashier identity comes from the token when the client leaves it out
	if strings.TrimSpace(req.UserID) == "" {
		req.UserID, _ = c.Locals(middleware.LocalUserCode).(string)
	}
	if strings.TrimSpace(req.SalesmanName) == "" {
		req.SalesmanName, _ = c.Locals(middleware.LocalUserName).(string)
	}

	result, err := h.service.SaveSale(c.UserContext(), &req)
	if err != nil {
		// every sale failure is reported as 400 except infrastructure
		return failErr(c, h.log, err)
	}

	return c.JSON(Envelope{Success: true, Message: "Sale saved", Data: result})
}

// MaxInvoiceID
// GET /api/sale/max-id
func (h *SaleHandler) MaxInvoiceID(c *fiber.Ctx) error {
	id, err := h.service.MaxInvoiceID(c.UserContext())
	if err != nil {
		return failErr(c, h.log, err)
	}
	return c.JSON(fiber.Map{"success": true, "data": id})
}

// NextInvoiceNumber
// GET /api/sale/next-number
func (h *SaleHandler) NextInvoiceNumber(c *fiber.Ctx) error {
	next, err := h.service.NextInvoiceNumber(c.UserContext())
	if err != nil {
		return failErr(c, h.log, err)
	}
	return ok(c, next)
}
