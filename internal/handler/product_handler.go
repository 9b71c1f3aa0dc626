package handler

import (
	"go-pos-api/internal/model"
	"go-pos-api/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// ProductHandler serves the catalog, batch stock checks and purchases.
type ProductHandler struct {
	service service.CatalogService
	log     *zap.Logger
}

func NewProductHandler(s service.CatalogService, log *zap.Logger) *ProductHandler {
	return &ProductHandler{service: s, log: log}
}

// GetProducts
// Query params: search, page (default 1), pageSize (default 100)
func (h *ProductHandler) GetProducts(c *fiber.Ctx) error {
	result, err := h.service.ListProducts(c.UserContext(), c.Query("search"), queryInt(c, "page", 1), queryInt(c, "pageSize", 0))
	if err != nil {
		return failErr(c, h.log, err)
	}
	return page(c, result.Products, result.TotalCount)
}

func (h *ProductHandler) SearchProducts(c *fiber.Ctx) error {
	products, err := h.service.SearchProducts(c.UserContext(), c.Query("q"))
	if err != nil {
		return failErr(c, h.log, err)
	}
	return ok(c, products)
}

func (h *ProductHandler) GetCategories(c *fiber.Ctx) error {
	categories, err := h.service.Categories(c.UserContext())
	if err != nil {
		return failErr(c, h.log, err)
	}
	return ok(c, categories)
}

func (h *ProductHandler) GetProduct(c *fiber.Ctx) error {
	id, err := pathInt(c, "id")
	if err != nil {
		return badRequest(c, err)
	}
	product, err := h.service.GetProduct(c.UserContext(), id)
	if err != nil {
		return failErr(c, h.log, err)
	}
	return ok(c, product)
}

func (h *ProductHandler) CreateProduct(c *fiber.Ctx) error {
	var product model.Product
	if err := c.BodyParser(&product); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid JSON")
	}

	if err := h.service.CreateProduct(c.UserContext(), &product, actorFrom(c)); err != nil {
		return failErr(c, h.log, err)
	}

	return created(c, "Product created", product)
}

func (h *ProductHandler) UpdateProduct(c *fiber.Ctx) error {
	id, err := pathInt(c, "id")
	if err != nil {
		return badRequest(c, err)
	}

	var product model.Product
	if err := c.BodyParser(&product); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid JSON")
	}

	updated, err := h.service.UpdateProduct(c.UserContext(), id, &product, actorFrom(c))
	if err != nil {
		return failErr(c, h.log, err)
	}

	return c.JSON(Envelope{Success: true, Message: "Product updated", Data: updated})
}

// GetStock returns the available quantity of one batch.
// GET /api/stock/:productId?barcode=
func (h *ProductHandler) GetStock(c *fiber.Ctx) error {
	id, err := pathInt(c, "productId")
	if err != nil {
		return badRequest(c, err)
	}
	level, err := h.service.StockLevel(c.UserContext(), id, c.Query("barcode"))
	if err != nil {
		return failErr(c, h.log, err)
	}
	return ok(c, level)
}

// GetPurchases
// Query params: fromDate, toDate (default today)
func (h *ProductHandler) GetPurchases(c *fiber.Ctx) error {
	from, to, err := dateRange(c)
	if err != nil {
		return badRequest(c, err)
	}
	purchases, err := h.service.Purchases(c.UserContext(), from, to)
	if err != nil {
		return failErr(c, h.log, err)
	}
	return ok(c, purchases)
}

func (h *ProductHandler) GetRecentPurchases(c *fiber.Ctx) error {
	purchases, err := h.service.RecentPurchases(c.UserContext())
	if err != nil {
		return failErr(c, h.log, err)
	}
	return ok(c, purchases)
}
