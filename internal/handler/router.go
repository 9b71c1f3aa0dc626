package handler

import (
	"go-pos-api/internal/middleware"
	"go-pos-api/internal/model"
	"go-pos-api/internal/ws"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

// Handlers groups every HTTP handler the API exposes.
type Handlers struct {
	Auth      *AuthHandler
	Role      *RoleHandler
	Sale      *SaleHandler
	Invoice   *InvoiceHandler
	Dashboard *DashboardHandler
	Product   *ProductHandler
	Health    *HealthHandler
	Hub       *ws.Hub
}

// Register mounts all routes under /api plus the /ws event stream.
func Register(app *fiber.App, h Handlers, authenticator middleware.Authenticator) {
	api := app.Group("/api")
	requireAuth := middleware.RequireAuth(authenticator)
	right := middleware.RequireRight

	if h.Health != nil {
		api.Get("/health", h.Health.Check)
	}

	// ============ PUBLIC ROUTES ============
	auth := api.Group("/auth")
	auth.Post("/login", h.Auth.Login)
	auth.Post("/validate-token", h.Auth.ValidateToken)
	auth.Post("/reset-password", h.Auth.ResetPassword)
	auth.Post("/register", requireAuth, right(model.ModuleUsers, model.ActionSave), h.Auth.Register)
	auth.Get("/roles", requireAuth, right(model.ModuleUsers, model.ActionView), h.Role.GetRoles)
	auth.Get("/me", requireAuth, h.Role.GetMe)

	// ============ PROTECTED ROUTES ============
	protected := api.Group("", requireAuth)

	protected.Get("/sale/max-id", h.Sale.MaxInvoiceID)
	protected.Get("/sale/next-number", h.Sale.NextInvoiceNumber)
	protected.Post("/sale/save", right(model.ModuleSales, model.ActionSave), h.Sale.SaveSale)

	invoices := protected.Group("/invoices", right(model.ModuleInvoices, model.ActionView))
	invoices.Get("/", h.Invoice.List)
	invoices.Get("/today", h.Invoice.Today)
	invoices.Get("/unpaid", h.Invoice.Unpaid)
	invoices.Get("/recent", h.Invoice.Recent)
	invoices.Get("/search", h.Invoice.Search)
	invoices.Get("/stats/daily", h.Invoice.DailyStats)
	invoices.Get("/:id", h.Invoice.Get)

	dashboard := protected.Group("/dashboard", right(model.ModuleDashboard, model.ActionView))
	dashboard.Get("/stats", h.Dashboard.GetDashboardStats)
	dashboard.Get("/stats/today", h.Dashboard.GetTodayStats)
	dashboard.Get("/sales-trends", h.Dashboard.GetSalesTrends)
	dashboard.Get("/top-products", h.Dashboard.GetTopProducts)
	dashboard.Get("/low-stock-alerts", h.Dashboard.GetLowStockAlerts)

	viewProducts := right(model.ModuleProducts, model.ActionView)
	protected.Get("/products", viewProducts, h.Product.GetProducts)
	protected.Get("/products/search", viewProducts, h.Product.SearchProducts)
	protected.Get("/products/categories", viewProducts, h.Product.GetCategories)
	protected.Get("/products/:id", viewProducts, h.Product.GetProduct)
	protected.Post("/products", right(model.ModuleProducts, model.ActionSave), h.Product.CreateProduct)
	protected.Put("/products/:id", right(model.ModuleProducts, model.ActionUpdate), h.Product.UpdateProduct)
	protected.Get("/stock/:productId", viewProducts, h.Product.GetStock)

	purchases := protected.Group("/purchases", right(model.ModulePurchases, model.ActionView))
	purchases.Get("/", h.Product.GetPurchases)
	purchases.Get("/recent", h.Product.GetRecentPurchases)

	// WebSocket Route
	if h.Hub != nil {
		app.Use("/ws", func(c *fiber.Ctx) error {
			if websocket.IsWebSocketUpgrade(c) {
				return c.Next()
			}
			return c.SendStatus(fiber.StatusUpgradeRequired)
		})
		app.Get("/ws", websocket.New(h.Hub.Handler()))
	}
}
