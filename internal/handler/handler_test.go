package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"go-pos-api/internal/config"
	"go-pos-api/internal/model"
	"go-pos-api/internal/repository"
	"go-pos-api/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type tokenAuth map[string]*model.User

func (a tokenAuth) Authenticate(_ context.Context, token string) (*model.User, error) {
	if u, ok := a[token]; ok {
		return u, nil
	}
	return nil, service.ErrInvalidCredentials
}

func userOfType(code, userType string) *model.User {
	u := &model.User{UserCode: code, Name: code + " name", UserType: userType, Active: true, Rights: model.DefaultRights(userType)}
	u.ID = uuid.New()
	return u
}

type mockSaleService struct{ mock.Mock }

func (m *mockSaleService) SaveSale(ctx context.Context, req *service.SaveSaleRequest) (*service.SaleResult, error) {
	args := m.Called(ctx, req)
	res, _ := args.Get(0).(*service.SaleResult)
	return res, args.Error(1)
}

func (m *mockSaleService) MaxInvoiceID(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *mockSaleService) NextInvoiceNumber(ctx context.Context) (*service.NextInvoice, error) {
	args := m.Called(ctx)
	res, _ := args.Get(0).(*service.NextInvoice)
	return res, args.Error(1)
}

type mockAuthService struct{ mock.Mock }

func (m *mockAuthService) Login(ctx context.Context, userCode, password string) (*service.LoginResponse, error) {
	args := m.Called(ctx, userCode, password)
	res, _ := args.Get(0).(*service.LoginResponse)
	return res, args.Error(1)
}

func (m *mockAuthService) Register(ctx context.Context, req *service.RegisterRequest, actor service.Actor) (*model.UserResponse, error) {
	args := m.Called(ctx, req, actor)
	res, _ := args.Get(0).(*model.UserResponse)
	return res, args.Error(1)
}

func (m *mockAuthService) ResetPassword(ctx context.Context, userCode, oldPassword, newPassword string) error {
	return m.Called(ctx, userCode, oldPassword, newPassword).Error(0)
}

func (m *mockAuthService) ValidateToken(ctx context.Context, token string) (*service.TokenValidationResponse, error) {
	args := m.Called(ctx, token)
	res, _ := args.Get(0).(*service.TokenValidationResponse)
	return res, args.Error(1)
}

func (m *mockAuthService) Authenticate(ctx context.Context, token string) (*model.User, error) {
	args := m.Called(ctx, token)
	res, _ := args.Get(0).(*model.User)
	return res, args.Error(1)
}

func (m *mockAuthService) SeedAdmin(ctx context.Context, seed config.SeedConfig) error {
	return m.Called(ctx, seed).Error(0)
}

type mockInvoiceService struct{ mock.Mock }

func (m *mockInvoiceService) List(ctx context.Context, from, to time.Time) ([]model.Invoice, error) {
	args := m.Called(ctx, from, to)
	res, _ := args.Get(0).([]model.Invoice)
	return res, args.Error(1)
}

func (m *mockInvoiceService) Today(ctx context.Context) ([]service.InvoiceWithPayments, error) {
	args := m.Called(ctx)
	res, _ := args.Get(0).([]service.InvoiceWithPayments)
	return res, args.Error(1)
}

func (m *mockInvoiceService) Unpaid(ctx context.Context) ([]service.UnpaidInvoice, error) {
	args := m.Called(ctx)
	res, _ := args.Get(0).([]service.UnpaidInvoice)
	return res, args.Error(1)
}

func (m *mockInvoiceService) Recent(ctx context.Context, count int) ([]model.Invoice, error) {
	args := m.Called(ctx, count)
	res, _ := args.Get(0).([]model.Invoice)
	return res, args.Error(1)
}

func (m *mockInvoiceService) Search(ctx context.Context, term string) ([]model.Invoice, error) {
	args := m.Called(ctx, term)
	res, _ := args.Get(0).([]model.Invoice)
	return res, args.Error(1)
}

func (m *mockInvoiceService) DailyStats(ctx context.Context, day time.Time) (*service.DailyInvoiceStats, error) {
	args := m.Called(ctx, day)
	res, _ := args.Get(0).(*service.DailyInvoiceStats)
	return res, args.Error(1)
}

func (m *mockInvoiceService) Get(ctx context.Context, id int) (*model.Invoice, error) {
	args := m.Called(ctx, id)
	res, _ := args.Get(0).(*model.Invoice)
	return res, args.Error(1)
}

type mockDashboardService struct{ mock.Mock }

func (m *mockDashboardService) Stats(ctx context.Context, from, to time.Time) *service.DashboardStats {
	return m.Called(ctx, from, to).Get(0).(*service.DashboardStats)
}

func (m *mockDashboardService) TodayStats(ctx context.Context) *service.DashboardStats {
	return m.Called(ctx).Get(0).(*service.DashboardStats)
}

func (m *mockDashboardService) SalesTrends(ctx context.Context, days int) ([]repository.TrendPoint, error) {
	args := m.Called(ctx, days)
	res, _ := args.Get(0).([]repository.TrendPoint)
	return res, args.Error(1)
}

func (m *mockDashboardService) TopProducts(ctx context.Context, limit int, from, to time.Time) ([]repository.TopProduct, error) {
	args := m.Called(ctx, limit, from, to)
	res, _ := args.Get(0).([]repository.TopProduct)
	return res, args.Error(1)
}

func (m *mockDashboardService) LowStockAlerts(ctx context.Context) ([]service.LowStockAlert, error) {
	args := m.Called(ctx)
	res, _ := args.Get(0).([]service.LowStockAlert)
	return res, args.Error(1)
}

type mockCatalogService struct{ mock.Mock }

func (m *mockCatalogService) ListProducts(ctx context.Context, search string, page, pageSize int) (*service.ProductPage, error) {
	args := m.Called(ctx, search, page, pageSize)
	res, _ := args.Get(0).(*service.ProductPage)
	return res, args.Error(1)
}

func (m *mockCatalogService) SearchProducts(ctx context.Context, term string) ([]model.ProductWithStock, error) {
	args := m.Called(ctx, term)
	res, _ := args.Get(0).([]model.ProductWithStock)
	return res, args.Error(1)
}

func (m *mockCatalogService) Categories(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	res, _ := args.Get(0).([]string)
	return res, args.Error(1)
}

func (m *mockCatalogService) GetProduct(ctx context.Context, id int) (*model.ProductWithStock, error) {
	args := m.Called(ctx, id)
	res, _ := args.Get(0).(*model.ProductWithStock)
	return res, args.Error(1)
}

func (m *mockCatalogService) CreateProduct(ctx context.Context, p *model.Product, actor service.Actor) error {
	return m.Called(ctx, p, actor).Error(0)
}

func (m *mockCatalogService) UpdateProduct(ctx context.Context, id int, p *model.Product, actor service.Actor) (*model.Product, error) {
	args := m.Called(ctx, id, p, actor)
	res, _ := args.Get(0).(*model.Product)
	return res, args.Error(1)
}

func (m *mockCatalogService) StockLevel(ctx context.Context, productID int, barcode string) (*service.StockLevel, error) {
	args := m.Called(ctx, productID, barcode)
	res, _ := args.Get(0).(*service.StockLevel)
	return res, args.Error(1)
}

func (m *mockCatalogService) Purchases(ctx context.Context, from, to time.Time) ([]model.Purchase, error) {
	args := m.Called(ctx, from, to)
	res, _ := args.Get(0).([]model.Purchase)
	return res, args.Error(1)
}

func (m *mockCatalogService) RecentPurchases(ctx context.Context) ([]model.Purchase, error) {
	args := m.Called(ctx)
	res, _ := args.Get(0).([]model.Purchase)
	return res, args.Error(1)
}

type testAPI struct {
	app       *fiber.App
	sale      *mockSaleService
	auth      *mockAuthService
	invoice   *mockInvoiceService
	dashboard *mockDashboardService
	catalog   *mockCatalogService
}

const (
	cashierToken = "cashier-token"
	adminToken   = "admin-token"
)

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	log := zap.NewNop()
	api := &testAPI{
		app:       fiber.New(),
		sale:      &mockSaleService{},
		auth:      &mockAuthService{},
		invoice:   &mockInvoiceService{},
		dashboard: &mockDashboardService{},
		catalog:   &mockCatalogService{},
	}
	Register(api.app, Handlers{
		Auth:      NewAuthHandler(api.auth, log),
		Role:      NewRoleHandler(),
		Sale:      NewSaleHandler(api.sale, log),
		Invoice:   NewInvoiceHandler(api.invoice, log),
		Dashboard: NewDashboardHandler(api.dashboard, log),
		Product:   NewProductHandler(api.catalog, log),
	}, tokenAuth{
		cashierToken: userOfType("jane", model.RoleCashier),
		adminToken:   userOfType("admin", model.RoleAdmin),
	})
	return api
}

type response struct {
	status int
	body   map[string]interface{}
}

func (a *testAPI) do(t *testing.T, method, path, token string, body interface{}) response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := a.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := response{status: resp.StatusCode, body: map[string]interface{}{}}
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out.body), string(raw))
	}
	return out
}
