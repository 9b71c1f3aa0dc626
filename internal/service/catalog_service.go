package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go-pos-api/internal/model"
	"go-pos-api/internal/repository"
	"go-pos-api/pkg/validator"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	defaultPageSize   = 100
	maxPageSize       = 500
	productSearchSize = 50
)

type ProductPage struct {
	Products   []model.ProductWithStock `json:"products"`
	TotalCount int64                    `json:"totalCount"`
	Page       int                      `json:"page"`
	PageSize   int                      `json:"pageSize"`
}

type StockLevel struct {
	ProductID    int             `json:"productId"`
	Barcode      string          `json:"barcode"`
	AvailableQty decimal.Decimal `json:"availableQty"`
}

// CatalogService serves product lookups, product maintenance, batch stock
// checks and purchase listings.
type CatalogService interface {
	ListProducts(ctx context.Context, search string, page, pageSize int) (*ProductPage, error)
	SearchProducts(ctx context.Context, term string) ([]model.ProductWithStock, error)
	Categories(ctx context.Context) ([]string, error)
	GetProduct(ctx context.Context, id int) (*model.ProductWithStock, error)
	CreateProduct(ctx context.Context, p *model.Product, actor Actor) error
	UpdateProduct(ctx context.Context, id int, p *model.Product, actor Actor) (*model.Product, error)
	StockLevel(ctx context.Context, productID int, barcode string) (*StockLevel, error)
	Purchases(ctx context.Context, from, to time.Time) ([]model.Purchase, error)
	RecentPurchases(ctx context.Context) ([]model.Purchase, error)
}

// Actor identifies the authenticated user behind a write.
type Actor struct {
	UserID string
	Name   string
}

type catalogService struct {
	db        *gorm.DB
	products  repository.ProductRepository
	ledger    *StockLedger
	purchases repository.PurchaseRepository
	notifier  Notifier
	log       *zap.Logger
	now       func() time.Time
}

func NewCatalogService(
	db *gorm.DB,
	products repository.ProductRepository,
	ledger *StockLedger,
	purchases repository.PurchaseRepository,
	notifier Notifier,
	log *zap.Logger,
) CatalogService {
	if log == nil {
		log = zap.NewNop()
	}
	return &catalogService{
		db:        db,
		products:  products,
		ledger:    ledger,
		purchases: purchases,
		notifier:  notifier,
		log:       log,
		now:       time.Now,
	}
}

func (s *catalogService) ListProducts(ctx context.Context, search string, page, pageSize int) (*ProductPage, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	products, total, err := s.products.FindPage(ctx, search, page, pageSize)
	if err != nil {
		return nil, err
	}
	return &ProductPage{Products: products, TotalCount: total, Page: page, PageSize: pageSize}, nil
}

func (s *catalogService) SearchProducts(ctx context.Context, term string) ([]model.ProductWithStock, error) {
	if strings.TrimSpace(term) == "" {
		return nil, fmt.Errorf("%w: search term is required", ErrInvalidRequest)
	}
	return s.products.Search(ctx, term, productSearchSize)
}

func (s *catalogService) Categories(ctx context.Context) ([]string, error) {
	return s.products.Categories(ctx)
}

func (s *catalogService) GetProduct(ctx context.Context, id int) (*model.ProductWithStock, error) {
	p, err := s.products.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: product %d", ErrNotFound, id)
		}
		return nil, err
	}
	return p, nil
}

func (s *catalogService) CreateProduct(ctx context.Context, p *model.Product, actor Actor) error {
	p.ProductCode = strings.TrimSpace(p.ProductCode)
	p.ProductName = strings.TrimSpace(p.ProductName)
	if errs := validator.ValidateStruct(p); len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidRequest, errs[0].String())
	}

	existing, err := s.products.FindByCode(ctx, p.ProductCode)
	if err == nil && existing != nil {
		return fmt.Errorf("%w: product code %s", ErrDuplicateEntry, p.ProductCode)
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	p.ID = 0
	p.AddedDate = s.now()
	p.CreatedBy = actor.UserID
	p.UpdatedBy = actor.UserID
	if err := s.products.Create(ctx, p); err != nil {
		return err
	}

	s.log.Info("product created", zap.Int("product_id", p.ID), zap.String("by", actor.UserID))
	s.publish("product_created", p, actor)
	return nil
}

func (s *catalogService) UpdateProduct(ctx context.Context, id int, p *model.Product, actor Actor) (*model.Product, error) {
	current, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	p.ProductCode = strings.TrimSpace(p.ProductCode)
	p.ProductName = strings.TrimSpace(p.ProductName)
	if errs := validator.ValidateStruct(p); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidRequest, errs[0].String())
	}
	if p.ProductCode != current.ProductCode {
		if other, err := s.products.FindByCode(ctx, p.ProductCode); err == nil && other.ID != id {
			return nil, fmt.Errorf("%w: product code %s", ErrDuplicateEntry, p.ProductCode)
		}
	}

	updated := current.Product
	updated.ProductCode = p.ProductCode
	updated.ProductName = p.ProductName
	updated.Barcode = strings.TrimSpace(p.Barcode)
	updated.Category = strings.TrimSpace(p.Category)
	updated.PurchaseUnit = p.PurchaseUnit
	updated.SalesUnit = p.SalesUnit
	updated.PurchaseCost = p.PurchaseCost
	updated.SalesCost = p.SalesCost
	updated.MarginPer = p.MarginPer
	updated.ReorderPoint = p.ReorderPoint
	updated.UpdatedBy = actor.UserID

	if err := s.products.Update(ctx, &updated); err != nil {
		return nil, err
	}
	s.publish("product_updated", &updated, actor)
	return &updated, nil
}

func (s *catalogService) StockLevel(ctx context.Context, productID int, barcode string) (*StockLevel, error) {
	barcode = strings.TrimSpace(barcode)
	qty, err := s.ledger.CheckAvailable(s.db.WithContext(ctx), productID, barcode)
	if err != nil {
		if errors.Is(err, ErrStockRecordMissing) {
			return nil, fmt.Errorf("%w: %v", ErrNotFound, err)
		}
		return nil, err
	}
	return &StockLevel{ProductID: productID, Barcode: barcode, AvailableQty: qty}, nil
}

func (s *catalogService) Purchases(ctx context.Context, from, to time.Time) ([]model.Purchase, error) {
	if from.IsZero() {
		from, _ = DayWindow(s.now())
	}
	if to.IsZero() || !to.After(from) {
		to = from.AddDate(0, 0, 1)
	}
	return s.purchases.FindByRange(ctx, from, to, maxInvoiceListing)
}

func (s *catalogService) RecentPurchases(ctx context.Context) ([]model.Purchase, error) {
	_, to := DayWindow(s.now())
	return s.purchases.FindByRange(ctx, to.AddDate(0, 0, -30), to, maxInvoiceListing)
}

func (s *catalogService) publish(event string, p *model.Product, actor Actor) {
	if s.notifier == nil {
		return
	}
	s.notifier.Publish(event, map[string]interface{}{
		"productId":   p.ID,
		"productCode": p.ProductCode,
		"productName": p.ProductName,
		"user":        map[string]string{"id": actor.UserID, "name": actor.Name},
		"message":     fmt.Sprintf("%s saved product '%s'", actor.Name, p.ProductName),
	})
}
