package repository

import (
	"context"
	"strings"

	"go-pos-api/internal/model"

	"gorm.io/gorm"
)

type ProductRepository interface {
	Create(ctx context.Context, product *model.Product) error
	Update(ctx context.Context, product *model.Product) error
	FindByID(ctx context.Context, id int) (*model.ProductWithStock, error)
	FindByCode(ctx context.Context, code string) (*model.Product, error)
	FindPage(ctx context.Context, search string, page, pageSize int) ([]model.ProductWithStock, int64, error)
	Search(ctx context.Context, term string, limit int) ([]model.ProductWithStock, error)
	Categories(ctx context.Context) ([]string, error)
}

type productRepo struct {
	db *gorm.DB
}

func NewProductRepo(db *gorm.DB) ProductRepository {
	return &productRepo{db}
}

func (r *productRepo) Create(ctx context.Context, product *model.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

func (r *productRepo) Update(ctx context.Context, product *model.Product) error {
	return r.db.WithContext(ctx).Save(product).Error
}

// withStock selects products alongside the sum of their batch quantities.
func (r *productRepo) withStock(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Table("products AS p").
		Select("p.*, COALESCE(s.qty, 0) AS available_qty").
		Joins("LEFT JOIN (SELECT product_id, SUM(qty) AS qty FROM stock_entries GROUP BY product_id) s ON s.product_id = p.id")
}

func searchScope(term string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		term = strings.TrimSpace(term)
		if term == "" {
			return db
		}
		like := "%" + strings.ToLower(term) + "%"
		return db.Where(
			"LOWER(p.product_name) LIKE ? OR LOWER(p.product_code) LIKE ? OR LOWER(p.barcode) LIKE ? OR LOWER(p.category) LIKE ?",
			like, like, like, like,
		)
	}
}

func (r *productRepo) FindByID(ctx context.Context, id int) (*model.ProductWithStock, error) {
	var product model.ProductWithStock
	err := r.withStock(ctx).Where("p.id = ?", id).Take(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepo) FindByCode(ctx context.Context, code string) (*model.Product, error) {
	var product model.Product
	if err := r.db.WithContext(ctx).First(&product, "product_code = ?", code).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepo) FindPage(ctx context.Context, search string, page, pageSize int) ([]model.ProductWithStock, int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Table("products AS p").
		Scopes(searchScope(search)).
		Count(&total).Error
	if err != nil {
		return nil, 0, err
	}

	var products []model.ProductWithStock
	err = r.withStock(ctx).
		Scopes(searchScope(search)).
		Order("p.product_name ASC, p.id ASC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Scan(&products).Error
	return products, total, err
}

func (r *productRepo) Search(ctx context.Context, term string, limit int) ([]model.ProductWithStock, error) {
	var products []model.ProductWithStock
	err := r.withStock(ctx).
		Scopes(searchScope(term)).
		Order("p.product_name ASC").
		Limit(limit).
		Scan(&products).Error
	return products, err
}

func (r *productRepo) Categories(ctx context.Context) ([]string, error) {
	var categories []string
	err := r.db.WithContext(ctx).Model(&model.Product{}).
		Where("category IS NOT NULL AND category <> ''").
		Distinct().
		Order("category ASC").
		Pluck("category", &categories).Error
	return categories, err
}
