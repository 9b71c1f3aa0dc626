package repository

import (
	"context"
	"time"

	"go-pos-api/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ReportRepository runs the read-only aggregates behind the dashboard. Every
// query is independent so callers can degrade one figure without losing the
// rest.
type ReportRepository interface {
	SalesTotals(ctx context.Context, from, to time.Time) (*SalesTotals, error)
	PaymentTotalsByMode(ctx context.Context, from, to time.Time) ([]ModeTotal, error)
	ReturnsTotal(ctx context.Context, from, to time.Time) (decimal.Decimal, error)
	ProfitByStockAverageCost(ctx context.Context, from, to time.Time) (decimal.NullDecimal, error)
	ProfitByLinePurchaseRate(ctx context.Context, from, to time.Time) (decimal.NullDecimal, error)
	ProfitByLineMargin(ctx context.Context, from, to time.Time) (decimal.NullDecimal, error)
	ProductCount(ctx context.Context) (int64, error)
	LowStockCount(ctx context.Context) (int64, error)
	LowStockProducts(ctx context.Context) ([]LowStockProduct, error)
	SalesTrends(ctx context.Context, from, to time.Time) ([]TrendPoint, error)
	TopProducts(ctx context.Context, from, to time.Time, limit int) ([]TopProduct, error)
}

type SalesTotals struct {
	TotalSales    decimal.Decimal
	TotalDiscount decimal.Decimal
	InvoiceCount  int64
}

// ModeTotal is the sum of payments for one trimmed, lower-cased mode.
type ModeTotal struct {
	Mode   string
	Amount decimal.Decimal
}

type LowStockProduct struct {
	ProductID    int             `json:"productId"`
	ProductCode  string          `json:"productCode"`
	ProductName  string          `json:"productName"`
	Category     string          `json:"category"`
	ReorderPoint int             `json:"reorderPoint"`
	AvailableQty decimal.Decimal `json:"availableQty"`
}

// TrendPoint holds one day of sales for charts
type TrendPoint struct {
	Date         string          `json:"date"`
	Sales        decimal.Decimal `json:"sales"`
	Transactions int64           `json:"transactions"`
	Discount     decimal.Decimal `json:"discount"`
}

type TopProduct struct {
	ProductID     int             `json:"productId"`
	ProductName   string          `json:"productName"`
	ProductCode   string          `json:"productCode"`
	Category      string          `json:"category"`
	TotalQuantity decimal.Decimal `json:"totalQuantity"`
	TotalSales    decimal.Decimal `json:"totalSales"`
	TimesSold     int64           `json:"timesSold"`
}

type reportRepo struct {
	db *gorm.DB
}

func NewReportRepo(db *gorm.DB) ReportRepository {
	return &reportRepo{db}
}

func (r *reportRepo) SalesTotals(ctx context.Context, from, to time.Time) (*SalesTotals, error) {
	var totals SalesTotals
	err := r.db.WithContext(ctx).Model(&model.Invoice{}).
		Select(`COALESCE(SUM(grand_total), 0) AS total_sales,
			COALESCE(SUM(total_discount), 0) AS total_discount,
			COUNT(*) AS invoice_count`).
		Where("invoice_date >= ? AND invoice_date < ?", from, to).
		Scan(&totals).Error
	if err != nil {
		return nil, err
	}
	return &totals, nil
}

func (r *reportRepo) PaymentTotalsByMode(ctx context.Context, from, to time.Time) ([]ModeTotal, error) {
	var rows []ModeTotal
	err := r.db.WithContext(ctx).Table("invoice_payments AS p").
		Select("LOWER(TRIM(p.payment_mode)) AS mode, COALESCE(SUM(p.amount), 0) AS amount").
		Joins("JOIN invoices i ON i.id = p.invoice_id").
		Where("i.invoice_date >= ? AND i.invoice_date < ?", from, to).
		Group("LOWER(TRIM(p.payment_mode))").
		Scan(&rows).Error
	return rows, err
}

func (r *reportRepo) ReturnsTotal(ctx context.Context, from, to time.Time) (decimal.Decimal, error) {
	var row struct{ Total decimal.Decimal }
	err := r.db.WithContext(ctx).Model(&model.SalesReturn{}).
		Select("COALESCE(SUM(grand_total), 0) AS total").
		Where("date >= ? AND date < ?", from, to).
		Scan(&row).Error
	return row.Total, err
}

func (r *reportRepo) sumProfit(ctx context.Context, query string, from, to time.Time) (decimal.NullDecimal, error) {
	var row struct{ Profit decimal.NullDecimal }
	err := r.db.WithContext(ctx).Raw(query, from, to).Scan(&row).Error
	return row.Profit, err
}

// ProfitByStockAverageCost values each sold line at the average purchase rate
// across the product's stock batches. Lines with no priced batch cost zero.
func (r *reportRepo) ProfitByStockAverageCost(ctx context.Context, from, to time.Time) (decimal.NullDecimal, error) {
	return r.sumProfit(ctx, `
		SELECT SUM(ii.total_amount - ii.qty * COALESCE(s.avg_rate, 0)) AS profit
		FROM invoice_items ii
		JOIN invoices i ON i.id = ii.invoice_id
		LEFT JOIN (
			SELECT product_id, AVG(purchase_rate) AS avg_rate
			FROM stock_entries WHERE purchase_rate > 0 GROUP BY product_id
		) s ON s.product_id = ii.product_id
		WHERE i.invoice_date >= ? AND i.invoice_date < ?`, from, to)
}

func (r *reportRepo) ProfitByLinePurchaseRate(ctx context.Context, from, to time.Time) (decimal.NullDecimal, error) {
	return r.sumProfit(ctx, `
		SELECT SUM(ii.total_amount - ii.qty * ii.purchase_rate) AS profit
		FROM invoice_items ii
		JOIN invoices i ON i.id = ii.invoice_id
		WHERE ii.purchase_rate > 0 AND i.invoice_date >= ? AND i.invoice_date < ?`, from, to)
}

func (r *reportRepo) ProfitByLineMargin(ctx context.Context, from, to time.Time) (decimal.NullDecimal, error) {
	return r.sumProfit(ctx, `
		SELECT SUM(ii.margin * ii.qty) AS profit
		FROM invoice_items ii
		JOIN invoices i ON i.id = ii.invoice_id
		WHERE ii.margin <> 0 AND i.invoice_date >= ? AND i.invoice_date < ?`, from, to)
}

func (r *reportRepo) ProductCount(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Product{}).Count(&count).Error
	return count, err
}

const lowStockSQL = `
	FROM products p
	LEFT JOIN (
		SELECT product_id, SUM(qty) AS qty FROM stock_entries GROUP BY product_id
	) s ON s.product_id = p.id
	WHERE p.reorder_point > 0 AND COALESCE(s.qty, 0) <= p.reorder_point`

func (r *reportRepo) LowStockCount(ctx context.Context) (int64, error) {
	var row struct{ Total int64 }
	err := r.db.WithContext(ctx).Raw("SELECT COUNT(*) AS total " + lowStockSQL).Scan(&row).Error
	return row.Total, err
}

func (r *reportRepo) LowStockProducts(ctx context.Context) ([]LowStockProduct, error) {
	var rows []LowStockProduct
	err := r.db.WithContext(ctx).Raw(`
		SELECT p.id AS product_id, p.product_code, p.product_name, p.category, p.reorder_point,
			COALESCE(s.qty, 0) AS available_qty` + lowStockSQL + `
		ORDER BY available_qty ASC, p.product_name ASC`).Scan(&rows).Error
	return rows, err
}

func (r *reportRepo) SalesTrends(ctx context.Context, from, to time.Time) ([]TrendPoint, error) {
	var rows []TrendPoint
	err := r.db.WithContext(ctx).Model(&model.Invoice{}).
		Select(`DATE(invoice_date) AS date,
			COALESCE(SUM(grand_total), 0) AS sales,
			COUNT(*) AS transactions,
			COALESCE(SUM(total_discount), 0) AS discount`).
		Where("invoice_date >= ? AND invoice_date < ?", from, to).
		Group("DATE(invoice_date)").
		Order("date ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for i := range rows {
		// postgres hands back a timestamp string, sqlite a plain date
		if len(rows[i].Date) > 10 {
			rows[i].Date = rows[i].Date[:10]
		}
	}
	return rows, nil
}

func (r *reportRepo) TopProducts(ctx context.Context, from, to time.Time, limit int) ([]TopProduct, error) {
	var rows []TopProduct
	err := r.db.WithContext(ctx).Table("invoice_items AS ii").
		Select(`ii.product_id, p.product_name, p.product_code, p.category,
			SUM(ii.qty) AS total_quantity,
			SUM(ii.total_amount) AS total_sales,
			COUNT(DISTINCT ii.invoice_id) AS times_sold`).
		Joins("JOIN invoices i ON i.id = ii.invoice_id").
		Joins("JOIN products p ON p.id = ii.product_id").
		Where("i.invoice_date >= ? AND i.invoice_date < ?", from, to).
		Group("ii.product_id, p.product_name, p.product_code, p.category").
		Order("total_sales DESC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}
