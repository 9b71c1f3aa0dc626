package repository

import (
	"context"
	"strings"
	"time"

	"go-pos-api/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type InvoiceRepository interface {
	// write side, always inside the sale transaction
	ExistsByID(tx *gorm.DB, id int) (bool, error)
	ExistsByNo(tx *gorm.DB, invoiceNo string) (bool, error)
	CreateHeader(tx *gorm.DB, invoice *model.Invoice) error
	CreateItem(tx *gorm.DB, item *model.InvoiceItem) error
	CreatePayment(tx *gorm.DB, payment *model.InvoicePayment) error

	MaxID(ctx context.Context) (int, error)
	MaxSequence(ctx context.Context) (int, error)
	FindByID(ctx context.Context, id int) (*model.Invoice, error)
	FindByRange(ctx context.Context, from, to time.Time, limit int) ([]model.Invoice, error)
	FindByRangeWithPayments(ctx context.Context, from, to time.Time) ([]model.Invoice, error)
	FindRecent(ctx context.Context, count int) ([]model.Invoice, error)
	Search(ctx context.Context, term string, limit int) ([]model.Invoice, error)
	FindUnpaid(ctx context.Context, limit int) ([]UnpaidInvoice, error)
	DailyStats(ctx context.Context, from, to time.Time) (*InvoiceDailyStats, error)
}

// UnpaidInvoice is an invoice whose payments fall short of its net total.
type UnpaidInvoice struct {
	InvoiceID     int             `json:"invoiceId"`
	InvoiceNo     string          `json:"invoiceNo"`
	InvoiceDate   time.Time       `json:"invoiceDate"`
	CustomerName  string          `json:"customerName"`
	SalesmanName  string          `json:"salesmanName"`
	GrandTotal    decimal.Decimal `json:"grandTotal"`
	TotalDiscount decimal.Decimal `json:"totalDiscount"`
	PaidAmount    decimal.Decimal `json:"paidAmount"`
}

type InvoiceDailyStats struct {
	InvoiceCount  int64               `json:"invoiceCount"`
	TotalSales    decimal.NullDecimal `json:"totalSales"`
	TotalDiscount decimal.NullDecimal `json:"totalDiscount"`
	AverageSale   decimal.NullDecimal `json:"averageSale"`
	MinSale       decimal.NullDecimal `json:"minSale"`
	MaxSale       decimal.NullDecimal `json:"maxSale"`
}

type invoiceRepo struct {
	db *gorm.DB
}

func NewInvoiceRepo(db *gorm.DB) InvoiceRepository {
	return &invoiceRepo{db}
}

func (r *invoiceRepo) ExistsByID(tx *gorm.DB, id int) (bool, error) {
	var count int64
	err := tx.Model(&model.Invoice{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

func (r *invoiceRepo) ExistsByNo(tx *gorm.DB, invoiceNo string) (bool, error) {
	var count int64
	err := tx.Model(&model.Invoice{}).Where("invoice_no = ?", invoiceNo).Count(&count).Error
	return count > 0, err
}

func (r *invoiceRepo) CreateHeader(tx *gorm.DB, invoice *model.Invoice) error {
	return tx.Omit(clause.Associations).Create(invoice).Error
}

func (r *invoiceRepo) CreateItem(tx *gorm.DB, item *model.InvoiceItem) error {
	return tx.Create(item).Error
}

func (r *invoiceRepo) CreatePayment(tx *gorm.DB, payment *model.InvoicePayment) error {
	return tx.Create(payment).Error
}

func (r *invoiceRepo) MaxID(ctx context.Context) (int, error) {
	var row struct{ MaxID int }
	err := r.db.WithContext(ctx).Model(&model.Invoice{}).
		Select("COALESCE(MAX(id), 0) AS max_id").
		Scan(&row).Error
	return row.MaxID, err
}

func (r *invoiceRepo) MaxSequence(ctx context.Context) (int, error) {
	var row struct{ MaxSeq int }
	err := r.db.WithContext(ctx).Model(&model.Invoice{}).
		Select("COALESCE(MAX(sequence), 0) AS max_seq").
		Where("invoice_no LIKE ?", model.InvoicePrefix+"%").
		Scan(&row).Error
	return row.MaxSeq, err
}

func (r *invoiceRepo) FindByID(ctx context.Context, id int) (*model.Invoice, error) {
	var invoice model.Invoice
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Payments", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		First(&invoice, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *invoiceRepo) FindByRange(ctx context.Context, from, to time.Time, limit int) ([]model.Invoice, error) {
	var invoices []model.Invoice
	err := r.db.WithContext(ctx).
		Where("invoice_date >= ? AND invoice_date < ?", from, to).
		Order("invoice_date DESC, id DESC").
		Limit(limit).
		Find(&invoices).Error
	return invoices, err
}

func (r *invoiceRepo) FindByRangeWithPayments(ctx context.Context, from, to time.Time) ([]model.Invoice, error) {
	var invoices []model.Invoice
	err := r.db.WithContext(ctx).
		Preload("Payments").
		Where("invoice_date >= ? AND invoice_date < ?", from, to).
		Order("invoice_date DESC, id DESC").
		Find(&invoices).Error
	return invoices, err
}

func (r *invoiceRepo) FindRecent(ctx context.Context, count int) ([]model.Invoice, error) {
	var invoices []model.Invoice
	err := r.db.WithContext(ctx).
		Order("invoice_date DESC, id DESC").
		Limit(count).
		Find(&invoices).Error
	return invoices, err
}

func (r *invoiceRepo) Search(ctx context.Context, term string, limit int) ([]model.Invoice, error) {
	like := "%" + strings.ToLower(strings.TrimSpace(term)) + "%"
	var invoices []model.Invoice
	err := r.db.WithContext(ctx).
		Where("LOWER(invoice_no) LIKE ? OR LOWER(customer_name) LIKE ? OR LOWER(salesman_name) LIKE ?", like, like, like).
		Order("invoice_date DESC, id DESC").
		Limit(limit).
		Find(&invoices).Error
	return invoices, err
}

func (r *invoiceRepo) FindUnpaid(ctx context.Context, limit int) ([]UnpaidInvoice, error) {
	var rows []UnpaidInvoice
	err := r.db.WithContext(ctx).Raw(`
		SELECT i.id AS invoice_id, i.invoice_no, i.invoice_date, i.customer_name, i.salesman_name,
			i.grand_total, i.total_discount, COALESCE(p.paid, 0) AS paid_amount
		FROM invoices i
		LEFT JOIN (
			SELECT invoice_id, SUM(amount) AS paid FROM invoice_payments GROUP BY invoice_id
		) p ON p.invoice_id = i.id
		WHERE i.grand_total - i.total_discount - COALESCE(p.paid, 0) > 0.009
		ORDER BY i.invoice_date DESC, i.id DESC
		LIMIT ?`, limit).Scan(&rows).Error
	return rows, err
}

func (r *invoiceRepo) DailyStats(ctx context.Context, from, to time.Time) (*InvoiceDailyStats, error) {
	var stats InvoiceDailyStats
	err := r.db.WithContext(ctx).Model(&model.Invoice{}).
		Select(`COUNT(*) AS invoice_count,
			SUM(grand_total) AS total_sales,
			SUM(total_discount) AS total_discount,
			AVG(grand_total) AS average_sale,
			MIN(grand_total) AS min_sale,
			MAX(grand_total) AS max_sale`).
		Where("invoice_date >= ? AND invoice_date < ?", from, to).
		Scan(&stats).Error
	if err != nil {
		return nil, err
	}
	return &stats, nil
}
