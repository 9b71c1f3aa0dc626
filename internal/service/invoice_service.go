package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go-pos-api/internal/model"
	"go-pos-api/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	maxInvoiceListing = 1000
	maxSearchResults  = 100
)

// InvoiceWithPayments is an invoice row plus its categorized payment totals.
type InvoiceWithPayments struct {
	model.Invoice
	CashAmount   decimal.Decimal `json:"cashAmount"`
	MpesaAmount  decimal.Decimal `json:"mpesaAmount"`
	CreditAmount decimal.Decimal `json:"creditAmount"`
	PaidAmount   decimal.Decimal `json:"paidAmount"`
}

type UnpaidInvoice struct {
	repository.UnpaidInvoice
	Outstanding   decimal.Decimal `json:"outstanding"`
	PaymentStatus string          `json:"paymentStatus"`
}

type DailyInvoiceStats struct {
	Date          string          `json:"date"`
	InvoiceCount  int64           `json:"invoiceCount"`
	TotalSales    decimal.Decimal `json:"totalSales"`
	TotalDiscount decimal.Decimal `json:"totalDiscount"`
	AverageSale   decimal.Decimal `json:"averageSale"`
	MinSale       decimal.Decimal `json:"minSale"`
	MaxSale       decimal.Decimal `json:"maxSale"`
}

type InvoiceService interface {
	List(ctx context.Context, from, to time.Time) ([]model.Invoice, error)
	Today(ctx context.Context) ([]InvoiceWithPayments, error)
	Unpaid(ctx context.Context) ([]UnpaidInvoice, error)
	Recent(ctx context.Context, count int) ([]model.Invoice, error)
	Search(ctx context.Context, term string) ([]model.Invoice, error)
	DailyStats(ctx context.Context, day time.Time) (*DailyInvoiceStats, error)
	Get(ctx context.Context, id int) (*model.Invoice, error)
}

type invoiceService struct {
	repo repository.InvoiceRepository
	log  *zap.Logger
	now  func() time.Time
}

func NewInvoiceService(repo repository.InvoiceRepository, log *zap.Logger) InvoiceService {
	if log == nil {
		log = zap.NewNop()
	}
	return &invoiceService{repo: repo, log: log, now: time.Now}
}

func (s *invoiceService) List(ctx context.Context, from, to time.Time) ([]model.Invoice, error) {
	if from.IsZero() {
		from, _ = DayWindow(s.now())
	}
	if to.IsZero() || !to.After(from) {
		to = from.AddDate(0, 0, 1)
	}
	return s.repo.FindByRange(ctx, from, to, maxInvoiceListing)
}

func (s *invoiceService) Today(ctx context.Context) ([]InvoiceWithPayments, error) {
	from, to := DayWindow(s.now())
	invoices, err := s.repo.FindByRangeWithPayments(ctx, from, to)
	if err != nil {
		return nil, err
	}

	out := make([]InvoiceWithPayments, len(invoices))
	for i, inv := range invoices {
		modes := make([]ModeAmount, len(inv.Payments))
		for j, p := range inv.Payments {
			modes[j] = ModeAmount{Mode: p.PaymentMode, Amount: p.Amount}
		}
		b := CategorizePayments(modes, s.log)
		inv.Payments = nil
		out[i] = InvoiceWithPayments{
			Invoice:      inv,
			CashAmount:   b.Cash,
			MpesaAmount:  b.MobileMoney,
			CreditAmount: b.Credit,
			PaidAmount:   b.Total(),
		}
	}
	return out, nil
}

func (s *invoiceService) Unpaid(ctx context.Context) ([]UnpaidInvoice, error) {
	rows, err := s.repo.FindUnpaid(ctx, maxInvoiceListing)
	if err != nil {
		return nil, err
	}
	out := make([]UnpaidInvoice, len(rows))
	for i, r := range rows {
		outstanding := r.GrandTotal.Sub(r.TotalDiscount).Sub(r.PaidAmount)
		out[i] = UnpaidInvoice{
			UnpaidInvoice: r,
			Outstanding:   outstanding,
			PaymentStatus: PaymentStatus(r.PaidAmount, outstanding),
		}
	}
	return out, nil
}

// PaymentStatus labels an invoice by how much of it has been paid.
func PaymentStatus(paid, outstanding decimal.Decimal) string {
	switch {
	case !outstanding.IsPositive():
		return "Paid"
	case !paid.IsPositive():
		return "Not Paid"
	default:
		return "Partially Paid"
	}
}

func (s *invoiceService) Recent(ctx context.Context, count int) ([]model.Invoice, error) {
	if count <= 0 {
		count = 10
	}
	if count > maxSearchResults {
		count = maxSearchResults
	}
	return s.repo.FindRecent(ctx, count)
}

func (s *invoiceService) Search(ctx context.Context, term string) ([]model.Invoice, error) {
	if term == "" {
		return nil, fmt.Errorf("%w: search term is required", ErrInvalidRequest)
	}
	return s.repo.Search(ctx, term, maxSearchResults)
}

func (s *invoiceService) DailyStats(ctx context.Context, day time.Time) (*DailyInvoiceStats, error) {
	if day.IsZero() {
		day = s.now()
	}
	from, to := DayWindow(day)
	raw, err := s.repo.DailyStats(ctx, from, to)
	if err != nil {
		return nil, err
	}
	return &DailyInvoiceStats{
		Date:          from.Format("2006-01-02"),
		InvoiceCount:  raw.InvoiceCount,
		TotalSales:    raw.TotalSales.Decimal,
		TotalDiscount: raw.TotalDiscount.Decimal,
		AverageSale:   raw.AverageSale.Decimal.Round(2),
		MinSale:       raw.MinSale.Decimal,
		MaxSale:       raw.MaxSale.Decimal,
	}, nil
}

func (s *invoiceService) Get(ctx context.Context, id int) (*model.Invoice, error) {
	inv, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: invoice %d", ErrNotFound, id)
		}
		return nil, err
	}
	return inv, nil
}
