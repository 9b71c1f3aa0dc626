package service

import (
	"context"
	"errors"
	"time"

	"go-pos-api/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// errNotApplicable tells the profit chain to try the next strategy.
var errNotApplicable = errors.New("profit strategy not applicable")

var estimatedMarginRate = decimal.RequireFromString("0.15")

type DashboardStats struct {
	FromDate      time.Time       `json:"fromDate"`
	ToDate        time.Time       `json:"toDate"`
	TodaysSales   decimal.Decimal `json:"todaysSales"`
	CashSales     decimal.Decimal `json:"cashSales"`
	MpesaSales    decimal.Decimal `json:"mpesaSales"`
	CreditSales   decimal.Decimal `json:"creditSales"`
	TotalDiscount decimal.Decimal `json:"totalDiscount"`
	TotalReturns  decimal.Decimal `json:"totalReturns"`
	TotalProfit   decimal.Decimal `json:"totalProfit"`
	ProfitSource  string          `json:"profitSource"`
	NetSales      decimal.Decimal `json:"netSales"`
	InvoiceCount  int64           `json:"invoiceCount"`
	ProductCount  int64           `json:"productCount"`
	LowStockCount int64           `json:"lowStockCount"`
}

type LowStockAlert struct {
	repository.LowStockProduct
	StockStatus string `json:"stockStatus"`
}

type DashboardService interface {
	Stats(ctx context.Context, from, to time.Time) *DashboardStats
	TodayStats(ctx context.Context) *DashboardStats
	SalesTrends(ctx context.Context, days int) ([]repository.TrendPoint, error)
	TopProducts(ctx context.Context, limit int, from, to time.Time) ([]repository.TopProduct, error)
	LowStockAlerts(ctx context.Context) ([]LowStockAlert, error)
}

// profitStrategy computes profit for a window or returns errNotApplicable.
type profitStrategy struct {
	name string
	run  func(ctx context.Context, from, to time.Time, sales decimal.Decimal) (decimal.Decimal, error)
}

type dashboardService struct {
	reports    repository.ReportRepository
	strategies []profitStrategy
	log        *zap.Logger
	now        func() time.Time
}

func NewDashboardService(reports repository.ReportRepository, log *zap.Logger) DashboardService {
	if log == nil {
		log = zap.NewNop()
	}
	s := &dashboardService{reports: reports, log: log, now: time.Now}
	s.strategies = []profitStrategy{
		{name: "stock-average-cost", run: fromNullable(reports.ProfitByStockAverageCost)},
		{name: "line-purchase-rate", run: fromNullable(reports.ProfitByLinePurchaseRate)},
		{name: "line-margin", run: fromNullable(reports.ProfitByLineMargin)},
		{name: "estimated-margin", run: estimateProfit},
	}
	return s
}

func fromNullable(q func(ctx context.Context, from, to time.Time) (decimal.NullDecimal, error)) func(context.Context, time.Time, time.Time, decimal.Decimal) (decimal.Decimal, error) {
	return func(ctx context.Context, from, to time.Time, _ decimal.Decimal) (decimal.Decimal, error) {
		v, err := q(ctx, from, to)
		if err != nil {
			return decimal.Zero, err
		}
		if !v.Valid {
			return decimal.Zero, errNotApplicable
		}
		return v.Decimal, nil
	}
}

func estimateProfit(_ context.Context, _, _ time.Time, sales decimal.Decimal) (decimal.Decimal, error) {
	if !sales.IsPositive() {
		return decimal.Zero, errNotApplicable
	}
	return sales.Mul(estimatedMarginRate).Round(2), nil
}

// DayWindow returns [start of day, start of next day) in loc.
func DayWindow(day time.Time) (time.Time, time.Time) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	return start, start.AddDate(0, 0, 1)
}

// Stats never fails: each figure that can't be computed is logged and left
// at zero.
func (s *dashboardService) Stats(ctx context.Context, from, to time.Time) *DashboardStats {
	if from.IsZero() {
		from, _ = DayWindow(s.now())
	}
	if to.IsZero() || !to.After(from) {
		to = from.AddDate(0, 0, 1)
	}
	stats := &DashboardStats{FromDate: from, ToDate: to}

	if totals, err := s.reports.SalesTotals(ctx, from, to); err != nil {
		s.log.Error("sales totals failed", zap.Error(err))
	} else {
		stats.TodaysSales = totals.TotalSales
		stats.TotalDiscount = totals.TotalDiscount
		stats.InvoiceCount = totals.InvoiceCount
	}

	if modes, err := s.reports.PaymentTotalsByMode(ctx, from, to); err != nil {
		s.log.Error("payment totals failed", zap.Error(err))
	} else {
		amounts := make([]ModeAmount, len(modes))
		for i, m := range modes {
			amounts[i] = ModeAmount{Mode: m.Mode, Amount: m.Amount}
		}
		b := CategorizePayments(amounts, s.log)
		stats.CashSales = b.Cash
		stats.MpesaSales = b.MobileMoney
		stats.CreditSales = b.Credit

		expected := stats.TodaysSales.Sub(stats.TotalDiscount)
		if diff := b.Total().Sub(expected).Abs(); diff.GreaterThan(reconciliationTolerance) && len(modes) > 0 {
			s.log.Warn("payment totals differ from sales",
				zap.String("payments", b.Total().String()),
				zap.String("sales", expected.String()),
			)
		}
	}

	if returns, err := s.reports.ReturnsTotal(ctx, from, to); err != nil {
		s.log.Warn("returns total unavailable", zap.Error(err))
	} else {
		stats.TotalReturns = returns
	}

	stats.TotalProfit, stats.ProfitSource = s.profit(ctx, from, to, stats.TodaysSales)

	if n, err := s.reports.ProductCount(ctx); err != nil {
		s.log.Error("product count failed", zap.Error(err))
	} else {
		stats.ProductCount = n
	}

	if n, err := s.reports.LowStockCount(ctx); err != nil {
		s.log.Error("low stock count failed", zap.Error(err))
	} else {
		stats.LowStockCount = n
	}

	stats.NetSales = stats.TodaysSales.Sub(stats.TotalReturns).Sub(stats.TotalDiscount)
	return stats
}

// profit walks the strategy chain and returns the first result, or zero.
func (s *dashboardService) profit(ctx context.Context, from, to time.Time, sales decimal.Decimal) (decimal.Decimal, string) {
	for _, strategy := range s.strategies {
		v, err := strategy.run(ctx, from, to, sales)
		if err == nil {
			return v, strategy.name
		}
		if !errors.Is(err, errNotApplicable) {
			s.log.Warn("profit strategy failed", zap.String("strategy", strategy.name), zap.Error(err))
		}
	}
	return decimal.Zero, "none"
}

func (s *dashboardService) TodayStats(ctx context.Context) *DashboardStats {
	from, to := DayWindow(s.now())
	return s.Stats(ctx, from, to)
}

func (s *dashboardService) SalesTrends(ctx context.Context, days int) ([]repository.TrendPoint, error) {
	if days <= 0 {
		days = 30
	}
	_, to := DayWindow(s.now())
	return s.reports.SalesTrends(ctx, to.AddDate(0, 0, -days), to)
}

func (s *dashboardService) TopProducts(ctx context.Context, limit int, from, to time.Time) ([]repository.TopProduct, error) {
	if limit <= 0 {
		limit = 10
	}
	if to.IsZero() {
		_, to = DayWindow(s.now())
	}
	if from.IsZero() || !to.After(from) {
		from = to.AddDate(0, 0, -30)
	}
	return s.reports.TopProducts(ctx, from, to, limit)
}

func (s *dashboardService) LowStockAlerts(ctx context.Context) ([]LowStockAlert, error) {
	products, err := s.reports.LowStockProducts(ctx)
	if err != nil {
		return nil, err
	}
	alerts := make([]LowStockAlert, len(products))
	for i, p := range products {
		status := "Low Stock"
		if !p.AvailableQty.IsPositive() {
			status = "Out of Stock"
		}
		alerts[i] = LowStockAlert{LowStockProduct: p, StockStatus: status}
	}
	return alerts, nil
}
