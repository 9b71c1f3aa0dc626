package service

import (
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type PaymentCategory string

const (
	CategoryCash        PaymentCategory = "Cash"
	CategoryMobileMoney PaymentCategory = "MobileMoney"
	CategoryCredit      PaymentCategory = "Credit"
)

// DefaultPaymentMode is stored when a payment arrives without a mode.
const DefaultPaymentMode = "Cash"

var paymentModeTable = map[string]PaymentCategory{
	"cash":            CategoryCash,
	"mpesa":           CategoryMobileMoney,
	"m-pesa":          CategoryMobileMoney,
	"m pesa":          CategoryMobileMoney,
	"mobile money":    CategoryMobileMoney,
	"mobile payment":  CategoryMobileMoney,
	"credit":          CategoryCredit,
	"credit customer": CategoryCredit,
}

// NormalizePaymentMode maps a free-text mode to its category. The second
// return is false when the mode was not recognized and fell back to cash.
func NormalizePaymentMode(mode string) (PaymentCategory, bool) {
	category, ok := paymentModeTable[strings.ToLower(strings.TrimSpace(mode))]
	if !ok {
		return CategoryCash, false
	}
	return category, true
}

// PaymentBreakdown is the per-category sum of a set of payments.
type PaymentBreakdown struct {
	Cash        decimal.Decimal `json:"cash"`
	MobileMoney decimal.Decimal `json:"mobileMoney"`
	Credit      decimal.Decimal `json:"credit"`
}

func (b PaymentBreakdown) Total() decimal.Decimal {
	return b.Cash.Add(b.MobileMoney).Add(b.Credit)
}

func (b *PaymentBreakdown) add(category PaymentCategory, amount decimal.Decimal) {
	switch category {
	case CategoryMobileMoney:
		b.MobileMoney = b.MobileMoney.Add(amount)
	case CategoryCredit:
		b.Credit = b.Credit.Add(amount)
	default:
		b.Cash = b.Cash.Add(amount)
	}
}

// ModeAmount is one payment mode with its amount, raw or pre-aggregated.
type ModeAmount struct {
	Mode   string
	Amount decimal.Decimal
}

// CategorizePayments folds payments into categories, warning on every
// unrecognized mode. log may be nil.
func CategorizePayments(payments []ModeAmount, log *zap.Logger) PaymentBreakdown {
	if log == nil {
		log = zap.NewNop()
	}
	var b PaymentBreakdown
	for _, p := range payments {
		category, known := NormalizePaymentMode(p.Mode)
		if !known {
			log.Warn("unrecognized payment mode, counted as cash",
				zap.String("mode", p.Mode),
				zap.String("amount", p.Amount.String()),
			)
		}
		b.add(category, p.Amount)
	}
	return b
}
