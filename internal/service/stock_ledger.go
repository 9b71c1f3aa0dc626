package service

import (
	"errors"
	"fmt"
	"strings"

	"go-pos-api/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// StockLedger guards per-batch quantities. Deduct is the only way the sale
// path touches stock and must run inside the sale transaction.
type StockLedger struct {
	repo repository.StockRepository
}

func NewStockLedger(repo repository.StockRepository) *StockLedger {
	return &StockLedger{repo: repo}
}

// CheckAvailable returns the current quantity of the batch.
func (l *StockLedger) CheckAvailable(tx *gorm.DB, productID int, batchKey string) (decimal.Decimal, error) {
	entry, err := l.repo.Find(tx, productID, strings.TrimSpace(batchKey))
	if err != nil {
		return decimal.Zero, l.lookupError(err, productID, batchKey)
	}
	return entry.Qty, nil
}

// Deduct re-reads the batch under a row lock and decrements it by qty.
func (l *StockLedger) Deduct(tx *gorm.DB, productID int, batchKey string, qty decimal.Decimal) error {
	batchKey = strings.TrimSpace(batchKey)

	entry, err := l.repo.FindForUpdate(tx, productID, batchKey)
	if err != nil {
		return l.lookupError(err, productID, batchKey)
	}

	if entry.Qty.LessThan(qty) {
		return fmt.Errorf("%w: product %d batch %q has %s, requested %s",
			ErrInsufficientStock, productID, batchKey, entry.Qty.String(), qty.String())
	}

	affected, err := l.repo.DecrementQty(tx, productID, batchKey, qty)
	if err != nil {
		return fmt.Errorf("deduct stock for product %d: %w", productID, err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: product %d batch %q", ErrUpdateFailed, productID, batchKey)
	}
	return nil
}

func (l *StockLedger) lookupError(err error, productID int, batchKey string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: product %d batch %q", ErrStockRecordMissing, productID, batchKey)
	}
	return fmt.Errorf("read stock for product %d: %w", productID, err)
}
