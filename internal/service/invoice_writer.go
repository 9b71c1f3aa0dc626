package service

import (
	"fmt"
	"strings"
	"time"

	"go-pos-api/internal/model"
	"go-pos-api/internal/repository"
	"go-pos-api/pkg/database"

	"gorm.io/gorm"
)

// InvoiceWriter persists the header, line items and payments of a sale.
// Every method expects the sale transaction.
type InvoiceWriter struct {
	repo repository.InvoiceRepository
}

func NewInvoiceWriter(repo repository.InvoiceRepository) *InvoiceWriter {
	return &InvoiceWriter{repo: repo}
}

// InsertHeader writes the invoice with its caller-supplied id after checking
// that neither the id nor the number is taken.
func (w *InvoiceWriter) InsertHeader(tx *gorm.DB, invoice *model.Invoice) (int, error) {
	exists, err := w.repo.ExistsByID(tx, invoice.ID)
	if err != nil {
		return 0, fmt.Errorf("check invoice id: %w", err)
	}
	if exists {
		return 0, fmt.Errorf("%w: %d", ErrDuplicateInvoiceID, invoice.ID)
	}

	exists, err = w.repo.ExistsByNo(tx, invoice.InvoiceNo)
	if err != nil {
		return 0, fmt.Errorf("check invoice number: %w", err)
	}
	if exists {
		return 0, fmt.Errorf("%w: %s", ErrDuplicateInvoiceNo, invoice.InvoiceNo)
	}

	if err := w.repo.CreateHeader(tx, invoice); err != nil {
		return 0, headerWriteError(err, invoice)
	}
	return invoice.ID, nil
}

// headerWriteError maps a unique index rejection to the duplicate errors. A
// concurrent sale can take the id or number between the checks and the insert.
func headerWriteError(err error, invoice *model.Invoice) error {
	switch database.ClassifyKeyConflict(err) {
	case database.PrimaryKeyConflict:
		return fmt.Errorf("%w: %d", ErrDuplicateInvoiceID, invoice.ID)
	case database.UniqueKeyConflict:
		return fmt.Errorf("%w: %s", ErrDuplicateInvoiceNo, invoice.InvoiceNo)
	case database.UnknownKeyConflict:
		return fmt.Errorf("%w or %w: %d / %s", ErrDuplicateInvoiceID, ErrDuplicateInvoiceNo, invoice.ID, invoice.InvoiceNo)
	}
	return fmt.Errorf("%w: %v", ErrHeaderWriteFailed, err)
}

// InsertLineItems writes one row per item. The first failure aborts.
func (w *InvoiceWriter) InsertLineItems(tx *gorm.DB, invoiceID int, items []model.InvoiceItem) (int, error) {
	for i := range items {
		items[i].InvoiceID = invoiceID
		items[i].Barcode = strings.TrimSpace(items[i].Barcode)
		if err := w.repo.CreateItem(tx, &items[i]); err != nil {
			return i, fmt.Errorf("%w: line %d product %d: %v", ErrLineItemWriteFailed, i+1, items[i].ProductID, err)
		}
	}
	return len(items), nil
}

// InsertPayments writes one row per payment. An empty list is an unsettled
// order and writes nothing.
func (w *InvoiceWriter) InsertPayments(tx *gorm.DB, invoiceID int, payments []model.InvoicePayment, paidAt time.Time) (int, error) {
	for i := range payments {
		payments[i].InvoiceID = invoiceID
		payments[i].PaymentMode = strings.TrimSpace(payments[i].PaymentMode)
		if payments[i].PaymentMode == "" {
			payments[i].PaymentMode = DefaultPaymentMode
		}
		if payments[i].PaymentDate.IsZero() {
			payments[i].PaymentDate = paidAt
		}
		if err := w.repo.CreatePayment(tx, &payments[i]); err != nil {
			return i, fmt.Errorf("%w: payment %d: %v", ErrPaymentWriteFailed, i+1, err)
		}
	}
	return len(payments), nil
}
