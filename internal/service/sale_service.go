package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go-pos-api/internal/model"
	"go-pos-api/internal/repository"
	"go-pos-api/pkg/validator"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SaleStage names a step of the sale transaction, used in logs.
type SaleStage string

const (
	StageValidating         SaleStage = "validating"
	StageCheckingUniqueness SaleStage = "checking_uniqueness"
	StageWritingHeader      SaleStage = "writing_header"
	StageWritingItems       SaleStage = "writing_items"
	StageDeductingStock     SaleStage = "deducting_stock"
	StageWritingPayments    SaleStage = "writing_payments"
	StageCommitted          SaleStage = "committed"
	StageRolledBack         SaleStage = "rolled_back"
)

// reconciliationTolerance is the largest payment/total gap treated as equal.
var reconciliationTolerance = decimal.RequireFromString("0.01")

type SaveSaleRequest struct {
	InvID          int             `json:"invId"`
	InvoiceNo      string          `json:"invoiceNo"`
	InvoiceDate    string          `json:"invoiceDate"`
	UserID         string          `json:"userId"`
	SalesmanName   string          `json:"salesmanName"`
	CustomerName   string          `json:"customerName"`
	GrandTotal     decimal.Decimal `json:"grandTotal"`
	TotalDiscount  decimal.Decimal `json:"totalDiscount"`
	AmountTendered decimal.Decimal `json:"amountTendered"`
	ChangeAmount   decimal.Decimal `json:"changeAmount"`
	Products       []SaleLineItem  `json:"products" validate:"dive"`
	Payments       []SalePayment   `json:"payments" validate:"dive"`
}

type SaleLineItem struct {
	ProductID    int             `json:"productId" validate:"gt=0"`
	ProductCode  string          `json:"productCode"`
	Barcode      string          `json:"barcode"`
	Quantity     decimal.Decimal `json:"quantity" validate:"decimal_gt0"`
	SalesRate    decimal.Decimal `json:"salesRate"`
	PurchaseRate decimal.Decimal `json:"purchaseRate"`
	DiscountPer  decimal.Decimal `json:"discountPer"`
	Discount     decimal.Decimal `json:"discount"`
	VATPer       decimal.Decimal `json:"vatPer"`
	VAT          decimal.Decimal `json:"vat"`
	TotalAmount  decimal.Decimal `json:"totalAmount"`
	Margin       decimal.Decimal `json:"margin"`
	MfgDate      string          `json:"mfgDate"`
	ExpiryDate   string          `json:"expiryDate"`
}

type SalePayment struct {
	PaymentMode string          `json:"paymentMode"`
	Amount      decimal.Decimal `json:"amount" validate:"decimal_gte0"`
}

type SaleResult struct {
	InvoiceID     int             `json:"invoiceId"`
	InvoiceNo     string          `json:"invoiceNo"`
	GrandTotal    decimal.Decimal `json:"grandTotal"`
	ProductsCount int             `json:"productsCount"`
	PaymentsCount int             `json:"paymentsCount"`
	Timestamp     time.Time       `json:"timestamp"`
}

type NextInvoice struct {
	InvoiceID int    `json:"invoiceId"`
	InvoiceNo string `json:"invoiceNo"`
}

// Notifier receives events after a sale commits.
type Notifier interface {
	Publish(event string, payload interface{})
}

type SaleService interface {
	SaveSale(ctx context.Context, req *SaveSaleRequest) (*SaleResult, error)
	MaxInvoiceID(ctx context.Context) (int, error)
	NextInvoiceNumber(ctx context.Context) (*NextInvoice, error)
}

type saleService struct {
	db       *gorm.DB
	ledger   *StockLedger
	writer   *InvoiceWriter
	invoices repository.InvoiceRepository
	notifier Notifier
	timeout  time.Duration
	log      *zap.Logger
	now      func() time.Time
}

func NewSaleService(
	db *gorm.DB,
	ledger *StockLedger,
	writer *InvoiceWriter,
	invoices repository.InvoiceRepository,
	notifier Notifier,
	timeout time.Duration,
	log *zap.Logger,
) SaleService {
	if log == nil {
		log = zap.NewNop()
	}
	return &saleService{
		db:       db,
		ledger:   ledger,
		writer:   writer,
		invoices: invoices,
		notifier: notifier,
		timeout:  timeout,
		log:      log,
		now:      time.Now,
	}
}

// SaveSale records the sale atomically: header, line items, stock deductions
// and payments either all commit or none do.
func (s *saleService) SaveSale(ctx context.Context, req *SaveSaleRequest) (result *SaleResult, err error) {
	if err := validateSaleRequest(req); err != nil {
		s.log.Debug("sale rejected", zap.String("stage", string(StageValidating)), zap.Error(err))
		return nil, err
	}

	log := s.log.With(zap.Int("invoice_id", req.InvID), zap.String("invoice_no", req.InvoiceNo))

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, fmt.Errorf("begin sale transaction: %w", tx.Error)
	}

	stage := StageCheckingUniqueness
	committed := false
	defer func() {
		if committed {
			return
		}
		if rbErr := tx.Rollback().Error; rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			log.Error("rollback failed", zap.String("stage", string(stage)), zap.Error(rbErr))
		}
		if err != nil {
			log.Warn("sale rolled back", zap.String("stage", string(stage)), zap.Error(err))
		}
	}()

	now := s.now()
	invoiceDate := s.parseInvoiceDate(req.InvoiceDate, now, log)

	header := &model.Invoice{
		ID:             req.InvID,
		InvoiceNo:      req.InvoiceNo,
		Sequence:       invoiceSequence(req.InvoiceNo),
		InvoiceDate:    invoiceDate,
		UserID:         req.UserID,
		CustomerName:   strings.TrimSpace(req.CustomerName),
		SalesmanName:   strings.TrimSpace(req.SalesmanName),
		GrandTotal:     req.GrandTotal,
		TotalDiscount:  req.TotalDiscount,
		AmountTendered: req.AmountTendered,
		ChangeAmount:   req.ChangeAmount,
		CurrencyCode:   model.DefaultCurrencyCode,
		TaxType:        model.DefaultTaxType,
	}
	invoiceID, err := s.writer.InsertHeader(tx, header)
	if err != nil {
		if errors.Is(err, ErrHeaderWriteFailed) {
			stage = StageWritingHeader
		}
		return nil, err
	}
	log.Debug("invoice header written")

	stage = StageWritingItems
	items := toInvoiceItems(req.Products, now.Location())
	itemCount, err := s.writer.InsertLineItems(tx, invoiceID, items)
	if err != nil {
		return nil, err
	}

	stage = StageDeductingStock
	for _, item := range items {
		if err = s.ledger.Deduct(tx, item.ProductID, item.Barcode, item.Qty); err != nil {
			return nil, err
		}
	}

	stage = StageWritingPayments
	payments := toInvoicePayments(req.Payments)
	paymentCount, err := s.writer.InsertPayments(tx, invoiceID, payments, now)
	if err != nil {
		return nil, err
	}
	if paymentCount == 0 {
		log.Info("sale saved in order mode without payments")
	}

	if err = tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("commit sale: %w", err)
	}
	committed = true
	log.Info("sale committed", zap.String("stage", string(StageCommitted)), zap.Int("items", itemCount), zap.Int("payments", paymentCount))

	s.reconcile(req, payments, log)

	result = &SaleResult{
		InvoiceID:     invoiceID,
		InvoiceNo:     header.InvoiceNo,
		GrandTotal:    header.GrandTotal,
		ProductsCount: itemCount,
		PaymentsCount: paymentCount,
		Timestamp:     now,
	}
	s.publish(result, items)
	return result, nil
}

func (s *saleService) MaxInvoiceID(ctx context.Context) (int, error) {
	return s.invoices.MaxID(ctx)
}

func (s *saleService) NextInvoiceNumber(ctx context.Context) (*NextInvoice, error) {
	maxID, err := s.invoices.MaxID(ctx)
	if err != nil {
		return nil, fmt.Errorf("max invoice id: %w", err)
	}
	maxSeq, err := s.invoices.MaxSequence(ctx)
	if err != nil {
		return nil, fmt.Errorf("max invoice sequence: %w", err)
	}
	return &NextInvoice{
		InvoiceID: maxID + 1,
		InvoiceNo: FormatInvoiceNo(maxSeq + 1),
	}, nil
}

// FormatInvoiceNo renders a receipt number such as RCT-42.
func FormatInvoiceNo(seq int) string {
	return model.InvoicePrefix + strconv.Itoa(seq)
}

func validateSaleRequest(req *SaveSaleRequest) error {
	if req == nil {
		return ErrInvalidRequest
	}
	if req.InvID <= 0 {
		return fmt.Errorf("%w: must be greater than zero", ErrInvalidInvoiceID)
	}
	if len(req.Products) == 0 {
		return ErrEmptyCart
	}
	req.InvoiceNo = strings.TrimSpace(req.InvoiceNo)
	if req.InvoiceNo == "" || !strings.HasPrefix(req.InvoiceNo, model.InvoicePrefix) {
		return fmt.Errorf("%w: must start with %s", ErrInvalidInvoiceNumber, model.InvoicePrefix)
	}
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidLineItem, errs[0].String())
	}
	return nil
}

// invoiceSequence extracts n from RCT-n, or 0 when the suffix isn't numeric.
func invoiceSequence(invoiceNo string) int {
	n, err := strconv.Atoi(strings.TrimPrefix(invoiceNo, model.InvoicePrefix))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

var invoiceDateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseInvoiceDate returns the invoice date in UTC.
func (s *saleService) parseInvoiceDate(raw string, now time.Time, log *zap.Logger) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return now.UTC()
	}
	if t, ok := ParseDate(raw, now.Location()); ok {
		return t.UTC()
	}
	log.Warn("unparseable invoice date, using current time", zap.String("invoice_date", raw))
	return now.UTC()
}

// ParseDate accepts the date layouts POS clients send. Layouts without an
// offset are read in loc.
func ParseDate(raw string, loc *time.Location) (time.Time, bool) {
	for _, layout := range invoiceDateLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// optionalDate parses a batch date from a line item. Blank or unreadable
// values are dropped rather than failing the sale.
func optionalDate(raw string, loc *time.Location) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	t, ok := ParseDate(raw, loc)
	if !ok {
		return nil
	}
	t = t.UTC()
	return &t
}

func toInvoiceItems(lines []SaleLineItem, loc *time.Location) []model.InvoiceItem {
	items := make([]model.InvoiceItem, len(lines))
	for i, l := range lines {
		items[i] = model.InvoiceItem{
			ProductID:    l.ProductID,
			ProductCode:  strings.TrimSpace(l.ProductCode),
			Barcode:      strings.TrimSpace(l.Barcode),
			Qty:          l.Quantity,
			SalesRate:    l.SalesRate,
			PurchaseRate: l.PurchaseRate,
			DiscountPer:  l.DiscountPer,
			Discount:     l.Discount,
			VATPer:       l.VATPer,
			VAT:          l.VAT,
			TotalAmount:  l.TotalAmount,
			Margin:       l.Margin,
			MfgDate:      optionalDate(l.MfgDate, loc),
			ExpiryDate:   optionalDate(l.ExpiryDate, loc),
		}
	}
	return items
}

func toInvoicePayments(in []SalePayment) []model.InvoicePayment {
	payments := make([]model.InvoicePayment, len(in))
	for i, p := range in {
		payments[i] = model.InvoicePayment{PaymentMode: p.PaymentMode, Amount: p.Amount}
	}
	return payments
}

// reconcile warns when payments don't cover grand total minus discount. It
// never fails the sale.
func (s *saleService) reconcile(req *SaveSaleRequest, payments []model.InvoicePayment, log *zap.Logger) {
	if len(payments) == 0 {
		return
	}
	modes := make([]ModeAmount, len(payments))
	for i, p := range payments {
		modes[i] = ModeAmount{Mode: p.PaymentMode, Amount: p.Amount}
	}
	breakdown := CategorizePayments(modes, log)

	expected := req.GrandTotal.Sub(req.TotalDiscount)
	if diff := breakdown.Total().Sub(expected).Abs(); diff.GreaterThan(reconciliationTolerance) {
		log.Warn("payment total does not match invoice total",
			zap.String("payments", breakdown.Total().String()),
			zap.String("expected", expected.String()),
			zap.String("difference", diff.String()),
		)
	}
}

func (s *saleService) publish(result *SaleResult, items []model.InvoiceItem) {
	if s.notifier == nil {
		return
	}
	s.notifier.Publish("sale_recorded", result)
	for _, item := range items {
		s.notifier.Publish("stock_update", map[string]interface{}{
			"productId": item.ProductID,
			"barcode":   item.Barcode,
			"deducted":  item.Qty,
			"invoiceId": result.InvoiceID,
		})
	}
}
