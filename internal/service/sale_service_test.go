package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go-pos-api/internal/model"
	"go-pos-api/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []string
}

func (n *recordingNotifier) Publish(event string, payload interface{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
}

func newSaleService(t *testing.T, db *gorm.DB, invoices repository.InvoiceRepository, log *zap.Logger) (SaleService, *recordingNotifier) {
	t.Helper()
	if invoices == nil {
		invoices = repository.NewInvoiceRepo(db)
	}
	notifier := &recordingNotifier{}
	svc := NewSaleService(
		db,
		NewStockLedger(repository.NewStockRepo(db)),
		NewInvoiceWriter(invoices),
		invoices,
		notifier,
		5*time.Second,
		log,
	)
	svc.(*saleService).now = func() time.Time {
		return time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	}
	return svc, notifier
}

func happySale(id int, no string) *SaveSaleRequest {
	return &SaveSaleRequest{
		InvID:        id,
		InvoiceNo:    no,
		InvoiceDate:  "2026-03-14T09:15:00Z",
		CustomerName: "Walk-in",
		SalesmanName: "Jane",
		GrandTotal:   decimal.NewFromInt(100),
		Products: []SaleLineItem{{
			ProductID:    7,
			Barcode:      "B1",
			Quantity:     decimal.NewFromInt(2),
			SalesRate:    decimal.NewFromInt(50),
			PurchaseRate: decimal.NewFromInt(30),
			TotalAmount:  decimal.NewFromInt(100),
		}},
		Payments: []SalePayment{{PaymentMode: "Cash", Amount: decimal.NewFromInt(100)}},
	}
}

func assertNoSaleRows(t *testing.T, db *gorm.DB) {
	t.Helper()
	assert.Zero(t, countRows(t, db, &model.Invoice{}), "invoices")
	assert.Zero(t, countRows(t, db, &model.InvoiceItem{}), "items")
	assert.Zero(t, countRows(t, db, &model.InvoicePayment{}), "payments")
}

func TestSaveSaleHappyPath(t *testing.T) {
	db := newTestDB(t)
	seedStock(t, db, 7, "B1", 10)
	svc, notifier := newSaleService(t, db, nil, nil)

	result, err := svc.SaveSale(context.Background(), happySale(501, "RCT-501"))
	require.NoError(t, err)

	assert.Equal(t, 501, result.InvoiceID)
	assert.Equal(t, "RCT-501", result.InvoiceNo)
	assert.True(t, result.GrandTotal.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, 1, result.ProductsCount)
	assert.Equal(t, 1, result.PaymentsCount)

	assert.True(t, stockQty(t, db, 7, "B1").Equal(decimal.NewFromInt(8)))
	assert.EqualValues(t, 1, countRows(t, db, &model.Invoice{}))
	assert.EqualValues(t, 1, countRows(t, db, &model.InvoiceItem{}))
	assert.EqualValues(t, 1, countRows(t, db, &model.InvoicePayment{}))

	var inv model.Invoice
	require.NoError(t, db.First(&inv, 501).Error)
	assert.Equal(t, 501, inv.Sequence)
	assert.Equal(t, "KES", inv.CurrencyCode)
	assert.Equal(t, "Inclusive", inv.TaxType)
	assert.True(t, inv.InvoiceDate.Equal(time.Date(2026, 3, 14, 9, 15, 0, 0, time.UTC)))

	assert.Equal(t, []string{"sale_recorded", "stock_update"}, notifier.events)
}

func TestSaveSaleInsufficientStockRollsBack(t *testing.T) {
	db := newTestDB(t)
	seedStock(t, db, 7, "B1", 1)
	svc, notifier := newSaleService(t, db, nil, nil)

	_, err := svc.SaveSale(context.Background(), happySale(501, "RCT-501"))
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.Equal(t, KindConflict, ErrorKind(err))

	assert.True(t, stockQty(t, db, 7, "B1").Equal(decimal.NewFromInt(1)))
	assertNoSaleRows(t, db)
	assert.Empty(t, notifier.events)
}

func TestSaveSaleMissingStockRecordRollsBack(t *testing.T) {
	db := newTestDB(t)
	svc, _ := newSaleService(t, db, nil, nil)

	_, err := svc.SaveSale(context.Background(), happySale(501, "RCT-501"))
	assert.ErrorIs(t, err, ErrStockRecordMissing)
	assertNoSaleRows(t, db)
}

func TestSaveSaleDuplicateInvoiceNumber(t *testing.T) {
	db := newTestDB(t)
	seedStock(t, db, 7, "B1", 10)
	svc, _ := newSaleService(t, db, nil, nil)

	_, err := svc.SaveSale(context.Background(), happySale(501, "RCT-501"))
	require.NoError(t, err)

	_, err = svc.SaveSale(context.Background(), happySale(502, "RCT-501"))
	assert.ErrorIs(t, err, ErrDuplicateInvoiceNo)

	assert.True(t, stockQty(t, db, 7, "B1").Equal(decimal.NewFromInt(8)))
	assert.EqualValues(t, 1, countRows(t, db, &model.Invoice{}))
	assert.EqualValues(t, 1, countRows(t, db, &model.InvoiceItem{}))
	assert.EqualValues(t, 1, countRows(t, db, &model.InvoicePayment{}))
}

func TestSaveSaleDuplicateInvoiceID(t *testing.T) {
	db := newTestDB(t)
	seedStock(t, db, 7, "B1", 10)
	svc, _ := newSaleService(t, db, nil, nil)

	_, err := svc.SaveSale(context.Background(), happySale(501, "RCT-501"))
	require.NoError(t, err)

	_, err = svc.SaveSale(context.Background(), happySale(501, "RCT-502"))
	assert.ErrorIs(t, err, ErrDuplicateInvoiceID)
	assert.True(t, stockQty(t, db, 7, "B1").Equal(decimal.NewFromInt(8)))
	assert.EqualValues(t, 1, countRows(t, db, &model.Invoice{}))
}

// failingPaymentRepo fails every payment insert.
type failingPaymentRepo struct {
	repository.InvoiceRepository
}

func (r failingPaymentRepo) CreatePayment(tx *gorm.DB, payment *model.InvoicePayment) error {
	return errors.New("disk full")
}

func TestSaveSalePaymentFailureUndoesEverything(t *testing.T) {
	db := newTestDB(t)
	seedStock(t, db, 7, "B1", 10)
	svc, notifier := newSaleService(t, db, failingPaymentRepo{repository.NewInvoiceRepo(db)}, nil)

	_, err := svc.SaveSale(context.Background(), happySale(501, "RCT-501"))
	assert.ErrorIs(t, err, ErrPaymentWriteFailed)
	assert.Equal(t, KindInfrastructure, ErrorKind(err))

	assert.True(t, stockQty(t, db, 7, "B1").Equal(decimal.NewFromInt(10)))
	assertNoSaleRows(t, db)
	assert.Empty(t, notifier.events)
}

// failingItemRepo fails every line item insert.
type failingItemRepo struct {
	repository.InvoiceRepository
}

func (r failingItemRepo) CreateItem(tx *gorm.DB, item *model.InvoiceItem) error {
	return errors.New("disk full")
}

func TestSaveSaleLineItemFailureUndoesEverything(t *testing.T) {
	db := newTestDB(t)
	seedStock(t, db, 7, "B1", 10)
	svc, notifier := newSaleService(t, db, failingItemRepo{repository.NewInvoiceRepo(db)}, nil)

	_, err := svc.SaveSale(context.Background(), happySale(501, "RCT-501"))
	assert.ErrorIs(t, err, ErrLineItemWriteFailed)
	assert.Equal(t, KindInfrastructure, ErrorKind(err))

	assert.True(t, stockQty(t, db, 7, "B1").Equal(decimal.NewFromInt(10)))
	assertNoSaleRows(t, db)
	assert.Empty(t, notifier.events)
}

// unguardedInvoiceRepo never sees an existing invoice, as when a concurrent
// sale commits between the existence checks and the header insert.
type unguardedInvoiceRepo struct {
	repository.InvoiceRepository
}

func (r unguardedInvoiceRepo) ExistsByID(tx *gorm.DB, id int) (bool, error) {
	return false, nil
}

func (r unguardedInvoiceRepo) ExistsByNo(tx *gorm.DB, invoiceNo string) (bool, error) {
	return false, nil
}

func TestSaveSaleUniqueIndexRejectionIsConflict(t *testing.T) {
	cases := []struct {
		name   string
		second *SaveSaleRequest
		want   error
	}{
		{"number taken", happySale(502, "RCT-501"), ErrDuplicateInvoiceNo},
		{"id taken", happySale(501, "RCT-502"), ErrDuplicateInvoiceID},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			db := newTestDB(t)
			seedStock(t, db, 7, "B1", 10)
			svc, notifier := newSaleService(t, db, unguardedInvoiceRepo{repository.NewInvoiceRepo(db)}, nil)

			_, err := svc.SaveSale(context.Background(), happySale(501, "RCT-501"))
			require.NoError(t, err)

			_, err = svc.SaveSale(context.Background(), tc.second)
			assert.ErrorIs(t, err, tc.want)
			assert.NotErrorIs(t, err, ErrHeaderWriteFailed)
			assert.Equal(t, KindConflict, ErrorKind(err))

			assert.True(t, stockQty(t, db, 7, "B1").Equal(decimal.NewFromInt(8)))
			assert.EqualValues(t, 1, countRows(t, db, &model.Invoice{}))
			assert.EqualValues(t, 1, countRows(t, db, &model.InvoiceItem{}))
			assert.EqualValues(t, 1, countRows(t, db, &model.InvoicePayment{}))
			assert.Len(t, notifier.events, 2)
		})
	}
}

func TestSaveSaleSecondLineShortfallUndoesFirstDeduction(t *testing.T) {
	db := newTestDB(t)
	seedStock(t, db, 7, "B1", 10)
	seedStock(t, db, 8, "C1", 1)
	svc, _ := newSaleService(t, db, nil, nil)

	req := happySale(501, "RCT-501")
	req.Products = append(req.Products, SaleLineItem{
		ProductID: 8, Barcode: "C1", Quantity: decimal.NewFromInt(3), TotalAmount: decimal.NewFromInt(30),
	})

	_, err := svc.SaveSale(context.Background(), req)
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.True(t, stockQty(t, db, 7, "B1").Equal(decimal.NewFromInt(10)))
	assert.True(t, stockQty(t, db, 8, "C1").Equal(decimal.NewFromInt(1)))
	assertNoSaleRows(t, db)
}

func TestSaveSalePreconditions(t *testing.T) {
	db := newTestDB(t)
	svc, _ := newSaleService(t, db, nil, nil)

	cases := []struct {
		name   string
		mutate func(*SaveSaleRequest)
		want   error
	}{
		{"zero id", func(r *SaveSaleRequest) { r.InvID = 0 }, ErrInvalidInvoiceID},
		{"negative id", func(r *SaveSaleRequest) { r.InvID = -4 }, ErrInvalidInvoiceID},
		{"id checked before cart", func(r *SaveSaleRequest) { r.InvID = 0; r.Products = nil }, ErrInvalidInvoiceID},
		{"empty cart", func(r *SaveSaleRequest) { r.Products = nil }, ErrEmptyCart},
		{"cart checked before number", func(r *SaveSaleRequest) { r.Products = nil; r.InvoiceNo = "" }, ErrEmptyCart},
		{"blank number", func(r *SaveSaleRequest) { r.InvoiceNo = "  " }, ErrInvalidInvoiceNumber},
		{"wrong prefix", func(r *SaveSaleRequest) { r.InvoiceNo = "INV-501" }, ErrInvalidInvoiceNumber},
		{"zero quantity", func(r *SaveSaleRequest) { r.Products[0].Quantity = decimal.Zero }, ErrInvalidLineItem},
		{"missing product", func(r *SaveSaleRequest) { r.Products[0].ProductID = 0 }, ErrInvalidLineItem},
		{"negative payment", func(r *SaveSaleRequest) { r.Payments[0].Amount = decimal.NewFromInt(-1) }, ErrInvalidLineItem},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := happySale(501, "RCT-501")
			tc.mutate(req)
			_, err := svc.SaveSale(context.Background(), req)
			assert.ErrorIs(t, err, tc.want)
			assert.Equal(t, KindValidation, ErrorKind(err))
		})
	}
	assertNoSaleRows(t, db)
}

func TestSaveSaleOrderModeWithoutPayments(t *testing.T) {
	db := newTestDB(t)
	seedStock(t, db, 7, "B1", 10)
	svc, _ := newSaleService(t, db, nil, nil)

	req := happySale(501, "RCT-501")
	req.Payments = nil

	result, err := svc.SaveSale(context.Background(), req)
	require.NoError(t, err)
	assert.Zero(t, result.PaymentsCount)
	assert.Zero(t, countRows(t, db, &model.InvoicePayment{}))
	assert.True(t, stockQty(t, db, 7, "B1").Equal(decimal.NewFromInt(8)))
}

func TestSaveSaleDefaultsBlankPaymentModeAndBadDate(t *testing.T) {
	db := newTestDB(t)
	seedStock(t, db, 7, "B1", 10)
	svc, _ := newSaleService(t, db, nil, nil)

	req := happySale(501, "RCT-501")
	req.InvoiceDate = "yesterday-ish"
	req.Payments = []SalePayment{{PaymentMode: "   ", Amount: decimal.NewFromInt(100)}}

	_, err := svc.SaveSale(context.Background(), req)
	require.NoError(t, err)

	var payment model.InvoicePayment
	require.NoError(t, db.First(&payment).Error)
	assert.Equal(t, "Cash", payment.PaymentMode)

	var inv model.Invoice
	require.NoError(t, db.First(&inv, 501).Error)
	assert.True(t, inv.InvoiceDate.Equal(time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)))
}

func TestSaveSaleBatchDatesAreBestEffort(t *testing.T) {
	db := newTestDB(t)
	seedStock(t, db, 7, "B1", 10)
	seedStock(t, db, 8, "C1", 10)
	svc, _ := newSaleService(t, db, nil, nil)

	req := happySale(501, "RCT-501")
	req.Products[0].MfgDate = ""
	req.Products[0].ExpiryDate = "2026-12-31"
	req.Products = append(req.Products, SaleLineItem{
		ProductID: 8, Barcode: "C1", Quantity: decimal.NewFromInt(1), TotalAmount: decimal.NewFromInt(10),
		MfgDate: "31/12/2025", ExpiryDate: "   ",
	})

	_, err := svc.SaveSale(context.Background(), req)
	require.NoError(t, err)

	var items []model.InvoiceItem
	require.NoError(t, db.Order("product_id").Find(&items).Error)
	require.Len(t, items, 2)

	assert.Nil(t, items[0].MfgDate)
	require.NotNil(t, items[0].ExpiryDate)
	assert.True(t, items[0].ExpiryDate.Equal(time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC)))
	assert.Nil(t, items[1].MfgDate)
	assert.Nil(t, items[1].ExpiryDate)
}

func TestSaveSaleStoresInvoiceDateInUTC(t *testing.T) {
	db := newTestDB(t)
	seedStock(t, db, 7, "B1", 10)
	svc, _ := newSaleService(t, db, nil, nil)

	req := happySale(501, "RCT-501")
	req.InvoiceDate = "2026-03-14T01:00:00+03:00"

	_, err := svc.SaveSale(context.Background(), req)
	require.NoError(t, err)

	var inv model.Invoice
	require.NoError(t, db.First(&inv, 501).Error)
	assert.True(t, inv.InvoiceDate.Equal(time.Date(2026, 3, 13, 22, 0, 0, 0, time.UTC)))

	reports := repository.NewReportRepo(db)
	ctx := context.Background()

	totals, err := reports.SalesTotals(ctx, time.Date(2026, 3, 13, 0, 0, 0, 0, time.UTC), time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.EqualValues(t, 1, totals.InvoiceCount)
	assert.True(t, totals.TotalSales.Equal(decimal.NewFromInt(100)))

	totals, err = reports.SalesTotals(ctx, time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC), time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Zero(t, totals.InvoiceCount)
}

func TestStockAverageProfitCountsUnpricedLinesAtZeroCost(t *testing.T) {
	db := newTestDB(t)
	seedStock(t, db, 7, "B1", 10)
	require.NoError(t, db.Create(&model.StockEntry{ProductID: 8, Barcode: "C1", Qty: decimal.NewFromInt(5)}).Error)
	svc, _ := newSaleService(t, db, nil, nil)

	req := happySale(501, "RCT-501")
	req.Products = append(req.Products, SaleLineItem{
		ProductID: 8, Barcode: "C1", Quantity: decimal.NewFromInt(1), TotalAmount: decimal.NewFromInt(40),
	})
	req.GrandTotal = decimal.NewFromInt(140)
	req.Payments[0].Amount = decimal.NewFromInt(140)

	_, err := svc.SaveSale(context.Background(), req)
	require.NoError(t, err)

	profit, err := repository.NewReportRepo(db).ProfitByStockAverageCost(context.Background(),
		time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC), time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.True(t, profit.Valid)
	// 100 - 2*30 for the priced batch, plus the full 40 for the unpriced one.
	assert.True(t, profit.Decimal.Equal(decimal.NewFromInt(80)), profit.Decimal.String())
}

func TestSaveSaleReconciliationMismatchOnlyWarns(t *testing.T) {
	db := newTestDB(t)
	seedStock(t, db, 7, "B1", 10)
	core, logs := observer.New(zapcore.WarnLevel)
	svc, _ := newSaleService(t, db, nil, zap.New(core))

	req := happySale(501, "RCT-501")
	req.Payments[0].Amount = decimal.NewFromInt(60)

	_, err := svc.SaveSale(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 1, logs.FilterMessage("payment total does not match invoice total").Len())
}

func TestMaxIDAndNextNumberAreIdempotent(t *testing.T) {
	db := newTestDB(t)
	seedStock(t, db, 7, "B1", 10)
	svc, _ := newSaleService(t, db, nil, nil)
	ctx := context.Background()

	maxID, err := svc.MaxInvoiceID(ctx)
	require.NoError(t, err)
	assert.Zero(t, maxID)

	next, err := svc.NextInvoiceNumber(ctx)
	require.NoError(t, err)
	assert.Equal(t, &NextInvoice{InvoiceID: 1, InvoiceNo: "RCT-1"}, next)

	_, err = svc.SaveSale(ctx, happySale(501, "RCT-501"))
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		maxID, err = svc.MaxInvoiceID(ctx)
		require.NoError(t, err)
		assert.Equal(t, 501, maxID)

		next, err = svc.NextInvoiceNumber(ctx)
		require.NoError(t, err)
		assert.Equal(t, &NextInvoice{InvoiceID: 502, InvoiceNo: "RCT-502"}, next)
	}
}

func TestParseDate(t *testing.T) {
	for _, raw := range []string{
		"2026-03-14T09:15:00Z",
		"2026-03-14T09:15:00.123+03:00",
		"2026-03-14T09:15:00",
		"2026-03-14 09:15:00",
		"2026-03-14",
	} {
		_, ok := ParseDate(raw, time.UTC)
		assert.True(t, ok, raw)
	}
	_, ok := ParseDate("14/03/2026", time.UTC)
	assert.False(t, ok)
}
