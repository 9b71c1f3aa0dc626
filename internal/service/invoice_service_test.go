package service

import (
	"context"
	"testing"
	"time"

	"go-pos-api/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedInvoices(t *testing.T) InvoiceService {
	t.Helper()
	db := newTestDB(t)
	seedStock(t, db, 7, "B1", 100)
	sales, _ := newSaleService(t, db, nil, nil)
	ctx := context.Background()

	paid := happySale(501, "RCT-501")
	paid.Payments = []SalePayment{
		{PaymentMode: "Cash", Amount: dec(60)},
		{PaymentMode: "M-Pesa", Amount: dec(40)},
	}
	_, err := sales.SaveSale(ctx, paid)
	require.NoError(t, err)

	partial := happySale(502, "RCT-502")
	partial.CustomerName = "Acme Stores"
	partial.Payments = []SalePayment{{PaymentMode: "Credit", Amount: dec(30)}}
	_, err = sales.SaveSale(ctx, partial)
	require.NoError(t, err)

	unpaid := happySale(503, "RCT-503")
	unpaid.Payments = nil
	_, err = sales.SaveSale(ctx, unpaid)
	require.NoError(t, err)

	svc := NewInvoiceService(repository.NewInvoiceRepo(db), nil)
	svc.(*invoiceService).now = func() time.Time { return time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC) }
	return svc
}

func TestInvoiceToday(t *testing.T) {
	svc := seedInvoices(t)

	invoices, err := svc.Today(context.Background())
	require.NoError(t, err)
	require.Len(t, invoices, 3)

	byNo := map[string]InvoiceWithPayments{}
	for _, inv := range invoices {
		byNo[inv.InvoiceNo] = inv
	}
	assert.True(t, byNo["RCT-501"].CashAmount.Equal(dec(60)))
	assert.True(t, byNo["RCT-501"].MpesaAmount.Equal(dec(40)))
	assert.True(t, byNo["RCT-502"].CreditAmount.Equal(dec(30)))
	assert.True(t, byNo["RCT-503"].PaidAmount.IsZero())
}

func TestInvoiceUnpaid(t *testing.T) {
	svc := seedInvoices(t)

	rows, err := svc.Unpaid(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)

	status := map[string]UnpaidInvoice{}
	for _, r := range rows {
		status[r.InvoiceNo] = r
	}
	assert.Equal(t, "Partially Paid", status["RCT-502"].PaymentStatus)
	assert.True(t, status["RCT-502"].Outstanding.Equal(dec(70)))
	assert.Equal(t, "Not Paid", status["RCT-503"].PaymentStatus)
	assert.True(t, status["RCT-503"].Outstanding.Equal(dec(100)))
}

func TestInvoiceGetAndSearch(t *testing.T) {
	svc := seedInvoices(t)
	ctx := context.Background()

	inv, err := svc.Get(ctx, 501)
	require.NoError(t, err)
	assert.Len(t, inv.Items, 1)
	assert.Len(t, inv.Payments, 2)

	_, err = svc.Get(ctx, 9999)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, KindNotFound, ErrorKind(err))

	found, err := svc.Search(ctx, "acme")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "RCT-502", found[0].InvoiceNo)

	_, err = svc.Search(ctx, "")
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestInvoiceRecentAndDailyStats(t *testing.T) {
	svc := seedInvoices(t)
	ctx := context.Background()

	recent, err := svc.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, 503, recent[0].ID)

	stats, err := svc.DailyStats(ctx, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, "2026-03-14", stats.Date)
	assert.EqualValues(t, 3, stats.InvoiceCount)
	assert.True(t, stats.TotalSales.Equal(dec(300)))
	assert.True(t, stats.AverageSale.Equal(dec(100)))
	assert.True(t, stats.MaxSale.Equal(decimal.NewFromInt(100)))
}

func TestPaymentStatus(t *testing.T) {
	assert.Equal(t, "Paid", PaymentStatus(dec(100), dec(0)))
	assert.Equal(t, "Not Paid", PaymentStatus(dec(0), dec(100)))
	assert.Equal(t, "Partially Paid", PaymentStatus(dec(40), dec(60)))
}
