package service

import (
	"context"
	"strings"
	"testing"

	"go-pos-api/internal/model"
	"go-pos-api/pkg/database"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.OpenSQLite("file:"+name+"?mode=memory&cache=shared", nil)
	require.NoError(t, err)

	require.NoError(t, database.Migrate(db))

	t.Cleanup(func() {
		sqlDB, err := db.DB()
		if err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func seedStock(t *testing.T, db *gorm.DB, productID int, batch string, qty int64) {
	t.Helper()
	require.NoError(t, db.Create(&model.StockEntry{
		ProductID:    productID,
		Barcode:      batch,
		Qty:          decimal.NewFromInt(qty),
		PurchaseRate: decimal.NewFromInt(30),
	}).Error)
}

func stockQty(t *testing.T, db *gorm.DB, productID int, batch string) decimal.Decimal {
	t.Helper()
	var entry model.StockEntry
	require.NoError(t, db.Where("product_id = ? AND barcode = ?", productID, batch).First(&entry).Error)
	return entry.Qty
}

func countRows(t *testing.T, db *gorm.DB, m interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.WithContext(context.Background()).Model(m).Count(&n).Error)
	return n
}
