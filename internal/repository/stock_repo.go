package repository

import (
	"strings"

	"go-pos-api/internal/model"
	"go-pos-api/pkg/database"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StockRepository reads and decrements batch quantities. Methods taking a
// *gorm.DB must be called with the open sale transaction.
type StockRepository interface {
	Find(tx *gorm.DB, productID int, batch string) (*model.StockEntry, error)
	FindForUpdate(tx *gorm.DB, productID int, batch string) (*model.StockEntry, error)
	DecrementQty(tx *gorm.DB, productID int, batch string, qty decimal.Decimal) (int64, error)
}

type stockRepo struct {
	db *gorm.DB
}

func NewStockRepo(db *gorm.DB) StockRepository {
	return &stockRepo{db}
}

func (r *stockRepo) Find(tx *gorm.DB, productID int, batch string) (*model.StockEntry, error) {
	var entry model.StockEntry
	err := tx.Where("product_id = ? AND barcode = ?", productID, strings.TrimSpace(batch)).
		First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// FindForUpdate takes a row lock so concurrent sales on the same batch
// serialize. SQLite only has a database-wide write lock, so the clause is
// skipped there.
func (r *stockRepo) FindForUpdate(tx *gorm.DB, productID int, batch string) (*model.StockEntry, error) {
	q := tx
	if !database.IsSQLite(tx) {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return r.Find(q, productID, batch)
}

// DecrementQty applies qty = qty - n guarded by qty >= n and returns the
// affected row count.
func (r *stockRepo) DecrementQty(tx *gorm.DB, productID int, batch string, qty decimal.Decimal) (int64, error) {
	result := tx.Model(&model.StockEntry{}).
		Where("product_id = ? AND barcode = ? AND qty >= ?", productID, strings.TrimSpace(batch), qty).
		Update("qty", gorm.Expr("qty - ?", qty))
	return result.RowsAffected, result.Error
}
