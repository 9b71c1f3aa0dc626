package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a catalog entry. Stock is tracked per batch in StockEntry.
type Product struct {
	ID           int             `gorm:"primaryKey" json:"productId"`
	ProductCode  string          `gorm:"type:varchar(50);uniqueIndex;not null" json:"productCode" validate:"required"`
	ProductName  string          `gorm:"type:varchar(255);not null" json:"productName" validate:"required"`
	Barcode      string          `gorm:"type:varchar(100);index" json:"barcode"`
	Category     string          `gorm:"type:varchar(100);index" json:"category"`
	PurchaseUnit string          `gorm:"type:varchar(20)" json:"purchaseUnit"`
	SalesUnit    string          `gorm:"type:varchar(20)" json:"salesUnit"`
	PurchaseCost decimal.Decimal `gorm:"type:decimal(18,4);default:0" json:"purchaseCost" validate:"decimal_gte0"`
	SalesCost    decimal.Decimal `gorm:"type:decimal(18,4);default:0" json:"salesCost" validate:"decimal_gte0"`
	MarginPer    decimal.Decimal `gorm:"type:decimal(9,4);default:0" json:"marginPer"`
	ReorderPoint int             `gorm:"default:0" json:"reorderPoint" validate:"gte=0"`
	AddedDate    time.Time       `json:"addedDate"`
	CreatedBy    string          `gorm:"type:varchar(100)" json:"createdBy,omitempty"`
	UpdatedBy    string          `gorm:"type:varchar(100)" json:"updatedBy,omitempty"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

func (Product) TableName() string {
	return "products"
}

// ProductWithStock is a catalog row joined with its summed batch quantity.
type ProductWithStock struct {
	Product
	AvailableQty decimal.Decimal `gorm:"column:available_qty" json:"availableQty"`
}

// StockEntry is the available quantity of one product batch.
type StockEntry struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	ProductID    int             `gorm:"not null;uniqueIndex:idx_stock_product_batch" json:"productId"`
	Barcode      string          `gorm:"type:varchar(100);not null;default:'';uniqueIndex:idx_stock_product_batch" json:"barcode"`
	Qty          decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"qty"`
	PurchaseRate decimal.Decimal `gorm:"type:decimal(18,4);default:0" json:"purchaseRate"`
	SalesRate    decimal.Decimal `gorm:"type:decimal(18,4);default:0" json:"salesRate"`
	ExpiryDate   *time.Time      `json:"expiryDate,omitempty"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

func (StockEntry) TableName() string {
	return "stock_entries"
}
