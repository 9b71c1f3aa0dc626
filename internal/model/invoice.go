package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	InvoicePrefix       = "RCT-"
	DefaultCurrencyCode = "KES"
	DefaultTaxType      = "Inclusive"
)

// Invoice is a committed sale header. ID and InvoiceNo are allocated by the
// caller and never change after insert.
type Invoice struct {
	ID             int              `gorm:"primaryKey;autoIncrement:false" json:"invoiceId"`
	InvoiceNo      string           `gorm:"type:varchar(50);uniqueIndex;not null" json:"invoiceNo"`
	Sequence       int              `gorm:"index" json:"-"`
	InvoiceDate    time.Time        `gorm:"index;not null" json:"invoiceDate"`
	UserID         string           `gorm:"type:varchar(100)" json:"userId"`
	CustomerName   string           `gorm:"type:varchar(255)" json:"customerName"`
	SalesmanName   string           `gorm:"type:varchar(255)" json:"salesmanName"`
	GrandTotal     decimal.Decimal  `gorm:"type:decimal(18,4);not null;default:0" json:"grandTotal"`
	TotalDiscount  decimal.Decimal  `gorm:"type:decimal(18,4);not null;default:0" json:"totalDiscount"`
	AmountTendered decimal.Decimal  `gorm:"type:decimal(18,4);default:0" json:"amountTendered"`
	ChangeAmount   decimal.Decimal  `gorm:"type:decimal(18,4);default:0" json:"changeAmount"`
	CurrencyCode   string           `gorm:"type:varchar(10)" json:"currencyCode"`
	TaxType        string           `gorm:"type:varchar(20)" json:"taxType"`
	CreatedAt      time.Time        `json:"createdAt"`
	Items          []InvoiceItem    `gorm:"foreignKey:InvoiceID" json:"products,omitempty"`
	Payments       []InvoicePayment `gorm:"foreignKey:InvoiceID" json:"payments,omitempty"`
}

// InvoiceItem is one sold product line.
type InvoiceItem struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	InvoiceID    int             `gorm:"index;not null" json:"invoiceId"`
	ProductID    int             `gorm:"index;not null" json:"productId"`
	ProductCode  string          `gorm:"type:varchar(50)" json:"productCode"`
	Barcode      string          `gorm:"type:varchar(100)" json:"barcode"`
	Qty          decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"quantity"`
	SalesRate    decimal.Decimal `gorm:"type:decimal(18,4);default:0" json:"salesRate"`
	PurchaseRate decimal.Decimal `gorm:"type:decimal(18,4);default:0" json:"purchaseRate"`
	DiscountPer  decimal.Decimal `gorm:"type:decimal(9,4);default:0" json:"discountPer"`
	Discount     decimal.Decimal `gorm:"type:decimal(18,4);default:0" json:"discount"`
	VATPer       decimal.Decimal `gorm:"column:vat_per;type:decimal(9,4);default:0" json:"vatPer"`
	VAT          decimal.Decimal `gorm:"column:vat;type:decimal(18,4);default:0" json:"vat"`
	TotalAmount  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"totalAmount"`
	Margin       decimal.Decimal `gorm:"type:decimal(18,4);default:0" json:"margin"`
	MfgDate      *time.Time      `json:"mfgDate,omitempty"`
	ExpiryDate   *time.Time      `json:"expiryDate,omitempty"`
}

// InvoicePayment is one tender applied to an invoice.
type InvoicePayment struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	InvoiceID   int             `gorm:"index;not null" json:"invoiceId"`
	PaymentMode string          `gorm:"type:varchar(50);not null" json:"paymentMode"`
	Amount      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"amount"`
	PaymentDate time.Time       `json:"paymentDate"`
}

// SalesReturn is written by the returns workflow and only read here.
type SalesReturn struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	ReturnNo   string          `gorm:"type:varchar(50);index" json:"returnNo"`
	InvoiceID  int             `gorm:"index" json:"invoiceId"`
	Date       time.Time       `gorm:"index" json:"date"`
	GrandTotal decimal.Decimal `gorm:"type:decimal(18,4);default:0" json:"grandTotal"`
}

// Purchase is a supplier invoice header, listed read-only.
type Purchase struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	InvoiceNo    string          `gorm:"type:varchar(50);index" json:"invoiceNo"`
	Date         time.Time       `gorm:"index" json:"date"`
	SupplierName string          `gorm:"type:varchar(255)" json:"supplierName"`
	SubTotal     decimal.Decimal `gorm:"type:decimal(18,4);default:0" json:"subTotal"`
	Discount     decimal.Decimal `gorm:"type:decimal(18,4);default:0" json:"discount"`
	GrandTotal   decimal.Decimal `gorm:"type:decimal(18,4);default:0" json:"grandTotal"`
	TotalPayment decimal.Decimal `gorm:"type:decimal(18,4);default:0" json:"totalPayment"`
	PaymentDue   decimal.Decimal `gorm:"type:decimal(18,4);default:0" json:"paymentDue"`
	Remarks      string          `gorm:"type:text" json:"remarks"`
}
