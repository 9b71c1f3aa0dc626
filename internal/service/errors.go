package service

import (
	"errors"

	"go-pos-api/pkg/jwt"
)

// Validation errors: rejected before any transaction opens.
var (
	ErrInvalidRequest       = errors.New("invalid request")
	ErrInvalidInvoiceID     = errors.New("invalid invoice id")
	ErrEmptyCart            = errors.New("no products in sale")
	ErrInvalidInvoiceNumber = errors.New("invalid invoice number")
	ErrInvalidLineItem      = errors.New("invalid line item")
)

// Business conflicts: detected inside the sale transaction.
var (
	ErrDuplicateInvoiceID = errors.New("invoice id already exists")
	ErrDuplicateInvoiceNo = errors.New("invoice number already exists")
	ErrStockRecordMissing = errors.New("product not found in stock")
	ErrInsufficientStock  = errors.New("insufficient stock")
)

// Infrastructure failures.
var (
	ErrUpdateFailed        = errors.New("stock update affected no rows")
	ErrHeaderWriteFailed   = errors.New("failed to write invoice header")
	ErrLineItemWriteFailed = errors.New("failed to write invoice line item")
	ErrPaymentWriteFailed  = errors.New("failed to write invoice payment")
)

// Lookups
var (
	ErrNotFound       = errors.New("not found")
	ErrDuplicateEntry = errors.New("already exists")
)

type Kind int

const (
	KindInfrastructure Kind = iota
	KindValidation
	KindConflict
	KindNotFound
	KindUnauthorized
)

// ErrorKind classifies err for transport mapping. Unknown errors count as
// infrastructure.
func ErrorKind(err error) Kind {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, ErrInvalidInvoiceID),
		errors.Is(err, ErrEmptyCart),
		errors.Is(err, ErrInvalidInvoiceNumber),
		errors.Is(err, ErrInvalidLineItem),
		errors.Is(err, ErrWeakPassword),
		errors.Is(err, ErrWrongPassword):
		return KindValidation
	case errors.Is(err, ErrDuplicateInvoiceID),
		errors.Is(err, ErrDuplicateInvoiceNo),
		errors.Is(err, ErrStockRecordMissing),
		errors.Is(err, ErrInsufficientStock),
		errors.Is(err, ErrDuplicateEntry):
		return KindConflict
	case errors.Is(err, ErrNotFound),
		errors.Is(err, ErrUserNotFound):
		return KindNotFound
	case errors.Is(err, ErrInvalidCredentials),
		errors.Is(err, ErrUserInactive),
		errors.Is(err, ErrSessionReplaced),
		errors.Is(err, jwt.ErrInvalidToken),
		errors.Is(err, jwt.ErrMissingToken):
		return KindUnauthorized
	}
	return KindInfrastructure
}
