package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hims/backend/internal/domain/shared"
	"github.com/hims/backend/internal/domain/shared/valueobject"
)

// Payment represents money received against an invoice.
// Payments are immutable once created; the only allowed mutation is
// full deletion, which callers must audit separately.
type Payment struct {
	ID          uuid.UUID
	InvoiceID   uuid.UUID
	Amount      decimal.Decimal
	Mode        valueobject.PaymentMode
	ReferenceNo string
	CreatedAt   time.Time
}

// NewPayment creates a new payment record
func NewPayment(invoiceID uuid.UUID, amount valueobject.Money, mode valueobject.PaymentMode, referenceNo string) (*Payment, error) {
	if !amount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be positive")
	}
	if !mode.IsValid() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Payment mode is not valid")
	}

	return &Payment{
		ID:          uuid.New(),
		InvoiceID:   invoiceID,
		Amount:      amount.Amount(),
		Mode:        mode,
		ReferenceNo: referenceNo,
		CreatedAt:   time.Now(),
	}, nil
}

// GetAmountMoney returns the amount as Money value object
func (p *Payment) GetAmountMoney() valueobject.Money {
	return valueobject.NewMoneyINR(p.Amount)
}

// TableName returns the table name for GORM
func (Payment) TableName() string {
	return "invoice_payments"
}
