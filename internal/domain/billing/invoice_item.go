package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hims/backend/internal/domain/shared"
	"github.com/hims/backend/internal/domain/shared/valueobject"
)

// ItemCharges holds the derived monetary fields of a line item
type ItemCharges struct {
	TaxAmount decimal.Decimal
	LineTotal decimal.Decimal
}

// ComputeItemCharges derives the tax amount and line total for a line item.
// Pure and deterministic: tax = round2(quantity * unitPrice * taxRate / 100)
// half-up, lineTotal = quantity * unitPrice + tax.
func ComputeItemCharges(quantity int64, unitPrice valueobject.Money, taxRate decimal.Decimal) (ItemCharges, error) {
	if quantity <= 0 {
		return ItemCharges{}, shared.NewDomainError("INVALID_ITEM_INPUT", "Quantity must be positive")
	}
	if unitPrice.IsNegative() {
		return ItemCharges{}, shared.NewDomainError("INVALID_ITEM_INPUT", "Unit price cannot be negative")
	}
	if taxRate.IsNegative() {
		return ItemCharges{}, shared.NewDomainError("INVALID_ITEM_INPUT", "Tax rate cannot be negative")
	}

	base := unitPrice.MultiplyByInt(quantity)
	tax := base.TaxPortion(taxRate)
	return ItemCharges{
		TaxAmount: tax.Amount(),
		LineTotal: base.Amount().Add(tax.Amount()),
	}, nil
}

// ServiceRef identifies the external clinical record a service item bills.
// A given ref may be attached to at most one non-voided item system-wide.
type ServiceRef struct {
	ServiceType  string
	ServiceRefID uuid.UUID
}

// IsZero returns true when the item carries no service reference
func (r ServiceRef) IsZero() bool {
	return r.ServiceType == "" && r.ServiceRefID == uuid.Nil
}

// InvoiceItem represents a billable line within an invoice.
// Voided items stay on the invoice for the audit trail but are
// excluded from every aggregate sum.
type InvoiceItem struct {
	ID           uuid.UUID
	InvoiceID    uuid.UUID
	Description  string
	Quantity     int64
	UnitPrice    decimal.Decimal
	TaxRate      decimal.Decimal
	TaxAmount    decimal.Decimal
	LineTotal    decimal.Decimal
	IsVoided     bool
	VoidReason   string
	ServiceType  string
	ServiceRefID *uuid.UUID
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewInvoiceItem creates a new line item with derived charges computed
func NewInvoiceItem(invoiceID uuid.UUID, description string, quantity int64, unitPrice valueobject.Money, taxRate decimal.Decimal) (*InvoiceItem, error) {
	if description == "" {
		return nil, shared.NewDomainError("INVALID_ITEM_INPUT", "Description cannot be empty")
	}

	charges, err := ComputeItemCharges(quantity, unitPrice, taxRate)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	return &InvoiceItem{
		ID:          uuid.New(),
		InvoiceID:   invoiceID,
		Description: description,
		Quantity:    quantity,
		UnitPrice:   unitPrice.Amount(),
		TaxRate:     taxRate,
		TaxAmount:   charges.TaxAmount,
		LineTotal:   charges.LineTotal,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// NewServiceInvoiceItem creates a line item sourced from an external clinical service
func NewServiceInvoiceItem(invoiceID uuid.UUID, ref ServiceRef, description string, quantity int64, unitPrice valueobject.Money, taxRate decimal.Decimal) (*InvoiceItem, error) {
	if ref.ServiceType == "" || ref.ServiceRefID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ITEM_INPUT", "Service reference is incomplete")
	}

	item, err := NewInvoiceItem(invoiceID, description, quantity, unitPrice, taxRate)
	if err != nil {
		return nil, err
	}

	refID := ref.ServiceRefID
	item.ServiceType = ref.ServiceType
	item.ServiceRefID = &refID
	return item, nil
}

// ItemChanges carries the optional fields of an item update
type ItemChanges struct {
	Quantity  *int64
	UnitPrice *decimal.Decimal
	TaxRate   *decimal.Decimal
}

// Apply applies the changes and recomputes the derived charges
func (i *InvoiceItem) Apply(changes ItemChanges) error {
	quantity := i.Quantity
	unitPrice := i.UnitPrice
	taxRate := i.TaxRate

	if changes.Quantity != nil {
		quantity = *changes.Quantity
	}
	if changes.UnitPrice != nil {
		unitPrice = *changes.UnitPrice
	}
	if changes.TaxRate != nil {
		taxRate = *changes.TaxRate
	}

	charges, err := ComputeItemCharges(quantity, valueobject.NewMoneyINR(unitPrice), taxRate)
	if err != nil {
		return err
	}

	i.Quantity = quantity
	i.UnitPrice = unitPrice
	i.TaxRate = taxRate
	i.TaxAmount = charges.TaxAmount
	i.LineTotal = charges.LineTotal
	i.UpdatedAt = time.Now()

	return nil
}

// Void marks the item as voided, freeing its service reference for re-billing
func (i *InvoiceItem) Void(reason string) error {
	if i.IsVoided {
		return shared.NewDomainError("ALREADY_VOIDED", "Item has already been voided")
	}
	if reason == "" {
		return shared.NewDomainError("INVALID_ITEM_INPUT", "Void reason is required")
	}

	i.IsVoided = true
	i.VoidReason = reason
	i.UpdatedAt = time.Now()

	return nil
}

// GetServiceRef returns the item's service reference, zero when the item is manual
func (i *InvoiceItem) GetServiceRef() ServiceRef {
	if i.ServiceType == "" || i.ServiceRefID == nil {
		return ServiceRef{}
	}
	return ServiceRef{ServiceType: i.ServiceType, ServiceRefID: *i.ServiceRefID}
}

// GetUnitPriceMoney returns the unit price as Money value object
func (i *InvoiceItem) GetUnitPriceMoney() valueobject.Money {
	return valueobject.NewMoneyINR(i.UnitPrice)
}

// GetLineTotalMoney returns the line total as Money value object
func (i *InvoiceItem) GetLineTotalMoney() valueobject.Money {
	return valueobject.NewMoneyINR(i.LineTotal)
}
