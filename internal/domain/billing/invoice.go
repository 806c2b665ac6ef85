package billing

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hims/backend/internal/domain/shared"
	"github.com/hims/backend/internal/domain/shared/valueobject"
)

// Invoice is the aggregate root of the patient billing ledger.
// It owns its line items and payments; every mutation recomputes the
// derived totals before returning, so the books can never drift from
// the records that back them.
//
// The derived fields (GrossTotal through BalanceDue) are projections
// over items, payments and the advance-adjusted figure. They are never
// independently mutable.
type Invoice struct {
	shared.BaseAggregateRoot
	InvoiceNumber   string
	PatientID       uuid.UUID
	BillingType     BillingType
	ContextType     string
	ContextID       *uuid.UUID
	ConsultantID    *uuid.UUID
	ProviderID      *uuid.UUID
	Remarks         string
	Status          InvoiceStatus
	Items           []InvoiceItem
	Payments        []Payment
	GrossTotal      decimal.Decimal
	TaxTotal        decimal.Decimal
	NetTotal        decimal.Decimal
	AmountPaid      decimal.Decimal
	AdvanceAdjusted decimal.Decimal
	BalanceDue      decimal.Decimal
	FinalizedAt     *time.Time
	CancelledAt     *time.Time
	CancelReason    string
}

// NewInvoice creates a new invoice in draft status with an empty item
// and payment set
func NewInvoice(invoiceNumber string, patientID uuid.UUID, billingType BillingType, contextType string, contextID *uuid.UUID) (*Invoice, error) {
	if invoiceNumber == "" {
		return nil, shared.NewDomainError("INVALID_INVOICE_NUMBER", "Invoice number cannot be empty")
	}
	if len(invoiceNumber) > 50 {
		return nil, shared.NewDomainError("INVALID_INVOICE_NUMBER", "Invoice number cannot exceed 50 characters")
	}
	if patientID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PATIENT", "Patient ID cannot be empty")
	}
	if !billingType.IsValid() {
		return nil, shared.NewDomainError("INVALID_BILLING_TYPE", "Billing type is not valid")
	}

	inv := &Invoice{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		InvoiceNumber:     invoiceNumber,
		PatientID:         patientID,
		BillingType:       billingType,
		ContextType:       contextType,
		ContextID:         contextID,
		Status:            InvoiceStatusDraft,
		Items:             make([]InvoiceItem, 0),
		Payments:          make([]Payment, 0),
		GrossTotal:        decimal.Zero,
		TaxTotal:          decimal.Zero,
		NetTotal:          decimal.Zero,
		AmountPaid:        decimal.Zero,
		AdvanceAdjusted:   decimal.Zero,
		BalanceDue:        decimal.Zero,
	}

	inv.AddDomainEvent(NewInvoiceCreatedEvent(inv))

	return inv, nil
}

// AddManualItem adds a manually entered line item.
// Only allowed in draft status.
func (inv *Invoice) AddManualItem(description string, quantity int64, unitPrice valueobject.Money, taxRate decimal.Decimal) (*InvoiceItem, error) {
	if !inv.Status.AllowsItemMutation() {
		return nil, shared.NewDomainError("INVOICE_LOCKED", fmt.Sprintf("Cannot add items to an invoice in %s status", inv.Status))
	}

	item, err := NewInvoiceItem(inv.ID, description, quantity, unitPrice, taxRate)
	if err != nil {
		return nil, err
	}

	inv.Items = append(inv.Items, *item)
	inv.recalculateTotals()
	inv.Touch()

	return item, nil
}

// AddServiceItem adds a line item sourced from an external clinical service.
// The aggregate guards against duplicate refs within itself; the system-wide
// anti-double-billing check is the application service's responsibility and
// runs inside the same transaction.
func (inv *Invoice) AddServiceItem(ref ServiceRef, description string, quantity int64, unitPrice valueobject.Money, taxRate decimal.Decimal) (*InvoiceItem, error) {
	if !inv.Status.AllowsItemMutation() {
		return nil, shared.NewDomainError("INVOICE_LOCKED", fmt.Sprintf("Cannot add items to an invoice in %s status", inv.Status))
	}
	if inv.HasActiveServiceRef(ref) {
		return nil, shared.NewDomainError("SERVICE_ALREADY_BILLED", fmt.Sprintf("Service %s/%s is already billed on this invoice", ref.ServiceType, ref.ServiceRefID))
	}

	item, err := NewServiceInvoiceItem(inv.ID, ref, description, quantity, unitPrice, taxRate)
	if err != nil {
		return nil, err
	}

	inv.Items = append(inv.Items, *item)
	inv.recalculateTotals()
	inv.Touch()

	return item, nil
}

// UpdateItem updates a non-voided item and recomputes the invoice totals.
// Only allowed in draft status.
func (inv *Invoice) UpdateItem(itemID uuid.UUID, changes ItemChanges) error {
	if !inv.Status.AllowsItemMutation() {
		return shared.NewDomainError("INVOICE_LOCKED", fmt.Sprintf("Cannot update items on an invoice in %s status", inv.Status))
	}

	for idx := range inv.Items {
		if inv.Items[idx].ID == itemID {
			if inv.Items[idx].IsVoided {
				return shared.NewDomainError("ALREADY_VOIDED", "Cannot update a voided item")
			}
			if err := inv.Items[idx].Apply(changes); err != nil {
				return err
			}
			inv.recalculateTotals()
			inv.Touch()
			return nil
		}
	}

	return shared.NewDomainError("ITEM_NOT_FOUND", "Invoice item not found")
}

// VoidItem voids an item, excluding it from totals while keeping it on
// the invoice for the audit trail. Voiding an already-voided item fails.
func (inv *Invoice) VoidItem(itemID uuid.UUID, reason string) error {
	if !inv.Status.AllowsItemMutation() {
		return shared.NewDomainError("INVOICE_LOCKED", fmt.Sprintf("Cannot void items on an invoice in %s status", inv.Status))
	}

	for idx := range inv.Items {
		if inv.Items[idx].ID == itemID {
			if err := inv.Items[idx].Void(reason); err != nil {
				return err
			}
			inv.recalculateTotals()
			inv.Touch()
			inv.AddDomainEvent(NewInvoiceItemVoidedEvent(inv, &inv.Items[idx]))
			return nil
		}
	}

	return shared.NewDomainError("ITEM_NOT_FOUND", "Invoice item not found")
}

// HeaderChanges carries the optional fields of a header update
type HeaderChanges struct {
	BillingType  *BillingType
	ConsultantID *uuid.UUID
	ProviderID   *uuid.UUID
	Remarks      *string
}

// UpdateHeader updates the mutable header fields. Only allowed in draft status.
func (inv *Invoice) UpdateHeader(changes HeaderChanges) error {
	if !inv.Status.AllowsItemMutation() {
		return shared.NewDomainError("INVOICE_LOCKED", fmt.Sprintf("Cannot update the header of an invoice in %s status", inv.Status))
	}

	if changes.BillingType != nil {
		if !changes.BillingType.IsValid() {
			return shared.NewDomainError("INVALID_BILLING_TYPE", "Billing type is not valid")
		}
		inv.BillingType = *changes.BillingType
	}
	if changes.ConsultantID != nil {
		inv.ConsultantID = changes.ConsultantID
	}
	if changes.ProviderID != nil {
		inv.ProviderID = changes.ProviderID
	}
	if changes.Remarks != nil {
		inv.Remarks = *changes.Remarks
	}

	inv.Touch()

	return nil
}

// AddPayment records a payment against the invoice.
// Payments are a hard draft-only rule: once finalized the invoice is
// settled through the cashier's desk, not through this ledger surface.
func (inv *Invoice) AddPayment(amount valueobject.Money, mode valueobject.PaymentMode, referenceNo string) (*Payment, error) {
	if !inv.Status.AllowsItemMutation() {
		return nil, shared.NewDomainError("INVOICE_LOCKED", fmt.Sprintf("Cannot add payments to an invoice in %s status", inv.Status))
	}

	payment, err := NewPayment(inv.ID, amount, mode, referenceNo)
	if err != nil {
		return nil, err
	}

	inv.Payments = append(inv.Payments, *payment)
	inv.recalculateTotals()
	inv.Touch()
	inv.AddDomainEvent(NewInvoicePaymentAddedEvent(inv, payment))

	return payment, nil
}

// DeletePayment removes a payment record. The reversal itself is an
// audited event for the caller.
func (inv *Invoice) DeletePayment(paymentID uuid.UUID) error {
	if !inv.Status.AllowsItemMutation() {
		return shared.NewDomainError("INVOICE_LOCKED", fmt.Sprintf("Cannot delete payments from an invoice in %s status", inv.Status))
	}

	for idx := range inv.Payments {
		if inv.Payments[idx].ID == paymentID {
			deleted := inv.Payments[idx]
			inv.Payments = append(inv.Payments[:idx], inv.Payments[idx+1:]...)
			inv.recalculateTotals()
			inv.Touch()
			inv.AddDomainEvent(NewInvoicePaymentDeletedEvent(inv, &deleted))
			return nil
		}
	}

	return shared.NewDomainError("PAYMENT_NOT_FOUND", "Payment not found")
}

// Finalize locks the invoice's items and header against further mutation.
// Requires at least one non-voided item.
func (inv *Invoice) Finalize() error {
	if !inv.Status.CanTransitionTo(InvoiceStatusFinalized) {
		return shared.NewDomainError("INVOICE_LOCKED", fmt.Sprintf("Cannot finalize an invoice in %s status", inv.Status))
	}
	if inv.ActiveItemCount() == 0 {
		return shared.NewDomainError("EMPTY_INVOICE", "Cannot finalize an invoice without billable items")
	}

	now := time.Now()
	inv.Status = InvoiceStatusFinalized
	inv.FinalizedAt = &now
	inv.UpdatedAt = now
	inv.AddDomainEvent(NewInvoiceFinalizedEvent(inv))

	return nil
}

// Cancel transitions the invoice to cancelled. Reachable from draft or
// finalized. Reversing the invoice's outstanding advance adjustments is
// the application service's job and must commit in the same transaction.
func (inv *Invoice) Cancel(reason string) error {
	if !inv.Status.CanTransitionTo(InvoiceStatusCancelled) {
		return shared.NewDomainError("INVOICE_LOCKED", fmt.Sprintf("Cannot cancel an invoice in %s status", inv.Status))
	}
	if reason == "" {
		return shared.NewDomainError("INVALID_INPUT", "Cancel reason is required")
	}

	now := time.Now()
	inv.Status = InvoiceStatusCancelled
	inv.CancelledAt = &now
	inv.CancelReason = reason
	inv.UpdatedAt = now
	inv.releaseServiceRefs("invoice cancelled")
	inv.AddDomainEvent(NewInvoiceCancelledEvent(inv))

	return nil
}

// Reverse marks a finalized invoice as reversed. This is the
// administrative correction path for invoices that were finalized in
// error; like Cancel it expects the application service to unwind any
// advance adjustments in the same transaction.
func (inv *Invoice) Reverse(reason string) error {
	if !inv.Status.CanTransitionTo(InvoiceStatusReversed) {
		return shared.NewDomainError("INVOICE_LOCKED", fmt.Sprintf("Cannot reverse an invoice in %s status", inv.Status))
	}
	if reason == "" {
		return shared.NewDomainError("INVALID_INPUT", "Reversal reason is required")
	}

	now := time.Now()
	inv.Status = InvoiceStatusReversed
	inv.CancelReason = reason
	inv.UpdatedAt = now
	inv.releaseServiceRefs("invoice reversed")
	inv.AddDomainEvent(NewInvoiceReversedEvent(inv))

	return nil
}

// releaseServiceRefs voids the remaining items when the invoice leaves
// the ledger, freeing their service references for re-billing on a new
// invoice. Totals are not recomputed: they stay frozen at the terminal
// transition as the historical record of what was billed.
func (inv *Invoice) releaseServiceRefs(reason string) {
	now := time.Now()
	for idx := range inv.Items {
		if inv.Items[idx].IsVoided {
			continue
		}
		inv.Items[idx].IsVoided = true
		inv.Items[idx].VoidReason = reason
		inv.Items[idx].UpdatedAt = now
	}
}

// ApplyAdvanceAdjustment increases the advance-adjusted figure after an
// adjustment has been recorded against a deposit
func (inv *Invoice) ApplyAdvanceAdjustment(amount valueobject.Money) error {
	if !inv.Status.AllowsAdjustment() {
		return shared.NewDomainError("INVOICE_LOCKED", fmt.Sprintf("Cannot adjust advances on an invoice in %s status", inv.Status))
	}
	if !amount.IsPositive() {
		return shared.NewDomainError("INVALID_AMOUNT", "Adjustment amount must be positive")
	}

	inv.AdvanceAdjusted = inv.AdvanceAdjusted.Add(amount.Amount())
	inv.recalculateTotals()
	inv.Touch()

	return nil
}

// RemoveAdvanceAdjustment decreases the advance-adjusted figure after an
// adjustment has been removed or reversed
func (inv *Invoice) RemoveAdvanceAdjustment(amount valueobject.Money) error {
	if !amount.IsPositive() {
		return shared.NewDomainError("INVALID_AMOUNT", "Adjustment amount must be positive")
	}
	if amount.Amount().GreaterThan(inv.AdvanceAdjusted) {
		return shared.NewDomainError("INVALID_AMOUNT", "Adjustment amount exceeds the advance-adjusted total")
	}

	inv.AdvanceAdjusted = inv.AdvanceAdjusted.Sub(amount.Amount())
	inv.recalculateTotals()
	inv.Touch()

	return nil
}

// recalculateTotals folds the derived totals from the item, payment and
// adjustment records. Voided items contribute nothing. BalanceDue may go
// negative (overpayment/credit) and is surfaced as-is.
func (inv *Invoice) recalculateTotals() {
	gross := decimal.Zero
	tax := decimal.Zero
	for _, item := range inv.Items {
		if item.IsVoided {
			continue
		}
		gross = gross.Add(item.UnitPrice.Mul(decimal.NewFromInt(item.Quantity)))
		tax = tax.Add(item.TaxAmount)
	}

	paid := decimal.Zero
	for _, payment := range inv.Payments {
		paid = paid.Add(payment.Amount)
	}

	inv.GrossTotal = gross
	inv.TaxTotal = tax
	inv.NetTotal = gross.Add(tax)
	inv.AmountPaid = paid
	inv.BalanceDue = inv.NetTotal.Sub(paid).Sub(inv.AdvanceAdjusted)
}

// HasActiveServiceRef reports whether a non-voided item on this invoice
// already bills the given service reference
func (inv *Invoice) HasActiveServiceRef(ref ServiceRef) bool {
	if ref.IsZero() {
		return false
	}
	for idx := range inv.Items {
		item := &inv.Items[idx]
		if !item.IsVoided && item.GetServiceRef() == ref {
			return true
		}
	}
	return false
}

// GetItem returns an item by its ID, nil when absent
func (inv *Invoice) GetItem(itemID uuid.UUID) *InvoiceItem {
	for idx := range inv.Items {
		if inv.Items[idx].ID == itemID {
			return &inv.Items[idx]
		}
	}
	return nil
}

// GetPayment returns a payment by its ID, nil when absent
func (inv *Invoice) GetPayment(paymentID uuid.UUID) *Payment {
	for idx := range inv.Payments {
		if inv.Payments[idx].ID == paymentID {
			return &inv.Payments[idx]
		}
	}
	return nil
}

// ActiveItemCount returns the number of non-voided items
func (inv *Invoice) ActiveItemCount() int {
	count := 0
	for _, item := range inv.Items {
		if !item.IsVoided {
			count++
		}
	}
	return count
}

// GetBalanceDueMoney returns the balance due as Money
func (inv *Invoice) GetBalanceDueMoney() valueobject.Money {
	return valueobject.NewMoneyINR(inv.BalanceDue)
}

// GetNetTotalMoney returns the net total as Money
func (inv *Invoice) GetNetTotalMoney() valueobject.Money {
	return valueobject.NewMoneyINR(inv.NetTotal)
}

// IsDraft returns true if the invoice is in draft status
func (inv *Invoice) IsDraft() bool {
	return inv.Status == InvoiceStatusDraft
}

// IsFinalized returns true if the invoice is finalized
func (inv *Invoice) IsFinalized() bool {
	return inv.Status == InvoiceStatusFinalized
}

// IsCancelled returns true if the invoice is cancelled
func (inv *Invoice) IsCancelled() bool {
	return inv.Status == InvoiceStatusCancelled
}

// IsReversed returns true if the invoice is reversed
func (inv *Invoice) IsReversed() bool {
	return inv.Status == InvoiceStatusReversed
}
