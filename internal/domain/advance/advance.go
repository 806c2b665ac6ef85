package advance

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hims/backend/internal/domain/shared"
	"github.com/hims/backend/internal/domain/shared/valueobject"
)

// AdvanceDeposit is an aggregate representing money a patient has paid
// ahead of billing. The received amount is immutable after creation; the
// remaining balance only moves through Apply and Restore, so the sum of
// a deposit's adjustments always equals Amount minus BalanceRemaining.
type AdvanceDeposit struct {
	shared.BaseAggregateRoot
	PatientID        uuid.UUID
	Amount           decimal.Decimal
	BalanceRemaining decimal.Decimal
	Mode             valueobject.PaymentMode
	ReferenceNo      string
	Remarks          string
	ContextType      string
	ContextID        *uuid.UUID
	ReceivedAt       time.Time
	IsVoided         bool
	VoidReason       string
}

// NewAdvanceDeposit records a deposit received from a patient.
// The full amount is immediately available for adjustment.
func NewAdvanceDeposit(patientID uuid.UUID, amount valueobject.Money, mode valueobject.PaymentMode, referenceNo, remarks string, contextType string, contextID *uuid.UUID, receivedAt time.Time) (*AdvanceDeposit, error) {
	if patientID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PATIENT", "Patient ID cannot be empty")
	}
	if !amount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Advance amount must be positive")
	}
	if !mode.IsValid() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Payment mode is not valid")
	}
	if receivedAt.IsZero() {
		receivedAt = time.Now()
	}

	deposit := &AdvanceDeposit{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		PatientID:         patientID,
		Amount:            amount.Amount(),
		BalanceRemaining:  amount.Amount(),
		Mode:              mode,
		ReferenceNo:       referenceNo,
		Remarks:           remarks,
		ContextType:       contextType,
		ContextID:         contextID,
		ReceivedAt:        receivedAt,
	}

	deposit.AddDomainEvent(NewAdvanceReceivedEvent(deposit))

	return deposit, nil
}

// Apply consumes part of the remaining balance for an invoice adjustment.
// The caller records the matching AdvanceAdjustment in the same transaction.
func (d *AdvanceDeposit) Apply(amount valueobject.Money) error {
	if d.IsVoided {
		return shared.NewDomainError("ALREADY_VOIDED", "Cannot apply a voided advance")
	}
	if !amount.IsPositive() {
		return shared.NewDomainError("INVALID_AMOUNT", "Applied amount must be positive")
	}
	if amount.Amount().GreaterThan(d.BalanceRemaining) {
		return shared.NewDomainError("INSUFFICIENT_ADVANCE_BALANCE", fmt.Sprintf("Advance balance %s is less than requested %s", d.BalanceRemaining, amount.Amount()))
	}

	d.BalanceRemaining = d.BalanceRemaining.Sub(amount.Amount())
	d.Touch()

	return nil
}

// Restore returns previously applied money to the deposit when its
// adjustment is removed or the invoice it funded is cancelled. The
// balance can never exceed the originally received amount.
func (d *AdvanceDeposit) Restore(amount valueobject.Money) error {
	if !amount.IsPositive() {
		return shared.NewDomainError("INVALID_AMOUNT", "Restored amount must be positive")
	}
	if d.BalanceRemaining.Add(amount.Amount()).GreaterThan(d.Amount) {
		return shared.NewDomainError("INVALID_AMOUNT", "Restore would exceed the received amount")
	}

	d.BalanceRemaining = d.BalanceRemaining.Add(amount.Amount())
	d.Touch()

	return nil
}

// Void cancels a deposit that was recorded in error. Only an untouched
// deposit can be voided; one with adjustments must have them removed first.
func (d *AdvanceDeposit) Void(reason string) error {
	if d.IsVoided {
		return shared.NewDomainError("ALREADY_VOIDED", "Advance has already been voided")
	}
	if reason == "" {
		return shared.NewDomainError("INVALID_INPUT", "Void reason is required")
	}
	if !d.BalanceRemaining.Equal(d.Amount) {
		return shared.NewDomainError("INVALID_STATE", "Cannot void an advance that has been applied to invoices")
	}

	d.IsVoided = true
	d.VoidReason = reason
	d.Touch()
	d.AddDomainEvent(NewAdvanceVoidedEvent(d))

	return nil
}

// HasAvailableBalance reports whether the deposit can still fund adjustments
func (d *AdvanceDeposit) HasAvailableBalance() bool {
	return !d.IsVoided && d.BalanceRemaining.IsPositive()
}

// AppliedTotal returns the portion of the deposit consumed by adjustments
func (d *AdvanceDeposit) AppliedTotal() decimal.Decimal {
	return d.Amount.Sub(d.BalanceRemaining)
}

// GetBalanceMoney returns the remaining balance as Money
func (d *AdvanceDeposit) GetBalanceMoney() valueobject.Money {
	return valueobject.NewMoneyINR(d.BalanceRemaining)
}

// GetAmountMoney returns the received amount as Money
func (d *AdvanceDeposit) GetAmountMoney() valueobject.Money {
	return valueobject.NewMoneyINR(d.Amount)
}
