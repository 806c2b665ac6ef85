package advance

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hims/backend/internal/domain/shared"
)

// AdvanceReceivedEvent is raised when a patient deposit is recorded
type AdvanceReceivedEvent struct {
	shared.BaseDomainEvent
	AdvanceID   uuid.UUID       `json:"advance_id"`
	PatientID   uuid.UUID       `json:"patient_id"`
	Amount      decimal.Decimal `json:"amount"`
	Mode        string          `json:"mode"`
	ReferenceNo string          `json:"reference_no,omitempty"`
	ContextType string          `json:"context_type,omitempty"`
	ContextID   *uuid.UUID      `json:"context_id,omitempty"`
	ReceivedAt  time.Time       `json:"received_at"`
}

// EventType returns the event type name
func (e *AdvanceReceivedEvent) EventType() string {
	return "AdvanceReceived"
}

// NewAdvanceReceivedEvent creates a new AdvanceReceivedEvent
func NewAdvanceReceivedEvent(d *AdvanceDeposit) *AdvanceReceivedEvent {
	return &AdvanceReceivedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("AdvanceReceived", "AdvanceDeposit", d.ID),
		AdvanceID:       d.ID,
		PatientID:       d.PatientID,
		Amount:          d.Amount,
		Mode:            d.Mode.String(),
		ReferenceNo:     d.ReferenceNo,
		ContextType:     d.ContextType,
		ContextID:       d.ContextID,
		ReceivedAt:      d.ReceivedAt,
	}
}

// AdvanceAdjustedEvent is raised when deposit money is applied to an invoice
type AdvanceAdjustedEvent struct {
	shared.BaseDomainEvent
	AdvanceID        uuid.UUID       `json:"advance_id"`
	InvoiceID        uuid.UUID       `json:"invoice_id"`
	AdjustmentID     uuid.UUID       `json:"adjustment_id"`
	PatientID        uuid.UUID       `json:"patient_id"`
	AmountApplied    decimal.Decimal `json:"amount_applied"`
	BalanceRemaining decimal.Decimal `json:"balance_remaining"`
}

// EventType returns the event type name
func (e *AdvanceAdjustedEvent) EventType() string {
	return "AdvanceAdjusted"
}

// NewAdvanceAdjustedEvent creates a new AdvanceAdjustedEvent
func NewAdvanceAdjustedEvent(d *AdvanceDeposit, adj *AdvanceAdjustment) *AdvanceAdjustedEvent {
	return &AdvanceAdjustedEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent("AdvanceAdjusted", "AdvanceDeposit", d.ID),
		AdvanceID:        d.ID,
		InvoiceID:        adj.InvoiceID,
		AdjustmentID:     adj.ID,
		PatientID:        d.PatientID,
		AmountApplied:    adj.AmountApplied,
		BalanceRemaining: d.BalanceRemaining,
	}
}

// AdvanceRestoredEvent is raised when an adjustment is undone and its
// money returned to the deposit
type AdvanceRestoredEvent struct {
	shared.BaseDomainEvent
	AdvanceID        uuid.UUID       `json:"advance_id"`
	InvoiceID        uuid.UUID       `json:"invoice_id"`
	PatientID        uuid.UUID       `json:"patient_id"`
	AmountRestored   decimal.Decimal `json:"amount_restored"`
	BalanceRemaining decimal.Decimal `json:"balance_remaining"`
}

// EventType returns the event type name
func (e *AdvanceRestoredEvent) EventType() string {
	return "AdvanceRestored"
}

// NewAdvanceRestoredEvent creates a new AdvanceRestoredEvent
func NewAdvanceRestoredEvent(d *AdvanceDeposit, invoiceID uuid.UUID, amount decimal.Decimal) *AdvanceRestoredEvent {
	return &AdvanceRestoredEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent("AdvanceRestored", "AdvanceDeposit", d.ID),
		AdvanceID:        d.ID,
		InvoiceID:        invoiceID,
		PatientID:        d.PatientID,
		AmountRestored:   amount,
		BalanceRemaining: d.BalanceRemaining,
	}
}

// AdvanceVoidedEvent is raised when an untouched deposit is voided
type AdvanceVoidedEvent struct {
	shared.BaseDomainEvent
	AdvanceID  uuid.UUID       `json:"advance_id"`
	PatientID  uuid.UUID       `json:"patient_id"`
	Amount     decimal.Decimal `json:"amount"`
	VoidReason string          `json:"void_reason"`
}

// EventType returns the event type name
func (e *AdvanceVoidedEvent) EventType() string {
	return "AdvanceVoided"
}

// NewAdvanceVoidedEvent creates a new AdvanceVoidedEvent
func NewAdvanceVoidedEvent(d *AdvanceDeposit) *AdvanceVoidedEvent {
	return &AdvanceVoidedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("AdvanceVoided", "AdvanceDeposit", d.ID),
		AdvanceID:       d.ID,
		PatientID:       d.PatientID,
		Amount:          d.Amount,
		VoidReason:      d.VoidReason,
	}
}
