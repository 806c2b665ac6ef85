package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hims/backend/internal/domain/shared"
)

// InvoiceCreatedEvent is raised when a new invoice is opened in draft
type InvoiceCreatedEvent struct {
	shared.BaseDomainEvent
	InvoiceID     uuid.UUID   `json:"invoice_id"`
	InvoiceNumber string      `json:"invoice_number"`
	PatientID     uuid.UUID   `json:"patient_id"`
	BillingType   BillingType `json:"billing_type"`
	ContextType   string      `json:"context_type,omitempty"`
	ContextID     *uuid.UUID  `json:"context_id,omitempty"`
}

// EventType returns the event type name
func (e *InvoiceCreatedEvent) EventType() string {
	return "InvoiceCreated"
}

// NewInvoiceCreatedEvent creates a new InvoiceCreatedEvent
func NewInvoiceCreatedEvent(inv *Invoice) *InvoiceCreatedEvent {
	return &InvoiceCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("InvoiceCreated", "Invoice", inv.ID),
		InvoiceID:       inv.ID,
		InvoiceNumber:   inv.InvoiceNumber,
		PatientID:       inv.PatientID,
		BillingType:     inv.BillingType,
		ContextType:     inv.ContextType,
		ContextID:       inv.ContextID,
	}
}

// InvoiceFinalizedEvent is raised when an invoice is locked for mutation
type InvoiceFinalizedEvent struct {
	shared.BaseDomainEvent
	InvoiceID       uuid.UUID       `json:"invoice_id"`
	InvoiceNumber   string          `json:"invoice_number"`
	PatientID       uuid.UUID       `json:"patient_id"`
	NetTotal        decimal.Decimal `json:"net_total"`
	AmountPaid      decimal.Decimal `json:"amount_paid"`
	AdvanceAdjusted decimal.Decimal `json:"advance_adjusted"`
	BalanceDue      decimal.Decimal `json:"balance_due"`
	FinalizedAt     time.Time       `json:"finalized_at"`
}

// EventType returns the event type name
func (e *InvoiceFinalizedEvent) EventType() string {
	return "InvoiceFinalized"
}

// NewInvoiceFinalizedEvent creates a new InvoiceFinalizedEvent
func NewInvoiceFinalizedEvent(inv *Invoice) *InvoiceFinalizedEvent {
	finalizedAt := time.Now()
	if inv.FinalizedAt != nil {
		finalizedAt = *inv.FinalizedAt
	}
	return &InvoiceFinalizedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("InvoiceFinalized", "Invoice", inv.ID),
		InvoiceID:       inv.ID,
		InvoiceNumber:   inv.InvoiceNumber,
		PatientID:       inv.PatientID,
		NetTotal:        inv.NetTotal,
		AmountPaid:      inv.AmountPaid,
		AdvanceAdjusted: inv.AdvanceAdjusted,
		BalanceDue:      inv.BalanceDue,
		FinalizedAt:     finalizedAt,
	}
}

// InvoiceCancelledEvent is raised when an invoice is cancelled
type InvoiceCancelledEvent struct {
	shared.BaseDomainEvent
	InvoiceID       uuid.UUID       `json:"invoice_id"`
	InvoiceNumber   string          `json:"invoice_number"`
	PatientID       uuid.UUID       `json:"patient_id"`
	NetTotal        decimal.Decimal `json:"net_total"`
	AdvanceAdjusted decimal.Decimal `json:"advance_adjusted"`
	CancelReason    string          `json:"cancel_reason"`
	CancelledAt     time.Time       `json:"cancelled_at"`
}

// EventType returns the event type name
func (e *InvoiceCancelledEvent) EventType() string {
	return "InvoiceCancelled"
}

// NewInvoiceCancelledEvent creates a new InvoiceCancelledEvent
func NewInvoiceCancelledEvent(inv *Invoice) *InvoiceCancelledEvent {
	cancelledAt := time.Now()
	if inv.CancelledAt != nil {
		cancelledAt = *inv.CancelledAt
	}
	return &InvoiceCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("InvoiceCancelled", "Invoice", inv.ID),
		InvoiceID:       inv.ID,
		InvoiceNumber:   inv.InvoiceNumber,
		PatientID:       inv.PatientID,
		NetTotal:        inv.NetTotal,
		AdvanceAdjusted: inv.AdvanceAdjusted,
		CancelReason:    inv.CancelReason,
		CancelledAt:     cancelledAt,
	}
}

// InvoiceReversedEvent is raised when a finalized invoice is reversed
// through the administrative correction path
type InvoiceReversedEvent struct {
	shared.BaseDomainEvent
	InvoiceID       uuid.UUID       `json:"invoice_id"`
	InvoiceNumber   string          `json:"invoice_number"`
	PatientID       uuid.UUID       `json:"patient_id"`
	NetTotal        decimal.Decimal `json:"net_total"`
	AmountPaid      decimal.Decimal `json:"amount_paid"`
	AdvanceAdjusted decimal.Decimal `json:"advance_adjusted"`
	ReversalReason  string          `json:"reversal_reason"`
	ReversedAt      time.Time       `json:"reversed_at"`
}

// EventType returns the event type name
func (e *InvoiceReversedEvent) EventType() string {
	return "InvoiceReversed"
}

// NewInvoiceReversedEvent creates a new InvoiceReversedEvent
func NewInvoiceReversedEvent(inv *Invoice) *InvoiceReversedEvent {
	return &InvoiceReversedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("InvoiceReversed", "Invoice", inv.ID),
		InvoiceID:       inv.ID,
		InvoiceNumber:   inv.InvoiceNumber,
		PatientID:       inv.PatientID,
		NetTotal:        inv.NetTotal,
		AmountPaid:      inv.AmountPaid,
		AdvanceAdjusted: inv.AdvanceAdjusted,
		ReversalReason:  inv.CancelReason,
		ReversedAt:      time.Now(),
	}
}

// InvoiceItemVoidedEvent is raised when a line item is voided
type InvoiceItemVoidedEvent struct {
	shared.BaseDomainEvent
	InvoiceID     uuid.UUID       `json:"invoice_id"`
	InvoiceNumber string          `json:"invoice_number"`
	ItemID        uuid.UUID       `json:"item_id"`
	Description   string          `json:"description"`
	LineTotal     decimal.Decimal `json:"line_total"`
	ServiceType   string          `json:"service_type,omitempty"`
	ServiceRefID  *uuid.UUID      `json:"service_ref_id,omitempty"`
	VoidReason    string          `json:"void_reason"`
}

// EventType returns the event type name
func (e *InvoiceItemVoidedEvent) EventType() string {
	return "InvoiceItemVoided"
}

// NewInvoiceItemVoidedEvent creates a new InvoiceItemVoidedEvent
func NewInvoiceItemVoidedEvent(inv *Invoice, item *InvoiceItem) *InvoiceItemVoidedEvent {
	return &InvoiceItemVoidedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("InvoiceItemVoided", "Invoice", inv.ID),
		InvoiceID:       inv.ID,
		InvoiceNumber:   inv.InvoiceNumber,
		ItemID:          item.ID,
		Description:     item.Description,
		LineTotal:       item.LineTotal,
		ServiceType:     item.ServiceType,
		ServiceRefID:    item.ServiceRefID,
		VoidReason:      item.VoidReason,
	}
}

// InvoicePaymentAddedEvent is raised when a payment is recorded against a draft invoice
type InvoicePaymentAddedEvent struct {
	shared.BaseDomainEvent
	InvoiceID     uuid.UUID       `json:"invoice_id"`
	InvoiceNumber string          `json:"invoice_number"`
	PaymentID     uuid.UUID       `json:"payment_id"`
	Amount        decimal.Decimal `json:"amount"`
	Mode          string          `json:"mode"`
	ReferenceNo   string          `json:"reference_no,omitempty"`
	BalanceDue    decimal.Decimal `json:"balance_due"`
}

// EventType returns the event type name
func (e *InvoicePaymentAddedEvent) EventType() string {
	return "InvoicePaymentAdded"
}

// NewInvoicePaymentAddedEvent creates a new InvoicePaymentAddedEvent
func NewInvoicePaymentAddedEvent(inv *Invoice, payment *Payment) *InvoicePaymentAddedEvent {
	return &InvoicePaymentAddedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("InvoicePaymentAdded", "Invoice", inv.ID),
		InvoiceID:       inv.ID,
		InvoiceNumber:   inv.InvoiceNumber,
		PaymentID:       payment.ID,
		Amount:          payment.Amount,
		Mode:            payment.Mode.String(),
		ReferenceNo:     payment.ReferenceNo,
		BalanceDue:      inv.BalanceDue,
	}
}

// InvoicePaymentDeletedEvent is raised when a payment record is removed
type InvoicePaymentDeletedEvent struct {
	shared.BaseDomainEvent
	InvoiceID     uuid.UUID       `json:"invoice_id"`
	InvoiceNumber string          `json:"invoice_number"`
	PaymentID     uuid.UUID       `json:"payment_id"`
	Amount        decimal.Decimal `json:"amount"`
	Mode          string          `json:"mode"`
	BalanceDue    decimal.Decimal `json:"balance_due"`
}

// EventType returns the event type name
func (e *InvoicePaymentDeletedEvent) EventType() string {
	return "InvoicePaymentDeleted"
}

// NewInvoicePaymentDeletedEvent creates a new InvoicePaymentDeletedEvent
func NewInvoicePaymentDeletedEvent(inv *Invoice, payment *Payment) *InvoicePaymentDeletedEvent {
	return &InvoicePaymentDeletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("InvoicePaymentDeleted", "Invoice", inv.ID),
		InvoiceID:       inv.ID,
		InvoiceNumber:   inv.InvoiceNumber,
		PaymentID:       payment.ID,
		Amount:          payment.Amount,
		Mode:            payment.Mode.String(),
		BalanceDue:      inv.BalanceDue,
	}
}
