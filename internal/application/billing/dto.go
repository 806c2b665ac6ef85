package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hims/backend/internal/domain/billing"
)

// ==================== Invoice DTOs ====================

// CreateInvoiceRequest represents a request to open a draft invoice
type CreateInvoiceRequest struct {
	PatientID    uuid.UUID                `json:"patient_id" binding:"required"`
	BillingType  billing.BillingType      `json:"billing_type" binding:"required"`
	ContextType  string                   `json:"context_type" binding:"omitempty,max=50"`
	ContextID    *uuid.UUID               `json:"context_id"`
	ConsultantID *uuid.UUID               `json:"consultant_id"`
	ProviderID   *uuid.UUID               `json:"provider_id"`
	Remarks      string                   `json:"remarks" binding:"omitempty,max=500"`
	Items        []CreateInvoiceItemInput `json:"items"`
}

// CreateInvoiceItemInput represents an item in the create invoice request
type CreateInvoiceItemInput struct {
	Description string          `json:"description" binding:"required,min=1,max=200"`
	Quantity    int64           `json:"quantity" binding:"required"`
	UnitPrice   decimal.Decimal `json:"unit_price" binding:"required"`
	TaxRate     decimal.Decimal `json:"tax_rate"`
}

// UpdateInvoiceRequest represents a request to update invoice header fields (draft only)
type UpdateInvoiceRequest struct {
	BillingType  *billing.BillingType `json:"billing_type"`
	ConsultantID *uuid.UUID           `json:"consultant_id"`
	ProviderID   *uuid.UUID           `json:"provider_id"`
	Remarks      *string              `json:"remarks"`
}

// AddInvoiceItemRequest represents a request to add a line item.
// Manual items carry their own unit price. Service-ref items may omit
// it and name a ServiceCode instead; the price, tax rate and, when the
// description is empty, the display name then come from the price
// master.
type AddInvoiceItemRequest struct {
	Description  string           `json:"description" binding:"omitempty,max=200"`
	Quantity     int64            `json:"quantity" binding:"required"`
	UnitPrice    *decimal.Decimal `json:"unit_price"`
	TaxRate      decimal.Decimal  `json:"tax_rate"`
	ServiceType  string           `json:"service_type" binding:"omitempty,max=50"`
	ServiceRefID *uuid.UUID       `json:"service_ref_id"`
	ServiceCode  string           `json:"service_code" binding:"omitempty,max=50"`
}

// UpdateInvoiceItemRequest represents a request to update a line item
type UpdateInvoiceItemRequest struct {
	Quantity  *int64           `json:"quantity"`
	UnitPrice *decimal.Decimal `json:"unit_price"`
	TaxRate   *decimal.Decimal `json:"tax_rate"`
}

// VoidInvoiceItemRequest represents a request to void a line item
type VoidInvoiceItemRequest struct {
	Reason string `json:"reason" binding:"required,min=1,max=500"`
}

// CancelInvoiceRequest represents a request to cancel an invoice
type CancelInvoiceRequest struct {
	Reason string `json:"reason" binding:"required,min=1,max=500"`
}

// ReverseInvoiceRequest represents a request to reverse a finalized invoice
type ReverseInvoiceRequest struct {
	Reason string `json:"reason" binding:"required,min=1,max=500"`
}

// AddPaymentRequest represents a request to record a payment on a draft invoice
type AddPaymentRequest struct {
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	Mode        string          `json:"mode" binding:"required"`
	ReferenceNo string          `json:"reference_no" binding:"omitempty,max=100"`
}

// InvoiceListFilter represents filter options for invoice list queries
type InvoiceListFilter struct {
	Search      string                 `form:"search"`
	PatientID   *uuid.UUID             `form:"patient_id"`
	Status      *billing.InvoiceStatus `form:"status"`
	BillingType *billing.BillingType   `form:"billing_type"`
	ContextType *string                `form:"context_type"`
	ContextID   *uuid.UUID             `form:"context_id"`
	StartDate   *time.Time             `form:"start_date"`
	EndDate     *time.Time             `form:"end_date"`
	Page        int                    `form:"page" binding:"omitempty,min=1"`
	PageSize    int                    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy     string                 `form:"order_by"`
	OrderDir    string                 `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// InvoiceResponse represents an invoice in API responses
type InvoiceResponse struct {
	ID              uuid.UUID             `json:"id"`
	InvoiceNumber   string                `json:"invoice_number"`
	PatientID       uuid.UUID             `json:"patient_id"`
	BillingType     string                `json:"billing_type"`
	ContextType     string                `json:"context_type,omitempty"`
	ContextID       *uuid.UUID            `json:"context_id,omitempty"`
	ConsultantID    *uuid.UUID            `json:"consultant_id,omitempty"`
	ProviderID      *uuid.UUID            `json:"provider_id,omitempty"`
	Remarks         string                `json:"remarks,omitempty"`
	Status          string                `json:"status"`
	Items           []InvoiceItemResponse `json:"items"`
	Payments        []PaymentResponse     `json:"payments"`
	GrossTotal      decimal.Decimal       `json:"gross_total"`
	TaxTotal        decimal.Decimal       `json:"tax_total"`
	NetTotal        decimal.Decimal       `json:"net_total"`
	AmountPaid      decimal.Decimal       `json:"amount_paid"`
	AdvanceAdjusted decimal.Decimal       `json:"advance_adjusted"`
	BalanceDue      decimal.Decimal       `json:"balance_due"`
	FinalizedAt     *time.Time            `json:"finalized_at,omitempty"`
	CancelledAt     *time.Time            `json:"cancelled_at,omitempty"`
	CancelReason    string                `json:"cancel_reason,omitempty"`
	CreatedAt       time.Time             `json:"created_at"`
	UpdatedAt       time.Time             `json:"updated_at"`
	Version         int                   `json:"version"`
}

// InvoiceListItemResponse represents an invoice in list responses (less detail)
type InvoiceListItemResponse struct {
	ID              uuid.UUID       `json:"id"`
	InvoiceNumber   string          `json:"invoice_number"`
	PatientID       uuid.UUID       `json:"patient_id"`
	BillingType     string          `json:"billing_type"`
	Status          string          `json:"status"`
	ItemCount       int             `json:"item_count"`
	NetTotal        decimal.Decimal `json:"net_total"`
	AmountPaid      decimal.Decimal `json:"amount_paid"`
	AdvanceAdjusted decimal.Decimal `json:"advance_adjusted"`
	BalanceDue      decimal.Decimal `json:"balance_due"`
	FinalizedAt     *time.Time      `json:"finalized_at,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

// InvoiceItemResponse represents a line item in API responses
type InvoiceItemResponse struct {
	ID           uuid.UUID       `json:"id"`
	Description  string          `json:"description"`
	Quantity     int64           `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	TaxRate      decimal.Decimal `json:"tax_rate"`
	TaxAmount    decimal.Decimal `json:"tax_amount"`
	LineTotal    decimal.Decimal `json:"line_total"`
	IsVoided     bool            `json:"is_voided"`
	VoidReason   string          `json:"void_reason,omitempty"`
	ServiceType  string          `json:"service_type,omitempty"`
	ServiceRefID *uuid.UUID      `json:"service_ref_id,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// PaymentResponse represents a payment in API responses
type PaymentResponse struct {
	ID          uuid.UUID       `json:"id"`
	Amount      decimal.Decimal `json:"amount"`
	Mode        string          `json:"mode"`
	ReferenceNo string          `json:"reference_no,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// ==================== Auto-Charge DTOs ====================

// SyncBedChargesRequest represents a request to synchronize bed charges
// for an admission. Mode selects the billable unit per stay segment:
// whole days, whole hours, or hourly for segments shorter than a day.
// Usage is billed up to UptoTS (now when omitted). When
// SkipIfAlreadyBilled is set, segments already billed elsewhere are
// skipped and reported; otherwise the first conflict fails the run.
type SyncBedChargesRequest struct {
	AdmissionID         uuid.UUID  `json:"admission_id" binding:"required"`
	InvoiceID           uuid.UUID  `json:"invoice_id" binding:"required"`
	Mode                string     `json:"mode" binding:"omitempty,oneof=daily hourly mixed"`
	SkipIfAlreadyBilled bool       `json:"skip_if_already_billed"`
	UptoTS              *time.Time `json:"upto_ts"`
}

// SyncOTChargesRequest represents a request to raise charges for a completed OT case
type SyncOTChargesRequest struct {
	CaseID              uuid.UUID `json:"case_id" binding:"required"`
	InvoiceID           uuid.UUID `json:"invoice_id" binding:"required"`
	SkipIfAlreadyBilled bool      `json:"skip_if_already_billed"`
}

// AutoChargeResultResponse represents the outcome of an auto-charge run
type AutoChargeResultResponse struct {
	Invoice      InvoiceResponse         `json:"invoice"`
	ChargedItems []InvoiceItemResponse   `json:"charged_items"`
	SkippedRefs  []SkippedChargeResponse `json:"skipped_refs"`
}

// SkippedChargeResponse describes a source record the run left alone
// because it was already billed
type SkippedChargeResponse struct {
	ServiceType  string    `json:"service_type"`
	ServiceRefID uuid.UUID `json:"service_ref_id"`
	Reason       string    `json:"reason"`
}

// ==================== Mappers ====================

// ToInvoiceResponse converts an invoice to its API representation
func ToInvoiceResponse(inv *billing.Invoice) InvoiceResponse {
	items := make([]InvoiceItemResponse, 0, len(inv.Items))
	for idx := range inv.Items {
		items = append(items, ToInvoiceItemResponse(&inv.Items[idx]))
	}

	payments := make([]PaymentResponse, 0, len(inv.Payments))
	for idx := range inv.Payments {
		payments = append(payments, ToPaymentResponse(&inv.Payments[idx]))
	}

	return InvoiceResponse{
		ID:              inv.ID,
		InvoiceNumber:   inv.InvoiceNumber,
		PatientID:       inv.PatientID,
		BillingType:     inv.BillingType.String(),
		ContextType:     inv.ContextType,
		ContextID:       inv.ContextID,
		ConsultantID:    inv.ConsultantID,
		ProviderID:      inv.ProviderID,
		Remarks:         inv.Remarks,
		Status:          inv.Status.String(),
		Items:           items,
		Payments:        payments,
		GrossTotal:      inv.GrossTotal,
		TaxTotal:        inv.TaxTotal,
		NetTotal:        inv.NetTotal,
		AmountPaid:      inv.AmountPaid,
		AdvanceAdjusted: inv.AdvanceAdjusted,
		BalanceDue:      inv.BalanceDue,
		FinalizedAt:     inv.FinalizedAt,
		CancelledAt:     inv.CancelledAt,
		CancelReason:    inv.CancelReason,
		CreatedAt:       inv.CreatedAt,
		UpdatedAt:       inv.UpdatedAt,
		Version:         inv.Version,
	}
}

// ToInvoiceItemResponse converts a line item to its API representation
func ToInvoiceItemResponse(item *billing.InvoiceItem) InvoiceItemResponse {
	return InvoiceItemResponse{
		ID:           item.ID,
		Description:  item.Description,
		Quantity:     item.Quantity,
		UnitPrice:    item.UnitPrice,
		TaxRate:      item.TaxRate,
		TaxAmount:    item.TaxAmount,
		LineTotal:    item.LineTotal,
		IsVoided:     item.IsVoided,
		VoidReason:   item.VoidReason,
		ServiceType:  item.ServiceType,
		ServiceRefID: item.ServiceRefID,
		CreatedAt:    item.CreatedAt,
		UpdatedAt:    item.UpdatedAt,
	}
}

// ToPaymentResponse converts a payment to its API representation
func ToPaymentResponse(p *billing.Payment) PaymentResponse {
	return PaymentResponse{
		ID:          p.ID,
		Amount:      p.Amount,
		Mode:        p.Mode.String(),
		ReferenceNo: p.ReferenceNo,
		CreatedAt:   p.CreatedAt,
	}
}

// ToInvoiceListItemResponse converts an invoice to its list representation
func ToInvoiceListItemResponse(inv *billing.Invoice) InvoiceListItemResponse {
	return InvoiceListItemResponse{
		ID:              inv.ID,
		InvoiceNumber:   inv.InvoiceNumber,
		PatientID:       inv.PatientID,
		BillingType:     inv.BillingType.String(),
		Status:          inv.Status.String(),
		ItemCount:       inv.ActiveItemCount(),
		NetTotal:        inv.NetTotal,
		AmountPaid:      inv.AmountPaid,
		AdvanceAdjusted: inv.AdvanceAdjusted,
		BalanceDue:      inv.BalanceDue,
		FinalizedAt:     inv.FinalizedAt,
		CreatedAt:       inv.CreatedAt,
	}
}

// ToInvoiceListItemResponses converts a slice of invoices to list responses
func ToInvoiceListItemResponses(invoices []billing.Invoice) []InvoiceListItemResponse {
	responses := make([]InvoiceListItemResponse, 0, len(invoices))
	for idx := range invoices {
		responses = append(responses, ToInvoiceListItemResponse(&invoices[idx]))
	}
	return responses
}
