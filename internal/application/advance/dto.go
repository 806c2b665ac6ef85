package advance

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hims/backend/internal/domain/advance"
)

// ==================== Advance Deposit DTOs ====================

// CreateAdvanceRequest represents a request to record a patient deposit
type CreateAdvanceRequest struct {
	PatientID   uuid.UUID       `json:"patient_id" binding:"required"`
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	Mode        string          `json:"mode" binding:"required"`
	ReferenceNo string          `json:"reference_no" binding:"omitempty,max=100"`
	Remarks     string          `json:"remarks" binding:"omitempty,max=500"`
	ContextType string          `json:"context_type" binding:"omitempty,max=50"`
	ContextID   *uuid.UUID      `json:"context_id"`
	ReceivedAt  *time.Time      `json:"received_at"`
}

// ApplyAdvanceRequest represents a request to apply deposit money to an
// invoice. When Amount is nil the invoice's full balance due is targeted;
// the oldest deposits are consumed first either way.
type ApplyAdvanceRequest struct {
	InvoiceID uuid.UUID        `json:"invoice_id" binding:"required"`
	Amount    *decimal.Decimal `json:"amount"`
}

// VoidAdvanceRequest represents a request to void an untouched deposit
type VoidAdvanceRequest struct {
	Reason string `json:"reason" binding:"required,min=1,max=500"`
}

// AdvanceListFilter represents filter options for deposit list queries
type AdvanceListFilter struct {
	ContextType   *string    `form:"context_type"`
	ContextID     *uuid.UUID `form:"context_id"`
	IncludeVoided bool       `form:"include_voided"`
	StartDate     *time.Time `form:"start_date"`
	EndDate       *time.Time `form:"end_date"`
	Page          int        `form:"page" binding:"omitempty,min=1"`
	PageSize      int        `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// AdvanceResponse represents an advance deposit in API responses
type AdvanceResponse struct {
	ID               uuid.UUID       `json:"id"`
	PatientID        uuid.UUID       `json:"patient_id"`
	Amount           decimal.Decimal `json:"amount"`
	BalanceRemaining decimal.Decimal `json:"balance_remaining"`
	AppliedTotal     decimal.Decimal `json:"applied_total"`
	Mode             string          `json:"mode"`
	ReferenceNo      string          `json:"reference_no,omitempty"`
	Remarks          string          `json:"remarks,omitempty"`
	ContextType      string          `json:"context_type,omitempty"`
	ContextID        *uuid.UUID      `json:"context_id,omitempty"`
	ReceivedAt       time.Time       `json:"received_at"`
	IsVoided         bool            `json:"is_voided"`
	VoidReason       string          `json:"void_reason,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
	Version          int             `json:"version"`
}

// AdjustmentResponse represents an adjustment in API responses
type AdjustmentResponse struct {
	ID            uuid.UUID       `json:"id"`
	AdvanceID     uuid.UUID       `json:"advance_id"`
	InvoiceID     uuid.UUID       `json:"invoice_id"`
	AmountApplied decimal.Decimal `json:"amount_applied"`
	AppliedAt     time.Time       `json:"applied_at"`
}

// ApplyAdvanceResultResponse represents the outcome of an apply run
type ApplyAdvanceResultResponse struct {
	InvoiceID       uuid.UUID            `json:"invoice_id"`
	AmountApplied   decimal.Decimal      `json:"amount_applied"`
	BalanceDue      decimal.Decimal      `json:"balance_due"`
	AdvanceAdjusted decimal.Decimal      `json:"advance_adjusted"`
	Adjustments     []AdjustmentResponse `json:"adjustments"`
}

// PatientAdvanceSummaryResponse represents a patient's deposit position
type PatientAdvanceSummaryResponse struct {
	PatientID        uuid.UUID       `json:"patient_id"`
	TotalReceived    decimal.Decimal `json:"total_received"`
	TotalApplied     decimal.Decimal `json:"total_applied"`
	AvailableBalance decimal.Decimal `json:"available_balance"`
	DepositCount     int             `json:"deposit_count"`
}

// ==================== Mappers ====================

// ToAdvanceResponse converts a deposit to its API representation
func ToAdvanceResponse(d *advance.AdvanceDeposit) AdvanceResponse {
	return AdvanceResponse{
		ID:               d.ID,
		PatientID:        d.PatientID,
		Amount:           d.Amount,
		BalanceRemaining: d.BalanceRemaining,
		AppliedTotal:     d.AppliedTotal(),
		Mode:             d.Mode.String(),
		ReferenceNo:      d.ReferenceNo,
		Remarks:          d.Remarks,
		ContextType:      d.ContextType,
		ContextID:        d.ContextID,
		ReceivedAt:       d.ReceivedAt,
		IsVoided:         d.IsVoided,
		VoidReason:       d.VoidReason,
		CreatedAt:        d.CreatedAt,
		UpdatedAt:        d.UpdatedAt,
		Version:          d.Version,
	}
}

// ToAdvanceResponses converts a slice of deposits to API responses
func ToAdvanceResponses(deposits []advance.AdvanceDeposit) []AdvanceResponse {
	responses := make([]AdvanceResponse, 0, len(deposits))
	for idx := range deposits {
		responses = append(responses, ToAdvanceResponse(&deposits[idx]))
	}
	return responses
}

// ToAdjustmentResponse converts an adjustment to its API representation
func ToAdjustmentResponse(a *advance.AdvanceAdjustment) AdjustmentResponse {
	return AdjustmentResponse{
		ID:            a.ID,
		AdvanceID:     a.AdvanceID,
		InvoiceID:     a.InvoiceID,
		AmountApplied: a.AmountApplied,
		AppliedAt:     a.AppliedAt,
	}
}

// ToAdjustmentResponses converts a slice of adjustments to API responses
func ToAdjustmentResponses(adjustments []advance.AdvanceAdjustment) []AdjustmentResponse {
	responses := make([]AdjustmentResponse, 0, len(adjustments))
	for idx := range adjustments {
		responses = append(responses, ToAdjustmentResponse(&adjustments[idx]))
	}
	return responses
}
