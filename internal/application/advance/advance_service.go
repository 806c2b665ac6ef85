package advance

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hims/backend/internal/domain/advance"
	"github.com/hims/backend/internal/domain/shared"
	"github.com/hims/backend/internal/domain/shared/valueobject"
)

// AdvanceService handles the patient deposit ledger: recording deposits,
// applying them against invoices oldest-first, and undoing adjustments.
type AdvanceService struct {
	advanceRepo    advance.AdvanceRepository
	adjustmentRepo advance.AdvanceAdjustmentRepository
	scope          TransactionScope
}

// NewAdvanceService creates a new AdvanceService
func NewAdvanceService(
	advanceRepo advance.AdvanceRepository,
	adjustmentRepo advance.AdvanceAdjustmentRepository,
	scope TransactionScope,
) *AdvanceService {
	return &AdvanceService{
		advanceRepo:    advanceRepo,
		adjustmentRepo: adjustmentRepo,
		scope:          scope,
	}
}

// Create records a deposit received from a patient
func (s *AdvanceService) Create(ctx context.Context, req CreateAdvanceRequest) (*AdvanceResponse, error) {
	receivedAt := time.Now()
	if req.ReceivedAt != nil {
		receivedAt = *req.ReceivedAt
	}

	deposit, err := advance.NewAdvanceDeposit(
		req.PatientID,
		valueobject.NewMoneyINR(req.Amount),
		valueobject.PaymentMode(req.Mode),
		req.ReferenceNo,
		req.Remarks,
		req.ContextType,
		req.ContextID,
		receivedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := s.advanceRepo.Save(ctx, deposit); err != nil {
		return nil, err
	}

	response := ToAdvanceResponse(deposit)
	return &response, nil
}

// GetByID retrieves a deposit by ID
func (s *AdvanceService) GetByID(ctx context.Context, advanceID uuid.UUID) (*AdvanceResponse, error) {
	deposit, err := s.advanceRepo.FindByID(ctx, advanceID)
	if err != nil {
		return nil, err
	}
	response := ToAdvanceResponse(deposit)
	return &response, nil
}

// ListByPatient retrieves a patient's deposits
func (s *AdvanceService) ListByPatient(ctx context.Context, patientID uuid.UUID, filter AdvanceListFilter) ([]AdvanceResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}

	domainFilter := advance.AdvanceFilter{
		Filter: shared.Filter{
			Page:     filter.Page,
			PageSize: filter.PageSize,
			OrderBy:  "received_at",
			OrderDir: "desc",
		},
		PatientID:     &patientID,
		ContextType:   filter.ContextType,
		ContextID:     filter.ContextID,
		IncludeVoided: filter.IncludeVoided,
		FromDate:      filter.StartDate,
		ToDate:        filter.EndDate,
	}

	deposits, err := s.advanceRepo.FindByPatient(ctx, patientID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.advanceRepo.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	return ToAdvanceResponses(deposits), total, nil
}

// GetPatientSummary returns a patient's deposit position: received,
// applied and still available
func (s *AdvanceService) GetPatientSummary(ctx context.Context, patientID uuid.UUID) (*PatientAdvanceSummaryResponse, error) {
	deposits, err := s.advanceRepo.FindByPatient(ctx, patientID, advance.AdvanceFilter{
		Filter:    shared.Filter{Page: 1, PageSize: 1000, OrderBy: "received_at", OrderDir: "asc"},
		PatientID: &patientID,
	})
	if err != nil {
		return nil, err
	}

	summary := PatientAdvanceSummaryResponse{
		PatientID:        patientID,
		TotalReceived:    decimal.Zero,
		TotalApplied:     decimal.Zero,
		AvailableBalance: decimal.Zero,
		DepositCount:     len(deposits),
	}
	for idx := range deposits {
		d := &deposits[idx]
		summary.TotalReceived = summary.TotalReceived.Add(d.Amount)
		summary.TotalApplied = summary.TotalApplied.Add(d.AppliedTotal())
		summary.AvailableBalance = summary.AvailableBalance.Add(d.BalanceRemaining)
	}

	return &summary, nil
}

// Apply consumes the patient's deposits against an invoice, oldest
// received first. With an explicit amount the whole amount must be
// covered or nothing is applied; without one the invoice's balance due
// is reduced as far as the available deposits reach, which may be not
// at all when the patient has nothing on deposit.
func (s *AdvanceService) Apply(ctx context.Context, req ApplyAdvanceRequest) (*ApplyAdvanceResultResponse, error) {
	if req.Amount != nil && !req.Amount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Applied amount must be positive")
	}

	var result ApplyAdvanceResultResponse

	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		invoice, err := repos.InvoiceRepo().FindByID(ctx, req.InvoiceID)
		if err != nil {
			return err
		}

		target := invoice.BalanceDue
		if req.Amount != nil {
			target = *req.Amount
		}
		if !target.IsPositive() {
			return shared.NewDomainError("NOTHING_TO_APPLY", "Invoice has no balance due")
		}

		deposits, err := repos.AdvanceRepo().FindAvailableByPatientForUpdate(ctx, invoice.PatientID)
		if err != nil {
			return err
		}

		remaining := target
		applied := decimal.Zero
		adjustments := make([]AdjustmentResponse, 0)

		for idx := range deposits {
			if !remaining.IsPositive() {
				break
			}
			deposit := &deposits[idx]

			take := deposit.BalanceRemaining
			if take.GreaterThan(remaining) {
				take = remaining
			}
			takeMoney := valueobject.NewMoneyINR(take)

			if err := deposit.Apply(takeMoney); err != nil {
				return err
			}

			adjustment, err := advance.NewAdvanceAdjustment(deposit.ID, invoice.ID, takeMoney)
			if err != nil {
				return err
			}
			deposit.AddDomainEvent(advance.NewAdvanceAdjustedEvent(deposit, adjustment))

			if err := invoice.ApplyAdvanceAdjustment(takeMoney); err != nil {
				return err
			}

			if err := repos.AdvanceRepo().SaveWithLock(ctx, deposit); err != nil {
				return err
			}
			if err := repos.AdjustmentRepo().Save(ctx, adjustment); err != nil {
				return err
			}

			adjustments = append(adjustments, ToAdjustmentResponse(adjustment))
			applied = applied.Add(take)
			remaining = remaining.Sub(take)
		}

		if req.Amount != nil && remaining.IsPositive() {
			// all-or-nothing for an explicit amount, the rollback undoes
			// the partial consumption above
			return shared.NewDomainError("INSUFFICIENT_ADVANCE_BALANCE", "Available deposits do not cover the requested amount")
		}

		if applied.IsPositive() {
			if err := repos.InvoiceRepo().SaveWithLock(ctx, invoice); err != nil {
				return err
			}
		}

		result = ApplyAdvanceResultResponse{
			InvoiceID:       invoice.ID,
			AmountApplied:   applied,
			BalanceDue:      invoice.BalanceDue,
			AdvanceAdjusted: invoice.AdvanceAdjusted,
			Adjustments:     adjustments,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &result, nil
}

// ListInvoiceAdjustments retrieves the adjustments applied to an invoice
func (s *AdvanceService) ListInvoiceAdjustments(ctx context.Context, invoiceID uuid.UUID) ([]AdjustmentResponse, error) {
	adjustments, err := s.adjustmentRepo.FindByInvoice(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	return ToAdjustmentResponses(adjustments), nil
}

// ListAdvanceAdjustments retrieves the adjustments funded by a deposit
func (s *AdvanceService) ListAdvanceAdjustments(ctx context.Context, advanceID uuid.UUID) ([]AdjustmentResponse, error) {
	adjustments, err := s.adjustmentRepo.FindByAdvance(ctx, advanceID)
	if err != nil {
		return nil, err
	}
	return ToAdjustmentResponses(adjustments), nil
}

// RemoveAdjustment undoes a single adjustment: the deposit gets its money
// back and the invoice's advance-adjusted figure drops accordingly
func (s *AdvanceService) RemoveAdjustment(ctx context.Context, adjustmentID uuid.UUID) error {
	return s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		adjustment, err := repos.AdjustmentRepo().FindByID(ctx, adjustmentID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return shared.NewDomainError("ADJUSTMENT_NOT_FOUND", "Adjustment not found")
			}
			return err
		}

		invoice, err := repos.InvoiceRepo().FindByID(ctx, adjustment.InvoiceID)
		if err != nil {
			return err
		}
		if !invoice.Status.AllowsAdjustment() {
			return shared.NewDomainError("INVOICE_LOCKED", "Cannot remove adjustments from an invoice in a terminal status")
		}

		deposit, err := repos.AdvanceRepo().FindByID(ctx, adjustment.AdvanceID)
		if err != nil {
			return err
		}

		amount := adjustment.GetAmountMoney()
		if err := deposit.Restore(amount); err != nil {
			return err
		}
		deposit.AddDomainEvent(advance.NewAdvanceRestoredEvent(deposit, invoice.ID, adjustment.AmountApplied))

		if err := invoice.RemoveAdvanceAdjustment(amount); err != nil {
			return err
		}

		if err := repos.AdvanceRepo().SaveWithLock(ctx, deposit); err != nil {
			return err
		}
		if err := repos.AdjustmentRepo().Delete(ctx, adjustment.ID); err != nil {
			return err
		}
		return repos.InvoiceRepo().SaveWithLock(ctx, invoice)
	})
}

// Void voids a deposit that was recorded in error. Only possible while
// nothing has been applied from it.
func (s *AdvanceService) Void(ctx context.Context, advanceID uuid.UUID, req VoidAdvanceRequest) (*AdvanceResponse, error) {
	var response AdvanceResponse

	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		deposit, err := repos.AdvanceRepo().FindByID(ctx, advanceID)
		if err != nil {
			return err
		}

		if err := deposit.Void(req.Reason); err != nil {
			return err
		}

		if err := repos.AdvanceRepo().SaveWithLock(ctx, deposit); err != nil {
			return err
		}

		response = ToAdvanceResponse(deposit)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &response, nil
}
