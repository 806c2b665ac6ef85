package advance

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hims/backend/internal/domain/shared"
)

// AdvanceFilter defines filtering options for advance deposit queries
type AdvanceFilter struct {
	shared.Filter
	PatientID     *uuid.UUID // Filter by patient
	ContextType   *string    // Filter by clinical context type
	ContextID     *uuid.UUID // Filter by clinical context
	IncludeVoided bool       // Include voided deposits
	FromDate      *time.Time // Filter by received date range start
	ToDate        *time.Time // Filter by received date range end
}

// AdvanceRepository defines the interface for advance deposit persistence
type AdvanceRepository interface {
	// FindByID finds an advance deposit by ID
	FindByID(ctx context.Context, id uuid.UUID) (*AdvanceDeposit, error)

	// FindByPatient finds a patient's deposits matching the filter
	FindByPatient(ctx context.Context, patientID uuid.UUID, filter AdvanceFilter) ([]AdvanceDeposit, error)

	// FindAvailableByPatientForUpdate loads the patient's non-voided
	// deposits with a positive balance, row-locked for the current
	// transaction and ordered oldest-received first. This is the
	// working set of the FIFO application algorithm.
	FindAvailableByPatientForUpdate(ctx context.Context, patientID uuid.UUID) ([]AdvanceDeposit, error)

	// Save creates or updates an advance deposit
	Save(ctx context.Context, deposit *AdvanceDeposit) error

	// SaveWithLock saves with optimistic locking (version check)
	SaveWithLock(ctx context.Context, deposit *AdvanceDeposit) error

	// SumAvailableByPatient returns the patient's total remaining balance
	SumAvailableByPatient(ctx context.Context, patientID uuid.UUID) (decimal.Decimal, error)

	// Count counts deposits matching the filter
	Count(ctx context.Context, filter AdvanceFilter) (int64, error)
}

// AdvanceAdjustmentRepository defines the interface for adjustment persistence
type AdvanceAdjustmentRepository interface {
	// FindByID finds an adjustment by ID
	FindByID(ctx context.Context, id uuid.UUID) (*AdvanceAdjustment, error)

	// FindByInvoice finds all adjustments applied to an invoice
	FindByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]AdvanceAdjustment, error)

	// FindByAdvance finds all adjustments funded by a deposit
	FindByAdvance(ctx context.Context, advanceID uuid.UUID) ([]AdvanceAdjustment, error)

	// Save creates an adjustment record
	Save(ctx context.Context, adjustment *AdvanceAdjustment) error

	// Delete removes an adjustment record
	Delete(ctx context.Context, id uuid.UUID) error
}
