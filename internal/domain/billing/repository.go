package billing

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/hims/backend/internal/domain/shared"
)

// ErrDuplicateInvoiceNumber is returned by Save when the invoice number
// lost the race against a concurrent create. Callers regenerate the
// number and retry.
var ErrDuplicateInvoiceNumber = shared.NewDomainError("DUPLICATE_INVOICE_NUMBER", "Invoice number is already in use")

// InvoiceFilter defines filtering options for invoice queries
type InvoiceFilter struct {
	shared.Filter
	PatientID   *uuid.UUID     // Filter by patient
	Status      *InvoiceStatus // Filter by status
	BillingType *BillingType   // Filter by billing type
	ContextType *string        // Filter by clinical context type
	ContextID   *uuid.UUID     // Filter by clinical context
	FromDate    *time.Time     // Filter by creation date range start
	ToDate      *time.Time     // Filter by creation date range end
}

// InvoiceRepository defines the interface for invoice persistence.
// Implementations must load the full aggregate (items and payments)
// on every Find.
type InvoiceRepository interface {
	// FindByID finds an invoice by ID with its items and payments
	FindByID(ctx context.Context, id uuid.UUID) (*Invoice, error)

	// FindByInvoiceNumber finds an invoice by its human-facing number
	FindByInvoiceNumber(ctx context.Context, invoiceNumber string) (*Invoice, error)

	// FindAll finds invoices matching the filter
	FindAll(ctx context.Context, filter InvoiceFilter) ([]Invoice, error)

	// FindByPatient finds invoices for a patient
	FindByPatient(ctx context.Context, patientID uuid.UUID, filter InvoiceFilter) ([]Invoice, error)

	// FindActiveServiceItem finds the non-voided item billing the given
	// service reference on any non-cancelled invoice. Returns nil when
	// the reference is unbilled. Callers enforcing the anti-double-billing
	// rule must call this inside the mutating transaction.
	FindActiveServiceItem(ctx context.Context, ref ServiceRef) (*InvoiceItem, error)

	// Save creates or updates an invoice together with its items and payments
	Save(ctx context.Context, invoice *Invoice) error

	// SaveWithLock saves with optimistic locking (version check)
	SaveWithLock(ctx context.Context, invoice *Invoice) error

	// Count counts invoices matching the filter
	Count(ctx context.Context, filter InvoiceFilter) (int64, error)

	// GenerateInvoiceNumber generates a unique invoice number for the billing type
	GenerateInvoiceNumber(ctx context.Context, billingType BillingType) (string, error)
}
