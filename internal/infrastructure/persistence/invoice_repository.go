package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hims/backend/internal/domain/billing"
	"github.com/hims/backend/internal/domain/shared"
)

// GormInvoiceRepository implements InvoiceRepository using GORM
type GormInvoiceRepository struct {
	db *gorm.DB
}

// NewGormInvoiceRepository creates a new GormInvoiceRepository
func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

// FindByID finds an invoice by its ID with items and payments
func (r *GormInvoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Invoice, error) {
	var invoice billing.Invoice
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Payments").
		First(&invoice, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &invoice, nil
}

// FindByInvoiceNumber finds an invoice by its invoice number
func (r *GormInvoiceRepository) FindByInvoiceNumber(ctx context.Context, invoiceNumber string) (*billing.Invoice, error) {
	var invoice billing.Invoice
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Payments").
		Where("invoice_number = ?", invoiceNumber).
		First(&invoice).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &invoice, nil
}

// FindAll finds invoices matching the filter
func (r *GormInvoiceRepository) FindAll(ctx context.Context, filter billing.InvoiceFilter) ([]billing.Invoice, error) {
	var invoices []billing.Invoice
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&billing.Invoice{}).Preload("Items").Preload("Payments"),
		filter,
	)

	if err := query.Find(&invoices).Error; err != nil {
		return nil, err
	}
	return invoices, nil
}

// FindByPatient finds invoices for a patient
func (r *GormInvoiceRepository) FindByPatient(ctx context.Context, patientID uuid.UUID, filter billing.InvoiceFilter) ([]billing.Invoice, error) {
	var invoices []billing.Invoice
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&billing.Invoice{}).
			Preload("Items").Preload("Payments").
			Where("patient_id = ?", patientID),
		filter,
	)

	if err := query.Find(&invoices).Error; err != nil {
		return nil, err
	}
	return invoices, nil
}

// FindActiveServiceItem finds the non-voided item billing the given service
// reference on any invoice that is not cancelled or reversed. Returns nil
// when the reference is unbilled.
func (r *GormInvoiceRepository) FindActiveServiceItem(ctx context.Context, ref billing.ServiceRef) (*billing.InvoiceItem, error) {
	var item billing.InvoiceItem
	err := r.db.WithContext(ctx).
		Model(&billing.InvoiceItem{}).
		Joins("JOIN invoices ON invoices.id = invoice_items.invoice_id").
		Where("invoice_items.service_type = ? AND invoice_items.service_ref_id = ?", ref.ServiceType, ref.ServiceRefID).
		Where("invoice_items.is_voided = ?", false).
		Where("invoices.status NOT IN ?", []string{
			billing.InvoiceStatusCancelled.String(),
			billing.InvoiceStatusReversed.String(),
		}).
		First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

// Save creates or updates an invoice together with its items and payments
func (r *GormInvoiceRepository) Save(ctx context.Context, invoice *billing.Invoice) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(invoice).Error; err != nil {
			if isInvoiceNumberConflict(err) {
				return billing.ErrDuplicateInvoiceNumber
			}
			return err
		}

		if invoice.ID != uuid.Nil {
			if err := r.syncChildren(tx, invoice); err != nil {
				return err
			}
		}

		return nil
	})
}

// SaveWithLock saves with optimistic locking (version check)
func (r *GormInvoiceRepository) SaveWithLock(ctx context.Context, invoice *billing.Invoice) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var currentVersion int
		if err := tx.Model(&billing.Invoice{}).
			Where("id = ?", invoice.ID).
			Select("version").
			Scan(&currentVersion).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return shared.ErrNotFound
			}
			return err
		}

		if currentVersion != invoice.Version {
			return shared.NewDomainError("CONCURRENT_MODIFICATION", "The invoice has been modified by another user")
		}

		invoice.Version++
		invoice.UpdatedAt = time.Now()

		result := tx.Model(&billing.Invoice{}).
			Where("id = ? AND version = ?", invoice.ID, currentVersion).
			Updates(map[string]interface{}{
				"billing_type":     invoice.BillingType,
				"context_type":     invoice.ContextType,
				"context_id":       invoice.ContextID,
				"consultant_id":    invoice.ConsultantID,
				"provider_id":      invoice.ProviderID,
				"remarks":          invoice.Remarks,
				"status":           invoice.Status,
				"gross_total":      invoice.GrossTotal,
				"tax_total":        invoice.TaxTotal,
				"net_total":        invoice.NetTotal,
				"amount_paid":      invoice.AmountPaid,
				"advance_adjusted": invoice.AdvanceAdjusted,
				"balance_due":      invoice.BalanceDue,
				"finalized_at":     invoice.FinalizedAt,
				"cancelled_at":     invoice.CancelledAt,
				"cancel_reason":    invoice.CancelReason,
				"version":          invoice.Version,
				"updated_at":       invoice.UpdatedAt,
			})

		if result.Error != nil {
			return result.Error
		}

		if result.RowsAffected == 0 {
			return shared.NewDomainError("CONCURRENT_MODIFICATION", "The invoice has been modified by another user")
		}

		return r.syncChildren(tx, invoice)
	})
}

// isInvoiceNumberConflict reports whether err is a unique violation on
// the invoice number column. GenerateInvoiceNumber reads the current
// maximum outside any lock, so two concurrent creates can mint the same
// number; the loser sees this conflict and regenerates.
func isInvoiceNumberConflict(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") && strings.Contains(msg, "invoice_number")
}

// syncChildren reconciles the stored items and payments with the aggregate
func (r *GormInvoiceRepository) syncChildren(tx *gorm.DB, invoice *billing.Invoice) error {
	currentItemIDs := make([]uuid.UUID, len(invoice.Items))
	for i, item := range invoice.Items {
		currentItemIDs[i] = item.ID
	}

	if len(currentItemIDs) > 0 {
		if err := tx.Where("invoice_id = ? AND id NOT IN ?", invoice.ID, currentItemIDs).
			Delete(&billing.InvoiceItem{}).Error; err != nil {
			return err
		}
	} else {
		if err := tx.Where("invoice_id = ?", invoice.ID).
			Delete(&billing.InvoiceItem{}).Error; err != nil {
			return err
		}
	}

	for i := range invoice.Items {
		invoice.Items[i].InvoiceID = invoice.ID
		if err := tx.Save(&invoice.Items[i]).Error; err != nil {
			// the partial unique index backs the anti-double-billing rule
			// when two transactions race past the application-level check
			if strings.Contains(err.Error(), "uq_invoice_items_active_service_ref") {
				return shared.NewDomainError("SERVICE_ALREADY_BILLED", "Service is already billed on another invoice")
			}
			return err
		}
	}

	currentPaymentIDs := make([]uuid.UUID, len(invoice.Payments))
	for i, payment := range invoice.Payments {
		currentPaymentIDs[i] = payment.ID
	}

	if len(currentPaymentIDs) > 0 {
		if err := tx.Where("invoice_id = ? AND id NOT IN ?", invoice.ID, currentPaymentIDs).
			Delete(&billing.Payment{}).Error; err != nil {
			return err
		}
	} else {
		if err := tx.Where("invoice_id = ?", invoice.ID).
			Delete(&billing.Payment{}).Error; err != nil {
			return err
		}
	}

	for i := range invoice.Payments {
		invoice.Payments[i].InvoiceID = invoice.ID
		if err := tx.Save(&invoice.Payments[i]).Error; err != nil {
			return err
		}
	}

	return nil
}

// Count counts invoices matching the filter
func (r *GormInvoiceRepository) Count(ctx context.Context, filter billing.InvoiceFilter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(
		r.db.WithContext(ctx).Model(&billing.Invoice{}),
		filter,
	)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ExistsByInvoiceNumber checks if an invoice number is already in use
func (r *GormInvoiceRepository) ExistsByInvoiceNumber(ctx context.Context, invoiceNumber string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&billing.Invoice{}).
		Where("invoice_number = ?", invoiceNumber).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// GenerateInvoiceNumber generates a unique invoice number for the billing type
// Format: INV-<PREFIX>-YYYYMM-NNNNN (e.g., INV-OP-202609-00001)
func (r *GormInvoiceRepository) GenerateInvoiceNumber(ctx context.Context, billingType billing.BillingType) (string, error) {
	period := time.Now().Format("200601")
	prefix := fmt.Sprintf("INV-%s-%s-", billingType.NumberPrefix(), period)

	// Get the highest invoice number for this prefix and period
	var lastInvoice billing.Invoice
	err := r.db.WithContext(ctx).
		Model(&billing.Invoice{}).
		Where("invoice_number LIKE ?", prefix+"%").
		Order("invoice_number DESC").
		First(&lastInvoice).Error

	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}

	var nextNum int64 = 1
	if err == nil && lastInvoice.InvoiceNumber != "" {
		parts := strings.Split(lastInvoice.InvoiceNumber, "-")
		if len(parts) == 4 {
			var num int64
			_, parseErr := fmt.Sscanf(parts[3], "%d", &num)
			if parseErr == nil {
				nextNum = num + 1
			}
		}
	}

	invoiceNumber := fmt.Sprintf("%s%05d", prefix, nextNum)

	// Verify uniqueness
	exists, err := r.ExistsByInvoiceNumber(ctx, invoiceNumber)
	if err != nil {
		return "", err
	}
	if exists {
		// If exists, try incrementing until we find a unique one
		for i := 0; i < 100; i++ {
			nextNum++
			invoiceNumber = fmt.Sprintf("%s%05d", prefix, nextNum)
			exists, err = r.ExistsByInvoiceNumber(ctx, invoiceNumber)
			if err != nil {
				return "", err
			}
			if !exists {
				break
			}
		}
	}

	return invoiceNumber, nil
}

// applyFilter applies filter options to the query
func (r *GormInvoiceRepository) applyFilter(query *gorm.DB, filter billing.InvoiceFilter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	// Apply pagination
	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	// Apply ordering
	if filter.OrderBy != "" {
		orderBy := ValidateSortField(filter.OrderBy, InvoiceSortFields, "created_at")
		query = query.Order(orderBy + " " + ValidateSortOrder(filter.OrderDir))
	} else {
		query = query.Order("created_at DESC")
	}

	return query
}

// applyFilterWithoutPagination applies filter options without pagination
func (r *GormInvoiceRepository) applyFilterWithoutPagination(query *gorm.DB, filter billing.InvoiceFilter) *gorm.DB {
	if filter.Search != "" {
		searchPattern := "%" + filter.Search + "%"
		query = query.Where("invoice_number ILIKE ? OR remarks ILIKE ?",
			searchPattern, searchPattern)
	}

	if filter.PatientID != nil {
		query = query.Where("patient_id = ?", *filter.PatientID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.BillingType != nil {
		query = query.Where("billing_type = ?", *filter.BillingType)
	}
	if filter.ContextType != nil {
		query = query.Where("context_type = ?", *filter.ContextType)
	}
	if filter.ContextID != nil {
		query = query.Where("context_id = ?", *filter.ContextID)
	}
	if filter.FromDate != nil {
		query = query.Where("created_at >= ?", *filter.FromDate)
	}
	if filter.ToDate != nil {
		query = query.Where("created_at <= ?", *filter.ToDate)
	}

	return query
}

// Ensure GormInvoiceRepository implements InvoiceRepository
var _ billing.InvoiceRepository = (*GormInvoiceRepository)(nil)
