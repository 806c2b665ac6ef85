package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hims/backend/internal/domain/advance"
	"github.com/hims/backend/internal/domain/shared"
)

// GormAdvanceAdjustmentRepository implements AdvanceAdjustmentRepository using GORM
type GormAdvanceAdjustmentRepository struct {
	db *gorm.DB
}

// NewGormAdvanceAdjustmentRepository creates a new GormAdvanceAdjustmentRepository
func NewGormAdvanceAdjustmentRepository(db *gorm.DB) *GormAdvanceAdjustmentRepository {
	return &GormAdvanceAdjustmentRepository{db: db}
}

// FindByID finds an adjustment by its ID
func (r *GormAdvanceAdjustmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*advance.AdvanceAdjustment, error) {
	var adjustment advance.AdvanceAdjustment
	if err := r.db.WithContext(ctx).
		First(&adjustment, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &adjustment, nil
}

// FindByInvoice finds all adjustments applied to an invoice
func (r *GormAdvanceAdjustmentRepository) FindByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]advance.AdvanceAdjustment, error) {
	var adjustments []advance.AdvanceAdjustment
	if err := r.db.WithContext(ctx).
		Where("invoice_id = ?", invoiceID).
		Order("applied_at ASC").
		Find(&adjustments).Error; err != nil {
		return nil, err
	}
	return adjustments, nil
}

// FindByAdvance finds all adjustments funded by a deposit
func (r *GormAdvanceAdjustmentRepository) FindByAdvance(ctx context.Context, advanceID uuid.UUID) ([]advance.AdvanceAdjustment, error) {
	var adjustments []advance.AdvanceAdjustment
	if err := r.db.WithContext(ctx).
		Where("advance_id = ?", advanceID).
		Order("applied_at ASC").
		Find(&adjustments).Error; err != nil {
		return nil, err
	}
	return adjustments, nil
}

// Save creates an adjustment record
func (r *GormAdvanceAdjustmentRepository) Save(ctx context.Context, adjustment *advance.AdvanceAdjustment) error {
	return r.db.WithContext(ctx).Save(adjustment).Error
}

// Delete removes an adjustment record
func (r *GormAdvanceAdjustmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&advance.AdvanceAdjustment{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Ensure GormAdvanceAdjustmentRepository implements AdvanceAdjustmentRepository
var _ advance.AdvanceAdjustmentRepository = (*GormAdvanceAdjustmentRepository)(nil)
