package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/hims/backend/internal/domain/advance"
	"github.com/hims/backend/internal/domain/shared"
)

// GormAdvanceRepository implements AdvanceRepository using GORM
type GormAdvanceRepository struct {
	db *gorm.DB
}

// NewGormAdvanceRepository creates a new GormAdvanceRepository
func NewGormAdvanceRepository(db *gorm.DB) *GormAdvanceRepository {
	return &GormAdvanceRepository{db: db}
}

// FindByID finds an advance deposit by its ID
func (r *GormAdvanceRepository) FindByID(ctx context.Context, id uuid.UUID) (*advance.AdvanceDeposit, error) {
	var deposit advance.AdvanceDeposit
	if err := r.db.WithContext(ctx).
		First(&deposit, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &deposit, nil
}

// FindByPatient finds a patient's deposits matching the filter
func (r *GormAdvanceRepository) FindByPatient(ctx context.Context, patientID uuid.UUID, filter advance.AdvanceFilter) ([]advance.AdvanceDeposit, error) {
	var deposits []advance.AdvanceDeposit
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&advance.AdvanceDeposit{}).
			Where("patient_id = ?", patientID),
		filter,
	)

	if err := query.Find(&deposits).Error; err != nil {
		return nil, err
	}
	return deposits, nil
}

// FindAvailableByPatientForUpdate loads the patient's non-voided deposits
// with a positive balance, row-locked for the current transaction and
// ordered oldest-received first. The id tiebreaker keeps the lock order
// total when deposits share a received_at timestamp.
func (r *GormAdvanceRepository) FindAvailableByPatientForUpdate(ctx context.Context, patientID uuid.UUID) ([]advance.AdvanceDeposit, error) {
	var deposits []advance.AdvanceDeposit
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("patient_id = ? AND is_voided = ? AND balance_remaining > 0", patientID, false).
		Order("received_at ASC, id ASC").
		Find(&deposits).Error; err != nil {
		return nil, err
	}
	return deposits, nil
}

// Save creates or updates an advance deposit
func (r *GormAdvanceRepository) Save(ctx context.Context, deposit *advance.AdvanceDeposit) error {
	return r.db.WithContext(ctx).Save(deposit).Error
}

// SaveWithLock saves with optimistic locking (version check)
func (r *GormAdvanceRepository) SaveWithLock(ctx context.Context, deposit *advance.AdvanceDeposit) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var currentVersion int
		if err := tx.Model(&advance.AdvanceDeposit{}).
			Where("id = ?", deposit.ID).
			Select("version").
			Scan(&currentVersion).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return shared.ErrNotFound
			}
			return err
		}

		if currentVersion != deposit.Version {
			return shared.NewDomainError("CONCURRENT_MODIFICATION", "The deposit has been modified by another user")
		}

		deposit.Version++
		deposit.UpdatedAt = time.Now()

		result := tx.Model(&advance.AdvanceDeposit{}).
			Where("id = ? AND version = ?", deposit.ID, currentVersion).
			Updates(map[string]interface{}{
				"balance_remaining": deposit.BalanceRemaining,
				"remarks":           deposit.Remarks,
				"is_voided":         deposit.IsVoided,
				"void_reason":       deposit.VoidReason,
				"version":           deposit.Version,
				"updated_at":        deposit.UpdatedAt,
			})

		if result.Error != nil {
			return result.Error
		}

		if result.RowsAffected == 0 {
			return shared.NewDomainError("CONCURRENT_MODIFICATION", "The deposit has been modified by another user")
		}

		return nil
	})
}

// SumAvailableByPatient returns the patient's total remaining balance
func (r *GormAdvanceRepository) SumAvailableByPatient(ctx context.Context, patientID uuid.UUID) (decimal.Decimal, error) {
	var sum decimal.NullDecimal
	if err := r.db.WithContext(ctx).
		Model(&advance.AdvanceDeposit{}).
		Where("patient_id = ? AND is_voided = ?", patientID, false).
		Select("SUM(balance_remaining)").
		Scan(&sum).Error; err != nil {
		return decimal.Zero, err
	}
	if !sum.Valid {
		return decimal.Zero, nil
	}
	return sum.Decimal, nil
}

// Count counts deposits matching the filter
func (r *GormAdvanceRepository) Count(ctx context.Context, filter advance.AdvanceFilter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(
		r.db.WithContext(ctx).Model(&advance.AdvanceDeposit{}),
		filter,
	)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// applyFilter applies filter options to the query
func (r *GormAdvanceRepository) applyFilter(query *gorm.DB, filter advance.AdvanceFilter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	if filter.OrderBy != "" {
		orderBy := ValidateSortField(filter.OrderBy, AdvanceSortFields, "received_at")
		query = query.Order(orderBy + " " + ValidateSortOrder(filter.OrderDir))
	} else {
		query = query.Order("received_at DESC")
	}

	return query
}

// applyFilterWithoutPagination applies filter options without pagination
func (r *GormAdvanceRepository) applyFilterWithoutPagination(query *gorm.DB, filter advance.AdvanceFilter) *gorm.DB {
	if filter.Search != "" {
		searchPattern := "%" + strings.TrimSpace(filter.Search) + "%"
		query = query.Where("reference_no ILIKE ? OR remarks ILIKE ?",
			searchPattern, searchPattern)
	}

	if !filter.IncludeVoided {
		query = query.Where("is_voided = ?", false)
	}
	if filter.PatientID != nil {
		query = query.Where("patient_id = ?", *filter.PatientID)
	}
	if filter.ContextType != nil {
		query = query.Where("context_type = ?", *filter.ContextType)
	}
	if filter.ContextID != nil {
		query = query.Where("context_id = ?", *filter.ContextID)
	}
	if filter.FromDate != nil {
		query = query.Where("received_at >= ?", *filter.FromDate)
	}
	if filter.ToDate != nil {
		query = query.Where("received_at <= ?", *filter.ToDate)
	}

	return query
}

// Ensure GormAdvanceRepository implements AdvanceRepository
var _ advance.AdvanceRepository = (*GormAdvanceRepository)(nil)
