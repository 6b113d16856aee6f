package procurement

import (
	"context"
	"errors"
	"time"

	"github.com/erp/backend/internal/domain/procurement"
	"github.com/erp/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormContractRepository implements procurement.ContractRepository using GORM.
type GormContractRepository struct {
	db *gorm.DB
}

// NewGormContractRepository creates a new GormContractRepository.
func NewGormContractRepository(db *gorm.DB) *GormContractRepository {
	return &GormContractRepository{db: db}
}

func (r *GormContractRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*procurement.Contract, error) {
	var contract procurement.Contract
	err := r.db.WithContext(ctx).Where("tenant_id = ? AND id = ?", tenantID, id).First(&contract).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &contract, nil
}

func (r *GormContractRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]procurement.Contract, error) {
	var contracts []procurement.Contract
	query := r.db.WithContext(ctx).Where("tenant_id = ?", tenantID)
	query = applyProcurementFilter(query, filter)
	if err := query.Find(&contracts).Error; err != nil {
		return nil, err
	}
	return contracts, nil
}

func (r *GormContractRepository) FindByVendor(ctx context.Context, tenantID, vendorID uuid.UUID) ([]procurement.Contract, error) {
	var contracts []procurement.Contract
	err := r.db.WithContext(ctx).Where("tenant_id = ? AND vendor_id = ?", tenantID, vendorID).Find(&contracts).Error
	return contracts, err
}

// FindExpiringWithin finds contracts whose expiry falls within the given
// window from now — the set the document-expiry sweep (spec.md §4.9) warns
// against at 30/14/7/3-day checkpoints.
func (r *GormContractRepository) FindExpiringWithin(ctx context.Context, tenantID uuid.UUID, within time.Duration) ([]procurement.Contract, error) {
	var contracts []procurement.Contract
	now := time.Now()
	cutoff := now.Add(within)
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND expiry_date > ? AND expiry_date <= ? AND terminated_at IS NULL", tenantID, now, cutoff).
		Find(&contracts).Error
	return contracts, err
}

func (r *GormContractRepository) Save(ctx context.Context, contract *procurement.Contract) error {
	return r.db.WithContext(ctx).Save(contract).Error
}

func (r *GormContractRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&procurement.Contract{}).Where("tenant_id = ?", tenantID).Count(&count).Error
	return count, err
}

var _ procurement.ContractRepository = (*GormContractRepository)(nil)
