package procurement

import (
	"context"
	"errors"

	"github.com/erp/backend/internal/domain/procurement"
	"github.com/erp/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormVendorRepository implements procurement.VendorRepository using GORM.
type GormVendorRepository struct {
	db *gorm.DB
}

// NewGormVendorRepository creates a new GormVendorRepository.
func NewGormVendorRepository(db *gorm.DB) *GormVendorRepository {
	return &GormVendorRepository{db: db}
}

func (r *GormVendorRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*procurement.Vendor, error) {
	var v procurement.Vendor
	err := r.db.WithContext(ctx).Where("tenant_id = ? AND id = ?", tenantID, id).First(&v).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &v, nil
}

func (r *GormVendorRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]procurement.Vendor, error) {
	var vendors []procurement.Vendor
	query := r.db.WithContext(ctx).Where("tenant_id = ?", tenantID)
	query = applyProcurementFilter(query, filter)
	if err := query.Find(&vendors).Error; err != nil {
		return nil, err
	}
	return vendors, nil
}

func (r *GormVendorRepository) FindByStatus(ctx context.Context, tenantID uuid.UUID, status procurement.VendorStatus, filter shared.Filter) ([]procurement.Vendor, error) {
	var vendors []procurement.Vendor
	query := r.db.WithContext(ctx).Where("tenant_id = ? AND status = ?", tenantID, status)
	query = applyProcurementFilter(query, filter)
	if err := query.Find(&vendors).Error; err != nil {
		return nil, err
	}
	return vendors, nil
}

func (r *GormVendorRepository) Save(ctx context.Context, v *procurement.Vendor) error {
	return r.db.WithContext(ctx).Save(v).Error
}

func (r *GormVendorRepository) SaveWithLock(ctx context.Context, v *procurement.Vendor) error {
	result := r.db.WithContext(ctx).
		Model(&procurement.Vendor{}).
		Where("id = ? AND version = ?", v.ID, v.Version-1).
		Updates(map[string]interface{}{
			"legal_name": v.LegalName,
			"tax_id":     v.TaxID,
			"email":      v.Email,
			"status":     v.Status,
			"risk_score": v.RiskScore,
			"version":    v.Version,
			"updated_at": v.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainError("OPTIMISTIC_LOCK_FAILED", "vendor was modified by another transaction")
	}
	return nil
}

func (r *GormVendorRepository) DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("tenant_id = ? AND id = ?", tenantID, id).Delete(&procurement.Vendor{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *GormVendorRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&procurement.Vendor{}).Where("tenant_id = ?", tenantID)
	err := query.Count(&count).Error
	return count, err
}

func (r *GormVendorRepository) ExistsByTaxID(ctx context.Context, tenantID uuid.UUID, taxID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&procurement.Vendor{}).
		Where("tenant_id = ? AND tax_id = ?", tenantID, taxID).
		Count(&count).Error
	return count > 0, err
}

func (r *GormVendorRepository) ExistsByEmail(ctx context.Context, tenantID uuid.UUID, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&procurement.Vendor{}).
		Where("tenant_id = ? AND email = ?", tenantID, email).
		Count(&count).Error
	return count > 0, err
}
