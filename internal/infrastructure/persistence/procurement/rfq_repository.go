package procurement

import (
	"context"
	"errors"

	"github.com/erp/backend/internal/domain/procurement"
	"github.com/erp/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormRfqRepository implements procurement.RfqRepository using GORM.
type GormRfqRepository struct {
	db *gorm.DB
}

// NewGormRfqRepository creates a new GormRfqRepository.
func NewGormRfqRepository(db *gorm.DB) *GormRfqRepository {
	return &GormRfqRepository{db: db}
}

func (r *GormRfqRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*procurement.Rfq, error) {
	var rfq procurement.Rfq
	err := r.db.WithContext(ctx).Preload("Items").Preload("Invites").Preload("Bids").
		Where("tenant_id = ? AND id = ?", tenantID, id).First(&rfq).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &rfq, nil
}

func (r *GormRfqRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]procurement.Rfq, error) {
	var rfqs []procurement.Rfq
	query := r.db.WithContext(ctx).Preload("Items").Preload("Invites").Preload("Bids").Where("tenant_id = ?", tenantID)
	query = applyProcurementFilter(query, filter)
	if err := query.Find(&rfqs).Error; err != nil {
		return nil, err
	}
	return rfqs, nil
}

func (r *GormRfqRepository) FindByStatus(ctx context.Context, tenantID uuid.UUID, status procurement.RfqStatus, filter shared.Filter) ([]procurement.Rfq, error) {
	var rfqs []procurement.Rfq
	query := r.db.WithContext(ctx).Preload("Items").Preload("Invites").Preload("Bids").
		Where("tenant_id = ? AND status = ?", tenantID, status)
	query = applyProcurementFilter(query, filter)
	if err := query.Find(&rfqs).Error; err != nil {
		return nil, err
	}
	return rfqs, nil
}

func (r *GormRfqRepository) Save(ctx context.Context, rfq *procurement.Rfq) error {
	return r.db.WithContext(ctx).Session(&gorm.Session{FullSaveAssociations: true}).Save(rfq).Error
}

func (r *GormRfqRepository) SaveWithLock(ctx context.Context, rfq *procurement.Rfq) error {
	result := r.db.WithContext(ctx).
		Model(&procurement.Rfq{}).
		Where("id = ? AND version = ?", rfq.ID, rfq.Version-1).
		Updates(map[string]interface{}{
			"status":            rfq.Status,
			"awarded_vendor_id": rfq.AwardedVendorID,
			"awarded_at":        rfq.AwardedAt,
			"awarded_po_id":     rfq.AwardedPoID,
			"version":           rfq.Version,
			"updated_at":        rfq.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainError("OPTIMISTIC_LOCK_FAILED", "rfq was modified by another transaction")
	}
	return nil
}

func (r *GormRfqRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&procurement.Rfq{}).Where("tenant_id = ?", tenantID).Count(&count).Error
	return count, err
}

var _ procurement.RfqRepository = (*GormRfqRepository)(nil)
