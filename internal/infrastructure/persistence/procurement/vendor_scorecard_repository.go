package procurement

import (
	"context"
	"errors"

	"github.com/erp/backend/internal/domain/procurement"
	"github.com/erp/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormVendorScorecardRepository implements procurement.VendorScorecardRepository using GORM.
type GormVendorScorecardRepository struct {
	db *gorm.DB
}

// NewGormVendorScorecardRepository creates a new GormVendorScorecardRepository.
func NewGormVendorScorecardRepository(db *gorm.DB) *GormVendorScorecardRepository {
	return &GormVendorScorecardRepository{db: db}
}

func (r *GormVendorScorecardRepository) FindByVendor(ctx context.Context, tenantID, vendorID uuid.UUID) (*procurement.VendorScorecard, error) {
	var card procurement.VendorScorecard
	err := r.db.WithContext(ctx).Where("tenant_id = ? AND vendor_id = ?", tenantID, vendorID).First(&card).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &card, nil
}

func (r *GormVendorScorecardRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID) ([]procurement.VendorScorecard, error) {
	var cards []procurement.VendorScorecard
	if err := r.db.WithContext(ctx).Where("tenant_id = ?", tenantID).Find(&cards).Error; err != nil {
		return nil, err
	}
	return cards, nil
}

func (r *GormVendorScorecardRepository) Save(ctx context.Context, card *procurement.VendorScorecard) error {
	return r.db.WithContext(ctx).Save(card).Error
}

var _ procurement.VendorScorecardRepository = (*GormVendorScorecardRepository)(nil)
