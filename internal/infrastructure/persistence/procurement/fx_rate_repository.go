package procurement

import (
	"context"

	"github.com/erp/backend/internal/domain/procurement"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormFxRateRepository implements procurement.FxRateRepository using GORM.
type GormFxRateRepository struct {
	db *gorm.DB
}

// NewGormFxRateRepository creates a new GormFxRateRepository.
func NewGormFxRateRepository(db *gorm.DB) *GormFxRateRepository {
	return &GormFxRateRepository{db: db}
}

// FindDirect returns candidate rates for base -> quote, most recent first.
func (r *GormFxRateRepository) FindDirect(ctx context.Context, tenantID uuid.UUID, base, quote string) ([]procurement.FxRate, error) {
	var rates []procurement.FxRate
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND base_currency = ? AND quote_currency = ?", tenantID, base, quote).
		Order("as_of_date DESC").
		Find(&rates).Error
	return rates, err
}

// FindInverse returns candidate rates for quote -> base, the inverse-fallback
// set consulted when no direct rate exists (spec.md §9).
func (r *GormFxRateRepository) FindInverse(ctx context.Context, tenantID uuid.UUID, base, quote string) ([]procurement.FxRate, error) {
	var rates []procurement.FxRate
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND base_currency = ? AND quote_currency = ?", tenantID, quote, base).
		Order("as_of_date DESC").
		Find(&rates).Error
	return rates, err
}

func (r *GormFxRateRepository) Save(ctx context.Context, rate *procurement.FxRate) error {
	return r.db.WithContext(ctx).Save(rate).Error
}

var _ procurement.FxRateRepository = (*GormFxRateRepository)(nil)
