package procurement

import (
	"context"
	"errors"

	"github.com/erp/backend/internal/domain/procurement"
	"github.com/erp/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormBudgetReservationRepository implements procurement.BudgetReservationRepository
// for read paths outside the locked Budget Engine transactions.
type GormBudgetReservationRepository struct {
	db *gorm.DB
}

// NewGormBudgetReservationRepository creates a new GormBudgetReservationRepository.
func NewGormBudgetReservationRepository(db *gorm.DB) *GormBudgetReservationRepository {
	return &GormBudgetReservationRepository{db: db}
}

func (r *GormBudgetReservationRepository) FindByEntity(ctx context.Context, tenantID uuid.UUID, entityType procurement.ReservationEntityType, entityID uuid.UUID) (*procurement.BudgetReservation, error) {
	var res procurement.BudgetReservation
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND entity_type = ? AND entity_id = ?", tenantID, entityType, entityID).
		First(&res).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &res, nil
}

func (r *GormBudgetReservationRepository) FindByBudget(ctx context.Context, tenantID, budgetID uuid.UUID) ([]procurement.BudgetReservation, error) {
	var reservations []procurement.BudgetReservation
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND budget_id = ?", tenantID, budgetID).
		Order("created_at DESC").
		Find(&reservations).Error
	if err != nil {
		return nil, err
	}
	return reservations, nil
}
