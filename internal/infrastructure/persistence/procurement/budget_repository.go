package procurement

import (
	"errors"
	"strings"

	"context"

	"github.com/erp/backend/internal/domain/procurement"
	"github.com/erp/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormBudgetRepository implements procurement.BudgetRepository using GORM.
// Budget and BudgetReservation carry their gorm tags directly on the domain
// structs, so no separate models/ToDomain conversion layer is needed here.
type GormBudgetRepository struct {
	db *gorm.DB
}

// NewGormBudgetRepository creates a new GormBudgetRepository.
func NewGormBudgetRepository(db *gorm.DB) *GormBudgetRepository {
	return &GormBudgetRepository{db: db}
}

func (r *GormBudgetRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*procurement.Budget, error) {
	var b procurement.Budget
	err := r.db.WithContext(ctx).Where("tenant_id = ? AND id = ?", tenantID, id).First(&b).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewDomainError(shared.CodeBudgetNotFound, "budget not found")
		}
		return nil, err
	}
	return &b, nil
}

func (r *GormBudgetRepository) FindByPeriod(ctx context.Context, tenantID, departmentID uuid.UUID, fiscalYear, quarter int) (*procurement.Budget, error) {
	var b procurement.Budget
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND department_id = ? AND fiscal_year = ? AND quarter = ?", tenantID, departmentID, fiscalYear, quarter).
		First(&b).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewDomainError(shared.CodeBudgetNotFound, "budget not found for period")
		}
		return nil, err
	}
	return &b, nil
}

func (r *GormBudgetRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]procurement.Budget, error) {
	var budgets []procurement.Budget
	query := r.db.WithContext(ctx).Where("tenant_id = ?", tenantID)
	query = applyProcurementFilter(query, filter)
	if err := query.Find(&budgets).Error; err != nil {
		return nil, err
	}
	return budgets, nil
}

func (r *GormBudgetRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&procurement.Budget{}).Where("tenant_id = ?", tenantID).Count(&count).Error
	return count, err
}

func (r *GormBudgetRepository) Save(ctx context.Context, b *procurement.Budget) error {
	return r.db.WithContext(ctx).Save(b).Error
}

// CheckAndReserve locks the matching Budget row for update, sums its
// COMMITTED reservations, and inserts a new COMMITTED reservation if
// capacity allows — all inside one transaction (spec.md §4.5).
func (r *GormBudgetRepository) CheckAndReserve(ctx context.Context, tenantID, departmentID uuid.UUID, fiscalYear, quarter int, entityType procurement.ReservationEntityType, entityID uuid.UUID, amountCents int64) (*procurement.BudgetReservation, int64, error) {
	var reservation *procurement.BudgetReservation
	var available int64

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var b procurement.Budget
		lockErr := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("tenant_id = ? AND department_id = ? AND fiscal_year = ? AND quarter = ?", tenantID, departmentID, fiscalYear, quarter).
			First(&b).Error
		if lockErr != nil {
			if errors.Is(lockErr, gorm.ErrRecordNotFound) {
				return shared.NewDomainError(shared.CodeBudgetNotFound, "no matching budget for department and period")
			}
			return lockErr
		}

		var reservedCents int64
		if err := tx.Model(&procurement.BudgetReservation{}).
			Where("tenant_id = ? AND budget_id = ? AND status = ?", tenantID, b.ID, procurement.ReservationStatusCommitted).
			Select("COALESCE(SUM(amount_cents), 0)").
			Scan(&reservedCents).Error; err != nil {
			return err
		}

		available = b.AvailableCents(reservedCents)
		if available < amountCents {
			return shared.NewDomainError(shared.CodeBudgetExceeded, "requested amount exceeds available budget capacity")
		}

		res, resErr := procurement.NewBudgetReservation(tenantID, b.ID, entityType, entityID, amountCents)
		if resErr != nil {
			return resErr
		}
		if err := tx.Create(res).Error; err != nil {
			if isUniqueViolation(err) {
				return shared.NewDomainError(shared.CodeStateMismatch, "a reservation already exists for this entity")
			}
			return err
		}
		reservation = res
		return nil
	})
	if err != nil {
		return nil, available, err
	}
	return reservation, available, nil
}

// ReleaseReservation transitions the COMMITTED reservation for
// (entityType, entityID) to RELEASED.
func (r *GormBudgetRepository) ReleaseReservation(ctx context.Context, tenantID uuid.UUID, entityType procurement.ReservationEntityType, entityID uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var res procurement.BudgetReservation
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("tenant_id = ? AND entity_type = ? AND entity_id = ?", tenantID, entityType, entityID).
			First(&res).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return shared.ErrNotFound
			}
			return err
		}
		if err := res.Release(); err != nil {
			return err
		}
		return tx.Save(&res).Error
	})
}

// CommitSpent transitions the COMMITTED reservation for (entityType,
// entityID) to SPENT and increments the owning Budget's spent_cents, under
// the same row lock, in one transaction (spec.md §4.5 commit_spent).
func (r *GormBudgetRepository) CommitSpent(ctx context.Context, tenantID uuid.UUID, entityType procurement.ReservationEntityType, entityID uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var res procurement.BudgetReservation
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("tenant_id = ? AND entity_type = ? AND entity_id = ?", tenantID, entityType, entityID).
			First(&res).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return shared.ErrNotFound
			}
			return err
		}

		var b procurement.Budget
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("tenant_id = ? AND id = ?", tenantID, res.BudgetID).
			First(&b).Error; err != nil {
			return err
		}

		if err := res.MarkSpent(); err != nil {
			return err
		}
		if err := b.CommitSpent(res.AmountCents); err != nil {
			return err
		}
		if err := tx.Save(&res).Error; err != nil {
			return err
		}
		return tx.Save(&b).Error
	})
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "unique")
}
