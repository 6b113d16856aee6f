package procurement

import (
	"fmt"
	"time"

	"github.com/erp/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Budget is the (tenant, department, fiscal_year, quarter)-unique
// departmental allowance that the Budget Engine (application/procurement)
// checks and reserves against under a row-level lock.
type Budget struct {
	shared.TenantAggregateRoot
	DepartmentID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_budget_period,priority:2"`
	FiscalYear   int       `gorm:"not null;uniqueIndex:idx_budget_period,priority:3"`
	Quarter      int       `gorm:"not null;uniqueIndex:idx_budget_period,priority:4"` // 1-4
	TotalCents   int64     `gorm:"not null"`
	SpentCents   int64     `gorm:"not null;default:0"`
}

func (Budget) TableName() string {
	return "budgets"
}

// NewBudget creates a new quarterly departmental budget.
func NewBudget(tenantID, departmentID uuid.UUID, fiscalYear, quarter int, totalCents int64) (*Budget, error) {
	if totalCents <= 0 {
		return nil, shared.NewDomainError("INVALID_BUDGET_TOTAL", "budget total_cents must be positive")
	}
	if quarter < 1 || quarter > 4 {
		return nil, shared.NewDomainError("INVALID_QUARTER", "quarter must be between 1 and 4")
	}

	return &Budget{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		DepartmentID:        departmentID,
		FiscalYear:          fiscalYear,
		Quarter:             quarter,
		TotalCents:          totalCents,
		SpentCents:          0,
	}, nil
}

// AvailableCents returns total - spent - reserved, given the sum of
// currently COMMITTED reservations (computed by the repository under lock).
func (b *Budget) AvailableCents(reservedCents int64) int64 {
	return b.TotalCents - b.SpentCents - reservedCents
}

// CommitSpent atomically increases spent_cents by amountCents. Must be
// called while the Budget row is held under the same pessimistic lock
// used to read it (P1 non-overdraft invariant).
func (b *Budget) CommitSpent(amountCents int64) error {
	if amountCents <= 0 {
		return shared.NewDomainError("INVALID_AMOUNT", "commit amount must be positive")
	}
	if b.SpentCents+amountCents > b.TotalCents {
		return shared.NewDomainError(shared.CodeBudgetExceeded, fmt.Sprintf("committing %d would exceed budget total %d", amountCents, b.TotalCents))
	}
	b.SpentCents += amountCents
	b.UpdatedAt = time.Now()
	b.IncrementVersion()
	return nil
}

// FiscalPeriod returns (year, quarter) for a UTC instant: quarter = floor((month-1)/3)+1.
func FiscalPeriod(t time.Time) (int, int) {
	t = t.UTC()
	quarter := (int(t.Month())-1)/3 + 1
	return t.Year(), quarter
}

// ReservationEntityType enumerates what a BudgetReservation points at.
type ReservationEntityType string

const (
	ReservationEntityPR      ReservationEntityType = "PR"
	ReservationEntityPO      ReservationEntityType = "PO"
	ReservationEntityInvoice ReservationEntityType = "INVOICE"
)

// ReservationStatus is the lifecycle of a BudgetReservation.
type ReservationStatus string

const (
	ReservationStatusCommitted ReservationStatus = "COMMITTED"
	ReservationStatusSpent     ReservationStatus = "SPENT"
	ReservationStatusReleased  ReservationStatus = "RELEASED"
)

// BudgetReservation is a soft hold on budget capacity, uniquely keyed by
// (entity_type, entity_id) — a polymorphic back-reference with no FK
// (spec.md §9 "Polymorphic back-references").
type BudgetReservation struct {
	shared.TenantAggregateRoot
	BudgetID    uuid.UUID             `gorm:"type:uuid;not null;index"`
	EntityType  ReservationEntityType `gorm:"type:varchar(20);not null;uniqueIndex:idx_reservation_entity,priority:2"`
	EntityID    uuid.UUID             `gorm:"type:uuid;not null;uniqueIndex:idx_reservation_entity,priority:3"`
	AmountCents int64                 `gorm:"not null"`
	Status      ReservationStatus     `gorm:"type:varchar(20);not null;default:'COMMITTED'"`
	ReleasedAt  *time.Time
}

func (BudgetReservation) TableName() string {
	return "budget_reservations"
}

// NewBudgetReservation creates a COMMITTED reservation against a budget.
func NewBudgetReservation(tenantID, budgetID uuid.UUID, entityType ReservationEntityType, entityID uuid.UUID, amountCents int64) (*BudgetReservation, error) {
	if amountCents <= 0 {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "reservation amount must be positive")
	}

	return &BudgetReservation{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		BudgetID:            budgetID,
		EntityType:          entityType,
		EntityID:            entityID,
		AmountCents:         amountCents,
		Status:              ReservationStatusCommitted,
	}, nil
}

// Release transitions COMMITTED -> RELEASED, stamping released_at.
func (r *BudgetReservation) Release() error {
	if r.Status != ReservationStatusCommitted {
		return shared.NewDomainError(shared.CodeStateMismatch, "only a COMMITTED reservation may be released")
	}
	now := time.Now()
	r.Status = ReservationStatusReleased
	r.ReleasedAt = &now
	r.UpdatedAt = now
	r.IncrementVersion()
	return nil
}

// MarkSpent transitions COMMITTED -> SPENT. Callers must increment the
// referenced Budget's spent_cents in the same transaction/lock.
func (r *BudgetReservation) MarkSpent() error {
	if r.Status != ReservationStatusCommitted {
		return shared.NewDomainError(shared.CodeStateMismatch, "only a COMMITTED reservation may be marked spent")
	}
	r.Status = ReservationStatusSpent
	r.UpdatedAt = time.Now()
	r.IncrementVersion()
	return nil
}
