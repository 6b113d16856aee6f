package procurement

import (
	"context"

	"github.com/erp/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// BudgetRepository persists Budget aggregates and exposes the row-locked,
// transactional primitives the Budget Engine is built on (spec.md §4.2
// "row-level pessimistic locking ... required by the Budget Engine"; §4.5
// "check-and-reserve must be performed in the same transaction, with the
// Budget row locked for update"). Gateway-style atomic operations are
// favored over leaking a raw transaction handle into the domain layer.
type BudgetRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Budget, error)
	FindByPeriod(ctx context.Context, tenantID, departmentID uuid.UUID, fiscalYear, quarter int) (*Budget, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Budget, error)
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)
	Save(ctx context.Context, b *Budget) error

	// CheckAndReserve locks the Budget row matching (department, fiscalYear,
	// quarter) for update, sums its COMMITTED reservations, and — if
	// total-spent-reserved >= amountCents — inserts a new COMMITTED
	// BudgetReservation for (entityType, entityID) and increments nothing
	// else, all within one transaction. Returns the reservation on success.
	// Returns a shared.DomainError with code CodeBudgetNotFound or
	// CodeBudgetExceeded on failure; in the exceeded case availableCents
	// is returned alongside the error for the caller to surface as 422
	// context.
	CheckAndReserve(ctx context.Context, tenantID, departmentID uuid.UUID, fiscalYear, quarter int, entityType ReservationEntityType, entityID uuid.UUID, amountCents int64) (reservation *BudgetReservation, availableCents int64, err error)

	// ReleaseReservation transitions the COMMITTED reservation for
	// (entityType, entityID) to RELEASED.
	ReleaseReservation(ctx context.Context, tenantID uuid.UUID, entityType ReservationEntityType, entityID uuid.UUID) error

	// CommitSpent transitions the COMMITTED reservation for (entityType,
	// entityID) to SPENT and increments the owning Budget's spent_cents by
	// the reservation amount, under the same row lock, in one transaction.
	CommitSpent(ctx context.Context, tenantID uuid.UUID, entityType ReservationEntityType, entityID uuid.UUID) error
}

// BudgetReservationRepository persists BudgetReservation aggregates for
// read paths outside the locked Budget Engine operations above (listing,
// auditing).
type BudgetReservationRepository interface {
	FindByEntity(ctx context.Context, tenantID uuid.UUID, entityType ReservationEntityType, entityID uuid.UUID) (*BudgetReservation, error)
	FindByBudget(ctx context.Context, tenantID, budgetID uuid.UUID) ([]BudgetReservation, error)
}
