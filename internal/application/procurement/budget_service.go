package procurement

import (
	"context"
	"time"

	"github.com/erp/backend/internal/domain/procurement"
	"github.com/erp/backend/internal/domain/shared"
	"github.com/erp/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
)

// BudgetService implements the Budget Engine (spec.md §4.5): check, reserve,
// release and commit_spent against a departmental quarterly budget, with
// concurrent claims serialized through the repository's row-locked
// CheckAndReserve transaction.
type BudgetService struct {
	budgets         procurement.BudgetRepository
	reservations    procurement.BudgetReservationRepository
	eventPublisher  shared.EventPublisher
	businessMetrics *telemetry.BusinessMetrics
}

// NewBudgetService creates a new BudgetService.
func NewBudgetService(budgets procurement.BudgetRepository, reservations procurement.BudgetReservationRepository) *BudgetService {
	return &BudgetService{budgets: budgets, reservations: reservations}
}

// SetEventPublisher sets the event publisher for cross-context integration.
func (s *BudgetService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetBusinessMetrics wires optional business metrics recording.
func (s *BudgetService) SetBusinessMetrics(metrics *telemetry.BusinessMetrics) {
	s.businessMetrics = metrics
}

// CurrentFiscalPeriod exposes the fiscal-period helper (spec.md §4.5) for
// callers constructing a reservation against "now".
func (s *BudgetService) CurrentFiscalPeriod() (year, quarter int) {
	return procurement.FiscalPeriod(time.Now())
}

// Reserve performs check-and-reserve atomically: it loads the Budget row
// matching (departmentID, fiscalYear, quarter) under a row lock, sums its
// COMMITTED reservations, and either inserts a COMMITTED BudgetReservation
// for (entityType, entityID) or fails with BUDGET_NOT_FOUND / BUDGET_EXCEEDED.
// The unique (entity_type, entity_id) constraint on BudgetReservation
// prevents double-reservation of the same entity.
func (s *BudgetService) Reserve(ctx context.Context, tenantID, departmentID uuid.UUID, fiscalYear, quarter int, entityType procurement.ReservationEntityType, entityID uuid.UUID, amountCents int64) (*procurement.BudgetReservation, error) {
	reservation, available, err := s.budgets.CheckAndReserve(ctx, tenantID, departmentID, fiscalYear, quarter, entityType, entityID, amountCents)
	if err != nil {
		if s.businessMetrics != nil {
			s.businessMetrics.RecordBudgetCheckFailure(string(entityType))
		}
		if domainErr, ok := err.(*shared.DomainError); ok && domainErr.Code == shared.CodeBudgetExceeded {
			return nil, shared.NewDomainErrorWithDetail(shared.CodeBudgetExceeded, domainErr.Message, map[string]interface{}{
				"available_cents": available,
				"requested_cents": amountCents,
			})
		}
		return nil, err
	}

	if s.businessMetrics != nil {
		s.businessMetrics.RecordBudgetCheckSuccess(string(entityType))
	}
	if s.eventPublisher != nil {
		_ = s.eventPublisher.Publish(ctx, procurement.NewBudgetReservedEvent(tenantID, reservation.ID, reservation.BudgetID, entityType, entityID, amountCents))
	}
	return reservation, nil
}

// Release transitions a COMMITTED reservation to RELEASED, freeing its
// capacity back to the budget (e.g. on PR rejection or PO cancellation).
func (s *BudgetService) Release(ctx context.Context, tenantID uuid.UUID, entityType procurement.ReservationEntityType, entityID uuid.UUID) error {
	if err := s.budgets.ReleaseReservation(ctx, tenantID, entityType, entityID); err != nil {
		return err
	}
	if s.eventPublisher != nil {
		_ = s.eventPublisher.Publish(ctx, procurement.NewBudgetReleasedEvent(tenantID, entityType, entityID))
	}
	return nil
}

// Create opens a new departmental quarterly budget.
func (s *BudgetService) Create(ctx context.Context, tenantID, departmentID uuid.UUID, fiscalYear, quarter int, totalCents int64) (*procurement.Budget, error) {
	budget, err := procurement.NewBudget(tenantID, departmentID, fiscalYear, quarter, totalCents)
	if err != nil {
		return nil, err
	}
	if err := s.budgets.Save(ctx, budget); err != nil {
		return nil, err
	}
	return budget, nil
}

// Get loads a budget by id within its tenant.
func (s *BudgetService) Get(ctx context.Context, tenantID, budgetID uuid.UUID) (*procurement.Budget, error) {
	return s.budgets.FindByIDForTenant(ctx, tenantID, budgetID)
}

// List returns a filtered, paginated budget list for the tenant along
// with the total count of budgets matching the filter.
func (s *BudgetService) List(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]procurement.Budget, int64, error) {
	budgets, err := s.budgets.FindAllForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.budgets.CountForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, 0, err
	}
	return budgets, total, nil
}

// CommitSpent transitions a COMMITTED reservation to SPENT and atomically
// increments the owning Budget's spent_cents, under the same row lock
// (e.g. on invoice approval for payment).
func (s *BudgetService) CommitSpent(ctx context.Context, tenantID uuid.UUID, entityType procurement.ReservationEntityType, entityID uuid.UUID) error {
	if err := s.budgets.CommitSpent(ctx, tenantID, entityType, entityID); err != nil {
		return err
	}
	if s.eventPublisher != nil {
		_ = s.eventPublisher.Publish(ctx, procurement.NewBudgetSpentEvent(tenantID, entityType, entityID))
	}
	return nil
}
