package procurement

import (
	"github.com/erp/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// BudgetReservedEvent is raised when the Budget Engine commits a new
// reservation against a departmental budget (spec.md §4.5 reserve).
type BudgetReservedEvent struct {
	shared.BaseDomainEvent
	ReservationID uuid.UUID             `json:"reservation_id"`
	EntityType    ReservationEntityType `json:"entity_type"`
	EntityID      uuid.UUID             `json:"entity_id"`
	AmountCents   int64                 `json:"amount_cents"`
}

// NewBudgetReservedEvent creates a BudgetReservedEvent.
func NewBudgetReservedEvent(tenantID, reservationID, budgetID uuid.UUID, entityType ReservationEntityType, entityID uuid.UUID, amountCents int64) *BudgetReservedEvent {
	return &BudgetReservedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("budget.reserved", "Budget", budgetID, tenantID),
		ReservationID:   reservationID,
		EntityType:      entityType,
		EntityID:        entityID,
		AmountCents:     amountCents,
	}
}

// BudgetReleasedEvent is raised when a reservation is released.
type BudgetReleasedEvent struct {
	shared.BaseDomainEvent
	EntityType ReservationEntityType `json:"entity_type"`
	EntityID   uuid.UUID             `json:"entity_id"`
}

// NewBudgetReleasedEvent creates a BudgetReleasedEvent.
func NewBudgetReleasedEvent(tenantID uuid.UUID, entityType ReservationEntityType, entityID uuid.UUID) *BudgetReleasedEvent {
	return &BudgetReleasedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("budget.released", "BudgetReservation", entityID, tenantID),
		EntityType:      entityType,
		EntityID:        entityID,
	}
}

// BudgetSpentEvent is raised when a reservation is committed to spent.
type BudgetSpentEvent struct {
	shared.BaseDomainEvent
	EntityType ReservationEntityType `json:"entity_type"`
	EntityID   uuid.UUID             `json:"entity_id"`
}

// NewBudgetSpentEvent creates a BudgetSpentEvent.
func NewBudgetSpentEvent(tenantID uuid.UUID, entityType ReservationEntityType, entityID uuid.UUID) *BudgetSpentEvent {
	return &BudgetSpentEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("budget.spent", "BudgetReservation", entityID, tenantID),
		EntityType:      entityType,
		EntityID:        entityID,
	}
}
