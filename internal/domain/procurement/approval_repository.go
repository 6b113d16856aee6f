package procurement

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ApprovalRepository persists Approval steps, keyed polymorphically by
// (entity_type, entity_id).
type ApprovalRepository interface {
	// FindChainForEntity loads every Approval step for one entity, ordered
	// by approval_level ascending (spec.md §4.6 "Step processing").
	FindChainForEntity(ctx context.Context, tenantID uuid.UUID, entityType ApprovableEntityType, entityID uuid.UUID) (ApprovalChain, error)

	// FindChainsForEntities is the batch loader avoiding N+1 when enriching
	// lists of PRs/POs with their approval chains (spec.md §4.2).
	FindChainsForEntities(ctx context.Context, tenantID uuid.UUID, entityType ApprovableEntityType, entityIDs []uuid.UUID) (map[uuid.UUID]ApprovalChain, error)

	// FindPendingOlderThan supports the approval-timeout sweep (spec.md §4.9b).
	FindPendingOlderThan(ctx context.Context, tenantID uuid.UUID, age time.Duration) ([]Approval, error)
	FindAllPendingOlderThan(ctx context.Context, age time.Duration) ([]Approval, error)

	SaveChain(ctx context.Context, chain []*Approval) error
	Save(ctx context.Context, a *Approval) error

	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Approval, error)
}
