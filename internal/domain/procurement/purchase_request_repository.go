package procurement

import (
	"context"

	"github.com/erp/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// PurchaseRequestRepository persists PurchaseRequest aggregates.
type PurchaseRequestRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*PurchaseRequest, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]PurchaseRequest, error)
	FindByRequester(ctx context.Context, tenantID, requesterID uuid.UUID, filter shared.Filter) ([]PurchaseRequest, error)
	FindByStatus(ctx context.Context, tenantID uuid.UUID, status PrStatus, filter shared.Filter) ([]PurchaseRequest, error)
	FindByPrNumber(ctx context.Context, tenantID uuid.UUID, prNumber string) (*PurchaseRequest, error)

	Save(ctx context.Context, pr *PurchaseRequest) error
	SaveWithLock(ctx context.Context, pr *PurchaseRequest) error
	SaveWithLockAndEvents(ctx context.Context, pr *PurchaseRequest, events []shared.DomainEvent) error
	DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error

	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)
	ExistsByPrNumber(ctx context.Context, tenantID uuid.UUID, prNumber string) (bool, error)
	GeneratePrNumber(ctx context.Context, tenantID uuid.UUID) (string, error)
}
