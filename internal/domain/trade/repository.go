package trade

import (
	"context"

	"github.com/erp/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// PurchaseOrderRepository defines the interface for purchase order persistence
type PurchaseOrderRepository interface {
	// FindByID finds a purchase order by ID
	FindByID(ctx context.Context, id uuid.UUID) (*PurchaseOrder, error)

	// FindByIDForTenant finds a purchase order by ID for a specific tenant
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*PurchaseOrder, error)

	// FindByPoNumber finds a purchase order by PO number for a tenant
	FindByPoNumber(ctx context.Context, tenantID uuid.UUID, poNumber string) (*PurchaseOrder, error)

	// FindAllForTenant finds all purchase orders for a tenant with filtering
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]PurchaseOrder, error)

	// FindByVendor finds purchase orders for a vendor
	FindByVendor(ctx context.Context, tenantID, vendorID uuid.UUID, filter shared.Filter) ([]PurchaseOrder, error)

	// FindByStatus finds purchase orders by status for a tenant
	FindByStatus(ctx context.Context, tenantID uuid.UUID, status PurchaseOrderStatus, filter shared.Filter) ([]PurchaseOrder, error)

	// FindByPr finds purchase orders generated from a given purchase request
	FindByPr(ctx context.Context, tenantID, prID uuid.UUID) ([]PurchaseOrder, error)

	// FindPendingReceipt finds purchase orders pending receipt (ISSUED, ACKNOWLEDGED or PARTIALLY_FULFILLED)
	FindPendingReceipt(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]PurchaseOrder, error)

	// Save creates or updates a purchase order
	Save(ctx context.Context, order *PurchaseOrder) error

	// SaveWithLock saves with optimistic locking (version check)
	SaveWithLock(ctx context.Context, order *PurchaseOrder) error

	// SaveWithLockAndEvents saves with optimistic locking and persists domain events atomically
	// This implements the transactional outbox pattern - events are saved to the outbox table
	// in the same transaction as the aggregate, ensuring guaranteed event delivery
	SaveWithLockAndEvents(ctx context.Context, order *PurchaseOrder, events []shared.DomainEvent) error

	// Delete deletes a purchase order (soft delete)
	Delete(ctx context.Context, id uuid.UUID) error

	// DeleteForTenant deletes a purchase order for a tenant
	DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error

	// CountForTenant counts purchase orders for a tenant with optional filters
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)

	// CountByStatus counts purchase orders by status for a tenant
	CountByStatus(ctx context.Context, tenantID uuid.UUID, status PurchaseOrderStatus) (int64, error)

	// CountByVendor counts purchase orders for a vendor
	CountByVendor(ctx context.Context, tenantID, vendorID uuid.UUID) (int64, error)

	// CountPendingReceipt counts orders pending receipt for a tenant
	CountPendingReceipt(ctx context.Context, tenantID uuid.UUID) (int64, error)

	// ExistsByPoNumber checks if a PO number exists for a tenant
	ExistsByPoNumber(ctx context.Context, tenantID uuid.UUID, poNumber string) (bool, error)

	// GeneratePoNumber generates a unique PO number for a tenant
	GeneratePoNumber(ctx context.Context, tenantID uuid.UUID) (string, error)
}
