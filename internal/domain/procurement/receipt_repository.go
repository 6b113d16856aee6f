package procurement

import (
	"context"

	"github.com/erp/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ReceiptRepository persists Receipt aggregates.
type ReceiptRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Receipt, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Receipt, error)
	FindByPo(ctx context.Context, tenantID, poID uuid.UUID) ([]Receipt, error)

	Save(ctx context.Context, r *Receipt) error
	SaveWithLock(ctx context.Context, r *Receipt) error
	DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error

	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)
	ExistsByReceiptNumber(ctx context.Context, tenantID uuid.UUID, receiptNumber string) (bool, error)
	GenerateReceiptNumber(ctx context.Context, tenantID uuid.UUID) (string, error)

	// SumReceivedQuantityByPoLine aggregates quantity_received across all
	// ReceiptLineItems (of CONFIRMED receipts) whose parent Receipt
	// references the given PO, keyed by PoLineItem id. Used by the
	// three-way matcher (spec.md §4.8 step 2).
	SumReceivedQuantityByPoLine(ctx context.Context, tenantID, poID uuid.UUID) (map[uuid.UUID]int64, error)
}
