package procurement

import (
	"context"

	"github.com/erp/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// InvoiceRepository persists Invoice aggregates.
type InvoiceRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Invoice, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Invoice, error)
	FindByPo(ctx context.Context, tenantID, poID uuid.UUID) ([]Invoice, error)
	FindOpenByPo(ctx context.Context, tenantID, poID uuid.UUID) ([]Invoice, error)
	FindByVendor(ctx context.Context, tenantID, vendorID uuid.UUID, filter shared.Filter) ([]Invoice, error)
	FindByStatus(ctx context.Context, tenantID uuid.UUID, status InvoiceStatus, filter shared.Filter) ([]Invoice, error)

	Save(ctx context.Context, inv *Invoice) error
	SaveWithLock(ctx context.Context, inv *Invoice) error
	DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error

	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)
	ExistsByVendorAndNumber(ctx context.Context, tenantID, vendorID uuid.UUID, invoiceNumber string) (bool, error)
}
