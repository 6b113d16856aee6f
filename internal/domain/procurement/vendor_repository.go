package procurement

import (
	"context"

	"github.com/erp/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// VendorRepository persists Vendor aggregates.
type VendorRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Vendor, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Vendor, error)
	FindByStatus(ctx context.Context, tenantID uuid.UUID, status VendorStatus, filter shared.Filter) ([]Vendor, error)

	Save(ctx context.Context, v *Vendor) error
	SaveWithLock(ctx context.Context, v *Vendor) error
	DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error

	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)

	// ExistsByTaxID checks tax-id uniqueness within a tenant (spec.md §3 Vendor).
	ExistsByTaxID(ctx context.Context, tenantID uuid.UUID, taxID string) (bool, error)
	// ExistsByEmail checks email uniqueness within a tenant.
	ExistsByEmail(ctx context.Context, tenantID uuid.UUID, email string) (bool, error)
}
