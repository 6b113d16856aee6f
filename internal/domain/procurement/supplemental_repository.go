package procurement

import (
	"context"
	"time"

	"github.com/erp/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// RfqRepository persists Rfq aggregates.
type RfqRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Rfq, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Rfq, error)
	FindByStatus(ctx context.Context, tenantID uuid.UUID, status RfqStatus, filter shared.Filter) ([]Rfq, error)
	Save(ctx context.Context, r *Rfq) error
	SaveWithLock(ctx context.Context, r *Rfq) error
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)
}

// ContractRepository persists Contract aggregates.
type ContractRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Contract, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Contract, error)
	FindByVendor(ctx context.Context, tenantID, vendorID uuid.UUID) ([]Contract, error)
	// FindExpiringWithin supports the document-expiry sweep's 30/14/7/3-day thresholds.
	FindExpiringWithin(ctx context.Context, tenantID uuid.UUID, within time.Duration) ([]Contract, error)
	Save(ctx context.Context, c *Contract) error
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)
}

// FxRateRepository persists FxRate rows and resolves direct/inverse pairs.
type FxRateRepository interface {
	FindDirect(ctx context.Context, tenantID uuid.UUID, base, quote string) ([]FxRate, error)
	FindInverse(ctx context.Context, tenantID uuid.UUID, base, quote string) ([]FxRate, error)
	Save(ctx context.Context, r *FxRate) error
}

// UserDeviceRepository persists UserDevice push-token registrations.
type UserDeviceRepository interface {
	FindByUser(ctx context.Context, tenantID, userID uuid.UUID) ([]UserDevice, error)
	FindInactiveSince(ctx context.Context, cutoff time.Time) ([]UserDevice, error)
	Save(ctx context.Context, d *UserDevice) error
	DeleteByToken(ctx context.Context, tenantID uuid.UUID, fcmToken string) error
}

// NotificationRepository persists dispatched-notification records.
type NotificationRepository interface {
	Save(ctx context.Context, n *Notification) error
	FindUnsentForEntity(ctx context.Context, tenantID uuid.UUID, entityType string, entityID uuid.UUID) ([]Notification, error)
}

// VendorScorecardRepository persists VendorScorecard snapshots.
type VendorScorecardRepository interface {
	FindByVendor(ctx context.Context, tenantID, vendorID uuid.UUID) (*VendorScorecard, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID) ([]VendorScorecard, error)
	Save(ctx context.Context, s *VendorScorecard) error
}
