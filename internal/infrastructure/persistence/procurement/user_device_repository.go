package procurement

import (
	"context"
	"time"

	"github.com/erp/backend/internal/domain/procurement"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormUserDeviceRepository implements procurement.UserDeviceRepository using GORM.
type GormUserDeviceRepository struct {
	db *gorm.DB
}

// NewGormUserDeviceRepository creates a new GormUserDeviceRepository.
func NewGormUserDeviceRepository(db *gorm.DB) *GormUserDeviceRepository {
	return &GormUserDeviceRepository{db: db}
}

func (r *GormUserDeviceRepository) FindByUser(ctx context.Context, tenantID, userID uuid.UUID) ([]procurement.UserDevice, error) {
	var devices []procurement.UserDevice
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND user_id = ? AND active = ?", tenantID, userID, true).
		Find(&devices).Error
	return devices, err
}

// FindInactiveSince finds devices whose last_seen_at predates cutoff,
// across all tenants — the 30-day token-cleanup sweep's candidate set
// (spec.md §4.9d).
func (r *GormUserDeviceRepository) FindInactiveSince(ctx context.Context, cutoff time.Time) ([]procurement.UserDevice, error) {
	var devices []procurement.UserDevice
	err := r.db.WithContext(ctx).
		Where("last_seen_at < ?", cutoff).
		Find(&devices).Error
	return devices, err
}

func (r *GormUserDeviceRepository) Save(ctx context.Context, device *procurement.UserDevice) error {
	return r.db.WithContext(ctx).Save(device).Error
}

func (r *GormUserDeviceRepository) DeleteByToken(ctx context.Context, tenantID uuid.UUID, fcmToken string) error {
	return r.db.WithContext(ctx).
		Where("tenant_id = ? AND fcm_token = ?", tenantID, fcmToken).
		Delete(&procurement.UserDevice{}).Error
}

var _ procurement.UserDeviceRepository = (*GormUserDeviceRepository)(nil)
