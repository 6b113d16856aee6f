package procurement

import (
	"context"

	"github.com/erp/backend/internal/domain/procurement"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormNotificationRepository implements procurement.NotificationRepository using GORM.
type GormNotificationRepository struct {
	db *gorm.DB
}

// NewGormNotificationRepository creates a new GormNotificationRepository.
func NewGormNotificationRepository(db *gorm.DB) *GormNotificationRepository {
	return &GormNotificationRepository{db: db}
}

func (r *GormNotificationRepository) Save(ctx context.Context, notification *procurement.Notification) error {
	return r.db.WithContext(ctx).Save(notification).Error
}

func (r *GormNotificationRepository) FindUnsentForEntity(ctx context.Context, tenantID uuid.UUID, entityType string, entityID uuid.UUID) ([]procurement.Notification, error) {
	var notifications []procurement.Notification
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND entity_type = ? AND entity_id = ? AND sent_at IS NULL", tenantID, entityType, entityID).
		Find(&notifications).Error
	return notifications, err
}

var _ procurement.NotificationRepository = (*GormNotificationRepository)(nil)
