package procurement

import (
	"strings"
	"time"

	"github.com/erp/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// UserDevice is an FCM push-token registration for a user (SPEC_FULL.md
// §3.1); last_seen_at drives the 30-day token-cleanup sweep (spec.md §4.9d).
type UserDevice struct {
	shared.TenantAggregateRoot
	UserID     uuid.UUID `gorm:"type:uuid;not null;index"`
	FcmToken   string    `gorm:"type:varchar(500);not null;uniqueIndex"`
	Platform   string    `gorm:"type:varchar(20);not null"` // ios|android|web
	LastSeenAt time.Time `gorm:"not null"`
	Active     bool      `gorm:"not null;default:true"`
}

func (UserDevice) TableName() string { return "user_devices" }

// NewUserDevice registers a push token for a user.
func NewUserDevice(tenantID, userID uuid.UUID, fcmToken, platform string) (*UserDevice, error) {
	fcmToken = strings.TrimSpace(fcmToken)
	if fcmToken == "" {
		return nil, shared.NewDomainError("INVALID_TOKEN", "fcm token cannot be empty")
	}
	if userID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_USER", "user id cannot be empty")
	}

	return &UserDevice{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		UserID:              userID,
		FcmToken:            fcmToken,
		Platform:            strings.ToLower(strings.TrimSpace(platform)),
		LastSeenAt:          time.Now(),
		Active:              true,
	}, nil
}

// Touch records an observed heartbeat/delivery for this device.
func (d *UserDevice) Touch() {
	d.LastSeenAt = time.Now()
	d.UpdatedAt = time.Now()
	d.IncrementVersion()
}

// IsStale reports whether the device has been inactive longer than maxAge —
// the cleanup sweep's predicate (spec.md §4.9d).
func (d *UserDevice) IsStale(maxAge time.Duration, now time.Time) bool {
	return now.Sub(d.LastSeenAt) > maxAge
}

// Deactivate marks the device inactive, e.g. after 3 failed push retries
// against an unregistered token (spec.md §5 retry policy).
func (d *UserDevice) Deactivate() {
	d.Active = false
	d.UpdatedAt = time.Now()
	d.IncrementVersion()
}
