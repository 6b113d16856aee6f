package procurement

import (
	"time"

	"github.com/erp/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// NotificationKind enumerates the scheduled-sweep notification families
// (spec.md §4.9).
type NotificationKind string

const (
	NotificationDocumentExpiry    NotificationKind = "DOCUMENT_EXPIRY"
	NotificationApprovalTimeout   NotificationKind = "APPROVAL_TIMEOUT"
	NotificationBudgetAlert       NotificationKind = "BUDGET_ALERT"
	NotificationMatchException    NotificationKind = "MATCH_EXCEPTION"
)

// Notification is a persisted record of a dispatched notification,
// separate from the act of delivery (email/push remain out-of-scope
// collaborators per spec.md §1).
type Notification struct {
	shared.TenantAggregateRoot
	RecipientID uuid.UUID        `gorm:"type:uuid;not null;index"`
	Kind        NotificationKind `gorm:"type:varchar(30);not null"`
	EntityType  string           `gorm:"type:varchar(50);not null"`
	EntityID    uuid.UUID        `gorm:"type:uuid;not null;index"`
	Payload     map[string]interface{} `gorm:"serializer:json"`
	SentAt      *time.Time
	DeliveryError string `gorm:"type:varchar(500)"`
}

func (Notification) TableName() string { return "notifications" }

// NewNotification records a pending notification before dispatch is attempted.
func NewNotification(tenantID, recipientID uuid.UUID, kind NotificationKind, entityType string, entityID uuid.UUID, payload map[string]interface{}) (*Notification, error) {
	if recipientID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_RECIPIENT", "recipient id cannot be empty")
	}
	if entityID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ENTITY", "entity id cannot be empty")
	}

	return &Notification{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		RecipientID:         recipientID,
		Kind:                kind,
		EntityType:          entityType,
		EntityID:            entityID,
		Payload:             payload,
	}, nil
}

// MarkSent stamps sent_at on successful delivery.
func (n *Notification) MarkSent() {
	now := time.Now()
	n.SentAt = &now
	n.UpdatedAt = now
	n.IncrementVersion()
}

// MarkFailed records a delivery failure without retrying the record itself
// — retries belong to the dispatch collaborator, not this persisted record.
func (n *Notification) MarkFailed(err string) {
	n.DeliveryError = err
	n.UpdatedAt = time.Now()
	n.IncrementVersion()
}
