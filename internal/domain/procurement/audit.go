package procurement

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/erp/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// AuditLog is append-only — callers record tenant, actor, action,
// entity_type, entity_id, before_state, after_state, computed
// changed_fields and a creation timestamp (spec.md §4.10).
type AuditLog struct {
	ID            uuid.UUID              `gorm:"type:uuid;primary_key"`
	TenantID      uuid.UUID              `gorm:"type:uuid;not null;index"`
	ActorID       uuid.UUID              `gorm:"type:uuid;not null;index"`
	Action        string                 `gorm:"type:varchar(100);not null"`
	EntityType    string                 `gorm:"type:varchar(50);not null;index"`
	EntityID      uuid.UUID              `gorm:"type:uuid;not null;index"`
	BeforeState   map[string]interface{} `gorm:"serializer:json"`
	AfterState    map[string]interface{} `gorm:"serializer:json"`
	ChangedFields []string               `gorm:"serializer:json"`
	CreatedAt     time.Time              `gorm:"not null;index"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}

// NewAuditLog validates identifiers and computes changed_fields as the
// sorted list of keys whose before/after values differ. Never fails
// silently — a malformed identifier raises (spec.md §4.10).
func NewAuditLog(tenantID, actorID, entityID uuid.UUID, action, entityType string, before, after map[string]interface{}) (*AuditLog, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TENANT", "tenant id cannot be empty")
	}
	if actorID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ACTOR", "actor id cannot be empty")
	}
	if entityID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ENTITY", "entity id cannot be empty")
	}
	if action == "" || entityType == "" {
		return nil, shared.NewDomainError("INVALID_AUDIT_LOG", "action and entity_type are required")
	}

	return &AuditLog{
		ID:            uuid.New(),
		TenantID:      tenantID,
		ActorID:       actorID,
		Action:        action,
		EntityType:    entityType,
		EntityID:      entityID,
		BeforeState:   before,
		AfterState:    after,
		ChangedFields: computeChangedFields(before, after),
		CreatedAt:     time.Now(),
	}, nil
}

func computeChangedFields(before, after map[string]interface{}) []string {
	keys := make(map[string]struct{})
	for k := range before {
		keys[k] = struct{}{}
	}
	for k := range after {
		keys[k] = struct{}{}
	}

	var changed []string
	for k := range keys {
		bv, bok := before[k]
		av, aok := after[k]
		if bok != aok || !valuesEqual(bv, av) {
			changed = append(changed, k)
		}
	}

	sort.Strings(changed)
	return changed
}

func valuesEqual(a, b interface{}) bool {
	return fmt.Sprint(a) == fmt.Sprint(b)
}

// AuditLogRepository persists append-only AuditLog rows.
type AuditLogRepository interface {
	Save(ctx context.Context, log *AuditLog) error
	FindForEntity(ctx context.Context, tenantID uuid.UUID, entityType string, entityID uuid.UUID, filter shared.Filter) ([]AuditLog, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]AuditLog, error)
}
