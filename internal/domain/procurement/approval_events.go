package procurement

import (
	"github.com/erp/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ApprovalStepApprovedEvent is raised when one step of an approval chain is approved.
type ApprovalStepApprovedEvent struct {
	shared.BaseDomainEvent
	EntityType    ApprovableEntityType `json:"entity_type"`
	EntityID      uuid.UUID            `json:"entity_id"`
	ApprovalLevel int                  `json:"approval_level"`
}

// NewApprovalStepApprovedEvent creates an ApprovalStepApprovedEvent.
func NewApprovalStepApprovedEvent(tenantID, approvalID uuid.UUID, entityType ApprovableEntityType, entityID uuid.UUID, level int) *ApprovalStepApprovedEvent {
	return &ApprovalStepApprovedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("approval.step_approved", "Approval", approvalID, tenantID),
		EntityType:      entityType,
		EntityID:        entityID,
		ApprovalLevel:   level,
	}
}

// ApprovalStepRejectedEvent is raised when a step rejects and cancels the rest of the chain.
type ApprovalStepRejectedEvent struct {
	shared.BaseDomainEvent
	EntityType    ApprovableEntityType `json:"entity_type"`
	EntityID      uuid.UUID            `json:"entity_id"`
	ApprovalLevel int                  `json:"approval_level"`
}

// NewApprovalStepRejectedEvent creates an ApprovalStepRejectedEvent.
func NewApprovalStepRejectedEvent(tenantID, approvalID uuid.UUID, entityType ApprovableEntityType, entityID uuid.UUID, level int) *ApprovalStepRejectedEvent {
	return &ApprovalStepRejectedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("approval.step_rejected", "Approval", approvalID, tenantID),
		EntityType:      entityType,
		EntityID:        entityID,
		ApprovalLevel:   level,
	}
}
