package procurement

import (
	"context"
	"fmt"

	"github.com/erp/backend/internal/domain/identity"
	"github.com/erp/backend/internal/domain/procurement"
	"github.com/erp/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ApprovalResult is returned by ProcessApproval (spec.md §4.6 "Step processing").
type ApprovalResult struct {
	IsFinal      bool
	IsRejected   bool
	NextApprover *procurement.Approval
}

// ApprovalService implements the Approval Engine (spec.md §4.6): chain
// construction from amount thresholds and per-entity state, and step
// processing (approve/reject) with self-approval and wrong-approver guards.
type ApprovalService struct {
	approvals      procurement.ApprovalRepository
	departments    identity.DepartmentRepository
	users          identity.UserRepository
	eventPublisher shared.EventPublisher
}

// NewApprovalService creates a new ApprovalService.
func NewApprovalService(approvals procurement.ApprovalRepository, departments identity.DepartmentRepository, users identity.UserRepository) *ApprovalService {
	return &ApprovalService{approvals: approvals, departments: departments, users: users}
}

// SetEventPublisher sets the event publisher for cross-context integration.
func (s *ApprovalService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// BuildChain constructs and persists one PENDING Approval per required step
// for (entityType, entityID) given amountCents and the requester's
// department (spec.md §4.6 "Chain construction").
//
// Level 1 always requires the department's active manager; the department
// having no active manager is a hard 422-equivalent failure, not an
// implicitly-skipped step. Level 2 (finance_head) is appended at
// ThresholdFinanceHead; level 3 (cfo) at ThresholdCFO.
func (s *ApprovalService) BuildChain(ctx context.Context, tenantID uuid.UUID, entityType procurement.ApprovableEntityType, entityID, departmentID uuid.UUID, amountCents int64) (procurement.ApprovalChain, error) {
	dept, err := s.departments.FindByID(ctx, departmentID)
	if err != nil {
		return nil, err
	}
	if dept.ManagerID == nil {
		return nil, shared.NewDomainError(shared.CodeApprovalNoApprover, "department has no active manager")
	}

	levels := procurement.RequiredLevelsForAmount(amountCents)
	chain := make([]*procurement.Approval, 0, len(levels))

	for _, level := range levels {
		approverID, err := s.resolveApprover(ctx, level.Role, *dept.ManagerID, departmentID)
		if err != nil {
			return nil, err
		}

		step, err := procurement.NewApproval(tenantID, entityType, entityID, level.Level, approverID)
		if err != nil {
			return nil, err
		}
		chain = append(chain, step)
	}

	if err := s.approvals.SaveChain(ctx, chain); err != nil {
		return nil, err
	}

	built := make(procurement.ApprovalChain, len(chain))
	for i, step := range chain {
		built[i] = *step
	}
	return built, nil
}

// resolveApprover maps an ApprovalRole to the user id who fills that step.
func (s *ApprovalService) resolveApprover(ctx context.Context, role procurement.ApprovalRole, departmentManagerID, departmentID uuid.UUID) (uuid.UUID, error) {
	switch role {
	case procurement.ApprovalRoleDepartmentManager:
		return departmentManagerID, nil
	case procurement.ApprovalRoleFinanceHead:
		user, err := s.users.FindActiveByRoleInDepartment(ctx, identity.RoleFinanceHead, departmentID)
		if err != nil || user == nil {
			users, err := s.users.FindByRole(ctx, identity.RoleFinanceHead)
			if err != nil || len(users) == 0 {
				return uuid.Nil, shared.NewDomainError(shared.CodeApprovalNoApprover, "no active finance_head available")
			}
			return users[0].ID, nil
		}
		return user.ID, nil
	case procurement.ApprovalRoleCFO:
		users, err := s.users.FindByRole(ctx, identity.RoleCFO)
		if err != nil || len(users) == 0 {
			return uuid.Nil, shared.NewDomainError(shared.CodeApprovalNoApprover, "no active cfo available")
		}
		return users[0].ID, nil
	default:
		return uuid.Nil, shared.NewDomainError(shared.CodeApprovalNoApprover, fmt.Sprintf("unknown approval role %q", role))
	}
}

// GuardSelfApproval fails with APPROVAL_SELF_APPROVE_001 when the caller is
// the underlying entity's own requester (spec.md §4.6 "Self-approval
// guard"). Callers invoke this before ProcessApproval.
func (s *ApprovalService) GuardSelfApproval(callerID, requesterID uuid.UUID) error {
	if callerID == requesterID {
		return shared.NewDomainError(shared.CodeApprovalSelfApprove, "the requester cannot approve their own request")
	}
	return nil
}

// ChainForEntity returns the full approval chain for an entity, used by
// handlers to render approval history/status alongside the PR or PO.
func (s *ApprovalService) ChainForEntity(ctx context.Context, tenantID uuid.UUID, entityType procurement.ApprovableEntityType, entityID uuid.UUID) (procurement.ApprovalChain, error) {
	return s.approvals.FindChainForEntity(ctx, tenantID, entityType, entityID)
}

// ProcessApproval loads the chain for (entityType, entityID), identifies the
// current step (lowest-level PENDING), verifies the caller is its approver,
// then applies approve or reject (spec.md §4.6 "Step processing").
func (s *ApprovalService) ProcessApproval(ctx context.Context, tenantID uuid.UUID, entityType procurement.ApprovableEntityType, entityID, approverID uuid.UUID, approve bool, comment string) (*ApprovalResult, error) {
	chain, err := s.approvals.FindChainForEntity(ctx, tenantID, entityType, entityID)
	if err != nil {
		return nil, err
	}

	current := chain.CurrentStep()
	if current == nil {
		return nil, shared.NewDomainError(shared.CodeStateMismatch, "no pending approval step for this entity")
	}
	if current.ApproverID != approverID {
		return nil, shared.NewDomainError(shared.CodeApprovalNotYourTurn, "caller is not the approver for the current step")
	}

	if approve {
		if err := current.Approve(comment); err != nil {
			return nil, err
		}
		if err := s.approvals.Save(ctx, current); err != nil {
			return nil, err
		}
		if s.eventPublisher != nil {
			_ = s.eventPublisher.Publish(ctx, procurement.NewApprovalStepApprovedEvent(tenantID, current.ID, entityType, entityID, current.ApprovalLevel))
		}

		// current.Approve mutated the chain's backing array in place, so
		// RemainingPending no longer includes it.
		remaining := chain.RemainingPending()
		var next *procurement.Approval
		if len(remaining) > 0 {
			next = remaining[0]
		}
		return &ApprovalResult{IsFinal: len(remaining) == 0, NextApprover: next}, nil
	}

	if err := current.Reject(comment); err != nil {
		return nil, err
	}
	if err := s.approvals.Save(ctx, current); err != nil {
		return nil, err
	}

	for _, step := range chain.RemainingPending() {
		if step.ID == current.ID {
			continue
		}
		if err := step.Cancel(); err != nil {
			return nil, err
		}
		if err := s.approvals.Save(ctx, step); err != nil {
			return nil, err
		}
	}

	if s.eventPublisher != nil {
		_ = s.eventPublisher.Publish(ctx, procurement.NewApprovalStepRejectedEvent(tenantID, current.ID, entityType, entityID, current.ApprovalLevel))
	}

	return &ApprovalResult{IsRejected: true}, nil
}
