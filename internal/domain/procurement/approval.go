package procurement

import (
	"fmt"
	"strings"
	"time"

	"github.com/erp/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ApprovableEntityType enumerates what an Approval step is attached to.
// Modeled as a tagged variant rather than a foreign key, per spec.md §9
// "Polymorphic back-references" — the same pattern as BudgetReservation.
type ApprovableEntityType string

const (
	ApprovableEntityPR ApprovableEntityType = "PR"
	ApprovableEntityPO ApprovableEntityType = "PO"
)

// ApprovalStatus is the lifecycle status of one step in an approval chain.
type ApprovalStatus string

const (
	ApprovalStatusPending   ApprovalStatus = "PENDING"
	ApprovalStatusApproved  ApprovalStatus = "APPROVED"
	ApprovalStatusRejected  ApprovalStatus = "REJECTED"
	ApprovalStatusCancelled ApprovalStatus = "CANCELLED"
)

// ApprovalRole is the role that resolves an approval-chain step (spec.md
// §9 "Approval chain as data, not code").
type ApprovalRole string

const (
	ApprovalRoleDepartmentManager ApprovalRole = "DEPARTMENT_MANAGER"
	ApprovalRoleFinanceHead       ApprovalRole = "FINANCE_HEAD"
	ApprovalRoleCFO               ApprovalRole = "CFO"
)

// Approval thresholds, in minor units, per spec.md §4.6/§9. Modeled as an
// ascending lookup table rather than inline conditionals so a later
// per-tenant override would not require restructuring (Non-goals exclude
// actually building that customization here).
const (
	ThresholdFinanceHead int64 = 5_000_000
	ThresholdCFO         int64 = 20_000_000
)

// ApprovalThreshold is one row of the chain-construction lookup table.
type ApprovalThreshold struct {
	MinAmountCents int64
	Level          int
	Role           ApprovalRole
}

// ApprovalThresholdTable is evaluated in order; every row whose
// MinAmountCents the requested amount meets or exceeds contributes a step.
var ApprovalThresholdTable = []ApprovalThreshold{
	{MinAmountCents: 0, Level: 1, Role: ApprovalRoleDepartmentManager},
	{MinAmountCents: ThresholdFinanceHead, Level: 2, Role: ApprovalRoleFinanceHead},
	{MinAmountCents: ThresholdCFO, Level: 3, Role: ApprovalRoleCFO},
}

// RequiredLevelsForAmount returns the ordered chain-construction rows that
// apply to amountCents (spec.md §4.6 steps 1-3).
func RequiredLevelsForAmount(amountCents int64) []ApprovalThreshold {
	var levels []ApprovalThreshold
	for _, row := range ApprovalThresholdTable {
		if amountCents >= row.MinAmountCents {
			levels = append(levels, row)
		}
	}
	return levels
}

// Approval is one step of an entity's approval chain, keyed by
// (entity_type, entity_id, approval_level).
type Approval struct {
	shared.TenantAggregateRoot
	EntityType     ApprovableEntityType `gorm:"type:varchar(10);not null;uniqueIndex:idx_approval_step,priority:2"`
	EntityID       uuid.UUID            `gorm:"type:uuid;not null;uniqueIndex:idx_approval_step,priority:3"`
	ApprovalLevel  int                  `gorm:"not null;uniqueIndex:idx_approval_step,priority:4"`
	ApproverID     uuid.UUID            `gorm:"type:uuid;not null;index"`
	Status         ApprovalStatus       `gorm:"type:varchar(20);not null;default:'PENDING'"`
	Comment        string               `gorm:"type:varchar(1000)"`
	ApprovedAt     *time.Time
}

func (Approval) TableName() string {
	return "approvals"
}

// NewApproval creates one PENDING approval step.
func NewApproval(tenantID uuid.UUID, entityType ApprovableEntityType, entityID uuid.UUID, level int, approverID uuid.UUID) (*Approval, error) {
	if entityID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ENTITY", "entity id cannot be empty")
	}
	if approverID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeApprovalNoApprover, "no eligible approver for this step")
	}
	if level < 1 {
		return nil, shared.NewDomainError("INVALID_LEVEL", "approval level must be >= 1")
	}

	return &Approval{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		EntityType:          entityType,
		EntityID:            entityID,
		ApprovalLevel:       level,
		ApproverID:          approverID,
		Status:              ApprovalStatusPending,
	}, nil
}

// Approve transitions PENDING -> APPROVED, stamping approved_at and storing
// the reviewer's comment.
func (a *Approval) Approve(comment string) error {
	if a.Status != ApprovalStatusPending {
		return shared.NewDomainError(shared.CodeStateMismatch, fmt.Sprintf("cannot approve a step in %s status", a.Status))
	}

	now := time.Now()
	a.Status = ApprovalStatusApproved
	a.ApprovedAt = &now
	a.Comment = strings.TrimSpace(comment)
	a.touch()

	return nil
}

// Reject transitions PENDING -> REJECTED with a comment.
func (a *Approval) Reject(comment string) error {
	if a.Status != ApprovalStatusPending {
		return shared.NewDomainError(shared.CodeStateMismatch, fmt.Sprintf("cannot reject a step in %s status", a.Status))
	}

	a.Status = ApprovalStatusRejected
	a.Comment = strings.TrimSpace(comment)
	a.touch()

	return nil
}

// Cancel transitions PENDING -> CANCELLED (cascades from a rejection at a
// lower level, or from the parent entity's own cancellation).
func (a *Approval) Cancel() error {
	if a.Status != ApprovalStatusPending {
		return shared.NewDomainError(shared.CodeStateMismatch, fmt.Sprintf("cannot cancel a step in %s status", a.Status))
	}

	a.Status = ApprovalStatusCancelled
	a.touch()

	return nil
}

func (a *Approval) touch() {
	a.UpdatedAt = time.Now()
	a.IncrementVersion()
}

// ApprovalChain is the ordered set of Approval steps attached to one entity.
type ApprovalChain []Approval

// CurrentStep returns the lowest-level PENDING approval, or nil if none
// remains (spec.md §4.6 "Step processing").
func (c ApprovalChain) CurrentStep() *Approval {
	var current *Approval
	for i := range c {
		if c[i].Status != ApprovalStatusPending {
			continue
		}
		if current == nil || c[i].ApprovalLevel < current.ApprovalLevel {
			current = &c[i]
		}
	}
	return current
}

// IsFinal reports whether no PENDING step remains in the chain.
func (c ApprovalChain) IsFinal() bool {
	return c.CurrentStep() == nil
}

// RemainingPending returns every PENDING step (used to cascade-cancel on rejection).
func (c ApprovalChain) RemainingPending() []*Approval {
	var remaining []*Approval
	for i := range c {
		if c[i].Status == ApprovalStatusPending {
			remaining = append(remaining, &c[i])
		}
	}
	return remaining
}
