package procurement

import (
	"fmt"
	"strings"
	"time"

	"github.com/erp/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// PrStatus is the lifecycle status of a PurchaseRequest.
type PrStatus string

const (
	PrStatusDraft     PrStatus = "DRAFT"
	PrStatusPending   PrStatus = "PENDING"
	PrStatusApproved  PrStatus = "APPROVED"
	PrStatusRejected  PrStatus = "REJECTED"
	PrStatusCancelled PrStatus = "CANCELLED"
)

func (s PrStatus) IsValid() bool {
	switch s {
	case PrStatusDraft, PrStatusPending, PrStatusApproved, PrStatusRejected, PrStatusCancelled:
		return true
	}
	return false
}

// PrLineItem is a single requested line on a PurchaseRequest.
type PrLineItem struct {
	ID             uuid.UUID `gorm:"type:uuid;primary_key"`
	RequestID      uuid.UUID `gorm:"type:uuid;not null;index"`
	Description    string    `gorm:"type:varchar(500);not null"`
	Quantity       int64     `gorm:"not null"`
	UnitPriceCents int64     `gorm:"not null"`
	CreatedAt      time.Time `gorm:"not null"`
	UpdatedAt      time.Time `gorm:"not null"`
}

func (PrLineItem) TableName() string {
	return "pr_line_items"
}

// NewPrLineItem creates a new purchase request line item.
func NewPrLineItem(requestID uuid.UUID, description string, quantity, unitPriceCents int64) (*PrLineItem, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, shared.NewDomainError("INVALID_DESCRIPTION", "line description cannot be empty")
	}
	if quantity <= 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "quantity must be positive")
	}
	if unitPriceCents <= 0 {
		return nil, shared.NewDomainError("INVALID_PRICE", "unit price must be positive")
	}

	now := time.Now()
	return &PrLineItem{
		ID:             uuid.New(),
		RequestID:      requestID,
		Description:    description,
		Quantity:       quantity,
		UnitPriceCents: unitPriceCents,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// AmountCents returns quantity * unit price for this line.
func (i *PrLineItem) AmountCents() int64 {
	return i.Quantity * i.UnitPriceCents
}

// PurchaseRequest is the aggregate root for a pre-approval spend request.
// Submission requires >=1 line item and gates on a successful budget
// reserve plus approval-chain creation (spec.md §4.7).
type PurchaseRequest struct {
	shared.TenantAggregateRoot
	PrNumber     string       `gorm:"type:varchar(50);not null;uniqueIndex:idx_pr_tenant_number,priority:2"`
	RequesterID  uuid.UUID    `gorm:"type:uuid;not null;index"`
	DepartmentID uuid.UUID    `gorm:"type:uuid;not null;index"`
	Items        []PrLineItem `gorm:"foreignKey:RequestID;references:ID"`
	TotalCents   int64        `gorm:"not null;default:0"`
	Status       PrStatus     `gorm:"type:varchar(20);not null;default:'DRAFT'"`
	SubmittedAt  *time.Time
	ApprovedAt   *time.Time
	RejectedAt   *time.Time
	RejectReason string `gorm:"type:varchar(500)"`
}

func (PurchaseRequest) TableName() string {
	return "purchase_requests"
}

// NewPurchaseRequest creates a draft purchase request for a requester in a department.
func NewPurchaseRequest(tenantID uuid.UUID, prNumber string, requesterID, departmentID uuid.UUID) (*PurchaseRequest, error) {
	prNumber = strings.TrimSpace(prNumber)
	if prNumber == "" {
		return nil, shared.NewDomainError("INVALID_PR_NUMBER", "PR number cannot be empty")
	}
	if requesterID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_REQUESTER", "requester id cannot be empty")
	}
	if departmentID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_DEPARTMENT", "department id cannot be empty")
	}

	pr := &PurchaseRequest{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		PrNumber:            prNumber,
		RequesterID:         requesterID,
		DepartmentID:        departmentID,
		Items:               make([]PrLineItem, 0),
		Status:              PrStatusDraft,
	}

	pr.AddDomainEvent(NewPrCreatedEvent(pr))

	return pr, nil
}

// AddItem appends a line item. Only allowed while DRAFT.
func (pr *PurchaseRequest) AddItem(description string, quantity, unitPriceCents int64) (*PrLineItem, error) {
	if pr.Status != PrStatusDraft {
		return nil, shared.NewDomainError(shared.CodeStateMismatch, "cannot add items to a non-draft purchase request")
	}

	item, err := NewPrLineItem(pr.ID, description, quantity, unitPriceCents)
	if err != nil {
		return nil, err
	}

	pr.Items = append(pr.Items, *item)
	pr.recalculateTotal()
	pr.touch()

	return item, nil
}

// Submit transitions DRAFT -> PENDING. Requires at least one line item.
// Budget reservation and approval-chain creation are orchestrated by the
// application service in the same transaction; this method only advances
// the state machine once those have already succeeded.
func (pr *PurchaseRequest) Submit() error {
	if pr.Status != PrStatusDraft {
		return shared.NewDomainError(shared.CodeStateMismatch, fmt.Sprintf("cannot submit purchase request in %s status", pr.Status))
	}
	if len(pr.Items) == 0 {
		return shared.NewDomainError("NO_ITEMS", "cannot submit a purchase request without line items")
	}

	now := time.Now()
	pr.Status = PrStatusPending
	pr.SubmittedAt = &now
	pr.touch()

	pr.AddDomainEvent(NewPrSubmittedEvent(pr))

	return nil
}

// Approve transitions PENDING -> APPROVED (final approval of the chain).
func (pr *PurchaseRequest) Approve() error {
	if pr.Status != PrStatusPending {
		return shared.NewDomainError(shared.CodeStateMismatch, fmt.Sprintf("cannot approve purchase request in %s status", pr.Status))
	}

	now := time.Now()
	pr.Status = PrStatusApproved
	pr.ApprovedAt = &now
	pr.touch()

	pr.AddDomainEvent(NewPrApprovedEvent(pr))

	return nil
}

// Reject transitions PENDING -> REJECTED. The caller releases the budget
// reservation and cancels the remaining approval steps.
func (pr *PurchaseRequest) Reject(reason string) error {
	if pr.Status != PrStatusPending {
		return shared.NewDomainError(shared.CodeStateMismatch, fmt.Sprintf("cannot reject purchase request in %s status", pr.Status))
	}

	now := time.Now()
	pr.Status = PrStatusRejected
	pr.RejectedAt = &now
	pr.RejectReason = strings.TrimSpace(reason)
	pr.touch()

	pr.AddDomainEvent(NewPrRejectedEvent(pr))

	return nil
}

// Cancel transitions PENDING -> CANCELLED (requester retracts). The caller
// releases the budget reservation and cancels remaining approval steps.
func (pr *PurchaseRequest) Cancel() error {
	if pr.Status != PrStatusPending {
		return shared.NewDomainError(shared.CodeStateMismatch, fmt.Sprintf("cannot cancel purchase request in %s status", pr.Status))
	}

	pr.Status = PrStatusCancelled
	pr.touch()

	pr.AddDomainEvent(NewPrCancelledEvent(pr))

	return nil
}

// SoftDeleteDraft marks a DRAFT purchase request as withdrawn by the requester.
// PRs have no DeletedAt column in the spec's data model; a DRAFT request that
// is withdrawn before submission is cancelled directly rather than soft-deleted.
func (pr *PurchaseRequest) SoftDeleteDraft() error {
	if pr.Status != PrStatusDraft {
		return shared.NewDomainError(shared.CodeStateMismatch, "only a DRAFT purchase request may be withdrawn")
	}
	pr.Status = PrStatusCancelled
	pr.touch()
	return nil
}

func (pr *PurchaseRequest) recalculateTotal() {
	var total int64
	for _, item := range pr.Items {
		total += item.AmountCents()
	}
	pr.TotalCents = total
}

func (pr *PurchaseRequest) touch() {
	pr.UpdatedAt = time.Now()
	pr.IncrementVersion()
}
