package procurement

import (
	"github.com/erp/backend/internal/domain/shared"
	"github.com/google/uuid"
)

const AggregateTypePurchaseRequest = "PurchaseRequest"

const (
	EventTypePrCreated   = "PurchaseRequestCreated"
	EventTypePrSubmitted = "PurchaseRequestSubmitted"
	EventTypePrApproved  = "PurchaseRequestApproved"
	EventTypePrRejected  = "PurchaseRequestRejected"
	EventTypePrCancelled = "PurchaseRequestCancelled"
)

// PrCreatedEvent is raised when a draft purchase request is opened.
type PrCreatedEvent struct {
	shared.BaseDomainEvent
	PrID     uuid.UUID `json:"pr_id"`
	PrNumber string    `json:"pr_number"`
}

func NewPrCreatedEvent(pr *PurchaseRequest) *PrCreatedEvent {
	return &PrCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePrCreated, AggregateTypePurchaseRequest, pr.ID, pr.TenantID),
		PrID:            pr.ID,
		PrNumber:        pr.PrNumber,
	}
}

// PrSubmittedEvent is raised when a PR moves DRAFT -> PENDING.
type PrSubmittedEvent struct {
	shared.BaseDomainEvent
	PrID       uuid.UUID `json:"pr_id"`
	TotalCents int64     `json:"total_cents"`
}

func NewPrSubmittedEvent(pr *PurchaseRequest) *PrSubmittedEvent {
	return &PrSubmittedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePrSubmitted, AggregateTypePurchaseRequest, pr.ID, pr.TenantID),
		PrID:            pr.ID,
		TotalCents:      pr.TotalCents,
	}
}

// PrApprovedEvent is raised on final approval of the chain.
type PrApprovedEvent struct {
	shared.BaseDomainEvent
	PrID uuid.UUID `json:"pr_id"`
}

func NewPrApprovedEvent(pr *PurchaseRequest) *PrApprovedEvent {
	return &PrApprovedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePrApproved, AggregateTypePurchaseRequest, pr.ID, pr.TenantID),
		PrID:            pr.ID,
	}
}

// PrRejectedEvent is raised when any approval step rejects the chain.
type PrRejectedEvent struct {
	shared.BaseDomainEvent
	PrID   uuid.UUID `json:"pr_id"`
	Reason string    `json:"reason"`
}

func NewPrRejectedEvent(pr *PurchaseRequest) *PrRejectedEvent {
	return &PrRejectedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePrRejected, AggregateTypePurchaseRequest, pr.ID, pr.TenantID),
		PrID:            pr.ID,
		Reason:          pr.RejectReason,
	}
}

// PrCancelledEvent is raised when the requester retracts a PENDING PR.
type PrCancelledEvent struct {
	shared.BaseDomainEvent
	PrID uuid.UUID `json:"pr_id"`
}

func NewPrCancelledEvent(pr *PurchaseRequest) *PrCancelledEvent {
	return &PrCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePrCancelled, AggregateTypePurchaseRequest, pr.ID, pr.TenantID),
		PrID:            pr.ID,
	}
}
