package trade

import (
	"github.com/erp/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Aggregate type constant
const AggregateTypePurchaseOrder = "PurchaseOrder"

// Event type constants
const (
	EventTypePurchaseOrderCreated   = "PurchaseOrderCreated"
	EventTypePurchaseOrderIssued    = "PurchaseOrderIssued"
	EventTypePurchaseOrderReceived  = "PurchaseOrderReceived"
	EventTypePurchaseOrderCancelled = "PurchaseOrderCancelled"
)

// PurchaseOrderCreatedEvent is raised when a new purchase order is drafted.
type PurchaseOrderCreatedEvent struct {
	shared.BaseDomainEvent
	OrderID  uuid.UUID `json:"order_id"`
	PoNumber string    `json:"po_number"`
	VendorID uuid.UUID `json:"vendor_id"`
}

func NewPurchaseOrderCreatedEvent(order *PurchaseOrder) *PurchaseOrderCreatedEvent {
	return &PurchaseOrderCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePurchaseOrderCreated, AggregateTypePurchaseOrder, order.ID, order.TenantID),
		OrderID:         order.ID,
		PoNumber:        order.PoNumber,
		VendorID:        order.VendorID,
	}
}

// PurchaseOrderIssuedEvent is raised when a purchase order is issued to its vendor.
type PurchaseOrderIssuedEvent struct {
	shared.BaseDomainEvent
	OrderID    uuid.UUID `json:"order_id"`
	PoNumber   string    `json:"po_number"`
	VendorID   uuid.UUID `json:"vendor_id"`
	TotalCents int64     `json:"total_cents"`
}

func NewPurchaseOrderIssuedEvent(order *PurchaseOrder) *PurchaseOrderIssuedEvent {
	return &PurchaseOrderIssuedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePurchaseOrderIssued, AggregateTypePurchaseOrder, order.ID, order.TenantID),
		OrderID:         order.ID,
		PoNumber:        order.PoNumber,
		VendorID:        order.VendorID,
		TotalCents:      order.TotalCents,
	}
}

// PurchaseOrderReceivedEvent is raised whenever a receipt advances a line
// item's received quantity, whether or not it completes the order.
type PurchaseOrderReceivedEvent struct {
	shared.BaseDomainEvent
	OrderID    uuid.UUID           `json:"order_id"`
	PoNumber   string              `json:"po_number"`
	Status     PurchaseOrderStatus `json:"status"`
	IsComplete bool                `json:"is_complete"`
}

func NewPurchaseOrderReceivedEvent(order *PurchaseOrder) *PurchaseOrderReceivedEvent {
	return &PurchaseOrderReceivedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePurchaseOrderReceived, AggregateTypePurchaseOrder, order.ID, order.TenantID),
		OrderID:         order.ID,
		PoNumber:        order.PoNumber,
		Status:          order.Status,
		IsComplete:      order.Status == PurchaseOrderStatusFulfilled,
	}
}

// PurchaseOrderCancelledEvent is raised when a purchase order is cancelled.
type PurchaseOrderCancelledEvent struct {
	shared.BaseDomainEvent
	OrderID      uuid.UUID  `json:"order_id"`
	PoNumber     string     `json:"po_number"`
	CancelReason string     `json:"cancel_reason"`
	PrID         *uuid.UUID `json:"pr_id,omitempty"`
}

func NewPurchaseOrderCancelledEvent(order *PurchaseOrder) *PurchaseOrderCancelledEvent {
	return &PurchaseOrderCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePurchaseOrderCancelled, AggregateTypePurchaseOrder, order.ID, order.TenantID),
		OrderID:         order.ID,
		PoNumber:        order.PoNumber,
		CancelReason:    order.CancelReason,
		PrID:            order.PrID,
	}
}
