package trade

import (
	"fmt"
	"strings"
	"time"

	"github.com/erp/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// PurchaseOrderStatus represents the status of a purchase order issued to a vendor.
type PurchaseOrderStatus string

const (
	PurchaseOrderStatusDraft               PurchaseOrderStatus = "DRAFT"
	PurchaseOrderStatusIssued              PurchaseOrderStatus = "ISSUED"
	PurchaseOrderStatusAcknowledged        PurchaseOrderStatus = "ACKNOWLEDGED"
	PurchaseOrderStatusPartiallyFulfilled  PurchaseOrderStatus = "PARTIALLY_FULFILLED"
	PurchaseOrderStatusFulfilled           PurchaseOrderStatus = "FULFILLED"
	PurchaseOrderStatusClosed              PurchaseOrderStatus = "CLOSED"
	PurchaseOrderStatusCancelled           PurchaseOrderStatus = "CANCELLED"
)

// IsValid checks if the status is a valid PurchaseOrderStatus
func (s PurchaseOrderStatus) IsValid() bool {
	switch s {
	case PurchaseOrderStatusDraft, PurchaseOrderStatusIssued, PurchaseOrderStatusAcknowledged,
		PurchaseOrderStatusPartiallyFulfilled, PurchaseOrderStatusFulfilled,
		PurchaseOrderStatusClosed, PurchaseOrderStatusCancelled:
		return true
	}
	return false
}

func (s PurchaseOrderStatus) String() string {
	return string(s)
}

// IsTerminal returns true if no further transition is allowed.
func (s PurchaseOrderStatus) IsTerminal() bool {
	return s == PurchaseOrderStatusClosed || s == PurchaseOrderStatusCancelled
}

// CanCancel returns true if the order may still be cancelled from this status.
// Per spec, any non-terminal status may be cancelled.
func (s PurchaseOrderStatus) CanCancel() bool {
	return !s.IsTerminal()
}

// PoLineItem is a single ordered line on a PurchaseOrder.
type PoLineItem struct {
	ID               uuid.UUID `gorm:"type:uuid;primary_key"`
	OrderID          uuid.UUID `gorm:"type:uuid;not null;index"`
	Description      string    `gorm:"type:varchar(500);not null"`
	Quantity         int64     `gorm:"not null"`
	UnitPriceCents   int64     `gorm:"not null"`
	ReceivedQuantity int64     `gorm:"not null;default:0"`
	CreatedAt        time.Time `gorm:"not null"`
	UpdatedAt        time.Time `gorm:"not null"`
}

func (PoLineItem) TableName() string {
	return "po_line_items"
}

// NewPoLineItem creates a new purchase order line item.
func NewPoLineItem(orderID uuid.UUID, description string, quantity, unitPriceCents int64) (*PoLineItem, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, shared.NewDomainError("INVALID_DESCRIPTION", "Line description cannot be empty")
	}
	if quantity <= 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if unitPriceCents <= 0 {
		return nil, shared.NewDomainError("INVALID_PRICE", "Unit price must be positive")
	}

	now := time.Now()
	return &PoLineItem{
		ID:             uuid.New(),
		OrderID:        orderID,
		Description:    description,
		Quantity:       quantity,
		UnitPriceCents: unitPriceCents,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// AmountCents returns quantity * unit price for this line.
func (i *PoLineItem) AmountCents() int64 {
	return i.Quantity * i.UnitPriceCents
}

// RemainingQuantity is the quantity still un-received.
func (i *PoLineItem) RemainingQuantity() int64 {
	remaining := i.Quantity - i.ReceivedQuantity
	if remaining < 0 {
		return 0
	}
	return remaining
}

// IsFullyReceived returns true once received_quantity has reached quantity.
func (i *PoLineItem) IsFullyReceived() bool {
	return i.ReceivedQuantity >= i.Quantity
}

// AddReceivedQuantity records goods received against this line.
// Enforces received_quantity <= quantity (P4 / spec §3 invariant).
func (i *PoLineItem) AddReceivedQuantity(quantity int64) error {
	if quantity <= 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Received quantity must be positive")
	}
	newReceived := i.ReceivedQuantity + quantity
	if newReceived > i.Quantity {
		return shared.NewDomainError("QUANTITY_EXCEEDED", fmt.Sprintf("cannot receive %d, only %d remaining", quantity, i.RemainingQuantity()))
	}
	i.ReceivedQuantity = newReceived
	i.UpdatedAt = time.Now()
	return nil
}

// PurchaseOrder is the aggregate root for an order issued to a vendor,
// optionally created from an approved PurchaseRequest.
type PurchaseOrder struct {
	shared.TenantAggregateRoot
	PoNumber             string              `gorm:"type:varchar(50);not null;uniqueIndex:idx_po_tenant_number,priority:2"`
	PrID                 *uuid.UUID          `gorm:"type:uuid;index"`
	VendorID             uuid.UUID           `gorm:"type:uuid;not null;index"`
	Items                []PoLineItem        `gorm:"foreignKey:OrderID;references:ID"`
	TotalCents           int64               `gorm:"not null;default:0"`
	Status               PurchaseOrderStatus `gorm:"type:varchar(30);not null;default:'DRAFT'"`
	IssuedAt             *time.Time
	ExpectedDeliveryDate *time.Time
	CancelledAt          *time.Time
	CancelReason         string `gorm:"type:varchar(500)"`
}

func (PurchaseOrder) TableName() string {
	return "purchase_orders"
}

// NewPurchaseOrder creates a new draft purchase order against a vendor.
// Callers must verify vendor.Status == ACTIVE before calling (application-layer
// concern — the domain aggregate does not load the Vendor aggregate).
func NewPurchaseOrder(tenantID uuid.UUID, poNumber string, vendorID uuid.UUID, prID *uuid.UUID) (*PurchaseOrder, error) {
	poNumber = strings.TrimSpace(poNumber)
	if poNumber == "" {
		return nil, shared.NewDomainError("INVALID_PO_NUMBER", "PO number cannot be empty")
	}
	if vendorID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_VENDOR", "Vendor ID cannot be empty")
	}

	order := &PurchaseOrder{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		PoNumber:            poNumber,
		PrID:                prID,
		VendorID:            vendorID,
		Items:               make([]PoLineItem, 0),
		Status:              PurchaseOrderStatusDraft,
	}

	order.AddDomainEvent(NewPurchaseOrderCreatedEvent(order))

	return order, nil
}

// AddItem appends a line item. Only allowed while DRAFT.
func (o *PurchaseOrder) AddItem(description string, quantity, unitPriceCents int64) (*PoLineItem, error) {
	if o.Status != PurchaseOrderStatusDraft {
		return nil, shared.NewDomainError("INVALID_STATE", "cannot add items to a non-draft purchase order")
	}

	item, err := NewPoLineItem(o.ID, description, quantity, unitPriceCents)
	if err != nil {
		return nil, err
	}

	o.Items = append(o.Items, *item)
	o.recalculateTotal()
	o.UpdatedAt = time.Now()
	o.IncrementVersion()

	return item, nil
}

// Issue transitions DRAFT -> ISSUED, stamping issued_at. Requires at least one line.
func (o *PurchaseOrder) Issue(expectedDelivery *time.Time) error {
	if o.Status != PurchaseOrderStatusDraft {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("cannot issue purchase order in %s status", o.Status))
	}
	if len(o.Items) == 0 {
		return shared.NewDomainError("NO_ITEMS", "cannot issue a purchase order without line items")
	}

	now := time.Now()
	o.Status = PurchaseOrderStatusIssued
	o.IssuedAt = &now
	o.ExpectedDeliveryDate = expectedDelivery
	o.UpdatedAt = now
	o.IncrementVersion()

	o.AddDomainEvent(NewPurchaseOrderIssuedEvent(o))

	return nil
}

// Acknowledge transitions ISSUED -> ACKNOWLEDGED (vendor confirms the order).
func (o *PurchaseOrder) Acknowledge() error {
	if o.Status != PurchaseOrderStatusIssued {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("cannot acknowledge purchase order in %s status", o.Status))
	}

	o.Status = PurchaseOrderStatusAcknowledged
	o.UpdatedAt = time.Now()
	o.IncrementVersion()

	return nil
}

// CanReceive returns true if receipts may currently be recorded against this order.
func (o *PurchaseOrder) CanReceive() bool {
	return o.Status == PurchaseOrderStatusIssued ||
		o.Status == PurchaseOrderStatusAcknowledged ||
		o.Status == PurchaseOrderStatusPartiallyFulfilled
}

// GetLine returns a line item by id.
func (o *PurchaseOrder) GetLine(lineID uuid.UUID) *PoLineItem {
	for idx := range o.Items {
		if o.Items[idx].ID == lineID {
			return &o.Items[idx]
		}
	}
	return nil
}

// ApplyReceiptLine records quantity received against one line item and
// advances PO status to PARTIALLY_FULFILLED or FULFILLED as appropriate.
// Driven by Receipt confirmation (§4.7); the Receipt aggregate itself does
// not mutate the PO directly — the application service calls this once per
// receipt line inside the same transaction that confirms the Receipt.
func (o *PurchaseOrder) ApplyReceiptLine(lineID uuid.UUID, quantity int64) error {
	if !o.CanReceive() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("cannot receive goods for purchase order in %s status", o.Status))
	}

	line := o.GetLine(lineID)
	if line == nil {
		return shared.NewDomainError("ITEM_NOT_FOUND", "purchase order line not found")
	}
	if err := line.AddReceivedQuantity(quantity); err != nil {
		return err
	}

	if o.isAllItemsReceived() {
		o.Status = PurchaseOrderStatusFulfilled
	} else {
		o.Status = PurchaseOrderStatusPartiallyFulfilled
	}
	o.UpdatedAt = time.Now()
	o.IncrementVersion()

	o.AddDomainEvent(NewPurchaseOrderReceivedEvent(o))

	return nil
}

// Cancel cancels the order from any non-terminal status, releasing the
// parent PR's budget reservation is the caller's responsibility.
func (o *PurchaseOrder) Cancel(reason string) error {
	if !o.Status.CanCancel() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("cannot cancel purchase order in %s status", o.Status))
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return shared.NewDomainError("INVALID_REASON", "cancel reason is required")
	}

	now := time.Now()
	o.Status = PurchaseOrderStatusCancelled
	o.CancelledAt = &now
	o.CancelReason = reason
	o.UpdatedAt = now
	o.IncrementVersion()

	o.AddDomainEvent(NewPurchaseOrderCancelledEvent(o))

	return nil
}

// Close transitions FULFILLED -> CLOSED (administrative close-out after
// invoicing is complete).
func (o *PurchaseOrder) Close() error {
	if o.Status != PurchaseOrderStatusFulfilled {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("cannot close purchase order in %s status", o.Status))
	}

	o.Status = PurchaseOrderStatusClosed
	o.UpdatedAt = time.Now()
	o.IncrementVersion()

	return nil
}

func (o *PurchaseOrder) recalculateTotal() {
	var total int64
	for _, item := range o.Items {
		total += item.AmountCents()
	}
	o.TotalCents = total
}

func (o *PurchaseOrder) isAllItemsReceived() bool {
	if len(o.Items) == 0 {
		return false
	}
	for _, item := range o.Items {
		if !item.IsFullyReceived() {
			return false
		}
	}
	return true
}
