package procurement

import (
	"fmt"
	"strings"
	"time"

	"github.com/erp/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ReceiptStatus is the lifecycle status of a goods receipt note.
type ReceiptStatus string

const (
	ReceiptStatusDraft     ReceiptStatus = "DRAFT"
	ReceiptStatusConfirmed ReceiptStatus = "CONFIRMED"
	ReceiptStatusCancelled ReceiptStatus = "CANCELLED"
)

func (s ReceiptStatus) IsValid() bool {
	switch s {
	case ReceiptStatusDraft, ReceiptStatusConfirmed, ReceiptStatusCancelled:
		return true
	}
	return false
}

// LineCondition describes the physical condition goods arrived in.
type LineCondition string

const (
	ConditionGood     LineCondition = "GOOD"
	ConditionDamaged  LineCondition = "DAMAGED"
	ConditionPartial  LineCondition = "PARTIAL"
)

func (c LineCondition) IsValid() bool {
	switch c {
	case ConditionGood, ConditionDamaged, ConditionPartial:
		return true
	}
	return false
}

// ReceiptLineItem references one PoLineItem and records the quantity that
// physically arrived against it, in the condition observed.
type ReceiptLineItem struct {
	ID               uuid.UUID     `gorm:"type:uuid;primary_key"`
	ReceiptID        uuid.UUID     `gorm:"type:uuid;not null;index"`
	PoLineItemID     uuid.UUID     `gorm:"type:uuid;not null;index"`
	QuantityReceived int64         `gorm:"not null"`
	Condition        LineCondition `gorm:"type:varchar(20);not null;default:'GOOD'"`
	Notes            string        `gorm:"type:varchar(500)"`
	CreatedAt        time.Time     `gorm:"not null"`
	UpdatedAt        time.Time     `gorm:"not null"`
}

func (ReceiptLineItem) TableName() string {
	return "receipt_line_items"
}

// NewReceiptLineItem creates a receipt line against a PO line. Quantity-vs-remaining
// validation is performed by the application service, which has the PoLineItem
// loaded (the Receipt aggregate does not hold a reference to PurchaseOrder).
func NewReceiptLineItem(receiptID, poLineItemID uuid.UUID, quantityReceived int64, condition LineCondition) (*ReceiptLineItem, error) {
	if poLineItemID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PO_LINE", "po line item id cannot be empty")
	}
	if quantityReceived <= 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "quantity received must be positive")
	}
	if condition == "" {
		condition = ConditionGood
	}
	if !condition.IsValid() {
		return nil, shared.NewDomainError("INVALID_CONDITION", "condition must be one of GOOD, DAMAGED, PARTIAL")
	}

	now := time.Now()
	return &ReceiptLineItem{
		ID:               uuid.New(),
		ReceiptID:        receiptID,
		PoLineItemID:     poLineItemID,
		QuantityReceived: quantityReceived,
		Condition:        condition,
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

// Receipt (GRN) is the aggregate root recording goods arrival against a PO.
type Receipt struct {
	shared.TenantAggregateRoot
	ReceiptNumber string            `gorm:"type:varchar(50);not null;uniqueIndex:idx_receipt_tenant_number,priority:2"`
	PoID          uuid.UUID         `gorm:"type:uuid;not null;index"`
	ReceiverID    uuid.UUID         `gorm:"type:uuid;not null;index"`
	ReceiptDate   time.Time         `gorm:"not null"`
	Status        ReceiptStatus     `gorm:"type:varchar(20);not null;default:'DRAFT'"`
	Items         []ReceiptLineItem `gorm:"foreignKey:ReceiptID;references:ID"`
	CancelledAt   *time.Time
}

func (Receipt) TableName() string {
	return "receipts"
}

// NewReceipt creates a draft receipt against a PO.
func NewReceipt(tenantID uuid.UUID, receiptNumber string, poID, receiverID uuid.UUID, receiptDate time.Time) (*Receipt, error) {
	receiptNumber = strings.TrimSpace(receiptNumber)
	if receiptNumber == "" {
		return nil, shared.NewDomainError("INVALID_RECEIPT_NUMBER", "receipt number cannot be empty")
	}
	if poID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PO", "po id cannot be empty")
	}
	if receiverID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_RECEIVER", "receiver id cannot be empty")
	}

	r := &Receipt{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		ReceiptNumber:       receiptNumber,
		PoID:                poID,
		ReceiverID:          receiverID,
		ReceiptDate:         receiptDate,
		Status:              ReceiptStatusDraft,
		Items:               make([]ReceiptLineItem, 0),
	}

	return r, nil
}

// AddItem appends a receipt line. Only allowed while DRAFT. Per-line bound
// checking against the PoLineItem's remaining quantity is the caller's
// responsibility (it has both aggregates loaded).
func (r *Receipt) AddItem(poLineItemID uuid.UUID, quantityReceived int64, condition LineCondition) (*ReceiptLineItem, error) {
	if r.Status != ReceiptStatusDraft {
		return nil, shared.NewDomainError(shared.CodeStateMismatch, "cannot add items to a non-draft receipt")
	}

	item, err := NewReceiptLineItem(r.ID, poLineItemID, quantityReceived, condition)
	if err != nil {
		return nil, err
	}

	r.Items = append(r.Items, *item)
	r.touch()

	return item, nil
}

// Confirm transitions DRAFT -> CONFIRMED. Requires at least one line.
// Confirmation is what drives the PoLineItem.ReceivedQuantity increments
// and the PO fulfillment-status recalculation and the three-way-match
// trigger for every open invoice on the PO (spec.md §4.7/§4.9) — all
// orchestrated by the application service within the same transaction.
func (r *Receipt) Confirm() error {
	if r.Status != ReceiptStatusDraft {
		return shared.NewDomainError(shared.CodeStateMismatch, fmt.Sprintf("cannot confirm receipt in %s status", r.Status))
	}
	if len(r.Items) == 0 {
		return shared.NewDomainError("NO_ITEMS", "cannot confirm a receipt without line items")
	}

	r.Status = ReceiptStatusConfirmed
	r.touch()

	r.AddDomainEvent(NewReceiptConfirmedEvent(r))

	return nil
}

// Cancel transitions any non-cancelled receipt to CANCELLED.
func (r *Receipt) Cancel() error {
	if r.Status == ReceiptStatusCancelled {
		return shared.NewDomainError(shared.CodeStateMismatch, "receipt is already cancelled")
	}

	now := time.Now()
	r.Status = ReceiptStatusCancelled
	r.CancelledAt = &now
	r.touch()

	return nil
}

func (r *Receipt) touch() {
	r.UpdatedAt = time.Now()
	r.IncrementVersion()
}
