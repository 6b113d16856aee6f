package procurement

import (
	"github.com/erp/backend/internal/domain/shared"
	"github.com/google/uuid"
)

const AggregateTypeInvoice = "Invoice"

const (
	EventTypeInvoiceUploaded   = "InvoiceUploaded"
	EventTypeInvoiceMatched    = "InvoiceMatched"
	EventTypeInvoiceException  = "InvoiceException"
	EventTypeInvoiceOverridden = "InvoiceOverridden"
	EventTypeInvoiceApproved   = "InvoiceApprovedForPayment"
	EventTypeInvoicePaid       = "InvoicePaid"
)

type InvoiceUploadedEvent struct {
	shared.BaseDomainEvent
	InvoiceID uuid.UUID `json:"invoice_id"`
	VendorID  uuid.UUID `json:"vendor_id"`
}

func NewInvoiceUploadedEvent(inv *Invoice) *InvoiceUploadedEvent {
	return &InvoiceUploadedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoiceUploaded, AggregateTypeInvoice, inv.ID, inv.TenantID),
		InvoiceID:       inv.ID,
		VendorID:        inv.VendorID,
	}
}

type InvoiceMatchedEvent struct {
	shared.BaseDomainEvent
	InvoiceID uuid.UUID `json:"invoice_id"`
}

func NewInvoiceMatchedEvent(inv *Invoice) *InvoiceMatchedEvent {
	return &InvoiceMatchedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoiceMatched, AggregateTypeInvoice, inv.ID, inv.TenantID),
		InvoiceID:       inv.ID,
	}
}

type InvoiceExceptionEvent struct {
	shared.BaseDomainEvent
	InvoiceID  uuid.UUID         `json:"invoice_id"`
	Exceptions []MatchException `json:"exceptions"`
}

func NewInvoiceExceptionEvent(inv *Invoice, exceptions []MatchException) *InvoiceExceptionEvent {
	return &InvoiceExceptionEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoiceException, AggregateTypeInvoice, inv.ID, inv.TenantID),
		InvoiceID:       inv.ID,
		Exceptions:      exceptions,
	}
}

type InvoiceOverriddenEvent struct {
	shared.BaseDomainEvent
	InvoiceID uuid.UUID `json:"invoice_id"`
}

func NewInvoiceOverriddenEvent(inv *Invoice) *InvoiceOverriddenEvent {
	return &InvoiceOverriddenEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoiceOverridden, AggregateTypeInvoice, inv.ID, inv.TenantID),
		InvoiceID:       inv.ID,
	}
}

type InvoiceApprovedEvent struct {
	shared.BaseDomainEvent
	InvoiceID uuid.UUID `json:"invoice_id"`
}

func NewInvoiceApprovedEvent(inv *Invoice) *InvoiceApprovedEvent {
	return &InvoiceApprovedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoiceApproved, AggregateTypeInvoice, inv.ID, inv.TenantID),
		InvoiceID:       inv.ID,
	}
}

type InvoicePaidEvent struct {
	shared.BaseDomainEvent
	InvoiceID uuid.UUID `json:"invoice_id"`
}

func NewInvoicePaidEvent(inv *Invoice) *InvoicePaidEvent {
	return &InvoicePaidEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoicePaid, AggregateTypeInvoice, inv.ID, inv.TenantID),
		InvoiceID:       inv.ID,
	}
}
