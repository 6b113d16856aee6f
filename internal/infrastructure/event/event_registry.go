package event

import (
	"github.com/erp/backend/internal/domain/procurement"
	"github.com/erp/backend/internal/domain/trade"
)

// RegisterAllEvents registers all domain event types with the serializer.
// This is required for the OutboxProcessor to deserialize events from the outbox table.
func RegisterAllEvents(serializer *EventSerializer) {
	// Procurement domain - Vendor events
	serializer.Register(procurement.EventTypeVendorCreated, &procurement.VendorCreatedEvent{})
	serializer.Register(procurement.EventTypeVendorStatusChanged, &procurement.VendorStatusChangedEvent{})

	// Procurement domain - Purchase Request events
	serializer.Register(procurement.EventTypePrCreated, &procurement.PrCreatedEvent{})
	serializer.Register(procurement.EventTypePrSubmitted, &procurement.PrSubmittedEvent{})
	serializer.Register(procurement.EventTypePrApproved, &procurement.PrApprovedEvent{})
	serializer.Register(procurement.EventTypePrRejected, &procurement.PrRejectedEvent{})
	serializer.Register(procurement.EventTypePrCancelled, &procurement.PrCancelledEvent{})

	// Procurement domain - Invoice events
	serializer.Register(procurement.EventTypeInvoiceUploaded, &procurement.InvoiceUploadedEvent{})
	serializer.Register(procurement.EventTypeInvoiceMatched, &procurement.InvoiceMatchedEvent{})
	serializer.Register(procurement.EventTypeInvoiceException, &procurement.InvoiceExceptionEvent{})
	serializer.Register(procurement.EventTypeInvoiceOverridden, &procurement.InvoiceOverriddenEvent{})
	serializer.Register(procurement.EventTypeInvoiceApproved, &procurement.InvoiceApprovedEvent{})
	serializer.Register(procurement.EventTypeInvoicePaid, &procurement.InvoicePaidEvent{})

	// Procurement domain - Receipt events
	serializer.Register(procurement.EventTypeReceiptConfirmed, &procurement.ReceiptConfirmedEvent{})

	// Procurement domain - Budget events
	serializer.Register("budget.reserved", &procurement.BudgetReservedEvent{})
	serializer.Register("budget.released", &procurement.BudgetReleasedEvent{})
	serializer.Register("budget.spent", &procurement.BudgetSpentEvent{})

	// Procurement domain - Approval events
	serializer.Register("approval.step_approved", &procurement.ApprovalStepApprovedEvent{})
	serializer.Register("approval.step_rejected", &procurement.ApprovalStepRejectedEvent{})

	// Trade domain - Purchase Order events, reused as the procurement PO aggregate
	serializer.Register(trade.EventTypePurchaseOrderCreated, &trade.PurchaseOrderCreatedEvent{})
	serializer.Register(trade.EventTypePurchaseOrderIssued, &trade.PurchaseOrderIssuedEvent{})
	serializer.Register(trade.EventTypePurchaseOrderReceived, &trade.PurchaseOrderReceivedEvent{})
	serializer.Register(trade.EventTypePurchaseOrderCancelled, &trade.PurchaseOrderCancelledEvent{})
}
