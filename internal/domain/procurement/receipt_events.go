package procurement

import (
	"github.com/erp/backend/internal/domain/shared"
	"github.com/google/uuid"
)

const AggregateTypeReceipt = "Receipt"

const EventTypeReceiptConfirmed = "ReceiptConfirmed"

// ReceiptConfirmedEvent is raised when a GRN moves DRAFT -> CONFIRMED. The
// subscriber set includes the PO fulfillment recalculation and the
// three-way-match trigger for every open invoice linked to the PO.
type ReceiptConfirmedEvent struct {
	shared.BaseDomainEvent
	ReceiptID uuid.UUID `json:"receipt_id"`
	PoID      uuid.UUID `json:"po_id"`
}

func NewReceiptConfirmedEvent(r *Receipt) *ReceiptConfirmedEvent {
	return &ReceiptConfirmedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeReceiptConfirmed, AggregateTypeReceipt, r.ID, r.TenantID),
		ReceiptID:       r.ID,
		PoID:            r.PoID,
	}
}
