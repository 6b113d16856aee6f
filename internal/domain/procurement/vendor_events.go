package procurement

import (
	"github.com/erp/backend/internal/domain/shared"
	"github.com/google/uuid"
)

const AggregateTypeVendor = "Vendor"

const (
	EventTypeVendorCreated       = "VendorCreated"
	EventTypeVendorStatusChanged = "VendorStatusChanged"
)

// VendorCreatedEvent is raised when a new vendor is drafted for onboarding.
type VendorCreatedEvent struct {
	shared.BaseDomainEvent
	VendorID  uuid.UUID `json:"vendor_id"`
	LegalName string    `json:"legal_name"`
	TaxID     string    `json:"tax_id"`
}

func NewVendorCreatedEvent(v *Vendor) *VendorCreatedEvent {
	return &VendorCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeVendorCreated, AggregateTypeVendor, v.ID, v.TenantID),
		VendorID:        v.ID,
		LegalName:       v.LegalName,
		TaxID:           v.TaxID,
	}
}

// VendorStatusChangedEvent is raised on every vendor status transition
// (approve, block, reactivate) — used for P5 audit completeness.
type VendorStatusChangedEvent struct {
	shared.BaseDomainEvent
	VendorID  uuid.UUID    `json:"vendor_id"`
	FromState VendorStatus `json:"from_state"`
	ToState   VendorStatus `json:"to_state"`
}

func NewVendorStatusChangedEvent(v *Vendor, from VendorStatus) *VendorStatusChangedEvent {
	return &VendorStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeVendorStatusChanged, AggregateTypeVendor, v.ID, v.TenantID),
		VendorID:        v.ID,
		FromState:       from,
		ToState:         v.Status,
	}
}
