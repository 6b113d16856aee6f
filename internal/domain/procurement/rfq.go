package procurement

import (
	"fmt"
	"strings"
	"time"

	"github.com/erp/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// RfqStatus is the lifecycle of a pre-PR multi-vendor sourcing round
// (SPEC_FULL.md §3.1, supplemented from original_source).
type RfqStatus string

const (
	RfqStatusDraft     RfqStatus = "DRAFT"
	RfqStatusOpen      RfqStatus = "OPEN"
	RfqStatusAwarded   RfqStatus = "AWARDED"
	RfqStatusClosed    RfqStatus = "CLOSED"
	RfqStatusCancelled RfqStatus = "CANCELLED"
)

// RfqLineItem is one item a buyer is soliciting bids for.
type RfqLineItem struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key"`
	RfqID       uuid.UUID `gorm:"type:uuid;not null;index"`
	Description string    `gorm:"type:varchar(500);not null"`
	Quantity    int64     `gorm:"not null"`
	CreatedAt   time.Time `gorm:"not null"`
	UpdatedAt   time.Time `gorm:"not null"`
}

func (RfqLineItem) TableName() string { return "rfq_line_items" }

// RfqVendorInvite records that a vendor was invited to bid on an RFQ.
type RfqVendorInvite struct {
	ID         uuid.UUID  `gorm:"type:uuid;primary_key"`
	RfqID      uuid.UUID  `gorm:"type:uuid;not null;index"`
	VendorID   uuid.UUID  `gorm:"type:uuid;not null;index"`
	InvitedAt  time.Time  `gorm:"not null"`
	RespondedAt *time.Time
}

func (RfqVendorInvite) TableName() string { return "rfq_vendor_invites" }

// RfqBid is a vendor's response to an RFQ, one total per vendor.
type RfqBid struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key"`
	RfqID      uuid.UUID `gorm:"type:uuid;not null;index"`
	VendorID   uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_rfq_bid_vendor"`
	TotalCents int64     `gorm:"not null"`
	Notes      string    `gorm:"type:varchar(1000)"`
	SubmittedAt time.Time `gorm:"not null"`
}

func (RfqBid) TableName() string { return "rfq_bids" }

// Rfq is the aggregate root for a request-for-quote sourcing round.
type Rfq struct {
	shared.TenantAggregateRoot
	RfqNumber    string            `gorm:"type:varchar(50);not null;uniqueIndex:idx_rfq_tenant_number,priority:2"`
	DepartmentID uuid.UUID         `gorm:"type:uuid;not null;index"`
	Status       RfqStatus         `gorm:"type:varchar(20);not null;default:'DRAFT'"`
	Items        []RfqLineItem     `gorm:"foreignKey:RfqID;references:ID"`
	Invites      []RfqVendorInvite `gorm:"foreignKey:RfqID;references:ID"`
	Bids         []RfqBid          `gorm:"foreignKey:RfqID;references:ID"`
	AwardedVendorID *uuid.UUID
	AwardedAt       *time.Time
	AwardedPoID     *uuid.UUID
}

func (Rfq) TableName() string { return "rfqs" }

// NewRfq opens a draft RFQ for a department's sourcing round.
func NewRfq(tenantID uuid.UUID, rfqNumber string, departmentID uuid.UUID) (*Rfq, error) {
	rfqNumber = strings.TrimSpace(rfqNumber)
	if rfqNumber == "" {
		return nil, shared.NewDomainError("INVALID_RFQ_NUMBER", "rfq number cannot be empty")
	}
	return &Rfq{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		RfqNumber:           rfqNumber,
		DepartmentID:        departmentID,
		Status:              RfqStatusDraft,
	}, nil
}

// Publish transitions DRAFT -> OPEN, making the RFQ visible to invited vendors.
func (r *Rfq) Publish() error {
	if r.Status != RfqStatusDraft {
		return shared.NewDomainError(shared.CodeStateMismatch, fmt.Sprintf("cannot publish rfq in %s status", r.Status))
	}
	if len(r.Invites) == 0 {
		return shared.NewDomainError("NO_INVITES", "rfq must invite at least one vendor before publishing")
	}
	r.Status = RfqStatusOpen
	r.touch()
	return nil
}

// Award transitions OPEN -> AWARDED, picking the winning vendor's bid.
func (r *Rfq) Award(vendorID uuid.UUID) error {
	if r.Status != RfqStatusOpen {
		return shared.NewDomainError(shared.CodeStateMismatch, fmt.Sprintf("cannot award rfq in %s status", r.Status))
	}
	found := false
	for _, b := range r.Bids {
		if b.VendorID == vendorID {
			found = true
			break
		}
	}
	if !found {
		return shared.NewDomainError("BID_NOT_FOUND", "awarded vendor did not submit a bid")
	}
	r.Status = RfqStatusAwarded
	r.AwardedVendorID = &vendorID
	now := time.Now()
	r.AwardedAt = &now
	r.touch()
	return nil
}

// LinkAwardedPo records the PO seeded from this RFQ's award.
func (r *Rfq) LinkAwardedPo(poID uuid.UUID) {
	r.AwardedPoID = &poID
	r.touch()
}

// Close transitions AWARDED -> CLOSED.
func (r *Rfq) Close() error {
	if r.Status != RfqStatusAwarded {
		return shared.NewDomainError(shared.CodeStateMismatch, fmt.Sprintf("cannot close rfq in %s status", r.Status))
	}
	r.Status = RfqStatusClosed
	r.touch()
	return nil
}

// Cancel transitions any non-terminal status to CANCELLED.
func (r *Rfq) Cancel() error {
	if r.Status == RfqStatusClosed || r.Status == RfqStatusCancelled {
		return shared.NewDomainError(shared.CodeStateMismatch, fmt.Sprintf("cannot cancel rfq in %s status", r.Status))
	}
	r.Status = RfqStatusCancelled
	r.touch()
	return nil
}

func (r *Rfq) touch() {
	r.UpdatedAt = time.Now()
	r.IncrementVersion()
}
