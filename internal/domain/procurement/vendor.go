package procurement

import (
	"strings"
	"time"

	"github.com/erp/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// VendorStatus represents the lifecycle status of a supplier-side vendor
// onboarded for Source-to-Pay sourcing.
type VendorStatus string

const (
	VendorStatusDraft         VendorStatus = "DRAFT"
	VendorStatusPendingReview VendorStatus = "PENDING_REVIEW"
	VendorStatusActive        VendorStatus = "ACTIVE"
	VendorStatusBlocked       VendorStatus = "BLOCKED"
)

func (s VendorStatus) IsValid() bool {
	switch s {
	case VendorStatusDraft, VendorStatusPendingReview, VendorStatusActive, VendorStatusBlocked:
		return true
	}
	return false
}

// Vendor is the aggregate root for a supplier a tenant may issue purchase
// orders against. tax_id and email are unique per tenant; uniqueness is
// enforced by the repository (unique index + pre-check), not here.
type Vendor struct {
	shared.TenantAggregateRoot
	LegalName string       `gorm:"type:varchar(200);not null"`
	TaxID     string       `gorm:"type:varchar(50);not null;uniqueIndex:idx_vendor_tenant_taxid,priority:2"`
	Email     string       `gorm:"type:varchar(200);not null;uniqueIndex:idx_vendor_tenant_email,priority:2"`
	Status    VendorStatus `gorm:"type:varchar(20);not null;default:'DRAFT'"`
	RiskScore int          `gorm:"not null;default:0"` // 0-100, refreshed by the periodic risk-score sweep
	DeletedAt *time.Time   `gorm:"index"`
}

func (Vendor) TableName() string {
	return "vendors"
}

// NewVendor creates a vendor record in DRAFT status.
func NewVendor(tenantID uuid.UUID, legalName, taxID, email string) (*Vendor, error) {
	legalName = strings.TrimSpace(legalName)
	taxID = strings.TrimSpace(taxID)
	email = strings.TrimSpace(strings.ToLower(email))

	if legalName == "" {
		return nil, shared.NewDomainError("INVALID_LEGAL_NAME", "vendor legal name cannot be empty")
	}
	if taxID == "" {
		return nil, shared.NewDomainError("INVALID_TAX_ID", "vendor tax id cannot be empty")
	}
	if email == "" {
		return nil, shared.NewDomainError("INVALID_EMAIL", "vendor email cannot be empty")
	}

	v := &Vendor{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		LegalName:           legalName,
		TaxID:               taxID,
		Email:               email,
		Status:              VendorStatusDraft,
		RiskScore:           0,
	}

	v.AddDomainEvent(NewVendorCreatedEvent(v))

	return v, nil
}

// SubmitForReview transitions DRAFT -> PENDING_REVIEW.
func (v *Vendor) SubmitForReview() error {
	if v.Status != VendorStatusDraft {
		return shared.NewDomainError(shared.CodeStateMismatch, "vendor must be in DRAFT to submit for review")
	}
	v.Status = VendorStatusPendingReview
	v.touch()
	return nil
}

// Approve transitions PENDING_REVIEW -> ACTIVE.
func (v *Vendor) Approve() error {
	if v.Status != VendorStatusPendingReview {
		return shared.NewDomainError(shared.CodeStateMismatch, "vendor must be PENDING_REVIEW to approve")
	}
	prev := v.Status
	v.Status = VendorStatusActive
	v.touch()
	v.AddDomainEvent(NewVendorStatusChangedEvent(v, prev))
	return nil
}

// Block transitions any non-blocked status to BLOCKED (compliance hold, risk escalation, etc).
func (v *Vendor) Block(reason string) error {
	if v.Status == VendorStatusBlocked {
		return shared.NewDomainError(shared.CodeStateMismatch, "vendor is already blocked")
	}
	prev := v.Status
	v.Status = VendorStatusBlocked
	v.touch()
	v.AddDomainEvent(NewVendorStatusChangedEvent(v, prev))
	return nil
}

// Reactivate transitions BLOCKED back to ACTIVE.
func (v *Vendor) Reactivate() error {
	if v.Status != VendorStatusBlocked {
		return shared.NewDomainError(shared.CodeStateMismatch, "vendor must be BLOCKED to reactivate")
	}
	prev := v.Status
	v.Status = VendorStatusActive
	v.touch()
	v.AddDomainEvent(NewVendorStatusChangedEvent(v, prev))
	return nil
}

// IsActive reports whether purchase orders may be issued against this vendor.
func (v *Vendor) IsActive() bool {
	return v.Status == VendorStatusActive
}

// SetRiskScore clamps and records a refreshed risk score (periodic sweep, §4.9(e)).
func (v *Vendor) SetRiskScore(score int) {
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	v.RiskScore = score
	v.touch()
}

func (v *Vendor) touch() {
	v.UpdatedAt = time.Now()
	v.IncrementVersion()
}
