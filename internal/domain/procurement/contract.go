package procurement

import (
	"strings"
	"time"

	"github.com/erp/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Contract is a vendor master agreement a PO may optionally reference
// (SPEC_FULL.md §3.1). Expiring contracts feed the document-expiry sweep
// (spec.md §4.9a).
type Contract struct {
	shared.TenantAggregateRoot
	ContractNumber string     `gorm:"type:varchar(50);not null;uniqueIndex:idx_contract_tenant_number,priority:2"`
	VendorID       uuid.UUID  `gorm:"type:uuid;not null;index"`
	EffectiveDate  time.Time  `gorm:"not null"`
	ExpiryDate     time.Time  `gorm:"not null"`
	CeilingCents   int64      `gorm:"not null"`
	RenewalTerms   string     `gorm:"type:varchar(1000)"`
	DocumentKey    string     `gorm:"type:varchar(500)"`
	TerminatedAt   *time.Time
}

func (Contract) TableName() string { return "contracts" }

// NewContract creates a new vendor master agreement.
func NewContract(tenantID, vendorID uuid.UUID, contractNumber string, effective, expiry time.Time, ceilingCents int64) (*Contract, error) {
	contractNumber = strings.TrimSpace(contractNumber)
	if contractNumber == "" {
		return nil, shared.NewDomainError("INVALID_CONTRACT_NUMBER", "contract number cannot be empty")
	}
	if vendorID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_VENDOR", "vendor id cannot be empty")
	}
	if !expiry.After(effective) {
		return nil, shared.NewDomainError("INVALID_DATES", "expiry date must be after effective date")
	}
	if ceilingCents <= 0 {
		return nil, shared.NewDomainError("INVALID_CEILING", "ceiling amount must be positive")
	}

	return &Contract{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		ContractNumber:      contractNumber,
		VendorID:            vendorID,
		EffectiveDate:        effective,
		ExpiryDate:           expiry,
		CeilingCents:         ceilingCents,
	}, nil
}

// IsActive reports whether the contract is currently in force.
func (c *Contract) IsActive(asOf time.Time) bool {
	if c.TerminatedAt != nil {
		return false
	}
	return !asOf.Before(c.EffectiveDate) && asOf.Before(c.ExpiryDate)
}

// DaysUntilExpiry returns the number of whole days remaining, used by the
// document-expiry sweep's 30/14/7/3-day thresholds.
func (c *Contract) DaysUntilExpiry(asOf time.Time) int {
	return int(c.ExpiryDate.Sub(asOf).Hours() / 24)
}

// Terminate ends a contract before its natural expiry.
func (c *Contract) Terminate() error {
	if c.TerminatedAt != nil {
		return shared.NewDomainError(shared.CodeStateMismatch, "contract already terminated")
	}
	now := time.Now()
	c.TerminatedAt = &now
	c.UpdatedAt = now
	c.IncrementVersion()
	return nil
}
