package procurement

import (
	"time"

	"github.com/erp/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// VendorScorecard is a derived, periodically recomputed vendor performance
// summary feeding Vendor.RiskScore (SPEC_FULL.md §3.1; spec.md §4.9e
// "vendor risk-score refresh"). It is a scheduled batch recomputation over
// transactional records, not ad-hoc analytics.
type VendorScorecard struct {
	shared.TenantAggregateRoot
	VendorID            uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	OnTimeDeliveryRate   float64   `gorm:"not null;default:0"`
	PriceVarianceRate    float64   `gorm:"not null;default:0"`
	DisputeRate          float64   `gorm:"not null;default:0"`
	RecomputedAt         time.Time `gorm:"not null"`
}

func (VendorScorecard) TableName() string { return "vendor_scorecards" }

// NewVendorScorecard creates the first scorecard snapshot for a vendor.
func NewVendorScorecard(tenantID, vendorID uuid.UUID) *VendorScorecard {
	return &VendorScorecard{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		VendorID:            vendorID,
		RecomputedAt:        time.Now(),
	}
}

// Recompute replaces the three component rates and stamps recomputed_at.
// Rates are clamped to [0,1]; a component with no observations (e.g. a
// vendor with no deliveries yet) is passed as 0 by the caller.
func (s *VendorScorecard) Recompute(onTimeRate, priceVarianceRate, disputeRate float64) {
	s.OnTimeDeliveryRate = clampRate(onTimeRate)
	s.PriceVarianceRate = clampRate(priceVarianceRate)
	s.DisputeRate = clampRate(disputeRate)
	s.RecomputedAt = time.Now()
	s.UpdatedAt = time.Now()
	s.IncrementVersion()
}

// RiskScore derives a 0-100 risk score from the three component rates: a
// higher dispute/variance rate and a lower on-time rate push risk up.
// Weighting: 40% on-time shortfall, 35% price variance, 25% disputes.
func (s *VendorScorecard) RiskScore() int {
	onTimeShortfall := 1 - s.OnTimeDeliveryRate
	score := 0.40*onTimeShortfall + 0.35*s.PriceVarianceRate + 0.25*s.DisputeRate
	risk := int(score * 100)
	if risk < 0 {
		risk = 0
	}
	if risk > 100 {
		risk = 100
	}
	return risk
}

func clampRate(r float64) float64 {
	if r < 0 {
		return 0
	}
	if r > 1 {
		return 1
	}
	return r
}
