package procurement

import (
	"strings"
	"time"

	"github.com/erp/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// FxRate is a stored currency-conversion rate used when an Invoice's
// currency differs from its PO's (SPEC_FULL.md §3.1). Resolution is
// direct-first, inverse-fallback per spec.md §9's resolved open question.
type FxRate struct {
	shared.TenantAggregateRoot
	BaseCurrency  string  `gorm:"type:varchar(3);not null;uniqueIndex:idx_fx_pair_date,priority:2"`
	QuoteCurrency string  `gorm:"type:varchar(3);not null;uniqueIndex:idx_fx_pair_date,priority:3"`
	Rate          float64 `gorm:"not null"`
	AsOfDate      time.Time `gorm:"not null;uniqueIndex:idx_fx_pair_date,priority:4"`
}

func (FxRate) TableName() string { return "fx_rates" }

// NewFxRate records a (base, quote, as_of_date) conversion rate.
func NewFxRate(tenantID uuid.UUID, base, quote string, rate float64, asOf time.Time) (*FxRate, error) {
	base = strings.ToUpper(strings.TrimSpace(base))
	quote = strings.ToUpper(strings.TrimSpace(quote))
	if len(base) != 3 || len(quote) != 3 {
		return nil, shared.NewDomainError("INVALID_CURRENCY", "base and quote must be three-letter currency codes")
	}
	if rate <= 0 {
		return nil, shared.NewDomainError("INVALID_RATE", "rate must be positive")
	}

	return &FxRate{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		BaseCurrency:        base,
		QuoteCurrency:       quote,
		Rate:                rate,
		AsOfDate:            asOf,
	}, nil
}

// Convert applies the rate to amountCents, base -> quote.
func (r *FxRate) Convert(amountCents int64) int64 {
	return int64(float64(amountCents) * r.Rate)
}

// Inverse returns the reciprocal rate as a quote->base FxRate, used as the
// inverse-fallback when no direct rate exists for a currency pair.
func (r *FxRate) Inverse() *FxRate {
	return &FxRate{
		TenantAggregateRoot: r.TenantAggregateRoot,
		BaseCurrency:        r.QuoteCurrency,
		QuoteCurrency:       r.BaseCurrency,
		Rate:                1 / r.Rate,
		AsOfDate:            r.AsOfDate,
	}
}

// ResolveRate picks direct-first, inverse-fallback between two candidate
// sets of rates for a (base, quote) pair, per spec.md §9.
func ResolveRate(direct, inverse []FxRate) *FxRate {
	if best := mostRecent(direct); best != nil {
		return best
	}
	if best := mostRecent(inverse); best != nil {
		return best.Inverse()
	}
	return nil
}

func mostRecent(rates []FxRate) *FxRate {
	var best *FxRate
	for i := range rates {
		if best == nil || rates[i].AsOfDate.After(best.AsOfDate) {
			best = &rates[i]
		}
	}
	return best
}
