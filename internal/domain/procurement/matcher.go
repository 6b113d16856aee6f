package procurement

import (
	"strings"

	"github.com/erp/backend/internal/domain/shared"
	"github.com/erp/backend/internal/domain/trade"
	"github.com/google/uuid"
)

// MatchTolerance configures the three-way matcher's price-variance
// allowance (spec.md §4.8).
type MatchTolerance struct {
	PriceVariancePercent float64
	MinVarianceCents     int64
}

// DefaultMatchTolerance is the spec's default tolerance {2.0%, 1000 cents}.
var DefaultMatchTolerance = MatchTolerance{PriceVariancePercent: 2.0, MinVarianceCents: 1000}

// MatchReceivedQuantities maps a PoLineItem id to the total quantity
// received against it, aggregated by the caller (e.g. via
// ReceiptRepository.SumReceivedQuantityByPoLine) across every confirmed
// Receipt referencing the PO — kept as a caller-supplied input so the
// matcher itself never touches the database (spec.md §4.8 "the matcher is
// pure: it reads the database but mutates nothing" refers to the caller
// doing the reading; this function performs none of it).
type MatchReceivedQuantities map[uuid.UUID]int64

// MatchResult is the three-way matcher's verdict: PASS when exceptions
// is empty, FAIL otherwise. The caller persists this into the Invoice
// via Invoice.RecordMatchResult and records one audit entry.
type MatchResult struct {
	Status     MatchStatus
	Exceptions []MatchException
}

// ThreeWayMatch reconciles PO lines, received quantities and invoice lines
// line-by-line (spec.md §4.8). It is a pure function: given the same
// inputs it always returns the same result, and it performs no I/O.
func ThreeWayMatch(poLines []trade.PoLineItem, invoiceLines []InvoiceLineItem, received MatchReceivedQuantities, tolerance MatchTolerance) MatchResult {
	if len(poLines) == 0 {
		return MatchResult{
			Status: MatchStatusFail,
			Exceptions: []MatchException{{
				Code:   shared.CodeNoPoLines,
				Detail: map[string]interface{}{},
			}},
		}
	}

	invoiceByDescription := make(map[string]InvoiceLineItem, len(invoiceLines))
	for _, line := range invoiceLines {
		key := normalizeDescription(line.Description)
		invoiceByDescription[key] = line
	}

	var exceptions []MatchException

	for _, poLine := range poLines {
		receivedQty := received[poLine.ID]
		key := normalizeDescription(poLine.Description)

		invLine, ok := invoiceByDescription[key]
		if !ok {
			exceptions = append(exceptions, MatchException{
				Code: shared.CodeMissingInvoiceLine,
				Detail: map[string]interface{}{
					"ordered_qty":  poLine.Quantity,
					"received_qty": receivedQty,
					"description":  poLine.Description,
				},
			})
			continue
		}

		if invLine.Quantity != receivedQty {
			exceptions = append(exceptions, MatchException{
				Code: shared.CodeQtyMismatch,
				Detail: map[string]interface{}{
					"ordered":  poLine.Quantity,
					"received": receivedQty,
					"invoiced": invLine.Quantity,
				},
			})
		}

		delta := invLine.UnitPriceCents - poLine.UnitPriceCents
		if delta < 0 {
			delta = -delta
		}
		tol := int64(float64(poLine.UnitPriceCents) * tolerance.PriceVariancePercent / 100)
		if tol < tolerance.MinVarianceCents {
			tol = tolerance.MinVarianceCents
		}
		if delta > tol {
			variancePct := 0.0
			if poLine.UnitPriceCents != 0 {
				variancePct = float64(delta) / float64(poLine.UnitPriceCents) * 100
			}
			exceptions = append(exceptions, MatchException{
				Code: shared.CodePriceVariance,
				Detail: map[string]interface{}{
					"po_price":      poLine.UnitPriceCents,
					"invoice_price": invLine.UnitPriceCents,
					"variance":      delta,
					"tolerance":     tol,
					"variance_pct":  variancePct,
				},
			})
		}
	}

	if len(exceptions) == 0 {
		return MatchResult{Status: MatchStatusPass, Exceptions: nil}
	}
	return MatchResult{Status: MatchStatusFail, Exceptions: exceptions}
}

func normalizeDescription(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
