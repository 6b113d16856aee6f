package procurement

import (
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/erp/backend/internal/domain/shared"
	"github.com/erp/backend/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThreeWayMatch_ExactMatchPasses(t *testing.T) {
	poLine := mustPoLine(t, "Widget", 10, 100_000)
	invLine := mustInvoiceLine(t, "Widget", 10, 100_000)
	received := MatchReceivedQuantities{poLine.ID: 10}

	result := ThreeWayMatch([]trade.PoLineItem{*poLine}, []InvoiceLineItem{*invLine}, received, DefaultMatchTolerance)

	assert.Equal(t, MatchStatusPass, result.Status)
	assert.Empty(t, result.Exceptions)
}

func TestThreeWayMatch_NoPoLinesFails(t *testing.T) {
	result := ThreeWayMatch(nil, nil, MatchReceivedQuantities{}, DefaultMatchTolerance)

	require.Len(t, result.Exceptions, 1)
	assert.Equal(t, shared.CodeNoPoLines, result.Exceptions[0].Code)
}

func TestThreeWayMatch_MissingInvoiceLineReportsOrderedAndReceived(t *testing.T) {
	poLine := mustPoLine(t, "Widget", 10, 100_000)
	received := MatchReceivedQuantities{poLine.ID: 7}

	result := ThreeWayMatch([]trade.PoLineItem{*poLine}, nil, received, DefaultMatchTolerance)

	require.Len(t, result.Exceptions, 1)
	exc := result.Exceptions[0]
	assert.Equal(t, shared.CodeMissingInvoiceLine, exc.Code)
	assert.Equal(t, int64(10), exc.Detail["ordered_qty"])
	assert.Equal(t, int64(7), exc.Detail["received_qty"])
}

// Property (c): fuzzed invoice descriptions with casing/whitespace
// variation still match correctly (spec.md §4.8/§8 property target c).
// normalizeDescription folds the description to lowercase and trims
// surrounding whitespace, so any combination of leading/trailing spaces
// and letter casing on an otherwise-identical description must still
// line up with its PO line.
func TestThreeWayMatch_DescriptionCasingAndWhitespaceFuzz(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	base := "Industrial Grade Widget Assembly"

	for i := 0; i < 200; i++ {
		fuzzed := fuzzDescriptionCasingAndWhitespace(rng, base)

		poLine := mustPoLine(t, base, 5, 250_000)
		invLine := mustInvoiceLine(t, fuzzed, 5, 250_000)
		received := MatchReceivedQuantities{poLine.ID: 5}

		result := ThreeWayMatch([]trade.PoLineItem{*poLine}, []InvoiceLineItem{*invLine}, received, DefaultMatchTolerance)

		require.Equal(t, MatchStatusPass, result.Status, "fuzzed description %q should still match %q", fuzzed, base)
		require.Empty(t, result.Exceptions)
	}
}

func fuzzDescriptionCasingAndWhitespace(rng *rand.Rand, s string) string {
	var b strings.Builder
	for i := 0; i < rng.Intn(3); i++ {
		b.WriteByte(' ')
	}
	for _, r := range s {
		if rng.Intn(2) == 0 {
			b.WriteRune(r)
		} else {
			b.WriteRune(toggleCase(r))
		}
	}
	for i := 0; i < rng.Intn(3); i++ {
		b.WriteByte(' ')
	}
	return b.String()
}

func toggleCase(r rune) rune {
	lower := strings.ToLower(string(r))
	upper := strings.ToUpper(string(r))
	if string(r) == lower {
		return []rune(upper)[0]
	}
	return []rune(lower)[0]
}

func mustPoLine(t *testing.T, description string, quantity, unitPriceCents int64) *trade.PoLineItem {
	t.Helper()
	line, err := trade.NewPoLineItem(uuid.New(), description, quantity, unitPriceCents)
	require.NoError(t, err)
	return line
}

func mustInvoiceLine(t *testing.T, description string, quantity, unitPriceCents int64) *InvoiceLineItem {
	t.Helper()
	line, err := NewInvoiceLineItem(uuid.New(), description, quantity, unitPriceCents)
	require.NoError(t, err)
	return line
}

func TestThreeWayMatch_PriceVarianceBeyondToleranceFlagged(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 50; i++ {
		poPrice := int64(10_000 + rng.Intn(1_000_000))
		varianceCents := int64(5_000 + rng.Intn(50_000))

		tol := int64(float64(poPrice) * DefaultMatchTolerance.PriceVariancePercent / 100)
		if tol < DefaultMatchTolerance.MinVarianceCents {
			tol = DefaultMatchTolerance.MinVarianceCents
		}
		if varianceCents <= tol {
			continue
		}

		poLine := mustPoLine(t, fmt.Sprintf("Item-%d", i), 1, poPrice)
		invLine := mustInvoiceLine(t, fmt.Sprintf("Item-%d", i), 1, poPrice+varianceCents)
		received := MatchReceivedQuantities{poLine.ID: 1}

		result := ThreeWayMatch([]trade.PoLineItem{*poLine}, []InvoiceLineItem{*invLine}, received, DefaultMatchTolerance)

		require.Equal(t, MatchStatusFail, result.Status)
		require.Len(t, result.Exceptions, 1)
		assert.Equal(t, shared.CodePriceVariance, result.Exceptions[0].Code)
	}
}
