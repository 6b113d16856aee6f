package procurement

import (
	"math/rand"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// reservedCentsOf mirrors GormBudgetRepository.CheckAndReserve's
// under-lock aggregation: the sum of AmountCents across COMMITTED
// reservations against a budget.
func reservedCentsOf(reservations map[uuid.UUID]*BudgetReservation) int64 {
	var sum int64
	for _, r := range reservations {
		if r.Status == ReservationStatusCommitted {
			sum += r.AmountCents
		}
	}
	return sum
}

// TestBudget_ReserveReleaseCommitSequencePreservesNonOverdraft drives random
// sequences of reserve/release/commit against one Budget and asserts P1
// (spec.md §8 "Budget non-overdraft", property target a): at every step,
// spent_cents + Σ(COMMITTED reservations) never exceeds total_cents. The
// sequence reproduces CheckAndReserve/ReleaseReservation/CommitSpent's
// under-lock logic directly against the domain types, since the real
// repository methods require a live Postgres row lock this test has no
// database to take.
func TestBudget_ReserveReleaseCommitSequencePreservesNonOverdraft(t *testing.T) {
	tenantID := uuid.New()
	rng := rand.New(rand.NewSource(42))

	for trial := 0; trial < 100; trial++ {
		budget, err := NewBudget(tenantID, uuid.New(), 2026, 1, int64(1_000_000+rng.Intn(9_000_000)))
		require.NoError(t, err)

		reservations := make(map[uuid.UUID]*BudgetReservation)
		var liveEntityIDs []uuid.UUID

		for step := 0; step < 40; step++ {
			switch rng.Intn(3) {
			case 0: // reserve
				amount := int64(1 + rng.Intn(500_000))
				available := budget.AvailableCents(reservedCentsOf(reservations))
				if available < amount {
					continue // CheckAndReserve would refuse: CodeBudgetExceeded
				}
				entityID := uuid.New()
				res, err := NewBudgetReservation(tenantID, budget.ID, ReservationEntityPR, entityID, amount)
				require.NoError(t, err)
				reservations[entityID] = res
				liveEntityIDs = append(liveEntityIDs, entityID)

			case 1: // release a committed reservation
				if len(liveEntityIDs) == 0 {
					continue
				}
				id := liveEntityIDs[rng.Intn(len(liveEntityIDs))]
				res := reservations[id]
				if res.Status == ReservationStatusCommitted {
					require.NoError(t, res.Release())
				}

			case 2: // commit a committed reservation to spent
				if len(liveEntityIDs) == 0 {
					continue
				}
				id := liveEntityIDs[rng.Intn(len(liveEntityIDs))]
				res := reservations[id]
				if res.Status == ReservationStatusCommitted {
					require.NoError(t, res.MarkSpent())
					require.NoError(t, budget.CommitSpent(res.AmountCents))
				}
			}

			require.LessOrEqual(t, budget.SpentCents+reservedCentsOf(reservations), budget.TotalCents,
				"P1 violated at trial %d step %d", trial, step)
		}
	}
}
