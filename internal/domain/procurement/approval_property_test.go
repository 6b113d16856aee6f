package procurement

import (
	"math/rand"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// TestApprovalChain_RandomInterleavingsPreserveSingleCurrentStep drives
// random approve/reject sequences across chains of varying length and
// asserts P3 (spec.md §8 "Approval uniqueness", property target b): at
// every point while the entity is still pending, CurrentStep identifies
// exactly one actionable approval, it is always the lowest unresolved
// level, and ProcessApproval-style processing never revisits a level once
// it has left PENDING.
func TestApprovalChain_RandomInterleavingsPreserveSingleCurrentStep(t *testing.T) {
	tenantID := uuid.New()
	entityID := uuid.New()
	rng := rand.New(rand.NewSource(99))

	for trial := 0; trial < 100; trial++ {
		levels := 1 + rng.Intn(3)
		chain := make(ApprovalChain, 0, levels)
		for level := 1; level <= levels; level++ {
			step, err := NewApproval(tenantID, ApprovableEntityPR, entityID, level, uuid.New())
			require.NoError(t, err)
			chain = append(chain, *step)
		}

		resolvedLevels := map[int]bool{}
		lastResolvedLevel := 0

		for chain.CurrentStep() != nil {
			current := chain.CurrentStep()
			require.Greater(t, current.ApprovalLevel, lastResolvedLevel,
				"trial %d: current step regressed to an already-resolved level", trial)
			require.False(t, resolvedLevels[current.ApprovalLevel],
				"trial %d: level %d processed twice", trial, current.ApprovalLevel)

			rejected := rng.Intn(5) == 0
			if rejected {
				require.NoError(t, current.Reject("reason"))
			} else {
				require.NoError(t, current.Approve("ok"))
			}
			resolvedLevels[current.ApprovalLevel] = true
			lastResolvedLevel = current.ApprovalLevel

			if rejected {
				// Mirrors PurchaseRequestService.Reject: remaining pending
				// steps are cancelled, and the entity leaves PENDING for
				// good, so no further step ever becomes current again.
				for i := range chain {
					if chain[i].Status == ApprovalStatusPending {
						require.NoError(t, chain[i].Cancel())
						resolvedLevels[chain[i].ApprovalLevel] = true
					}
				}
				break
			}

			pendingCount := 0
			for i := range chain {
				if chain[i].Status == ApprovalStatusPending {
					pendingCount++
				}
			}
			if next := chain.CurrentStep(); next != nil {
				require.Equal(t, pendingCount, len(chain)-len(resolvedLevels),
					"trial %d: pending count drifted from resolved-level bookkeeping", trial)
			}
		}

		require.Len(t, resolvedLevels, levels, "trial %d: every level must resolve exactly once", trial)
	}
}
