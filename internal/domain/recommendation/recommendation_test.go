package recommendation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 3, 4, 14, 0, 0, 0, time.UTC)

func rec(strategy Strategy, resourceType, resourceID string, confidence float64, priority Priority) Recommendation {
	return New(strategy, resourceType, resourceID, resourceID, confidence, "r", priority, testNow)
}

func TestNewClampsConfidence(t *testing.T) {
	assert.Equal(t, 0.0, rec(StrategyPeerBased, "role", "a", -0.2, PriorityLow).Confidence)
	assert.Equal(t, 1.0, rec(StrategyPeerBased, "role", "a", 1.7, PriorityLow).Confidence)
	assert.Equal(t, 0.4, rec(StrategyPeerBased, "role", "a", 0.4, PriorityLow).Confidence)
}

func TestDedupe(t *testing.T) {
	t.Run("keeps highest confidence per resource", func(t *testing.T) {
		recs := Dedupe([]Recommendation{
			rec(StrategyPeerBased, "role", "role-a", 0.6, PriorityMedium),
			rec(StrategyDepartmentBased, "role", "role-a", 0.8, PriorityHigh),
			rec(StrategyPeerBased, "role", "role-b", 0.7, PriorityMedium),
		})
		require.Len(t, recs, 2)
		assert.Equal(t, StrategyDepartmentBased, recs[0].Strategy)
		assert.Equal(t, 0.8, recs[0].Confidence)
		assert.Equal(t, "role-b", recs[1].ResourceID)
	})

	t.Run("first entry wins a confidence tie", func(t *testing.T) {
		first := rec(StrategyPeerBased, "role", "role-a", 0.8, PriorityMedium)
		second := rec(StrategyDepartmentBased, "role", "role-a", 0.8, PriorityMedium)
		recs := Dedupe([]Recommendation{first, second})
		require.Len(t, recs, 1)
		assert.Equal(t, first.ID, recs[0].ID)
	})

	t.Run("same id under different resource types stays distinct", func(t *testing.T) {
		recs := Dedupe([]Recommendation{
			rec(StrategyPeerBased, "role", "x", 0.6, PriorityMedium),
			rec(StrategyRoleBased, "permission", "x", 0.9, PriorityHigh),
		})
		assert.Len(t, recs, 2)
	})

	t.Run("preserves first-seen order", func(t *testing.T) {
		recs := Dedupe([]Recommendation{
			rec(StrategyPeerBased, "role", "role-c", 0.5, PriorityLow),
			rec(StrategyPeerBased, "role", "role-a", 0.5, PriorityLow),
			rec(StrategyDepartmentBased, "role", "role-c", 0.9, PriorityHigh),
		})
		require.Len(t, recs, 2)
		assert.Equal(t, "role-c", recs[0].ResourceID)
		assert.Equal(t, "role-a", recs[1].ResourceID)
	})
}

func TestRank(t *testing.T) {
	recs := Rank([]Recommendation{
		rec(StrategyBirthright, "standard_application", "app-1", 1.0, PriorityMedium),
		rec(StrategyPeerBased, "role", "role-1", 0.75, PriorityHigh),
		rec(StrategyCompliance, "role", "role-2", 1.0, PriorityCritical),
		rec(StrategyPeerBased, "role", "role-3", 0.9, PriorityHigh),
		rec(StrategyPeerBased, "role", "role-4", 0.5, PriorityLow),
	})

	got := make([]string, 0, len(recs))
	for _, r := range recs {
		got = append(got, r.ResourceID)
	}
	// Priority first, confidence breaks ties inside a band.
	assert.Equal(t, []string{"role-2", "role-3", "role-1", "app-1", "role-4"}, got)
}

func TestRankIsStable(t *testing.T) {
	a := rec(StrategyPeerBased, "role", "role-a", 0.8, PriorityHigh)
	b := rec(StrategyDepartmentBased, "role", "role-b", 0.8, PriorityHigh)
	recs := Rank([]Recommendation{a, b})
	assert.Equal(t, a.ID, recs[0].ID)
	assert.Equal(t, b.ID, recs[1].ID)
}

func TestEnforceAutoApproval(t *testing.T) {
	flagged := func(resourceType string, confidence float64) Recommendation {
		r := rec(StrategyRoleBased, resourceType, "x", confidence, PriorityHigh)
		r.AutoApprovable = true
		return r
	}

	t.Run("clears low confidence", func(t *testing.T) {
		recs := EnforceAutoApproval([]Recommendation{flagged("permission", 0.85)})
		assert.False(t, recs[0].AutoApprovable)
	})

	t.Run("keeps qualifying entries", func(t *testing.T) {
		recs := EnforceAutoApproval([]Recommendation{flagged("permission", 0.95)})
		assert.True(t, recs[0].AutoApprovable)
	})

	t.Run("confidence floor is inclusive", func(t *testing.T) {
		recs := EnforceAutoApproval([]Recommendation{flagged("standard_application", 0.9)})
		assert.True(t, recs[0].AutoApprovable)
	})

	t.Run("never grants the flag", func(t *testing.T) {
		r := rec(StrategyCompliance, "role", "x", 1.0, PriorityCritical)
		recs := EnforceAutoApproval([]Recommendation{r})
		assert.False(t, recs[0].AutoApprovable)
	})
}
