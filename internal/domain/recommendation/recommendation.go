package recommendation

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/ameeeetster/iga-risk-engine/internal/domain/risk"
)

// Strategy names the rule family that produced a recommendation.
type Strategy string

const (
	StrategyPeerBased       Strategy = "peer_based"
	StrategyRoleBased       Strategy = "role_based"
	StrategyDepartmentBased Strategy = "department_based"
	StrategyBirthright      Strategy = "birthright"
	StrategyCompliance      Strategy = "compliance"
	StrategyHistorical      Strategy = "historical"
)

// Priority orders recommendations for presentation.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

func priorityRank(p Priority) int {
	switch p {
	case PriorityCritical:
		return 3
	case PriorityHigh:
		return 2
	case PriorityMedium:
		return 1
	default:
		return 0
	}
}

// Recommendation is one ranked access suggestion for a user.
type Recommendation struct {
	ID             uuid.UUID `json:"id"`
	Strategy       Strategy  `json:"strategy"`
	ResourceType   string    `json:"resource_type"`
	ResourceID     string    `json:"resource_id"`
	ResourceName   string    `json:"resource_name"`
	Confidence     float64   `json:"confidence"`
	Reason         string    `json:"reason"`
	Priority       Priority  `json:"priority"`
	AutoApprovable bool      `json:"auto_approvable"`
	CreatedAt      time.Time `json:"created_at"`
}

// New constructs a recommendation with a fresh id, clamping confidence
// to [0,1].
func New(strategy Strategy, resourceType, resourceID, resourceName string, confidence float64, reason string, priority Priority, now time.Time) Recommendation {
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}
	return Recommendation{
		ID:           uuid.New(),
		Strategy:     strategy,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		ResourceName: resourceName,
		Confidence:   confidence,
		Reason:       reason,
		Priority:     priority,
		CreatedAt:    now,
	}
}

// dedupKey is the merge identity: the same resource recommended by two
// strategies collapses to the higher-confidence entry.
type dedupKey struct {
	resourceType string
	resourceID   string
}

// Dedupe merges recommendations by (resourceType, resourceID), keeping
// the highest-confidence entry regardless of strategy.
func Dedupe(recs []Recommendation) []Recommendation {
	best := make(map[dedupKey]Recommendation, len(recs))
	order := make([]dedupKey, 0, len(recs))
	for _, r := range recs {
		k := dedupKey{r.ResourceType, r.ResourceID}
		cur, seen := best[k]
		if !seen {
			best[k] = r
			order = append(order, k)
			continue
		}
		if r.Confidence > cur.Confidence {
			best[k] = r
		}
	}
	out := make([]Recommendation, 0, len(best))
	for _, k := range order {
		out = append(out, best[k])
	}
	return out
}

// Rank orders recommendations by priority (critical > high > medium >
// low), then by confidence descending. The sort is stable so equal
// entries keep their strategy emission order.
func Rank(recs []Recommendation) []Recommendation {
	sort.SliceStable(recs, func(i, j int) bool {
		ri, rj := priorityRank(recs[i].Priority), priorityRank(recs[j].Priority)
		if ri != rj {
			return ri > rj
		}
		return recs[i].Confidence > recs[j].Confidence
	})
	return recs
}

// EnforceAutoApproval clears the auto-approvable flag on any entry that
// does not meet the policy floor: confidence >=0.9 and an estimated
// resource risk no worse than Medium. Callers cannot grant the flag,
// only strategies can, and this gate has the final say.
func EnforceAutoApproval(recs []Recommendation) []Recommendation {
	for i := range recs {
		if !recs[i].AutoApprovable {
			continue
		}
		rt := risk.ParseResourceType(recs[i].ResourceType)
		if recs[i].Confidence < 0.9 || !risk.EstimatedLevel(rt).AtMost(risk.LevelMedium) {
			recs[i].AutoApprovable = false
		}
	}
	return recs
}
