package orgstats

import (
	"context"

	"github.com/ameeeetster/iga-risk-engine/internal/domain/risk"
)

// Service rolls per-user risk assessments into organization-wide
// statistics.
type Service interface {
	// GetOrganizationStats scores every user of the organization with
	// bounded concurrency and folds the results. A user whose scoring
	// fails contributes the default assessment rather than aborting
	// the batch.
	GetOrganizationStats(ctx context.Context, orgID string) (*OrgStats, error)
}

// FactProvider is the slice of the fact-provider boundary the
// aggregator consumes.
type FactProvider interface {
	ListOrganizationUsers(ctx context.Context, orgID string) ([]string, error)
}

// UserScorer is the per-user scoring dependency, satisfied by the risk
// scoring service.
type UserScorer interface {
	ScoreUser(ctx context.Context, userID string) (*risk.Assessment, error)
}

// OrgStats is the folded result for one organization.
type OrgStats struct {
	OrganizationID    string             `json:"organization_id"`
	TotalUsers        int                `json:"total_users"`
	AverageRisk       float64            `json:"average_risk"`
	HighRiskCount     int                `json:"high_risk_count"`
	CriticalRiskCount int                `json:"critical_risk_count"`
	RiskDistribution  map[risk.Level]int `json:"risk_distribution"`
}
