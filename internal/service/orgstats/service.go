package orgstats

import (
	"context"
	"math"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ameeeetster/iga-risk-engine/internal/domain/errors"
	"github.com/ameeeetster/iga-risk-engine/internal/domain/risk"
)

// scoreWorkers bounds concurrent per-user scoring during a batch.
const scoreWorkers = 10

// service implements the Service interface
type service struct {
	facts  FactProvider
	scorer UserScorer
	logger *zap.Logger
	now    func() time.Time
}

// NewService creates a new organization statistics service.
func NewService(facts FactProvider, scorer UserScorer, logger *zap.Logger) Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &service{
		facts:  facts,
		scorer: scorer,
		logger: logger.With(zap.String("component", "org_aggregator")),
		now:    time.Now,
	}
}

// GetOrganizationStats fans user scoring out over a bounded worker pool
// and folds the assessments. An organization with no users returns zero
// stats, not an error.
func (s *service) GetOrganizationStats(ctx context.Context, orgID string) (*OrgStats, error) {
	if strings.TrimSpace(orgID) == "" {
		return nil, errors.NewValidationError("MISSING_ORG_ID", "organization id is required")
	}

	userIDs, err := s.facts.ListOrganizationUsers(ctx, orgID)
	if err != nil {
		return nil, errors.NewDataUnavailableError("fact provider", "listing organization users failed").WithCause(err)
	}

	stats := &OrgStats{
		OrganizationID:   orgID,
		TotalUsers:       len(userIDs),
		RiskDistribution: emptyDistribution(),
	}
	if len(userIDs) == 0 {
		return stats, nil
	}

	assessments := make([]*risk.Assessment, len(userIDs))

	var (
		wg  sync.WaitGroup
		sem = make(chan struct{}, scoreWorkers)
	)
	for i, userID := range userIDs {
		wg.Add(1)
		sem <- struct{}{}
		go func(slot int, id string) {
			defer wg.Done()
			defer func() { <-sem }()

			a, err := s.scorer.ScoreUser(ctx, id)
			if err != nil || a == nil {
				s.logger.Warn("user scoring failed, counting default assessment",
					zap.String("user_id", id),
					zap.Error(err))
				a = risk.DefaultAssessment(s.now())
			}
			assessments[slot] = a
		}(i, userID)
	}
	wg.Wait()

	total := 0
	for _, a := range assessments {
		total += a.Score
		stats.RiskDistribution[a.Level]++
		switch a.Level {
		case risk.LevelHigh:
			stats.HighRiskCount++
		case risk.LevelCritical:
			stats.CriticalRiskCount++
		}
	}
	stats.AverageRisk = math.Round(float64(total)/float64(len(assessments))*100) / 100

	return stats, nil
}

func emptyDistribution() map[risk.Level]int {
	return map[risk.Level]int{
		risk.LevelLow:      0,
		risk.LevelMedium:   0,
		risk.LevelHigh:     0,
		risk.LevelCritical: 0,
	}
}
