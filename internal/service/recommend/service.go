package recommend

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ameeeetster/iga-risk-engine/internal/domain/errors"
	"github.com/ameeeetster/iga-risk-engine/internal/domain/recommendation"
	"github.com/ameeeetster/iga-risk-engine/internal/metrics"
)

// service implements the Service interface
type service struct {
	facts   FactProvider
	logger  *zap.Logger
	metrics *metrics.Registry
	now     func() time.Time
}

// NewService creates a new recommendation service. registry may be nil.
func NewService(facts FactProvider, logger *zap.Logger, registry *metrics.Registry) Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &service{
		facts:   facts,
		logger:  logger.With(zap.String("component", "recommendation_engine")),
		metrics: registry,
		now:     time.Now,
	}
}

// GetRecommendations runs every strategy, merges their output, and
// applies the dedupe, auto-approval, and ranking pipeline. A user the
// fact provider cannot resolve yields an empty list, not an error.
func (s *service) GetRecommendations(ctx context.Context, userID string) ([]recommendation.Recommendation, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, errors.NewValidationError("MISSING_USER_ID", "user id is required")
	}

	start := time.Now()
	facts, err := s.facts.GetIdentityFacts(ctx, userID)
	if err != nil {
		s.logger.Warn("identity facts unavailable, returning no recommendations",
			zap.String("user_id", userID),
			zap.Error(err))
		return []recommendation.Recommendation{}, nil
	}

	now := s.now()

	roles, err := s.facts.GetUserRoles(ctx, userID)
	if err != nil {
		s.logger.Debug("held roles unavailable",
			zap.String("user_id", userID),
			zap.Error(err))
		roles = nil
	}
	held := make(map[string]bool, len(roles))
	roleNames := make(map[string]string, len(roles))
	for _, r := range roles {
		held[r.ID] = true
		roleNames[r.ID] = r.Name
	}

	var recs []recommendation.Recommendation
	recs = append(recs, s.peerBased(ctx, facts, held, now)...)
	recs = append(recs, s.roleBased(ctx, facts, roles, now)...)
	recs = append(recs, s.departmentBased(ctx, facts, held, now)...)
	recs = append(recs, s.birthrightAndCompliance(facts, held, roleNames, now)...)

	recs = recommendation.Dedupe(recs)
	recs = recommendation.EnforceAutoApproval(recs)
	recs = recommendation.Rank(recs)

	if recs == nil {
		recs = []recommendation.Recommendation{}
	}
	if s.metrics != nil {
		autoApprovable := 0
		for _, r := range recs {
			if r.AutoApprovable {
				autoApprovable++
			}
		}
		s.metrics.RecordRecommendations(ctx, float64(time.Since(start).Microseconds())/1000.0, len(recs), autoApprovable)
	}
	return recs, nil
}
