package cache

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/ameeeetster/iga-risk-engine/internal/domain/risk"
)

// AssessmentCache is an advisory read-through cache for computed user
// risk assessments. Every failure degrades to a miss; callers never see
// a cache error.
type AssessmentCache struct {
	cache  Cache
	logger *zap.Logger
}

// NewAssessmentCache creates an assessment cache over a generic Cache.
func NewAssessmentCache(cache Cache, logger *zap.Logger) *AssessmentCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssessmentCache{
		cache:  cache,
		logger: logger.With(zap.String("component", "assessment_cache")),
	}
}

func assessmentKey(userID string) string {
	return "risk:assessment:user:" + userID
}

// GetAssessment returns a cached assessment and whether one was found.
func (c *AssessmentCache) GetAssessment(ctx context.Context, userID string) (*risk.Assessment, bool) {
	var a risk.Assessment
	if err := c.cache.GetJSON(ctx, assessmentKey(userID), &a); err != nil {
		if _, miss := err.(ErrCacheKeyNotFound); !miss {
			c.logger.Debug("assessment cache read failed",
				zap.String("user_id", userID),
				zap.Error(err))
		}
		return nil, false
	}
	return &a, true
}

// PutAssessment stores an assessment for the given TTL. Write failures
// are logged only.
func (c *AssessmentCache) PutAssessment(ctx context.Context, userID string, a *risk.Assessment, ttl time.Duration) {
	if a == nil {
		return
	}
	if err := c.cache.SetJSON(ctx, assessmentKey(userID), a, ttl); err != nil {
		c.logger.Debug("assessment cache write failed",
			zap.String("user_id", userID),
			zap.Error(err))
	}
}
