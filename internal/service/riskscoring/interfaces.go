package riskscoring

import (
	"context"
	"time"

	"github.com/ameeeetster/iga-risk-engine/internal/domain/identity"
	"github.com/ameeeetster/iga-risk-engine/internal/domain/risk"
)

// Service defines the risk scoring engine interface. Both entry points
// are pure over their inputs: identical facts produce identical
// assessments, and a fact-provider failure degrades to the default
// assessment instead of surfacing.
type Service interface {
	// ScoreUser computes the standing risk assessment for a user.
	ScoreUser(ctx context.Context, userID string) (*risk.Assessment, error)
	// ScoreRequest computes the risk assessment for a pending access
	// request, folding in the requester's own score.
	ScoreRequest(ctx context.Context, requestID string) (*risk.Assessment, error)
}

// FactProvider is the slice of the fact-provider boundary the scoring
// engine consumes.
type FactProvider interface {
	GetIdentityFacts(ctx context.Context, userID string) (*identity.Facts, error)
	GetRequestFacts(ctx context.Context, requestID string) (*identity.RequestFacts, error)
}

// AssessmentCache is an optional read-through cache for computed user
// assessments. Failures are invisible to callers; the advisory path
// favors recomputing over blocking.
type AssessmentCache interface {
	GetAssessment(ctx context.Context, userID string) (*risk.Assessment, bool)
	PutAssessment(ctx context.Context, userID string, a *risk.Assessment, ttl time.Duration)
}
