package anomalydetect

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ameeeetster/iga-risk-engine/internal/domain/anomaly"
	"github.com/ameeeetster/iga-risk-engine/internal/domain/identity"
)

// Service defines the behavioral anomaly detector interface.
type Service interface {
	// DetectUserAnomalies runs all behavioral checks for a user over
	// their bounded activity windows. Checks run concurrently; a check
	// that cannot fetch its window contributes no findings and never
	// blocks its siblings.
	DetectUserAnomalies(ctx context.Context, userID string) ([]anomaly.Anomaly, error)
	// ListUserAnomalies returns previously persisted findings.
	ListUserAnomalies(ctx context.Context, userID string) ([]anomaly.Anomaly, error)
	// MarkReviewed records a reviewer verdict. This is the only
	// mutation permitted on a persisted finding.
	MarkReviewed(ctx context.Context, anomalyID uuid.UUID, isFalsePositive bool) error
	// SweepOrganization runs detection across all users of an org with
	// bounded concurrency. Per-user failures are recorded, not fatal.
	SweepOrganization(ctx context.Context, orgID string) (*SweepResult, error)
}

// FactProvider is the slice of the fact-provider boundary the detector
// consumes.
type FactProvider interface {
	GetActivityWindow(ctx context.Context, userID string, action identity.Action, since time.Time) ([]identity.ActivityEvent, error)
	CountRecentRequests(ctx context.Context, userID string, since time.Time) (int, error)
	ListOrganizationUsers(ctx context.Context, orgID string) ([]string, error)
}

// AnomalyStore persists findings and review verdicts. Inserts are
// fire-and-forget relative to the computed result.
type AnomalyStore interface {
	InsertAnomalies(ctx context.Context, userID string, findings []anomaly.Anomaly) error
	MarkAnomalyReviewed(ctx context.Context, anomalyID uuid.UUID, isFalsePositive bool) error
	ListUserAnomalies(ctx context.Context, userID string) ([]anomaly.Anomaly, error)
}

// SweepResult summarizes an org-wide detection pass. Findings are keyed
// by user id; Failed lists users whose detection could not run at all.
type SweepResult struct {
	OrganizationID string
	UsersScanned   int
	Findings       map[string][]anomaly.Anomaly
	Failed         []string
}
