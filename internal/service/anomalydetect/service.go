package anomalydetect

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ameeeetster/iga-risk-engine/internal/domain/anomaly"
	"github.com/ameeeetster/iga-risk-engine/internal/domain/errors"
	"github.com/ameeeetster/iga-risk-engine/internal/metrics"
)

// defaultSweepWorkers bounds concurrency for org-wide sweeps against
// the fact provider.
const defaultSweepWorkers = 10

// service implements the Service interface
type service struct {
	facts   FactProvider
	store   AnomalyStore
	logger  *zap.Logger
	metrics *metrics.Registry
	workers int
	now     func() time.Time
}

// NewService creates a new anomaly detection service. store may be nil
// for purely advisory use; detections are then never persisted. registry
// may be nil; a non-positive sweepWorkers falls back to the default.
func NewService(facts FactProvider, store AnomalyStore, logger *zap.Logger, registry *metrics.Registry, sweepWorkers int) Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if sweepWorkers <= 0 {
		sweepWorkers = defaultSweepWorkers
	}
	return &service{
		facts:   facts,
		store:   store,
		logger:  logger.With(zap.String("component", "anomaly_detector")),
		metrics: registry,
		workers: sweepWorkers,
		now:     time.Now,
	}
}

// DetectUserAnomalies fans the behavioral checks out, joins them at one
// barrier, then persists fire-and-forget. Output order across checks is
// not significant.
func (s *service) DetectUserAnomalies(ctx context.Context, userID string) ([]anomaly.Anomaly, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, errors.NewValidationError("MISSING_USER_ID", "user id is required")
	}

	start := time.Now()
	now := s.now()
	checks := s.checks()
	results := make([][]anomaly.Anomaly, len(checks))

	var wg sync.WaitGroup
	for i, check := range checks {
		wg.Add(1)
		go func(slot int, fn checkFn) {
			defer wg.Done()
			results[slot] = fn(ctx, userID, now)
		}(i, check)
	}
	wg.Wait()

	var findings []anomaly.Anomaly
	for _, r := range results {
		findings = append(findings, r...)
	}
	if composite := compositePattern(userID, findings, now); composite != nil {
		findings = append(findings, *composite)
	}

	s.persist(ctx, userID, findings)
	if s.metrics != nil {
		s.metrics.RecordDetection(ctx, float64(time.Since(start).Microseconds())/1000.0, len(findings))
	}
	return findings, nil
}

// ListUserAnomalies returns previously persisted findings for a user.
func (s *service) ListUserAnomalies(ctx context.Context, userID string) ([]anomaly.Anomaly, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, errors.NewValidationError("MISSING_USER_ID", "user id is required")
	}
	if s.store == nil {
		return nil, nil
	}
	stored, err := s.store.ListUserAnomalies(ctx, userID)
	if err != nil {
		return nil, errors.NewDataUnavailableError("anomaly store", "listing findings failed").WithCause(err)
	}
	return stored, nil
}

// MarkReviewed records a reviewer verdict on a persisted finding.
func (s *service) MarkReviewed(ctx context.Context, anomalyID uuid.UUID, isFalsePositive bool) error {
	if anomalyID == uuid.Nil {
		return errors.NewValidationError("MISSING_ANOMALY_ID", "anomaly id is required")
	}
	if s.store == nil {
		return errors.ErrAnomalyNotFound
	}
	if err := s.store.MarkAnomalyReviewed(ctx, anomalyID, isFalsePositive); err != nil {
		return errors.Wrap(err, "marking anomaly reviewed")
	}
	return nil
}

// SweepOrganization runs detection for every user of an org with a
// bounded worker pool. A user whose detection fails lands in Failed;
// the sweep itself keeps going.
func (s *service) SweepOrganization(ctx context.Context, orgID string) (*SweepResult, error) {
	if strings.TrimSpace(orgID) == "" {
		return nil, errors.NewValidationError("MISSING_ORG_ID", "organization id is required")
	}

	userIDs, err := s.facts.ListOrganizationUsers(ctx, orgID)
	if err != nil {
		return nil, errors.NewDataUnavailableError("fact provider", "listing organization users failed").WithCause(err)
	}

	result := &SweepResult{
		OrganizationID: orgID,
		UsersScanned:   len(userIDs),
		Findings:       make(map[string][]anomaly.Anomaly),
	}

	if s.metrics != nil {
		s.metrics.SetSweepQueueDepth(int64(len(userIDs)))
		defer s.metrics.SetSweepQueueDepth(0)
	}

	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		sem = make(chan struct{}, s.workers)
	)
	for _, userID := range userIDs {
		wg.Add(1)
		sem <- struct{}{}
		go func(id string) {
			defer wg.Done()
			defer func() { <-sem }()

			findings, err := s.DetectUserAnomalies(ctx, id)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.Failed = append(result.Failed, id)
				return
			}
			if len(findings) > 0 {
				result.Findings[id] = findings
			}
		}(userID)
	}
	wg.Wait()

	return result, nil
}

// persist writes findings without affecting the returned result. A
// store failure is logged only.
func (s *service) persist(ctx context.Context, userID string, findings []anomaly.Anomaly) {
	if s.store == nil || len(findings) == 0 {
		return
	}
	if err := s.store.InsertAnomalies(ctx, userID, findings); err != nil {
		s.logger.Warn("failed to persist anomaly findings",
			zap.String("user_id", userID),
			zap.Int("count", len(findings)),
			zap.Error(err))
	}
}

// logCheckSkip notes a check that failed closed.
func (s *service) logCheckSkip(ctx context.Context, userID string, t anomaly.Type, err error) {
	if s.metrics != nil {
		s.metrics.CheckFailureCounter.Add(ctx, 1)
	}
	s.logger.Debug("behavioral check skipped",
		zap.String("user_id", userID),
		zap.String("check", string(t)),
		zap.Error(err))
}
