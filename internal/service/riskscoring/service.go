package riskscoring

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/ameeeetster/iga-risk-engine/internal/domain/errors"
	"github.com/ameeeetster/iga-risk-engine/internal/domain/identity"
	"github.com/ameeeetster/iga-risk-engine/internal/domain/risk"
	"github.com/ameeeetster/iga-risk-engine/internal/metrics"
)

// Weight caps and thresholds for user scoring. The six factors sum to
// at most 110 before clamping.
const (
	adminRolePoints    = 10
	adminRoleCap       = 30
	privilegedPoints   = 25
	sodViolationPoints = 10
	sodViolationCap    = 20
	dormantDays        = 90
	staleDays          = 60
	dormancyPoints     = 15
	stalenessPoints    = 8
	failedLoginPoints  = 2
	failedLoginCap     = 10
	roleBaseline       = 5
	excessRolePoints   = 2
	excessRoleCap      = 10

	requesterScoreWeight = 0.3
	weekendPenalty       = 12
	offHoursPenalty      = 10
	offHoursStart        = 22
	offHoursEnd          = 6
	sodConflictPoints    = 10
	sodConflictCap       = 20
	elevatedPriorityPts  = 5
	thinJustificationPts = 10
	minJustificationLen  = 20

	defaultCacheTTL = 5 * time.Minute
)

// service implements the Service interface
type service struct {
	facts    FactProvider
	cache    AssessmentCache
	metrics  *metrics.Registry
	cacheTTL time.Duration
	now      func() time.Time
}

// NewService creates a new risk scoring service. cache and registry may
// be nil; a non-positive cacheTTL falls back to the default.
func NewService(facts FactProvider, cache AssessmentCache, registry *metrics.Registry, cacheTTL time.Duration) Service {
	if cacheTTL <= 0 {
		cacheTTL = defaultCacheTTL
	}
	return &service{
		facts:    facts,
		cache:    cache,
		metrics:  registry,
		cacheTTL: cacheTTL,
		now:      time.Now,
	}
}

// ScoreUser computes the standing risk assessment for a user. A failed
// facts fetch yields the default assessment, never an error; only a
// malformed id surfaces.
func (s *service) ScoreUser(ctx context.Context, userID string) (*risk.Assessment, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, errors.NewValidationError("MISSING_USER_ID", "user id is required")
	}

	if s.cache != nil {
		if cached, ok := s.cache.GetAssessment(ctx, userID); ok {
			if s.metrics != nil {
				s.metrics.AssessmentCacheHits.Add(ctx, 1)
			}
			return cached, nil
		}
		if s.metrics != nil {
			s.metrics.AssessmentCacheMisses.Add(ctx, 1)
		}
	}

	start := time.Now()
	facts, err := s.facts.GetIdentityFacts(ctx, userID)
	if err != nil || facts == nil {
		assessment := risk.DefaultAssessment(s.now())
		s.recordScoring(ctx, start, "user", assessment.Score, true)
		return assessment, nil
	}

	assessment := ScoreUserFacts(facts, s.now())
	if s.cache != nil {
		s.cache.PutAssessment(ctx, userID, assessment, s.cacheTTL)
	}
	s.recordScoring(ctx, start, "user", assessment.Score, false)
	return assessment, nil
}

// ScoreRequest computes the risk assessment for a pending access
// request. The requester's own score contributes round(score*0.3).
func (s *service) ScoreRequest(ctx context.Context, requestID string) (*risk.Assessment, error) {
	if strings.TrimSpace(requestID) == "" {
		return nil, errors.NewValidationError("MISSING_REQUEST_ID", "request id is required")
	}

	start := time.Now()
	req, err := s.facts.GetRequestFacts(ctx, requestID)
	if err != nil || req == nil {
		assessment := risk.DefaultAssessment(s.now())
		s.recordScoring(ctx, start, "request", assessment.Score, true)
		return assessment, nil
	}

	requester, err := s.ScoreUser(ctx, req.RequesterID)
	if err != nil {
		requester = risk.DefaultAssessment(s.now())
	}

	assessment := ScoreRequestFacts(req, requester, s.now())
	s.recordScoring(ctx, start, "request", assessment.Score, false)
	return assessment, nil
}

func (s *service) recordScoring(ctx context.Context, start time.Time, subject string, score int, degraded bool) {
	if s.metrics == nil {
		return
	}
	s.metrics.RecordScoring(ctx, float64(time.Since(start).Microseconds())/1000.0, subject, score, degraded)
}

// ScoreUserFacts applies the six weighted user factors. Pure and
// deterministic over its inputs.
func ScoreUserFacts(facts *identity.Facts, now time.Time) *risk.Assessment {
	var factors []risk.Factor
	var recommendations []string
	points := 0

	if facts.AdminRoleCount > 0 {
		pts := capPoints(facts.AdminRoleCount*adminRolePoints, adminRoleCap)
		points += pts
		factors = append(factors, risk.Factor{
			Label:     "admin_roles",
			Points:    pts,
			Rationale: fmt.Sprintf("holds %d administrative role(s)", facts.AdminRoleCount),
		})
		if facts.AdminRoleCount >= 3 {
			recommendations = append(recommendations,
				fmt.Sprintf("Review whether all %d administrative roles are still necessary", facts.AdminRoleCount))
		}
	}

	if facts.HasPrivilegedAccess {
		points += privilegedPoints
		factors = append(factors, risk.Factor{
			Label:     "privileged_access",
			Points:    privilegedPoints,
			Rationale: "holds standing privileged access",
		})
	}

	if facts.SoDViolationCount > 0 {
		pts := capPoints(facts.SoDViolationCount*sodViolationPoints, sodViolationCap)
		points += pts
		factors = append(factors, risk.Factor{
			Label:     "sod_violations",
			Points:    pts,
			Rationale: fmt.Sprintf("%d unresolved segregation-of-duties violation(s)", facts.SoDViolationCount),
		})
		recommendations = append(recommendations, "Resolve open segregation-of-duties violations")
	}

	days := facts.DaysSinceLastLogin(now)
	switch {
	case days < 0:
		points += dormancyPoints
		factors = append(factors, risk.Factor{
			Label:     "dormancy",
			Points:    dormancyPoints,
			Rationale: "account has never logged in",
		})
		recommendations = append(recommendations, "Consider disabling this dormant account")
	case days > dormantDays:
		points += dormancyPoints
		factors = append(factors, risk.Factor{
			Label:     "dormancy",
			Points:    dormancyPoints,
			Rationale: fmt.Sprintf("no login for %d days", days),
		})
		recommendations = append(recommendations, "Consider disabling this dormant account")
	case days >= staleDays:
		points += stalenessPoints
		factors = append(factors, risk.Factor{
			Label:     "dormancy",
			Points:    stalenessPoints,
			Rationale: fmt.Sprintf("no login for %d days", days),
		})
	}

	if facts.FailedLoginAttempts > 0 {
		pts := capPoints(facts.FailedLoginAttempts*failedLoginPoints, failedLoginCap)
		points += pts
		factors = append(factors, risk.Factor{
			Label:     "failed_logins",
			Points:    pts,
			Rationale: fmt.Sprintf("%d recent failed login attempt(s)", facts.FailedLoginAttempts),
		})
	}

	if facts.TotalRoleCount > roleBaseline {
		pts := capPoints((facts.TotalRoleCount-roleBaseline)*excessRolePoints, excessRoleCap)
		points += pts
		factors = append(factors, risk.Factor{
			Label:     "role_accumulation",
			Points:    pts,
			Rationale: fmt.Sprintf("holds %d roles, %d beyond the baseline of %d", facts.TotalRoleCount, facts.TotalRoleCount-roleBaseline, roleBaseline),
		})
	}

	return risk.NewAssessment(points, factors, recommendations, now)
}

// ScoreRequestFacts applies the request scoring table. Pure and
// deterministic over its inputs.
func ScoreRequestFacts(req *identity.RequestFacts, requester *risk.Assessment, now time.Time) *risk.Assessment {
	var factors []risk.Factor
	var recommendations []string
	points := 0

	rt := risk.ParseResourceType(req.ResourceType)
	base := risk.BasePoints(rt)
	points += base
	factors = append(factors, risk.Factor{
		Label:     "resource_type",
		Points:    base,
		Rationale: fmt.Sprintf("requested resource class %q", rt),
	})

	if requester != nil && requester.Score > 0 {
		pts := int(math.Round(float64(requester.Score) * requesterScoreWeight))
		points += pts
		factors = append(factors, risk.Factor{
			Label:     "requester_risk",
			Points:    pts,
			Rationale: fmt.Sprintf("requester carries a standing risk score of %d", requester.Score),
		})
	}

	// Weekend takes precedence over the weekday off-hours penalty.
	if pts, rationale := timeOfRequestPenalty(req.SubmittedAt); pts > 0 {
		points += pts
		factors = append(factors, risk.Factor{
			Label:     "request_timing",
			Points:    pts,
			Rationale: rationale,
		})
	}

	if req.SoDConflictCount > 0 {
		pts := capPoints(req.SoDConflictCount*sodConflictPoints, sodConflictCap)
		points += pts
		factors = append(factors, risk.Factor{
			Label:     "sod_conflicts",
			Points:    pts,
			Rationale: fmt.Sprintf("grant would create %d segregation-of-duties conflict(s)", req.SoDConflictCount),
		})
	}

	if req.Priority.IsElevated() {
		points += elevatedPriorityPts
		factors = append(factors, risk.Factor{
			Label:     "priority",
			Points:    elevatedPriorityPts,
			Rationale: fmt.Sprintf("request marked %s priority", req.Priority),
		})
	}

	if req.JustificationLength() < minJustificationLen {
		points += thinJustificationPts
		factors = append(factors, risk.Factor{
			Label:     "justification",
			Points:    thinJustificationPts,
			Rationale: "business justification missing or too short",
		})
		recommendations = append(recommendations, "Request a fuller business justification before approval")
	}

	assessment := risk.NewAssessment(points, factors, recommendations, now)
	if assessment.Score >= 75 {
		assessment.Recommendations = append(assessment.Recommendations, "Escalate to security review before approval")
	} else if assessment.Score >= 50 {
		assessment.Recommendations = append(assessment.Recommendations, "Require both manager and resource-owner approval")
	}
	return assessment
}

func timeOfRequestPenalty(at time.Time) (int, string) {
	switch at.Weekday() {
	case time.Saturday, time.Sunday:
		return weekendPenalty, "submitted on a weekend"
	}
	if hour := at.Hour(); hour < offHoursEnd || hour > offHoursStart {
		return offHoursPenalty, "submitted outside business hours"
	}
	return 0, ""
}

func capPoints(pts, max int) int {
	if pts > max {
		return max
	}
	return pts
}
