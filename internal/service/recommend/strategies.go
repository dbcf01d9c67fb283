package recommend

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/ameeeetster/iga-risk-engine/internal/domain/identity"
	"github.com/ameeeetster/iga-risk-engine/internal/domain/recommendation"
)

const (
	peerMinGroup       = 3
	peerShare          = 0.5
	peerMinHolders     = 3
	deptMinGroup       = 5
	deptShare          = 0.7
	confidenceCap      = 0.95
	highConfidence     = 0.75
	mediumConfidence   = 0.6
	peerFetchLimit     = 50
	deptFetchLimit     = 200
	reviewStaleDays    = 90
	roleResourceType   = "role"
	permResourceType   = "permission"
	appResourceType    = "standard_application"
	reviewResourceType = "access_review"
)

// peerBased recommends roles held by most of the subject's peer group
// (same department, same normalized job-title core).
func (s *service) peerBased(ctx context.Context, facts *identity.Facts, held map[string]bool, now time.Time) []recommendation.Recommendation {
	core := identity.JobTitleCore(facts.JobTitle)
	if facts.Department == "" || core == "" {
		return nil
	}
	peers, err := s.facts.GetPeers(ctx, facts.Department, core, facts.ID, peerFetchLimit)
	if err != nil || len(peers) < peerMinGroup {
		return nil
	}

	needed := int(math.Ceil(peerShare * float64(len(peers))))
	if needed < peerMinHolders {
		needed = peerMinHolders
	}

	return s.groupConsensus(peers, held, needed, func(role identity.RoleRef, holders int) recommendation.Recommendation {
		fraction := float64(holders) / float64(len(peers))
		confidence := math.Min(fraction, confidenceCap)
		return recommendation.New(
			recommendation.StrategyPeerBased,
			roleResourceType, role.ID, role.Name,
			confidence,
			fmt.Sprintf("%d of %d peers with the same role profile hold %q", holders, len(peers), role.Name),
			priorityForConfidence(confidence),
			now,
		)
	})
}

// departmentBased is the same mechanic over the whole department with a
// larger group and a stricter share.
func (s *service) departmentBased(ctx context.Context, facts *identity.Facts, held map[string]bool, now time.Time) []recommendation.Recommendation {
	if facts.Department == "" {
		return nil
	}
	peers, err := s.facts.GetPeers(ctx, facts.Department, "", facts.ID, deptFetchLimit)
	if err != nil || len(peers) < deptMinGroup {
		return nil
	}

	needed := int(math.Ceil(deptShare * float64(len(peers))))

	return s.groupConsensus(peers, held, needed, func(role identity.RoleRef, holders int) recommendation.Recommendation {
		fraction := float64(holders) / float64(len(peers))
		confidence := math.Min(fraction, confidenceCap)
		return recommendation.New(
			recommendation.StrategyDepartmentBased,
			roleResourceType, role.ID, role.Name,
			confidence,
			fmt.Sprintf("%d of %d members of %s hold %q", holders, len(peers), facts.Department, role.Name),
			priorityForConfidence(confidence),
			now,
		)
	})
}

// groupConsensus counts role holders across a peer set and emits a
// recommendation for every role at or above the needed holder count
// that the subject lacks.
func (s *service) groupConsensus(peers []identity.Peer, held map[string]bool, needed int, build func(identity.RoleRef, int) recommendation.Recommendation) []recommendation.Recommendation {
	holders := map[string]int{}
	names := map[string]identity.RoleRef{}
	for _, p := range peers {
		seen := map[string]bool{}
		for _, r := range p.Roles {
			if seen[r.ID] {
				continue
			}
			seen[r.ID] = true
			holders[r.ID]++
			names[r.ID] = r
		}
	}

	var recs []recommendation.Recommendation
	for roleID, count := range holders {
		if count < needed || held[roleID] {
			continue
		}
		recs = append(recs, build(names[roleID], count))
	}
	return recs
}

// roleBased flags permissions formally attached to a role the subject
// already holds but not yet active: closing a provisioning gap, not
// escalating privilege, so these are auto-approvable.
func (s *service) roleBased(ctx context.Context, facts *identity.Facts, roles []identity.RoleRef, now time.Time) []recommendation.Recommendation {
	if len(roles) == 0 {
		return nil
	}
	active, err := s.facts.GetUserPermissions(ctx, facts.ID)
	if err != nil {
		return nil
	}
	activeSet := map[string]bool{}
	for _, p := range active {
		activeSet[p.ID] = true
	}

	var recs []recommendation.Recommendation
	emitted := map[string]bool{}
	for _, role := range roles {
		perms, err := s.facts.GetRolePermissions(ctx, role.ID)
		if err != nil {
			continue
		}
		for _, perm := range perms {
			if activeSet[perm.ID] || emitted[perm.ID] {
				continue
			}
			emitted[perm.ID] = true
			rec := recommendation.New(
				recommendation.StrategyRoleBased,
				permResourceType, perm.ID, perm.Name,
				0.95,
				fmt.Sprintf("permission %q is attached to held role %q but not active", perm.Name, role.Name),
				recommendation.PriorityHigh,
				now,
			)
			rec.AutoApprovable = true
			recs = append(recs, rec)
		}
	}
	return recs
}

// birthrightRule is one fixed entry in the birthright/compliance table.
type birthrightRule struct {
	resourceID   string
	resourceName string
	resourceType string
	department   string // empty = every department
}

// birthrightRules is the closed rule table. Matching is by department
// equality, never free-text scanning.
var birthrightRules = []birthrightRule{
	{resourceID: "app-email", resourceName: "Corporate Email", resourceType: appResourceType},
	{resourceID: "app-directory", resourceName: "Employee Directory", resourceType: appResourceType},
	{resourceID: "app-helpdesk", resourceName: "IT Helpdesk Portal", resourceType: appResourceType},
	{resourceID: "app-source-control", resourceName: "Source Control", resourceType: appResourceType, department: "Engineering"},
	{resourceID: "app-ci", resourceName: "Build Pipeline", resourceType: appResourceType, department: "Engineering"},
}

// apRoleID/arRoleID identify the conflicting accounts-payable and
// accounts-receivable role pair in the SoD rule.
const (
	apRoleID = "role-ap"
	arRoleID = "role-ar"
)

// birthrightAndCompliance applies the fixed predicate table: baseline
// access for everyone, department tooling, the AP/AR segregation rule,
// and stale access reviews. Compliance findings are never
// auto-approvable.
func (s *service) birthrightAndCompliance(facts *identity.Facts, held map[string]bool, roleNames map[string]string, now time.Time) []recommendation.Recommendation {
	var recs []recommendation.Recommendation

	for _, rule := range birthrightRules {
		if rule.department != "" && !strings.EqualFold(rule.department, facts.Department) {
			continue
		}
		if held[rule.resourceID] {
			continue
		}
		scope := "all employees"
		if rule.department != "" {
			scope = rule.department
		}
		rec := recommendation.New(
			recommendation.StrategyBirthright,
			rule.resourceType, rule.resourceID, rule.resourceName,
			1.0,
			fmt.Sprintf("%q is birthright access for %s", rule.resourceName, scope),
			recommendation.PriorityMedium,
			now,
		)
		rec.AutoApprovable = true
		recs = append(recs, rec)
	}

	if held[apRoleID] && held[arRoleID] {
		recs = append(recs, recommendation.New(
			recommendation.StrategyCompliance,
			roleResourceType, arRoleID, roleNames[arRoleID],
			1.0,
			"holding both accounts-payable and accounts-receivable roles violates segregation of duties; remove one",
			recommendation.PriorityCritical,
			now,
		))
	}

	if stale, days := reviewIsStale(facts, now); stale {
		reason := "access has never been certified"
		if days >= 0 {
			reason = fmt.Sprintf("last access review was %d days ago", days)
		}
		recs = append(recs, recommendation.New(
			recommendation.StrategyCompliance,
			reviewResourceType, "review-"+facts.ID, "Access Certification",
			1.0,
			reason,
			recommendation.PriorityHigh,
			now,
		))
	}

	return recs
}

func reviewIsStale(facts *identity.Facts, now time.Time) (bool, int) {
	if facts.LastAccessReviewAt == nil {
		return true, -1
	}
	days := int(now.Sub(*facts.LastAccessReviewAt).Hours() / 24)
	return days > reviewStaleDays, days
}

func priorityForConfidence(confidence float64) recommendation.Priority {
	switch {
	case confidence >= highConfidence:
		return recommendation.PriorityHigh
	case confidence >= mediumConfidence:
		return recommendation.PriorityMedium
	default:
		return recommendation.PriorityLow
	}
}
