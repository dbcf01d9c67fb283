package fixtures

import (
	"fmt"
	"time"

	"github.com/ameeeetster/iga-risk-engine/internal/domain/identity"
)

// ReferenceTime is the fixed clock fixtures are anchored to, a Tuesday
// at 14:00 UTC. Tests that inject a clock should use the same instant.
var ReferenceTime = time.Date(2025, 3, 4, 14, 0, 0, 0, time.UTC)

// IdentityOption mutates a facts fixture during construction.
type IdentityOption func(*identity.Facts)

// NewIdentityFacts builds a low-risk baseline identity that options can
// push into riskier shapes.
func NewIdentityFacts(id string, opts ...IdentityOption) *identity.Facts {
	lastLogin := ReferenceTime.Add(-24 * time.Hour)
	lastReview := ReferenceTime.Add(-30 * 24 * time.Hour)
	f := &identity.Facts{
		ID:                 id,
		OrganizationID:     "org-1",
		Department:         "Engineering",
		JobTitle:           "Software Engineer",
		TotalRoleCount:     3,
		LastLoginAt:        &lastLogin,
		LastAccessReviewAt: &lastReview,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func WithDepartment(dept string) IdentityOption {
	return func(f *identity.Facts) { f.Department = dept }
}

func WithJobTitle(title string) IdentityOption {
	return func(f *identity.Facts) { f.JobTitle = title }
}

func WithAdminRoles(n int) IdentityOption {
	return func(f *identity.Facts) { f.AdminRoleCount = n }
}

func WithPrivilegedAccess() IdentityOption {
	return func(f *identity.Facts) { f.HasPrivilegedAccess = true }
}

func WithSoDViolations(n int) IdentityOption {
	return func(f *identity.Facts) { f.SoDViolationCount = n }
}

func WithLastLogin(t time.Time) IdentityOption {
	return func(f *identity.Facts) { f.LastLoginAt = &t }
}

func WithNeverLoggedIn() IdentityOption {
	return func(f *identity.Facts) { f.LastLoginAt = nil }
}

func WithFailedLogins(n int) IdentityOption {
	return func(f *identity.Facts) { f.FailedLoginAttempts = n }
}

func WithTotalRoles(n int) IdentityOption {
	return func(f *identity.Facts) { f.TotalRoleCount = n }
}

func WithLastAccessReview(t time.Time) IdentityOption {
	return func(f *identity.Facts) { f.LastAccessReviewAt = &t }
}

func WithNoAccessReview() IdentityOption {
	return func(f *identity.Facts) { f.LastAccessReviewAt = nil }
}

// NewPeerGroup builds n peers in the same department and title holding
// the given roles.
func NewPeerGroup(n int, department, jobTitle string, roles []identity.RoleRef) []identity.Peer {
	peers := make([]identity.Peer, 0, n)
	for i := 0; i < n; i++ {
		facts := NewIdentityFacts(fmt.Sprintf("peer-%d", i+1),
			WithDepartment(department),
			WithJobTitle(jobTitle),
		)
		peers = append(peers, identity.Peer{Facts: *facts, Roles: roles})
	}
	return peers
}

// RequestOption mutates a request fixture during construction.
type RequestOption func(*identity.RequestFacts)

// NewRequestFacts builds a benign weekday-business-hours request.
func NewRequestFacts(id string, opts ...RequestOption) *identity.RequestFacts {
	submitted := ReferenceTime
	r := &identity.RequestFacts{
		ID:                    id,
		ResourceType:          "standard_application",
		ResourceName:          "Wiki",
		RequesterID:           "user-1",
		SubmittedAt:           submitted,
		Priority:              identity.PriorityMedium,
		BusinessJustification: "Need access to collaborate with the platform team on Q3 work.",
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func WithResourceType(rt string) RequestOption {
	return func(r *identity.RequestFacts) { r.ResourceType = rt }
}

func WithRequester(id string) RequestOption {
	return func(r *identity.RequestFacts) { r.RequesterID = id }
}

func WithSubmittedAt(t time.Time) RequestOption {
	return func(r *identity.RequestFacts) { r.SubmittedAt = t }
}

func WithPriority(p identity.RequestPriority) RequestOption {
	return func(r *identity.RequestFacts) { r.Priority = p }
}

func WithSoDConflicts(n int) RequestOption {
	return func(r *identity.RequestFacts) { r.SoDConflictCount = n }
}

func WithJustification(s string) RequestOption {
	return func(r *identity.RequestFacts) { r.BusinessJustification = s }
}
