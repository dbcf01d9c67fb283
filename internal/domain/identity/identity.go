package identity

import (
	"strings"
	"time"

	"github.com/ameeeetster/iga-risk-engine/internal/domain/errors"
)

// Facts is a point-in-time snapshot of a user's identity and access
// posture, fetched fresh from the fact provider for each evaluation.
type Facts struct {
	ID                  string
	OrganizationID      string
	Department          string
	JobTitle            string
	AdminRoleCount      int
	HasPrivilegedAccess bool
	SoDViolationCount   int
	LastLoginAt         *time.Time // nil = never logged in
	FailedLoginAttempts int
	TotalRoleCount      int
	LastAccessReviewAt  *time.Time
}

// Validate checks the snapshot for structural problems.
func (f *Facts) Validate() error {
	if strings.TrimSpace(f.ID) == "" {
		return errors.NewValidationError("MISSING_USER_ID", "identity facts require a user id")
	}
	if f.AdminRoleCount < 0 || f.SoDViolationCount < 0 || f.FailedLoginAttempts < 0 || f.TotalRoleCount < 0 {
		return errors.NewValidationError("NEGATIVE_COUNT", "identity fact counts cannot be negative")
	}
	return nil
}

// DaysSinceLastLogin returns the whole days elapsed since the last
// login, or -1 when the user has never logged in.
func (f *Facts) DaysSinceLastLogin(now time.Time) int {
	if f.LastLoginAt == nil {
		return -1
	}
	return int(now.Sub(*f.LastLoginAt).Hours() / 24)
}

// RoleRef identifies a role held by or assignable to a user.
type RoleRef struct {
	ID   string
	Name string
}

// PermissionRef identifies a permission attached to a role or user.
type PermissionRef struct {
	ID     string
	Name   string
	RoleID string
}

// Peer is another identity in the subject's comparison group along with
// the roles it currently holds.
type Peer struct {
	Facts Facts
	Roles []RoleRef
}

// levelingWords are job-title qualifiers stripped before peer matching
// so "Senior Analyst" and "Analyst II" land in the same group.
var levelingWords = map[string]bool{
	"senior":    true,
	"sr":        true,
	"junior":    true,
	"jr":        true,
	"lead":      true,
	"principal": true,
	"staff":     true,
	"associate": true,
	"i":         true,
	"ii":        true,
	"iii":       true,
	"iv":        true,
	"1":         true,
	"2":         true,
	"3":         true,
}

// JobTitleCore normalizes a job title to its core by lowercasing and
// dropping leveling qualifiers.
func JobTitleCore(title string) string {
	fields := strings.Fields(strings.ToLower(title))
	core := make([]string, 0, len(fields))
	for _, w := range fields {
		w = strings.Trim(w, ".,()")
		if w == "" || levelingWords[w] {
			continue
		}
		core = append(core, w)
	}
	return strings.Join(core, " ")
}
