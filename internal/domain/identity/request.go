package identity

import (
	"strings"
	"time"

	"github.com/ameeeetster/iga-risk-engine/internal/domain/errors"
)

// RequestPriority is the urgency assigned to a pending access request.
type RequestPriority string

const (
	PriorityLow      RequestPriority = "Low"
	PriorityMedium   RequestPriority = "Medium"
	PriorityHigh     RequestPriority = "High"
	PriorityCritical RequestPriority = "Critical"
)

// IsElevated reports whether the priority is High or Critical.
func (p RequestPriority) IsElevated() bool {
	return p == PriorityHigh || p == PriorityCritical
}

// RequestFacts is a point-in-time snapshot of a pending access request.
type RequestFacts struct {
	ID                    string
	ResourceType          string
	ResourceName          string
	RequesterID           string
	ForUserID             string
	SubmittedAt           time.Time
	Priority              RequestPriority
	SoDConflictCount      int
	BusinessJustification string
}

// Validate checks the snapshot for structural problems.
func (r *RequestFacts) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return errors.NewValidationError("MISSING_REQUEST_ID", "request facts require a request id")
	}
	if strings.TrimSpace(r.RequesterID) == "" {
		return errors.NewValidationError("MISSING_REQUESTER", "request facts require a requester id")
	}
	return nil
}

// JustificationLength returns the length of the trimmed business
// justification.
func (r *RequestFacts) JustificationLength() int {
	return len(strings.TrimSpace(r.BusinessJustification))
}
