package anomaly

import (
	"time"

	"github.com/google/uuid"
)

// Type is the closed set of behavioral anomaly kinds the detector can
// emit.
type Type string

const (
	TypeImpossibleTravel       Type = "impossible_travel"
	TypeUnusualLoginTime       Type = "unusual_login_time"
	TypeNewLocation            Type = "new_location"
	TypeExcessiveRequests      Type = "excessive_requests"
	TypeFailedLogins           Type = "failed_logins"
	TypeRapidPermissionChanges Type = "rapid_permission_changes"
	TypeDormantReactivation    Type = "dormant_reactivation"
	TypeConcurrentSessions     Type = "concurrent_sessions"
	TypeSuspiciousPattern      Type = "suspicious_pattern"
)

// Severity grades a finding. Fixed at detection time; review never
// changes it.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Anomaly is one behavioral finding meriting human review. Records are
// immutable once detected except for the Reviewed/FalsePositive pair,
// which only a reviewer action mutates.
type Anomaly struct {
	ID            uuid.UUID         `json:"id"`
	Type          Type              `json:"type"`
	Severity      Severity          `json:"severity"`
	Title         string            `json:"title"`
	Description   string            `json:"description"`
	UserID        string            `json:"user_id"`
	DetectedAt    time.Time         `json:"detected_at"`
	Metadata      map[string]string `json:"metadata,omitempty"`
	Reviewed      bool              `json:"reviewed"`
	FalsePositive bool              `json:"false_positive"`
}

// New constructs a finding with a fresh id and detection timestamp.
func New(t Type, sev Severity, userID, title, description string, now time.Time) Anomaly {
	return Anomaly{
		ID:          uuid.New(),
		Type:        t,
		Severity:    sev,
		Title:       title,
		Description: description,
		UserID:      userID,
		DetectedAt:  now,
		Metadata:    map[string]string{},
	}
}

// WithMeta attaches a metadata entry and returns the anomaly for
// chaining during construction.
func (a Anomaly) WithMeta(key, value string) Anomaly {
	if a.Metadata == nil {
		a.Metadata = map[string]string{}
	}
	a.Metadata[key] = value
	return a
}

// IsActionable reports whether the finding still needs attention.
func (a Anomaly) IsActionable() bool {
	return !a.Reviewed || (a.Reviewed && !a.FalsePositive)
}
