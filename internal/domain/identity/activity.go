package identity

import "time"

// Action enumerates the activity-log event kinds the decision core
// consumes. The set is closed; unknown actions are ignored by every
// behavioral check.
type Action string

const (
	ActionLogin            Action = "login"
	ActionLoginFailed      Action = "login_failed"
	ActionRoleAssigned     Action = "role_assigned"
	ActionRoleRemoved      Action = "role_removed"
	ActionPermissionGrant  Action = "permission_grant"
	ActionPermissionRevoke Action = "permission_revoke"
)

// Location is the geo context attached to an activity event. Latitude
// and longitude of zero mean the coordinates are unknown.
type Location struct {
	City      string
	Country   string
	Latitude  float64
	Longitude float64
}

// HasCoordinates reports whether the location carries usable coordinates.
func (l Location) HasCoordinates() bool {
	return l.Latitude != 0 || l.Longitude != 0
}

// ActivityEvent is one append-only activity-log record. The log is
// externally owned; the decision core only ever reads windows of it.
type ActivityEvent struct {
	UserID    string
	Action    Action
	Timestamp time.Time
	Location  Location
	IPAddress string
}
