package fixtures

import (
	"time"

	"github.com/ameeeetster/iga-risk-engine/internal/domain/identity"
)

// Known locations for travel and location scenarios.
var (
	NewYork  = identity.Location{City: "New York", Country: "US", Latitude: 40.7128, Longitude: -74.0060}
	London   = identity.Location{City: "London", Country: "GB", Latitude: 51.5074, Longitude: -0.1278}
	Tokyo    = identity.Location{City: "Tokyo", Country: "JP", Latitude: 35.6762, Longitude: 139.6503}
	Boston   = identity.Location{City: "Boston", Country: "US", Latitude: 42.3601, Longitude: -71.0589}
	NoCoords = identity.Location{City: "Unknown", Country: ""}
)

// Login builds a login event at a time and place.
func Login(userID string, at time.Time, loc identity.Location) identity.ActivityEvent {
	return identity.ActivityEvent{
		UserID:    userID,
		Action:    identity.ActionLogin,
		Timestamp: at,
		Location:  loc,
		IPAddress: "203.0.113.10",
	}
}

// FailedLogin builds a failed login event.
func FailedLogin(userID string, at time.Time) identity.ActivityEvent {
	return identity.ActivityEvent{
		UserID:    userID,
		Action:    identity.ActionLoginFailed,
		Timestamp: at,
		IPAddress: "203.0.113.10",
	}
}

// PermissionChange builds a grant or revoke event.
func PermissionChange(userID string, action identity.Action, at time.Time) identity.ActivityEvent {
	return identity.ActivityEvent{
		UserID:    userID,
		Action:    action,
		Timestamp: at,
	}
}

// Logins builds n login events spaced by interval starting at start.
func Logins(userID string, start time.Time, interval time.Duration, n int, loc identity.Location) []identity.ActivityEvent {
	events := make([]identity.ActivityEvent, 0, n)
	for i := 0; i < n; i++ {
		events = append(events, Login(userID, start.Add(time.Duration(i)*interval), loc))
	}
	return events
}
