package anomalydetect

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ameeeetster/iga-risk-engine/internal/domain/anomaly"
	"github.com/ameeeetster/iga-risk-engine/internal/domain/identity"
)

// Window bounds and thresholds for the behavioral checks.
const (
	travelWindow      = 24 * time.Hour
	travelMinMiles    = 500.0
	travelMaxElapsed  = 4 * time.Hour
	oddHoursWindow    = 7 * 24 * time.Hour
	oddHourThreshold  = 3
	baselineWindow    = 90 * 24 * time.Hour
	recentWindow      = 24 * time.Hour
	requestWindow     = 7 * 24 * time.Hour
	requestThreshold  = 10
	requestHighWater  = 20
	failedWindow      = 24 * time.Hour
	failedThreshold   = 5
	failedHighWater   = 10
	permChangeWindow  = 24 * time.Hour
	permChangeLimit   = 5
	dormantGapDays    = 90
	dormantLookback   = 365 * 24 * time.Hour
	sessionWindow     = time.Hour
	sessionPairWithin = 15 * time.Minute
)

// checkFn is one independent behavioral check. A check that cannot
// fetch its window returns nil; it never errors past its own boundary.
type checkFn func(ctx context.Context, userID string, now time.Time) []anomaly.Anomaly

func (s *service) checks() []checkFn {
	return []checkFn{
		s.checkImpossibleTravel,
		s.checkUnusualLoginTime,
		s.checkNewLocation,
		s.checkExcessiveRequests,
		s.checkFailedLogins,
		s.checkRapidPermissionChanges,
		s.checkDormantReactivation,
		s.checkConcurrentSessions,
	}
}

// checkImpossibleTravel flags consecutive logins whose distance could
// not plausibly be covered in the elapsed time.
func (s *service) checkImpossibleTravel(ctx context.Context, userID string, now time.Time) []anomaly.Anomaly {
	logins, err := s.facts.GetActivityWindow(ctx, userID, identity.ActionLogin, now.Add(-travelWindow))
	if err != nil {
		s.logCheckSkip(ctx, userID, anomaly.TypeImpossibleTravel, err)
		return nil
	}
	sortByTime(logins)

	var findings []anomaly.Anomaly
	for i := 1; i < len(logins); i++ {
		prev, cur := logins[i-1], logins[i]
		if !prev.Location.HasCoordinates() || !cur.Location.HasCoordinates() {
			continue
		}
		elapsed := cur.Timestamp.Sub(prev.Timestamp)
		if elapsed <= 0 || elapsed >= travelMaxElapsed {
			continue
		}
		distance := haversineMiles(prev.Location.Latitude, prev.Location.Longitude,
			cur.Location.Latitude, cur.Location.Longitude)
		if distance <= travelMinMiles {
			continue
		}
		a := anomaly.New(anomaly.TypeImpossibleTravel, anomaly.SeverityHigh, userID,
			"Impossible travel between logins",
			fmt.Sprintf("logins %.0f miles apart (%s to %s) within %s",
				distance, placeName(prev.Location), placeName(cur.Location), elapsed.Round(time.Minute)),
			now).
			WithMeta("distance_miles", strconv.FormatFloat(distance, 'f', 0, 64)).
			WithMeta("elapsed", elapsed.String())
		findings = append(findings, a)
	}
	return findings
}

// checkUnusualLoginTime flags a week with three or more logins outside
// normal hours.
func (s *service) checkUnusualLoginTime(ctx context.Context, userID string, now time.Time) []anomaly.Anomaly {
	logins, err := s.facts.GetActivityWindow(ctx, userID, identity.ActionLogin, now.Add(-oddHoursWindow))
	if err != nil {
		s.logCheckSkip(ctx, userID, anomaly.TypeUnusualLoginTime, err)
		return nil
	}

	odd := 0
	for _, e := range logins {
		if hour := e.Timestamp.Hour(); hour < 6 || hour > 22 {
			odd++
		}
	}
	if odd < oddHourThreshold {
		return nil
	}
	a := anomaly.New(anomaly.TypeUnusualLoginTime, anomaly.SeverityMedium, userID,
		"Repeated off-hours logins",
		fmt.Sprintf("%d login(s) between 22:00 and 06:00 over the last 7 days", odd),
		now).
		WithMeta("odd_hour_logins", strconv.Itoa(odd))
	return []anomaly.Anomaly{a}
}

// checkNewLocation flags logins in the last day from countries absent
// from the 90-day baseline.
func (s *service) checkNewLocation(ctx context.Context, userID string, now time.Time) []anomaly.Anomaly {
	logins, err := s.facts.GetActivityWindow(ctx, userID, identity.ActionLogin, now.Add(-baselineWindow))
	if err != nil {
		s.logCheckSkip(ctx, userID, anomaly.TypeNewLocation, err)
		return nil
	}

	cutoff := now.Add(-recentWindow)
	baseline := map[string]bool{}
	for _, e := range logins {
		if e.Timestamp.Before(cutoff) && e.Location.Country != "" {
			baseline[e.Location.Country] = true
		}
	}
	if len(baseline) == 0 {
		// No history to compare against; a first-ever login is not a
		// location anomaly.
		return nil
	}

	seen := map[string]bool{}
	var novel []string
	for _, e := range logins {
		c := e.Location.Country
		if c == "" || e.Timestamp.Before(cutoff) || baseline[c] || seen[c] {
			continue
		}
		seen[c] = true
		novel = append(novel, c)
	}
	if len(novel) == 0 {
		return nil
	}
	sort.Strings(novel)
	a := anomaly.New(anomaly.TypeNewLocation, anomaly.SeverityMedium, userID,
		"Login from a new country",
		fmt.Sprintf("login(s) from %s with no occurrence in the 90-day baseline", strings.Join(novel, ", ")),
		now).
		WithMeta("countries", strings.Join(novel, ","))
	return []anomaly.Anomaly{a}
}

// checkExcessiveRequests flags an unusual volume of access requests
// made by or for the user.
func (s *service) checkExcessiveRequests(ctx context.Context, userID string, now time.Time) []anomaly.Anomaly {
	count, err := s.facts.CountRecentRequests(ctx, userID, now.Add(-requestWindow))
	if err != nil {
		s.logCheckSkip(ctx, userID, anomaly.TypeExcessiveRequests, err)
		return nil
	}
	if count <= requestThreshold {
		return nil
	}
	sev := anomaly.SeverityMedium
	if count > requestHighWater {
		sev = anomaly.SeverityHigh
	}
	a := anomaly.New(anomaly.TypeExcessiveRequests, sev, userID,
		"Excessive access requests",
		fmt.Sprintf("%d access request(s) in the last 7 days", count),
		now).
		WithMeta("request_count", strconv.Itoa(count))
	return []anomaly.Anomaly{a}
}

// checkFailedLogins flags a burst of authentication failures.
func (s *service) checkFailedLogins(ctx context.Context, userID string, now time.Time) []anomaly.Anomaly {
	failures, err := s.facts.GetActivityWindow(ctx, userID, identity.ActionLoginFailed, now.Add(-failedWindow))
	if err != nil {
		s.logCheckSkip(ctx, userID, anomaly.TypeFailedLogins, err)
		return nil
	}
	if len(failures) < failedThreshold {
		return nil
	}
	sev := anomaly.SeverityMedium
	if len(failures) > failedHighWater {
		sev = anomaly.SeverityHigh
	}
	a := anomaly.New(anomaly.TypeFailedLogins, sev, userID,
		"Burst of failed logins",
		fmt.Sprintf("%d failed login attempt(s) in the last 24 hours", len(failures)),
		now).
		WithMeta("failed_count", strconv.Itoa(len(failures)))
	return []anomaly.Anomaly{a}
}

// checkRapidPermissionChanges flags a flurry of grants and revokes.
func (s *service) checkRapidPermissionChanges(ctx context.Context, userID string, now time.Time) []anomaly.Anomaly {
	since := now.Add(-permChangeWindow)
	grants, err := s.facts.GetActivityWindow(ctx, userID, identity.ActionPermissionGrant, since)
	if err != nil {
		s.logCheckSkip(ctx, userID, anomaly.TypeRapidPermissionChanges, err)
		return nil
	}
	revokes, err := s.facts.GetActivityWindow(ctx, userID, identity.ActionPermissionRevoke, since)
	if err != nil {
		s.logCheckSkip(ctx, userID, anomaly.TypeRapidPermissionChanges, err)
		return nil
	}
	total := len(grants) + len(revokes)
	if total < permChangeLimit {
		return nil
	}
	a := anomaly.New(anomaly.TypeRapidPermissionChanges, anomaly.SeverityHigh, userID,
		"Rapid permission changes",
		fmt.Sprintf("%d permission grant/revoke event(s) in the last 24 hours", total),
		now).
		WithMeta("change_count", strconv.Itoa(total))
	return []anomaly.Anomaly{a}
}

// checkDormantReactivation flags a login in the last day after a gap of
// more than 90 days.
func (s *service) checkDormantReactivation(ctx context.Context, userID string, now time.Time) []anomaly.Anomaly {
	logins, err := s.facts.GetActivityWindow(ctx, userID, identity.ActionLogin, now.Add(-dormantLookback))
	if err != nil {
		s.logCheckSkip(ctx, userID, anomaly.TypeDormantReactivation, err)
		return nil
	}
	sortByTime(logins)

	cutoff := now.Add(-recentWindow)
	var latestRecent *identity.ActivityEvent
	var lastBefore *identity.ActivityEvent
	for i := range logins {
		e := &logins[i]
		if e.Timestamp.Before(cutoff) {
			lastBefore = e
			continue
		}
		if latestRecent == nil || e.Timestamp.After(latestRecent.Timestamp) {
			latestRecent = e
		}
	}
	if latestRecent == nil {
		return nil
	}
	if lastBefore == nil {
		// The previous login may predate the bounded window; a first
		// ever login is not a reactivation, so confirm against the
		// full history before staying quiet.
		history, err := s.facts.GetActivityWindow(ctx, userID, identity.ActionLogin, time.Time{})
		if err != nil {
			s.logCheckSkip(ctx, userID, anomaly.TypeDormantReactivation, err)
			return nil
		}
		for i := range history {
			e := &history[i]
			if !e.Timestamp.Before(cutoff) {
				continue
			}
			if lastBefore == nil || e.Timestamp.After(lastBefore.Timestamp) {
				lastBefore = e
			}
		}
		if lastBefore == nil {
			return nil
		}
	}
	gap := latestRecent.Timestamp.Sub(lastBefore.Timestamp)
	if gap <= time.Duration(dormantGapDays)*24*time.Hour {
		return nil
	}
	days := int(gap.Hours() / 24)
	a := anomaly.New(anomaly.TypeDormantReactivation, anomaly.SeverityMedium, userID,
		"Dormant account reactivated",
		fmt.Sprintf("login after %d days of inactivity", days),
		now).
		WithMeta("gap_days", strconv.Itoa(days))
	return []anomaly.Anomaly{a}
}

// checkConcurrentSessions flags back-to-back logins from different
// countries inside a quarter hour.
func (s *service) checkConcurrentSessions(ctx context.Context, userID string, now time.Time) []anomaly.Anomaly {
	logins, err := s.facts.GetActivityWindow(ctx, userID, identity.ActionLogin, now.Add(-sessionWindow))
	if err != nil {
		s.logCheckSkip(ctx, userID, anomaly.TypeConcurrentSessions, err)
		return nil
	}
	sortByTime(logins)

	var findings []anomaly.Anomaly
	for i := 1; i < len(logins); i++ {
		prev, cur := logins[i-1], logins[i]
		if prev.Location.Country == "" || cur.Location.Country == "" {
			continue
		}
		if prev.Location.Country == cur.Location.Country {
			continue
		}
		if cur.Timestamp.Sub(prev.Timestamp) > sessionPairWithin {
			continue
		}
		a := anomaly.New(anomaly.TypeConcurrentSessions, anomaly.SeverityHigh, userID,
			"Concurrent sessions from two countries",
			fmt.Sprintf("logins from %s and %s within 15 minutes", prev.Location.Country, cur.Location.Country),
			now).
			WithMeta("countries", prev.Location.Country+","+cur.Location.Country)
		findings = append(findings, a)
	}
	return findings
}

// compositePattern is the reserved ninth check: two or more independent
// findings in one pass merit a combined escalation.
func compositePattern(userID string, findings []anomaly.Anomaly, now time.Time) *anomaly.Anomaly {
	if len(findings) < 2 {
		return nil
	}
	sev := anomaly.SeverityMedium
	types := make([]string, 0, len(findings))
	for _, f := range findings {
		types = append(types, string(f.Type))
		if f.Severity == anomaly.SeverityHigh || f.Severity == anomaly.SeverityCritical {
			sev = anomaly.SeverityHigh
		}
	}
	sort.Strings(types)
	a := anomaly.New(anomaly.TypeSuspiciousPattern, sev, userID,
		"Multiple suspicious behaviors",
		fmt.Sprintf("%d independent findings in one detection pass: %s", len(findings), strings.Join(types, ", ")),
		now).
		WithMeta("finding_count", strconv.Itoa(len(findings)))
	return &a
}

func sortByTime(events []identity.ActivityEvent) {
	sort.Slice(events, func(i, j int) bool {
		return events[i].Timestamp.Before(events[j].Timestamp)
	})
}

func placeName(l identity.Location) string {
	switch {
	case l.City != "" && l.Country != "":
		return l.City + ", " + l.Country
	case l.Country != "":
		return l.Country
	case l.City != "":
		return l.City
	default:
		return "unknown location"
	}
}
