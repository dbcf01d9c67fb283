package riskscoring

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/ameeeetster/iga-risk-engine/internal/domain/errors"
	"github.com/ameeeetster/iga-risk-engine/internal/domain/identity"
	"github.com/ameeeetster/iga-risk-engine/internal/domain/risk"
	"github.com/ameeeetster/iga-risk-engine/internal/testutil/fixtures"
)

var testNow = fixtures.ReferenceTime // Tuesday 14:00 UTC

func newTestService(facts FactProvider, cache AssessmentCache) *service {
	svc := NewService(facts, cache, nil, 0).(*service)
	svc.now = func() time.Time { return testNow }
	return svc
}

func TestScoreUserFacts(t *testing.T) {
	tests := []struct {
		name          string
		facts         *identity.Facts
		expectedScore int
		expectedLevel risk.Level
	}{
		{
			name: "privileged admin with sod violation",
			facts: fixtures.NewIdentityFacts("user-1",
				fixtures.WithAdminRoles(2),
				fixtures.WithPrivilegedAccess(),
				fixtures.WithSoDViolations(1),
				fixtures.WithLastLogin(testNow.Add(-40*24*time.Hour)),
				fixtures.WithTotalRoles(4),
			),
			expectedScore: 55,
			expectedLevel: risk.LevelHigh,
		},
		{
			name:          "clean identity scores zero",
			facts:         fixtures.NewIdentityFacts("user-2"),
			expectedScore: 0,
			expectedLevel: risk.LevelLow,
		},
		{
			name: "admin roles cap at 30",
			facts: fixtures.NewIdentityFacts("user-3",
				fixtures.WithAdminRoles(7),
			),
			expectedScore: 30,
			expectedLevel: risk.LevelMedium,
		},
		{
			name: "never logged in counts as dormant",
			facts: fixtures.NewIdentityFacts("user-4",
				fixtures.WithNeverLoggedIn(),
			),
			expectedScore: 15,
			expectedLevel: risk.LevelLow,
		},
		{
			name: "stale login between 60 and 90 days",
			facts: fixtures.NewIdentityFacts("user-5",
				fixtures.WithLastLogin(testNow.Add(-70*24*time.Hour)),
			),
			expectedScore: 8,
			expectedLevel: risk.LevelLow,
		},
		{
			name: "login at exactly 90 days is stale not dormant",
			facts: fixtures.NewIdentityFacts("user-6",
				fixtures.WithLastLogin(testNow.Add(-90*24*time.Hour)),
			),
			expectedScore: 8,
			expectedLevel: risk.LevelLow,
		},
		{
			name: "failed logins cap at 10",
			facts: fixtures.NewIdentityFacts("user-7",
				fixtures.WithFailedLogins(9),
			),
			expectedScore: 10,
			expectedLevel: risk.LevelLow,
		},
		{
			name: "role accumulation beyond baseline of five",
			facts: fixtures.NewIdentityFacts("user-8",
				fixtures.WithTotalRoles(8),
			),
			expectedScore: 6,
			expectedLevel: risk.LevelLow,
		},
		{
			name: "everything maxed clamps at 100",
			facts: fixtures.NewIdentityFacts("user-9",
				fixtures.WithAdminRoles(10),
				fixtures.WithPrivilegedAccess(),
				fixtures.WithSoDViolations(5),
				fixtures.WithNeverLoggedIn(),
				fixtures.WithFailedLogins(50),
				fixtures.WithTotalRoles(20),
			),
			expectedScore: 100,
			expectedLevel: risk.LevelCritical,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := ScoreUserFacts(tt.facts, testNow)
			assert.Equal(t, tt.expectedScore, a.Score)
			assert.Equal(t, tt.expectedLevel, a.Level)
			assert.Equal(t, risk.LevelForScore(a.Score), a.Level)
		})
	}
}

func TestScoreUserFacts_Idempotent(t *testing.T) {
	facts := fixtures.NewIdentityFacts("user-1",
		fixtures.WithAdminRoles(2),
		fixtures.WithPrivilegedAccess(),
	)

	first := ScoreUserFacts(facts, testNow)
	second := ScoreUserFacts(facts, testNow)

	assert.Equal(t, first.Score, second.Score)
	assert.Equal(t, first.Level, second.Level)
	assert.Equal(t, first.Factors, second.Factors)
}

func TestScoreUserFacts_AdminMonotonicity(t *testing.T) {
	prev := -1
	for n := 0; n <= 6; n++ {
		facts := fixtures.NewIdentityFacts("user-1", fixtures.WithAdminRoles(n))
		a := ScoreUserFacts(facts, testNow)
		assert.GreaterOrEqual(t, a.Score, prev, "adminRoleCount=%d", n)
		prev = a.Score
	}
}

func TestScoreRequestFacts(t *testing.T) {
	saturday := time.Date(2025, 3, 8, 14, 0, 0, 0, time.UTC)
	saturdayNight := time.Date(2025, 3, 8, 23, 30, 0, 0, time.UTC)
	weekdayNight := time.Date(2025, 3, 4, 23, 30, 0, 0, time.UTC)

	tests := []struct {
		name          string
		req           *identity.RequestFacts
		requester     *risk.Assessment
		expectedScore int
		expectedLevel risk.Level
	}{
		{
			name: "admin role on a weekend from a risky requester",
			req: fixtures.NewRequestFacts("req-1",
				fixtures.WithResourceType("admin_role"),
				fixtures.WithSubmittedAt(saturday),
				fixtures.WithPriority(identity.PriorityLow),
				fixtures.WithJustification("ok"),
			),
			requester:     &risk.Assessment{Score: 80, Level: risk.LevelCritical},
			expectedScore: 76,
			expectedLevel: risk.LevelCritical,
		},
		{
			name: "read only on a weekday with full justification",
			req: fixtures.NewRequestFacts("req-2",
				fixtures.WithResourceType("read_only"),
			),
			requester:     &risk.Assessment{Score: 0, Level: risk.LevelLow},
			expectedScore: 5,
			expectedLevel: risk.LevelLow,
		},
		{
			name: "weekend takes precedence over off hours",
			req: fixtures.NewRequestFacts("req-3",
				fixtures.WithResourceType("read_only"),
				fixtures.WithSubmittedAt(saturdayNight),
			),
			requester:     nil,
			expectedScore: 17,
			expectedLevel: risk.LevelLow,
		},
		{
			name: "weekday off hours penalty",
			req: fixtures.NewRequestFacts("req-4",
				fixtures.WithResourceType("read_only"),
				fixtures.WithSubmittedAt(weekdayNight),
			),
			requester:     nil,
			expectedScore: 15,
			expectedLevel: risk.LevelLow,
		},
		{
			name: "unknown resource type defaults to standard application",
			req: fixtures.NewRequestFacts("req-5",
				fixtures.WithResourceType("mystery_system"),
			),
			requester:     nil,
			expectedScore: 8,
			expectedLevel: risk.LevelLow,
		},
		{
			name: "sod conflicts cap at 20",
			req: fixtures.NewRequestFacts("req-6",
				fixtures.WithResourceType("read_only"),
				fixtures.WithSoDConflicts(4),
			),
			requester:     nil,
			expectedScore: 25,
			expectedLevel: risk.LevelMedium,
		},
		{
			name: "elevated priority adds five",
			req: fixtures.NewRequestFacts("req-7",
				fixtures.WithResourceType("read_only"),
				fixtures.WithPriority(identity.PriorityCritical),
			),
			requester:     nil,
			expectedScore: 10,
			expectedLevel: risk.LevelLow,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := ScoreRequestFacts(tt.req, tt.requester, testNow)
			assert.Equal(t, tt.expectedScore, a.Score)
			assert.Equal(t, tt.expectedLevel, a.Level)
		})
	}
}

func TestScoreRequestFacts_EscalationRecommendations(t *testing.T) {
	saturday := time.Date(2025, 3, 8, 14, 0, 0, 0, time.UTC)

	critical := ScoreRequestFacts(fixtures.NewRequestFacts("req-1",
		fixtures.WithResourceType("admin_role"),
		fixtures.WithSubmittedAt(saturday),
		fixtures.WithJustification("ok"),
	), &risk.Assessment{Score: 80}, testNow)
	require.GreaterOrEqual(t, critical.Score, 75)
	assert.Contains(t, critical.Recommendations, "Escalate to security review before approval")

	high := ScoreRequestFacts(fixtures.NewRequestFacts("req-2",
		fixtures.WithResourceType("admin_role"),
		fixtures.WithSoDConflicts(2),
	), nil, testNow)
	require.GreaterOrEqual(t, high.Score, 50)
	require.Less(t, high.Score, 75)
	assert.Contains(t, high.Recommendations, "Require both manager and resource-owner approval")
}

func TestScoreUser(t *testing.T) {
	ctx := context.Background()

	t.Run("empty user id is a validation error", func(t *testing.T) {
		svc := newTestService(new(mockFactProvider), nil)
		_, err := svc.ScoreUser(ctx, "  ")
		require.Error(t, err)
		assert.True(t, domainerrors.IsType(err, domainerrors.ErrorTypeValidation))
	})

	t.Run("facts fetch failure degrades to default", func(t *testing.T) {
		facts := new(mockFactProvider)
		facts.On("GetIdentityFacts", ctx, "user-1").Return(nil, errors.New("connection refused"))

		svc := newTestService(facts, nil)
		a, err := svc.ScoreUser(ctx, "user-1")
		require.NoError(t, err)
		assert.Equal(t, 0, a.Score)
		assert.Equal(t, risk.LevelLow, a.Level)
		require.Len(t, a.Factors, 1)
		assert.Equal(t, "unavailable", a.Factors[0].Label)
	})

	t.Run("cache hit skips the fact provider", func(t *testing.T) {
		cached := &risk.Assessment{Score: 42, Level: risk.LevelMedium}
		cache := new(mockCache)
		cache.On("GetAssessment", ctx, "user-1").Return(cached, true)

		facts := new(mockFactProvider)
		svc := newTestService(facts, cache)

		a, err := svc.ScoreUser(ctx, "user-1")
		require.NoError(t, err)
		assert.Equal(t, cached, a)
		facts.AssertNotCalled(t, "GetIdentityFacts", mock.Anything, mock.Anything)
	})

	t.Run("cache miss computes and stores", func(t *testing.T) {
		cache := new(mockCache)
		cache.On("GetAssessment", ctx, "user-1").Return(nil, false)
		cache.On("PutAssessment", ctx, "user-1", mock.AnythingOfType("*risk.Assessment"), defaultCacheTTL).Return()

		facts := new(mockFactProvider)
		facts.On("GetIdentityFacts", ctx, "user-1").
			Return(fixtures.NewIdentityFacts("user-1", fixtures.WithPrivilegedAccess()), nil)

		svc := newTestService(facts, cache)
		a, err := svc.ScoreUser(ctx, "user-1")
		require.NoError(t, err)
		assert.Equal(t, 25, a.Score)
		cache.AssertExpectations(t)
	})

	t.Run("configured cache ttl reaches the cache", func(t *testing.T) {
		cache := new(mockCache)
		cache.On("GetAssessment", ctx, "user-1").Return(nil, false)
		cache.On("PutAssessment", ctx, "user-1", mock.AnythingOfType("*risk.Assessment"), 90*time.Second).Return()

		facts := new(mockFactProvider)
		facts.On("GetIdentityFacts", ctx, "user-1").
			Return(fixtures.NewIdentityFacts("user-1"), nil)

		svc := NewService(facts, cache, nil, 90*time.Second).(*service)
		svc.now = func() time.Time { return testNow }

		_, err := svc.ScoreUser(ctx, "user-1")
		require.NoError(t, err)
		cache.AssertExpectations(t)
	})
}

func TestScoreRequest(t *testing.T) {
	ctx := context.Background()

	t.Run("empty request id is a validation error", func(t *testing.T) {
		svc := newTestService(new(mockFactProvider), nil)
		_, err := svc.ScoreRequest(ctx, "")
		require.Error(t, err)
		assert.True(t, domainerrors.IsType(err, domainerrors.ErrorTypeValidation))
	})

	t.Run("request fetch failure degrades to default", func(t *testing.T) {
		facts := new(mockFactProvider)
		facts.On("GetRequestFacts", ctx, "req-1").Return(nil, errors.New("timeout"))

		svc := newTestService(facts, nil)
		a, err := svc.ScoreRequest(ctx, "req-1")
		require.NoError(t, err)
		assert.Equal(t, 0, a.Score)
	})

	t.Run("folds the requester score", func(t *testing.T) {
		facts := new(mockFactProvider)
		facts.On("GetRequestFacts", ctx, "req-1").
			Return(fixtures.NewRequestFacts("req-1",
				fixtures.WithResourceType("financial_system"),
				fixtures.WithRequester("user-1"),
			), nil)
		facts.On("GetIdentityFacts", ctx, "user-1").
			Return(fixtures.NewIdentityFacts("user-1",
				fixtures.WithAdminRoles(2),
				fixtures.WithPrivilegedAccess(),
			), nil)

		svc := newTestService(facts, nil)
		a, err := svc.ScoreRequest(ctx, "req-1")
		require.NoError(t, err)
		// 25 base + round(45*0.3)=14
		assert.Equal(t, 39, a.Score)
	})
}
