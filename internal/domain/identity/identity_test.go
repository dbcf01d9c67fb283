package identity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestJobTitleCore(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"Senior Software Engineer", "software engineer"},
		{"Software Engineer II", "software engineer"},
		{"Staff Engineer", "engineer"},
		{"Financial Analyst", "financial analyst"},
		{"Jr. Accountant", "accountant"},
		{"Lead Principal Architect", "architect"},
		{"Engineer", "engineer"},
		{"", ""},
		{"Senior", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, JobTitleCore(tt.title), "title %q", tt.title)
	}
}

func TestDaysSinceLastLogin(t *testing.T) {
	now := time.Date(2025, 3, 4, 14, 0, 0, 0, time.UTC)

	t.Run("never logged in", func(t *testing.T) {
		f := &Facts{ID: "u"}
		assert.Equal(t, -1, f.DaysSinceLastLogin(now))
	})

	t.Run("whole days elapsed", func(t *testing.T) {
		at := now.Add(-10*24*time.Hour - 6*time.Hour)
		f := &Facts{ID: "u", LastLoginAt: &at}
		assert.Equal(t, 10, f.DaysSinceLastLogin(now))
	})
}

func TestFactsValidate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		f := &Facts{ID: "user-1"}
		assert.NoError(t, f.Validate())
	})

	t.Run("missing id", func(t *testing.T) {
		f := &Facts{ID: "  "}
		assert.Error(t, f.Validate())
	})

	t.Run("negative count", func(t *testing.T) {
		f := &Facts{ID: "user-1", AdminRoleCount: -1}
		assert.Error(t, f.Validate())
	})
}

func TestRequestPriorityIsElevated(t *testing.T) {
	assert.False(t, PriorityLow.IsElevated())
	assert.False(t, PriorityMedium.IsElevated())
	assert.True(t, PriorityHigh.IsElevated())
	assert.True(t, PriorityCritical.IsElevated())
}

func TestJustificationLength(t *testing.T) {
	r := &RequestFacts{BusinessJustification: "  need it  "}
	assert.Equal(t, 7, r.JustificationLength())
}

func TestLocationHasCoordinates(t *testing.T) {
	assert.False(t, Location{City: "Unknown"}.HasCoordinates())
	assert.True(t, Location{Latitude: 51.5}.HasCoordinates())
	assert.True(t, Location{Latitude: 40.7, Longitude: -74.0}.HasCoordinates())
}
