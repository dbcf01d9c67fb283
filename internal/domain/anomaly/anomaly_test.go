package anomaly

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	now := time.Date(2025, 3, 4, 14, 0, 0, 0, time.UTC)
	a := New(TypeFailedLogins, SeverityMedium, "user-1", "t", "d", now)

	assert.NotEqual(t, uuid.Nil, a.ID)
	assert.Equal(t, now, a.DetectedAt)
	assert.False(t, a.Reviewed)
	assert.False(t, a.FalsePositive)
	assert.NotNil(t, a.Metadata)
}

func TestWithMeta(t *testing.T) {
	now := time.Date(2025, 3, 4, 14, 0, 0, 0, time.UTC)
	a := New(TypeFailedLogins, SeverityMedium, "user-1", "t", "d", now).
		WithMeta("count", "6").
		WithMeta("window", "24h")

	assert.Equal(t, "6", a.Metadata["count"])
	assert.Equal(t, "24h", a.Metadata["window"])
}

func TestIsActionable(t *testing.T) {
	tests := []struct {
		name          string
		reviewed      bool
		falsePositive bool
		want          bool
	}{
		{name: "unreviewed", want: true},
		{name: "reviewed genuine", reviewed: true, want: true},
		{name: "reviewed false positive", reviewed: true, falsePositive: true, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := Anomaly{Reviewed: tt.reviewed, FalsePositive: tt.falsePositive}
			assert.Equal(t, tt.want, a.IsActionable())
		})
	}
}
