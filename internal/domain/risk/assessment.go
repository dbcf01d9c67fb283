package risk

import "time"

// Level is the categorical risk classification. It is always derived
// from the numeric score via LevelForScore, never set independently.
type Level string

const (
	LevelLow      Level = "Low"
	LevelMedium   Level = "Medium"
	LevelHigh     Level = "High"
	LevelCritical Level = "Critical"
)

// String returns the string representation of the level.
func (l Level) String() string { return string(l) }

// AtMost reports whether the level is no riskier than max.
func (l Level) AtMost(max Level) bool {
	return levelRank(l) <= levelRank(max)
}

func levelRank(l Level) int {
	switch l {
	case LevelLow:
		return 0
	case LevelMedium:
		return 1
	case LevelHigh:
		return 2
	case LevelCritical:
		return 3
	default:
		return 0
	}
}

// LevelForScore maps a 0-100 score onto a level. Thresholds: >=75
// Critical, >=50 High, >=25 Medium, else Low.
func LevelForScore(score int) Level {
	switch {
	case score >= 75:
		return LevelCritical
	case score >= 50:
		return LevelHigh
	case score >= 25:
		return LevelMedium
	default:
		return LevelLow
	}
}

// ClampScore bounds a raw point total to the [0,100] score range.
func ClampScore(points int) int {
	if points < 0 {
		return 0
	}
	if points > 100 {
		return 100
	}
	return points
}

// Factor is one weighted contribution to a computed score, kept so a
// reviewer can audit exactly where the points came from.
type Factor struct {
	Label     string `json:"label"`
	Points    int    `json:"points"`
	Rationale string `json:"rationale"`
}

// Assessment is the result of scoring a user or an access request.
type Assessment struct {
	Score           int       `json:"score"`
	Level           Level     `json:"level"`
	Factors         []Factor  `json:"factors"`
	Recommendations []string  `json:"recommendations"`
	ComputedAt      time.Time `json:"computed_at"`
}

// NewAssessment builds an assessment from raw points, clamping the
// score and deriving the level.
func NewAssessment(points int, factors []Factor, recommendations []string, now time.Time) *Assessment {
	score := ClampScore(points)
	return &Assessment{
		Score:           score,
		Level:           LevelForScore(score),
		Factors:         factors,
		Recommendations: recommendations,
		ComputedAt:      now,
	}
}

// DefaultAssessment is the degraded result returned when facts cannot
// be fetched. Scoring never raises to the caller.
func DefaultAssessment(now time.Time) *Assessment {
	return &Assessment{
		Score: 0,
		Level: LevelLow,
		Factors: []Factor{{
			Label:     "unavailable",
			Points:    0,
			Rationale: "unable to calculate risk score",
		}},
		Recommendations: nil,
		ComputedAt:      now,
	}
}
