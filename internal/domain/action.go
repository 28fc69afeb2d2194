// Package domain defines the core types shared across the diaryd
// extraction pipeline: actions, parse results, and analysis results.
package domain

import (
	"time"
)

// Kind classifies an extracted action.
type Kind string

const (
	// KindActivity is a regular, duration-scored action.
	KindActivity Kind = "activity"
	// KindAchievement is a notable one-off accomplishment, scored by weight.
	KindAchievement Kind = "achievement"
)

// ParseKind converts a string to a Kind, defaulting to KindActivity.
func ParseKind(s string) Kind {
	if s == string(KindAchievement) {
		return KindAchievement
	}
	return KindActivity
}

// TimeSource records which rule produced an action's duration.
type TimeSource string

const (
	// TimeSourceText means the duration was stated explicitly in the text.
	TimeSourceText TimeSource = "text"
	// TimeSourceHistory means the duration came from the user's history.
	TimeSourceHistory TimeSource = "history"
	// TimeSourceModel means a parser estimated the duration.
	TimeSourceModel TimeSource = "model"
	// TimeSourceDefault means the configured fallback duration was used.
	TimeSourceDefault TimeSource = "default"
)

// Achievement weight bounds.
const (
	MinAchievementWeight = 5
	MaxAchievementWeight = 25
)

// Action is a single extracted activity or achievement.
type Action struct {
	Category    string `json:"category"`
	Subcategory string `json:"subcategory,omitempty"`
	Description string `json:"description"`
	Kind        Kind   `json:"kind"`

	EstimatedMinutes int        `json:"estimated_minutes"`
	TimeSource       TimeSource `json:"time_source"`

	Confidence float64 `json:"confidence"`

	// AchievementWeight is set only when Kind is KindAchievement.
	AchievementWeight *int `json:"achievement_weight,omitempty"`

	// Points is always derived via PointsFor, never set independently.
	Points float64 `json:"points"`
}

// PointsFor derives the score for an action. Activities score one point
// per ten minutes; achievements score their weight.
func PointsFor(kind Kind, minutes int, weight *int, defaultWeight int) float64 {
	if kind == KindAchievement {
		w := defaultWeight
		if weight != nil {
			w = *weight
		}
		return float64(w)
	}
	return float64(minutes) / 10.0
}

// ClampWeight forces an achievement weight into the valid range.
func ClampWeight(w int) int {
	if w < MinAchievementWeight {
		return MinAchievementWeight
	}
	if w > MaxAchievementWeight {
		return MaxAchievementWeight
	}
	return w
}

// ClampConfidence forces a confidence score into [0, 1].
func ClampConfidence(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}

// StageLatency holds per-stage pipeline timings in milliseconds.
type StageLatency struct {
	PreprocessMS  int64 `json:"preprocess_ms"`
	HeuristicMS   int64 `json:"heuristic_ms"`
	LLMMS         int64 `json:"llm_ms,omitempty"`
	FusionMS      int64 `json:"fusion_ms"`
	PostprocessMS int64 `json:"postprocess_ms"`
	TotalMS       int64 `json:"total_ms"`
}

// Meta describes how an analysis was produced. It never changes after
// the result is built, so a cached result replays byte for byte.
type Meta struct {
	RequestID      string       `json:"request_id,omitempty"`
	UsedHeuristics []string     `json:"used_heuristics"`
	UsedLLM        bool         `json:"used_llm"`
	Latency        StageLatency `json:"latency"`
	// Errors lists recoverable conditions hit during the pipeline.
	// They never fail the request.
	Errors []string `json:"errors,omitempty"`
}

// AnalysisResult is the final output of one analyze call.
type AnalysisResult struct {
	UserID  int64    `json:"user_id"`
	Date    Date     `json:"date"`
	Actions []Action `json:"actions"`
	Meta    Meta     `json:"meta"`
}

// Date is a calendar date serialized as YYYY-MM-DD.
type Date struct {
	time.Time
}

// NewDate builds a Date truncated to the calendar day.
func NewDate(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Time: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// Today returns the current calendar date in UTC.
func Today() Date {
	return NewDate(time.Now().UTC())
}

// MarshalJSON implements json.Marshaler.
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Format("2006-01-02") + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Date) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" || s == `""` {
		*d = Date{}
		return nil
	}
	t, err := time.Parse(`"2006-01-02"`, s)
	if err != nil {
		return err
	}
	*d = Date{Time: t}
	return nil
}

// IsZero reports whether the date is unset.
func (d Date) IsZero() bool {
	return d.Time.IsZero()
}
