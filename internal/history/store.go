// Package history stores per-user running duration statistics for
// recurring action descriptions and serves mean-duration lookups.
package history

import (
	"context"
)

// GlobalUserID owns the shared template set consulted when a user has
// no template of their own.
const GlobalUserID int64 = 0

// Template is one per-user statistical record for a recurring action.
type Template struct {
	Normalized  string  `json:"normalized"`
	MeanMinutes float64 `json:"mean_minutes"`
	SampleCount int64   `json:"sample_count"`
}

// Stats summarizes a user's recorded history.
type Stats struct {
	UserID         int64 `json:"user_id"`
	TotalTemplates int64 `json:"total_templates"`
	TotalActions   int64 `json:"total_actions"`
}

// Store is the history backend contract. Record applies the incremental
// average update exactly once per call; implementations must make the
// read-modify-write atomic per (user, normalized) key.
type Store interface {
	// AverageMinutes returns the learned mean duration for the user's
	// template, falling back to the global template set. The second
	// return is false when neither exists.
	AverageMinutes(ctx context.Context, userID int64, normalized string) (int, bool, error)

	// Record folds one observation into the user's template, creating
	// it on first sight.
	Record(ctx context.Context, userID int64, normalized string, minutes int) error

	// Stats returns aggregate counts for the user.
	Stats(ctx context.Context, userID int64) (Stats, error)

	// Close releases backend resources.
	Close() error
}

// fold applies the incremental average update to a template.
func fold(t Template, minutes int) Template {
	t.MeanMinutes += (float64(minutes) - t.MeanMinutes) / float64(t.SampleCount+1)
	t.SampleCount++
	return t
}
