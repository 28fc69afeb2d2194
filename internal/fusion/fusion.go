// Package fusion merges heuristic and model candidate actions and
// resolves each action's duration from competing sources.
package fusion

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fyrsmithlabs/diaryd/internal/domain"
	"github.com/fyrsmithlabs/diaryd/internal/preprocess"
)

// HistoryLookup provides mean durations learned from past observations.
// The global template set (user 0) is consulted by implementations when
// the user has no template of their own.
type HistoryLookup interface {
	AverageMinutes(ctx context.Context, userID int64, normalized string) (int, bool, error)
}

// Config holds fusion policy knobs.
type Config struct {
	// DefaultMinutes is the duration applied when no source produced one.
	DefaultMinutes int
}

// Fuser merges parser outputs into resolved actions.
type Fuser struct {
	history HistoryLookup
	cfg     Config
}

// New creates a Fuser.
func New(history HistoryLookup, cfg Config) *Fuser {
	return &Fuser{history: history, cfg: cfg}
}

// Result is the fusion output: resolved actions plus recoverable errors
// hit along the way (history backend failures).
type Result struct {
	Actions   []domain.Action
	LatencyMS int64
	Errors    []string
}

// Merge combines the two candidate lists. Candidates are matched by
// normalized description (exact, then containment); for a matched pair
// the model's categorical fields win only when its confidence exceeds
// the heuristic's. Duration is resolved independently of which side won,
// in strict priority order: explicit in-text duration, then the user's
// history template, then a parser estimate, then the configured default.
func (f *Fuser) Merge(ctx context.Context, userID int64, heuristic, model []domain.RawAction) Result {
	start := time.Now()
	result := Result{}

	fused := matchCandidates(heuristic, model)

	actions := make([]domain.Action, 0, len(fused))
	for _, raw := range fused {
		minutes, source, err := f.resolveTime(ctx, userID, raw)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("history lookup failed: %v", err))
		}
		actions = append(actions, domain.Action{
			Category:          raw.Category,
			Subcategory:       raw.Subcategory,
			Description:       raw.Description,
			Kind:              raw.Kind,
			EstimatedMinutes:  minutes,
			TimeSource:        source,
			Confidence:        raw.Confidence,
			AchievementWeight: raw.AchievementWeight,
		})
	}

	result.Actions = actions
	result.LatencyMS = time.Since(start).Milliseconds()
	return result
}

// matchCandidates pairs heuristic and model candidates by normalized
// description. Unmatched candidates from either side pass through.
func matchCandidates(heuristic, model []domain.RawAction) []domain.RawAction {
	fused := make([]domain.RawAction, 0, len(heuristic)+len(model))
	usedModel := make([]bool, len(model))

	for _, h := range heuristic {
		matched := -1
		hNorm := preprocess.Normalize(h.Description)
		for i, m := range model {
			if usedModel[i] {
				continue
			}
			if descriptionsMatch(hNorm, preprocess.Normalize(m.Description)) {
				matched = i
				break
			}
		}
		if matched < 0 {
			fused = append(fused, h)
			continue
		}
		usedModel[matched] = true
		fused = append(fused, fusePair(h, model[matched]))
	}

	for i, m := range model {
		if !usedModel[i] {
			fused = append(fused, m)
		}
	}
	return fused
}

// descriptionsMatch reports whether two normalized descriptions refer to
// the same action: equal, or one contains the other.
func descriptionsMatch(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	if a == b {
		return true
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}

// fusePair combines a matched heuristic/model pair. Categorical fields
// come from the model only when it is more confident; the heuristic's
// explicit in-text duration and the model's estimate are both kept so
// time resolution can consider each.
func fusePair(h, m domain.RawAction) domain.RawAction {
	out := h
	if m.Confidence > h.Confidence {
		out.Category = m.Category
		out.Subcategory = m.Subcategory
		out.Description = m.Description
		out.Kind = m.Kind
		out.Confidence = m.Confidence
		out.AchievementWeight = m.AchievementWeight
	} else {
		if out.Subcategory == "" {
			out.Subcategory = m.Subcategory
		}
		if out.AchievementWeight == nil {
			out.AchievementWeight = m.AchievementWeight
		}
	}
	if out.EstimatedMinutes == nil {
		out.EstimatedMinutes = m.EstimatedMinutes
	}
	return out
}

// resolveTime applies the duration priority order. A history backend
// failure downgrades to the next source and is reported to the caller.
func (f *Fuser) resolveTime(ctx context.Context, userID int64, raw domain.RawAction) (int, domain.TimeSource, error) {
	if raw.ExplicitMinutes != nil {
		return *raw.ExplicitMinutes, domain.TimeSourceText, nil
	}

	var lookupErr error
	if f.history != nil {
		normalized := preprocess.Normalize(raw.Description)
		minutes, ok, err := f.history.AverageMinutes(ctx, userID, normalized)
		if err != nil {
			lookupErr = err
		} else if ok {
			return minutes, domain.TimeSourceHistory, nil
		}
	}

	if raw.EstimatedMinutes != nil {
		return *raw.EstimatedMinutes, domain.TimeSourceModel, lookupErr
	}

	return f.cfg.DefaultMinutes, domain.TimeSourceDefault, lookupErr
}
