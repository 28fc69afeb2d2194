// Package postprocess finalizes fused actions: synonym normalization,
// deduplication, validation, and deterministic scoring.
package postprocess

import (
	"fmt"
	"strings"
	"time"

	"github.com/fyrsmithlabs/diaryd/internal/domain"
	"github.com/fyrsmithlabs/diaryd/internal/preprocess"
)

// Config holds postprocessing knobs.
type Config struct {
	// SimilarityThreshold is the bigram similarity above which two
	// descriptions in the same category and kind count as duplicates.
	SimilarityThreshold float64

	// DefaultMinutes replaces negative durations.
	DefaultMinutes int

	// DefaultAchievementWeight scores achievements that carry no weight.
	DefaultAchievementWeight int
}

// Processor finalizes a fused action list.
type Processor struct {
	cfg Config
}

// New creates a Processor.
func New(cfg Config) *Processor {
	return &Processor{cfg: cfg}
}

// Result carries the finalized actions and any drop reasons.
type Result struct {
	Actions   []domain.Action
	LatencyMS int64
	Errors    []string
}

// Finalize deduplicates, validates, and scores actions. Output order is
// first-seen order after dedup. Actions with an empty description or an
// unknown category are dropped with an error entry.
func (p *Processor) Finalize(actions []domain.Action) Result {
	start := time.Now()
	result := Result{}

	kept := make([]domain.Action, 0, len(actions))
	for _, action := range actions {
		action.Description = applySynonyms(strings.TrimSpace(action.Description))

		if action.Description == "" {
			result.Errors = append(result.Errors, "dropped action with empty description")
			continue
		}
		if !domain.ValidCategory(action.Category) {
			result.Errors = append(result.Errors, fmt.Sprintf("dropped action with unknown category %q", action.Category))
			continue
		}

		merged := false
		for i := range kept {
			if p.areDuplicates(kept[i], action) {
				kept[i] = mergeDuplicates(kept[i], action)
				merged = true
				break
			}
		}
		if !merged {
			kept = append(kept, action)
		}
	}

	for i := range kept {
		kept[i] = p.validate(kept[i])
	}

	result.Actions = kept
	result.LatencyMS = time.Since(start).Milliseconds()
	return result
}

// synonyms collapses common spelling variants so duplicates line up and
// history templates accumulate under one description. Longer variants
// come first so "спортзале" rewrites before the bare "зале" inside it.
var synonyms = []struct{ old, repl string }{
	{"спортзале", "зал"},
	{"качалке", "зал"},
	{"зале", "зал"},
	{"gym", "зал"},
	{"книжку", "книгу"},
	{"учебник", "книгу"},
}

func applySynonyms(text string) string {
	for _, s := range synonyms {
		if strings.Contains(strings.ToLower(text), s.old) {
			text = strings.ReplaceAll(text, s.old, s.repl)
			text = strings.ReplaceAll(text, capitalize(s.old), capitalize(s.repl))
		}
	}
	return text
}

func capitalize(s string) string {
	runes := []rune(s)
	if len(runes) == 0 {
		return s
	}
	return strings.ToUpper(string(runes[0])) + string(runes[1:])
}

// areDuplicates reports whether two actions describe the same thing.
// Identical normalized descriptions always match; near-identical ones
// match only within the same category and kind.
func (p *Processor) areDuplicates(a, b domain.Action) bool {
	aNorm := preprocess.Normalize(a.Description)
	bNorm := preprocess.Normalize(b.Description)
	if aNorm == bNorm {
		return true
	}
	if a.Category != b.Category || a.Kind != b.Kind {
		return false
	}
	return bigramSimilarity(aNorm, bNorm) >= p.cfg.SimilarityThreshold
}

// mergeDuplicates keeps the better time source for duration and the
// higher-confidence action for everything else. An explicit achievement
// weight survives from either side.
func mergeDuplicates(a, b domain.Action) domain.Action {
	betterTime := a
	if timePriority(b.TimeSource) > timePriority(a.TimeSource) {
		betterTime = b
	}

	out := a
	if b.Confidence > a.Confidence {
		out = b
	}
	out.EstimatedMinutes = betterTime.EstimatedMinutes
	out.TimeSource = betterTime.TimeSource
	if a.Confidence > out.Confidence {
		out.Confidence = a.Confidence
	}
	if b.Confidence > out.Confidence {
		out.Confidence = b.Confidence
	}
	if out.AchievementWeight == nil {
		if a.AchievementWeight != nil {
			out.AchievementWeight = a.AchievementWeight
		} else {
			out.AchievementWeight = b.AchievementWeight
		}
	}
	if out.Subcategory == "" {
		if a.Subcategory != "" {
			out.Subcategory = a.Subcategory
		} else {
			out.Subcategory = b.Subcategory
		}
	}
	return out
}

func timePriority(s domain.TimeSource) int {
	switch s {
	case domain.TimeSourceText:
		return 4
	case domain.TimeSourceHistory:
		return 3
	case domain.TimeSourceModel:
		return 2
	default:
		return 1
	}
}

// validate clamps fields and recomputes points from the other fields.
func (p *Processor) validate(action domain.Action) domain.Action {
	if action.EstimatedMinutes < 0 {
		action.EstimatedMinutes = p.cfg.DefaultMinutes
		action.TimeSource = domain.TimeSourceDefault
	}
	action.Confidence = domain.ClampConfidence(action.Confidence)

	if action.Kind == domain.KindAchievement {
		if action.AchievementWeight != nil {
			w := domain.ClampWeight(*action.AchievementWeight)
			action.AchievementWeight = &w
		}
	} else {
		action.AchievementWeight = nil
	}

	action.Points = domain.PointsFor(action.Kind, action.EstimatedMinutes, action.AchievementWeight, p.cfg.DefaultAchievementWeight)
	return action
}

// bigramSimilarity is the Dice coefficient over rune bigrams of the two
// strings. Returns 1 for identical inputs and 0 when either side has no
// bigrams.
func bigramSimilarity(a, b string) float64 {
	if a == b {
		return 1
	}
	aBigrams := bigrams(a)
	bBigrams := bigrams(b)
	if len(aBigrams) == 0 || len(bBigrams) == 0 {
		return 0
	}

	var overlap int
	for bg, count := range aBigrams {
		if other, ok := bBigrams[bg]; ok {
			if other < count {
				count = other
			}
			overlap += count
		}
	}

	var aTotal, bTotal int
	for _, c := range aBigrams {
		aTotal += c
	}
	for _, c := range bBigrams {
		bTotal += c
	}
	return 2 * float64(overlap) / float64(aTotal+bTotal)
}

func bigrams(s string) map[string]int {
	runes := []rune(s)
	if len(runes) < 2 {
		return nil
	}
	out := make(map[string]int, len(runes)-1)
	for i := 0; i < len(runes)-1; i++ {
		out[string(runes[i:i+2])]++
	}
	return out
}
