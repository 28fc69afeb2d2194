// Package heuristic extracts candidate actions from cleaned diary text
// using keyword tables and a small time-expression grammar. It never
// calls external services; latency is bounded by local regex work.
package heuristic

import (
	"regexp"
	"strings"
	"time"

	"github.com/fyrsmithlabs/diaryd/internal/domain"
)

// Heuristic names reported in analysis metadata.
const (
	heuristicSegmentation = "segmentation"
	heuristicCategory     = "category_keywords"
	heuristicSubcategory  = "subcategory_keywords"
	heuristicAchievement  = "achievement_keywords"
	heuristicTime         = "time_extraction"
)

// segmentRe splits text into candidate action segments on punctuation
// and Russian conjunctions.
var segmentRe = regexp.MustCompile(`(?i)[,;.!?]|\s+и\s+|\s+а\s+|\s+также\s+|\s+потом\s+|\s+затем\s+`)

var spacesRe = regexp.MustCompile(`\s+`)

// Parser is the rule-based action extractor.
type Parser struct {
	categories   []categoryRule
	achievements []achievementRule
}

// NewParser creates a parser with the default keyword tables.
func NewParser() *Parser {
	return &Parser{
		categories:   defaultCategoryRules(),
		achievements: defaultAchievementRules(),
	}
}

// Parse extracts candidate actions from cleaned text. The aggregate
// confidence is the mean of per-action confidences (domain.MeanConfidence);
// the orchestrator compares it against the configured threshold to decide
// whether the model fallback is needed.
func (p *Parser) Parse(text string) domain.ParseResult {
	start := time.Now()

	fired := map[string]bool{}
	var actions []domain.RawAction

	for _, segment := range segmentText(text) {
		action, rules := p.extractSegment(segment)
		if action == nil {
			continue
		}
		// Adjacent segments in the same category bucket elaborate one
		// episode ("сходил в зал, потренировался 90 минут"), not two.
		if n := len(actions); n > 0 && sameBucket(actions[n-1], *action) {
			actions[n-1] = mergeAdjacent(actions[n-1], *action)
		} else {
			actions = append(actions, *action)
		}
		for _, r := range rules {
			fired[r] = true
		}
	}

	heuristics := []string{heuristicSegmentation}
	for _, name := range []string{heuristicCategory, heuristicSubcategory, heuristicAchievement, heuristicTime} {
		if fired[name] {
			heuristics = append(heuristics, name)
		}
	}

	return domain.ParseResult{
		Actions:    actions,
		Confidence: domain.MeanConfidence(actions),
		LatencyMS:  time.Since(start).Milliseconds(),
		Heuristics: heuristics,
	}
}

// segmentText splits text into trimmed, non-empty candidate segments.
func segmentText(text string) []string {
	parts := segmentRe.Split(text, -1)
	segments := make([]string, 0, len(parts))
	for _, part := range parts {
		if s := strings.TrimSpace(part); s != "" {
			segments = append(segments, s)
		}
	}
	return segments
}

// extractSegment turns one segment into a candidate action, or nil when
// no category keyword matches.
func (p *Parser) extractSegment(segment string) (*domain.RawAction, []string) {
	category, subcategory, keyword := p.detectCategory(segment)
	if category == "" {
		return nil, nil
	}

	rules := []string{heuristicCategory}
	if subcategory != "" {
		rules = append(rules, heuristicSubcategory)
	}

	kind := domain.KindActivity
	var weight *int
	if w, ok := p.detectAchievement(segment); ok {
		kind = domain.KindAchievement
		weight = &w
		rules = append(rules, heuristicAchievement)
	}

	var explicit *int
	if minutes, ok := extractMinutes(segment); ok {
		explicit = &minutes
		rules = append(rules, heuristicTime)
	}

	description := cleanDescription(segment)
	if description == "" {
		return nil, nil
	}

	return &domain.RawAction{
		Category:          category,
		Subcategory:       subcategory,
		Description:       description,
		Kind:              kind,
		ExplicitMinutes:   explicit,
		Confidence:        actionConfidence(keyword, explicit != nil, kind == domain.KindAchievement),
		AchievementWeight: weight,
		Source:            domain.SourceHeuristic,
	}, rules
}

// sameBucket reports whether two candidates fall into the same category,
// subcategory, and kind.
func sameBucket(a, b domain.RawAction) bool {
	return a.Category == b.Category && a.Subcategory == b.Subcategory && a.Kind == b.Kind
}

// mergeAdjacent folds a continuation segment into the preceding
// candidate: descriptions join, the first explicit duration wins, and
// the stronger per-segment signals carry over.
func mergeAdjacent(a, b domain.RawAction) domain.RawAction {
	out := a
	if b.Description != "" {
		out.Description = a.Description + ", " + b.Description
	}
	if out.ExplicitMinutes == nil {
		out.ExplicitMinutes = b.ExplicitMinutes
	}
	if b.Confidence > out.Confidence {
		out.Confidence = b.Confidence
	}
	if out.AchievementWeight == nil || (b.AchievementWeight != nil && *b.AchievementWeight > *out.AchievementWeight) {
		out.AchievementWeight = b.AchievementWeight
	}
	return out
}

// detectCategory returns the first category whose keyword table matches,
// the matched subcategory if any, and the keyword that matched.
func (p *Parser) detectCategory(segment string) (category, subcategory, keyword string) {
	lower := strings.ToLower(segment)
	for _, rule := range p.categories {
		for _, kw := range rule.Keywords {
			if !strings.Contains(lower, kw) {
				continue
			}
			for _, sub := range rule.Subcategories {
				for _, skw := range sub.Keywords {
					if strings.Contains(lower, skw) {
						return rule.Category, sub.Subcategory, kw
					}
				}
			}
			return rule.Category, "", kw
		}
	}
	return "", "", ""
}

// detectAchievement returns the weight of the strongest matching
// achievement keyword.
func (p *Parser) detectAchievement(segment string) (int, bool) {
	lower := strings.ToLower(segment)
	for _, rule := range p.achievements {
		if strings.Contains(lower, rule.Keyword) {
			return rule.Weight, true
		}
	}
	return 0, false
}

// actionConfidence scores one candidate. Base 0.5; a multi-word keyword
// match is more specific than a single stem; an explicit duration and an
// achievement keyword each add certainty. Capped at 1.
func actionConfidence(keyword string, hasTime, isAchievement bool) float64 {
	confidence := 0.5
	if strings.Contains(keyword, " ") {
		confidence += 0.25
	} else {
		confidence += 0.2
	}
	if hasTime {
		confidence += 0.2
	}
	if isAchievement {
		confidence += 0.1
	}
	if confidence > 1 {
		confidence = 1
	}
	return confidence
}

// cleanDescription strips time expressions and collapses whitespace,
// preserving the original casing of the remaining phrase.
func cleanDescription(segment string) string {
	s := stripTimeExpressions(segment)
	s = spacesRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
