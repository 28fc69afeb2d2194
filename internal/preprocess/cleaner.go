// Package preprocess cleans raw diary text and redacts PII before the
// text enters the extraction pipeline or leaves the process.
package preprocess

import (
	"regexp"
	"strings"
	"time"
)

var (
	whitespaceRe  = regexp.MustCompile(`\s+`)
	punctuationRe = regexp.MustCompile(`([!?.,]){4,}`)
	normalizeRe   = regexp.MustCompile(`[^\p{L}\p{N}\s]`)
)

// Cleaner normalizes text and redacts PII according to its rule set.
type Cleaner struct {
	config *Config
}

// Result contains the cleaning outcome.
type Result struct {
	// Cleaned is the text with whitespace normalized and PII replaced
	// by placeholders.
	Cleaned string `json:"cleaned"`

	// Findings lists the detected PII (without the matched values).
	Findings []Finding `json:"findings,omitempty"`

	// ByRule maps rule IDs to match counts.
	ByRule map[string]int `json:"by_rule,omitempty"`

	// Duration is how long cleaning took.
	Duration time.Duration `json:"duration"`
}

// Finding represents one detected PII match.
// The matched value is deliberately not included.
type Finding struct {
	RuleID      string `json:"rule_id"`
	Description string `json:"description"`
	Severity    string `json:"severity"`
	Placeholder string `json:"placeholder"`
}

// HasFindings returns true if any PII was detected.
func (r *Result) HasFindings() bool {
	return len(r.Findings) > 0
}

// RuleIDs returns the rule IDs that matched, in finding order.
func (r *Result) RuleIDs() []string {
	seen := make(map[string]bool, len(r.ByRule))
	ids := make([]string, 0, len(r.ByRule))
	for _, f := range r.Findings {
		if !seen[f.RuleID] {
			seen[f.RuleID] = true
			ids = append(ids, f.RuleID)
		}
	}
	return ids
}

// New creates a Cleaner. If cfg is nil, DefaultConfig() is used.
func New(cfg *Config) (*Cleaner, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Cleaner{config: cfg}, nil
}

// MustNew creates a Cleaner, panicking on error. For defaults and tests.
func MustNew(cfg *Config) *Cleaner {
	c, err := New(cfg)
	if err != nil {
		panic(err)
	}
	return c
}

// Clean normalizes the text and redacts PII. It never fails: malformed
// input passes through the same normalization and whatever rules match.
func (c *Cleaner) Clean(raw string) *Result {
	start := time.Now()
	result := &Result{
		ByRule: make(map[string]int),
	}

	text := cleanText(raw)

	if c.config.Enabled {
		for _, rule := range c.config.compiledRules {
			matches := rule.pattern.FindAllStringIndex(text, -1)
			for range matches {
				result.Findings = append(result.Findings, Finding{
					RuleID:      rule.ID,
					Description: rule.Description,
					Severity:    rule.Severity,
					Placeholder: rule.Placeholder,
				})
				result.ByRule[rule.ID]++
			}
			if len(matches) > 0 {
				text = rule.pattern.ReplaceAllString(text, rule.Placeholder)
			}
		}
	}

	result.Cleaned = text
	result.Duration = time.Since(start)
	return result
}

// cleanText normalizes whitespace and collapses runs of punctuation.
func cleanText(text string) string {
	text = whitespaceRe.ReplaceAllString(text, " ")
	text = punctuationRe.ReplaceAllString(text, "$1$1$1")
	return strings.TrimSpace(text)
}

// Normalize produces the canonical matching key for a piece of text:
// lowercase, punctuation stripped, whitespace collapsed. Used for cache
// keys, history template keys, and fusion/dedup matching.
func Normalize(text string) string {
	text = strings.ToLower(text)
	text = normalizeRe.ReplaceAllString(text, "")
	text = whitespaceRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
