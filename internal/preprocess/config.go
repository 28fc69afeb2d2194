package preprocess

import (
	"fmt"
	"regexp"
)

// Config configures the cleaner.
type Config struct {
	// Enabled controls whether PII redaction is active (default: true).
	// Text cleanup (whitespace, punctuation) always runs.
	Enabled bool `koanf:"enabled"`

	// Rules defines the detection rules.
	Rules []Rule `koanf:"rules"`

	// compiled patterns (populated by Validate)
	compiledRules []*compiledRule
}

// Rule defines a PII detection rule.
type Rule struct {
	// ID is the unique identifier for this rule.
	ID string `koanf:"id"`

	// Description explains what this rule detects.
	Description string `koanf:"description"`

	// Pattern is the regex pattern to match.
	Pattern string `koanf:"pattern"`

	// Placeholder replaces every match, e.g. "<EMAIL>".
	Placeholder string `koanf:"placeholder"`

	// Severity indicates the importance (high, medium, low).
	Severity string `koanf:"severity"`
}

// compiledRule holds a compiled rule.
type compiledRule struct {
	Rule
	pattern *regexp.Regexp
}

// DefaultConfig returns a configuration with the standard PII rules.
// Rule order matters: card numbers must be checked before the shorter
// passport and phone shapes they contain.
func DefaultConfig() *Config {
	return &Config{
		Enabled: true,
		Rules:   DefaultRules(),
	}
}

// DefaultRules returns the default set of PII detection rules.
func DefaultRules() []Rule {
	return []Rule{
		{
			ID:          "email",
			Description: "Email address",
			Pattern:     `[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`,
			Placeholder: "<EMAIL>",
			Severity:    "high",
		},
		{
			ID:          "card",
			Description: "Payment card number",
			Pattern:     `\b\d{4}[-\s]?\d{4}[-\s]?\d{4}[-\s]?\d{4}\b`,
			Placeholder: "<CARD>",
			Severity:    "high",
		},
		{
			ID:          "phone",
			Description: "Phone number",
			Pattern:     `(?:\+7|\b8)[\s(-]*\d{3}[\s)-]*\d{3}[\s-]*\d{2}[\s-]*\d{2}\b`,
			Placeholder: "<PHONE>",
			Severity:    "high",
		},
		{
			ID:          "inn",
			Description: "Russian taxpayer number (labeled)",
			Pattern:     `(?i)ИНН:?\s*\d{10,12}\b`,
			Placeholder: "<INN>",
			Severity:    "medium",
		},
		{
			ID:          "passport",
			Description: "Passport-like numeric sequence",
			Pattern:     `\b\d{4}\s?\d{6}\b`,
			Placeholder: "<PASSPORT>",
			Severity:    "medium",
		},
	}
}

// Validate validates and compiles the configuration.
func (c *Config) Validate() error {
	c.compiledRules = make([]*compiledRule, 0, len(c.Rules))
	for i, rule := range c.Rules {
		if rule.ID == "" {
			return fmt.Errorf("rule %d: ID is required", i)
		}
		if rule.Pattern == "" {
			return fmt.Errorf("rule %s: pattern is required", rule.ID)
		}
		if rule.Placeholder == "" {
			return fmt.Errorf("rule %s: placeholder is required", rule.ID)
		}

		pattern, err := regexp.Compile(rule.Pattern)
		if err != nil {
			return fmt.Errorf("rule %s: invalid pattern: %w", rule.ID, err)
		}

		c.compiledRules = append(c.compiledRules, &compiledRule{
			Rule:    rule,
			pattern: pattern,
		})
	}
	return nil
}
