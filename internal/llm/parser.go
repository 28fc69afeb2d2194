// Package llm provides the model-backed action parser used when the
// rule-based pass is not confident enough. The only implementation talks
// to an OpenAI-compatible chat completions endpoint.
package llm

import (
	"context"
	"errors"

	"github.com/fyrsmithlabs/diaryd/internal/config"
	"github.com/fyrsmithlabs/diaryd/internal/domain"
)

// ErrModelUnavailable reports that the model could not produce a usable
// result (exhausted retries, timeout, or malformed output). Callers treat
// it as a degradation signal, not a request failure.
var ErrModelUnavailable = errors.New("model unavailable")

// Parser extracts actions from cleaned diary text via a language model.
type Parser interface {
	// Parse returns the model's candidate actions. On ErrModelUnavailable
	// the result still carries latency and error details for metadata.
	Parse(ctx context.Context, text string) (domain.ParseResult, error)

	// Available reports whether the parser can serve requests.
	Available() bool
}

// NewParser creates a parser based on configuration. Disabled configs get
// a no-op parser so the pipeline can run heuristics-only.
func NewParser(cfg config.LLMConfig) (Parser, error) {
	if !cfg.Enabled {
		return &NoOpParser{}, nil
	}
	return newOpenAIParser(cfg)
}

// NoOpParser is the disabled-model implementation.
type NoOpParser struct{}

// Parse returns an empty result without error.
func (n *NoOpParser) Parse(ctx context.Context, text string) (domain.ParseResult, error) {
	return domain.ParseResult{Actions: []domain.RawAction{}}, nil
}

// Available returns false for NoOpParser.
func (n *NoOpParser) Available() bool {
	return false
}

var _ Parser = (*NoOpParser)(nil)
