// Package cache stores finished analysis results keyed by a hash of the
// user and normalized input text, with TTL expiry.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/fyrsmithlabs/diaryd/internal/config"
	"github.com/fyrsmithlabs/diaryd/internal/domain"
)

// Store is the cache backend contract. Expired entries behave as misses;
// Clear either empties the store or fails without partial effects.
type Store interface {
	Get(ctx context.Context, key string) (*domain.AnalysisResult, bool, error)
	Set(ctx context.Context, key string, result *domain.AnalysisResult) error
	Invalidate(ctx context.Context, key string) error
	Clear(ctx context.Context) error
	Close() error
}

// Key derives the deterministic cache key for a request. The hash covers
// the user ID and the normalized text so near-identical phrasings of the
// same entry collapse to one entry per user.
func Key(userID int64, normalized string) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%d:%s", userID, normalized)))
	return "analysis." + hex.EncodeToString(sum[:])
}

// NewStore creates a cache store based on configuration.
func NewStore(cfg config.CacheConfig) (Store, error) {
	if !cfg.Enabled {
		return &NoOpStore{}, nil
	}
	switch cfg.Provider {
	case "memory":
		return NewMemoryStore(cfg.TTL.Duration()), nil
	case "nats":
		return NewNATSStore(cfg)
	default:
		return nil, fmt.Errorf("cache: unknown provider %q", cfg.Provider)
	}
}

// NoOpStore is the disabled-cache implementation. Every lookup misses.
type NoOpStore struct{}

func (n *NoOpStore) Get(ctx context.Context, key string) (*domain.AnalysisResult, bool, error) {
	return nil, false, nil
}

func (n *NoOpStore) Set(ctx context.Context, key string, result *domain.AnalysisResult) error {
	return nil
}

func (n *NoOpStore) Invalidate(ctx context.Context, key string) error {
	return nil
}

func (n *NoOpStore) Clear(ctx context.Context) error {
	return nil
}

func (n *NoOpStore) Close() error {
	return nil
}

var _ Store = (*NoOpStore)(nil)
