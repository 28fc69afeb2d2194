package history

import (
	"fmt"

	"github.com/fyrsmithlabs/diaryd/internal/config"
)

// NewStore creates a history store based on configuration.
func NewStore(cfg config.HistoryConfig) (Store, error) {
	switch cfg.Provider {
	case "memory":
		return NewMemoryStore(), nil
	case "nats":
		return NewNATSStore(cfg)
	default:
		return nil, fmt.Errorf("history: unknown provider %q", cfg.Provider)
	}
}
