package history

import (
	"context"
	"sync"
)

type memoryKey struct {
	userID     int64
	normalized string
}

// MemoryStore is the in-process Store for single-instance deployments
// and tests.
type MemoryStore struct {
	mu        sync.RWMutex
	templates map[memoryKey]Template
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		templates: make(map[memoryKey]Template),
	}
}

// AverageMinutes returns the user's learned mean, falling back to the
// global template set.
func (s *MemoryStore) AverageMinutes(ctx context.Context, userID int64, normalized string) (int, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if t, ok := s.templates[memoryKey{userID, normalized}]; ok {
		return int(t.MeanMinutes), true, nil
	}
	if userID != GlobalUserID {
		if t, ok := s.templates[memoryKey{GlobalUserID, normalized}]; ok {
			return int(t.MeanMinutes), true, nil
		}
	}
	return 0, false, nil
}

// Record folds one observation into the user's template.
func (s *MemoryStore) Record(ctx context.Context, userID int64, normalized string, minutes int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := memoryKey{userID, normalized}
	t := s.templates[key]
	t.Normalized = normalized
	s.templates[key] = fold(t, minutes)
	return nil
}

// Stats returns aggregate counts for the user.
func (s *MemoryStore) Stats(ctx context.Context, userID int64) (Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := Stats{UserID: userID}
	for key, t := range s.templates {
		if key.userID == userID {
			stats.TotalTemplates++
			stats.TotalActions += t.SampleCount
		}
	}
	return stats, nil
}

// Close is a no-op for the in-process store.
func (s *MemoryStore) Close() error {
	return nil
}

var _ Store = (*MemoryStore)(nil)
