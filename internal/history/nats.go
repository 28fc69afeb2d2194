package history

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/fyrsmithlabs/diaryd/internal/config"
)

// casAttempts bounds the compare-and-swap retry loop under contention.
const casAttempts = 5

// NATSStore keeps templates in a JetStream key-value bucket so multiple
// instances share one history. Keys are "<user_id>.<hash>" where hash is
// a truncated SHA-256 of the normalized description; the per-key update
// uses revision-checked writes so concurrent observations never lose an
// increment.
type NATSStore struct {
	nc *nats.Conn
	kv nats.KeyValue
}

// NewNATSStore connects to NATS and binds (or creates) the bucket.
func NewNATSStore(cfg config.HistoryConfig) (*NATSStore, error) {
	nc, err := nats.Connect(cfg.NATSURL,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(5),
		nats.ReconnectWait(1*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("history: failed to connect to NATS at %s: %w", cfg.NATSURL, err)
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("history: failed to create JetStream context: %w", err)
	}

	kv, err := js.KeyValue(cfg.Bucket)
	if errors.Is(err, nats.ErrBucketNotFound) {
		kv, err = js.CreateKeyValue(&nats.KeyValueConfig{Bucket: cfg.Bucket})
	}
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("history: failed to open bucket %s: %w", cfg.Bucket, err)
	}

	return &NATSStore{nc: nc, kv: kv}, nil
}

func templateKey(userID int64, normalized string) string {
	sum := sha256.Sum256([]byte(normalized))
	return fmt.Sprintf("%d.%s", userID, hex.EncodeToString(sum[:8]))
}

// AverageMinutes returns the user's learned mean, falling back to the
// global template set.
func (s *NATSStore) AverageMinutes(ctx context.Context, userID int64, normalized string) (int, bool, error) {
	t, ok, err := s.get(templateKey(userID, normalized))
	if err != nil {
		return 0, false, err
	}
	if ok {
		return int(t.MeanMinutes), true, nil
	}
	if userID != GlobalUserID {
		t, ok, err = s.get(templateKey(GlobalUserID, normalized))
		if err != nil {
			return 0, false, err
		}
		if ok {
			return int(t.MeanMinutes), true, nil
		}
	}
	return 0, false, nil
}

func (s *NATSStore) get(key string) (Template, bool, error) {
	entry, err := s.kv.Get(key)
	if errors.Is(err, nats.ErrKeyNotFound) {
		return Template{}, false, nil
	}
	if err != nil {
		return Template{}, false, fmt.Errorf("history: get %s: %w", key, err)
	}
	var t Template
	if err := json.Unmarshal(entry.Value(), &t); err != nil {
		return Template{}, false, fmt.Errorf("history: decode %s: %w", key, err)
	}
	return t, true, nil
}

// Record folds one observation into the user's template using a
// revision-checked write so concurrent updates serialize per key.
func (s *NATSStore) Record(ctx context.Context, userID int64, normalized string, minutes int) error {
	key := templateKey(userID, normalized)

	var lastErr error
	for attempt := 0; attempt < casAttempts; attempt++ {
		entry, err := s.kv.Get(key)
		switch {
		case errors.Is(err, nats.ErrKeyNotFound):
			t := fold(Template{Normalized: normalized}, minutes)
			data, err := json.Marshal(t)
			if err != nil {
				return fmt.Errorf("history: encode %s: %w", key, err)
			}
			if _, err := s.kv.Create(key, data); err != nil {
				// Another writer created the key first; reload and retry.
				lastErr = err
				continue
			}
			return nil
		case err != nil:
			return fmt.Errorf("history: get %s: %w", key, err)
		}

		var t Template
		if err := json.Unmarshal(entry.Value(), &t); err != nil {
			return fmt.Errorf("history: decode %s: %w", key, err)
		}
		t = fold(t, minutes)
		data, err := json.Marshal(t)
		if err != nil {
			return fmt.Errorf("history: encode %s: %w", key, err)
		}
		if _, err := s.kv.Update(key, data, entry.Revision()); err != nil {
			// Revision moved under us; reload and retry.
			lastErr = err
			continue
		}
		return nil
	}
	return fmt.Errorf("history: record %s: contention not resolved: %w", key, lastErr)
}

// Stats scans the user's key prefix and sums template counts.
func (s *NATSStore) Stats(ctx context.Context, userID int64) (Stats, error) {
	stats := Stats{UserID: userID}

	keys, err := s.kv.Keys()
	if errors.Is(err, nats.ErrNoKeysFound) {
		return stats, nil
	}
	if err != nil {
		return stats, fmt.Errorf("history: list keys: %w", err)
	}

	prefix := fmt.Sprintf("%d.", userID)
	for _, key := range keys {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		t, ok, err := s.get(key)
		if err != nil {
			return stats, err
		}
		if ok {
			stats.TotalTemplates++
			stats.TotalActions += t.SampleCount
		}
	}
	return stats, nil
}

// Close drains the NATS connection.
func (s *NATSStore) Close() error {
	s.nc.Close()
	return nil
}

var _ Store = (*NATSStore)(nil)
