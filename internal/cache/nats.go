package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/fyrsmithlabs/diaryd/internal/config"
	"github.com/fyrsmithlabs/diaryd/internal/domain"
)

// NATSStore keeps analysis results in a JetStream key-value bucket so
// multiple instances share one cache. Expiry is enforced by the bucket's
// TTL; keys are the hex digests produced by Key.
type NATSStore struct {
	nc *nats.Conn
	js nats.JetStreamContext

	bucket string
	ttl    time.Duration

	// mu guards kv, which Clear replaces while requests are in flight.
	mu sync.RWMutex
	kv nats.KeyValue
}

// NewNATSStore connects to NATS and binds (or creates) the bucket with
// the configured TTL.
func NewNATSStore(cfg config.CacheConfig) (*NATSStore, error) {
	nc, err := nats.Connect(cfg.NATSURL,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(5),
		nats.ReconnectWait(1*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("cache: failed to connect to NATS at %s: %w", cfg.NATSURL, err)
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("cache: failed to create JetStream context: %w", err)
	}

	kv, err := bindBucket(js, cfg.Bucket, cfg.TTL.Duration())
	if err != nil {
		nc.Close()
		return nil, err
	}

	return &NATSStore{nc: nc, js: js, kv: kv, bucket: cfg.Bucket, ttl: cfg.TTL.Duration()}, nil
}

func bindBucket(js nats.JetStreamContext, bucket string, ttl time.Duration) (nats.KeyValue, error) {
	kv, err := js.KeyValue(bucket)
	if errors.Is(err, nats.ErrBucketNotFound) {
		kv, err = js.CreateKeyValue(&nats.KeyValueConfig{Bucket: bucket, TTL: ttl})
	}
	if err != nil {
		return nil, fmt.Errorf("cache: failed to open bucket %s: %w", bucket, err)
	}
	return kv, nil
}

// bucketHandle returns the current bucket binding.
func (s *NATSStore) bucketHandle() nats.KeyValue {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.kv
}

func (s *NATSStore) Get(ctx context.Context, key string) (*domain.AnalysisResult, bool, error) {
	entry, err := s.bucketHandle().Get(key)
	if errors.Is(err, nats.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache: get: %w", err)
	}

	var result domain.AnalysisResult
	if err := json.Unmarshal(entry.Value(), &result); err != nil {
		return nil, false, fmt.Errorf("cache: decode: %w", err)
	}
	return &result, true, nil
}

func (s *NATSStore) Set(ctx context.Context, key string, result *domain.AnalysisResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("cache: encode: %w", err)
	}
	if _, err := s.bucketHandle().Put(key, data); err != nil {
		return fmt.Errorf("cache: set: %w", err)
	}
	return nil
}

func (s *NATSStore) Invalidate(ctx context.Context, key string) error {
	err := s.bucketHandle().Delete(key)
	if err != nil && !errors.Is(err, nats.ErrKeyNotFound) {
		return fmt.Errorf("cache: invalidate: %w", err)
	}
	return nil
}

// Clear drops and recreates the bucket. The write lock keeps in-flight
// requests off the stale binding while it is swapped.
func (s *NATSStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.js.DeleteKeyValue(s.bucket); err != nil && !errors.Is(err, nats.ErrBucketNotFound) {
		return fmt.Errorf("cache: clear: %w", err)
	}
	kv, err := bindBucket(s.js, s.bucket, s.ttl)
	if err != nil {
		return err
	}
	s.kv = kv
	return nil
}

func (s *NATSStore) Close() error {
	s.nc.Close()
	return nil
}

var _ Store = (*NATSStore)(nil)
