package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEntry carries just the payload; the store reads nothing else.
type fakeEntry struct {
	nats.KeyValueEntry
	value []byte
}

func (e *fakeEntry) Value() []byte { return e.value }

// fakeKV is an in-memory stand-in for a JetStream bucket binding.
type fakeKV struct {
	nats.KeyValue
	mu   sync.Mutex
	data map[string][]byte
}

func newFakeKV() *fakeKV {
	return &fakeKV{data: make(map[string][]byte)}
}

func (f *fakeKV) Get(key string) (nats.KeyValueEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.data[key]
	if !ok {
		return nil, nats.ErrKeyNotFound
	}
	return &fakeEntry{value: v}, nil
}

func (f *fakeKV) Put(key string, value []byte) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = value
	return 1, nil
}

func (f *fakeKV) Delete(key string, _ ...nats.DeleteOpt) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.data[key]; !ok {
		return nats.ErrKeyNotFound
	}
	delete(f.data, key)
	return nil
}

func (f *fakeKV) len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.data)
}

// fakeJS manages fake buckets for bind/delete/recreate cycles.
type fakeJS struct {
	nats.JetStreamContext
	mu      sync.Mutex
	buckets map[string]*fakeKV
}

func newFakeJS() *fakeJS {
	return &fakeJS{buckets: make(map[string]*fakeKV)}
}

func (f *fakeJS) KeyValue(bucket string) (nats.KeyValue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	kv, ok := f.buckets[bucket]
	if !ok {
		return nil, nats.ErrBucketNotFound
	}
	return kv, nil
}

func (f *fakeJS) CreateKeyValue(cfg *nats.KeyValueConfig) (nats.KeyValue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	kv := newFakeKV()
	f.buckets[cfg.Bucket] = kv
	return kv, nil
}

func (f *fakeJS) DeleteKeyValue(bucket string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.buckets[bucket]; !ok {
		return nats.ErrBucketNotFound
	}
	delete(f.buckets, bucket)
	return nil
}

func (f *fakeJS) current(bucket string) *fakeKV {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.buckets[bucket]
}

func newFakeNATSStore(t *testing.T) (*NATSStore, *fakeJS) {
	t.Helper()
	js := newFakeJS()
	kv, err := js.CreateKeyValue(&nats.KeyValueConfig{Bucket: "cache"})
	require.NoError(t, err)
	return &NATSStore{js: js, kv: kv, bucket: "cache", ttl: time.Hour}, js
}

func TestNATSStore_SetGetRoundTrip(t *testing.T) {
	s, _ := newFakeNATSStore(t)
	ctx := context.Background()
	key := Key(1, "тренировался")

	_, hit, err := s.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, s.Set(ctx, key, sampleResult(1)))

	got, hit, err := s.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, hit)
	assert.Equal(t, sampleResult(1), got)

	require.NoError(t, s.Invalidate(ctx, key))
	_, hit, err = s.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestNATSStore_ClearSwapsBucket(t *testing.T) {
	s, js := newFakeNATSStore(t)
	ctx := context.Background()
	key := Key(1, "тренировался")

	require.NoError(t, s.Set(ctx, key, sampleResult(1)))
	stale := js.current("cache")

	require.NoError(t, s.Clear(ctx))

	_, hit, err := s.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, hit)

	// Writes after Clear land in the fresh bucket, not the dropped one.
	require.NoError(t, s.Set(ctx, key, sampleResult(1)))
	fresh := js.current("cache")
	assert.NotSame(t, stale, fresh)
	assert.Equal(t, 1, fresh.len())
}

func TestNATSStore_ClearDuringTraffic(t *testing.T) {
	s, _ := newFakeNATSStore(t)
	ctx := context.Background()

	const workers = 8
	var wg sync.WaitGroup
	wg.Add(workers + 1)

	for i := 0; i < workers; i++ {
		go func(n int) {
			defer wg.Done()
			key := Key(int64(n+1), "тренировался")
			for j := 0; j < 50; j++ {
				_ = s.Set(ctx, key, sampleResult(int64(n+1)))
				_, _, _ = s.Get(ctx, key)
				_ = s.Invalidate(ctx, key)
			}
		}(i)
	}

	go func() {
		defer wg.Done()
		for j := 0; j < 20; j++ {
			assert.NoError(t, s.Clear(ctx))
		}
	}()

	wg.Wait()

	// The store stays usable after the churn.
	key := Key(99, "тренировался")
	require.NoError(t, s.Set(ctx, key, sampleResult(99)))
	_, hit, err := s.Get(ctx, key)
	require.NoError(t, err)
	assert.True(t, hit)
}
