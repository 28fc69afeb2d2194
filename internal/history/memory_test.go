package history

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_RecordAndLookup(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	_, ok, err := s.AverageMinutes(ctx, 1, "тренировался")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Record(ctx, 1, "тренировался", 60))

	minutes, ok, err := s.AverageMinutes(ctx, 1, "тренировался")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 60, minutes)
}

func TestMemoryStore_IncrementalMean(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	values := []int{60, 90, 30, 120}
	for _, v := range values {
		require.NoError(t, s.Record(ctx, 1, "тренировался", v))
	}

	minutes, ok, err := s.AverageMinutes(ctx, 1, "тренировался")
	require.NoError(t, err)
	require.True(t, ok)
	// Arithmetic mean of 60, 90, 30, 120.
	assert.Equal(t, 75, minutes)
}

func TestMemoryStore_GlobalFallback(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Record(ctx, GlobalUserID, "читал книгу", 45))

	minutes, ok, err := s.AverageMinutes(ctx, 7, "читал книгу")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 45, minutes)

	// The user's own template takes precedence once it exists.
	require.NoError(t, s.Record(ctx, 7, "читал книгу", 90))
	minutes, ok, err = s.AverageMinutes(ctx, 7, "читал книгу")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 90, minutes)
}

func TestMemoryStore_TemplatesIsolatedPerUser(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Record(ctx, 1, "тренировался", 60))

	_, ok, err := s.AverageMinutes(ctx, 2, "тренировался")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStore_Stats(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Record(ctx, 1, "тренировался", 60))
	require.NoError(t, s.Record(ctx, 1, "тренировался", 90))
	require.NoError(t, s.Record(ctx, 1, "читал книгу", 30))
	require.NoError(t, s.Record(ctx, 2, "убрался", 20))

	stats, err := s.Stats(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.UserID)
	assert.Equal(t, int64(2), stats.TotalTemplates)
	assert.Equal(t, int64(3), stats.TotalActions)

	empty, err := s.Stats(ctx, 99)
	require.NoError(t, err)
	assert.Zero(t, empty.TotalTemplates)
	assert.Zero(t, empty.TotalActions)
}

func TestMemoryStore_ConcurrentRecords(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	const writers = 50
	var wg sync.WaitGroup
	wg.Add(writers)
	for i := 0; i < writers; i++ {
		go func() {
			defer wg.Done()
			_ = s.Record(ctx, 1, "тренировался", 60)
		}()
	}
	wg.Wait()

	stats, err := s.Stats(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(writers), stats.TotalActions)

	minutes, ok, err := s.AverageMinutes(ctx, 1, "тренировался")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 60, minutes)
}

func TestFold(t *testing.T) {
	t.Run("first observation sets the mean", func(t *testing.T) {
		got := fold(Template{Normalized: "x"}, 45)
		assert.Equal(t, int64(1), got.SampleCount)
		assert.InDelta(t, 45, got.MeanMinutes, 1e-9)
	})

	t.Run("mean converges to arithmetic mean", func(t *testing.T) {
		tpl := Template{Normalized: "x"}
		for _, v := range []int{10, 20, 30} {
			tpl = fold(tpl, v)
		}
		assert.Equal(t, int64(3), tpl.SampleCount)
		assert.InDelta(t, 20, tpl.MeanMinutes, 1e-9)
	})
}
