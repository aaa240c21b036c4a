package autocomplete

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/cpanel/internal/core/domain"
)

type countingSource struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (s *countingSource) Autocomplete(_ context.Context, _, _, term string, _ int) ([]domain.AutocompleteValue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return []domain.AutocompleteValue{{Value: term, Label: term}}, nil
}

func (s *countingSource) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func TestLimited_CachesAnswers(t *testing.T) {
	src := &countingSource{}
	l := NewLimited(src, Config{RequestsPerSecond: 100, Burst: 10})

	first, err := l.Autocomplete(t.Context(), "project.task", "name", "Bug", 8)
	require.NoError(t, err)
	second, err := l.Autocomplete(t.Context(), "project.task", "name", "bug", 8)
	require.NoError(t, err)

	assert.Equal(t, 1, src.Calls(), "terms are cached case-insensitively")
	assert.Equal(t, first, second)

	_, err = l.Autocomplete(t.Context(), "project.task", "name", "bug", 3)
	require.NoError(t, err)
	assert.Equal(t, 2, src.Calls(), "limit is part of the key")

	l.Purge()
	_, err = l.Autocomplete(t.Context(), "project.task", "name", "bug", 8)
	require.NoError(t, err)
	assert.Equal(t, 3, src.Calls())
}

func TestLimited_EvictsOldest(t *testing.T) {
	src := &countingSource{}
	l := NewLimited(src, Config{RequestsPerSecond: 1000, Burst: 10, CacheSize: 2})
	ctx := t.Context()

	for _, term := range []string{"a", "b", "c"} {
		_, err := l.Autocomplete(ctx, "m", "f", term, 8)
		require.NoError(t, err)
	}
	_, err := l.Autocomplete(ctx, "m", "f", "c", 8)
	require.NoError(t, err)
	assert.Equal(t, 3, src.Calls())

	_, err = l.Autocomplete(ctx, "m", "f", "a", 8)
	require.NoError(t, err)
	assert.Equal(t, 4, src.Calls(), "a was evicted")
}

func TestLimited_CacheDisabled(t *testing.T) {
	src := &countingSource{}
	l := NewLimited(src, Config{RequestsPerSecond: 1000, Burst: 10, CacheSize: -1})

	for i := 0; i < 3; i++ {
		_, err := l.Autocomplete(t.Context(), "m", "f", "x", 8)
		require.NoError(t, err)
	}
	assert.Equal(t, 3, src.Calls())
}

func TestLimited_ErrorsAreNotCached(t *testing.T) {
	src := &countingSource{err: errors.New("offline")}
	l := NewLimited(src, Config{RequestsPerSecond: 1000, Burst: 10})

	_, err := l.Autocomplete(t.Context(), "m", "f", "x", 8)
	require.Error(t, err)

	src.mu.Lock()
	src.err = nil
	src.mu.Unlock()

	values, err := l.Autocomplete(t.Context(), "m", "f", "x", 8)
	require.NoError(t, err)
	assert.Len(t, values, 1)
	assert.Equal(t, 2, src.Calls())
}

func TestLimited_WaitHonoursContext(t *testing.T) {
	src := &countingSource{}
	l := NewLimited(src, Config{RequestsPerSecond: 0.001, Burst: 1})

	_, err := l.Autocomplete(t.Context(), "m", "f", "first", 8)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(t.Context(), 20*time.Millisecond)
	defer cancel()
	_, err = l.Autocomplete(ctx, "m", "f", "second", 8)

	assert.Error(t, err)
	assert.Equal(t, 1, src.Calls())
}
