package cache

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type snapshot struct {
	Title string   `json:"title"`
	Tags  []string `json:"tags"`
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestPutGetRoundTrip(t *testing.T) {
	s := newTestStore(t)
	fixed := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	require.NoError(t, s.Put(context.Background(), "tips", snapshot{Title: "a", Tags: []string{"Food"}}))

	var got snapshot
	fetchedAt, ok, err := s.Get(context.Background(), "tips", &got)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "a", got.Title)
	assert.Equal(t, []string{"Food"}, got.Tags)
	assert.True(t, fixed.Equal(fetchedAt))
}

func TestPutOverwrites(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Put(context.Background(), "k", snapshot{Title: "old"}))
	require.NoError(t, s.Put(context.Background(), "k", snapshot{Title: "new"}))

	var got snapshot
	_, ok, err := s.Get(context.Background(), "k", &got)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "new", got.Title)
}

func TestGetMissingAndPurge(t *testing.T) {
	s := newTestStore(t)

	var got snapshot
	_, ok, err := s.Get(context.Background(), "missing", &got)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Put(context.Background(), "k", snapshot{Title: "x"}))
	require.NoError(t, s.Purge(context.Background()))
	_, ok, err = s.Get(context.Background(), "k", &got)
	require.NoError(t, err)
	assert.False(t, ok)
}
