// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/award-matcher/pkg/types"
)

func testStore(t *testing.T, ttl time.Duration) *Store {
	t.Helper()
	s, err := Open(types.CacheConfig{Path: filepath.Join(t.TempDir(), "cache", "responses.db"), TTL: ttl})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenCreatesDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "cache.db")
	s, err := Open(types.CacheConfig{Path: path})
	require.NoError(t, err)
	defer s.Close()

	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestOpenEmptyPath(t *testing.T) {
	_, err := Open(types.CacheConfig{})
	assert.Error(t, err)
}

func TestPutGet(t *testing.T) {
	s := testStore(t, 0)

	_, ok := s.Get("openalex:/works?search=x")
	assert.False(t, ok)

	require.NoError(t, s.Put("openalex:/works?search=x", []byte(`{"results": []}`)))
	body, ok := s.Get("openalex:/works?search=x")
	require.True(t, ok)
	assert.Equal(t, `{"results": []}`, string(body))

	require.NoError(t, s.Put("openalex:/works?search=x", []byte(`{"results": [1]}`)))
	body, _ = s.Get("openalex:/works?search=x")
	assert.Equal(t, `{"results": [1]}`, string(body))

	n, err := s.Len()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestTTLExpiry(t *testing.T) {
	s := testStore(t, time.Hour)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	require.NoError(t, s.Put("old", []byte("a")))
	now = now.Add(30 * time.Minute)
	require.NoError(t, s.Put("new", []byte("b")))

	now = now.Add(45 * time.Minute)
	_, ok := s.Get("old")
	assert.False(t, ok, "entry older than the TTL is a miss")
	_, ok = s.Get("new")
	assert.True(t, ok)

	removed, err := s.Prune()
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)
	n, _ := s.Len()
	assert.Equal(t, 1, n)
}

func TestPruneWithoutTTL(t *testing.T) {
	s := testStore(t, 0)
	require.NoError(t, s.Put("k", []byte("v")))
	removed, err := s.Prune()
	require.NoError(t, err)
	assert.Zero(t, removed)
}
