package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/censys/sigint/internal/domain/discovery"
)

func TestPutGet_RoundTrip(t *testing.T) {
	store, err := New(t.TempDir(), 24*time.Hour)
	require.NoError(t, err)

	candidates := []discovery.CandidateHost{{IP: "1.2.3.4", Port: 80, Sources: []string{"shodan"}}}
	require.NoError(t, store.Put("shodan", discovery.QueryFaviconHash, "favicon_hash:123", candidates, time.Now()))

	got, ok := store.Get("shodan", discovery.QueryFaviconHash, "favicon_hash:123")
	require.True(t, ok)
	assert.Equal(t, 1, got.ResultCount)
	assert.Equal(t, "1.2.3.4", got.Candidates[0].IP)
}

func TestGet_ExpiredEntryMisses(t *testing.T) {
	store, err := New(t.TempDir(), time.Hour)
	require.NoError(t, err)

	require.NoError(t, store.Put("shodan", discovery.QueryFaviconHash, "q", nil, time.Now().Add(-2*time.Hour)))

	_, ok := store.Get("shodan", discovery.QueryFaviconHash, "q")
	assert.False(t, ok)
}

func TestGet_ZeroTTLNeverExpires(t *testing.T) {
	store, err := New(t.TempDir(), 0)
	require.NoError(t, err)

	require.NoError(t, store.Put("shodan", discovery.QueryFaviconHash, "q", nil, time.Now().Add(-999*time.Hour)))

	_, ok := store.Get("shodan", discovery.QueryFaviconHash, "q")
	assert.True(t, ok)
}

func TestGet_MissingEntry(t *testing.T) {
	store, err := New(t.TempDir(), time.Hour)
	require.NoError(t, err)

	_, ok := store.Get("shodan", discovery.QueryFaviconHash, "nope")
	assert.False(t, ok)
}

func TestExists_DistinguishesExpiredFromAbsent(t *testing.T) {
	store, err := New(t.TempDir(), time.Hour)
	require.NoError(t, err)

	assert.False(t, store.Exists("shodan", "q"))
	require.NoError(t, store.Put("shodan", discovery.QueryFaviconHash, "q", nil, time.Now().Add(-2*time.Hour)))
	assert.True(t, store.Exists("shodan", "q"))
}

func TestStats(t *testing.T) {
	store, err := New(t.TempDir(), time.Hour)
	require.NoError(t, err)

	require.NoError(t, store.Put("shodan", discovery.QueryFaviconHash, "a", []discovery.CandidateHost{{}}, time.Now()))
	require.NoError(t, store.Put("censys", discovery.QueryTitlePattern, "b", []discovery.CandidateHost{{}, {}}, time.Now().Add(-2*time.Hour)))

	stats := store.Stats()
	assert.Equal(t, 2, stats.TotalQueries)
	assert.Equal(t, 3, stats.TotalCandidates)
	assert.Equal(t, 1, stats.ValidQueries)
	assert.Equal(t, 1, stats.ExpiredQueries)
	assert.Equal(t, 1, stats.ByPlatform["shodan"])
	assert.Equal(t, 1, stats.ByPlatform["censys"])
}

func TestClear_AllVsExpiredOnly(t *testing.T) {
	store, err := New(t.TempDir(), time.Hour)
	require.NoError(t, err)

	require.NoError(t, store.Put("shodan", discovery.QueryFaviconHash, "fresh", nil, time.Now()))
	require.NoError(t, store.Put("shodan", discovery.QueryFaviconHash, "stale", nil, time.Now().Add(-2*time.Hour)))

	cleared, kept := store.Clear(true)
	assert.Equal(t, 1, cleared)
	assert.Equal(t, 1, kept)

	_, ok := store.Get("shodan", discovery.QueryFaviconHash, "fresh")
	assert.True(t, ok)

	cleared, kept = store.Clear(false)
	assert.Equal(t, 1, cleared)
	assert.Equal(t, 0, kept)
}

func TestHashQuery_StableAndDistinct(t *testing.T) {
	a := HashQuery("shodan", "title_pattern:Juice Shop")
	b := HashQuery("shodan", "title_pattern:Juice Shop")
	c := HashQuery("censys", "title_pattern:Juice Shop")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 16)
}
