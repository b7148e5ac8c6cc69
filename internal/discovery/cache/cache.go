// Package cache implements the file-per-query-hash discovery cache:
// one JSON file per (plugin, query) pair, TTL checked at read time
// only (invariant I5), with stats/clear helpers for the cache CLI
// subcommand.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/censys/sigint/internal/domain/discovery"
)

// Store reads and writes query-result cache entries under Dir.
type Store struct {
	Dir string
	TTL time.Duration // 0 disables expiration
}

// New constructs a Store, creating dir if it does not already exist.
func New(dir string, ttl time.Duration) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cache: create dir: %w", err)
	}
	return &Store{Dir: dir, TTL: ttl}, nil
}

// HashQuery produces the cache-file identity for a (platform,
// queryType:value) pair: the first 16 hex characters of
// sha256("platform:queryString").
func HashQuery(platform, queryString string) string {
	sum := sha256.Sum256([]byte(platform + ":" + queryString))
	return hex.EncodeToString(sum[:])[:16]
}

func (s *Store) path(hash string) string {
	return filepath.Join(s.Dir, fmt.Sprintf("query_%s.json", hash))
}

// Get loads the cache entry for (platform, queryType, queryString),
// returning ok=false if absent, unreadable, or expired. Expiration is
// evaluated at read time, never at write time (invariant I5).
func (s *Store) Get(platform string, queryType discovery.QueryType, queryString string) (discovery.QueryCache, bool) {
	hash := HashQuery(platform, queryString)
	raw, err := os.ReadFile(s.path(hash))
	if err != nil {
		return discovery.QueryCache{}, false
	}

	var entry discovery.QueryCache
	if err := json.Unmarshal(raw, &entry); err != nil {
		return discovery.QueryCache{}, false
	}

	if s.expired(entry.QueryTimestamp) {
		return discovery.QueryCache{}, false
	}
	return entry, true
}

// Exists reports whether a cache file is present for the query,
// regardless of expiration — used to distinguish "expired" from
// "never cached" in cache_only mode diagnostics.
func (s *Store) Exists(platform, queryString string) bool {
	_, err := os.Stat(s.path(HashQuery(platform, queryString)))
	return err == nil
}

// Put writes a cache entry, stamping QueryTimestamp with now.
func (s *Store) Put(platform string, queryType discovery.QueryType, queryString string, candidates []discovery.CandidateHost, now time.Time) error {
	hash := HashQuery(platform, queryString)
	entry := discovery.QueryCache{
		QueryHash:      hash,
		Platform:       platform,
		QueryType:      queryType,
		QueryString:    queryString,
		QueryTimestamp: now,
		ResultCount:    len(candidates),
		Candidates:     candidates,
	}

	encoded, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return fmt.Errorf("cache: encode entry: %w", err)
	}
	if err := os.WriteFile(s.path(hash), encoded, 0o644); err != nil {
		return fmt.Errorf("cache: write entry: %w", err)
	}
	return nil
}

func (s *Store) expired(ts time.Time) bool {
	if s.TTL <= 0 {
		return false
	}
	return time.Since(ts) > s.TTL
}

// Stats summarizes the cache directory's contents.
type Stats struct {
	TotalQueries    int
	TotalCandidates int
	ValidQueries    int
	ExpiredQueries  int
	ByPlatform      map[string]int
	OldestCache     *time.Time
	NewestCache     *time.Time
}

// Stats scans every cache file under Dir and summarizes it.
func (s *Store) Stats() Stats {
	stats := Stats{ByPlatform: map[string]int{}}

	entries, err := filepath.Glob(filepath.Join(s.Dir, "query_*.json"))
	if err != nil {
		return stats
	}

	for _, path := range entries {
		raw, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var entry discovery.QueryCache
		if err := json.Unmarshal(raw, &entry); err != nil {
			continue
		}

		stats.TotalQueries++
		stats.TotalCandidates += entry.ResultCount
		stats.ByPlatform[entry.Platform]++

		if s.expired(entry.QueryTimestamp) {
			stats.ExpiredQueries++
		} else {
			stats.ValidQueries++
		}

		ts := entry.QueryTimestamp
		if stats.OldestCache == nil || ts.Before(*stats.OldestCache) {
			stats.OldestCache = &ts
		}
		if stats.NewestCache == nil || ts.After(*stats.NewestCache) {
			stats.NewestCache = &ts
		}
	}

	return stats
}

// Clear removes cache files under Dir. If expiredOnly is true, only
// entries that fail the TTL check (or are unreadable/corrupt) are
// removed; otherwise every query_*.json file is removed.
func (s *Store) Clear(expiredOnly bool) (cleared, kept int) {
	entries, err := filepath.Glob(filepath.Join(s.Dir, "query_*.json"))
	if err != nil {
		return 0, 0
	}

	for _, path := range entries {
		if !expiredOnly {
			if os.Remove(path) == nil {
				cleared++
			}
			continue
		}

		raw, err := os.ReadFile(path)
		if err != nil {
			os.Remove(path)
			cleared++
			continue
		}
		var entry discovery.QueryCache
		if err := json.Unmarshal(raw, &entry); err != nil {
			os.Remove(path)
			cleared++
			continue
		}

		if s.expired(entry.QueryTimestamp) {
			if os.Remove(path) == nil {
				cleared++
			}
		} else {
			kept++
		}
	}

	return cleared, kept
}
