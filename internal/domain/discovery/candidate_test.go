package discovery

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCandidateHost_ParsesRFC3339(t *testing.T) {
	h := Host{IP: "1.2.3.4", Port: 443, Source: "shodan", LastSeen: "2026-01-02T03:04:05Z"}
	c, err := NewCandidateHost(h)
	require.NoError(t, err)
	assert.Equal(t, "1.2.3.4:443", c.Key())
	assert.Equal(t, []string{"shodan"}, c.Sources)
	assert.Equal(t, time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC), c.LastSeen)
}

func TestNewCandidateHost_RejectsNonISO8601(t *testing.T) {
	h := Host{IP: "1.2.3.4", Port: 443, Source: "shodan", LastSeen: "01/02/2026"}
	_, err := NewCandidateHost(h)
	assert.Error(t, err)
}

func TestCandidateHost_Merge_UnionsSourcesAndKeepsLatest(t *testing.T) {
	older := CandidateHost{
		IP: "1.2.3.4", Port: 443, Sources: []string{"shodan"},
		LastSeen: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	newer := CandidateHost{
		IP: "1.2.3.4", Port: 443, Sources: []string{"censys"},
		LastSeen: time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC),
		Hostname: "example.com",
	}

	merged := older.Merge(newer)

	assert.ElementsMatch(t, []string{"shodan", "censys"}, merged.Sources)
	assert.Equal(t, newer.LastSeen, merged.LastSeen)
	assert.Equal(t, "example.com", merged.Hostname)
}

func TestCandidateHost_Merge_PrefersFirstNonEmpty(t *testing.T) {
	a := CandidateHost{
		IP: "1.2.3.4", Port: 80, Sources: []string{"shodan"},
		Organization: "Acme Corp",
	}
	b := CandidateHost{
		IP: "1.2.3.4", Port: 80, Sources: []string{"censys"},
		Organization: "Other Corp",
	}

	merged := a.Merge(b)
	assert.Equal(t, "Acme Corp", merged.Organization)
}

func TestDeduplicate_NoTwoEntriesShareKey(t *testing.T) {
	hosts := []CandidateHost{
		{IP: "1.1.1.1", Port: 80, Sources: []string{"shodan"}},
		{IP: "1.1.1.1", Port: 80, Sources: []string{"censys"}},
		{IP: "2.2.2.2", Port: 443, Sources: []string{"shodan"}},
	}

	byKey := Deduplicate(hosts)
	assert.Len(t, byKey, 2)
	assert.ElementsMatch(t, []string{"shodan", "censys"}, byKey["1.1.1.1:80"].Sources)
}
