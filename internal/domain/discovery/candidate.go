package discovery

import (
	"fmt"
	"time"
)

// NewCandidateHost builds a CandidateHost from a plugin's raw Host
// record, parsing lastSeen as RFC3339 (ISO-8601) UTC. This is the
// model-boundary enforcement spec.md §9 Open Question 3 calls for:
// merge always compares parsed time.Time values, never raw strings, so
// a plugin that emits a non-ISO-8601 timestamp fails loudly here
// instead of silently breaking "newest wins" ordering later.
func NewCandidateHost(h Host) (CandidateHost, error) {
	lastSeen := time.Now().UTC()
	if h.LastSeen != "" {
		parsed, err := time.Parse(time.RFC3339, h.LastSeen)
		if err != nil {
			return CandidateHost{}, fmt.Errorf("discovery: host %s: last_seen %q is not RFC3339: %w", h.UniqueKey(), h.LastSeen, err)
		}
		lastSeen = parsed.UTC()
	}

	var location map[string]string
	if len(h.Location) > 0 {
		location = h.Location
	}

	asn, _ := h.Metadata["asn"].(string)
	org, _ := h.Metadata["organization"].(string)

	return CandidateHost{
		IP:           h.IP,
		Port:         h.Port,
		Hostname:     h.Hostname,
		Sources:      []string{h.Source},
		LastSeen:     lastSeen,
		Location:     location,
		ASN:          asn,
		Organization: org,
	}, nil
}

// Merge combines c with other, which must share the same Key(), per
// the rule in spec.md §3: union the sources, keep the
// chronologically-latest LastSeen, and for every other optional field
// prefer the first non-empty value (T4).
func (c CandidateHost) Merge(other CandidateHost) CandidateHost {
	merged := c
	merged.Sources = unionSources(c.Sources, other.Sources)

	if other.LastSeen.After(c.LastSeen) {
		merged.LastSeen = other.LastSeen
	}

	if merged.Hostname == "" {
		merged.Hostname = other.Hostname
	}
	if merged.Location == nil {
		merged.Location = other.Location
	}
	if merged.ASN == "" {
		merged.ASN = other.ASN
	}
	if merged.Organization == "" {
		merged.Organization = other.Organization
	}
	if merged.HostingProvider == "" {
		merged.HostingProvider = other.HostingProvider
	}
	if !merged.IsCloudHosted {
		merged.IsCloudHosted = other.IsCloudHosted
	}
	if merged.EnrichedAt == nil {
		merged.EnrichedAt = other.EnrichedAt
	}

	return merged
}

func unionSources(a, b []string) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	var out []string
	for _, s := range append(append([]string{}, a...), b...) {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// Deduplicate folds a slice of CandidateHost into a map keyed by
// Key(), applying Merge on every collision. The set of keys, each
// host's set of sources and its LastSeen do not depend on input order;
// for the other optional fields the first non-empty value in input
// order wins, and Sources are listed in first-seen order.
func Deduplicate(hosts []CandidateHost) map[string]CandidateHost {
	byKey := make(map[string]CandidateHost, len(hosts))
	for _, h := range hosts {
		if existing, ok := byKey[h.Key()]; ok {
			byKey[h.Key()] = existing.Merge(h)
		} else {
			byKey[h.Key()] = h
		}
	}
	return byKey
}
