// Package planner implements the C3 query planner: translating a
// fingerprint into a ranked, deduplicated, length-capped set of
// normalized discovery queries.
package planner

import (
	"sort"
	"strconv"
	"strings"

	"github.com/censys/sigint/internal/domain/discovery"
	"github.com/censys/sigint/internal/domain/fingerprint"
)

// priority ranks query types for sort-then-truncate, per spec.md §4.3:
// favicon_hash (100) > image_hash (80) > title_pattern (60) >
// body_pattern (40) > header_pattern (20).
var priority = map[discovery.QueryType]int{
	discovery.QueryFaviconHash:   100,
	discovery.QueryImageHash:     80,
	discovery.QueryTitlePattern:  60,
	discovery.QueryBodyPattern:   40,
	discovery.QueryHeaderPattern: 20,
}

const minTitlePartLength = 3

var versionPatterns = compileAll([]string{
	`^v?\d+(\.\d+)*$`,
	`^20\d\d$`,
	`^version\s+\d+`,
	`alpha`, `beta`, `dev`, `rc\d*$`,
})

var genericTitleWords = map[string]struct{}{
	"home": {}, "index": {}, "welcome": {}, "login": {}, "dashboard": {}, "admin": {},
}

// Plan translates spec into an ordered, deduplicated set of discovery
// queries, capped at maxQueries. If maxQueries <= 0, a default of 10
// is used.
func Plan(spec fingerprint.FingerprintSpec, maxQueries int) []discovery.Query {
	if maxQueries <= 0 {
		maxQueries = 10
	}

	var queries []discovery.Query
	queries = append(queries, faviconQueries(spec)...)
	queries = append(queries, imageQueries(spec)...)
	queries = append(queries, titleQueries(spec)...)
	queries = append(queries, bodyQueries(spec)...)

	queries = filterAndDedup(queries)

	sort.SliceStable(queries, func(i, j int) bool {
		return priority[queries[i].Type] > priority[queries[j].Type]
	})

	if len(queries) > maxQueries {
		queries = queries[:maxQueries]
	}
	return queries
}

func faviconQueries(spec fingerprint.FingerprintSpec) []discovery.Query {
	if spec.Favicon == nil {
		return nil
	}
	var out []discovery.Query
	for i, v := range spec.Favicon.Hash.AllMMH3() {
		source := "favicon"
		if i > 0 {
			source = "favicon_alt_" + itoa(i)
		}
		out = append(out, discovery.Query{
			Type:     discovery.QueryFaviconHash,
			Value:    itoa32(v),
			Metadata: map[string]any{"source": source},
		})
	}
	return out
}

func imageQueries(spec fingerprint.FingerprintSpec) []discovery.Query {
	var out []discovery.Query
	for _, img := range spec.KeyImages {
		if img.Hash.MMH3 == nil && img.Hash.MD5 == "" {
			continue
		}
		meta := map[string]any{}
		if img.Hash.MMH3 != nil {
			meta["mmh3"] = *img.Hash.MMH3
		}
		if img.Hash.MD5 != "" {
			meta["md5"] = img.Hash.MD5
		}
		value := img.Hash.MD5
		if value == "" && img.Hash.MMH3 != nil {
			value = itoa32(*img.Hash.MMH3)
		}
		out = append(out, discovery.Query{
			Type:     discovery.QueryImageHash,
			Value:    value,
			Metadata: meta,
		})
	}
	return out
}

func titleQueries(spec fingerprint.FingerprintSpec) []discovery.Query {
	var phrases []string
	sigs := spec.PageSignatures
	if len(sigs) > 2 {
		sigs = sigs[:2]
	}
	for _, sig := range sigs {
		if sig.TitlePattern == "" {
			continue
		}
		for _, part := range strings.Split(sig.TitlePattern, "|") {
			part = strings.TrimSpace(part)
			if !isUsableTitlePhrase(part) {
				continue
			}
			phrases = append(phrases, part)
			if len(phrases) >= 2 {
				break
			}
		}
		if len(phrases) >= 2 {
			break
		}
	}

	var out []discovery.Query
	for _, p := range phrases {
		out = append(out, discovery.Query{Type: discovery.QueryTitlePattern, Value: p})
	}
	return out
}

func isUsableTitlePhrase(phrase string) bool {
	if len(phrase) < minTitlePartLength {
		return false
	}
	lower := strings.ToLower(phrase)
	if _, ok := genericTitleWords[lower]; ok {
		return false
	}
	for _, re := range versionPatterns {
		if re.MatchString(lower) {
			return false
		}
	}
	return true
}

func bodyQueries(spec fingerprint.FingerprintSpec) []discovery.Query {
	sigs := spec.PageSignatures
	if len(sigs) > 2 {
		sigs = sigs[:2]
	}

	appName := strings.ToLower(spec.AppName)
	var chosen []string
	for _, sig := range sigs {
		if len(chosen) >= 2 {
			break
		}
		if appName != "" {
			for _, p := range sig.BodyPatterns {
				if strings.Contains(strings.ToLower(p), appName) {
					chosen = append(chosen, p)
					break
				}
			}
		}
	}
	if len(chosen) == 0 {
		for _, sig := range sigs {
			if len(sig.BodyPatterns) > 0 {
				chosen = append(chosen, sig.BodyPatterns[0])
				break
			}
		}
	}

	var out []discovery.Query
	for _, p := range chosen {
		out = append(out, discovery.Query{Type: discovery.QueryBodyPattern, Value: p})
	}
	return out
}

// filterAndDedup drops blacklisted non-hash-type queries and
// deduplicates by (type, lowercased value) (spec.md §4.3 step 6, T6).
func filterAndDedup(queries []discovery.Query) []discovery.Query {
	isHashType := func(t discovery.QueryType) bool {
		return t == discovery.QueryFaviconHash || t == discovery.QueryImageHash
	}

	seen := make(map[string]struct{})
	var out []discovery.Query
	for _, q := range queries {
		if !isHashType(q.Type) && isBlacklisted(q.Value) {
			continue
		}
		key := string(q.Type) + ":" + strings.ToLower(q.Value)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, q)
	}
	return out
}

func itoa(i int) string {
	return strconv.Itoa(i)
}

func itoa32(i int32) string {
	return strconv.FormatInt(int64(i), 10)
}
