package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/censys/sigint/internal/domain/discovery"
	"github.com/censys/sigint/internal/domain/fingerprint"
)

func TestPlan_FaviconHighestPriority(t *testing.T) {
	mmh3 := int32(-12345)
	spec := fingerprint.FingerprintSpec{
		AppName: "DVWA",
		Favicon: &fingerprint.FaviconFingerprint{Hash: fingerprint.HashSet{MMH3: &mmh3}},
		PageSignatures: []fingerprint.PageSignature{
			{TitlePattern: "DVWA Login|Welcome", BodyPatterns: []string{"Damn Vulnerable Web Application"}},
		},
	}

	queries := Plan(spec, 10)
	require := assert.New(t)
	require.NotEmpty(queries)
	require.Equal(discovery.QueryFaviconHash, queries[0].Type)
}

func TestPlan_TruncatesToMaxQueries(t *testing.T) {
	mmh3a := int32(1)
	mmh3b := int32(2)
	mmh3c := int32(3)
	spec := fingerprint.FingerprintSpec{
		AppName: "Foo",
		Favicon: &fingerprint.FaviconFingerprint{Hash: fingerprint.HashSet{MMH3: &mmh3a, MMH3Alt: []int32{mmh3b, mmh3c}}},
	}

	queries := Plan(spec, 2)
	assert.Len(t, queries, 2)
}

func TestPlan_TitleFiltersVersionAndGenericWords(t *testing.T) {
	spec := fingerprint.FingerprintSpec{
		PageSignatures: []fingerprint.PageSignature{
			{TitlePattern: "v1.2.3|Home|Juice Shop"},
		},
	}

	queries := Plan(spec, 10)
	var values []string
	for _, q := range queries {
		if q.Type == discovery.QueryTitlePattern {
			values = append(values, q.Value)
		}
	}
	assert.Equal(t, []string{"Juice Shop"}, values)
}

func TestPlan_BodyPatternPrefersAppName(t *testing.T) {
	spec := fingerprint.FingerprintSpec{
		AppName: "juice shop",
		PageSignatures: []fingerprint.PageSignature{
			{BodyPatterns: []string{"generic-class-name", "Welcome to Juice Shop"}},
		},
	}

	queries := Plan(spec, 10)
	var values []string
	for _, q := range queries {
		if q.Type == discovery.QueryBodyPattern {
			values = append(values, q.Value)
		}
	}
	assert.Equal(t, []string{"Welcome to Juice Shop"}, values)
}

func TestPlan_DedupesByTypeAndLowercasedValue(t *testing.T) {
	spec := fingerprint.FingerprintSpec{
		PageSignatures: []fingerprint.PageSignature{
			{TitlePattern: "Juice Shop|JUICE SHOP"},
		},
	}

	queries := Plan(spec, 10)
	count := 0
	for _, q := range queries {
		if q.Type == discovery.QueryTitlePattern {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestPlan_EmptySpecProducesNoQueries(t *testing.T) {
	queries := Plan(fingerprint.FingerprintSpec{}, 10)
	assert.Empty(t, queries)
}
