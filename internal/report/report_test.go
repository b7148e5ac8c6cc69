package report

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/censys/sigint/internal/domain/discovery"
	"github.com/censys/sigint/internal/domain/verify"
)

func TestNewCandidates_BucketsByCountry(t *testing.T) {
	hosts := []discovery.CandidateHost{
		{IP: "1.1.1.1", Port: 80, Location: map[string]string{"country": "US"}},
		{IP: "2.2.2.2", Port: 80, Location: map[string]string{"country": "US"}},
		{IP: "3.3.3.3", Port: 80},
	}

	c := NewCandidates("run-1", time.Unix(0, 0), hosts)

	assert.Equal(t, 3, c.TotalCandidates)
	assert.Equal(t, 2, c.GeographicDistribution["US"])
	assert.Equal(t, 1, c.GeographicDistribution["unknown"])
}

func TestWriteCandidates_RoundTrips(t *testing.T) {
	c := NewCandidates("run-1", time.Unix(0, 0), []discovery.CandidateHost{
		{IP: "1.1.1.1", Port: 443, Sources: []string{"shodan"}},
	})

	var buf bytes.Buffer
	require.NoError(t, WriteCandidates(&buf, c))

	var decoded Candidates
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, c.FingerprintRunID, decoded.FingerprintRunID)
	assert.Equal(t, c.TotalCandidates, decoded.TotalCandidates)
}

func TestWriteVerificationReport_SortsByScoreDescending(t *testing.T) {
	report := verify.VerificationReport{
		Results: []verify.VerificationResult{
			{IP: "1.1.1.1", Score: 30},
			{IP: "2.2.2.2", Score: 90},
			{IP: "3.3.3.3", Score: 60},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteVerificationReport(&buf, report))

	var decoded verify.VerificationReport
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded.Results, 3)
	assert.Equal(t, "2.2.2.2", decoded.Results[0].IP)
	assert.Equal(t, "3.3.3.3", decoded.Results[1].IP)
	assert.Equal(t, "1.1.1.1", decoded.Results[2].IP)

	// input untouched
	assert.Equal(t, "1.1.1.1", report.Results[0].IP)
}
