// Package report writes the two JSON artifacts produced by a
// discovery+verification run: the candidates file (spec.md §6) and
// the verification report file, the latter sorted by score
// descending at serialization time (O2).
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/censys/sigint/internal/domain/discovery"
	"github.com/censys/sigint/internal/domain/verify"
)

// Candidates is the on-disk candidates file: the deduplicated,
// optionally-enriched candidate set from one discovery run plus a
// per-country breakdown.
type Candidates struct {
	FingerprintRunID       string                    `json:"fingerprint_run_id"`
	DiscoveryTimestamp     time.Time                 `json:"discovery_timestamp"`
	TotalCandidates        int                       `json:"total_candidates"`
	GeographicDistribution map[string]int            `json:"geographic_distribution"`
	Candidates             []discovery.CandidateHost `json:"candidates"`
}

// NewCandidates builds a Candidates file from a discovery result,
// counting each candidate's location["country"] (falling back to
// "unknown" when absent) into GeographicDistribution.
func NewCandidates(runID string, now time.Time, hosts []discovery.CandidateHost) Candidates {
	distribution := map[string]int{}
	for _, c := range hosts {
		country := c.Location["country"]
		if country == "" {
			country = "unknown"
		}
		distribution[country]++
	}

	return Candidates{
		FingerprintRunID:        runID,
		DiscoveryTimestamp:      now,
		TotalCandidates:         len(hosts),
		GeographicDistribution:  distribution,
		Candidates:              hosts,
	}
}

// WriteCandidates serializes c as indented JSON to w.
func WriteCandidates(w io.Writer, c Candidates) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(c)
}

// WriteCandidatesFile writes c to path, creating or truncating it.
func WriteCandidatesFile(path string, c Candidates) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("report: create candidates file: %w", err)
	}
	defer f.Close()
	return WriteCandidates(f, c)
}

// ReadCandidatesFile loads a candidates file previously written by
// WriteCandidatesFile.
func ReadCandidatesFile(path string) (Candidates, error) {
	f, err := os.Open(path)
	if err != nil {
		return Candidates{}, fmt.Errorf("report: open candidates file: %w", err)
	}
	defer f.Close()

	var c Candidates
	if err := json.NewDecoder(f).Decode(&c); err != nil {
		return Candidates{}, fmt.Errorf("report: decode candidates file: %w", err)
	}
	return c, nil
}

// WriteVerificationReport serializes report as indented JSON to w,
// with Results sorted by Score descending (O2). The input report is
// not mutated.
func WriteVerificationReport(w io.Writer, report verify.VerificationReport) error {
	sorted := make([]verify.VerificationResult, len(report.Results))
	copy(sorted, report.Results)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Score > sorted[j].Score
	})
	report.Results = sorted

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

// WriteVerificationReportFile writes report to path, creating or
// truncating it.
func WriteVerificationReportFile(path string, report verify.VerificationReport) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("report: create verification report file: %w", err)
	}
	defer f.Close()
	return WriteVerificationReport(f, report)
}
