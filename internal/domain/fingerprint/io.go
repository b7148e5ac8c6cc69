package fingerprint

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Validate checks invariant I1: a ProbePlan's steps have strictly
// increasing order.
func (p ProbePlan) Validate() error {
	prev := 0
	for i, step := range p.ProbeSteps {
		if i > 0 && step.Order <= prev {
			return fmt.Errorf("fingerprint: probe step %d has order %d, which does not strictly increase from %d", i, step.Order, prev)
		}
		prev = step.Order
	}
	return nil
}

// Load reads a fingerprint file from r, applying legacy-weight
// migration to probe_plan.default_weights, and validates it.
func Load(r io.Reader) (*FingerprintOutput, error) {
	var out FingerprintOutput
	if err := json.NewDecoder(r).Decode(&out); err != nil {
		return nil, fmt.Errorf("fingerprint: decode: %w", err)
	}
	out.ProbePlan.DefaultWeights = MigrateLegacyWeights(out.ProbePlan.DefaultWeights)
	if err := out.ProbePlan.Validate(); err != nil {
		return nil, err
	}
	return &out, nil
}

// LoadFile opens path and delegates to Load.
func LoadFile(path string) (*FingerprintOutput, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("fingerprint: open %s: %w", path, err)
	}
	defer f.Close()
	return Load(f)
}

// Save writes out as canonically-indented JSON to w.
func Save(w io.Writer, out FingerprintOutput) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("fingerprint: encode: %w", err)
	}
	return nil
}

// SaveFile writes out to path as JSON.
func SaveFile(path string, out FingerprintOutput) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("fingerprint: create %s: %w", path, err)
	}
	defer f.Close()
	return Save(f, out)
}
