// Package config holds process-wide defaults and the retry-strategy type
// shared by the discovery plugins, the probe executor, and the
// verification engine. runtime.go layers command-line flags, an
// optional YAML config file and SIGINT_-prefixed environment variables
// over Defaults for per-run options; the four credential environment
// variables are read directly by the plugin/client that needs them.
package config

import "time"

// Defaults mirrors the scoring and timing constants the original tool
// exposed as a single settings object (probe points, early-termination
// cutoff, classification thresholds, cache TTL, and worker-pool sizes).
type Defaults struct {
	ProbePointsFavicon int
	ProbePointsImage   int
	ProbePointsTitle   int
	ProbePointsBody    int

	MaxScore int

	ScoreVerified int
	ScoreLikely   int
	ScorePartial  int

	CacheTTLDays  int
	MaxQueries    int
	EnrichWorkers int
	VerifyWorkers int

	RetryThreshold int

	TCPTimeout time.Duration
	TCPRetries int
	TLSTimeout time.Duration

	HTTPTimeout time.Duration
}

// NewDefaults returns the process-wide defaults. Callers that need to
// override a single field (e.g. `--verify-workers`) copy the struct and
// set the field rather than mutating the shared value.
func NewDefaults() Defaults {
	return Defaults{
		ProbePointsFavicon: 80,
		ProbePointsImage:   50,
		ProbePointsTitle:   15,
		ProbePointsBody:    15,

		MaxScore: 100,

		ScoreVerified: 80,
		ScoreLikely:   50,
		ScorePartial:  30,

		CacheTTLDays:  7,
		MaxQueries:    10,
		EnrichWorkers: 20,
		VerifyWorkers: 10,

		RetryThreshold: 50,

		TCPTimeout: 2 * time.Second,
		TCPRetries: 2,
		TLSTimeout: 5 * time.Second,

		HTTPTimeout: 10 * time.Second,
	}
}
