package fingerprint

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewRunID returns a run identifier in the `YYYYMMDD_HHMMSS_xxxxxx`
// form described in spec.md §6, where the six-hex-char suffix is
// derived from a UUIDv4 rather than a weaker PRNG.
func NewRunID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.New().String(), "-", "")[:6]
	return now.UTC().Format("20060102_150405") + "_" + suffix
}

// NewRunIDNow is a convenience wrapper around NewRunID using the
// current time.
func NewRunIDNow() string {
	return NewRunID(time.Now())
}
