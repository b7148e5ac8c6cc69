// Package fingerprint holds the typed representation of a target
// application's fingerprint and the probe plan derived from it — the
// C1 component. Types here are pure data: construction, validation,
// and canonical JSON serialization. No network or filesystem I/O
// beyond Load/Save in io.go.
package fingerprint

// SourceType identifies where a fingerprint's signals were derived from.
type SourceType string

const (
	SourceLiveSite       SourceType = "live_site"
	SourceRepository     SourceType = "repository"
	SourceFingerprintFile SourceType = "fingerprint_file"
)

// ConfidenceLevel is advisory metadata about how trustworthy a
// fingerprint's signals are; it is never used for scoring.
type ConfidenceLevel string

const (
	ConfidenceHigh   ConfidenceLevel = "high"
	ConfidenceMedium ConfidenceLevel = "medium"
	ConfidenceLow    ConfidenceLevel = "low"
)

// Mode selects between single-deployment verification (application,
// where an app-prefix retry applies) and brand-wide verification
// (organization, where favicon discovery parses the page for a <link>
// tag instead of assuming a fixed path).
type Mode string

const (
	ModeApplication  Mode = "application"
	ModeOrganization Mode = "organization"
)

// CheckType is the kind of verification a ProbeStep performs.
type CheckType string

const (
	CheckFaviconHash   CheckType = "favicon_hash"
	CheckImageHash     CheckType = "image_hash"
	CheckPageSignature CheckType = "page_signature"
)

// HashType names which algorithm an ExpectedHash value was computed
// with.
type HashType string

const (
	HashSHA256 HashType = "sha256"
	HashMD5    HashType = "md5"
	HashMMH3   HashType = "mmh3"
	HashPhash  HashType = "phash"
)

// HashSet bundles the optional hash values computed over one byte
// blob (a favicon or a key image). A HashSet is "present" iff at
// least one value is set. MMH3Alt carries alternative MurmurHash3
// values the planner may emit as additional favicon candidates.
type HashSet struct {
	SHA256   string   `json:"sha256,omitempty"`
	MD5      string    `json:"md5,omitempty"`
	MMH3     *int32   `json:"mmh3,omitempty"`
	MMH3Alt  []int32  `json:"mmh3_alt,omitempty"`
	Phash    string   `json:"phash,omitempty"`
}

// Present reports whether any hash value is set.
func (h HashSet) Present() bool {
	return h.SHA256 != "" || h.MD5 != "" || h.MMH3 != nil || len(h.MMH3Alt) > 0 || h.Phash != ""
}

// AllMMH3 returns the primary MMH3 value (if any) followed by every
// alternate value, in order.
func (h HashSet) AllMMH3() []int32 {
	var out []int32
	if h.MMH3 != nil {
		out = append(out, *h.MMH3)
	}
	out = append(out, h.MMH3Alt...)
	return out
}

// FaviconFingerprint is the expected favicon for a target: its
// relative path on the original site plus the hash values computed
// over its bytes.
type FaviconFingerprint struct {
	Path string  `json:"path"`
	Hash HashSet `json:"hash"`
}

// KeyImage is a distinguishing image (a logo, a splash screen)
// identified on the original site, along with an advisory
// description and its hash values.
type KeyImage struct {
	Path        string  `json:"path"`
	Hash        HashSet `json:"hash"`
	Description string  `json:"description,omitempty"`
}

// PageSignature is a page-level verification unit: an optional title
// regex (alternation via `|` allowed) and an ordered list of literal,
// case-insensitive body substrings.
type PageSignature struct {
	Path          string   `json:"path"`
	TitlePattern  string   `json:"title_pattern,omitempty"`
	BodyPatterns  []string `json:"body_patterns,omitempty"`
}

// FingerprintSpec describes a target application or brand: its
// identifying signals and the mode in which verification should treat
// them.
type FingerprintSpec struct {
	AppName             string              `json:"app_name"`
	SourceType          SourceType          `json:"source_type"`
	SourceLocation      string              `json:"source_location,omitempty"`
	Favicon             *FaviconFingerprint `json:"favicon,omitempty"`
	KeyImages           []KeyImage          `json:"key_images,omitempty"`
	PageSignatures      []PageSignature     `json:"page_signatures,omitempty"`
	ConfidenceLevel     ConfidenceLevel     `json:"confidence_level,omitempty"`
	DistinctiveFeatures []string            `json:"distinctive_features,omitempty"`
	Mode                Mode                `json:"mode"`
	IncludeVersion      bool                `json:"include_version,omitempty"`
	RunID               string              `json:"run_id"`
}

// ExpectedHash is the hash a ProbeStep expects a fetched resource to
// produce, plus any alternate acceptable values.
type ExpectedHash struct {
	HashType  HashType `json:"hash_type"`
	Value     string   `json:"value"`
	AltValues []string `json:"alt_values,omitempty"`
}

// ProbeStep is a single, self-contained execution record: one HTTP
// request and a deterministic check against the response.
type ProbeStep struct {
	Order                int           `json:"order"`
	URLPath              string        `json:"url_path"`
	Method               string        `json:"method,omitempty"`
	Description          string        `json:"description,omitempty"`
	CheckType            CheckType     `json:"check_type"`
	ExpectedHash         *ExpectedHash `json:"expected_hash,omitempty"`
	ExpectedTitlePattern string        `json:"expected_title_pattern,omitempty"`
	ExpectedBodyPatterns []string      `json:"expected_body_patterns,omitempty"`
	ExpectedStatus       *int          `json:"expected_status,omitempty"`
	Weight               int           `json:"weight"`
}

// ProbePlan is the ordered sequence of probes to run against every
// candidate, plus default per-check-type weights and an advisory
// minimum-matches threshold (not used by the scorer).
type ProbePlan struct {
	ProbeSteps             []ProbeStep    `json:"probe_steps"`
	DefaultWeights         map[string]int `json:"default_weights,omitempty"`
	MinimumMatchesRequired int            `json:"minimum_matches_required,omitempty"`
}

// FingerprintOutput is the on-disk fingerprint file: a fingerprint
// spec paired with its derived probe plan.
type FingerprintOutput struct {
	FingerprintSpec FingerprintSpec `json:"fingerprint_spec"`
	ProbePlan       ProbePlan       `json:"probe_plan"`
}
