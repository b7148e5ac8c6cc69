// Package ipinfo implements a minimal IPInfo.io client used to enrich
// discovered candidates with geo/ASN/hosting-provider metadata
// (spec.md §4.4's enrichment step). It is deliberately thin: this
// system's real interest is in the CandidateHost fields it fills, not
// a complete IPInfo API surface.
package ipinfo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/censys/sigint/internal/domain/discovery"
	clienthttp "github.com/censys/sigint/internal/pkg/clients/http"
)

const baseURL = "https://ipinfo.io"

// providerPatterns maps a hosting provider's display name to
// substrings found in its IPInfo "org" field or ASN, used to classify
// cloud-hosted candidates.
var providerPatterns = map[string][]string{
	"AWS":          {"amazon", "aws", "as16509", "as14618"},
	"GCP":          {"google cloud", "google llc", "as15169", "as396982"},
	"Azure":        {"microsoft", "azure", "as8075"},
	"DigitalOcean": {"digitalocean", "as14061"},
	"Linode":       {"linode", "akamai connected cloud", "as63949"},
	"Vultr":        {"vultr", "as20473", "the constant company"},
	"OVH":          {"ovh", "as16276"},
	"Hetzner":      {"hetzner", "as24940"},
	"Cloudflare":   {"cloudflare", "as13335"},
	"Alibaba":      {"alibaba", "aliyun", "as45102", "as37963"},
	"Oracle Cloud": {"oracle", "as31898"},
	"IBM Cloud":    {"ibm", "softlayer", "as36351"},
	"Tencent":      {"tencent", "as45090", "as132203"},
	"Scaleway":     {"scaleway", "online s.a.s", "as12876"},
}

var hostingASNs = map[string]struct{}{
	"AS16509": {}, "AS14618": {}, "AS15169": {}, "AS396982": {}, "AS8075": {},
	"AS14061": {}, "AS63949": {}, "AS20473": {}, "AS16276": {}, "AS24940": {},
	"AS13335": {}, "AS45102": {}, "AS37963": {}, "AS31898": {}, "AS36351": {},
	"AS45090": {}, "AS132203": {}, "AS12876": {},
}

// Client looks up IP metadata from the IPInfo API, caching results to
// disk under CacheDir for CacheTTL.
type Client struct {
	Token    string
	BaseURL  string
	CacheDir string
	CacheTTL time.Duration
	HTTP     *clienthttp.Client
	Now      func() time.Time
}

// New constructs a Client reading IPINFO_TOKEN from the environment.
// An empty token still works against IPInfo's free, rate-limited tier.
func New(cacheDir string, cacheTTL time.Duration, httpClient *clienthttp.Client) *Client {
	return &Client{
		Token:    os.Getenv("IPINFO_TOKEN"),
		BaseURL:  baseURL,
		CacheDir: cacheDir,
		CacheTTL: cacheTTL,
		HTTP:     httpClient,
		Now:      time.Now,
	}
}

type cacheEntry struct {
	IP       string    `json:"ip"`
	CachedAt time.Time `json:"cached_at"`
	Result   apiResult `json:"result"`
}

type apiResult struct {
	Hostname string `json:"hostname"`
	City     string `json:"city"`
	Region   string `json:"region"`
	Country  string `json:"country"`
	Org      string `json:"org"`
}

// Enrich satisfies engine.Enricher: it returns a CandidateHost
// fragment carrying only the fields this lookup can fill.
func (c *Client) Enrich(ctx context.Context, ip string) (discovery.CandidateHost, error) {
	if cached, ok := c.loadCache(ip); ok {
		return toCandidate(ip, cached), nil
	}

	result, err := c.lookup(ctx, ip)
	if err != nil {
		return discovery.CandidateHost{}, err
	}

	c.saveCache(ip, result)
	return toCandidate(ip, result), nil
}

func (c *Client) lookup(ctx context.Context, ip string) (apiResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/%s/json", c.BaseURL, ip), nil)
	if err != nil {
		return apiResult{}, fmt.Errorf("ipinfo: build request: %w", err)
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return apiResult{}, fmt.Errorf("ipinfo: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return apiResult{}, fmt.Errorf("ipinfo: rate limited")
	}
	if resp.StatusCode != http.StatusOK {
		return apiResult{}, fmt.Errorf("ipinfo: HTTP %d", resp.StatusCode)
	}

	var result apiResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return apiResult{}, fmt.Errorf("ipinfo: decode response: %w", err)
	}
	return result, nil
}

func toCandidate(ip string, r apiResult) discovery.CandidateHost {
	asn := parseASN(r.Org)
	isHosting, provider := detectProvider(r.Org, asn)

	location := map[string]string{}
	if r.Country != "" {
		location["country"] = r.Country
	}
	if r.City != "" {
		location["city"] = r.City
	}
	if r.Region != "" {
		location["region"] = r.Region
	}
	if len(location) == 0 {
		location = nil
	}

	return discovery.CandidateHost{
		IP:              ip,
		Hostname:        r.Hostname,
		Location:        location,
		ASN:             asn,
		Organization:    organizationName(r.Org, asn),
		HostingProvider: provider,
		IsCloudHosted:   isHosting,
	}
}

func parseASN(org string) string {
	fields := strings.Fields(org)
	if len(fields) == 0 {
		return ""
	}
	if strings.HasPrefix(strings.ToUpper(fields[0]), "AS") {
		return strings.ToUpper(fields[0])
	}
	return ""
}

func organizationName(org, asn string) string {
	if org == "" {
		return ""
	}
	if asn == "" {
		return org
	}
	rest := strings.TrimSpace(strings.TrimPrefix(org, asn))
	if rest == "" {
		return org
	}
	return rest
}

func detectProvider(org, asn string) (bool, string) {
	if org == "" && asn == "" {
		return false, ""
	}
	orgLower := strings.ToLower(org)
	asnUpper := strings.ToUpper(asn)

	for provider, patterns := range providerPatterns {
		for _, pattern := range patterns {
			if strings.Contains(orgLower, pattern) || strings.EqualFold(pattern, asnUpper) {
				return true, provider
			}
		}
	}
	if _, ok := hostingASNs[asnUpper]; ok {
		return true, ""
	}
	return false, ""
}

func (c *Client) cachePath(ip string) string {
	safe := strings.NewReplacer(".", "_", ":", "_").Replace(ip)
	return filepath.Join(c.CacheDir, safe+".json")
}

func (c *Client) loadCache(ip string) (apiResult, bool) {
	raw, err := os.ReadFile(c.cachePath(ip))
	if err != nil {
		return apiResult{}, false
	}
	var entry cacheEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return apiResult{}, false
	}
	if c.CacheTTL > 0 && c.Now().Sub(entry.CachedAt) > c.CacheTTL {
		return apiResult{}, false
	}
	return entry.Result, true
}

func (c *Client) saveCache(ip string, result apiResult) {
	if err := os.MkdirAll(c.CacheDir, 0o755); err != nil {
		return
	}
	entry := cacheEntry{IP: ip, CachedAt: c.Now(), Result: result}
	encoded, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return
	}
	_ = os.WriteFile(c.cachePath(ip), encoded, 0o644)
}
