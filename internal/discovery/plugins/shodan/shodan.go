// Package shodan implements the Shodan-style discovery plugin
// described in spec.md §4.2: single API key, `http.*` facet queries,
// one-page-at-a-time pagination with a polite delay between pages.
package shodan

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/tidwall/gjson"

	clienthttp "github.com/censys/sigint/internal/pkg/clients/http"
	"github.com/censys/sigint/internal/pkg/reconerrors"

	"github.com/censys/sigint/internal/domain/discovery"
)

const (
	defaultBaseURL = "https://api.shodan.io"
	interPageDelay = 1 * time.Second
)

// Plugin queries the Shodan host search API.
type Plugin struct {
	apiKey  string
	baseURL string
	client  *clienthttp.Client
	logger  *slog.Logger

	// sleep is overridden in tests to avoid real waits.
	sleep func(time.Duration)
}

// New constructs a Plugin reading SHODAN_API_KEY from the environment
// directly (spec.md §9.3: no config-file indirection for credentials).
func New(client *clienthttp.Client, logger *slog.Logger) *Plugin {
	return &Plugin{
		apiKey:  os.Getenv("SHODAN_API_KEY"),
		baseURL: defaultBaseURL,
		client:  client,
		logger:  logger,
		sleep:   time.Sleep,
	}
}

func (p *Plugin) Name() string        { return "shodan" }
func (p *Plugin) Description() string { return "Shodan host search API" }
func (p *Plugin) RequiresAuth() bool  { return true }

func (p *Plugin) SupportedQueryTypes() []discovery.QueryType {
	return []discovery.QueryType{
		discovery.QueryFaviconHash,
		discovery.QueryTitlePattern,
		discovery.QueryBodyPattern,
		discovery.QueryHeaderPattern,
		discovery.QueryCustom,
	}
}

func (p *Plugin) SupportsQueryType(t discovery.QueryType) bool {
	for _, qt := range p.SupportedQueryTypes() {
		if qt == t {
			return true
		}
	}
	return false
}

func (p *Plugin) IsConfigured() bool {
	return p.apiKey != ""
}

// TranslateQuery lowers a normalized query into Shodan's search
// syntax. An IMAGE_HASH query is translated via its favicon facet,
// since Shodan has no distinct image-hash query surface.
func (p *Plugin) TranslateQuery(q discovery.Query) (string, error) {
	if q.RawQuery != "" {
		return q.RawQuery, nil
	}
	switch q.Type {
	case discovery.QueryFaviconHash, discovery.QueryImageHash:
		return fmt.Sprintf("http.favicon.hash:%s", q.Value), nil
	case discovery.QueryTitlePattern:
		return fmt.Sprintf(`http.title:"%s"`, q.Value), nil
	case discovery.QueryBodyPattern:
		return fmt.Sprintf(`http.html:"%s"`, q.Value), nil
	case discovery.QueryHeaderPattern:
		return fmt.Sprintf(`http.headers:"%s"`, q.Value), nil
	case discovery.QueryCustom:
		return q.Value, nil
	default:
		return "", fmt.Errorf("shodan: unsupported query type %q", q.Type)
	}
}

// Search executes q, paginating one page at a time with a delay
// between requests, and carries through partial results if a later
// page fails.
func (p *Plugin) Search(ctx context.Context, q discovery.Query, maxResults int) discovery.Result {
	result := discovery.Result{Query: q}

	if !p.IsConfigured() {
		result.Error = "shodan: not configured (SHODAN_API_KEY unset)"
		return result
	}

	translated, err := p.TranslateQuery(q)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	page := 1
	for {
		hosts, total, err := p.fetchPage(ctx, translated, page)
		if err != nil {
			// Whatever was gathered on prior pages carries through;
			// the error is recorded rather than the batch discarded.
			result.Error = err.Error()
			return result
		}

		result.Hosts = append(result.Hosts, hosts...)
		result.TotalAvailable = total

		if len(hosts) == 0 || (maxResults > 0 && len(result.Hosts) >= maxResults) {
			break
		}
		page++

		select {
		case <-ctx.Done():
			result.Error = ctx.Err().Error()
			return result
		default:
		}
		p.sleep(interPageDelay)
	}

	if maxResults > 0 && len(result.Hosts) > maxResults {
		result.Hosts = result.Hosts[:maxResults]
	}
	return result
}

func (p *Plugin) fetchPage(ctx context.Context, query string, page int) ([]discovery.Host, int, error) {
	u, err := url.Parse(p.baseURL + "/shodan/host/search")
	if err != nil {
		return nil, 0, fmt.Errorf("shodan: bad base url: %w", err)
	}
	values := u.Query()
	values.Set("key", p.apiKey)
	values.Set("query", query)
	values.Set("page", strconv.Itoa(page))
	u.RawQuery = values.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, 0, fmt.Errorf("shodan: build request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, 0, reconerrors.ParseContextError(ctxErr)
		}
		return nil, 0, fmt.Errorf("shodan: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("shodan: read body: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, 0, fmt.Errorf("shodan: %w", reconerrors.ErrRateLimited)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, 0, fmt.Errorf("shodan: upstream returned %d: %s", resp.StatusCode, string(body))
	}

	parsed := gjson.ParseBytes(body)
	if errMsg := parsed.Get("error").String(); errMsg != "" {
		return nil, 0, fmt.Errorf("shodan: %s", errMsg)
	}

	total := int(parsed.Get("total").Int())
	var hosts []discovery.Host
	parsed.Get("matches").ForEach(func(_, match gjson.Result) bool {
		hosts = append(hosts, normalizeMatch(match))
		return true
	})

	if p.logger != nil {
		p.logger.Debug("shodan page fetched", "page", page, "count", len(hosts), "total", total)
	}

	return hosts, total, nil
}

func normalizeMatch(match gjson.Result) discovery.Host {
	protocol := "http"
	port := int(match.Get("port").Int())
	if match.Get("ssl").Exists() || port == 443 {
		protocol = "https"
	}

	var hostname string
	if hostnames := match.Get("hostnames"); hostnames.IsArray() && len(hostnames.Array()) > 0 {
		hostname = hostnames.Array()[0].String()
	}

	location := map[string]string{}
	if country := match.Get("location.country_name").String(); country != "" {
		location["country"] = country
	}
	if city := match.Get("location.city").String(); city != "" {
		location["city"] = city
	}
	if len(location) == 0 {
		location = nil
	}

	lastSeen := match.Get("timestamp").String()
	if lastSeen != "" {
		if t, err := time.Parse("2006-01-02T15:04:05.999999", lastSeen); err == nil {
			lastSeen = t.UTC().Format(time.RFC3339)
		}
	}

	return discovery.Host{
		IP:       match.Get("ip_str").String(),
		Port:     port,
		Protocol: protocol,
		Hostname: hostname,
		Source:   "shodan",
		LastSeen: lastSeen,
		Location: location,
		Metadata: map[string]any{
			"asn":          match.Get("asn").String(),
			"organization": match.Get("org").String(),
		},
	}
}
