// Package discovery holds the C2 discovery plugin contract: the
// normalized query/host/result types every discovery source speaks,
// the candidate deduplication unit, the per-query cache record, and
// the process-wide plugin registry.
package discovery

import (
	"context"
	"fmt"
	"time"
)

// QueryType is the closed set of query kinds the planner can emit and
// a plugin can translate.
type QueryType string

const (
	QueryFaviconHash  QueryType = "favicon_hash"
	QueryImageHash    QueryType = "image_hash"
	QueryTitlePattern QueryType = "title_pattern"
	QueryBodyPattern  QueryType = "body_pattern"
	QueryHeaderPattern QueryType = "header_pattern"
	QueryEndpoint     QueryType = "endpoint"
	QueryCustom       QueryType = "custom"
)

// Query is a normalized, source-agnostic search request emitted by the
// planner and translated by a plugin into its native query syntax.
type Query struct {
	Type     QueryType      `json:"query_type"`
	Value    string         `json:"value"`
	RawQuery string         `json:"raw_query,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Host is the on-the-wire result a plugin returns for one matched
// host: pre-deduplication, pre-enrichment.
type Host struct {
	IP        string            `json:"ip"`
	Port      int               `json:"port"`
	Protocol  string            `json:"protocol"`
	Hostname  string            `json:"hostname,omitempty"`
	Source    string            `json:"source"`
	FirstSeen string            `json:"first_seen,omitempty"`
	LastSeen  string            `json:"last_seen,omitempty"`
	Location  map[string]string `json:"location,omitempty"`
	Metadata  map[string]any    `json:"metadata,omitempty"`
}

// URL is the derived base URL for this host.
func (h Host) URL() string {
	return fmt.Sprintf("%s://%s:%d", h.Protocol, h.IP, h.Port)
}

// UniqueKey is the "(ip, port)" deduplication key.
func (h Host) UniqueKey() string {
	return fmt.Sprintf("%s:%d", h.IP, h.Port)
}

// Result is what a plugin's search returns for one Query: the hosts it
// found plus the total the upstream reported being available (which
// may exceed len(Hosts) if the plugin truncated pagination).
type Result struct {
	Query          Query  `json:"query"`
	Hosts          []Host `json:"hosts"`
	TotalAvailable int    `json:"total_available"`
	Error          string `json:"error,omitempty"`
}

// Success reports whether the search completed without error.
func (r Result) Success() bool {
	return r.Error == ""
}

// Count is the number of hosts returned.
func (r Result) Count() int {
	return len(r.Hosts)
}

// Plugin is the contract every discovery source implements (spec.md
// §4.2): four operations (SupportsQueryType, IsConfigured,
// TranslateQuery, Search) plus the Name, Description, RequiresAuth and
// SupportedQueryTypes metadata accessors.
type Plugin interface {
	Name() string
	Description() string
	RequiresAuth() bool
	SupportedQueryTypes() []QueryType
	SupportsQueryType(t QueryType) bool
	IsConfigured() bool
	TranslateQuery(q Query) (string, error)
	Search(ctx context.Context, q Query, maxResults int) Result
}

// CandidateHost is the deduplication unit keyed by (ip, port) produced
// by folding Host records from one or more plugins together (spec.md
// §3's CandidateHost, invariant I4).
type CandidateHost struct {
	IP       string   `json:"ip"`
	Port     int      `json:"port"`
	Hostname string   `json:"hostname,omitempty"`
	Sources  []string `json:"sources"`
	LastSeen time.Time `json:"last_seen"`

	Location     map[string]string `json:"location,omitempty"`
	ASN          string            `json:"asn,omitempty"`
	Organization string            `json:"organization,omitempty"`

	HostingProvider string     `json:"hosting_provider,omitempty"`
	IsCloudHosted   bool       `json:"is_cloud_hosted,omitempty"`
	EnrichedAt      *time.Time `json:"enriched_at,omitempty"`
}

// Key is the "(ip, port)" deduplication key.
func (c CandidateHost) Key() string {
	return fmt.Sprintf("%s:%d", c.IP, c.Port)
}

// QueryCache is a per-query cache entry: platform, query identity,
// when it was fetched, and the hosts it returned.
type QueryCache struct {
	QueryHash      string          `json:"query_hash"`
	Platform       string          `json:"platform"`
	QueryType      QueryType       `json:"query_type"`
	QueryString    string          `json:"query_string"`
	QueryTimestamp time.Time       `json:"query_timestamp"`
	ResultCount    int             `json:"result_count"`
	Candidates     []CandidateHost `json:"candidates"`
}
