package engine

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/censys/sigint/internal/domain/discovery"
	"github.com/censys/sigint/internal/domain/fingerprint"
	"github.com/censys/sigint/internal/domain/verify"
)

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func candidateFor(t *testing.T, srv *httptest.Server) discovery.CandidateHost {
	t.Helper()
	_, portStr, err := net.SplitHostPort(srv.Listener.Addr().String())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	return discovery.CandidateHost{IP: "127.0.0.1", Port: port, Sources: []string{"test"}}
}

func baseTestOptions() Options {
	return Options{
		Workers:        4,
		Timeout:        2 * time.Second,
		TCPCheck:       true,
		TCPTimeout:     time.Second,
		TCPRetries:     1,
		FetchTLS:       false,
		RetryThreshold: 50,
		MaxScore:       100,
		Thresholds:     verify.Thresholds{Verified: 80, Likely: 50, Partial: 30},
		TitlePoints:    15,
		BodyPoints:     15,
	}
}

func TestVerify_FaviconOnlyVerified(t *testing.T) {
	favicon := []byte("icon-bytes")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/favicon.ico" {
			w.Write(favicon)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	plan := fingerprint.ProbePlan{ProbeSteps: []fingerprint.ProbeStep{
		{Order: 1, URLPath: "/favicon.ico", CheckType: fingerprint.CheckFaviconHash, Weight: 80,
			ExpectedHash: &fingerprint.ExpectedHash{HashType: fingerprint.HashSHA256, Value: sha256Hex(favicon)}},
	}}
	spec := fingerprint.FingerprintSpec{AppName: "Test App", Mode: fingerprint.ModeApplication}

	e := New(nil)
	report := e.Verify(context.Background(), spec, plan, []discovery.CandidateHost{candidateFor(t, srv)}, baseTestOptions())

	require.Len(t, report.Results, 1)
	result := report.Results[0]
	assert.Equal(t, 80, result.Score)
	assert.Equal(t, verify.ClassificationVerified, result.Classification)
	assert.Equal(t, 1, result.MatchedProbes)
}

func TestVerify_EarlyTermination(t *testing.T) {
	favicon := []byte("icon-bytes")
	image := []byte("logo-bytes")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/favicon.ico":
			w.Write(favicon)
		case "/logo.png":
			w.Write(image)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	plan := fingerprint.ProbePlan{ProbeSteps: []fingerprint.ProbeStep{
		{Order: 1, URLPath: "/favicon.ico", CheckType: fingerprint.CheckFaviconHash, Weight: 80,
			ExpectedHash: &fingerprint.ExpectedHash{HashType: fingerprint.HashSHA256, Value: sha256Hex(favicon)}},
		{Order: 2, URLPath: "/logo.png", CheckType: fingerprint.CheckImageHash, Weight: 50,
			ExpectedHash: &fingerprint.ExpectedHash{HashType: fingerprint.HashSHA256, Value: sha256Hex(image)}},
		{Order: 3, URLPath: "/", CheckType: fingerprint.CheckPageSignature, ExpectedTitlePattern: "Anything"},
	}}
	spec := fingerprint.FingerprintSpec{AppName: "Test App", Mode: fingerprint.ModeApplication}

	e := New(nil)
	report := e.Verify(context.Background(), spec, plan, []discovery.CandidateHost{candidateFor(t, srv)}, baseTestOptions())

	require.Len(t, report.Results, 1)
	result := report.Results[0]
	assert.Equal(t, 100, result.Score)

	skipped := 0
	for _, p := range result.ProbeResults {
		if p.Skipped {
			skipped++
		}
	}
	assert.Equal(t, 1, skipped)
}

func TestVerify_PrefixRetryApplicationMode(t *testing.T) {
	favicon := []byte("brand-icon")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/dvwa/favicon.ico" {
			w.Write(favicon)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	plan := fingerprint.ProbePlan{ProbeSteps: []fingerprint.ProbeStep{
		{Order: 1, URLPath: "/favicon.ico", CheckType: fingerprint.CheckFaviconHash, Weight: 80,
			ExpectedHash: &fingerprint.ExpectedHash{HashType: fingerprint.HashSHA256, Value: sha256Hex(favicon)}},
	}}
	spec := fingerprint.FingerprintSpec{AppName: "Damn Vulnerable Web Application", Mode: fingerprint.ModeApplication}

	opts := baseTestOptions()
	opts.Timeout = time.Second

	e := New(nil)
	report := e.Verify(context.Background(), spec, plan, []discovery.CandidateHost{candidateFor(t, srv)}, opts)

	require.Len(t, report.Results, 1)
	result := report.Results[0]
	assert.Equal(t, "/dvwa", result.PrefixUsed)
	assert.Equal(t, verify.ClassificationVerified, result.Classification)
}

func TestVerify_DeadHostSkipsProbing(t *testing.T) {
	plan := fingerprint.ProbePlan{ProbeSteps: []fingerprint.ProbeStep{
		{Order: 1, URLPath: "/favicon.ico", CheckType: fingerprint.CheckFaviconHash, Weight: 80},
	}}
	spec := fingerprint.FingerprintSpec{AppName: "Test App", Mode: fingerprint.ModeApplication}
	candidate := discovery.CandidateHost{IP: "127.0.0.1", Port: 1}

	opts := baseTestOptions()
	opts.TCPTimeout = 100 * time.Millisecond
	opts.TCPRetries = 1

	e := New(nil)
	report := e.Verify(context.Background(), spec, plan, []discovery.CandidateHost{candidate}, opts)

	require.Len(t, report.Results, 1)
	result := report.Results[0]
	assert.Equal(t, 0, result.Score)
	assert.Equal(t, verify.ClassificationNoMatch, result.Classification)
	assert.Equal(t, "unknown", result.Scheme)
	assert.Empty(t, result.ProbeResults)
}
