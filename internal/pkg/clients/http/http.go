// Package http builds the pooled, User-Agent-stamped, retrying HTTP
// client shared by the discovery plugins and the probe executor.
package http

import (
	"crypto/tls"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/censys/sigint/internal/config"
)

type Client struct {
	http.Client
}

// Options configures the client returned by New. InsecureSkipVerify
// must be set for probe traffic against discovered candidates, which
// routinely present self-signed or hostname-mismatched certificates;
// it must be left false for calls to the discovery plugins' own APIs.
type Options struct {
	RequestTimeout     time.Duration
	UserAgent          string
	Logger             *slog.Logger
	InsecureSkipVerify bool
	Retry              config.RetryStrategy
}

// New creates an HTTP client with a connection-pooled transport, a
// fixed/appended User-Agent header, optional request/response logging,
// and retry-on-5xx behavior driven by opts.Retry.
func New(opts Options) *Client {
	base := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	if opts.InsecureSkipVerify {
		base.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
	}

	retry := opts.Retry
	if retry.MaxAttempts == 0 {
		retry = config.RetryStrategy{MaxAttempts: 1, Backoff: config.BackoffFixed}
	}

	return &Client{
		Client: http.Client{
			Transport: &roundTripper{
				RoundTripper: base,
				userAgent:    opts.UserAgent,
				logger:       opts.Logger,
				retry:        retry,
			},
			Timeout: opts.RequestTimeout,
		},
	}
}

type roundTripper struct {
	http.RoundTripper
	userAgent string
	logger    *slog.Logger
	retry     config.RetryStrategy
}

func (r roundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	existingUserAgent := req.Header.Get("User-Agent")
	if existingUserAgent == "" {
		req.Header.Set("User-Agent", r.userAgent)
	} else {
		req.Header.Set("User-Agent", existingUserAgent+" "+r.userAgent)
	}

	maxAttempts := r.retry.MaxAttempts
	if maxAttempts == 0 {
		maxAttempts = 1
	}

	var resp *http.Response
	var err error
	for attempt := uint64(1); attempt <= maxAttempts; attempt++ {
		start := time.Now()
		if r.logger != nil {
			r.logger.Debug("http request", "method", req.Method, "url", req.URL.String(), "attempt", attempt)
		}

		resp, err = r.RoundTripper.RoundTrip(req)
		duration := time.Since(start)

		if r.logger != nil {
			if err != nil {
				r.logger.Debug("http error", "method", req.Method, "url", req.URL.String(), "error", err, "duration", duration)
			} else {
				r.logger.Debug("http response", "method", req.Method, "url", req.URL.String(), "status", resp.StatusCode, "duration", duration)
			}
		}

		if err != nil || !shouldRetryStatus(resp.StatusCode) || attempt == maxAttempts {
			return resp, err
		}

		if resp.Body != nil {
			_ = resp.Body.Close()
		}
		time.Sleep(retryDelay(r.retry, attempt))
	}

	return resp, err
}

func shouldRetryStatus(status int) bool {
	switch status {
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

func retryDelay(strategy config.RetryStrategy, attempt uint64) time.Duration {
	base := strategy.BaseDelay
	if base <= 0 {
		base = 500 * time.Millisecond
	}

	var delay time.Duration
	switch strategy.Backoff {
	case config.BackoffLinear:
		delay = time.Duration(attempt) * base
	case config.BackoffExponential:
		delay = time.Duration(uint64(1)<<(attempt-1)) * base
	default:
		delay = base
	}

	if strategy.MaxDelay > 0 && delay > strategy.MaxDelay {
		return strategy.MaxDelay
	}
	return delay
}
