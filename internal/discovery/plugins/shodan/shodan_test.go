package shodan

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/censys/sigint/internal/domain/discovery"
	clienthttp "github.com/censys/sigint/internal/pkg/clients/http"
	"github.com/censys/sigint/internal/pkg/reconerrors"
)

func newTestPlugin(t *testing.T, srv *httptest.Server) *Plugin {
	t.Helper()
	p := New(clienthttp.New(clienthttp.Options{RequestTimeout: 5 * time.Second}), nil)
	p.apiKey = "test-key"
	p.baseURL = srv.URL
	p.sleep = func(time.Duration) {}
	return p
}

func TestTranslateQuery(t *testing.T) {
	p := &Plugin{}
	cases := []struct {
		q    discovery.Query
		want string
	}{
		{discovery.Query{Type: discovery.QueryFaviconHash, Value: "123"}, "http.favicon.hash:123"},
		{discovery.Query{Type: discovery.QueryTitlePattern, Value: "Juice Shop"}, `http.title:"Juice Shop"`},
		{discovery.Query{Type: discovery.QueryBodyPattern, Value: "hello"}, `http.html:"hello"`},
		{discovery.Query{Type: discovery.QueryHeaderPattern, Value: "X-Powered-By"}, `http.headers:"X-Powered-By"`},
	}
	for _, tc := range cases {
		got, err := p.TranslateQuery(tc.q)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got)
	}
}

func TestTranslateQuery_RawQueryPassthrough(t *testing.T) {
	p := &Plugin{}
	got, err := p.TranslateQuery(discovery.Query{RawQuery: "http.title:\"Raw\""})
	require.NoError(t, err)
	assert.Equal(t, "http.title:\"Raw\"", got)
}

func TestSearch_PaginatesAndSleepsBetweenPages(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		page := r.URL.Query().Get("page")
		if page == "1" {
			w.Write([]byte(`{"total": 2, "matches": [{"ip_str": "1.2.3.4", "port": 80}]}`))
			return
		}
		w.Write([]byte(`{"total": 2, "matches": []}`))
	}))
	defer srv.Close()

	p := newTestPlugin(t, srv)
	var sleepCalls int
	p.sleep = func(d time.Duration) {
		sleepCalls++
		assert.Equal(t, interPageDelay, d)
	}

	result := p.Search(context.Background(), discovery.Query{Type: discovery.QueryFaviconHash, Value: "1"}, 0)
	require.Equal(t, "", result.Error)
	assert.Len(t, result.Hosts, 1)
	assert.Equal(t, "1.2.3.4", result.Hosts[0].IP)
	assert.GreaterOrEqual(t, sleepCalls, 1)
	assert.Equal(t, 2, calls)
}

func TestSearch_StopsAtMaxResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"total": 50, "matches": [{"ip_str": "1.1.1.1", "port": 80}, {"ip_str": "2.2.2.2", "port": 80}]}`))
	}))
	defer srv.Close()

	p := newTestPlugin(t, srv)
	result := p.Search(context.Background(), discovery.Query{Type: discovery.QueryFaviconHash, Value: "1"}, 1)
	assert.Len(t, result.Hosts, 1)
}

func TestSearch_RateLimitAbortPreservesPartialResults(t *testing.T) {
	var page int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page++
		if page == 1 {
			w.Write([]byte(`{"total": 99, "matches": [{"ip_str": "9.9.9.9", "port": 443, "ssl": true}]}`))
			return
		}
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error": "request limit reached"}`))
	}))
	defer srv.Close()

	p := newTestPlugin(t, srv)
	result := p.Search(context.Background(), discovery.Query{Type: discovery.QueryFaviconHash, Value: "1"}, 0)

	require.Len(t, result.Hosts, 1)
	assert.Equal(t, "9.9.9.9", result.Hosts[0].IP)
	assert.Contains(t, result.Error, reconerrors.ErrRateLimited.Error())
}

func TestSearch_NotConfigured(t *testing.T) {
	p := New(clienthttp.New(clienthttp.Options{}), nil)
	p.apiKey = ""
	result := p.Search(context.Background(), discovery.Query{Type: discovery.QueryFaviconHash, Value: "1"}, 0)
	assert.NotEmpty(t, result.Error)
	assert.Empty(t, result.Hosts)
}

func TestNormalizeMatch_HTTPSFromSSLField(t *testing.T) {
	match := gjson.Parse(`{"ip_str": "1.2.3.4", "port": 443, "ssl": {"cert": {}}, "hostnames": ["example.com"]}`)
	host := normalizeMatch(match)
	assert.Equal(t, "https", host.Protocol)
	assert.Equal(t, "example.com", host.Hostname)
}

func TestSupportsQueryType(t *testing.T) {
	p := &Plugin{}
	assert.True(t, p.SupportsQueryType(discovery.QueryFaviconHash))
	assert.False(t, p.SupportsQueryType(discovery.QueryEndpoint))
}

func TestIsConfigured(t *testing.T) {
	p := &Plugin{}
	assert.False(t, p.IsConfigured())
	p.apiKey = "x"
	assert.True(t, p.IsConfigured())
}

func TestPageParamIncrements(t *testing.T) {
	var seenPages []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenPages = append(seenPages, r.URL.Query().Get("page"))
		if len(seenPages) >= 2 {
			w.Write([]byte(`{"total": 1, "matches": []}`))
			return
		}
		w.Write([]byte(`{"total": 1, "matches": [{"ip_str": "1.1.1.1", "port": 80}]}`))
	}))
	defer srv.Close()

	p := newTestPlugin(t, srv)
	p.Search(context.Background(), discovery.Query{Type: discovery.QueryFaviconHash, Value: "1"}, 0)
	require.Len(t, seenPages, 2)
	assert.Equal(t, strconv.Itoa(1), seenPages[0])
	assert.Equal(t, strconv.Itoa(2), seenPages[1])
}
