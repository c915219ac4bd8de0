package fetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func newPageFetcher() *HTTPFetcher {
	return NewHTTPFetcher(HTTPOptions{
		Timeout:    5 * time.Second,
		MaxRetries: 2,
		RateLimiters: map[string]*rate.Limiter{
			"127.0.0.1": rate.NewLimiter(rate.Inf, 1),
		},
	})
}

func TestFetchVersion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<table><tr><td>All Metabolites</td><td>2021-11-17</td></tr></table>`))
	}))
	defer srv.Close()

	got, err := FetchVersion(context.Background(), newPageFetcher(), srv.URL,
		`All Metabolites</td><td>(\d{4}-\d{2}-\d{2})</td>`, 2)
	require.NoError(t, err)
	assert.Equal(t, "2021-11-17", got)
}

func TestFetchVersionPatternMissRetriesThenFails(t *testing.T) {
	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		_, _ = w.Write([]byte(`nothing useful here`))
	}))
	defer srv.Close()

	_, err := FetchVersion(context.Background(), newPageFetcher(), srv.URL, `version (\d+)`, 2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
	assert.Equal(t, 2, requests)
}

func TestFetchVersionBadPattern(t *testing.T) {
	_, err := FetchVersion(context.Background(), newPageFetcher(), "http://unused", `(`, 1)
	require.Error(t, err)
}
