package classyfire

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metabolome-tools/enrich-cli/internal/config"
)

const glucoseEntity = `{
	"kingdom": {"name": "Organic compounds"},
	"superclass": {"name": "Organic oxygen compounds"},
	"class": {"name": "Organooxygen compounds"},
	"subclass": {"name": "Carbohydrates and carbohydrate conjugates"},
	"direct_parent": {"name": "Hexoses"}
}`

// newTestClient returns a client pointed at url with sleeps recorded
// instead of slept.
func newTestClient(url string, sleeps *[]time.Duration) *Client {
	c := New(config.ClassyFireConfig{BaseURL: url, TimeoutSecs: 5, MaxAttempts: 5})
	c.sleep = func(_ context.Context, d time.Duration) {
		if sleeps != nil {
			*sleeps = append(*sleeps, d)
		}
	}
	return c
}

func TestClassifySuccess(t *testing.T) {
	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		assert.Equal(t, "/entities/WQZGKKKJIJFFOK-GASJEMHNSA-N.json", r.URL.Path)
		_, _ = w.Write([]byte(glucoseEntity))
	}))
	defer srv.Close()

	var sleeps []time.Duration
	c := newTestClient(srv.URL, &sleeps)

	tax, err := c.Classify(context.Background(), "WQZGKKKJIJFFOK-GASJEMHNSA-N")
	require.NoError(t, err)
	require.NotNil(t, tax)
	assert.Equal(t, "Organic compounds", *tax.Kingdom)
	assert.Equal(t, "Hexoses", *tax.DirectParent)
	assert.Equal(t, 1, requests)

	// A courtesy pause follows every success.
	require.Len(t, sleeps, 1)
	assert.GreaterOrEqual(t, sleeps[0], successPause)
}

func TestClassifyPartialEntity(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"kingdom": {"name": "Organic compounds"}, "class": {"name": ""}}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, nil)
	tax, err := c.Classify(context.Background(), "XXXX")
	require.NoError(t, err)
	require.NotNil(t, tax.Kingdom)
	assert.Nil(t, tax.Class, "blank name must become absent")
	assert.Nil(t, tax.SuperClass)
}

func TestClassifyRetriesOn429(t *testing.T) {
	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if requests < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(glucoseEntity))
	}))
	defer srv.Close()

	var sleeps []time.Duration
	c := newTestClient(srv.URL, &sleeps)

	tax, err := c.Classify(context.Background(), "WQZGKKKJIJFFOK-GASJEMHNSA-N")
	require.NoError(t, err)
	require.NotNil(t, tax)
	assert.Equal(t, 3, requests)

	// Backoff doubles from 500ms: 500ms, 1s, then the success pause.
	require.Len(t, sleeps, 3)
	assert.Equal(t, 500*time.Millisecond, sleeps[0])
	assert.Equal(t, time.Second, sleeps[1])
}

func TestClassifyBackoffCapped(t *testing.T) {
	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	var sleeps []time.Duration
	c := newTestClient(srv.URL, &sleeps)

	_, err := c.Classify(context.Background(), "XXXX")
	require.Error(t, err)
	assert.Equal(t, 5, requests)

	require.Len(t, sleeps, 5)
	for _, d := range sleeps[2:] {
		assert.Equal(t, backoffCap, d)
	}
}

func TestClassifyNonRetryableStatus(t *testing.T) {
	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, nil)
	_, err := c.Classify(context.Background(), "UNKNOWNKEY")
	require.Error(t, err)
	assert.Equal(t, 1, requests, "non-200 other than 429 must not retry")
	assert.Contains(t, err.Error(), "404")
}

func TestClassifyNetworkErrorRetries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // force connection refused

	var sleeps []time.Duration
	c := newTestClient(srv.URL, &sleeps)

	_, err := c.Classify(context.Background(), "XXXX")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "giving up")

	// One network pause per failed attempt.
	require.Len(t, sleeps, 5)
	for _, d := range sleeps {
		assert.Equal(t, networkPause, d)
	}
}
