package ingest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatValue(t *testing.T) {
	assert.Equal(t, 12.0, statValue(float64(12)))
	assert.Equal(t, 55.0, statValue("55%"))
	assert.Equal(t, 7.0, statValue(" 7 "))
	assert.Equal(t, 0.0, statValue(nil))
	assert.Equal(t, 0.0, statValue("n/a"))
}

func TestRetryAfter(t *testing.T) {
	resp := &http.Response{Header: http.Header{}}
	assert.Equal(t, 60*time.Second, retryAfter(resp))

	resp.Header.Set("Retry-After", "15")
	assert.Equal(t, 15*time.Second, retryAfter(resp))

	resp.Header.Set("Retry-After", "soon")
	assert.Equal(t, 60*time.Second, retryAfter(resp))
}

func TestGetJSONRetriesRateLimit(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"response":[]}`))
	}))
	defer srv.Close()

	c := &Client{httpClient: srv.Client(), host: srv.Listener.Addr().String(), apiKey: "k"}
	// httptest serves plain HTTP; point the client at it directly.
	c.httpClient.Transport = rewriteToServer(srv)

	var payload leaguePayload
	err := c.getJSON(context.Background(), "/leagues", url.Values{}, &payload)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestGetJSONFinalRateLimitReturnsImmediately(t *testing.T) {
	calls := 0
	var lastCall time.Time
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		lastCall = time.Now()
		w.Header().Set("Retry-After", "1")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := &Client{httpClient: srv.Client(), host: srv.Listener.Addr().String(), apiKey: "k"}
	c.httpClient.Transport = rewriteToServer(srv)

	var payload leaguePayload
	err := c.getJSON(context.Background(), "/leagues", url.Values{}, &payload)
	require.Error(t, err)
	assert.Equal(t, maxAttempts, calls)

	// No Retry-After wait after the last attempt, the error comes straight back.
	assert.Less(t, time.Since(lastCall), 500*time.Millisecond)
}

func TestGetJSONFailsOnServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := &Client{httpClient: srv.Client(), host: srv.Listener.Addr().String(), apiKey: "k"}
	c.httpClient.Transport = rewriteToServer(srv)

	var payload leaguePayload
	err := c.getJSON(context.Background(), "/leagues", url.Values{}, &payload)
	assert.Error(t, err)
}

// rewriteToServer redirects any request to the test server over plain HTTP.
func rewriteToServer(srv *httptest.Server) http.RoundTripper {
	return roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		req.URL.Scheme = "http"
		req.URL.Host = srv.Listener.Addr().String()
		return http.DefaultTransport.RoundTrip(req)
	})
}

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}
