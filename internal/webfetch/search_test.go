package webfetch

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runnerr0/recollect/internal/retry"
)

const braveFixture = `{"web":{"results":[
	{"title":"Go","url":"https://go.dev","description":"The Go language"},
	{"title":"Docs","url":"https://go.dev/doc","description":"Documentation"},
	{"title":"Blog","url":"https://go.dev/blog","description":"The Go blog"}
]}}`

func newTestSearchClient(t *testing.T, srv *httptest.Server) *SearchClient {
	t.Helper()
	c, err := NewSearchClient("test-key")
	require.NoError(t, err)
	c.Endpoint = srv.URL
	c.Policy = retry.Policy{MaxAttempts: 3, BaseDelay: time.Millisecond}
	return c
}

func TestNewSearchClient_RequiresKey(t *testing.T) {
	_, err := NewSearchClient("")
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestSearch_ReturnsResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("X-Subscription-Token"))
		assert.Equal(t, "golang", r.URL.Query().Get("q"))
		fmt.Fprint(w, braveFixture)
	}))
	defer srv.Close()

	results, err := newTestSearchClient(t, srv).Search(context.Background(), "golang", 5)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "Go", results[0].Title)
	assert.Equal(t, "https://go.dev", results[0].URL)
}

func TestSearch_CapsResultCount(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, braveFixture)
	}))
	defer srv.Close()

	results, err := newTestSearchClient(t, srv).Search(context.Background(), "golang", 2)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestSearch_RetriesRateLimit(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, braveFixture)
	}))
	defer srv.Close()

	results, err := newTestSearchClient(t, srv).Search(context.Background(), "golang", 5)
	require.NoError(t, err)
	assert.Len(t, results, 3)
	assert.Equal(t, int32(3), calls.Load())
}

func TestSearch_FatalOnAuthError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := newTestSearchClient(t, srv).Search(context.Background(), "golang", 5)
	assert.Error(t, err)
	assert.Equal(t, int32(1), calls.Load(), "auth errors must not be retried")
}
