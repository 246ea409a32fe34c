package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/docext/internal/infrastructure/resilience"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.MaxRetries = 0
	cfg.RetryWaitMin = time.Millisecond
	cfg.RetryWaitMax = time.Millisecond
	cfg.RateLimit = 0
	cfg.Breaker = resilience.Settings{
		Timeout: time.Minute,
		ReadyToTrip: func(c resilience.Counts) bool {
			return c.ConsecutiveFailures >= 2
		},
	}
	return cfg
}

func TestClientGet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "docext/1.0", r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte("window.Lib = {};"))
	}))
	defer srv.Close()

	c := NewClient(testConfig(), nil)
	resp, err := c.Get(context.Background(), srv.URL+"/lib.js")

	require.NoError(t, err)
	assert.Equal(t, "window.Lib = {};", resp.String())
}

func TestClientNotFoundDoesNotTrip(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	c := NewClient(testConfig(), nil)
	for i := 0; i < 3; i++ {
		_, err := c.Get(context.Background(), srv.URL+"/missing.js")
		var serr *StatusError
		require.ErrorAs(t, err, &serr)
		assert.Equal(t, http.StatusNotFound, serr.Status)
	}

	u, _ := url.Parse(srv.URL)
	assert.Equal(t, resilience.StateClosed, c.BreakerStates()[u.Host])
}

func TestClientServerErrorsTripBreaker(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(testConfig(), nil)
	ctx := context.Background()

	_, err := c.Get(ctx, srv.URL+"/a.js")
	require.Error(t, err)
	_, err = c.Get(ctx, srv.URL+"/a.js")
	require.Error(t, err)

	_, err = c.Get(ctx, srv.URL+"/a.js")
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, int32(2), hits.Load())
}

func TestClientRetriesTransientFailures(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.MaxRetries = 2
	c := NewClient(cfg, nil)

	resp, err := c.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.String())
	assert.Equal(t, int32(2), hits.Load())
}

func TestClientRequestHonorsContext(t *testing.T) {
	c := NewClient(testConfig(), nil)
	c.SetRateLimit(0.001)

	// drain the single burst token
	_, err := c.Request(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	req, err := c.Request(ctx)
	assert.Error(t, err)
	assert.Nil(t, req)
}

func TestClientInvalidURL(t *testing.T) {
	c := NewClient(testConfig(), nil)
	_, err := c.Get(context.Background(), "://bad")
	assert.Error(t, err)
}

func TestClientBodyLimitDoesNotTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("x", 2048)))
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.MaxBodySize = 1024
	c := NewClient(cfg, nil)

	for i := 0; i < 3; i++ {
		_, err := c.Get(context.Background(), srv.URL+"/big.js")
		assert.ErrorIs(t, err, ErrBodyTooLarge)
	}

	u, _ := url.Parse(srv.URL)
	assert.Equal(t, resilience.StateClosed, c.BreakerStates()[u.Host])
}
