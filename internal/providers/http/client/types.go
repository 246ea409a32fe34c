package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/GriffinCanCode/docext/internal/infrastructure/resilience"
)

// ErrUnavailable is returned when a host's circuit breaker rejects a request
var ErrUnavailable = errors.New("upstream unavailable")

// ErrBodyTooLarge is returned when a response body exceeds Config.MaxBodySize
var ErrBodyTooLarge = errors.New("response body too large")

// StatusError reports a non-2xx response
type StatusError struct {
	URL    string
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d", e.URL, e.Status)
}

// Config defines client behavior
type Config struct {
	Timeout      time.Duration
	MaxRetries   int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
	// RateLimit is requests per second across all hosts; <= 0 is unlimited
	RateLimit float64
	UserAgent string
	// MaxBodySize caps a response body while it is read; <= 0 is unlimited
	MaxBodySize int
	Breaker     resilience.Settings
}

// DefaultConfig returns production defaults
func DefaultConfig() Config {
	return Config{
		Timeout:      30 * time.Second,
		MaxRetries:   3,
		RetryWaitMin: 500 * time.Millisecond,
		RetryWaitMax: 10 * time.Second,
		RateLimit:    20,
		UserAgent:    "docext/1.0",
		MaxBodySize:  32 << 20,
		Breaker: resilience.Settings{
			MaxRequests: 2,
			Interval:    60 * time.Second,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts resilience.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
		},
	}
}

// Client wraps resty with rate limiting and per-host circuit breakers
type Client struct {
	Resty    *resty.Client
	Limiter  *rate.Limiter
	Breakers *resilience.Set
	Mu       sync.RWMutex
}

// NewClient creates a client from cfg. logger may be nil.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = cfg.MaxRetries
	retryClient.RetryWaitMin = cfg.RetryWaitMin
	retryClient.RetryWaitMax = cfg.RetryWaitMax
	retryClient.Logger = leveledLogger{logger.Named("http").Sugar()}

	// retries happen in the transport, so resty's own retry loop stays off
	restyClient := resty.NewWithClient(retryClient.StandardClient()).
		SetTimeout(cfg.Timeout).
		SetHeader("User-Agent", cfg.UserAgent).
		SetResponseBodyLimit(cfg.MaxBodySize)

	c := &Client{
		Resty:    restyClient,
		Breakers: resilience.NewSet(cfg.Breaker),
	}
	c.SetRateLimit(cfg.RateLimit)
	return c
}

// SetTimeout configures request timeout
func (c *Client) SetTimeout(d time.Duration) {
	c.Mu.Lock()
	defer c.Mu.Unlock()
	c.Resty.SetTimeout(d)
}

// SetRateLimit configures rate limiting (requests per second)
func (c *Client) SetRateLimit(rps float64) {
	c.Mu.Lock()
	defer c.Mu.Unlock()
	if rps <= 0 {
		c.Limiter = rate.NewLimiter(rate.Inf, 0)
	} else {
		burst := int(rps)
		if burst < 1 {
			burst = 1
		}
		c.Limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// Request creates a new request after waiting for the rate limiter
func (c *Client) Request(ctx context.Context) (*resty.Request, error) {
	c.Mu.RLock()
	limiter := c.Limiter
	c.Mu.RUnlock()

	if err := limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit error: %w", err)
	}

	c.Mu.RLock()
	defer c.Mu.RUnlock()
	return c.Resty.R().SetContext(ctx), nil
}

// Get fetches rawURL through the breaker for its host. Transport errors
// and 5xx responses count against the breaker; 4xx responses and oversized
// bodies do not.
func (c *Client) Get(ctx context.Context, rawURL string) (*resty.Response, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}

	var resp *resty.Response
	var clientErr error

	err = c.Breakers.Get(u.Host).Do(func() error {
		req, err := c.Request(ctx)
		if err != nil {
			return err
		}

		resp, err = req.Get(rawURL)
		if errors.Is(err, resty.ErrResponseBodyTooLarge) {
			clientErr = fmt.Errorf("%w: GET %s", ErrBodyTooLarge, rawURL)
			return nil
		}
		if err != nil {
			return err
		}

		switch status := resp.StatusCode(); {
		case status >= http.StatusInternalServerError:
			return &StatusError{URL: rawURL, Status: status}
		case status >= http.StatusBadRequest:
			clientErr = &StatusError{URL: rawURL, Status: status}
		}
		return nil
	})

	switch {
	case errors.Is(err, resilience.ErrCircuitOpen), errors.Is(err, resilience.ErrTooManyRequests):
		return nil, fmt.Errorf("%w: %s: %v", ErrUnavailable, u.Host, err)
	case err != nil:
		return nil, err
	case clientErr != nil:
		return nil, clientErr
	}
	return resp, nil
}

// BreakerStates returns the breaker state for every host contacted so far
func (c *Client) BreakerStates() map[string]resilience.State {
	return c.Breakers.States()
}

// leveledLogger adapts zap to retryablehttp.LeveledLogger
type leveledLogger struct {
	s *zap.SugaredLogger
}

func (l leveledLogger) Error(msg string, kv ...interface{}) { l.s.Errorw(msg, kv...) }
func (l leveledLogger) Info(msg string, kv ...interface{})  { l.s.Debugw(msg, kv...) }
func (l leveledLogger) Debug(msg string, kv ...interface{}) { l.s.Debugw(msg, kv...) }
func (l leveledLogger) Warn(msg string, kv ...interface{})  { l.s.Warnw(msg, kv...) }
