package install

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/docext/internal/domain/registry"
	"github.com/GriffinCanCode/docext/internal/providers/http/client"
	"github.com/GriffinCanCode/docext/internal/shared/utils"
)

// Fetcher downloads the source of a library
type Fetcher interface {
	Fetch(ctx context.Context, desc registry.Descriptor) (string, error)
}

// FetchRecorder receives fetch metrics
type FetchRecorder interface {
	RecordFetch(host string, cached bool, err error, duration time.Duration)
}

// HTTPFetcher fetches library sources over HTTP
type HTTPFetcher struct {
	client  *client.Client
	cache   *gocache.Cache
	logger  *zap.Logger
	metrics FetchRecorder
}

// NewHTTPFetcher creates a fetcher caching decoded sources for ttl.
// ttl <= 0 keeps sources for the life of the process.
func NewHTTPFetcher(c *client.Client, ttl time.Duration) *HTTPFetcher {
	cleanup := 2 * ttl
	if ttl <= 0 {
		ttl = gocache.NoExpiration
		cleanup = 0
	}
	return &HTTPFetcher{
		client:  c,
		cache:   gocache.New(ttl, cleanup),
		logger:  zap.NewNop(),
		metrics: nopFetchRecorder{},
	}
}

// WithLogger sets the logger
func (f *HTTPFetcher) WithLogger(logger *zap.Logger) *HTTPFetcher {
	if logger != nil {
		f.logger = logger.Named("fetch")
	}
	return f
}

// WithMetrics sets the metrics recorder
func (f *HTTPFetcher) WithMetrics(metrics FetchRecorder) *HTTPFetcher {
	if metrics != nil {
		f.metrics = metrics
	}
	return f
}

// Fetch returns the decoded source for desc
func (f *HTTPFetcher) Fetch(ctx context.Context, desc registry.Descriptor) (string, error) {
	host := hostOf(desc.Source)
	key := desc.Key()

	if v, ok := f.cache.Get(key); ok {
		if src, ok := v.(string); ok {
			f.logger.Debug("source cache hit", zap.String("key", key))
			f.metrics.RecordFetch(host, true, nil, 0)
			return src, nil
		}
		f.logger.Error("unexpected cache entry type", zap.String("key", key))
	}

	start := time.Now()
	src, err := f.download(ctx, desc)
	duration := time.Since(start)
	f.metrics.RecordFetch(host, false, err, duration)

	if err != nil {
		return "", err
	}

	f.cache.SetDefault(key, src)
	f.logger.Debug("source fetched",
		zap.String("key", key),
		zap.Int("bytes", len(src)),
		zap.String("digest", utils.Digest([]byte(src))),
		zap.Duration("duration", duration),
	)
	return src, nil
}

func (f *HTTPFetcher) download(ctx context.Context, desc registry.Descriptor) (string, error) {
	resp, err := f.client.Get(ctx, desc.Source)
	if errors.Is(err, client.ErrBodyTooLarge) {
		return "", fmt.Errorf("fetch %s: %w: %w", desc.Source, ErrTooLarge, err)
	}
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", desc.Source, err)
	}

	src, err := Decode(resp.Body())
	if err != nil {
		return "", fmt.Errorf("decode %s: %w", desc.Source, err)
	}
	return src, nil
}

// Forget drops a cached source
func (f *HTTPFetcher) Forget(desc registry.Descriptor) {
	f.cache.Delete(desc.Key())
}

// Cached returns the number of cached sources
func (f *HTTPFetcher) Cached() int {
	return f.cache.ItemCount()
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Host
}

type nopFetchRecorder struct{}

func (nopFetchRecorder) RecordFetch(string, bool, error, time.Duration) {}
