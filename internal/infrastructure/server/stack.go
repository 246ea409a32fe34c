package server

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/docext/internal/config"
	"github.com/GriffinCanCode/docext/internal/domain/loader"
	"github.com/GriffinCanCode/docext/internal/domain/registry"
	"github.com/GriffinCanCode/docext/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/docext/internal/infrastructure/resilience"
	httpclient "github.com/GriffinCanCode/docext/internal/providers/http/client"
	"github.com/GriffinCanCode/docext/internal/providers/install"
	"github.com/GriffinCanCode/docext/internal/providers/sandbox"
)

// Stack is the library loading pipeline shared by the server and the CLI
type Stack struct {
	Registry    *registry.Registry
	Client      *httpclient.Client
	Fetcher     *install.HTTPFetcher
	Namespace   *sandbox.Namespace
	Installer   *install.ScriptInstaller
	Coordinator *loader.Coordinator
}

// NewStack builds the registry, fetch client, namespace and coordinator
// from cfg. metrics may be nil.
func NewStack(cfg *config.Config, logger *zap.Logger, metrics *monitoring.Metrics) (*Stack, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	reg, err := registry.Build(cfg.Loader.Catalog)
	if err != nil {
		return nil, fmt.Errorf("failed to build library registry: %w", err)
	}

	clientCfg := httpClientConfig(cfg.Loader)
	clientCfg.Breaker.OnStateChange = func(host string, from, to resilience.State) {
		logger.Warn("circuit breaker state changed",
			zap.String("host", host),
			zap.Stringer("from", from),
			zap.Stringer("to", to),
		)
		if metrics != nil {
			metrics.SetBreakerState(host, int(to))
		}
	}
	client := httpclient.NewClient(clientCfg, logger)

	fetcher := install.NewHTTPFetcher(client, cfg.Loader.CacheTTL).WithLogger(logger)
	ns := sandbox.New(sandbox.Config{
		Timeout:       cfg.Sandbox.Timeout,
		EnableConsole: cfg.Sandbox.EnableConsole,
		MaxCallStack:  cfg.Sandbox.MaxCallStack,
	})
	installer := install.NewScriptInstaller(fetcher, ns, cfg.Loader.InstallTimeout).WithLogger(logger)
	coord := loader.New(reg, installer).WithLogger(logger)

	if metrics != nil {
		fetcher.WithMetrics(metrics)
		coord.WithMetrics(metrics)
	}

	return &Stack{
		Registry:    reg,
		Client:      client,
		Fetcher:     fetcher,
		Namespace:   ns,
		Installer:   installer,
		Coordinator: coord,
	}, nil
}

// Close releases the namespace
func (s *Stack) Close() error {
	return s.Namespace.Close()
}

func httpClientConfig(cfg config.LoaderConfig) httpclient.Config {
	out := httpclient.DefaultConfig()
	out.Timeout = cfg.FetchTimeout
	out.MaxRetries = cfg.MaxRetries
	out.RateLimit = cfg.RequestsPerSec
	out.MaxBodySize = install.MaxSourceSize
	if cfg.UserAgent != "" {
		out.UserAgent = cfg.UserAgent
	}

	threshold := cfg.BreakerThreshold
	if threshold == 0 {
		threshold = 5
	}
	out.Breaker.ReadyToTrip = func(counts resilience.Counts) bool {
		return counts.ConsecutiveFailures >= threshold
	}
	if cfg.BreakerCooldown > 0 {
		out.Breaker.Timeout = cfg.BreakerCooldown
	}
	return out
}
