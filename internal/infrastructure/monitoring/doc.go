/*
Package monitoring provides Prometheus metrics for docext.

Each Metrics value owns its registry, so tests and multiple servers in one
process do not collide on registration.

# Metrics

  - HTTP requests by route template, status and size
  - EnsureLoaded calls by outcome, installs by result and duration
  - Libraries loaded and installs in flight
  - Source fetches by host (cache hit, ok, error) and per-host breaker state
  - Snippet runs and duration
  - WebSocket connections and messages

# Usage

	metrics := monitoring.NewMetrics()
	router.Use(monitoring.Middleware(metrics))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	coord := loader.New(reg, installer).WithMetrics(metrics)
*/
package monitoring
