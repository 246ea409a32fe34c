// Package config provides 12-factor configuration management for docext.
//
// Configuration is loaded from environment variables with sensible defaults.
// CLI flags can override environment variables for development flexibility.
//
// Configuration Sections:
//   - Server: HTTP server settings (port, host, shutdown, CORS)
//   - Loader: Library catalog, fetch retries, timeouts, source cache
//   - Sandbox: Snippet execution limits
//   - Logging: Log level and output format
//   - RateLimit: Per-IP rate limiting configuration
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	fmt.Printf("Server running on %s:%s\n", cfg.Server.Host, cfg.Server.Port)
//
// Environment Variables:
//   - PORT, HOST, SHUTDOWN_TIMEOUT, CORS_ORIGINS
//   - LIBRARY_CATALOG, FETCH_TIMEOUT, INSTALL_TIMEOUT, FETCH_RETRIES, FETCH_RPS
//   - SOURCE_CACHE_TTL, FETCH_USER_AGENT, BREAKER_THRESHOLD, BREAKER_COOLDOWN
//   - SNIPPET_TIMEOUT, SNIPPET_CONSOLE, SNIPPET_MAX_STACK
//   - LOG_LEVEL, LOG_DEV
//   - RATE_LIMIT_RPS, RATE_LIMIT_BURST, RATE_LIMIT_ENABLED
package config
