// Package main is the entry point for the docext backend server.
//
// The server keeps a registry of third-party UI libraries, loads each one
// at most once into a shared script namespace, and runs document snippets
// against the loaded libraries.
//
// The server provides:
//   - REST API for library listing, loading and snippet execution
//   - WebSocket stream of library load state
//   - Prometheus metrics
//   - Rate limiting and CORS
//
// Configuration:
//   - Environment variables (12-factor)
//   - CLI flags (override env vars)
//   - Defaults for development
//
// Usage:
//
//	# Production mode
//	./server -port 8000 -catalog 'catalogs/**/*.yaml'
//
//	# Development mode (colored logs, debug level)
//	./server -dev -log-level debug
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
