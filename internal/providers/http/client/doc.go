// Package client provides the HTTP client used to download library sources.
//
// Built on go-resty/resty over a hashicorp/go-retryablehttp transport:
//   - Retries with exponential backoff on connection errors and 5xx
//   - Client-wide rate limiting (golang.org/x/time/rate)
//   - One circuit breaker per upstream host
//   - Context-based cancellation
//
// Example Usage:
//
//	c := client.NewClient(client.DefaultConfig(), logger)
//	resp, err := c.Get(ctx, "https://unpkg.com/react@18.2.0/umd/react.production.min.js")
package client
