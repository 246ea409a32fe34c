// Package install implements the fetch-and-install primitive used by the
// load coordinator.
//
// HTTPFetcher downloads a library bundle through the resilient HTTP client,
// decompresses gzip or zstd payloads, rejects HTML and binary responses, and
// transcodes non-UTF-8 text. Decoded sources are cached by source@version.
//
// ScriptInstaller evaluates the fetched source into the shared sandbox
// namespace under the descriptor's global name. A library whose global is
// already present is treated as installed without fetching.
//
//	fetcher := install.NewHTTPFetcher(httpClient, 30*time.Minute)
//	installer := install.NewScriptInstaller(fetcher, namespace, 30*time.Second)
//	coord := loader.New(reg, installer)
package install
