/*
Package loader coordinates on-demand loading of registry libraries.

# Overview

A Coordinator tracks one LoadState per library identifier and guarantees that
at most one fetch-and-install runs for an identifier at a time, no matter how
many callers ask for it concurrently.

# States

	Unloaded --[EnsureLoaded]--> Loading --[install ok]--> Loaded
	                                |
	                          [install failed]
	                                |
	                                v
	                            Unloaded (entry removed, next call retries)

Loaded is terminal for the lifetime of the Coordinator.

# Concurrency

The check-then-record step runs under a single mutex. The Loading entry
carries a pending handle that resolves exactly once; every caller that finds
the entry waits on that handle and adopts its outcome.

A caller whose context ends stops waiting and receives ctx.Err(). The install
itself is never aborted: it runs on a context detached from caller
cancellation and must enforce its own timeout.

# Usage

	coord := loader.New(reg, installer).
		WithLogger(logger).
		WithMetrics(metrics)

	if err := coord.EnsureLoaded(ctx, "react"); err != nil {
		var ierr *loader.InstallError
		switch {
		case errors.Is(err, loader.ErrNotFound):
			// unknown identifier
		case errors.As(err, &ierr):
			// fetch or evaluation failed; a later call may retry
		}
	}
*/
package loader
