/*
Package tracing provides lightweight request tracing logged through zap.

Spans carry ULID trace and span identifiers and propagate through
context.Context and the X-Trace-ID / X-Span-ID headers. Finished spans are
buffered and logged by a collector goroutine.

# Usage

	tracer := tracing.New("docext", logger)
	defer tracer.Close()

	router.Use(tracing.HTTPMiddleware(tracer))

	span, ctx := tracer.StartSpan(ctx, "snippet.execute")
	defer func() {
		span.Finish()
		tracer.Submit(span)
	}()
*/
package tracing
