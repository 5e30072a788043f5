// Package oteladapters provides OpenTelemetry implementations of the library observability interfaces:
// TracingCollector for spans, MetricsCollector for instruments, and two ContextualLogger variants.
//
//	lib, err := library.Open(store,
//		library.WithTracing(oteladapters.NewTracingCollector(otel.Tracer("library"))),
//		library.WithMetrics(oteladapters.NewMetricsCollector(otel.Meter("library"))),
//		library.WithContextualLogger(oteladapters.NewSlogBridgeLogger("library")),
//	)
package oteladapters
