// Package observability exports traces and metrics over OTLP/HTTP.
//
// The Component installs the global providers on Start and flushes them on
// Stop. Until then, and when disabled, the OpenTelemetry no-op providers
// stay in place, so spans and instruments can be created unconditionally:
//
//	ctx, span := observability.StartSpan(ctx, observability.SpanDispatch)
//	defer span.End()
//	metrics.CaptureStarted(ctx, speakerID)
//
// A nil *Metrics records nothing.
package observability
