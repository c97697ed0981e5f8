// Package instrumentation provides OpenTelemetry instrumentation for the
// inboxtriage service.
//
// This package enables production-grade observability through:
//   - OpenTelemetry metrics for HTTP requests, OAuth exchanges, Gmail API
//     calls, and message classification
//   - Distributed tracing for processing runs and backend calls
//   - Prometheus metrics export via /metrics endpoint on a dedicated port
//   - OTLP export support for modern observability platforms
//
// # Metrics
//
// The package exposes the following metric categories:
//
// Server/HTTP Metrics:
//   - http_requests_total: Counter of HTTP requests by method, path, and status
//   - http_request_duration_seconds: Histogram of HTTP request durations
//
// Gmail API Metrics:
//   - gmail_api_operations_total: Counter of Gmail API operations by operation and status
//   - gmail_api_operation_duration_seconds: Histogram of Gmail API operation durations
//
// OAuth Metrics:
//   - oauth_exchanges_total: Counter of authorization code exchanges by result
//
// Triage Metrics:
//   - messages_processed_total: Counter of processed messages by category, backend, status
//   - classification_tokens_total: Counter of LLM tokens consumed by backend
//   - classification_cost_dollars_total: Counter of estimated classification cost by backend
//   - classification_duration_seconds: Histogram of classification request durations
//   - classification_retries_total: Counter of primary backend retry attempts
//
// # Tracing
//
// Distributed tracing spans are created for:
//   - HTTP request handling
//   - Triage processing runs (triage.<operation>)
//   - Gmail API calls (gmail.<operation>)
//   - Classification backend calls (classify.<backend>)
//
// # Configuration
//
// Instrumentation can be configured via environment variables:
//   - INSTRUMENTATION_ENABLED: Enable/disable instrumentation (default: true)
//   - METRICS_EXPORTER: Metrics exporter type (prometheus, otlp, stdout, default: prometheus)
//   - TRACING_EXPORTER: Tracing exporter type (otlp, stdout, none, default: none)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OTLP endpoint for traces/metrics
//   - OTEL_TRACES_SAMPLER_ARG: Sampling rate (0.0 to 1.0, default: 0.1)
//   - OTEL_SERVICE_NAME: Service name (default: inboxtriage)
//
// # Example Usage
//
//	provider, err := instrumentation.NewProvider(ctx, instrumentation.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	defer provider.Shutdown(ctx)
//
//	recorder := provider.Metrics()
//	recorder.RecordHTTPRequest(ctx, "POST", "/api/process", 200, time.Since(start))
//	recorder.RecordMessageProcessed(ctx, "Newsletter", "groq", instrumentation.StatusSuccess)
package instrumentation
