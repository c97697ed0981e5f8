package instrumentation

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric attribute keys shared across metrics.
const (
	attrMethod   = "method"
	attrPath     = "path"
	attrStatus   = "status"
	attrService  = "service"
	attrOp       = "operation"
	attrResult   = "result"
	attrCategory = "category"
	attrBackend  = "backend"
	attrAccount  = "account"
)

// Metrics provides methods for recording observability metrics.
// The zero value is a no-op recorder; every method checks for
// uninitialized instruments before recording.
type Metrics struct {
	// HTTP metrics
	httpRequestsTotal   metric.Int64Counter
	httpRequestDuration metric.Float64Histogram

	// Gmail API metrics
	gmailOperationsTotal   metric.Int64Counter
	gmailOperationDuration metric.Float64Histogram

	// OAuth metrics
	oauthExchangesTotal metric.Int64Counter

	// Triage metrics
	messagesProcessedTotal   metric.Int64Counter
	classificationTokens     metric.Int64Counter
	classificationCost       metric.Float64Counter
	classificationDuration   metric.Float64Histogram
	classificationRetryTotal metric.Int64Counter

	// detailedLabels controls whether high-cardinality labels are included
	detailedLabels bool
}

// NewMetrics creates a new Metrics instance with all instruments registered.
// The detailedLabels parameter controls whether high-cardinality labels are included.
func NewMetrics(meter metric.Meter, detailedLabels bool) (*Metrics, error) {
	m := &Metrics{
		detailedLabels: detailedLabels,
	}

	var err error

	// HTTP metrics
	m.httpRequestsTotal, err = meter.Int64Counter(
		"http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http_requests_total counter: %w", err)
	}

	m.httpRequestDuration, err = meter.Float64Histogram(
		"http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.01, 0.1, 0.5, 1.0, 2.5, 5.0, 10.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http_request_duration_seconds histogram: %w", err)
	}

	// Gmail API metrics
	m.gmailOperationsTotal, err = meter.Int64Counter(
		"gmail_api_operations_total",
		metric.WithDescription("Total number of Gmail API operations"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create gmail_api_operations_total counter: %w", err)
	}

	m.gmailOperationDuration, err = meter.Float64Histogram(
		"gmail_api_operation_duration_seconds",
		metric.WithDescription("Gmail API operation duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create gmail_api_operation_duration_seconds histogram: %w", err)
	}

	// OAuth metrics
	m.oauthExchangesTotal, err = meter.Int64Counter(
		"oauth_exchanges_total",
		metric.WithDescription("Total number of OAuth code exchange attempts"),
		metric.WithUnit("{attempt}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create oauth_exchanges_total counter: %w", err)
	}

	// Triage metrics
	m.messagesProcessedTotal, err = meter.Int64Counter(
		"messages_processed_total",
		metric.WithDescription("Total number of inbox messages processed"),
		metric.WithUnit("{message}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create messages_processed_total counter: %w", err)
	}

	m.classificationTokens, err = meter.Int64Counter(
		"classification_tokens_total",
		metric.WithDescription("Total number of LLM tokens consumed by classification"),
		metric.WithUnit("{token}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create classification_tokens_total counter: %w", err)
	}

	m.classificationCost, err = meter.Float64Counter(
		"classification_cost_dollars_total",
		metric.WithDescription("Estimated cumulative classification cost in US dollars"),
		metric.WithUnit("{dollar}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create classification_cost_dollars_total counter: %w", err)
	}

	m.classificationDuration, err = meter.Float64Histogram(
		"classification_duration_seconds",
		metric.WithDescription("Classification request duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create classification_duration_seconds histogram: %w", err)
	}

	m.classificationRetryTotal, err = meter.Int64Counter(
		"classification_retries_total",
		metric.WithDescription("Total number of classification retry attempts"),
		metric.WithUnit("{attempt}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create classification_retries_total counter: %w", err)
	}

	return m, nil
}

// RecordHTTPRequest records an HTTP request with method, path, status code, and duration.
func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, path string, statusCode int, duration time.Duration) {
	if m.httpRequestsTotal == nil || m.httpRequestDuration == nil {
		return // Instrumentation not initialized
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrMethod, method),
		attribute.String(attrPath, path),
		attribute.String(attrStatus, strconv.Itoa(statusCode)),
	}

	m.httpRequestsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.httpRequestDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordGmailOperation records a Gmail API operation with operation name,
// status, and duration.
//
// Parameters:
//   - operation: Operation type (list, get, modify, labels.list, labels.create, profile)
//   - status: Result status ("success" or "error")
//   - duration: Time taken for the operation
func (m *Metrics) RecordGmailOperation(ctx context.Context, operation, status string, duration time.Duration) {
	if m.gmailOperationsTotal == nil || m.gmailOperationDuration == nil {
		return // Instrumentation not initialized
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrService, ServiceGmail),
		attribute.String(attrOp, operation),
		attribute.String(attrStatus, status),
	}

	m.gmailOperationsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.gmailOperationDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordOAuthExchange records an OAuth authorization code exchange attempt.
// Result should be one of: "success", "failure"
func (m *Metrics) RecordOAuthExchange(ctx context.Context, result string) {
	if m.oauthExchangesTotal == nil {
		return // Instrumentation not initialized
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrResult, result),
	}

	m.oauthExchangesTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordMessageProcessed records a processed inbox message with its assigned
// category, the backend that produced the classification, and the outcome.
//
// Parameters:
//   - category: Assigned category name, or "Error" for failed messages
//   - backend: Classification backend ("gemini", "groq", "fallback", or empty on failure)
//   - status: Result status ("success" or "error")
func (m *Metrics) RecordMessageProcessed(ctx context.Context, category, backend, status string) {
	if m.messagesProcessedTotal == nil {
		return // Instrumentation not initialized
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrCategory, category),
		attribute.String(attrBackend, backend),
		attribute.String(attrStatus, status),
	}

	m.messagesProcessedTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordClassificationUsage records token consumption and estimated cost for a
// single classification.
func (m *Metrics) RecordClassificationUsage(ctx context.Context, backend string, tokens int64, cost float64) {
	if m.classificationTokens == nil || m.classificationCost == nil {
		return // Instrumentation not initialized
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrBackend, backend),
	}

	m.classificationTokens.Add(ctx, tokens, metric.WithAttributes(attrs...))
	m.classificationCost.Add(ctx, cost, metric.WithAttributes(attrs...))
}

// RecordClassificationDuration records the time taken by a classification
// request against a single backend.
func (m *Metrics) RecordClassificationDuration(ctx context.Context, backend, status string, duration time.Duration) {
	if m.classificationDuration == nil {
		return // Instrumentation not initialized
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrBackend, backend),
		attribute.String(attrStatus, status),
	}

	m.classificationDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordClassificationRetry records a retry attempt against the primary backend.
func (m *Metrics) RecordClassificationRetry(ctx context.Context, backend string) {
	if m.classificationRetryTotal == nil {
		return // Instrumentation not initialized
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrBackend, backend),
	}

	m.classificationRetryTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordMessageProcessedWithAccount records a processed message including the
// owning account. The account label is only attached when detailedLabels is
// enabled, to keep metric cardinality bounded in production.
func (m *Metrics) RecordMessageProcessedWithAccount(ctx context.Context, category, backend, status, account string) {
	if m.messagesProcessedTotal == nil {
		return // Instrumentation not initialized
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrCategory, category),
		attribute.String(attrBackend, backend),
		attribute.String(attrStatus, status),
	}

	if m.detailedLabels && account != "" {
		attrs = append(attrs, attribute.String(attrAccount, account))
	}

	m.messagesProcessedTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
}
