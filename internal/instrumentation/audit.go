package instrumentation

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// MessageAudit captures all information about a single triaged message for
// audit logging. This provides a trail for every classification and labeling
// decision the service makes.
//
// # Privacy Considerations
//
// The UserEmail field contains PII. When logging, consider:
//   - Using UserDomain() to get only the domain for metrics/general logs
//   - Only logging the full email in audit-specific log streams
//   - Ensuring audit logs have appropriate access controls
type MessageAudit struct {
	// Gmail message identifier
	MessageID string

	// User identity (from OAuth)
	UserEmail string

	// Triage outcome
	Category string // Assigned category, or "Error" on failure
	Backend  string // Backend that produced the classification
	Labeled  bool   // Whether the label was applied and the message marked read

	// Execution details
	StartTime time.Time
	Duration  time.Duration
	Success   bool
	Error     string

	// Tracing context
	TraceID string
	SpanID  string
}

// UserDomain returns the domain portion of the user's email for lower-cardinality logging.
func (ma *MessageAudit) UserDomain() string {
	return ExtractUserDomain(ma.UserEmail)
}

// Status returns "success" or "error" based on the Success field.
func (ma *MessageAudit) Status() string {
	if ma.Success {
		return StatusSuccess
	}
	return StatusError
}

// LogAttrs returns slog attributes for structured logging.
// It uses cardinality-controlled values (user_domain); for full audit
// logging use LogAuditAttrs.
func (ma *MessageAudit) LogAttrs() []slog.Attr {
	attrs := []slog.Attr{
		slog.String("message_id", ma.MessageID),
		slog.String("user_domain", ma.UserDomain()),
		slog.Duration("duration", ma.Duration),
		slog.Bool("success", ma.Success),
	}

	if ma.Category != "" {
		attrs = append(attrs, slog.String("category", ma.Category))
	}
	if ma.Backend != "" {
		attrs = append(attrs, slog.String("backend", ma.Backend))
	}
	if ma.TraceID != "" {
		attrs = append(attrs, slog.String("trace_id", ma.TraceID))
	}
	if ma.Error != "" {
		attrs = append(attrs, slog.String("error", ma.Error))
	}

	return attrs
}

// LogAuditAttrs returns slog attributes for full audit logging.
// This includes the full user email for compliance/audit purposes.
//
// # Security Warning
//
// This method includes PII (full email). Ensure audit logs are:
//   - Stored securely with appropriate access controls
//   - Not exposed to general monitoring dashboards
//   - Retained according to compliance requirements
func (ma *MessageAudit) LogAuditAttrs() []slog.Attr {
	attrs := []slog.Attr{
		slog.String("message_id", ma.MessageID),
		slog.String("user", ma.UserEmail),
		slog.Duration("duration", ma.Duration),
		slog.Bool("success", ma.Success),
		slog.Bool("labeled", ma.Labeled),
	}

	if ma.Category != "" {
		attrs = append(attrs, slog.String("category", ma.Category))
	}
	if ma.Backend != "" {
		attrs = append(attrs, slog.String("backend", ma.Backend))
	}
	if ma.TraceID != "" {
		attrs = append(attrs, slog.String("trace_id", ma.TraceID))
	}
	if ma.SpanID != "" {
		attrs = append(attrs, slog.String("span_id", ma.SpanID))
	}
	if ma.Error != "" {
		attrs = append(attrs, slog.String("error", ma.Error))
	}

	return attrs
}

// NewMessageAudit creates a new MessageAudit with timing started.
// Call CompleteSuccess or CompleteError when processing finishes.
func NewMessageAudit(messageID string) *MessageAudit {
	return &MessageAudit{
		MessageID: messageID,
		StartTime: time.Now(),
	}
}

// WithUser sets the user identity information.
func (ma *MessageAudit) WithUser(email string) *MessageAudit {
	ma.UserEmail = email
	return ma
}

// WithOutcome sets the classification outcome.
func (ma *MessageAudit) WithOutcome(category, backend string, labeled bool) *MessageAudit {
	ma.Category = category
	ma.Backend = backend
	ma.Labeled = labeled
	return ma
}

// WithSpanContext extracts trace context from the current span.
func (ma *MessageAudit) WithSpanContext(ctx context.Context) *MessageAudit {
	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		ma.TraceID = span.SpanContext().TraceID().String()
		ma.SpanID = span.SpanContext().SpanID().String()
	}
	return ma
}

// CompleteSuccess marks the audit record as successful and records the duration.
func (ma *MessageAudit) CompleteSuccess() *MessageAudit {
	ma.Duration = time.Since(ma.StartTime)
	ma.Success = true
	return ma
}

// CompleteError marks the audit record as failed and records the duration.
func (ma *MessageAudit) CompleteError(err error) *MessageAudit {
	ma.Duration = time.Since(ma.StartTime)
	ma.Success = false
	if err != nil {
		ma.Error = err.Error()
	}
	return ma
}
