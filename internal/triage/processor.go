package triage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"

	"github.com/mhenke/inboxtriage/internal/classify"
	"github.com/mhenke/inboxtriage/internal/gmail"
	"github.com/mhenke/inboxtriage/internal/instrumentation"
	"github.com/mhenke/inboxtriage/internal/logging"
)

// DefaultBatchSize bounds how many messages one processing pass handles.
const DefaultBatchSize = 10

// ErrorCategory is the sentinel category recorded on a failed result.
const ErrorCategory = "Error"

// ErrMessageNotFound is returned when a specific message identifier is not in
// the current unread-and-unlabeled set.
var ErrMessageNotFound = errors.New("message not found in unread inbox")

// Mailbox is the mail provider surface the processor depends on. It is
// satisfied by *gmail.Client and by test fakes.
type Mailbox interface {
	Profile(ctx context.Context) (string, error)
	ListLabels(ctx context.Context) ([]gmail.LabelInfo, error)
	ListMessageIDs(ctx context.Context, query string, maxResults int64) ([]string, error)
	GetMessage(ctx context.Context, messageID string) (*gmail.MessageDetail, error)
	EnsureLabel(ctx context.Context, name string) (string, error)
	ApplyLabelAndMarkRead(ctx context.Context, messageID, labelID string) error
}

// Classifier assigns a category to a message. Satisfied by
// *classify.Classifier.
type Classifier interface {
	Classify(ctx context.Context, subject, sender, body string) classify.Outcome
}

// Result is the canonical per-message record returned to the caller. The
// Error field is set iff the message's pipeline failed; token and cost fields
// are present only when a paid backend produced the category.
type Result struct {
	ID       string  `json:"emailId"`
	Subject  string  `json:"subject"`
	Category string  `json:"category"`
	Labeled  bool    `json:"labeled"`
	Backend  string  `json:"backend,omitempty"`
	Tokens   int64   `json:"tokens,omitempty"`
	Cost     float64 `json:"cost,omitempty"`
	Error    string  `json:"error,omitempty"`
}

// Succeeded reports whether the message's pipeline completed.
func (r Result) Succeeded() bool {
	return r.Error == ""
}

// Processor orchestrates one inbox pass: list unread messages not yet carrying
// a managed label, then classify and label each one sequentially. Dependencies
// are injected so backends can be substituted in tests.
type Processor struct {
	mailbox    Mailbox
	classifier Classifier
	logger     *slog.Logger
	metrics    *instrumentation.Metrics
	batchSize  int64
	dryRun     bool
}

// ProcessorOption configures a Processor.
type ProcessorOption func(*Processor)

// WithLogger sets the processor's logger.
func WithLogger(logger *slog.Logger) ProcessorOption {
	return func(p *Processor) {
		p.logger = logger
	}
}

// WithMetrics attaches an instrumentation recorder for per-message metrics.
func WithMetrics(metrics *instrumentation.Metrics) ProcessorOption {
	return func(p *Processor) {
		p.metrics = metrics
	}
}

// WithBatchSize overrides the batch ceiling.
func WithBatchSize(size int64) ProcessorOption {
	return func(p *Processor) {
		if size > 0 {
			p.batchSize = size
		}
	}
}

// WithDryRun classifies messages without creating or applying labels.
func WithDryRun(dryRun bool) ProcessorOption {
	return func(p *Processor) {
		p.dryRun = dryRun
	}
}

// NewProcessor creates a processor over the given mailbox and classifier.
func NewProcessor(mailbox Mailbox, classifier Classifier, opts ...ProcessorOption) *Processor {
	p := &Processor{
		mailbox:    mailbox,
		classifier: classifier,
		logger:     slog.Default(),
		batchSize:  DefaultBatchSize,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ProcessInbox runs one batch: list unread messages that do not yet carry a
// managed category label, then run the per-message pipeline on each, in
// listing order. A single message's failure is recorded in its Result and
// never aborts the batch. Returns the results and the account email.
func (p *Processor) ProcessInbox(ctx context.Context) ([]Result, string, error) {
	email, ids, err := p.listBatch(ctx)
	if err != nil {
		return nil, "", err
	}

	ctx, span := instrumentation.StartProcessSpan(ctx, "inbox",
		attribute.Int(instrumentation.SpanAttrBatchSize, len(ids)))
	defer span.End()

	logger := logging.WithOperation(p.logger, "triage.process_inbox")
	logger.Info("processing inbox batch",
		slog.Int("messages", len(ids)),
		logging.UserHash(email),
		slog.String("trace_id", instrumentation.GetTraceID(ctx)))

	results := make([]Result, 0, len(ids))
	for _, id := range ids {
		results = append(results, p.processMessage(ctx, id, email))
	}

	instrumentation.SetSpanSuccess(span)
	return results, email, nil
}

// ProcessMessage runs the single-message pipeline for the given identifier,
// provided it is part of the current unread-and-unlabeled set. Returns
// ErrMessageNotFound otherwise.
func (p *Processor) ProcessMessage(ctx context.Context, messageID string) ([]Result, string, error) {
	email, ids, err := p.listBatch(ctx)
	if err != nil {
		return nil, "", err
	}

	for _, id := range ids {
		if id == messageID {
			ctx, span := instrumentation.StartProcessSpan(ctx, "message",
				attribute.String(instrumentation.SpanAttrMessageID, messageID))
			defer span.End()

			result := p.processMessage(ctx, id, email)
			instrumentation.SetSpanSuccess(span)
			return []Result{result}, email, nil
		}
	}

	return nil, email, fmt.Errorf("%w: %s", ErrMessageNotFound, messageID)
}

// listBatch resolves the account email (best-effort) and lists the batch of
// unread message identifiers that do not yet carry a managed label.
func (p *Processor) listBatch(ctx context.Context) (string, []string, error) {
	email, err := p.mailbox.Profile(ctx)
	if err != nil {
		// Absence of the account email does not abort processing.
		p.logger.Warn("failed to resolve account email", logging.Err(err))
		email = ""
	}

	exclude, err := p.managedLabels(ctx)
	if err != nil {
		return "", nil, err
	}

	query := gmail.BuildUnreadQuery(exclude)
	ids, err := p.mailbox.ListMessageIDs(ctx, query, p.batchSize)
	if err != nil {
		return "", nil, fmt.Errorf("failed to list unread messages: %w", err)
	}

	return email, ids, nil
}

// managedLabels returns the category names that already exist as labels on
// the account. Messages bearing one of these were classified earlier.
func (p *Processor) managedLabels(ctx context.Context) ([]string, error) {
	labels, err := p.mailbox.ListLabels(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list labels: %w", err)
	}

	var managed []string
	for _, l := range labels {
		if classify.ValidCategory(l.Name) {
			managed = append(managed, l.Name)
		}
	}
	return managed, nil
}

// processMessage runs the per-message pipeline. Errors are converted into a
// failed Result at this boundary.
func (p *Processor) processMessage(ctx context.Context, messageID, email string) Result {
	logger := p.logger.With(logging.MessageID(messageID))
	audit := instrumentation.NewMessageAudit(messageID).
		WithUser(email).
		WithSpanContext(ctx)

	msg, err := p.mailbox.GetMessage(ctx, messageID)
	if err != nil {
		return p.failed(ctx, logger, audit, messageID, "", err)
	}

	outcome := p.classifier.Classify(ctx, msg.Subject, msg.Sender, msg.Body)

	result := Result{
		ID:       messageID,
		Subject:  msg.Subject,
		Category: outcome.Category.String(),
		Backend:  outcome.Backend,
		Tokens:   outcome.Tokens,
		Cost:     outcome.Cost,
	}

	if !p.dryRun {
		labelID, err := p.mailbox.EnsureLabel(ctx, outcome.Category.String())
		if err != nil {
			return p.failed(ctx, logger, audit, messageID, msg.Subject, err)
		}
		if err := p.mailbox.ApplyLabelAndMarkRead(ctx, messageID, labelID); err != nil {
			return p.failed(ctx, logger, audit, messageID, msg.Subject, err)
		}
		result.Labeled = true
		instrumentation.AddSpanEvent(ctx, "label applied",
			attribute.String(instrumentation.SpanAttrCategory, result.Category))
	}

	audit.WithOutcome(result.Category, result.Backend, result.Labeled).CompleteSuccess()
	logger.LogAttrs(ctx, slog.LevelInfo, "message classified", audit.LogAttrs()...)

	if p.metrics != nil {
		p.metrics.RecordMessageProcessedWithAccount(ctx, result.Category, result.Backend, instrumentation.StatusSuccess, email)
		p.metrics.RecordClassificationUsage(ctx, result.Backend, result.Tokens, result.Cost)
	}

	return result
}

// failed converts a per-message pipeline error into a failed Result.
func (p *Processor) failed(ctx context.Context, logger *slog.Logger, audit *instrumentation.MessageAudit, messageID, subject string, err error) Result {
	audit.WithOutcome(ErrorCategory, "", false).CompleteError(err)
	logger.LogAttrs(ctx, slog.LevelWarn, "message processing failed", audit.LogAttrs()...)

	if p.metrics != nil {
		p.metrics.RecordMessageProcessed(ctx, ErrorCategory, "", instrumentation.StatusError)
	}

	return Result{
		ID:       messageID,
		Subject:  subject,
		Category: ErrorCategory,
		Error:    err.Error(),
	}
}
