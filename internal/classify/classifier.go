package classify

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/mhenke/inboxtriage/internal/instrumentation"
	"github.com/mhenke/inboxtriage/internal/logging"
)

const (
	// BackendFallback tags outcomes produced by the static default when
	// every configured backend has been exhausted.
	BackendFallback = "fallback"

	// primaryRetries is the number of additional attempts against the
	// primary backend after its first call failed or returned an invalid
	// category.
	primaryRetries = 2

	// retryDelay is the fixed pause between primary backend attempts.
	retryDelay = 2 * time.Second
)

// Outcome is the result of classifying one message. It is produced exactly
// once per message and never mutated.
type Outcome struct {
	Category Category
	Backend  string
	Tokens   int64
	Cost     float64
}

// Classifier runs the prompt through a chain of backends and falls back to a
// static default category when the chain is exhausted. Backends are tried in
// order; the last entry is the primary and is retried with a fixed delay.
type Classifier struct {
	backends   []Backend
	logger     *slog.Logger
	metrics    *instrumentation.Metrics
	trackUsage bool
	sleep      func(time.Duration)
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithLogger sets the logger used for swallowed backend failures.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Classifier) {
		c.logger = logger
	}
}

// WithMetrics attaches an instrumentation recorder for per-attempt duration
// and retry metrics.
func WithMetrics(metrics *instrumentation.Metrics) Option {
	return func(c *Classifier) {
		c.metrics = metrics
	}
}

// WithoutUsageAccounting disables token and cost reporting and drops the
// excerpt truncation marker from prompts. This reproduces the single-backend
// processing mode, kept selectable rather than merged with the default mode.
func WithoutUsageAccounting() Option {
	return func(c *Classifier) {
		c.trackUsage = false
	}
}

// NewClassifier creates a classifier over the given backend chain. Backends
// are tried in order and the final one is treated as the primary.
func NewClassifier(backends []Backend, opts ...Option) *Classifier {
	c := &Classifier{
		backends:   backends,
		logger:     slog.Default(),
		trackUsage: true,
		sleep:      time.Sleep,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classify assigns a category to the message described by subject, sender and
// body. It never fails: invalid replies and transport errors degrade through
// the backend chain, and an exhausted chain yields the default category with
// the fallback backend tag and zero usage.
func (c *Classifier) Classify(ctx context.Context, subject, sender, body string) Outcome {
	prompt := buildPrompt(subject, sender, excerpt(body, c.trackUsage))

	for i, backend := range c.backends {
		attempts := 1
		if i == len(c.backends)-1 {
			attempts += primaryRetries
		}

		logger := logging.WithService(c.logger, backend.Name())

		for attempt := 0; attempt < attempts; attempt++ {
			if attempt > 0 {
				c.sleep(retryDelay)
				if c.metrics != nil {
					c.metrics.RecordClassificationRetry(ctx, backend.Name())
				}
			}

			attemptCtx, span := instrumentation.StartClassifySpan(ctx, backend.Name())
			start := time.Now()
			reply, usage, err := backend.Classify(attemptCtx, prompt)
			if c.metrics != nil {
				status := instrumentation.StatusSuccess
				if err != nil {
					status = instrumentation.StatusError
				}
				c.metrics.RecordClassificationDuration(ctx, backend.Name(), status, time.Since(start))
			}
			if err != nil {
				instrumentation.SetSpanError(span, err)
			} else {
				instrumentation.SetSpanSuccess(span)
			}
			span.End()

			if err != nil {
				logger.Warn("classification attempt failed",
					logging.Err(err),
					logging.Status(logging.StatusError),
					slog.Int("attempt", attempt+1))
				continue
			}

			name := strings.TrimSpace(reply)
			if !ValidCategory(name) {
				logger.Warn("backend returned invalid category",
					logging.Category(name),
					slog.Int("attempt", attempt+1))
				continue
			}

			outcome := Outcome{
				Category: Category(name),
				Backend:  backend.Name(),
			}
			if c.trackUsage {
				outcome.Tokens = usage.TotalTokens
				if outcome.Tokens == 0 {
					outcome.Tokens = usage.PromptTokens + usage.CompletionTokens
				}
				outcome.Cost = backend.Cost(usage)
			}
			return outcome
		}
	}

	c.logger.Warn("all classification backends exhausted, using default category",
		logging.Category(string(DefaultCategory)),
		logging.Backend(BackendFallback))

	return Outcome{
		Category: DefaultCategory,
		Backend:  BackendFallback,
	}
}
