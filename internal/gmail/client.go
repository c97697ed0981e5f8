package gmail

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/oauth2"
	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/mhenke/inboxtriage/internal/instrumentation"
)

// Client wraps the Gmail Users service
type Client struct {
	svc     *gmail.UsersService
	metrics *instrumentation.Metrics
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithClientMetrics attaches an instrumentation recorder to the client so
// every Gmail API call is counted and timed.
func WithClientMetrics(metrics *instrumentation.Metrics) ClientOption {
	return func(c *Client) {
		c.metrics = metrics
	}
}

// NewClient creates a new Gmail client authorized by the given token source
func NewClient(ctx context.Context, ts oauth2.TokenSource, opts ...ClientOption) (*Client, error) {
	svc, err := gmail.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gmail service: %w", err)
	}

	c := &Client{svc: svc.Users}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// NewClientWithAccessToken creates a Gmail client from a bare bearer access
// token, as supplied by the processing endpoint or the session cookie.
func NewClientWithAccessToken(ctx context.Context, accessToken string, opts ...ClientOption) (*Client, error) {
	if accessToken == "" {
		return nil, fmt.Errorf("access token is required")
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: accessToken,
		TokenType:   "Bearer",
	})
	return NewClient(ctx, ts, opts...)
}

// instrument opens a client span for one Gmail API call and returns the
// completion callback that records the span status and operation metrics.
func (c *Client) instrument(ctx context.Context, op string) (context.Context, func(error)) {
	ctx, span := instrumentation.StartGmailSpan(ctx, op)
	start := time.Now()

	return ctx, func(err error) {
		if err != nil {
			instrumentation.SetSpanError(span, err)
		} else {
			instrumentation.SetSpanSuccess(span)
		}
		span.End()

		if c.metrics != nil {
			status := instrumentation.StatusSuccess
			if err != nil {
				status = instrumentation.StatusError
			}
			c.metrics.RecordGmailOperation(ctx, op, status, time.Since(start))
		}
	}
}

// Profile returns the email address of the authorized account.
func (c *Client) Profile(ctx context.Context) (string, error) {
	ctx, done := c.instrument(ctx, instrumentation.OperationProfile)
	profile, err := c.svc.GetProfile("me").Context(ctx).Do()
	done(err)
	if err != nil {
		return "", fmt.Errorf("failed to get profile: %w", err)
	}
	return profile.EmailAddress, nil
}

// ListMessageIDs lists the identifiers of messages matching the query, up to
// maxResults, making multiple API calls if necessary.
func (c *Client) ListMessageIDs(ctx context.Context, q string, maxResults int64) (ids []string, err error) {
	ctx, done := c.instrument(ctx, instrumentation.OperationList)
	defer func() { done(err) }()

	pageToken := ""

	for {
		remaining := maxResults - int64(len(ids))
		if remaining <= 0 {
			break
		}

		// Gmail API has a max page size, typically 100
		pageSize := remaining
		if pageSize > 100 {
			pageSize = 100
		}

		req := c.svc.Messages.List("me").Q(q).MaxResults(pageSize).Context(ctx)
		if pageToken != "" {
			req = req.PageToken(pageToken)
		}

		res, listErr := req.Do()
		if listErr != nil {
			err = fmt.Errorf("failed to list messages: %w", listErr)
			return nil, err
		}

		for _, m := range res.Messages {
			ids = append(ids, m.Id)
		}

		if res.NextPageToken == "" || int64(len(ids)) >= maxResults {
			break
		}
		pageToken = res.NextPageToken
	}

	if int64(len(ids)) > maxResults {
		ids = ids[:maxResults]
	}

	return ids, nil
}

// GetMessage retrieves a full Gmail message and reduces it to the detail the
// pipeline needs: subject, sender and extracted body text.
func (c *Client) GetMessage(ctx context.Context, messageID string) (*MessageDetail, error) {
	ctx, done := c.instrument(ctx, instrumentation.OperationGet)
	msg, err := c.svc.Messages.Get("me", messageID).Format("full").Context(ctx).Do()
	done(err)
	if err != nil {
		return nil, fmt.Errorf("failed to get message %s: %w", messageID, err)
	}
	return messageDetail(msg), nil
}

// ApplyLabelAndMarkRead adds the given label to a message and removes the
// UNREAD marker in a single modify call.
func (c *Client) ApplyLabelAndMarkRead(ctx context.Context, messageID, labelID string) error {
	ctx, done := c.instrument(ctx, instrumentation.OperationModify)
	_, err := c.svc.Messages.Modify("me", messageID, &gmail.ModifyMessageRequest{
		AddLabelIds:    []string{labelID},
		RemoveLabelIds: []string{"UNREAD"},
	}).Context(ctx).Do()
	done(err)
	if err != nil {
		return fmt.Errorf("failed to modify message %s: %w", messageID, err)
	}
	return nil
}
