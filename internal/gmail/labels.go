package gmail

import (
	"context"
	"fmt"

	gmail "google.golang.org/api/gmail/v1"

	"github.com/mhenke/inboxtriage/internal/instrumentation"
)

// ListLabels lists all labels on the account.
func (c *Client) ListLabels(ctx context.Context) ([]LabelInfo, error) {
	ctx, done := c.instrument(ctx, instrumentation.OperationLabelList)
	resp, err := c.svc.Labels.List("me").Context(ctx).Do()
	done(err)
	if err != nil {
		return nil, fmt.Errorf("failed to list labels: %w", err)
	}

	labels := make([]LabelInfo, 0, len(resp.Labels))
	for _, l := range resp.Labels {
		labels = append(labels, LabelInfo{ID: l.Id, Name: l.Name})
	}
	return labels, nil
}

// EnsureLabel returns the identifier of the label with the given name,
// creating the label if the account does not have it yet. The account's
// labels are re-listed on every call; there is no local cache.
func (c *Client) EnsureLabel(ctx context.Context, name string) (string, error) {
	labels, err := c.ListLabels(ctx)
	if err != nil {
		return "", err
	}

	for _, l := range labels {
		if l.Name == name {
			return l.ID, nil
		}
	}

	ctx, done := c.instrument(ctx, instrumentation.OperationLabelCreate)
	created, err := c.svc.Labels.Create("me", &gmail.Label{
		Name:                  name,
		LabelListVisibility:   "labelShow",
		MessageListVisibility: "show",
	}).Context(ctx).Do()
	done(err)
	if err != nil {
		return "", fmt.Errorf("failed to create label %q: %w", name, err)
	}

	return created.Id, nil
}
