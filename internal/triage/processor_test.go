package triage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mhenke/inboxtriage/internal/classify"
	"github.com/mhenke/inboxtriage/internal/gmail"
)

// fakeMailbox is an in-memory Mailbox with scripted failures.
type fakeMailbox struct {
	email      string
	profileErr error

	labels    []gmail.LabelInfo
	listErr   error
	unreadIDs []string

	messages map[string]*gmail.MessageDetail
	getErrs  map[string]error

	ensureErrs map[string]error
	createdIDs map[string]string

	applied     map[string]string
	applyErrs   map[string]error
	gotQuery    string
	gotMax      int64
	nextLabelID int
}

func newFakeMailbox() *fakeMailbox {
	return &fakeMailbox{
		email:      "jane@example.com",
		messages:   make(map[string]*gmail.MessageDetail),
		getErrs:    make(map[string]error),
		ensureErrs: make(map[string]error),
		createdIDs: make(map[string]string),
		applied:    make(map[string]string),
		applyErrs:  make(map[string]error),
	}
}

func (f *fakeMailbox) addMessage(id, subject string) {
	f.unreadIDs = append(f.unreadIDs, id)
	f.messages[id] = &gmail.MessageDetail{
		ID:      id,
		Subject: subject,
		Sender:  "sender@example.com",
		Body:    "message body for " + subject,
	}
}

func (f *fakeMailbox) Profile(_ context.Context) (string, error) {
	if f.profileErr != nil {
		return "", f.profileErr
	}
	return f.email, nil
}

func (f *fakeMailbox) ListLabels(_ context.Context) ([]gmail.LabelInfo, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.labels, nil
}

func (f *fakeMailbox) ListMessageIDs(_ context.Context, query string, maxResults int64) ([]string, error) {
	f.gotQuery = query
	f.gotMax = maxResults
	if int64(len(f.unreadIDs)) > maxResults {
		return f.unreadIDs[:maxResults], nil
	}
	return f.unreadIDs, nil
}

func (f *fakeMailbox) GetMessage(_ context.Context, messageID string) (*gmail.MessageDetail, error) {
	if err := f.getErrs[messageID]; err != nil {
		return nil, err
	}
	msg, ok := f.messages[messageID]
	if !ok {
		return nil, fmt.Errorf("no such message: %s", messageID)
	}
	return msg, nil
}

func (f *fakeMailbox) EnsureLabel(_ context.Context, name string) (string, error) {
	if err := f.ensureErrs[name]; err != nil {
		return "", err
	}
	if id, ok := f.createdIDs[name]; ok {
		return id, nil
	}
	f.nextLabelID++
	id := fmt.Sprintf("Label_%d", f.nextLabelID)
	f.createdIDs[name] = id
	return id, nil
}

func (f *fakeMailbox) ApplyLabelAndMarkRead(_ context.Context, messageID, labelID string) error {
	if err := f.applyErrs[messageID]; err != nil {
		return err
	}
	f.applied[messageID] = labelID
	return nil
}

// fixedClassifier returns the same outcome for every message.
type fixedClassifier struct {
	outcome classify.Outcome
	calls   int
}

func (c *fixedClassifier) Classify(_ context.Context, _, _, _ string) classify.Outcome {
	c.calls++
	return c.outcome
}

func newsletterOutcome() classify.Outcome {
	return classify.Outcome{
		Category: classify.CategoryNewsletter,
		Backend:  "groq",
		Tokens:   120,
		Cost:     0.00001,
	}
}

func TestProcessInbox_LabelsEveryMessage(t *testing.T) {
	mailbox := newFakeMailbox()
	mailbox.addMessage("m1", "Weekly digest")
	mailbox.addMessage("m2", "Daily roundup")
	mailbox.addMessage("m3", "Release notes")

	classifier := &fixedClassifier{outcome: newsletterOutcome()}
	p := NewProcessor(mailbox, classifier)

	results, email, err := p.ProcessInbox(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", email)
	require.Len(t, results, 3)

	for i, id := range []string{"m1", "m2", "m3"} {
		assert.Equal(t, id, results[i].ID, "results must preserve listing order")
		assert.Equal(t, "Newsletter", results[i].Category)
		assert.True(t, results[i].Labeled)
		assert.True(t, results[i].Succeeded())
		assert.Equal(t, int64(120), results[i].Tokens)
	}

	// All three messages carry the label and had UNREAD removed
	assert.Len(t, mailbox.applied, 3)
	assert.Equal(t, 3, classifier.calls)
}

func TestProcessInbox_PerMessageFailureDoesNotAbortBatch(t *testing.T) {
	mailbox := newFakeMailbox()
	mailbox.addMessage("m1", "First")
	mailbox.addMessage("m2", "Second")
	mailbox.addMessage("m3", "Third")
	mailbox.ensureErrs["Newsletter"] = nil
	mailbox.applyErrs["m2"] = errors.New("modify failed: quota exceeded")

	p := NewProcessor(mailbox, &fixedClassifier{outcome: newsletterOutcome()})

	results, _, err := p.ProcessInbox(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.True(t, results[0].Succeeded())
	assert.False(t, results[1].Succeeded())
	assert.Equal(t, ErrorCategory, results[1].Category)
	assert.Contains(t, results[1].Error, "quota exceeded")
	assert.False(t, results[1].Labeled)
	assert.True(t, results[2].Succeeded())
}

func TestProcessInbox_BatchCeiling(t *testing.T) {
	mailbox := newFakeMailbox()
	for i := 0; i < 25; i++ {
		mailbox.addMessage(fmt.Sprintf("m%02d", i), fmt.Sprintf("Subject %d", i))
	}

	p := NewProcessor(mailbox, &fixedClassifier{outcome: newsletterOutcome()})

	results, _, err := p.ProcessInbox(context.Background())
	require.NoError(t, err)
	assert.Len(t, results, DefaultBatchSize)
	assert.Equal(t, int64(DefaultBatchSize), mailbox.gotMax)
}

func TestProcessInbox_QueryExcludesManagedLabels(t *testing.T) {
	mailbox := newFakeMailbox()
	mailbox.labels = []gmail.LabelInfo{
		{ID: "Label_1", Name: "Newsletter"},
		{ID: "Label_2", Name: "Finance"},
		{ID: "Label_3", Name: "CATEGORY_PERSONAL"}, // not a category name
	}

	p := NewProcessor(mailbox, &fixedClassifier{outcome: newsletterOutcome()})

	_, _, err := p.ProcessInbox(context.Background())
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(mailbox.gotQuery, "is:unread in:inbox"))
	assert.Contains(t, mailbox.gotQuery, "-label:Newsletter")
	assert.Contains(t, mailbox.gotQuery, "-label:Finance")
	assert.NotContains(t, mailbox.gotQuery, "CATEGORY_PERSONAL")
}

func TestProcessInbox_ProfileFailureIsBestEffort(t *testing.T) {
	mailbox := newFakeMailbox()
	mailbox.profileErr = errors.New("profile unavailable")
	mailbox.addMessage("m1", "Hello")

	p := NewProcessor(mailbox, &fixedClassifier{outcome: newsletterOutcome()})

	results, email, err := p.ProcessInbox(context.Background())
	require.NoError(t, err)
	assert.Empty(t, email)
	assert.Len(t, results, 1)
}

func TestProcessInbox_LabelListFailureAborts(t *testing.T) {
	mailbox := newFakeMailbox()
	mailbox.listErr = errors.New("labels unavailable")

	p := NewProcessor(mailbox, &fixedClassifier{outcome: newsletterOutcome()})

	_, _, err := p.ProcessInbox(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to list labels")
}

func TestProcessMessage(t *testing.T) {
	mailbox := newFakeMailbox()
	mailbox.addMessage("m1", "Hello")
	mailbox.addMessage("m2", "World")

	p := NewProcessor(mailbox, &fixedClassifier{outcome: newsletterOutcome()})

	results, email, err := p.ProcessMessage(context.Background(), "m2")
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", email)
	require.Len(t, results, 1)
	assert.Equal(t, "m2", results[0].ID)
	assert.True(t, results[0].Labeled)

	// Only the requested message was touched
	assert.Len(t, mailbox.applied, 1)
}

func TestProcessMessage_NotFound(t *testing.T) {
	mailbox := newFakeMailbox()
	mailbox.addMessage("m1", "Hello")

	p := NewProcessor(mailbox, &fixedClassifier{outcome: newsletterOutcome()})

	_, _, err := p.ProcessMessage(context.Background(), "nope")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMessageNotFound)
}

func TestProcessInbox_DryRun(t *testing.T) {
	mailbox := newFakeMailbox()
	mailbox.addMessage("m1", "Hello")

	p := NewProcessor(mailbox, &fixedClassifier{outcome: newsletterOutcome()}, WithDryRun(true))

	results, _, err := p.ProcessInbox(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 1)

	assert.Equal(t, "Newsletter", results[0].Category)
	assert.False(t, results[0].Labeled)
	assert.Empty(t, mailbox.applied)
	assert.Empty(t, mailbox.createdIDs)
}

func TestProcessInbox_GetMessageFailure(t *testing.T) {
	mailbox := newFakeMailbox()
	mailbox.addMessage("m1", "Hello")
	mailbox.getErrs["m1"] = errors.New("transient fetch error")

	p := NewProcessor(mailbox, &fixedClassifier{outcome: newsletterOutcome()})

	results, _, err := p.ProcessInbox(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, ErrorCategory, results[0].Category)
	assert.Contains(t, results[0].Error, "transient fetch error")
}

func TestWithBatchSize(t *testing.T) {
	mailbox := newFakeMailbox()
	for i := 0; i < 8; i++ {
		mailbox.addMessage(fmt.Sprintf("m%d", i), "Subject")
	}

	p := NewProcessor(mailbox, &fixedClassifier{outcome: newsletterOutcome()}, WithBatchSize(3))

	results, _, err := p.ProcessInbox(context.Background())
	require.NoError(t, err)
	assert.Len(t, results, 3)

	// Non-positive sizes keep the default
	p = NewProcessor(mailbox, &fixedClassifier{outcome: newsletterOutcome()}, WithBatchSize(0))
	assert.Equal(t, int64(DefaultBatchSize), p.batchSize)
}
