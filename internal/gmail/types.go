package gmail

import (
	gmail "google.golang.org/api/gmail/v1"
)

// Defaults substituted when a message is missing the corresponding header.
const (
	DefaultSubject = "No Subject"
	DefaultSender  = "Unknown Sender"
)

// MessageDetail is the per-message data the triage pipeline works with. It is
// fetched once per message and not cached across runs.
type MessageDetail struct {
	ID       string
	ThreadID string
	Subject  string
	Sender   string
	Snippet  string
	Body     string
}

// LabelInfo pairs a label name with its provider-assigned identifier.
type LabelInfo struct {
	ID   string
	Name string
}

// HeaderValue extracts a header value from a Gmail message
func HeaderValue(m *gmail.Message, header string) string {
	mpart := m.Payload
	if mpart == nil {
		return ""
	}
	for _, mph := range mpart.Headers {
		if mph.Name == header {
			return mph.Value
		}
	}
	return ""
}

// messageDetail converts a full Gmail message into a MessageDetail,
// substituting defaults for missing headers and extracting the body text.
func messageDetail(m *gmail.Message) *MessageDetail {
	subject := HeaderValue(m, "Subject")
	if subject == "" {
		subject = DefaultSubject
	}
	sender := HeaderValue(m, "From")
	if sender == "" {
		sender = DefaultSender
	}

	return &MessageDetail{
		ID:       m.Id,
		ThreadID: m.ThreadId,
		Subject:  subject,
		Sender:   sender,
		Snippet:  m.Snippet,
		Body:     ExtractBody(m.Payload),
	}
}
