package instrumentation

import (
	"context"
	"errors"
	"testing"
)

const (
	testEmail  = "jane@example.com"
	testDomain = "example.com"
	testMsgID  = "msg-18c2f1a"
)

func TestMessageAudit_NewAndComplete(t *testing.T) {
	ma := NewMessageAudit(testMsgID)

	if ma.MessageID != testMsgID {
		t.Errorf("MessageID = %q, want %q", ma.MessageID, testMsgID)
	}
	if ma.StartTime.IsZero() {
		t.Error("StartTime should not be zero")
	}

	ma.CompleteSuccess()

	if !ma.Success {
		t.Error("Success should be true")
	}
	if ma.Duration < 0 {
		t.Error("Duration should not be negative")
	}
	if ma.Status() != StatusSuccess {
		t.Errorf("Status() = %q, want %q", ma.Status(), StatusSuccess)
	}
}

func TestMessageAudit_CompleteError(t *testing.T) {
	ma := NewMessageAudit(testMsgID).
		WithUser(testEmail).
		WithOutcome("Error", "", false)

	ma.CompleteError(errors.New("label create failed"))

	if ma.Success {
		t.Error("Success should be false")
	}
	if ma.Error != "label create failed" {
		t.Errorf("Error = %q, want %q", ma.Error, "label create failed")
	}
	if ma.Status() != StatusError {
		t.Errorf("Status() = %q, want %q", ma.Status(), StatusError)
	}
}

func TestMessageAudit_UserDomain(t *testing.T) {
	ma := NewMessageAudit(testMsgID).WithUser(testEmail)

	if got := ma.UserDomain(); got != testDomain {
		t.Errorf("UserDomain() = %q, want %q", got, testDomain)
	}
}

func TestMessageAudit_LogAttrs(t *testing.T) {
	ma := NewMessageAudit(testMsgID).
		WithUser(testEmail).
		WithOutcome("Newsletter", ServiceGroq, true)
	ma.CompleteSuccess()

	attrs := ma.LogAttrs()

	keys := make(map[string]bool)
	for _, a := range attrs {
		keys[a.Key] = true
	}

	for _, want := range []string{"message_id", "user_domain", "duration", "success", "category", "backend"} {
		if !keys[want] {
			t.Errorf("LogAttrs() missing key %q", want)
		}
	}
	if keys["user"] {
		t.Error("LogAttrs() should not include the full email")
	}
}

func TestMessageAudit_LogAuditAttrs(t *testing.T) {
	ma := NewMessageAudit(testMsgID).
		WithUser(testEmail).
		WithOutcome("Finance", ServiceGemini, true)
	ma.CompleteSuccess()

	attrs := ma.LogAuditAttrs()

	keys := make(map[string]bool)
	for _, a := range attrs {
		keys[a.Key] = true
	}

	for _, want := range []string{"message_id", "user", "duration", "success", "labeled", "category", "backend"} {
		if !keys[want] {
			t.Errorf("LogAuditAttrs() missing key %q", want)
		}
	}
}

func TestMessageAudit_WithSpanContext_NoSpan(t *testing.T) {
	ma := NewMessageAudit(testMsgID).WithSpanContext(context.Background())

	if ma.TraceID != "" || ma.SpanID != "" {
		t.Error("expected empty trace context without an active span")
	}
}
