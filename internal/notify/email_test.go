package notify

import (
	"context"
	"strings"
	"testing"
)

func TestNewSendGridSender_NilWithoutAPIKey(t *testing.T) {
	sender := NewSendGridSender(SendGridConfig{
		APIKey:    "",
		FromEmail: "test@example.com",
	}, nil)

	if sender != nil {
		t.Error("expected nil sender when API key is empty")
	}
}

func TestNewSendGridSender_DefaultFromName(t *testing.T) {
	sender := NewSendGridSender(SendGridConfig{
		APIKey:    "test-key",
		FromEmail: "test@example.com",
		FromName:  "",
	}, nil)

	if sender == nil {
		t.Fatal("expected non-nil sender")
	}
	if sender.fromName != "Hijama Assistant" {
		t.Errorf("expected default from name 'Hijama Assistant', got %q", sender.fromName)
	}
}

func TestNewSendGridSender_CustomFromName(t *testing.T) {
	sender := NewSendGridSender(SendGridConfig{
		APIKey:    "test-key",
		FromEmail: "test@example.com",
		FromName:  "Custom Name",
	}, nil)

	if sender == nil {
		t.Fatal("expected non-nil sender")
	}
	if sender.fromName != "Custom Name" {
		t.Errorf("expected from name 'Custom Name', got %q", sender.fromName)
	}
}

func TestSendGridSender_Send_NilClient(t *testing.T) {
	sender := &SendGridSender{
		client: nil,
	}

	err := sender.Send(context.Background(), EmailMessage{
		To:      "recipient@example.com",
		Subject: "Test",
		Body:    "Test body",
	})

	if err == nil {
		t.Error("expected error when client is nil")
	}
}

func TestStubEmailSender_Send(t *testing.T) {
	sender := NewStubEmailSender(nil)

	err := sender.Send(context.Background(), EmailMessage{
		To:      "recipient@example.com",
		Subject: "Test Subject",
		Body:    "Test body",
	})

	if err != nil {
		t.Errorf("stub sender should not return error, got: %v", err)
	}
}

func TestEmailNotifier_SendsFormattedContact(t *testing.T) {
	sender := &recordingEmailSender{}
	notifier := NewEmailNotifier(sender, "staff@example.com")

	err := notifier.NotifyContact(context.Background(), ContactNotification{
		SenderID: "ig-1",
		Phone:    "+998901112233",
		Message:  "+998901112233",
		Platform: "instagram",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("expected 1 email, got %d", len(sender.sent))
	}
	got := sender.sent[0]
	if got.To != "staff@example.com" {
		t.Errorf("unexpected To: %s", got.To)
	}
	if got.Subject != "New contact: +998901112233" {
		t.Errorf("unexpected Subject: %s", got.Subject)
	}
	if !strings.Contains(got.Body, "Phone: +998901112233") {
		t.Errorf("body missing phone: %q", got.Body)
	}
}

func TestEmailNotifier_NotConfigured(t *testing.T) {
	notifier := NewEmailNotifier(nil, "")
	if err := notifier.NotifyContact(context.Background(), ContactNotification{Phone: "1"}); err == nil {
		t.Error("expected error for unconfigured notifier")
	}
}

type recordingEmailSender struct {
	sent []EmailMessage
	err  error
}

func (r *recordingEmailSender) Send(_ context.Context, msg EmailMessage) error {
	r.sent = append(r.sent, msg)
	return r.err
}
