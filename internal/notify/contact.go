package notify

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// ContactNotification is a phone number captured from a chat, with the
// message it arrived in.
type ContactNotification struct {
	ID         string    `json:"id"`
	SenderID   string    `json:"sender_id"`
	Phone      string    `json:"phone"`
	Message    string    `json:"message"`
	Platform   string    `json:"platform"`
	CapturedAt time.Time `json:"captured_at"`
}

// Notifier delivers a contact notification to one staff channel.
type Notifier interface {
	Name() string
	NotifyContact(ctx context.Context, n ContactNotification) error
}

// FormatContact renders the plain-text staff message for a notification.
func FormatContact(n ContactNotification) string {
	var b strings.Builder
	b.WriteString("New contact from chat\n")
	fmt.Fprintf(&b, "Phone: %s\n", n.Phone)
	if n.Platform != "" {
		fmt.Fprintf(&b, "Platform: %s\n", n.Platform)
	}
	fmt.Fprintf(&b, "Sender: %s\n", n.SenderID)
	if !n.CapturedAt.IsZero() {
		fmt.Fprintf(&b, "Time: %s\n", n.CapturedAt.UTC().Format("2006-01-02 15:04 MST"))
	}
	if msg := strings.TrimSpace(n.Message); msg != "" {
		fmt.Fprintf(&b, "Message: %s", truncate(msg, 500))
	}
	return strings.TrimRight(b.String(), "\n")
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}
