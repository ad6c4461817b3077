package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Queue carries encoded contact notifications from the responder to the
// relay worker.
type Queue interface {
	Send(ctx context.Context, body string) error
	Receive(ctx context.Context, maxMessages int, waitSeconds int) ([]QueueMessage, error)
	Delete(ctx context.Context, receiptHandle string) error
}

// QueueMessage is one received notification body.
type QueueMessage struct {
	ID            string
	Body          string
	ReceiptHandle string
}

func encodeNotification(n ContactNotification) (ContactNotification, string, error) {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	body, err := json.Marshal(n)
	if err != nil {
		return ContactNotification{}, "", fmt.Errorf("notify: failed to encode notification: %w", err)
	}
	return n, string(body), nil
}

func decodeNotification(body string) (ContactNotification, error) {
	var n ContactNotification
	if err := json.Unmarshal([]byte(body), &n); err != nil {
		return ContactNotification{}, fmt.Errorf("notify: failed to decode notification: %w", err)
	}
	return n, nil
}
