package leads

import (
	"strings"
	"time"
)

// Lead is a phone number captured from a chat conversation.
type Lead struct {
	ID           string    `json:"id"`
	Platform     string    `json:"platform"`
	SenderID     string    `json:"sender_id"`
	Phone        string    `json:"phone"`
	Message      string    `json:"message"`
	CaptureCount int       `json:"capture_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// CaptureRequest records a phone number a sender shared in chat.
type CaptureRequest struct {
	Platform string
	SenderID string
	Phone    string
	Message  string
}

// Validate validates the capture request
func (r *CaptureRequest) Validate() error {
	if strings.TrimSpace(r.SenderID) == "" {
		return ErrMissingSender
	}
	if strings.TrimSpace(r.Phone) == "" {
		return ErrMissingPhone
	}
	return nil
}
