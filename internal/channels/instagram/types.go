package instagram

// WebhookEvent is the top-level structure received from Meta's webhook.
type WebhookEvent struct {
	Object string  `json:"object"`
	Entry  []Entry `json:"entry"`
}

// Entry represents a single entry in the webhook payload.
type Entry struct {
	ID        string      `json:"id"`
	Time      int64       `json:"time"`
	Messaging []Messaging `json:"messaging"`
}

// Messaging represents a single messaging event. Reads, reactions and other
// event kinds carry neither Message nor Postback.
type Messaging struct {
	Sender    Sender    `json:"sender"`
	Recipient Recipient `json:"recipient"`
	Timestamp int64     `json:"timestamp"`
	Message   *Message  `json:"message,omitempty"`
	Postback  *Postback `json:"postback,omitempty"`
}

// Sender identifies who sent the message.
type Sender struct {
	ID string `json:"id"`
}

// Recipient identifies the recipient.
type Recipient struct {
	ID string `json:"id"`
}

// Message contains the message content. IsEcho marks messages sent by the
// page itself, including our own replies.
type Message struct {
	MID         string              `json:"mid"`
	Text        string              `json:"text"`
	IsEcho      bool                `json:"is_echo,omitempty"`
	IsDeleted   bool                `json:"is_deleted,omitempty"`
	Attachments []MessageAttachment `json:"attachments,omitempty"`
}

// MessageAttachment is an image, audio, story mention or share on an inbound message.
type MessageAttachment struct {
	Type    string `json:"type"`
	Payload struct {
		URL string `json:"url,omitempty"`
	} `json:"payload"`
}

// Postback represents a postback event (button or ice-breaker tap).
type Postback struct {
	MID     string `json:"mid"`
	Title   string `json:"title"`
	Payload string `json:"payload"`
}

// SendRequest is the payload sent to the Graph API to send a message.
type SendRequest struct {
	Recipient SendRecipient `json:"recipient"`
	Message   SendMessage   `json:"message"`
}

// SendRecipient identifies who to send the message to.
type SendRecipient struct {
	ID string `json:"id"`
}

// SendMessage is the message content for outbound messages.
type SendMessage struct {
	Text string `json:"text"`
}

// SendResponse is the response from the Graph API after sending a message.
type SendResponse struct {
	RecipientID string     `json:"recipient_id"`
	MessageID   string     `json:"message_id"`
	Error       *SendError `json:"error,omitempty"`
}

// SendError represents an error returned by the Graph API.
type SendError struct {
	Message   string `json:"message"`
	Type      string `json:"type"`
	Code      int    `json:"code"`
	FBTraceID string `json:"fbtrace_id"`
}
