package instagram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	defaultGraphAPIBase = "https://graph.facebook.com/v18.0"
	defaultHTTPTimeout  = 10 * time.Second

	// MaxMessageChars is the Instagram limit for one text message.
	MaxMessageChars = 1000
)

// Client sends messages via the Instagram/Meta Graph API.
type Client struct {
	pageAccessToken string
	graphAPIBase    string
	httpClient      *http.Client
}

// NewClient creates a new Graph API client.
func NewClient(pageAccessToken string) *Client {
	return &Client{
		pageAccessToken: pageAccessToken,
		graphAPIBase:    defaultGraphAPIBase,
		httpClient:      &http.Client{Timeout: defaultHTTPTimeout},
	}
}

// SetGraphAPIBase overrides the Graph API base URL (useful for testing).
func (c *Client) SetGraphAPIBase(base string) {
	if base = strings.TrimRight(strings.TrimSpace(base), "/"); base != "" {
		c.graphAPIBase = base
	}
}

// Send delivers text to recipientID, split into as many messages as the
// length limit requires. It stops at the first failed part.
func (c *Client) Send(ctx context.Context, recipientID, text string) error {
	ctx, span := otel.Tracer("hijama-dm-responder/instagram").Start(ctx, "instagram.send")
	defer span.End()

	parts := SplitMessage(text, MaxMessageChars)
	span.SetAttributes(attribute.Int("parts", len(parts)))
	for i, part := range parts {
		if _, err := c.SendTextMessage(ctx, recipientID, part); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "send failed")
			return fmt.Errorf("instagram: part %d/%d: %w", i+1, len(parts), err)
		}
	}
	return nil
}

// SendTextMessage sends a single plain text message to the given recipient.
func (c *Client) SendTextMessage(ctx context.Context, recipientID, text string) (*SendResponse, error) {
	req := SendRequest{
		Recipient: SendRecipient{ID: recipientID},
		Message:   SendMessage{Text: text},
	}
	return c.send(ctx, req)
}

func (c *Client) send(ctx context.Context, req SendRequest) (*SendResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("instagram: marshal send request: %w", err)
	}

	url := c.graphAPIBase + "/me/messages"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("instagram: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.pageAccessToken)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("instagram: send message: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return nil, fmt.Errorf("instagram: read response: %w", err)
	}

	var sendResp SendResponse
	if err := json.Unmarshal(respBody, &sendResp); err != nil {
		return nil, fmt.Errorf("instagram: unexpected status %d: %w", resp.StatusCode, err)
	}

	if sendResp.Error != nil {
		return &sendResp, fmt.Errorf("instagram: API error %d: %s", sendResp.Error.Code, sendResp.Error.Message)
	}

	if resp.StatusCode != http.StatusOK {
		return &sendResp, fmt.Errorf("instagram: unexpected status %d: %s", resp.StatusCode, string(respBody))
	}

	return &sendResp, nil
}

// SplitMessage breaks text into chunks of at most max runes, preferring
// paragraph, then sentence, then word boundaries.
func SplitMessage(text string, max int) []string {
	text = strings.TrimSpace(text)
	if max <= 0 || len([]rune(text)) <= max {
		return []string{text}
	}

	var parts []string
	runes := []rune(text)
	for len(runes) > max {
		cut := splitPoint(runes[:max])
		part := strings.TrimSpace(string(runes[:cut]))
		if part != "" {
			parts = append(parts, part)
		}
		runes = []rune(strings.TrimSpace(string(runes[cut:])))
	}
	if len(runes) > 0 {
		parts = append(parts, string(runes))
	}
	return parts
}

func splitPoint(window []rune) int {
	floor := len(window) / 2
	for _, seps := range []string{"\n", ".!?", " "} {
		for i := len(window) - 1; i >= floor; i-- {
			if strings.ContainsRune(seps, window[i]) {
				return i + 1
			}
		}
	}
	return len(window)
}
