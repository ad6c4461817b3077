package instagram

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/wolfman30/hijama-dm-responder/internal/conversation"
	"github.com/wolfman30/hijama-dm-responder/pkg/logging"
)

const maxWebhookBody = 1 << 20

// WebhookHandler handles Instagram webhook verification and inbound messages.
type WebhookHandler struct {
	verifyToken string
	appSecret   string
	onEvents    func(ctx context.Context, events []conversation.InboundEvent)
	logger      *logging.Logger
}

// NewWebhookHandler creates a new webhook handler. onEvents receives every
// parsed batch after the request has been authenticated. An empty appSecret
// disables signature verification.
func NewWebhookHandler(verifyToken, appSecret string, onEvents func(context.Context, []conversation.InboundEvent), logger *logging.Logger) *WebhookHandler {
	if logger == nil {
		logger = logging.Default()
	}
	if appSecret == "" {
		logger.Warn("INSTAGRAM_APP_SECRET not set; webhook signatures are not verified")
	}
	return &WebhookHandler{
		verifyToken: verifyToken,
		appSecret:   appSecret,
		onEvents:    onEvents,
		logger:      logger,
	}
}

// HandleVerification handles the GET webhook verification challenge from Meta.
func (h *WebhookHandler) HandleVerification(w http.ResponseWriter, r *http.Request) {
	mode := r.URL.Query().Get("hub.mode")
	token := r.URL.Query().Get("hub.verify_token")
	challenge := r.URL.Query().Get("hub.challenge")

	if mode == "subscribe" && h.verifyToken != "" && hmac.Equal([]byte(token), []byte(h.verifyToken)) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, challenge)
		return
	}

	h.logger.Warn("instagram webhook verification rejected", "mode", mode)
	http.Error(w, "Forbidden", http.StatusForbidden)
}

// HandleInbound handles POST webhook events (incoming messages).
func (h *WebhookHandler) HandleInbound(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	signature := r.Header.Get("X-Hub-Signature-256")
	if h.appSecret != "" && !VerifySignature(h.appSecret, body, signature) {
		h.logger.Warn("instagram webhook signature mismatch")
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var event WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	// Meta retries anything that is not a quick 200.
	w.WriteHeader(http.StatusOK)

	if event.Object != "" && event.Object != "instagram" && event.Object != "page" {
		h.logger.Warn("ignoring webhook for unexpected object", "object", event.Object)
		return
	}
	events := ParseWebhookEvent(event)
	if len(events) > 0 && h.onEvents != nil {
		h.onEvents(r.Context(), events)
	}
}

// ParseWebhookEvent flattens a webhook delivery into inbound events in
// delivery order. Entries without a message or postback are skipped.
func ParseWebhookEvent(event WebhookEvent) []conversation.InboundEvent {
	var out []conversation.InboundEvent

	for _, entry := range event.Entry {
		for _, m := range entry.Messaging {
			parsed := conversation.InboundEvent{
				Platform:    conversation.PlatformInstagram,
				SenderID:    m.Sender.ID,
				RecipientID: m.Recipient.ID,
				ReceivedAt:  time.UnixMilli(m.Timestamp).UTC(),
			}

			switch {
			case m.Message != nil:
				if m.Message.IsDeleted {
					continue
				}
				parsed.MessageID = m.Message.MID
				parsed.Text = m.Message.Text
				parsed.IsEcho = m.Message.IsEcho
				parsed.HasAttachments = len(m.Message.Attachments) > 0
			case m.Postback != nil:
				parsed.MessageID = m.Postback.MID
				parsed.IsPostback = true
				parsed.Text = m.Postback.Title
			default:
				continue
			}

			out = append(out, parsed)
		}
	}

	return out
}

// VerifySignature verifies the X-Hub-Signature-256 header.
func VerifySignature(appSecret string, body []byte, signature string) bool {
	if appSecret == "" || signature == "" {
		return false
	}

	const prefix = "sha256="
	if !strings.HasPrefix(signature, prefix) || len(signature) == len(prefix) {
		return false
	}
	sigHex := signature[len(prefix):]

	mac := hmac.New(sha256.New, []byte(appSecret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(strings.ToLower(sigHex)))
}
