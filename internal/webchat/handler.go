package webchat

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/net/websocket"

	"github.com/wolfman30/hijama-dm-responder/internal/conversation"
	"github.com/wolfman30/hijama-dm-responder/pkg/logging"
)

const maxTextBytes = 4096

// EventHandler runs one inbound event through the reply pipeline.
type EventHandler interface {
	HandleEvent(ctx context.Context, event conversation.InboundEvent, d conversation.Dispatcher) (conversation.ResolvedReply, bool)
}

// Handler serves the web chat widget over websocket and plain HTTP.
type Handler struct {
	events EventHandler
	logger *logging.Logger
	now    func() time.Time
}

// InboundMessage is what the widget sends.
type InboundMessage struct {
	Type      string `json:"type"` // "message", "ping"
	SessionID string `json:"session_id,omitempty"`
	ID        string `json:"id"`
	Text      string `json:"text"`
}

// OutboundMessage is what we send to the widget.
type OutboundMessage struct {
	Type      string `json:"type"` // "session", "reply", "pong", "error"
	ID        string `json:"id,omitempty"`
	Reply     string `json:"reply,omitempty"`
	SessionID string `json:"session_id,omitempty"`
	Error     string `json:"error,omitempty"`
}

// NewHandler creates a web chat handler.
func NewHandler(events EventHandler, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{events: events, logger: logger, now: time.Now}
}

// MessageID scopes a widget message id to its session so ids chosen by
// different visitors never collide in the idempotency store. An empty id
// stays empty.
func MessageID(sessionID, id string) string {
	id = strings.TrimSpace(id)
	if id == "" {
		return ""
	}
	return "webchat:" + sessionID + ":" + id
}

func newSessionID() string {
	return uuid.NewString()
}

func (h *Handler) event(sessionID, id, text string) conversation.InboundEvent {
	return conversation.InboundEvent{
		Platform:   conversation.PlatformWebchat,
		SenderID:   sessionID,
		MessageID:  MessageID(sessionID, id),
		Text:       text,
		ReceivedAt: h.now().UTC(),
	}
}

// HandleWebSocket upgrades to websocket and answers messages until the
// visitor disconnects.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	websocket.Handler(func(conn *websocket.Conn) {
		h.serveWS(conn, r)
	}).ServeHTTP(w, r)
}

func (h *Handler) serveWS(conn *websocket.Conn, r *http.Request) {
	conn.MaxPayloadBytes = maxTextBytes * 2

	sessionID := strings.TrimSpace(r.URL.Query().Get("session"))
	if sessionID == "" {
		sessionID = newSessionID()
	}
	logger := h.logger.With("session_id", sessionID)

	d := newConnDispatcher(conn)
	defer d.close()

	if err := d.write(OutboundMessage{Type: "session", SessionID: sessionID}); err != nil {
		logger.Debug("webchat: failed to announce session", "error", err)
		return
	}
	logger.Info("webchat: connection opened")

	for {
		var msg InboundMessage
		if err := websocket.JSON.Receive(conn, &msg); err != nil {
			logger.Debug("webchat: connection closed", "error", err)
			return
		}

		switch msg.Type {
		case "ping":
			_ = d.write(OutboundMessage{Type: "pong"})
			continue
		case "message", "":
		default:
			continue
		}

		text := strings.TrimSpace(msg.Text)
		if text == "" {
			continue
		}
		if len(text) > maxTextBytes {
			_ = d.write(OutboundMessage{Type: "error", ID: msg.ID, Error: "message too long"})
			continue
		}

		d.answering(msg.ID)
		h.events.HandleEvent(r.Context(), h.event(sessionID, msg.ID, text), d)
	}
}

type messageResponse struct {
	SessionID string `json:"session_id"`
	Reply     string `json:"reply"`
	Source    string `json:"source"`
	Language  string `json:"language"`
}

// HandleMessage is the HTTP fallback for sending one message.
func (h *Handler) HandleMessage(w http.ResponseWriter, r *http.Request) {
	var req InboundMessage
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxTextBytes*2)).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	text := strings.TrimSpace(req.Text)
	if text == "" {
		http.Error(w, "text is required", http.StatusBadRequest)
		return
	}
	if len(text) > maxTextBytes {
		http.Error(w, "text too long", http.StatusRequestEntityTooLarge)
		return
	}
	if req.SessionID == "" {
		req.SessionID = newSessionID()
	}

	buf := &bufferDispatcher{}
	reply, ok := h.events.HandleEvent(r.Context(), h.event(req.SessionID, req.ID, text), buf)
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(messageResponse{
		SessionID: req.SessionID,
		Reply:     buf.text,
		Source:    string(reply.Source),
		Language:  string(reply.Language),
	})
}
