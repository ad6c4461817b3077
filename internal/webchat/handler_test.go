package webchat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/websocket"

	"github.com/wolfman30/hijama-dm-responder/internal/conversation"
	"github.com/wolfman30/hijama-dm-responder/pkg/logging"
)

// echoHandler answers every event with a fixed reply and records what it saw.
type echoHandler struct {
	mu     sync.Mutex
	events []conversation.InboundEvent
	drop   bool
}

func (h *echoHandler) HandleEvent(ctx context.Context, event conversation.InboundEvent, d conversation.Dispatcher) (conversation.ResolvedReply, bool) {
	h.mu.Lock()
	h.events = append(h.events, event)
	drop := h.drop
	h.mu.Unlock()
	if drop {
		return conversation.ResolvedReply{}, false
	}
	reply := conversation.ResolvedReply{Text: "javob: " + event.Text, Source: conversation.SourceFAQ, Language: conversation.LanguageUzbek}
	_ = d.Send(ctx, event.SenderID, reply.Text)
	return reply, true
}

func (h *echoHandler) seen() []conversation.InboundEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]conversation.InboundEvent(nil), h.events...)
}

func TestMessageID(t *testing.T) {
	assert.Equal(t, "webchat:s1:42", MessageID("s1", "42"))
	assert.Equal(t, "", MessageID("s1", "  "))
}

func TestHandleMessage_HTTP(t *testing.T) {
	events := &echoHandler{}
	h := NewHandler(events, logging.New("error"))

	body := `{"session_id":"sess1","id":"m1","text":"hijoma haqida ayting"}`
	req := httptest.NewRequest(http.MethodPost, "/webchat/message", strings.NewReader(body))
	w := httptest.NewRecorder()

	h.HandleMessage(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp messageResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "sess1", resp.SessionID)
	assert.Equal(t, "javob: hijoma haqida ayting", resp.Reply)
	assert.Equal(t, "faq", resp.Source)
	assert.Equal(t, "uz", resp.Language)

	seen := events.seen()
	require.Len(t, seen, 1)
	assert.Equal(t, conversation.PlatformWebchat, seen[0].Platform)
	assert.Equal(t, "sess1", seen[0].SenderID)
	assert.Equal(t, "webchat:sess1:m1", seen[0].MessageID)
}

func TestHandleMessage_GeneratesSession(t *testing.T) {
	h := NewHandler(&echoHandler{}, logging.New("error"))
	req := httptest.NewRequest(http.MethodPost, "/webchat/message", strings.NewReader(`{"text":"narx"}`))
	w := httptest.NewRecorder()

	h.HandleMessage(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp messageResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.SessionID, 36)
}

func TestHandleMessage_Dropped(t *testing.T) {
	h := NewHandler(&echoHandler{drop: true}, logging.New("error"))
	req := httptest.NewRequest(http.MethodPost, "/webchat/message", strings.NewReader(`{"session_id":"s","id":"1","text":"salom"}`))
	w := httptest.NewRecorder()

	h.HandleMessage(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestHandleMessage_Validation(t *testing.T) {
	h := NewHandler(&echoHandler{}, logging.New("error"))

	cases := []struct {
		name string
		body string
		want int
	}{
		{"malformed", `{`, http.StatusBadRequest},
		{"empty text", `{"text":"   "}`, http.StatusBadRequest},
		{"too long", `{"text":"` + strings.Repeat("a", maxTextBytes+1) + `"}`, http.StatusRequestEntityTooLarge},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/webchat/message", strings.NewReader(tc.body))
			w := httptest.NewRecorder()
			h.HandleMessage(w, req)
			assert.Equal(t, tc.want, w.Code)
		})
	}
}

func dialWS(t *testing.T, server *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/webchat/ws" + query
	conn, err := websocket.Dial(url, "", server.URL)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, conn.SetDeadline(time.Now().Add(5*time.Second)))
	return conn
}

func TestWebSocketSessionAndReply(t *testing.T) {
	events := &echoHandler{}
	h := NewHandler(events, logging.New("error"))
	server := httptest.NewServer(http.HandlerFunc(h.HandleWebSocket))
	defer server.Close()

	conn := dialWS(t, server, "?session=visitor-1")

	var hello OutboundMessage
	require.NoError(t, websocket.JSON.Receive(conn, &hello))
	assert.Equal(t, "session", hello.Type)
	assert.Equal(t, "visitor-1", hello.SessionID)

	require.NoError(t, websocket.JSON.Send(conn, InboundMessage{Type: "ping"}))
	var pong OutboundMessage
	require.NoError(t, websocket.JSON.Receive(conn, &pong))
	assert.Equal(t, "pong", pong.Type)

	require.NoError(t, websocket.JSON.Send(conn, InboundMessage{Type: "message", ID: "7", Text: "Assalamu alaykum"}))
	var reply OutboundMessage
	require.NoError(t, websocket.JSON.Receive(conn, &reply))
	assert.Equal(t, "reply", reply.Type)
	assert.Equal(t, "7", reply.ID)
	assert.Equal(t, "javob: Assalamu alaykum", reply.Reply)

	seen := events.seen()
	require.Len(t, seen, 1)
	assert.Equal(t, "visitor-1", seen[0].SenderID)
	assert.Equal(t, "webchat:visitor-1:7", seen[0].MessageID)
}

func TestWebSocketSkipsBlankAndRejectsLong(t *testing.T) {
	events := &echoHandler{}
	h := NewHandler(events, logging.New("error"))
	server := httptest.NewServer(http.HandlerFunc(h.HandleWebSocket))
	defer server.Close()

	conn := dialWS(t, server, "")
	var hello OutboundMessage
	require.NoError(t, websocket.JSON.Receive(conn, &hello))
	assert.NotEmpty(t, hello.SessionID)

	require.NoError(t, websocket.JSON.Send(conn, InboundMessage{Type: "message", ID: "1", Text: "  "}))
	require.NoError(t, websocket.JSON.Send(conn, InboundMessage{Type: "message", ID: "2", Text: strings.Repeat("b", maxTextBytes+1)}))

	var msg OutboundMessage
	require.NoError(t, websocket.JSON.Receive(conn, &msg))
	assert.Equal(t, "error", msg.Type)
	assert.Equal(t, "2", msg.ID)
	assert.Empty(t, events.seen())
}

func TestWebSocketWithResponderDropsResentID(t *testing.T) {
	responder := conversation.NewResponder(conversation.ResponderConfig{Logger: logging.New("error")})
	h := NewHandler(responder, logging.New("error"))
	server := httptest.NewServer(http.HandlerFunc(h.HandleWebSocket))
	defer server.Close()

	conn := dialWS(t, server, "?session=s2")
	var hello OutboundMessage
	require.NoError(t, websocket.JSON.Receive(conn, &hello))

	send := func(id, text string) {
		require.NoError(t, websocket.JSON.Send(conn, InboundMessage{Type: "message", ID: id, Text: text}))
	}
	send("1", "narx")
	send("1", "narx")
	send("2", "rahmat")

	var first, second OutboundMessage
	require.NoError(t, websocket.JSON.Receive(conn, &first))
	require.NoError(t, websocket.JSON.Receive(conn, &second))
	assert.Equal(t, "1", first.ID)
	assert.Contains(t, first.Reply, "+998 71 200 00 00")
	assert.Equal(t, "2", second.ID, "resent id must not be answered twice")
}
