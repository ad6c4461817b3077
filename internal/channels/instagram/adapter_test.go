package instagram

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/wolfman30/hijama-dm-responder/internal/conversation"
	"github.com/wolfman30/hijama-dm-responder/pkg/logging"
)

type recordingHandler struct {
	mu      sync.Mutex
	batches [][]conversation.InboundEvent
	ctxErr  error
}

func (h *recordingHandler) HandleEvents(ctx context.Context, events []conversation.InboundEvent) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.batches = append(h.batches, events)
	h.ctxErr = ctx.Err()
	return len(events)
}

func TestAdapterHandsBatchToResponder(t *testing.T) {
	handler := &recordingHandler{}
	adapter := NewAdapter(AdapterConfig{
		AppSecret:   "secret",
		VerifyToken: "verify",
		Handler:     handler,
		Logger:      logging.Default(),
	})

	body := []byte(`{"object":"instagram","entry":[{"id":"page","messaging":[
		{"sender":{"id":"u1"},"recipient":{"id":"page"},"timestamp":1700000000000,"message":{"mid":"m1","text":"narx"}},
		{"sender":{"id":"u2"},"recipient":{"id":"page"},"timestamp":1700000000001,"message":{"mid":"m2","text":"+998901112233"}}
	]}]}`)
	req := httptest.NewRequest(http.MethodPost, "/webhooks/instagram", bytes.NewReader(body))
	req.Header.Set("X-Hub-Signature-256", signBody("secret", body))
	ctx, cancel := context.WithCancel(req.Context())
	req = req.WithContext(ctx)
	w := httptest.NewRecorder()

	adapter.HandleWebhook(w, req)
	cancel()
	adapter.Wait()

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if len(handler.batches) != 1 || len(handler.batches[0]) != 2 {
		t.Fatalf("expected one batch of 2 events, got %#v", handler.batches)
	}
	if handler.batches[0][1].Text != "+998901112233" {
		t.Errorf("unexpected order: %#v", handler.batches[0])
	}
	if handler.ctxErr != nil {
		t.Errorf("batch context must outlive the request, got %v", handler.ctxErr)
	}
}

func TestAdapterEndToEndWithResponder(t *testing.T) {
	var (
		mu   sync.Mutex
		sent []string
	)
	dispatcher := conversation.DispatcherFunc(func(_ context.Context, recipientID, text string) error {
		mu.Lock()
		defer mu.Unlock()
		sent = append(sent, recipientID+":"+text)
		return nil
	})
	responder := conversation.NewResponder(conversation.ResponderConfig{
		Dispatchers: map[conversation.Platform]conversation.Dispatcher{conversation.PlatformInstagram: dispatcher},
	})
	adapter := NewAdapter(AdapterConfig{AppSecret: "secret", VerifyToken: "verify", Handler: responder})

	body := []byte(`{"object":"instagram","entry":[{"messaging":[
		{"sender":{"id":"u1"},"recipient":{"id":"page"},"message":{"mid":"m1","text":"narx"}},
		{"sender":{"id":"page"},"recipient":{"id":"u1"},"message":{"mid":"m2","text":"echo","is_echo":true}}
	]}]}`)
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/webhooks/instagram", bytes.NewReader(body))
		req.Header.Set("X-Hub-Signature-256", signBody("secret", body))
		adapter.HandleWebhook(httptest.NewRecorder(), req)
		adapter.Wait()
	}

	if len(sent) != 1 {
		t.Fatalf("expected exactly one reply across redeliveries, got %q", sent)
	}
	want := "u1:" + conversation.DefaultReplyTemplates("").Text(conversation.ReplyPrice, conversation.LanguageUzbek, conversation.LanguageUzbek)
	if sent[0] != want {
		t.Fatalf("unexpected reply %q", sent[0])
	}
}

func TestAdapterVerification(t *testing.T) {
	adapter := NewAdapter(AdapterConfig{AppSecret: "secret", VerifyToken: "verify"})
	req := httptest.NewRequest(http.MethodGet, "/webhooks/instagram?hub.mode=subscribe&hub.verify_token=verify&hub.challenge=42", nil)
	w := httptest.NewRecorder()
	adapter.HandleVerification(w, req)
	if w.Code != http.StatusOK || w.Body.String() != "42" {
		t.Fatalf("unexpected response %d %q", w.Code, w.Body.String())
	}
}
