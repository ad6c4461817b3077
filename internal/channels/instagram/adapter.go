package instagram

import (
	"context"
	"net/http"
	"sync"

	"github.com/wolfman30/hijama-dm-responder/internal/conversation"
	"github.com/wolfman30/hijama-dm-responder/pkg/logging"
)

// EventHandler consumes a batch of inbound events.
type EventHandler interface {
	HandleEvents(ctx context.Context, events []conversation.InboundEvent) int
}

// Adapter is the Instagram DM channel adapter. It acknowledges webhooks
// immediately and hands each batch to the responder in the background.
type Adapter struct {
	webhook *WebhookHandler
	handler EventHandler
	logger  *logging.Logger
	wg      sync.WaitGroup
}

// AdapterConfig wires an Adapter.
type AdapterConfig struct {
	AppSecret   string
	VerifyToken string
	Handler     EventHandler
	Logger      *logging.Logger
}

// NewAdapter creates a new Instagram DM adapter.
func NewAdapter(cfg AdapterConfig) *Adapter {
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	a := &Adapter{handler: cfg.Handler, logger: cfg.Logger}
	a.webhook = NewWebhookHandler(cfg.VerifyToken, cfg.AppSecret, a.dispatch, cfg.Logger)
	return a
}

func (a *Adapter) dispatch(ctx context.Context, events []conversation.InboundEvent) {
	if a.handler == nil {
		a.logger.Warn("instagram: no event handler configured", "events", len(events))
		return
	}
	ctx = context.WithoutCancel(ctx)
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		sent := a.handler.HandleEvents(ctx, events)
		a.logger.Debug("instagram: webhook batch processed", "events", len(events), "replies", sent)
	}()
}

// HandleVerification handles GET /webhooks/instagram (Meta challenge).
func (a *Adapter) HandleVerification(w http.ResponseWriter, r *http.Request) {
	a.webhook.HandleVerification(w, r)
}

// HandleWebhook handles POST /webhooks/instagram (inbound messages).
func (a *Adapter) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	a.webhook.HandleInbound(w, r)
}

// Wait blocks until in-flight batches finish. Used on shutdown.
func (a *Adapter) Wait() {
	a.wg.Wait()
}
