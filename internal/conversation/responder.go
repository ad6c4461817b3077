package conversation

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/wolfman30/hijama-dm-responder/internal/notify"
	"github.com/wolfman30/hijama-dm-responder/internal/observability/metrics"
	"github.com/wolfman30/hijama-dm-responder/pkg/logging"
)

// Responder runs inbound events through dedupe, resolution, dispatch and
// contact relay. It is safe for concurrent use.
type Responder struct {
	guard           *IdempotencyGuard
	router          *Router
	dispatchers     map[Platform]Dispatcher
	relay           ContactRelay
	dispatchTimeout time.Duration
	metrics         *metrics.ResponderMetrics
	logger          *logging.Logger
}

// ResponderConfig wires a Responder.
type ResponderConfig struct {
	Guard           *IdempotencyGuard
	Router          *Router
	Dispatchers     map[Platform]Dispatcher
	Relay           ContactRelay
	DispatchTimeout time.Duration
	Metrics         *metrics.ResponderMetrics
	Logger          *logging.Logger
}

func NewResponder(cfg ResponderConfig) *Responder {
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	if cfg.Guard == nil {
		cfg.Guard = NewIdempotencyGuard(nil, cfg.Logger)
	}
	if cfg.Router == nil {
		cfg.Router = NewRouter(RouterConfig{Logger: cfg.Logger})
	}
	if cfg.DispatchTimeout <= 0 {
		cfg.DispatchTimeout = 10 * time.Second
	}
	dispatchers := make(map[Platform]Dispatcher, len(cfg.Dispatchers))
	for p, d := range cfg.Dispatchers {
		dispatchers[p] = d
	}
	return &Responder{
		guard:           cfg.Guard,
		router:          cfg.Router,
		dispatchers:     dispatchers,
		relay:           cfg.Relay,
		dispatchTimeout: cfg.DispatchTimeout,
		metrics:         cfg.Metrics,
		logger:          cfg.Logger,
	}
}

// Router returns the responder's router.
func (r *Responder) Router() *Router {
	return r.router
}

// HandleEvents processes a webhook batch in order using the dispatcher
// registered for each event's platform. It returns the number of replies
// resolved, including replies whose dispatch failed; send failures are logged
// and counted in the dispatch metric.
func (r *Responder) HandleEvents(ctx context.Context, events []InboundEvent) int {
	resolved := 0
	for _, event := range events {
		d, ok := r.dispatchers[event.Platform]
		if !ok {
			r.logger.Error("no dispatcher for platform", "platform", event.Platform, "message_id", event.MessageID)
			continue
		}
		if _, ok := r.HandleEvent(ctx, event, d); ok {
			resolved++
		}
	}
	return resolved
}

// HandleEvent processes one event and sends the reply through d. The bool
// reports whether a reply was resolved. Work runs on a context detached from
// ctx's cancellation so a late reply still goes out.
func (r *Responder) HandleEvent(ctx context.Context, event InboundEvent, d Dispatcher) (ResolvedReply, bool) {
	ctx = context.WithoutCancel(ctx)
	logger := r.logger.With("platform", event.Platform, "sender_id", event.SenderID, "message_id", event.MessageID)

	if !r.guard.Admit(ctx, event) {
		if event.IsEcho {
			r.metrics.ObserveEvent("echo")
		} else {
			r.metrics.ObserveEvent("duplicate")
			logger.Debug("duplicate event dropped")
		}
		return ResolvedReply{}, false
	}
	if !event.IsText() {
		r.metrics.ObserveEvent("ignored")
		logger.Info("ignoring non-text event", "postback", event.IsPostback, "attachments", event.HasAttachments)
		return ResolvedReply{}, false
	}
	r.metrics.ObserveEvent("admitted")

	ctx, span := otel.Tracer("hijama-dm-responder/conversation").Start(ctx, "responder.handle_event")
	defer span.End()
	span.SetAttributes(attribute.String("platform", string(event.Platform)))

	started := time.Now()
	reply := r.router.Resolve(ctx, event)
	r.metrics.ObserveReply(string(reply.Source), time.Since(started).Seconds())
	span.SetAttributes(attribute.String("source", string(reply.Source)), attribute.String("language", string(reply.Language)))
	logger.Info("reply resolved", "source", reply.Source, "language", reply.Language)

	if d != nil {
		sendCtx, cancel := context.WithTimeout(ctx, r.dispatchTimeout)
		err := d.Send(sendCtx, event.SenderID, reply.Text)
		cancel()
		r.metrics.ObserveDispatch(string(event.Platform), err)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "dispatch failed")
			logger.Error("failed to send reply", "source", reply.Source, "error", err)
		}
	}

	if reply.Phone != "" && r.relay != nil {
		logger.Info("contact captured", "phone_hash", HashPhone(reply.Phone))
		r.relay.Notify(ctx, notify.ContactNotification{
			SenderID:   event.SenderID,
			Phone:      reply.Phone,
			Message:    event.Text,
			Platform:   string(event.Platform),
			CapturedAt: time.Now().UTC(),
		})
	}
	return reply, true
}
