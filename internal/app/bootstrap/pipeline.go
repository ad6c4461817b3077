package bootstrap

import (
	"context"
	"fmt"
	"sync"
	"time"

	appconfig "github.com/wolfman30/hijama-dm-responder/internal/config"
	"github.com/wolfman30/hijama-dm-responder/internal/conversation"
	"github.com/wolfman30/hijama-dm-responder/internal/events"
	"github.com/wolfman30/hijama-dm-responder/internal/leads"
	"github.com/wolfman30/hijama-dm-responder/internal/notify"
	"github.com/wolfman30/hijama-dm-responder/internal/observability/metrics"
	"github.com/wolfman30/hijama-dm-responder/pkg/logging"
)

// Pipeline is the assembled responder and the background work it needs.
type Pipeline struct {
	Responder *conversation.Responder
	Router    *conversation.Router
	FAQs      *conversation.FAQStore
	Leads     leads.Repository
	Relay     *notify.QueueRelay

	worker *notify.RelayWorker
	purger *events.ProcessedStore
	ttl    time.Duration
	logger *logging.Logger
	wg     sync.WaitGroup
}

// BuildPipeline wires every stage from config. dispatchers maps each enabled
// platform to its outbound client.
func BuildPipeline(ctx context.Context, cfg *appconfig.Config, b *Backends, dispatchers map[conversation.Platform]conversation.Dispatcher, m *metrics.ResponderMetrics, logger *logging.Logger) (*Pipeline, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}

	router, faqs, err := BuildRouter(ctx, cfg, b, m, logger)
	if err != nil {
		return nil, err
	}
	processed, purger, err := BuildProcessedStore(ctx, cfg, b)
	if err != nil {
		return nil, err
	}
	leadStore, err := BuildLeadStore(ctx, cfg, b)
	if err != nil {
		return nil, err
	}
	queue, err := BuildRelayQueue(ctx, cfg, b)
	if err != nil {
		return nil, err
	}

	contacts := notify.NewContactService(notify.ContactServiceConfig{
		Leads:          leadStore,
		Notifiers:      BuildNotifiers(ctx, cfg, b, logger),
		ChannelTimeout: cfg.RelayTimeout,
		Metrics:        m,
		Logger:         logger,
	})
	relay := notify.NewQueueRelay(queue, cfg.RelayTimeout, logger)

	responder := conversation.NewResponder(conversation.ResponderConfig{
		Guard:           conversation.NewIdempotencyGuard(processed, logger),
		Router:          router,
		Dispatchers:     dispatchers,
		Relay:           relay,
		DispatchTimeout: cfg.DispatchTimeout,
		Metrics:         m,
		Logger:          logger,
	})

	logger.Info("responder pipeline ready",
		"idempotency", cfg.IdempotencyBackend,
		"throttle", cfg.ThrottleBackend,
		"answer_cache", cfg.AnswerCacheBackend,
		"faq_source", cfg.FAQSource,
		"generative", cfg.GenerativeProvider,
		"relay_queue", cfg.RelayQueue,
		"lead_store", cfg.LeadStore,
	)

	return &Pipeline{
		Responder: responder,
		Router:    router,
		FAQs:      faqs,
		Leads:     leadStore,
		Relay:     relay,
		worker:    notify.NewRelayWorker(queue, contacts, cfg.RelayTimeout*3, logger),
		purger:    purger,
		ttl:       cfg.ProcessedEventTTL,
		logger:    logger,
	}, nil
}

// Start runs the relay worker and, for the Postgres guard, the purger until
// ctx is cancelled.
func (p *Pipeline) Start(ctx context.Context) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.worker.Run(ctx)
	}()
	if p.purger != nil {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			p.purger.RunPurger(ctx, p.ttl, time.Hour, p.logger)
		}()
	}
}

// Wait blocks until in-flight relays are enqueued and background loops exit.
func (p *Pipeline) Wait() {
	p.Relay.Wait()
	p.wg.Wait()
}
