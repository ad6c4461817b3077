package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wolfman30/hijama-dm-responder/internal/leads"
	"github.com/wolfman30/hijama-dm-responder/internal/observability/metrics"
	"github.com/wolfman30/hijama-dm-responder/pkg/logging"
)

// ContactService stores a captured contact as a lead and fans it out to the
// configured staff channels. Each channel is best-effort.
type ContactService struct {
	leadsRepo leads.Repository
	notifiers []Notifier
	timeout   time.Duration
	metrics   *metrics.ResponderMetrics
	logger    *logging.Logger
}

// ContactServiceConfig wires a ContactService.
type ContactServiceConfig struct {
	Leads          leads.Repository
	Notifiers      []Notifier
	ChannelTimeout time.Duration
	Metrics        *metrics.ResponderMetrics
	Logger         *logging.Logger
}

func NewContactService(cfg ContactServiceConfig) *ContactService {
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	if cfg.ChannelTimeout <= 0 {
		cfg.ChannelTimeout = 10 * time.Second
	}
	return &ContactService{
		leadsRepo: cfg.Leads,
		notifiers: cfg.Notifiers,
		timeout:   cfg.ChannelTimeout,
		metrics:   cfg.Metrics,
		logger:    cfg.Logger,
	}
}

// Deliver records the contact and notifies every channel. It returns the
// joined channel errors; a failing channel never stops the others.
func (s *ContactService) Deliver(ctx context.Context, n ContactNotification) error {
	var errs []error

	if s.leadsRepo != nil {
		lead, created, err := s.leadsRepo.Capture(ctx, &leads.CaptureRequest{
			Platform: n.Platform,
			SenderID: n.SenderID,
			Phone:    n.Phone,
			Message:  n.Message,
		})
		s.metrics.ObserveRelay("leads", err)
		if err != nil {
			errs = append(errs, fmt.Errorf("store lead: %w", err))
		} else {
			s.logger.Info("contact captured", "lead_id", lead.ID, "new", created, "capture_count", lead.CaptureCount)
		}
	}

	for _, notifier := range s.notifiers {
		channelCtx, cancel := context.WithTimeout(ctx, s.timeout)
		err := notifier.NotifyContact(channelCtx, n)
		cancel()
		s.metrics.ObserveRelay(notifier.Name(), err)
		if err != nil {
			s.logger.Error("contact notification failed", "channel", notifier.Name(), "sender_id", n.SenderID, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", notifier.Name(), err))
		}
	}
	return errors.Join(errs...)
}
