package bootstrap

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	appconfig "github.com/wolfman30/hijama-dm-responder/internal/config"
	"github.com/wolfman30/hijama-dm-responder/internal/leads"
	"github.com/wolfman30/hijama-dm-responder/internal/notify"
	"github.com/wolfman30/hijama-dm-responder/pkg/logging"
)

// BuildLeadStore selects where captured contacts are stored.
func BuildLeadStore(ctx context.Context, cfg *appconfig.Config, b *Backends) (leads.Repository, error) {
	switch cfg.LeadStore {
	case "", "memory":
		return leads.NewInMemoryRepository(), nil
	case "postgres":
		pool, err := b.Postgres(ctx)
		if err != nil {
			return nil, err
		}
		return leads.NewPostgresRepository(pool), nil
	default:
		return nil, fmt.Errorf("bootstrap: unknown LEAD_STORE %q", cfg.LeadStore)
	}
}

// BuildRelayQueue selects the queue between the responder and the relay
// worker.
func BuildRelayQueue(ctx context.Context, cfg *appconfig.Config, b *Backends) (notify.Queue, error) {
	switch cfg.RelayQueue {
	case "", "memory":
		return notify.NewMemoryQueue(256), nil
	case "sqs":
		if strings.TrimSpace(cfg.RelayQueueURL) == "" {
			return nil, fmt.Errorf("bootstrap: RELAY_QUEUE=sqs requires RELAY_QUEUE_URL")
		}
		awsCfg, err := b.AWS(ctx)
		if err != nil {
			return nil, err
		}
		return notify.NewSQSQueue(sqs.NewFromConfig(awsCfg), cfg.RelayQueueURL), nil
	default:
		return nil, fmt.Errorf("bootstrap: unknown RELAY_QUEUE %q", cfg.RelayQueue)
	}
}

// BuildNotifiers returns the staff channels that are configured. A channel
// that fails to initialise is logged and skipped.
func BuildNotifiers(ctx context.Context, cfg *appconfig.Config, b *Backends, logger *logging.Logger) []notify.Notifier {
	if logger == nil {
		logger = logging.Default()
	}
	var notifiers []notify.Notifier

	if cfg.TelegramBotToken != "" {
		tg, err := notify.NewTelegramNotifier(cfg.TelegramBotToken, cfg.TelegramChatID, logger)
		if err != nil {
			logger.Error("telegram notifier disabled", "error", err)
		} else {
			notifiers = append(notifiers, tg)
		}
	}

	if cfg.LeadNotifyEmailTo != "" {
		if sender := buildEmailSender(ctx, cfg, b, logger); sender != nil {
			notifiers = append(notifiers, notify.NewEmailNotifier(sender, cfg.LeadNotifyEmailTo))
		}
	}

	if len(notifiers) == 0 {
		logger.Warn("no staff notifier configured; captured contacts are only stored")
	}
	return notifiers
}

// buildEmailSender prefers SendGrid and falls back to SES.
func buildEmailSender(ctx context.Context, cfg *appconfig.Config, b *Backends, logger *logging.Logger) notify.EmailSender {
	if sg := notify.NewSendGridSender(notify.SendGridConfig{
		APIKey:    cfg.SendGridAPIKey,
		FromEmail: cfg.SendGridFromEmail,
		FromName:  cfg.SendGridFromName,
	}, logger); sg != nil {
		return sg
	}
	if cfg.SESFromEmail == "" {
		logger.Warn("LEAD_NOTIFY_EMAIL_TO set but no email provider configured")
		return nil
	}
	awsCfg, err := b.AWS(ctx)
	if err != nil {
		logger.Error("ses email disabled", "error", err)
		return nil
	}
	ses := notify.NewSESSender(sesv2.NewFromConfig(awsCfg), notify.SESConfig{
		FromEmail: cfg.SESFromEmail,
		FromName:  cfg.SendGridFromName,
	}, logger)
	if ses == nil {
		return nil
	}
	return ses
}
