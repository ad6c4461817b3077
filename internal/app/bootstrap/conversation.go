package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	appconfig "github.com/wolfman30/hijama-dm-responder/internal/config"
	"github.com/wolfman30/hijama-dm-responder/internal/conversation"
	"github.com/wolfman30/hijama-dm-responder/internal/events"
	"github.com/wolfman30/hijama-dm-responder/internal/observability/metrics"
	"github.com/wolfman30/hijama-dm-responder/pkg/logging"
)

// BuildGenerator wires the generative fallback from config. Gemini is the
// primary provider; a configured Bedrock model becomes its fallback, or the
// sole provider when GENERATIVE_PROVIDER=bedrock. A disabled provider yields
// a generator that always fails, so unmatched questions get the apology.
func BuildGenerator(ctx context.Context, cfg *appconfig.Config, b *Backends, m *metrics.ResponderMetrics, logger *logging.Logger) (conversation.Generator, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}

	persona, err := LoadPersona(cfg.PersonaPromptPath)
	if err != nil {
		return nil, err
	}
	genCfg := conversation.LLMGeneratorConfig{
		Persona:     persona,
		Timeout:     cfg.GenerativeTimeout,
		Temperature: 0.3,
		Metrics:     m,
		Logger:      logger,
	}

	bedrock := func() (conversation.LLMClient, error) {
		if strings.TrimSpace(cfg.BedrockModelID) == "" {
			return nil, nil
		}
		awsCfg, err := b.AWS(ctx)
		if err != nil {
			return nil, err
		}
		return conversation.NewBedrockLLMClient(bedrockruntime.NewFromConfig(awsCfg), cfg.BedrockModelID), nil
	}

	switch cfg.GenerativeProvider {
	case "", "none", "disabled":
		logger.Warn("generative fallback disabled; unmatched questions get the apology reply")
		return conversation.DisabledGenerator{Reason: errors.New("disabled by configuration")}, nil

	case "bedrock":
		client, err := bedrock()
		if err != nil {
			return nil, err
		}
		if client == nil {
			return nil, errors.New("bootstrap: GENERATIVE_PROVIDER=bedrock requires BEDROCK_MODEL_ID")
		}
		logger.Info("generative fallback enabled", "provider", "bedrock", "model", cfg.BedrockModelID)
		return conversation.NewLLMGenerator(client, genCfg), nil

	case "gemini":
		fallback, err := bedrock()
		if err != nil {
			logger.Warn("bedrock fallback unavailable", "error", err)
			fallback = nil
		}
		primary, err := conversation.NewGeminiLLMClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModelID)
		if err != nil {
			if fallback == nil {
				logger.Warn("gemini unavailable and no fallback; generative fallback disabled", "error", err)
				return conversation.DisabledGenerator{Reason: err}, nil
			}
			logger.Warn("gemini unavailable; using bedrock only", "error", err)
			return conversation.NewLLMGenerator(fallback, genCfg), nil
		}
		logger.Info("generative fallback enabled", "provider", "gemini", "model", cfg.GeminiModelID, "bedrock_fallback", fallback != nil)
		if fallback == nil {
			return conversation.NewLLMGenerator(primary, genCfg), nil
		}
		return conversation.NewLLMGenerator(conversation.NewFallbackLLMClient(primary, fallback, logger), genCfg), nil

	default:
		return nil, fmt.Errorf("bootstrap: unknown GENERATIVE_PROVIDER %q", cfg.GenerativeProvider)
	}
}

// LoadPersona reads an operator-supplied persona prompt. An empty path keeps
// the built-in prompt.
func LoadPersona(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("bootstrap: read persona prompt: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// BuildFAQSource selects where FAQ entries are loaded from.
func BuildFAQSource(ctx context.Context, cfg *appconfig.Config, b *Backends) (conversation.FAQSource, error) {
	switch cfg.FAQSource {
	case "", "file":
		return conversation.FileFAQSource{Path: cfg.FAQFilePath}, nil
	case "s3":
		if cfg.FAQBucket == "" {
			return nil, errors.New("bootstrap: FAQ_SOURCE=s3 requires FAQ_BUCKET")
		}
		awsCfg, err := b.AWS(ctx)
		if err != nil {
			return nil, err
		}
		client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			o.UsePathStyle = cfg.AWSEndpointOverride != ""
		})
		return conversation.NewS3FAQSource(client, cfg.FAQBucket, cfg.FAQObjectKey), nil
	case "postgres":
		db, err := b.SQL(ctx)
		if err != nil {
			return nil, err
		}
		return conversation.NewPostgresFAQSource(db), nil
	default:
		return nil, fmt.Errorf("bootstrap: unknown FAQ_SOURCE %q", cfg.FAQSource)
	}
}

// BuildProcessedStore selects the idempotency store. The Postgres store is
// also returned as a purger so expired ids can be swept.
func BuildProcessedStore(ctx context.Context, cfg *appconfig.Config, b *Backends) (conversation.ProcessedEventStore, *events.ProcessedStore, error) {
	switch cfg.IdempotencyBackend {
	case "", "memory":
		return conversation.NewMemoryProcessedStore(cfg.ProcessedEventTTL, cfg.ProcessedEventCap), nil, nil
	case "redis":
		client, err := b.Redis(ctx)
		if err != nil {
			return nil, nil, err
		}
		return conversation.NewRedisProcessedStore(client, cfg.ProcessedEventTTL), nil, nil
	case "postgres":
		pool, err := b.Postgres(ctx)
		if err != nil {
			return nil, nil, err
		}
		store := events.NewProcessedStore(pool)
		return store, store, nil
	default:
		return nil, nil, fmt.Errorf("bootstrap: unknown IDEMPOTENCY_BACKEND %q", cfg.IdempotencyBackend)
	}
}

// BuildThrottle selects the greeting throttle store.
func BuildThrottle(ctx context.Context, cfg *appconfig.Config, b *Backends) (conversation.GreetingThrottle, error) {
	switch cfg.ThrottleBackend {
	case "", "memory":
		return conversation.NewMemoryGreetingThrottle(cfg.GreetingWindow), nil
	case "redis":
		client, err := b.Redis(ctx)
		if err != nil {
			return nil, err
		}
		return conversation.NewRedisGreetingThrottle(client, cfg.GreetingWindow), nil
	default:
		return nil, fmt.Errorf("bootstrap: unknown THROTTLE_BACKEND %q", cfg.ThrottleBackend)
	}
}

// BuildAnswerCache selects the generated-answer cache.
func BuildAnswerCache(ctx context.Context, cfg *appconfig.Config, b *Backends) (conversation.AnswerCache, error) {
	switch cfg.AnswerCacheBackend {
	case "", "memory":
		return conversation.NewMemoryAnswerCache(), nil
	case "redis":
		client, err := b.Redis(ctx)
		if err != nil {
			return nil, err
		}
		return conversation.NewRedisAnswerCache(client, cfg.AnswerCacheTTL), nil
	case "dynamodb":
		awsCfg, err := b.AWS(ctx)
		if err != nil {
			return nil, err
		}
		return conversation.NewDynamoAnswerCache(dynamodb.NewFromConfig(awsCfg), cfg.AnswerCacheTable), nil
	default:
		return nil, fmt.Errorf("bootstrap: unknown ANSWER_CACHE_BACKEND %q", cfg.AnswerCacheBackend)
	}
}

// BuildRouter assembles the priority router and its FAQ store.
func BuildRouter(ctx context.Context, cfg *appconfig.Config, b *Backends, m *metrics.ResponderMetrics, logger *logging.Logger) (*conversation.Router, *conversation.FAQStore, error) {
	if logger == nil {
		logger = logging.Default()
	}
	source, err := BuildFAQSource(ctx, cfg, b)
	if err != nil {
		return nil, nil, err
	}
	faqs, err := conversation.NewFAQStore(ctx, source)
	if err != nil {
		return nil, nil, fmt.Errorf("bootstrap: load faq: %w", err)
	}
	logger.Info("faq loaded", "source", cfg.FAQSource, "entries", faqs.Index().Len())

	throttle, err := BuildThrottle(ctx, cfg, b)
	if err != nil {
		return nil, nil, err
	}
	cache, err := BuildAnswerCache(ctx, cfg, b)
	if err != nil {
		return nil, nil, err
	}
	generator, err := BuildGenerator(ctx, cfg, b, m, logger)
	if err != nil {
		return nil, nil, err
	}

	lang := conversation.ParseLanguage(cfg.DefaultLanguage, conversation.LanguageUzbek)
	router := conversation.NewRouter(conversation.RouterConfig{
		Throttle:        throttle,
		FAQs:            faqs,
		Cache:           cache,
		Generator:       generator,
		Templates:       conversation.DefaultReplyTemplates(cfg.ClinicContactPhone),
		GreetingWindow:  cfg.GreetingWindow,
		MaxReplyChars:   cfg.MaxReplyChars,
		DefaultLanguage: lang,
		Logger:          logger,
	})
	return router, faqs, nil
}
