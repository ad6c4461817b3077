package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port     string
	Env      string
	LogLevel string

	// Instagram / Meta Graph API
	InstagramPageAccessToken string
	InstagramVerifyToken     string
	InstagramAppSecret       string
	InstagramGraphAPIBase    string

	// Responder behaviour
	DefaultLanguage    string
	ClinicContactPhone string
	GreetingWindow     time.Duration
	GenerativeTimeout  time.Duration
	DispatchTimeout    time.Duration
	RelayTimeout       time.Duration
	MaxReplyChars      int
	ProcessedEventTTL  time.Duration
	ProcessedEventCap  int
	WebhookRatePerSec  float64
	WebhookRateBurst   int
	EnableWebchat      bool
	WebchatOrigins     []string
	FAQFilePath        string
	PersonaPromptPath  string
	LeadNotifyEmailTo  string
	AdminJWTSecret     string
	OTLPEndpoint       string
	TracingServiceName string

	// Backend selectors
	IdempotencyBackend string
	ThrottleBackend    string
	AnswerCacheBackend string
	AnswerCacheTTL     time.Duration
	FAQSource          string
	GenerativeProvider string
	RelayQueue         string
	LeadStore          string

	DatabaseURL   string
	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	// AWS
	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string
	AnswerCacheTable    string
	FAQBucket           string
	FAQObjectKey        string
	RelayQueueURL       string
	BedrockModelID      string
	SESFromEmail        string

	// Gemini
	GeminiAPIKey  string
	GeminiModelID string

	// Telegram staff chat
	TelegramBotToken string
	TelegramChatID   int64

	// SendGrid Email Configuration
	SendGridAPIKey    string
	SendGridFromEmail string
	SendGridFromName  string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8080"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		InstagramPageAccessToken: getEnv("INSTAGRAM_PAGE_ACCESS_TOKEN", ""),
		InstagramVerifyToken:     getEnv("INSTAGRAM_VERIFY_TOKEN", ""),
		InstagramAppSecret:       getEnv("INSTAGRAM_APP_SECRET", ""),
		InstagramGraphAPIBase:    getEnv("INSTAGRAM_GRAPH_API_BASE", "https://graph.facebook.com/v18.0"),

		DefaultLanguage:    strings.ToLower(strings.TrimSpace(getEnv("DEFAULT_LANGUAGE", "uz"))),
		ClinicContactPhone: getEnv("CLINIC_PHONE", "+998 71 200 00 00"),
		GreetingWindow:     getEnvAsDuration("GREETING_WINDOW", 24*time.Hour),
		GenerativeTimeout:  getEnvAsDuration("GENERATIVE_TIMEOUT", 20*time.Second),
		DispatchTimeout:    getEnvAsDuration("DISPATCH_TIMEOUT", 10*time.Second),
		RelayTimeout:       getEnvAsDuration("RELAY_TIMEOUT", 10*time.Second),
		MaxReplyChars:      getEnvAsInt("MAX_REPLY_CHARS", 900),
		ProcessedEventTTL:  getEnvAsDuration("PROCESSED_EVENT_TTL", 48*time.Hour),
		ProcessedEventCap:  getEnvAsInt("PROCESSED_EVENT_CAP", 10000),
		WebhookRatePerSec:  getEnvAsFloat("WEBHOOK_RATE_PER_SEC", 20),
		WebhookRateBurst:   getEnvAsInt("WEBHOOK_RATE_BURST", 40),
		EnableWebchat:      getEnvAsBool("ENABLE_WEBCHAT", false),
		WebchatOrigins:     getEnvAsList("WEBCHAT_ALLOWED_ORIGINS", nil),
		FAQFilePath:        getEnv("FAQ_FILE", "config/faq.yaml"),
		PersonaPromptPath:  getEnv("PERSONA_PROMPT_FILE", ""),
		LeadNotifyEmailTo:  getEnv("LEAD_NOTIFY_EMAIL_TO", ""),
		AdminJWTSecret:     getEnv("ADMIN_JWT_SECRET", ""),
		OTLPEndpoint:       getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		TracingServiceName: getEnv("OTEL_SERVICE_NAME", "hijama-dm-responder"),

		IdempotencyBackend: lower(getEnv("IDEMPOTENCY_BACKEND", "memory")),
		ThrottleBackend:    lower(getEnv("THROTTLE_BACKEND", "memory")),
		AnswerCacheBackend: lower(getEnv("ANSWER_CACHE_BACKEND", "memory")),
		AnswerCacheTTL:     getEnvAsDuration("ANSWER_CACHE_TTL", 30*24*time.Hour),
		FAQSource:          lower(getEnv("FAQ_SOURCE", "file")),
		GenerativeProvider: lower(getEnv("GENERATIVE_PROVIDER", "gemini")),
		RelayQueue:         lower(getEnv("RELAY_QUEUE", "memory")),
		LeadStore:          lower(getEnv("LEAD_STORE", "memory")),

		DatabaseURL:   getEnv("DATABASE_URL", ""),
		RedisAddr:     getEnv("REDIS_ADDR", "redis:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),
		AnswerCacheTable:    getEnv("ANSWER_CACHE_TABLE", "responder_answer_cache"),
		FAQBucket:           getEnv("FAQ_BUCKET", ""),
		FAQObjectKey:        getEnv("FAQ_OBJECT_KEY", "faq.yaml"),
		RelayQueueURL:       getEnv("RELAY_QUEUE_URL", ""),
		BedrockModelID:      getEnv("BEDROCK_MODEL_ID", ""),
		SESFromEmail:        getEnv("SES_FROM_EMAIL", ""),

		GeminiAPIKey:  getEnv("GEMINI_API_KEY", ""),
		GeminiModelID: getEnv("GEMINI_MODEL_ID", "gemini-2.5-flash"),

		TelegramBotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramChatID:   getEnvAsInt64("TELEGRAM_CHAT_ID", 0),

		SendGridAPIKey:    getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail: getEnv("SENDGRID_FROM_EMAIL", ""),
		SendGridFromName:  getEnv("SENDGRID_FROM_NAME", "Hijama Assistant"),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseInt(valueStr, 10, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsList splits a comma-separated variable, dropping blank items.
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(valueStr, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

func lower(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}
