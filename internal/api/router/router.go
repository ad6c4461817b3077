package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/wolfman30/hijama-dm-responder/internal/channels/instagram"
	"github.com/wolfman30/hijama-dm-responder/internal/conversation"
	httpmiddleware "github.com/wolfman30/hijama-dm-responder/internal/http/middleware"
	"github.com/wolfman30/hijama-dm-responder/internal/leads"
	"github.com/wolfman30/hijama-dm-responder/internal/webchat"
	"github.com/wolfman30/hijama-dm-responder/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger         *logging.Logger
	Instagram      *instagram.Adapter
	Webchat        *webchat.Handler
	Admin          *conversation.AdminHandler
	LeadsHandler   *leads.Handler
	MetricsHandler http.Handler

	AdminAuthSecret    string
	CORSAllowedOrigins []string
	WebhookRatePerSec  float64
	WebhookRateBurst   int
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	r.Use(middleware.Recoverer)

	r.Get("/health", health)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	if cfg.Instagram != nil {
		r.Route("/webhooks/instagram", func(ig chi.Router) {
			ig.Use(httpmiddleware.RateLimit(cfg.WebhookRatePerSec, cfg.WebhookRateBurst))
			ig.Get("/", cfg.Instagram.HandleVerification)
			ig.Post("/", cfg.Instagram.HandleWebhook)
		})
	}

	if cfg.Webchat != nil {
		r.Route("/webchat", func(chat chi.Router) {
			chat.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
			chat.Get("/ws", cfg.Webchat.HandleWebSocket)
			chat.With(httpmiddleware.RateLimit(cfg.WebhookRatePerSec, cfg.WebhookRateBurst)).
				Post("/message", cfg.Webchat.HandleMessage)
			chat.Options("/message", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNoContent)
			})
		})
	}

	r.Route("/admin", func(admin chi.Router) {
		admin.Use(httpmiddleware.AdminJWT(cfg.AdminAuthSecret, cfg.Logger))
		if cfg.Admin != nil {
			admin.Post("/resolve", cfg.Admin.Resolve)
			admin.Get("/faq", cfg.Admin.ListFAQ)
			admin.Post("/faq/reload", cfg.Admin.ReloadFAQ)
		}
		if cfg.LeadsHandler != nil {
			admin.Get("/leads", cfg.LeadsHandler.ListLeads)
			admin.Get("/leads/{leadID}", cfg.LeadsHandler.GetLead)
		}
	})

	return r
}

func health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
