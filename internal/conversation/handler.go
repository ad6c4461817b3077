package conversation

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/wolfman30/hijama-dm-responder/pkg/logging"
)

// AdminHandler exposes operator endpoints for the reply pipeline.
type AdminHandler struct {
	router *Router
	faqs   *FAQStore
	logger *logging.Logger
}

// NewAdminHandler creates an admin handler.
func NewAdminHandler(router *Router, faqs *FAQStore, logger *logging.Logger) *AdminHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &AdminHandler{router: router, faqs: faqs, logger: logger}
}

type resolveRequest struct {
	Text     string `json:"text"`
	SenderID string `json:"sender_id"`
}

// Resolve handles POST /admin/resolve. It runs the router without sending,
// relaying, or touching greeting and cache state.
func (h *AdminHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	var req resolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode resolve request", "error", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		http.Error(w, "text is required", http.StatusBadRequest)
		return
	}
	if req.SenderID == "" {
		req.SenderID = "admin-dry-run"
	}
	res := h.router.ResolveWithOptions(r.Context(), InboundEvent{SenderID: req.SenderID, Text: req.Text}, ResolveOptions{DryRun: true})
	h.writeJSON(w, http.StatusOK, res)
}

// ListFAQ handles GET /admin/faq.
func (h *AdminHandler) ListFAQ(w http.ResponseWriter, r *http.Request) {
	entries := h.faqs.Index().Entries()
	if entries == nil {
		entries = []FAQEntry{}
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"entries": entries, "count": len(entries)})
}

// ReloadFAQ handles POST /admin/faq/reload.
func (h *AdminHandler) ReloadFAQ(w http.ResponseWriter, r *http.Request) {
	if err := h.faqs.Reload(r.Context()); err != nil {
		h.logger.Error("faq reload failed", "error", err)
		http.Error(w, "Failed to reload FAQ", http.StatusInternalServerError)
		return
	}
	count := h.faqs.Index().Len()
	h.logger.Info("faq reloaded", "entries", count)
	h.writeJSON(w, http.StatusOK, map[string]any{"reloaded": true, "count": count})
}

func (h *AdminHandler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", "error", err)
	}
}
