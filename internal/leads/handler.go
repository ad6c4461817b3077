package leads

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/hijama-dm-responder/pkg/logging"
)

// Handler serves captured contacts to operators.
type Handler struct {
	repo   Repository
	logger *logging.Logger
}

// NewHandler creates a new leads handler
func NewHandler(repo Repository, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{repo: repo, logger: logger}
}

// ListLeadsResponse is the response for listing leads
type ListLeadsResponse struct {
	Leads []*Lead `json:"leads"`
	Count int     `json:"count"`
}

// ListLeads handles GET /admin/leads?limit=N
func (h *Handler) ListLeads(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 500 {
			http.Error(w, "limit must be between 1 and 500", http.StatusBadRequest)
			return
		}
		limit = n
	}

	list, err := h.repo.ListRecent(r.Context(), limit)
	if err != nil {
		h.logger.Error("failed to list leads", "error", err)
		http.Error(w, "Failed to list leads", http.StatusInternalServerError)
		return
	}
	if list == nil {
		list = []*Lead{}
	}
	writeJSON(w, http.StatusOK, ListLeadsResponse{Leads: list, Count: len(list)})
}

// GetLead handles GET /admin/leads/{leadID}
func (h *Handler) GetLead(w http.ResponseWriter, r *http.Request) {
	lead, err := h.repo.GetByID(r.Context(), chi.URLParam(r, "leadID"))
	if errors.Is(err, ErrLeadNotFound) {
		http.Error(w, "lead not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.Error("failed to get lead", "error", err)
		http.Error(w, "Failed to get lead", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, lead)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
