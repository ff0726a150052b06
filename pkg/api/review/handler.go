// Package review exposes the extraction review queue over HTTP.
package review

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"edgarintel/pkg/api/respond"
	"edgarintel/pkg/core/review"
)

// Handler serves /review routes.
type Handler struct {
	Queue *review.Queue
	Log   zerolog.Logger
}

// Routes mounts the review endpoints.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/review/pending", h.pending)
	r.Get("/review/stats", h.stats)
	r.Get("/review/company/{cik}", h.byCompany)
	r.Get("/review/{id}", h.byID)
	r.Post("/review/{id}/approve", h.approve)
	r.Post("/review/{id}/reject", h.reject)
}

type resolveRequest struct {
	Reviewer    string `json:"reviewer"`
	Corrections string `json:"corrections,omitempty"`
}

func (h *Handler) pending(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	items, err := h.Queue.GetPending(r.Context(), limit)
	if err != nil {
		respond.Error(w, http.StatusInternalServerError, "review query failed")
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"total": len(items), "items": items})
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Queue.Stats(r.Context())
	if err != nil {
		respond.Error(w, http.StatusInternalServerError, "review stats failed")
		return
	}
	respond.JSON(w, http.StatusOK, stats)
}

func (h *Handler) byCompany(w http.ResponseWriter, r *http.Request) {
	cik := chi.URLParam(r, "cik")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	items, err := h.Queue.GetByCompany(r.Context(), cik, limit)
	if err != nil {
		respond.Error(w, http.StatusInternalServerError, "review query failed")
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"total": len(items), "items": items})
}

func (h *Handler) byID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	item, err := h.Queue.GetByID(r.Context(), id)
	if err != nil {
		respond.Error(w, http.StatusInternalServerError, "review query failed")
		return
	}
	if item == nil {
		respond.NotFound(w, "review item")
		return
	}
	respond.JSON(w, http.StatusOK, item)
}

func (h *Handler) approve(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req resolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Reviewer == "" {
		respond.Error(w, http.StatusBadRequest, "reviewer required")
		return
	}
	if err := h.Queue.Approve(r.Context(), id, req.Reviewer, req.Corrections); err != nil {
		respond.NotFound(w, "pending review item")
		return
	}
	respond.JSON(w, http.StatusOK, map[string]string{"status": "approved"})
}

func (h *Handler) reject(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req resolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Reviewer == "" {
		respond.Error(w, http.StatusBadRequest, "reviewer required")
		return
	}
	if err := h.Queue.Reject(r.Context(), id, req.Reviewer); err != nil {
		respond.NotFound(w, "pending review item")
		return
	}
	respond.JSON(w, http.StatusOK, map[string]string{"status": "rejected"})
}
