// Package alerts exposes scanner alerts over HTTP.
package alerts

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"edgarintel/pkg/api/respond"
	"edgarintel/pkg/core/scan"
)

// Handler serves /alerts routes.
type Handler struct {
	Store *scan.AlertStore
	Log   zerolog.Logger
}

// Routes mounts the alert endpoints.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/alerts", h.list)
	r.Post("/alerts/{id}/acknowledge", h.acknowledge)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	onlyOpen := r.URL.Query().Get("open") == "1"
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	alerts, err := h.Store.List(r.Context(), onlyOpen, limit)
	if err != nil {
		respond.Error(w, http.StatusInternalServerError, "alert query failed")
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"total": len(alerts), "alerts": alerts})
}

func (h *Handler) acknowledge(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ok, err := h.Store.Acknowledge(r.Context(), id)
	if err != nil {
		respond.Error(w, http.StatusInternalServerError, "acknowledge failed")
		return
	}
	if !ok {
		respond.NotFound(w, "alert")
		return
	}
	respond.JSON(w, http.StatusOK, map[string]string{"status": "acknowledged"})
}
