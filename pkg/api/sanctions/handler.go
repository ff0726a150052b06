// Package sanctions exposes sanctions checks and SDN search over HTTP.
package sanctions

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"edgarintel/pkg/api/respond"
	"edgarintel/pkg/core/connect"
)

// Handler serves /sanctions routes.
type Handler struct {
	Engine *connect.SanctionsEngine
	Log    zerolog.Logger
}

// Routes mounts the sanctions endpoints.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/sanctions/check/{id}", h.check)
	r.Get("/sanctions/exposure/{id}", h.exposure)
	r.Get("/sanctions/list/search", h.search)
}

func (h *Handler) check(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	sanctioned, err := h.Engine.CheckDirect(r.Context(), id)
	if err != nil {
		h.Log.Error().Err(err).Str("id", id).Msg("sanctions check failed")
		respond.Error(w, http.StatusInternalServerError, "sanctions check failed")
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"entity_id": id, "sanctioned": sanctioned})
}

func (h *Handler) exposure(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	maxHops, _ := strconv.Atoi(r.URL.Query().Get("max_hops"))

	exposure, err := h.Engine.Exposure(r.Context(), id, maxHops)
	if err != nil {
		h.Log.Error().Err(err).Str("id", id).Msg("exposure query failed")
		respond.Error(w, http.StatusInternalServerError, "exposure query failed")
		return
	}
	respond.JSON(w, http.StatusOK, exposure)
}

func (h *Handler) search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		respond.Error(w, http.StatusBadRequest, "q required")
		return
	}
	entityType := r.URL.Query().Get("entity_type")
	if entityType != "" && entityType != "individual" && entityType != "entity" {
		respond.Error(w, http.StatusBadRequest, "entity_type must be individual or entity")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	results, err := h.Engine.SearchList(r.Context(), q, entityType, limit)
	if err != nil {
		respond.Error(w, http.StatusInternalServerError, "sdn search failed")
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"total": len(results), "results": results})
}
