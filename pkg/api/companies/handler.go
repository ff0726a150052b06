// Package companies exposes ticker-registry lookups over HTTP.
package companies

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"edgarintel/pkg/api/respond"
	"edgarintel/pkg/core/edgar"
)

// Handler serves /companies routes.
type Handler struct {
	Edgar *edgar.Client
	Log   zerolog.Logger
}

// Routes mounts the company lookup endpoints.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/companies/search", h.search)
	r.Get("/companies/resolve/{ticker}", h.resolve)
}

func (h *Handler) search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		respond.Error(w, http.StatusBadRequest, "q required")
		return
	}
	limit := 10
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	matches, err := h.Edgar.SearchCompaniesByTickerOrName(r.Context(), query, limit)
	if err != nil {
		h.Log.Error().Err(err).Str("query", query).Msg("company search failed")
		respond.Error(w, http.StatusInternalServerError, "company search failed")
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"total": len(matches), "matches": matches})
}

func (h *Handler) resolve(w http.ResponseWriter, r *http.Request) {
	ticker := chi.URLParam(r, "ticker")
	cik, err := h.Edgar.LookupCIKByTicker(r.Context(), ticker)
	if err != nil {
		respond.NotFound(w, "ticker")
		return
	}
	respond.JSON(w, http.StatusOK, map[string]string{"ticker": ticker, "cik": cik})
}
