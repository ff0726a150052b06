// Package feed exposes the M&A signal feed and scan triggers over HTTP.
package feed

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"edgarintel/pkg/api/respond"
	"edgarintel/pkg/core/scan"
	"edgarintel/pkg/core/signals"
)

// Handler serves /feed routes.
type Handler struct {
	Feed        *signals.Feed
	Accuracy    *signals.AccuracyEngine
	Ingester    *scan.Ingester
	Coordinator *scan.Coordinator
	Log         zerolog.Logger
}

// Routes mounts the feed endpoints.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/feed", h.getFeed)
	r.Get("/feed/stats", h.getStats)
	r.Get("/feed/accuracy", h.getAccuracy)
	r.Post("/feed/scan/{cik}", h.scanCompany)
	r.Post("/feed/market-scan", h.startMarketScan)
	r.Get("/feed/market-scan/status", h.marketScanStatus)
}

func (h *Handler) getFeed(w http.ResponseWriter, r *http.Request) {
	days := intQuery(r, "days", 30)
	limit := intQuery(r, "limit", 50)
	minLevel := r.URL.Query().Get("min_level")
	cik := r.URL.Query().Get("cik")

	result, err := h.Feed.GetFeed(r.Context(), days, limit, minLevel, cik)
	if err != nil {
		h.Log.Error().Err(err).Msg("feed query failed")
		respond.Error(w, http.StatusInternalServerError, "feed query failed")
		return
	}
	respond.JSON(w, http.StatusOK, result)
}

func (h *Handler) getStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Feed.Stats(r.Context())
	if err != nil {
		respond.Error(w, http.StatusInternalServerError, "stats query failed")
		return
	}
	respond.JSON(w, http.StatusOK, stats)
}

func (h *Handler) getAccuracy(w http.ResponseWriter, r *http.Request) {
	lookback := intQuery(r, "lookback_days", 180)
	minAge := intQuery(r, "min_signal_age_days", 30)
	minLevel := r.URL.Query().Get("min_level")

	report, err := h.Accuracy.Report(r.Context(), lookback, minAge, minLevel)
	if err != nil {
		h.Log.Error().Err(err).Msg("accuracy report failed")
		respond.Error(w, http.StatusInternalServerError, "accuracy report failed")
		return
	}
	respond.JSON(w, http.StatusOK, report)
}

func (h *Handler) scanCompany(w http.ResponseWriter, r *http.Request) {
	cik := chi.URLParam(r, "cik")
	if cik == "" {
		respond.Error(w, http.StatusBadRequest, "cik required")
		return
	}
	limit := intQuery(r, "limit", 5)

	stats, err := h.Ingester.Ingest8K(r.Context(), cik, limit)
	if err != nil {
		h.Log.Error().Err(err).Str("cik", cik).Msg("company scan failed")
		respond.Error(w, http.StatusInternalServerError, "scan failed: "+err.Error())
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{
		"cik":            cik,
		"filings_loaded": stats.FilingsLoaded,
		"records_loaded": stats.RecordsLoaded,
		"warnings":       stats.Warnings,
	})
}

func (h *Handler) startMarketScan(w http.ResponseWriter, r *http.Request) {
	daysBack := intQuery(r, "days_back", 1)
	status := h.Coordinator.Start(daysBack)
	code := http.StatusAccepted
	if status == scan.ScanAlreadyRunning {
		code = http.StatusConflict
	}
	respond.JSON(w, code, map[string]string{"status": status})
}

func (h *Handler) marketScanStatus(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, h.Coordinator.Status())
}

func intQuery(r *http.Request, key string, def int) int {
	if v := r.URL.Query().Get(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
