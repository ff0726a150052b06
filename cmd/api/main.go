// The api binary serves the intelligence graph over HTTP: the signal
// feed, connection and risk queries, sanctions checks, citations, review
// queue, and alerts.
package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	alertsapi "edgarintel/pkg/api/alerts"
	citationsapi "edgarintel/pkg/api/citations"
	companiesapi "edgarintel/pkg/api/companies"
	connectionsapi "edgarintel/pkg/api/connections"
	feedapi "edgarintel/pkg/api/feed"
	reviewapi "edgarintel/pkg/api/review"
	sanctionsapi "edgarintel/pkg/api/sanctions"
	"edgarintel/pkg/api/respond"
	"edgarintel/pkg/core/config"
	"edgarintel/pkg/core/connect"
	"edgarintel/pkg/core/edgar"
	"edgarintel/pkg/core/graph"
	"edgarintel/pkg/core/llm"
	"edgarintel/pkg/core/review"
	"edgarintel/pkg/core/scan"
	"edgarintel/pkg/core/signals"
)

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("configuration invalid")
	}

	ctx := context.Background()
	store, err := graph.NewStore(ctx, cfg.Neo4jURI, cfg.Neo4jUser, cfg.Neo4jPassword, log)
	if err != nil {
		log.Fatal().Err(err).Msg("cannot connect to graph")
	}
	defer store.Close(ctx)
	if err := store.EnsureConstraints(ctx); err != nil {
		log.Fatal().Err(err).Msg("cannot ensure graph constraints")
	}

	queue, err := review.Open(cfg.ReviewDBPath, log)
	if err != nil {
		log.Fatal().Err(err).Msg("cannot open review queue")
	}
	defer queue.Close()

	edgarClient, err := edgar.NewClient(cfg.EdgarUserAgent, log)
	if err != nil {
		log.Fatal().Err(err).Msg("cannot build EDGAR client")
	}

	var analyzer llm.TextAnalyzer
	if cfg.GeminiAPIKey != "" {
		analyzer = &llm.GeminiAnalyzer{APIKey: cfg.GeminiAPIKey, Model: cfg.GeminiModel}
	} else {
		log.Warn().Msg("no Gemini API key; LLM fallback disabled")
	}

	loader := graph.NewLoader(store, log)
	linker := graph.NewPartyLinker(store, log)
	ingester := &scan.Ingester{
		Edgar:    edgarClient,
		Loader:   loader,
		Linker:   linker,
		Analyzer: analyzer,
		Reviews:  queue,
		Log:      log,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		respond.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	feedHandler := &feedapi.Handler{
		Feed:        signals.NewFeed(store, log),
		Accuracy:    signals.NewAccuracyEngine(store, nil, log),
		Ingester:    ingester,
		Coordinator: scan.NewCoordinator(edgarClient, ingester, log),
		Log:         log,
	}
	connectionsHandler := &connectionsapi.Handler{
		Service: connect.NewService(store, log),
		Risk:    connect.NewRiskEngine(store, log),
		Store:   store,
		Log:     log,
	}
	sanctionsHandler := &sanctionsapi.Handler{
		Engine: connect.NewSanctionsEngine(store, log),
		Log:    log,
	}
	citationsHandler := &citationsapi.Handler{Store: store, Log: log}
	reviewHandler := &reviewapi.Handler{Queue: queue, Log: log}
	alertsHandler := &alertsapi.Handler{Store: scan.NewAlertStore(store, log), Log: log}
	companiesHandler := &companiesapi.Handler{Edgar: edgarClient, Log: log}

	r.Group(feedHandler.Routes)
	r.Group(companiesHandler.Routes)
	r.Group(connectionsHandler.Routes)
	r.Group(sanctionsHandler.Routes)
	r.Group(citationsHandler.Routes)
	r.Group(reviewHandler.Routes)
	r.Group(alertsHandler.Routes)

	log.Info().Str("addr", cfg.ListenAddr).Msg("api listening")
	if err := http.ListenAndServe(cfg.ListenAddr, r); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
