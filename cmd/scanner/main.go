// The scanner binary runs the ingestion jobs: the checkpointed Form 4
// insider scan, on-demand market-wide 8-K scans, YAML watchlist deep
// scans, OFAC SDN refreshes, and a cron daemon that runs the daily scan
// on weekday mornings.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"edgarintel/pkg/core/config"
	"edgarintel/pkg/core/connect"
	"edgarintel/pkg/core/edgar"
	"edgarintel/pkg/core/graph"
	"edgarintel/pkg/core/llm"
	"edgarintel/pkg/core/ofac"
	"edgarintel/pkg/core/review"
	"edgarintel/pkg/core/scan"
	"edgarintel/pkg/models"
)

// dailySchedule fires at 06:30 New York time on weekdays, before the
// market open and after EDGAR's overnight index updates.
const dailySchedule = "30 6 * * 1-5"

type app struct {
	cfg      *config.Config
	log      zerolog.Logger
	store    *graph.Store
	queue    *review.Queue
	edgar    *edgar.Client
	ingester *scan.Ingester
}

func newApp(ctx context.Context) (*app, error) {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	store, err := graph.NewStore(ctx, cfg.Neo4jURI, cfg.Neo4jUser, cfg.Neo4jPassword, log)
	if err != nil {
		return nil, err
	}
	if err := store.EnsureConstraints(ctx); err != nil {
		return nil, err
	}
	queue, err := review.Open(cfg.ReviewDBPath, log)
	if err != nil {
		return nil, err
	}
	client, err := edgar.NewClient(cfg.EdgarUserAgent, log)
	if err != nil {
		return nil, err
	}

	var analyzer llm.TextAnalyzer
	if cfg.GeminiAPIKey != "" {
		analyzer = &llm.GeminiAnalyzer{APIKey: cfg.GeminiAPIKey, Model: cfg.GeminiModel}
	}

	loader := graph.NewLoader(store, log)
	return &app{
		cfg:   cfg,
		log:   log,
		store: store,
		queue: queue,
		edgar: client,
		ingester: &scan.Ingester{
			Edgar:    client,
			Loader:   loader,
			Linker:   graph.NewPartyLinker(store, log),
			Analyzer: analyzer,
			Reviews:  queue,
			Log:      log,
		},
	}, nil
}

func (a *app) close(ctx context.Context) {
	a.queue.Close()
	a.store.Close(ctx)
}

func (a *app) runForm4(ctx context.Context) error {
	scanner := scan.NewForm4Scanner(a.edgar, a.store, a.ingester, a.log)
	result, err := scanner.Run(ctx)
	if err != nil {
		return err
	}
	a.log.Info().Str("status", result.Status).Msg("scan finished")
	if result.Status == models.RunPartialSuccess {
		return fmt.Errorf("scan completed with %d errors", len(result.Errors))
	}
	return nil
}

func (a *app) runMarketScan(ctx context.Context, daysBack int) error {
	coordinator := scan.NewCoordinator(a.edgar, a.ingester, a.log)
	coordinator.Start(daysBack)
	for coordinator.Status().Status == scan.ScanInProgress {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(2 * time.Second):
		}
	}
	status := coordinator.Status()
	a.log.Info().Str("status", status.Status).Int("processed", status.Processed).Msg("market scan finished")
	if status.Status == scan.ScanError || len(status.Errors) > 0 {
		return fmt.Errorf("market scan completed with %d errors", len(status.Errors))
	}
	return nil
}

func (a *app) runOFACRefresh(ctx context.Context, force, fuzzy bool) error {
	client := ofac.NewClient(a.cfg.OFACCacheDir, a.log)
	data, err := client.FetchSDN(ctx, force)
	if err != nil {
		return err
	}
	parsed, err := ofac.Parse(data, ofac.SDNListURL)
	if err != nil {
		return err
	}
	for _, w := range parsed.Warnings {
		a.log.Warn().Str("warning", w).Msg("sdn parse warning")
	}

	matcher := connect.NewMatcher(a.store, a.log)
	loaded, err := matcher.LoadSDNEntities(ctx, parsed.Entities)
	if err != nil {
		return err
	}
	matches, err := matcher.MatchAll(ctx, fuzzy)
	if err != nil {
		return err
	}
	pending := 0
	for _, m := range matches {
		if m.RequiresReview {
			pending++
		}
	}
	a.log.Info().Int("entities", loaded).Int("matches", len(matches)).
		Int("pending_review", pending).Msg("OFAC refresh complete")
	return nil
}

func (a *app) runWatchlist(ctx context.Context, path string) error {
	wl, err := scan.LoadWatchlist(path)
	if err != nil {
		return err
	}
	stats, err := a.ingester.RunWatchlist(ctx, wl, a.edgar)
	if err != nil {
		return err
	}
	a.log.Info().Int("companies", stats.Companies).
		Int("filings", stats.FilingsLoaded).Int("records", stats.RecordsLoaded).
		Msg("watchlist scan finished")
	if len(stats.Errors) > 0 {
		return fmt.Errorf("watchlist scan completed with %d errors", len(stats.Errors))
	}
	return nil
}

func (a *app) runDaemon(ctx context.Context) error {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		return err
	}
	c := cron.New(cron.WithLocation(loc))
	_, err = c.AddFunc(dailySchedule, func() {
		if err := a.runForm4(context.Background()); err != nil {
			a.log.Error().Err(err).Msg("scheduled scan failed")
		}
	})
	if err != nil {
		return err
	}
	a.log.Info().Str("schedule", dailySchedule).Msg("daemon started")
	c.Start()
	<-ctx.Done()
	c.Stop()
	return nil
}

func main() {
	ctx := context.Background()

	root := &cobra.Command{
		Use:           "scanner",
		Short:         "EDGAR intelligence scanners",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(&cobra.Command{
		Use:   "form4",
		Short: "Run one checkpointed Form 4 insider scan",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close(cmd.Context())
			return a.runForm4(cmd.Context())
		},
	})

	marketCmd := &cobra.Command{
		Use:   "market-scan",
		Short: "Scan all recent 8-K filers",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close(cmd.Context())
			daysBack, _ := cmd.Flags().GetInt("days-back")
			return a.runMarketScan(cmd.Context(), daysBack)
		},
	}
	marketCmd.Flags().Int("days-back", 1, "how many days of filings to scan")
	root.AddCommand(marketCmd)

	ofacCmd := &cobra.Command{
		Use:   "ofac-refresh",
		Short: "Refresh the OFAC SDN list and re-run entity matching",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close(cmd.Context())
			force, _ := cmd.Flags().GetBool("force")
			fuzzy, _ := cmd.Flags().GetBool("fuzzy")
			return a.runOFACRefresh(cmd.Context(), force, fuzzy)
		},
	}
	ofacCmd.Flags().Bool("force", false, "ignore the 7-day cache")
	ofacCmd.Flags().Bool("fuzzy", false, "also report fuzzy name matches for review")
	root.AddCommand(ofacCmd)

	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Deep-scan every company on a YAML watchlist",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close(cmd.Context())
			path, _ := cmd.Flags().GetString("file")
			return a.runWatchlist(cmd.Context(), path)
		},
	}
	watchCmd.Flags().String("file", "watchlist.yaml", "watchlist YAML path")
	root.AddCommand(watchCmd)

	root.AddCommand(&cobra.Command{
		Use:   "daemon",
		Short: "Run the daily Form 4 scan on a weekday-morning schedule",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close(cmd.Context())
			return a.runDaemon(cmd.Context())
		},
	})

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
