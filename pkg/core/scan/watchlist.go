package scan

import (
	"context"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v2"
)

// defaultWatchLimit bounds how many filings of each form type a watchlist
// pass ingests per company.
const defaultWatchLimit = 5

// WatchEntry is one company on the watchlist. Either CIK or Ticker must be
// set; CIK wins when both are.
type WatchEntry struct {
	CIK    string `yaml:"cik"`
	Ticker string `yaml:"ticker"`
	Name   string `yaml:"name"`
}

// Watchlist is the YAML file driving targeted deep scans: for every listed
// company the scanner ingests recent 8-Ks, Form 4s, the latest proxy and
// the latest Exhibit 21.
type Watchlist struct {
	Companies   []WatchEntry `yaml:"companies"`
	FilingLimit int          `yaml:"filing_limit"`
}

// LoadWatchlist reads and validates a watchlist YAML file.
func LoadWatchlist(path string) (*Watchlist, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("scan: read watchlist: %w", err)
	}

	var wl Watchlist
	if err := yaml.Unmarshal(data, &wl); err != nil {
		return nil, fmt.Errorf("scan: parse watchlist %s: %w", path, err)
	}
	if len(wl.Companies) == 0 {
		return nil, fmt.Errorf("scan: watchlist %s lists no companies", path)
	}
	for i, c := range wl.Companies {
		if strings.TrimSpace(c.CIK) == "" && strings.TrimSpace(c.Ticker) == "" {
			return nil, fmt.Errorf("scan: watchlist entry %d needs a cik or ticker", i)
		}
	}
	if wl.FilingLimit <= 0 {
		wl.FilingLimit = defaultWatchLimit
	}
	return &wl, nil
}

// CIKResolver resolves ticker symbols to CIKs. Satisfied by edgar.Client.
type CIKResolver interface {
	LookupCIKByTicker(ctx context.Context, ticker string) (string, error)
}

// WatchStats aggregates one watchlist pass.
type WatchStats struct {
	Companies     int      `json:"companies"`
	FilingsLoaded int      `json:"filings_loaded"`
	RecordsLoaded int      `json:"records_loaded"`
	Errors        []string `json:"errors,omitempty"`
}

// RunWatchlist deep-scans every watchlist company: 8-K events, insider
// trades, proxy ownership/officers and subsidiaries. Per-company failures
// are collected, not fatal.
func (in *Ingester) RunWatchlist(ctx context.Context, wl *Watchlist, resolver CIKResolver) (WatchStats, error) {
	var stats WatchStats

	for _, entry := range wl.Companies {
		cik := strings.TrimSpace(entry.CIK)
		if cik == "" {
			resolved, err := resolver.LookupCIKByTicker(ctx, entry.Ticker)
			if err != nil {
				stats.Errors = append(stats.Errors, fmt.Sprintf("%s: %v", entry.Ticker, err))
				continue
			}
			cik = resolved
		}

		stats.Companies++
		log := in.Log.With().Str("cik", cik).Str("name", entry.Name).Logger()

		steps := []struct {
			name string
			run  func() (IngestStats, error)
		}{
			{"8-K", func() (IngestStats, error) { return in.Ingest8K(ctx, cik, wl.FilingLimit) }},
			{"form4", func() (IngestStats, error) { return in.IngestInsiderTrades(ctx, cik, wl.FilingLimit) }},
			{"proxy", func() (IngestStats, error) { return in.IngestProxy(ctx, cik, 1) }},
			{"subsidiaries", func() (IngestStats, error) { return in.IngestSubsidiaries(ctx, cik) }},
		}
		for _, step := range steps {
			if err := ctx.Err(); err != nil {
				return stats, err
			}
			s, err := step.run()
			if err != nil {
				stats.Errors = append(stats.Errors, fmt.Sprintf("%s %s: %v", cik, step.name, err))
				log.Warn().Err(err).Str("step", step.name).Msg("watchlist step failed")
				continue
			}
			stats.FilingsLoaded += s.FilingsLoaded
			stats.RecordsLoaded += s.RecordsLoaded
		}
		log.Info().Msg("watchlist company scanned")
	}
	return stats, nil
}
