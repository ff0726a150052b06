package edgar

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

type tickerEntry struct {
	CIK    string
	Ticker string
	Title  string
}

// CompanyMatch is one scored result of a ticker/name search.
type CompanyMatch struct {
	CIK    string `json:"cik"`
	Ticker string `json:"ticker"`
	Name   string `json:"name"`
	Score  int    `json:"score"`
}

// loadTickerRegistry fetches company_tickers.json once per process.
// Format: {"0": {"cik_str": 320193, "ticker": "AAPL", "title": "Apple Inc."}, ...}
func (c *Client) loadTickerRegistry(ctx context.Context) error {
	c.tickerMu.RLock()
	loaded := len(c.tickerCache) > 0
	c.tickerMu.RUnlock()
	if loaded {
		return nil
	}

	body, err := c.fetch(ctx, companyTickersURL, "application/json")
	if err != nil {
		return err
	}

	var raw map[string]struct {
		CIK    int    `json:"cik_str"`
		Ticker string `json:"ticker"`
		Title  string `json:"title"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return fmt.Errorf("edgar: parse company tickers: %w", err)
	}

	entries := make([]tickerEntry, 0, len(raw))
	for _, e := range raw {
		entries = append(entries, tickerEntry{
			CIK:    NormalizeCIK(fmt.Sprintf("%d", e.CIK)),
			Ticker: strings.ToUpper(e.Ticker),
			Title:  e.Title,
		})
	}

	c.tickerMu.Lock()
	c.tickerCache = entries
	c.tickerMu.Unlock()
	c.log.Debug().Int("entries", len(entries)).Msg("loaded ticker registry")
	return nil
}

// LookupCIKByTicker resolves a ticker symbol to its zero-padded CIK.
func (c *Client) LookupCIKByTicker(ctx context.Context, ticker string) (string, error) {
	if err := c.loadTickerRegistry(ctx); err != nil {
		return "", err
	}
	want := strings.ToUpper(strings.TrimSpace(ticker))

	c.tickerMu.RLock()
	defer c.tickerMu.RUnlock()
	for _, e := range c.tickerCache {
		if e.Ticker == want {
			return e.CIK, nil
		}
	}
	return "", fmt.Errorf("edgar: ticker %s not found", ticker)
}

// SearchCompaniesByTickerOrName scores registry entries against the query
// and returns the top limit matches.
func (c *Client) SearchCompaniesByTickerOrName(ctx context.Context, query string, limit int) ([]CompanyMatch, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("edgar: empty search query")
	}
	if err := c.loadTickerRegistry(ctx); err != nil {
		return nil, err
	}

	c.tickerMu.RLock()
	entries := c.tickerCache
	c.tickerMu.RUnlock()

	var matches []CompanyMatch
	for _, e := range entries {
		score := scoreMatch(query, e.Ticker, e.Title)
		if score == 0 {
			continue
		}
		matches = append(matches, CompanyMatch{CIK: e.CIK, Ticker: e.Ticker, Name: e.Title, Score: score})
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].Name < matches[j].Name
	})

	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

// scoreMatch ranks a registry entry for a query. Exact ticker beats ticker
// prefix beats exact name beats name prefix beats word prefix beats name
// substring beats ticker substring.
func scoreMatch(query, ticker, name string) int {
	q := strings.ToUpper(strings.TrimSpace(query))
	t := strings.ToUpper(ticker)
	n := strings.ToUpper(name)

	switch {
	case t == q:
		return 1000
	case strings.HasPrefix(t, q):
		return 500
	case n == q:
		return 400
	case strings.HasPrefix(n, q):
		return 300
	}
	for _, word := range strings.Fields(n) {
		if strings.HasPrefix(word, q) {
			return 200
		}
	}
	switch {
	case strings.Contains(n, q):
		return 100
	case strings.Contains(t, q):
		return 50
	}
	return 0
}
