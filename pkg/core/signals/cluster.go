package signals

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"edgarintel/pkg/core/graph"
	"edgarintel/pkg/models"
)

// clusterWindowDays is the sliding buy window inside the lookback.
const clusterWindowDays = 30

// ClusterEngine detects multi-insider buying windows from stored Form 4
// transactions.
type ClusterEngine struct {
	store graph.Querier
	log   zerolog.Logger
}

// NewClusterEngine builds a ClusterEngine over a Querier.
func NewClusterEngine(store graph.Querier, log zerolog.Logger) *ClusterEngine {
	return &ClusterEngine{store: store, log: log.With().Str("component", "clusters").Logger()}
}

// DetectClusters scans all companies for bullish insider windows over the
// past days (default 90) and returns clusters at or above minLevel.
func (e *ClusterEngine) DetectClusters(ctx context.Context, days int, minLevel string) ([]models.InsiderCluster, error) {
	return e.detect(ctx, days, minLevel, nil)
}

// DetectClustersExcluding8K is DetectClusters minus any company that has
// already filed an M&A-flagged 8-K since sinceDate, so the merged feed
// does not count the same company twice.
func (e *ClusterEngine) DetectClustersExcluding8K(ctx context.Context, days int, minLevel, sinceDate string) ([]models.InsiderCluster, error) {
	rows, err := e.store.ExecuteQuery(ctx, `
		MATCH (c:Company)-[:FILED_EVENT]->(ev:Event)
		WHERE ev.is_ma_signal = true AND ev.filing_date >= $since
		RETURN DISTINCT c.cik AS cik`,
		map[string]any{"since": sinceDate})
	if err != nil {
		return nil, err
	}
	excluded := make(map[string]bool, len(rows))
	for _, row := range rows {
		if cik, ok := row["cik"].(string); ok {
			excluded[cik] = true
		}
	}
	return e.detect(ctx, days, minLevel, excluded)
}

func (e *ClusterEngine) detect(ctx context.Context, days int, minLevel string, excluded map[string]bool) ([]models.InsiderCluster, error) {
	if days <= 0 {
		days = 90
	}
	since := time.Now().UTC().AddDate(0, 0, -days).Format("2006-01-02")

	rows, err := e.store.ExecuteQuery(ctx, `
		MATCH (c:Company)-[:INSIDER_TRADE_OF]->(t:InsiderTransaction)
		WHERE t.transaction_code IN ['P', 'M', 'S', 'F']
			AND t.transaction_date >= $since
		RETURN c.cik AS cik, c.name AS company_name, c.tickers AS tickers,
			t.transaction_date AS date, t.transaction_code AS code,
			t.total_value AS total_value, t.insider_name AS insider_name,
			t.insider_title AS insider_title
		ORDER BY cik, date`,
		map[string]any{"since": since})
	if err != nil {
		return nil, err
	}

	type company struct {
		name   string
		ticker string
		txns   []models.InsiderTransaction
	}
	byCIK := make(map[string]*company)
	for _, row := range rows {
		cik, _ := row["cik"].(string)
		if cik == "" || excluded[cik] {
			continue
		}
		co := byCIK[cik]
		if co == nil {
			co = &company{}
			co.name, _ = row["company_name"].(string)
			co.ticker = firstTicker(row["tickers"])
			byCIK[cik] = co
		}
		txn := models.InsiderTransaction{CompanyCIK: cik}
		txn.TransactionDate, _ = row["date"].(string)
		txn.TransactionCode, _ = row["code"].(string)
		txn.InsiderName, _ = row["insider_name"].(string)
		txn.InsiderTitle, _ = row["insider_title"].(string)
		txn.TotalValue = asFloat(row["total_value"])
		co.txns = append(co.txns, txn)
	}

	var clusters []models.InsiderCluster
	for cik, co := range byCIK {
		cluster := buildCluster(cik, co.name, co.ticker, co.txns)
		if cluster != nil && levelRank(cluster.Level) >= levelRank(minLevel) {
			clusters = append(clusters, *cluster)
		}
	}
	sort.Slice(clusters, func(i, j int) bool {
		ri, rj := levelRank(clusters[i].Level), levelRank(clusters[j].Level)
		if ri != rj {
			return ri > rj
		}
		return clusters[i].TotalBuyValue > clusters[j].TotalBuyValue
	})
	e.log.Info().Int("companies", len(byCIK)).Int("clusters", len(clusters)).Msg("cluster detection complete")
	return clusters, nil
}

// buildCluster classifies one company's trades, keeps bullish non-zero
// buys within the trailing window, and scores the result. Returns nil
// when no bullish trades exist.
func buildCluster(cik, name, ticker string, txns []models.InsiderTransaction) *models.InsiderCluster {
	types := ClassifyTrades(txns)

	var bullish []models.InsiderTransaction
	for i, t := range txns {
		// $0 routine exercises carry no conviction signal.
		if types[i].Bullish() && t.TotalValue > 0 {
			bullish = append(bullish, t)
		}
	}
	if len(bullish) == 0 {
		return nil
	}

	windowEnd := ""
	for _, t := range bullish {
		if t.TransactionDate > windowEnd {
			windowEnd = t.TransactionDate
		}
	}
	windowStart := shiftDate(windowEnd, -clusterWindowDays)

	buyers := make(map[string]*models.BuyerActivity)
	total := 0.0
	for _, t := range bullish {
		if t.TransactionDate < windowStart || t.TransactionDate > windowEnd {
			continue
		}
		key := strings.ToLower(t.InsiderName)
		b := buyers[key]
		if b == nil {
			b = &models.BuyerActivity{Name: t.InsiderName, Title: t.InsiderTitle}
			buyers[key] = b
		}
		b.TotalValue += t.TotalValue
		b.TradeCount++
		total += t.TotalValue
	}
	if len(buyers) == 0 {
		return nil
	}

	level := models.LevelLow
	switch {
	case len(buyers) >= 3:
		level = models.LevelHigh
	case len(buyers) >= 2 || total >= 500_000:
		level = models.LevelMedium
	}

	cluster := &models.InsiderCluster{
		CompanyCIK:    cik,
		CompanyName:   name,
		Ticker:        ticker,
		WindowStart:   windowStart,
		WindowEnd:     windowEnd,
		NumBuyers:     len(buyers),
		TotalBuyValue: total,
		Level:         level,
		Summary:       fmt.Sprintf("Insider Cluster: %d insiders buying", len(buyers)),
	}
	for _, b := range buyers {
		cluster.Buyers = append(cluster.Buyers, *b)
	}
	sort.Slice(cluster.Buyers, func(i, j int) bool {
		return cluster.Buyers[i].TotalValue > cluster.Buyers[j].TotalValue
	})
	return cluster
}

func levelRank(level string) int {
	switch level {
	case models.LevelCritical:
		return 3
	case models.LevelHigh:
		return 2
	case models.LevelMedium:
		return 1
	default:
		return 0
	}
}

func shiftDate(day string, days int) string {
	t, err := time.Parse("2006-01-02", day)
	if err != nil {
		return day
	}
	return t.AddDate(0, 0, days).Format("2006-01-02")
}

func firstTicker(v any) string {
	switch tickers := v.(type) {
	case []any:
		if len(tickers) > 0 {
			if s, ok := tickers[0].(string); ok {
				return s
			}
		}
	case []string:
		if len(tickers) > 0 {
			return tickers[0]
		}
	}
	return ""
}

func asFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	case int:
		return float64(n)
	}
	return 0
}
