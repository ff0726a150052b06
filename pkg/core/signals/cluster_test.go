package signals

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"edgarintel/pkg/models"
)

func day(offset int) string {
	return time.Now().UTC().AddDate(0, 0, offset).Format("2006-01-02")
}

func tradeRow(cik, name, insider, code, date string, value float64) map[string]any {
	return map[string]any{
		"cik":           cik,
		"company_name":  name,
		"tickers":       []any{"ACME"},
		"date":          date,
		"code":          code,
		"total_value":   value,
		"insider_name":  insider,
		"insider_title": "Director",
	}
}

func TestDetectClustersThreeBuyers(t *testing.T) {
	store := &fakeQuerier{rowsFor: map[string][]map[string]any{
		"INSIDER_TRADE_OF": {
			tradeRow("0000123456", "Acme Corp", "Alice Smith", "P", day(-10), 50_000),
			tradeRow("0000123456", "Acme Corp", "Bob Jones", "P", day(-8), 30_000),
			tradeRow("0000123456", "Acme Corp", "Carol Wu", "P", day(-5), 20_000),
		},
	}}

	clusters, err := NewClusterEngine(store, zerolog.Nop()).DetectClusters(context.Background(), 90, models.LevelLow)
	require.NoError(t, err)
	require.Len(t, clusters, 1)

	c := clusters[0]
	assert.Equal(t, models.LevelHigh, c.Level)
	assert.Equal(t, 3, c.NumBuyers)
	assert.Equal(t, 100_000.0, c.TotalBuyValue)
	assert.Equal(t, "Insider Cluster: 3 insiders buying", c.Summary)
	assert.Equal(t, "ACME", c.Ticker)
	assert.Equal(t, day(-5), c.WindowEnd)
	assert.Equal(t, shiftDate(day(-5), -clusterWindowDays), c.WindowStart)

	// Buyers sorted by value, largest first.
	require.Len(t, c.Buyers, 3)
	assert.Equal(t, "Alice Smith", c.Buyers[0].Name)
	assert.Equal(t, 50_000.0, c.Buyers[0].TotalValue)
}

func TestDetectClustersLevels(t *testing.T) {
	t.Run("two buyers is medium", func(t *testing.T) {
		store := &fakeQuerier{rowsFor: map[string][]map[string]any{
			"INSIDER_TRADE_OF": {
				tradeRow("01", "A", "Alice Smith", "P", day(-3), 10_000),
				tradeRow("01", "A", "Bob Jones", "P", day(-2), 10_000),
			},
		}}
		clusters, err := NewClusterEngine(store, zerolog.Nop()).DetectClusters(context.Background(), 90, "")
		require.NoError(t, err)
		require.Len(t, clusters, 1)
		assert.Equal(t, models.LevelMedium, clusters[0].Level)
	})

	t.Run("single large buyer is medium", func(t *testing.T) {
		store := &fakeQuerier{rowsFor: map[string][]map[string]any{
			"INSIDER_TRADE_OF": {
				tradeRow("01", "A", "Alice Smith", "P", day(-3), 600_000),
			},
		}}
		clusters, err := NewClusterEngine(store, zerolog.Nop()).DetectClusters(context.Background(), 90, "")
		require.NoError(t, err)
		require.Len(t, clusters, 1)
		assert.Equal(t, models.LevelMedium, clusters[0].Level)
	})

	t.Run("single small buyer is low", func(t *testing.T) {
		store := &fakeQuerier{rowsFor: map[string][]map[string]any{
			"INSIDER_TRADE_OF": {
				tradeRow("01", "A", "Alice Smith", "P", day(-3), 5_000),
			},
		}}
		clusters, err := NewClusterEngine(store, zerolog.Nop()).DetectClusters(context.Background(), 90, "")
		require.NoError(t, err)
		require.Len(t, clusters, 1)
		assert.Equal(t, models.LevelLow, clusters[0].Level)
	})
}

func TestDetectClustersMinLevelFilter(t *testing.T) {
	store := &fakeQuerier{rowsFor: map[string][]map[string]any{
		"INSIDER_TRADE_OF": {
			tradeRow("01", "A", "Alice Smith", "P", day(-3), 5_000),
		},
	}}
	clusters, err := NewClusterEngine(store, zerolog.Nop()).DetectClusters(context.Background(), 90, models.LevelMedium)
	require.NoError(t, err)
	assert.Empty(t, clusters)
}

func TestDetectClustersIgnoresBearishAndZeroValue(t *testing.T) {
	store := &fakeQuerier{rowsFor: map[string][]map[string]any{
		"INSIDER_TRADE_OF": {
			// Exercise followed by same-day sale: bearish, not a cluster.
			tradeRow("01", "A", "Alice Smith", "M", day(-4), 40_000),
			tradeRow("01", "A", "Alice Smith", "S", day(-4), 40_000),
			// Zero-value exercise carries no conviction.
			tradeRow("01", "A", "Bob Jones", "M", day(-3), 0),
		},
	}}
	clusters, err := NewClusterEngine(store, zerolog.Nop()).DetectClusters(context.Background(), 90, "")
	require.NoError(t, err)
	assert.Empty(t, clusters)
}

func TestDetectClustersExerciseHoldCounts(t *testing.T) {
	store := &fakeQuerier{rowsFor: map[string][]map[string]any{
		"INSIDER_TRADE_OF": {
			tradeRow("01", "A", "Alice Smith", "M", day(-4), 40_000),
			// Sale on a different day does not flip the exercise.
			tradeRow("01", "A", "Alice Smith", "S", day(-20), 10_000),
		},
	}}
	clusters, err := NewClusterEngine(store, zerolog.Nop()).DetectClusters(context.Background(), 90, "")
	require.NoError(t, err)
	require.Len(t, clusters, 1)
	assert.Equal(t, 40_000.0, clusters[0].TotalBuyValue)
}

func TestDetectClustersWindowExcludesOldBuys(t *testing.T) {
	store := &fakeQuerier{rowsFor: map[string][]map[string]any{
		"INSIDER_TRADE_OF": {
			tradeRow("01", "A", "Alice Smith", "P", day(-2), 10_000),
			// Inside the lookback but more than 30 days before the last buy.
			tradeRow("01", "A", "Bob Jones", "P", day(-50), 10_000),
		},
	}}
	clusters, err := NewClusterEngine(store, zerolog.Nop()).DetectClusters(context.Background(), 90, "")
	require.NoError(t, err)
	require.Len(t, clusters, 1)
	assert.Equal(t, 1, clusters[0].NumBuyers)
	assert.Equal(t, 10_000.0, clusters[0].TotalBuyValue)
}

func TestDetectClustersSortsByLevelThenValue(t *testing.T) {
	store := &fakeQuerier{rowsFor: map[string][]map[string]any{
		"INSIDER_TRADE_OF": {
			tradeRow("0000000001", "Small", "Alice Smith", "P", day(-3), 5_000),
			tradeRow("0000000002", "Big", "Bob Jones", "P", day(-3), 200_000),
			tradeRow("0000000002", "Big", "Carol Wu", "P", day(-2), 200_000),
			tradeRow("0000000002", "Big", "Dan Lee", "P", day(-1), 200_000),
		},
	}}
	clusters, err := NewClusterEngine(store, zerolog.Nop()).DetectClusters(context.Background(), 90, "")
	require.NoError(t, err)
	require.Len(t, clusters, 2)
	assert.Equal(t, "0000000002", clusters[0].CompanyCIK)
	assert.Equal(t, models.LevelHigh, clusters[0].Level)
}

func TestDetectClustersExcluding8K(t *testing.T) {
	store := &fakeQuerier{rowsFor: map[string][]map[string]any{
		"FILED_EVENT": {
			{"cik": "0000000002"},
		},
		"INSIDER_TRADE_OF": {
			tradeRow("0000000001", "Quiet", "Alice Smith", "P", day(-3), 20_000),
			tradeRow("0000000002", "Loud", "Bob Jones", "P", day(-3), 20_000),
		},
	}}
	clusters, err := NewClusterEngine(store, zerolog.Nop()).
		DetectClustersExcluding8K(context.Background(), 90, "", day(-30))
	require.NoError(t, err)
	require.Len(t, clusters, 1)
	assert.Equal(t, "0000000001", clusters[0].CompanyCIK)
}
