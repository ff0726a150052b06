package signals

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"edgarintel/pkg/models"
)

type fakePriceProvider struct {
	closes []models.PricePoint
	err    error
}

func (f *fakePriceProvider) GetPriceData(_ context.Context, _ string, _ int) ([]models.PricePoint, error) {
	return f.closes, f.err
}

func TestComputePriceOutcomesEmptyCloses(t *testing.T) {
	r30, r60, r90 := ComputePriceOutcomes(nil, "2025-01-15")
	assert.Nil(t, r30)
	assert.Nil(t, r60)
	assert.Nil(t, r90)
}

func TestComputePriceOutcomesNearestClose(t *testing.T) {
	closes := []models.PricePoint{
		{Date: "2025-01-15", Close: 100},
		{Date: "2025-02-14", Close: 110}, // +30
		{Date: "2025-03-16", Close: 90},  // +60
		{Date: "2025-04-15", Close: 125}, // +90
	}
	r30, r60, r90 := ComputePriceOutcomes(closes, "2025-01-15")

	require.NotNil(t, r30)
	assert.InDelta(t, 10.0, *r30, 0.001)
	require.NotNil(t, r60)
	assert.InDelta(t, -10.0, *r60, 0.001)
	require.NotNil(t, r90)
	assert.InDelta(t, 25.0, *r90, 0.001)
}

func TestComputePriceOutcomesToleranceWindow(t *testing.T) {
	closes := []models.PricePoint{
		{Date: "2025-01-15", Close: 100},
		// 10 days past the +30 target, outside the 7-day tolerance.
		{Date: "2025-02-24", Close: 120},
	}
	r30, r60, r90 := ComputePriceOutcomes(closes, "2025-01-15")
	assert.Nil(t, r30)
	assert.Nil(t, r60)
	assert.Nil(t, r90)
}

func TestComputePriceOutcomesNoBaseClose(t *testing.T) {
	closes := []models.PricePoint{
		// Nearest close sits 20 days after the signal date.
		{Date: "2025-02-04", Close: 100},
	}
	r30, _, _ := ComputePriceOutcomes(closes, "2025-01-15")
	assert.Nil(t, r30)
}

func TestVerdicts(t *testing.T) {
	f := func(v float64) *float64 { return &v }

	assert.Equal(t, models.VerdictHit, verdict(models.SignalOutcome{FollowedBy8K: true}))
	assert.Equal(t, models.VerdictNoData, verdict(models.SignalOutcome{}))
	assert.Equal(t, models.VerdictHit, verdict(models.SignalOutcome{Return30: f(12)}))
	assert.Equal(t, models.VerdictPartialHit, verdict(models.SignalOutcome{Return30: f(4)}))
	assert.Equal(t, models.VerdictMiss, verdict(models.SignalOutcome{Return30: f(-8)}))
	// Best horizon wins even when another is negative.
	assert.Equal(t, models.VerdictHit, verdict(models.SignalOutcome{Return30: f(-2), Return90: f(15)}))
}

func TestReportScoresMatureSignals(t *testing.T) {
	store := &fakeQuerier{rowsFor: map[string][]map[string]any{
		"INSIDER_TRADE_OF": {
			tradeRow("0000123456", "Acme Corp", "Alice Smith", "P", day(-60), 50_000),
		},
		"FILED_EVENT": {
			{"n": int64(0)},
		},
	}}
	prices := &fakePriceProvider{closes: []models.PricePoint{
		{Date: day(-60), Close: 100},
		{Date: day(-30), Close: 115},
	}}

	engine := NewAccuracyEngine(store, prices, zerolog.Nop())
	report, err := engine.Report(context.Background(), 180, 30, "")
	require.NoError(t, err)
	require.Len(t, report.Outcomes, 1)

	o := report.Outcomes[0]
	assert.Equal(t, models.VerdictHit, o.Verdict)
	assert.False(t, o.FollowedBy8K)
	require.NotNil(t, o.Return30)
	assert.InDelta(t, 15.0, *o.Return30, 0.001)

	acc := report.ByLevel[models.LevelLow]
	assert.Equal(t, 1, acc.Signals)
	assert.Equal(t, 1, acc.Hits)
	assert.Equal(t, 1.0, acc.HitRate)
}

func TestReportYoungSignalsStayPending(t *testing.T) {
	store := &fakeQuerier{rowsFor: map[string][]map[string]any{
		"INSIDER_TRADE_OF": {
			tradeRow("0000123456", "Acme Corp", "Alice Smith", "P", day(-10), 50_000),
		},
	}}

	engine := NewAccuracyEngine(store, nil, zerolog.Nop())
	report, err := engine.Report(context.Background(), 180, 30, "")
	require.NoError(t, err)
	require.Len(t, report.Outcomes, 1)
	assert.Equal(t, models.VerdictPending, report.Outcomes[0].Verdict)
	assert.Equal(t, 1, report.ByLevel[models.LevelLow].Pending)
	// Pending signals never count toward the hit rate.
	assert.Equal(t, 0.0, report.ByLevel[models.LevelLow].HitRate)
}

func TestReportFollowedBy8KIsAHit(t *testing.T) {
	store := &fakeQuerier{rowsFor: map[string][]map[string]any{
		"INSIDER_TRADE_OF": {
			tradeRow("0000123456", "Acme Corp", "Alice Smith", "P", day(-60), 50_000),
		},
		"FILED_EVENT": {
			{"n": int64(2)},
		},
	}}

	// No price provider: the 8-K follow-on alone makes the hit.
	engine := NewAccuracyEngine(store, nil, zerolog.Nop())
	report, err := engine.Report(context.Background(), 180, 30, "")
	require.NoError(t, err)
	require.Len(t, report.Outcomes, 1)
	assert.True(t, report.Outcomes[0].FollowedBy8K)
	assert.Equal(t, models.VerdictHit, report.Outcomes[0].Verdict)
	assert.Equal(t, 1.0, report.ByLevel[models.LevelLow].FollowRate8K)
}

func TestReportIsCachedPerParameterSet(t *testing.T) {
	store := &fakeQuerier{rowsFor: map[string][]map[string]any{}}
	engine := NewAccuracyEngine(store, nil, zerolog.Nop())

	first, err := engine.Report(context.Background(), 180, 30, "")
	require.NoError(t, err)
	second, err := engine.Report(context.Background(), 180, 30, "")
	require.NoError(t, err)
	assert.Same(t, first, second)

	other, err := engine.Report(context.Background(), 90, 30, "")
	require.NoError(t, err)
	assert.NotSame(t, first, other)
}
