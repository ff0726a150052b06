package scan

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"edgarintel/pkg/models"
)

func TestStateLoadFirstRun(t *testing.T) {
	store := &fakeQuerier{}
	state, err := NewStateStore(store).Load(context.Background(), "form4_insider")
	require.NoError(t, err)
	assert.Equal(t, "form4_insider", state.ScannerID)
	assert.Empty(t, state.LastCheckpoint)
	assert.Zero(t, state.TotalRuns)
}

func TestStateLoadExisting(t *testing.T) {
	store := &fakeQuerier{rowsFor: map[string][]map[string]any{
		"ScannerState": {{
			"checkpoint":     "2025-03-10",
			"last_run_at":    "2025-03-10T11:30:00Z",
			"status":         models.RunSuccess,
			"total_runs":     int64(42),
			"companies_seen": int64(310),
			"filings_loaded": int64(1200),
			"alerts_created": int64(17),
			"last_error":     "",
		}},
	}}
	state, err := NewStateStore(store).Load(context.Background(), "form4_insider")
	require.NoError(t, err)
	assert.Equal(t, "2025-03-10", state.LastCheckpoint)
	assert.Equal(t, models.RunSuccess, state.LastStatus)
	assert.Equal(t, 42, state.TotalRuns)
	assert.Equal(t, 310, state.CompaniesSeen)
	assert.Equal(t, time.Date(2025, 3, 10, 11, 30, 0, 0, time.UTC), state.LastRunAt)
}

func TestStateSaveOnlyMovesCheckpointForward(t *testing.T) {
	store := &fakeQuerier{}
	err := NewStateStore(store).Save(context.Background(), models.ScannerState{
		ScannerID:      "form4_insider",
		LastCheckpoint: "2025-03-11",
		LastStatus:     models.RunSuccess,
	})
	require.NoError(t, err)

	w := store.lastWrite()
	assert.Equal(t, "2025-03-11", w.params["checkpoint"])
	// The guard lives in the statement itself so concurrent or stale saves
	// cannot roll an advanced checkpoint back.
	assert.Contains(t, w.cypher, "$checkpoint >= s.last_checkpoint")
	assert.Contains(t, w.cypher, "ELSE s.last_checkpoint END")
	assert.Contains(t, w.cypher, "coalesce(s.total_runs, 0) + 1")
}
