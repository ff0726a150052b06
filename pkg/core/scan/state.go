package scan

import (
	"context"
	"time"

	"edgarintel/pkg/core/graph"
	"edgarintel/pkg/models"
)

// StateStore persists per-scanner checkpoints in the graph.
type StateStore struct {
	store graph.Querier
}

// NewStateStore builds a StateStore.
func NewStateStore(store graph.Querier) *StateStore {
	return &StateStore{store: store}
}

// Load returns the scanner's state, or a zero-value state for a first run.
func (s *StateStore) Load(ctx context.Context, scannerID string) (models.ScannerState, error) {
	state := models.ScannerState{ScannerID: scannerID}
	rows, err := s.store.ExecuteQuery(ctx, `
		MATCH (s:ScannerState {scanner_id: $id})
		RETURN s.last_checkpoint AS checkpoint, s.last_run_at AS last_run_at,
			s.last_status AS status, s.total_runs AS total_runs,
			s.companies_seen AS companies_seen, s.filings_loaded AS filings_loaded,
			s.alerts_created AS alerts_created, coalesce(s.last_error, '') AS last_error`,
		map[string]any{"id": scannerID})
	if err != nil {
		return state, err
	}
	if len(rows) == 0 {
		return state, nil
	}
	row := rows[0]
	state.LastCheckpoint, _ = row["checkpoint"].(string)
	state.LastStatus, _ = row["status"].(string)
	state.LastError, _ = row["last_error"].(string)
	state.TotalRuns = intOf(row["total_runs"])
	state.CompaniesSeen = intOf(row["companies_seen"])
	state.FilingsLoaded = intOf(row["filings_loaded"])
	state.AlertsCreated = intOf(row["alerts_created"])
	if ts, ok := row["last_run_at"].(string); ok {
		if t, err := time.Parse(time.RFC3339, ts); err == nil {
			state.LastRunAt = t
		}
	}
	return state, nil
}

// Save upserts the state. The checkpoint only moves forward: a stale save
// never rolls an advanced checkpoint back.
func (s *StateStore) Save(ctx context.Context, state models.ScannerState) error {
	_, err := s.store.ExecuteWrite(ctx, `
		MERGE (s:ScannerState {scanner_id: $id})
		SET s.last_checkpoint = CASE
				WHEN s.last_checkpoint IS NULL OR $checkpoint >= s.last_checkpoint
				THEN $checkpoint ELSE s.last_checkpoint END,
			s.last_run_at = $last_run_at,
			s.last_status = $status,
			s.total_runs = coalesce(s.total_runs, 0) + 1,
			s.companies_seen = coalesce(s.companies_seen, 0) + $companies_seen,
			s.filings_loaded = coalesce(s.filings_loaded, 0) + $filings_loaded,
			s.alerts_created = coalesce(s.alerts_created, 0) + $alerts_created,
			s.last_error = $last_error`,
		map[string]any{
			"id":             state.ScannerID,
			"checkpoint":     state.LastCheckpoint,
			"last_run_at":    state.LastRunAt.Format(time.RFC3339),
			"status":         state.LastStatus,
			"companies_seen": state.CompaniesSeen,
			"filings_loaded": state.FilingsLoaded,
			"alerts_created": state.AlertsCreated,
			"last_error":     state.LastError,
		})
	return err
}

func intOf(v any) int {
	switch n := v.(type) {
	case int64:
		return int(n)
	case int:
		return n
	case float64:
		return int(n)
	}
	return 0
}
