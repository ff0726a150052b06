package scan

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"edgarintel/pkg/core/edgar"
	"edgarintel/pkg/core/graph"
	"edgarintel/pkg/core/signals"
	"edgarintel/pkg/models"
)

// form4ScannerID keys the Form 4 scanner's checkpoint state.
const form4ScannerID = "form4_insider"

// perCompanyFilingLimit bounds Form 4 fetches for one company per run.
const perCompanyFilingLimit = 10

// interCompanyDelay paces company processing on top of the rate limiter.
const interCompanyDelay = 500 * time.Millisecond

// largePurchaseFloor is the single-purchase value that triggers its own
// alert.
const largePurchaseFloor = 500_000

// investmentSICs are fund and broker SIC codes excluded from scanning;
// their Form 4 flow is portfolio churn, not insider conviction.
var investmentSICs = map[string]bool{
	"6211": true, "6221": true, "6199": true,
	"6722": true, "6726": true, "6770": true,
}

// Form4Scanner runs the checkpointed daily insider scan.
type Form4Scanner struct {
	Edgar    *edgar.Client
	Store    graph.Querier
	Ingester *Ingester
	Clusters *signals.ClusterEngine
	Alerts   *AlertStore
	States   *StateStore
	Log      zerolog.Logger

	// sleep is swapped out in tests.
	sleep func(time.Duration)
	now   func() time.Time
}

// NewForm4Scanner wires a scanner from its collaborators.
func NewForm4Scanner(client *edgar.Client, store graph.Querier, ing *Ingester, log zerolog.Logger) *Form4Scanner {
	return &Form4Scanner{
		Edgar:    client,
		Store:    store,
		Ingester: ing,
		Clusters: signals.NewClusterEngine(store, log),
		Alerts:   NewAlertStore(store, log),
		States:   NewStateStore(store),
		Log:      log.With().Str("component", "form4_scanner").Logger(),
		sleep:    time.Sleep,
		now:      time.Now,
	}
}

// RunResult summarizes one scanner run.
type RunResult struct {
	Status        string   `json:"status"`
	Checkpoint    string   `json:"checkpoint"`
	CompaniesSeen int      `json:"companies_seen"`
	FilingsLoaded int      `json:"filings_loaded"`
	AlertsCreated int      `json:"alerts_created"`
	Errors        []string `json:"errors,omitempty"`
}

// Run executes one incremental scan. The checkpoint advances to today only
// when the run completes; per-company errors downgrade the status to
// partial_success without rolling back loaded data.
func (s *Form4Scanner) Run(ctx context.Context) (RunResult, error) {
	today := s.now().UTC()
	result := RunResult{}

	if wd := today.Weekday(); wd == time.Saturday || wd == time.Sunday {
		result.Status = models.RunSkippedWeekend
		s.Log.Info().Str("weekday", wd.String()).Msg("weekend, skipping scan")
		return result, nil
	}

	state, err := s.States.Load(ctx, form4ScannerID)
	if err != nil {
		return s.failRun(ctx, result, state, err)
	}
	checkpoint := state.LastCheckpoint
	if checkpoint == "" {
		checkpoint = today.AddDate(0, 0, -1).Format("2006-01-02")
	}
	s.Log.Info().Str("checkpoint", checkpoint).Msg("starting Form 4 scan")

	filers, err := s.Edgar.GetRecentForm4Filers(ctx, checkpoint, 0)
	if err != nil {
		return s.failRun(ctx, result, state, err)
	}

	filers, err = s.filterFilers(ctx, filers, checkpoint, &result)
	if err != nil {
		return s.failRun(ctx, result, state, err)
	}

	affected := make(map[string]bool)
	for i, filer := range filers {
		if i > 0 {
			s.sleep(interCompanyDelay)
		}
		stats, err := s.Ingester.IngestInsiderTrades(ctx, filer.CIK, perCompanyFilingLimit)
		result.FilingsLoaded += stats.FilingsLoaded
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", filer.CIK, err))
			continue
		}
		result.CompaniesSeen++
		if stats.FilingsLoaded > 0 {
			affected[edgar.NormalizeCIK(filer.CIK)] = true
		}
	}

	alerts, err := s.raiseAlerts(ctx, affected, today.Format("2006-01-02"))
	if err != nil {
		result.Errors = append(result.Errors, err.Error())
	}
	result.AlertsCreated = alerts

	result.Status = models.RunSuccess
	if len(result.Errors) > 0 {
		result.Status = models.RunPartialSuccess
	}
	result.Checkpoint = today.Format("2006-01-02")

	state.LastCheckpoint = result.Checkpoint
	state.LastRunAt = s.now().UTC()
	state.LastStatus = result.Status
	state.CompaniesSeen = result.CompaniesSeen
	state.FilingsLoaded = result.FilingsLoaded
	state.AlertsCreated = result.AlertsCreated
	state.LastError = ""
	if len(result.Errors) > 0 {
		state.LastError = result.Errors[0]
	}
	if err := s.States.Save(ctx, state); err != nil {
		return result, err
	}
	s.Log.Info().Str("status", result.Status).Int("companies", result.CompaniesSeen).
		Int("alerts", result.AlertsCreated).Msg("Form 4 scan complete")
	return result, nil
}

// failRun records a catastrophic failure without advancing the checkpoint.
func (s *Form4Scanner) failRun(ctx context.Context, result RunResult, state models.ScannerState, cause error) (RunResult, error) {
	result.Status = models.RunError
	state.LastRunAt = s.now().UTC()
	state.LastStatus = models.RunError
	state.LastError = cause.Error()
	if err := s.States.Save(ctx, state); err != nil {
		s.Log.Error().Err(err).Msg("cannot persist failed run state")
	}
	return result, cause
}

// filterFilers drops investment vehicles by SIC and companies whose
// transactions since the checkpoint are already in the graph.
func (s *Form4Scanner) filterFilers(ctx context.Context, filers []edgar.Filer, checkpoint string, result *RunResult) ([]edgar.Filer, error) {
	ingested, err := s.ingestedSince(ctx, checkpoint)
	if err != nil {
		return nil, err
	}
	sics, err := s.knownSICs(ctx)
	if err != nil {
		return nil, err
	}

	var kept []edgar.Filer
	for _, filer := range filers {
		cik := edgar.NormalizeCIK(filer.CIK)
		if ingested[cik] {
			continue
		}
		sic, known := sics[cik]
		if !known {
			// Graph has no SIC yet; ask EDGAR before spending the
			// per-company budget.
			info, err := s.Edgar.GetCompanyInfo(ctx, cik)
			if err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("sic lookup %s: %v", cik, err))
				continue
			}
			sic = info.SIC
		}
		if investmentSICs[sic] {
			continue
		}
		kept = append(kept, filer)
	}
	return kept, nil
}

func (s *Form4Scanner) ingestedSince(ctx context.Context, checkpoint string) (map[string]bool, error) {
	rows, err := s.Store.ExecuteQuery(ctx, `
		MATCH (c:Company)-[:INSIDER_TRADE_OF]->(t:InsiderTransaction)
		WHERE t.filing_date >= $checkpoint
		RETURN DISTINCT c.cik AS cik`,
		map[string]any{"checkpoint": checkpoint})
	if err != nil {
		return nil, err
	}
	out := make(map[string]bool, len(rows))
	for _, row := range rows {
		if cik, ok := row["cik"].(string); ok {
			out[cik] = true
		}
	}
	return out, nil
}

func (s *Form4Scanner) knownSICs(ctx context.Context) (map[string]string, error) {
	rows, err := s.Store.ExecuteQuery(ctx, `
		MATCH (c:Company)
		WHERE c.cik IS NOT NULL AND c.sic IS NOT NULL AND c.sic <> ''
		RETURN c.cik AS cik, c.sic AS sic`, nil)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(rows))
	for _, row := range rows {
		cik, _ := row["cik"].(string)
		sic, _ := row["sic"].(string)
		if cik != "" {
			out[cik] = sic
		}
	}
	return out, nil
}

// raiseAlerts runs cluster detection over the affected companies and
// creates cluster and large-purchase alerts with daily dedup keys.
func (s *Form4Scanner) raiseAlerts(ctx context.Context, affected map[string]bool, today string) (int, error) {
	created := 0

	clusters, err := s.Clusters.DetectClusters(ctx, 30, models.LevelMedium)
	if err != nil {
		return created, err
	}
	for _, cluster := range clusters {
		if !affected[cluster.CompanyCIK] {
			continue
		}
		ok, err := s.Alerts.Create(ctx, models.Alert{
			DedupKey:    DedupKey(cluster.CompanyCIK, models.AlertInsiderCluster, today),
			AlertType:   models.AlertInsiderCluster,
			Severity:    cluster.Level,
			CompanyCIK:  cluster.CompanyCIK,
			CompanyName: cluster.CompanyName,
			Ticker:      cluster.Ticker,
			Title:       cluster.Summary,
			Description: fmt.Sprintf("%d insiders bought $%.0f between %s and %s", cluster.NumBuyers, cluster.TotalBuyValue, cluster.WindowStart, cluster.WindowEnd),
		})
		if err != nil {
			return created, err
		}
		if ok {
			created++
		}
	}

	n, err := s.largePurchaseAlerts(ctx, affected, today)
	if err != nil {
		return created, err
	}
	return created + n, nil
}

func (s *Form4Scanner) largePurchaseAlerts(ctx context.Context, affected map[string]bool, today string) (int, error) {
	yesterday := shiftDay(today, -1)
	rows, err := s.Store.ExecuteQuery(ctx, `
		MATCH (c:Company)-[:INSIDER_TRADE_OF]->(t:InsiderTransaction)
		WHERE t.transaction_code = 'P' AND t.total_value >= $floor
			AND t.filing_date >= $since
		RETURN c.cik AS cik, c.name AS name, c.tickers AS tickers,
			t.insider_name AS insider, t.total_value AS value`,
		map[string]any{"floor": largePurchaseFloor, "since": yesterday})
	if err != nil {
		return 0, err
	}

	created := 0
	for _, row := range rows {
		cik, _ := row["cik"].(string)
		if !affected[cik] {
			continue
		}
		name, _ := row["name"].(string)
		insider, _ := row["insider"].(string)
		value := floatOf(row["value"])

		ok, err := s.Alerts.Create(ctx, models.Alert{
			DedupKey:    DedupKey(cik, models.AlertLargePurchase, today),
			AlertType:   models.AlertLargePurchase,
			Severity:    models.LevelMedium,
			CompanyCIK:  cik,
			CompanyName: name,
			Title:       fmt.Sprintf("Large insider purchase at %s", name),
			Description: fmt.Sprintf("%s bought $%.0f of stock", insider, value),
		})
		if err != nil {
			return created, err
		}
		if ok {
			created++
		}
	}
	return created, nil
}

func shiftDay(day string, days int) string {
	t, err := time.Parse("2006-01-02", day)
	if err != nil {
		return day
	}
	return t.AddDate(0, 0, days).Format("2006-01-02")
}

func floatOf(v any) float64 {
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
