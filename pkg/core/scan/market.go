package scan

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"edgarintel/pkg/core/edgar"
)

// Market scan statuses.
const (
	ScanIdle           = "idle"
	ScanInProgress     = "in_progress"
	ScanCompleted      = "completed"
	ScanError          = "error"
	ScanAlreadyRunning = "already_running"
)

// MarketScanStatus is a snapshot of the current or last market scan.
type MarketScanStatus struct {
	Status        string    `json:"status"`
	StartedAt     time.Time `json:"started_at,omitempty"`
	FinishedAt    time.Time `json:"finished_at,omitempty"`
	DaysBack      int       `json:"days_back,omitempty"`
	FilersFound   int       `json:"filers_found"`
	Processed     int       `json:"processed"`
	FilingsLoaded int       `json:"filings_loaded"`
	Errors        []string  `json:"errors,omitempty"`
}

// Coordinator serializes market-wide 8-K scans: one in flight per process,
// with counters readable while the scan runs in the background. Not
// resumable across restarts; a crash leaves the graph loads intact and the
// status empty.
type Coordinator struct {
	Edgar    *edgar.Client
	Ingester *Ingester
	Log      zerolog.Logger

	mu      sync.Mutex
	running bool
	status  MarketScanStatus
}

// NewCoordinator builds a Coordinator.
func NewCoordinator(client *edgar.Client, ing *Ingester, log zerolog.Logger) *Coordinator {
	return &Coordinator{
		Edgar:    client,
		Ingester: ing,
		Log:      log.With().Str("component", "market_scan").Logger(),
		status:   MarketScanStatus{Status: ScanIdle},
	}
}

// Status returns a snapshot of the scan state.
func (c *Coordinator) Status() MarketScanStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	snapshot := c.status
	snapshot.Errors = append([]string(nil), c.status.Errors...)
	return snapshot
}

// Start launches a background market scan over the past daysBack days.
// Returns already_running when a scan is in flight.
func (c *Coordinator) Start(daysBack int) string {
	if daysBack <= 0 {
		daysBack = 1
	}

	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return ScanAlreadyRunning
	}
	c.running = true
	c.status = MarketScanStatus{
		Status:    ScanInProgress,
		StartedAt: time.Now().UTC(),
		DaysBack:  daysBack,
	}
	c.mu.Unlock()

	go c.run(daysBack)
	return ScanInProgress
}

func (c *Coordinator) run(daysBack int) {
	ctx := context.Background()
	defer func() {
		c.mu.Lock()
		c.running = false
		c.status.FinishedAt = time.Now().UTC()
		if c.status.Status == ScanInProgress {
			c.status.Status = ScanCompleted
		}
		c.mu.Unlock()
	}()

	filers, err := c.Edgar.GetRecent8KFilers(ctx, daysBack)
	if err != nil {
		c.mu.Lock()
		c.status.Status = ScanError
		c.status.Errors = append(c.status.Errors, err.Error())
		c.mu.Unlock()
		c.Log.Error().Err(err).Msg("market scan discovery failed")
		return
	}
	c.mu.Lock()
	c.status.FilersFound = len(filers)
	c.mu.Unlock()
	c.Log.Info().Int("filers", len(filers)).Int("days_back", daysBack).Msg("market scan started")

	for _, filer := range filers {
		stats, err := c.Ingester.Ingest8K(ctx, filer.CIK, 3)

		c.mu.Lock()
		c.status.Processed++
		c.status.FilingsLoaded += stats.FilingsLoaded
		if err != nil {
			c.status.Errors = append(c.status.Errors, fmt.Sprintf("%s: %v", filer.CIK, err))
		}
		c.mu.Unlock()
	}
	c.Log.Info().Int("processed", len(filers)).Msg("market scan complete")
}
