package scan

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestCoordinatorStartsIdle(t *testing.T) {
	c := NewCoordinator(nil, nil, zerolog.Nop())
	assert.Equal(t, ScanIdle, c.Status().Status)
}

func TestCoordinatorRejectsConcurrentScan(t *testing.T) {
	c := NewCoordinator(nil, nil, zerolog.Nop())
	c.mu.Lock()
	c.running = true
	c.status = MarketScanStatus{Status: ScanInProgress}
	c.mu.Unlock()

	assert.Equal(t, ScanAlreadyRunning, c.Start(1))
	assert.Equal(t, ScanInProgress, c.Status().Status)
}

func TestCoordinatorStatusSnapshotIsACopy(t *testing.T) {
	c := NewCoordinator(nil, nil, zerolog.Nop())
	c.mu.Lock()
	c.status.Errors = []string{"cik-1: timeout"}
	c.mu.Unlock()

	snapshot := c.Status()
	snapshot.Errors[0] = "mutated"
	assert.Equal(t, "cik-1: timeout", c.Status().Errors[0])
}
