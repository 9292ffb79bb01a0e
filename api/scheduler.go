/*
scheduler.go - Background re-sync after failed saves

PURPOSE:
  Every ledger operation saves immediately. When a save fails (disk
  full, database locked) the ledger keeps working in memory and marks
  itself dirty. This scheduler periodically retries the save until it
  succeeds, so an outage does not lose the session's work.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Does nothing while the ledger is clean
  - Uses Ledger.Sync, the same entry point as the "save now" button

USAGE:
  scheduler := NewSyncScheduler(ledger, logger)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - handlers.go: SyncNow endpoint (manual save)
  - pharmacy/ledger.go: commit and dirty tracking
*/
package api

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/warp/pharmacy-ledger/pharmacy"
)

// SyncScheduler retries saving a dirty ledger.
type SyncScheduler struct {
	Ledger        *pharmacy.Ledger
	CheckInterval time.Duration
	Enabled       bool

	log    *slog.Logger
	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewSyncScheduler creates a new scheduler.
func NewSyncScheduler(ledger *pharmacy.Ledger, logger *slog.Logger) *SyncScheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SyncScheduler{
		Ledger:        ledger,
		CheckInterval: 1 * time.Minute,
		Enabled:       true,
		log:           logger.With("component", "sync-scheduler"),
	}
}

// Start begins the scheduler.
func (s *SyncScheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.Enabled || s.CheckInterval <= 0 {
		s.log.Info("disabled, not starting")
		return
	}
	if s.ticker != nil {
		return
	}

	s.ticker = time.NewTicker(s.CheckInterval)
	s.stop = make(chan struct{})
	s.wg.Add(1)

	go s.run(s.ticker, s.stop)

	s.log.Info("started", "interval", s.CheckInterval)
}

// Stop stops the scheduler and waits for a running check to finish.
func (s *SyncScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ticker != nil {
		s.ticker.Stop()
		close(s.stop)
		s.wg.Wait()
		s.ticker = nil
		s.log.Info("stopped")
	}
}

func (s *SyncScheduler) run(ticker *time.Ticker, stop <-chan struct{}) {
	defer s.wg.Done()

	for {
		select {
		case <-ticker.C:
			s.CheckAndSync(context.Background())
		case <-stop:
			return
		}
	}
}

// CheckAndSync saves the ledger if it has unsaved changes. It reports
// whether a save was attempted and succeeded.
func (s *SyncScheduler) CheckAndSync(ctx context.Context) bool {
	dirty, _ := s.Ledger.SyncStatus()
	if !dirty {
		return false
	}

	savedAt, err := s.Ledger.Sync(ctx)
	if err != nil {
		s.log.Warn("retry save failed", "error", err)
		return false
	}
	s.log.Info("unsaved changes written", "saved_at", savedAt)
	return true
}
