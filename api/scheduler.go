/*
scheduler.go - Automated monthly accrual trigger

PURPOSE:
  Periodically checks whether the current calendar month has been posted
  and triggers the accrual engine when it hasn't. The engine's posting
  ledger carries the real exactly-once guarantee; this goroutine only
  decides WHEN to try, so a missed tick or an extra tick are both harmless.

DESIGN:
  - Runs a background goroutine with a configurable check interval
  - Compares the last completed run period against the month containing now
  - Skips months already posted; the engine additionally skips per-student
  - Manual triggers via the API can race this safely (single-flight engine)

CONFIGURATION:
  - CheckInterval: How often to check (default: 1 hour)
  - Enabled: Whether the scheduler is active (default: true)

USAGE:
  scheduler := NewAccrualScheduler(store, engine)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - billing/accrual.go: The engine and its idempotency guard
  - handlers.go: RunAccrual endpoint (manual trigger)
*/
package api

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/navanidhicare-eng/NavanidhiAcademy-sub000/billing"
)

// AccrualScheduler triggers the monthly batch at calendar boundaries.
type AccrualScheduler struct {
	Store         billing.RunStore
	Engine        *billing.AccrualEngine
	CheckInterval time.Duration
	Enabled       bool

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewAccrualScheduler creates a new scheduler.
func NewAccrualScheduler(store billing.RunStore, engine *billing.AccrualEngine) *AccrualScheduler {
	return &AccrualScheduler{
		Store:         store,
		Engine:        engine,
		CheckInterval: 1 * time.Hour,
		Enabled:       true,
		stop:          make(chan struct{}),
	}
}

// Start begins the scheduler.
func (as *AccrualScheduler) Start() {
	as.mu.Lock()
	defer as.mu.Unlock()

	if !as.Enabled {
		log.Println("[Scheduler] Disabled, not starting")
		return
	}

	as.ticker = time.NewTicker(as.CheckInterval)
	as.wg.Add(1)
	go as.run()

	log.Printf("[Scheduler] Started with check interval: %v", as.CheckInterval)
}

// Stop stops the scheduler.
func (as *AccrualScheduler) Stop() {
	as.mu.Lock()
	defer as.mu.Unlock()

	if as.ticker != nil {
		as.ticker.Stop()
		close(as.stop)
		as.wg.Wait()
		log.Println("[Scheduler] Stopped")
	}
}

func (as *AccrualScheduler) run() {
	defer as.wg.Done()

	// Run immediately on start to catch up after downtime.
	as.checkAndRun()

	for {
		select {
		case <-as.ticker.C:
			as.checkAndRun()
		case <-as.stop:
			return
		}
	}
}

func (as *AccrualScheduler) checkAndRun() {
	ctx := context.Background()
	current := billing.PeriodOf(as.Engine.Clock())

	last, err := as.Store.LastCompletedPeriod(ctx)
	if err != nil {
		log.Printf("[Scheduler] Error reading last accrual period: %v", err)
		return
	}
	if last == current {
		return // current month already posted
	}

	log.Printf("[Scheduler] Period %s not yet posted, triggering accrual run", current)

	result, err := as.Engine.Run(ctx, current)
	if errors.Is(err, billing.ErrAccrualRunInProgress) {
		return // a manual trigger beat us to it
	}
	if err != nil {
		log.Printf("[Scheduler] Accrual run failed: %v", err)
		return
	}
	log.Printf("[Scheduler] Completed period %s: %d updated, %d skipped",
		current, result.StudentsUpdated, result.StudentsSkipped)
}

// RunNow triggers an immediate check (for testing/admin).
func (as *AccrualScheduler) RunNow() {
	as.checkAndRun()
}
