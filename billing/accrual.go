/*
accrual.go - Monthly fee accrual engine

PURPOSE:
  The batch operation that advances every active student's outstanding
  balance by one month's fee. Intended to run once per calendar month, but
  safe to re-run: the posting ledger rejects a second charge for the same
  (student, period), so a re-run (or a manual trigger racing the background
  scheduler) updates zero students instead of double-charging.

FAILURE SEMANTICS:
  - Failure to read the active-student set: FATAL, aborts the run.
  - Missing fee schedule for one student: logged warning, student skipped.
  - Failure updating one student's row: logged warning, student skipped.
    The posting and the balance update commit in ONE transaction, so a
    skipped student has neither - the next run picks them up cleanly.
  - Period already posted for a student: counted as skipped, no warning
    (this is the idempotency guard working, not a fault).

CONCURRENCY:
  A mutex makes the engine single-flight; a second Run while one executes
  returns ErrAccrualRunInProgress. Preview is read-only and unguarded.

SEE ALSO:
  - ledger.go: Posting idempotency
  - api/scheduler.go: Background trigger at the calendar boundary
*/
package billing

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/navanidhicare-eng/NavanidhiAcademy-sub000/fees"
)

// =============================================================================
// ENGINE
// =============================================================================

// AccrualEngine posts monthly fees to active students.
type AccrualEngine struct {
	Store  TxStore
	Ledger *AccrualLedger
	Clock  fees.Clock

	mu      sync.Mutex
	running bool
}

// NewAccrualEngine wires an engine over the store with the real wall clock.
func NewAccrualEngine(store TxStore) *AccrualEngine {
	return &AccrualEngine{
		Store:  store,
		Ledger: NewAccrualLedger(store),
		Clock:  time.Now,
	}
}

// RunResult is the aggregate outcome of one batch run.
type RunResult struct {
	Period          AccrualPeriod
	StudentsUpdated int
	StudentsSkipped int
	TotalFeesAdded  decimal.Decimal
	Details         []StudentDelta
}

// StudentDelta is one student's share of a run (or preview).
type StudentDelta struct {
	StudentID  fees.StudentID
	Name       string
	ClassID    fees.ClassID
	Fee        decimal.Decimal
	NewPending decimal.Decimal
	Skipped    bool
	SkipReason string
}

// =============================================================================
// RUN - Commit one month's fees
// =============================================================================

// Run posts the given period's fee to every active student and records a run
// history row. A zero period means "the month containing now".
func (e *AccrualEngine) Run(ctx context.Context, period AccrualPeriod) (RunResult, error) {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return RunResult{}, ErrAccrualRunInProgress
	}
	e.running = true
	e.mu.Unlock()
	defer func() {
		e.mu.Lock()
		e.running = false
		e.mu.Unlock()
	}()

	if period.IsZero() {
		period = PeriodOf(e.Clock())
	}

	startedAt := time.Now().UTC()
	run := AccrualRun{
		ID:        uuid.NewString(),
		Period:    period,
		StartedAt: startedAt,
	}

	result, err := e.process(ctx, period, false)
	if err != nil {
		// Total failure to read the active-student set is fatal. Record it.
		run.Error = err.Error()
		if saveErr := e.Store.SaveRun(ctx, run); saveErr != nil {
			log.Printf("[Accrual] Failed to save failed-run record: %v", saveErr)
		}
		return RunResult{}, err
	}

	completed := time.Now().UTC()
	run.StudentsUpdated = result.StudentsUpdated
	run.StudentsSkipped = result.StudentsSkipped
	run.TotalFeesAdded = result.TotalFeesAdded
	run.CompletedAt = &completed
	if err := e.Store.SaveRun(ctx, run); err != nil {
		log.Printf("[Accrual] Failed to save run record: %v", err)
	}

	log.Printf("[Accrual] Period %s complete: %d updated, %d skipped, %s added",
		period, result.StudentsUpdated, result.StudentsSkipped, result.TotalFeesAdded)
	return result, nil
}

// Preview computes the same per-student deltas as Run but commits nothing.
func (e *AccrualEngine) Preview(ctx context.Context, period AccrualPeriod) (RunResult, error) {
	if period.IsZero() {
		period = PeriodOf(e.Clock())
	}
	return e.process(ctx, period, true)
}

// =============================================================================
// BATCH WALK
// =============================================================================

func (e *AccrualEngine) process(ctx context.Context, period AccrualPeriod, dryRun bool) (RunResult, error) {
	students, err := e.Store.ListActiveStudents(ctx)
	if err != nil {
		return RunResult{}, err
	}

	result := RunResult{Period: period, TotalFeesAdded: decimal.Zero}

	for _, student := range students {
		delta, err := e.processStudent(ctx, student, period, dryRun)
		if err != nil {
			if IsRecoverableInBatch(err) {
				// Already-posted and yearly-course skips are expected, not faults.
				if !errors.Is(err, ErrPeriodAlreadyPosted) && !errors.Is(err, ErrNoRecurringFee) {
					log.Printf("[Accrual] Skipping student %s: %v", student.StudentID, err)
				}
				delta.Skipped = true
				delta.SkipReason = err.Error()
				result.StudentsSkipped++
				result.Details = append(result.Details, delta)
				continue
			}
			// Per-student store failures are also recoverable for the batch.
			log.Printf("[Accrual] Failed to update student %s: %v", student.StudentID, err)
			delta.Skipped = true
			delta.SkipReason = err.Error()
			result.StudentsSkipped++
			result.Details = append(result.Details, delta)
			continue
		}

		result.StudentsUpdated++
		result.TotalFeesAdded = result.TotalFeesAdded.Add(delta.Fee)
		result.Details = append(result.Details, delta)
	}

	return result, nil
}

func (e *AccrualEngine) processStudent(ctx context.Context, student StudentBalance, period AccrualPeriod, dryRun bool) (StudentDelta, error) {
	delta := StudentDelta{
		StudentID: student.StudentID,
		Name:      student.Name,
		ClassID:   student.ClassID,
	}

	// Yearly courses pay once at enrollment and never accrue. Their period
	// fee is zero, so they are reported as skipped rather than charged 0.
	schedule, err := e.Store.FeeSchedule(ctx, student.ClassID, student.CourseType)
	if err != nil {
		return delta, err
	}
	fee := schedule.PeriodFee()
	if !fee.IsPositive() {
		return delta, ErrNoRecurringFee
	}
	delta.Fee = fee
	delta.NewPending = student.PendingAmount.Add(fee)

	if dryRun {
		posted, err := e.Ledger.Posted(ctx, student.StudentID, period)
		if err != nil {
			return delta, err
		}
		if posted {
			return delta, &PeriodAlreadyPostedError{StudentID: student.StudentID, Period: period}
		}
		return delta, nil
	}

	// Posting and balance update commit together. A posting without the
	// matching charge would make every retry an idempotent skip and lose
	// the month's fee for good.
	student.AddCharge(fee)
	err = e.Store.WithTx(ctx, func(tx Store) error {
		if _, err := NewAccrualLedger(tx).Post(ctx, student.StudentID, period, fee, "regular monthly fee"); err != nil {
			return err
		}
		return tx.SaveStudent(ctx, student)
	})
	if err != nil {
		return delta, err
	}
	delta.NewPending = student.PendingAmount
	return delta, nil
}
