/*
errors.go - Error types for balance and accrual operations

PURPOSE:
  Sentinels and structured errors for the billing package. The split the
  rest of the system relies on:

  FATAL (abort the operation):
    - ErrStudentNotFound on a single-student operation
    - A failed read of the active-student set during batch accrual
  RECOVERABLE (log, skip, continue the batch):
    - A missing fee schedule for one student during batch accrual
    - A single-student update failure during batch accrual
  EXPECTED (idempotent retry):
    - ErrPeriodAlreadyPosted when a (student, period) posting exists

SEE ALSO:
  - accrual.go: Applies the fatal/recoverable split
  - ledger.go: Returns ErrPeriodAlreadyPosted
*/
package billing

import (
	"errors"
	"fmt"

	"github.com/navanidhicare-eng/NavanidhiAcademy-sub000/fees"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrStudentNotFound is returned when a referenced student doesn't exist.
	ErrStudentNotFound = errors.New("student not found")

	// ErrPeriodAlreadyPosted is returned when an accrual posting already
	// exists for the (student, period) pair. Expected on re-runs; the caller
	// counts the student as skipped, not failed.
	ErrPeriodAlreadyPosted = errors.New("accrual already posted for period")

	// ErrAccrualRunInProgress is returned when a second accrual run is
	// triggered while one is executing. The engine is single-flight.
	ErrAccrualRunInProgress = errors.New("accrual run already in progress")

	// ErrInvalidPaymentAmount is returned for zero or negative payments.
	ErrInvalidPaymentAmount = errors.New("payment amount must be positive")

	// ErrInactiveStudent is returned when an operation requires an active
	// student (e.g. recording a payment against a withdrawn one is allowed,
	// but accrual is not).
	ErrInactiveStudent = errors.New("student is not active")

	// ErrNoRecurringFee is returned when accrual is attempted for a course
	// with no recurring fee (yearly courses pay once at enrollment).
	ErrNoRecurringFee = errors.New("course has no recurring monthly fee")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// PeriodAlreadyPostedError identifies the duplicate posting.
type PeriodAlreadyPostedError struct {
	StudentID fees.StudentID
	Period    AccrualPeriod
}

func (e *PeriodAlreadyPostedError) Error() string {
	return fmt.Sprintf("accrual for student %s already posted in period %s", e.StudentID, e.Period)
}

func (e *PeriodAlreadyPostedError) Unwrap() error { return ErrPeriodAlreadyPosted }

// IsRecoverableInBatch reports whether a per-student error should be logged
// and skipped rather than abort the whole accrual batch.
func IsRecoverableInBatch(err error) bool {
	return errors.Is(err, fees.ErrScheduleNotFound) ||
		errors.Is(err, ErrPeriodAlreadyPosted) ||
		errors.Is(err, ErrInactiveStudent) ||
		errors.Is(err, ErrNoRecurringFee)
}
