/*
ledger.go - Append-only accrual posting ledger

PURPOSE:
  The posting ledger is what turns "run the monthly job exactly once" from
  a scheduling convention into an enforced contract. Every month's charge is
  recorded as an AccrualPosting with a deterministic idempotency key
  (accrual_<studentID>_<YYYY-MM>); a second posting for the same key is
  rejected, so re-running a batch - or two triggers racing - cannot
  double-charge a student.

CRITICAL INVARIANTS:
  1. APPEND-ONLY: No Update, No Delete. Ever.
  2. ONE POSTING PER (STUDENT, PERIOD): Enforced by the idempotency key.
  3. Corrections are new adjustment records, not edits.

SEE ALSO:
  - store.go: AccrualLog persistence interface
  - accrual.go: Engine posting through this ledger
*/
package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/navanidhicare-eng/NavanidhiAcademy-sub000/fees"
)

// AccrualLedger wraps an AccrualLog with key derivation and duplicate checks.
type AccrualLedger struct {
	Log AccrualLog
}

func NewAccrualLedger(log AccrualLog) *AccrualLedger {
	return &AccrualLedger{Log: log}
}

// Post records one month's charge for one student. Returns an error wrapping
// ErrPeriodAlreadyPosted when the period was already posted for this student.
func (l *AccrualLedger) Post(ctx context.Context, studentID fees.StudentID, period AccrualPeriod, amount decimal.Decimal, reason string) (AccrualPosting, error) {
	key := PostingKey(studentID, period)

	exists, err := l.Log.PostingExists(ctx, key)
	if err != nil {
		return AccrualPosting{}, err
	}
	if exists {
		return AccrualPosting{}, &PeriodAlreadyPostedError{StudentID: studentID, Period: period}
	}

	posting := AccrualPosting{
		ID:             uuid.NewString(),
		StudentID:      studentID,
		Period:         period,
		Amount:         amount,
		Reason:         reason,
		IdempotencyKey: key,
		CreatedAt:      time.Now().UTC(),
	}
	if err := l.Log.AppendPosting(ctx, posting); err != nil {
		return AccrualPosting{}, err
	}
	return posting, nil
}

// Posted reports whether the (student, period) pair already has a posting.
// The preview path uses this to show which students a run would touch.
func (l *AccrualLedger) Posted(ctx context.Context, studentID fees.StudentID, period AccrualPeriod) (bool, error) {
	return l.Log.PostingExists(ctx, PostingKey(studentID, period))
}
