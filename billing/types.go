/*
Package billing manages student balances and the monthly fee accrual cycle.

PURPOSE:
  Where the fees package answers "how much does this student owe as of
  today?", this package owns the mutable side: the student's running balance,
  the append-only accrual posting log, payment recording, and the batch job
  that advances every active student by one month's fee.

KEY CONCEPTS IN THIS FILE (types.go):
  - StudentBalance: The balance-bearing subset of a student record
  - PaymentStatus: paid/pending, derived from the balance invariant
  - AccrualPeriod: A calendar month, the unit of accrual postings
  - AccrualPosting: One immutable record of a month's fee being posted

DESIGN PRINCIPLES:
  1. Invariants are enforced in one place (balance.go), never inline.
  2. Postings are append-only: a period posted twice is a rejected write,
     not a double charge.
  3. Precision: decimal.Decimal for all money.

SEE ALSO:
  - balance.go: Invariant enforcement and mutation paths
  - ledger.go: Append-only posting log
  - accrual.go: The monthly batch engine
*/
package billing

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/navanidhicare-eng/NavanidhiAcademy-sub000/fees"
)

// =============================================================================
// PAYMENT STATUS
// =============================================================================

type PaymentStatus string

const (
	StatusPaid    PaymentStatus = "paid"
	StatusPending PaymentStatus = "pending"
)

// =============================================================================
// STUDENT BALANCE - Balance-bearing subset of the student record
// =============================================================================

// StudentBalance is the part of a student record the fee engine reads and
// writes. Registration creates it once; the accrual engine and payment
// recording mutate it afterwards. Rows are never deleted - IsActive=false
// halts further accrual.
//
// Invariants (maintained by balance.go, checked after every mutation):
//   PendingAmount = max(0, TotalFeeAmount - PaidAmount)
//   PaymentStatus = paid  iff  PendingAmount <= 0
type StudentBalance struct {
	StudentID      fees.StudentID
	CenterID       fees.CenterID
	Name           string
	ClassID        fees.ClassID
	CourseType     fees.CourseType
	EnrollmentDate time.Time

	AdmissionFeePaid bool
	TotalFeeAmount   decimal.Decimal
	PaidAmount       decimal.Decimal
	PendingAmount    decimal.Decimal
	PaymentStatus    PaymentStatus
	IsActive         bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// =============================================================================
// ACCRUAL PERIOD - One calendar month
// =============================================================================

// AccrualPeriod identifies the month a fee posting belongs to. It is the
// idempotency boundary: each (student, period) pair is posted at most once.
type AccrualPeriod struct {
	Year  int
	Month time.Month
}

// PeriodOf returns the accrual period containing t.
func PeriodOf(t time.Time) AccrualPeriod {
	return AccrualPeriod{Year: t.Year(), Month: t.Month()}
}

// Next returns the following calendar month.
func (p AccrualPeriod) Next() AccrualPeriod {
	t := time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
	return AccrualPeriod{Year: t.Year(), Month: t.Month()}
}

// String renders the period as "2025-01". Used in idempotency keys, so the
// format must stay stable.
func (p AccrualPeriod) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

// IsZero reports whether the period is unset.
func (p AccrualPeriod) IsZero() bool { return p.Year == 0 }

// =============================================================================
// ACCRUAL POSTING - Immutable record of one month's charge
// =============================================================================

// AccrualPosting records that one month's fee was added to one student's
// pending balance. Append-only; corrections go through manual adjustments,
// never edits.
type AccrualPosting struct {
	ID        string
	StudentID fees.StudentID
	Period    AccrualPeriod
	Amount    decimal.Decimal
	Reason    string

	// IdempotencyKey is derived from (student, period); the store rejects a
	// second posting with the same key.
	IdempotencyKey string

	CreatedAt time.Time
}

// PostingKey builds the deterministic idempotency key for a (student, period)
// pair. Both the ledger and the preview path use this.
func PostingKey(studentID fees.StudentID, period AccrualPeriod) string {
	return fmt.Sprintf("accrual_%s_%s", studentID, period)
}

// =============================================================================
// PAYMENT - Money collected against a student's pending balance
// =============================================================================

// Payment records one collection. The wallet of the student's center is
// credited by the same amount when the payment is applied.
type Payment struct {
	ID        string
	StudentID fees.StudentID
	CenterID  fees.CenterID
	Amount    decimal.Decimal
	Note      string
	CreatedAt time.Time
}
