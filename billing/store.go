/*
store.go - Persistence interfaces for students, postings, and wallets

PURPOSE:
  Defines the interface between billing logic and the database. Different
  implementations back these with SQLite (production path) or memory (tests).

KEY INTERFACES:
  StudentStore:  Student balance rows (the one mutable table)
  AccrualLog:    Append-only posting log (idempotency boundary)
  WalletStore:   Per-center running wallet balance
  PaymentStore:  Payment records
  RunStore:      Accrual run history for operators
  TxStore:       Atomic multi-write operations (registration)

APPEND-ONLY CONTRACT:
  AccrualLog and PaymentStore have no Update or Delete. A duplicate posting
  key is a rejected write, which is what makes accrual re-runs safe.

IMPLEMENTATIONS:
  - store/sqlite: Production SQLite (same SQL shape as PostgreSQL)
  - store/memory: In-memory for tests and dev

SEE ALSO:
  - ledger.go: AccrualLedger built on AccrualLog
  - accrual.go: Engine built on StudentStore + AccrualLedger
*/
package billing

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/navanidhicare-eng/NavanidhiAcademy-sub000/fees"
)

// =============================================================================
// STUDENT STORE
// =============================================================================

// StudentStore persists student balance rows.
type StudentStore interface {
	// GetStudent returns the student or an error wrapping ErrStudentNotFound.
	GetStudent(ctx context.Context, id fees.StudentID) (StudentBalance, error)

	// ListActiveStudents returns every student with IsActive=true. A failure
	// here is fatal to a batch accrual run.
	ListActiveStudents(ctx context.Context) ([]StudentBalance, error)

	// ListStudents returns every student, active or not.
	ListStudents(ctx context.Context) ([]StudentBalance, error)

	// SaveStudent inserts or updates a student row. Implementations must
	// reject rows whose invariants do not hold (CheckInvariants).
	SaveStudent(ctx context.Context, s StudentBalance) error
}

// =============================================================================
// ACCRUAL LOG - Append-only posting persistence
// =============================================================================

// AccrualLog persists accrual postings. Append-only: no Update, no Delete.
type AccrualLog interface {
	// AppendPosting persists a posting. Returns an error wrapping
	// ErrPeriodAlreadyPosted when the idempotency key exists.
	AppendPosting(ctx context.Context, p AccrualPosting) error

	// PostingExists checks whether the idempotency key is present.
	PostingExists(ctx context.Context, idempotencyKey string) (bool, error)

	// PostingsForStudent returns a student's postings, oldest first.
	PostingsForStudent(ctx context.Context, id fees.StudentID) ([]AccrualPosting, error)
}

// =============================================================================
// WALLET / PAYMENTS
// =============================================================================

// WalletStore tracks each center's collected money as a running balance.
type WalletStore interface {
	// CreditWallet adds amount to the center's wallet balance.
	CreditWallet(ctx context.Context, centerID fees.CenterID, amount decimal.Decimal) error

	// WalletBalance returns the center's current balance (zero for an
	// unknown center).
	WalletBalance(ctx context.Context, centerID fees.CenterID) (decimal.Decimal, error)
}

// PaymentStore persists payment records. Append-only.
type PaymentStore interface {
	AppendPayment(ctx context.Context, p Payment) error
	PaymentsForStudent(ctx context.Context, id fees.StudentID) ([]Payment, error)
}

// =============================================================================
// RUN STORE - Accrual run history
// =============================================================================

// AccrualRun records one execution of the batch engine for operators.
type AccrualRun struct {
	ID              string
	Period          AccrualPeriod
	DryRun          bool
	StudentsUpdated int
	StudentsSkipped int
	TotalFeesAdded  decimal.Decimal
	StartedAt       time.Time
	CompletedAt     *time.Time
	Error           string
}

// RunStore persists accrual run records.
type RunStore interface {
	SaveRun(ctx context.Context, run AccrualRun) error
	ListRuns(ctx context.Context, limit int) ([]AccrualRun, error)

	// LastCompletedPeriod returns the most recent period with a completed
	// non-dry run, or a zero period when none exists. The background
	// scheduler uses this to detect an unposted month.
	LastCompletedPeriod(ctx context.Context) (AccrualPeriod, error)
}

// =============================================================================
// TRANSACTIONAL STORE - Atomic registration
// =============================================================================

// Store bundles everything the billing layer needs from persistence.
type Store interface {
	StudentStore
	AccrualLog
	WalletStore
	PaymentStore
	RunStore
	fees.ScheduleSource

	// SaveFeeSchedule inserts or replaces a fee schedule row.
	SaveFeeSchedule(ctx context.Context, s fees.ClassFeeSchedule) error

	// ListFeeSchedules returns every fee schedule.
	ListFeeSchedules(ctx context.Context) ([]fees.ClassFeeSchedule, error)
}

// TxStore extends Store with transaction support. Registration uses this so
// a failure between computing fees and persisting them never leaves a
// student row with zero fee data.
type TxStore interface {
	Store

	// WithTx executes fn atomically. If fn returns an error, every write it
	// performed is rolled back.
	WithTx(ctx context.Context, fn func(Store) error) error
}
