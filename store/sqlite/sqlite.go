/*
Package sqlite provides the SQLite-backed implementation of billing.TxStore.

PURPOSE:
  Implements every persistence interface the billing layer needs (students,
  fee schedules, accrual postings, payments, wallets, run history) on
  SQLite. In production the same SQL shape applies to PostgreSQL - only
  minor dialect differences.

APPEND-ONLY ENFORCEMENT:
  No UPDATE or DELETE statements exist for accrual_postings or payments.
  The UNIQUE index on accrual_postings.idempotency_key is what makes a
  re-run of the monthly batch a no-op instead of a double charge.

KEY TABLES:
  students:         Balance-bearing student rows (the one mutable table)
  fee_schedules:    Price card per (class, course type)
  accrual_postings: Immutable log of monthly charges
  payments:         Immutable log of collections
  wallets:          Per-center running balance
  accrual_runs:     Batch run history for operators

WAL MODE:
  SQLite is opened with WAL for better concurrency: readers don't block,
  single writer at a time, better crash recovery.

USAGE:
  store, err := sqlite.New("./data/academy.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - billing/store.go: Interface definitions
  - store/memory: In-memory implementation for tests
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/navanidhicare-eng/NavanidhiAcademy-sub000/billing"
	"github.com/navanidhicare-eng/NavanidhiAcademy-sub000/fees"
)

// Store implements billing.TxStore using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// dbtx is satisfied by both *sql.DB and *sql.Tx so every query helper can
// run inside or outside a transaction.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// New creates a SQLite store at the given path. Use ":memory:" for tests.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	-- Students (balance-bearing rows; never deleted, deactivated instead)
	CREATE TABLE IF NOT EXISTS students (
		student_id TEXT PRIMARY KEY,
		center_id TEXT NOT NULL,
		name TEXT NOT NULL,
		class_id TEXT NOT NULL,
		course_type TEXT NOT NULL,
		enrollment_date TEXT NOT NULL,
		admission_fee_paid BOOLEAN NOT NULL DEFAULT FALSE,
		total_fee_amount TEXT NOT NULL,
		paid_amount TEXT NOT NULL,
		pending_amount TEXT NOT NULL,
		payment_status TEXT NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_students_active
		ON students(is_active);
	CREATE INDEX IF NOT EXISTS idx_students_center
		ON students(center_id);
	CREATE INDEX IF NOT EXISTS idx_students_class_course
		ON students(class_id, course_type);

	-- Fee schedules (price card, admin-editable)
	CREATE TABLE IF NOT EXISTS fee_schedules (
		class_id TEXT NOT NULL,
		course_type TEXT NOT NULL,
		admission_fee TEXT NOT NULL,
		monthly_fee TEXT NOT NULL,
		yearly_fee TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		PRIMARY KEY (class_id, course_type)
	);

	-- Accrual postings (append-only ledger)
	CREATE TABLE IF NOT EXISTS accrual_postings (
		id TEXT PRIMARY KEY,
		student_id TEXT NOT NULL,
		period_year INTEGER NOT NULL,
		period_month INTEGER NOT NULL,
		amount TEXT NOT NULL,
		reason TEXT,
		idempotency_key TEXT NOT NULL UNIQUE,
		created_at TEXT NOT NULL
	);

	-- CRITICAL: one posting per (student, period). The idempotency key
	-- encodes the same pair; the explicit index backs direct period queries.
	CREATE UNIQUE INDEX IF NOT EXISTS idx_postings_student_period
		ON accrual_postings(student_id, period_year, period_month);
	CREATE INDEX IF NOT EXISTS idx_postings_student
		ON accrual_postings(student_id, created_at);

	-- Payments (append-only)
	CREATE TABLE IF NOT EXISTS payments (
		id TEXT PRIMARY KEY,
		student_id TEXT NOT NULL,
		center_id TEXT NOT NULL,
		amount TEXT NOT NULL,
		note TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_payments_student
		ON payments(student_id, created_at);
	CREATE INDEX IF NOT EXISTS idx_payments_center
		ON payments(center_id, created_at);

	-- Center wallets (running balance)
	CREATE TABLE IF NOT EXISTS wallets (
		center_id TEXT PRIMARY KEY,
		balance TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- Accrual run history
	CREATE TABLE IF NOT EXISTS accrual_runs (
		id TEXT PRIMARY KEY,
		period_year INTEGER NOT NULL,
		period_month INTEGER NOT NULL,
		dry_run BOOLEAN NOT NULL DEFAULT FALSE,
		students_updated INTEGER NOT NULL DEFAULT 0,
		students_skipped INTEGER NOT NULL DEFAULT 0,
		total_fees_added TEXT NOT NULL DEFAULT '0',
		started_at TEXT NOT NULL,
		completed_at TEXT,
		error TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_runs_period
		ON accrual_runs(period_year, period_month);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// STUDENTS (billing.StudentStore)
// =============================================================================

const studentColumns = `student_id, center_id, name, class_id, course_type, enrollment_date,
	admission_fee_paid, total_fee_amount, paid_amount, pending_amount, payment_status,
	is_active, created_at, updated_at`

func (s *Store) GetStudent(ctx context.Context, id fees.StudentID) (billing.StudentBalance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getStudent(ctx, s.db, id)
}

func getStudent(ctx context.Context, db dbtx, id fees.StudentID) (billing.StudentBalance, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+studentColumns+` FROM students WHERE student_id = ?`, id)

	student, err := scanStudent(row)
	if err == sql.ErrNoRows {
		return billing.StudentBalance{}, fmt.Errorf("%w: %s", billing.ErrStudentNotFound, id)
	}
	return student, err
}

func (s *Store) ListActiveStudents(ctx context.Context) ([]billing.StudentBalance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return queryStudents(ctx, s.db,
		`SELECT `+studentColumns+` FROM students WHERE is_active = TRUE ORDER BY student_id`)
}

func (s *Store) ListStudents(ctx context.Context) ([]billing.StudentBalance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return queryStudents(ctx, s.db,
		`SELECT `+studentColumns+` FROM students ORDER BY student_id`)
}

func (s *Store) SaveStudent(ctx context.Context, student billing.StudentBalance) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveStudent(ctx, s.db, student)
}

func saveStudent(ctx context.Context, db dbtx, student billing.StudentBalance) error {
	if err := student.CheckInvariants(); err != nil {
		return err
	}

	_, err := db.ExecContext(ctx, `
		INSERT INTO students (`+studentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(student_id) DO UPDATE SET
			center_id = excluded.center_id,
			name = excluded.name,
			class_id = excluded.class_id,
			course_type = excluded.course_type,
			enrollment_date = excluded.enrollment_date,
			admission_fee_paid = excluded.admission_fee_paid,
			total_fee_amount = excluded.total_fee_amount,
			paid_amount = excluded.paid_amount,
			pending_amount = excluded.pending_amount,
			payment_status = excluded.payment_status,
			is_active = excluded.is_active,
			updated_at = excluded.updated_at`,
		student.StudentID,
		student.CenterID,
		student.Name,
		student.ClassID,
		student.CourseType,
		student.EnrollmentDate.Format("2006-01-02"),
		student.AdmissionFeePaid,
		student.TotalFeeAmount.String(),
		student.PaidAmount.String(),
		student.PendingAmount.String(),
		student.PaymentStatus,
		student.IsActive,
		student.CreatedAt.Format(time.RFC3339),
		student.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save student: %w", err)
	}
	return nil
}

func queryStudents(ctx context.Context, db dbtx, query string, args ...any) ([]billing.StudentBalance, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query students: %w", err)
	}
	defer rows.Close()

	var students []billing.StudentBalance
	for rows.Next() {
		student, err := scanStudent(rows)
		if err != nil {
			return nil, err
		}
		students = append(students, student)
	}
	return students, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanStudent(row scanner) (billing.StudentBalance, error) {
	var (
		student        billing.StudentBalance
		enrollmentDate string
		total, paid    string
		pending        string
		createdAt      string
		updatedAt      string
	)

	err := row.Scan(
		&student.StudentID, &student.CenterID, &student.Name,
		&student.ClassID, &student.CourseType, &enrollmentDate,
		&student.AdmissionFeePaid, &total, &paid, &pending,
		&student.PaymentStatus, &student.IsActive, &createdAt, &updatedAt,
	)
	if err != nil {
		return student, err
	}

	student.EnrollmentDate, _ = time.Parse("2006-01-02", enrollmentDate)
	student.TotalFeeAmount = mustDecimal(total)
	student.PaidAmount = mustDecimal(paid)
	student.PendingAmount = mustDecimal(pending)
	student.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	student.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return student, nil
}

// =============================================================================
// FEE SCHEDULES (fees.ScheduleSource)
// =============================================================================

func (s *Store) FeeSchedule(ctx context.Context, classID fees.ClassID, courseType fees.CourseType) (fees.ClassFeeSchedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return feeSchedule(ctx, s.db, classID, courseType)
}

func feeSchedule(ctx context.Context, db dbtx, classID fees.ClassID, courseType fees.CourseType) (fees.ClassFeeSchedule, error) {
	var admission, monthly, yearly string
	err := db.QueryRowContext(ctx, `
		SELECT admission_fee, monthly_fee, yearly_fee
		FROM fee_schedules WHERE class_id = ? AND course_type = ?`,
		classID, courseType,
	).Scan(&admission, &monthly, &yearly)

	if err == sql.ErrNoRows {
		return fees.ClassFeeSchedule{}, &fees.ScheduleNotFoundError{ClassID: classID, CourseType: courseType}
	}
	if err != nil {
		return fees.ClassFeeSchedule{}, fmt.Errorf("failed to load fee schedule: %w", err)
	}

	return fees.ClassFeeSchedule{
		ClassID:      classID,
		CourseType:   courseType,
		AdmissionFee: mustDecimal(admission),
		MonthlyFee:   mustDecimal(monthly),
		YearlyFee:    mustDecimal(yearly),
	}, nil
}

func (s *Store) SaveFeeSchedule(ctx context.Context, schedule fees.ClassFeeSchedule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveFeeSchedule(ctx, s.db, schedule)
}

func saveFeeSchedule(ctx context.Context, db dbtx, schedule fees.ClassFeeSchedule) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO fee_schedules (class_id, course_type, admission_fee, monthly_fee, yearly_fee, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(class_id, course_type) DO UPDATE SET
			admission_fee = excluded.admission_fee,
			monthly_fee = excluded.monthly_fee,
			yearly_fee = excluded.yearly_fee,
			updated_at = excluded.updated_at`,
		schedule.ClassID,
		schedule.CourseType,
		schedule.AdmissionFee.String(),
		schedule.MonthlyFee.String(),
		schedule.YearlyFee.String(),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save fee schedule: %w", err)
	}
	return nil
}

func (s *Store) ListFeeSchedules(ctx context.Context) ([]fees.ClassFeeSchedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT class_id, course_type, admission_fee, monthly_fee, yearly_fee
		FROM fee_schedules ORDER BY class_id, course_type`)
	if err != nil {
		return nil, fmt.Errorf("failed to list fee schedules: %w", err)
	}
	defer rows.Close()

	var schedules []fees.ClassFeeSchedule
	for rows.Next() {
		var (
			schedule                   fees.ClassFeeSchedule
			admission, monthly, yearly string
		)
		if err := rows.Scan(&schedule.ClassID, &schedule.CourseType, &admission, &monthly, &yearly); err != nil {
			return nil, err
		}
		schedule.AdmissionFee = mustDecimal(admission)
		schedule.MonthlyFee = mustDecimal(monthly)
		schedule.YearlyFee = mustDecimal(yearly)
		schedules = append(schedules, schedule)
	}
	return schedules, rows.Err()
}

// =============================================================================
// ACCRUAL POSTINGS (billing.AccrualLog, append-only)
// =============================================================================

func (s *Store) AppendPosting(ctx context.Context, p billing.AccrualPosting) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return appendPosting(ctx, s.db, p)
}

func appendPosting(ctx context.Context, db dbtx, p billing.AccrualPosting) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO accrual_postings
		(id, student_id, period_year, period_month, amount, reason, idempotency_key, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID,
		p.StudentID,
		p.Period.Year,
		int(p.Period.Month),
		p.Amount.String(),
		p.Reason,
		p.IdempotencyKey,
		p.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return &billing.PeriodAlreadyPostedError{StudentID: p.StudentID, Period: p.Period}
		}
		return fmt.Errorf("failed to append posting: %w", err)
	}
	return nil
}

func (s *Store) PostingExists(ctx context.Context, idempotencyKey string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return postingExists(ctx, s.db, idempotencyKey)
}

func postingExists(ctx context.Context, db dbtx, idempotencyKey string) (bool, error) {
	var count int
	err := db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM accrual_postings WHERE idempotency_key = ?",
		idempotencyKey,
	).Scan(&count)
	return count > 0, err
}

func (s *Store) PostingsForStudent(ctx context.Context, id fees.StudentID) ([]billing.AccrualPosting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, student_id, period_year, period_month, amount, reason, idempotency_key, created_at
		FROM accrual_postings WHERE student_id = ?
		ORDER BY period_year, period_month`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query postings: %w", err)
	}
	defer rows.Close()

	var postings []billing.AccrualPosting
	for rows.Next() {
		var (
			p         billing.AccrualPosting
			month     int
			amount    string
			createdAt string
		)
		if err := rows.Scan(&p.ID, &p.StudentID, &p.Period.Year, &month, &amount, &p.Reason, &p.IdempotencyKey, &createdAt); err != nil {
			return nil, err
		}
		p.Period.Month = time.Month(month)
		p.Amount = mustDecimal(amount)
		p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		postings = append(postings, p)
	}
	return postings, rows.Err()
}

// =============================================================================
// PAYMENTS / WALLETS
// =============================================================================

func (s *Store) AppendPayment(ctx context.Context, p billing.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return appendPayment(ctx, s.db, p)
}

func appendPayment(ctx context.Context, db dbtx, p billing.Payment) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO payments (id, student_id, center_id, amount, note, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		p.ID, p.StudentID, p.CenterID, p.Amount.String(), p.Note,
		p.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to append payment: %w", err)
	}
	return nil
}

func (s *Store) PaymentsForStudent(ctx context.Context, id fees.StudentID) ([]billing.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, student_id, center_id, amount, note, created_at
		FROM payments WHERE student_id = ? ORDER BY created_at`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query payments: %w", err)
	}
	defer rows.Close()

	var payments []billing.Payment
	for rows.Next() {
		var (
			p         billing.Payment
			amount    string
			createdAt string
		)
		if err := rows.Scan(&p.ID, &p.StudentID, &p.CenterID, &amount, &p.Note, &createdAt); err != nil {
			return nil, err
		}
		p.Amount = mustDecimal(amount)
		p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

func (s *Store) CreditWallet(ctx context.Context, centerID fees.CenterID, amount decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return creditWallet(ctx, s.db, centerID, amount)
}

func creditWallet(ctx context.Context, db dbtx, centerID fees.CenterID, amount decimal.Decimal) error {
	balance, err := walletBalance(ctx, db, centerID)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO wallets (center_id, balance, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(center_id) DO UPDATE SET
			balance = excluded.balance,
			updated_at = excluded.updated_at`,
		centerID, balance.Add(amount).String(),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to credit wallet: %w", err)
	}
	return nil
}

func (s *Store) WalletBalance(ctx context.Context, centerID fees.CenterID) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return walletBalance(ctx, s.db, centerID)
}

func walletBalance(ctx context.Context, db dbtx, centerID fees.CenterID) (decimal.Decimal, error) {
	var balance string
	err := db.QueryRowContext(ctx,
		"SELECT balance FROM wallets WHERE center_id = ?", centerID,
	).Scan(&balance)
	if err == sql.ErrNoRows {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to load wallet: %w", err)
	}
	return mustDecimal(balance), nil
}

// =============================================================================
// RUN HISTORY (billing.RunStore)
// =============================================================================

func (s *Store) SaveRun(ctx context.Context, run billing.AccrualRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var completedAt any
	if run.CompletedAt != nil {
		completedAt = run.CompletedAt.Format(time.RFC3339)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO accrual_runs
		(id, period_year, period_month, dry_run, students_updated, students_skipped,
		 total_fees_added, started_at, completed_at, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			students_updated = excluded.students_updated,
			students_skipped = excluded.students_skipped,
			total_fees_added = excluded.total_fees_added,
			completed_at = excluded.completed_at,
			error = excluded.error`,
		run.ID, run.Period.Year, int(run.Period.Month), run.DryRun,
		run.StudentsUpdated, run.StudentsSkipped, run.TotalFeesAdded.String(),
		run.StartedAt.Format(time.RFC3339), completedAt, run.Error,
	)
	if err != nil {
		return fmt.Errorf("failed to save accrual run: %w", err)
	}
	return nil
}

func (s *Store) ListRuns(ctx context.Context, limit int) ([]billing.AccrualRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, period_year, period_month, dry_run, students_updated, students_skipped,
		       total_fees_added, started_at, completed_at, error
		FROM accrual_runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query accrual runs: %w", err)
	}
	defer rows.Close()

	var runs []billing.AccrualRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func (s *Store) LastCompletedPeriod(ctx context.Context) (billing.AccrualPeriod, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var year, month int
	err := s.db.QueryRowContext(ctx, `
		SELECT period_year, period_month FROM accrual_runs
		WHERE dry_run = FALSE AND completed_at IS NOT NULL AND error = ''
		ORDER BY period_year DESC, period_month DESC LIMIT 1`,
	).Scan(&year, &month)
	if err == sql.ErrNoRows {
		return billing.AccrualPeriod{}, nil
	}
	if err != nil {
		return billing.AccrualPeriod{}, fmt.Errorf("failed to load last accrual period: %w", err)
	}
	return billing.AccrualPeriod{Year: year, Month: time.Month(month)}, nil
}

func scanRun(rows *sql.Rows) (billing.AccrualRun, error) {
	var (
		run         billing.AccrualRun
		month       int
		total       string
		startedAt   string
		completedAt sql.NullString
		runErr      sql.NullString
	)
	err := rows.Scan(&run.ID, &run.Period.Year, &month, &run.DryRun,
		&run.StudentsUpdated, &run.StudentsSkipped, &total, &startedAt, &completedAt, &runErr)
	if err != nil {
		return run, fmt.Errorf("failed to scan accrual run: %w", err)
	}

	run.Period.Month = time.Month(month)
	run.TotalFeesAdded = mustDecimal(total)
	run.StartedAt, _ = time.Parse(time.RFC3339, startedAt)
	if completedAt.Valid {
		t, _ := time.Parse(time.RFC3339, completedAt.String)
		run.CompletedAt = &t
	}
	run.Error = runErr.String
	return run, nil
}

// =============================================================================
// TRANSACTIONAL STORE (billing.TxStore)
// =============================================================================

// WithTx executes fn within a database transaction. The view passed to fn
// routes every read and write through the same *sql.Tx; the store mutex is
// held for the duration, so view methods must not re-lock.
func (s *Store) WithTx(ctx context.Context, fn func(billing.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	view := &txStore{tx: sqlTx}
	if err := fn(view); err != nil {
		return err
	}
	return sqlTx.Commit()
}

// txStore is the transactional view handed to WithTx callbacks.
type txStore struct {
	tx *sql.Tx
}

func (ts *txStore) GetStudent(ctx context.Context, id fees.StudentID) (billing.StudentBalance, error) {
	return getStudent(ctx, ts.tx, id)
}

func (ts *txStore) ListActiveStudents(ctx context.Context) ([]billing.StudentBalance, error) {
	return queryStudents(ctx, ts.tx,
		`SELECT `+studentColumns+` FROM students WHERE is_active = TRUE ORDER BY student_id`)
}

func (ts *txStore) ListStudents(ctx context.Context) ([]billing.StudentBalance, error) {
	return queryStudents(ctx, ts.tx,
		`SELECT `+studentColumns+` FROM students ORDER BY student_id`)
}

func (ts *txStore) SaveStudent(ctx context.Context, student billing.StudentBalance) error {
	return saveStudent(ctx, ts.tx, student)
}

func (ts *txStore) FeeSchedule(ctx context.Context, classID fees.ClassID, courseType fees.CourseType) (fees.ClassFeeSchedule, error) {
	return feeSchedule(ctx, ts.tx, classID, courseType)
}

func (ts *txStore) SaveFeeSchedule(ctx context.Context, schedule fees.ClassFeeSchedule) error {
	return saveFeeSchedule(ctx, ts.tx, schedule)
}

func (ts *txStore) ListFeeSchedules(ctx context.Context) ([]fees.ClassFeeSchedule, error) {
	return nil, fmt.Errorf("ListFeeSchedules is not supported inside a transaction")
}

func (ts *txStore) AppendPosting(ctx context.Context, p billing.AccrualPosting) error {
	return appendPosting(ctx, ts.tx, p)
}

func (ts *txStore) PostingExists(ctx context.Context, idempotencyKey string) (bool, error) {
	return postingExists(ctx, ts.tx, idempotencyKey)
}

func (ts *txStore) PostingsForStudent(ctx context.Context, id fees.StudentID) ([]billing.AccrualPosting, error) {
	return nil, fmt.Errorf("PostingsForStudent is not supported inside a transaction")
}

func (ts *txStore) AppendPayment(ctx context.Context, p billing.Payment) error {
	return appendPayment(ctx, ts.tx, p)
}

func (ts *txStore) PaymentsForStudent(ctx context.Context, id fees.StudentID) ([]billing.Payment, error) {
	return nil, fmt.Errorf("PaymentsForStudent is not supported inside a transaction")
}

func (ts *txStore) CreditWallet(ctx context.Context, centerID fees.CenterID, amount decimal.Decimal) error {
	return creditWallet(ctx, ts.tx, centerID, amount)
}

func (ts *txStore) WalletBalance(ctx context.Context, centerID fees.CenterID) (decimal.Decimal, error) {
	return walletBalance(ctx, ts.tx, centerID)
}

func (ts *txStore) SaveRun(ctx context.Context, run billing.AccrualRun) error {
	return fmt.Errorf("SaveRun is not supported inside a transaction")
}

func (ts *txStore) ListRuns(ctx context.Context, limit int) ([]billing.AccrualRun, error) {
	return nil, fmt.Errorf("ListRuns is not supported inside a transaction")
}

func (ts *txStore) LastCompletedPeriod(ctx context.Context) (billing.AccrualPeriod, error) {
	return billing.AccrualPeriod{}, fmt.Errorf("LastCompletedPeriod is not supported inside a transaction")
}

// =============================================================================
// HELPERS
// =============================================================================

func mustDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
