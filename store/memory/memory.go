// Package memory provides an in-memory billing.TxStore for tests and dev.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/navanidhicare-eng/NavanidhiAcademy-sub000/billing"
	"github.com/navanidhicare-eng/NavanidhiAcademy-sub000/fees"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Store struct {
	mu        sync.RWMutex
	students  map[fees.StudentID]billing.StudentBalance
	schedules map[scheduleKey]fees.ClassFeeSchedule
	postings  []billing.AccrualPosting
	posted    map[string]bool
	payments  []billing.Payment
	wallets   map[fees.CenterID]decimal.Decimal
	runs      []billing.AccrualRun
}

type scheduleKey struct {
	ClassID    fees.ClassID
	CourseType fees.CourseType
}

func New() *Store {
	return &Store{
		students:  make(map[fees.StudentID]billing.StudentBalance),
		schedules: make(map[scheduleKey]fees.ClassFeeSchedule),
		posted:    make(map[string]bool),
		wallets:   make(map[fees.CenterID]decimal.Decimal),
	}
}

// =============================================================================
// STUDENTS
// =============================================================================

func (m *Store) GetStudent(_ context.Context, id fees.StudentID) (billing.StudentBalance, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.students[id]
	if !ok {
		return billing.StudentBalance{}, fmt.Errorf("%w: %s", billing.ErrStudentNotFound, id)
	}
	return s, nil
}

func (m *Store) ListActiveStudents(_ context.Context) ([]billing.StudentBalance, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []billing.StudentBalance
	for _, s := range m.students {
		if s.IsActive {
			result = append(result, s)
		}
	}
	// Stable order keeps batch logs and tests deterministic.
	sort.Slice(result, func(i, j int) bool { return result[i].StudentID < result[j].StudentID })
	return result, nil
}

func (m *Store) ListStudents(_ context.Context) ([]billing.StudentBalance, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]billing.StudentBalance, 0, len(m.students))
	for _, s := range m.students {
		result = append(result, s)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].StudentID < result[j].StudentID })
	return result, nil
}

func (m *Store) SaveStudent(_ context.Context, s billing.StudentBalance) error {
	if err := s.CheckInvariants(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.students[s.StudentID] = s
	return nil
}

// =============================================================================
// FEE SCHEDULES
// =============================================================================

func (m *Store) FeeSchedule(_ context.Context, classID fees.ClassID, courseType fees.CourseType) (fees.ClassFeeSchedule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.schedules[scheduleKey{classID, courseType}]
	if !ok {
		return fees.ClassFeeSchedule{}, &fees.ScheduleNotFoundError{ClassID: classID, CourseType: courseType}
	}
	return s, nil
}

func (m *Store) SaveFeeSchedule(_ context.Context, s fees.ClassFeeSchedule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.schedules[scheduleKey{s.ClassID, s.CourseType}] = s
	return nil
}

func (m *Store) ListFeeSchedules(_ context.Context) ([]fees.ClassFeeSchedule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]fees.ClassFeeSchedule, 0, len(m.schedules))
	for _, s := range m.schedules {
		result = append(result, s)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].ClassID != result[j].ClassID {
			return result[i].ClassID < result[j].ClassID
		}
		return result[i].CourseType < result[j].CourseType
	})
	return result, nil
}

// =============================================================================
// ACCRUAL LOG (append-only)
// =============================================================================

func (m *Store) AppendPosting(_ context.Context, p billing.AccrualPosting) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if p.IdempotencyKey != "" && m.posted[p.IdempotencyKey] {
		return &billing.PeriodAlreadyPostedError{StudentID: p.StudentID, Period: p.Period}
	}
	m.postings = append(m.postings, p)
	if p.IdempotencyKey != "" {
		m.posted[p.IdempotencyKey] = true
	}
	return nil
}

func (m *Store) PostingExists(_ context.Context, idempotencyKey string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.posted[idempotencyKey], nil
}

func (m *Store) PostingsForStudent(_ context.Context, id fees.StudentID) ([]billing.AccrualPosting, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []billing.AccrualPosting
	for _, p := range m.postings {
		if p.StudentID == id {
			result = append(result, p)
		}
	}
	return result, nil
}

// =============================================================================
// PAYMENTS / WALLETS
// =============================================================================

func (m *Store) AppendPayment(_ context.Context, p billing.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payments = append(m.payments, p)
	return nil
}

func (m *Store) PaymentsForStudent(_ context.Context, id fees.StudentID) ([]billing.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []billing.Payment
	for _, p := range m.payments {
		if p.StudentID == id {
			result = append(result, p)
		}
	}
	return result, nil
}

func (m *Store) CreditWallet(_ context.Context, centerID fees.CenterID, amount decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.wallets[centerID] = m.wallets[centerID].Add(amount)
	return nil
}

func (m *Store) WalletBalance(_ context.Context, centerID fees.CenterID) (decimal.Decimal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.wallets[centerID], nil
}

// =============================================================================
// RUN HISTORY
// =============================================================================

func (m *Store) SaveRun(_ context.Context, run billing.AccrualRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, existing := range m.runs {
		if existing.ID == run.ID {
			m.runs[i] = run
			return nil
		}
	}
	m.runs = append(m.runs, run)
	return nil
}

func (m *Store) ListRuns(_ context.Context, limit int) ([]billing.AccrualRun, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]billing.AccrualRun, len(m.runs))
	copy(result, m.runs)
	sort.Slice(result, func(i, j int) bool { return result[i].StartedAt.After(result[j].StartedAt) })
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (m *Store) LastCompletedPeriod(_ context.Context) (billing.AccrualPeriod, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var last billing.AccrualPeriod
	for _, run := range m.runs {
		if run.DryRun || run.CompletedAt == nil {
			continue
		}
		if last.IsZero() || afterPeriod(run.Period, last) {
			last = run.Period
		}
	}
	return last, nil
}

func afterPeriod(a, b billing.AccrualPeriod) bool {
	if a.Year != b.Year {
		return a.Year > b.Year
	}
	return a.Month > b.Month
}

// =============================================================================
// TRANSACTIONS - Snapshot + rollback on error
// =============================================================================

// WithTx executes fn atomically. For the memory store this is simulated with
// a full snapshot restored on error.
func (m *Store) WithTx(ctx context.Context, fn func(billing.Store) error) error {
	m.mu.Lock()
	snap := m.snapshot()
	m.mu.Unlock()

	if err := fn(m); err != nil {
		m.mu.Lock()
		m.restore(snap)
		m.mu.Unlock()
		return err
	}
	return nil
}

type memorySnapshot struct {
	students  map[fees.StudentID]billing.StudentBalance
	schedules map[scheduleKey]fees.ClassFeeSchedule
	postings  []billing.AccrualPosting
	posted    map[string]bool
	payments  []billing.Payment
	wallets   map[fees.CenterID]decimal.Decimal
	runs      []billing.AccrualRun
}

func (m *Store) snapshot() memorySnapshot {
	snap := memorySnapshot{
		students:  make(map[fees.StudentID]billing.StudentBalance, len(m.students)),
		schedules: make(map[scheduleKey]fees.ClassFeeSchedule, len(m.schedules)),
		posted:    make(map[string]bool, len(m.posted)),
		wallets:   make(map[fees.CenterID]decimal.Decimal, len(m.wallets)),
		postings:  append([]billing.AccrualPosting{}, m.postings...),
		payments:  append([]billing.Payment{}, m.payments...),
		runs:      append([]billing.AccrualRun{}, m.runs...),
	}
	for k, v := range m.students {
		snap.students[k] = v
	}
	for k, v := range m.schedules {
		snap.schedules[k] = v
	}
	for k, v := range m.posted {
		snap.posted[k] = v
	}
	for k, v := range m.wallets {
		snap.wallets[k] = v
	}
	return snap
}

func (m *Store) restore(snap memorySnapshot) {
	m.students = snap.students
	m.schedules = snap.schedules
	m.postings = snap.postings
	m.posted = snap.posted
	m.payments = snap.payments
	m.wallets = snap.wallets
	m.runs = snap.runs
}
