package sqlite_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/navanidhicare-eng/NavanidhiAcademy-sub000/billing"
	"github.com/navanidhicare-eng/NavanidhiAcademy-sub000/fees"
	"github.com/navanidhicare-eng/NavanidhiAcademy-sub000/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func amt(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func testStudent(id string, total string) billing.StudentBalance {
	now := time.Date(2025, time.March, 1, 10, 0, 0, 0, time.UTC)
	s := billing.StudentBalance{
		StudentID:      fees.StudentID(id),
		CenterID:       "center-1",
		Name:           "Student " + id,
		ClassID:        "class-10",
		CourseType:     fees.CourseMonthly,
		EnrollmentDate: time.Date(2025, time.January, 5, 0, 0, 0, 0, time.UTC),
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	s.ApplyCalculation(fees.Calculation{TotalDueAmount: amt(total)})
	return s
}

func march2025() billing.AccrualPeriod {
	return billing.AccrualPeriod{Year: 2025, Month: time.March}
}

// =============================================================================
// STUDENT ROUND TRIPS
// =============================================================================

func TestStore_SaveAndGetStudent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	want := testStudent("stu-1", "2500")
	require.NoError(t, store.SaveStudent(ctx, want))

	got, err := store.GetStudent(ctx, "stu-1")
	require.NoError(t, err)

	assert.Equal(t, want.StudentID, got.StudentID)
	assert.Equal(t, want.Name, got.Name)
	assert.Equal(t, want.ClassID, got.ClassID)
	assert.Equal(t, want.CourseType, got.CourseType)
	assert.True(t, want.EnrollmentDate.Equal(got.EnrollmentDate))
	assert.True(t, got.TotalFeeAmount.Equal(amt("2500")))
	assert.True(t, got.PendingAmount.Equal(amt("2500")))
	assert.Equal(t, billing.StatusPending, got.PaymentStatus)
	assert.True(t, got.IsActive)
	assert.NoError(t, got.CheckInvariants())
}

func TestStore_SaveStudent_UpsertsExistingRow(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	s := testStudent("stu-1", "2500")
	require.NoError(t, store.SaveStudent(ctx, s))

	require.NoError(t, s.ApplyPayment(amt("1000")))
	require.NoError(t, store.SaveStudent(ctx, s))

	got, err := store.GetStudent(ctx, "stu-1")
	require.NoError(t, err)
	assert.True(t, got.PaidAmount.Equal(amt("1000")))
	assert.True(t, got.PendingAmount.Equal(amt("1500")))
}

func TestStore_SaveStudent_RejectsInvariantViolation(t *testing.T) {
	// The store is the last line of defense: a row whose pending amount
	// doesn't match the invariant must never be persisted.
	store := newTestStore(t)

	bad := testStudent("stu-1", "2500")
	bad.PendingAmount = amt("999")

	err := store.SaveStudent(context.Background(), bad)
	assert.Error(t, err)

	_, err = store.GetStudent(context.Background(), "stu-1")
	assert.ErrorIs(t, err, billing.ErrStudentNotFound)
}

func TestStore_GetStudent_NotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetStudent(context.Background(), "stu-missing")
	assert.ErrorIs(t, err, billing.ErrStudentNotFound)
}

func TestStore_ListActiveStudents_FiltersInactive(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveStudent(ctx, testStudent("stu-1", "1000")))
	inactive := testStudent("stu-2", "1000")
	inactive.IsActive = false
	require.NoError(t, store.SaveStudent(ctx, inactive))

	active, err := store.ListActiveStudents(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, fees.StudentID("stu-1"), active[0].StudentID)

	all, err := store.ListStudents(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

// =============================================================================
// FEE SCHEDULES
// =============================================================================

func TestStore_FeeSchedule_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveFeeSchedule(ctx, fees.ClassFeeSchedule{
		ClassID:      "class-10",
		CourseType:   fees.CourseMonthly,
		AdmissionFee: amt("1000"),
		MonthlyFee:   amt("500"),
	}))

	got, err := store.FeeSchedule(ctx, "class-10", fees.CourseMonthly)
	require.NoError(t, err)
	assert.True(t, got.AdmissionFee.Equal(amt("1000")))
	assert.True(t, got.MonthlyFee.Equal(amt("500")))
}

func TestStore_FeeSchedule_NotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.FeeSchedule(context.Background(), "class-99", fees.CourseMonthly)
	require.Error(t, err)
	assert.ErrorIs(t, err, fees.ErrScheduleNotFound)

	var nf *fees.ScheduleNotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, fees.ClassID("class-99"), nf.ClassID)
}

func TestStore_FeeSchedule_KeyedByCourseType(t *testing.T) {
	// The same class can carry a monthly and a yearly schedule side by side.
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveFeeSchedule(ctx, fees.ClassFeeSchedule{
		ClassID: "class-10", CourseType: fees.CourseMonthly,
		AdmissionFee: amt("1000"), MonthlyFee: amt("500"),
	}))
	require.NoError(t, store.SaveFeeSchedule(ctx, fees.ClassFeeSchedule{
		ClassID: "class-10", CourseType: fees.CourseYearly,
		AdmissionFee: amt("1000"), YearlyFee: amt("5500"),
	}))

	schedules, err := store.ListFeeSchedules(ctx)
	require.NoError(t, err)
	assert.Len(t, schedules, 2)
}

// =============================================================================
// ACCRUAL POSTINGS - Idempotency at the database layer
// =============================================================================

func TestStore_AppendPosting_DuplicateKeyRejected(t *testing.T) {
	// GIVEN: A posting for (stu-1, 2025-03)
	// WHEN: Appending a second posting with the same idempotency key
	// THEN: The UNIQUE constraint rejects it as ErrPeriodAlreadyPosted

	store := newTestStore(t)
	ctx := context.Background()

	posting := billing.AccrualPosting{
		ID:             "post-1",
		StudentID:      "stu-1",
		Period:         march2025(),
		Amount:         amt("500"),
		Reason:         "regular monthly fee",
		IdempotencyKey: billing.PostingKey("stu-1", march2025()),
		CreatedAt:      time.Now().UTC(),
	}
	require.NoError(t, store.AppendPosting(ctx, posting))

	dup := posting
	dup.ID = "post-2"
	err := store.AppendPosting(ctx, dup)
	require.Error(t, err)
	assert.ErrorIs(t, err, billing.ErrPeriodAlreadyPosted)

	exists, err := store.PostingExists(ctx, posting.IdempotencyKey)
	require.NoError(t, err)
	assert.True(t, exists)

	postings, err := store.PostingsForStudent(ctx, "stu-1")
	require.NoError(t, err)
	assert.Len(t, postings, 1)
}

func TestStore_PostingsForStudent_OrderedByPeriod(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for i, period := range []billing.AccrualPeriod{
		{Year: 2025, Month: time.April},
		{Year: 2025, Month: time.February},
		{Year: 2025, Month: time.March},
	} {
		require.NoError(t, store.AppendPosting(ctx, billing.AccrualPosting{
			ID:             fmt.Sprintf("post-%d", i),
			StudentID:      "stu-1",
			Period:         period,
			Amount:         amt("500"),
			IdempotencyKey: billing.PostingKey("stu-1", period),
			CreatedAt:      time.Now().UTC(),
		}))
	}

	postings, err := store.PostingsForStudent(ctx, "stu-1")
	require.NoError(t, err)
	require.Len(t, postings, 3)
	assert.Equal(t, time.February, postings[0].Period.Month)
	assert.Equal(t, time.March, postings[1].Period.Month)
	assert.Equal(t, time.April, postings[2].Period.Month)
}

// =============================================================================
// WALLETS
// =============================================================================

func TestStore_Wallet_CreditsAccumulate(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	balance, err := store.WalletBalance(ctx, "center-1")
	require.NoError(t, err)
	assert.True(t, balance.IsZero(), "unknown center starts at zero")

	require.NoError(t, store.CreditWallet(ctx, "center-1", amt("1000")))
	require.NoError(t, store.CreditWallet(ctx, "center-1", amt("250.50")))

	balance, err = store.WalletBalance(ctx, "center-1")
	require.NoError(t, err)
	assert.True(t, balance.Equal(amt("1250.50")))
}

// =============================================================================
// RUN HISTORY
// =============================================================================

func TestStore_RunHistory_LastCompletedPeriod(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	last, err := store.LastCompletedPeriod(ctx)
	require.NoError(t, err)
	assert.True(t, last.IsZero(), "no runs yet")

	feb := time.Date(2025, time.February, 1, 9, 0, 0, 0, time.UTC)
	mar := time.Date(2025, time.March, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, store.SaveRun(ctx, billing.AccrualRun{
		ID: "run-feb", Period: billing.AccrualPeriod{Year: 2025, Month: time.February},
		TotalFeesAdded: amt("500"), StartedAt: feb, CompletedAt: &feb,
	}))
	require.NoError(t, store.SaveRun(ctx, billing.AccrualRun{
		ID: "run-mar", Period: march2025(),
		TotalFeesAdded: amt("500"), StartedAt: mar, CompletedAt: &mar,
	}))
	// A failed April run must not count as completed.
	require.NoError(t, store.SaveRun(ctx, billing.AccrualRun{
		ID: "run-apr", Period: billing.AccrualPeriod{Year: 2025, Month: time.April},
		TotalFeesAdded: amt("0"), StartedAt: mar, Error: "database unavailable",
	}))

	last, err = store.LastCompletedPeriod(ctx)
	require.NoError(t, err)
	assert.Equal(t, march2025(), last)

	runs, err := store.ListRuns(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, runs, 3)
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

func TestStore_WithTx_RollsBackOnError(t *testing.T) {
	// GIVEN: A transaction that saves a student and then fails
	// WHEN: WithTx returns the error
	// THEN: The student write is rolled back

	store := newTestStore(t)
	ctx := context.Background()

	sentinel := errors.New("boom")
	err := store.WithTx(ctx, func(tx billing.Store) error {
		if err := tx.SaveStudent(ctx, testStudent("stu-1", "2500")); err != nil {
			return err
		}
		return sentinel
	})
	require.ErrorIs(t, err, sentinel)

	_, err = store.GetStudent(ctx, "stu-1")
	assert.ErrorIs(t, err, billing.ErrStudentNotFound, "rolled-back write must not be visible")
}

func TestStore_WithTx_CommitsMultipleWrites(t *testing.T) {
	// The payment path writes student + payment + wallet in one transaction.
	store := newTestStore(t)
	ctx := context.Background()

	student := testStudent("stu-1", "2500")
	require.NoError(t, student.ApplyPayment(amt("1000")))

	err := store.WithTx(ctx, func(tx billing.Store) error {
		if err := tx.SaveStudent(ctx, student); err != nil {
			return err
		}
		if err := tx.AppendPayment(ctx, billing.Payment{
			ID: "pay-1", StudentID: "stu-1", CenterID: "center-1",
			Amount: amt("1000"), CreatedAt: time.Now().UTC(),
		}); err != nil {
			return err
		}
		return tx.CreditWallet(ctx, "center-1", amt("1000"))
	})
	require.NoError(t, err)

	got, err := store.GetStudent(ctx, "stu-1")
	require.NoError(t, err)
	assert.True(t, got.PaidAmount.Equal(amt("1000")))

	balance, err := store.WalletBalance(ctx, "center-1")
	require.NoError(t, err)
	assert.True(t, balance.Equal(amt("1000")))

	payments, err := store.PaymentsForStudent(ctx, "stu-1")
	require.NoError(t, err)
	assert.Len(t, payments, 1)
}
