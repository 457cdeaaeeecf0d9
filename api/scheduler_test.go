package api_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/navanidhicare-eng/NavanidhiAcademy-sub000/api"
	"github.com/navanidhicare-eng/NavanidhiAcademy-sub000/billing"
	"github.com/navanidhicare-eng/NavanidhiAcademy-sub000/fees"
	"github.com/navanidhicare-eng/NavanidhiAcademy-sub000/store/memory"
)

func newTestScheduler(t *testing.T) (*api.AccrualScheduler, *memory.Store) {
	t.Helper()

	store := memory.New()
	ctx := context.Background()

	monthly, err := decimal.NewFromString("500")
	require.NoError(t, err)
	admission, err := decimal.NewFromString("1000")
	require.NoError(t, err)
	require.NoError(t, store.SaveFeeSchedule(ctx, fees.ClassFeeSchedule{
		ClassID: "class-10", CourseType: fees.CourseMonthly,
		AdmissionFee: admission, MonthlyFee: monthly,
	}))

	student := billing.StudentBalance{
		StudentID:      "stu-1",
		CenterID:       "center-1",
		Name:           "Student stu-1",
		ClassID:        "class-10",
		CourseType:     fees.CourseMonthly,
		EnrollmentDate: time.Date(2025, time.January, 5, 0, 0, 0, 0, time.UTC),
		IsActive:       true,
	}
	student.ApplyCalculation(fees.Calculation{TotalDueAmount: admission.Add(monthly)})
	require.NoError(t, store.SaveStudent(ctx, student))

	engine := billing.NewAccrualEngine(store)
	engine.Clock = func() time.Time {
		return time.Date(2025, time.March, 1, 0, 30, 0, 0, time.UTC)
	}
	return api.NewAccrualScheduler(store, engine), store
}

func TestScheduler_UnpostedMonth_TriggersRun(t *testing.T) {
	// GIVEN: No accrual run recorded for March, clock just past the boundary
	// WHEN: The scheduler checks
	// THEN: The March batch runs and is recorded as completed

	scheduler, store := newTestScheduler(t)
	scheduler.RunNow()

	last, err := store.LastCompletedPeriod(context.Background())
	require.NoError(t, err)
	assert.Equal(t, billing.AccrualPeriod{Year: 2025, Month: time.March}, last)

	postings, err := store.PostingsForStudent(context.Background(), "stu-1")
	require.NoError(t, err)
	assert.Len(t, postings, 1)
}

func TestScheduler_AlreadyPostedMonth_DoesNothing(t *testing.T) {
	// A second check in the same month must not start another run.
	scheduler, store := newTestScheduler(t)

	scheduler.RunNow()
	scheduler.RunNow()

	runs, err := store.ListRuns(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, runs, 1, "the posted month must not be re-run")
}
