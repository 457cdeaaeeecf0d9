package billing_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/navanidhicare-eng/NavanidhiAcademy-sub000/billing"
	"github.com/navanidhicare-eng/NavanidhiAcademy-sub000/fees"
	"github.com/navanidhicare-eng/NavanidhiAcademy-sub000/store/memory"
)

// newTestRegistrar pins "now" to 2025-03-01 over a seeded memory store.
func newTestRegistrar(t *testing.T) (*billing.Registrar, *memory.Store) {
	t.Helper()
	store := memory.New()
	ctx := context.Background()

	require.NoError(t, store.SaveFeeSchedule(ctx, monthlySchedule("class-10", "1000", "500")))
	require.NoError(t, store.SaveFeeSchedule(ctx, yearlySchedule("class-10", "1000", "5500")))

	registrar := billing.NewRegistrar(store)
	registrar.Calculator.Clock = fixedClock(2025, time.March, 1)
	return registrar, store
}

func enrollment(id, classID string, courseType fees.CourseType, date time.Time, admissionPaid bool) billing.Enrollment {
	return billing.Enrollment{
		StudentID:        fees.StudentID(id),
		CenterID:         "center-1",
		Name:             "Student " + id,
		ClassID:          fees.ClassID(classID),
		CourseType:       courseType,
		EnrollmentDate:   date,
		AdmissionFeePaid: admissionPaid,
	}
}

// =============================================================================
// REGISTRATION TESTS
// =============================================================================

func TestRegister_SeedsBalanceFromCalculation(t *testing.T) {
	// GIVEN: Enrolled Jan 5, monthly 500, admission 1000 unpaid, now = Mar 1
	// WHEN: Registering
	// THEN: The persisted student carries total 2500 / pending 2500, and the
	//       returned calculation shows the Jan-Mar breakdown

	registrar, store := newTestRegistrar(t)
	ctx := context.Background()

	student, calc, err := registrar.Register(ctx, enrollment(
		"stu-1", "class-10", fees.CourseMonthly,
		time.Date(2025, time.January, 5, 0, 0, 0, 0, time.UTC), false))
	require.NoError(t, err)

	assert.True(t, student.TotalFeeAmount.Equal(amt("2500")))
	assert.True(t, student.PendingAmount.Equal(amt("2500")))
	assert.Equal(t, billing.StatusPending, student.PaymentStatus)
	assert.True(t, student.IsActive)
	assert.Len(t, calc.Breakdown, 3)

	persisted, err := store.GetStudent(ctx, "stu-1")
	require.NoError(t, err)
	assert.True(t, persisted.TotalFeeAmount.Equal(amt("2500")))
	assert.NoError(t, persisted.CheckInvariants())
}

func TestRegister_MissingSchedule_CreatesNoStudent(t *testing.T) {
	// GIVEN: No schedule for the class
	// WHEN: Registering
	// THEN: The calculation error surfaces (fatal, distinguishable from a
	//       persistence failure) and NO student row exists afterwards

	registrar, store := newTestRegistrar(t)
	ctx := context.Background()

	_, _, err := registrar.Register(ctx, enrollment(
		"stu-1", "class-unpriced", fees.CourseMonthly,
		time.Date(2025, time.January, 5, 0, 0, 0, 0, time.UTC), false))

	require.Error(t, err)
	assert.ErrorIs(t, err, fees.ErrScheduleNotFound)
	assert.True(t, fees.IsFatalToRegistration(err))

	_, err = store.GetStudent(ctx, "stu-1")
	assert.ErrorIs(t, err, billing.ErrStudentNotFound,
		"a failed calculation must never leave a student row behind")
}

func TestRegister_FutureEnrollment_Rejected(t *testing.T) {
	registrar, store := newTestRegistrar(t)
	ctx := context.Background()

	_, _, err := registrar.Register(ctx, enrollment(
		"stu-1", "class-10", fees.CourseMonthly,
		time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC), false))

	assert.ErrorIs(t, err, fees.ErrFutureEnrollment)

	_, err = store.GetStudent(ctx, "stu-1")
	assert.ErrorIs(t, err, billing.ErrStudentNotFound)
}

func TestRegister_AdmissionFeePaid_ExcludedFromTotal(t *testing.T) {
	registrar, _ := newTestRegistrar(t)
	ctx := context.Background()

	student, calc, err := registrar.Register(ctx, enrollment(
		"stu-1", "class-10", fees.CourseMonthly,
		time.Date(2025, time.January, 5, 0, 0, 0, 0, time.UTC), true))
	require.NoError(t, err)

	assert.True(t, calc.AdmissionFee.IsZero())
	assert.True(t, student.TotalFeeAmount.Equal(amt("1500")), "monthly fees only")
}

func TestRegister_YearlyCourse_FlatFee(t *testing.T) {
	registrar, _ := newTestRegistrar(t)
	ctx := context.Background()

	student, calc, err := registrar.Register(ctx, enrollment(
		"stu-1", "class-10", fees.CourseYearly,
		time.Date(2025, time.January, 25, 0, 0, 0, 0, time.UTC), false))
	require.NoError(t, err)

	assert.Len(t, calc.Breakdown, 1)
	assert.True(t, student.TotalFeeAmount.Equal(amt("6500")), "5500 yearly + 1000 admission")
}

// =============================================================================
// RECALCULATION (OPERATOR REPAIR)
// =============================================================================

func TestRecalculate_OverwritesSeededTotals(t *testing.T) {
	// GIVEN: A registered student whose price card was wrong and has been fixed
	// WHEN: Recalculating
	// THEN: The student's totals reflect the corrected schedule

	registrar, store := newTestRegistrar(t)
	ctx := context.Background()

	_, _, err := registrar.Register(ctx, enrollment(
		"stu-1", "class-10", fees.CourseMonthly,
		time.Date(2025, time.January, 5, 0, 0, 0, 0, time.UTC), false))
	require.NoError(t, err)

	require.NoError(t, store.SaveFeeSchedule(ctx, monthlySchedule("class-10", "1000", "600")))

	student, _, err := registrar.Recalculate(ctx, "stu-1")
	require.NoError(t, err)

	assert.True(t, student.TotalFeeAmount.Equal(amt("2800")), "3 months at 600 + 1000 admission")
	assert.True(t, student.PaidAmount.IsZero(), "recalculation resets paid amount")
}

func TestRecalculate_UnknownStudent_NotFound(t *testing.T) {
	registrar, _ := newTestRegistrar(t)

	_, _, err := registrar.Recalculate(context.Background(), "stu-missing")
	assert.ErrorIs(t, err, billing.ErrStudentNotFound)
}
