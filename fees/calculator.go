/*
calculator.go - Retroactive fee calculation

PURPOSE:
  Computes what a student owes at enrollment time: a day-of-month tiered
  charge for the admission month, plus the full monthly fee for every month
  between enrollment and "now". This is the single place in the codebase
  where the tiering rule lives.

THE TIERING RULE (admission month ONLY):
  Enrolled day  1-10  ->  full monthly fee
  Enrolled day 11-20  ->  half the monthly fee
  Enrolled day 21+    ->  no fee for the admission month

  Every month after the admission month is always charged in full,
  regardless of enrollment day.

YEARLY COURSES:
  Yearly courses skip the month loop entirely: the yearly fee is a flat
  one-time charge. There is deliberately NO day tiering for yearly courses.
  The yearly amount still appears as one breakdown entry so that
  TotalDueAmount = sum(breakdown) + unpaid admission fee holds uniformly.

EXAMPLE:
  Enrolled 2025-01-05, monthly fee 500, admission 1000 unpaid, now = 2025-03-01:
    Jan 500 (full, day 5), Feb 500, Mar 500
    TotalMonthlyFees = 1500, TotalDueAmount = 2500

SEE ALSO:
  - types.go: Calculation and MonthlyBreakdownEntry
  - billing/accrual.go: The recurring counterpart of this one-shot calculation
*/
package fees

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Tier boundaries for the admission-month charge.
const (
	fullFeeLastDay = 10 // enrolled on or before: full monthly fee
	halfFeeLastDay = 20 // enrolled on or before: half monthly fee; after: zero
)

var two = decimal.NewFromInt(2)

// Calculator computes retroactive fees from a schedule source and a clock.
type Calculator struct {
	Schedules ScheduleSource
	Clock     Clock
}

// NewCalculator wires a calculator with the real wall clock.
func NewCalculator(schedules ScheduleSource) *Calculator {
	return &Calculator{Schedules: schedules, Clock: time.Now}
}

// CalculateRetroactiveFees computes the total amount due for a student
// enrolling (or re-calculated) as of the calculator's clock.
//
// Fails with ErrScheduleNotFound when no schedule exists for the key - the
// caller must surface this and abort, never proceed with zero fees.
func (c *Calculator) CalculateRetroactiveFees(
	ctx context.Context,
	enrollmentDate time.Time,
	classID ClassID,
	courseType CourseType,
	admissionFeePaid bool,
) (Calculation, error) {

	if !courseType.Valid() {
		return Calculation{}, fmt.Errorf("%w: %q", ErrInvalidCourseType, courseType)
	}

	now := c.Clock()
	if startOfDay(enrollmentDate).After(startOfDay(now)) {
		return Calculation{}, &FutureEnrollmentError{EnrollmentDate: enrollmentDate, Now: now}
	}

	schedule, err := c.Schedules.FeeSchedule(ctx, classID, courseType)
	if err != nil {
		return Calculation{}, err
	}

	var calc Calculation
	switch courseType {
	case CourseYearly:
		calc = yearlyCalculation(schedule, enrollmentDate)
	default:
		calc = monthlyCalculation(schedule, enrollmentDate, now)
	}

	calc.TotalDueAmount = calc.TotalMonthlyFees
	if !admissionFeePaid {
		calc.AdmissionFee = schedule.AdmissionFee
		calc.TotalDueAmount = calc.TotalDueAmount.Add(schedule.AdmissionFee)
	}
	return calc, nil
}

// monthlyCalculation walks every calendar month from the enrollment month
// through the current month, inclusive on both ends.
func monthlyCalculation(schedule ClassFeeSchedule, enrollmentDate, now time.Time) Calculation {
	var (
		breakdown []MonthlyBreakdownEntry
		total     = decimal.Zero
	)

	cursor := time.Date(enrollmentDate.Year(), enrollmentDate.Month(), 1, 0, 0, 0, 0, time.UTC)
	last := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	for !cursor.After(last) {
		entry := MonthlyBreakdownEntry{
			Month:  cursor.Month(),
			Year:   cursor.Year(),
			Amount: schedule.MonthlyFee,
			Reason: "regular monthly fee",
		}
		if cursor.Equal(time.Date(enrollmentDate.Year(), enrollmentDate.Month(), 1, 0, 0, 0, 0, time.UTC)) {
			entry.Amount, entry.Reason = admissionMonthFee(schedule.MonthlyFee, enrollmentDate.Day())
		}
		breakdown = append(breakdown, entry)
		total = total.Add(entry.Amount)
		cursor = cursor.AddDate(0, 1, 0)
	}

	return Calculation{TotalMonthlyFees: total, Breakdown: breakdown}
}

// admissionMonthFee applies the day-of-month tier to the enrollment month.
func admissionMonthFee(monthlyFee decimal.Decimal, day int) (decimal.Decimal, string) {
	switch {
	case day <= fullFeeLastDay:
		return monthlyFee, fmt.Sprintf("full monthly fee (enrolled on day %d)", day)
	case day <= halfFeeLastDay:
		return monthlyFee.Div(two), fmt.Sprintf("half monthly fee (enrolled on day %d)", day)
	default:
		return decimal.Zero, fmt.Sprintf("no monthly fee (enrolled on day %d)", day)
	}
}

// yearlyCalculation charges the flat yearly fee once. No month loop,
// no day tiering.
func yearlyCalculation(schedule ClassFeeSchedule, enrollmentDate time.Time) Calculation {
	entry := MonthlyBreakdownEntry{
		Month:  enrollmentDate.Month(),
		Year:   enrollmentDate.Year(),
		Amount: schedule.YearlyFee,
		Reason: "yearly course fee",
	}
	return Calculation{
		TotalMonthlyFees: schedule.YearlyFee,
		Breakdown:        []MonthlyBreakdownEntry{entry},
	}
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
