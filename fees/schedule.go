package fees

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SCHEDULE SOURCE - Lookup interface for fee schedules
// =============================================================================

// ScheduleSource resolves a (class, course type) pair to its fee schedule.
// Implemented by store/sqlite and store/memory; the calculator only reads.
type ScheduleSource interface {
	// FeeSchedule returns the schedule for the key, or an error wrapping
	// ErrScheduleNotFound when none exists. It must never return a zero-fee
	// schedule in place of a missing one.
	FeeSchedule(ctx context.Context, classID ClassID, courseType CourseType) (ClassFeeSchedule, error)
}

// =============================================================================
// SCHEDULE VALIDATION
// =============================================================================

// Validate checks a schedule for internal consistency before it is saved.
// Admin input only; the calculator trusts schedules coming out of the store.
func (s ClassFeeSchedule) Validate() error {
	if s.ClassID == "" {
		return fmt.Errorf("class id is required")
	}
	if !s.CourseType.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidCourseType, s.CourseType)
	}
	if s.AdmissionFee.IsNegative() {
		return fmt.Errorf("admission fee cannot be negative")
	}
	switch s.CourseType {
	case CourseMonthly:
		if !s.MonthlyFee.IsPositive() {
			return fmt.Errorf("monthly course requires a positive monthly fee")
		}
	case CourseYearly:
		if !s.YearlyFee.IsPositive() {
			return fmt.Errorf("yearly course requires a positive yearly fee")
		}
	}
	return nil
}

// PeriodFee returns the recurring fee the schedule charges per accrual period:
// the monthly fee for monthly courses, zero for yearly courses (yearly courses
// are billed once at enrollment and never accrue).
func (s ClassFeeSchedule) PeriodFee() decimal.Decimal {
	if s.CourseType == CourseMonthly {
		return s.MonthlyFee
	}
	return decimal.Zero
}
