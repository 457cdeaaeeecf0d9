/*
Package fees provides the core fee computation engine.

PURPOSE:
  This package contains the pure logic that decides how much a student owes:
  the day-of-month admission tiering, the month-by-month retroactive breakdown,
  and the flat yearly-course branch. It performs no persistence of its own -
  it reads a fee schedule through a narrow lookup interface and returns a
  computed result for the caller to commit.

KEY CONCEPTS IN THIS FILE (types.go):
  - ClassID / CourseType: Type-safe schedule keys
  - ClassFeeSchedule: The per-class price card (admission/monthly/yearly)
  - MonthlyBreakdownEntry: One computed month of fees with a reason string
  - Calculation: The full output of a retroactive fee calculation

DESIGN PRINCIPLES:
  1. Precision: Uses decimal.Decimal for all money. No float arithmetic.
  2. Determinism: "Now" is injected via a clock function, never read inline.
  3. Explicit failure: A missing fee schedule is an error, never a zero fee.

SEE ALSO:
  - calculator.go: The retroactive calculation algorithm
  - schedule.go: Schedule lookup interface and validation
  - errors.go: Sentinel and structured errors
*/
package fees

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type ClassID string
type StudentID string
type CenterID string

// CourseType selects which fee column of the schedule applies.
type CourseType string

const (
	CourseMonthly CourseType = "monthly"
	CourseYearly  CourseType = "yearly"
)

// Valid reports whether the course type is one of the known values.
func (ct CourseType) Valid() bool {
	return ct == CourseMonthly || ct == CourseYearly
}

// =============================================================================
// CLASS FEE SCHEDULE - Price card per (class, course type)
// =============================================================================

// ClassFeeSchedule holds the fees charged for one class and course type.
// Immutable at calculation time; admins edit it out of band.
type ClassFeeSchedule struct {
	ClassID    ClassID
	CourseType CourseType

	AdmissionFee decimal.Decimal
	MonthlyFee   decimal.Decimal // set when CourseType == CourseMonthly
	YearlyFee    decimal.Decimal // set when CourseType == CourseYearly
}

// =============================================================================
// CALCULATION OUTPUT
// =============================================================================

// MonthlyBreakdownEntry is one computed month of fees. Entries are not
// persisted; they seed the student's totals and are shown to operators.
type MonthlyBreakdownEntry struct {
	Month  time.Month
	Year   int
	Amount decimal.Decimal
	Reason string
}

// Calculation is the result of a retroactive fee calculation.
//
// Invariant: TotalDueAmount = TotalMonthlyFees + AdmissionFee when the
// admission fee is unpaid, and TotalMonthlyFees otherwise. TotalMonthlyFees
// is always the sum of the breakdown amounts.
type Calculation struct {
	TotalDueAmount   decimal.Decimal
	AdmissionFee     decimal.Decimal // zero when already paid
	TotalMonthlyFees decimal.Decimal
	Breakdown        []MonthlyBreakdownEntry
}

// =============================================================================
// CLOCK - Injected time source
// =============================================================================

// Clock supplies "now" to the calculator so computations are deterministic
// in tests and reproducible in replays.
type Clock func() time.Time
