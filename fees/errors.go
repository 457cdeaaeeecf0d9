/*
errors.go - Error types for the fee engine

PURPOSE:
  All fee-engine errors in one place. A missing fee schedule is the one
  error callers MUST surface: silently defaulting to zero fees would corrupt
  the student ledger, so the sentinel carries enough context to be actionable.

USAGE:
  Callers match with errors.Is / errors.As:

    if errors.Is(err, fees.ErrScheduleNotFound) {
        // registration must abort; do not create the student with zero fees
    }

SEE ALSO:
  - schedule.go: Lookup interface returning these errors
  - calculator.go: Propagates lookup failures unchanged
*/
package fees

import (
	"errors"
	"fmt"
	"time"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrScheduleNotFound is returned when no fee schedule exists for a
	// (class, course type) pair. Fatal to registration flows.
	ErrScheduleNotFound = errors.New("fee schedule not found")

	// ErrInvalidCourseType is returned for course types outside {monthly, yearly}.
	ErrInvalidCourseType = errors.New("invalid course type")

	// ErrFutureEnrollment is returned when an enrollment date is after "now".
	// Callers should reject future dates before invoking the calculator; the
	// calculator checks anyway so the invariant cannot be bypassed.
	ErrFutureEnrollment = errors.New("enrollment date is in the future")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ScheduleNotFoundError identifies exactly which schedule key was missing.
type ScheduleNotFoundError struct {
	ClassID    ClassID
	CourseType CourseType
}

func (e *ScheduleNotFoundError) Error() string {
	return fmt.Sprintf("fee schedule not found for class %q course type %q", e.ClassID, e.CourseType)
}

func (e *ScheduleNotFoundError) Unwrap() error { return ErrScheduleNotFound }

// FutureEnrollmentError reports the offending date alongside "now".
type FutureEnrollmentError struct {
	EnrollmentDate time.Time
	Now            time.Time
}

func (e *FutureEnrollmentError) Error() string {
	return fmt.Sprintf("enrollment date %s is after current date %s",
		e.EnrollmentDate.Format("2006-01-02"), e.Now.Format("2006-01-02"))
}

func (e *FutureEnrollmentError) Unwrap() error { return ErrFutureEnrollment }

// IsFatalToRegistration reports whether the error must abort the caller's
// registration flow rather than be logged and skipped.
func IsFatalToRegistration(err error) bool {
	return errors.Is(err, ErrScheduleNotFound) ||
		errors.Is(err, ErrInvalidCourseType) ||
		errors.Is(err, ErrFutureEnrollment)
}
