/*
balance.go - Balance invariants and mutation paths

PURPOSE:
  Every mutation of a student's money fields goes through this file. The
  three mutation paths are:

  1. ApplyCalculation - registration (or manual recalculation) seeds the
     totals from a fee calculator result
  2. AddCharge       - the accrual engine adds one month's fee
  3. ApplyPayment    - a collection reduces pending and grows paid

CRITICAL INVARIANTS (re-established after every mutation):
  PendingAmount = max(0, TotalFeeAmount - PaidAmount)
  PaymentStatus = paid  iff  PendingAmount <= 0

  PendingAmount can never go negative: overpayment clamps it at zero and the
  surplus stays visible as PaidAmount exceeding TotalFeeAmount.

SEE ALSO:
  - types.go: StudentBalance definition
  - accrual.go: Calls AddCharge per student
*/
package billing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/navanidhicare-eng/NavanidhiAcademy-sub000/fees"
)

// =============================================================================
// INVARIANT ENFORCEMENT
// =============================================================================

// reconcile re-establishes the balance invariants. Called at the end of
// every mutation path; nothing else may set PendingAmount or PaymentStatus.
func (s *StudentBalance) reconcile() {
	pending := s.TotalFeeAmount.Sub(s.PaidAmount)
	if pending.IsNegative() {
		pending = decimal.Zero
	}
	s.PendingAmount = pending

	if s.PendingAmount.IsPositive() {
		s.PaymentStatus = StatusPending
	} else {
		s.PaymentStatus = StatusPaid
	}
}

// CheckInvariants verifies the balance invariants hold. Used by tests and
// by the store before persisting; a violation here is a programming error.
func (s StudentBalance) CheckInvariants() error {
	expected := s.TotalFeeAmount.Sub(s.PaidAmount)
	if expected.IsNegative() {
		expected = decimal.Zero
	}
	if !s.PendingAmount.Equal(expected) {
		return fmt.Errorf("pending amount %s != max(0, total %s - paid %s)",
			s.PendingAmount, s.TotalFeeAmount, s.PaidAmount)
	}
	wantStatus := StatusPaid
	if s.PendingAmount.IsPositive() {
		wantStatus = StatusPending
	}
	if s.PaymentStatus != wantStatus {
		return fmt.Errorf("payment status %q inconsistent with pending amount %s",
			s.PaymentStatus, s.PendingAmount)
	}
	return nil
}

// =============================================================================
// MUTATION PATHS
// =============================================================================

// ApplyCalculation seeds the student's fee fields from a calculator result.
// This is the only point where a fee calculation is committed; it resets
// PaidAmount, so it is only valid at registration or during an operator
// repair of a partially-registered student.
func (s *StudentBalance) ApplyCalculation(calc fees.Calculation) {
	s.TotalFeeAmount = calc.TotalDueAmount
	s.PaidAmount = decimal.Zero
	s.reconcile()
}

// AddCharge adds one accrual charge to the student's outstanding total.
func (s *StudentBalance) AddCharge(amount decimal.Decimal) {
	s.TotalFeeAmount = s.TotalFeeAmount.Add(amount)
	s.reconcile()
}

// ApplyPayment records a collection against the balance. Overpayment is
// allowed; pending clamps at zero.
func (s *StudentBalance) ApplyPayment(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: %s", ErrInvalidPaymentAmount, amount)
	}
	s.PaidAmount = s.PaidAmount.Add(amount)
	s.reconcile()
	return nil
}
