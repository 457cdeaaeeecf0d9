package billing_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/navanidhicare-eng/NavanidhiAcademy-sub000/billing"
	"github.com/navanidhicare-eng/NavanidhiAcademy-sub000/fees"
)

// =============================================================================
// BALANCE INVARIANT TESTS
// =============================================================================
// Invariants under test:
//   PendingAmount = max(0, TotalFeeAmount - PaidAmount)
//   PaymentStatus = paid  iff  PendingAmount <= 0

func TestBalance_ApplyCalculation_SeedsTotals(t *testing.T) {
	// GIVEN: A fresh student and a calculation totaling 2500
	// WHEN: Applying the calculation
	// THEN: Total 2500, paid 0, pending 2500, status pending

	var s billing.StudentBalance
	s.ApplyCalculation(fees.Calculation{TotalDueAmount: amt("2500")})

	assert.True(t, s.TotalFeeAmount.Equal(amt("2500")))
	assert.True(t, s.PaidAmount.IsZero())
	assert.True(t, s.PendingAmount.Equal(amt("2500")))
	assert.Equal(t, billing.StatusPending, s.PaymentStatus)
	assert.NoError(t, s.CheckInvariants())
}

func TestBalance_AddCharge_GrowsPending(t *testing.T) {
	var s billing.StudentBalance
	s.ApplyCalculation(fees.Calculation{TotalDueAmount: amt("1000")})

	s.AddCharge(amt("500"))

	assert.True(t, s.TotalFeeAmount.Equal(amt("1500")))
	assert.True(t, s.PendingAmount.Equal(amt("1500")))
	assert.NoError(t, s.CheckInvariants())
}

func TestBalance_ApplyPayment_ReducesPending(t *testing.T) {
	var s billing.StudentBalance
	s.ApplyCalculation(fees.Calculation{TotalDueAmount: amt("1000")})

	require.NoError(t, s.ApplyPayment(amt("400")))

	assert.True(t, s.PaidAmount.Equal(amt("400")))
	assert.True(t, s.PendingAmount.Equal(amt("600")))
	assert.Equal(t, billing.StatusPending, s.PaymentStatus)
	assert.NoError(t, s.CheckInvariants())
}

func TestBalance_ExactPayment_MarksPaid(t *testing.T) {
	var s billing.StudentBalance
	s.ApplyCalculation(fees.Calculation{TotalDueAmount: amt("1000")})

	require.NoError(t, s.ApplyPayment(amt("1000")))

	assert.True(t, s.PendingAmount.IsZero())
	assert.Equal(t, billing.StatusPaid, s.PaymentStatus)
	assert.NoError(t, s.CheckInvariants())
}

func TestBalance_Overpayment_ClampsPendingAtZero(t *testing.T) {
	// GIVEN: Total 1000
	// WHEN: Paying 1500
	// THEN: Pending clamps at zero (never negative); the surplus remains
	//       visible as PaidAmount > TotalFeeAmount

	var s billing.StudentBalance
	s.ApplyCalculation(fees.Calculation{TotalDueAmount: amt("1000")})

	require.NoError(t, s.ApplyPayment(amt("1500")))

	assert.True(t, s.PendingAmount.IsZero(), "pending must clamp at zero, got %v", s.PendingAmount)
	assert.True(t, s.PaidAmount.Equal(amt("1500")))
	assert.Equal(t, billing.StatusPaid, s.PaymentStatus)
	assert.NoError(t, s.CheckInvariants())
}

func TestBalance_ChargeAfterOverpayment_ConsumesSurplusFirst(t *testing.T) {
	// Overpaid by 500, then charged 300: still fully covered.
	var s billing.StudentBalance
	s.ApplyCalculation(fees.Calculation{TotalDueAmount: amt("1000")})
	require.NoError(t, s.ApplyPayment(amt("1500")))

	s.AddCharge(amt("300"))
	assert.True(t, s.PendingAmount.IsZero())
	assert.Equal(t, billing.StatusPaid, s.PaymentStatus)

	// The next charge eats past the surplus.
	s.AddCharge(amt("300"))
	assert.True(t, s.PendingAmount.Equal(amt("100")))
	assert.Equal(t, billing.StatusPending, s.PaymentStatus)
	assert.NoError(t, s.CheckInvariants())
}

func TestBalance_NonPositivePayment_Rejected(t *testing.T) {
	var s billing.StudentBalance
	s.ApplyCalculation(fees.Calculation{TotalDueAmount: amt("1000")})

	err := s.ApplyPayment(decimal.Zero)
	assert.ErrorIs(t, err, billing.ErrInvalidPaymentAmount)

	err = s.ApplyPayment(amt("-50"))
	assert.ErrorIs(t, err, billing.ErrInvalidPaymentAmount)

	// Rejected payments must not move the balance.
	assert.True(t, s.PaidAmount.IsZero())
	assert.True(t, s.PendingAmount.Equal(amt("1000")))
}

func TestBalance_CheckInvariants_DetectsCorruption(t *testing.T) {
	s := billing.StudentBalance{
		TotalFeeAmount: amt("1000"),
		PaidAmount:     amt("200"),
		PendingAmount:  amt("999"), // should be 800
		PaymentStatus:  billing.StatusPending,
	}
	assert.Error(t, s.CheckInvariants())

	s.PendingAmount = amt("800")
	s.PaymentStatus = billing.StatusPaid // inconsistent with pending > 0
	assert.Error(t, s.CheckInvariants())
}
