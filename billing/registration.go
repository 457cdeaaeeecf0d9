/*
registration.go - Enrollment-time fee seeding

PURPOSE:
  Bridges the pure fee calculator to persistence. Registration computes the
  retroactive fees and creates the student row in ONE store transaction, so
  a failure between computing and persisting never leaves a student behind
  with zero fee data.

ERROR SPLIT (callers depend on this):
  - Calculation failures (schedule not found, future date) surface as-is;
    fees.IsFatalToRegistration matches them. No student row is created.
  - Persistence failures roll the whole transaction back.

SEE ALSO:
  - fees/calculator.go: The calculation itself
  - balance.go: ApplyCalculation commit point
*/
package billing

import (
	"context"
	"time"

	"github.com/navanidhicare-eng/NavanidhiAcademy-sub000/fees"
)

// Registrar enrolls students and repairs partially-registered ones.
type Registrar struct {
	Store      TxStore
	Calculator *fees.Calculator
}

func NewRegistrar(store TxStore) *Registrar {
	return &Registrar{
		Store:      store,
		Calculator: fees.NewCalculator(store),
	}
}

// Enrollment is the registration input from the caller.
type Enrollment struct {
	StudentID        fees.StudentID
	CenterID         fees.CenterID
	Name             string
	ClassID          fees.ClassID
	CourseType       fees.CourseType
	EnrollmentDate   time.Time
	AdmissionFeePaid bool
}

// Register computes retroactive fees and persists the seeded student row
// atomically. Returns the calculation so the caller can show the breakdown.
func (r *Registrar) Register(ctx context.Context, enr Enrollment) (StudentBalance, fees.Calculation, error) {
	calc, err := r.Calculator.CalculateRetroactiveFees(
		ctx, enr.EnrollmentDate, enr.ClassID, enr.CourseType, enr.AdmissionFeePaid)
	if err != nil {
		return StudentBalance{}, fees.Calculation{}, err
	}

	now := time.Now().UTC()
	student := StudentBalance{
		StudentID:        enr.StudentID,
		CenterID:         enr.CenterID,
		Name:             enr.Name,
		ClassID:          enr.ClassID,
		CourseType:       enr.CourseType,
		EnrollmentDate:   enr.EnrollmentDate,
		AdmissionFeePaid: enr.AdmissionFeePaid,
		IsActive:         true,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	student.ApplyCalculation(calc)

	err = r.Store.WithTx(ctx, func(tx Store) error {
		return tx.SaveStudent(ctx, student)
	})
	if err != nil {
		return StudentBalance{}, fees.Calculation{}, err
	}
	return student, calc, nil
}

// Recalculate re-runs the fee calculation for an existing student and
// overwrites the seeded totals. Operator repair path for students whose
// registration committed but whose fee data is missing or wrong; it resets
// PaidAmount, so recorded payments must be re-applied afterwards.
func (r *Registrar) Recalculate(ctx context.Context, id fees.StudentID) (StudentBalance, fees.Calculation, error) {
	student, err := r.Store.GetStudent(ctx, id)
	if err != nil {
		return StudentBalance{}, fees.Calculation{}, err
	}

	calc, err := r.Calculator.CalculateRetroactiveFees(
		ctx, student.EnrollmentDate, student.ClassID, student.CourseType, student.AdmissionFeePaid)
	if err != nil {
		return StudentBalance{}, fees.Calculation{}, err
	}

	student.ApplyCalculation(calc)
	student.UpdatedAt = time.Now().UTC()

	err = r.Store.WithTx(ctx, func(tx Store) error {
		return tx.SaveStudent(ctx, student)
	})
	if err != nil {
		return StudentBalance{}, fees.Calculation{}, err
	}
	return student, calc, nil
}
