/*
payments.go - Payment recording and wallet credit

PURPOSE:
  The collection side of the ledger: a recorded payment reduces the
  student's pending amount, grows paid, and credits the student's center
  wallet by the same amount - all in one store transaction.

SEE ALSO:
  - balance.go: ApplyPayment invariant enforcement
  - store.go: WalletStore / PaymentStore
*/
package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/navanidhicare-eng/NavanidhiAcademy-sub000/fees"
)

// PaymentRecorder applies collections to balances and wallets.
type PaymentRecorder struct {
	Store TxStore
}

func NewPaymentRecorder(store TxStore) *PaymentRecorder {
	return &PaymentRecorder{Store: store}
}

// RecordPayment applies a collection to the student's balance, writes the
// payment record, and credits the center wallet atomically.
func (pr *PaymentRecorder) RecordPayment(ctx context.Context, id fees.StudentID, amount decimal.Decimal, note string) (StudentBalance, Payment, error) {
	student, err := pr.Store.GetStudent(ctx, id)
	if err != nil {
		return StudentBalance{}, Payment{}, err
	}

	if err := student.ApplyPayment(amount); err != nil {
		return StudentBalance{}, Payment{}, err
	}
	student.UpdatedAt = time.Now().UTC()

	payment := Payment{
		ID:        uuid.NewString(),
		StudentID: student.StudentID,
		CenterID:  student.CenterID,
		Amount:    amount,
		Note:      note,
		CreatedAt: time.Now().UTC(),
	}

	err = pr.Store.WithTx(ctx, func(tx Store) error {
		if err := tx.SaveStudent(ctx, student); err != nil {
			return err
		}
		if err := tx.AppendPayment(ctx, payment); err != nil {
			return err
		}
		return tx.CreditWallet(ctx, student.CenterID, amount)
	})
	if err != nil {
		return StudentBalance{}, Payment{}, err
	}
	return student, payment, nil
}
