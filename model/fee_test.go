package model

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func newTestStructure(total int64) *FeeStructure {
	return &FeeStructure{
		ID:          1,
		ProgramID:   1,
		SessionID:   1,
		Semester:    3,
		TotalAmount: total,
		DueDate:     time.Now().AddDate(0, 1, 0),
	}
}

func newTestTransaction(amount int64) PaymentTransaction {
	return PaymentTransaction{
		ID:        uuid.New().String(),
		Amount:    amount,
		PaidOn:    time.Now(),
		Mode:      PaymentModeCash,
		ReceiptNo: uuid.New().String(),
	}
}

func sumTransactions(fp *FeePayment) int64 {
	var total int64
	for _, tx := range fp.Transactions {
		total += tx.Amount
	}
	return total
}

func TestDerivePaymentStatus(t *testing.T) {
	cases := []struct {
		name       string
		amountPaid int64
		total      int64
		want       PaymentStatus
	}{
		{"zero paid", 0, 3500000, PaymentStatusUnpaid},
		{"partial", 2100000, 3500000, PaymentStatusPartial},
		{"exactly paid", 3500000, 3500000, PaymentStatusPaid},
		{"overpaid drift", 3600000, 3500000, PaymentStatusPaid},
		{"negative drift", -100, 3500000, PaymentStatusUnpaid},
		{"one paise short", 3499999, 3500000, PaymentStatusPartial},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := DerivePaymentStatus(tc.amountPaid, tc.total); got != tc.want {
				t.Errorf("DerivePaymentStatus(%d, %d) = %q, want %q", tc.amountPaid, tc.total, got, tc.want)
			}
		})
	}
}

func TestApplyTransactionHappyPath(t *testing.T) {
	fs := newTestStructure(3500000)
	fp := &FeePayment{StudentID: 1, FeeStructureID: fs.ID, Status: PaymentStatusUnpaid}

	// First payment covers 60% of the total.
	if err := fp.ApplyTransaction(fs, newTestTransaction(2100000)); err != nil {
		t.Fatalf("first payment failed: %v", err)
	}
	if fp.Status != PaymentStatusPartial {
		t.Errorf("status after first payment = %q, want %q", fp.Status, PaymentStatusPartial)
	}
	if fp.AmountPaid != 2100000 {
		t.Errorf("amount_paid after first payment = %d, want 2100000", fp.AmountPaid)
	}

	// Second payment settles the balance.
	if err := fp.ApplyTransaction(fs, newTestTransaction(1400000)); err != nil {
		t.Fatalf("second payment failed: %v", err)
	}
	if fp.Status != PaymentStatusPaid {
		t.Errorf("status after second payment = %q, want %q", fp.Status, PaymentStatusPaid)
	}
	if fp.AmountPaid != 3500000 {
		t.Errorf("amount_paid after second payment = %d, want 3500000", fp.AmountPaid)
	}

	// A third payment of even one paise must be rejected.
	err := fp.ApplyTransaction(fs, newTestTransaction(1))
	if err != ErrOverpayment {
		t.Fatalf("third payment error = %v, want ErrOverpayment", err)
	}
	if fp.AmountPaid != 3500000 || len(fp.Transactions) != 2 {
		t.Errorf("rejected payment mutated ledger: amount_paid=%d transactions=%d", fp.AmountPaid, len(fp.Transactions))
	}

	if sumTransactions(fp) != fp.AmountPaid {
		t.Errorf("amount invariant broken: sum=%d amount_paid=%d", sumTransactions(fp), fp.AmountPaid)
	}
}

func TestApplyTransactionRejectsNonPositiveAmounts(t *testing.T) {
	fs := newTestStructure(100000)
	fp := &FeePayment{Status: PaymentStatusUnpaid}

	for _, amount := range []int64{0, -500} {
		if err := fp.ApplyTransaction(fs, newTestTransaction(amount)); err != ErrInvalidAmount {
			t.Errorf("ApplyTransaction(amount=%d) error = %v, want ErrInvalidAmount", amount, err)
		}
	}
	if fp.AmountPaid != 0 || len(fp.Transactions) != 0 {
		t.Errorf("rejected amounts mutated ledger: amount_paid=%d transactions=%d", fp.AmountPaid, len(fp.Transactions))
	}
}

func TestApplyTransactionRejectsOverpaymentOnPartialLedger(t *testing.T) {
	fs := newTestStructure(1000000)
	fp := &FeePayment{Status: PaymentStatusUnpaid}

	if err := fp.ApplyTransaction(fs, newTestTransaction(600000)); err != nil {
		t.Fatalf("initial payment failed: %v", err)
	}
	if err := fp.ApplyTransaction(fs, newTestTransaction(400001)); err != ErrOverpayment {
		t.Fatalf("overpayment error = %v, want ErrOverpayment", err)
	}

	// Exactly the remaining balance is still accepted.
	if err := fp.ApplyTransaction(fs, newTestTransaction(400000)); err != nil {
		t.Fatalf("exact remaining payment failed: %v", err)
	}
	if fp.Status != PaymentStatusPaid {
		t.Errorf("status = %q, want %q", fp.Status, PaymentStatusPaid)
	}
}

func TestRemoveTransactionReversesStatus(t *testing.T) {
	fs := newTestStructure(3500000)
	fp := &FeePayment{Status: PaymentStatusUnpaid}

	first := newTestTransaction(2100000)
	second := newTestTransaction(1400000)
	if err := fp.ApplyTransaction(fs, first); err != nil {
		t.Fatalf("first payment failed: %v", err)
	}
	if err := fp.ApplyTransaction(fs, second); err != nil {
		t.Fatalf("second payment failed: %v", err)
	}
	if fp.Status != PaymentStatusPaid {
		t.Fatalf("status = %q, want %q", fp.Status, PaymentStatusPaid)
	}

	removed, err := fp.RemoveTransaction(fs, first.ID)
	if err != nil {
		t.Fatalf("RemoveTransaction failed: %v", err)
	}
	if removed.ID != first.ID || removed.Amount != 2100000 {
		t.Errorf("removed wrong transaction: id=%s amount=%d", removed.ID, removed.Amount)
	}
	if fp.AmountPaid != 1400000 {
		t.Errorf("amount_paid after cancellation = %d, want 1400000", fp.AmountPaid)
	}
	if fp.Status != PaymentStatusPartial {
		t.Errorf("status after cancellation = %q, want %q", fp.Status, PaymentStatusPartial)
	}
	if sumTransactions(fp) != fp.AmountPaid {
		t.Errorf("amount invariant broken after cancellation: sum=%d amount_paid=%d", sumTransactions(fp), fp.AmountPaid)
	}

	// Cancelling the remaining transaction empties the ledger.
	if _, err := fp.RemoveTransaction(fs, second.ID); err != nil {
		t.Fatalf("RemoveTransaction failed: %v", err)
	}
	if fp.AmountPaid != 0 || fp.Status != PaymentStatusUnpaid {
		t.Errorf("empty ledger state: amount_paid=%d status=%q", fp.AmountPaid, fp.Status)
	}
}

func TestRemoveTransactionUnknownID(t *testing.T) {
	fs := newTestStructure(500000)
	fp := &FeePayment{Status: PaymentStatusUnpaid}
	if err := fp.ApplyTransaction(fs, newTestTransaction(200000)); err != nil {
		t.Fatalf("payment failed: %v", err)
	}

	if _, err := fp.RemoveTransaction(fs, uuid.New().String()); err != ErrTransactionNotFound {
		t.Fatalf("error = %v, want ErrTransactionNotFound", err)
	}
	if fp.AmountPaid != 200000 || len(fp.Transactions) != 1 {
		t.Errorf("failed removal mutated ledger: amount_paid=%d transactions=%d", fp.AmountPaid, len(fp.Transactions))
	}
}

func TestRemoveTransactionClampsNegativeDrift(t *testing.T) {
	fs := newTestStructure(1000000)
	fp := &FeePayment{Status: PaymentStatusUnpaid}

	tx := newTestTransaction(300000)
	if err := fp.ApplyTransaction(fs, tx); err != nil {
		t.Fatalf("payment failed: %v", err)
	}

	// Simulate drift where the stored total is below the transaction sum.
	fp.AmountPaid = 100000

	if _, err := fp.RemoveTransaction(fs, tx.ID); err != nil {
		t.Fatalf("RemoveTransaction failed: %v", err)
	}
	if fp.AmountPaid != 0 {
		t.Errorf("amount_paid = %d, want clamp at 0", fp.AmountPaid)
	}
	if fp.Status != PaymentStatusUnpaid {
		t.Errorf("status = %q, want %q", fp.Status, PaymentStatusUnpaid)
	}
}

func TestValidPaymentMode(t *testing.T) {
	for _, mode := range []PaymentMode{PaymentModeCash, PaymentModeOnline, PaymentModeCheque, PaymentModeDD} {
		if !ValidPaymentMode(mode) {
			t.Errorf("ValidPaymentMode(%q) = false, want true", mode)
		}
	}
	if ValidPaymentMode("upi") {
		t.Error(`ValidPaymentMode("upi") = true, want false`)
	}
}
