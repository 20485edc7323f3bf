package model

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// PaymentStatus represents the derived state of a fee payment ledger
type PaymentStatus string

const (
	PaymentStatusUnpaid  PaymentStatus = "unpaid"
	PaymentStatusPartial PaymentStatus = "partial"
	PaymentStatusPaid    PaymentStatus = "paid"
)

// PaymentMode represents how a payment was made
type PaymentMode string

const (
	PaymentModeCash   PaymentMode = "cash"
	PaymentModeOnline PaymentMode = "online"
	PaymentModeCheque PaymentMode = "cheque"
	PaymentModeDD     PaymentMode = "dd"
)

// ValidPaymentMode reports whether mode is one of the accepted payment modes.
func ValidPaymentMode(mode PaymentMode) bool {
	switch mode {
	case PaymentModeCash, PaymentModeOnline, PaymentModeCheque, PaymentModeDD:
		return true
	}
	return false
}

var (
	ErrOverpayment         = errors.New("payment exceeds remaining balance")
	ErrTransactionNotFound = errors.New("payment transaction not found")
	ErrInvalidAmount       = errors.New("amount must be greater than zero")
)

// FeeStructure defines the amount owed for a program/session/semester
// combination. Amounts are stored in paise (integer minor units).
type FeeStructure struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
	ProgramID   uint           `gorm:"not null;index" json:"program_id"`
	SessionID   uint           `gorm:"not null;index" json:"session_id"`
	Semester    int            `gorm:"not null" json:"semester"`
	TotalAmount int64          `gorm:"not null" json:"total_amount"`
	DueDate     time.Time      `json:"due_date"`
	Description string         `gorm:"type:text" json:"description"`
	IsActive    bool           `gorm:"default:true" json:"is_active"`

	// Relationships
	Program Program         `gorm:"foreignKey:ProgramID" json:"program,omitempty"`
	Session AcademicSession `gorm:"foreignKey:SessionID" json:"session,omitempty"`
}

// TableName specifies the table name for FeeStructure
func (FeeStructure) TableName() string {
	return "fee_structures"
}

// FeePayment aggregates all payment transactions a student has made
// against one FeeStructure. One row exists per (student, fee_structure)
// pair, created lazily on the first recorded payment.
type FeePayment struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
	StudentID      uint           `gorm:"not null;index:idx_fee_payment_pair,unique" json:"student_id"`
	FeeStructureID uint           `gorm:"not null;index:idx_fee_payment_pair,unique" json:"fee_structure_id"`
	AmountPaid     int64          `gorm:"not null;default:0" json:"amount_paid"`
	Status         PaymentStatus  `gorm:"type:varchar(10);not null;default:'unpaid'" json:"status"`
	IsLocked       bool           `gorm:"default:false" json:"is_locked"` // closed accounting period, immune to cancellation
	DeletedByID    *uint          `json:"deleted_by_id,omitempty"`
	DeleteReason   string         `gorm:"type:text" json:"delete_reason,omitempty"`

	// Relationships
	Student      User                 `gorm:"foreignKey:StudentID" json:"student,omitempty"`
	FeeStructure FeeStructure         `gorm:"foreignKey:FeeStructureID" json:"fee_structure,omitempty"`
	Transactions []PaymentTransaction `gorm:"foreignKey:FeePaymentID;constraint:OnDelete:CASCADE" json:"transactions,omitempty"`
}

// TableName specifies the table name for FeePayment
func (FeePayment) TableName() string {
	return "fee_payments"
}

// PaymentTransaction is a single payment entry in a FeePayment ledger.
// Entries are appended on record and removed only by root-privileged
// cancellation, never mutated in place.
type PaymentTransaction struct {
	ID           string         `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
	FeePaymentID uint           `gorm:"not null;index" json:"fee_payment_id"`
	Amount       int64          `gorm:"not null" json:"amount"`
	PaidOn       time.Time      `gorm:"not null" json:"paid_on"`
	Mode         PaymentMode    `gorm:"type:varchar(10);not null" json:"mode"`
	ReceiptNo    string         `gorm:"type:varchar(100);uniqueIndex;not null" json:"receipt_no"`
	Remarks      string         `gorm:"type:text" json:"remarks"`
	RecordedByID uint           `gorm:"index" json:"recorded_by_id"`

	// Relationships
	RecordedBy User `gorm:"foreignKey:RecordedByID" json:"recorded_by,omitempty"`
}

// TableName specifies the table name for PaymentTransaction
func (PaymentTransaction) TableName() string {
	return "payment_transactions"
}

// DerivePaymentStatus computes the ledger status from the two scalars.
// Status is always recomputed from amount_paid and total_amount rather
// than toggled by transitions, so the stored value cannot drift.
func DerivePaymentStatus(amountPaid, totalAmount int64) PaymentStatus {
	switch {
	case amountPaid <= 0:
		return PaymentStatusUnpaid
	case amountPaid >= totalAmount:
		return PaymentStatusPaid
	default:
		return PaymentStatusPartial
	}
}

// RemainingBalance returns how much is still owed against the structure.
func (fp *FeePayment) RemainingBalance(fs *FeeStructure) int64 {
	remaining := fs.TotalAmount - fp.AmountPaid
	if remaining < 0 {
		return 0
	}
	return remaining
}

// ApplyTransaction validates tx against the remaining balance and, if it
// fits, appends it to the ledger, bumps amount_paid and recomputes status.
func (fp *FeePayment) ApplyTransaction(fs *FeeStructure, tx PaymentTransaction) error {
	if tx.Amount <= 0 {
		return ErrInvalidAmount
	}
	if tx.Amount > fp.RemainingBalance(fs) {
		return ErrOverpayment
	}

	fp.Transactions = append(fp.Transactions, tx)
	fp.AmountPaid += tx.Amount
	fp.Status = DerivePaymentStatus(fp.AmountPaid, fs.TotalAmount)
	return nil
}

// RemoveTransaction reverses one ledger entry by id. The amount_paid
// decrement is clamped at zero as a guard against historical drift.
// It returns the removed transaction.
func (fp *FeePayment) RemoveTransaction(fs *FeeStructure, transactionID string) (*PaymentTransaction, error) {
	idx := -1
	for i := range fp.Transactions {
		if fp.Transactions[i].ID == transactionID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, ErrTransactionNotFound
	}

	removed := fp.Transactions[idx]
	fp.Transactions = append(fp.Transactions[:idx], fp.Transactions[idx+1:]...)

	fp.AmountPaid -= removed.Amount
	if fp.AmountPaid < 0 {
		fp.AmountPaid = 0
	}
	fp.Status = DerivePaymentStatus(fp.AmountPaid, fs.TotalAmount)
	return &removed, nil
}
