package services

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/sahilchouksey/college-admin-api/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FeeService owns the fee payment ledger: fee structure creation, payment
// recording and root-gated cancellation. Every mutation runs inside one
// database transaction together with its audit entry.
type FeeService struct {
	db    *gorm.DB
	audit *AuditService
}

// NewFeeService creates a new fee service
func NewFeeService(db *gorm.DB) *FeeService {
	return &FeeService{
		db:    db,
		audit: NewAuditService(db),
	}
}

// CreateFeeStructureRequest carries the fields for a new fee structure
type CreateFeeStructureRequest struct {
	ProgramID   uint
	SessionID   uint
	Semester    int
	TotalAmount int64
	DueDate     time.Time
	Description string
	Actor       *model.User
	IPAddress   string
}

// CreateFeeStructure creates the amount owed for a program/session/semester
// combination. Structures are effectively immutable once payments reference
// them; there is deliberately no update path.
func (s *FeeService) CreateFeeStructure(ctx context.Context, req CreateFeeStructureRequest) (*model.FeeStructure, error) {
	if req.TotalAmount <= 0 {
		return nil, fmt.Errorf("%w: total_amount must be greater than zero", ErrValidationFailed)
	}
	if req.Semester < 1 {
		return nil, fmt.Errorf("%w: semester must be at least 1", ErrValidationFailed)
	}

	var structure model.FeeStructure
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var program model.Program
		if err := tx.First(&program, req.ProgramID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return fmt.Errorf("%w: program %d", ErrNotFound, req.ProgramID)
			}
			return err
		}

		var session model.AcademicSession
		if err := tx.First(&session, req.SessionID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return fmt.Errorf("%w: session %d", ErrNotFound, req.SessionID)
			}
			return err
		}

		structure = model.FeeStructure{
			ProgramID:   req.ProgramID,
			SessionID:   req.SessionID,
			Semester:    req.Semester,
			TotalAmount: req.TotalAmount,
			DueDate:     req.DueDate,
			Description: req.Description,
			IsActive:    true,
		}
		if err := tx.Create(&structure).Error; err != nil {
			return fmt.Errorf("failed to create fee structure: %w", err)
		}

		return s.audit.Record(tx, AuditEntry{
			Action:      model.AuditActionCreate,
			EntityType:  "fee_structure",
			EntityID:    strconv.FormatUint(uint64(structure.ID), 10),
			PerformedBy: req.Actor.ID,
			Changes: []model.FieldChange{
				{Field: "total_amount", Old: nil, New: structure.TotalAmount},
				{Field: "semester", Old: nil, New: structure.Semester},
			},
			IPAddress: req.IPAddress,
		})
	})
	if err != nil {
		return nil, err
	}

	return &structure, nil
}

// RecordPaymentRequest carries one payment to be recorded against a
// student's ledger
type RecordPaymentRequest struct {
	StudentID      uint
	FeeStructureID uint
	Amount         int64
	Mode           model.PaymentMode
	ReceiptNo      string
	PaidOn         time.Time
	Remarks        string
	Actor          *model.User
	IPAddress      string
}

// RecordPayment appends a payment transaction to the student's ledger for
// the given fee structure, creating the ledger lazily on first payment.
// The ledger row is read under SELECT ... FOR UPDATE so two simultaneous
// payments against the same obligation cannot both pass the overpayment
// check.
func (s *FeeService) RecordPayment(ctx context.Context, req RecordPaymentRequest) (*model.FeePayment, error) {
	if req.Amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be greater than zero", ErrValidationFailed)
	}
	if !model.ValidPaymentMode(req.Mode) {
		return nil, fmt.Errorf("%w: unknown payment mode %q", ErrValidationFailed, req.Mode)
	}

	var payment model.FeePayment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var structure model.FeeStructure
		if err := tx.First(&structure, req.FeeStructureID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return fmt.Errorf("%w: fee structure %d", ErrNotFound, req.FeeStructureID)
			}
			return err
		}

		// Lock the ledger row for the duration of the transaction. The
		// unique (student_id, fee_structure_id) index backstops the
		// lazy-create path if two first payments race.
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("student_id = ? AND fee_structure_id = ?", req.StudentID, req.FeeStructureID).
			First(&payment).Error
		if err == gorm.ErrRecordNotFound {
			payment = model.FeePayment{
				StudentID:      req.StudentID,
				FeeStructureID: req.FeeStructureID,
				AmountPaid:     0,
				Status:         model.PaymentStatusUnpaid,
			}
			if err := tx.Create(&payment).Error; err != nil {
				return fmt.Errorf("failed to create fee payment ledger: %w", err)
			}
		} else if err != nil {
			return err
		}

		transaction := model.PaymentTransaction{
			ID:           uuid.New().String(),
			FeePaymentID: payment.ID,
			Amount:       req.Amount,
			PaidOn:       req.PaidOn,
			Mode:         req.Mode,
			ReceiptNo:    req.ReceiptNo,
			Remarks:      req.Remarks,
			RecordedByID: req.Actor.ID,
		}
		if err := payment.ApplyTransaction(&structure, transaction); err != nil {
			return err
		}

		if err := tx.Create(&transaction).Error; err != nil {
			return fmt.Errorf("failed to record payment transaction: %w", err)
		}
		if err := tx.Model(&payment).
			Updates(map[string]interface{}{
				"amount_paid": payment.AmountPaid,
				"status":      payment.Status,
			}).Error; err != nil {
			return fmt.Errorf("failed to update fee payment ledger: %w", err)
		}

		return s.audit.Record(tx, AuditEntry{
			Action:      model.AuditActionUpdate,
			EntityType:  "fee_payment",
			EntityID:    strconv.FormatUint(uint64(payment.ID), 10),
			PerformedBy: req.Actor.ID,
			Changes: []model.FieldChange{
				{Field: "transactions", Old: nil, New: transaction},
				{Field: "amount_paid", Old: payment.AmountPaid - req.Amount, New: payment.AmountPaid},
				{Field: "status", Old: nil, New: payment.Status},
			},
			IPAddress: req.IPAddress,
		})
	})
	if err != nil {
		return nil, err
	}

	return &payment, nil
}

// CancelPayment reverses one recorded transaction. Only root-privileged
// callers may cancel, and never on a locked ledger; all checks run before
// the first write.
func (s *FeeService) CancelPayment(ctx context.Context, feePaymentID uint, transactionID, reason string, actor *model.User, ipAddress string) (*model.FeePayment, error) {
	if !actor.HasRootPrivilege() {
		return nil, ErrRootRequired
	}

	var payment model.FeePayment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&payment, feePaymentID).Error
		if err == gorm.ErrRecordNotFound {
			return fmt.Errorf("%w: fee payment %d", ErrNotFound, feePaymentID)
		} else if err != nil {
			return err
		}

		if payment.IsLocked {
			return ErrRecordLocked
		}

		var structure model.FeeStructure
		if err := tx.First(&structure, payment.FeeStructureID).Error; err != nil {
			return fmt.Errorf("failed to fetch fee structure: %w", err)
		}
		if err := tx.Where("fee_payment_id = ?", payment.ID).
			Find(&payment.Transactions).Error; err != nil {
			return fmt.Errorf("failed to fetch payment transactions: %w", err)
		}

		removed, err := payment.RemoveTransaction(&structure, transactionID)
		if err != nil {
			return fmt.Errorf("%w: transaction %s", ErrNotFound, transactionID)
		}

		if err := tx.Delete(&model.PaymentTransaction{}, "id = ?", removed.ID).Error; err != nil {
			return fmt.Errorf("failed to remove payment transaction: %w", err)
		}
		if err := tx.Model(&payment).
			Updates(map[string]interface{}{
				"amount_paid": payment.AmountPaid,
				"status":      payment.Status,
			}).Error; err != nil {
			return fmt.Errorf("failed to update fee payment ledger: %w", err)
		}

		return s.audit.Record(tx, AuditEntry{
			Action:      model.AuditActionSoftDelete,
			EntityType:  "payment_transaction",
			EntityID:    removed.ID,
			PerformedBy: actor.ID,
			Changes: []model.FieldChange{
				{Field: "transaction", Old: removed, New: nil},
				{Field: "amount_paid", Old: payment.AmountPaid + removed.Amount, New: payment.AmountPaid},
				{Field: "status", Old: nil, New: payment.Status},
			},
			Reason:    reason,
			IPAddress: ipAddress,
		})
	})
	if err != nil {
		return nil, err
	}

	return &payment, nil
}

// GetLedger loads one fee payment with its transactions and structure.
func (s *FeeService) GetLedger(ctx context.Context, feePaymentID uint) (*model.FeePayment, error) {
	var payment model.FeePayment
	err := s.db.WithContext(ctx).
		Preload("Transactions").
		Preload("FeeStructure").
		First(&payment, feePaymentID).Error
	if err == gorm.ErrRecordNotFound {
		return nil, fmt.Errorf("%w: fee payment %d", ErrNotFound, feePaymentID)
	} else if err != nil {
		return nil, err
	}
	return &payment, nil
}
