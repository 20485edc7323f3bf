package services

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/sahilchouksey/college-admin-api/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ExpenseService records institutional expenses and handles their
// root-gated soft deletion.
type ExpenseService struct {
	db    *gorm.DB
	audit *AuditService
}

// NewExpenseService creates a new expense service
func NewExpenseService(db *gorm.DB) *ExpenseService {
	return &ExpenseService{
		db:    db,
		audit: NewAuditService(db),
	}
}

// CreateExpenseRequest carries the fields for a new expense entry
type CreateExpenseRequest struct {
	Title     string
	Amount    int64
	Category  string
	PaidOn    time.Time
	PaidTo    string
	Remarks   string
	Actor     *model.User
	IPAddress string
}

// CreateExpense records a new expense and its audit entry in one
// transaction.
func (s *ExpenseService) CreateExpense(ctx context.Context, req CreateExpenseRequest) (*model.Expense, error) {
	if req.Amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be greater than zero", ErrValidationFailed)
	}

	expense := model.Expense{
		Title:        req.Title,
		Amount:       req.Amount,
		Category:     req.Category,
		PaidOn:       req.PaidOn,
		PaidTo:       req.PaidTo,
		Remarks:      req.Remarks,
		RecordedByID: req.Actor.ID,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&expense).Error; err != nil {
			return fmt.Errorf("failed to create expense: %w", err)
		}

		return s.audit.Record(tx, AuditEntry{
			Action:      model.AuditActionCreate,
			EntityType:  "expense",
			EntityID:    strconv.FormatUint(uint64(expense.ID), 10),
			PerformedBy: req.Actor.ID,
			Changes: []model.FieldChange{
				{Field: "title", Old: nil, New: expense.Title},
				{Field: "amount", Old: nil, New: expense.Amount},
				{Field: "category", Old: nil, New: expense.Category},
			},
			IPAddress: req.IPAddress,
		})
	})
	if err != nil {
		return nil, err
	}

	return &expense, nil
}

// DeleteExpense soft-deletes an expense. Deletion is destructive, so it
// requires root privilege and is refused on locked records. The row stays
// in storage with who/when/why metadata.
func (s *ExpenseService) DeleteExpense(ctx context.Context, expenseID uint, reason string, actor *model.User, ipAddress string) error {
	if !actor.HasRootPrivilege() {
		return ErrRootRequired
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var expense model.Expense
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&expense, expenseID).Error
		if err == gorm.ErrRecordNotFound {
			return fmt.Errorf("%w: expense %d", ErrNotFound, expenseID)
		} else if err != nil {
			return err
		}

		if expense.IsLocked {
			return ErrRecordLocked
		}

		if err := tx.Model(&expense).
			Updates(map[string]interface{}{
				"deleted_by_id": actor.ID,
				"delete_reason": reason,
			}).Error; err != nil {
			return fmt.Errorf("failed to store deletion metadata: %w", err)
		}
		if err := tx.Delete(&expense).Error; err != nil {
			return fmt.Errorf("failed to delete expense: %w", err)
		}

		return s.audit.Record(tx, AuditEntry{
			Action:      model.AuditActionSoftDelete,
			EntityType:  "expense",
			EntityID:    strconv.FormatUint(uint64(expense.ID), 10),
			PerformedBy: actor.ID,
			Changes: []model.FieldChange{
				{Field: "expense", Old: expense, New: nil},
			},
			Reason:    reason,
			IPAddress: ipAddress,
		})
	})
}
