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

// SalaryService manages monthly salary records. Marking a salary paid is a
// status-forward action available to any admin; deleting one is
// destructive and requires root privilege.
type SalaryService struct {
	db    *gorm.DB
	audit *AuditService
}

// NewSalaryService creates a new salary service
func NewSalaryService(db *gorm.DB) *SalaryService {
	return &SalaryService{
		db:    db,
		audit: NewAuditService(db),
	}
}

// CreateSalaryRequest carries the fields for a new salary record
type CreateSalaryRequest struct {
	EmployeeID uint
	Month      string // YYYY-MM
	BaseAmount int64
	Deductions int64
	Actor      *model.User
	IPAddress  string
}

// CreateSalary creates one month's salary for an employee. NetAmount is
// snapshotted here as base - deductions and never recomputed afterwards.
func (s *SalaryService) CreateSalary(ctx context.Context, req CreateSalaryRequest) (*model.Salary, error) {
	if req.BaseAmount <= 0 {
		return nil, fmt.Errorf("%w: base_amount must be greater than zero", ErrValidationFailed)
	}
	if req.Deductions < 0 || req.Deductions > req.BaseAmount {
		return nil, fmt.Errorf("%w: deductions must be between 0 and base_amount", ErrValidationFailed)
	}
	if _, err := time.Parse("2006-01", req.Month); err != nil {
		return nil, fmt.Errorf("%w: month must be in YYYY-MM format", ErrValidationFailed)
	}

	salary := model.Salary{
		EmployeeID:   req.EmployeeID,
		Month:        req.Month,
		BaseAmount:   req.BaseAmount,
		Deductions:   req.Deductions,
		NetAmount:    req.BaseAmount - req.Deductions,
		Status:       model.SalaryStatusPending,
		RecordedByID: req.Actor.ID,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var employee model.User
		if err := tx.First(&employee, req.EmployeeID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return fmt.Errorf("%w: employee %d", ErrNotFound, req.EmployeeID)
			}
			return err
		}

		var existing model.Salary
		err := tx.Where("employee_id = ? AND month = ?", req.EmployeeID, req.Month).
			First(&existing).Error
		if err == nil {
			return fmt.Errorf("%w: salary for employee %d in %s", ErrDuplicateRecord, req.EmployeeID, req.Month)
		} else if err != gorm.ErrRecordNotFound {
			return err
		}

		if err := tx.Create(&salary).Error; err != nil {
			return fmt.Errorf("failed to create salary: %w", err)
		}

		return s.audit.Record(tx, AuditEntry{
			Action:      model.AuditActionCreate,
			EntityType:  "salary",
			EntityID:    strconv.FormatUint(uint64(salary.ID), 10),
			PerformedBy: req.Actor.ID,
			Changes: []model.FieldChange{
				{Field: "employee_id", Old: nil, New: salary.EmployeeID},
				{Field: "month", Old: nil, New: salary.Month},
				{Field: "net_amount", Old: nil, New: salary.NetAmount},
			},
			IPAddress: req.IPAddress,
		})
	})
	if err != nil {
		return nil, err
	}

	return &salary, nil
}

// MarkPaid transitions a pending salary to paid and stamps the payout
// time. Already-paid salaries are left untouched.
func (s *SalaryService) MarkPaid(ctx context.Context, salaryID uint, actor *model.User, ipAddress string) (*model.Salary, error) {
	var salary model.Salary
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&salary, salaryID).Error
		if err == gorm.ErrRecordNotFound {
			return fmt.Errorf("%w: salary %d", ErrNotFound, salaryID)
		} else if err != nil {
			return err
		}

		if salary.Status == model.SalaryStatusPaid {
			return fmt.Errorf("%w: salary %d is already paid", ErrDuplicateRecord, salaryID)
		}

		now := time.Now()
		salary.Status = model.SalaryStatusPaid
		salary.PaidOn = &now
		if err := tx.Model(&salary).
			Updates(map[string]interface{}{
				"status":  salary.Status,
				"paid_on": salary.PaidOn,
			}).Error; err != nil {
			return fmt.Errorf("failed to mark salary paid: %w", err)
		}

		return s.audit.Record(tx, AuditEntry{
			Action:      model.AuditActionUpdate,
			EntityType:  "salary",
			EntityID:    strconv.FormatUint(uint64(salary.ID), 10),
			PerformedBy: actor.ID,
			Changes: []model.FieldChange{
				{Field: "status", Old: model.SalaryStatusPending, New: model.SalaryStatusPaid},
			},
			IPAddress: ipAddress,
		})
	})
	if err != nil {
		return nil, err
	}

	return &salary, nil
}

// DeleteSalary soft-deletes a salary record. Requires root privilege.
func (s *SalaryService) DeleteSalary(ctx context.Context, salaryID uint, reason string, actor *model.User, ipAddress string) error {
	if !actor.HasRootPrivilege() {
		return ErrRootRequired
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var salary model.Salary
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&salary, salaryID).Error
		if err == gorm.ErrRecordNotFound {
			return fmt.Errorf("%w: salary %d", ErrNotFound, salaryID)
		} else if err != nil {
			return err
		}

		if err := tx.Model(&salary).
			Updates(map[string]interface{}{
				"deleted_by_id": actor.ID,
				"delete_reason": reason,
			}).Error; err != nil {
			return fmt.Errorf("failed to store deletion metadata: %w", err)
		}
		if err := tx.Delete(&salary).Error; err != nil {
			return fmt.Errorf("failed to delete salary: %w", err)
		}

		return s.audit.Record(tx, AuditEntry{
			Action:      model.AuditActionSoftDelete,
			EntityType:  "salary",
			EntityID:    strconv.FormatUint(uint64(salary.ID), 10),
			PerformedBy: actor.ID,
			Changes: []model.FieldChange{
				{Field: "salary", Old: salary, New: nil},
			},
			Reason:    reason,
			IPAddress: ipAddress,
		})
	})
}
