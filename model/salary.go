package model

import (
	"time"

	"gorm.io/gorm"
)

// SalaryStatus represents the payout state of a salary record
type SalaryStatus string

const (
	SalaryStatusPending SalaryStatus = "pending"
	SalaryStatusPaid    SalaryStatus = "paid"
)

// Salary represents one month's salary for an employee. NetAmount is
// computed once at creation (base - deductions) and is intentionally not
// recomputed if deductions are edited later: the stored value is the
// snapshot that was approved for payout.
type Salary struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
	EmployeeID   uint           `gorm:"not null;index:idx_salary_employee_month,unique" json:"employee_id"`
	Month        string         `gorm:"type:varchar(7);not null;index:idx_salary_employee_month,unique" json:"month"` // YYYY-MM
	BaseAmount   int64          `gorm:"not null" json:"base_amount"`
	Deductions   int64          `gorm:"not null;default:0" json:"deductions"`
	NetAmount    int64          `gorm:"not null" json:"net_amount"`
	Status       SalaryStatus   `gorm:"type:varchar(10);not null;default:'pending'" json:"status"`
	PaidOn       *time.Time     `json:"paid_on,omitempty"`
	RecordedByID uint           `gorm:"index" json:"recorded_by_id"`
	DeletedByID  *uint          `json:"deleted_by_id,omitempty"`
	DeleteReason string         `gorm:"type:text" json:"delete_reason,omitempty"`

	// Relationships
	Employee   User `gorm:"foreignKey:EmployeeID" json:"employee,omitempty"`
	RecordedBy User `gorm:"foreignKey:RecordedByID" json:"recorded_by,omitempty"`
}

// TableName specifies the table name for Salary
func (Salary) TableName() string {
	return "salaries"
}
