package model

import (
	"time"

	"gorm.io/gorm"
)

// Expense represents a single outgoing payment made by the institution
// (maintenance, utilities, purchases). Amounts are stored in paise.
type Expense struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
	Title        string         `gorm:"not null" json:"title"`
	Amount       int64          `gorm:"not null" json:"amount"`
	Category     string         `gorm:"type:varchar(100);not null;index" json:"category"`
	PaidOn       time.Time      `gorm:"not null" json:"paid_on"`
	PaidTo       string         `gorm:"type:varchar(255)" json:"paid_to"`
	Remarks      string         `gorm:"type:text" json:"remarks"`
	IsLocked     bool           `gorm:"default:false" json:"is_locked"`
	RecordedByID uint           `gorm:"index" json:"recorded_by_id"`
	DeletedByID  *uint          `json:"deleted_by_id,omitempty"`
	DeleteReason string         `gorm:"type:text" json:"delete_reason,omitempty"`

	// Relationships
	RecordedBy User `gorm:"foreignKey:RecordedByID" json:"recorded_by,omitempty"`
}

// TableName specifies the table name for Expense
func (Expense) TableName() string {
	return "expenses"
}
