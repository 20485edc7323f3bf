package model

import (
	"time"

	"gorm.io/gorm"
)

// Program represents an academic program offered by the college (e.g., MCA, B.Tech)
type Program struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	Name      string         `gorm:"not null" json:"name"`
	Code      string         `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"`
	Duration  int            `gorm:"default:0" json:"duration_years"`
	IsActive  bool           `gorm:"default:true" json:"is_active"`

	// Relationships
	FeeStructures []FeeStructure `gorm:"foreignKey:ProgramID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for Program
func (Program) TableName() string {
	return "programs"
}

// AcademicSession represents an academic year window (e.g., "2025-26")
type AcademicSession struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	Name      string         `gorm:"type:varchar(20);uniqueIndex;not null" json:"name"`
	StartDate time.Time      `json:"start_date"`
	EndDate   time.Time      `json:"end_date"`
	IsCurrent bool           `gorm:"default:false" json:"is_current"`

	// Relationships
	FeeStructures []FeeStructure `gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for AcademicSession
func (AcademicSession) TableName() string {
	return "academic_sessions"
}
