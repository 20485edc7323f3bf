package model

import (
	"time"

	"gorm.io/gorm"
)

// User represents a registered user in the system
type User struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
	Email        string         `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string         `gorm:"not null" json:"-"` // Never expose password in JSON
	Name         string         `gorm:"not null" json:"name"`
	Role         string         `gorm:"type:varchar(20);default:'student'" json:"role"` // student, teacher, admin
	IsRoot       bool           `gorm:"default:false" json:"is_root"`                   // gates destructive finance/library operations
	TokenVersion int            `gorm:"default:0" json:"-"`                             // Increment to invalidate all user tokens

	// Relationships
	RecordedTransactions []PaymentTransaction `gorm:"foreignKey:RecordedByID;constraint:OnDelete:SET NULL" json:"-"`
	AuditLogs            []AuditLog           `gorm:"foreignKey:PerformedByID;constraint:OnDelete:CASCADE" json:"-"`
	TokenBlacklist       []JWTTokenBlacklist  `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == "admin"
}

// HasRootPrivilege reports whether the user may perform destructive
// operations (payment cancellation, hard deletes). Root is independent
// of role: an admin without it can operate the ledger but not reverse it.
func (u *User) HasRootPrivilege() bool {
	return u.IsRoot
}
