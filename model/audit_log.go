package model

import (
	"time"

	"gorm.io/datatypes"
)

// AuditAction represents the kind of mutation an audit entry describes
type AuditAction string

const (
	AuditActionCreate     AuditAction = "CREATE"
	AuditActionUpdate     AuditAction = "UPDATE"
	AuditActionSoftDelete AuditAction = "SOFT_DELETE"
	AuditActionDelete     AuditAction = "DELETE"
)

// FieldChange describes a single field mutation inside an audit entry
type FieldChange struct {
	Field string      `json:"field"`
	Old   interface{} `json:"old"`
	New   interface{} `json:"new"`
}

// AuditLog is the append-only record of mutations against financial and
// library entities. Entries are written inside the same database
// transaction as the mutation they describe and are never updated or
// deleted by the application.
type AuditLog struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	CreatedAt     time.Time      `json:"created_at"`
	Action        AuditAction    `gorm:"type:varchar(20);not null;index" json:"action"`
	EntityType    string         `gorm:"type:varchar(100);not null;index" json:"entity_type"` // e.g., "fee_payment", "expense"
	EntityID      string         `gorm:"type:varchar(100);not null" json:"entity_id"`
	PerformedByID uint           `gorm:"not null;index" json:"performed_by_id"`
	Changes       datatypes.JSON `gorm:"type:jsonb" json:"changes"`
	Reason        string         `gorm:"type:text" json:"reason,omitempty"`
	IPAddress     string         `gorm:"type:varchar(45)" json:"ip_address"`

	// Relationships
	PerformedBy User `gorm:"foreignKey:PerformedByID;constraint:OnDelete:CASCADE" json:"performed_by,omitempty"`
}

// TableName specifies the table name for AuditLog
func (AuditLog) TableName() string {
	return "audit_logs"
}
