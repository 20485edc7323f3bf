package model

import (
	"time"

	"gorm.io/gorm"
)

// LibraryDocument represents a piece of library content (notes, circulars,
// digitized material). Every content or file change creates a new
// DocumentVersion and bumps CurrentVersion; the two writes happen inside
// one database transaction so CurrentVersion never points at a missing
// version row.
type LibraryDocument struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
	Title          string         `gorm:"not null" json:"title"`
	Content        string         `gorm:"type:text" json:"content"`
	FileKey        string         `gorm:"type:varchar(500)" json:"file_key"` // key in the external blob store
	FileURL        string         `gorm:"type:text" json:"file_url"`
	PageCount      int            `gorm:"default:0" json:"page_count"`
	CurrentVersion int            `gorm:"not null;default:1" json:"current_version"`
	CreatedByID    uint           `gorm:"index" json:"created_by_id"`
	DeletedByID    *uint          `json:"deleted_by_id,omitempty"`
	DeleteReason   string         `gorm:"type:text" json:"delete_reason,omitempty"`

	// Relationships
	CreatedBy User              `gorm:"foreignKey:CreatedByID" json:"created_by,omitempty"`
	Versions  []DocumentVersion `gorm:"foreignKey:DocumentID;constraint:OnDelete:CASCADE" json:"versions,omitempty"`
}

// TableName specifies the table name for LibraryDocument
func (LibraryDocument) TableName() string {
	return "library_documents"
}

// DocumentVersion is one immutable snapshot in a document's version chain.
type DocumentVersion struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	CreatedAt         time.Time `json:"created_at"`
	DocumentID        uint      `gorm:"not null;index:idx_document_version,unique" json:"document_id"`
	VersionNumber     int       `gorm:"not null;index:idx_document_version,unique" json:"version_number"`
	Title             string    `gorm:"not null" json:"title"`
	Content           string    `gorm:"type:text" json:"content"`
	FileKey           string    `gorm:"type:varchar(500)" json:"file_key"`
	FileURL           string    `gorm:"type:text" json:"file_url"`
	PageCount         int       `gorm:"default:0" json:"page_count"`
	PreviousVersionID *uint     `json:"previous_version_id,omitempty"`
	CreatedByID       uint      `gorm:"index" json:"created_by_id"`

	// Relationships
	CreatedBy       User             `gorm:"foreignKey:CreatedByID" json:"created_by,omitempty"`
	PreviousVersion *DocumentVersion `gorm:"foreignKey:PreviousVersionID" json:"-"`
}

// TableName specifies the table name for DocumentVersion
func (DocumentVersion) TableName() string {
	return "document_versions"
}
