package services

import (
	"encoding/json"
	"fmt"

	"github.com/sahilchouksey/college-admin-api/model"
	"gorm.io/gorm"
)

// AuditService writes append-only audit entries for mutations against
// financial and library entities. Record is always called with the same
// *gorm.DB handle (usually a transaction) as the mutation it describes,
// so the entry and the mutation commit or roll back together.
type AuditService struct {
	db *gorm.DB
}

// NewAuditService creates a new audit service
func NewAuditService(db *gorm.DB) *AuditService {
	return &AuditService{db: db}
}

// AuditEntry describes one mutation to be recorded
type AuditEntry struct {
	Action      model.AuditAction
	EntityType  string
	EntityID    string
	PerformedBy uint
	Changes     []model.FieldChange
	Reason      string
	IPAddress   string
}

// Record writes one audit log row using tx. Pass the transaction the
// mutation runs in; pass s.db only for operations with no surrounding
// transaction.
func (s *AuditService) Record(tx *gorm.DB, entry AuditEntry) error {
	changes, err := json.Marshal(entry.Changes)
	if err != nil {
		return fmt.Errorf("failed to marshal audit changes: %w", err)
	}

	logEntry := model.AuditLog{
		Action:        entry.Action,
		EntityType:    entry.EntityType,
		EntityID:      entry.EntityID,
		PerformedByID: entry.PerformedBy,
		Changes:       changes,
		Reason:        entry.Reason,
		IPAddress:     entry.IPAddress,
	}

	if err := tx.Create(&logEntry).Error; err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}

// EntityHistory returns the audit trail for one entity, newest first.
func (s *AuditService) EntityHistory(entityType, entityID string, limit int) ([]model.AuditLog, error) {
	if limit < 1 || limit > 100 {
		limit = 50
	}

	var logs []model.AuditLog
	err := s.db.
		Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Order("created_at DESC").
		Limit(limit).
		Find(&logs).Error
	return logs, err
}
