package admin

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/college-admin-api/model"
	"github.com/sahilchouksey/college-admin-api/services"
	"github.com/sahilchouksey/college-admin-api/utils/response"
	"gorm.io/gorm"
)

// AuditHandler serves the read side of the audit trail. There is no write
// side here: audit rows are only ever created inside service transactions.
type AuditHandler struct {
	db      *gorm.DB
	service *services.AuditService
}

// NewAuditHandler creates a new audit handler
func NewAuditHandler(db *gorm.DB) *AuditHandler {
	return &AuditHandler{
		db:      db,
		service: services.NewAuditService(db),
	}
}

// ListAuditLogs handles GET /api/v1/admin/audit-logs
func (h *AuditHandler) ListAuditLogs(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "50"))

	query := h.db.Model(&model.AuditLog{})
	if entityType := c.Query("entity_type"); entityType != "" {
		query = query.Where("entity_type = ?", entityType)
	}
	if entityID := c.Query("entity_id"); entityID != "" {
		query = query.Where("entity_id = ?", entityID)
	}
	if action := c.Query("action"); action != "" {
		query = query.Where("action = ?", action)
	}
	if performedBy := c.Query("performed_by"); performedBy != "" {
		query = query.Where("performed_by_id = ?", performedBy)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return response.InternalServerError(c, "Failed to count audit logs")
	}

	pagination := response.CalculatePagination(page, limit, total)

	var logs []model.AuditLog
	if err := query.Preload("PerformedBy").
		Order("created_at DESC").
		Limit(pagination.PerPage).
		Offset((pagination.CurrentPage - 1) * pagination.PerPage).
		Find(&logs).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch audit logs")
	}

	return response.Paginated(c, logs, pagination)
}

// GetAuditLog handles GET /api/v1/admin/audit-logs/:id
func (h *AuditHandler) GetAuditLog(c *fiber.Ctx) error {
	var entry model.AuditLog
	if err := h.db.Preload("PerformedBy").First(&entry, c.Params("id")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Audit log entry not found")
		}
		return response.InternalServerError(c, "Failed to fetch audit log entry")
	}
	return response.Success(c, entry)
}

// EntityHistory handles GET /api/v1/admin/audit-logs/entity/:type/:id
func (h *AuditHandler) EntityHistory(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit", "50"))

	logs, err := h.service.EntityHistory(c.Params("type"), c.Params("id"), limit)
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch entity history")
	}
	return response.Success(c, logs)
}
