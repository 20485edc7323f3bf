package admin

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/college-admin-api/model"
	"github.com/sahilchouksey/college-admin-api/utils/cache"
	"github.com/sahilchouksey/college-admin-api/utils/response"
	"gorm.io/gorm"
)

const financeSummaryCacheKey = "dashboard:finance_summary"

// DashboardHandler serves aggregate finance numbers for the admin UI
type DashboardHandler struct {
	db    *gorm.DB
	cache *cache.RedisCache // nil when Redis is unavailable
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(db *gorm.DB, redisCache *cache.RedisCache) *DashboardHandler {
	return &DashboardHandler{db: db, cache: redisCache}
}

// FinanceSummary is the aggregate shape returned by the dashboard
type FinanceSummary struct {
	TotalCollected   int64 `json:"total_collected"`
	TotalOutstanding int64 `json:"total_outstanding"`
	LedgerCounts     struct {
		Paid    int64 `json:"paid"`
		Partial int64 `json:"partial"`
		Unpaid  int64 `json:"unpaid"`
	} `json:"ledger_counts"`
	TotalExpenses      int64 `json:"total_expenses"`
	TotalSalariesPaid  int64 `json:"total_salaries_paid"`
	PendingSalaryCount int64 `json:"pending_salary_count"`
}

// GetFinanceSummary handles GET /api/v1/admin/dashboard/finance
func (h *DashboardHandler) GetFinanceSummary(c *fiber.Ctx) error {
	var summary FinanceSummary

	if h.cache != nil {
		if err := h.cache.GetJSON(c.Context(), financeSummaryCacheKey, &summary); err == nil {
			return response.Success(c, summary)
		}
	}

	err := h.db.Model(&model.FeePayment{}).
		Select("COALESCE(SUM(amount_paid), 0)").
		Scan(&summary.TotalCollected).Error
	if err != nil {
		return response.InternalServerError(c, "Failed to compute collected total")
	}

	// Outstanding = owed minus paid across all ledgers, floored per row.
	err = h.db.Model(&model.FeePayment{}).
		Select("COALESCE(SUM(GREATEST(fee_structures.total_amount - fee_payments.amount_paid, 0)), 0)").
		Joins("JOIN fee_structures ON fee_structures.id = fee_payments.fee_structure_id").
		Scan(&summary.TotalOutstanding).Error
	if err != nil {
		return response.InternalServerError(c, "Failed to compute outstanding total")
	}

	for _, row := range []struct {
		status model.PaymentStatus
		dest   *int64
	}{
		{model.PaymentStatusPaid, &summary.LedgerCounts.Paid},
		{model.PaymentStatusPartial, &summary.LedgerCounts.Partial},
		{model.PaymentStatusUnpaid, &summary.LedgerCounts.Unpaid},
	} {
		if err := h.db.Model(&model.FeePayment{}).
			Where("status = ?", row.status).
			Count(row.dest).Error; err != nil {
			return response.InternalServerError(c, "Failed to count ledgers")
		}
	}

	err = h.db.Model(&model.Expense{}).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&summary.TotalExpenses).Error
	if err != nil {
		return response.InternalServerError(c, "Failed to compute expense total")
	}

	err = h.db.Model(&model.Salary{}).
		Where("status = ?", model.SalaryStatusPaid).
		Select("COALESCE(SUM(net_amount), 0)").
		Scan(&summary.TotalSalariesPaid).Error
	if err != nil {
		return response.InternalServerError(c, "Failed to compute salary total")
	}

	err = h.db.Model(&model.Salary{}).
		Where("status = ?", model.SalaryStatusPending).
		Count(&summary.PendingSalaryCount).Error
	if err != nil {
		return response.InternalServerError(c, "Failed to count pending salaries")
	}

	if h.cache != nil {
		// Stale-by-a-minute is fine for dashboard aggregates.
		_ = h.cache.SetJSON(c.Context(), financeSummaryCacheKey, summary, time.Minute)
	}

	return response.Success(c, summary)
}

// ListCronLogs handles GET /api/v1/admin/cron-logs
func (h *DashboardHandler) ListCronLogs(c *fiber.Ctx) error {
	var logs []model.CronJobLog
	err := h.db.Order("started_at DESC").Limit(100).Find(&logs).Error
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch cron logs")
	}
	return response.Success(c, logs)
}
