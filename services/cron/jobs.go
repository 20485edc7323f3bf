package cron

import (
	"fmt"
	"time"

	"github.com/sahilchouksey/college-admin-api/model"
)

// closedPeriodGraceDays is how long after an academic session ends its
// finance records stay editable before the period-close job locks them.
const closedPeriodGraceDays = 30

// LockClosedPeriods freezes fee payments and expenses belonging to closed
// accounting periods. Locked records refuse cancellation and deletion
// regardless of caller privilege; new-period records are unaffected.
func (m *CronManager) LockClosedPeriods() {
	jobName := "lock_closed_periods"
	cutoff := time.Now().AddDate(0, 0, -closedPeriodGraceDays)

	// Sessions whose end date passed the grace window.
	var sessionIDs []uint
	err := m.db.Model(&model.AcademicSession{}).
		Where("end_date < ?", cutoff).
		Pluck("id", &sessionIDs).Error
	if err != nil {
		m.logJobError(jobName, fmt.Errorf("failed to query closed sessions: %w", err))
		return
	}

	locked := 0
	if len(sessionIDs) > 0 {
		result := m.db.Model(&model.FeePayment{}).
			Where("is_locked = ? AND fee_structure_id IN (?)", false,
				m.db.Model(&model.FeeStructure{}).Select("id").Where("session_id IN ?", sessionIDs)).
			Update("is_locked", true)
		if result.Error != nil {
			m.logJobError(jobName, fmt.Errorf("failed to lock fee payments: %w", result.Error))
			return
		}
		locked += int(result.RowsAffected)
	}

	// Expenses are locked by age alone; they carry no session reference.
	result := m.db.Model(&model.Expense{}).
		Where("is_locked = ? AND paid_on < ?", false, cutoff.AddDate(0, -11, 0)).
		Update("is_locked", true)
	if result.Error != nil {
		m.logJobError(jobName, fmt.Errorf("failed to lock expenses: %w", result.Error))
		return
	}
	locked += int(result.RowsAffected)

	m.logJobComplete(jobName, fmt.Sprintf("Locked %d finance records", locked), locked)
}

// CheckLedgerConsistency verifies that every fee payment's stored total
// matches the sum of its transactions. Drift is only reported, never
// auto-corrected: a mismatch means something bypassed the service layer
// and needs a human.
func (m *CronManager) CheckLedgerConsistency() {
	jobName := "check_ledger_consistency"

	type driftRow struct {
		ID             uint
		AmountPaid     int64
		TransactionSum int64
	}

	var drift []driftRow
	err := m.db.Model(&model.FeePayment{}).
		Select("fee_payments.id, fee_payments.amount_paid, COALESCE(SUM(payment_transactions.amount), 0) AS transaction_sum").
		Joins("LEFT JOIN payment_transactions ON payment_transactions.fee_payment_id = fee_payments.id AND payment_transactions.deleted_at IS NULL").
		Group("fee_payments.id, fee_payments.amount_paid").
		Having("fee_payments.amount_paid <> COALESCE(SUM(payment_transactions.amount), 0)").
		Scan(&drift).Error
	if err != nil {
		m.logJobError(jobName, fmt.Errorf("failed to run consistency query: %w", err))
		return
	}

	if len(drift) > 0 {
		m.logJobError(jobName, fmt.Errorf("found %d fee payments with amount drift (first: ledger %d)", len(drift), drift[0].ID))
		return
	}

	m.logJobComplete(jobName, "All fee payment ledgers are consistent", 0)
}

// CleanupOldData removes expired blacklisted tokens and cron logs older
// than 90 days. Audit logs are append-only and never cleaned up here.
func (m *CronManager) CleanupOldData() {
	jobName := "cleanup_old_data"
	removed := 0

	result := m.db.Unscoped().
		Where("expires_at < ?", time.Now()).
		Delete(&model.JWTTokenBlacklist{})
	if result.Error != nil {
		m.logJobError(jobName, fmt.Errorf("failed to cleanup blacklisted tokens: %w", result.Error))
		return
	}
	removed += int(result.RowsAffected)

	result = m.db.Unscoped().
		Where("created_at < ?", time.Now().AddDate(0, 0, -90)).
		Delete(&model.CronJobLog{})
	if result.Error != nil {
		m.logJobError(jobName, fmt.Errorf("failed to cleanup cron logs: %w", result.Error))
		return
	}
	removed += int(result.RowsAffected)

	m.logJobComplete(jobName, fmt.Sprintf("Removed %d expired rows", removed), removed)
}
