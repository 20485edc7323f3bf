package cron

import (
	"log"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sahilchouksey/college-admin-api/model"
	"gorm.io/gorm"
)

// CronManager manages all scheduled background jobs
type CronManager struct {
	cron *cron.Cron
	db   *gorm.DB
}

// NewCronManager creates a new cron manager
func NewCronManager(db *gorm.DB) *CronManager {
	// Create cron with seconds precision
	c := cron.New(cron.WithSeconds())

	return &CronManager{
		cron: c,
		db:   db,
	}
}

// Start registers and starts all cron jobs
func (m *CronManager) Start() error {
	log.Println("Starting cron jobs...")

	if err := m.registerJobs(); err != nil {
		return err
	}

	m.cron.Start()

	log.Println("Cron jobs started successfully")
	return nil
}

// Stop stops all cron jobs
func (m *CronManager) Stop() {
	log.Println("Stopping cron jobs...")
	ctx := m.cron.Stop()
	<-ctx.Done()
	log.Println("Cron jobs stopped")
}

// registerJobs registers all cron jobs with their schedules
func (m *CronManager) registerJobs() error {
	// 1. Daily at 1 AM: lock finance records from closed accounting periods
	_, err := m.cron.AddFunc("0 0 1 * * *", func() {
		m.logJobStart("lock_closed_periods")
		m.LockClosedPeriods()
	})
	if err != nil {
		return err
	}

	// 2. Every 6 hours: verify the fee ledger amount invariant
	_, err = m.cron.AddFunc("0 0 */6 * * *", func() {
		m.logJobStart("check_ledger_consistency")
		m.CheckLedgerConsistency()
	})
	if err != nil {
		return err
	}

	// 3. Daily at 3 AM: cleanup expired blacklisted tokens and stale cron logs
	_, err = m.cron.AddFunc("0 0 3 * * *", func() {
		m.logJobStart("cleanup_old_data")
		m.CleanupOldData()
	})
	if err != nil {
		return err
	}

	log.Println("All cron jobs registered successfully")
	return nil
}

// logJobStart logs the start of a cron job
func (m *CronManager) logJobStart(jobName string) {
	log.Printf("[CRON] Starting job: %s at %s", jobName, time.Now().Format(time.RFC3339))

	cronLog := model.CronJobLog{
		JobName:   jobName,
		Status:    "running",
		StartedAt: time.Now(),
	}
	m.db.Create(&cronLog)
}

// logJobComplete logs successful completion of a cron job
func (m *CronManager) logJobComplete(jobName, message string, itemsAffected int) {
	log.Printf("[CRON] Completed job: %s - %s", jobName, message)

	now := time.Now()
	m.updateLatestLog(jobName, map[string]interface{}{
		"status":         "completed",
		"completed_at":   now,
		"message":        message,
		"items_affected": itemsAffected,
	})
}

// logJobError logs a failed cron job
func (m *CronManager) logJobError(jobName string, err error) {
	log.Printf("[CRON] Job failed: %s - %v", jobName, err)

	now := time.Now()
	m.updateLatestLog(jobName, map[string]interface{}{
		"status":       "failed",
		"completed_at": now,
		"error_msg":    err.Error(),
	})
}

func (m *CronManager) updateLatestLog(jobName string, updates map[string]interface{}) {
	var cronLog model.CronJobLog
	err := m.db.Where("job_name = ? AND status = ?", jobName, "running").
		Order("started_at DESC").
		First(&cronLog).Error
	if err != nil {
		return
	}

	if completedAt, ok := updates["completed_at"].(time.Time); ok {
		updates["duration"] = int(completedAt.Sub(cronLog.StartedAt).Milliseconds())
	}
	m.db.Model(&cronLog).Updates(updates)
}
