package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sahilchouksey/college-admin-api/model"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB connects to the integration test database. Tests are skipped
// unless RUN_INTEGRATION_TESTS=true and a PostgreSQL instance is reachable
// via the usual DB_* environment variables.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	if os.Getenv("RUN_INTEGRATION_TESTS") != "true" {
		t.Skip("Skipping integration test. Set RUN_INTEGRATION_TESTS=true to run.")
	}

	host := envOr("DB_HOST", "localhost")
	port := envOr("DB_PORT", "5432")
	user := envOr("DB_USER_NAME", "postgres")
	password := envOr("DB_PASSWORD", "postgres")
	dbname := envOr("DB_NAME", "college_admin_test")
	sslmode := envOr("DB_SSL_MODE", "disable")

	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		host, port, user, password, dbname, sslmode)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	err = db.AutoMigrate(
		&model.User{},
		&model.Program{},
		&model.AcademicSession{},
		&model.FeeStructure{},
		&model.FeePayment{},
		&model.PaymentTransaction{},
		&model.Expense{},
		&model.Salary{},
		&model.LibraryDocument{},
		&model.DocumentVersion{},
		&model.AuditLog{},
	)
	if err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	return db
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func createTestUser(t *testing.T, db *gorm.DB, role string, isRoot bool) *model.User {
	t.Helper()

	user := model.User{
		Email:        fmt.Sprintf("test-%s@college.local", uuid.New().String()),
		PasswordHash: "not-a-real-hash",
		Name:         "Test User",
		Role:         role,
		IsRoot:       isRoot,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}
	return &user
}

func createTestStructure(t *testing.T, db *gorm.DB, total int64) *model.FeeStructure {
	t.Helper()

	suffix := uuid.New().String()[:8]
	program := model.Program{Name: "Test Program " + suffix, Code: "TP-" + suffix, Duration: 2}
	if err := db.Create(&program).Error; err != nil {
		t.Fatalf("Failed to create test program: %v", err)
	}

	session := model.AcademicSession{
		Name:      "TS-" + suffix,
		StartDate: time.Now().AddDate(0, -6, 0),
		EndDate:   time.Now().AddDate(0, 6, 0),
	}
	if err := db.Create(&session).Error; err != nil {
		t.Fatalf("Failed to create test session: %v", err)
	}

	structure := model.FeeStructure{
		ProgramID:   program.ID,
		SessionID:   session.ID,
		Semester:    1,
		TotalAmount: total,
		DueDate:     time.Now().AddDate(0, 3, 0),
		Description: "Semester 1 tuition",
		IsActive:    true,
	}
	if err := db.Create(&structure).Error; err != nil {
		t.Fatalf("Failed to create test fee structure: %v", err)
	}
	return &structure
}

func recordTestPayment(t *testing.T, svc *FeeService, studentID, structureID uint, amount int64, actor *model.User) *model.FeePayment {
	t.Helper()

	payment, err := svc.RecordPayment(context.Background(), RecordPaymentRequest{
		StudentID:      studentID,
		FeeStructureID: structureID,
		Amount:         amount,
		Mode:           model.PaymentModeCash,
		ReceiptNo:      "RCPT-" + uuid.New().String(),
		PaidOn:         time.Now(),
		Actor:          actor,
	})
	if err != nil {
		t.Fatalf("RecordPayment(%d) failed: %v", amount, err)
	}
	return payment
}

func auditCount(t *testing.T, db *gorm.DB, entityType, entityID string) int64 {
	t.Helper()

	var count int64
	err := db.Model(&model.AuditLog{}).
		Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Count(&count).Error
	if err != nil {
		t.Fatalf("Failed to count audit logs: %v", err)
	}
	return count
}

func TestRecordPaymentLifecycle(t *testing.T) {
	db := setupTestDB(t)
	svc := NewFeeService(db)
	admin := createTestUser(t, db, "admin", false)
	student := createTestUser(t, db, "student", false)
	structure := createTestStructure(t, db, 3500000)

	payment := recordTestPayment(t, svc, student.ID, structure.ID, 2100000, admin)
	if payment.Status != model.PaymentStatusPartial {
		t.Errorf("after first payment status = %q, want partial", payment.Status)
	}
	if payment.AmountPaid != 2100000 {
		t.Errorf("after first payment amount_paid = %d, want 2100000", payment.AmountPaid)
	}

	payment = recordTestPayment(t, svc, student.ID, structure.ID, 1400000, admin)
	if payment.Status != model.PaymentStatusPaid {
		t.Errorf("after second payment status = %q, want paid", payment.Status)
	}

	// Ledger is settled; even one paisa more must be rejected.
	_, err := svc.RecordPayment(context.Background(), RecordPaymentRequest{
		StudentID:      student.ID,
		FeeStructureID: structure.ID,
		Amount:         1,
		Mode:           model.PaymentModeCash,
		ReceiptNo:      "RCPT-" + uuid.New().String(),
		PaidOn:         time.Now(),
		Actor:          admin,
	})
	if !errors.Is(err, model.ErrOverpayment) {
		t.Errorf("overpayment returned %v, want ErrOverpayment", err)
	}

	// Two transactions, two audit entries against the ledger.
	ledger, err := svc.GetLedger(context.Background(), payment.ID)
	if err != nil {
		t.Fatalf("GetLedger failed: %v", err)
	}
	if len(ledger.Transactions) != 2 {
		t.Errorf("ledger has %d transactions, want 2", len(ledger.Transactions))
	}
	if got := auditCount(t, db, "fee_payment", fmt.Sprint(payment.ID)); got != 2 {
		t.Errorf("fee_payment audit entries = %d, want 2", got)
	}
}

func TestCancelPaymentRequiresRoot(t *testing.T) {
	db := setupTestDB(t)
	svc := NewFeeService(db)
	admin := createTestUser(t, db, "admin", false)
	student := createTestUser(t, db, "student", false)
	structure := createTestStructure(t, db, 1000000)

	payment := recordTestPayment(t, svc, student.ID, structure.ID, 400000, admin)
	txID := payment.Transactions[len(payment.Transactions)-1].ID
	auditBefore := auditCount(t, db, "payment_transaction", txID)

	_, err := svc.CancelPayment(context.Background(), payment.ID, txID, "entered twice", admin, "")
	if !errors.Is(err, ErrRootRequired) {
		t.Fatalf("CancelPayment by non-root returned %v, want ErrRootRequired", err)
	}

	// The refusal must leave no trace: ledger untouched, no audit row.
	var reloaded model.FeePayment
	if err := db.First(&reloaded, payment.ID).Error; err != nil {
		t.Fatalf("Failed to reload ledger: %v", err)
	}
	if reloaded.AmountPaid != 400000 || reloaded.Status != model.PaymentStatusPartial {
		t.Errorf("ledger mutated by refused cancellation: amount=%d status=%q",
			reloaded.AmountPaid, reloaded.Status)
	}
	if got := auditCount(t, db, "payment_transaction", txID); got != auditBefore {
		t.Errorf("refused cancellation wrote %d audit entries", got-auditBefore)
	}
}

func TestCancelPaymentRevertsLedger(t *testing.T) {
	db := setupTestDB(t)
	svc := NewFeeService(db)
	root := createTestUser(t, db, "admin", true)
	student := createTestUser(t, db, "student", false)
	structure := createTestStructure(t, db, 1000000)

	recordTestPayment(t, svc, student.ID, structure.ID, 600000, root)
	payment := recordTestPayment(t, svc, student.ID, structure.ID, 400000, root)
	if payment.Status != model.PaymentStatusPaid {
		t.Fatalf("precondition: status = %q, want paid", payment.Status)
	}
	txID := payment.Transactions[len(payment.Transactions)-1].ID

	reverted, err := svc.CancelPayment(context.Background(), payment.ID, txID, "cheque bounced", root, "")
	if err != nil {
		t.Fatalf("CancelPayment failed: %v", err)
	}
	if reverted.AmountPaid != 600000 {
		t.Errorf("after cancellation amount_paid = %d, want 600000", reverted.AmountPaid)
	}
	if reverted.Status != model.PaymentStatusPartial {
		t.Errorf("after cancellation status = %q, want partial", reverted.Status)
	}

	// Cancelled transaction survives as a soft-deleted row.
	var gone int64
	db.Model(&model.PaymentTransaction{}).Where("id = ?", txID).Count(&gone)
	if gone != 0 {
		t.Errorf("cancelled transaction still visible to default queries")
	}
	db.Unscoped().Model(&model.PaymentTransaction{}).Where("id = ?", txID).Count(&gone)
	if gone != 1 {
		t.Errorf("cancelled transaction hard-deleted, want soft delete")
	}

	var entry model.AuditLog
	err = db.Where("entity_type = ? AND entity_id = ? AND action = ?",
		"payment_transaction", txID, model.AuditActionSoftDelete).
		First(&entry).Error
	if err != nil {
		t.Fatalf("cancellation audit entry missing: %v", err)
	}
	if entry.Reason != "cheque bounced" {
		t.Errorf("audit reason = %q, want %q", entry.Reason, "cheque bounced")
	}
}

func TestCancelPaymentRefusesLockedLedger(t *testing.T) {
	db := setupTestDB(t)
	svc := NewFeeService(db)
	root := createTestUser(t, db, "admin", true)
	student := createTestUser(t, db, "student", false)
	structure := createTestStructure(t, db, 1000000)

	payment := recordTestPayment(t, svc, student.ID, structure.ID, 500000, root)
	txID := payment.Transactions[len(payment.Transactions)-1].ID

	if err := db.Model(&model.FeePayment{}).Where("id = ?", payment.ID).
		Update("is_locked", true).Error; err != nil {
		t.Fatalf("Failed to lock ledger: %v", err)
	}

	_, err := svc.CancelPayment(context.Background(), payment.ID, txID, "late reversal", root, "")
	if !errors.Is(err, ErrRecordLocked) {
		t.Errorf("CancelPayment on locked ledger returned %v, want ErrRecordLocked", err)
	}
}

func TestSalaryMonthUniqueness(t *testing.T) {
	db := setupTestDB(t)
	svc := NewSalaryService(db)
	admin := createTestUser(t, db, "admin", false)
	employee := createTestUser(t, db, "teacher", false)

	req := CreateSalaryRequest{
		EmployeeID: employee.ID,
		Month:      "2026-08",
		BaseAmount: 5000000,
		Deductions: 500000,
		Actor:      admin,
	}

	salary, err := svc.CreateSalary(context.Background(), req)
	if err != nil {
		t.Fatalf("CreateSalary failed: %v", err)
	}
	if salary.NetAmount != 4500000 {
		t.Errorf("net_amount = %d, want 4500000", salary.NetAmount)
	}

	if _, err := svc.CreateSalary(context.Background(), req); !errors.Is(err, ErrDuplicateRecord) {
		t.Errorf("duplicate month returned %v, want ErrDuplicateRecord", err)
	}

	paid, err := svc.MarkPaid(context.Background(), salary.ID, admin, "")
	if err != nil {
		t.Fatalf("MarkPaid failed: %v", err)
	}
	if paid.Status != model.SalaryStatusPaid || paid.PaidOn == nil {
		t.Errorf("after MarkPaid status = %q, paid_on = %v", paid.Status, paid.PaidOn)
	}

	if _, err := svc.MarkPaid(context.Background(), salary.ID, admin, ""); !errors.Is(err, ErrDuplicateRecord) {
		t.Errorf("second MarkPaid returned %v, want ErrDuplicateRecord", err)
	}
}

func TestExpenseDeleteRequiresRoot(t *testing.T) {
	db := setupTestDB(t)
	svc := NewExpenseService(db)
	admin := createTestUser(t, db, "admin", false)
	root := createTestUser(t, db, "admin", true)

	expense, err := svc.CreateExpense(context.Background(), CreateExpenseRequest{
		Title:    "Lab equipment repair",
		Amount:   250000,
		Category: "maintenance",
		PaidOn:   time.Now(),
		Actor:    admin,
	})
	if err != nil {
		t.Fatalf("CreateExpense failed: %v", err)
	}

	if err := svc.DeleteExpense(context.Background(), expense.ID, "duplicate entry", admin, ""); !errors.Is(err, ErrRootRequired) {
		t.Errorf("DeleteExpense by non-root returned %v, want ErrRootRequired", err)
	}

	if err := svc.DeleteExpense(context.Background(), expense.ID, "duplicate entry", root, ""); err != nil {
		t.Fatalf("DeleteExpense by root failed: %v", err)
	}

	var visible int64
	db.Model(&model.Expense{}).Where("id = ?", expense.ID).Count(&visible)
	if visible != 0 {
		t.Errorf("deleted expense still visible to default queries")
	}

	var kept model.Expense
	if err := db.Unscoped().First(&kept, expense.ID).Error; err != nil {
		t.Fatalf("deleted expense not retained: %v", err)
	}
	if kept.DeletedByID == nil || *kept.DeletedByID != root.ID || kept.DeleteReason != "duplicate entry" {
		t.Errorf("delete metadata not recorded: by=%v reason=%q", kept.DeletedByID, kept.DeleteReason)
	}
}

func TestDeleteExpenseRefusesLocked(t *testing.T) {
	db := setupTestDB(t)
	svc := NewExpenseService(db)
	root := createTestUser(t, db, "admin", true)

	expense, err := svc.CreateExpense(context.Background(), CreateExpenseRequest{
		Title:    "Generator fuel",
		Amount:   180000,
		Category: "utilities",
		PaidOn:   time.Now(),
		Actor:    root,
	})
	if err != nil {
		t.Fatalf("CreateExpense failed: %v", err)
	}

	if err := db.Model(&model.Expense{}).Where("id = ?", expense.ID).
		Update("is_locked", true).Error; err != nil {
		t.Fatalf("Failed to lock expense: %v", err)
	}

	// Closed-period records stay put even for root.
	if err := svc.DeleteExpense(context.Background(), expense.ID, "late correction", root, ""); !errors.Is(err, ErrRecordLocked) {
		t.Errorf("DeleteExpense on locked record returned %v, want ErrRecordLocked", err)
	}

	var visible int64
	db.Model(&model.Expense{}).Where("id = ?", expense.ID).Count(&visible)
	if visible != 1 {
		t.Errorf("locked expense was deleted")
	}
}
