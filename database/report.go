package database

import (
	"database/sql"
	"fmt"
	"log"

	_ "github.com/lib/pq"
	"github.com/sahilchouksey/college-admin-api/config"
)

// ReportStore runs read-only finance aggregation queries over plain
// database/sql. Reporting stays outside GORM so the queries can be tuned
// by hand and run from the report CLI without the ORM layer.
type ReportStore struct {
	db *sql.DB
}

// StartReportStore opens a raw PostgreSQL connection for reporting
func StartReportStore() (*ReportStore, error) {
	getEnv, err := config.Get()
	if err != nil {
		return nil, err
	}

	connectStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		getEnv.DB_HOST, getEnv.DB_PORT, getEnv.DB_USER_NAME,
		getEnv.DB_PASSWORD, getEnv.DB_NAME, getEnv.DB_SSL_MODE,
	)

	db, err := sql.Open("postgres", connectStr)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}

	log.Println("Successfully connected to PostgreSQL Database for reporting.")
	return &ReportStore{db: db}, nil
}

// Close closes the reporting connection
func (s *ReportStore) Close() error {
	return s.db.Close()
}

// CollectionSummaryRow is one fee structure's collection totals
type CollectionSummaryRow struct {
	FeeStructureID uint
	Description    string
	TotalAmount    int64
	Collected      int64
	Outstanding    int64
	Payers         int64
}

// CollectionSummary aggregates collected vs outstanding amounts per active
// fee structure. Outstanding counts only students who have started paying;
// students with no ledger row yet are not visible to the finance office.
func (s *ReportStore) CollectionSummary() ([]CollectionSummaryRow, error) {
	query := `
		SELECT fs.id,
		       fs.description,
		       fs.total_amount,
		       COALESCE(SUM(fp.amount_paid), 0)                            AS collected,
		       COALESCE(SUM(fs.total_amount - fp.amount_paid), 0)          AS outstanding,
		       COUNT(fp.id)                                                AS payers
		FROM fee_structures fs
		LEFT JOIN fee_payments fp
		       ON fp.fee_structure_id = fs.id AND fp.deleted_at IS NULL
		WHERE fs.deleted_at IS NULL AND fs.is_active = true
		GROUP BY fs.id, fs.description, fs.total_amount
		ORDER BY fs.id;
	`

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summary := []CollectionSummaryRow{}
	for rows.Next() {
		var row CollectionSummaryRow
		if err := rows.Scan(&row.FeeStructureID, &row.Description, &row.TotalAmount,
			&row.Collected, &row.Outstanding, &row.Payers); err != nil {
			return nil, err
		}
		summary = append(summary, row)
	}

	return summary, rows.Err()
}

// MonthlyExpenseRow is one month's expense total for a category
type MonthlyExpenseRow struct {
	Month    string
	Category string
	Total    int64
	Entries  int64
}

// MonthlyExpenses aggregates expenses by month and category
func (s *ReportStore) MonthlyExpenses() ([]MonthlyExpenseRow, error) {
	query := `
		SELECT to_char(paid_on, 'YYYY-MM') AS month,
		       category,
		       SUM(amount)                 AS total,
		       COUNT(*)                    AS entries
		FROM expenses
		WHERE deleted_at IS NULL
		GROUP BY month, category
		ORDER BY month DESC, category;
	`

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []MonthlyExpenseRow{}
	for rows.Next() {
		var row MonthlyExpenseRow
		if err := rows.Scan(&row.Month, &row.Category, &row.Total, &row.Entries); err != nil {
			return nil, err
		}
		result = append(result, row)
	}

	return result, rows.Err()
}

// LedgerDriftRow flags a fee payment whose stored total disagrees with
// the sum of its transactions
type LedgerDriftRow struct {
	FeePaymentID   uint
	AmountPaid     int64
	TransactionSum int64
}

// LedgerDrift returns fee payments violating the amount invariant.
// A healthy database returns no rows.
func (s *ReportStore) LedgerDrift() ([]LedgerDriftRow, error) {
	query := `
		SELECT fp.id,
		       fp.amount_paid,
		       COALESCE(SUM(pt.amount), 0) AS transaction_sum
		FROM fee_payments fp
		LEFT JOIN payment_transactions pt
		       ON pt.fee_payment_id = fp.id AND pt.deleted_at IS NULL
		WHERE fp.deleted_at IS NULL
		GROUP BY fp.id, fp.amount_paid
		HAVING fp.amount_paid <> COALESCE(SUM(pt.amount), 0)
		ORDER BY fp.id;
	`

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	drift := []LedgerDriftRow{}
	for rows.Next() {
		var row LedgerDriftRow
		if err := rows.Scan(&row.FeePaymentID, &row.AmountPaid, &row.TransactionSum); err != nil {
			return nil, err
		}
		drift = append(drift, row)
	}

	return drift, rows.Err()
}
