// Command report prints finance summaries straight from PostgreSQL.
// It is meant for the finance office's month-end runs and works without
// the API server being up.
//
// Usage:
//
//	report collections   collected vs outstanding per fee structure
//	report expenses      monthly expense totals by category
//	report drift         fee payments violating the amount invariant
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/sahilchouksey/college-admin-api/config"
	"github.com/sahilchouksey/college-admin-api/database"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: report <collections|expenses|drift>")
		os.Exit(2)
	}

	if err := config.LoadENV(); err != nil {
		log.Printf("Warning: could not load .env: %v", err)
	}

	store, err := database.StartReportStore()
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer store.Close()

	switch os.Args[1] {
	case "collections":
		runCollections(store)
	case "expenses":
		runExpenses(store)
	case "drift":
		runDrift(store)
	default:
		fmt.Fprintf(os.Stderr, "unknown report %q\n", os.Args[1])
		os.Exit(2)
	}
}

// rupees renders a paise amount as rupees for terminal output
func rupees(paise int64) string {
	return fmt.Sprintf("%d.%02d", paise/100, paise%100)
}

func runCollections(store *database.ReportStore) {
	rows, err := store.CollectionSummary()
	if err != nil {
		log.Fatalf("Report failed: %v", err)
	}

	fmt.Printf("%-6s %-40s %14s %14s %14s %8s\n",
		"ID", "DESCRIPTION", "TOTAL", "COLLECTED", "OUTSTANDING", "PAYERS")
	for _, r := range rows {
		fmt.Printf("%-6d %-40.40s %14s %14s %14s %8d\n",
			r.FeeStructureID, r.Description,
			rupees(r.TotalAmount), rupees(r.Collected), rupees(r.Outstanding), r.Payers)
	}
}

func runExpenses(store *database.ReportStore) {
	rows, err := store.MonthlyExpenses()
	if err != nil {
		log.Fatalf("Report failed: %v", err)
	}

	fmt.Printf("%-8s %-30s %14s %8s\n", "MONTH", "CATEGORY", "TOTAL", "ENTRIES")
	for _, r := range rows {
		fmt.Printf("%-8s %-30.30s %14s %8d\n", r.Month, r.Category, rupees(r.Total), r.Entries)
	}
}

func runDrift(store *database.ReportStore) {
	rows, err := store.LedgerDrift()
	if err != nil {
		log.Fatalf("Report failed: %v", err)
	}

	if len(rows) == 0 {
		fmt.Println("All fee payment ledgers are consistent.")
		return
	}

	fmt.Printf("%-10s %14s %16s\n", "LEDGER", "AMOUNT_PAID", "TRANSACTION_SUM")
	for _, r := range rows {
		fmt.Printf("%-10d %14s %16s\n",
			r.FeePaymentID, rupees(r.AmountPaid), rupees(r.TransactionSum))
	}
	os.Exit(1)
}
