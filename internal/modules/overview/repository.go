package overview

import (
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/mjwhite/moneta/internal/domain"
)

// MonthSum is one group-by-month aggregate from a category ledger.
type MonthSum struct {
	YearMonth domain.YearMonth
	Cost      int64
}

// BalanceRow is one user-entered balance actual.
type BalanceRow struct {
	YearMonth domain.YearMonth
	Balance   int64
}

// Repository reads the category ledgers and balance actuals from ledger.db.
// Category names are validated against the configured table list before they
// reach a query string.
type Repository struct {
	db         *sql.DB
	categories map[string]bool
	log        zerolog.Logger
}

// NewRepository creates a new overview repository. categories is the
// closed set of ledger table names sums may be read from.
func NewRepository(db *sql.DB, categories []string, log zerolog.Logger) *Repository {
	allowed := make(map[string]bool, len(categories))
	for _, category := range categories {
		allowed[category] = true
	}
	return &Repository{
		db:         db,
		categories: allowed,
		log:        log.With().Str("repo", "overview").Logger(),
	}
}

// MonthlySums returns the per-month cost totals for one category ledger,
// in chronological order.
func (r *Repository) MonthlySums(category string, uid int64) ([]MonthSum, error) {
	if !r.categories[category] {
		return nil, domain.BadRequestf("unknown category %q", category)
	}

	query := fmt.Sprintf(
		`SELECT year, month, SUM(cost) FROM %s WHERE uid = ? GROUP BY year, month ORDER BY year, month`,
		category)
	rows, err := r.db.Query(query, uid)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s sums: %w", category, err)
	}
	defer rows.Close()

	var sums []MonthSum
	for rows.Next() {
		var sum MonthSum
		if err := rows.Scan(&sum.YearMonth.Year, &sum.YearMonth.Month, &sum.Cost); err != nil {
			return nil, fmt.Errorf("failed to scan %s sum: %w", category, err)
		}
		sums = append(sums, sum)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s sums: %w", category, err)
	}

	return sums, nil
}

// Balances returns every recorded balance actual for a user, in
// chronological order. Months without an entry simply have no row.
func (r *Repository) Balances(uid int64) ([]BalanceRow, error) {
	rows, err := r.db.Query(
		`SELECT year, month, balance FROM balance WHERE uid = ? ORDER BY year, month`, uid)
	if err != nil {
		return nil, fmt.Errorf("failed to query balances: %w", err)
	}
	defer rows.Close()

	var balances []BalanceRow
	for rows.Next() {
		var row BalanceRow
		if err := rows.Scan(&row.YearMonth.Year, &row.YearMonth.Month, &row.Balance); err != nil {
			return nil, fmt.Errorf("failed to scan balance: %w", err)
		}
		balances = append(balances, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating balances: %w", err)
	}

	return balances, nil
}
