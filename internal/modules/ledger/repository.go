// Package ledger provides the thin list-row CRUD layer over the category
// tables in ledger.db. No business logic lives here; the overview module
// reads these tables through its own aggregating repository.
package ledger

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/mjwhite/moneta/internal/domain"
)

// extraColumns maps each category table to its tag columns beyond the
// common (date, item, cost) triple. A listed category with no entry has no
// extra columns. Table names never come from request input unvalidated.
var extraColumns = map[string][]string{
	"income":  nil,
	"bills":   nil,
	"food":    {"category", "shop"},
	"general": {"category", "shop"},
	"holiday": {"holiday", "shop"},
	"social":  {"society", "shop"},
}

// Row is one category ledger entry.
type Row struct {
	ID   int64             `json:"id"`
	Date domain.Date       `json:"date"`
	Item string            `json:"item"`
	Cost int64             `json:"cost"`
	Tags map[string]string `json:"tags,omitempty"`
}

// Repository handles category ledger and balance writes.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new ledger repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "ledger").Logger(),
	}
}

// validateCategory ensures the category is a known ledger table.
// This prevents SQL injection through table names.
func validateCategory(category string) ([]string, error) {
	extra, ok := extraColumns[category]
	if !ok {
		return nil, domain.BadRequestf("unknown category %q", category)
	}
	return extra, nil
}

// List returns every row in one category ledger for a user, newest first.
func (r *Repository) List(category string, uid int64) ([]Row, error) {
	extra, err := validateCategory(category)
	if err != nil {
		return nil, err
	}

	columns := append([]string{"id", "year", "month", "date", "item", "cost"}, extra...)
	query := fmt.Sprintf(
		`SELECT %s FROM %s WHERE uid = ? ORDER BY year DESC, month DESC, date DESC, id DESC`,
		strings.Join(columns, ", "), category)

	rows, err := r.db.Query(query, uid)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", category, err)
	}
	defer rows.Close()

	var result []Row
	for rows.Next() {
		row, err := scanRow(rows, extra)
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", category, err)
		}
		result = append(result, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s: %w", category, err)
	}

	return result, nil
}

// Create inserts one row and returns the new id.
func (r *Repository) Create(category string, uid int64, row Row) (int64, error) {
	extra, err := validateCategory(category)
	if err != nil {
		return 0, err
	}

	columns := []string{"uid", "year", "month", "date", "item", "cost"}
	values := []interface{}{uid, row.Date.Year, row.Date.Month, row.Date.Day, row.Item, row.Cost}
	for _, column := range extra {
		columns = append(columns, column)
		values = append(values, row.Tags[column])
	}

	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)`,
		category,
		strings.Join(columns, ", "),
		strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", "))

	result, err := r.db.Exec(query, values...)
	if err != nil {
		return 0, fmt.Errorf("failed to insert into %s: %w", category, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get %s row id: %w", category, err)
	}

	return id, nil
}

// Update replaces one row's fields.
func (r *Repository) Update(category string, uid int64, row Row) error {
	extra, err := validateCategory(category)
	if err != nil {
		return err
	}

	assignments := []string{"year = ?", "month = ?", "date = ?", "item = ?", "cost = ?"}
	values := []interface{}{row.Date.Year, row.Date.Month, row.Date.Day, row.Item, row.Cost}
	for _, column := range extra {
		assignments = append(assignments, column+" = ?")
		values = append(values, row.Tags[column])
	}
	values = append(values, row.ID, uid)

	query := fmt.Sprintf(`UPDATE %s SET %s WHERE id = ? AND uid = ?`,
		category, strings.Join(assignments, ", "))

	result, err := r.db.Exec(query, values...)
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", category, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return domain.BadRequestf("no %s row with id %d", category, row.ID)
	}

	return nil
}

// Delete removes one row.
func (r *Repository) Delete(category string, uid, id int64) error {
	if _, err := validateCategory(category); err != nil {
		return err
	}

	query := fmt.Sprintf(`DELETE FROM %s WHERE id = ? AND uid = ?`, category)
	result, err := r.db.Exec(query, id, uid)
	if err != nil {
		return fmt.Errorf("failed to delete from %s: %w", category, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return domain.BadRequestf("no %s row with id %d", category, id)
	}

	return nil
}

// UpsertBalance records one month's actual balance, replacing any existing
// entry for that month.
func (r *Repository) UpsertBalance(uid int64, ym domain.YearMonth, balance int64) error {
	if ym.Month < 1 || ym.Month > 12 {
		return domain.BadRequestf("invalid month %d", ym.Month)
	}

	_, err := r.db.Exec(
		`INSERT INTO balance (uid, year, month, balance) VALUES (?, ?, ?, ?)
		 ON CONFLICT (uid, year, month) DO UPDATE SET balance = excluded.balance`,
		uid, ym.Year, ym.Month, balance)
	if err != nil {
		return fmt.Errorf("failed to upsert balance: %w", err)
	}

	return nil
}

func scanRow(rows *sql.Rows, extra []string) (Row, error) {
	var row Row
	targets := []interface{}{&row.ID, &row.Date.Year, &row.Date.Month, &row.Date.Day, &row.Item, &row.Cost}
	tagValues := make([]string, len(extra))
	for i := range extra {
		targets = append(targets, &tagValues[i])
	}

	if err := rows.Scan(targets...); err != nil {
		return Row{}, err
	}

	if len(extra) > 0 {
		row.Tags = make(map[string]string, len(extra))
		for i, column := range extra {
			row.Tags[column] = tagValues[i]
		}
	}

	return row, nil
}
