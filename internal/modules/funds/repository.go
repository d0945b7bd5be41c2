package funds

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/mjwhite/moneta/internal/domain"
)

// Repository handles fund database operations against ledger.db.
// Transaction ledgers are stored as a JSON list per fund row.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new fund repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "funds").Logger(),
	}
}

// GetAll returns all funds for a user, transactions included.
// A fund whose transaction list fails to parse is returned with an empty
// ledger rather than failing the whole query.
func (r *Repository) GetAll(uid int64) ([]domain.Fund, error) {
	rows, err := r.db.Query(
		`SELECT id, uid, item, transactions FROM funds WHERE uid = ? ORDER BY item`, uid)
	if err != nil {
		return nil, fmt.Errorf("failed to query funds: %w", err)
	}
	defer rows.Close()

	var funds []domain.Fund
	for rows.Next() {
		var fund domain.Fund
		var transactionsJSON string
		if err := rows.Scan(&fund.ID, &fund.UID, &fund.Name, &transactionsJSON); err != nil {
			return nil, fmt.Errorf("failed to scan fund: %w", err)
		}

		if err := json.Unmarshal([]byte(transactionsJSON), &fund.Transactions); err != nil {
			r.log.Warn().Err(err).Int64("id", fund.ID).Msg("Bad transactions JSON, treating as empty")
			fund.Transactions = nil
		}

		funds = append(funds, fund)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating funds: %w", err)
	}

	return funds, nil
}

// AllNames returns the distinct fund names across all users. The scrape job
// uses this to know which funds need price observations.
func (r *Repository) AllNames() ([]string, error) {
	rows, err := r.db.Query(`SELECT DISTINCT item FROM funds ORDER BY item`)
	if err != nil {
		return nil, fmt.Errorf("failed to query fund names: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan fund name: %w", err)
		}
		names = append(names, name)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating fund names: %w", err)
	}

	return names, nil
}

// Create inserts a fund with its transaction list and returns the new id.
func (r *Repository) Create(uid int64, name string, transactions []domain.Transaction) (int64, error) {
	transactionsJSON, err := marshalTransactions(transactions)
	if err != nil {
		return 0, err
	}

	result, err := r.db.Exec(
		`INSERT INTO funds (uid, item, transactions) VALUES (?, ?, ?)`,
		uid, name, transactionsJSON)
	if err != nil {
		return 0, fmt.Errorf("failed to insert fund: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get fund id: %w", err)
	}

	return id, nil
}

// Update replaces a fund's name and transaction list.
func (r *Repository) Update(id, uid int64, name string, transactions []domain.Transaction) error {
	transactionsJSON, err := marshalTransactions(transactions)
	if err != nil {
		return err
	}

	result, err := r.db.Exec(
		`UPDATE funds SET item = ?, transactions = ? WHERE id = ? AND uid = ?`,
		name, transactionsJSON, id, uid)
	if err != nil {
		return fmt.Errorf("failed to update fund: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return domain.BadRequestf("no fund with id %d", id)
	}

	return nil
}

// Delete removes a fund row.
func (r *Repository) Delete(id, uid int64) error {
	result, err := r.db.Exec(`DELETE FROM funds WHERE id = ? AND uid = ?`, id, uid)
	if err != nil {
		return fmt.Errorf("failed to delete fund: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return domain.BadRequestf("no fund with id %d", id)
	}

	return nil
}

func marshalTransactions(transactions []domain.Transaction) (string, error) {
	if transactions == nil {
		transactions = []domain.Transaction{}
	}
	data, err := json.Marshal(transactions)
	if err != nil {
		return "", fmt.Errorf("failed to marshal transactions: %w", err)
	}
	return string(data), nil
}
