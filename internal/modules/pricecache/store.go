// Package pricecache provides access to the price-scrape cache: an
// append-only log of scrape generations, each carrying a batch of price
// observations keyed by fund hash.
//
// Writers append a generation with done = 0, add every observation, then
// flip done = 1. Readers filter on done = 1 throughout, so a half-written
// generation is never visible. There is exactly one writer (the scrape job).
package pricecache

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Observation is one scraped price for one fund within a generation.
// Units are the fund's units held at scrape time.
type Observation struct {
	Hash  string
	Price decimal.Decimal
	Units decimal.Decimal
}

// Generation is one complete scrape batch with its observations.
type Generation struct {
	ID           int64
	Time         int64 // unix seconds
	Observations []Observation
}

// Store handles cache database operations.
type Store struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewStore creates a new price cache store
func NewStore(db *sql.DB, log zerolog.Logger) *Store {
	return &Store{
		db:  db,
		log: log.With().Str("repo", "pricecache").Logger(),
	}
}

// LatestPrices returns the most recently scraped price per fund hash,
// considering complete generations only.
func (s *Store) LatestPrices() (map[string]decimal.Decimal, error) {
	rows, err := s.db.Query(`
		SELECT fh.hash, fc.price
		FROM fund_cache fc
		INNER JOIN fund_cache_time ct ON ct.cid = fc.cid AND ct.done = 1
		INNER JOIN fund_hash fh ON fh.fid = fc.fid
		ORDER BY ct.time DESC, ct.cid DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query latest prices: %w", err)
	}
	defer rows.Close()

	prices := make(map[string]decimal.Decimal)
	for rows.Next() {
		var hash, priceStr string
		if err := rows.Scan(&hash, &priceStr); err != nil {
			return nil, fmt.Errorf("failed to scan price row: %w", err)
		}
		if _, seen := prices[hash]; seen {
			continue // rows are newest-first; keep the first per hash
		}
		price, err := decimal.NewFromString(priceStr)
		if err != nil {
			return nil, fmt.Errorf("bad price value for hash %s: %w", hash, err)
		}
		prices[hash] = price
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating prices: %w", err)
	}

	return prices, nil
}

// Generations returns all complete generations with time > minTime, oldest
// first, each with its observations. minTime = 0 returns the whole history.
func (s *Store) Generations(minTime int64) ([]Generation, error) {
	rows, err := s.db.Query(`
		SELECT ct.cid, ct.time, fh.hash, fc.price, fc.units
		FROM fund_cache_time ct
		INNER JOIN fund_cache fc ON fc.cid = ct.cid
		INNER JOIN fund_hash fh ON fh.fid = fc.fid
		WHERE ct.done = 1 AND ct.time > ?
		ORDER BY ct.time, ct.cid, fh.hash`, minTime)
	if err != nil {
		return nil, fmt.Errorf("failed to query generations: %w", err)
	}
	defer rows.Close()

	var generations []Generation
	for rows.Next() {
		var (
			cid, t             int64
			hash, price, units string
		)
		if err := rows.Scan(&cid, &t, &hash, &price, &units); err != nil {
			return nil, fmt.Errorf("failed to scan generation row: %w", err)
		}

		obs, err := parseObservation(hash, price, units)
		if err != nil {
			return nil, err
		}

		if len(generations) == 0 || generations[len(generations)-1].ID != cid {
			generations = append(generations, Generation{ID: cid, Time: t})
		}
		last := &generations[len(generations)-1]
		last.Observations = append(last.Observations, obs)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating generations: %w", err)
	}

	return generations, nil
}

// CountGenerations returns the number of complete generations with
// time > minTime.
func (s *Store) CountGenerations(minTime int64) (int, error) {
	var count int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM fund_cache_time WHERE done = 1 AND time > ?`,
		minTime).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count generations: %w", err)
	}
	return count, nil
}

// BeginGeneration appends a new, incomplete generation and returns its id.
func (s *Store) BeginGeneration(t time.Time) (int64, error) {
	result, err := s.db.Exec(
		`INSERT INTO fund_cache_time (time, done) VALUES (?, 0)`, t.Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to insert generation: %w", err)
	}

	cid, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get generation id: %w", err)
	}

	return cid, nil
}

// EnsureHash returns the fid for a fund hash, inserting a row on first sight.
func (s *Store) EnsureHash(hash string) (int64, error) {
	var fid int64
	err := s.db.QueryRow(`SELECT fid FROM fund_hash WHERE hash = ?`, hash).Scan(&fid)
	if err == nil {
		return fid, nil
	}
	if err != sql.ErrNoRows {
		return 0, fmt.Errorf("failed to look up fund hash: %w", err)
	}

	result, err := s.db.Exec(`INSERT INTO fund_hash (hash) VALUES (?)`, hash)
	if err != nil {
		return 0, fmt.Errorf("failed to insert fund hash: %w", err)
	}

	fid, err = result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get fund hash id: %w", err)
	}

	return fid, nil
}

// AddObservation appends one price observation to an in-progress generation.
func (s *Store) AddObservation(cid, fid int64, price, units decimal.Decimal) error {
	_, err := s.db.Exec(
		`INSERT INTO fund_cache (cid, fid, price, units) VALUES (?, ?, ?, ?)`,
		cid, fid, price.String(), units.String())
	if err != nil {
		return fmt.Errorf("failed to insert observation: %w", err)
	}
	return nil
}

// CompleteGeneration flips the done flag, making the generation visible to
// readers. This is the single point at which a scrape batch becomes
// observable.
func (s *Store) CompleteGeneration(cid int64) error {
	result, err := s.db.Exec(
		`UPDATE fund_cache_time SET done = 1 WHERE cid = ?`, cid)
	if err != nil {
		return fmt.Errorf("failed to complete generation: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check completion result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("no generation with cid %d", cid)
	}

	return nil
}

func parseObservation(hash, price, units string) (Observation, error) {
	p, err := decimal.NewFromString(price)
	if err != nil {
		return Observation{}, fmt.Errorf("bad price value for hash %s: %w", hash, err)
	}
	u, err := decimal.NewFromString(units)
	if err != nil {
		return Observation{}, fmt.Errorf("bad units value for hash %s: %w", hash, err)
	}
	return Observation{Hash: hash, Price: p, Units: u}, nil
}
