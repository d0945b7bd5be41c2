package history

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/mjwhite/moneta/internal/domain"
	"github.com/mjwhite/moneta/internal/modules/funds"
	"github.com/mjwhite/moneta/internal/modules/pricecache"
)

// GenerationSource provides the complete price generations.
// Satisfied by the price cache store.
type GenerationSource interface {
	Generations(minTime int64) ([]pricecache.Generation, error)
}

// FundSource provides a user's funds with their transaction ledgers.
type FundSource interface {
	GetAll(uid int64) ([]domain.Fund, error)
}

// periodDays maps the accepted trailing-window filters to their length in
// days. The grammar is fixed; anything else is a bad request.
var periodDays = map[string]int{
	"year1":  365,
	"year5":  5 * 365,
	"month1": 30,
	"month3": 90,
}

// ParsePeriod converts a period filter into the minimum generation
// timestamp (exclusive). An empty period means no filtering.
func ParsePeriod(period string, now time.Time) (int64, error) {
	if period == "" {
		return 0, nil
	}
	days, ok := periodDays[period]
	if !ok {
		return 0, domain.BadRequestf("unknown period %q", period)
	}
	return now.Add(-time.Duration(days) * 24 * time.Hour).Unix(), nil
}

// Row is one emitted point of a deep history: elapsed seconds since the
// first emitted point, and one value per fund in item order.
type Row struct {
	Time   int64   `json:"time"`
	Values []int64 `json:"values"`
}

// Point is one emitted point of a shallow history: elapsed seconds and the
// aggregate portfolio value.
type Point struct {
	Time  int64 `json:"time"`
	Value int64 `json:"value"`
}

// Shallow is the headline history: one aggregate value per point.
type Shallow struct {
	StartTime int64   `json:"startTime"`
	TotalTime int64   `json:"totalTime"`
	Points    []Point `json:"points"`
}

// Deep is the itemized history: per-fund value vectors plus the fund
// metadata needed to label them.
type Deep struct {
	StartTime    int64                  `json:"startTime"`
	TotalTime    int64                  `json:"totalTime"`
	Items        []string               `json:"items"`
	Transactions [][]domain.Transaction `json:"transactions"`
	Rows         []Row                  `json:"rows"`
}

// Service builds downsampled value history from the price cache.
type Service struct {
	generations GenerationSource
	funds       FundSource
	salt        string
	detail      int // target point count
	log         zerolog.Logger
}

// NewService creates a new history service
func NewService(
	generations GenerationSource,
	fundSource FundSource,
	salt string,
	detail int,
	log zerolog.Logger,
) *Service {
	return &Service{
		generations: generations,
		funds:       fundSource,
		salt:        salt,
		detail:      detail,
		log:         log.With().Str("service", "history").Logger(),
	}
}

// userGeneration is one complete generation reduced to the observations
// belonging to one user's funds.
type userGeneration struct {
	time   int64
	values map[string]int64 // fund hash -> value at scrape time
}

// load fetches the user's funds and their generation history filtered by
// period, in chronological order. Generations containing none of the user's
// funds are dropped before downsampling, so the sequence numbering matches
// the user's own history length.
func (s *Service) load(uid int64, period string, now time.Time) ([]domain.Fund, []userGeneration, error) {
	minTime, err := ParsePeriod(period, now)
	if err != nil {
		return nil, nil, err
	}

	userFunds, err := s.funds.GetAll(uid)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get funds: %w", err)
	}

	hashes := make(map[string]bool, len(userFunds))
	for _, fund := range userFunds {
		hashes[funds.Hash(fund.Name, s.salt)] = true
	}

	generations, err := s.generations.Generations(minTime)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get generations: %w", err)
	}

	var filtered []userGeneration
	for _, generation := range generations {
		values := make(map[string]int64)
		for _, obs := range generation.Observations {
			if !hashes[obs.Hash] {
				continue
			}
			values[obs.Hash] = obs.Price.Mul(obs.Units).Round(0).IntPart()
		}
		if len(values) == 0 {
			continue
		}
		filtered = append(filtered, userGeneration{time: generation.Time, values: values})
	}

	return userFunds, filtered, nil
}

// GetShallow returns the aggregate portfolio value history, downsampled.
func (s *Service) GetShallow(uid int64, period string, now time.Time) (*Shallow, error) {
	_, generations, err := s.load(uid, period, now)
	if err != nil {
		return nil, err
	}

	result := &Shallow{Points: []Point{}}
	keep := keepIndices(len(generations), s.detail)
	for _, k := range keep {
		generation := generations[k]
		if len(result.Points) == 0 {
			result.StartTime = generation.time
		}

		var total int64
		for _, value := range generation.values {
			total += value
		}

		result.Points = append(result.Points, Point{
			Time:  generation.time - result.StartTime,
			Value: total,
		})
	}

	if n := len(result.Points); n > 0 {
		result.TotalTime = result.Points[n-1].Time
	}

	return result, nil
}

// GetDeep returns the per-fund value history, downsampled. Fund order is
// first appearance across the emitted generations; funds absent from a
// given generation carry a zero in that row.
func (s *Service) GetDeep(uid int64, period string, now time.Time) (*Deep, error) {
	userFunds, generations, err := s.load(uid, period, now)
	if err != nil {
		return nil, err
	}

	result := &Deep{
		Items:        []string{},
		Transactions: [][]domain.Transaction{},
		Rows:         []Row{},
	}

	columns := make(map[string]int) // fund hash -> column index
	keep := keepIndices(len(generations), s.detail)
	for _, k := range keep {
		generation := generations[k]
		if len(result.Rows) == 0 {
			result.StartTime = generation.time
		}

		row := make([]int64, len(columns))
		for _, fund := range userFunds {
			hash := funds.Hash(fund.Name, s.salt)
			value, present := generation.values[hash]
			if !present {
				continue
			}

			col, known := columns[hash]
			if !known {
				col = len(columns)
				columns[hash] = col
				row = append(row, 0)
				result.Items = append(result.Items, fund.Name)
				result.Transactions = append(result.Transactions, fund.Transactions)
			}
			row[col] = value
		}

		result.Rows = append(result.Rows, Row{
			Time:   generation.time - result.StartTime,
			Values: row,
		})
	}

	if n := len(result.Rows); n > 0 {
		result.TotalTime = result.Rows[n-1].Time
	}

	return result, nil
}
