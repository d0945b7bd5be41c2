package overview

import (
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat"

	"github.com/mjwhite/moneta/internal/config"
	"github.com/mjwhite/moneta/internal/domain"
	"github.com/mjwhite/moneta/internal/modules/funds"
	"github.com/mjwhite/moneta/internal/modules/pricecache"
)

// LedgerSource provides category sums and balance actuals.
// Satisfied by the overview repository.
type LedgerSource interface {
	MonthlySums(category string, uid int64) ([]MonthSum, error)
	Balances(uid int64) ([]BalanceRow, error)
}

// FundSource provides a user's funds with their transaction ledgers.
type FundSource interface {
	GetAll(uid int64) ([]domain.Fund, error)
}

// GenerationSource provides the complete price generations for building
// per-fund price series.
type GenerationSource interface {
	Generations(minTime int64) ([]pricecache.Generation, error)
}

// Overview is the full month-by-month budget view. Cost carries one value
// vector per category (plus the aggregated funds row), indexed by window
// bucket. Discretionary categories hold forecast means at and after the
// future key; bills and income are always actual.
type Overview struct {
	StartYearMonth domain.YearMonth   `json:"startYearMonth"`
	EndYearMonth   domain.YearMonth   `json:"endYearMonth"`
	CurrentYear    int                `json:"currentYear"`
	CurrentMonth   int                `json:"currentMonth"`
	FutureMonths   int                `json:"futureMonths"`
	Cost           map[string][]int64 `json:"cost"`
	Balance        []int64            `json:"balance"`
	Old            []int64            `json:"old"`
	Net            []int64            `json:"net"`
	Predicted      []int64            `json:"predicted"`
}

// Service computes the budget overview.
type Service struct {
	ledger      LedgerSource
	funds       FundSource
	generations GenerationSource
	app         config.AppConfig
	log         zerolog.Logger
}

// NewService creates a new overview service
func NewService(
	ledger LedgerSource,
	fundSource FundSource,
	generations GenerationSource,
	app config.AppConfig,
	log zerolog.Logger,
) *Service {
	return &Service{
		ledger:      ledger,
		funds:       fundSource,
		generations: generations,
		app:         app,
		log:         log.With().Str("service", "overview").Logger(),
	}
}

// Compute builds the overview for one user. Any store failure aborts the
// whole computation; there is no partial overview.
func (s *Service) Compute(uid int64, now time.Time) (*Overview, error) {
	nowYM := domain.YearMonth{Year: now.Year(), Month: int(now.Month())}
	window := BuildWindow(s.app.PastMonths, s.app.FutureMonths, nowYM, s.app.Epoch())
	futureKey := FutureKey(window, nowYM)

	cost := make(map[string][]int64, len(s.app.Categories)+1)
	for _, category := range s.app.Categories {
		sums, err := s.ledger.MonthlySums(category, uid)
		if err != nil {
			return nil, fmt.Errorf("failed to sum %s: %w", category, err)
		}
		cost[category] = bucketizeSums(window, sums)
	}

	fundsRow, err := s.fundValues(uid, window)
	if err != nil {
		return nil, err
	}
	cost["funds"] = fundsRow

	s.applyForecast(cost, futureKey, len(window))

	net := make([]int64, len(window))
	for i := range window {
		var out int64
		for _, category := range s.app.Categories {
			if category == "income" {
				continue
			}
			out += cost[category][i]
		}
		net[i] = cost["income"][i] - out
	}

	balance, old, seed, err := s.balances(uid, window)
	if err != nil {
		return nil, err
	}

	predicted := make([]int64, len(window))
	for i := range window {
		var prev int64
		switch {
		case i == 0:
			prev = seed
		case i-1 < futureKey && balance[i-1] != 0:
			// reset from the recorded actual while actuals exist
			prev = balance[i-1]
		default:
			prev = predicted[i-1]
		}
		predicted[i] = prev + net[i]
	}

	result := &Overview{
		CurrentYear:  nowYM.Year,
		CurrentMonth: nowYM.Month,
		FutureMonths: s.app.FutureMonths,
		Cost:         cost,
		Balance:      balance,
		Old:          old,
		Net:          net,
		Predicted:    predicted,
	}
	if len(window) > 0 {
		result.StartYearMonth = window[0]
		result.EndYearMonth = window[len(window)-1]
	}
	return result, nil
}

// fundValues computes the aggregate portfolio value per bucket from the
// users' transaction ledgers and the cached price series.
func (s *Service) fundValues(uid int64, window []domain.YearMonth) ([]int64, error) {
	userFunds, err := s.funds.GetAll(uid)
	if err != nil {
		return nil, fmt.Errorf("failed to get funds: %w", err)
	}

	generations, err := s.generations.Generations(0)
	if err != nil {
		return nil, fmt.Errorf("failed to get generations: %w", err)
	}

	// one ascending price series per fund hash; within a month the latest
	// scrape wins
	series := make(map[string]funds.PriceSeries)
	for _, generation := range generations {
		t := time.Unix(generation.Time, 0).UTC()
		ym := domain.YearMonth{Year: t.Year(), Month: int(t.Month())}
		for _, obs := range generation.Observations {
			series[obs.Hash] = append(series[obs.Hash], funds.PricePoint{
				YearMonth: ym,
				Price:     obs.Price,
			})
		}
	}

	values := make([]int64, len(window))
	for i, ym := range window {
		var total int64
		for _, fund := range userFunds {
			total += funds.ValueAt(fund, ym, series[funds.Hash(fund.Name, s.app.FundSalt)])
		}
		values[i] = total
	}
	return values, nil
}

// applyForecast substitutes each discretionary category's historical mean
// over [0, futureKey) for every bucket at or after futureKey.
func (s *Service) applyForecast(cost map[string][]int64, futureKey, n int) {
	if futureKey <= 0 || futureKey >= n {
		return
	}
	for _, category := range s.app.FutureCats {
		values, ok := cost[category]
		if !ok {
			continue
		}
		sample := make([]float64, futureKey)
		for i := 0; i < futureKey; i++ {
			sample[i] = float64(values[i])
		}
		mean := int64(math.Round(stat.Mean(sample, nil)))
		for i := futureKey; i < len(values); i++ {
			values[i] = mean
		}
	}
}

// balances splits the recorded balance actuals into the in-window dense
// vector, the dense pre-window tail, and the seed value (the last actual
// before the window, zero if none).
func (s *Service) balances(uid int64, window []domain.YearMonth) ([]int64, []int64, int64, error) {
	rows, err := s.ledger.Balances(uid)
	if err != nil {
		return nil, nil, 0, fmt.Errorf("failed to get balances: %w", err)
	}

	balance := make([]int64, len(window))
	var old []int64
	var seed int64

	if len(window) == 0 {
		return balance, old, seed, nil
	}
	start := window[0]

	var oldRows []BalanceRow
	index := make(map[domain.YearMonth]int, len(window))
	for i, ym := range window {
		index[ym] = i
	}
	for _, row := range rows {
		if row.YearMonth.Before(start) {
			oldRows = append(oldRows, row)
			seed = row.Balance
			continue
		}
		if i, ok := index[row.YearMonth]; ok {
			balance[i] = row.Balance
		}
	}

	// dense pre-window series from the earliest recorded actual, months
	// without an entry carry zero
	if len(oldRows) > 0 {
		first := oldRows[0].YearMonth
		old = make([]int64, start.MonthsSince(first))
		for _, row := range oldRows {
			old[row.YearMonth.MonthsSince(first)] = row.Balance
		}
	}

	return balance, old, seed, nil
}

// bucketizeSums places the group-by-month sums into the window's index
// space; months without rows carry zero, rows outside the window are
// dropped.
func bucketizeSums(window []domain.YearMonth, sums []MonthSum) []int64 {
	values := make([]int64, len(window))
	if len(window) == 0 {
		return values
	}
	index := make(map[domain.YearMonth]int, len(window))
	for i, ym := range window {
		index[ym] = i
	}
	for _, sum := range sums {
		if i, ok := index[sum.YearMonth]; ok {
			values[i] = sum.Cost
		}
	}
	return values
}
