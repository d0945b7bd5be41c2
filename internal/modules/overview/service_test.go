package overview

import (
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mjwhite/moneta/internal/config"
	"github.com/mjwhite/moneta/internal/domain"
	"github.com/mjwhite/moneta/internal/modules/funds"
	"github.com/mjwhite/moneta/internal/modules/pricecache"
)

const testSalt = "testsalt"

type fakeLedger struct {
	sums     map[string][]MonthSum
	balances []BalanceRow
	fail     bool
}

func (f *fakeLedger) MonthlySums(category string, uid int64) ([]MonthSum, error) {
	if f.fail {
		return nil, errors.New("ledger unavailable")
	}
	return f.sums[category], nil
}

func (f *fakeLedger) Balances(uid int64) ([]BalanceRow, error) {
	if f.fail {
		return nil, errors.New("ledger unavailable")
	}
	return f.balances, nil
}

type fakeFunds struct {
	funds []domain.Fund
}

func (f *fakeFunds) GetAll(uid int64) ([]domain.Fund, error) { return f.funds, nil }

type fakeGenerations struct {
	generations []pricecache.Generation
}

func (f *fakeGenerations) Generations(minTime int64) ([]pricecache.Generation, error) {
	return f.generations, nil
}

func testAppConfig() config.AppConfig {
	return config.AppConfig{
		EpochYear:    2014,
		EpochMonth:   9,
		PastMonths:   3,
		FutureMonths: 2,
		Categories:   []string{"income", "bills", "food"},
		FutureCats:   []string{"food"},
		FundSalt:     testSalt,
	}
}

func sumsFor(values map[domain.YearMonth]int64) []MonthSum {
	var sums []MonthSum
	for ym, cost := range values {
		sums = append(sums, MonthSum{YearMonth: ym, Cost: cost})
	}
	return sums
}

func newTestOverviewService(ledger *fakeLedger, userFunds []domain.Fund, gens []pricecache.Generation) *Service {
	log := zerolog.New(nil).Level(zerolog.Disabled)
	return NewService(ledger, &fakeFunds{funds: userFunds}, &fakeGenerations{generations: gens}, testAppConfig(), log)
}

// June 2024: window 2024-03 .. 2024-08, future key 4 (2024-07 onwards).
var testNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func TestComputeActualsBeforeFutureKey(t *testing.T) {
	ledger := &fakeLedger{sums: map[string][]MonthSum{
		"income": sumsFor(map[domain.YearMonth]int64{
			{Year: 2024, Month: 3}: 2000,
			{Year: 2024, Month: 4}: 2000,
			{Year: 2024, Month: 5}: 2100,
			{Year: 2024, Month: 6}: 2100,
		}),
		"bills": sumsFor(map[domain.YearMonth]int64{
			{Year: 2024, Month: 3}: 500,
			{Year: 2024, Month: 5}: 520,
		}),
		"food": sumsFor(map[domain.YearMonth]int64{
			{Year: 2024, Month: 3}: 100,
			{Year: 2024, Month: 4}: 200,
			{Year: 2024, Month: 5}: 300,
			{Year: 2024, Month: 6}: 400,
		}),
	}}
	svc := newTestOverviewService(ledger, nil, nil)

	overview, err := svc.Compute(1, testNow)
	require.NoError(t, err)

	assert.Equal(t, domain.YearMonth{Year: 2024, Month: 3}, overview.StartYearMonth)
	assert.Equal(t, domain.YearMonth{Year: 2024, Month: 8}, overview.EndYearMonth)
	assert.Equal(t, 2024, overview.CurrentYear)
	assert.Equal(t, 6, overview.CurrentMonth)
	assert.Equal(t, 2, overview.FutureMonths)

	// buckets before the future key carry the ledger sums untouched
	assert.Equal(t, []int64{2000, 2000, 2100, 2100, 0, 0}, overview.Cost["income"])
	assert.Equal(t, []int64{500, 0, 520, 0, 0, 0}, overview.Cost["bills"])
	assert.Equal(t, []int64{100, 200, 300, 400}, overview.Cost["food"][:4])
}

func TestComputeForecastSubstitutesHistoricalMean(t *testing.T) {
	ledger := &fakeLedger{sums: map[string][]MonthSum{
		"food": sumsFor(map[domain.YearMonth]int64{
			{Year: 2024, Month: 3}: 100,
			{Year: 2024, Month: 4}: 200,
			{Year: 2024, Month: 5}: 300,
			{Year: 2024, Month: 6}: 400,
		}),
	}}
	svc := newTestOverviewService(ledger, nil, nil)

	overview, err := svc.Compute(1, testNow)
	require.NoError(t, err)

	// mean over the four actual buckets = 250, substituted from index 4 on
	assert.Equal(t, []int64{100, 200, 300, 400, 250, 250}, overview.Cost["food"])
	// income is never averaged: future buckets stay at whatever is recorded
	assert.Equal(t, []int64{0, 0}, overview.Cost["income"][4:])
}

func TestComputeNet(t *testing.T) {
	ledger := &fakeLedger{sums: map[string][]MonthSum{
		"income": sumsFor(map[domain.YearMonth]int64{{Year: 2024, Month: 3}: 2000}),
		"bills":  sumsFor(map[domain.YearMonth]int64{{Year: 2024, Month: 3}: 500}),
		"food":   sumsFor(map[domain.YearMonth]int64{{Year: 2024, Month: 3}: 300}),
	}}
	svc := newTestOverviewService(ledger, nil, nil)

	overview, err := svc.Compute(1, testNow)
	require.NoError(t, err)

	assert.Equal(t, int64(1200), overview.Net[0])
	// food forecast mean = round(300/4) = 75, no income or bills recorded
	assert.Equal(t, int64(-75), overview.Net[4])
}

func TestComputeBalanceRecursion(t *testing.T) {
	ledger := &fakeLedger{sums: map[string][]MonthSum{
		"income": sumsFor(map[domain.YearMonth]int64{
			{Year: 2024, Month: 3}: 100,
			{Year: 2024, Month: 4}: 200,
			{Year: 2024, Month: 5}: 50,
		}),
	}}
	svc := newTestOverviewService(ledger, nil, nil)

	overview, err := svc.Compute(1, testNow)
	require.NoError(t, err)

	// no recorded balances: pure recursion from a zero seed
	for i := 1; i < len(overview.Predicted); i++ {
		assert.Equal(t, overview.Predicted[i-1]+overview.Net[i], overview.Predicted[i], "i=%d", i)
	}
	assert.Equal(t, overview.Net[0], overview.Predicted[0])
}

func TestComputePredictedResetsFromActualBalance(t *testing.T) {
	ledger := &fakeLedger{
		sums: map[string][]MonthSum{
			"income": sumsFor(map[domain.YearMonth]int64{
				{Year: 2024, Month: 4}: 100,
				{Year: 2024, Month: 5}: 100,
			}),
		},
		balances: []BalanceRow{
			{YearMonth: domain.YearMonth{Year: 2024, Month: 4}, Balance: 5000},
		},
	}
	svc := newTestOverviewService(ledger, nil, nil)

	overview, err := svc.Compute(1, testNow)
	require.NoError(t, err)

	// the 2024-05 prediction restarts from the recorded 2024-04 actual
	assert.Equal(t, []int64{0, 5000, 0, 0, 0, 0}, overview.Balance)
	assert.Equal(t, int64(5100), overview.Predicted[2])
	// later buckets continue recursively from there
	assert.Equal(t, int64(5100), overview.Predicted[3])
}

func TestComputeSeedsFromPreWindowBalance(t *testing.T) {
	ledger := &fakeLedger{
		balances: []BalanceRow{
			{YearMonth: domain.YearMonth{Year: 2024, Month: 1}, Balance: 3000},
			{YearMonth: domain.YearMonth{Year: 2024, Month: 2}, Balance: 3200},
		},
	}
	svc := newTestOverviewService(ledger, nil, nil)

	overview, err := svc.Compute(1, testNow)
	require.NoError(t, err)

	// last actual before the window seeds the prediction
	assert.Equal(t, int64(3200), overview.Predicted[0])
	// pre-window actuals are reported densely from the first recorded month
	assert.Equal(t, []int64{3000, 3200}, overview.Old)
}

func TestComputeFundsRow(t *testing.T) {
	fund := domain.Fund{Name: "fund a", Transactions: []domain.Transaction{
		{Date: domain.Date{Year: 2024, Month: 3, Day: 10}, Units: decimal.NewFromInt(10), Cost: 1000},
		{Date: domain.Date{Year: 2024, Month: 5, Day: 10}, Units: decimal.NewFromInt(10), Cost: 1100},
	}}
	gens := []pricecache.Generation{
		{ID: 1, Time: time.Date(2024, 4, 2, 0, 0, 0, 0, time.UTC).Unix(), Observations: []pricecache.Observation{
			{Hash: funds.Hash("fund a", testSalt), Price: decimal.NewFromInt(120), Units: decimal.NewFromInt(10)},
		}},
	}
	svc := newTestOverviewService(&fakeLedger{}, []domain.Fund{fund}, gens)

	overview, err := svc.Compute(1, testNow)
	require.NoError(t, err)

	fundsRow := overview.Cost["funds"]
	require.Len(t, fundsRow, 6)
	// 2024-03: no price yet, cost basis
	assert.Equal(t, int64(1000), fundsRow[0])
	// 2024-04: priced, 10 units at 120
	assert.Equal(t, int64(1200), fundsRow[1])
	// 2024-05: second purchase, price carried forward
	assert.Equal(t, int64(2400), fundsRow[2])
}

func TestComputeCostBasisScenario(t *testing.T) {
	fund := domain.Fund{Name: "fund a", Transactions: []domain.Transaction{
		{Date: domain.Date{Year: 2024, Month: 4, Day: 1}, Units: decimal.NewFromInt(10), Cost: 1000},
	}}
	svc := newTestOverviewService(&fakeLedger{}, []domain.Fund{fund}, nil)

	app := testAppConfig()
	app.PastMonths = 2
	app.FutureMonths = 1
	svc.app = app

	overview, err := svc.Compute(1, testNow)
	require.NoError(t, err)

	assert.Equal(t, []int64{1000, 1000, 1000, 1000}, overview.Cost["funds"])
}

func TestComputeAbortsOnLedgerFailure(t *testing.T) {
	svc := newTestOverviewService(&fakeLedger{fail: true}, nil, nil)

	_, err := svc.Compute(1, testNow)
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrBadRequest)
}
