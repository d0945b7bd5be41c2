package domain

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestYearMonthAddMonths(t *testing.T) {
	tests := []struct {
		name     string
		start    YearMonth
		n        int
		expected YearMonth
	}{
		{"forward within year", YearMonth{2024, 3}, 4, YearMonth{2024, 7}},
		{"forward across year", YearMonth{2024, 11}, 3, YearMonth{2025, 2}},
		{"backward within year", YearMonth{2024, 6}, -2, YearMonth{2024, 4}},
		{"backward across year", YearMonth{2024, 2}, -3, YearMonth{2023, 11}},
		{"backward multiple years", YearMonth{2024, 1}, -25, YearMonth{2021, 12}},
		{"zero", YearMonth{2024, 6}, 0, YearMonth{2024, 6}},
		{"december forward", YearMonth{2023, 12}, 1, YearMonth{2024, 1}},
		{"january backward", YearMonth{2024, 1}, -1, YearMonth{2023, 12}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.start.AddMonths(tt.n))
		})
	}
}

func TestYearMonthMonthsSince(t *testing.T) {
	assert.Equal(t, 3, YearMonth{2024, 7}.MonthsSince(YearMonth{2024, 4}))
	assert.Equal(t, -3, YearMonth{2024, 4}.MonthsSince(YearMonth{2024, 7}))
	assert.Equal(t, 14, YearMonth{2025, 2}.MonthsSince(YearMonth{2023, 12}))
	assert.Equal(t, 0, YearMonth{2024, 6}.MonthsSince(YearMonth{2024, 6}))
}

func TestYearMonthOrdering(t *testing.T) {
	assert.True(t, YearMonth{2024, 5}.Before(YearMonth{2024, 6}))
	assert.True(t, YearMonth{2024, 6}.After(YearMonth{2023, 12}))
	assert.False(t, YearMonth{2024, 6}.Before(YearMonth{2024, 6}))
	assert.Equal(t, 0, YearMonth{2024, 6}.Cmp(YearMonth{2024, 6}))
}

func TestDateJSONRoundTrip(t *testing.T) {
	d := Date{Year: 2024, Month: 4, Day: 1}

	data, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `"2024-04-01"`, string(data))

	var parsed Date
	require.NoError(t, json.Unmarshal(data, &parsed))
	assert.Equal(t, d, parsed)
}

func TestParseDateInvalid(t *testing.T) {
	_, err := ParseDate("not-a-date")
	assert.Error(t, err)
}

func TestTransactionJSON(t *testing.T) {
	tx := Transaction{
		Date:  Date{Year: 2024, Month: 4, Day: 1},
		Units: decimal.NewFromFloat(10.5),
		Cost:  1000,
	}

	data, err := json.Marshal(tx)
	require.NoError(t, err)

	var parsed Transaction
	require.NoError(t, json.Unmarshal(data, &parsed))
	assert.Equal(t, tx.Date, parsed.Date)
	assert.True(t, tx.Units.Equal(parsed.Units))
	assert.Equal(t, tx.Cost, parsed.Cost)
}

func TestFundUnitsAtExcludesLaterTransactions(t *testing.T) {
	fund := Fund{
		Name: "Test fund accumulation",
		Transactions: []Transaction{
			{Date: Date{2024, 4, 1}, Units: decimal.NewFromInt(10), Cost: 1000},
			{Date: Date{2024, 8, 15}, Units: decimal.NewFromInt(5), Cost: 600},
		},
	}

	assert.True(t, fund.UnitsAt(YearMonth{2024, 6}).Equal(decimal.NewFromInt(10)))
	assert.True(t, fund.UnitsAt(YearMonth{2024, 8}).Equal(decimal.NewFromInt(15)))
	assert.True(t, fund.UnitsAt(YearMonth{2024, 3}).IsZero())

	assert.Equal(t, int64(1000), fund.CostAt(YearMonth{2024, 6}))
	assert.Equal(t, int64(1600), fund.CostAt(YearMonth{2024, 12}))
	assert.Equal(t, int64(0), fund.CostAt(YearMonth{2023, 12}))
}

func TestFundTotals(t *testing.T) {
	fund := Fund{
		Transactions: []Transaction{
			{Date: Date{2024, 1, 5}, Units: decimal.NewFromInt(100), Cost: 50000},
			{Date: Date{2024, 3, 5}, Units: decimal.NewFromInt(-100), Cost: -52000},
		},
	}

	assert.True(t, fund.TotalUnits().IsZero())
	assert.Equal(t, int64(-2000), fund.TotalCost())
}
