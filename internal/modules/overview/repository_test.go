package overview

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mjwhite/moneta/internal/domain"
	moneta_testing "github.com/mjwhite/moneta/internal/testing"
)

var testCategories = []string{"income", "bills", "food", "general", "holiday", "social"}

func newTestRepository(t *testing.T) *Repository {
	db, cleanup := moneta_testing.NewTestDB(t, "ledger")
	t.Cleanup(cleanup)

	log := zerolog.New(nil).Level(zerolog.Disabled)
	repo := NewRepository(db.Conn(), testCategories, log)

	insert := func(query string, args ...interface{}) {
		_, err := db.Conn().Exec(query, args...)
		require.NoError(t, err)
	}
	insert(`INSERT INTO food (uid, year, month, date, item, cost) VALUES (1, 2024, 5, 1, 'shop', 100)`)
	insert(`INSERT INTO food (uid, year, month, date, item, cost) VALUES (1, 2024, 5, 15, 'shop', 150)`)
	insert(`INSERT INTO food (uid, year, month, date, item, cost) VALUES (1, 2024, 6, 2, 'shop', 200)`)
	insert(`INSERT INTO food (uid, year, month, date, item, cost) VALUES (2, 2024, 5, 3, 'not mine', 999)`)
	insert(`INSERT INTO balance (uid, year, month, balance) VALUES (1, 2024, 4, 4000)`)
	insert(`INSERT INTO balance (uid, year, month, balance) VALUES (1, 2024, 6, 4500)`)

	return repo
}

func TestMonthlySumsGroupsByMonth(t *testing.T) {
	repo := newTestRepository(t)

	sums, err := repo.MonthlySums("food", 1)
	require.NoError(t, err)

	expected := []MonthSum{
		{YearMonth: domain.YearMonth{Year: 2024, Month: 5}, Cost: 250},
		{YearMonth: domain.YearMonth{Year: 2024, Month: 6}, Cost: 200},
	}
	assert.Equal(t, expected, sums)
}

func TestMonthlySumsRejectsUnknownCategory(t *testing.T) {
	repo := newTestRepository(t)

	_, err := repo.MonthlySums("food; DROP TABLE food", 1)
	assert.ErrorIs(t, err, domain.ErrBadRequest)
}

func TestBalancesChronological(t *testing.T) {
	repo := newTestRepository(t)

	balances, err := repo.Balances(1)
	require.NoError(t, err)

	expected := []BalanceRow{
		{YearMonth: domain.YearMonth{Year: 2024, Month: 4}, Balance: 4000},
		{YearMonth: domain.YearMonth{Year: 2024, Month: 6}, Balance: 4500},
	}
	assert.Equal(t, expected, balances)
}
