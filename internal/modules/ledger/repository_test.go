package ledger

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mjwhite/moneta/internal/domain"
	moneta_testing "github.com/mjwhite/moneta/internal/testing"
)

func newTestRepo(t *testing.T) *Repository {
	db, cleanup := moneta_testing.NewTestDB(t, "ledger")
	t.Cleanup(cleanup)
	log := zerolog.New(nil).Level(zerolog.Disabled)
	return NewRepository(db.Conn(), log)
}

func TestRepositoryRoundTrip(t *testing.T) {
	repo := newTestRepo(t)

	id, err := repo.Create("food", 1, Row{
		Date: domain.Date{Year: 2024, Month: 6, Day: 15},
		Item: "weekly shop",
		Cost: 4250,
		Tags: map[string]string{"category": "groceries", "shop": "corner shop"},
	})
	require.NoError(t, err)
	assert.Greater(t, id, int64(0))

	rows, err := repo.List("food", 1)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	row := rows[0]
	assert.Equal(t, id, row.ID)
	assert.Equal(t, "weekly shop", row.Item)
	assert.Equal(t, int64(4250), row.Cost)
	assert.Equal(t, "groceries", row.Tags["category"])
	assert.Equal(t, "corner shop", row.Tags["shop"])
}

func TestRepositoryRejectsUnknownCategory(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.List("funds; DROP TABLE funds", 1)
	assert.ErrorIs(t, err, domain.ErrBadRequest)

	_, err = repo.Create("savings", 1, Row{})
	assert.ErrorIs(t, err, domain.ErrBadRequest)
}

func TestRepositoryUpdate(t *testing.T) {
	repo := newTestRepo(t)

	id, err := repo.Create("bills", 1, Row{
		Date: domain.Date{Year: 2024, Month: 6, Day: 1},
		Item: "rent",
		Cost: 80000,
	})
	require.NoError(t, err)

	err = repo.Update("bills", 1, Row{
		ID:   id,
		Date: domain.Date{Year: 2024, Month: 6, Day: 1},
		Item: "rent",
		Cost: 82000,
	})
	require.NoError(t, err)

	rows, err := repo.List("bills", 1)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(82000), rows[0].Cost)

	err = repo.Update("bills", 1, Row{ID: 9999, Item: "rent"})
	assert.ErrorIs(t, err, domain.ErrBadRequest)
}

func TestRepositoryDelete(t *testing.T) {
	repo := newTestRepo(t)

	id, err := repo.Create("income", 1, Row{
		Date: domain.Date{Year: 2024, Month: 6, Day: 28},
		Item: "salary",
		Cost: 250000,
	})
	require.NoError(t, err)

	require.NoError(t, repo.Delete("income", 1, id))

	rows, err := repo.List("income", 1)
	require.NoError(t, err)
	assert.Empty(t, rows)

	err = repo.Delete("income", 1, id)
	assert.ErrorIs(t, err, domain.ErrBadRequest)
}

func TestRepositoryListScopedToUser(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.Create("general", 1, Row{
		Date: domain.Date{Year: 2024, Month: 6, Day: 2},
		Item: "mine",
		Cost: 100,
	})
	require.NoError(t, err)
	_, err = repo.Create("general", 2, Row{
		Date: domain.Date{Year: 2024, Month: 6, Day: 3},
		Item: "theirs",
		Cost: 200,
	})
	require.NoError(t, err)

	rows, err := repo.List("general", 1)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "mine", rows[0].Item)
}

func TestUpsertBalance(t *testing.T) {
	repo := newTestRepo(t)
	ym := domain.YearMonth{Year: 2024, Month: 6}

	require.NoError(t, repo.UpsertBalance(1, ym, 500000))
	// second write for the same month replaces, not duplicates
	require.NoError(t, repo.UpsertBalance(1, ym, 510000))

	err := repo.UpsertBalance(1, domain.YearMonth{Year: 2024, Month: 13}, 100)
	assert.ErrorIs(t, err, domain.ErrBadRequest)
}
