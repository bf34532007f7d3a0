package repository

import (
	"database/sql"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crops004/supercontest/internal/models"
)

func TestGameRepository_Save(t *testing.T) {
	db, ctx := setupTestDB(t)
	defer teardownTestDB(t, db)

	game := &models.Game{
		OddsEventID: "ev-upsert",
		Week:        1,
		HomeTeam:    "Denver Broncos",
		AwayTeam:    "Kansas City Chiefs",
		KickoffAt:   sql.NullTime{Time: time.Date(2025, 9, 7, 17, 0, 0, 0, time.UTC), Valid: true},
	}
	game.SetHomeSpread(decimal.NewFromFloat(-3.5))

	require.NoError(t, db.Games.Save(ctx, game))
	assert.NotZero(t, game.ID, "Save should populate the id")

	retrieved, err := db.Games.GetByEventID(ctx, "ev-upsert")
	require.NoError(t, err)
	assert.Equal(t, game.ID, retrieved.ID)
	assert.Equal(t, 1, retrieved.Week)
	assert.True(t, decimal.NewFromFloat(-3.5).Equal(retrieved.SpreadHome.Decimal))
	assert.True(t, decimal.NewFromFloat(3.5).Equal(retrieved.SpreadAway.Decimal))

	// Second save with the same event id updates in place.
	game.SetHomeSpread(decimal.NewFromFloat(-4))
	game.FinalScoreHome = sql.NullInt32{Int32: 27, Valid: true}
	game.FinalScoreAway = sql.NullInt32{Int32: 20, Valid: true}
	game.Completed = true
	require.NoError(t, db.Games.Save(ctx, game))

	count, err := db.Games.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count, "upsert must not duplicate")

	updated, err := db.Games.GetByID(ctx, game.ID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromFloat(-4).Equal(updated.SpreadHome.Decimal))
	assert.Equal(t, int32(27), updated.FinalScoreHome.Int32)
	assert.True(t, updated.Completed)
}

func TestGameRepository_SaveHonorsLock(t *testing.T) {
	db, ctx := setupTestDB(t)
	defer teardownTestDB(t, db)

	game := &models.Game{
		OddsEventID: "ev-locked",
		Week:        1,
		HomeTeam:    "A",
		AwayTeam:    "B",
	}
	game.SetHomeSpread(decimal.NewFromFloat(-3))
	require.NoError(t, db.Games.Save(ctx, game))

	game.SpreadIsLocked = true
	game.SpreadLockedAt = sql.NullTime{Time: time.Now().UTC(), Valid: true}
	require.NoError(t, db.Games.Save(ctx, game))

	// An upsert carrying a moved line and an unlocked flag must change
	// neither the spread nor the lock.
	stale := &models.Game{
		OddsEventID: "ev-locked",
		Week:        1,
		HomeTeam:    "A",
		AwayTeam:    "B",
	}
	stale.SetHomeSpread(decimal.NewFromFloat(-7))
	require.NoError(t, db.Games.Save(ctx, stale))

	current, err := db.Games.GetByEventID(ctx, "ev-locked")
	require.NoError(t, err)
	assert.True(t, current.SpreadIsLocked, "lock is one-way")
	assert.True(t, decimal.NewFromFloat(-3).Equal(current.SpreadHome.Decimal), "locked spread ignores the upsert")
	assert.True(t, current.SpreadLockedAt.Valid)
}

func TestGameRepository_GetMissing(t *testing.T) {
	db, ctx := setupTestDB(t)
	defer teardownTestDB(t, db)

	_, err := db.Games.GetByEventID(ctx, "nope")
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = db.Games.GetByID(ctx, 424242)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestGameRepository_ListUnlockedThroughWeek(t *testing.T) {
	db, ctx := setupTestDB(t)
	defer teardownTestDB(t, db)

	seed := []struct {
		event  string
		week   int
		locked bool
	}{
		{"ev-w0", 0, false},
		{"ev-w1", 1, false},
		{"ev-w1-locked", 1, true},
		{"ev-w2", 2, false},
		{"ev-w5", 5, false},
	}
	for _, s := range seed {
		g := &models.Game{OddsEventID: s.event, Week: s.week, HomeTeam: "H", AwayTeam: "A", SpreadIsLocked: s.locked}
		require.NoError(t, db.Games.Save(ctx, g))
	}

	games, err := db.Games.ListUnlockedThroughWeek(ctx, 2)
	require.NoError(t, err)
	require.Len(t, games, 3)
	assert.Equal(t, "ev-w0", games[0].OddsEventID, "ordered by week")
	assert.Equal(t, "ev-w1", games[1].OddsEventID)
	assert.Equal(t, "ev-w2", games[2].OddsEventID)

	locked, err := db.Games.ListLockedGames(ctx)
	require.NoError(t, err)
	require.Len(t, locked, 1)
	assert.Equal(t, "ev-w1-locked", locked[0].OddsEventID)
}

func TestGameRepository_MaxStartedWeek(t *testing.T) {
	db, ctx := setupTestDB(t)
	defer teardownTestDB(t, db)

	now := time.Date(2025, 9, 15, 12, 0, 0, 0, time.UTC)

	// Nothing at all: week 0.
	week, err := db.Games.MaxStartedWeek(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 0, week)

	started := &models.Game{
		OddsEventID: "ev-w1", Week: 1, HomeTeam: "A", AwayTeam: "B",
		KickoffAt: sql.NullTime{Time: now.Add(-7 * 24 * time.Hour), Valid: true},
	}
	future := &models.Game{
		OddsEventID: "ev-w3", Week: 3, HomeTeam: "C", AwayTeam: "D",
		KickoffAt: sql.NullTime{Time: now.Add(7 * 24 * time.Hour), Valid: true},
	}
	require.NoError(t, db.Games.Save(ctx, started))
	require.NoError(t, db.Games.Save(ctx, future))

	week, err = db.Games.MaxStartedWeek(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 1, week, "future kickoffs do not count")
}
