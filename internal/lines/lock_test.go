package lines

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crops004/supercontest/internal/models"
	"github.com/crops004/supercontest/internal/week"
)

type fakeStore struct {
	games map[int]*models.Game
	rows  map[string]*models.TeamGameATS
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		games: make(map[int]*models.Game),
		rows:  make(map[string]*models.TeamGameATS),
	}
}

func (f *fakeStore) ListUnlockedThroughWeek(_ context.Context, throughWeek int) ([]*models.Game, error) {
	var out []*models.Game
	for _, g := range f.games {
		if g.Week <= throughWeek && !g.SpreadIsLocked {
			out = append(out, g)
		}
	}
	return out, nil
}

func (f *fakeStore) ListLockedGames(_ context.Context) ([]*models.Game, error) {
	var out []*models.Game
	for _, g := range f.games {
		if g.SpreadIsLocked {
			out = append(out, g)
		}
	}
	return out, nil
}

func (f *fakeStore) SaveGame(_ context.Context, game *models.Game) error {
	cp := *game
	f.games[game.ID] = &cp
	return nil
}

func (f *fakeStore) GetATSRow(_ context.Context, gameID int, team string) (*models.TeamGameATS, error) {
	row, ok := f.rows[fmt.Sprintf("%d/%s", gameID, team)]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *row
	return &cp, nil
}

func (f *fakeStore) SaveATSRow(_ context.Context, row *models.TeamGameATS) error {
	cp := *row
	f.rows[fmt.Sprintf("%d/%s", row.GameID, row.Team)] = &cp
	return nil
}

func (f *fakeStore) addGame(id, wk int, homeSpread *float64, locked bool) *models.Game {
	g := &models.Game{
		ID:             id,
		OddsEventID:    fmt.Sprintf("ev%d", id),
		Week:           wk,
		HomeTeam:       fmt.Sprintf("Home %d", id),
		AwayTeam:       fmt.Sprintf("Away %d", id),
		SpreadIsLocked: locked,
	}
	if homeSpread != nil {
		g.SetHomeSpread(decimal.NewFromFloat(*homeSpread))
	}
	f.games[id] = g
	return g
}

func fptr(v float64) *float64 { return &v }

var testAnchor = time.Date(2025, 9, 4, 0, 0, 0, 0, time.UTC)

func TestService_LockWeeksThroughCurrent(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	svc := NewService(store, week.NewClock(testAnchor))

	store.addGame(1, 0, fptr(-2), false) // preseason
	store.addGame(2, 1, fptr(-3), false)
	store.addGame(3, 2, fptr(-7), false)
	store.addGame(4, 5, fptr(-1), false) // future week, untouched
	store.addGame(5, 1, fptr(-4), true)  // already locked

	now := testAnchor.Add(8 * 24 * time.Hour) // inside week 2
	res, err := svc.LockWeeksThroughCurrent(ctx, now, "draftkings")
	require.NoError(t, err)

	assert.Equal(t, 2, res.WeekNow)
	assert.Equal(t, 3, res.Locked, "weeks 0 through 2 inclusive, skipping already locked")

	for _, id := range []int{1, 2, 3} {
		g := store.games[id]
		assert.True(t, g.SpreadIsLocked, "game %d should be locked", id)
		require.True(t, g.SpreadLockedAt.Valid)
		assert.Equal(t, now.UTC(), g.SpreadLockedAt.Time)

		// Both snapshot rows exist.
		_, err := store.GetATSRow(ctx, id, g.HomeTeam)
		assert.NoError(t, err)
		_, err = store.GetATSRow(ctx, id, g.AwayTeam)
		assert.NoError(t, err)
	}

	assert.False(t, store.games[4].SpreadIsLocked, "future week must stay open")
}

func TestService_LockWeeksThroughCurrent_Monotonic(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	svc := NewService(store, week.NewClock(testAnchor))

	store.addGame(1, 1, fptr(-3), false)

	now := testAnchor.Add(24 * time.Hour)
	res, err := svc.LockWeeksThroughCurrent(ctx, now, "draftkings")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Locked)

	// Second run locks nothing and unlocks nothing.
	res, err = svc.LockWeeksThroughCurrent(ctx, now.Add(time.Hour), "draftkings")
	require.NoError(t, err)
	assert.Equal(t, 0, res.Locked)
	assert.True(t, store.games[1].SpreadIsLocked)
}

func TestService_SnapshotClosingLines(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	svc := NewService(store, week.NewClock(testAnchor))

	game := store.addGame(1, 1, fptr(-3.5), false)
	require.NoError(t, svc.SnapshotClosingLines(ctx, game, "draftkings"))

	home, err := store.GetATSRow(ctx, 1, game.HomeTeam)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromFloat(-3.5).Equal(home.ClosingSpread.Decimal))
	assert.True(t, home.IsHome)
	assert.Equal(t, game.AwayTeam, home.Opponent)
	assert.Equal(t, "draftkings", home.LineSource.String)

	away, err := store.GetATSRow(ctx, 1, game.AwayTeam)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromFloat(3.5).Equal(away.ClosingSpread.Decimal), "sides snapshot as additive inverses")
	assert.False(t, away.IsHome)
}

func TestService_SnapshotClosingLines_NoSpreadBecomesPickEm(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	svc := NewService(store, week.NewClock(testAnchor))

	game := store.addGame(1, 1, nil, false)
	require.NoError(t, svc.SnapshotClosingLines(ctx, game, "draftkings"))

	home, err := store.GetATSRow(ctx, 1, game.HomeTeam)
	require.NoError(t, err)
	require.True(t, home.ClosingSpread.Valid)
	assert.True(t, home.ClosingSpread.Decimal.IsZero(), "absent line snapshots as zero, not as an error")
}

func TestService_SnapshotClosingLines_LastWriteWins(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	svc := NewService(store, week.NewClock(testAnchor))

	game := store.addGame(1, 1, fptr(-3), false)
	require.NoError(t, svc.SnapshotClosingLines(ctx, game, "draftkings"))

	game.SetHomeSpread(decimal.NewFromFloat(-4.5))
	require.NoError(t, svc.SnapshotClosingLines(ctx, game, "draftkings"))

	home, err := store.GetATSRow(ctx, 1, game.HomeTeam)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromFloat(-4.5).Equal(home.ClosingSpread.Decimal))
}

func TestService_SnapshotLocked(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	svc := NewService(store, week.NewClock(testAnchor))

	store.addGame(1, 1, fptr(-3), true)
	store.addGame(2, 1, fptr(2), true)
	store.addGame(3, 2, fptr(-6), false) // unlocked, skipped

	count, err := svc.SnapshotLocked(ctx, "draftkings")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Len(t, store.rows, 4)
}
