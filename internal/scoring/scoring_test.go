package scoring

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crops004/supercontest/internal/models"
)

func gradedRow(gameID int, team, result string) *models.TeamGameATS {
	return &models.TeamGameATS{
		GameID:    gameID,
		Team:      team,
		ATSResult: sql.NullString{String: result, Valid: true},
	}
}

func finalGame(id int, homeSpread float64, homeScore, awayScore int) *models.Game {
	g := &models.Game{
		ID:             id,
		HomeTeam:       "Denver Broncos",
		AwayTeam:       "Kansas City Chiefs",
		FinalScoreHome: sql.NullInt32{Int32: int32(homeScore), Valid: true},
		FinalScoreAway: sql.NullInt32{Int32: int32(awayScore), Valid: true},
	}
	g.SetHomeSpread(decimal.NewFromFloat(homeSpread))
	return g
}

func TestPointsForPick_GradedRowWins(t *testing.T) {
	game := finalGame(1, -3, 20, 24) // live grading would say away side

	// The frozen row says COVER; it must take precedence over recomputing.
	pick := &models.Pick{UserID: 1, GameID: 1, ChosenTeam: game.HomeTeam}
	points, ok := PointsForPick(pick, game, gradedRow(1, game.HomeTeam, models.ATSCover))
	require.True(t, ok)
	assert.Equal(t, 1.0, points)

	points, ok = PointsForPick(pick, game, gradedRow(1, game.HomeTeam, models.ATSPush))
	require.True(t, ok)
	assert.Equal(t, 0.5, points)

	points, ok = PointsForPick(pick, game, gradedRow(1, game.HomeTeam, models.ATSNoCover))
	require.True(t, ok)
	assert.Equal(t, 0.0, points)
}

func TestPointsForPick_LiveFallback(t *testing.T) {
	game := finalGame(1, -3, 27, 20) // home covers

	homePick := &models.Pick{ChosenTeam: game.HomeTeam}
	points, ok := PointsForPick(homePick, game, nil)
	require.True(t, ok)
	assert.Equal(t, 1.0, points)

	awayPick := &models.Pick{ChosenTeam: game.AwayTeam}
	points, ok = PointsForPick(awayPick, game, nil)
	require.True(t, ok)
	assert.Equal(t, 0.0, points)
}

func TestPointsForPick_PushSplitsBothSides(t *testing.T) {
	game := finalGame(1, -3, 24, 21)

	for _, team := range []string{game.HomeTeam, game.AwayTeam} {
		points, ok := PointsForPick(&models.Pick{ChosenTeam: team}, game, nil)
		require.True(t, ok)
		assert.Equal(t, 0.5, points)
	}
}

func TestPointsForPick_UnknownTeamFailsSafeToLoss(t *testing.T) {
	game := finalGame(1, -3, 27, 20)

	pick := &models.Pick{ChosenTeam: "Las Vegas Raiders"}
	points, ok := PointsForPick(pick, game, nil)
	require.True(t, ok, "a mismatched pick still grades")
	assert.Equal(t, 0.0, points, "never a free win from a team mismatch")
}

func TestPointsForPick_UngradedGame(t *testing.T) {
	game := &models.Game{ID: 1, HomeTeam: "A", AwayTeam: "B"}
	_, ok := PointsForPick(&models.Pick{ChosenTeam: "A"}, game, nil)
	assert.False(t, ok)
}

func TestRecord_Add(t *testing.T) {
	var r Record
	r.Add(1.0)
	r.Add(1.0)
	r.Add(0.5)
	r.Add(0.0)

	assert.Equal(t, 2, r.Wins)
	assert.Equal(t, 1, r.Pushes)
	assert.Equal(t, 1, r.Losses)
	assert.Equal(t, 2.5, r.Points)
}

// fakeStore is an in-memory Store for aggregator tests.
type fakeStore struct {
	users []*models.User
	picks map[int][]*models.Pick // by week
	games map[int]*models.Game
	rows  map[string]*models.TeamGameATS
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		picks: make(map[int][]*models.Pick),
		games: make(map[int]*models.Game),
		rows:  make(map[string]*models.TeamGameATS),
	}
}

func (f *fakeStore) ListUsers(_ context.Context) ([]*models.User, error) {
	return f.users, nil
}

func (f *fakeStore) ListPicksThroughWeek(_ context.Context, week int) ([]*models.Pick, error) {
	var out []*models.Pick
	for w, picks := range f.picks {
		if w <= week {
			out = append(out, picks...)
		}
	}
	return out, nil
}

func (f *fakeStore) ListPicksForWeek(_ context.Context, week int) ([]*models.Pick, error) {
	return f.picks[week], nil
}

func (f *fakeStore) CountPicksForUserWeek(_ context.Context, userID, week int) (int, error) {
	n := 0
	for _, p := range f.picks[week] {
		if p.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) GetGame(_ context.Context, id int) (*models.Game, error) {
	g, ok := f.games[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return g, nil
}

func (f *fakeStore) GetATSRow(_ context.Context, gameID int, team string) (*models.TeamGameATS, error) {
	row, ok := f.rows[fmt.Sprintf("%d/%s", gameID, team)]
	if !ok {
		return nil, models.ErrNotFound
	}
	return row, nil
}

func (f *fakeStore) addRow(row *models.TeamGameATS) {
	f.rows[fmt.Sprintf("%d/%s", row.GameID, row.Team)] = row
}

func TestAggregator_Standings(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	store.users = []*models.User{
		{ID: 1, Username: "alice"},
		{ID: 2, Username: "bob"},
	}

	// Week 1: home covered. Week 2: push. Week 3 not graded yet.
	g1 := finalGame(1, -3, 27, 20)
	g2 := finalGame(2, -3, 24, 21)
	g3 := &models.Game{ID: 3, HomeTeam: "Denver Broncos", AwayTeam: "Kansas City Chiefs"}
	store.games[1], store.games[2], store.games[3] = g1, g2, g3

	store.addRow(gradedRow(1, g1.HomeTeam, models.ATSCover))
	store.addRow(gradedRow(1, g1.AwayTeam, models.ATSNoCover))
	store.addRow(gradedRow(2, g2.HomeTeam, models.ATSPush))
	store.addRow(gradedRow(2, g2.AwayTeam, models.ATSPush))

	store.picks[1] = []*models.Pick{
		{UserID: 1, GameID: 1, ChosenTeam: g1.HomeTeam},
		{UserID: 2, GameID: 1, ChosenTeam: g1.AwayTeam},
	}
	store.picks[2] = []*models.Pick{
		{UserID: 1, GameID: 2, ChosenTeam: g2.HomeTeam},
	}
	store.picks[3] = []*models.Pick{
		{UserID: 2, GameID: 3, ChosenTeam: g3.HomeTeam},
	}

	agg := NewAggregator(store, 5)

	rows, err := agg.Standings(ctx, 3, false)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "alice", rows[0].Username)
	assert.Equal(t, Record{Wins: 1, Pushes: 1, Points: 1.5}, rows[0].Record)

	assert.Equal(t, "bob", rows[1].Username)
	assert.Equal(t, Record{Losses: 1, Points: 0.0}, rows[1].Record, "ungraded week 3 pick contributes nothing")
}

func TestAggregator_Standings_WeekOnly(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	store.users = []*models.User{{ID: 1, Username: "alice"}}

	g1 := finalGame(1, -3, 27, 20)
	g2 := finalGame(2, -3, 20, 27)
	store.games[1], store.games[2] = g1, g2

	store.picks[1] = []*models.Pick{{UserID: 1, GameID: 1, ChosenTeam: g1.HomeTeam}}
	store.picks[2] = []*models.Pick{{UserID: 1, GameID: 2, ChosenTeam: g2.HomeTeam}}

	agg := NewAggregator(store, 5)

	rows, err := agg.Standings(ctx, 2, true)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, Record{Losses: 1}, rows[0].Record, "week view must exclude earlier weeks")
}

func TestAggregator_Standings_SortOrder(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	store.users = []*models.User{
		{ID: 1, Username: "zoe"},
		{ID: 2, Username: "ann"},
		{ID: 3, Username: "mel"},
	}

	g := finalGame(1, -3, 27, 20)
	store.games[1] = g
	store.picks[1] = []*models.Pick{
		{UserID: 3, GameID: 1, ChosenTeam: g.HomeTeam},
	}

	agg := NewAggregator(store, 5)
	rows, err := agg.Standings(ctx, 1, false)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "mel", rows[0].Username, "points first")
	assert.Equal(t, "ann", rows[1].Username, "ties break by username")
	assert.Equal(t, "zoe", rows[2].Username)
}

func TestAggregator_RemainingPicks(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	store.picks[1] = []*models.Pick{
		{UserID: 1, GameID: 1, ChosenTeam: "A"},
		{UserID: 1, GameID: 2, ChosenTeam: "B"},
		{UserID: 2, GameID: 1, ChosenTeam: "A"},
	}

	agg := NewAggregator(store, 5)

	remaining, err := agg.RemainingPicks(ctx, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, remaining)

	remaining, err = agg.RemainingPicks(ctx, 3, 1)
	require.NoError(t, err)
	assert.Equal(t, 5, remaining)
}

func TestAggregator_RemainingPicks_ClampsAtZero(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	for i := 0; i < 7; i++ {
		store.picks[1] = append(store.picks[1], &models.Pick{UserID: 1, GameID: i, ChosenTeam: "A"})
	}

	agg := NewAggregator(store, 5)
	remaining, err := agg.RemainingPicks(ctx, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, remaining)
}
