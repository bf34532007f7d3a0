// Package scoring turns picks plus graded games into pool points and
// standings rollups. Win = 1.0, push = 0.5, loss = 0.0.
package scoring

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/crops004/supercontest/internal/ats"
	"github.com/crops004/supercontest/internal/models"
)

// PointsForPick scores one pick against one game. ok is false while the
// game is not graded yet.
//
// atsRow, when non-nil, must be the TeamGameATS row for the pick's chosen
// team; its frozen classification takes precedence over recomputing from
// live spreads, so standings always agree with the closing line. A chosen
// team matching neither side of the game grades as a loss, not an error.
func PointsForPick(pick *models.Pick, game *models.Game, atsRow *models.TeamGameATS) (float64, bool) {
	if atsRow != nil && atsRow.Graded() && atsRow.Team == pick.ChosenTeam {
		switch atsRow.ATSResult.String {
		case models.ATSCover:
			return 1.0, true
		case models.ATSPush:
			return 0.5, true
		case models.ATSNoCover:
			return 0.0, true
		}
	}

	result, ok := ats.ResultAgainstSpread(game)
	if !ok {
		return 0, false
	}
	if result == ats.SidePush {
		return 0.5, true
	}

	var side string
	switch pick.ChosenTeam {
	case game.HomeTeam:
		side = ats.SideHome
	case game.AwayTeam:
		side = ats.SideAway
	default:
		// Fail-safe to loss: a pick naming neither team counts 0.0.
		return 0.0, true
	}

	if side == result {
		return 1.0, true
	}
	return 0.0, true
}

// Record is a user's W-L-P line plus points.
type Record struct {
	Wins   int
	Losses int
	Pushes int
	Points float64
}

// Add folds one graded pick's points into the record.
func (r *Record) Add(points float64) {
	switch points {
	case 1.0:
		r.Wins++
	case 0.5:
		r.Pushes++
	default:
		r.Losses++
	}
	r.Points += points
}

// StandingsRow is one user's line in a weekly or season table.
type StandingsRow struct {
	UserID   int
	Username string
	Record   Record
}

// Store is the read surface the aggregator needs.
type Store interface {
	ListUsers(ctx context.Context) ([]*models.User, error)
	ListPicksThroughWeek(ctx context.Context, week int) ([]*models.Pick, error)
	ListPicksForWeek(ctx context.Context, week int) ([]*models.Pick, error)
	CountPicksForUserWeek(ctx context.Context, userID, week int) (int, error)
	GetGame(ctx context.Context, id int) (*models.Game, error)
	GetATSRow(ctx context.Context, gameID int, team string) (*models.TeamGameATS, error)
}

// Aggregator computes standings over persisted picks and graded rows.
type Aggregator struct {
	store        Store
	picksPerWeek int
}

// NewAggregator returns an Aggregator. picksPerWeek is the weekly pick
// budget (5 in the standard pool).
func NewAggregator(store Store, picksPerWeek int) *Aggregator {
	return &Aggregator{store: store, picksPerWeek: picksPerWeek}
}

// Standings builds per-user records for picks through the given week
// (season view) or for that week alone when weekOnly is set. Ungraded
// picks contribute nothing. Rows sort by points descending, then
// username.
func (a *Aggregator) Standings(ctx context.Context, throughWeek int, weekOnly bool) ([]StandingsRow, error) {
	users, err := a.store.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	var picks []*models.Pick
	if weekOnly {
		picks, err = a.store.ListPicksForWeek(ctx, throughWeek)
	} else {
		picks, err = a.store.ListPicksThroughWeek(ctx, throughWeek)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list picks: %w", err)
	}

	records := make(map[int]*Record, len(users))
	for _, u := range users {
		records[u.ID] = &Record{}
	}

	for _, pick := range picks {
		rec, known := records[pick.UserID]
		if !known {
			continue
		}
		game, err := a.store.GetGame(ctx, pick.GameID)
		if err != nil {
			return nil, fmt.Errorf("failed to load game %d: %w", pick.GameID, err)
		}

		atsRow, err := a.store.GetATSRow(ctx, game.ID, pick.ChosenTeam)
		if errors.Is(err, models.ErrNotFound) {
			atsRow = nil // no snapshot yet; fall back to live grading
		} else if err != nil {
			return nil, fmt.Errorf("failed to load ats row: %w", err)
		}

		points, graded := PointsForPick(pick, game, atsRow)
		if graded {
			rec.Add(points)
		}
	}

	rows := make([]StandingsRow, 0, len(users))
	for _, u := range users {
		rows = append(rows, StandingsRow{UserID: u.ID, Username: u.Username, Record: *records[u.ID]})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Record.Points != rows[j].Record.Points {
			return rows[i].Record.Points > rows[j].Record.Points
		}
		return rows[i].Username < rows[j].Username
	})
	return rows, nil
}

// RemainingPicks returns how many picks the user may still make in the
// given week, clamped at zero.
func (a *Aggregator) RemainingPicks(ctx context.Context, userID, week int) (int, error) {
	count, err := a.store.CountPicksForUserWeek(ctx, userID, week)
	if err != nil {
		return 0, fmt.Errorf("failed to count picks: %w", err)
	}
	remaining := a.picksPerWeek - count
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}
