// Package ats grades game outcomes against frozen closing spreads.
package ats

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/crops004/supercontest/internal/models"
)

// Sides of a game as seen by the live grading fallback.
const (
	SideHome = "home"
	SideAway = "away"
	SidePush = "push"
)

// Compute classifies one side's result against its closing spread.
//
//	cover_margin = points_for + closing_spread - points_against
//
// All arithmetic is decimal so exact push boundaries (margin == 0) never
// fall to float rounding.
func Compute(pointsFor, pointsAgainst int, closingSpread decimal.Decimal) (string, decimal.Decimal) {
	margin := decimal.NewFromInt(int64(pointsFor)).
		Add(closingSpread).
		Sub(decimal.NewFromInt(int64(pointsAgainst)))
	switch margin.Sign() {
	case 1:
		return models.ATSCover, margin
	case 0:
		return models.ATSPush, margin
	default:
		return models.ATSNoCover, margin
	}
}

// ResultAgainstSpread is the live, snapshot-free grading fallback used for
// read-only previews before TeamGameATS rows exist. The spread is applied
// only to the favorite (the side whose spread is negative); pick'em games
// compare unadjusted scores. Returns SideHome, SideAway, or SidePush, with
// ok=false while final scores are missing.
//
// Agrees with Compute for any game where both are computable.
func ResultAgainstSpread(g *models.Game) (string, bool) {
	if !g.HasFinalScores() {
		return "", false
	}

	adjHome := decimal.NewFromInt(int64(g.FinalScoreHome.Int32))
	adjAway := decimal.NewFromInt(int64(g.FinalScoreAway.Int32))

	if home, away, ok := g.SpreadForSides(); ok {
		if home.Sign() < 0 {
			adjHome = adjHome.Add(home)
		}
		if away.Sign() < 0 {
			adjAway = adjAway.Add(away)
		}
	}

	switch adjHome.Cmp(adjAway) {
	case 1:
		return SideHome, true
	case -1:
		return SideAway, true
	default:
		return SidePush, true
	}
}

// Store is the persistence surface the grader needs.
type Store interface {
	GetATSRow(ctx context.Context, gameID int, team string) (*models.TeamGameATS, error)
	SaveATSRow(ctx context.Context, row *models.TeamGameATS) error
	ListGamesWithFinalScores(ctx context.Context) ([]*models.Game, error)
}

// Grader fills TeamGameATS rows from final scores.
type Grader struct {
	store Store
}

// NewGrader returns a Grader over the given store.
func NewGrader(store Store) *Grader {
	return &Grader{store: store}
}

// FinalizeResult reports a grading batch.
type FinalizeResult struct {
	Finalized int
	Pending   int
}

// FinalizeGame grades both sides of a game. No-op while either final
// score is missing. Safe to re-run: identical inputs reproduce identical
// rows, and a score correction re-grades to match.
func (gr *Grader) FinalizeGame(ctx context.Context, game *models.Game) error {
	if !game.HasFinalScores() {
		return nil
	}

	homeSpread, awaySpread, _ := game.SpreadForSides()

	home := sideInput{
		team:          game.HomeTeam,
		opponent:      game.AwayTeam,
		isHome:        true,
		pointsFor:     int(game.FinalScoreHome.Int32),
		pointsAgainst: int(game.FinalScoreAway.Int32),
		fallbackLine:  homeSpread,
	}
	away := sideInput{
		team:          game.AwayTeam,
		opponent:      game.HomeTeam,
		isHome:        false,
		pointsFor:     int(game.FinalScoreAway.Int32),
		pointsAgainst: int(game.FinalScoreHome.Int32),
		fallbackLine:  awaySpread,
	}

	for _, side := range []sideInput{home, away} {
		if err := gr.finalizeSide(ctx, game, side); err != nil {
			return err
		}
	}
	return nil
}

type sideInput struct {
	team          string
	opponent      string
	isHome        bool
	pointsFor     int
	pointsAgainst int
	fallbackLine  decimal.Decimal
}

func (gr *Grader) finalizeSide(ctx context.Context, game *models.Game, side sideInput) error {
	row, err := gr.store.GetATSRow(ctx, game.ID, side.team)
	if errors.Is(err, models.ErrNotFound) {
		row = &models.TeamGameATS{GameID: game.ID, Team: side.team}
	} else if err != nil {
		return fmt.Errorf("failed to load ats row: %w", err)
	}

	row.Opponent = side.opponent
	row.IsHome = side.isHome
	row.PointsFor = sql.NullInt32{Int32: int32(side.pointsFor), Valid: true}
	row.PointsAgainst = sql.NullInt32{Int32: int32(side.pointsAgainst), Valid: true}

	if !row.ClosingSpread.Valid {
		// Never snapshotted: fall back to the game's current spread so a
		// result is still available, at the cost of strict provenance.
		log.Warn().
			Int("game_id", game.ID).
			Str("team", side.team).
			Msg("No closing spread snapshot, grading against current spread")
		row.ClosingSpread = decimal.NullDecimal{Decimal: side.fallbackLine, Valid: true}
	}

	result, margin := Compute(side.pointsFor, side.pointsAgainst, row.ClosingSpread.Decimal)
	row.ATSResult = sql.NullString{String: result, Valid: true}
	row.CoverMargin = decimal.NullDecimal{Decimal: margin, Valid: true}

	if err := gr.store.SaveATSRow(ctx, row); err != nil {
		return fmt.Errorf("failed to save ats row: %w", err)
	}
	return nil
}

// FinalizeCompleted grades every game that has both final scores.
// Idempotent; the score-refresh cycle calls it after each import.
func (gr *Grader) FinalizeCompleted(ctx context.Context) (FinalizeResult, error) {
	games, err := gr.store.ListGamesWithFinalScores(ctx)
	if err != nil {
		return FinalizeResult{}, fmt.Errorf("failed to list games for grading: %w", err)
	}

	var res FinalizeResult
	for _, game := range games {
		if !game.HasFinalScores() {
			res.Pending++
			continue
		}
		if err := gr.FinalizeGame(ctx, game); err != nil {
			return res, err
		}
		res.Finalized++
	}

	log.Info().
		Int("finalized", res.Finalized).
		Int("pending", res.Pending).
		Msg("ATS grading batch complete")
	return res, nil
}
