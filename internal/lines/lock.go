// Package lines owns the line lifecycle: the one-way lock transition and
// the closing-spread snapshot that grading runs against.
package lines

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/crops004/supercontest/internal/models"
	"github.com/crops004/supercontest/internal/week"
)

// Store is the persistence surface the service needs.
type Store interface {
	ListUnlockedThroughWeek(ctx context.Context, throughWeek int) ([]*models.Game, error)
	ListLockedGames(ctx context.Context) ([]*models.Game, error)
	SaveGame(ctx context.Context, game *models.Game) error
	GetATSRow(ctx context.Context, gameID int, team string) (*models.TeamGameATS, error)
	SaveATSRow(ctx context.Context, row *models.TeamGameATS) error
}

// Service locks weeks and snapshots closing lines.
type Service struct {
	store Store
	clock week.Clock
}

// NewService returns a lock service using the given week clock.
func NewService(store Store, clock week.Clock) *Service {
	return &Service{store: store, clock: clock}
}

// LockResult reports one lock cycle.
type LockResult struct {
	Locked  int
	WeekNow int
}

// LockWeeksThroughCurrent locks every unlocked game in weeks 0 through
// the current week (preseason inclusive) and snapshots its closing lines.
// Monotonic and additive: re-running never unlocks anything, and
// already-locked games are skipped.
func (s *Service) LockWeeksThroughCurrent(ctx context.Context, now time.Time, lineSource string) (LockResult, error) {
	weekNow := s.clock.CurrentWeek(now)

	games, err := s.store.ListUnlockedThroughWeek(ctx, weekNow)
	if err != nil {
		return LockResult{}, fmt.Errorf("failed to list unlocked games: %w", err)
	}

	res := LockResult{WeekNow: weekNow}
	for _, game := range games {
		game.SpreadIsLocked = true
		game.SpreadLockedAt = sql.NullTime{Time: now.UTC(), Valid: true}
		if err := s.store.SaveGame(ctx, game); err != nil {
			return res, fmt.Errorf("failed to lock game %d: %w", game.ID, err)
		}
		if err := s.SnapshotClosingLines(ctx, game, lineSource); err != nil {
			return res, err
		}
		res.Locked++
	}

	log.Info().
		Int("week_now", weekNow).
		Int("locked", res.Locked).
		Msg("Lock cycle complete")
	return res, nil
}

// SnapshotClosingLines writes the per-team closing spread rows for a
// game. An absent spread snapshots as zero: a pick'em, not a failure.
//
// Idempotent for an unchanged game spread; if called after the spread has
// somehow moved, the snapshot is overwritten (last write wins). Treat the
// first lock as authoritative and avoid re-snapshotting once grading has
// started.
func (s *Service) SnapshotClosingLines(ctx context.Context, game *models.Game, lineSource string) error {
	homeSpread, awaySpread, ok := game.SpreadForSides()
	if !ok {
		homeSpread, awaySpread = decimal.Zero, decimal.Zero
		log.Warn().Int("game_id", game.ID).Msg("Snapshotting game with no spread as pick'em")
	}

	sides := []struct {
		team, opponent string
		isHome         bool
		spread         decimal.Decimal
	}{
		{game.HomeTeam, game.AwayTeam, true, homeSpread},
		{game.AwayTeam, game.HomeTeam, false, awaySpread},
	}

	for _, side := range sides {
		row, err := s.store.GetATSRow(ctx, game.ID, side.team)
		if errors.Is(err, models.ErrNotFound) {
			row = &models.TeamGameATS{GameID: game.ID, Team: side.team}
		} else if err != nil {
			return fmt.Errorf("failed to load ats row: %w", err)
		}

		row.Opponent = side.opponent
		row.IsHome = side.isHome
		row.ClosingSpread = decimal.NullDecimal{Decimal: side.spread, Valid: true}
		row.LineSource = sql.NullString{String: lineSource, Valid: lineSource != ""}

		if err := s.store.SaveATSRow(ctx, row); err != nil {
			return fmt.Errorf("failed to save ats row: %w", err)
		}
	}
	return nil
}

// SnapshotLocked re-snapshots closing lines for every locked game, used
// to backfill rows created before the snapshot step existed.
func (s *Service) SnapshotLocked(ctx context.Context, lineSource string) (int, error) {
	games, err := s.store.ListLockedGames(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list locked games: %w", err)
	}
	for _, game := range games {
		if err := s.SnapshotClosingLines(ctx, game, lineSource); err != nil {
			return 0, err
		}
	}
	log.Info().Int("games", len(games)).Msg("Closing lines snapshotted for locked games")
	return len(games), nil
}
