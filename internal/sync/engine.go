// Package sync merges odds and score feed events into persisted games.
// Every operation is idempotent: re-polling the feed with identical or
// partial data is always safe, and a failed batch is retried wholesale.
package sync

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/crops004/supercontest/internal/feed"
	"github.com/crops004/supercontest/internal/models"
	"github.com/crops004/supercontest/internal/week"
)

// Store is the persistence surface the engine needs.
type Store interface {
	GetGameByEventID(ctx context.Context, eventID string) (*models.Game, error)
	SaveGame(ctx context.Context, game *models.Game) error
}

// Engine applies normalized feed events to the game store.
type Engine struct {
	store     Store
	bookmaker string
}

// NewEngine returns an Engine that extracts spreads from the given
// bookmaker's quotes (draftkings in the standard configuration).
func NewEngine(store Store, bookmaker string) *Engine {
	return &Engine{store: store, bookmaker: bookmaker}
}

// UpsertGame merges one odds event into the store, creating the game on
// first sight of the event id.
//
// Identity fields (team names, kickoff) always refresh; they are metadata
// corrections, not contest-binding values. Week is set only when
// forceWeek is non-nil; batch-level week policy belongs to the caller.
// Spreads are written only while the game is unlocked, with the away side
// derived as the home side's negation. Missing optional fields leave
// existing values untouched.
func (e *Engine) UpsertGame(ctx context.Context, ev feed.OddsEvent, forceWeek *int) (*models.Game, bool, error) {
	game, err := e.store.GetGameByEventID(ctx, ev.ID)
	created := false
	if errors.Is(err, models.ErrNotFound) {
		game = &models.Game{OddsEventID: ev.ID}
		created = true
	} else if err != nil {
		return nil, false, fmt.Errorf("failed to look up game %s: %w", ev.ID, err)
	}

	game.HomeTeam = ev.HomeTeam
	game.AwayTeam = ev.AwayTeam
	if kickoff, ok := ev.Kickoff(); ok {
		game.KickoffAt = sql.NullTime{Time: kickoff, Valid: true}
	}

	if forceWeek != nil {
		game.Week = *forceWeek
	}

	if !game.SpreadIsLocked {
		if spread, ok := ev.HomeSpread(e.bookmaker); ok {
			game.SetHomeSpread(spread)
		}
	}

	if err := e.store.SaveGame(ctx, game); err != nil {
		return nil, false, fmt.Errorf("failed to save game %s: %w", ev.ID, err)
	}
	return game, created, nil
}

// ApplyScoreEvent merges a score event into a game in memory and reports
// whether anything changed. Only sides named in the event update; a later
// event omitting a score never clears one already set.
func ApplyScoreEvent(game *models.Game, ev feed.ScoreEvent) bool {
	scores := ev.ScoreMap()
	changed := false

	if pts, ok := scores[game.HomeTeam]; ok {
		if !game.FinalScoreHome.Valid || game.FinalScoreHome.Int32 != int32(pts) {
			game.FinalScoreHome = sql.NullInt32{Int32: int32(pts), Valid: true}
			changed = true
		}
	}
	if pts, ok := scores[game.AwayTeam]; ok {
		if !game.FinalScoreAway.Valid || game.FinalScoreAway.Int32 != int32(pts) {
			game.FinalScoreAway = sql.NullInt32{Int32: int32(pts), Valid: true}
			changed = true
		}
	}
	if ev.Completed && !game.Completed {
		game.Completed = true
		changed = true
	}
	return changed
}

// LineImportResult reports one lines batch.
type LineImportResult struct {
	Created       int
	Updated       int
	SkippedLocked int
}

// ScoreImportResult reports one scores batch.
type ScoreImportResult struct {
	Updated     int
	Unchanged   int
	MissingGame int
}

// ImportLines upserts a batch of odds events, assigning each game's week
// from its kickoff via the clock. Locked games never receive spread
// writes and count as skipped; identity fields still refresh for them. A
// malformed event is logged and skipped, never aborting the batch.
func (e *Engine) ImportLines(ctx context.Context, events []feed.OddsEvent, clock week.Clock) (LineImportResult, error) {
	var res LineImportResult
	for i := range events {
		ev := events[i]
		if ev.ID == "" {
			log.Warn().Str("home", ev.HomeTeam).Str("away", ev.AwayTeam).Msg("Odds event missing id, skipping")
			continue
		}

		var forceWeek *int
		if kickoff, ok := ev.Kickoff(); ok {
			wk := clock.ForKickoff(kickoff)
			forceWeek = &wk
		}

		game, created, err := e.upsertCounted(ctx, ev, forceWeek, &res)
		if err != nil {
			return res, err
		}
		log.Debug().
			Str("event_id", ev.ID).
			Int("week", game.Week).
			Bool("created", created).
			Bool("locked", game.SpreadIsLocked).
			Msg("Odds event applied")
	}

	log.Info().
		Int("created", res.Created).
		Int("updated", res.Updated).
		Int("skipped_locked", res.SkippedLocked).
		Msg("Lines import complete")
	return res, nil
}

// ImportLinesForWeek upserts a batch of odds events with every game
// forced into the given week, regardless of kickoff. Used for manual
// corrections when the feed's kickoff times are unreliable.
func (e *Engine) ImportLinesForWeek(ctx context.Context, events []feed.OddsEvent, weekNum int) (LineImportResult, error) {
	var res LineImportResult
	for i := range events {
		ev := events[i]
		if ev.ID == "" {
			log.Warn().Str("home", ev.HomeTeam).Str("away", ev.AwayTeam).Msg("Odds event missing id, skipping")
			continue
		}
		if _, _, err := e.upsertCounted(ctx, ev, &weekNum, &res); err != nil {
			return res, err
		}
	}

	log.Info().
		Int("week", weekNum).
		Int("created", res.Created).
		Int("updated", res.Updated).
		Int("skipped_locked", res.SkippedLocked).
		Msg("Forced-week lines import complete")
	return res, nil
}

// RefreshSpreadsUnlocked re-applies current lines without touching week
// assignments. Locked games are skipped exactly as in ImportLines.
func (e *Engine) RefreshSpreadsUnlocked(ctx context.Context, events []feed.OddsEvent) (LineImportResult, error) {
	var res LineImportResult
	for i := range events {
		ev := events[i]
		if ev.ID == "" {
			log.Warn().Str("home", ev.HomeTeam).Str("away", ev.AwayTeam).Msg("Odds event missing id, skipping")
			continue
		}
		if _, _, err := e.upsertCounted(ctx, ev, nil, &res); err != nil {
			return res, err
		}
	}

	log.Info().
		Int("created", res.Created).
		Int("updated", res.Updated).
		Int("skipped_locked", res.SkippedLocked).
		Msg("Spread refresh complete")
	return res, nil
}

func (e *Engine) upsertCounted(ctx context.Context, ev feed.OddsEvent, forceWeek *int, res *LineImportResult) (*models.Game, bool, error) {
	existing, err := e.store.GetGameByEventID(ctx, ev.ID)
	locked := err == nil && existing.SpreadIsLocked

	game, created, err := e.UpsertGame(ctx, ev, forceWeek)
	if err != nil {
		return nil, false, err
	}

	switch {
	case created:
		res.Created++
	case locked:
		res.SkippedLocked++
	default:
		res.Updated++
	}
	return game, created, nil
}

// ImportScores applies a batch of score events. Events whose id matches
// no known game count as missing, not errors. Returns the ids of games
// whose scores changed so the caller can trigger grading.
func (e *Engine) ImportScores(ctx context.Context, events []feed.ScoreEvent) (ScoreImportResult, []int, error) {
	var res ScoreImportResult
	var changedIDs []int

	for i := range events {
		ev := events[i]
		game, err := e.store.GetGameByEventID(ctx, ev.ID)
		if errors.Is(err, models.ErrNotFound) {
			res.MissingGame++
			continue
		}
		if err != nil {
			return res, changedIDs, fmt.Errorf("failed to look up game %s: %w", ev.ID, err)
		}

		if !ApplyScoreEvent(game, ev) {
			res.Unchanged++
			continue
		}
		if err := e.store.SaveGame(ctx, game); err != nil {
			return res, changedIDs, fmt.Errorf("failed to save scores for game %s: %w", ev.ID, err)
		}
		res.Updated++
		changedIDs = append(changedIDs, game.ID)
	}

	log.Info().
		Int("updated", res.Updated).
		Int("unchanged", res.Unchanged).
		Int("missing_game", res.MissingGame).
		Msg("Scores import complete")
	return res, changedIDs, nil
}
