package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"

	"github.com/crops004/supercontest/internal/models"
)

// GameRepository handles game database operations
type GameRepository struct {
	db *Database
}

const gameColumns = `
	id, odds_event_id, week, home_team, away_team, kickoff_at,
	spread_home, spread_away, spread_is_locked, spread_locked_at,
	final_score_home, final_score_away, completed, created_at, updated_at
`

func scanGame(row pgx.Row) (*models.Game, error) {
	var game models.Game
	err := row.Scan(
		&game.ID, &game.OddsEventID, &game.Week, &game.HomeTeam, &game.AwayTeam, &game.KickoffAt,
		&game.SpreadHome, &game.SpreadAway, &game.SpreadIsLocked, &game.SpreadLockedAt,
		&game.FinalScoreHome, &game.FinalScoreAway, &game.Completed, &game.CreatedAt, &game.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &game, nil
}

// Save inserts or updates a game keyed by its external odds event id.
// The spread columns are guarded in SQL as well as in the sync engine:
// once spread_is_locked is set they never change from an upsert.
func (r *GameRepository) Save(ctx context.Context, game *models.Game) error {
	query := `
		INSERT INTO games (
			odds_event_id, week, home_team, away_team, kickoff_at,
			spread_home, spread_away, spread_is_locked, spread_locked_at,
			final_score_home, final_score_away, completed
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (odds_event_id) DO UPDATE SET
			week = EXCLUDED.week,
			home_team = EXCLUDED.home_team,
			away_team = EXCLUDED.away_team,
			kickoff_at = EXCLUDED.kickoff_at,
			spread_home = CASE WHEN games.spread_is_locked THEN games.spread_home ELSE EXCLUDED.spread_home END,
			spread_away = CASE WHEN games.spread_is_locked THEN games.spread_away ELSE EXCLUDED.spread_away END,
			spread_is_locked = games.spread_is_locked OR EXCLUDED.spread_is_locked,
			spread_locked_at = COALESCE(games.spread_locked_at, EXCLUDED.spread_locked_at),
			final_score_home = EXCLUDED.final_score_home,
			final_score_away = EXCLUDED.final_score_away,
			completed = EXCLUDED.completed,
			updated_at = NOW()
		RETURNING id, created_at, updated_at
	`

	err := r.db.Pool.QueryRow(
		ctx, query,
		game.OddsEventID, game.Week, game.HomeTeam, game.AwayTeam, game.KickoffAt,
		game.SpreadHome, game.SpreadAway, game.SpreadIsLocked, game.SpreadLockedAt,
		game.FinalScoreHome, game.FinalScoreAway, game.Completed,
	).Scan(&game.ID, &game.CreatedAt, &game.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to save game: %w", err)
	}

	log.Debug().
		Int("id", game.ID).
		Str("event_id", game.OddsEventID).
		Str("home", game.HomeTeam).
		Str("away", game.AwayTeam).
		Msg("Game saved")

	return nil
}

// GetByID retrieves a game by its database ID
func (r *GameRepository) GetByID(ctx context.Context, id int) (*models.Game, error) {
	query := `SELECT` + gameColumns + `FROM games WHERE id = $1`

	game, err := scanGame(r.db.Pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get game: %w", err)
	}
	return game, nil
}

// GetByEventID retrieves a game by its external odds event id
func (r *GameRepository) GetByEventID(ctx context.Context, eventID string) (*models.Game, error) {
	query := `SELECT` + gameColumns + `FROM games WHERE odds_event_id = $1`

	game, err := scanGame(r.db.Pool.QueryRow(ctx, query, eventID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get game: %w", err)
	}
	return game, nil
}

func (r *GameRepository) list(ctx context.Context, query string, args ...interface{}) ([]*models.Game, error) {
	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query games: %w", err)
	}
	defer rows.Close()

	var games []*models.Game
	for rows.Next() {
		game, err := scanGame(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan game: %w", err)
		}
		games = append(games, game)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating games: %w", err)
	}
	return games, nil
}

// ListByWeek retrieves games for a contest week ordered by kickoff
func (r *GameRepository) ListByWeek(ctx context.Context, week int) ([]*models.Game, error) {
	query := `SELECT` + gameColumns + `FROM games WHERE week = $1 ORDER BY kickoff_at NULLS LAST, id`
	return r.list(ctx, query, week)
}

// ListUnlockedThroughWeek retrieves unlocked games in weeks 0..throughWeek
func (r *GameRepository) ListUnlockedThroughWeek(ctx context.Context, throughWeek int) ([]*models.Game, error) {
	query := `SELECT` + gameColumns + `
		FROM games
		WHERE week <= $1 AND NOT spread_is_locked
		ORDER BY week, kickoff_at NULLS LAST, id`
	return r.list(ctx, query, throughWeek)
}

// ListLockedGames retrieves all locked games
func (r *GameRepository) ListLockedGames(ctx context.Context) ([]*models.Game, error) {
	query := `SELECT` + gameColumns + `FROM games WHERE spread_is_locked ORDER BY week, id`
	return r.list(ctx, query)
}

// ListWithFinalScores retrieves games eligible for ATS grading
func (r *GameRepository) ListWithFinalScores(ctx context.Context) ([]*models.Game, error) {
	query := `SELECT` + gameColumns + `
		FROM games
		WHERE final_score_home IS NOT NULL AND final_score_away IS NOT NULL
		ORDER BY week, id`
	return r.list(ctx, query)
}

// MaxStartedWeek returns the latest week with at least one kicked-off game,
// the standings pages' notion of "current week". Falls back to the earliest
// known week when nothing has started.
func (r *GameRepository) MaxStartedWeek(ctx context.Context, now time.Time) (int, error) {
	var week *int
	err := r.db.Pool.QueryRow(ctx,
		`SELECT MAX(week) FROM games WHERE kickoff_at <= $1`, now.UTC(),
	).Scan(&week)
	if err != nil {
		return 0, fmt.Errorf("failed to query started weeks: %w", err)
	}
	if week != nil {
		return *week, nil
	}

	err = r.db.Pool.QueryRow(ctx, `SELECT MIN(week) FROM games`).Scan(&week)
	if err != nil {
		return 0, fmt.Errorf("failed to query earliest week: %w", err)
	}
	if week == nil {
		return 0, nil
	}
	return *week, nil
}

// Count returns the total number of games
func (r *GameRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM games`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count games: %w", err)
	}
	return count, nil
}
