package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"

	"github.com/crops004/supercontest/internal/models"
)

// ATSRepository handles TeamGameATS database operations
type ATSRepository struct {
	db *Database
}

const atsColumns = `
	id, game_id, team, opponent, is_home, closing_spread, line_source,
	points_for, points_against, ats_result, cover_margin, created_at, updated_at
`

func scanATSRow(row pgx.Row) (*models.TeamGameATS, error) {
	var r models.TeamGameATS
	err := row.Scan(
		&r.ID, &r.GameID, &r.Team, &r.Opponent, &r.IsHome, &r.ClosingSpread, &r.LineSource,
		&r.PointsFor, &r.PointsAgainst, &r.ATSResult, &r.CoverMargin, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// Save inserts or updates the row keyed by (game_id, team)
func (r *ATSRepository) Save(ctx context.Context, row *models.TeamGameATS) error {
	query := `
		INSERT INTO team_game_ats (
			game_id, team, opponent, is_home, closing_spread, line_source,
			points_for, points_against, ats_result, cover_margin
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (game_id, team) DO UPDATE SET
			opponent = EXCLUDED.opponent,
			is_home = EXCLUDED.is_home,
			closing_spread = EXCLUDED.closing_spread,
			line_source = EXCLUDED.line_source,
			points_for = EXCLUDED.points_for,
			points_against = EXCLUDED.points_against,
			ats_result = EXCLUDED.ats_result,
			cover_margin = EXCLUDED.cover_margin,
			updated_at = NOW()
		RETURNING id, created_at, updated_at
	`

	err := r.db.Pool.QueryRow(
		ctx, query,
		row.GameID, row.Team, row.Opponent, row.IsHome, row.ClosingSpread, row.LineSource,
		row.PointsFor, row.PointsAgainst, row.ATSResult, row.CoverMargin,
	).Scan(&row.ID, &row.CreatedAt, &row.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to save ats row: %w", err)
	}

	log.Debug().
		Int("game_id", row.GameID).
		Str("team", row.Team).
		Msg("ATS row saved")

	return nil
}

// GetRow retrieves the row for (game_id, team)
func (r *ATSRepository) GetRow(ctx context.Context, gameID int, team string) (*models.TeamGameATS, error) {
	query := `SELECT` + atsColumns + `FROM team_game_ats WHERE game_id = $1 AND team = $2`

	row, err := scanATSRow(r.db.Pool.QueryRow(ctx, query, gameID, team))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get ats row: %w", err)
	}
	return row, nil
}

// ListByGame retrieves both sides of a game
func (r *ATSRepository) ListByGame(ctx context.Context, gameID int) ([]*models.TeamGameATS, error) {
	query := `SELECT` + atsColumns + `FROM team_game_ats WHERE game_id = $1 ORDER BY is_home DESC`

	rows, err := r.db.Pool.Query(ctx, query, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to query ats rows: %w", err)
	}
	defer rows.Close()

	var out []*models.TeamGameATS
	for rows.Next() {
		row, err := scanATSRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ats row: %w", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ats rows: %w", err)
	}
	return out, nil
}

// TeamSummary aggregates per-team cover records. weekOnly restricts to a
// single contest week; otherwise the summary is season-to-date through
// throughWeek.
func (r *ATSRepository) TeamSummary(ctx context.Context, throughWeek int, weekOnly bool) ([]models.TeamATSSummary, error) {
	query := `
		SELECT t.team,
		       SUM(CASE WHEN t.ats_result = 'COVER' THEN 1 ELSE 0 END),
		       SUM(CASE WHEN t.ats_result = 'PUSH' THEN 1 ELSE 0 END),
		       SUM(CASE WHEN t.ats_result = 'NO_COVER' THEN 1 ELSE 0 END)
		FROM team_game_ats t
		JOIN games g ON g.id = t.game_id
		WHERE t.ats_result IS NOT NULL AND ($2 AND g.week = $1 OR NOT $2 AND g.week <= $1)
		GROUP BY t.team
		ORDER BY t.team
	`

	rows, err := r.db.Pool.Query(ctx, query, throughWeek, weekOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to query ats summary: %w", err)
	}
	defer rows.Close()

	var out []models.TeamATSSummary
	for rows.Next() {
		var s models.TeamATSSummary
		if err := rows.Scan(&s.Team, &s.Covers, &s.Pushes, &s.NoCovers); err != nil {
			return nil, fmt.Errorf("failed to scan ats summary: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ats summary: %w", err)
	}
	return out, nil
}
