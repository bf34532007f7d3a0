package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/crops004/supercontest/internal/models"
)

// PickRepository handles pick database operations
type PickRepository struct {
	db *Database
}

const pickColumns = `id, user_id, game_id, chosen_team, created_at`

// Save inserts or updates the pick keyed by (user_id, game_id)
func (r *PickRepository) Save(ctx context.Context, pick *models.Pick) error {
	query := `
		INSERT INTO picks (user_id, game_id, chosen_team)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, game_id) DO UPDATE SET
			chosen_team = EXCLUDED.chosen_team
		RETURNING id, created_at
	`

	err := r.db.Pool.QueryRow(ctx, query, pick.UserID, pick.GameID, pick.ChosenTeam).
		Scan(&pick.ID, &pick.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save pick: %w", err)
	}
	return nil
}

// Get retrieves the pick for (user_id, game_id)
func (r *PickRepository) Get(ctx context.Context, userID, gameID int) (*models.Pick, error) {
	query := `SELECT ` + pickColumns + ` FROM picks WHERE user_id = $1 AND game_id = $2`

	var p models.Pick
	err := r.db.Pool.QueryRow(ctx, query, userID, gameID).
		Scan(&p.ID, &p.UserID, &p.GameID, &p.ChosenTeam, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get pick: %w", err)
	}
	return &p, nil
}

func (r *PickRepository) list(ctx context.Context, query string, args ...interface{}) ([]*models.Pick, error) {
	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query picks: %w", err)
	}
	defer rows.Close()

	var picks []*models.Pick
	for rows.Next() {
		var p models.Pick
		if err := rows.Scan(&p.ID, &p.UserID, &p.GameID, &p.ChosenTeam, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan pick: %w", err)
		}
		picks = append(picks, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating picks: %w", err)
	}
	return picks, nil
}

// ListForWeek retrieves all picks on games in one contest week
func (r *PickRepository) ListForWeek(ctx context.Context, week int) ([]*models.Pick, error) {
	query := `
		SELECT p.id, p.user_id, p.game_id, p.chosen_team, p.created_at
		FROM picks p
		JOIN games g ON g.id = p.game_id
		WHERE g.week = $1
		ORDER BY p.user_id, p.id
	`
	return r.list(ctx, query, week)
}

// ListThroughWeek retrieves all picks on games up to and including a week
func (r *PickRepository) ListThroughWeek(ctx context.Context, week int) ([]*models.Pick, error) {
	query := `
		SELECT p.id, p.user_id, p.game_id, p.chosen_team, p.created_at
		FROM picks p
		JOIN games g ON g.id = p.game_id
		WHERE g.week <= $1
		ORDER BY p.user_id, p.id
	`
	return r.list(ctx, query, week)
}

// CountForUserWeek counts a user's picks in one contest week,
// backing the picks-per-week budget
func (r *PickRepository) CountForUserWeek(ctx context.Context, userID, week int) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM picks p
		JOIN games g ON g.id = p.game_id
		WHERE p.user_id = $1 AND g.week = $2
	`

	var count int
	if err := r.db.Pool.QueryRow(ctx, query, userID, week).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count picks: %w", err)
	}
	return count, nil
}
