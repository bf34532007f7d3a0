package repository

import (
	"context"
	"time"

	"github.com/crops004/supercontest/internal/models"
)

// Store adapts Database to the narrow method sets that the sync, lines,
// ats, and scoring packages consume. One instance satisfies all of their
// interfaces.
type Store struct {
	db *Database
}

// NewStore returns a Store over the given database.
func NewStore(db *Database) *Store {
	return &Store{db: db}
}

func (s *Store) GetGame(ctx context.Context, id int) (*models.Game, error) {
	return s.db.Games.GetByID(ctx, id)
}

func (s *Store) GetGameByEventID(ctx context.Context, eventID string) (*models.Game, error) {
	return s.db.Games.GetByEventID(ctx, eventID)
}

func (s *Store) SaveGame(ctx context.Context, game *models.Game) error {
	return s.db.Games.Save(ctx, game)
}

func (s *Store) ListUnlockedThroughWeek(ctx context.Context, throughWeek int) ([]*models.Game, error) {
	return s.db.Games.ListUnlockedThroughWeek(ctx, throughWeek)
}

func (s *Store) ListLockedGames(ctx context.Context) ([]*models.Game, error) {
	return s.db.Games.ListLockedGames(ctx)
}

func (s *Store) ListGamesWithFinalScores(ctx context.Context) ([]*models.Game, error) {
	return s.db.Games.ListWithFinalScores(ctx)
}

func (s *Store) MaxStartedWeek(ctx context.Context, now time.Time) (int, error) {
	return s.db.Games.MaxStartedWeek(ctx, now)
}

func (s *Store) GetATSRow(ctx context.Context, gameID int, team string) (*models.TeamGameATS, error) {
	return s.db.ATS.GetRow(ctx, gameID, team)
}

func (s *Store) SaveATSRow(ctx context.Context, row *models.TeamGameATS) error {
	return s.db.ATS.Save(ctx, row)
}

func (s *Store) ListUsers(ctx context.Context) ([]*models.User, error) {
	return s.db.Users.List(ctx)
}

func (s *Store) ListPicksForWeek(ctx context.Context, week int) ([]*models.Pick, error) {
	return s.db.Picks.ListForWeek(ctx, week)
}

func (s *Store) ListPicksThroughWeek(ctx context.Context, week int) ([]*models.Pick, error) {
	return s.db.Picks.ListThroughWeek(ctx, week)
}

func (s *Store) CountPicksForUserWeek(ctx context.Context, userID, week int) (int, error) {
	return s.db.Picks.CountForUserWeek(ctx, userID, week)
}
