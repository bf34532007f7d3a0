package models

import "time"

// Pick is one user's selection for one game. Unique per (user, game);
// ChosenTeam should match one of the game's team names, but a stale or
// mismatched value grades as a loss rather than an error.
type Pick struct {
	ID         int       `db:"id"`
	UserID     int       `db:"user_id"`
	GameID     int       `db:"game_id"`
	ChosenTeam string    `db:"chosen_team"`
	CreatedAt  time.Time `db:"created_at"`
}

// User is a pool participant. Only identity matters to the core; auth
// lives in the surrounding app.
type User struct {
	ID        int       `db:"id"`
	Username  string    `db:"username"`
	Email     string    `db:"email"`
	CreatedAt time.Time `db:"created_at"`
}
