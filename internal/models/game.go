package models

import (
	"database/sql"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ErrNotFound is returned by repositories when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// Game represents one NFL game tracked by the pool.
//
// OddsEventID is the external feed identifier and the idempotency key for
// all sync operations. SpreadHome/SpreadAway are the live lines and keep
// moving until SpreadIsLocked is set; after that they are frozen and only
// non-spread fields may change.
type Game struct {
	ID          int    `db:"id"`
	OddsEventID string `db:"odds_event_id"`

	// Week 0 means preseason (kickoff before the week-1 anchor).
	Week int `db:"week"`

	HomeTeam  string       `db:"home_team"`
	AwayTeam  string       `db:"away_team"`
	KickoffAt sql.NullTime `db:"kickoff_at"`

	SpreadHome     decimal.NullDecimal `db:"spread_home"`
	SpreadAway     decimal.NullDecimal `db:"spread_away"`
	SpreadIsLocked bool                `db:"spread_is_locked"`
	SpreadLockedAt sql.NullTime        `db:"spread_locked_at"`

	FinalScoreHome sql.NullInt32 `db:"final_score_home"`
	FinalScoreAway sql.NullInt32 `db:"final_score_away"`

	// Completed is the feed's best-effort flag and may lag behind
	// both scores being present.
	Completed bool `db:"completed"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// HasStarted reports whether kickoff has passed. Games with no known
// kickoff are treated as not started.
func (g *Game) HasStarted(now time.Time) bool {
	return g.KickoffAt.Valid && !now.Before(g.KickoffAt.Time)
}

// HasFinalScores reports whether both final scores are present. This, not
// Completed, is what gates ATS grading.
func (g *Game) HasFinalScores() bool {
	return g.FinalScoreHome.Valid && g.FinalScoreAway.Valid
}

// SetHomeSpread assigns the home spread and derives the away spread as its
// negation, keeping the two sides additive inverses.
func (g *Game) SetHomeSpread(spread decimal.Decimal) {
	g.SpreadHome = decimal.NullDecimal{Decimal: spread, Valid: true}
	g.SpreadAway = decimal.NullDecimal{Decimal: spread.Neg(), Valid: true}
}

// SpreadForSides returns the (home, away) spreads, deriving a missing side
// as the negation of the other. ok is false only when both are absent.
func (g *Game) SpreadForSides() (home, away decimal.Decimal, ok bool) {
	switch {
	case g.SpreadHome.Valid && g.SpreadAway.Valid:
		return g.SpreadHome.Decimal, g.SpreadAway.Decimal, true
	case g.SpreadHome.Valid:
		return g.SpreadHome.Decimal, g.SpreadHome.Decimal.Neg(), true
	case g.SpreadAway.Valid:
		return g.SpreadAway.Decimal.Neg(), g.SpreadAway.Decimal, true
	default:
		return decimal.Zero, decimal.Zero, false
	}
}
