package models

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

// ATS result values stored on TeamGameATS rows.
const (
	ATSCover   = "COVER"
	ATSNoCover = "NO_COVER"
	ATSPush    = "PUSH"
)

// TeamGameATS is one side of a game's against-the-spread record: exactly
// two rows exist per game, keyed by (game_id, team).
//
// ClosingSpread is captured when the game is locked and is the
// contest-binding number for all grading, independent of later line
// movement. Sign convention: negative means this team was favored.
type TeamGameATS struct {
	ID       int    `db:"id"`
	GameID   int    `db:"game_id"`
	Team     string `db:"team"`
	Opponent string `db:"opponent"`
	IsHome   bool   `db:"is_home"`

	ClosingSpread decimal.NullDecimal `db:"closing_spread"`
	LineSource    sql.NullString      `db:"line_source"`

	PointsFor     sql.NullInt32 `db:"points_for"`
	PointsAgainst sql.NullInt32 `db:"points_against"`

	ATSResult   sql.NullString      `db:"ats_result"`
	CoverMargin decimal.NullDecimal `db:"cover_margin"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Graded reports whether grading has run for this side.
func (r *TeamGameATS) Graded() bool {
	return r.ATSResult.Valid
}

// TeamATSSummary is a team's season or single-week cover record, read by
// the admin panel and standings collaborators.
type TeamATSSummary struct {
	Team     string
	Covers   int
	Pushes   int
	NoCovers int
}

// Total returns the number of graded sides behind the summary.
func (s TeamATSSummary) Total() int {
	return s.Covers + s.Pushes + s.NoCovers
}

// CoverPct returns the cover percentage, 0 when nothing is graded.
func (s TeamATSSummary) CoverPct() float64 {
	total := s.Total()
	if total == 0 {
		return 0
	}
	return float64(s.Covers) / float64(total) * 100.0
}
