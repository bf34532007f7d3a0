// Package feed normalizes payloads from The Odds API into the shapes the
// sync engine consumes. It is pure transformation: no state, no I/O.
package feed

import (
	"bytes"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// Numeric is a feed scalar that may arrive as a JSON number, a numeric
// string, or garbage. Malformed values decode as absent instead of failing
// the batch.
type Numeric struct {
	raw   string
	valid bool
}

// UnmarshalJSON never returns an error; unparseable input leaves the
// value absent.
func (n *Numeric) UnmarshalJSON(b []byte) error {
	s := string(bytes.Trim(bytes.TrimSpace(b), `"`))
	if s == "" || s == "null" {
		*n = Numeric{}
		return nil
	}
	if _, err := strconv.ParseFloat(s, 64); err != nil {
		*n = Numeric{}
		return nil
	}
	*n = Numeric{raw: s, valid: true}
	return nil
}

// Int returns the value truncated to an integer.
func (n Numeric) Int() (int, bool) {
	if !n.valid {
		return 0, false
	}
	f, err := strconv.ParseFloat(n.raw, 64)
	if err != nil {
		return 0, false
	}
	return int(f), true
}

// Decimal returns the value as an exact decimal.
func (n Numeric) Decimal() (decimal.Decimal, bool) {
	if !n.valid {
		return decimal.Decimal{}, false
	}
	d, err := decimal.NewFromString(n.raw)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}

// Outcome is one side of a market quote.
type Outcome struct {
	Name  string  `json:"name"`
	Point Numeric `json:"point"`
}

// Market is one market within a bookmaker block.
type Market struct {
	Key      string    `json:"key"`
	Outcomes []Outcome `json:"outcomes"`
}

// Bookmaker is one book's quotes for an event.
type Bookmaker struct {
	Key     string   `json:"key"`
	Markets []Market `json:"markets"`
}

// OddsEvent is one upstream odds payload for a game.
type OddsEvent struct {
	ID           string      `json:"id"`
	CommenceTime string      `json:"commence_time"`
	HomeTeam     string      `json:"home_team"`
	AwayTeam     string      `json:"away_team"`
	Bookmakers   []Bookmaker `json:"bookmakers"`
}

// Kickoff parses the event's commence time as UTC.
func (e *OddsEvent) Kickoff() (time.Time, bool) {
	t, err := time.Parse(time.RFC3339, e.CommenceTime)
	if err != nil {
		return time.Time{}, false
	}
	return t.UTC(), true
}

// HomeSpread extracts the home team's spread from the given bookmaker's
// spreads market. Absence at any level returns ok=false; it never guesses.
func (e *OddsEvent) HomeSpread(bookmaker string) (decimal.Decimal, bool) {
	for _, bm := range e.Bookmakers {
		if bm.Key != bookmaker {
			continue
		}
		for _, market := range bm.Markets {
			if market.Key != "spreads" {
				continue
			}
			for _, outcome := range market.Outcomes {
				if outcome.Name != e.HomeTeam {
					continue
				}
				return outcome.Point.Decimal()
			}
		}
	}
	return decimal.Decimal{}, false
}

// TeamScore is one (team, score) entry in a score event.
type TeamScore struct {
	Name  string  `json:"name"`
	Score Numeric `json:"score"`
}

// ScoreEvent is one upstream score payload for a game.
type ScoreEvent struct {
	ID        string      `json:"id"`
	Completed bool        `json:"completed"`
	Scores    []TeamScore `json:"scores"`
}

// ScoreMap builds the name -> score map. Entries with missing or
// unparseable scores are skipped, never defaulted to zero.
func (e *ScoreEvent) ScoreMap() map[string]int {
	out := make(map[string]int, len(e.Scores))
	for _, s := range e.Scores {
		if s.Name == "" {
			continue
		}
		pts, ok := s.Score.Int()
		if !ok {
			continue
		}
		out[s.Name] = pts
	}
	return out
}
