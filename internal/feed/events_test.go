package feed

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNumeric_UnmarshalJSON(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
		valid bool
	}{
		{"plain number", `-3.5`, "-3.5", true},
		{"quoted number", `"7"`, "7", true},
		{"integer", `24`, "24", true},
		{"null", `null`, "", false},
		{"empty string", `""`, "", false},
		{"garbage", `"N/A"`, "", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var n Numeric
			err := json.Unmarshal([]byte(tc.input), &n)
			require.NoError(t, err, "Numeric unmarshal must never fail")

			d, ok := n.Decimal()
			assert.Equal(t, tc.valid, ok)
			if tc.valid {
				want, _ := decimal.NewFromString(tc.want)
				assert.True(t, want.Equal(d))
			}
		})
	}
}

func TestOddsEvent_Kickoff(t *testing.T) {
	ev := OddsEvent{CommenceTime: "2025-09-07T17:00:00Z"}
	kickoff, ok := ev.Kickoff()
	require.True(t, ok)
	assert.Equal(t, time.Date(2025, 9, 7, 17, 0, 0, 0, time.UTC), kickoff)

	ev.CommenceTime = "not-a-time"
	_, ok = ev.Kickoff()
	assert.False(t, ok)
}

func TestOddsEvent_HomeSpread(t *testing.T) {
	payload := `{
		"id": "abc123",
		"commence_time": "2025-09-07T17:00:00Z",
		"home_team": "Denver Broncos",
		"away_team": "Kansas City Chiefs",
		"bookmakers": [
			{
				"key": "fanduel",
				"markets": [{"key": "spreads", "outcomes": [
					{"name": "Denver Broncos", "point": 2.5},
					{"name": "Kansas City Chiefs", "point": -2.5}
				]}]
			},
			{
				"key": "draftkings",
				"markets": [{"key": "spreads", "outcomes": [
					{"name": "Kansas City Chiefs", "point": -3},
					{"name": "Denver Broncos", "point": 3}
				]}]
			}
		]
	}`

	var ev OddsEvent
	require.NoError(t, json.Unmarshal([]byte(payload), &ev))

	// Only the requested bookmaker's home-team outcome counts.
	spread, ok := ev.HomeSpread("draftkings")
	require.True(t, ok)
	assert.True(t, decimal.NewFromInt(3).Equal(spread))

	spread, ok = ev.HomeSpread("fanduel")
	require.True(t, ok)
	assert.True(t, decimal.NewFromFloat(2.5).Equal(spread))

	_, ok = ev.HomeSpread("pinnacle")
	assert.False(t, ok, "absent bookmaker must not guess")
}

func TestOddsEvent_HomeSpread_MalformedPoint(t *testing.T) {
	payload := `{
		"id": "abc123",
		"home_team": "Denver Broncos",
		"away_team": "Kansas City Chiefs",
		"bookmakers": [{
			"key": "draftkings",
			"markets": [{"key": "spreads", "outcomes": [
				{"name": "Denver Broncos", "point": "garbage"}
			]}]
		}]
	}`

	var ev OddsEvent
	require.NoError(t, json.Unmarshal([]byte(payload), &ev), "one bad point must not fail the event")

	_, ok := ev.HomeSpread("draftkings")
	assert.False(t, ok, "malformed point decodes as absent")
}

func TestScoreEvent_ScoreMap(t *testing.T) {
	payload := `{
		"id": "abc123",
		"completed": true,
		"scores": [
			{"name": "Denver Broncos", "score": "24"},
			{"name": "Kansas City Chiefs", "score": 21},
			{"name": "", "score": 3},
			{"name": "Ghost Team", "score": "??"}
		]
	}`

	var ev ScoreEvent
	require.NoError(t, json.Unmarshal([]byte(payload), &ev))
	assert.True(t, ev.Completed)

	scores := ev.ScoreMap()
	assert.Equal(t, map[string]int{
		"Denver Broncos":     24,
		"Kansas City Chiefs": 21,
	}, scores, "unnamed and unparseable entries are skipped, never zeroed")
}
