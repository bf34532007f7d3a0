// Package week maps kickoff timestamps onto the pool's own week numbering.
//
// The season is anchored to a single instant: Thursday 00:00 UTC of NFL
// week 1. Weeks are 7-day buckets from that anchor; anything earlier is
// week 0 (preseason). Week 0 is a first-class value, not an error: it
// composes with "lock weeks 0..current" and keeps preseason games
// addressable.
package week

import (
	"time"

	"github.com/crops004/supercontest/internal/feed"
)

// Clock resolves contest weeks against a fixed anchor instant.
type Clock struct {
	anchor time.Time
}

// NewClock returns a Clock anchored at the given UTC instant (week 1
// start). Explicit configuration should always win over inference.
func NewClock(anchor time.Time) Clock {
	return Clock{anchor: anchor.UTC()}
}

// Anchor returns the week-1 start instant.
func (c Clock) Anchor() time.Time {
	return c.anchor
}

// ForKickoff returns the contest week for a kickoff time. Kickoffs before
// the anchor are week 0.
func (c Clock) ForKickoff(kickoff time.Time) int {
	k := kickoff.UTC()
	if k.Before(c.anchor) {
		return 0
	}
	days := int(k.Sub(c.anchor) / (24 * time.Hour))
	return days/7 + 1
}

// CurrentWeek returns the contest week containing now. Same bucketing as
// ForKickoff, so "lock weeks through current" and per-game week
// assignment can never disagree.
func (c Clock) CurrentWeek(now time.Time) int {
	return c.ForKickoff(now)
}

// InferAnchor derives a week-1 anchor from a sample odds payload: the
// earliest kickoff in the batch, snapped back to Thursday 00:00 UTC of
// that week. Fallback only; use an explicitly configured anchor when one
// exists. When the payload has no parseable kickoff, fallbackNow is
// snapped instead.
func InferAnchor(events []feed.OddsEvent, fallbackNow time.Time) time.Time {
	var earliest time.Time
	for i := range events {
		kickoff, ok := events[i].Kickoff()
		if !ok {
			continue
		}
		if earliest.IsZero() || kickoff.Before(earliest) {
			earliest = kickoff
		}
	}
	base := earliest
	if base.IsZero() {
		base = fallbackNow.UTC()
	}
	daysBack := (int(base.Weekday()) - int(time.Thursday) + 7) % 7
	day := base.AddDate(0, 0, -daysBack)
	return time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
}
