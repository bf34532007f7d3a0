// Package scheduler triggers the pool's batch cycles: periodic line
// refresh, the weekly lock-and-snapshot cycle, and score refresh plus
// grading. All mutation flows run serially from here or from the admin
// CLI; nothing else writes game or ATS state.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/crops004/supercontest/internal/ats"
	"github.com/crops004/supercontest/internal/cache"
	"github.com/crops004/supercontest/internal/client"
	"github.com/crops004/supercontest/internal/config"
	"github.com/crops004/supercontest/internal/lines"
	"github.com/crops004/supercontest/internal/metrics"
	"github.com/crops004/supercontest/internal/repository"
	"github.com/crops004/supercontest/internal/scoring"
	syncengine "github.com/crops004/supercontest/internal/sync"
	"github.com/crops004/supercontest/internal/week"
)

// Scheduler manages the background batch jobs.
type Scheduler struct {
	cfg    *config.Config
	client *client.Client
	store  *repository.Store
	engine *syncengine.Engine
	grader *ats.Grader
	cache  *cache.RedisCache // may be nil

	cron     *cron.Cron
	ticker   *time.Ticker
	stopChan chan struct{}

	mu       sync.Mutex
	clock    week.Clock
	clockSet bool
}

// NewScheduler creates a new scheduler instance. cache may be nil.
func NewScheduler(cfg *config.Config, oddsClient *client.Client, store *repository.Store, redisCache *cache.RedisCache) *Scheduler {
	return &Scheduler{
		cfg:      cfg,
		client:   oddsClient,
		store:    store,
		engine:   syncengine.NewEngine(store, cfg.OddsBookmaker),
		grader:   ats.NewGrader(store),
		cache:    redisCache,
		cron:     cron.New(),
		stopChan: make(chan struct{}),
	}
}

// Start starts the cron jobs and the score polling ticker.
func (s *Scheduler) Start(ctx context.Context) error {
	log.Info().Msg("Scheduler starting...")

	if _, err := s.cron.AddFunc(s.cfg.LinesRefreshCron, func() {
		if _, err := s.RefreshLines(ctx); err != nil {
			log.Error().Err(err).Msg("Lines refresh failed")
		}
	}); err != nil {
		return fmt.Errorf("failed to schedule lines refresh: %w", err)
	}

	if _, err := s.cron.AddFunc(s.cfg.LockCycleCron, func() {
		if _, err := s.RunLockCycle(ctx); err != nil {
			log.Error().Err(err).Msg("Lock cycle failed")
		}
	}); err != nil {
		return fmt.Errorf("failed to schedule lock cycle: %w", err)
	}

	s.cron.Start()
	log.Info().
		Str("lines_cron", s.cfg.LinesRefreshCron).
		Str("lock_cron", s.cfg.LockCycleCron).
		Msg("Cron jobs scheduled")

	s.ticker = time.NewTicker(s.cfg.ScoreRefreshInterval)
	log.Info().
		Dur("interval", s.cfg.ScoreRefreshInterval).
		Msg("Score polling started")

	go s.pollScores(ctx)

	return nil
}

// Stop stops the scheduler.
func (s *Scheduler) Stop() {
	log.Info().Msg("Stopping scheduler...")

	if s.cron != nil {
		s.cron.Stop()
	}
	if s.ticker != nil {
		s.ticker.Stop()
	}

	close(s.stopChan)
	log.Info().Msg("Scheduler stopped")
}

func (s *Scheduler) pollScores(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Context cancelled, stopping score polling")
			return
		case <-s.stopChan:
			log.Info().Msg("Stop signal received, stopping score polling")
			return
		case <-s.ticker.C:
			if _, err := s.RefreshScores(ctx); err != nil {
				log.Error().Err(err).Msg("Score refresh failed")
				metrics.RecordError("scheduler", "score_refresh")
			}
		}
	}
}

// Clock returns the week clock, resolving it on first use: explicit
// configuration wins; otherwise the anchor is inferred from the earliest
// kickoff in a sample odds payload.
func (s *Scheduler) Clock(ctx context.Context) (week.Clock, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.clockSet {
		return s.clock, nil
	}

	if anchor, ok := s.cfg.WeekAnchor(); ok {
		s.clock = week.NewClock(anchor)
		s.clockSet = true
		return s.clock, nil
	}

	events, err := s.client.FetchOdds(ctx, s.cfg.SportKeyRegular, s.oddsOptions())
	if err != nil {
		return week.Clock{}, fmt.Errorf("failed to fetch sample payload for anchor inference: %w", err)
	}
	anchor := week.InferAnchor(events, time.Now())
	log.Warn().
		Time("anchor", anchor).
		Msg("NFL_WEEK1_THURSDAY_UTC not set, inferred week-1 anchor from feed")

	s.clock = week.NewClock(anchor)
	s.clockSet = true
	return s.clock, nil
}

func (s *Scheduler) oddsOptions() client.Options {
	return client.Options{
		Regions:    s.cfg.OddsRegions,
		Bookmakers: s.cfg.OddsBookmaker,
		OddsFormat: s.cfg.OddsFormat,
	}
}

// RefreshLines imports current lines for the regular and preseason sport
// keys. Locked games keep their spreads; the result counters say so.
func (s *Scheduler) RefreshLines(ctx context.Context) (syncengine.LineImportResult, error) {
	start := time.Now()

	clock, err := s.Clock(ctx)
	if err != nil {
		metrics.RecordBatch("lines", "error", time.Since(start).Seconds())
		return syncengine.LineImportResult{}, err
	}

	var total syncengine.LineImportResult
	for _, sportKey := range []string{s.cfg.SportKeyRegular, s.cfg.SportKeyPreseason} {
		events, err := s.client.FetchOdds(ctx, sportKey, s.oddsOptions())
		if err != nil {
			metrics.RecordBatch("lines", "error", time.Since(start).Seconds())
			return total, fmt.Errorf("failed to fetch odds for %s: %w", sportKey, err)
		}

		res, err := s.engine.ImportLines(ctx, events, clock)
		if err != nil {
			metrics.RecordBatch("lines", "error", time.Since(start).Seconds())
			return total, err
		}
		total.Created += res.Created
		total.Updated += res.Updated
		total.SkippedLocked += res.SkippedLocked
	}

	metrics.RecordLineImport(total.Created, total.Updated, total.SkippedLocked)
	metrics.RecordBatch("lines", "success", time.Since(start).Seconds())
	return total, nil
}

// RunLockCycle locks all games in weeks 0..current and snapshots their
// closing lines. Runs Tuesday mornings in the standard configuration.
func (s *Scheduler) RunLockCycle(ctx context.Context) (lines.LockResult, error) {
	start := time.Now()

	clock, err := s.Clock(ctx)
	if err != nil {
		metrics.RecordBatch("lock", "error", time.Since(start).Seconds())
		return lines.LockResult{}, err
	}

	svc := lines.NewService(s.store, clock)
	res, err := svc.LockWeeksThroughCurrent(ctx, time.Now(), s.cfg.OddsBookmaker)
	if err != nil {
		metrics.RecordBatch("lock", "error", time.Since(start).Seconds())
		return res, err
	}

	metrics.GamesLocked.Add(float64(res.Locked))
	metrics.RecordBatch("lock", "success", time.Since(start).Seconds())
	return res, nil
}

// RefreshScores imports recent scores and grades every game with both
// final scores. Standings caches are invalidated when anything changed.
func (s *Scheduler) RefreshScores(ctx context.Context) (syncengine.ScoreImportResult, error) {
	start := time.Now()

	events, err := s.client.FetchScores(ctx, s.cfg.SportKeyRegular, s.cfg.ScoreDaysFrom)
	if err != nil {
		metrics.RecordBatch("scores", "error", time.Since(start).Seconds())
		return syncengine.ScoreImportResult{}, fmt.Errorf("failed to fetch scores: %w", err)
	}

	res, changed, err := s.engine.ImportScores(ctx, events)
	if err != nil {
		metrics.RecordBatch("scores", "error", time.Since(start).Seconds())
		return res, err
	}
	metrics.RecordScoreImport(res.Updated, res.MissingGame)

	if len(changed) > 0 {
		fin, err := s.grader.FinalizeCompleted(ctx)
		if err != nil {
			metrics.RecordBatch("scores", "error", time.Since(start).Seconds())
			return res, err
		}
		metrics.GamesFinalized.Add(float64(fin.Finalized))

		if s.cache != nil {
			s.cache.InvalidateStandings(ctx)
			s.warmStandings(ctx)
		}
	}

	metrics.RecordBatch("scores", "success", time.Since(start).Seconds())
	return res, nil
}

// Standings returns standings through the given week, served from the
// cache when possible.
func (s *Scheduler) Standings(ctx context.Context, throughWeek int, weekOnly bool) ([]scoring.StandingsRow, error) {
	if s.cache != nil {
		var rows []scoring.StandingsRow
		if s.cache.GetStandings(ctx, throughWeek, weekOnly, &rows) {
			return rows, nil
		}
	}

	agg := scoring.NewAggregator(s.store, s.cfg.PicksPerWeek)
	rows, err := agg.Standings(ctx, throughWeek, weekOnly)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.SetStandings(ctx, throughWeek, weekOnly, rows, s.cfg.CacheTTLStandings)
	}
	return rows, nil
}

// warmStandings repopulates the season view for the current week after an
// invalidation so readers rarely see a cold cache.
func (s *Scheduler) warmStandings(ctx context.Context) {
	wk, err := s.store.MaxStartedWeek(ctx, time.Now())
	if err != nil {
		log.Warn().Err(err).Msg("Failed to determine week for cache warm")
		return
	}
	if _, err := s.Standings(ctx, wk, false); err != nil {
		log.Warn().Err(err).Msg("Failed to warm standings cache")
	}
}
