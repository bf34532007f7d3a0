// Command poolctl is the admin CLI for the pool: manual line and score
// imports, the lock-and-snapshot cycle, ATS grading, and standings.
// Every mutation goes through the same engines the worker uses, so a
// manual run is just as idempotent as a scheduled one.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/crops004/supercontest/internal/ats"
	"github.com/crops004/supercontest/internal/client"
	"github.com/crops004/supercontest/internal/config"
	"github.com/crops004/supercontest/internal/lines"
	"github.com/crops004/supercontest/internal/repository"
	"github.com/crops004/supercontest/internal/scoring"
	syncengine "github.com/crops004/supercontest/internal/sync"
	"github.com/crops004/supercontest/internal/week"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	ctx := context.Background()
	cfg := config.MustLoad()

	dbCfg := repository.Config{
		Host:     cfg.DatabaseHost,
		Port:     strconv.Itoa(cfg.DatabasePort),
		User:     cfg.DatabaseUser,
		Password: cfg.DatabasePassword,
		Database: cfg.DatabaseName,
		SSLMode:  cfg.DatabaseSSLMode,
	}

	db, err := repository.NewDatabase(ctx, dbCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	if err := db.Health(ctx); err != nil {
		log.Fatal().Err(err).Msg("Database health check failed")
	}

	app := &cli{
		cfg:   cfg,
		db:    db,
		store: repository.NewStore(db),
		client: client.NewClient(
			cfg.OddsBaseURL,
			cfg.OddsAPIKey,
			cfg.OddsTimeout,
		),
	}

	cmd, args := os.Args[1], os.Args[2:]
	switch cmd {
	case "import-lines":
		err = app.importLines(ctx, args)
	case "import-scores":
		err = app.importScores(ctx, args)
	case "refresh-spreads":
		err = app.refreshSpreads(ctx, args)
	case "lock-weeks":
		err = app.lockWeeks(ctx)
	case "snapshot-locked":
		err = app.snapshotLocked(ctx)
	case "finalize-ats":
		err = app.finalizeATS(ctx)
	case "standings":
		err = app.standings(ctx, args)
	case "ats-summary":
		err = app.atsSummary(ctx, args)
	default:
		usage()
		os.Exit(2)
	}

	if err != nil {
		log.Fatal().Err(err).Str("command", cmd).Msg("Command failed")
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: poolctl <command> [flags]

commands:
  import-lines     fetch current lines and upsert games
  import-scores    fetch recent scores and update games
  refresh-spreads  refresh spreads on unlocked games only
  lock-weeks       lock all games through the current week and snapshot lines
  snapshot-locked  backfill closing-line snapshots for already-locked games
  finalize-ats     grade every completed game against its closing spread
  standings        print season or single-week standings
  ats-summary      print per-team cover records`)
}

type cli struct {
	cfg    *config.Config
	db     *repository.Database
	store  *repository.Store
	client *client.Client
}

func (a *cli) oddsOptions() client.Options {
	return client.Options{
		Regions:    a.cfg.OddsRegions,
		Bookmakers: a.cfg.OddsBookmaker,
		OddsFormat: a.cfg.OddsFormat,
	}
}

// resolveClock resolves the week anchor: configured value first,
// otherwise inferred from the earliest kickoff in a sample payload.
func (a *cli) resolveClock(ctx context.Context) (week.Clock, error) {
	if anchor, ok := a.cfg.WeekAnchor(); ok {
		return week.NewClock(anchor), nil
	}
	events, err := a.client.FetchOdds(ctx, a.cfg.SportKeyRegular, a.oddsOptions())
	if err != nil {
		return week.Clock{}, fmt.Errorf("failed to fetch sample payload for anchor inference: %w", err)
	}
	anchor := week.InferAnchor(events, time.Now())
	log.Warn().Time("anchor", anchor).Msg("NFL_WEEK1_THURSDAY_UTC not set, inferred anchor from feed")
	return week.NewClock(anchor), nil
}

func (a *cli) importLines(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("import-lines", flag.ExitOnError)
	weekFlag := fs.Int("week", -1, "force all imported games into this week")
	preseason := fs.Bool("preseason", false, "use the preseason sport key")
	fs.Parse(args)

	clock, err := a.resolveClock(ctx)
	if err != nil {
		return err
	}

	sportKey := a.cfg.SportKeyRegular
	if *preseason {
		sportKey = a.cfg.SportKeyPreseason
	}

	events, err := a.client.FetchOdds(ctx, sportKey, a.oddsOptions())
	if err != nil {
		return fmt.Errorf("failed to fetch odds: %w", err)
	}

	engine := syncengine.NewEngine(a.store, a.cfg.OddsBookmaker)

	var res syncengine.LineImportResult
	if *weekFlag >= 0 {
		res, err = engine.ImportLinesForWeek(ctx, events, *weekFlag)
	} else {
		res, err = engine.ImportLines(ctx, events, clock)
	}
	if err != nil {
		return err
	}

	log.Info().
		Str("sport", sportKey).
		Int("created", res.Created).
		Int("updated", res.Updated).
		Int("skipped_locked", res.SkippedLocked).
		Msg("Line import complete")
	return nil
}

func (a *cli) importScores(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("import-scores", flag.ExitOnError)
	days := fs.Int("days", a.cfg.ScoreDaysFrom, "how many days back to fetch scores (1-3)")
	fs.Parse(args)

	events, err := a.client.FetchScores(ctx, a.cfg.SportKeyRegular, *days)
	if err != nil {
		return fmt.Errorf("failed to fetch scores: %w", err)
	}

	engine := syncengine.NewEngine(a.store, a.cfg.OddsBookmaker)
	res, changed, err := engine.ImportScores(ctx, events)
	if err != nil {
		return err
	}

	log.Info().
		Int("updated_scores", res.Updated).
		Int("unchanged", res.Unchanged).
		Int("missing_game", res.MissingGame).
		Int("changed_games", len(changed)).
		Msg("Score import complete")
	return nil
}

func (a *cli) refreshSpreads(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("refresh-spreads", flag.ExitOnError)
	preseason := fs.Bool("preseason", false, "use the preseason sport key")
	fs.Parse(args)

	sportKey := a.cfg.SportKeyRegular
	if *preseason {
		sportKey = a.cfg.SportKeyPreseason
	}

	events, err := a.client.FetchOdds(ctx, sportKey, a.oddsOptions())
	if err != nil {
		return fmt.Errorf("failed to fetch odds: %w", err)
	}

	engine := syncengine.NewEngine(a.store, a.cfg.OddsBookmaker)
	res, err := engine.RefreshSpreadsUnlocked(ctx, events)
	if err != nil {
		return err
	}

	log.Info().
		Int("updated", res.Updated).
		Int("skipped_locked", res.SkippedLocked).
		Msg("Spread refresh complete")
	return nil
}

func (a *cli) lockWeeks(ctx context.Context) error {
	clock, err := a.resolveClock(ctx)
	if err != nil {
		return err
	}

	svc := lines.NewService(a.store, clock)
	res, err := svc.LockWeeksThroughCurrent(ctx, time.Now(), a.cfg.OddsBookmaker)
	if err != nil {
		return err
	}

	log.Info().
		Int("locked", res.Locked).
		Int("week_now", res.WeekNow).
		Msg("Lock cycle complete")
	return nil
}

func (a *cli) snapshotLocked(ctx context.Context) error {
	clock, err := a.resolveClock(ctx)
	if err != nil {
		return err
	}

	svc := lines.NewService(a.store, clock)
	count, err := svc.SnapshotLocked(ctx, a.cfg.OddsBookmaker)
	if err != nil {
		return err
	}

	log.Info().Int("snapshotted", count).Msg("Closing-line backfill complete")
	return nil
}

func (a *cli) finalizeATS(ctx context.Context) error {
	grader := ats.NewGrader(a.store)
	res, err := grader.FinalizeCompleted(ctx)
	if err != nil {
		return err
	}

	log.Info().
		Int("finalized", res.Finalized).
		Int("pending", res.Pending).
		Msg("ATS grading complete")
	return nil
}

func (a *cli) standings(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("standings", flag.ExitOnError)
	weekFlag := fs.Int("week", -1, "week to report (default: latest started week)")
	weekOnly := fs.Bool("week-only", false, "single-week standings instead of season-to-date")
	fs.Parse(args)

	throughWeek := *weekFlag
	if throughWeek < 0 {
		w, err := a.store.MaxStartedWeek(ctx, time.Now())
		if err != nil {
			return fmt.Errorf("failed to determine current week: %w", err)
		}
		throughWeek = w
	}

	agg := scoring.NewAggregator(a.store, a.cfg.PicksPerWeek)
	rows, err := agg.Standings(ctx, throughWeek, *weekOnly)
	if err != nil {
		return err
	}

	scope := "season"
	if *weekOnly {
		scope = "week"
	}
	fmt.Printf("standings (%s, through week %d)\n", scope, throughWeek)
	fmt.Printf("%-4s %-20s %6s %6s %6s %8s\n", "#", "user", "W", "L", "P", "points")
	for i, row := range rows {
		fmt.Printf("%-4d %-20s %6d %6d %6d %8.1f\n",
			i+1, row.Username, row.Record.Wins, row.Record.Losses, row.Record.Pushes, row.Record.Points)
	}
	return nil
}

func (a *cli) atsSummary(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("ats-summary", flag.ExitOnError)
	weekFlag := fs.Int("week", -1, "week to report (default: latest started week)")
	weekOnly := fs.Bool("week-only", false, "single-week records instead of season-to-date")
	fs.Parse(args)

	throughWeek := *weekFlag
	if throughWeek < 0 {
		w, err := a.store.MaxStartedWeek(ctx, time.Now())
		if err != nil {
			return fmt.Errorf("failed to determine current week: %w", err)
		}
		throughWeek = w
	}

	summaries, err := a.db.ATS.TeamSummary(ctx, throughWeek, *weekOnly)
	if err != nil {
		return err
	}

	fmt.Printf("%-28s %6s %6s %6s %8s\n", "team", "COV", "PUSH", "NC", "cover%")
	for _, s := range summaries {
		fmt.Printf("%-28s %6d %6d %6d %7.1f%%\n",
			s.Team, s.Covers, s.Pushes, s.NoCovers, s.CoverPct())
	}
	return nil
}
