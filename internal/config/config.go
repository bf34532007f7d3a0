package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration
type Config struct {
	// The Odds API
	OddsAPIKey    string        `envconfig:"ODDS_API_KEY" required:"true"`
	OddsBaseURL   string        `envconfig:"ODDS_BASE_URL" default:"https://api.the-odds-api.com/v4"`
	OddsTimeout   time.Duration `envconfig:"ODDS_TIMEOUT" default:"20s"`
	OddsRegions   string        `envconfig:"ODDS_REGIONS" default:"us"`
	OddsBookmaker string        `envconfig:"ODDS_BOOKMAKER" default:"draftkings"`
	OddsFormat    string        `envconfig:"ODDS_ODDS_FORMAT" default:"american"`

	// Sport keys
	SportKeyRegular   string `envconfig:"SPORT_KEY_REGULAR" default:"americanfootball_nfl"`
	SportKeyPreseason string `envconfig:"SPORT_KEY_PRESEASON" default:"americanfootball_nfl_preseason"`

	// Week clock. The anchor is Thursday 00:00 UTC of NFL week 1; when
	// unset, the worker infers it from the earliest kickoff in a batch.
	Week1ThursdayUTC string `envconfig:"NFL_WEEK1_THURSDAY_UTC" default:""`

	// Pool rules
	PicksPerWeek int `envconfig:"PICKS_PER_WEEK" default:"5"`

	// Database
	DatabaseHost     string `envconfig:"DATABASE_HOST" default:"localhost"`
	DatabasePort     int    `envconfig:"DATABASE_PORT" default:"5432"`
	DatabaseName     string `envconfig:"DATABASE_NAME" default:"supercontest"`
	DatabaseUser     string `envconfig:"DATABASE_USER" default:"supercontest"`
	DatabasePassword string `envconfig:"DATABASE_PASSWORD" required:"true"`
	DatabaseSSLMode  string `envconfig:"DATABASE_SSL_MODE" default:"disable"`

	// Redis
	RedisHost     string `envconfig:"REDIS_HOST" default:"localhost"`
	RedisPort     int    `envconfig:"REDIS_PORT" default:"6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	// Application
	AppEnv   string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// Scheduler
	EnableScheduler      bool          `envconfig:"ENABLE_SCHEDULER" default:"true"`
	InitialSyncEnabled   bool          `envconfig:"INITIAL_SYNC_ENABLED" default:"true"`
	LinesRefreshCron     string        `envconfig:"LINES_REFRESH_CRON" default:"0 */6 * * *"`
	LockCycleCron        string        `envconfig:"LOCK_CYCLE_CRON" default:"0 6 * * 2"`
	ScoreRefreshInterval time.Duration `envconfig:"SCORE_REFRESH_INTERVAL" default:"10m"`
	ScoreDaysFrom        int           `envconfig:"SCORE_DAYS_FROM" default:"3"`

	// Caching TTL
	CacheTTLStandings time.Duration `envconfig:"CACHE_TTL_STANDINGS" default:"5m"`

	// Monitoring
	EnableMetrics bool `envconfig:"ENABLE_METRICS" default:"true"`
	MetricsPort   int  `envconfig:"METRICS_PORT" default:"9090"`
}

// Load loads configuration from environment variables
// It first attempts to load from .env file if present
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.OddsAPIKey == "" {
		return fmt.Errorf("ODDS_API_KEY is required")
	}

	if c.DatabasePassword == "" {
		return fmt.Errorf("DATABASE_PASSWORD is required")
	}

	if c.Week1ThursdayUTC != "" {
		if _, err := time.Parse(time.RFC3339, c.Week1ThursdayUTC); err != nil {
			return fmt.Errorf("NFL_WEEK1_THURSDAY_UTC must be RFC3339: %w", err)
		}
	}

	if c.ScoreDaysFrom < 1 || c.ScoreDaysFrom > 3 {
		return fmt.Errorf("SCORE_DAYS_FROM must be 1..3")
	}

	return nil
}

// WeekAnchor returns the configured week-1 anchor instant. ok is false
// when no anchor was configured and inference should be used instead.
func (c *Config) WeekAnchor() (time.Time, bool) {
	if c.Week1ThursdayUTC == "" {
		return time.Time{}, false
	}
	anchor, err := time.Parse(time.RFC3339, c.Week1ThursdayUTC)
	if err != nil {
		return time.Time{}, false
	}
	return anchor.UTC(), true
}

// RedisAddr returns the Redis address
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// MustLoad loads configuration or exits on error
// Use this in main() where we want to fail fast
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	return cfg
}
