// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DataDir   string `env:"DATA_DIR" envDefault:"./data"` // Base directory for the state database and exports (always absolute after Load)
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogPretty bool   `env:"LOG_PRETTY" envDefault:"true"`
	Port      int    `env:"PORT" envDefault:"8001"`
	Timezone  string `env:"TIMEZONE" envDefault:"America/New_York"`
	DevMode   bool   `env:"DEV_MODE" envDefault:"false"` // Disables response compression

	HTTPTimeoutSeconds     int `env:"HTTP_TIMEOUT_SECONDS" envDefault:"30"`
	ExportTimeoutSeconds   int `env:"EXPORT_TIMEOUT_SECONDS" envDefault:"120"`
	AnalysisTimeoutSeconds int `env:"ANALYSIS_TIMEOUT_SECONDS" envDefault:"300"`

	Cache     CacheConfig
	Baselines BaselineConfig
	Oura      OuraConfig
	Strava    StravaConfig
	Sheets    SheetsConfig
	Training  TrainingTargets
	Recovery  RecoveryThresholds
	Schedule  ScheduleConfig

	// ScoringFile optionally points at a YAML file overriding scoring band tables.
	ScoringFile string `env:"SCORING_CONFIG_FILE"`

	location *time.Location
}

// CacheConfig controls the age-aware cache and the resolver's use of it.
type CacheConfig struct {
	MaxAgeDays       int    `env:"MAX_CACHE_AGE_DAYS" envDefault:"3"`
	Codec            string `env:"CACHE_CODEC" envDefault:"json"` // json or msgpack
	AuthSuspendHours int    `env:"AUTH_SUSPEND_HOURS" envDefault:"24"`
	RetentionDays    int    `env:"CACHE_RETENTION_DAYS" envDefault:"30"` // cleanup deletes older entries
}

// BaselineConfig holds the personalized baseline defaults.
// The defaults are used until enough history exists to compute medians.
type BaselineConfig struct {
	MinDays    int     `env:"BASELINE_MIN_DAYS" envDefault:"7"`
	MaxAgeDays int     `env:"BASELINE_MAX_AGE_DAYS" envDefault:"7"`
	HRV        float64 `env:"HRV_BASELINE" envDefault:"60"`
	RHR        float64 `env:"RHR_BASELINE" envDefault:"55"`
}

// OuraConfig holds wearable ring credentials.
// API access uses a long-lived refresh token; the export fallback uses account credentials.
type OuraConfig struct {
	ClientID     string `env:"OURA_CLIENT_ID"`
	ClientSecret string `env:"OURA_CLIENT_SECRET"`
	RefreshToken string `env:"OURA_REFRESH_TOKEN"`
	APIBaseURL   string `env:"OURA_API_BASE_URL" envDefault:"https://api.ouraring.com/v2"`
	TokenURL     string `env:"OURA_TOKEN_URL" envDefault:"https://api.ouraring.com/oauth/token"`
	HistoryDays  int    `env:"OURA_HISTORY_DAYS" envDefault:"14"`
	Email        string `env:"OURA_EMAIL"`
	Password     string `env:"OURA_PASSWORD"`
	ExportDir    string `env:"OURA_EXPORT_DIR"` // Defaults to <DataDir>/exports
	Headless     bool   `env:"OURA_EXPORT_HEADLESS" envDefault:"true"`
}

// StravaConfig holds activity API credentials.
type StravaConfig struct {
	ClientID     string `env:"STRAVA_CLIENT_ID"`
	ClientSecret string `env:"STRAVA_CLIENT_SECRET"`
	RefreshToken string `env:"STRAVA_REFRESH_TOKEN"`
	APIBaseURL   string `env:"STRAVA_API_BASE_URL" envDefault:"https://www.strava.com/api/v3"`
	TokenURL     string `env:"STRAVA_TOKEN_URL" envDefault:"https://www.strava.com/oauth/token"`
}

// SheetsConfig points at the published lean mass spreadsheet.
type SheetsConfig struct {
	SheetID          string  `env:"GOOGLE_SHEET_ID"`
	BaseURL          string  `env:"GOOGLE_SHEETS_BASE_URL" envDefault:"https://docs.google.com/spreadsheets/d"`
	TargetWeight     float64 `env:"LEAN_MASS_TARGET_WEIGHT" envDefault:"175"`
	TargetBodyFatPct float64 `env:"LEAN_MASS_TARGET_BF_PCT" envDefault:"15.5"`
}

// TrainingTargets are the weekly training goals used for progress and action items.
type TrainingTargets struct {
	RunTarget        int `env:"WEEKLY_RUN_TARGET" envDefault:"3"`
	LiftTarget       int `env:"WEEKLY_LIFT_TARGET" envDefault:"2"`
	LiftBonus        int `env:"WEEKLY_LIFT_BONUS" envDefault:"3"`
	RunMinutesTarget int `env:"WEEKLY_RUN_MINUTES_TARGET" envDefault:"60"`
}

// RecoveryThresholds are the lower readiness bounds of the recovery bands.
type RecoveryThresholds struct {
	Green  int `env:"RECOVERY_GREEN" envDefault:"85"`
	Yellow int `env:"RECOVERY_YELLOW" envDefault:"70"`
	Orange int `env:"RECOVERY_ORANGE" envDefault:"55"`
}

// ScheduleConfig holds cron expressions for background jobs.
type ScheduleConfig struct {
	Analysis        string `env:"ANALYSIS_SCHEDULE" envDefault:"0 6 * * *"`
	CacheCleanup    string `env:"CACHE_CLEANUP_SCHEDULE" envDefault:"30 3 * * *"`
	Maintenance     string `env:"DB_MAINTENANCE_SCHEDULE" envDefault:"0 4 * * 0"`
	AnalysisOnStart bool   `env:"ANALYSIS_ON_START" envDefault:"true"`
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if err := cfg.resolve(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// resolve turns relative paths into absolute ones and loads the timezone.
func (c *Config) resolve() error {
	absDataDir, err := filepath.Abs(c.DataDir)
	if err != nil {
		return fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	c.DataDir = absDataDir

	if c.Oura.ExportDir == "" {
		c.Oura.ExportDir = filepath.Join(c.DataDir, "exports")
	}

	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err)
	}
	c.location = loc

	return nil
}

// Validate checks if required configuration is present and consistent
func (c *Config) Validate() error {
	if c.Cache.MaxAgeDays < 0 {
		return fmt.Errorf("MAX_CACHE_AGE_DAYS must not be negative, got %d", c.Cache.MaxAgeDays)
	}
	if c.Cache.Codec != "json" && c.Cache.Codec != "msgpack" {
		return fmt.Errorf("CACHE_CODEC must be json or msgpack, got %q", c.Cache.Codec)
	}
	if c.Cache.RetentionDays < c.Cache.MaxAgeDays {
		return fmt.Errorf("CACHE_RETENTION_DAYS (%d) must not be below MAX_CACHE_AGE_DAYS (%d)", c.Cache.RetentionDays, c.Cache.MaxAgeDays)
	}
	if c.Baselines.MinDays < 1 {
		return fmt.Errorf("BASELINE_MIN_DAYS must be at least 1, got %d", c.Baselines.MinDays)
	}
	if !(c.Recovery.Green > c.Recovery.Yellow && c.Recovery.Yellow > c.Recovery.Orange) {
		return fmt.Errorf("recovery thresholds must be strictly descending (green %d, yellow %d, orange %d)",
			c.Recovery.Green, c.Recovery.Yellow, c.Recovery.Orange)
	}

	// Note: provider credentials are optional; missing ones only disable that strategy.
	return nil
}

// Location returns the configured timezone (UTC before Load resolved it).
func (c *Config) Location() *time.Location {
	if c.location == nil {
		return time.UTC
	}
	return c.location
}

// HTTPTimeout returns the bounded timeout applied to provider HTTP calls.
func (c *Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTPTimeoutSeconds) * time.Second
}

// ExportTimeout returns the timeout for a browser-driven export download.
func (c *Config) ExportTimeout() time.Duration {
	return time.Duration(c.ExportTimeoutSeconds) * time.Second
}

// AnalysisTimeout bounds one analysis run.
func (c *Config) AnalysisTimeout() time.Duration {
	return time.Duration(c.AnalysisTimeoutSeconds) * time.Second
}

// OuraAPIConfigured reports whether the refresh-token flow can be attempted.
func (c *Config) OuraAPIConfigured() bool {
	return c.Oura.ClientID != "" && c.Oura.ClientSecret != "" && c.Oura.RefreshToken != ""
}

// StravaConfigured reports whether the activity API can be used.
func (c *Config) StravaConfigured() bool {
	return c.Strava.ClientID != "" && c.Strava.ClientSecret != "" && c.Strava.RefreshToken != ""
}
