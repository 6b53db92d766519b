package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

const appName = "lisync"

// Config holds all application configuration
type Config struct {
	Version  int            `toml:"version"`
	Session  SessionConfig  `toml:"session"`
	Database DatabaseConfig `toml:"database"`
	User     UserConfig     `toml:"user"`
	Scraping ScrapingConfig `toml:"scraping"`
	Schedule ScheduleConfig `toml:"schedule"`
	Notify   NotifyConfig   `toml:"notify"`
}

type SessionConfig struct {
	Path string `toml:"path"`
}

// Supported database drivers
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "pgx"
)

type DatabaseConfig struct {
	Driver string `toml:"driver"`
	DSN    string `toml:"dsn"`
}

// UserConfig selects which user row the scraped data belongs to. An empty
// email means the first user in the store.
type UserConfig struct {
	Email string `toml:"email"`
}

// MaxPostAnalytics caps how many post analytics pages one run may open
const MaxPostAnalytics = 5

type ScrapingConfig struct {
	Headless           bool     `toml:"headless"`
	BaseURL            string   `toml:"base_url"`
	PostLimit          int      `toml:"post_limit"`
	PostAnalyticsLimit int      `toml:"post_analytics_limit"`
	ScrollPasses       int      `toml:"scroll_passes"`
	PageTimeout        Duration `toml:"page_timeout"`
	SettleInterval     Duration `toml:"settle_interval"`
	SettleQuietPolls   int      `toml:"settle_quiet_polls"`
	SettleTimeout      Duration `toml:"settle_timeout"`
	CacheSteps         bool     `toml:"cache_steps"`
}

type ScheduleConfig struct {
	Cron       string   `toml:"cron"`
	Timezone   string   `toml:"timezone"`
	JobTimeout Duration `toml:"job_timeout"`
}

// NotifyConfig controls the run report email sent after scheduled syncs
type NotifyConfig struct {
	Enabled      bool   `toml:"enabled"`
	OnlyFailures bool   `toml:"only_failures"`
	Provider     string `toml:"provider"`
	SMTPHost     string `toml:"smtp_host"`
	SMTPPort     int    `toml:"smtp_port"`
	SMTPUser     string `toml:"smtp_user"`
	SMTPPass     string `toml:"smtp_pass"`
	FromAddr     string `toml:"from_address"`
	ToAddr       string `toml:"to_address"`
	TopPosts     int    `toml:"top_posts"`
}

// Duration is a time.Duration that reads and writes as "30s" in TOML
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns a Config with sensible defaults
func Default() *Config {
	cfg := &Config{
		Version: 1,
		Database: DatabaseConfig{
			Driver: DriverSQLite,
		},
		Scraping: ScrapingConfig{
			Headless:           true,
			BaseURL:            "https://www.linkedin.com",
			PostLimit:          15,
			PostAnalyticsLimit: 5,
			ScrollPasses:       3,
			PageTimeout:        Duration{30 * time.Second},
			SettleInterval:     Duration{500 * time.Millisecond},
			SettleQuietPolls:   3,
			SettleTimeout:      Duration{8 * time.Second},
			CacheSteps:         true,
		},
		Schedule: ScheduleConfig{
			Cron:       "0 */6 * * *",
			Timezone:   "UTC",
			JobTimeout: Duration{30 * time.Minute},
		},
		Notify: NotifyConfig{
			Provider: "smtp",
			SMTPPort: 587,
			TopPosts: 5,
		},
	}

	if dir, err := ConfigDir(); err == nil {
		cfg.Session.Path = filepath.Join(dir, "session.json")
		cfg.Database.DSN = filepath.Join(dir, "lisync.db")
	}

	return cfg
}

// ConfigDir returns the platform-appropriate config directory
func ConfigDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, appName), nil
}

// CacheDir returns the platform-appropriate cache directory
func CacheDir() (string, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cacheDir, appName), nil
}

// ConfigPath returns the full path to the config file
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load reads config from disk, filling unset fields from Default.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFile(path)
}

// LoadFile reads config from path, filling unset fields from Default.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrCreate loads the config, writing the defaults on first run.
func LoadOrCreate() (*Config, bool, error) {
	cfg, err := Load()
	if err == nil {
		return cfg, false, nil
	}
	if !os.IsNotExist(err) {
		return nil, false, err
	}

	cfg = Default()
	if err := cfg.Save(); err != nil {
		return cfg, false, err
	}
	return cfg, true, nil
}

// Save writes config to disk
func (c *Config) Save() error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return c.SaveFile(path)
}

// SaveFile writes config to path
func (c *Config) SaveFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	return encoder.Encode(c)
}

// ApplyEnv loads .env files (missing ones are ignored) and applies the
// environment overrides on top of the file values.
func (c *Config) ApplyEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("loading %s: %w", f, err)
		}
	}

	if v := os.Getenv("LISYNC_DATABASE_DRIVER"); v != "" {
		c.Database.Driver = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Database.DSN = v
		if os.Getenv("LISYNC_DATABASE_DRIVER") == "" {
			c.Database.Driver = DriverPostgres
		}
	}
	if v := os.Getenv("LISYNC_SESSION_PATH"); v != "" {
		c.Session.Path = v
	}
	if v := os.Getenv("LISYNC_HEADLESS"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("LISYNC_HEADLESS: %w", err)
		}
		c.Scraping.Headless = b
	}
	if v := os.Getenv("LISYNC_SMTP_PASS"); v != "" {
		c.Notify.SMTPPass = v
	}
	return nil
}

// Validate reports configuration that can't produce a working run
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverSQLite, DriverPostgres:
	default:
		return fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("database dsn is empty")
	}
	if c.Session.Path == "" {
		return fmt.Errorf("session path is empty")
	}
	if c.Scraping.BaseURL == "" {
		return fmt.Errorf("scraping base_url is empty")
	}
	if c.Scraping.PostAnalyticsLimit < 0 || c.Scraping.PostLimit < 0 {
		return fmt.Errorf("scraping limits must not be negative")
	}
	if c.Scraping.PostAnalyticsLimit > MaxPostAnalytics {
		return fmt.Errorf("scraping post_analytics_limit must be at most %d", MaxPostAnalytics)
	}
	if c.Notify.Enabled {
		if c.Notify.SMTPHost == "" || c.Notify.ToAddr == "" {
			return fmt.Errorf("notify needs smtp_host and to_address")
		}
	}
	return nil
}
