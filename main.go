// Command lisync scrapes LinkedIn profile analytics through a logged-in
// browser session and syncs them into the analytics database.
package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ibeckermayer/lisync/internal/config"
)

var (
	// Global flags
	configFile string
	envFile    string
	logLevel   string
	jsonLogs   bool

	// Set by the root PersistentPreRunE
	cfg    *config.Config
	logger zerolog.Logger
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "lisync",
	Short: "Sync LinkedIn profile analytics into the analytics database",
	Long: `lisync drives a browser with your captured LinkedIn session through the
profile, activity feed and analytics pages, then stores the results with
daily history.

Typical first run:
  lisync login          capture a session in a visible browser
  lisync user add ...   create the user row (standalone sqlite only)
  lisync sync           run one sync`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		l, err := newLogger(logLevel, jsonLogs)
		if err != nil {
			return err
		}
		logger = l

		cfg, err = loadConfig()
		return err
	},
}

func loadConfig() (*config.Config, error) {
	var c *config.Config
	var err error

	if configFile != "" {
		c, err = config.LoadFile(configFile)
	} else {
		var created bool
		c, created, err = config.LoadOrCreate()
		if created {
			path, _ := config.ConfigPath()
			logger.Info().Str("path", path).Msg("Created default config")
		}
	}
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if err := c.ApplyEnv(envFile); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return c, nil
}

func newLogger(level string, asJSON bool) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return zerolog.Logger{}, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	if asJSON {
		return zerolog.New(os.Stderr).Level(lvl).With().Timestamp().Logger(), nil
	}
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}
	return zerolog.New(out).Level(lvl).With().Timestamp().Logger(), nil
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is <user config dir>/lisync/config.toml)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file with overrides")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&jsonLogs, "json-logs", false, "write logs as JSON")

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
