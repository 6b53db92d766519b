package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ibeckermayer/lisync/internal/app"
	"github.com/ibeckermayer/lisync/internal/config"
)

var (
	headful            bool
	postAnalyticsLimit int
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run one full scrape and persist the results",
	Long: `Scrape the profile, recent posts, analytics summary and audience
demographics, read per-post analytics for the most recent posts, and write
everything to the database. Exits non-zero when the run is aborted or the
results can't be saved.`,
	RunE: runSync,
}

func runSync(cmd *cobra.Command, args []string) error {
	if headful {
		cfg.Scraping.Headless = false
	}
	if cmd.Flags().Changed("post-analytics") {
		cfg.Scraping.PostAnalyticsLimit = postAnalyticsLimit
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("--post-analytics: %w", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := app.FromConfig(cfg, logger)
	sum, err := a.RunSync(ctx)
	fmt.Println(sum)
	return err
}

func init() {
	syncCmd.Flags().BoolVar(&headful, "headful", false, "show the browser window")
	syncCmd.Flags().IntVar(&postAnalyticsLimit, "post-analytics", 5, fmt.Sprintf("max posts to read analytics for (at most %d)", config.MaxPostAnalytics))
	rootCmd.AddCommand(syncCmd)
}
