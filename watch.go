package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ibeckermayer/lisync/internal/app"
	"github.com/ibeckermayer/lisync/internal/scheduler"
)

var runImmediately bool

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run sync on the configured cron schedule",
	Long: `Stay in the foreground and run a sync on the [schedule] cron expression.
The config file is re-read before every run. A run that is still going when
the next one is due makes the next one be skipped.`,
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	a := app.FromConfig(cfg, logger)

	sched, err := scheduler.New(cfg.Schedule.Timezone, cfg.Schedule.JobTimeout.Duration, logger.With().Str("component", "scheduler").Logger())
	if err != nil {
		return err
	}

	job := func(ctx context.Context) error {
		if configFile == "" {
			if err := a.ReloadConfig(); err != nil {
				logger.Warn().Err(err).Msg("Keeping previous config")
			}
		}
		sum, err := a.RunSync(ctx)
		logger.Info().
			Stringer("stage", sum.Stage).
			Int("posts_new", sum.PostsNew).
			Int("posts_updated", sum.PostsUpdated).
			Int("audience", sum.AudienceDemographics).
			Msg("Sync finished")
		return err
	}

	if err := sched.AddSyncJob(cfg.Schedule.Cron, job); err != nil {
		return err
	}

	if runImmediately {
		_ = sched.RunNow("sync", job)
	}

	sched.Start()
	for _, j := range sched.ListJobs() {
		logger.Info().Str("job", j.Name).Time("next", j.NextRun).Msg("Scheduled")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	<-sched.Stop().Done()
	return nil
}

func init() {
	watchCmd.Flags().BoolVar(&runImmediately, "now", false, "run once before waiting for the schedule")
	rootCmd.AddCommand(watchCmd)
}
