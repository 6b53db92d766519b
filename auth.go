package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/ibeckermayer/lisync/internal/app"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Capture a LinkedIn session in a visible browser",
	Long: `Open a browser window on the LinkedIn login page. Once you are logged
in and the feed loads, the session cookies and local storage are saved for
later headless runs. Gives up after five minutes.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		return app.FromConfig(cfg, logger).TriggerLogin(ctx)
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Delete the stored LinkedIn session",
	RunE: func(cmd *cobra.Command, args []string) error {
		return app.FromConfig(cfg, logger).TriggerLogout()
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show session validity and the latest stored snapshot",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := app.FromConfig(cfg, logger).Status(cmd.Context())
		if st != nil {
			fmt.Println(st)
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(loginCmd, logoutCmd, statusCmd)
}
