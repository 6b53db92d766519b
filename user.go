package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ibeckermayer/lisync/internal/store"
)

var (
	userEmail string
	userName  string
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage the user rows scraped data is attached to",
}

var userAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create a user",
	Long: `Create the user that synced data belongs to. With a shared Postgres
database the dashboard creates users at sign-up; this is for standalone
sqlite installs.`,
	Example: `  lisync user add --email ada@example.com --name "Ada Lovelace"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := store.New(cfg.Database.Driver, cfg.Database.DSN)
		if err != nil {
			return err
		}
		defer db.Close()

		id, err := db.CreateUser(cmd.Context(), userEmail, userName)
		if err != nil {
			return err
		}
		fmt.Println(id)
		return nil
	},
}

func init() {
	userAddCmd.Flags().StringVar(&userEmail, "email", "", "user email (required)")
	userAddCmd.Flags().StringVar(&userName, "name", "", "display name")
	userAddCmd.MarkFlagRequired("email")

	userCmd.AddCommand(userAddCmd)
	rootCmd.AddCommand(userCmd)
}
