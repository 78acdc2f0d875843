package main

import (
	"context"
	"io"
	"time"

	"github.com/spf13/cobra"

	"edu-gen/cmd/api/quota"
	"edu-gen/config"
	"edu-gen/db"
	"edu-gen/models"
)

var usageCmd = &cobra.Command{
	Use:   "usage <user-id>",
	Short: "Show a user's generation usage for a day",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()

		cfg := config.GetConfig()
		if cfg.Quota.Backend == config.QuotaBackendMongo || cfg.Quota.Backend == "" {
			disconnect, err := connectMongo(ctx)
			if err != nil {
				return err
			}
			defer disconnect()
		}
		tracker, closeTracker, err := quota.NewFromConfig(cfg.Quota, db.Database())
		if err != nil {
			return err
		}
		defer closeTracker()

		date, _ := cmd.Flags().GetString("date")
		return runUsage(ctx, tracker, args[0], date, cmd.OutOrStdout())
	},
}

func init() {
	usageCmd.Flags().String("date", "", "day to inspect as YYYY-MM-DD (default: today, UTC)")
	rootCmd.AddCommand(usageCmd)
}

func runUsage(ctx context.Context, tracker quota.Tracker, userID, date string, out io.Writer) error {
	if date == "" {
		date = models.DayKey(time.Now())
	}
	usage, err := tracker.GetUsage(ctx, userID, date)
	if err != nil {
		return err
	}
	return printJSON(out, usage)
}
