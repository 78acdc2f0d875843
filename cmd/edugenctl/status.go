package main

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"edu-gen/db"
	"edu-gen/models"
	"edu-gen/repositories"
)

type statusStore interface {
	Get(ctx context.Context, id string) (*models.GenerationRecord, error)
	ListByUser(ctx context.Context, userID string, limit int64) ([]models.GenerationRecord, error)
}

type aiLogLister interface {
	ListByEducationPersonalID(ctx context.Context, id string) ([]models.AILog, error)
}

var statusCmd = &cobra.Command{
	Use:   "status <education-personal-id>",
	Short: "Show a generation request, optionally with its AI call logs",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()
		disconnect, err := connectMongo(ctx)
		if err != nil {
			return err
		}
		defer disconnect()

		withLogs, _ := cmd.Flags().GetBool("logs")
		var logs aiLogLister
		if withLogs {
			logs = repositories.NewAILogRepository(db.Database())
		}
		return runStatus(ctx, repositories.NewGenerationRepository(db.Database()), logs, args[0], cmd.OutOrStdout())
	},
}

var listCmd = &cobra.Command{
	Use:   "list <user-id>",
	Short: "List a user's most recent generation requests",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()
		disconnect, err := connectMongo(ctx)
		if err != nil {
			return err
		}
		defer disconnect()

		limit, _ := cmd.Flags().GetInt64("limit")
		return runList(ctx, repositories.NewGenerationRepository(db.Database()), args[0], limit, cmd.OutOrStdout())
	},
}

func init() {
	statusCmd.Flags().Bool("logs", false, "include AI request logs for the request")
	listCmd.Flags().Int64("limit", 20, "maximum number of requests to show")
	rootCmd.AddCommand(statusCmd, listCmd)
}

type statusOutput struct {
	Generation *models.GenerationRecord `json:"generation"`
	AILogs     []models.AILog           `json:"ai_logs,omitempty"`
}

func runStatus(ctx context.Context, store statusStore, logs aiLogLister, id string, out io.Writer) error {
	rec, err := store.Get(ctx, id)
	if err != nil {
		return err
	}
	result := statusOutput{Generation: rec}
	if logs != nil {
		if result.AILogs, err = logs.ListByEducationPersonalID(ctx, id); err != nil {
			return err
		}
	}
	return printJSON(out, result)
}

func runList(ctx context.Context, store statusStore, userID string, limit int64, out io.Writer) error {
	if limit <= 0 {
		limit = 20
	}
	recs, err := store.ListByUser(ctx, userID, limit)
	if err != nil {
		return err
	}
	if recs == nil {
		recs = []models.GenerationRecord{}
	}
	return printJSON(out, recs)
}
