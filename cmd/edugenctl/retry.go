package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"edu-gen/cmd/api/event/dispatcher"
	"edu-gen/cmd/internal/eventbus"
	"edu-gen/db"
	"edu-gen/events"
	"edu-gen/models"
	"edu-gen/repositories"
)

type retryStore interface {
	Get(ctx context.Context, id string) (*models.GenerationRecord, error)
	ResetForRetry(ctx context.Context, id, eventID string) (*models.GenerationRecord, error)
	MarkFailed(ctx context.Context, id, reason, kind string) error
}

type generatePublisher interface {
	NewGenerateEvent(userID, prompt string, tags []string, educationPersonalID string) *events.GenerateRequestedEvent
	PublishGenerate(ctx context.Context, e *events.GenerateRequestedEvent) error
}

var retryCmd = &cobra.Command{
	Use:   "retry <education-personal-id>",
	Short: "Re-emit generate for a failed request without consuming quota",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()
		disconnect, err := connectMongo(ctx)
		if err != nil {
			return err
		}
		defer disconnect()

		bus, err := eventbus.NewKafkaEventBus(eventbus.GetBrokers())
		if err != nil {
			return err
		}
		defer bus.Close()

		return runRetry(ctx,
			repositories.NewGenerationRepository(db.Database()),
			dispatcher.NewEventDispatcher(bus, "edugenctl"),
			args[0], cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(retryCmd)
}

func runRetry(ctx context.Context, store retryStore, pub generatePublisher, id string, out io.Writer) error {
	rec, err := store.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("generation %s: %w", id, err)
	}
	if rec.State != models.GenerationFailed {
		return fmt.Errorf("generation %s is %s, only failed requests can be retried: %w", id, rec.State, repositories.ErrStateConflict)
	}

	e := pub.NewGenerateEvent(rec.UserID, rec.Prompt, rec.Tags, rec.ID)
	if _, err := store.ResetForRetry(ctx, rec.ID, e.ID); err != nil {
		return fmt.Errorf("generation %s: %w", id, err)
	}
	if err := pub.PublishGenerate(ctx, e); err != nil {
		if markErr := store.MarkFailed(context.WithoutCancel(ctx), rec.ID, rec.LastError, rec.ErrorKind); markErr != nil {
			return fmt.Errorf("publish failed (%v) and state restore failed: %w", err, markErr)
		}
		return fmt.Errorf("failed to publish generate event: %w", err)
	}

	_, err = fmt.Fprintf(out, "re-emitted generate %s for %s (attempt %d)\n", e.ID, rec.ID, rec.Attempts+1)
	return err
}
