package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"edu-gen/db"
	"edu-gen/models"
	"edu-gen/repositories"
)

type statusChanger interface {
	GetBySlug(ctx context.Context, slug string, includeUnpublished bool) (*models.EducationArticle, error)
	MarkStatus(ctx context.Context, id primitive.ObjectID, status models.ArticleStatus) error
}

var publishCmd = &cobra.Command{
	Use:   "publish <slug>",
	Short: "Publish a generated article (or move it back to draft with --draft)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()
		disconnect, err := connectMongo(ctx)
		if err != nil {
			return err
		}
		defer disconnect()

		status := models.ArticlePublished
		if toDraft, _ := cmd.Flags().GetBool("draft"); toDraft {
			status = models.ArticleDraft
		}
		return runPublish(ctx, repositories.NewArticleRepository(db.Database()), args[0], status, cmd.OutOrStdout())
	},
}

func init() {
	publishCmd.Flags().Bool("draft", false, "move the article back to draft")
	rootCmd.AddCommand(publishCmd)
}

func runPublish(ctx context.Context, store statusChanger, slug string, status models.ArticleStatus, out io.Writer) error {
	a, err := store.GetBySlug(ctx, slug, true)
	if err != nil {
		return fmt.Errorf("article %s: %w", slug, err)
	}
	if status == models.ArticlePublished && !a.IsGenerated() {
		return fmt.Errorf("article %s has no generated content yet", slug)
	}
	if a.Status == status {
		_, err = fmt.Fprintf(out, "article %s is already %s\n", slug, status)
		return err
	}
	if err := store.MarkStatus(ctx, a.ID, status); err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "article %s: %s -> %s\n", slug, a.Status, status)
	return err
}
