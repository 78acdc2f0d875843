// Package main is the entry point for edugenctl, the operator CLI for the
// generation pipeline: usage inspection, request status, manual retry and publishing.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"edu-gen/cmd/internal/logger"
	"edu-gen/config"
	"edu-gen/db"
)

var rootCmd = &cobra.Command{
	Use:   "edugenctl",
	Short: "Operator CLI for the edu-gen generation pipeline",
	Long: `edugenctl inspects and repairs the generation pipeline directly against
MongoDB and Kafka. It reads the same config.yaml and environment as the api
and worker services.

Manual retries issued here do not consume the user's daily quota.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config.InitApp()
		logger.Init(config.GetConfig().Logging.Level, "edugenctl")
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().Duration("timeout", 30*time.Second, "overall timeout for the command")
}

// commandContext 는 --timeout 이 적용된 컨텍스트를 만든다.
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	timeout, _ := cmd.Flags().GetDuration("timeout")
	return context.WithTimeout(cmd.Context(), timeout)
}

// connectMongo 는 db 패키지를 초기화하고 종료 함수를 돌려준다.
func connectMongo(ctx context.Context) (func(), error) {
	if err := db.Init(ctx); err != nil {
		return func() {}, fmt.Errorf("failed to initialize MongoDB: %w", err)
	}
	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = db.Disconnect(shutdownCtx)
	}, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
