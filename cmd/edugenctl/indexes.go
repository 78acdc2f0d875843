package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"edu-gen/db"
)

var indexesCmd = &cobra.Command{
	Use:   "indexes",
	Short: "Create the MongoDB indexes used by the pipeline",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()
		// db.Init 이 EnsureIndexes 까지 수행한다.
		disconnect, err := connectMongo(ctx)
		if err != nil {
			return err
		}
		defer disconnect()

		specs := db.IndexSpecs()
		collections := make([]string, 0, len(specs))
		for name := range specs {
			collections = append(collections, name)
		}
		sort.Strings(collections)
		for _, name := range collections {
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d indexes\n", name, len(specs[name]))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(indexesCmd)
}
