package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newStatsCmd() *cobra.Command {
	var dbPath, logLevel string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print statistics for the models stored in a database",
		Long: `Print the shared vocabulary and prefix counts of a chain database
written with --db, followed by one line per stored model.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Opening a missing path would create an empty database.
			if _, err := os.Stat(dbPath); err != nil {
				return fmt.Errorf("cannot open database: %w", err)
			}

			logger := newLogger(logLevel, cmd.ErrOrStderr())
			store, closeStore, err := openStore(dbPath, logger)
			if err != nil {
				return err
			}
			defer closeStore()

			stats, err := store.GetStats(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to get stats: %w", err)
			}

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "Vocabulary: %d tokens, %d prefixes\n", stats.VocabSize, stats.PrefixSize)
			for _, model := range stats.Models {
				s := stats.Stats[model.Id]
				_, _ = fmt.Fprintf(out, "Model `%s` (order %d): %d links, %d transitions, %d starting tokens\n",
					model.Name, model.Order, s.TotalChains, s.TotalFrequency, s.StartingTokens)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite database written by --db")
	cmd.Flags().StringVar(&logLevel, "log-level", "warn", "Log level: debug, info, warn or error")
	_ = cmd.MarkFlagRequired("db")
	return cmd
}
