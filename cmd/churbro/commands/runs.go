package commands

import (
	"errors"
	"fmt"

	"github.com/churbro/backend/internal/infrastructure/sqlite"
	"github.com/spf13/cobra"
)

var runsLimit int

func init() {
	runsCmd.Flags().IntVar(&runsLimit, "limit", 10, "number of runs to list")
	runsCmd.AddCommand(runsShowCmd)
	rootCmd.AddCommand(runsCmd, historyCmd)
}

func openHistory(cmd *cobra.Command) (*sqlite.Store, error) {
	if cfg.Output.SQLitePath == "" {
		return nil, errors.New("run history is disabled (output.sqlite_path is empty)")
	}
	return sqlite.Open(cmd.Context(), cfg.Output.SQLitePath)
}

var runsCmd = &cobra.Command{
	Use:   "runs [--limit n]",
	Short: "Lists recorded pipeline runs, newest first.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openHistory(cmd)
		if err != nil {
			return err
		}
		defer store.Close()

		runs, err := store.Runs(cmd.Context(), runsLimit)
		if err != nil {
			return err
		}
		renderRuns(cmd.OutOrStdout(), runs)
		return nil
	},
}

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Prints the per-store statistics of one run.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openHistory(cmd)
		if err != nil {
			return err
		}
		defer store.Close()

		stats, err := store.StoreStats(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if len(stats) == 0 {
			return fmt.Errorf("no run %q", args[0])
		}
		renderStoreReports(cmd.OutOrStdout(), stats)
		return nil
	},
}

var historyCmd = &cobra.Command{
	Use:   "history <store> <product name>",
	Short: "Prints a product's price across recorded runs.",
	Long:  "Prints a product's price across recorded runs. The store is its display name, e.g. \"New World\".",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openHistory(cmd)
		if err != nil {
			return err
		}
		defer store.Close()

		points, err := store.PriceHistory(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		if len(points) == 0 {
			return fmt.Errorf("no price history for %q at %s", args[1], args[0])
		}
		renderPriceHistory(cmd.OutOrStdout(), points)
		return nil
	},
}
